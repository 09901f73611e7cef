// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/suretyvm/utils/units"
)

func TestDefaultConfig(t *testing.T) {
	require := require.New(t)

	c := DefaultConfig()
	require.NoError(c.Verify())
	require.Equal(uint32(5), c.BootstrapAirlines)
	require.Equal(10*units.Unit, c.FundingThreshold)
	require.Equal(units.Unit, c.InsuranceCap)
	require.Equal(units.Unit, c.RegistrationFee)
	require.Equal(uint8(10), c.OracleIndexSpace)
	require.Equal(uint32(3), c.MinResponses)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		check       func(*require.Assertions, Config)
		expectedErr error
	}{
		{
			name: "empty",
			in:   "",
			check: func(require *require.Assertions, c Config) {
				require.Equal(DefaultConfig(), c)
			},
		},
		{
			name: "overlay",
			in:   `{"minResponses":2,"insuranceCap":2000000}`,
			check: func(require *require.Assertions, c Config) {
				require.Equal(uint32(2), c.MinResponses)
				require.Equal(2*units.Unit, c.InsuranceCap)
				require.Equal(uint32(5), c.BootstrapAirlines)
			},
		},
		{
			name:        "index space too small",
			in:          `{"oracleIndexSpace":2}`,
			expectedErr: ErrInvalidIndexSpace,
		},
		{
			name:        "zero denominator",
			in:          `{"payoutDenominator":0}`,
			expectedErr: ErrInvalidPayoutRatio,
		},
		{
			name:        "zero quorum",
			in:          `{"minResponses":0}`,
			expectedErr: ErrInvalidMinResponses,
		},
		{
			name:        "zero bootstrap",
			in:          `{"bootstrapAirlines":0}`,
			expectedErr: ErrInvalidBootstrap,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			c, err := Parse([]byte(test.in))
			require.ErrorIs(err, test.expectedErr)
			if test.check != nil {
				test.check(require, c)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`{`))
	require.Error(t, err)
}
