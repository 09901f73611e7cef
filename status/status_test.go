// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package status

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	require := require.New(t)

	for _, s := range Reportable {
		require.True(s.Valid(), s.String())
	}
	require.False(Status(15).Valid())
	require.Equal("Status(15)", Status(15).String())
}

func TestParse(t *testing.T) {
	tests := []struct {
		in          string
		expected    Status
		expectedErr error
	}{
		{"LateAirline", LateAirline, nil},
		{"20", LateAirline, nil},
		{"0", Unknown, nil},
		{"OnTime", OnTime, nil},
		{"21", 0, ErrUnknownStatus},
		{"late", 0, ErrUnknownStatus},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			require := require.New(t)

			got, err := Parse(test.in)
			require.ErrorIs(err, test.expectedErr)
			require.Equal(test.expected, got)
		})
	}
}

func TestJSON(t *testing.T) {
	require := require.New(t)

	b, err := json.Marshal(LateWeather)
	require.NoError(err)
	require.JSONEq(`"LateWeather"`, string(b))

	var s Status
	require.NoError(json.Unmarshal([]byte(`"LateTechnical"`), &s))
	require.Equal(LateTechnical, s)
	require.NoError(json.Unmarshal([]byte(`50`), &s))
	require.Equal(LateOther, s)
	require.ErrorIs(json.Unmarshal([]byte(`55`), &s), ErrUnknownStatus)

	_, err = json.Marshal(Status(7))
	require.ErrorIs(err, ErrUnknownStatus)
}
