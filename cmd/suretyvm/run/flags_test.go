// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/ids"

	"github.com/luxfi/suretyvm/cmd/suretyvm/oracles"
	"github.com/luxfi/suretyvm/genesis"
)

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flags)
	return flags
}

func TestParseFlags(t *testing.T) {
	require := require.New(t)

	owner := ids.GenerateTestShortID()
	firstAirline := ids.GenerateTestShortID()
	c, err := ParseFlags(newFlags(), []string{
		"--" + OwnerKey, owner.String(),
		"--" + FirstAirlineKey, firstAirline.String(),
		"--" + HTTPPortKey, "0",
	})
	require.NoError(err)
	require.Equal("127.0.0.1", c.HTTPHost)
	require.Zero(c.HTTPPort)
	require.Equal([]string{"*"}, c.AllowedOrigins)
	require.Equal(10*time.Second, c.ShutdownTimeout)
	require.Equal(30*time.Second, c.ReadHeaderTimeout)
	require.Empty(c.DataDir)
	require.Empty(c.ConfigBytes)
	require.Nil(c.Relay)

	g, err := genesis.Parse(c.GenesisBytes)
	require.NoError(err)
	require.Equal(owner, g.Owner)
	require.Equal(firstAirline, g.FirstAirline)
}

func TestParseFlagsFiles(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	genesisBytes, err := (&genesis.Genesis{
		Owner:        ids.GenerateTestShortID(),
		FirstAirline: ids.GenerateTestShortID(),
	}).Bytes()
	require.NoError(err)
	genesisFile := filepath.Join(dir, "genesis.json")
	require.NoError(os.WriteFile(genesisFile, genesisBytes, 0o600))

	configBytes := []byte(`{"minResponses":1}`)
	configFile := filepath.Join(dir, "config.json")
	require.NoError(os.WriteFile(configFile, configBytes, 0o600))

	oracle := ids.GenerateTestShortID()
	c, err := ParseFlags(newFlags(), []string{
		"--" + GenesisFileKey, genesisFile,
		"--" + ConfigFileKey, configFile,
		"--" + oracles.OraclesKey, oracle.String(),
	})
	require.NoError(err)
	require.Equal(genesisBytes, c.GenesisBytes)
	require.Equal(configBytes, c.ConfigBytes)
	require.NotNil(c.Relay)
	require.Equal([]ids.ShortID{oracle}, c.Relay.Relay.Oracles)
}

func TestParseFlagsTimeouts(t *testing.T) {
	require := require.New(t)

	c, err := ParseFlags(newFlags(), []string{
		"--" + OwnerKey, ids.GenerateTestShortID().String(),
		"--" + FirstAirlineKey, ids.GenerateTestShortID().String(),
		"--" + ShutdownTimeoutKey, "3s",
		"--" + ReadHeaderTimeoutKey, "5s",
	})
	require.NoError(err)
	require.Equal(3*time.Second, c.ShutdownTimeout)
	require.Equal(5*time.Second, c.ReadHeaderTimeout)
}

func TestParseFlagsMissingGenesis(t *testing.T) {
	_, err := ParseFlags(newFlags(), nil)
	require.ErrorIs(t, err, genesis.ErrMissingOwner)
}
