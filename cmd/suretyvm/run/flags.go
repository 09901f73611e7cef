// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/luxfi/ids"

	"github.com/luxfi/suretyvm/cmd/suretyvm/oracles"
	"github.com/luxfi/suretyvm/genesis"
)

const (
	HTTPHostKey          = "http-host"
	HTTPPortKey          = "http-port"
	AllowedOriginsKey    = "http-allowed-origins"
	ShutdownTimeoutKey   = "http-shutdown-timeout"
	ReadHeaderTimeoutKey = "http-read-header-timeout"
	DataDirKey           = "data-dir"
	GenesisFileKey       = "genesis-file"
	OwnerKey             = "owner"
	FirstAirlineKey      = "first-airline"
	ConfigFileKey        = "config-file"
)

func AddFlags(flags *pflag.FlagSet) {
	flags.String(HTTPHostKey, "127.0.0.1", "Address of the HTTP server")
	flags.Uint16(HTTPPortKey, 9650, "Port of the HTTP server")
	flags.StringSlice(AllowedOriginsKey, []string{"*"}, "Origins allowed to make cross-origin requests")
	flags.Duration(ShutdownTimeoutKey, 10*time.Second, "Maximum duration to wait for in-flight requests on shutdown")
	flags.Duration(ReadHeaderTimeoutKey, 30*time.Second, "Maximum duration to read the headers of a request")
	flags.String(DataDirKey, "", "Directory of the ledger database. The ledger is kept in memory when empty")
	flags.String(GenesisFileKey, "", "Genesis JSON file. Overrides the owner and first airline flags")
	flags.String(OwnerKey, "", "Owner of the ledger")
	flags.String(FirstAirlineKey, "", "Airline registered at genesis")
	flags.String(ConfigFileKey, "", "VM config JSON file")
	oracles.AddFlags(flags, false)
}

type Config struct {
	HTTPHost          string
	HTTPPort          uint16
	AllowedOrigins    []string
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
	DataDir           string
	GenesisBytes      []byte
	ConfigBytes       []byte
	// Relay is nil unless oracles were given.
	Relay *oracles.Config
}

func ParseFlags(flags *pflag.FlagSet, args []string) (*Config, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	host, err := flags.GetString(HTTPHostKey)
	if err != nil {
		return nil, err
	}

	port, err := flags.GetUint16(HTTPPortKey)
	if err != nil {
		return nil, err
	}

	origins, err := flags.GetStringSlice(AllowedOriginsKey)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := flags.GetDuration(ShutdownTimeoutKey)
	if err != nil {
		return nil, err
	}

	readHeaderTimeout, err := flags.GetDuration(ReadHeaderTimeoutKey)
	if err != nil {
		return nil, err
	}

	dataDir, err := flags.GetString(DataDirKey)
	if err != nil {
		return nil, err
	}

	genesisBytes, err := parseGenesis(flags)
	if err != nil {
		return nil, err
	}

	configFile, err := flags.GetString(ConfigFileKey)
	if err != nil {
		return nil, err
	}
	var configBytes []byte
	if configFile != "" {
		configBytes, err = os.ReadFile(configFile)
		if err != nil {
			return nil, err
		}
	}

	relayConfig, err := oracles.ParseFlags(flags)
	if err != nil {
		return nil, err
	}
	if len(relayConfig.Relay.Oracles) == 0 {
		relayConfig = nil
	}

	return &Config{
		HTTPHost:          host,
		HTTPPort:          port,
		AllowedOrigins:    origins,
		ShutdownTimeout:   shutdownTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		DataDir:           dataDir,
		GenesisBytes:      genesisBytes,
		ConfigBytes:       configBytes,
		Relay:             relayConfig,
	}, nil
}

func parseGenesis(flags *pflag.FlagSet) ([]byte, error) {
	genesisFile, err := flags.GetString(GenesisFileKey)
	if err != nil {
		return nil, err
	}
	if genesisFile != "" {
		return os.ReadFile(genesisFile)
	}

	ownerStr, err := flags.GetString(OwnerKey)
	if err != nil {
		return nil, err
	}
	firstAirlineStr, err := flags.GetString(FirstAirlineKey)
	if err != nil {
		return nil, err
	}

	g := &genesis.Genesis{}
	if ownerStr != "" {
		g.Owner, err = ids.ShortFromString(ownerStr)
		if err != nil {
			return nil, err
		}
	}
	if firstAirlineStr != "" {
		g.FirstAirline, err = ids.ShortFromString(firstAirlineStr)
		if err != nil {
			return nil, err
		}
	}
	if err := g.Verify(); err != nil {
		return nil, err
	}
	return g.Bytes()
}
