// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracles

import (
	"encoding/binary"
	"time"

	"github.com/spf13/cobra"

	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/api"
	"github.com/luxfi/suretyvm/oracle"
	"github.com/luxfi/suretyvm/relay"
	"github.com/luxfi/suretyvm/status"
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "relay",
		Short: "Answers flight status requests for a set of oracles",
		RunE:  relayFunc,
	}
	AddFlags(c.Flags(), true)
	return c
}

func relayFunc(c *cobra.Command, _ []string) error {
	config, err := ParseFlags(c.Flags())
	if err != nil {
		return err
	}
	reporter, err := config.NewReporter()
	if err != nil {
		return err
	}

	logger := log.NewLogger("relay")
	logger.Info("starting relay",
		log.String("uri", config.URI),
		log.Int("oracles", len(config.Relay.Oracles)),
		log.String("reporter", config.Reporter),
	)
	r := relay.New(config.Relay, api.NewClient(config.URI), reporter, logger)
	return r.Run(c.Context())
}

// NewReporter returns the reporter named by the config.
func (c *Config) NewReporter() (relay.Reporter, error) {
	if c.Reporter == RandomReporter {
		seed := []byte(c.Seed)
		if len(seed) == 0 {
			seed = binary.BigEndian.AppendUint64(nil, uint64(time.Now().UnixNano()))
		}
		return relay.NewRandomReporter(oracle.NewHashSource(seed)), nil
	}
	s, err := status.Parse(c.Reporter)
	if err != nil {
		return nil, err
	}
	return relay.FixedReporter(s), nil
}
