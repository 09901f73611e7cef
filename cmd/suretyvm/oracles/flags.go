// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracles

import (
	"errors"
	"time"

	"github.com/spf13/pflag"

	"github.com/luxfi/ids"

	"github.com/luxfi/suretyvm/relay"
	"github.com/luxfi/suretyvm/utils/units"
)

const (
	URIKey          = "uri"
	OraclesKey      = "oracles"
	FeeKey          = "fee"
	PollIntervalKey = "poll-interval"
	PageSizeKey     = "page-size"
	ReporterKey     = "reporter"
	SeedKey         = "seed"

	// RandomReporter reports a random status code for every request.
	RandomReporter = "random"

	defaultURI = "http://127.0.0.1:9650"
)

var (
	errInvalidPollInterval = errors.New("poll interval must be positive")
	errInvalidPageSize     = errors.New("page size must be positive")
)

// AddFlags registers the relay flags. [withURI] is false when the relay runs
// next to the node it answers for.
func AddFlags(flags *pflag.FlagSet, withURI bool) {
	if withURI {
		flags.String(URIKey, defaultURI, "URI of the node to relay for")
	}
	flags.StringSlice(OraclesKey, nil, "Oracle addresses to register and answer requests for")
	flags.Uint64(FeeKey, units.Unit, "Registration fee paid by each new oracle")
	flags.Duration(PollIntervalKey, 2*time.Second, "Interval between event log polls")
	flags.Int(PageSizeKey, 256, "Maximum number of events fetched per request")
	flags.String(ReporterKey, RandomReporter, `Status to report: "random" or a status name or code`)
	flags.String(SeedKey, "", "Seed of the random reporter. Defaults to the current time")
}

type Config struct {
	URI      string
	Relay    relay.Config
	Reporter string
	Seed     string
}

// ParseFlags reads the flags registered by AddFlags. The flags must already
// be parsed.
func ParseFlags(flags *pflag.FlagSet) (*Config, error) {
	var (
		c   Config
		err error
	)
	if flags.Lookup(URIKey) != nil {
		c.URI, err = flags.GetString(URIKey)
		if err != nil {
			return nil, err
		}
	}

	oracleStrs, err := flags.GetStringSlice(OraclesKey)
	if err != nil {
		return nil, err
	}
	for _, oracleStr := range oracleStrs {
		oracle, err := ids.ShortFromString(oracleStr)
		if err != nil {
			return nil, err
		}
		c.Relay.Oracles = append(c.Relay.Oracles, oracle)
	}

	c.Relay.Fee, err = flags.GetUint64(FeeKey)
	if err != nil {
		return nil, err
	}

	c.Relay.PollInterval, err = flags.GetDuration(PollIntervalKey)
	if err != nil {
		return nil, err
	}
	if c.Relay.PollInterval <= 0 {
		return nil, errInvalidPollInterval
	}

	c.Relay.PageSize, err = flags.GetInt(PageSizeKey)
	if err != nil {
		return nil, err
	}
	if c.Relay.PageSize <= 0 {
		return nil, errInvalidPageSize
	}

	c.Reporter, err = flags.GetString(ReporterKey)
	if err != nil {
		return nil, err
	}
	c.Seed, err = flags.GetString(SeedKey)
	if err != nil {
		return nil, err
	}
	if _, err := c.NewReporter(); err != nil {
		return nil, err
	}
	return &c, nil
}
