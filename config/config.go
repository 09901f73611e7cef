// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines configuration types for the surety VM.
package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luxfi/suretyvm/utils/units"
)

// IndexesPerOracle is the number of request indexes assigned to each oracle.
const IndexesPerOracle = 3

var (
	ErrInvalidIndexSpace   = errors.New("oracle index space must hold at least IndexesPerOracle indexes")
	ErrInvalidPayoutRatio  = errors.New("payout denominator must be positive")
	ErrInvalidMinResponses = errors.New("min responses must be positive")
	ErrInvalidBootstrap    = errors.New("bootstrap airlines must be positive")
	ErrInvalidPageSize     = errors.New("max events per request must be positive")
)

// Config contains the economic and protocol parameters of the VM. Amounts are
// in micro-units (see utils/units).
type Config struct {
	// BootstrapAirlines is the first membership size that can only be reached
	// through a poll. Smaller memberships grow by direct registration.
	BootstrapAirlines uint32 `json:"bootstrapAirlines"`
	// FundingThreshold is the funding an airline needs to vote and register.
	FundingThreshold uint64 `json:"fundingThreshold"`

	// InsuranceCap is the most a passenger may insure on one flight.
	InsuranceCap uint64 `json:"insuranceCap"`
	// PayoutNumerator / PayoutDenominator is the payout multiplier.
	PayoutNumerator   uint64 `json:"payoutNumerator"`
	PayoutDenominator uint64 `json:"payoutDenominator"`

	// RegistrationFee is the exact fee an oracle pays to register.
	RegistrationFee uint64 `json:"registrationFee"`
	// OracleIndexSpace bounds the indexes drawn for oracles and requests.
	OracleIndexSpace uint8 `json:"oracleIndexSpace"`
	// MinResponses is the number of matching oracle responses that finalize a
	// flight status.
	MinResponses uint32 `json:"minResponses"`

	// MaxEventsPerRequest caps a single event log page served by the API.
	MaxEventsPerRequest int `json:"maxEventsPerRequest"`
}

// DefaultConfig returns the default configuration for the surety VM.
func DefaultConfig() Config {
	return Config{
		BootstrapAirlines: 5,
		FundingThreshold:  10 * units.Unit,

		InsuranceCap:      units.Unit,
		PayoutNumerator:   3,
		PayoutDenominator: 2,

		RegistrationFee:  units.Unit,
		OracleIndexSpace: 10,
		MinResponses:     3,

		MaxEventsPerRequest: 1024,
	}
}

// Verify returns an error if the configuration cannot run the VM.
func (c Config) Verify() error {
	switch {
	case c.BootstrapAirlines == 0:
		return ErrInvalidBootstrap
	case c.PayoutDenominator == 0:
		return ErrInvalidPayoutRatio
	case int(c.OracleIndexSpace) < IndexesPerOracle:
		return ErrInvalidIndexSpace
	case c.MinResponses == 0:
		return ErrInvalidMinResponses
	case c.MaxEventsPerRequest <= 0:
		return ErrInvalidPageSize
	default:
		return nil
	}
}

// Parse overlays the JSON in [b] on the defaults. Empty input yields the
// defaults.
func Parse(b []byte) (Config, error) {
	c := DefaultConfig()
	if len(b) > 0 {
		if err := json.Unmarshal(b, &c); err != nil {
			return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}
	if err := c.Verify(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}
