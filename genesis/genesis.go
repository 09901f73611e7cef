// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package genesis describes the initial ledger: its owner, the first airline
// and the logic layers allowed to mutate the store.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luxfi/ids"
)

var (
	ErrMissingOwner        = errors.New("genesis is missing an owner")
	ErrMissingFirstAirline = errors.New("genesis is missing a first airline")
)

type Genesis struct {
	// Owner controls the access gate and the caller allow-list.
	Owner ids.ShortID `json:"owner"`
	// FirstAirline is registered, unfunded, at genesis.
	FirstAirline ids.ShortID `json:"firstAirline"`
	// AuthorizedCallers are the logic layer identities allowed to mutate the
	// store from the start.
	AuthorizedCallers []ids.ShortID `json:"authorizedCallers"`
}

// Parse decodes and validates genesis bytes.
func Parse(b []byte) (*Genesis, error) {
	g := &Genesis{}
	if err := json.Unmarshal(b, g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal genesis: %w", err)
	}
	return g, g.Verify()
}

func (g *Genesis) Verify() error {
	switch {
	case g.Owner == ids.ShortEmpty:
		return ErrMissingOwner
	case g.FirstAirline == ids.ShortEmpty:
		return ErrMissingFirstAirline
	default:
		return nil
	}
}

func (g *Genesis) Bytes() ([]byte, error) {
	return json.Marshal(g)
}
