// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package statetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"

	"github.com/luxfi/suretyvm/genesis"
	"github.com/luxfi/suretyvm/state"
)

var (
	Owner        = ids.GenerateTestShortID()
	FirstAirline = ids.GenerateTestShortID()
	// App is authorized to write in the default genesis.
	App = ids.ShortID{'s', 't', 'a', 't', 'e', 't', 'e', 's', 't'}
)

type Config struct {
	DB      database.Database
	Genesis *genesis.Genesis
}

// New returns an initialized ledger and a writer acting as the first
// authorized caller.
func New(t testing.TB, c Config) (*state.State, *state.Writer) {
	if c.DB == nil {
		c.DB = memdb.New()
	}
	if c.Genesis == nil {
		c.Genesis = &genesis.Genesis{
			Owner:             Owner,
			FirstAirline:      FirstAirline,
			AuthorizedCallers: []ids.ShortID{App},
		}
	}

	s := state.New(c.DB)
	require.NoError(t, s.Initialize(c.Genesis))

	app := App
	if len(c.Genesis.AuthorizedCallers) > 0 {
		app = c.Genesis.AuthorizedCallers[0]
	}
	return s, s.Writer(app)
}
