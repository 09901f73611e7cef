// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package insurance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/config"
	"github.com/luxfi/suretyvm/errs"
	"github.com/luxfi/suretyvm/flights"
	"github.com/luxfi/suretyvm/state"
	"github.com/luxfi/suretyvm/state/statetest"
	"github.com/luxfi/suretyvm/status"
	"github.com/luxfi/suretyvm/utils/timer/mockable"
	"github.com/luxfi/suretyvm/utils/units"
)

const (
	code      = "ND1309"
	timestamp = uint64(1_700_003_600)
)

var flightKey = state.FlightKey(statetest.FirstAirline, code, timestamp)

type anyAirline struct{}

func (anyAirline) RequireFundedAirline(ids.ShortID) error {
	return nil
}

type env struct {
	state    *state.State
	writer   *state.Writer
	registry *flights.Registry
	ledger   *Ledger
}

func newEnv(t *testing.T, bank func(*state.Writer) Bank) *env {
	s, w := statetest.New(t, statetest.Config{})
	clock := &mockable.Clock{}
	clock.Set(time.Unix(1_700_000_000, 0))

	registry := flights.New(anyAirline{}, w, clock, log.NewNoOpLogger())
	_, err := registry.RegisterFlight(statetest.FirstAirline, code, timestamp)
	require.NoError(t, err)

	if bank == nil {
		bank = func(w *state.Writer) Bank { return w }
	}
	return &env{
		state:    s,
		writer:   w,
		registry: registry,
		ledger:   New(config.DefaultConfig(), registry, bank(w), w, log.NewNoOpLogger()),
	}
}

func TestBuy(t *testing.T) {
	require := require.New(t)

	e := newEnv(t, nil)
	passenger := ids.GenerateTestShortID()

	total, err := e.ledger.Buy(passenger, statetest.FirstAirline, code, timestamp, units.Unit/2)
	require.NoError(err)
	require.Equal(units.Unit/2, total)

	total, err = e.ledger.Buy(passenger, statetest.FirstAirline, code, timestamp, units.Unit/4)
	require.NoError(err)
	require.Equal(3*units.Unit/4, total)

	_, err = e.ledger.Buy(passenger, statetest.FirstAirline, code, timestamp, 26*units.Unit/100)
	require.ErrorIs(err, ErrExceedsInsuranceLimit)
	require.True(errs.IsPrecondition(err))

	insured, err := e.ledger.Insurance(flightKey, passenger)
	require.NoError(err)
	require.Equal(passenger, insured.Passenger)
	require.Equal(3*units.Unit/4, insured.Amount)

	// Topping up to exactly the cap is allowed.
	total, err = e.ledger.Buy(passenger, statetest.FirstAirline, code, timestamp, units.Unit/4)
	require.NoError(err)
	require.Equal(units.Unit, total)

	escrow, err := e.state.Escrow()
	require.NoError(err)
	require.Equal(units.Unit, escrow)

	insured, err = e.ledger.Insurance(flightKey, ids.GenerateTestShortID())
	require.NoError(err)
	require.Zero(insured.Amount)
}

func TestBuyRejections(t *testing.T) {
	tests := []struct {
		name        string
		timestamp   uint64
		amount      uint64
		finalize    bool
		expectedErr error
	}{
		{
			name:        "zero amount",
			timestamp:   timestamp,
			expectedErr: ErrZeroAmount,
		},
		{
			name:        "unregistered flight",
			timestamp:   timestamp + 1,
			amount:      1,
			expectedErr: flights.ErrFlightNotRegistered,
		},
		{
			name:        "over the cap",
			timestamp:   timestamp,
			amount:      units.Unit + 1,
			expectedErr: ErrExceedsInsuranceLimit,
		},
		{
			name:        "resolved flight",
			timestamp:   timestamp,
			amount:      1,
			finalize:    true,
			expectedErr: ErrFlightResolved,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			e := newEnv(t, nil)
			if test.finalize {
				_, err := e.registry.Finalize(flightKey, status.OnTime)
				require.NoError(err)
			}

			passenger := ids.GenerateTestShortID()
			_, err := e.ledger.Buy(passenger, statetest.FirstAirline, code, test.timestamp, test.amount)
			require.ErrorIs(err, test.expectedErr)

			insured, err := e.ledger.Insurance(flightKey, passenger)
			require.NoError(err)
			require.Zero(insured.Amount)
		})
	}
}

func TestSettleAndWithdraw(t *testing.T) {
	require := require.New(t)

	e := newEnv(t, nil)
	alice := ids.GenerateTestShortID()
	bob := ids.GenerateTestShortID()

	_, err := e.ledger.Buy(alice, statetest.FirstAirline, code, timestamp, units.Unit/2)
	require.NoError(err)
	_, err = e.ledger.Buy(alice, statetest.FirstAirline, code, timestamp, units.Unit/4)
	require.NoError(err)
	_, err = e.ledger.Buy(bob, statetest.FirstAirline, code, timestamp, units.Unit)
	require.NoError(err)

	require.NoError(e.ledger.Settle(flightKey))

	owed, err := e.ledger.PayoutOwed(alice)
	require.NoError(err)
	require.Equal(uint64(1_125_000), owed)

	owed, err = e.ledger.PayoutOwed(bob)
	require.NoError(err)
	require.Equal(3*units.Unit/2, owed)

	// Entries stay readable after settlement.
	insured, err := e.ledger.Insurance(flightKey, alice)
	require.NoError(err)
	require.Equal(3*units.Unit/4, insured.Amount)

	// Cover plus airline funding backs the payouts.
	require.NoError(e.writer.CreditEscrow(10 * units.Unit))

	amount, err := e.ledger.Withdraw(alice)
	require.NoError(err)
	require.Equal(uint64(1_125_000), amount)

	_, err = e.ledger.Withdraw(alice)
	require.ErrorIs(err, ErrZeroBalance)
	require.True(errs.IsPrecondition(err))

	owed, err = e.ledger.PayoutOwed(alice)
	require.NoError(err)
	require.Zero(owed)

	escrow, err := e.state.Escrow()
	require.NoError(err)
	require.Equal(units.Unit+3*units.Unit/4+10*units.Unit-1_125_000, escrow)
}

func TestWithdrawNothingOwed(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.ledger.Withdraw(ids.GenerateTestShortID())
	require.ErrorIs(t, err, ErrZeroBalance)
}

// reentrantBank withdraws again from inside every transfer.
type reentrantBank struct {
	ledger     *Ledger
	transfers  []uint64
	reentryErr error
}

func (b *reentrantBank) Transfer(to ids.ShortID, amount uint64) error {
	b.transfers = append(b.transfers, amount)
	if len(b.transfers) == 1 {
		_, b.reentryErr = b.ledger.Withdraw(to)
	}
	return nil
}

func TestWithdrawReentrancy(t *testing.T) {
	require := require.New(t)

	bank := &reentrantBank{}
	e := newEnv(t, func(*state.Writer) Bank { return bank })
	bank.ledger = e.ledger

	passenger := ids.GenerateTestShortID()
	require.NoError(e.writer.SetPayout(passenger, 1_125_000))

	amount, err := e.ledger.Withdraw(passenger)
	require.NoError(err)
	require.Equal(uint64(1_125_000), amount)

	require.Equal([]uint64{1_125_000}, bank.transfers)
	require.ErrorIs(bank.reentryErr, ErrZeroBalance)
}
