// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package insurance sells flight delay cover and pays it out.
package insurance

import (
	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/config"
	"github.com/luxfi/suretyvm/errs"
	"github.com/luxfi/suretyvm/flights"
	"github.com/luxfi/suretyvm/state"

	safemath "github.com/luxfi/suretyvm/utils/math"
)

var (
	ErrZeroAmount            = errs.New(errs.Value, "amount must be positive")
	ErrFlightResolved        = errs.New(errs.Precondition, "flight status is already final")
	ErrExceedsInsuranceLimit = errs.New(errs.Precondition, "exceeds insurance limit")
	ErrZeroBalance           = errs.New(errs.Precondition, "zero balance")
)

// Bank moves value out of the ledger.
type Bank interface {
	Transfer(to ids.ShortID, amount uint64) error
}

// Flights looks up the flights cover is sold on.
type Flights interface {
	Get(key ids.ID) (flights.Flight, error)
}

type Ledger struct {
	config  config.Config
	flights Flights
	bank    Bank
	state   *state.Writer
	log     log.Logger
}

func New(c config.Config, flights Flights, bank Bank, w *state.Writer, logger log.Logger) *Ledger {
	return &Ledger{
		config:  c,
		flights: flights,
		bank:    bank,
		state:   w,
		log:     logger,
	}
}

// Buy adds [amount] to the passenger's cover on the flight and returns the new
// total. A purchase that would exceed the cap is rejected in full.
func (l *Ledger) Buy(passenger, airline ids.ShortID, code string, timestamp, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrZeroAmount
	}
	flight, err := l.flights.Get(state.FlightKey(airline, code, timestamp))
	if err != nil {
		return 0, err
	}
	if !flight.Registered {
		return 0, flights.ErrFlightNotRegistered
	}
	if flight.Finalized {
		return 0, ErrFlightResolved
	}

	insured, err := l.Insurance(flight.Key, passenger)
	if err != nil {
		return 0, err
	}
	total, err := safemath.Add(insured.Amount, amount)
	if err != nil || total > l.config.InsuranceCap {
		return 0, ErrExceedsInsuranceLimit
	}

	if err := l.state.PutInsurance(&state.Insurance{
		FlightKey: flight.Key,
		Passenger: passenger,
		Amount:    total,
	}); err != nil {
		return 0, err
	}
	if err := l.state.CreditEscrow(amount); err != nil {
		return 0, err
	}
	return total, l.state.AppendEvent(&state.Event{
		Kind:      state.EventInsurancePurchased,
		Airline:   airline,
		Account:   passenger,
		Code:      code,
		Timestamp: timestamp,
		Amount:    amount,
	})
}

// Settle credits every passenger insured on the flight with their cover times
// the payout multiplier. Entries are kept. The caller settles a flight once,
// when its status is finalized.
func (l *Ledger) Settle(flightKey ids.ID) error {
	entries, err := l.state.InsuranceEntries(flightKey)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		payout, err := safemath.MulDiv(entry.Amount, l.config.PayoutNumerator, l.config.PayoutDenominator)
		if err != nil {
			return err
		}
		owed, err := l.state.GetPayout(entry.Passenger)
		if err != nil {
			return err
		}
		owed, err = safemath.Add(owed, payout)
		if err != nil {
			return err
		}
		if err := l.state.SetPayout(entry.Passenger, owed); err != nil {
			return err
		}
		if err := l.state.AppendEvent(&state.Event{
			Kind:    state.EventPayoutCredited,
			Account: entry.Passenger,
			Amount:  payout,
		}); err != nil {
			return err
		}
	}
	l.log.Info("settled flight",
		log.Stringer("flightKey", flightKey),
		log.Int("passengers", len(entries)),
	)
	return nil
}

// Withdraw pays out everything owed to the caller. The balance is cleared
// before the transfer, so a transfer that re-enters Withdraw finds nothing.
func (l *Ledger) Withdraw(caller ids.ShortID) (uint64, error) {
	owed, err := l.state.GetPayout(caller)
	if err != nil {
		return 0, err
	}
	if owed == 0 {
		return 0, ErrZeroBalance
	}
	if err := l.state.SetPayout(caller, 0); err != nil {
		return 0, err
	}
	if err := l.bank.Transfer(caller, owed); err != nil {
		return 0, err
	}
	l.log.Info("withdrew payout",
		log.Stringer("passenger", caller),
		log.Uint64("amount", owed),
	)
	return owed, nil
}

// Insurance returns the passenger's cover on the flight. The amount is zero
// when no cover was bought.
func (l *Ledger) Insurance(flightKey ids.ID, passenger ids.ShortID) (state.Insurance, error) {
	entry, err := l.state.GetInsurance(flightKey, passenger)
	if err == database.ErrNotFound {
		return state.Insurance{
			FlightKey: flightKey,
			Passenger: passenger,
		}, nil
	}
	if err != nil {
		return state.Insurance{}, err
	}
	return *entry, nil
}

func (l *Ledger) PayoutOwed(passenger ids.ShortID) (uint64, error) {
	return l.state.GetPayout(passenger)
}
