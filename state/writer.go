// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"

	safemath "github.com/luxfi/suretyvm/utils/math"
)

// Writer mutates the ledger on behalf of a logic layer. Every mutation checks
// that the layer is still on the allow-list.
type Writer struct {
	*State
	app ids.ShortID
}

// Writer returns a writer acting as [app].
func (s *State) Writer(app ids.ShortID) *Writer {
	return &Writer{
		State: s,
		app:   app,
	}
}

// App returns the identity this writer acts as.
func (w *Writer) App() ids.ShortID {
	return w.app
}

func (w *Writer) authorize() error {
	authorized, err := w.IsAuthorizedCaller(w.app)
	if err != nil {
		return err
	}
	if !authorized {
		return fmt.Errorf("%w: %s", ErrUnauthorizedCaller, w.app)
	}
	return nil
}

// AddAirline stores a new airline record and appends it to the airline order.
func (w *Writer) AddAirline(a *Airline) error {
	if err := w.authorize(); err != nil {
		return err
	}
	return w.addAirline(a)
}

// PutAirline overwrites an existing airline record.
func (w *Writer) PutAirline(a *Airline) error {
	if err := w.authorize(); err != nil {
		return err
	}
	return putRecord(w.airlineDB, a.ID[:], a)
}

func (w *Writer) PutPoll(p *Poll) error {
	if err := w.authorize(); err != nil {
		return err
	}
	return putRecord(w.singletonDB, pollKey, p)
}

func (w *Writer) DeletePoll() error {
	if err := w.authorize(); err != nil {
		return err
	}
	return w.singletonDB.Delete(pollKey)
}

func (w *Writer) PutFlight(f *Flight) error {
	if err := w.authorize(); err != nil {
		return err
	}
	key := f.Key()
	return putRecord(w.flightDB, key[:], f)
}

func (w *Writer) PutInsurance(i *Insurance) error {
	if err := w.authorize(); err != nil {
		return err
	}
	return putRecord(w.insuranceDB, insuranceKey(i.FlightKey, i.Passenger), i)
}

func (w *Writer) PutOracle(o *Oracle) error {
	if err := w.authorize(); err != nil {
		return err
	}
	return putRecord(w.oracleDB, o.ID[:], o)
}

// PutRequest stores [r], counting it as open if it is new.
func (w *Writer) PutRequest(r *Request) error {
	if err := w.authorize(); err != nil {
		return err
	}
	key := r.Key().Bytes()
	exists, err := w.requestDB.Has(key)
	if err != nil {
		return err
	}
	if !exists {
		if err := w.addOpenRequests(1, false); err != nil {
			return err
		}
	}
	return putRecord(w.requestDB, key, r)
}

// DeleteRequest closes the request at [key].
func (w *Writer) DeleteRequest(key RequestKey) error {
	if err := w.authorize(); err != nil {
		return err
	}
	b := key.Bytes()
	exists, err := w.requestDB.Has(b)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if err := w.addOpenRequests(1, true); err != nil {
		return err
	}
	return w.requestDB.Delete(b)
}

func (w *Writer) addOpenRequests(n uint64, remove bool) error {
	open, err := w.NumOpenRequests()
	if err != nil {
		return err
	}
	if remove {
		open, err = safemath.Sub(open, n)
	} else {
		open, err = safemath.Add(open, n)
	}
	if err != nil {
		return err
	}
	return database.PutUInt64(w.singletonDB, openRequestsKey, open)
}

// SetPayout records the amount owed to [account]. A zero amount removes the
// entry.
func (w *Writer) SetPayout(account ids.ShortID, amount uint64) error {
	if err := w.authorize(); err != nil {
		return err
	}
	if amount == 0 {
		return w.payoutDB.Delete(account[:])
	}
	return database.PutUInt64(w.payoutDB, account[:], amount)
}

// CreditEscrow records [amount] received by the ledger.
func (w *Writer) CreditEscrow(amount uint64) error {
	if err := w.authorize(); err != nil {
		return err
	}
	escrow, err := w.Escrow()
	if err != nil {
		return err
	}
	escrow, err = safemath.Add(escrow, amount)
	if err != nil {
		return err
	}
	return database.PutUInt64(w.singletonDB, escrowKey, escrow)
}

// Transfer releases [amount] of escrow to [to] and logs the transfer.
func (w *Writer) Transfer(to ids.ShortID, amount uint64) error {
	if err := w.authorize(); err != nil {
		return err
	}
	escrow, err := w.Escrow()
	if err != nil {
		return err
	}
	if amount > escrow {
		return fmt.Errorf("%w: %d > %d", ErrInsufficientEscrow, amount, escrow)
	}
	if err := database.PutUInt64(w.singletonDB, escrowKey, escrow-amount); err != nil {
		return err
	}
	return w.appendEvent(&Event{
		Kind:    EventValueTransferred,
		Account: to,
		Amount:  amount,
	})
}
