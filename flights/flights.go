// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package flights is the flight registry.
package flights

import (
	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/errs"
	"github.com/luxfi/suretyvm/state"
	"github.com/luxfi/suretyvm/status"
	"github.com/luxfi/suretyvm/utils/timer/mockable"
)

// MaxCodeLen bounds flight codes.
const MaxCodeLen = 64

var (
	ErrTimestampInPast         = errs.New(errs.Precondition, "timestamp is in the past")
	ErrFlightAlreadyRegistered = errs.New(errs.Precondition, "flight is already registered")
	ErrInvalidCode             = errs.New(errs.Precondition, "invalid flight code")
	ErrFlightNotRegistered     = errs.New(errs.Precondition, "flight is not yet registered")
)

// Airlines decides which callers may register flights.
type Airlines interface {
	RequireFundedAirline(id ids.ShortID) error
}

type Registry struct {
	airlines Airlines
	state    *state.Writer
	clock    *mockable.Clock
	log      log.Logger
}

func New(airlines Airlines, w *state.Writer, clock *mockable.Clock, logger log.Logger) *Registry {
	return &Registry{
		airlines: airlines,
		state:    w,
		clock:    clock,
		log:      logger,
	}
}

// RegisterFlight records a future flight of the caller with status OnTime.
func (r *Registry) RegisterFlight(caller ids.ShortID, code string, timestamp uint64) (ids.ID, error) {
	if err := r.airlines.RequireFundedAirline(caller); err != nil {
		return ids.Empty, err
	}
	if len(code) == 0 || len(code) > MaxCodeLen {
		return ids.Empty, ErrInvalidCode
	}
	if timestamp <= r.clock.Unix() {
		return ids.Empty, ErrTimestampInPast
	}

	flight := &state.Flight{
		Airline:   caller,
		Code:      code,
		Timestamp: timestamp,
		Status:    status.OnTime,
	}
	key := flight.Key()
	switch _, err := r.state.GetFlight(key); err {
	case nil:
		return ids.Empty, ErrFlightAlreadyRegistered
	case database.ErrNotFound:
	default:
		return ids.Empty, err
	}

	if err := r.state.PutFlight(flight); err != nil {
		return ids.Empty, err
	}
	r.log.Info("registered flight",
		log.Stringer("airline", caller),
		log.String("code", code),
		log.Uint64("timestamp", timestamp),
	)
	return key, r.state.AppendEvent(&state.Event{
		Kind:      state.EventFlightRegistered,
		Airline:   caller,
		Code:      code,
		Timestamp: timestamp,
	})
}

// Flight returns the flight at (airline, code, timestamp). An unregistered
// flight is returned with Registered false.
func (r *Registry) Flight(airline ids.ShortID, code string, timestamp uint64) (Flight, error) {
	return r.Get(state.FlightKey(airline, code, timestamp))
}

// Get returns the flight at [key].
func (r *Registry) Get(key ids.ID) (Flight, error) {
	flight, err := r.state.GetFlight(key)
	if err == database.ErrNotFound {
		return Flight{Key: key}, nil
	}
	if err != nil {
		return Flight{}, err
	}
	return Flight{
		Key:        key,
		Registered: true,
		Flight:     *flight,
	}, nil
}

// Finalize fixes the status of a registered flight. It returns false without
// changing anything if the flight was already finalized.
func (r *Registry) Finalize(key ids.ID, s status.Status) (bool, error) {
	flight, err := r.state.GetFlight(key)
	if err != nil {
		return false, err
	}
	if flight.Finalized {
		return false, nil
	}
	flight.Status = s
	flight.Finalized = true
	if err := r.state.PutFlight(flight); err != nil {
		return false, err
	}
	r.log.Info("finalized flight status",
		log.Stringer("airline", flight.Airline),
		log.String("code", flight.Code),
		log.Uint64("timestamp", flight.Timestamp),
		log.Stringer("status", s),
	)
	return true, nil
}

// Flight is a snapshot of a flight record.
type Flight struct {
	state.Flight
	Key        ids.ID `json:"key"`
	Registered bool   `json:"registered"`
}
