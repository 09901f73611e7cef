// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package oracle resolves flight statuses. Oracles register for a fixed set of
// indexes, each status request is routed to one random index, and the first
// status reported by enough distinct oracles on that index becomes final.
package oracle

import (
	"slices"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/config"
	"github.com/luxfi/suretyvm/errs"
	"github.com/luxfi/suretyvm/flights"
	"github.com/luxfi/suretyvm/state"
	"github.com/luxfi/suretyvm/status"
)

var (
	ErrWrongFee                = errs.New(errs.Value, "registration fee is required")
	ErrOracleAlreadyRegistered = errs.New(errs.Precondition, "oracle is already registered")
	ErrNotOracle               = errs.New(errs.Authorization, "caller is not a registered oracle")
	ErrIndexNotAssigned        = errs.New(errs.Precondition, "index does not match oracle request")
	ErrRequestNotOpen          = errs.New(errs.Precondition, "flight or timestamp do not match oracle request")
	ErrInvalidStatus           = errs.New(errs.Precondition, "invalid flight status")
)

// Flights is the registry whose statuses oracles resolve.
type Flights interface {
	Get(key ids.ID) (flights.Flight, error)
	Finalize(key ids.ID, s status.Status) (bool, error)
}

// Settler pays out the insurance held on a flight delayed by its airline.
type Settler interface {
	Settle(flightKey ids.ID) error
}

type Engine struct {
	config  config.Config
	flights Flights
	settler Settler
	source  Source
	state   *state.Writer
	log     log.Logger
}

func New(
	c config.Config,
	flights Flights,
	settler Settler,
	source Source,
	w *state.Writer,
	logger log.Logger,
) *Engine {
	return &Engine{
		config:  c,
		flights: flights,
		settler: settler,
		source:  source,
		state:   w,
		log:     logger,
	}
}

// RegisterOracle assigns distinct indexes to the caller on payment of the
// exact registration fee.
func (e *Engine) RegisterOracle(caller ids.ShortID, fee uint64) ([config.IndexesPerOracle]uint8, error) {
	var indexes [config.IndexesPerOracle]uint8
	if fee != e.config.RegistrationFee {
		return indexes, ErrWrongFee
	}
	switch _, err := e.state.GetOracle(caller); err {
	case nil:
		return indexes, ErrOracleAlreadyRegistered
	case database.ErrNotFound:
	default:
		return indexes, err
	}

	indexes = e.drawIndexes()
	if err := e.state.PutOracle(&state.Oracle{
		ID:      caller,
		Indexes: indexes,
	}); err != nil {
		return indexes, err
	}
	if err := e.state.CreditEscrow(fee); err != nil {
		return indexes, err
	}
	e.log.Info("registered oracle",
		log.Stringer("oracle", caller),
		log.Reflect("indexes", indexes),
	)
	return indexes, e.state.AppendEvent(&state.Event{
		Kind:    state.EventOracleRegistered,
		Account: caller,
		Amount:  fee,
	})
}

// Indexes returns the indexes assigned to [caller].
func (e *Engine) Indexes(caller ids.ShortID) ([config.IndexesPerOracle]uint8, error) {
	oracle, err := e.requireOracle(caller)
	if err != nil {
		return [config.IndexesPerOracle]uint8{}, err
	}
	return oracle.Indexes, nil
}

// FetchFlightStatus opens a status request for a registered flight on a fresh
// random index and returns the index. Asking again for an open request only
// repeats the event.
func (e *Engine) FetchFlightStatus(caller, airline ids.ShortID, code string, timestamp uint64) (uint8, error) {
	flight, err := e.flights.Get(state.FlightKey(airline, code, timestamp))
	if err != nil {
		return 0, err
	}
	if !flight.Registered {
		return 0, flights.ErrFlightNotRegistered
	}

	key := state.RequestKey{
		Index:     uint8(e.source.Intn(int(e.config.OracleIndexSpace))),
		Airline:   airline,
		Code:      code,
		Timestamp: timestamp,
	}
	switch _, err := e.state.GetRequest(key); err {
	case nil:
	case database.ErrNotFound:
		if err := e.state.PutRequest(&state.Request{
			Index:     key.Index,
			Airline:   airline,
			Code:      code,
			Timestamp: timestamp,
			Requester: caller,
		}); err != nil {
			return 0, err
		}
	default:
		return 0, err
	}

	return key.Index, e.state.AppendEvent(&state.Event{
		Kind:      state.EventOracleRequest,
		Index:     key.Index,
		Airline:   airline,
		Account:   caller,
		Code:      code,
		Timestamp: timestamp,
	})
}

// SubmitResponse records the caller's report of [s] on the open request. It
// returns true when the report completed a quorum and finalized the flight.
func (e *Engine) SubmitResponse(
	caller ids.ShortID,
	index uint8,
	airline ids.ShortID,
	code string,
	timestamp uint64,
	s status.Status,
) (bool, error) {
	oracle, err := e.requireOracle(caller)
	if err != nil {
		return false, err
	}
	if !oracle.HasIndex(index) {
		return false, ErrIndexNotAssigned
	}
	if !s.Valid() {
		return false, ErrInvalidStatus
	}

	key := state.RequestKey{
		Index:     index,
		Airline:   airline,
		Code:      code,
		Timestamp: timestamp,
	}
	request, err := e.state.GetRequest(key)
	if err == database.ErrNotFound {
		return false, ErrRequestNotOpen
	}
	if err != nil {
		return false, err
	}

	responses := request.Record(caller, s)
	if err := e.state.AppendEvent(&state.Event{
		Kind:      state.EventOracleReport,
		Index:     index,
		Airline:   airline,
		Account:   caller,
		Code:      code,
		Timestamp: timestamp,
		Status:    s,
	}); err != nil {
		return false, err
	}
	if uint32(responses) < e.config.MinResponses {
		return false, e.state.PutRequest(request)
	}
	return true, e.resolve(key, s)
}

// resolve closes the request and finalizes the flight. The request no longer
// exists afterwards, so late reports fail with ErrRequestNotOpen.
func (e *Engine) resolve(key state.RequestKey, s status.Status) error {
	if err := e.state.DeleteRequest(key); err != nil {
		return err
	}
	flightKey := key.FlightKey()
	changed, err := e.flights.Finalize(flightKey, s)
	if err != nil {
		return err
	}
	if err := e.state.AppendEvent(&state.Event{
		Kind:      state.EventFlightStatusInfo,
		Index:     key.Index,
		Airline:   key.Airline,
		Code:      key.Code,
		Timestamp: key.Timestamp,
		Status:    s,
	}); err != nil {
		return err
	}
	if !changed || s != status.LateAirline {
		return nil
	}
	return e.settler.Settle(flightKey)
}

func (e *Engine) requireOracle(id ids.ShortID) (*state.Oracle, error) {
	oracle, err := e.state.GetOracle(id)
	if err == database.ErrNotFound {
		return nil, ErrNotOracle
	}
	return oracle, err
}

// drawIndexes draws distinct indexes, stepping to the next free index on a
// collision.
func (e *Engine) drawIndexes() [config.IndexesPerOracle]uint8 {
	var (
		indexes [config.IndexesPerOracle]uint8
		space   = int(e.config.OracleIndexSpace)
	)
	for i := range indexes {
		index := e.source.Intn(space)
		for slices.Contains(indexes[:i], uint8(index)) {
			index = (index + 1) % space
		}
		indexes[i] = uint8(index)
	}
	return indexes
}
