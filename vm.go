// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package suretyvm hosts the flight insurance ledger. Every mutating operation
// runs to completion under one lock against a staged copy of the ledger and is
// committed only if it succeeds, so a rejected operation leaves no trace.
package suretyvm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/rpc/v2"
	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/database"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/suretyvm/api"
	"github.com/luxfi/suretyvm/config"
	"github.com/luxfi/suretyvm/flights"
	"github.com/luxfi/suretyvm/genesis"
	"github.com/luxfi/suretyvm/governance"
	"github.com/luxfi/suretyvm/insurance"
	"github.com/luxfi/suretyvm/metrics"
	"github.com/luxfi/suretyvm/oracle"
	"github.com/luxfi/suretyvm/state"
	"github.com/luxfi/suretyvm/status"
	"github.com/luxfi/suretyvm/utils/json"
	"github.com/luxfi/suretyvm/utils/timer/mockable"
)

const Version = "v1.0.0"

var (
	errUnknownState   = errors.New("unknown state")
	errNotInitialized = errors.New("VM is not initialized")
	errNotReady       = errors.New("VM is not in normal operation")
	errShutdown       = errors.New("VM is shutting down")

	_ api.Backend = (*VM)(nil)
)

type VM struct {
	config config.Config
	log    log.Logger

	// lock serializes operations. Mutations hold it exclusively.
	lock sync.RWMutex

	baseDB database.Database
	// db stages the writes of the running operation.
	db *versiondb.Database

	clock      mockable.Clock
	source     oracle.Source
	registerer metric.Registerer
	metrics    metrics.Metrics

	state      *state.State
	governance *governance.Engine
	flights    *flights.Registry
	oracles    *oracle.Engine
	insurance  *insurance.Ledger

	phase    State
	shutdown bool
}

// Initialize opens the ledger in [db], writing the genesis ledger on first
// use, and wires the engines to it.
func (vm *VM) Initialize(
	_ context.Context,
	db database.Database,
	genesisBytes []byte,
	configBytes []byte,
) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.log == nil {
		vm.log = log.NewNoOpLogger()
	}

	c, err := config.Parse(configBytes)
	if err != nil {
		return err
	}
	vm.config = c

	g, err := genesis.Parse(genesisBytes)
	if err != nil {
		return err
	}
	if len(g.AuthorizedCallers) == 0 {
		g.AuthorizedCallers = []ids.ShortID{AppID}
	}

	vm.metrics = metrics.Noop
	if vm.registerer != nil {
		vm.metrics, err = metrics.New(vm.registerer)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	if vm.source == nil {
		seed := hash.ComputeHash256Array(genesisBytes)
		vm.source = oracle.NewHashSource(seed[:])
	}

	vm.baseDB = db
	vm.db = versiondb.New(db)
	vm.state = state.New(vm.db)

	initialized, err := vm.state.IsInitialized()
	if err != nil {
		return err
	}
	if !initialized {
		if err := vm.state.Initialize(g); err != nil {
			vm.db.Abort()
			return fmt.Errorf("failed to initialize ledger: %w", err)
		}
		if err := vm.db.Commit(); err != nil {
			return err
		}
		vm.log.Info("initialized ledger",
			log.Stringer("owner", g.Owner),
			log.Stringer("firstAirline", g.FirstAirline),
		)
	}

	w := vm.state.Writer(AppID)
	vm.governance = governance.New(vm.config, w, vm.log)
	vm.flights = flights.New(vm.governance, w, &vm.clock, vm.log)
	vm.insurance = insurance.New(vm.config, vm.flights, w, w, vm.log)
	vm.oracles = oracle.New(vm.config, vm.flights, vm.insurance, vm.source, w, vm.log)

	vm.phase = Bootstrapping
	vm.observe()
	return nil
}

func (vm *VM) SetState(_ context.Context, s State) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	switch s {
	case Bootstrapping, NormalOp:
		vm.log.Info("entering state",
			log.Stringer("state", s),
		)
		vm.phase = s
		return nil
	default:
		return fmt.Errorf("%w: %d", errUnknownState, s)
	}
}

func (vm *VM) Shutdown(context.Context) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.shutdown || vm.db == nil {
		vm.shutdown = true
		return nil
	}
	vm.shutdown = true
	vm.log.Info("shutting down")
	if err := vm.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func (*VM) Version(context.Context) (string, error) {
	return Version, nil
}

// CreateHandlers returns the JSON-RPC handler of the VM.
func (vm *VM) CreateHandlers(context.Context) (map[string]http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	server.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	server.RegisterInterceptFunc(vm.metrics.InterceptRequest)
	server.RegisterAfterFunc(vm.metrics.AfterRequest)
	if err := server.RegisterService(api.NewService(vm, vm.log), api.ServiceName); err != nil {
		return nil, fmt.Errorf("failed to register %s service: %w", api.ServiceName, err)
	}
	return map[string]http.Handler{
		"": server,
	}, nil
}

func (vm *VM) HealthCheck(context.Context) (interface{}, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	if vm.shutdown {
		return nil, errShutdown
	}
	if vm.state == nil {
		return nil, errNotInitialized
	}
	operational, err := vm.state.IsOperational()
	if err != nil {
		return nil, err
	}
	openRequests, err := vm.state.NumOpenRequests()
	if err != nil {
		return nil, err
	}
	numEvents, err := vm.state.NumEvents()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"healthy":      vm.phase == NormalOp,
		"state":        vm.phase.String(),
		"operational":  operational,
		"openRequests": openRequests,
		"events":       numEvents,
	}, nil
}

// Clock returns the ledger clock flight timestamps are checked against.
func (vm *VM) Clock() *mockable.Clock {
	return &vm.clock
}

// execute runs [op] as one atomic operation. Unless [gated] is false the
// access gate must be open.
func (vm *VM) execute(operation string, gated bool, op func() error) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if err := vm.ready(); err != nil {
		return err
	}
	err := vm.apply(gated, op)
	if err == nil {
		err = vm.db.Commit()
	}
	if err != nil {
		vm.db.Abort()
		vm.metrics.MarkFailed(operation)
		vm.log.Debug("operation rejected",
			log.String("operation", operation),
			log.Err(err),
		)
		return err
	}
	vm.metrics.MarkAccepted(operation)
	vm.observe()
	return nil
}

func (vm *VM) apply(gated bool, op func() error) error {
	if gated {
		if err := vm.state.RequireOperational(); err != nil {
			return err
		}
	}
	return op()
}

func (vm *VM) ready() error {
	switch {
	case vm.shutdown:
		return errShutdown
	case vm.state == nil:
		return errNotInitialized
	case vm.phase != NormalOp:
		return errNotReady
	default:
		return nil
	}
}

// read runs [f] against the committed ledger.
func read[T any](vm *VM, f func() (T, error)) (T, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	if vm.state == nil {
		var zero T
		return zero, errNotInitialized
	}
	return f()
}

func (vm *VM) observe() {
	openRequests, err := vm.state.NumOpenRequests()
	if err != nil {
		vm.log.Warn("failed to read open requests", log.Err(err))
		return
	}
	escrow, err := vm.state.Escrow()
	if err != nil {
		vm.log.Warn("failed to read escrow", log.Err(err))
		return
	}
	vm.metrics.SetOpenRequests(openRequests)
	vm.metrics.SetEscrow(escrow)
}

func (vm *VM) IsOperational() (bool, error) {
	return read(vm, vm.state.IsOperational)
}

// SetOperatingStatus is accepted while the gate is closed.
func (vm *VM) SetOperatingStatus(caller ids.ShortID, operational bool) error {
	return vm.execute("setOperatingStatus", false, func() error {
		if err := vm.state.SetOperatingStatus(caller, operational); err != nil {
			return err
		}
		vm.log.Info("set operating status",
			log.Bool("operational", operational),
		)
		return nil
	})
}

func (vm *VM) AuthorizeCaller(caller, app ids.ShortID) error {
	return vm.execute("authorizeCaller", false, func() error {
		return vm.state.AuthorizeCaller(caller, app)
	})
}

func (vm *VM) DeauthorizeCaller(caller, app ids.ShortID) error {
	return vm.execute("deauthorizeCaller", false, func() error {
		return vm.state.DeauthorizeCaller(caller, app)
	})
}

func (vm *VM) IsAuthorizedCaller(app ids.ShortID) (bool, error) {
	return read(vm, func() (bool, error) {
		return vm.state.IsAuthorizedCaller(app)
	})
}

func (vm *VM) Fund(caller ids.ShortID, amount uint64) error {
	return vm.execute("fund", true, func() error {
		return vm.governance.Fund(caller, amount)
	})
}

func (vm *VM) RegisterAirline(caller, target ids.ShortID) (governance.Outcome, error) {
	var outcome governance.Outcome
	err := vm.execute("registerAirline", true, func() error {
		var err error
		outcome, err = vm.governance.RegisterAirline(caller, target)
		return err
	})
	return outcome, err
}

func (vm *VM) VoteAirline(caller, target ids.ShortID, approve bool) (governance.Outcome, error) {
	var outcome governance.Outcome
	err := vm.execute("voteAirline", true, func() error {
		var err error
		outcome, err = vm.governance.VoteAirline(caller, target, approve)
		return err
	})
	return outcome, err
}

func (vm *VM) PollStatus() (governance.PollState, error) {
	return read(vm, vm.governance.PollStatus)
}

func (vm *VM) Voters() ([]ids.ShortID, error) {
	return read(vm, vm.governance.Voters)
}

func (vm *VM) HasVoted(id ids.ShortID) (bool, error) {
	return read(vm, func() (bool, error) {
		return vm.governance.HasVoted(id)
	})
}

func (vm *VM) AirlineIDs() ([]ids.ShortID, error) {
	return read(vm, vm.governance.AirlineIDs)
}

func (vm *VM) IsAirline(id ids.ShortID) (bool, error) {
	return read(vm, func() (bool, error) {
		return vm.governance.IsAirline(id)
	})
}

func (vm *VM) Funding(id ids.ShortID) (uint64, error) {
	return read(vm, func() (uint64, error) {
		return vm.governance.Funding(id)
	})
}

func (vm *VM) RegisterFlight(caller ids.ShortID, code string, timestamp uint64) (ids.ID, error) {
	var key ids.ID
	err := vm.execute("registerFlight", true, func() error {
		var err error
		key, err = vm.flights.RegisterFlight(caller, code, timestamp)
		return err
	})
	return key, err
}

func (vm *VM) GetFlight(airline ids.ShortID, code string, timestamp uint64) (flights.Flight, error) {
	return read(vm, func() (flights.Flight, error) {
		return vm.flights.Flight(airline, code, timestamp)
	})
}

func (vm *VM) BuyInsurance(passenger, airline ids.ShortID, code string, timestamp, amount uint64) (uint64, error) {
	var total uint64
	err := vm.execute("buyInsurance", true, func() error {
		var err error
		total, err = vm.insurance.Buy(passenger, airline, code, timestamp, amount)
		return err
	})
	return total, err
}

func (vm *VM) GetInsurance(airline ids.ShortID, code string, timestamp uint64, passenger ids.ShortID) (state.Insurance, error) {
	return read(vm, func() (state.Insurance, error) {
		return vm.insurance.Insurance(state.FlightKey(airline, code, timestamp), passenger)
	})
}

func (vm *VM) PayoutOwed(passenger ids.ShortID) (uint64, error) {
	return read(vm, func() (uint64, error) {
		return vm.insurance.PayoutOwed(passenger)
	})
}

func (vm *VM) Withdraw(caller ids.ShortID) (uint64, error) {
	var amount uint64
	err := vm.execute("withdraw", true, func() error {
		var err error
		amount, err = vm.insurance.Withdraw(caller)
		return err
	})
	if err != nil {
		return 0, err
	}
	vm.metrics.AddWithdrawn(amount)
	return amount, nil
}

func (vm *VM) RegisterOracle(caller ids.ShortID, fee uint64) ([config.IndexesPerOracle]uint8, error) {
	var indexes [config.IndexesPerOracle]uint8
	err := vm.execute("registerOracle", true, func() error {
		var err error
		indexes, err = vm.oracles.RegisterOracle(caller, fee)
		return err
	})
	return indexes, err
}

func (vm *VM) GetMyIndexes(caller ids.ShortID) ([config.IndexesPerOracle]uint8, error) {
	return read(vm, func() ([config.IndexesPerOracle]uint8, error) {
		return vm.oracles.Indexes(caller)
	})
}

func (vm *VM) FetchFlightStatus(caller, airline ids.ShortID, code string, timestamp uint64) (uint8, error) {
	var index uint8
	err := vm.execute("fetchFlightStatus", true, func() error {
		var err error
		index, err = vm.oracles.FetchFlightStatus(caller, airline, code, timestamp)
		return err
	})
	return index, err
}

func (vm *VM) SubmitOracleResponse(
	caller ids.ShortID,
	index uint8,
	airline ids.ShortID,
	code string,
	timestamp uint64,
	s status.Status,
) (bool, error) {
	var finalized bool
	err := vm.execute("submitOracleResponse", true, func() error {
		var err error
		finalized, err = vm.oracles.SubmitResponse(caller, index, airline, code, timestamp, s)
		return err
	})
	return finalized, err
}

// Events returns a page of the event log starting at [from]. The page size is
// capped by the configuration.
func (vm *VM) Events(from uint64, limit int) ([]*state.Event, error) {
	return read(vm, func() ([]*state.Event, error) {
		if limit <= 0 || limit > vm.config.MaxEventsPerRequest {
			limit = vm.config.MaxEventsPerRequest
		}
		return vm.state.Events(from, limit)
	})
}
