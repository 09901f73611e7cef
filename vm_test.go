// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package suretyvm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/suretyvm/api"
	"github.com/luxfi/suretyvm/errs"
	"github.com/luxfi/suretyvm/genesis"
	"github.com/luxfi/suretyvm/governance"
	"github.com/luxfi/suretyvm/insurance"
	"github.com/luxfi/suretyvm/oracle"
	"github.com/luxfi/suretyvm/oracle/oracletest"
	"github.com/luxfi/suretyvm/relay"
	"github.com/luxfi/suretyvm/state"
	"github.com/luxfi/suretyvm/status"
	"github.com/luxfi/suretyvm/utils/units"
)

var (
	owner        = ids.GenerateTestShortID()
	firstAirline = ids.GenerateTestShortID()

	now = time.Unix(1_700_000_000, 0)
)

func genesisBytes(t *testing.T) []byte {
	b, err := (&genesis.Genesis{
		Owner:        owner,
		FirstAirline: firstAirline,
	}).Bytes()
	require.NoError(t, err)
	return b
}

// newTestVM routes every index draw to 7, so every oracle holds index 7.
func newTestVM(t *testing.T, db database.Database, registerer metric.Registerer) *VM {
	require := require.New(t)

	factory := &Factory{
		Registerer: registerer,
		Source:     &oracletest.SequenceSource{Values: []int{7}},
	}
	intf, err := factory.New(log.NewNoOpLogger())
	require.NoError(err)
	vm := intf.(*VM)

	ctx := context.Background()
	require.NoError(vm.Initialize(ctx, db, genesisBytes(t), nil))
	require.NoError(vm.SetState(ctx, NormalOp))
	vm.Clock().Set(now)
	return vm
}

func TestFlightSuretyScenario(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t, memdb.New(), nil)

	// Airlines 2-4 are registered directly, the fifth by a one vote poll.
	require.NoError(vm.Fund(firstAirline, 10*units.Unit))
	airlines := []ids.ShortID{firstAirline}
	for i := 0; i < 4; i++ {
		airline := ids.GenerateTestShortID()
		outcome, err := vm.RegisterAirline(firstAirline, airline)
		require.NoError(err)
		if i < 3 {
			require.Equal(governance.Registered, outcome)
		} else {
			require.Equal(governance.Approved, outcome)
		}
		airlines = append(airlines, airline)
	}
	airlineIDs, err := vm.AirlineIDs()
	require.NoError(err)
	require.Equal(airlines, airlineIDs)

	timestamp := uint64(now.Unix()) + 3600
	_, err = vm.RegisterFlight(firstAirline, "ND1309", timestamp)
	require.NoError(err)

	passenger := ids.GenerateTestShortID()
	other := ids.GenerateTestShortID()
	_, err = vm.BuyInsurance(passenger, firstAirline, "ND1309", timestamp, units.Unit/2)
	require.NoError(err)
	total, err := vm.BuyInsurance(passenger, firstAirline, "ND1309", timestamp, units.Unit/4)
	require.NoError(err)
	require.Equal(3*units.Unit/4, total)
	_, err = vm.BuyInsurance(passenger, firstAirline, "ND1309", timestamp, 26*units.Unit/100)
	require.ErrorIs(err, insurance.ErrExceedsInsuranceLimit)
	_, err = vm.BuyInsurance(other, firstAirline, "ND1309", timestamp, units.Unit/2)
	require.NoError(err)

	insured, err := vm.GetInsurance(firstAirline, "ND1309", timestamp, passenger)
	require.NoError(err)
	require.Equal(3*units.Unit/4, insured.Amount)

	oracles := make([]ids.ShortID, 3)
	for i := range oracles {
		oracles[i] = ids.GenerateTestShortID()
		indexes, err := vm.RegisterOracle(oracles[i], units.Unit)
		require.NoError(err)
		require.Equal(uint8(7), indexes[0])
	}

	index, err := vm.FetchFlightStatus(passenger, firstAirline, "ND1309", timestamp)
	require.NoError(err)
	require.Equal(uint8(7), index)

	for i, oracle := range oracles {
		finalized, err := vm.SubmitOracleResponse(oracle, index, firstAirline, "ND1309", timestamp, status.LateAirline)
		require.NoError(err)
		require.Equal(i == len(oracles)-1, finalized)
	}

	_, err = vm.SubmitOracleResponse(oracles[0], index, firstAirline, "ND1309", timestamp, status.LateAirline)
	require.ErrorIs(err, oracle.ErrRequestNotOpen)

	flight, err := vm.GetFlight(firstAirline, "ND1309", timestamp)
	require.NoError(err)
	require.Equal(status.LateAirline, flight.Status)

	owed, err := vm.PayoutOwed(passenger)
	require.NoError(err)
	require.Equal(uint64(1_125_000), owed)
	require.Equal("1.125", units.Format(owed))

	owed, err = vm.PayoutOwed(other)
	require.NoError(err)
	require.Equal(3*units.Unit/4, owed)

	amount, err := vm.Withdraw(passenger)
	require.NoError(err)
	require.Equal(uint64(1_125_000), amount)

	_, err = vm.Withdraw(passenger)
	require.ErrorIs(err, insurance.ErrZeroBalance)
}

func TestFailedOperationLeavesNoTrace(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t, memdb.New(), nil)
	passenger := ids.GenerateTestShortID()

	// Owe more than the ledger holds.
	require.NoError(vm.state.Writer(AppID).SetPayout(passenger, units.Unit))
	require.NoError(vm.db.Commit())

	numEvents, err := vm.state.NumEvents()
	require.NoError(err)

	_, err = vm.Withdraw(passenger)
	require.ErrorIs(err, state.ErrInsufficientEscrow)

	owed, err := vm.PayoutOwed(passenger)
	require.NoError(err)
	require.Equal(units.Unit, owed)

	after, err := vm.state.NumEvents()
	require.NoError(err)
	require.Equal(numEvents, after)
}

func TestAccessGate(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t, memdb.New(), nil)

	err := vm.SetOperatingStatus(firstAirline, false)
	require.ErrorIs(err, state.ErrNotOwner)

	require.NoError(vm.SetOperatingStatus(owner, false))
	operational, err := vm.IsOperational()
	require.NoError(err)
	require.False(operational)

	err = vm.Fund(firstAirline, 10*units.Unit)
	require.ErrorIs(err, state.ErrNotOperational)
	require.True(errs.IsAuthorization(err))

	_, err = vm.RegisterOracle(ids.GenerateTestShortID(), units.Unit)
	require.ErrorIs(err, state.ErrNotOperational)

	airline := ids.GenerateTestShortID()
	_, err = vm.RegisterAirline(firstAirline, airline)
	require.ErrorIs(err, state.ErrNotOperational)

	_, err = vm.VoteAirline(firstAirline, airline, true)
	require.ErrorIs(err, state.ErrNotOperational)

	timestamp := uint64(now.Unix()) + 3600
	_, err = vm.RegisterFlight(firstAirline, "ND1309", timestamp)
	require.ErrorIs(err, state.ErrNotOperational)

	passenger := ids.GenerateTestShortID()
	_, err = vm.BuyInsurance(passenger, firstAirline, "ND1309", timestamp, units.Unit/2)
	require.ErrorIs(err, state.ErrNotOperational)

	_, err = vm.FetchFlightStatus(passenger, firstAirline, "ND1309", timestamp)
	require.ErrorIs(err, state.ErrNotOperational)

	_, err = vm.SubmitOracleResponse(ids.GenerateTestShortID(), 7, firstAirline, "ND1309", timestamp, status.LateAirline)
	require.ErrorIs(err, state.ErrNotOperational)

	_, err = vm.Withdraw(passenger)
	require.ErrorIs(err, state.ErrNotOperational)

	// Reads are not gated.
	funding, err := vm.Funding(firstAirline)
	require.NoError(err)
	require.Zero(funding)

	require.NoError(vm.SetOperatingStatus(owner, true))
	require.NoError(vm.Fund(firstAirline, 10*units.Unit))
}

func TestCallerHandoff(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t, memdb.New(), nil)

	authorized, err := vm.IsAuthorizedCaller(AppID)
	require.NoError(err)
	require.True(authorized)

	require.ErrorIs(vm.DeauthorizeCaller(firstAirline, AppID), state.ErrNotOwner)
	require.NoError(vm.DeauthorizeCaller(owner, AppID))

	err = vm.Fund(firstAirline, 10*units.Unit)
	require.ErrorIs(err, state.ErrUnauthorizedCaller)

	require.NoError(vm.AuthorizeCaller(owner, AppID))
	require.NoError(vm.Fund(firstAirline, 10*units.Unit))
}

func TestLifecycle(t *testing.T) {
	require := require.New(t)

	ctx := context.Background()
	db := memdb.New()
	vm := &VM{log: log.NewNoOpLogger()}

	require.ErrorIs(vm.Fund(firstAirline, 1), errNotInitialized)
	require.NoError(vm.Initialize(ctx, db, genesisBytes(t), nil))
	require.ErrorIs(vm.Fund(firstAirline, 1), errNotReady)
	require.ErrorIs(vm.SetState(ctx, State(9)), errUnknownState)

	require.NoError(vm.SetState(ctx, NormalOp))
	require.NoError(vm.Fund(firstAirline, 10*units.Unit))

	version, err := vm.Version(ctx)
	require.NoError(err)
	require.Equal(Version, version)

	health, err := vm.HealthCheck(ctx)
	require.NoError(err)
	require.Equal(true, health.(map[string]interface{})["healthy"])

	require.NoError(vm.Shutdown(ctx))
	require.ErrorIs(vm.Fund(firstAirline, 1), errShutdown)
	_, err = vm.HealthCheck(ctx)
	require.ErrorIs(err, errShutdown)

	// The ledger survives a restart.
	restarted := newTestVM(t, db, nil)
	funding, err := restarted.Funding(firstAirline)
	require.NoError(err)
	require.Equal(10*units.Unit, funding)
}

func TestEventsPageSize(t *testing.T) {
	require := require.New(t)

	uninitialized := &VM{}
	_, err := uninitialized.Events(0, 0)
	require.ErrorIs(err, errNotInitialized)

	vm := &VM{log: log.NewNoOpLogger()}
	ctx := context.Background()
	require.NoError(vm.Initialize(ctx, memdb.New(), genesisBytes(t), []byte(`{"maxEventsPerRequest":2}`)))
	require.NoError(vm.SetState(ctx, NormalOp))
	vm.Clock().Set(now)
	defer func() {
		require.NoError(vm.Shutdown(ctx))
	}()

	require.NoError(vm.Fund(firstAirline, 10*units.Unit))
	for i := 0; i < 2; i++ {
		_, err := vm.RegisterAirline(firstAirline, ids.GenerateTestShortID())
		require.NoError(err)
	}

	for _, test := range []struct {
		limit    int
		expected int
	}{
		{limit: 0, expected: 2},
		{limit: -1, expected: 2},
		{limit: 1, expected: 1},
		{limit: 100, expected: 2},
	} {
		events, err := vm.Events(0, test.limit)
		require.NoError(err)
		require.Len(events, test.expected)
	}
}

func TestInvalidGenesis(t *testing.T) {
	vm := &VM{log: log.NewNoOpLogger()}
	err := vm.Initialize(context.Background(), memdb.New(), []byte(`{}`), nil)
	require.ErrorIs(t, err, genesis.ErrMissingOwner)
}

func TestHandlers(t *testing.T) {
	require := require.New(t)

	registry := metric.NewRegistry()
	vm := newTestVM(t, memdb.New(), registry)

	handlers, err := vm.CreateHandlers(context.Background())
	require.NoError(err)

	mux := http.NewServeMux()
	mux.Handle(api.Endpoint, handlers[""])
	server := httptest.NewServer(mux)
	defer server.Close()

	ctx := context.Background()
	client := api.NewClient(server.URL)

	require.NoError(client.Fund(ctx, firstAirline, 10*units.Unit))
	require.Error(client.Fund(ctx, ids.GenerateTestShortID(), units.Unit))

	airline := ids.GenerateTestShortID()
	outcome, err := client.RegisterAirline(ctx, firstAirline, airline)
	require.NoError(err)
	require.Equal(governance.Registered.String(), outcome)

	airlineIDs, err := client.GetAirlineAddresses(ctx)
	require.NoError(err)
	require.Equal([]ids.ShortID{firstAirline, airline}, airlineIDs)

	operational, err := client.IsOperational(ctx)
	require.NoError(err)
	require.True(operational)

	samples := gatherSamples(t, registry)
	require.Len(samples["operations"], 3)

	// Every API call passes through the interceptor.
	var calls, failures float64
	for name, values := range samples {
		for _, v := range values {
			switch {
			case strings.HasSuffix(name, "call_failures"):
				failures += v
			case strings.HasSuffix(name, "calls"):
				calls += v
			}
		}
	}
	require.InDelta(5, calls, 0)
	require.InDelta(1, failures, 0)
}

// gatherSamples returns the counter and gauge values of every gathered sample,
// grouped by family name.
func gatherSamples(t *testing.T, registry metric.Registry) map[string][]float64 {
	families, err := registry.Gather()
	require.NoError(t, err)

	samples := make(map[string][]float64, len(families))
	for _, family := range families {
		for _, m := range family.GetMetric() {
			value := m.GetGauge().GetValue()
			if m.GetCounter() != nil {
				value = m.GetCounter().GetValue()
			}
			samples[family.GetName()] = append(samples[family.GetName()], value)
		}
	}
	return samples
}

func TestRelayResolvesFlight(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t, memdb.New(), nil)
	handlers, err := vm.CreateHandlers(context.Background())
	require.NoError(err)

	mux := http.NewServeMux()
	mux.Handle(api.Endpoint, handlers[""])
	server := httptest.NewServer(mux)
	defer server.Close()

	require.NoError(vm.Fund(firstAirline, 10*units.Unit))
	timestamp := uint64(now.Unix()) + 3600
	_, err = vm.RegisterFlight(firstAirline, "ND1309", timestamp)
	require.NoError(err)
	passenger := ids.GenerateTestShortID()
	_, err = vm.BuyInsurance(passenger, firstAirline, "ND1309", timestamp, units.Unit)
	require.NoError(err)

	ctx := context.Background()
	r := relay.New(
		relay.Config{
			Oracles: []ids.ShortID{
				ids.GenerateTestShortID(),
				ids.GenerateTestShortID(),
				ids.GenerateTestShortID(),
			},
			Fee:          units.Unit,
			PollInterval: time.Second,
			PageSize:     2,
		},
		api.NewClient(server.URL),
		relay.FixedReporter(status.LateAirline),
		log.NewNoOpLogger(),
	)
	require.NoError(r.Register(ctx))

	_, err = vm.FetchFlightStatus(passenger, firstAirline, "ND1309", timestamp)
	require.NoError(err)
	require.NoError(r.Poll(ctx))

	flight, err := vm.GetFlight(firstAirline, "ND1309", timestamp)
	require.NoError(err)
	require.True(flight.Finalized)
	require.Equal(status.LateAirline, flight.Status)

	owed, err := vm.PayoutOwed(passenger)
	require.NoError(err)
	require.Equal(3*units.Unit/2, owed)
}
