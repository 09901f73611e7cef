// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state is the ledger store. It owns every persisted record and the
// access gate, and only lets authorized logic layers mutate the ledger.
package state

import (
	"errors"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/ids"

	"github.com/luxfi/suretyvm/errs"
	"github.com/luxfi/suretyvm/genesis"
)

var (
	ErrNotOwner           = errs.New(errs.Authorization, "caller is not contract owner")
	ErrUnauthorizedCaller = errs.New(errs.Authorization, "caller is not authorized")
	ErrNotOperational     = errs.New(errs.Authorization, "contract is currently not operational")
	ErrInsufficientEscrow = errs.New(errs.Precondition, "insufficient escrow")

	ErrAlreadyInitialized = errors.New("state is already initialized")
	ErrCorrupted          = errors.New("corrupted record")
)

var (
	singletonPrefix = []byte("singleton")
	callerPrefix    = []byte("callers")
	airlinePrefix   = []byte("airlines")
	memberPrefix    = []byte("members")
	flightPrefix    = []byte("flights")
	insurancePrefix = []byte("insurance")
	oraclePrefix    = []byte("oracles")
	requestPrefix   = []byte("requests")
	payoutPrefix    = []byte("payouts")
	eventPrefix     = []byte("events")

	initializedKey  = []byte("initialized")
	ownerKey        = []byte("owner")
	operationalKey  = []byte("operational")
	memberCountKey  = []byte("memberCount")
	pollKey         = []byte("poll")
	escrowKey       = []byte("escrow")
	eventCountKey   = []byte("eventCount")
	openRequestsKey = []byte("openRequests")

	trueByte  = []byte{1}
	falseByte = []byte{0}
)

// State reads the ledger. Mutations go through a Writer.
type State struct {
	db database.Database

	singletonDB database.Database
	callerDB    database.Database
	airlineDB   database.Database
	memberDB    database.Database
	flightDB    database.Database
	insuranceDB database.Database
	oracleDB    database.Database
	requestDB   database.Database
	payoutDB    database.Database
	eventDB     database.Database
}

// New returns the ledger stored in [db].
func New(db database.Database) *State {
	return &State{
		db:          db,
		singletonDB: prefixdb.New(singletonPrefix, db),
		callerDB:    prefixdb.New(callerPrefix, db),
		airlineDB:   prefixdb.New(airlinePrefix, db),
		memberDB:    prefixdb.New(memberPrefix, db),
		flightDB:    prefixdb.New(flightPrefix, db),
		insuranceDB: prefixdb.New(insurancePrefix, db),
		oracleDB:    prefixdb.New(oraclePrefix, db),
		requestDB:   prefixdb.New(requestPrefix, db),
		payoutDB:    prefixdb.New(payoutPrefix, db),
		eventDB:     prefixdb.New(eventPrefix, db),
	}
}

func (s *State) IsInitialized() (bool, error) {
	return s.singletonDB.Has(initializedKey)
}

// Initialize writes the genesis ledger: the owner, an open gate, the initial
// caller allow-list and the first airline, registered but unfunded.
func (s *State) Initialize(g *genesis.Genesis) error {
	initialized, err := s.IsInitialized()
	if err != nil {
		return err
	}
	if initialized {
		return ErrAlreadyInitialized
	}

	if err := s.singletonDB.Put(ownerKey, g.Owner[:]); err != nil {
		return err
	}
	if err := s.singletonDB.Put(operationalKey, trueByte); err != nil {
		return err
	}
	for _, caller := range g.AuthorizedCallers {
		if err := s.callerDB.Put(caller[:], trueByte); err != nil {
			return err
		}
	}
	if err := s.addAirline(&Airline{ID: g.FirstAirline, Registered: true}); err != nil {
		return err
	}
	if err := s.appendEvent(&Event{Kind: EventAirlineRegistered, Airline: g.FirstAirline}); err != nil {
		return err
	}
	return s.singletonDB.Put(initializedKey, trueByte)
}

func (s *State) GetAirline(id ids.ShortID) (*Airline, error) {
	return getRecord[Airline](s.airlineDB, id[:])
}

// NumAirlines returns the number of airline records, registered or not.
func (s *State) NumAirlines() (uint64, error) {
	return getUint64OrZero(s.singletonDB, memberCountKey)
}

// AirlineIDs returns every airline with a record, in insertion order.
func (s *State) AirlineIDs() ([]ids.ShortID, error) {
	count, err := s.NumAirlines()
	if err != nil {
		return nil, err
	}
	airlineIDs := make([]ids.ShortID, 0, count)
	for i := uint64(0); i < count; i++ {
		b, err := s.memberDB.Get(database.PackUInt64(i))
		if err != nil {
			return nil, fmt.Errorf("failed to read airline %d: %w", i, err)
		}
		id, err := ids.ToShortID(b)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
		}
		airlineIDs = append(airlineIDs, id)
	}
	return airlineIDs, nil
}

// GetPoll returns the open poll, or database.ErrNotFound when none is open.
func (s *State) GetPoll() (*Poll, error) {
	return getRecord[Poll](s.singletonDB, pollKey)
}

func (s *State) GetFlight(key ids.ID) (*Flight, error) {
	return getRecord[Flight](s.flightDB, key[:])
}

func (s *State) GetInsurance(flightKey ids.ID, passenger ids.ShortID) (*Insurance, error) {
	return getRecord[Insurance](s.insuranceDB, insuranceKey(flightKey, passenger))
}

// InsuranceEntries returns every insurance entry held on the flight.
func (s *State) InsuranceEntries(flightKey ids.ID) ([]*Insurance, error) {
	it := s.insuranceDB.NewIteratorWithPrefix(flightKey[:])
	defer it.Release()

	var entries []*Insurance
	for it.Next() {
		entry := &Insurance{}
		if _, err := Codec.Unmarshal(it.Value(), entry); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
		}
		entries = append(entries, entry)
	}
	return entries, it.Error()
}

func (s *State) GetOracle(id ids.ShortID) (*Oracle, error) {
	return getRecord[Oracle](s.oracleDB, id[:])
}

// GetRequest returns the open request at [key], or database.ErrNotFound.
func (s *State) GetRequest(key RequestKey) (*Request, error) {
	return getRecord[Request](s.requestDB, key.Bytes())
}

func (s *State) NumOpenRequests() (uint64, error) {
	return getUint64OrZero(s.singletonDB, openRequestsKey)
}

// GetPayout returns the amount owed to [account]. It is zero when nothing is
// owed.
func (s *State) GetPayout(account ids.ShortID) (uint64, error) {
	return getUint64OrZero(s.payoutDB, account[:])
}

// Escrow returns the total value held by the ledger.
func (s *State) Escrow() (uint64, error) {
	return getUint64OrZero(s.singletonDB, escrowKey)
}

func (s *State) addAirline(a *Airline) error {
	count, err := s.NumAirlines()
	if err != nil {
		return err
	}
	if err := s.memberDB.Put(database.PackUInt64(count), a.ID[:]); err != nil {
		return err
	}
	if err := database.PutUInt64(s.singletonDB, memberCountKey, count+1); err != nil {
		return err
	}
	return putRecord(s.airlineDB, a.ID[:], a)
}

func (s *State) appendEvent(e *Event) error {
	seq, err := s.NumEvents()
	if err != nil {
		return err
	}
	if err := putRecord(s.eventDB, database.PackUInt64(seq), e); err != nil {
		return err
	}
	e.Seq = seq
	return database.PutUInt64(s.singletonDB, eventCountKey, seq+1)
}

func insuranceKey(flightKey ids.ID, passenger ids.ShortID) []byte {
	b := make([]byte, 0, ids.IDLen+len(ids.ShortEmpty))
	b = append(b, flightKey[:]...)
	return append(b, passenger[:]...)
}
