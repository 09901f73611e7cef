// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api serves the ledger operations over JSON-RPC. Callers name
// themselves with an explicit address argument.
package api

import (
	"context"
	"net/http"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/config"
	"github.com/luxfi/suretyvm/flights"
	"github.com/luxfi/suretyvm/governance"
	"github.com/luxfi/suretyvm/state"
	"github.com/luxfi/suretyvm/status"

	avajson "github.com/luxfi/suretyvm/utils/json"
)

const (
	ServiceName = "surety"
	// Endpoint is the path the service is mounted at.
	Endpoint = "/ext/" + ServiceName
)

// Backend is the ledger the service exposes.
type Backend interface {
	HealthCheck(context.Context) (interface{}, error)

	IsOperational() (bool, error)
	SetOperatingStatus(caller ids.ShortID, operational bool) error
	AuthorizeCaller(caller, app ids.ShortID) error
	DeauthorizeCaller(caller, app ids.ShortID) error
	IsAuthorizedCaller(app ids.ShortID) (bool, error)

	Fund(caller ids.ShortID, amount uint64) error
	RegisterAirline(caller, target ids.ShortID) (governance.Outcome, error)
	VoteAirline(caller, target ids.ShortID, approve bool) (governance.Outcome, error)
	PollStatus() (governance.PollState, error)
	Voters() ([]ids.ShortID, error)
	HasVoted(id ids.ShortID) (bool, error)
	AirlineIDs() ([]ids.ShortID, error)
	IsAirline(id ids.ShortID) (bool, error)
	Funding(id ids.ShortID) (uint64, error)

	RegisterFlight(caller ids.ShortID, code string, timestamp uint64) (ids.ID, error)
	GetFlight(airline ids.ShortID, code string, timestamp uint64) (flights.Flight, error)

	BuyInsurance(passenger, airline ids.ShortID, code string, timestamp, amount uint64) (uint64, error)
	GetInsurance(airline ids.ShortID, code string, timestamp uint64, passenger ids.ShortID) (state.Insurance, error)
	PayoutOwed(passenger ids.ShortID) (uint64, error)
	Withdraw(caller ids.ShortID) (uint64, error)

	RegisterOracle(caller ids.ShortID, fee uint64) ([config.IndexesPerOracle]uint8, error)
	GetMyIndexes(caller ids.ShortID) ([config.IndexesPerOracle]uint8, error)
	FetchFlightStatus(caller, airline ids.ShortID, code string, timestamp uint64) (uint8, error)
	SubmitOracleResponse(caller ids.ShortID, index uint8, airline ids.ShortID, code string, timestamp uint64, s status.Status) (bool, error)

	Events(from uint64, limit int) ([]*state.Event, error)
}

type Service struct {
	backend Backend
	log     log.Logger
}

func NewService(backend Backend, logger log.Logger) *Service {
	return &Service{
		backend: backend,
		log:     logger,
	}
}

type EmptyArgs struct{}

type EmptyReply struct{}

type CallerArgs struct {
	Caller ids.ShortID `json:"caller"`
}

type AddressArgs struct {
	Address ids.ShortID `json:"address"`
}

// FlightArgs identifies a flight.
type FlightArgs struct {
	Airline   ids.ShortID    `json:"airline"`
	Code      string         `json:"code"`
	Timestamp avajson.Uint64 `json:"timestamp"`
}

type BoolReply struct {
	Value bool `json:"value"`
}

type AmountReply struct {
	Amount avajson.Uint64 `json:"amount"`
}

type AddressesReply struct {
	Addresses []ids.ShortID `json:"addresses"`
}

type OutcomeReply struct {
	Outcome string `json:"outcome"`
}

type HealthReply struct {
	Checks interface{} `json:"checks"`
}

func (s *Service) Health(r *http.Request, _ *EmptyArgs, reply *HealthReply) error {
	checks, err := s.backend.HealthCheck(r.Context())
	reply.Checks = checks
	return err
}

func (s *Service) IsOperational(_ *http.Request, _ *EmptyArgs, reply *BoolReply) error {
	operational, err := s.backend.IsOperational()
	reply.Value = operational
	return err
}

type SetOperatingStatusArgs struct {
	Caller      ids.ShortID `json:"caller"`
	Operational bool        `json:"operational"`
}

func (s *Service) SetOperatingStatus(_ *http.Request, args *SetOperatingStatusArgs, _ *EmptyReply) error {
	s.log.Debug("API called",
		log.String("service", ServiceName),
		log.String("method", "setOperatingStatus"),
	)
	return s.backend.SetOperatingStatus(args.Caller, args.Operational)
}

type CallerAuthorizationArgs struct {
	Caller ids.ShortID `json:"caller"`
	App    ids.ShortID `json:"app"`
}

func (s *Service) AuthorizeCaller(_ *http.Request, args *CallerAuthorizationArgs, _ *EmptyReply) error {
	return s.backend.AuthorizeCaller(args.Caller, args.App)
}

func (s *Service) DeauthorizeCaller(_ *http.Request, args *CallerAuthorizationArgs, _ *EmptyReply) error {
	return s.backend.DeauthorizeCaller(args.Caller, args.App)
}

func (s *Service) IsAuthorizedCaller(_ *http.Request, args *AddressArgs, reply *BoolReply) error {
	authorized, err := s.backend.IsAuthorizedCaller(args.Address)
	reply.Value = authorized
	return err
}

type FundArgs struct {
	Caller ids.ShortID    `json:"caller"`
	Amount avajson.Uint64 `json:"amount"`
}

func (s *Service) Fund(_ *http.Request, args *FundArgs, _ *EmptyReply) error {
	return s.backend.Fund(args.Caller, uint64(args.Amount))
}

type RegisterAirlineArgs struct {
	Caller  ids.ShortID `json:"caller"`
	Airline ids.ShortID `json:"airline"`
}

func (s *Service) RegisterAirline(_ *http.Request, args *RegisterAirlineArgs, reply *OutcomeReply) error {
	outcome, err := s.backend.RegisterAirline(args.Caller, args.Airline)
	if err != nil {
		return err
	}
	reply.Outcome = outcome.String()
	return nil
}

type VoteAirlineArgs struct {
	Caller  ids.ShortID `json:"caller"`
	Airline ids.ShortID `json:"airline"`
	Approve bool        `json:"approve"`
}

func (s *Service) VoteAirline(_ *http.Request, args *VoteAirlineArgs, reply *OutcomeReply) error {
	outcome, err := s.backend.VoteAirline(args.Caller, args.Airline, args.Approve)
	if err != nil {
		return err
	}
	reply.Outcome = outcome.String()
	return nil
}

type PollStatusReply struct {
	Open              bool        `json:"open"`
	Target            ids.ShortID `json:"target"`
	RequiredApprovals uint32      `json:"requiredApprovals"`
	Yes               uint32      `json:"yes"`
	No                uint32      `json:"no"`
}

func (s *Service) GetPollStatus(_ *http.Request, _ *EmptyArgs, reply *PollStatusReply) error {
	poll, err := s.backend.PollStatus()
	if err != nil {
		return err
	}
	if open, ok := poll.(*governance.Open); ok {
		reply.Open = true
		reply.Target = open.Target
		reply.RequiredApprovals = open.RequiredApprovals
		reply.Yes = open.Yes
		reply.No = open.No
	}
	return nil
}

func (s *Service) GetVoterList(_ *http.Request, _ *EmptyArgs, reply *AddressesReply) error {
	voters, err := s.backend.Voters()
	reply.Addresses = voters
	return err
}

func (s *Service) GetHasVoted(_ *http.Request, args *AddressArgs, reply *BoolReply) error {
	hasVoted, err := s.backend.HasVoted(args.Address)
	reply.Value = hasVoted
	return err
}

func (s *Service) GetAirlineAddresses(_ *http.Request, _ *EmptyArgs, reply *AddressesReply) error {
	airlineIDs, err := s.backend.AirlineIDs()
	reply.Addresses = airlineIDs
	return err
}

func (s *Service) IsAirline(_ *http.Request, args *AddressArgs, reply *BoolReply) error {
	isAirline, err := s.backend.IsAirline(args.Address)
	reply.Value = isAirline
	return err
}

func (s *Service) GetFunding(_ *http.Request, args *AddressArgs, reply *AmountReply) error {
	funding, err := s.backend.Funding(args.Address)
	reply.Amount = avajson.Uint64(funding)
	return err
}

type RegisterFlightArgs struct {
	Caller    ids.ShortID    `json:"caller"`
	Code      string         `json:"code"`
	Timestamp avajson.Uint64 `json:"timestamp"`
}

type RegisterFlightReply struct {
	Key ids.ID `json:"key"`
}

func (s *Service) RegisterFlight(_ *http.Request, args *RegisterFlightArgs, reply *RegisterFlightReply) error {
	key, err := s.backend.RegisterFlight(args.Caller, args.Code, uint64(args.Timestamp))
	reply.Key = key
	return err
}

type FlightReply struct {
	Key        ids.ID         `json:"key"`
	Registered bool           `json:"registered"`
	Airline    ids.ShortID    `json:"airline"`
	Code       string         `json:"code"`
	Timestamp  avajson.Uint64 `json:"timestamp"`
	Status     status.Status  `json:"status"`
	Finalized  bool           `json:"finalized"`
}

func (s *Service) GetFlight(_ *http.Request, args *FlightArgs, reply *FlightReply) error {
	flight, err := s.backend.GetFlight(args.Airline, args.Code, uint64(args.Timestamp))
	if err != nil {
		return err
	}
	reply.Key = flight.Key
	reply.Registered = flight.Registered
	reply.Airline = flight.Airline
	reply.Code = flight.Code
	reply.Timestamp = avajson.Uint64(flight.Timestamp)
	reply.Status = flight.Status
	reply.Finalized = flight.Finalized
	return nil
}

type BuyInsuranceArgs struct {
	FlightArgs
	Passenger ids.ShortID    `json:"passenger"`
	Amount    avajson.Uint64 `json:"amount"`
}

// BuyFlightInsurance replies with the passenger's total cover on the flight.
func (s *Service) BuyFlightInsurance(_ *http.Request, args *BuyInsuranceArgs, reply *AmountReply) error {
	total, err := s.backend.BuyInsurance(
		args.Passenger,
		args.Airline,
		args.Code,
		uint64(args.Timestamp),
		uint64(args.Amount),
	)
	reply.Amount = avajson.Uint64(total)
	return err
}

type GetInsuranceArgs struct {
	FlightArgs
	Passenger ids.ShortID `json:"passenger"`
}

type InsuranceReply struct {
	Passenger ids.ShortID    `json:"passenger"`
	Amount    avajson.Uint64 `json:"amount"`
}

func (s *Service) GetInsurance(_ *http.Request, args *GetInsuranceArgs, reply *InsuranceReply) error {
	insured, err := s.backend.GetInsurance(args.Airline, args.Code, uint64(args.Timestamp), args.Passenger)
	reply.Passenger = insured.Passenger
	reply.Amount = avajson.Uint64(insured.Amount)
	return err
}

func (s *Service) GetPayoutOwed(_ *http.Request, args *AddressArgs, reply *AmountReply) error {
	owed, err := s.backend.PayoutOwed(args.Address)
	reply.Amount = avajson.Uint64(owed)
	return err
}

func (s *Service) Withdraw(_ *http.Request, args *CallerArgs, reply *AmountReply) error {
	amount, err := s.backend.Withdraw(args.Caller)
	reply.Amount = avajson.Uint64(amount)
	return err
}

type RegisterOracleArgs struct {
	Caller ids.ShortID    `json:"caller"`
	Fee    avajson.Uint64 `json:"fee"`
}

type IndexesReply struct {
	Indexes [config.IndexesPerOracle]uint8 `json:"indexes"`
}

func (s *Service) RegisterOracle(_ *http.Request, args *RegisterOracleArgs, reply *IndexesReply) error {
	indexes, err := s.backend.RegisterOracle(args.Caller, uint64(args.Fee))
	reply.Indexes = indexes
	return err
}

func (s *Service) GetMyIndexes(_ *http.Request, args *CallerArgs, reply *IndexesReply) error {
	indexes, err := s.backend.GetMyIndexes(args.Caller)
	reply.Indexes = indexes
	return err
}

type FetchFlightStatusArgs struct {
	FlightArgs
	Caller ids.ShortID `json:"caller"`
}

type IndexReply struct {
	Index uint8 `json:"index"`
}

func (s *Service) FetchFlightStatus(_ *http.Request, args *FetchFlightStatusArgs, reply *IndexReply) error {
	index, err := s.backend.FetchFlightStatus(args.Caller, args.Airline, args.Code, uint64(args.Timestamp))
	reply.Index = index
	return err
}

type SubmitOracleResponseArgs struct {
	FlightArgs
	Caller ids.ShortID   `json:"caller"`
	Index  uint8         `json:"index"`
	Status status.Status `json:"status"`
}

type SubmitOracleResponseReply struct {
	Finalized bool `json:"finalized"`
}

func (s *Service) SubmitOracleResponse(_ *http.Request, args *SubmitOracleResponseArgs, reply *SubmitOracleResponseReply) error {
	finalized, err := s.backend.SubmitOracleResponse(
		args.Caller,
		args.Index,
		args.Airline,
		args.Code,
		uint64(args.Timestamp),
		args.Status,
	)
	reply.Finalized = finalized
	return err
}

type GetEventsArgs struct {
	From  avajson.Uint64 `json:"from"`
	Limit int            `json:"limit"`
}

type GetEventsReply struct {
	Events []*state.Event `json:"events"`
	// Next is the sequence number to continue reading from.
	Next avajson.Uint64 `json:"next"`
}

func (s *Service) GetEvents(_ *http.Request, args *GetEventsArgs, reply *GetEventsReply) error {
	events, err := s.backend.Events(uint64(args.From), args.Limit)
	if err != nil {
		return err
	}
	reply.Events = events
	reply.Next = args.From
	if len(events) > 0 {
		reply.Next = avajson.Uint64(events[len(events)-1].Seq + 1)
	}
	return nil
}
