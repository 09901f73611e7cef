// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"

	"github.com/luxfi/ids"

	"github.com/luxfi/suretyvm/config"
	"github.com/luxfi/suretyvm/state"
	"github.com/luxfi/suretyvm/status"
	"github.com/luxfi/suretyvm/utils/rpc"

	avajson "github.com/luxfi/suretyvm/utils/json"
)

// Client for calling a remote surety service.
type Client struct {
	requester rpc.EndpointRequester
}

// NewClient returns a client for the node at [uri].
func NewClient(uri string) *Client {
	return &Client{
		requester: rpc.NewEndpointRequester(uri + Endpoint),
	}
}

func (c *Client) Health(ctx context.Context) (interface{}, error) {
	reply := &HealthReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".health", &EmptyArgs{}, reply)
	return reply.Checks, err
}

func (c *Client) IsOperational(ctx context.Context) (bool, error) {
	reply := &BoolReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".isOperational", &EmptyArgs{}, reply)
	return reply.Value, err
}

func (c *Client) SetOperatingStatus(ctx context.Context, caller ids.ShortID, operational bool) error {
	return c.requester.SendRequest(ctx, ServiceName+".setOperatingStatus", &SetOperatingStatusArgs{
		Caller:      caller,
		Operational: operational,
	}, &EmptyReply{})
}

func (c *Client) Fund(ctx context.Context, caller ids.ShortID, amount uint64) error {
	return c.requester.SendRequest(ctx, ServiceName+".fund", &FundArgs{
		Caller: caller,
		Amount: avajson.Uint64(amount),
	}, &EmptyReply{})
}

func (c *Client) RegisterAirline(ctx context.Context, caller, airline ids.ShortID) (string, error) {
	reply := &OutcomeReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".registerAirline", &RegisterAirlineArgs{
		Caller:  caller,
		Airline: airline,
	}, reply)
	return reply.Outcome, err
}

func (c *Client) VoteAirline(ctx context.Context, caller, airline ids.ShortID, approve bool) (string, error) {
	reply := &OutcomeReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".voteAirline", &VoteAirlineArgs{
		Caller:  caller,
		Airline: airline,
		Approve: approve,
	}, reply)
	return reply.Outcome, err
}

func (c *Client) GetPollStatus(ctx context.Context) (*PollStatusReply, error) {
	reply := &PollStatusReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".getPollStatus", &EmptyArgs{}, reply)
	return reply, err
}

func (c *Client) GetAirlineAddresses(ctx context.Context) ([]ids.ShortID, error) {
	reply := &AddressesReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".getAirlineAddresses", &EmptyArgs{}, reply)
	return reply.Addresses, err
}

func (c *Client) RegisterFlight(ctx context.Context, caller ids.ShortID, code string, timestamp uint64) (ids.ID, error) {
	reply := &RegisterFlightReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".registerFlight", &RegisterFlightArgs{
		Caller:    caller,
		Code:      code,
		Timestamp: avajson.Uint64(timestamp),
	}, reply)
	return reply.Key, err
}

func (c *Client) GetFlight(ctx context.Context, airline ids.ShortID, code string, timestamp uint64) (*FlightReply, error) {
	reply := &FlightReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".getFlight", &FlightArgs{
		Airline:   airline,
		Code:      code,
		Timestamp: avajson.Uint64(timestamp),
	}, reply)
	return reply, err
}

func (c *Client) BuyFlightInsurance(
	ctx context.Context,
	passenger ids.ShortID,
	airline ids.ShortID,
	code string,
	timestamp uint64,
	amount uint64,
) (uint64, error) {
	reply := &AmountReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".buyFlightInsurance", &BuyInsuranceArgs{
		FlightArgs: FlightArgs{
			Airline:   airline,
			Code:      code,
			Timestamp: avajson.Uint64(timestamp),
		},
		Passenger: passenger,
		Amount:    avajson.Uint64(amount),
	}, reply)
	return uint64(reply.Amount), err
}

func (c *Client) GetPayoutOwed(ctx context.Context, passenger ids.ShortID) (uint64, error) {
	reply := &AmountReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".getPayoutOwed", &AddressArgs{
		Address: passenger,
	}, reply)
	return uint64(reply.Amount), err
}

func (c *Client) Withdraw(ctx context.Context, caller ids.ShortID) (uint64, error) {
	reply := &AmountReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".withdraw", &CallerArgs{
		Caller: caller,
	}, reply)
	return uint64(reply.Amount), err
}

func (c *Client) RegisterOracle(ctx context.Context, caller ids.ShortID, fee uint64) ([config.IndexesPerOracle]uint8, error) {
	reply := &IndexesReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".registerOracle", &RegisterOracleArgs{
		Caller: caller,
		Fee:    avajson.Uint64(fee),
	}, reply)
	return reply.Indexes, err
}

func (c *Client) GetMyIndexes(ctx context.Context, caller ids.ShortID) ([config.IndexesPerOracle]uint8, error) {
	reply := &IndexesReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".getMyIndexes", &CallerArgs{
		Caller: caller,
	}, reply)
	return reply.Indexes, err
}

func (c *Client) FetchFlightStatus(ctx context.Context, caller, airline ids.ShortID, code string, timestamp uint64) (uint8, error) {
	reply := &IndexReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".fetchFlightStatus", &FetchFlightStatusArgs{
		FlightArgs: FlightArgs{
			Airline:   airline,
			Code:      code,
			Timestamp: avajson.Uint64(timestamp),
		},
		Caller: caller,
	}, reply)
	return reply.Index, err
}

func (c *Client) SubmitOracleResponse(
	ctx context.Context,
	caller ids.ShortID,
	index uint8,
	airline ids.ShortID,
	code string,
	timestamp uint64,
	s status.Status,
) (bool, error) {
	reply := &SubmitOracleResponseReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".submitOracleResponse", &SubmitOracleResponseArgs{
		FlightArgs: FlightArgs{
			Airline:   airline,
			Code:      code,
			Timestamp: avajson.Uint64(timestamp),
		},
		Caller: caller,
		Index:  index,
		Status: s,
	}, reply)
	return reply.Finalized, err
}

// GetEvents returns a page of the event log starting at [from] and the
// sequence number to continue from.
func (c *Client) GetEvents(ctx context.Context, from uint64, limit int) ([]*state.Event, uint64, error) {
	reply := &GetEventsReply{}
	err := c.requester.SendRequest(ctx, ServiceName+".getEvents", &GetEventsArgs{
		From:  avajson.Uint64(from),
		Limit: limit,
	}, reply)
	return reply.Events, uint64(reply.Next), err
}
