// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package governance manages airline membership. Below the bootstrap size a
// funded airline admits new members directly. Beyond it, admission goes
// through a single poll decided by the funded airlines.
package governance

import (
	"errors"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/config"
	"github.com/luxfi/suretyvm/errs"
	"github.com/luxfi/suretyvm/state"

	safemath "github.com/luxfi/suretyvm/utils/math"
)

var (
	ErrNotAirline        = errs.New(errs.Authorization, "caller is not a registered airline")
	ErrNotFunded         = errs.New(errs.Authorization, "caller does not have required funding")
	ErrAlreadyRegistered = errs.New(errs.Precondition, "airline is already registered")
	ErrPollNotOpen       = errs.New(errs.Precondition, "airline is not open for voting")
	ErrAlreadyVoted      = errs.New(errs.Precondition, "caller has already voted")
	ErrPollInProgress    = errs.New(errs.Precondition, "a poll on another airline is in progress")
	ErrZeroAmount        = errs.New(errs.Value, "amount must be positive")

	errUnexpectedPoll = errors.New("unexpected poll state")
)

type Engine struct {
	config config.Config
	state  *state.Writer
	log    log.Logger
}

func New(c config.Config, w *state.Writer, logger log.Logger) *Engine {
	return &Engine{
		config: c,
		state:  w,
		log:    logger,
	}
}

// Fund adds [amount] to the caller's funding.
func (e *Engine) Fund(caller ids.ShortID, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	airline, err := e.requireAirline(caller)
	if err != nil {
		return err
	}
	funding, err := safemath.Add(airline.Funding, amount)
	if err != nil {
		return err
	}
	airline.Funding = funding
	if err := e.state.PutAirline(airline); err != nil {
		return err
	}
	if err := e.state.CreditEscrow(amount); err != nil {
		return err
	}
	return e.state.AppendEvent(&state.Event{
		Kind:    state.EventAirlineFunded,
		Airline: caller,
		Amount:  amount,
	})
}

// RegisterAirline admits [target] directly while the membership it produces
// stays below the bootstrap size. Afterwards it opens a poll on [target] with
// the caller's yes vote, or counts as the caller's yes vote on the poll already
// open on [target].
func (e *Engine) RegisterAirline(caller, target ids.ShortID) (Outcome, error) {
	if err := e.RequireFundedAirline(caller); err != nil {
		return 0, err
	}
	isAirline, err := e.IsAirline(target)
	if err != nil {
		return 0, err
	}
	if isAirline {
		return 0, ErrAlreadyRegistered
	}

	members, err := e.state.NumAirlines()
	if err != nil {
		return 0, err
	}
	if members+1 < uint64(e.config.BootstrapAirlines) {
		if err := e.admit(target); err != nil {
			return 0, err
		}
		return Registered, nil
	}

	poll, err := e.PollStatus()
	if err != nil {
		return 0, err
	}
	switch poll := poll.(type) {
	case Closed:
		open, err := e.openPoll(target)
		if err != nil {
			return 0, err
		}
		outcome, err := e.vote(open, caller, true)
		if outcome == VoteRecorded {
			outcome = PollOpened
		}
		return outcome, err
	case *Open:
		if poll.Target != target {
			return 0, ErrPollInProgress
		}
		if poll.HasVoted(caller) {
			return 0, ErrAlreadyVoted
		}
		return e.vote(poll, caller, true)
	default:
		return 0, fmt.Errorf("%w: %T", errUnexpectedPoll, poll)
	}
}

// VoteAirline records the caller's vote on the open poll for [target].
func (e *Engine) VoteAirline(caller, target ids.ShortID, approve bool) (Outcome, error) {
	if err := e.RequireFundedAirline(caller); err != nil {
		return 0, err
	}
	poll, err := e.PollStatus()
	if err != nil {
		return 0, err
	}
	open, ok := poll.(*Open)
	if !ok || open.Target != target {
		return 0, ErrPollNotOpen
	}
	if open.HasVoted(caller) {
		return 0, ErrAlreadyVoted
	}
	return e.vote(open, caller, approve)
}

// RequireFundedAirline returns ErrNotAirline or ErrNotFunded unless [id] is a
// registered airline with at least the funding threshold.
func (e *Engine) RequireFundedAirline(id ids.ShortID) error {
	airline, err := e.requireAirline(id)
	if err != nil {
		return err
	}
	if airline.Funding < e.config.FundingThreshold {
		return ErrNotFunded
	}
	return nil
}

// AirlineIDs returns the registered airlines in the order they were admitted.
func (e *Engine) AirlineIDs() ([]ids.ShortID, error) {
	return e.state.AirlineIDs()
}

func (e *Engine) IsAirline(id ids.ShortID) (bool, error) {
	airline, err := e.state.GetAirline(id)
	if err == database.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return airline.Registered, nil
}

// Funding returns the funding of [id], zero for unknown identities.
func (e *Engine) Funding(id ids.ShortID) (uint64, error) {
	airline, err := e.state.GetAirline(id)
	if err == database.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return airline.Funding, nil
}

func (e *Engine) PollStatus() (PollState, error) {
	poll, err := e.state.GetPoll()
	if err == database.ErrNotFound {
		return Closed{}, nil
	}
	if err != nil {
		return nil, err
	}
	return (*Open)(poll), nil
}

// Voters returns the airlines that voted on the open poll.
func (e *Engine) Voters() ([]ids.ShortID, error) {
	poll, err := e.PollStatus()
	if err != nil {
		return nil, err
	}
	if open, ok := poll.(*Open); ok {
		return open.Voters, nil
	}
	return nil, nil
}

func (e *Engine) HasVoted(id ids.ShortID) (bool, error) {
	poll, err := e.PollStatus()
	if err != nil {
		return false, err
	}
	open, ok := poll.(*Open)
	return ok && open.HasVoted(id), nil
}

func (e *Engine) requireAirline(id ids.ShortID) (*state.Airline, error) {
	airline, err := e.state.GetAirline(id)
	if err == database.ErrNotFound {
		return nil, ErrNotAirline
	}
	if err != nil {
		return nil, err
	}
	if !airline.Registered {
		return nil, ErrNotAirline
	}
	return airline, nil
}

func (e *Engine) openPoll(target ids.ShortID) (*Open, error) {
	voters, err := e.numFunded()
	if err != nil {
		return nil, err
	}
	required, err := safemath.CeilDiv(voters, 2)
	if err != nil {
		return nil, err
	}
	open := &Open{
		Target:            target,
		RequiredApprovals: required,
	}
	if err := e.state.AppendEvent(&state.Event{
		Kind:    state.EventPollOpened,
		Airline: target,
		Amount:  uint64(required),
	}); err != nil {
		return nil, err
	}
	e.log.Info("opened airline poll",
		log.Stringer("target", target),
		log.Uint32("requiredApprovals", required),
	)
	return open, nil
}

func (e *Engine) numFunded() (uint32, error) {
	airlineIDs, err := e.state.AirlineIDs()
	if err != nil {
		return 0, err
	}
	var funded uint32
	for _, id := range airlineIDs {
		airline, err := e.state.GetAirline(id)
		if err != nil {
			return 0, err
		}
		if airline.Registered && airline.Funding >= e.config.FundingThreshold {
			funded++
		}
	}
	return funded, nil
}

// vote counts one vote and closes the poll as soon as either side reaches the
// required approvals.
func (e *Engine) vote(open *Open, voter ids.ShortID, approve bool) (Outcome, error) {
	open.Voters = append(open.Voters, voter)
	if approve {
		open.Yes++
	} else {
		open.No++
	}

	switch {
	case open.Yes >= open.RequiredApprovals:
		if err := e.closePoll(open, true); err != nil {
			return 0, err
		}
		if err := e.admit(open.Target); err != nil {
			return 0, err
		}
		return Approved, nil
	case open.No >= open.RequiredApprovals:
		if err := e.closePoll(open, false); err != nil {
			return 0, err
		}
		return Rejected, nil
	default:
		return VoteRecorded, e.state.PutPoll((*state.Poll)(open))
	}
}

func (e *Engine) closePoll(open *Open, approved bool) error {
	if err := e.state.DeletePoll(); err != nil {
		return err
	}
	e.log.Info("closed airline poll",
		log.Stringer("target", open.Target),
		log.Bool("approved", approved),
		log.Uint32("yes", open.Yes),
		log.Uint32("no", open.No),
	)
	return e.state.AppendEvent(&state.Event{
		Kind:     state.EventPollClosed,
		Airline:  open.Target,
		Approved: approved,
	})
}

func (e *Engine) admit(id ids.ShortID) error {
	airline, err := e.state.GetAirline(id)
	switch {
	case err == database.ErrNotFound:
		err = e.state.AddAirline(&state.Airline{
			ID:         id,
			Registered: true,
		})
	case err == nil:
		airline.Registered = true
		err = e.state.PutAirline(airline)
	}
	if err != nil {
		return err
	}
	e.log.Info("registered airline",
		log.Stringer("airline", id),
	)
	return e.state.AppendEvent(&state.Event{
		Kind:    state.EventAirlineRegistered,
		Airline: id,
	})
}
