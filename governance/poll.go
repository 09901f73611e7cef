// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package governance

import (
	"slices"

	"github.com/luxfi/ids"

	"github.com/luxfi/suretyvm/state"
)

// PollState is either Closed or *Open.
type PollState interface {
	IsOpen() bool
}

var (
	_ PollState = Closed{}
	_ PollState = (*Open)(nil)
)

// Closed means no poll is in progress and no vote data exists.
type Closed struct{}

func (Closed) IsOpen() bool {
	return false
}

// Open is the single in-flight membership poll.
type Open state.Poll

func (*Open) IsOpen() bool {
	return true
}

func (o *Open) HasVoted(voter ids.ShortID) bool {
	return slices.Contains(o.Voters, voter)
}

// Outcome describes what a registration or vote did.
type Outcome uint8

const (
	// Registered means the airline was admitted without a poll.
	Registered Outcome = iota + 1
	// PollOpened means a poll was opened and is still open.
	PollOpened
	// VoteRecorded means the vote was counted and the poll is still open.
	VoteRecorded
	// Approved means the poll closed and the target was admitted.
	Approved
	// Rejected means the poll closed and the target was not admitted.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Registered:
		return "registered"
	case PollOpened:
		return "pollOpened"
	case VoteRecorded:
		return "voteRecorded"
	case Approved:
		return "approved"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}
