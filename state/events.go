// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"

	"github.com/luxfi/suretyvm/status"
)

type EventKind uint8

const (
	EventOracleRequest EventKind = iota + 1
	EventOracleReport
	EventFlightStatusInfo
	EventOracleRegistered
	EventAirlineRegistered
	EventAirlineFunded
	EventPollOpened
	EventPollClosed
	EventFlightRegistered
	EventInsurancePurchased
	EventPayoutCredited
	EventValueTransferred
)

var eventKindNames = map[EventKind]string{
	EventOracleRequest:      "OracleRequest",
	EventOracleReport:       "OracleReport",
	EventFlightStatusInfo:   "FlightStatusInfo",
	EventOracleRegistered:   "OracleRegistered",
	EventAirlineRegistered:  "AirlineRegistered",
	EventAirlineFunded:      "AirlineFunded",
	EventPollOpened:         "PollOpened",
	EventPollClosed:         "PollClosed",
	EventFlightRegistered:   "FlightRegistered",
	EventInsurancePurchased: "InsurancePurchased",
	EventPayoutCredited:     "PayoutCredited",
	EventValueTransferred:   "ValueTransferred",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

func (k EventKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *EventKind) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for kind, n := range eventKindNames {
		if n == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", name)
}

// Event is an entry of the append-only log. Fields that do not apply to the
// kind are left zero.
type Event struct {
	// Seq is the position in the log. It is derived from the storage key.
	Seq uint64 `json:"seq"`

	Kind      EventKind     `serialize:"true" json:"kind"`
	Index     uint8         `serialize:"true" json:"index"`
	Airline   ids.ShortID   `serialize:"true" json:"airline"`
	Account   ids.ShortID   `serialize:"true" json:"account"`
	Code      string        `serialize:"true" json:"code"`
	Timestamp uint64        `serialize:"true" json:"timestamp"`
	Status    status.Status `serialize:"true" json:"status"`
	Amount    uint64        `serialize:"true" json:"amount"`
	// Approved is set on PollClosed when the target was admitted.
	Approved bool `serialize:"true" json:"approved"`
}

// NumEvents returns the length of the event log.
func (s *State) NumEvents() (uint64, error) {
	return getUint64OrZero(s.singletonDB, eventCountKey)
}

// Events returns at most [limit] events starting at sequence [from].
func (s *State) Events(from uint64, limit int) ([]*Event, error) {
	count, err := s.NumEvents()
	if err != nil {
		return nil, err
	}
	var events []*Event
	for seq := from; seq < count && len(events) < limit; seq++ {
		e, err := getRecord[Event](s.eventDB, database.PackUInt64(seq))
		if err != nil {
			return nil, fmt.Errorf("failed to read event %d: %w", seq, err)
		}
		e.Seq = seq
		events = append(events, e)
	}
	return events, nil
}

// AppendEvent writes [e] at the end of the log and sets its sequence number.
func (w *Writer) AppendEvent(e *Event) error {
	if err := w.authorize(); err != nil {
		return err
	}
	return w.appendEvent(e)
}
