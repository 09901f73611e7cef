// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"
	"slices"

	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/ids"

	"github.com/luxfi/suretyvm/config"
	"github.com/luxfi/suretyvm/status"
)

// Airline is a governance participant. Funding never decreases.
type Airline struct {
	ID         ids.ShortID `serialize:"true" json:"id"`
	Registered bool        `serialize:"true" json:"registered"`
	Funding    uint64      `serialize:"true" json:"funding"`
}

// Poll is the persisted form of the single open membership poll. The record
// exists only while the poll is open.
type Poll struct {
	Target            ids.ShortID   `serialize:"true" json:"target"`
	RequiredApprovals uint32        `serialize:"true" json:"requiredApprovals"`
	Yes               uint32        `serialize:"true" json:"yes"`
	No                uint32        `serialize:"true" json:"no"`
	Voters            []ids.ShortID `serialize:"true" json:"voters"`
}

type Flight struct {
	Airline   ids.ShortID   `serialize:"true" json:"airline"`
	Code      string        `serialize:"true" json:"code"`
	Timestamp uint64        `serialize:"true" json:"timestamp"`
	Status    status.Status `serialize:"true" json:"status"`
	// Finalized is set once oracle consensus has fixed Status.
	Finalized bool `serialize:"true" json:"finalized"`
}

func (f *Flight) Key() ids.ID {
	return FlightKey(f.Airline, f.Code, f.Timestamp)
}

// FlightKey identifies the flight (airline, code, timestamp).
func FlightKey(airline ids.ShortID, code string, timestamp uint64) ids.ID {
	b := make([]byte, 0, len(ids.ShortEmpty)+8+len(code))
	b = append(b, airline[:]...)
	b = binary.BigEndian.AppendUint64(b, timestamp)
	b = append(b, code...)
	return ids.ID(hash.ComputeHash256Array(b))
}

// Insurance is the cumulative cover a passenger holds on a flight.
type Insurance struct {
	FlightKey ids.ID      `serialize:"true" json:"flightKey"`
	Passenger ids.ShortID `serialize:"true" json:"passenger"`
	Amount    uint64      `serialize:"true" json:"amount"`
}

type Oracle struct {
	ID      ids.ShortID                    `serialize:"true" json:"id"`
	Indexes [config.IndexesPerOracle]uint8 `serialize:"true" json:"indexes"`
}

// HasIndex reports whether [index] was assigned to the oracle.
func (o *Oracle) HasIndex(index uint8) bool {
	return slices.Contains(o.Indexes[:], index)
}

// RequestKey addresses an open status request.
type RequestKey struct {
	Index     uint8       `json:"index"`
	Airline   ids.ShortID `json:"airline"`
	Code      string      `json:"code"`
	Timestamp uint64      `json:"timestamp"`
}

func (k RequestKey) Bytes() []byte {
	b := make([]byte, 0, 1+len(ids.ShortEmpty)+8+len(k.Code))
	b = append(b, k.Index)
	b = append(b, k.Airline[:]...)
	b = binary.BigEndian.AppendUint64(b, k.Timestamp)
	return append(b, k.Code...)
}

func (k RequestKey) FlightKey() ids.ID {
	return FlightKey(k.Airline, k.Code, k.Timestamp)
}

// Responses is the set of oracles that reported one status.
type Responses struct {
	Status  status.Status `serialize:"true" json:"status"`
	Oracles []ids.ShortID `serialize:"true" json:"oracles"`
}

// Request is an open status request. It is deleted when it resolves.
type Request struct {
	Index     uint8       `serialize:"true" json:"index"`
	Airline   ids.ShortID `serialize:"true" json:"airline"`
	Code      string      `serialize:"true" json:"code"`
	Timestamp uint64      `serialize:"true" json:"timestamp"`
	Requester ids.ShortID `serialize:"true" json:"requester"`
	Responses []Responses `serialize:"true" json:"responses"`
}

func (r *Request) Key() RequestKey {
	return RequestKey{
		Index:     r.Index,
		Airline:   r.Airline,
		Code:      r.Code,
		Timestamp: r.Timestamp,
	}
}

// Record adds [oracle] to the responders for [s] and returns how many distinct
// oracles reported [s]. Recording the same oracle twice is a no-op.
func (r *Request) Record(oracle ids.ShortID, s status.Status) int {
	for i := range r.Responses {
		responses := &r.Responses[i]
		if responses.Status != s {
			continue
		}
		for _, o := range responses.Oracles {
			if o == oracle {
				return len(responses.Oracles)
			}
		}
		responses.Oracles = append(responses.Oracles, oracle)
		return len(responses.Oracles)
	}
	r.Responses = append(r.Responses, Responses{
		Status:  s,
		Oracles: []ids.ShortID{oracle},
	})
	return 1
}
