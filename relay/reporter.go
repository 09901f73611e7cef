// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relay

import (
	"github.com/luxfi/ids"

	"github.com/luxfi/suretyvm/oracle"
	"github.com/luxfi/suretyvm/state"
	"github.com/luxfi/suretyvm/status"
)

// Reporter decides the status an oracle reports for a request.
type Reporter interface {
	Report(oracle ids.ShortID, request *state.Event) status.Status
}

var (
	_ Reporter = (*RandomReporter)(nil)
	_ Reporter = FixedReporter(0)
)

// RandomReporter reports a status drawn uniformly from the reportable codes.
type RandomReporter struct {
	source oracle.Source
}

func NewRandomReporter(source oracle.Source) *RandomReporter {
	return &RandomReporter{
		source: source,
	}
}

func (r *RandomReporter) Report(ids.ShortID, *state.Event) status.Status {
	return status.Reportable[r.source.Intn(len(status.Reportable))]
}

// FixedReporter always reports itself.
type FixedReporter status.Status

func (f FixedReporter) Report(ids.ShortID, *state.Event) status.Status {
	return status.Status(f)
}
