// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package suretyvm

import (
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/suretyvm/metrics"
	"github.com/luxfi/suretyvm/oracle"
)

var (
	// VMID is the unique identifier for the surety VM.
	VMID = ids.ID{'s', 'u', 'r', 'e', 't', 'y', 'v', 'm'}

	// AppID is the identity the VM's logic layer writes to the ledger as. The
	// ledger owner can revoke it with DeauthorizeCaller.
	AppID = ids.ShortID{'s', 'u', 'r', 'e', 't', 'y', 'a', 'p', 'p'}
)

// Factory creates new VM instances.
type Factory struct {
	// Registerer receives the VM metrics. Metrics are discarded when nil.
	Registerer metric.Registerer
	// Source draws oracle indexes. It defaults to a HashSource seeded by the
	// genesis.
	Source oracle.Source
}

func (f *Factory) New(logger log.Logger) (interface{}, error) {
	return &VM{
		log:        logger,
		registerer: f.Registerer,
		metrics:    metrics.Noop,
		source:     f.Source,
	}, nil
}
