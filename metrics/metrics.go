// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"errors"

	"github.com/luxfi/metric"

	utilmetric "github.com/luxfi/suretyvm/utils/metric"
)

const (
	OperationLabel = "operation"
	ResultLabel    = "result"

	AcceptedResult = "accepted"
	FailedResult   = "failed"
)

var (
	_ Metrics = (*metricsImpl)(nil)
	_ Metrics = noop{}

	// Noop discards every measurement.
	Noop Metrics = noop{APIInterceptor: utilmetric.NoopInterceptor}
)

type Metrics interface {
	utilmetric.APIInterceptor

	// Mark that the named operation committed.
	MarkAccepted(operation string)
	// Mark that the named operation was rejected and rolled back.
	MarkFailed(operation string)

	// Mark the number of status requests awaiting a quorum.
	SetOpenRequests(uint64)
	// Mark the total value held by the ledger.
	SetEscrow(uint64)
	// Mark that this much value was paid out to passengers.
	AddWithdrawn(uint64)
}

type metricsImpl struct {
	utilmetric.APIInterceptor

	operations   metric.CounterVec
	openRequests metric.Gauge
	escrow       metric.Gauge
	withdrawn    metric.Counter
}

func New(registerer metric.Registerer) (Metrics, error) {
	m := &metricsImpl{
		operations: metric.NewCounterVec(
			metric.CounterOpts{
				Name: "operations",
				Help: "Number of operations processed",
			},
			[]string{OperationLabel, ResultLabel},
		),
		openRequests: metric.NewGauge(metric.GaugeOpts{
			Name: "open_requests",
			Help: "Number of flight status requests awaiting a quorum",
		}),
		escrow: metric.NewGauge(metric.GaugeOpts{
			Name: "escrow",
			Help: "Value held by the ledger (micro-units)",
		}),
		withdrawn: metric.NewCounter(metric.CounterOpts{
			Name: "withdrawn",
			Help: "Value paid out to passengers (micro-units)",
		}),
	}
	registry, ok := registerer.(metric.Registry)
	if !ok {
		return nil, errors.New("registerer must be a Registry")
	}
	apiInterceptor, err := utilmetric.NewAPIInterceptor(registry)
	m.APIInterceptor = apiInterceptor

	err = errors.Join(
		err,
		registerer.Register(metric.AsCollector(m.operations)),
		registerer.Register(metric.AsCollector(m.openRequests)),
		registerer.Register(metric.AsCollector(m.escrow)),
		registerer.Register(metric.AsCollector(m.withdrawn)),
	)
	return m, err
}

func (m *metricsImpl) MarkAccepted(operation string) {
	m.operations.WithLabelValues(operation, AcceptedResult).Inc()
}

func (m *metricsImpl) MarkFailed(operation string) {
	m.operations.WithLabelValues(operation, FailedResult).Inc()
}

func (m *metricsImpl) SetOpenRequests(n uint64) {
	m.openRequests.Set(float64(n))
}

func (m *metricsImpl) SetEscrow(amount uint64) {
	m.escrow.Set(float64(amount))
}

func (m *metricsImpl) AddWithdrawn(amount uint64) {
	m.withdrawn.Add(float64(amount))
}

type noop struct {
	utilmetric.APIInterceptor
}

func (noop) MarkAccepted(string) {}

func (noop) MarkFailed(string) {}

func (noop) SetOpenRequests(uint64) {}

func (noop) SetEscrow(uint64) {}

func (noop) AddWithdrawn(uint64) {}
