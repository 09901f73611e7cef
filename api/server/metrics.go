// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/luxfi/metric"
)

type serverMetrics struct {
	requests metric.CounterVec
	duration metric.HistogramVec
	inflight metric.Gauge
}

func newMetrics(registerer metric.Registerer) (*serverMetrics, error) {
	m := &serverMetrics{
		requests: metric.NewCounterVec(metric.CounterOpts{Name: "api_requests", Help: "number of API requests"}, []string{"method", "base"}),
		duration: metric.NewHistogramVec(metric.HistogramOpts{Name: "api_request_duration_seconds", Help: "API request duration in seconds"}, []string{"method", "base"}),
		inflight: metric.NewGauge(metric.GaugeOpts{Name: "api_requests_inflight", Help: "number of inflight API requests"}),
	}

	err := errors.Join(
		registerer.Register(metric.AsCollector(m.requests)),
		registerer.Register(metric.AsCollector(m.duration)),
		registerer.Register(metric.AsCollector(m.inflight)),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *serverMetrics) wrapHandler(base string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inflight.Inc()
		defer m.inflight.Dec()

		start := time.Now()
		handler.ServeHTTP(w, r)

		m.requests.WithLabelValues(r.Method, base).Inc()
		m.duration.WithLabelValues(r.Method, base).Observe(time.Since(start).Seconds())
	})
}
