// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/luxfi/metric"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistrationFailure(t *testing.T) {
	reg := metric.NewRegistry()

	_, err := newMetrics(reg)
	require.NoError(t, err)

	_, err = newMetrics(reg)
	require.Error(t, err)
}

func TestMetricsWrapHandler(t *testing.T) {
	require := require.New(t)

	reg := metric.NewRegistry()
	m, err := newMetrics(reg)
	require.NoError(err)

	handler := m.wrapHandler("surety", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		require.Equal(http.StatusTeapot, w.Code)
	}

	families, err := reg.Gather()
	require.NoError(err)
	values := make(map[string]float64)
	for _, family := range families {
		for _, sample := range family.GetMetric() {
			switch {
			case sample.GetCounter() != nil:
				values[family.GetName()] += sample.GetCounter().GetValue()
			case sample.GetGauge() != nil:
				values[family.GetName()] += sample.GetGauge().GetValue()
			case sample.GetHistogram() != nil:
				values[family.GetName()] += float64(sample.GetHistogram().GetSampleCount())
			}
		}
	}
	require.InDelta(2, values["api_requests"], 0)
	require.InDelta(2, values["api_request_duration_seconds"], 0)
	require.Zero(values["api_requests_inflight"])
}
