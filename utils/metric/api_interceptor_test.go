// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utilmetric

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/rpc/v2"
	"github.com/stretchr/testify/require"

	metric "github.com/luxfi/metric"
)

func counterValue(t *testing.T, registry metric.Registry, suffix string, method string) float64 {
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if !strings.HasSuffix(family.GetName(), suffix) {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == MethodLabel && label.GetValue() == method {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestAPIInterceptor(t *testing.T) {
	require := require.New(t)

	registry := metric.NewRegistry()
	interceptor, err := NewAPIInterceptor(registry)
	require.NoError(err)

	call := func(method string, callErr error) {
		info := &rpc.RequestInfo{
			Method:  method,
			Request: httptest.NewRequest("POST", "/ext/surety", nil),
		}
		info.Request = interceptor.InterceptRequest(info)
		info.Error = callErr
		interceptor.AfterRequest(info)
	}
	call("surety.fund", nil)
	call("surety.fund", errors.New("wrong fee"))
	call("surety.withdraw", nil)

	require.InDelta(2, counterValue(t, registry, "calls", "surety.fund"), 0)
	require.InDelta(1, counterValue(t, registry, "call_failures", "surety.fund"), 0)
	require.InDelta(1, counterValue(t, registry, "calls", "surety.withdraw"), 0)
	require.Zero(counterValue(t, registry, "call_failures", "surety.withdraw"))
}

func TestAPIInterceptorIgnoresUninterceptedRequests(t *testing.T) {
	require := require.New(t)

	registry := metric.NewRegistry()
	interceptor, err := NewAPIInterceptor(registry)
	require.NoError(err)

	interceptor.AfterRequest(&rpc.RequestInfo{
		Method:  "surety.fund",
		Request: httptest.NewRequest("POST", "/ext/surety", nil),
	})
	require.Zero(counterValue(t, registry, "calls", "surety.fund"))
}

func TestNoopInterceptor(t *testing.T) {
	request := httptest.NewRequest("POST", "/ext/surety", nil)
	info := &rpc.RequestInfo{Method: "surety.fund", Request: request}
	require.Same(t, request, NoopInterceptor.InterceptRequest(info))
	NoopInterceptor.AfterRequest(info)
}
