// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utilmetric

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/rpc/v2"

	metric "github.com/luxfi/metric"
)

const MethodLabel = "method"

var (
	_ APIInterceptor = (*apiInterceptor)(nil)
	_ APIInterceptor = noopInterceptor{}

	// NoopInterceptor passes requests through without measuring them.
	NoopInterceptor APIInterceptor = noopInterceptor{}
)

// APIInterceptor measures calls made through a gorilla rpc server. It is
// installed with RegisterInterceptFunc and RegisterAfterFunc.
type APIInterceptor interface {
	InterceptRequest(i *rpc.RequestInfo) *http.Request
	AfterRequest(i *rpc.RequestInfo)
}

type contextKey int

const requestStartKey contextKey = iota

type apiInterceptor struct {
	calls    metric.CounterVec
	duration metric.GaugeVec
	failures metric.CounterVec
}

func NewAPIInterceptor(registry metric.Registry) (APIInterceptor, error) {
	m := metric.NewWithRegistry("api", registry)
	return &apiInterceptor{
		calls: m.NewCounterVec(
			"calls",
			"Number of times this method was called",
			[]string{MethodLabel},
		),
		duration: m.NewGaugeVec(
			"call_duration_sum",
			"Time in nanoseconds spent handling this method",
			[]string{MethodLabel},
		),
		failures: m.NewCounterVec(
			"call_failures",
			"Number of calls to this method that returned an error",
			[]string{MethodLabel},
		),
	}, nil
}

func (*apiInterceptor) InterceptRequest(i *rpc.RequestInfo) *http.Request {
	ctx := context.WithValue(i.Request.Context(), requestStartKey, time.Now())
	return i.Request.WithContext(ctx)
}

func (a *apiInterceptor) AfterRequest(i *rpc.RequestInfo) {
	start, ok := i.Request.Context().Value(requestStartKey).(time.Time)
	if !ok {
		return
	}

	labels := metric.Labels{MethodLabel: i.Method}
	a.calls.With(labels).Inc()
	a.duration.With(labels).Add(float64(time.Since(start)))
	if i.Error != nil {
		a.failures.With(labels).Inc()
	}
}

type noopInterceptor struct{}

func (noopInterceptor) InterceptRequest(i *rpc.RequestInfo) *http.Request {
	return i.Request
}

func (noopInterceptor) AfterRequest(*rpc.RequestInfo) {}
