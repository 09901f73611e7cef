// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/log"
	"github.com/luxfi/metric"
)

func TestHTTPHeaderVersionIsCanonical(t *testing.T) {
	require.Equal(t, http.CanonicalHeaderKey(HTTPHeaderVersion), HTTPHeaderVersion)
}

func TestServerRoutes(t *testing.T) {
	require := require.New(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)

	s, err := New(
		log.NewNoOpLogger(),
		listener,
		[]string{"*"},
		time.Second,
		"v1.0.0",
		metric.NewRegistry(),
		HTTPConfig{ReadHeaderTimeout: time.Second},
	)
	require.NoError(err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	require.NoError(s.AddRoute(handler, "surety", ""))
	err = s.AddRoute(handler, "surety", "")
	require.ErrorIs(err, errAlreadyReserved)

	done := make(chan error, 1)
	go func() {
		done <- s.Dispatch()
	}()

	resp, err := http.Get("http://" + listener.Addr().String() + "/ext/surety")
	require.NoError(err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(err)
	require.NoError(resp.Body.Close())
	require.Equal(http.StatusOK, resp.StatusCode)
	require.Equal("ok", string(body))
	require.Equal("v1.0.0", resp.Header.Get(HTTPHeaderVersion))

	resp, err = http.Get("http://" + listener.Addr().String() + "/ext/missing")
	require.NoError(err)
	require.NoError(resp.Body.Close())
	require.Equal(http.StatusNotFound, resp.StatusCode)

	require.NoError(s.Shutdown())
	require.NoError(<-done)
}
