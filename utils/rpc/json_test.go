// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockReadCloser struct {
	reader  io.Reader
	closed  bool
	readAll bool
}

func (m *mockReadCloser) Read(p []byte) (int, error) {
	n, err := m.reader.Read(p)
	if err == io.EOF {
		m.readAll = true
	}
	return n, err
}

func (m *mockReadCloser) Close() error {
	m.closed = true
	return nil
}

func TestCleanlyCloseBody(t *testing.T) {
	require := require.New(t)

	require.NoError(CleanlyCloseBody(nil))

	body := &mockReadCloser{
		reader: bytes.NewReader(bytes.Repeat([]byte("x"), 1024*1024)),
	}
	// Partially read the body
	_, err := body.Read(make([]byte, 4))
	require.NoError(err)
	require.False(body.readAll)

	require.NoError(CleanlyCloseBody(body))
	require.True(body.closed)
	require.True(body.readAll)
}

func TestSendRequest(t *testing.T) {
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil || !strings.Contains(string(b), `"method":"surety.ping"`) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":{"success":true},"id":0}`))
	}))
	defer server.Close()

	var reply struct {
		Success bool `json:"success"`
	}
	requester := NewEndpointRequester(server.URL)
	require.NoError(requester.SendRequest(context.Background(), "surety.ping", struct{}{}, &reply))
	require.True(reply.Success)

	err := requester.SendRequest(context.Background(), "surety.other", struct{}{}, &reply)
	require.ErrorContains(err, "received status code: 400")
}
