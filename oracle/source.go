// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"encoding/binary"

	"github.com/luxfi/crypto/hash"
)

// Source draws request and oracle indexes.
type Source interface {
	// Intn returns a value in [0, n). n is positive.
	Intn(n int) int
}

var _ Source = (*HashSource)(nil)

// HashSource derives each draw from hash256(seed || nonce). The nonce is not
// persisted, so a restarted node draws the same sequence again.
type HashSource struct {
	seed  []byte
	nonce uint64
}

func NewHashSource(seed []byte) *HashSource {
	return &HashSource{
		seed: append([]byte(nil), seed...),
	}
}

func (h *HashSource) Intn(n int) int {
	b := binary.BigEndian.AppendUint64(append([]byte(nil), h.seed...), h.nonce)
	h.nonce++
	digest := hash.ComputeHash256Array(b)
	return int(binary.BigEndian.Uint64(digest[:8]) % uint64(n))
}
