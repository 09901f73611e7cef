// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"fmt"
	"math"

	"github.com/luxfi/codec"
	"github.com/luxfi/codec/linearcodec"
	"github.com/luxfi/database"
)

const CodecVersion uint16 = 0

// Codec encodes every record persisted by the store.
var Codec codec.Manager

func init() {
	Codec = codec.NewManager(math.MaxInt32)
	if err := Codec.RegisterCodec(CodecVersion, linearcodec.NewDefault()); err != nil {
		panic(err)
	}
}

func getRecord[T any](db database.KeyValueReader, key []byte) (*T, error) {
	b, err := db.Get(key)
	if err != nil {
		return nil, err
	}
	v := new(T)
	if _, err := Codec.Unmarshal(b, v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	return v, nil
}

func putRecord(db database.KeyValueWriter, key []byte, v any) error {
	b, err := Codec.Marshal(CodecVersion, v)
	if err != nil {
		return err
	}
	return db.Put(key, b)
}

func getUint64OrZero(db database.KeyValueReader, key []byte) (uint64, error) {
	v, err := database.GetUInt64(db, key)
	if err == database.ErrNotFound {
		return 0, nil
	}
	return v, err
}
