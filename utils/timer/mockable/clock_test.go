// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mockable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClockSetAndAdvance(t *testing.T) {
	require := require.New(t)

	var c Clock
	start := time.Unix(1_700_000_000, 0)
	c.Set(start)
	require.Equal(start, c.Time())
	require.Equal(uint64(1_700_000_000), c.Unix())

	c.Advance(time.Hour)
	require.Equal(uint64(1_700_003_600), c.Unix())
}

func TestClockSync(t *testing.T) {
	require := require.New(t)

	var c Clock
	c.Set(time.Unix(0, 0))
	require.Zero(c.Unix())

	c.Sync()
	require.WithinDuration(time.Now(), c.Time(), time.Minute)
}

func TestClockNegativeUnixClamped(t *testing.T) {
	var c Clock
	c.Set(time.Unix(-10, 0))
	require.Zero(t, c.Unix())
}
