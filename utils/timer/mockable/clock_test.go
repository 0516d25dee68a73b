// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mockable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClockSet(t *testing.T) {
	require := require.New(t)

	clock := Clock{}
	clock.Set(time.Unix(1000000, 0))
	require.Equal(time.Unix(1000000, 0), clock.Time())

	clock.Sync()
	require.True(clock.Time().After(time.Unix(1000000, 0)))
}

func TestClockAdvance(t *testing.T) {
	require := require.New(t)

	clock := Clock{}
	clock.Set(time.Unix(10, 0))
	clock.Advance(750 * time.Millisecond)
	require.Equal(time.Unix(10, int64(750*time.Millisecond)), clock.Time())
	require.Equal(time.Unix(10, 0), clock.UnixTime())
}
