// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sampler

import (
	"math"
	"math/bits"
	"sync"
	"time"

	"gonum.org/v1/gonum/mathext/prng"
)

// Source of pseudo-random numbers. Safe for concurrent use.
type Source interface {
	// Uint64Inclusive returns a pseudo-random number in [0, n].
	Uint64Inclusive(n uint64) uint64
}

// NewSource returns a Source seeded with [seed]. Two sources with the same
// seed produce the same sequence.
func NewSource(seed uint64) Source {
	source := prng.NewMT19937()
	source.Seed(seed)
	return &rng{rng: source}
}

// NewTimeSource returns a Source seeded from the wall clock.
func NewTimeSource() Source {
	// Jitter only spreads retransmissions, it doesn't need to be secure.
	return NewSource(uint64(time.Now().UnixNano()))
}

type rng struct {
	lock sync.Mutex
	rng  *prng.MT19937
}

func (r *rng) Uint64Inclusive(n uint64) uint64 {
	if n == math.MaxUint64 {
		return r.uint64()
	}

	// Multiply-shift with rejection of the biased low products.
	// ref: https://arxiv.org/abs/1805.10941
	bound := n + 1
	hi, lo := bits.Mul64(r.uint64(), bound)
	if lo < bound {
		threshold := -bound % bound
		for lo < threshold {
			hi, lo = bits.Mul64(r.uint64(), bound)
		}
	}
	return hi
}

func (r *rng) uint64() uint64 {
	// prng.MT19937 isn't safe for concurrent use.
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.rng.Uint64()
}

// Jitter returns a duration drawn uniformly from [0, max). A non-positive
// [max] always yields 0.
func Jitter(source Source, max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(source.Uint64Inclusive(uint64(max) - 1))
}
