// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrappers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackerShortAndInt(t *testing.T) {
	require := require.New(t)

	p := Packer{MaxSize: 6}
	p.PackShort(0x0941)
	p.PackInt(0xdeadbeef)
	require.NoError(p.Err)
	require.Equal([]byte{0x09, 0x41, 0xde, 0xad, 0xbe, 0xef}, p.Bytes)

	p = Packer{Bytes: p.Bytes}
	require.Equal(uint16(0x0941), p.UnpackShort())
	require.Equal(uint32(0xdeadbeef), p.UnpackInt())
	require.NoError(p.Err)
	require.Equal(6, p.Offset)
}

func TestPackerMaxSize(t *testing.T) {
	require := require.New(t)

	p := Packer{MaxSize: 1}
	p.PackShort(1)
	require.ErrorIs(p.Err, ErrInsufficientLength)
}

func TestPackerUnpackShortBuffer(t *testing.T) {
	require := require.New(t)

	p := Packer{Bytes: []byte{0x01, 0x02, 0x03}}
	require.Zero(p.UnpackInt())
	require.True(p.Errored())

	// Once errored, later reads keep returning zero values.
	require.Zero(p.UnpackByte())
}

func TestPackerBytes(t *testing.T) {
	require := require.New(t)

	p := Packer{MaxSize: 1024}
	p.PackBytes([]byte("hello"))
	require.NoError(p.Err)

	p = Packer{Bytes: p.Bytes}
	require.Equal([]byte("hello"), p.UnpackBytes())
	require.NoError(p.Err)
}

func TestAllErrs(t *testing.T) {
	require := require.New(t)

	errA := errors.New("a")
	errB := errors.New("b")

	var errs AllErrs
	require.NoError(errs.Err())

	errs.Add(nil, errA)
	require.Equal(errA, errs.Err())

	errs.Add(errB)
	err := errs.Err()
	require.ErrorIs(err, errA)
	require.ErrorIs(err, errB)
	require.Equal("a; b", err.Error())
}
