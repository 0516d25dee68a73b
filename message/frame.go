// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package message

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/ava-labs/counterflood/ids"
	"github.com/ava-labs/counterflood/utils/wrappers"
)

const (
	macLen = 6

	// HeaderLen is the size of the link header: destination, source and
	// ethertype.
	HeaderLen = 2*macLen + wrappers.ShortLen

	// MaxPayloadLen is the largest payload a frame can carry.
	MaxPayloadLen = wrappers.MaxStringLen

	// ipv4 origin and destination, sequence number, empty payload
	minFrameLen = HeaderLen + 2*(wrappers.ByteLen+net.IPv4len) + wrappers.IntLen + wrappers.ShortLen
	maxFrameLen = HeaderLen + 2*(wrappers.ByteLen+net.IPv6len) + wrappers.IntLen + wrappers.ShortLen + MaxPayloadLen
)

var (
	// BroadcastMAC is the link-layer broadcast address.
	BroadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

	ErrMalformed = errors.New("malformed frame")

	errInvalidMAC     = errors.New("invalid MAC address")
	errInvalidAddr    = errors.New("invalid address")
	errPayloadTooLong = errors.New("payload too long")
	errTrailingBytes  = errors.New("trailing bytes")
)

// Frame is a flooded broadcast as it appears on the link.
type Frame struct {
	DstMAC    net.HardwareAddr
	SrcMAC    net.HardwareAddr
	EtherType uint16

	// Origin is the node that started the broadcast.
	Origin netip.Addr
	// Destination is the broadcast address the frame was sent to.
	Destination netip.Addr
	// Seq is assigned by [Origin] and is unique per origin.
	Seq     uint32
	Payload []byte
}

// ID returns the identity of the broadcast carried by this frame.
func (f *Frame) ID() ids.BroadcastID {
	return ids.NewBroadcastID(f.Origin, f.Seq)
}

// Bytes serializes the frame.
func (f *Frame) Bytes() ([]byte, error) {
	switch {
	case len(f.DstMAC) != macLen || len(f.SrcMAC) != macLen:
		return nil, errInvalidMAC
	case !f.Origin.IsValid() || !f.Destination.IsValid():
		return nil, errInvalidAddr
	case len(f.Payload) > MaxPayloadLen:
		return nil, fmt.Errorf("%w: %d > %d", errPayloadTooLong, len(f.Payload), MaxPayloadLen)
	}

	p := wrappers.Packer{MaxSize: maxFrameLen}
	p.PackFixedBytes(f.DstMAC)
	p.PackFixedBytes(f.SrcMAC)
	p.PackShort(f.EtherType)
	packAddr(&p, f.Origin)
	packAddr(&p, f.Destination)
	p.PackInt(f.Seq)
	p.PackBytes(f.Payload)
	return p.Bytes, p.Err
}

// Parse deserializes a frame. Every failure wraps ErrMalformed.
func Parse(b []byte) (*Frame, error) {
	if len(b) < minFrameLen {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the minimum %d", ErrMalformed, len(b), minFrameLen)
	}

	p := wrappers.Packer{Bytes: b}
	f := &Frame{
		DstMAC:    cloneBytes(p.UnpackFixedBytes(macLen)),
		SrcMAC:    cloneBytes(p.UnpackFixedBytes(macLen)),
		EtherType: p.UnpackShort(),
	}
	f.Origin = unpackAddr(&p)
	f.Destination = unpackAddr(&p)
	f.Seq = p.UnpackInt()
	f.Payload = cloneBytes(p.UnpackBytes())

	switch {
	case p.Errored():
		return nil, fmt.Errorf("%w: %w", ErrMalformed, p.Err)
	case p.Offset != len(b):
		return nil, fmt.Errorf("%w: %w (%d)", ErrMalformed, errTrailingBytes, len(b)-p.Offset)
	}
	return f, nil
}

// PeekEtherType returns the ethertype of a serialized frame without parsing
// the rest of it.
func PeekEtherType(b []byte) (uint16, bool) {
	if len(b) < HeaderLen {
		return 0, false
	}
	p := wrappers.Packer{Bytes: b, Offset: 2 * macLen}
	return p.UnpackShort(), true
}

func packAddr(p *wrappers.Packer, addr netip.Addr) {
	addr = addr.Unmap()
	b := addr.AsSlice()
	p.PackByte(byte(len(b)))
	p.PackFixedBytes(b)
}

func unpackAddr(p *wrappers.Packer) netip.Addr {
	size := p.UnpackByte()
	if p.Errored() {
		return netip.Addr{}
	}
	if size != net.IPv4len && size != net.IPv6len {
		p.Add(fmt.Errorf("%w: length %d", errInvalidAddr, size))
		return netip.Addr{}
	}
	addr, _ := netip.AddrFromSlice(p.UnpackFixedBytes(int(size)))
	return addr
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
