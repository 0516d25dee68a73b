// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flood

import "strconv"

// Port identifies the channel a packet arrives on.
type Port int

const (
	// NetworkPort carries frames heard on the link. They are candidate relays
	// or duplicates.
	NetworkPort Port = iota
	// HostPort carries payloads from the local upper layer. Each one starts a
	// new broadcast.
	HostPort
)

func (p Port) String() string {
	switch p {
	case NetworkPort:
		return "network"
	case HostPort:
		return "host"
	default:
		return "port(" + strconv.Itoa(int(p)) + ")"
	}
}

// Outputs is where the controller emits packets. Ownership of the slice
// passes to the callee.
type Outputs interface {
	// SendToNetwork transmits a serialized frame on the link.
	SendToNetwork(frame []byte)
	// DeliverToHost hands the payload of a newly heard broadcast to the local
	// upper layer.
	DeliverToHost(payload []byte)
}
