// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flood

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/ava-labs/counterflood/message"
	"github.com/ava-labs/counterflood/utils/wrappers"
)

const (
	DefaultMaxDelay = 750 * time.Millisecond
	DefaultHistory  = 100
)

var (
	ErrInvalidConfig = errors.New("invalid flood config")

	errMissingEtherType   = errors.New("ethertype must be non-zero")
	errMissingIP          = errors.New("ip is required")
	errMissingBroadcastIP = errors.New("broadcast ip is required")
	errSelfBroadcast      = errors.New("ip must differ from broadcast ip")
	errMixedFamilies      = errors.New("ip and broadcast ip must be the same address family")
	errInvalidMAC         = errors.New("eth must be a 6 byte, non-broadcast MAC address")
	errNegativeMaxDelay   = errors.New("max delay must not be negative")
	errInvalidHistory     = errors.New("history must be positive")
)

// Config of a Controller. Count and Debug are the initial values of the
// runtime-adjustable settings.
type Config struct {
	// EtherType tags this protocol's frames on the link.
	EtherType uint16 `json:"ethType"`
	// IP is this node's identity.
	IP netip.Addr `json:"ip"`
	// BroadcastIP is the destination identity of flooded frames.
	BroadcastIP netip.Addr `json:"bcastIP"`
	// MAC is this node's link address.
	MAC net.HardwareAddr `json:"eth"`
	// Count is the suppression threshold. 0 always forwards, 1 never
	// forwards, k > 1 forwards unless k copies were heard before the
	// retransmission was due.
	Count uint32 `json:"count"`
	// MaxDelay bounds the random delay before a retransmission.
	MaxDelay time.Duration `json:"maxDelay"`
	// History is the number of broadcasts remembered.
	History int  `json:"history"`
	Debug   bool `json:"debug"`
}

// DefaultConfig returns a config with the optional settings filled in.
func DefaultConfig() Config {
	return Config{
		MaxDelay: DefaultMaxDelay,
		History:  DefaultHistory,
	}
}

// Verify returns every problem with the config.
func (c *Config) Verify() error {
	errs := wrappers.AllErrs{}
	if c.EtherType == 0 {
		errs.Add(errMissingEtherType)
	}
	if !c.IP.IsValid() {
		errs.Add(errMissingIP)
	}
	if !c.BroadcastIP.IsValid() {
		errs.Add(errMissingBroadcastIP)
	}
	if c.IP.IsValid() && c.BroadcastIP.IsValid() {
		switch {
		case c.IP.Unmap() == c.BroadcastIP.Unmap():
			errs.Add(errSelfBroadcast)
		case c.IP.Unmap().Is4() != c.BroadcastIP.Unmap().Is4():
			errs.Add(errMixedFamilies)
		}
	}
	if len(c.MAC) != 6 || bytes.Equal(c.MAC, message.BroadcastMAC) {
		errs.Add(fmt.Errorf("%w: %q", errInvalidMAC, c.MAC))
	}
	if c.MaxDelay < 0 {
		errs.Add(errNegativeMaxDelay)
	}
	if c.History <= 0 {
		errs.Add(fmt.Errorf("%w: %d", errInvalidHistory, c.History))
	}
	if err := errs.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
