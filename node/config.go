// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/counterflood/api/server"
	"github.com/ava-labs/counterflood/flood"
	"github.com/ava-labs/counterflood/utils/logging"
	"github.com/ava-labs/counterflood/utils/wrappers"
)

var (
	errNoNeighbors       = errors.New("link has no neighbors")
	errNoLinkAddress     = errors.New("link listen address is required")
	errNegativeHostRate  = errors.New("host rate must not be negative")
	errInvalidHostBurst  = errors.New("host burst must be positive when host rate is limited")
	errInvalidHealthFreq = errors.New("health check frequency must be positive")
)

// LinkConfig is the link broadcast frames are exchanged on.
type LinkConfig struct {
	ListenAddress string   `json:"listenAddress"`
	Neighbors     []string `json:"neighbors"`
}

// HostConfig is the link to the local upper layer. Payloads received on
// ListenAddress are originated as new broadcasts. Payloads of newly heard
// broadcasts are sent to DeliverAddress.
type HostConfig struct {
	ListenAddress  string `json:"listenAddress"`
	DeliverAddress string `json:"deliverAddress"`
	// Rate limits the payloads originated per second. 0 disables the limit.
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

// Enabled returns true if a host link should be opened.
func (c *HostConfig) Enabled() bool {
	return c.ListenAddress != "" || c.DeliverAddress != ""
}

type HTTPConfig struct {
	server.Config
	Enabled bool `json:"enabled"`
}

// Config contains all of the configurations of a Node.
type Config struct {
	Flood   flood.Config   `json:"flood"`
	Link    LinkConfig     `json:"link"`
	Host    HostConfig     `json:"host"`
	HTTP    HTTPConfig     `json:"http"`
	Logging logging.Config `json:"logging"`

	HealthCheckFreq time.Duration `json:"healthCheckFreq"`
	// RandomSeed seeds the jitter source. 0 seeds from the current time.
	RandomSeed uint64 `json:"randomSeed"`
}

// Verify returns every problem with the config.
func (c *Config) Verify() error {
	errs := wrappers.AllErrs{}
	if err := c.Flood.Verify(); err != nil {
		errs.Add(err)
	}
	if c.Link.ListenAddress == "" {
		errs.Add(errNoLinkAddress)
	}
	if len(c.Link.Neighbors) == 0 {
		errs.Add(errNoNeighbors)
	}
	if c.Host.Rate < 0 {
		errs.Add(fmt.Errorf("%w: %f", errNegativeHostRate, c.Host.Rate))
	}
	if c.Host.Rate > 0 && c.Host.Burst <= 0 {
		errs.Add(fmt.Errorf("%w: %d", errInvalidHostBurst, c.Host.Burst))
	}
	if c.HealthCheckFreq <= 0 {
		errs.Add(fmt.Errorf("%w: %s", errInvalidHealthFreq, c.HealthCheckFreq))
	}
	return errs.Err()
}
