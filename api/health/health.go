// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package health

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/counterflood/utils/logging"
)

var _ Health = (*health)(nil)

// Health registers, runs and reports the checks of a node.
type Health interface {
	Registerer
	Reporter

	Start(freq time.Duration)
	Stop()
}

type Registerer interface {
	// RegisterReadinessCheck registers a check that stays passing once it
	// has passed.
	RegisterReadinessCheck(name string, checker Checker) error
	RegisterHealthCheck(name string, checker Checker) error
	RegisterLivenessCheck(name string, checker Checker) error
}

type Reporter interface {
	Readiness() (map[string]Result, bool)
	Health() (map[string]Result, bool)
	Liveness() (map[string]Result, bool)
}

type kind int

const (
	readinessKind kind = iota
	healthKind
	livenessKind
	numKinds
)

var kindNames = [numKinds]string{
	readinessKind: "readiness",
	healthKind:    "health",
	livenessKind:  "liveness",
}

type health struct {
	log     logging.Logger
	workers [numKinds]*worker
}

func New(log logging.Logger, registerer prometheus.Registerer) (Health, error) {
	failing, err := newFailingChecks(registerer)
	if err != nil {
		return nil, err
	}

	h := &health{log: log}
	for k := range h.workers {
		h.workers[k] = newWorker(failing.WithLabelValues(kindNames[k]))
	}
	return h, nil
}

func (h *health) RegisterReadinessCheck(name string, checker Checker) error {
	return h.workers[readinessKind].RegisterMonotonicCheck(name, checker)
}

func (h *health) RegisterHealthCheck(name string, checker Checker) error {
	return h.workers[healthKind].RegisterCheck(name, checker)
}

func (h *health) RegisterLivenessCheck(name string, checker Checker) error {
	return h.workers[livenessKind].RegisterCheck(name, checker)
}

func (h *health) Readiness() (map[string]Result, bool) {
	return h.results(readinessKind)
}

func (h *health) Health() (map[string]Result, bool) {
	return h.results(healthKind)
}

func (h *health) Liveness() (map[string]Result, bool) {
	return h.results(livenessKind)
}

func (h *health) results(k kind) (map[string]Result, bool) {
	results, healthy := h.workers[k].Results()
	if !healthy {
		h.log.Warn("failing checks",
			zap.String("kind", kindNames[k]),
			zap.Reflect("reason", results),
		)
	}
	return results, healthy
}

func (h *health) Start(freq time.Duration) {
	for _, w := range h.workers {
		w.Start(freq)
	}
}

func (h *health) Stop() {
	for _, w := range h.workers {
		w.Stop()
	}
}
