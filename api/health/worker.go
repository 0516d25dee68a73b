// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package health

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var errDuplicateCheck = errors.New("duplicated check")

type checkState struct {
	checker Checker
	result  Result
}

// worker periodically runs a set of checks and keeps their last results.
type worker struct {
	// failing counts the registered checks whose last result is an error.
	failing prometheus.Gauge

	lock   sync.RWMutex
	checks map[string]*checkState

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	running   sync.WaitGroup
}

func newWorker(failing prometheus.Gauge) *worker {
	return &worker{
		failing: failing,
		checks:  make(map[string]*checkState),
		stop:    make(chan struct{}),
	}
}

func (w *worker) RegisterCheck(name string, checker Checker) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if _, ok := w.checks[name]; ok {
		return fmt.Errorf("%w: %q", errDuplicateCheck, name)
	}
	w.checks[name] = &checkState{
		checker: checker,
		result:  notYetRunResult,
	}

	// A check fails until it has run.
	w.failing.Inc()
	return nil
}

// RegisterMonotonicCheck registers a check that keeps reporting its first
// passing result once it has passed.
func (w *worker) RegisterMonotonicCheck(name string, checker Checker) error {
	return w.RegisterCheck(name, &monotonicChecker{checker: checker})
}

func (w *worker) Results() (map[string]Result, bool) {
	w.lock.RLock()
	defer w.lock.RUnlock()

	results := make(map[string]Result, len(w.checks))
	healthy := true
	for name, state := range w.checks {
		results[name] = state.result
		healthy = healthy && state.result.Error == nil
	}
	return results, healthy
}

func (w *worker) Start(freq time.Duration) {
	w.startOnce.Do(func() {
		w.running.Add(1)
		go func() {
			defer w.running.Done()

			ticker := time.NewTicker(freq)
			defer ticker.Stop()

			for {
				w.runChecks()
				select {
				case <-ticker.C:
				case <-w.stop:
					return
				}
			}
		}()
	})
}

// Stop waits for the running checks to finish.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	w.running.Wait()
}

// runChecks runs every registered check concurrently. The checks run without
// holding [w.lock], so a check may register other checks.
func (w *worker) runChecks() {
	w.lock.RLock()
	checkers := make(map[string]Checker, len(w.checks))
	for name, state := range w.checks {
		checkers[name] = state.checker
	}
	w.lock.RUnlock()

	var wg sync.WaitGroup
	wg.Add(len(checkers))
	for name, checker := range checkers {
		go func(name string, checker Checker) {
			defer wg.Done()

			start := time.Now()
			details, err := checker.HealthCheck()
			w.record(name, details, err, start, time.Now())
		}(name, checker)
	}
	wg.Wait()
}

func (w *worker) record(name string, details interface{}, err error, start, end time.Time) {
	w.lock.Lock()
	defer w.lock.Unlock()

	state := w.checks[name]
	prev := state.result
	result := Result{
		Details:   details,
		Timestamp: end,
		Duration:  end.Sub(start),
	}

	if err == nil {
		if prev.Error != nil {
			w.failing.Dec()
		}
		state.result = result
		return
	}

	errString := err.Error()
	result.Error = &errString
	result.ContiguousFailures = prev.ContiguousFailures + 1
	result.TimeOfFirstFailure = prev.TimeOfFirstFailure
	if prev.ContiguousFailures == 0 {
		result.TimeOfFirstFailure = &end
	}
	if prev.Error == nil {
		w.failing.Inc()
	}
	state.result = result
}

type monotonicChecker struct {
	checker Checker

	lock    sync.Mutex
	passed  bool
	details interface{}
}

func (m *monotonicChecker) HealthCheck() (interface{}, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.passed {
		return m.details, nil
	}
	details, err := m.checker.HealthCheck()
	if err == nil {
		m.passed = true
		m.details = details
	}
	return details, err
}
