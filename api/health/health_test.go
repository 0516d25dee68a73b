// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/counterflood/utils/logging"
)

var errUnhealthy = errors.New("unhealthy")

func TestWorkerRunChecks(t *testing.T) {
	require := require.New(t)

	w := newWorker(prometheus.NewGauge(prometheus.GaugeOpts{Name: "failing"}))

	failing := true
	require.NoError(w.RegisterCheck("link", CheckerFunc(func() (interface{}, error) {
		if failing {
			return "down", errUnhealthy
		}
		return "up", nil
	})))
	require.ErrorIs(w.RegisterCheck("link", CheckerFunc(nil)), errDuplicateCheck)

	results, healthy := w.Results()
	require.False(healthy)
	require.Equal(notYetRunResult, results["link"])
	require.Equal(1.0, testutil.ToFloat64(w.failing))

	w.runChecks()
	w.runChecks()
	results, healthy = w.Results()
	require.False(healthy)
	require.Equal(int64(2), results["link"].ContiguousFailures)
	require.NotNil(results["link"].TimeOfFirstFailure)
	require.Equal(1.0, testutil.ToFloat64(w.failing))

	failing = false
	w.runChecks()
	results, healthy = w.Results()
	require.True(healthy)
	require.Equal("up", results["link"].Details)
	require.Zero(testutil.ToFloat64(w.failing))
}

func TestMonotonicCheck(t *testing.T) {
	require := require.New(t)

	w := newWorker(prometheus.NewGauge(prometheus.GaugeOpts{Name: "failing"}))

	calls := 0
	require.NoError(w.RegisterMonotonicCheck("started", CheckerFunc(func() (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, errUnhealthy
		}
		return calls, nil
	})))

	for i := 0; i < 4; i++ {
		w.runChecks()
	}
	results, healthy := w.Results()
	require.True(healthy)
	require.Equal(2, results["started"].Details)
	require.Equal(2, calls)
}

func TestServiceAndClient(t *testing.T) {
	require := require.New(t)

	h, err := New(logging.NoLog{}, prometheus.NewRegistry())
	require.NoError(err)
	require.NoError(h.RegisterReadinessCheck("ready", CheckerFunc(func() (interface{}, error) {
		return nil, nil
	})))
	require.NoError(h.RegisterLivenessCheck("alive", CheckerFunc(func() (interface{}, error) {
		return nil, errUnhealthy
	})))

	handler, err := NewService(logging.NoLog{}, h)
	require.NoError(err)
	mux := http.NewServeMux()
	mux.Handle("/ext/"+ServiceName, handler)
	server := httptest.NewServer(mux)
	defer server.Close()

	h.Start(time.Millisecond)
	defer h.Stop()

	c := NewClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ready, err := AwaitReady(ctx, c, 5*time.Millisecond)
	require.NoError(err)
	require.True(ready)

	// No health checks are registered.
	reply, err := c.Health(ctx)
	require.NoError(err)
	require.True(reply.Healthy)
	require.Empty(reply.Checks)

	reply, err = c.Liveness(ctx)
	require.NoError(err)
	require.False(reply.Healthy)
	require.Contains(reply.Checks, "alive")
}

func TestFailingChecksPerKind(t *testing.T) {
	require := require.New(t)

	registry := prometheus.NewRegistry()
	hi, err := New(logging.NoLog{}, registry)
	require.NoError(err)
	require.NoError(hi.RegisterHealthCheck("a", CheckerFunc(nil)))
	require.NoError(hi.RegisterHealthCheck("b", CheckerFunc(nil)))
	require.NoError(hi.RegisterLivenessCheck("a", CheckerFunc(nil)))

	h := hi.(*health)
	require.Zero(testutil.ToFloat64(h.workers[readinessKind].failing))
	require.Equal(2.0, testutil.ToFloat64(h.workers[healthKind].failing))
	require.Equal(1.0, testutil.ToFloat64(h.workers[livenessKind].failing))

	_, err = New(logging.NoLog{}, registry)
	require.Error(err)
}
