// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/counterflood/utils/wrappers"
)

var _ Link = (*meteredLink)(nil)

type linkMetrics struct {
	numSent, numFailed, numReceived prometheus.Counter
	bytesSent, bytesReceived        prometheus.Counter
}

func newLinkMetrics(namespace string, registerer prometheus.Registerer) (*linkMetrics, error) {
	m := &linkMetrics{
		numSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sent",
			Help:      "Number of packets sent",
		}),
		numFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failed",
			Help:      "Number of packets that failed to be sent",
		}),
		numReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "received",
			Help:      "Number of packets received",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sent_bytes",
			Help:      "Number of bytes sent",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "received_bytes",
			Help:      "Number of bytes received",
		}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.numSent),
		registerer.Register(m.numFailed),
		registerer.Register(m.numReceived),
		registerer.Register(m.bytesSent),
		registerer.Register(m.bytesReceived),
	)
	if errs.Errored() {
		return nil, fmt.Errorf("failed to register %s statistics: %w", namespace, errs.Err)
	}
	return m, nil
}

type meteredLink struct {
	Link
	metrics *linkMetrics
}

// NewMeteredLink reports the traffic of [link] under [namespace].
func NewMeteredLink(link Link, namespace string, registerer prometheus.Registerer) (Link, error) {
	m, err := newLinkMetrics(namespace, registerer)
	if err != nil {
		return nil, err
	}
	return &meteredLink{
		Link:    link,
		metrics: m,
	}, nil
}

func (l *meteredLink) Send(packet []byte) error {
	if err := l.Link.Send(packet); err != nil {
		l.metrics.numFailed.Inc()
		return err
	}
	l.metrics.numSent.Inc()
	l.metrics.bytesSent.Add(float64(len(packet)))
	return nil
}

func (l *meteredLink) Receive(ctx context.Context) ([]byte, error) {
	packet, err := l.Link.Receive(ctx)
	if err != nil {
		return nil, err
	}
	l.metrics.numReceived.Inc()
	l.metrics.bytesReceived.Add(float64(len(packet)))
	return packet, nil
}
