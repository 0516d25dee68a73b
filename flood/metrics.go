// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flood

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/counterflood/utils/wrappers"
)

const (
	droppedMalformed   = "malformed"
	droppedEtherType   = "ethertype"
	droppedDestination = "destination"
	droppedEcho        = "echo"
	droppedUnknownPort = "unknown_port"
	droppedClosed      = "closed"
)

type metrics struct {
	originated  prometheus.Counter
	transmitted prometheus.Counter
	received    prometheus.Counter
	duplicates  prometheus.Counter
	suppressed  prometheus.Counter
	evicted     prometheus.Counter
	dropped     *prometheus.CounterVec

	pending     prometheus.Gauge
	historySize prometheus.Gauge
}

func newMetrics(namespace string, registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		originated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "originated",
			Help:      "Number of broadcasts originated by this node",
		}),
		transmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transmitted",
			Help:      "Number of frames sent on the link",
		}),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "received",
			Help:      "Number of well-formed frames heard on the link",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates",
			Help:      "Number of frames heard for broadcasts already in the history",
		}),
		suppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suppressed",
			Help:      "Number of scheduled retransmissions cancelled by the count threshold",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evicted",
			Help:      "Number of broadcasts evicted from the history",
		}),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dropped",
				Help:      "Number of inbound packets dropped before reaching the history",
			},
			[]string{"reason"},
		),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending",
			Help:      "Number of broadcasts waiting for their retransmission",
		}),
		historySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_size",
			Help:      "Number of broadcasts in the history",
		}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.originated),
		registerer.Register(m.transmitted),
		registerer.Register(m.received),
		registerer.Register(m.duplicates),
		registerer.Register(m.suppressed),
		registerer.Register(m.evicted),
		registerer.Register(m.dropped),
		registerer.Register(m.pending),
		registerer.Register(m.historySize),
	)
	return m, errs.Err
}
