// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package health

import "github.com/prometheus/client_golang/prometheus"

const kindLabel = "kind"

func newFailingChecks(registerer prometheus.Registerer) (*prometheus.GaugeVec, error) {
	failing := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "counterflood_health",
			Name:      "checks_failing",
			Help:      "Number of currently failing checks",
		},
		[]string{kindLabel},
	)
	return failing, registerer.Register(failing)
}
