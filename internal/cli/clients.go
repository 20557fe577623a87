// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cobaltcore-dev/openstack-helper/internal/keystone"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack"
)

// Shared handles one command invocation lives on: the keystone session and
// the metrics registry backing the per-request monitor.
type clients struct {
	registry *prometheus.Registry
	mon      openstack.Monitor
	keystone keystone.KeystoneAPI
}

func newClients() *clients {
	registry := prometheus.NewRegistry()
	return &clients{
		registry: registry,
		mon:      openstack.NewMonitor(registry),
		keystone: keystone.NewKeystoneAPI(),
	}
}

// Log the request timings gathered during the run. Only called with --debug.
func (c *clients) dumpRequestMetrics() {
	families, err := c.registry.Gather()
	if err != nil {
		slog.Debug("failed to gather request metrics", "error", err)
		return
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, label := range metric.GetLabel() {
				labels[label.GetName()] = label.GetValue()
			}
			if histogram := metric.GetHistogram(); histogram != nil {
				slog.Debug("request timing",
					"metric", family.GetName(),
					"labels", labels,
					"count", histogram.GetSampleCount(),
					"totalSeconds", histogram.GetSampleSum(),
				)
				continue
			}
			if counter := metric.GetCounter(); counter != nil {
				slog.Debug("request count",
					"metric", family.GetName(),
					"labels", labels,
					"value", counter.GetValue(),
				)
			}
		}
	}
}
