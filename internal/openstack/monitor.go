// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package openstack

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Monitor tracks the OpenStack API usage of one invocation. The fields are
// optional; API wrappers nil-check them before observing.
type Monitor struct {
	// Histogram of request durations, labeled by fetched resource.
	RequestTimer *prometheus.HistogramVec
	// Counter of processed requests, labeled by fetched resource.
	RequestProcessedCounter *prometheus.CounterVec
}

// Create a new monitor registered with the given registry.
func NewMonitor(registry prometheus.Registerer) Monitor {
	requestTimer := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "openstack_helper_request_duration_seconds",
		Help:    "Duration of OpenStack API fetches.",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource"})
	requestProcessedCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "openstack_helper_requests_total",
		Help: "Number of OpenStack API fetches processed.",
	}, []string{"resource"})
	registry.MustRegister(requestTimer, requestProcessedCounter)
	return Monitor{
		RequestTimer:            requestTimer,
		RequestProcessedCounter: requestProcessedCounter,
	}
}
