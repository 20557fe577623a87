// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package nova

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/flavors"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/servers"
	"github.com/gophercloud/gophercloud/v2/pagination"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cobaltcore-dev/openstack-helper/internal/keystone"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack"
)

// Server-side filters for the server listing.
type ListServersOpts struct {
	// List servers of all projects visible to the caller.
	AllTenants bool
	// Restrict the listing to one project.
	ProjectID string
	// Restrict the listing to servers in this status.
	Status string
}

type NovaAPI interface {
	// Init the nova API.
	Init(ctx context.Context) error
	// Get all nova servers matching the given filters.
	GetAllServers(ctx context.Context, opts ListServersOpts) ([]Server, error)
	// Get a single server by id. Returns nil when the server does not exist.
	GetServer(ctx context.Context, id string) (*Server, error)
	// Get a single flavor by id.
	GetFlavor(ctx context.Context, id string) (*Flavor, error)
}

// API for OpenStack Nova.
type novaAPI struct {
	// Monitor to track the api.
	mon openstack.Monitor
	// Keystone api to authenticate against.
	keystoneAPI keystone.KeystoneAPI
	// Authenticated OpenStack service client to fetch the data.
	sc *gophercloud.ServiceClient
}

// Create a new OpenStack nova API.
func NewNovaAPI(mon openstack.Monitor, k keystone.KeystoneAPI) NovaAPI {
	return &novaAPI{mon: mon, keystoneAPI: k}
}

// Init the nova API.
func (api *novaAPI) Init(ctx context.Context) error {
	if err := api.keystoneAPI.Authenticate(ctx); err != nil {
		return err
	}
	// Automatically fetch the nova endpoint from the keystone service catalog.
	provider := api.keystoneAPI.Client()
	serviceType := "compute"
	url, err := api.keystoneAPI.FindEndpoint(api.keystoneAPI.Availability(), serviceType)
	if err != nil {
		return err
	}
	slog.Debug("using nova endpoint", "url", url)
	api.sc = &gophercloud.ServiceClient{
		ProviderClient: provider,
		Endpoint:       url,
		Type:           serviceType,
		// Needed for the embedded flavor and the OS-EXT-SRV-ATTR fields.
		Microversion: "2.53",
	}
	return nil
}

// Get all nova servers matching the given filters.
func (api *novaAPI) GetAllServers(ctx context.Context, opts ListServersOpts) ([]Server, error) {
	label := "servers"
	slog.Debug("fetching nova data", "label", label)
	pages, err := func() (pagination.Page, error) {
		if api.mon.RequestTimer != nil {
			hist := api.mon.RequestTimer.WithLabelValues(label)
			timer := prometheus.NewTimer(hist)
			defer timer.ObserveDuration()
		}
		lo := servers.ListOpts{
			AllTenants: opts.AllTenants,
			TenantID:   opts.ProjectID,
			Status:     opts.Status,
		}
		return servers.List(api.sc, lo).AllPages(ctx)
	}()
	if err != nil {
		return nil, err
	}
	// Parse the json data into our custom model.
	var data = &struct {
		Servers []Server `json:"servers"`
	}{}
	if err := pages.(servers.ServerPage).ExtractInto(data); err != nil {
		return nil, err
	}
	if api.mon.RequestProcessedCounter != nil {
		api.mon.RequestProcessedCounter.WithLabelValues(label).Inc()
	}
	slog.Debug("fetched nova data", "label", label, "count", len(data.Servers))
	return data.Servers, nil
}

// Get a single server by id. Returns nil when the server does not exist.
func (api *novaAPI) GetServer(ctx context.Context, id string) (*Server, error) {
	label := "server"
	slog.Debug("fetching nova data", "label", label, "id", id)
	if api.mon.RequestTimer != nil {
		hist := api.mon.RequestTimer.WithLabelValues(label)
		timer := prometheus.NewTimer(hist)
		defer timer.ObserveDuration()
	}
	var server Server
	err := servers.Get(ctx, api.sc, id).ExtractInto(&server)
	if gophercloud.ResponseCodeIs(err, http.StatusNotFound) {
		slog.Debug("no nova server with this id", "id", id)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if api.mon.RequestProcessedCounter != nil {
		api.mon.RequestProcessedCounter.WithLabelValues(label).Inc()
	}
	return &server, nil
}

// Get a single flavor by id.
func (api *novaAPI) GetFlavor(ctx context.Context, id string) (*Flavor, error) {
	label := "flavor"
	slog.Debug("fetching nova data", "label", label, "id", id)
	if api.mon.RequestTimer != nil {
		hist := api.mon.RequestTimer.WithLabelValues(label)
		timer := prometheus.NewTimer(hist)
		defer timer.ObserveDuration()
	}
	flavor, err := flavors.Get(ctx, api.sc, id).Extract()
	if err != nil {
		return nil, err
	}
	if api.mon.RequestProcessedCounter != nil {
		api.mon.RequestProcessedCounter.WithLabelValues(label).Inc()
	}
	return &Flavor{
		ID:    flavor.ID,
		Name:  flavor.Name,
		VCPUs: flavor.VCPUs,
		RAM:   flavor.RAM,
		Disk:  flavor.Disk,
	}, nil
}
