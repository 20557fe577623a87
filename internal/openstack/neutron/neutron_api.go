// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package neutron

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/extensions/layer3/routers"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/networks"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/ports"
	"github.com/gophercloud/gophercloud/v2/pagination"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cobaltcore-dev/openstack-helper/internal/keystone"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack"
)

// Server-side filters for the port listing.
type ListPortsOpts struct {
	NetworkID   string
	DeviceOwner string
	DeviceID    string
	ProjectID   string
	Status      string
}

type NeutronAPI interface {
	// Init the neutron API.
	Init(ctx context.Context) error
	// Get all ports matching the given filters.
	GetAllPorts(ctx context.Context, opts ListPortsOpts) ([]Port, error)
	// Get all networks visible to the caller.
	GetAllNetworks(ctx context.Context) ([]Network, error)
	// Get all routers visible to the caller.
	GetAllRouters(ctx context.Context) ([]Router, error)
}

// API for OpenStack Neutron.
type neutronAPI struct {
	// Monitor to track the api.
	mon openstack.Monitor
	// Keystone api to authenticate against.
	keystoneAPI keystone.KeystoneAPI
	// Authenticated OpenStack service client to fetch the data.
	sc *gophercloud.ServiceClient
}

// Create a new OpenStack neutron API.
func NewNeutronAPI(mon openstack.Monitor, k keystone.KeystoneAPI) NeutronAPI {
	return &neutronAPI{mon: mon, keystoneAPI: k}
}

// Init the neutron API.
func (api *neutronAPI) Init(ctx context.Context) error {
	if err := api.keystoneAPI.Authenticate(ctx); err != nil {
		return err
	}
	// Automatically fetch the neutron endpoint from the keystone service catalog.
	provider := api.keystoneAPI.Client()
	serviceType := "network"
	url, err := api.keystoneAPI.FindEndpoint(api.keystoneAPI.Availability(), serviceType)
	if err != nil {
		return err
	}
	slog.Debug("using neutron endpoint", "url", url)
	api.sc = &gophercloud.ServiceClient{
		ProviderClient: provider,
		Endpoint:       url,
		Type:           serviceType,
		// The neutron catalog endpoint carries no version path.
		ResourceBase: strings.TrimSuffix(url, "/") + "/v2.0/",
	}
	return nil
}

// Get all ports matching the given filters.
func (api *neutronAPI) GetAllPorts(ctx context.Context, opts ListPortsOpts) ([]Port, error) {
	label := "ports"
	slog.Debug("fetching neutron data", "label", label)
	pages, err := func() (pagination.Page, error) {
		if api.mon.RequestTimer != nil {
			hist := api.mon.RequestTimer.WithLabelValues(label)
			timer := prometheus.NewTimer(hist)
			defer timer.ObserveDuration()
		}
		lo := ports.ListOpts{
			NetworkID:   opts.NetworkID,
			DeviceOwner: opts.DeviceOwner,
			DeviceID:    opts.DeviceID,
			ProjectID:   opts.ProjectID,
			Status:      opts.Status,
		}
		return ports.List(api.sc, lo).AllPages(ctx)
	}()
	if err != nil {
		return nil, err
	}
	// Parse the json data into our custom model to keep the binding attrs.
	var result []Port
	if err := ports.ExtractPortsInto(pages, &result); err != nil {
		return nil, err
	}
	if api.mon.RequestProcessedCounter != nil {
		api.mon.RequestProcessedCounter.WithLabelValues(label).Inc()
	}
	slog.Debug("fetched neutron data", "label", label, "count", len(result))
	return result, nil
}

// Get all networks visible to the caller.
func (api *neutronAPI) GetAllNetworks(ctx context.Context) ([]Network, error) {
	label := "networks"
	slog.Debug("fetching neutron data", "label", label)
	pages, err := func() (pagination.Page, error) {
		if api.mon.RequestTimer != nil {
			hist := api.mon.RequestTimer.WithLabelValues(label)
			timer := prometheus.NewTimer(hist)
			defer timer.ObserveDuration()
		}
		return networks.List(api.sc, networks.ListOpts{}).AllPages(ctx)
	}()
	if err != nil {
		return nil, err
	}
	extracted, err := networks.ExtractNetworks(pages)
	if err != nil {
		return nil, err
	}
	result := make([]Network, len(extracted))
	for i, network := range extracted {
		result[i] = Network{ID: network.ID, Name: network.Name}
	}
	if api.mon.RequestProcessedCounter != nil {
		api.mon.RequestProcessedCounter.WithLabelValues(label).Inc()
	}
	slog.Debug("fetched neutron data", "label", label, "count", len(result))
	return result, nil
}

// Get all routers visible to the caller.
func (api *neutronAPI) GetAllRouters(ctx context.Context) ([]Router, error) {
	label := "routers"
	slog.Debug("fetching neutron data", "label", label)
	pages, err := func() (pagination.Page, error) {
		if api.mon.RequestTimer != nil {
			hist := api.mon.RequestTimer.WithLabelValues(label)
			timer := prometheus.NewTimer(hist)
			defer timer.ObserveDuration()
		}
		return routers.List(api.sc, routers.ListOpts{}).AllPages(ctx)
	}()
	if err != nil {
		return nil, err
	}
	extracted, err := routers.ExtractRouters(pages)
	if err != nil {
		return nil, err
	}
	result := make([]Router, len(extracted))
	for i, router := range extracted {
		external := make([]FixedIP, len(router.GatewayInfo.ExternalFixedIPs))
		for j, ip := range router.GatewayInfo.ExternalFixedIPs {
			external[j] = FixedIP{IPAddress: ip.IPAddress, SubnetID: ip.SubnetID}
		}
		result[i] = Router{
			ID:                router.ID,
			Name:              router.Name,
			Status:            router.Status,
			Distributed:       router.Distributed,
			ExternalNetworkID: router.GatewayInfo.NetworkID,
			ExternalFixedIPs:  external,
		}
	}
	if api.mon.RequestProcessedCounter != nil {
		api.mon.RequestProcessedCounter.WithLabelValues(label).Inc()
	}
	slog.Debug("fetched neutron data", "label", label, "count", len(result))
	return result, nil
}
