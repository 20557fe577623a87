// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package placement

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/placement/v1/resourceproviders"
	"github.com/gophercloud/gophercloud/v2/pagination"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cobaltcore-dev/openstack-helper/internal/keystone"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack"
)

// Server-side filters for the resource provider listing.
type ListResourceProvidersOpts struct {
	Name string
	UUID string
	// Aggregate uuids; a provider matches when it is a member of any of them.
	MemberOf []string
}

type PlacementAPI interface {
	// Init the placement API.
	Init(ctx context.Context) error
	// Fetch all resource providers matching the given filters.
	GetAllResourceProviders(ctx context.Context, opts ListResourceProvidersOpts) ([]ResourceProvider, error)
	// Fetch the inventories of the given provider, joined with their usages.
	GetInventoryUsages(ctx context.Context, provider ResourceProvider) ([]InventoryUsage, error)
	// Fetch the allocations of one consumer (instance), keyed by resource
	// provider uuid and resource class.
	GetAllocations(ctx context.Context, consumerID string) (map[string]map[string]int, error)
}

// API for OpenStack Placement.
type placementAPI struct {
	// Monitor to track the api.
	mon openstack.Monitor
	// Keystone api to authenticate against.
	keystoneAPI keystone.KeystoneAPI
	// Authenticated OpenStack service client to fetch the data.
	sc *gophercloud.ServiceClient
}

// Create a new OpenStack placement API.
func NewPlacementAPI(mon openstack.Monitor, k keystone.KeystoneAPI) PlacementAPI {
	return &placementAPI{mon: mon, keystoneAPI: k}
}

// Init the placement API.
func (api *placementAPI) Init(ctx context.Context) error {
	if err := api.keystoneAPI.Authenticate(ctx); err != nil {
		return err
	}
	// Automatically fetch the placement endpoint from the keystone service catalog.
	provider := api.keystoneAPI.Client()
	serviceType := "placement"
	url, err := api.keystoneAPI.FindEndpoint(api.keystoneAPI.Availability(), serviceType)
	if err != nil {
		return err
	}
	slog.Debug("using placement endpoint", "url", url)
	api.sc = &gophercloud.ServiceClient{
		ProviderClient: provider,
		Endpoint:       url,
		Type:           serviceType,
		// Needed, otherwise openstack will return 404s for newer routes.
		Microversion: "1.29",
	}
	return nil
}

// Format the member_of query value for the given aggregate uuids.
// The in: prefix makes placement match providers in any of the aggregates.
func MemberOfQuery(aggregates []string) string {
	if len(aggregates) == 0 {
		return ""
	}
	return "in:" + strings.Join(aggregates, ",")
}

// Fetch all resource providers matching the given filters.
func (api *placementAPI) GetAllResourceProviders(ctx context.Context, opts ListResourceProvidersOpts) ([]ResourceProvider, error) {
	label := "resource_providers"
	slog.Debug("fetching placement data", "label", label)
	pages, err := func() (pagination.Page, error) {
		if api.mon.RequestTimer != nil {
			hist := api.mon.RequestTimer.WithLabelValues(label)
			timer := prometheus.NewTimer(hist)
			defer timer.ObserveDuration()
		}
		lo := resourceproviders.ListOpts{
			Name:     opts.Name,
			UUID:     opts.UUID,
			MemberOf: MemberOfQuery(opts.MemberOf),
		}
		return resourceproviders.List(api.sc, lo).AllPages(ctx)
	}()
	if err != nil {
		return nil, err
	}
	// Parse the json data into our custom model.
	var data = &struct {
		ResourceProviders []ResourceProvider `json:"resource_providers"`
	}{}
	if err := pages.(resourceproviders.ResourceProvidersPage).ExtractInto(data); err != nil {
		return nil, err
	}
	if api.mon.RequestProcessedCounter != nil {
		api.mon.RequestProcessedCounter.WithLabelValues(label).Inc()
	}
	slog.Debug("fetched placement data", "label", label, "count", len(data.ResourceProviders))
	return data.ResourceProviders, nil
}

// Fetch the inventories of the given provider, joined with their usages.
// A resource class without a reported usage counts as used 0.
func (api *placementAPI) GetInventoryUsages(ctx context.Context, provider ResourceProvider) ([]InventoryUsage, error) {
	label := "inventory_usages"
	slog.Debug("fetching placement data", "label", label, "provider", provider.Name)
	if api.mon.RequestTimer != nil {
		hist := api.mon.RequestTimer.WithLabelValues(label)
		timer := prometheus.NewTimer(hist)
		defer timer.ObserveDuration()
	}
	inventoryResult := resourceproviders.GetInventories(ctx, api.sc, provider.UUID)
	if inventoryResult.Err != nil {
		return nil, inventoryResult.Err
	}
	inventory, err := inventoryResult.Extract()
	if err != nil {
		return nil, err
	}
	usageResult := resourceproviders.GetUsages(ctx, api.sc, provider.UUID)
	if usageResult.Err != nil {
		return nil, usageResult.Err
	}
	usage, err := usageResult.Extract()
	if err != nil {
		return nil, err
	}

	// Iterate the classes in sorted order so repeated runs report the
	// same row order.
	classes := slices.Sorted(maps.Keys(inventory.Inventories))
	results := []InventoryUsage{}
	for _, inventoryClass := range classes {
		inv := inventory.Inventories[inventoryClass]
		results = append(results, InventoryUsage{
			ResourceProviderUUID: provider.UUID,
			ResourceProviderName: provider.Name,
			InventoryClassName:   inventoryClass,
			AllocationRatio:      inv.AllocationRatio,
			MaxUnit:              inv.MaxUnit,
			MinUnit:              inv.MinUnit,
			Reserved:             inv.Reserved,
			StepSize:             inv.StepSize,
			Total:                inv.Total,
			Used:                 usage.Usages[inventoryClass],
		})
	}
	if api.mon.RequestProcessedCounter != nil {
		api.mon.RequestProcessedCounter.WithLabelValues(label).Inc()
	}
	return results, nil
}

// Fetch the allocations of one consumer (instance).
// Note: gophercloud has no binding for /allocations/{consumer}, so this
// queries the endpoint directly.
func (api *placementAPI) GetAllocations(ctx context.Context, consumerID string) (map[string]map[string]int, error) {
	label := "allocations"
	slog.Debug("fetching placement data", "label", label, "consumer", consumerID)
	if api.mon.RequestTimer != nil {
		hist := api.mon.RequestTimer.WithLabelValues(label)
		timer := prometheus.NewTimer(hist)
		defer timer.ObserveDuration()
	}
	url := strings.TrimSuffix(api.sc.Endpoint, "/") + "/allocations/" + consumerID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Auth-Token", api.sc.Token())
	req.Header.Set("OpenStack-API-Version", "placement "+api.sc.Microversion)
	resp, err := api.sc.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	var body struct {
		Allocations map[string]struct {
			Resources map[string]int `json:"resources"`
		} `json:"allocations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	result := make(map[string]map[string]int, len(body.Allocations))
	for providerUUID, allocation := range body.Allocations {
		result[providerUUID] = allocation.Resources
	}
	if api.mon.RequestProcessedCounter != nil {
		api.mon.RequestProcessedCounter.WithLabelValues(label).Inc()
	}
	return result, nil
}
