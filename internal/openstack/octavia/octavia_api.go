// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package octavia

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cobaltcore-dev/openstack-helper/internal/keystone"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack"
)

// Loadbalancer flavor model from the Octavia API.
type Flavor struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Enabled         bool   `json:"enabled"`
	FlavorProfileID string `json:"flavor_profile_id"`
}

// Loadbalancer flavor profile model from the Octavia API.
// FlavorData is a json document whose schema depends on the provider.
type FlavorProfile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProviderName string `json:"provider_name"`
	FlavorData   string `json:"flavor_data"`
}

type OctaviaAPI interface {
	// Init the octavia API.
	Init(ctx context.Context) error
	// Get all loadbalancer flavors.
	GetAllFlavors(ctx context.Context) ([]Flavor, error)
	// Get a single flavor profile by id.
	GetFlavorProfile(ctx context.Context, id string) (*FlavorProfile, error)
}

// API for OpenStack Octavia.
type octaviaAPI struct {
	// Monitor to track the api.
	mon openstack.Monitor
	// Keystone api to authenticate against.
	keystoneAPI keystone.KeystoneAPI
	// Authenticated OpenStack service client to fetch the data.
	sc *gophercloud.ServiceClient
}

// Create a new OpenStack octavia API.
func NewOctaviaAPI(mon openstack.Monitor, k keystone.KeystoneAPI) OctaviaAPI {
	return &octaviaAPI{mon: mon, keystoneAPI: k}
}

// Init the octavia API.
func (api *octaviaAPI) Init(ctx context.Context) error {
	if err := api.keystoneAPI.Authenticate(ctx); err != nil {
		return err
	}
	// Automatically fetch the octavia endpoint from the keystone service catalog.
	provider := api.keystoneAPI.Client()
	serviceType := "load-balancer"
	url, err := api.keystoneAPI.FindEndpoint(api.keystoneAPI.Availability(), serviceType)
	if err != nil {
		return err
	}
	slog.Debug("using octavia endpoint", "url", url)
	api.sc = &gophercloud.ServiceClient{
		ProviderClient: provider,
		Endpoint:       url,
		Type:           serviceType,
	}
	return nil
}

// Fetch a lbaas resource directly from the endpoint and decode it into out.
// Note: the gophercloud octavia bindings expose a different flavor model
// than what the report needs, so the routes are queried directly.
func (api *octaviaAPI) get(ctx context.Context, path string, out any) error {
	url := strings.TrimSuffix(api.sc.Endpoint, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("X-Auth-Token", api.sc.Token())
	resp, err := api.sc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Get all loadbalancer flavors.
func (api *octaviaAPI) GetAllFlavors(ctx context.Context) ([]Flavor, error) {
	label := "flavors"
	slog.Debug("fetching octavia data", "label", label)
	if api.mon.RequestTimer != nil {
		hist := api.mon.RequestTimer.WithLabelValues(label)
		timer := prometheus.NewTimer(hist)
		defer timer.ObserveDuration()
	}
	var body struct {
		Flavors []Flavor `json:"flavors"`
	}
	if err := api.get(ctx, "/v2.0/lbaas/flavors", &body); err != nil {
		return nil, err
	}
	if api.mon.RequestProcessedCounter != nil {
		api.mon.RequestProcessedCounter.WithLabelValues(label).Inc()
	}
	slog.Debug("fetched octavia data", "label", label, "count", len(body.Flavors))
	return body.Flavors, nil
}

// Get a single flavor profile by id.
func (api *octaviaAPI) GetFlavorProfile(ctx context.Context, id string) (*FlavorProfile, error) {
	label := "flavor_profile"
	slog.Debug("fetching octavia data", "label", label, "id", id)
	if api.mon.RequestTimer != nil {
		hist := api.mon.RequestTimer.WithLabelValues(label)
		timer := prometheus.NewTimer(hist)
		defer timer.ObserveDuration()
	}
	var body struct {
		FlavorProfile FlavorProfile `json:"flavorprofile"`
	}
	if err := api.get(ctx, "/v2.0/lbaas/flavorprofiles/"+id, &body); err != nil {
		return nil, err
	}
	if api.mon.RequestProcessedCounter != nil {
		api.mon.RequestProcessedCounter.WithLabelValues(label).Inc()
	}
	return &body.FlavorProfile, nil
}
