// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package keystone

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/sapcc/go-bits/gophercloudext"
)

// KeystoneAPI for OpenStack.
type KeystoneAPI interface {
	// Authenticate against the OpenStack keystone.
	Authenticate(context.Context) error
	// Get the OpenStack provider client.
	Client() *gophercloud.ProviderClient
	// Find the endpoint for the given service type and availability.
	FindEndpoint(availability, serviceType string) (string, error)
	// Get the configured availability for keystone.
	Availability() string
	// Get the project id the token is scoped to.
	ProjectID() (string, error)
}

// KeystoneAPI implementation reading credentials from the ambient
// OS_* environment, as provided by an openrc file or clouds.yaml export.
type envKeystoneAPI struct {
	// OpenStack provider client.
	client *gophercloud.ProviderClient
	// Endpoint opts (region etc.) derived from the environment.
	eo gophercloud.EndpointOpts
}

// Create a new OpenStack keystone API using ambient credentials.
func NewKeystoneAPI() KeystoneAPI {
	return &envKeystoneAPI{}
}

// Authenticate against OpenStack keystone.
func (api *envKeystoneAPI) Authenticate(ctx context.Context) error {
	if api.client != nil {
		// Already authenticated.
		return nil
	}
	slog.Debug("authenticating against openstack")
	client, eo, err := gophercloudext.NewProviderClient(ctx, nil)
	if err != nil {
		return fmt.Errorf("keystone authentication failed: %w", err)
	}
	api.client = client
	api.eo = eo
	slog.Debug("authenticated against openstack")
	return nil
}

// Find the endpoint for the given service type and availability.
func (api *envKeystoneAPI) FindEndpoint(availability, serviceType string) (string, error) {
	eo := api.eo
	eo.Type = serviceType
	eo.Availability = gophercloud.Availability(availability)
	return api.client.EndpointLocator(eo)
}

// Get the configured availability for keystone.
func (api *envKeystoneAPI) Availability() string {
	if api.eo.Availability == "" {
		return string(gophercloud.AvailabilityPublic)
	}
	return string(api.eo.Availability)
}

// Get the project id the token is scoped to.
func (api *envKeystoneAPI) ProjectID() (string, error) {
	return gophercloudext.GetProjectIDFromTokenScope(api.client)
}

// Get the OpenStack provider client.
func (api *envKeystoneAPI) Client() *gophercloud.ProviderClient {
	return api.client
}
