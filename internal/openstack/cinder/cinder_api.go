// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package cinder

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/blockstorage/v3/volumes"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cobaltcore-dev/openstack-helper/internal/keystone"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack"
)

// OpenStack volume model, reduced to what the image usage report needs.
type Volume struct {
	ID string
	// Image the volume was created from, if any.
	ImageID     string
	Attachments []VolumeAttachment
}

// One attachment of a volume to a server.
type VolumeAttachment struct {
	ServerID string
	Device   string
}

type CinderAPI interface {
	// Init the cinder API.
	Init(ctx context.Context) error
	// Get a single volume by id. Returns nil when the volume does not exist.
	GetVolume(ctx context.Context, id string) (*Volume, error)
}

// API for OpenStack Cinder.
type cinderAPI struct {
	// Monitor to track the api.
	mon openstack.Monitor
	// Keystone api to authenticate against.
	keystoneAPI keystone.KeystoneAPI
	// Authenticated OpenStack service client to fetch the data.
	sc *gophercloud.ServiceClient
}

// Create a new OpenStack cinder API.
func NewCinderAPI(mon openstack.Monitor, k keystone.KeystoneAPI) CinderAPI {
	return &cinderAPI{mon: mon, keystoneAPI: k}
}

// Init the cinder API.
func (api *cinderAPI) Init(ctx context.Context) error {
	if err := api.keystoneAPI.Authenticate(ctx); err != nil {
		return err
	}
	// Automatically fetch the cinder endpoint from the keystone service catalog.
	provider := api.keystoneAPI.Client()
	serviceType := "volumev3"
	url, err := api.keystoneAPI.FindEndpoint(api.keystoneAPI.Availability(), serviceType)
	if err != nil {
		return err
	}
	slog.Debug("using cinder endpoint", "url", url)
	api.sc = &gophercloud.ServiceClient{
		ProviderClient: provider,
		Endpoint:       url,
		Type:           serviceType,
	}
	return nil
}

// Get a single volume by id. Returns nil when the volume does not exist.
func (api *cinderAPI) GetVolume(ctx context.Context, id string) (*Volume, error) {
	label := "volume"
	slog.Debug("fetching cinder data", "label", label, "id", id)
	if api.mon.RequestTimer != nil {
		hist := api.mon.RequestTimer.WithLabelValues(label)
		timer := prometheus.NewTimer(hist)
		defer timer.ObserveDuration()
	}
	volume, err := volumes.Get(ctx, api.sc, id).Extract()
	if gophercloud.ResponseCodeIs(err, http.StatusNotFound) {
		slog.Debug("no cinder volume with this id", "id", id)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	attachments := make([]VolumeAttachment, len(volume.Attachments))
	for i, attachment := range volume.Attachments {
		attachments[i] = VolumeAttachment{
			ServerID: attachment.ServerID,
			Device:   attachment.Device,
		}
	}
	if api.mon.RequestProcessedCounter != nil {
		api.mon.RequestProcessedCounter.WithLabelValues(label).Inc()
	}
	return &Volume{
		ID:          volume.ID,
		ImageID:     volume.VolumeImageMetadata["image_id"],
		Attachments: attachments,
	}, nil
}
