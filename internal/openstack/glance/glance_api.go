// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package glance

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/image/v2/images"
	"github.com/gophercloud/gophercloud/v2/pagination"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cobaltcore-dev/openstack-helper/internal/keystone"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack"
)

// OpenStack image model as returned by the Glance API.
type Image struct {
	ID         string
	Name       string
	Status     string
	Visibility string
	Tags       []string
	CreatedAt  time.Time
	SizeBytes  int64
}

// Server-side filters for the image listing.
type ListImagesOpts struct {
	Name string
	ID   string
}

type GlanceAPI interface {
	// Init the glance API.
	Init(ctx context.Context) error
	// Get all images matching the given filters.
	GetAllImages(ctx context.Context, opts ListImagesOpts) ([]Image, error)
}

// API for OpenStack Glance.
type glanceAPI struct {
	// Monitor to track the api.
	mon openstack.Monitor
	// Keystone api to authenticate against.
	keystoneAPI keystone.KeystoneAPI
	// Authenticated OpenStack service client to fetch the data.
	sc *gophercloud.ServiceClient
}

// Create a new OpenStack glance API.
func NewGlanceAPI(mon openstack.Monitor, k keystone.KeystoneAPI) GlanceAPI {
	return &glanceAPI{mon: mon, keystoneAPI: k}
}

// Init the glance API.
func (api *glanceAPI) Init(ctx context.Context) error {
	if err := api.keystoneAPI.Authenticate(ctx); err != nil {
		return err
	}
	// Automatically fetch the glance endpoint from the keystone service catalog.
	provider := api.keystoneAPI.Client()
	serviceType := "image"
	url, err := api.keystoneAPI.FindEndpoint(api.keystoneAPI.Availability(), serviceType)
	if err != nil {
		return err
	}
	// The glance catalog endpoint carries no version path.
	if !strings.Contains(url, "/v2") {
		url = strings.TrimSuffix(url, "/") + "/v2/"
	}
	slog.Debug("using glance endpoint", "url", url)
	api.sc = &gophercloud.ServiceClient{
		ProviderClient: provider,
		Endpoint:       url,
		Type:           serviceType,
	}
	return nil
}

// Get all images matching the given filters.
func (api *glanceAPI) GetAllImages(ctx context.Context, opts ListImagesOpts) ([]Image, error) {
	label := "images"
	slog.Debug("fetching glance data", "label", label)
	pages, err := func() (pagination.Page, error) {
		if api.mon.RequestTimer != nil {
			hist := api.mon.RequestTimer.WithLabelValues(label)
			timer := prometheus.NewTimer(hist)
			defer timer.ObserveDuration()
		}
		lo := images.ListOpts{
			Name: opts.Name,
			ID:   opts.ID,
		}
		return images.List(api.sc, lo).AllPages(ctx)
	}()
	if err != nil {
		return nil, err
	}
	extracted, err := images.ExtractImages(pages)
	if err != nil {
		return nil, err
	}
	result := make([]Image, len(extracted))
	for i, image := range extracted {
		result[i] = Image{
			ID:         image.ID,
			Name:       image.Name,
			Status:     string(image.Status),
			Visibility: string(image.Visibility),
			Tags:       image.Tags,
			CreatedAt:  image.CreatedAt,
			SizeBytes:  image.SizeBytes,
		}
	}
	if api.mon.RequestProcessedCounter != nil {
		api.mon.RequestProcessedCounter.WithLabelValues(label).Inc()
	}
	slog.Debug("fetched glance data", "label", label, "count", len(result))
	return result, nil
}
