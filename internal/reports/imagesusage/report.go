// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

// Package imagesusage reports which glance images are used by how many
// servers, with client-side filters on tags, age and usage.
package imagesusage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/cinder"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/glance"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/nova"
	"github.com/cobaltcore-dev/openstack-helper/internal/render"
)

// Options for the images usage report.
type Options struct {
	// Server-side image name filter.
	Name string
	// Server-side image id filter.
	ImageID string
	// Keep only images carrying all of these tags.
	Tags []string
	// Keep only images at least this old.
	MinAgeDays int
	// Restrict the server listing to one project instead of all projects.
	ProjectID string
	// Add a column listing the referencing servers.
	ShowVMDetails bool
	// Keep only images no server references.
	ShowNoVMs bool
}

// A server reference to an image, reduced to what the join needs.
type ServerRef struct {
	ID      string
	Name    string
	ImageID string
}

// Usage of one image, joined with the servers referencing it.
type Usage struct {
	Image   glance.Image
	AgeDays int
	Servers []ServerRef
}

// Join images with the servers referencing them. The image order of the
// input is preserved. Servers referencing unknown images are ignored.
func JoinImageServers(images []glance.Image, servers []ServerRef, now time.Time) []Usage {
	byImage := map[string][]ServerRef{}
	for _, server := range servers {
		if server.ImageID == "" {
			continue
		}
		byImage[server.ImageID] = append(byImage[server.ImageID], server)
	}
	usages := make([]Usage, len(images))
	for i, image := range images {
		usages[i] = Usage{
			Image:   image,
			AgeDays: int(now.Sub(image.CreatedAt).Hours() / 24),
			Servers: byImage[image.ID],
		}
	}
	return usages
}

// Keep only images whose tag set is a superset of the requested tags.
func FilterByTags(usages []Usage, tags []string) []Usage {
	if len(tags) == 0 {
		return usages
	}
	result := []Usage{}
	for _, usage := range usages {
		matches := true
		for _, tag := range tags {
			if !slices.Contains(usage.Image.Tags, tag) {
				matches = false
				break
			}
		}
		if matches {
			result = append(result, usage)
		}
	}
	return result
}

// Keep only images at least minAgeDays old.
func FilterByMinAge(usages []Usage, minAgeDays int) []Usage {
	if minAgeDays <= 0 {
		return usages
	}
	result := []Usage{}
	for _, usage := range usages {
		if usage.AgeDays >= minAgeDays {
			result = append(result, usage)
		}
	}
	return result
}

// Keep only images no server references.
func FilterNoVMs(usages []Usage) []Usage {
	result := []Usage{}
	for _, usage := range usages {
		if len(usage.Servers) == 0 {
			result = append(result, usage)
		}
	}
	return result
}

// Column order of the rendered table.
func Columns(showVMDetails bool) []string {
	columns := []string{
		"Image ID", "Image Name", "Status", "Visibility",
		"Created At", "Age (Days)", "VM Count",
	}
	if showVMDetails {
		columns = append(columns, "VMs")
	}
	return columns
}

// Convert the usages to renderable rows. With vm details, an image without
// servers gets an empty cell, never an omitted column.
func Rows(usages []Usage, showVMDetails bool) []render.Row {
	rows := make([]render.Row, len(usages))
	for i, usage := range usages {
		row := render.Row{
			"Image ID":   usage.Image.ID,
			"Image Name": usage.Image.Name,
			"Status":     usage.Image.Status,
			"Visibility": usage.Image.Visibility,
			"Created At": usage.Image.CreatedAt.Format(time.RFC3339),
			"Age (Days)": strconv.Itoa(usage.AgeDays),
			"VM Count":   strconv.Itoa(len(usage.Servers)),
		}
		if showVMDetails {
			details := make([]string, len(usage.Servers))
			for j, server := range usage.Servers {
				details[j] = fmt.Sprintf("%s (%s)", server.ID, server.Name)
			}
			row["VMs"] = strings.Join(details, ", ")
		}
		rows[i] = row
	}
	return rows
}

// Resolve the image a server was started from. For servers booted from
// volume the image comes from the boot volume's image metadata; the boot
// volume is the attached volume mounted on the server's root device.
func resolveImageID(ctx context.Context, api cinder.CinderAPI, server nova.Server) (string, error) {
	if server.ImageID != "" {
		return server.ImageID, nil
	}
	for _, volumeID := range server.AttachedVolumeIDs {
		volume, err := api.GetVolume(ctx, volumeID)
		if err != nil {
			return "", err
		}
		if volume == nil {
			slog.Debug("attached volume not found", "server", server.ID, "volume", volumeID)
			continue
		}
		for _, attachment := range volume.Attachments {
			if attachment.ServerID != server.ID {
				continue
			}
			if attachment.Device == server.OSEXTSRVATTRRootDeviceName {
				return volume.ImageID, nil
			}
		}
	}
	return "", nil
}

// Run the images usage report and render it to w.
func Run(
	ctx context.Context,
	glanceAPI glance.GlanceAPI,
	novaAPI nova.NovaAPI,
	cinderAPI cinder.CinderAPI,
	opts Options,
	w io.Writer,
) error {
	if err := glanceAPI.Init(ctx); err != nil {
		return err
	}
	if err := novaAPI.Init(ctx); err != nil {
		return err
	}
	if err := cinderAPI.Init(ctx); err != nil {
		return err
	}
	images, err := glanceAPI.GetAllImages(ctx, glance.ListImagesOpts{
		Name: opts.Name,
		ID:   opts.ImageID,
	})
	if err != nil {
		return err
	}
	servers, err := novaAPI.GetAllServers(ctx, nova.ListServersOpts{
		AllTenants: opts.ProjectID == "",
		ProjectID:  opts.ProjectID,
	})
	if err != nil {
		return err
	}
	refs := make([]ServerRef, 0, len(servers))
	for _, server := range servers {
		imageID, err := resolveImageID(ctx, cinderAPI, server)
		if err != nil {
			return err
		}
		refs = append(refs, ServerRef{ID: server.ID, Name: server.Name, ImageID: imageID})
	}
	usages := JoinImageServers(images, refs, time.Now())
	usages = FilterByTags(usages, opts.Tags)
	usages = FilterByMinAge(usages, opts.MinAgeDays)
	if opts.ShowNoVMs {
		usages = FilterNoVMs(usages)
	}
	return render.Table(w, Columns(opts.ShowVMDetails), Rows(usages, opts.ShowVMDetails))
}
