// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

// Package lbflavors reports octavia loadbalancer flavors joined with their
// flavor profiles and the nova flavors backing the amphorae.
package lbflavors

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/nova"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/octavia"
	"github.com/cobaltcore-dev/openstack-helper/internal/render"
)

// Column order of the rendered table.
func Columns() []string {
	return []string{
		"Flavor ID", "Name", "Enabled", "Profile Name", "Provider",
		"Compute Flavor", "VCPUs", "RAM (MB)", "Disk (GB)",
	}
}

// Extract the compute flavor id from a profile's flavor_data json document.
// Returns the empty string when the document does not parse or carries no
// compute flavor.
func ComputeFlavorID(flavorData string) string {
	var data struct {
		ComputeFlavor string `json:"compute_flavor"`
	}
	if err := json.Unmarshal([]byte(flavorData), &data); err != nil {
		slog.Warn("unparsable flavor data", "error", err)
		return ""
	}
	return data.ComputeFlavor
}

// Run the loadbalancer flavors report and render it to w. A profile with
// malformed flavor data or a missing compute flavor degrades to empty cells
// instead of failing the report.
func Run(ctx context.Context, octaviaAPI octavia.OctaviaAPI, novaAPI nova.NovaAPI, w io.Writer) error {
	if err := octaviaAPI.Init(ctx); err != nil {
		return err
	}
	if err := novaAPI.Init(ctx); err != nil {
		return err
	}
	flavors, err := octaviaAPI.GetAllFlavors(ctx)
	if err != nil {
		return err
	}
	rows := make([]render.Row, len(flavors))
	for i, flavor := range flavors {
		row := render.Row{
			"Flavor ID": flavor.ID,
			"Name":      flavor.Name,
			"Enabled":   strconv.FormatBool(flavor.Enabled),
		}
		profile, err := octaviaAPI.GetFlavorProfile(ctx, flavor.FlavorProfileID)
		if err != nil {
			return err
		}
		row["Profile Name"] = profile.Name
		row["Provider"] = profile.ProviderName
		if computeFlavorID := ComputeFlavorID(profile.FlavorData); computeFlavorID != "" {
			computeFlavor, err := novaAPI.GetFlavor(ctx, computeFlavorID)
			if err != nil {
				slog.Warn("compute flavor lookup failed",
					"flavor", flavor.ID, "computeFlavor", computeFlavorID, "error", err)
			} else if computeFlavor != nil {
				row["Compute Flavor"] = computeFlavor.Name
				row["VCPUs"] = strconv.Itoa(computeFlavor.VCPUs)
				row["RAM (MB)"] = strconv.Itoa(computeFlavor.RAM)
				row["Disk (GB)"] = strconv.Itoa(computeFlavor.Disk)
			}
		}
		rows[i] = row
	}
	return render.Table(w, Columns(), rows)
}
