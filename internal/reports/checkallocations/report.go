// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

// Package checkallocations compares the resource allocation nova reports
// for an instance against what placement has on record.
package checkallocations

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/nova"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/placement"
	"github.com/cobaltcore-dev/openstack-helper/internal/render"
)

// One side's allocations, keyed by resource provider and resource class.
type AllocationView map[string]map[string]int

// One disagreement between the nova and placement views.
type Discrepancy struct {
	Provider        string
	Class           string
	NovaAmount      int
	PlacementAmount int
	// Set to "nova" or "placement" when the provider exists on one side only.
	MissingIn string
}

func (d Discrepancy) String() string {
	if d.MissingIn != "" {
		return fmt.Sprintf("%s: missing in %s", d.Provider, d.MissingIn)
	}
	return fmt.Sprintf(
		"%s: %s nova=%d placement=%d",
		d.Provider, d.Class, d.NovaAmount, d.PlacementAmount,
	)
}

// Build nova's view of an instance's allocations from its embedded flavor,
// keyed by the hypervisor hosting it. A nil server or one not yet placed on
// a hypervisor yields an empty view.
func NovaView(server *nova.Server) AllocationView {
	view := AllocationView{}
	if server == nil || server.OSEXTSRVATTRHypervisorHostname == "" {
		return view
	}
	view[server.OSEXTSRVATTRHypervisorHostname] = map[string]int{
		"VCPU":      server.Flavor.VCPUs,
		"MEMORY_MB": server.Flavor.RAM,
		"DISK_GB":   server.Flavor.Disk + server.Flavor.Ephemeral,
	}
	return view
}

// Diff the two allocation views. Providers on one side only are reported as
// missing on the other; for shared providers each resource class is compared
// with an absent class counting as amount 0. The result order is
// deterministic: providers, then classes, sorted.
func Diff(novaView, placementView AllocationView) []Discrepancy {
	discrepancies := []Discrepancy{}
	providers := map[string]struct{}{}
	for provider := range novaView {
		providers[provider] = struct{}{}
	}
	for provider := range placementView {
		providers[provider] = struct{}{}
	}
	for _, provider := range slices.Sorted(maps.Keys(providers)) {
		novaResources, inNova := novaView[provider]
		placementResources, inPlacement := placementView[provider]
		if !inNova {
			discrepancies = append(discrepancies, Discrepancy{
				Provider: provider, MissingIn: "nova",
			})
			continue
		}
		if !inPlacement {
			discrepancies = append(discrepancies, Discrepancy{
				Provider: provider, MissingIn: "placement",
			})
			continue
		}
		classes := map[string]struct{}{}
		for class := range novaResources {
			classes[class] = struct{}{}
		}
		for class := range placementResources {
			classes[class] = struct{}{}
		}
		for _, class := range slices.Sorted(maps.Keys(classes)) {
			novaAmount := novaResources[class]
			placementAmount := placementResources[class]
			if novaAmount != placementAmount {
				discrepancies = append(discrepancies, Discrepancy{
					Provider:        provider,
					Class:           class,
					NovaAmount:      novaAmount,
					PlacementAmount: placementAmount,
				})
			}
		}
	}
	return discrepancies
}

// Column order of the rendered table.
func Columns() []string {
	return []string{"Instance ID", "VM Name", "Status", "Details"}
}

// Build the row for one instance from its diff result.
func InstanceRow(instanceID, name string, discrepancies []Discrepancy) render.Row {
	status := "OK"
	details := make([]string, len(discrepancies))
	for i, d := range discrepancies {
		details[i] = d.String()
	}
	if len(discrepancies) > 0 {
		status = "MISMATCH"
	}
	return render.Row{
		"Instance ID": instanceID,
		"VM Name":     name,
		"Status":      status,
		"Details":     strings.Join(details, "; "),
	}
}

// Run the allocation check for the given instance uuids, or for all active
// instances when none are given, and render the result to w.
func Run(
	ctx context.Context,
	novaAPI nova.NovaAPI,
	placementAPI placement.PlacementAPI,
	uuids []string,
	w io.Writer,
) error {
	if err := novaAPI.Init(ctx); err != nil {
		return err
	}
	if err := placementAPI.Init(ctx); err != nil {
		return err
	}

	// One provider listing resolves the uuids placement reports to names.
	// Unknown uuids stay raw.
	providers, err := placementAPI.GetAllResourceProviders(ctx, placement.ListResourceProvidersOpts{})
	if err != nil {
		return err
	}
	providerNames := make(map[string]string, len(providers))
	for _, provider := range providers {
		providerNames[provider.UUID] = provider.Name
	}

	type instance struct {
		id     string
		server *nova.Server
	}
	instances := []instance{}
	if len(uuids) > 0 {
		for _, id := range uuids {
			server, err := novaAPI.GetServer(ctx, id)
			if err != nil {
				return err
			}
			instances = append(instances, instance{id: id, server: server})
		}
	} else {
		servers, err := novaAPI.GetAllServers(ctx, nova.ListServersOpts{
			AllTenants: true,
			Status:     "ACTIVE",
		})
		if err != nil {
			return err
		}
		for i := range servers {
			instances = append(instances, instance{id: servers[i].ID, server: &servers[i]})
		}
	}

	rows := []render.Row{}
	for _, inst := range instances {
		allocations, err := placementAPI.GetAllocations(ctx, inst.id)
		if err != nil {
			return err
		}
		placementView := AllocationView{}
		for providerUUID, resources := range allocations {
			name := providerNames[providerUUID]
			if name == "" {
				name = providerUUID
			}
			placementView[name] = resources
		}
		name := ""
		if inst.server != nil {
			name = inst.server.Name
		}
		rows = append(rows, InstanceRow(inst.id, name, Diff(NovaView(inst.server), placementView)))
	}
	return render.Table(w, Columns(), rows)
}
