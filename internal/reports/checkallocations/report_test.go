// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package checkallocations

import (
	"context"
	"strings"
	"testing"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/nova"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/placement"
)

func TestNovaView(t *testing.T) {
	server := &nova.Server{
		ID:                             "s1",
		OSEXTSRVATTRHypervisorHostname: "node001",
		Flavor: nova.ServerFlavor{
			VCPUs: 4, RAM: 8192, Disk: 40, Ephemeral: 10,
		},
	}
	view := NovaView(server)
	resources, ok := view["node001"]
	if !ok {
		t.Fatalf("expected a node001 view, got %v", view)
	}
	if resources["VCPU"] != 4 || resources["MEMORY_MB"] != 8192 {
		t.Errorf("unexpected resources: %v", resources)
	}
	// Ephemeral disk counts into DISK_GB.
	if resources["DISK_GB"] != 50 {
		t.Errorf("expected DISK_GB 50, got %d", resources["DISK_GB"])
	}
}

func TestNovaView_Empty(t *testing.T) {
	if view := NovaView(nil); len(view) != 0 {
		t.Errorf("expected empty view for missing server, got %v", view)
	}
	unplaced := &nova.Server{ID: "s1"}
	if view := NovaView(unplaced); len(view) != 0 {
		t.Errorf("expected empty view for unplaced server, got %v", view)
	}
}

func TestDiff_Match(t *testing.T) {
	novaView := AllocationView{"rp1": {"VCPU": 4}}
	placementView := AllocationView{"rp1": {"VCPU": 4}}
	if d := Diff(novaView, placementView); len(d) != 0 {
		t.Errorf("expected no discrepancies, got %v", d)
	}
}

func TestDiff_AmountMismatch(t *testing.T) {
	novaView := AllocationView{"rp1": {"VCPU": 4}}
	placementView := AllocationView{"rp1": {"VCPU": 2}}
	d := Diff(novaView, placementView)
	if len(d) != 1 {
		t.Fatalf("expected 1 discrepancy, got %v", d)
	}
	if d[0].Class != "VCPU" || d[0].NovaAmount != 4 || d[0].PlacementAmount != 2 {
		t.Errorf("unexpected discrepancy: %+v", d[0])
	}
	if got := d[0].String(); got != "rp1: VCPU nova=4 placement=2" {
		t.Errorf("unexpected string: %q", got)
	}
}

func TestDiff_MissingProvider(t *testing.T) {
	novaView := AllocationView{"rp1": {"VCPU": 4}}
	placementView := AllocationView{"rp2": {"VCPU": 4}}
	d := Diff(novaView, placementView)
	if len(d) != 2 {
		t.Fatalf("expected 2 discrepancies, got %v", d)
	}
	// Deterministic provider order.
	if d[0].Provider != "rp1" || d[0].MissingIn != "placement" {
		t.Errorf("unexpected first discrepancy: %+v", d[0])
	}
	if d[1].Provider != "rp2" || d[1].MissingIn != "nova" {
		t.Errorf("unexpected second discrepancy: %+v", d[1])
	}
}

func TestDiff_AbsentClassIsZero(t *testing.T) {
	novaView := AllocationView{"rp1": {"VCPU": 4, "MEMORY_MB": 8192}}
	placementView := AllocationView{"rp1": {"VCPU": 4}}
	d := Diff(novaView, placementView)
	if len(d) != 1 {
		t.Fatalf("expected 1 discrepancy, got %v", d)
	}
	if d[0].Class != "MEMORY_MB" || d[0].PlacementAmount != 0 {
		t.Errorf("unexpected discrepancy: %+v", d[0])
	}
}

func TestDiff_BothEmpty(t *testing.T) {
	if d := Diff(AllocationView{}, AllocationView{}); len(d) != 0 {
		t.Errorf("expected no discrepancies, got %v", d)
	}
}

func TestInstanceRow(t *testing.T) {
	row := InstanceRow("s1", "web", nil)
	if row["Status"] != "OK" || row["Details"] != "" {
		t.Errorf("unexpected row: %v", row)
	}
	row = InstanceRow("s1", "web", []Discrepancy{
		{Provider: "rp1", Class: "VCPU", NovaAmount: 4, PlacementAmount: 2},
		{Provider: "rp2", MissingIn: "nova"},
	})
	if row["Status"] != "MISMATCH" {
		t.Errorf("expected MISMATCH, got %q", row["Status"])
	}
	if row["Details"] != "rp1: VCPU nova=4 placement=2; rp2: missing in nova" {
		t.Errorf("unexpected details: %q", row["Details"])
	}
}

type fakeNovaAPI struct {
	servers map[string]*nova.Server
	active  []nova.Server
}

func (f *fakeNovaAPI) Init(ctx context.Context) error { return nil }

func (f *fakeNovaAPI) GetAllServers(ctx context.Context, opts nova.ListServersOpts) ([]nova.Server, error) {
	return f.active, nil
}

func (f *fakeNovaAPI) GetServer(ctx context.Context, id string) (*nova.Server, error) {
	return f.servers[id], nil
}

func (f *fakeNovaAPI) GetFlavor(ctx context.Context, id string) (*nova.Flavor, error) {
	return nil, nil
}

type fakePlacementAPI struct {
	providers   []placement.ResourceProvider
	allocations map[string]map[string]map[string]int
}

func (f *fakePlacementAPI) Init(ctx context.Context) error { return nil }

func (f *fakePlacementAPI) GetAllResourceProviders(ctx context.Context, opts placement.ListResourceProvidersOpts) ([]placement.ResourceProvider, error) {
	return f.providers, nil
}

func (f *fakePlacementAPI) GetInventoryUsages(ctx context.Context, provider placement.ResourceProvider) ([]placement.InventoryUsage, error) {
	return nil, nil
}

func (f *fakePlacementAPI) GetAllocations(ctx context.Context, consumerID string) (map[string]map[string]int, error) {
	return f.allocations[consumerID], nil
}

func TestRun(t *testing.T) {
	novaAPI := &fakeNovaAPI{servers: map[string]*nova.Server{
		"s1": {
			ID: "s1", Name: "web",
			OSEXTSRVATTRHypervisorHostname: "node001",
			Flavor:                         nova.ServerFlavor{VCPUs: 4, RAM: 8192, Disk: 40},
		},
		"s2": {
			ID: "s2", Name: "db",
			OSEXTSRVATTRHypervisorHostname: "node001",
			Flavor:                         nova.ServerFlavor{VCPUs: 2, RAM: 4096, Disk: 20},
		},
	}}
	placementAPI := &fakePlacementAPI{
		providers: []placement.ResourceProvider{{UUID: "rp1", Name: "node001"}},
		allocations: map[string]map[string]map[string]int{
			"s1": {"rp1": {"VCPU": 4, "MEMORY_MB": 8192, "DISK_GB": 40}},
			"s2": {"rp1": {"VCPU": 4, "MEMORY_MB": 4096, "DISK_GB": 20}},
		},
	}
	var out strings.Builder
	if err := Run(t.Context(), novaAPI, placementAPI, []string{"s1", "s2"}, &out); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got:\n%s", out.String())
	}
	if !strings.Contains(lines[2], "OK") {
		t.Errorf("expected s1 to pass:\n%s", lines[2])
	}
	if !strings.Contains(lines[3], "MISMATCH") || !strings.Contains(lines[3], "VCPU nova=2 placement=4") {
		t.Errorf("expected s2 to fail on VCPU:\n%s", lines[3])
	}
}

func TestRun_Idempotent(t *testing.T) {
	// Mismatches spanning several providers and classes, so any unordered
	// map iteration between runs would reorder the details cell.
	novaAPI := &fakeNovaAPI{servers: map[string]*nova.Server{
		"s1": {
			ID: "s1", Name: "web",
			OSEXTSRVATTRHypervisorHostname: "node001",
			Flavor:                         nova.ServerFlavor{VCPUs: 4, RAM: 8192, Disk: 40},
		},
	}}
	placementAPI := &fakePlacementAPI{
		providers: []placement.ResourceProvider{
			{UUID: "rp1", Name: "node001"},
			{UUID: "rp2", Name: "node002"},
		},
		allocations: map[string]map[string]map[string]int{
			"s1": {
				"rp1": {"VCPU": 2, "MEMORY_MB": 4096, "DISK_GB": 20},
				"rp2": {"DISK_GB": 20},
			},
		},
	}
	var first, second strings.Builder
	if err := Run(t.Context(), novaAPI, placementAPI, []string{"s1"}, &first); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := Run(t.Context(), novaAPI, placementAPI, []string{"s1"}, &second); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first.String() != second.String() {
		t.Errorf("expected identical output across runs:\n%s\nvs:\n%s", first.String(), second.String())
	}
}
