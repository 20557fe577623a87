// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package placement

// Resource provider model from the OpenStack placement API.
// This model is returned when listing resource providers.
type ResourceProvider struct {
	UUID                       string `json:"uuid"`
	Name                       string `json:"name"`
	ParentProviderUUID         string `json:"parent_provider_uuid"`
	RootProviderUUID           string `json:"root_provider_uuid"`
	ResourceProviderGeneration int    `json:"resource_provider_generation"`
}

// Inventory of one resource class on one provider, joined with its usage.
type InventoryUsage struct {
	ResourceProviderUUID string
	ResourceProviderName string

	// Something like: DISK_GB, VCPU, MEMORY_MB.
	InventoryClassName string
	// Overcommit factor for the inventory class.
	AllocationRatio float32
	// A maximum amount any single allocation against an inventory can have.
	MaxUnit int
	// A minimum amount any single allocation against an inventory can have.
	MinUnit int
	// The amount of the resource a provider has reserved for its own use.
	Reserved int
	// The divisible amount of the resource that may be requested.
	StepSize int
	// The actual amount of the resource that the provider can accommodate.
	Total int
	// The amount of the resource currently allocated.
	Used int
}
