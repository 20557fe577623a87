// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

// Package resourceprovider reports placement inventory and usage per
// resource provider, with derived allocation ratios.
package resourceprovider

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/placement"
	"github.com/cobaltcore-dev/openstack-helper/internal/render"
)

// Options for the resource provider report.
type Options struct {
	// Server-side provider name filter.
	Name string
	// Server-side provider uuid filter.
	UUID string
	// Aggregate uuids; a provider matches when member of any of them.
	MemberOf []string
	// Resource classes to report, e.g. VCPU.
	ResourceClasses []string
	// Column display names to sort by, in order.
	SortBy []string
}

// Resource classes reported when none are requested.
var DefaultResourceClasses = []string{"VCPU", "MEMORY_MB", "DISK_GB"}

// One row of the report, one resource class on one provider.
type Row struct {
	ProviderName  string
	ResourceClass string
	Total         int
	Reserved      int
	Used          int
	// Allocation ratio configured on the inventory.
	ConfAllocRatio float64
	// Capacity left under the configured ratio.
	Available float64
	// Observed ratio used / (total - reserved). Nil when the denominator
	// is zero.
	CurrentAllocRatio *float64
}

// Column order of the rendered table.
func Columns() []string {
	return []string{
		"Provider Name", "Resource Class", "Total", "Reserved", "Used",
		"Conf Alloc Ratio", "Available", "Current Alloc Ratio",
	}
}

// Build report rows from the fetched inventory usages, restricted to the
// requested resource classes. Absence of a class on a provider is a valid
// state and simply produces no row.
func BuildRows(usages []placement.InventoryUsage, classes []string) []Row {
	rows := []Row{}
	for _, usage := range usages {
		if !slices.Contains(classes, usage.InventoryClassName) {
			continue
		}
		capacity := usage.Total - usage.Reserved
		ratio := float64(usage.AllocationRatio)
		row := Row{
			ProviderName:   usage.ResourceProviderName,
			ResourceClass:  usage.InventoryClassName,
			Total:          usage.Total,
			Reserved:       usage.Reserved,
			Used:           usage.Used,
			ConfAllocRatio: ratio,
			Available:      float64(capacity)*ratio - float64(usage.Used),
		}
		if capacity != 0 {
			current := float64(usage.Used) / float64(capacity)
			row.CurrentAllocRatio = &current
		}
		rows = append(rows, row)
	}
	return rows
}

// Per-column comparators keyed by display name.
var comparators = map[string]func(a, b Row) int{
	"Provider Name":    func(a, b Row) int { return cmp.Compare(a.ProviderName, b.ProviderName) },
	"Resource Class":   func(a, b Row) int { return cmp.Compare(a.ResourceClass, b.ResourceClass) },
	"Total":            func(a, b Row) int { return cmp.Compare(a.Total, b.Total) },
	"Reserved":         func(a, b Row) int { return cmp.Compare(a.Reserved, b.Reserved) },
	"Used":             func(a, b Row) int { return cmp.Compare(a.Used, b.Used) },
	"Conf Alloc Ratio": func(a, b Row) int { return cmp.Compare(a.ConfAllocRatio, b.ConfAllocRatio) },
	"Available":        func(a, b Row) int { return cmp.Compare(a.Available, b.Available) },
	"Current Alloc Ratio": func(a, b Row) int {
		// Rows without a ratio sort before any with one.
		switch {
		case a.CurrentAllocRatio == nil && b.CurrentAllocRatio == nil:
			return 0
		case a.CurrentAllocRatio == nil:
			return -1
		case b.CurrentAllocRatio == nil:
			return 1
		default:
			return cmp.Compare(*a.CurrentAllocRatio, *b.CurrentAllocRatio)
		}
	},
}

// Check that every requested sort column exists in the report.
func ValidateSortColumns(sortBy []string) error {
	for _, column := range sortBy {
		if _, ok := comparators[column]; !ok {
			return fmt.Errorf(
				"unknown sort column %q, valid columns: %s",
				column, strings.Join(Columns(), ", "),
			)
		}
	}
	return nil
}

// Check that every requested resource class is well-formed, and return the
// classes uppercased. Placement class names are upper snake case.
func ValidateResourceClasses(classes []string) ([]string, error) {
	result := make([]string, len(classes))
	for i, class := range classes {
		upper := strings.ToUpper(strings.TrimSpace(class))
		for _, r := range upper {
			if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
				return nil, fmt.Errorf("invalid resource class %q", class)
			}
		}
		if upper == "" {
			return nil, fmt.Errorf("invalid resource class %q", class)
		}
		result[i] = upper
	}
	return result, nil
}

// Sort the rows by the given column display names, in order, stable. Ties in
// all requested columns preserve the prior relative order.
func SortRows(rows []Row, sortBy []string) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, column := range sortBy {
			if c := comparators[column](rows[i], rows[j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// Convert the rows to renderable cells.
func RenderRows(rows []Row) []render.Row {
	rendered := make([]render.Row, len(rows))
	for i, row := range rows {
		current := "N/A"
		if row.CurrentAllocRatio != nil {
			current = fmt.Sprintf("%.2f", *row.CurrentAllocRatio)
		}
		rendered[i] = render.Row{
			"Provider Name":       row.ProviderName,
			"Resource Class":      row.ResourceClass,
			"Total":               strconv.Itoa(row.Total),
			"Reserved":            strconv.Itoa(row.Reserved),
			"Used":                strconv.Itoa(row.Used),
			"Conf Alloc Ratio":    fmt.Sprintf("%.2f", row.ConfAllocRatio),
			"Available":           fmt.Sprintf("%.2f", row.Available),
			"Current Alloc Ratio": current,
		}
	}
	return rendered
}

// Run the resource provider report and render it to w. Validation happens
// before any network call.
func Run(ctx context.Context, api placement.PlacementAPI, opts Options, w io.Writer) error {
	if err := ValidateSortColumns(opts.SortBy); err != nil {
		return err
	}
	classes := opts.ResourceClasses
	if len(classes) == 0 {
		classes = DefaultResourceClasses
	}
	classes, err := ValidateResourceClasses(classes)
	if err != nil {
		return err
	}
	if err := api.Init(ctx); err != nil {
		return err
	}
	providers, err := api.GetAllResourceProviders(ctx, placement.ListResourceProvidersOpts{
		Name:     opts.Name,
		UUID:     opts.UUID,
		MemberOf: opts.MemberOf,
	})
	if err != nil {
		return err
	}
	rows := []Row{}
	for _, provider := range providers {
		usages, err := api.GetInventoryUsages(ctx, provider)
		if err != nil {
			return err
		}
		rows = append(rows, BuildRows(usages, classes)...)
	}
	sortBy := opts.SortBy
	if len(sortBy) == 0 {
		sortBy = []string{"Provider Name"}
	}
	SortRows(rows, sortBy)
	return render.Table(w, Columns(), RenderRows(rows))
}
