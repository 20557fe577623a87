// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

// Package unusedports reports neutron ports that are not attached to any
// device and thus likely leaked.
package unusedports

import (
	"context"
	"io"
	"log/slog"
	"net/netip"
	"os/exec"
	"strconv"
	"time"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/neutron"
	"github.com/cobaltcore-dev/openstack-helper/internal/render"
)

// Options for the unused ports report.
type Options struct {
	// Restrict the port listing to one network.
	NetworkID string
	// Restrict the port listing to one device owner, e.g. compute:nova.
	DeviceOwner string
	// Restrict the port listing to one project.
	ProjectID string
	// Ping the fixed ips of each candidate and drop reachable ports.
	Ping bool
	// Timeout for a single ping probe.
	PingTimeout time.Duration
}

// Column order of the rendered table.
func Columns() []string {
	return []string{"Port ID", "Network ID", "Status"}
}

// Retain only ports with no device attached.
func FilterUnusedPorts(ports []neutron.Port) []neutron.Port {
	result := []neutron.Port{}
	for _, port := range ports {
		if port.DeviceID == "" {
			result = append(result, port)
		}
	}
	return result
}

// Report whether the port looks unbound from the neutron binding attributes.
// A port counts as unbound when no host carries it, its vif type is unbound
// or unset, and it carries no vif details.
func IsUnbound(port neutron.Port) bool {
	if port.BindingHostID != "" {
		slog.Debug("port has a binding host", "port", port.ID, "host", port.BindingHostID)
		return false
	}
	if port.BindingVifType != "" && port.BindingVifType != "unbound" {
		slog.Debug("port has a vif type", "port", port.ID, "vifType", port.BindingVifType)
		return false
	}
	if len(port.BindingVifDetails) != 0 {
		slog.Debug("port has vif details", "port", port.ID)
		return false
	}
	return true
}

// Probe one address with a single ping. Overridable in tests.
var pingAddress = func(ctx context.Context, address string, timeout time.Duration) error {
	seconds := int(timeout.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	cmd := exec.CommandContext(ctx, "ping", "-c", "1", "-W", strconv.Itoa(seconds), address)
	return cmd.Run()
}

// Report whether any fixed ip of the port answers a ping. Addresses that do
// not parse are skipped.
func isReachable(ctx context.Context, port neutron.Port, timeout time.Duration) bool {
	for _, fixedIP := range port.FixedIPs {
		if _, err := netip.ParseAddr(fixedIP.IPAddress); err != nil {
			slog.Debug("skipping unparsable fixed ip", "port", port.ID, "ip", fixedIP.IPAddress)
			continue
		}
		if err := pingAddress(ctx, fixedIP.IPAddress, timeout); err == nil {
			slog.Debug("port answered ping", "port", port.ID, "ip", fixedIP.IPAddress)
			return true
		}
	}
	return false
}

// Convert the surviving ports to renderable rows.
func Rows(ports []neutron.Port) []render.Row {
	rows := make([]render.Row, len(ports))
	for i, port := range ports {
		rows[i] = render.Row{
			"Port ID":    port.ID,
			"Network ID": port.NetworkID,
			"Status":     port.Status,
		}
	}
	return rows
}

// Run the unused ports report and render it to w.
func Run(ctx context.Context, api neutron.NeutronAPI, opts Options, w io.Writer) error {
	if err := api.Init(ctx); err != nil {
		return err
	}
	ports, err := api.GetAllPorts(ctx, neutron.ListPortsOpts{
		NetworkID:   opts.NetworkID,
		DeviceOwner: opts.DeviceOwner,
		ProjectID:   opts.ProjectID,
		Status:      "DOWN",
	})
	if err != nil {
		return err
	}
	candidates := []neutron.Port{}
	for _, port := range FilterUnusedPorts(ports) {
		if !IsUnbound(port) {
			continue
		}
		candidates = append(candidates, port)
	}
	if opts.Ping {
		unreachable := []neutron.Port{}
		for _, port := range candidates {
			if isReachable(ctx, port, opts.PingTimeout) {
				continue
			}
			unreachable = append(unreachable, port)
		}
		candidates = unreachable
	}
	return render.Table(w, Columns(), Rows(candidates))
}
