// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

// Package routersinfo reports neutron routers with their external gateway
// and the ports attached to them.
package routersinfo

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/neutron"
	"github.com/cobaltcore-dev/openstack-helper/internal/render"
)

// Column order of the rendered table.
func Columns() []string {
	return []string{
		"Router ID", "Name", "Status", "Distributed",
		"External Network", "External IPs", "Interface Ports",
	}
}

// Group ports by the device they are attached to.
func GroupPortsByDevice(ports []neutron.Port) map[string][]neutron.Port {
	grouped := map[string][]neutron.Port{}
	for _, port := range ports {
		if port.DeviceID == "" {
			continue
		}
		grouped[port.DeviceID] = append(grouped[port.DeviceID], port)
	}
	return grouped
}

// Index network names by network id.
func NetworkNames(networks []neutron.Network) map[string]string {
	names := make(map[string]string, len(networks))
	for _, network := range networks {
		names[network.ID] = network.Name
	}
	return names
}

// Convert the routers to renderable rows. The external network renders by
// name when known, by id otherwise.
func Rows(
	routers []neutron.Router,
	portsByDevice map[string][]neutron.Port,
	networkNames map[string]string,
) []render.Row {
	rows := make([]render.Row, len(routers))
	for i, router := range routers {
		externalNetwork := router.ExternalNetworkID
		if name := networkNames[router.ExternalNetworkID]; name != "" {
			externalNetwork = name
		}
		ips := make([]string, len(router.ExternalFixedIPs))
		for j, fixedIP := range router.ExternalFixedIPs {
			ips[j] = fixedIP.IPAddress
		}
		rows[i] = render.Row{
			"Router ID":        router.ID,
			"Name":             router.Name,
			"Status":           router.Status,
			"Distributed":      strconv.FormatBool(router.Distributed),
			"External Network": externalNetwork,
			"External IPs":     strings.Join(ips, ", "),
			"Interface Ports":  strconv.Itoa(len(portsByDevice[router.ID])),
		}
	}
	return rows
}

// Run the routers report and render it to w.
func Run(ctx context.Context, api neutron.NeutronAPI, w io.Writer) error {
	if err := api.Init(ctx); err != nil {
		return err
	}
	routers, err := api.GetAllRouters(ctx)
	if err != nil {
		return err
	}
	ports, err := api.GetAllPorts(ctx, neutron.ListPortsOpts{})
	if err != nil {
		return err
	}
	networks, err := api.GetAllNetworks(ctx)
	if err != nil {
		return err
	}
	rows := Rows(routers, GroupPortsByDevice(ports), NetworkNames(networks))
	return render.Table(w, Columns(), rows)
}
