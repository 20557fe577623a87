// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package neutron

// OpenStack port model as returned by the Neutron API, including the
// binding attributes the unused-ports checks look at.
type Port struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	NetworkID         string         `json:"network_id"`
	Status            string         `json:"status"`
	DeviceID          string         `json:"device_id"`
	DeviceOwner       string         `json:"device_owner"`
	BindingHostID     string         `json:"binding:host_id"`
	BindingVifType    string         `json:"binding:vif_type"`
	BindingVifDetails map[string]any `json:"binding:vif_details"`
	FixedIPs          []FixedIP      `json:"fixed_ips"`
	UpdatedAt         string         `json:"updated_at"`
}

// One fixed ip assignment of a port.
type FixedIP struct {
	IPAddress string `json:"ip_address"`
	SubnetID  string `json:"subnet_id"`
}

// OpenStack network model, reduced to what the reports need.
type Network struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OpenStack router model from the Neutron layer3 extension.
type Router struct {
	ID                string
	Name              string
	Status            string
	Distributed       bool
	ExternalNetworkID string
	ExternalFixedIPs  []FixedIP
}
