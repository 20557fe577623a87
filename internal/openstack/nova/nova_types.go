// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package nova

import "encoding/json"

// OpenStack server model as returned by the Nova API.
// Carries only the fields the reports join on.
type Server struct {
	ID                             string `json:"id"`
	Name                           string `json:"name"`
	Status                         string `json:"status"`
	TenantID                       string `json:"tenant_id"`
	OSEXTSRVATTRHost               string `json:"OS-EXT-SRV-ATTR:host"`
	OSEXTSRVATTRHypervisorHostname string `json:"OS-EXT-SRV-ATTR:hypervisor_hostname"`
	OSEXTSRVATTRRootDeviceName     string `json:"OS-EXT-SRV-ATTR:root_device_name"`

	// Embedded flavor, available since microversion 2.47.
	Flavor ServerFlavor `json:"flavor"`

	// From nested JSON
	ImageID           string   `json:"-"`
	AttachedVolumeIDs []string `json:"-"`
}

// Flavor details embedded in the server payload.
type ServerFlavor struct {
	OriginalName string `json:"original_name"`
	VCPUs        int    `json:"vcpus"`
	RAM          int    `json:"ram"`       // in MB.
	Disk         int    `json:"disk"`      // in GB.
	Ephemeral    int    `json:"ephemeral"` // in GB.
}

// Custom unmarshaler for Server to handle nested JSON.
func (s *Server) UnmarshalJSON(data []byte) error {
	type Alias Server
	aux := &struct {
		Image           json.RawMessage `json:"image"`
		AttachedVolumes []struct {
			ID string `json:"id"`
		} `json:"os-extended-volumes:volumes_attached"`
		*Alias
	}{
		Alias: (*Alias)(s),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	// Nova reports image as the empty string for servers booted from volume.
	if len(aux.Image) > 0 && aux.Image[0] == '{' {
		var image struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(aux.Image, &image); err != nil {
			return err
		}
		s.ImageID = image.ID
	}
	for _, volume := range aux.AttachedVolumes {
		s.AttachedVolumeIDs = append(s.AttachedVolumeIDs, volume.ID)
	}
	return nil
}

// OpenStack flavor model as returned by the Nova API under /flavors.
type Flavor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	VCPUs int    `json:"vcpus"`
	RAM   int    `json:"ram"`  // in MB.
	Disk  int    `json:"disk"` // in GB.
}
