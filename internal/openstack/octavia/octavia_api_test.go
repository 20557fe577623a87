// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package octavia

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack"
	testlibKeystone "github.com/cobaltcore-dev/openstack-helper/testlib/keystone"
)

func TestOctaviaAPI_GetAllFlavors(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("/v2.0/lbaas/flavors", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		body := `{"flavors": [{
			"id": "f1",
			"name": "small",
			"description": "single amphora",
			"enabled": true,
			"flavor_profile_id": "fp1"
		}]}`
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("failed to write response: %v", err)
		}
	})
	server := httptest.NewServer(handler)
	defer server.Close()
	k := &testlibKeystone.MockKeystoneAPI{Url: server.URL + "/"}

	api := NewOctaviaAPI(openstack.Monitor{}, k).(*octaviaAPI)
	if err := api.Init(t.Context()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	result, err := api.GetAllFlavors(t.Context())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 flavor, got %d", len(result))
	}
	if result[0].Name != "small" || result[0].FlavorProfileID != "fp1" {
		t.Errorf("unexpected flavor: %+v", result[0])
	}
	if !result[0].Enabled {
		t.Error("expected enabled flavor")
	}
}

func TestOctaviaAPI_GetFlavorProfile(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("/v2.0/lbaas/flavorprofiles/fp1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		body := `{"flavorprofile": {
			"id": "fp1",
			"name": "amphora-single",
			"provider_name": "amphora",
			"flavor_data": "{\"loadbalancer_topology\": \"SINGLE\", \"compute_flavor\": \"nova-f1\"}"
		}}`
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("failed to write response: %v", err)
		}
	})
	server := httptest.NewServer(handler)
	defer server.Close()
	k := &testlibKeystone.MockKeystoneAPI{Url: server.URL + "/"}

	api := NewOctaviaAPI(openstack.Monitor{}, k).(*octaviaAPI)
	if err := api.Init(t.Context()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	result, err := api.GetFlavorProfile(t.Context(), "fp1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.ProviderName != "amphora" {
		t.Errorf("unexpected provider: %q", result.ProviderName)
	}
	if result.FlavorData == "" {
		t.Error("expected flavor data")
	}
}
