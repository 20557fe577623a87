// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package cinder

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack"
	testlibKeystone "github.com/cobaltcore-dev/openstack-helper/testlib/keystone"
)

func TestCinderAPI_GetVolume(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("/volumes/vol1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		body := `{"volume": {
			"id": "vol1",
			"attachments": [{"server_id": "s1", "device": "/dev/vda"}],
			"volume_image_metadata": {"image_id": "img1"}
		}}`
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("failed to write response: %v", err)
		}
	})
	server := httptest.NewServer(handler)
	defer server.Close()
	k := &testlibKeystone.MockKeystoneAPI{Url: server.URL + "/"}

	api := NewCinderAPI(openstack.Monitor{}, k).(*cinderAPI)
	if err := api.Init(t.Context()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	volume, err := api.GetVolume(t.Context(), "vol1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if volume == nil || volume.ID != "vol1" {
		t.Fatalf("unexpected volume: %+v", volume)
	}
	if volume.ImageID != "img1" {
		t.Errorf("expected image id from volume metadata, got %q", volume.ImageID)
	}
	if len(volume.Attachments) != 1 || volume.Attachments[0].Device != "/dev/vda" {
		t.Errorf("unexpected attachments: %v", volume.Attachments)
	}
}

func TestCinderAPI_GetVolume_NotFound(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("/volumes/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(handler)
	defer server.Close()
	k := &testlibKeystone.MockKeystoneAPI{Url: server.URL + "/"}

	api := NewCinderAPI(openstack.Monitor{}, k).(*cinderAPI)
	if err := api.Init(t.Context()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	volume, err := api.GetVolume(t.Context(), "missing")
	if err != nil {
		t.Fatalf("expected no error for a missing volume, got %v", err)
	}
	if volume != nil {
		t.Errorf("expected nil volume, got %+v", volume)
	}
}
