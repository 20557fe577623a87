// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package imagesusage

import (
	"context"
	"testing"
	"time"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/cinder"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/glance"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/nova"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestJoinImageServers(t *testing.T) {
	images := []glance.Image{
		{ID: "img1", CreatedAt: now.AddDate(0, 0, -10)},
		{ID: "img2", CreatedAt: now.AddDate(0, 0, -100)},
	}
	servers := []ServerRef{
		{ID: "s1", ImageID: "img1"},
		{ID: "s2", ImageID: "img1"},
		{ID: "s3", ImageID: "img1"},
		{ID: "s4", ImageID: ""},
		{ID: "s5", ImageID: "unknown"},
	}
	usages := JoinImageServers(images, servers, now)
	if len(usages) != 2 {
		t.Fatalf("expected 2 usages, got %d", len(usages))
	}
	// Image order is preserved.
	if usages[0].Image.ID != "img1" || usages[1].Image.ID != "img2" {
		t.Errorf("unexpected order: %v, %v", usages[0].Image.ID, usages[1].Image.ID)
	}
	if len(usages[0].Servers) != 3 {
		t.Errorf("expected 3 servers on img1, got %d", len(usages[0].Servers))
	}
	if len(usages[1].Servers) != 0 {
		t.Errorf("expected 0 servers on img2, got %d", len(usages[1].Servers))
	}
	if usages[0].AgeDays != 10 || usages[1].AgeDays != 100 {
		t.Errorf("unexpected ages: %d, %d", usages[0].AgeDays, usages[1].AgeDays)
	}
}

func TestFilterByTags(t *testing.T) {
	usages := []Usage{
		{Image: glance.Image{ID: "img1", Tags: []string{"x", "y", "z"}}},
		{Image: glance.Image{ID: "img2", Tags: []string{"x"}}},
		{Image: glance.Image{ID: "img3"}},
	}
	result := FilterByTags(usages, []string{"x", "y"})
	if len(result) != 1 || result[0].Image.ID != "img1" {
		t.Fatalf("expected exactly img1, got %v", result)
	}
	// No requested tags keeps everything.
	if result := FilterByTags(usages, nil); len(result) != 3 {
		t.Fatalf("expected all 3 usages, got %d", len(result))
	}
}

func TestFilterByMinAge(t *testing.T) {
	usages := []Usage{
		{Image: glance.Image{ID: "img1"}, AgeDays: 5},
		{Image: glance.Image{ID: "img2"}, AgeDays: 30},
		{Image: glance.Image{ID: "img3"}, AgeDays: 29},
	}
	result := FilterByMinAge(usages, 30)
	if len(result) != 1 || result[0].Image.ID != "img2" {
		t.Fatalf("expected exactly img2, got %v", result)
	}
	if result := FilterByMinAge(usages, 0); len(result) != 3 {
		t.Fatalf("expected all 3 usages, got %d", len(result))
	}
}

func TestFilterNoVMs(t *testing.T) {
	usages := []Usage{
		{Image: glance.Image{ID: "img1"}, Servers: []ServerRef{{ID: "s1"}}},
		{Image: glance.Image{ID: "img2"}},
	}
	result := FilterNoVMs(usages)
	if len(result) != 1 || result[0].Image.ID != "img2" {
		t.Fatalf("expected exactly img2, got %v", result)
	}
}

func TestRows_VMDetails(t *testing.T) {
	usages := []Usage{
		{
			Image:   glance.Image{ID: "img1", Name: "ubuntu", CreatedAt: now},
			AgeDays: 3,
			Servers: []ServerRef{{ID: "s1", Name: "web"}, {ID: "s2", Name: "db"}},
		},
		{Image: glance.Image{ID: "img2", Name: "old", CreatedAt: now}},
	}
	rows := Rows(usages, true)
	if rows[0]["VM Count"] != "2" {
		t.Errorf("expected VM count 2, got %q", rows[0]["VM Count"])
	}
	if rows[0]["VMs"] != "s1 (web), s2 (db)" {
		t.Errorf("unexpected vm details: %q", rows[0]["VMs"])
	}
	// An image without servers keeps the column with an empty cell.
	if cell, ok := rows[1]["VMs"]; !ok || cell != "" {
		t.Errorf("expected empty VMs cell, got %q (present: %v)", cell, ok)
	}
}

type fakeCinderAPI struct {
	volumes map[string]*cinder.Volume
}

func (f *fakeCinderAPI) Init(ctx context.Context) error { return nil }

func (f *fakeCinderAPI) GetVolume(ctx context.Context, id string) (*cinder.Volume, error) {
	return f.volumes[id], nil
}

func TestResolveImageID(t *testing.T) {
	api := &fakeCinderAPI{volumes: map[string]*cinder.Volume{
		"vol-data": {ID: "vol-data", ImageID: "", Attachments: []cinder.VolumeAttachment{
			{ServerID: "s1", Device: "/dev/vdb"},
		}},
		"vol-boot": {ID: "vol-boot", ImageID: "img9", Attachments: []cinder.VolumeAttachment{
			{ServerID: "s1", Device: "/dev/vda"},
		}},
	}}

	// Direct image reference wins without any volume lookup.
	direct := nova.Server{ID: "s1", ImageID: "img1"}
	imageID, err := resolveImageID(t.Context(), api, direct)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if imageID != "img1" {
		t.Errorf("expected img1, got %q", imageID)
	}

	// Boot from volume: the volume on the root device carries the image.
	bfv := nova.Server{
		ID:                         "s1",
		OSEXTSRVATTRRootDeviceName: "/dev/vda",
		AttachedVolumeIDs:          []string{"vol-data", "vol-boot"},
	}
	imageID, err = resolveImageID(t.Context(), api, bfv)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if imageID != "img9" {
		t.Errorf("expected img9, got %q", imageID)
	}

	// No resolvable image is a valid, empty result.
	bare := nova.Server{ID: "s2", AttachedVolumeIDs: []string{"missing"}}
	imageID, err = resolveImageID(t.Context(), api, bare)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if imageID != "" {
		t.Errorf("expected empty image id, got %q", imageID)
	}
}
