// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/cinder"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/glance"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/nova"
	"github.com/cobaltcore-dev/openstack-helper/internal/reports/imagesusage"
)

func newImagesUsageCommand(debug *bool) *cobra.Command {
	var (
		name           string
		imageID        string
		tags           []string
		minAgeDays     int
		currentProject bool
		showVMDetails  bool
		showNoVMs      bool
	)
	cmd := &cobra.Command{
		Use:     "images_usage",
		Aliases: []string{"iu"},
		Short:   "List images with their VM usage and age",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := parseUUID("image-id", imageID); err != nil {
				return err
			}
			c := newClients()
			projectID := ""
			if currentProject {
				if err := c.keystone.Authenticate(cmd.Context()); err != nil {
					return err
				}
				var err error
				if projectID, err = c.keystone.ProjectID(); err != nil {
					return err
				}
			}
			opts := imagesusage.Options{
				Name:          name,
				ImageID:       imageID,
				Tags:          tags,
				MinAgeDays:    minAgeDays,
				ProjectID:     projectID,
				ShowVMDetails: showVMDetails,
				ShowNoVMs:     showNoVMs,
			}
			err := imagesusage.Run(
				cmd.Context(),
				glance.NewGlanceAPI(c.mon, c.keystone),
				nova.NewNovaAPI(c.mon, c.keystone),
				cinder.NewCinderAPI(c.mon, c.keystone),
				opts,
				cmd.OutOrStdout(),
			)
			if err != nil {
				return err
			}
			if *debug {
				c.dumpRequestMetrics()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only images with this name")
	cmd.Flags().StringVar(&imageID, "image-id", "", "only the image with this id")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "only images carrying all of these tags")
	cmd.Flags().IntVar(&minAgeDays, "days", 0, "only images at least this many days old")
	cmd.Flags().BoolVar(&currentProject, "current-project", false, "only count servers of the current project")
	cmd.Flags().BoolVar(&showVMDetails, "show-vm-details", false, "add a column listing the referencing servers")
	cmd.Flags().BoolVar(&showNoVMs, "show-no-vms", false, "only images no server references")
	return cmd
}
