// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/nova"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/placement"
	"github.com/cobaltcore-dev/openstack-helper/internal/reports/checkallocations"
)

func newCheckAllocationsCommand(debug *bool) *cobra.Command {
	var uuids string
	cmd := &cobra.Command{
		Use:     "check_allocations",
		Aliases: []string{"ca"},
		Short:   "Compare nova and placement allocations per instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			instanceUUIDs, err := parseUUIDList("uuid", uuids)
			if err != nil {
				return err
			}
			c := newClients()
			err = checkallocations.Run(
				cmd.Context(),
				nova.NewNovaAPI(c.mon, c.keystone),
				placement.NewPlacementAPI(c.mon, c.keystone),
				instanceUUIDs,
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
	cmd.Flags().StringVar(&uuids, "uuid", "", "instances to check (comma-separated uuids, default all active)")
	return cmd
}
