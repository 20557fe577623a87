// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/nova"
	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/octavia"
	"github.com/cobaltcore-dev/openstack-helper/internal/reports/lbflavors"
)

func newLoadbalancerFlavorsCommand(debug *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "loadbalancer_flavors",
		Aliases: []string{"lf"},
		Short:   "List octavia flavors with their profiles and compute flavors",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClients()
			err := lbflavors.Run(
				cmd.Context(),
				octavia.NewOctaviaAPI(c.mon, c.keystone),
				nova.NewNovaAPI(c.mon, c.keystone),
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
	return cmd
}
