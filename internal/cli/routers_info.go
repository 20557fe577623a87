// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/neutron"
	"github.com/cobaltcore-dev/openstack-helper/internal/reports/routersinfo"
)

func newRoutersInfoCommand(debug *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "routers_info",
		Aliases: []string{"ri"},
		Short:   "List routers with their gateways and interface ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClients()
			api := neutron.NewNeutronAPI(c.mon, c.keystone)
			if err := routersinfo.Run(cmd.Context(), api, cmd.OutOrStdout()); err != nil {
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
