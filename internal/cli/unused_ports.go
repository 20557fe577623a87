// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/neutron"
	"github.com/cobaltcore-dev/openstack-helper/internal/reports/unusedports"
)

func newUnusedPortsCommand(debug *bool) *cobra.Command {
	var (
		networkID      string
		deviceOwner    string
		currentProject bool
		ping           bool
		pingTimeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:     "unused_ports",
		Aliases: []string{"up"},
		Short:   "List ports with no attached device",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := parseUUID("network-id", networkID); err != nil {
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
			api := neutron.NewNeutronAPI(c.mon, c.keystone)
			opts := unusedports.Options{
				NetworkID:   networkID,
				DeviceOwner: deviceOwner,
				ProjectID:   projectID,
				Ping:        ping,
				PingTimeout: pingTimeout,
			}
			if err := unusedports.Run(cmd.Context(), api, opts, cmd.OutOrStdout()); err != nil {
				return err
			}
			if *debug {
				c.dumpRequestMetrics()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&networkID, "network-id", "", "only ports on this network")
	cmd.Flags().StringVar(&deviceOwner, "device-owner", "compute:nova", "only ports with this device owner")
	cmd.Flags().BoolVar(&currentProject, "current-project", false, "only ports of the current project")
	cmd.Flags().BoolVar(&ping, "ping", false, "ping the fixed ips and drop reachable ports")
	cmd.Flags().DurationVar(&pingTimeout, "ping-timeout", time.Second, "timeout for a single ping probe")
	return cmd
}
