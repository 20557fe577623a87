// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/openstack-helper/internal/openstack/placement"
	"github.com/cobaltcore-dev/openstack-helper/internal/reports/resourceprovider"
)

func newResourceProviderCommand(debug *bool) *cobra.Command {
	var (
		name            string
		providerUUID    string
		memberOf        string
		resourceClasses []string
		sortBy          []string
	)
	cmd := &cobra.Command{
		Use:     "resource_provider",
		Aliases: []string{"rp"},
		Short:   "List placement inventory and usage per resource provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := parseUUID("uuid", providerUUID); err != nil {
				return err
			}
			aggregates, err := parseUUIDList("member-of", memberOf)
			if err != nil {
				return err
			}
			c := newClients()
			opts := resourceprovider.Options{
				Name:            name,
				UUID:            providerUUID,
				MemberOf:        aggregates,
				ResourceClasses: resourceClasses,
				SortBy:          sortBy,
			}
			api := placement.NewPlacementAPI(c.mon, c.keystone)
			if err := resourceprovider.Run(cmd.Context(), api, opts, cmd.OutOrStdout()); err != nil {
				return err
			}
			if *debug {
				c.dumpRequestMetrics()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only providers with this name")
	cmd.Flags().StringVar(&providerUUID, "uuid", "", "only the provider with this uuid")
	cmd.Flags().StringVar(&memberOf, "member-of", "", "only providers in any of these aggregates (comma-separated uuids)")
	cmd.Flags().StringSliceVar(&resourceClasses, "resource-class", nil, "resource classes to report (default VCPU, MEMORY_MB, DISK_GB)")
	cmd.Flags().StringSliceVar(&sortBy, "sort-by", []string{"Provider Name"}, "column names to sort by, in order")
	return cmd
}
