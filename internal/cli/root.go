// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

// Package cli wires the report commands into a cobra command tree.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Create the root command with all report subcommands attached.
func NewRootCommand() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:           "openstack-helper",
		Short:         "Read-only reports over the OpenStack API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
	}
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging and request timing output")
	cmd.AddCommand(
		newUnusedPortsCommand(&debug),
		newImagesUsageCommand(&debug),
		newResourceProviderCommand(&debug),
		newCheckAllocationsCommand(&debug),
		newRoutersInfoCommand(&debug),
		newLoadbalancerFlavorsCommand(&debug),
	)
	return cmd
}
