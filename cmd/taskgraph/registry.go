package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsondev/taskgraph/internal/registry"
)

// newRegistryCmd exposes the process-wide default registry's admin/debug
// affordances: listing what's registered, and the mute/unmute escape
// hatches used to isolate test runs.
func newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and manage the default task registry",
	}

	cmd.AddCommand(newRegistryListCmd())
	cmd.AddCommand(newRegistryMuteCmd())
	cmd.AddCommand(newRegistryUnmuteCmd())
	cmd.AddCommand(newRegistryResetCmd())

	return cmd
}

func newRegistryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every task name registered in the default registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range registry.Default().List() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newRegistryMuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mute",
		Short: "Stop the default registry from accepting further registrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry.Default().Mute()
			return nil
		},
	}
}

func newRegistryUnmuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unmute",
		Short: "Restore normal registration on the default registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry.Default().Unmute()
			return nil
		},
	}
}

func newRegistryResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the default registry back to empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry.Default().Reset()
			return nil
		},
	}
}
