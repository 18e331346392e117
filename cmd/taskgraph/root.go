package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "taskgraph",
		Short:         "taskgraph runs typed dataflow subgraphs of atomic and composite tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("settings", "", "path to a settings YAML file")

	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newReloadCmd())
	cmd.AddCommand(newRegistryCmd())

	return cmd
}
