package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsondev/taskgraph/internal/registry"
	"github.com/mattsondev/taskgraph/internal/serialize"
	"github.com/mattsondev/taskgraph/internal/tasklib"
	"github.com/mattsondev/taskgraph/pkg/settings"
)

func newReloadCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "reload FILE",
		Short: "Re-resolve every atomic task's source and function handle; with --write, rewrite FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settingsPath, _ := cmd.Flags().GetString("settings")
			return runReload(cmd, args[0], write, settingsPath)
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "persist the reloaded subgraph back to FILE")

	return cmd
}

func runReload(cmd *cobra.Command, file string, write bool, settingsPath string) error {
	cfg, err := settings.Load(settingsPath)
	if err != nil {
		return err
	}

	loaders := map[string]registry.SourceLoader{
		"":     registry.FileSourceLoader{},
		"git+": registry.NewGitSourceLoader(cfg.GitCacheDir),
	}
	reg := registry.New(loaders, tasklib.Functions(), nil)

	sub, err := serialize.Load(file, reg.ResolveAtomic)
	if err != nil {
		return err
	}

	if err := sub.Reload(); err != nil {
		return err
	}

	if write {
		if err := serialize.Save(file, sub); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "reloaded %q\n", file)
	return nil
}
