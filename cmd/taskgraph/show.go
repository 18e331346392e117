package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE",
		Short: "Print a human-readable dump of a subgraph's JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0])
		},
	}
}

func runShow(cmd *cobra.Command, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return newUsageError("show", fmt.Errorf("reading %s: %w", file, err))
	}

	var pretty interface{}
	if err := json.Unmarshal(data, &pretty); err != nil {
		return newUsageError("show", fmt.Errorf("parsing %s: %w", file, err))
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(pretty)
}
