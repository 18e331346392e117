package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mattsondev/taskgraph/internal/engine"
	"github.com/mattsondev/taskgraph/internal/registry"
	"github.com/mattsondev/taskgraph/internal/serialize"
	"github.com/mattsondev/taskgraph/internal/tasklib"
	"github.com/mattsondev/taskgraph/pkg/settings"
)

type runOptions struct {
	inputs    []string
	overrides []string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Load a subgraph from FILE, run it, and print its output map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settingsPath, _ := cmd.Flags().GetString("settings")
			return runRun(cmd, args[0], opts, settingsPath)
		},
	}

	cmd.Flags().StringSliceVar(&opts.inputs, "input", nil, "declared input as name=value, repeatable")
	cmd.Flags().StringSliceVar(&opts.overrides, "setting", nil, "settings override as name=value, repeatable")

	return cmd
}

func runRun(cmd *cobra.Command, file string, opts *runOptions, settingsPath string) error {
	cfg, err := settings.Load(settingsPath)
	if err != nil {
		return err
	}
	if err := applySettingOverrides(&cfg, opts.overrides); err != nil {
		return newUsageError("run", err)
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

	eng := engine.New(cfg.UseParallel, cfg.WorkerCount, nil)
	defer eng.Close()
	eng.Bind(sub)

	values, err := coerceInputs(sub.Inputs(), opts.inputs)
	if err != nil {
		return newUsageError("run", err)
	}

	out, err := sub.Run(values)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// coerceInputs parses "name=value" CLI arguments, coercing each value to
// the declared type token of name.
func coerceInputs(declared map[string]string, raw []string) (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(raw))
	for _, kv := range raw {
		name, rawValue, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("malformed --input %q, expected name=value", kv)
		}
		typeToken, ok := declared[name]
		if !ok {
			return nil, fmt.Errorf("no declared input named %q", name)
		}
		value, err := coerce(typeToken, rawValue)
		if err != nil {
			return nil, fmt.Errorf("coercing --input %s: %w", name, err)
		}
		values[name] = value
	}
	return values, nil
}

func coerce(typeToken, raw string) (interface{}, error) {
	switch typeToken {
	case "int":
		return strconv.Atoi(raw)
	case "float":
		return strconv.ParseFloat(raw, 64)
	case "bool":
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}

func applySettingOverrides(cfg *settings.Settings, raw []string) error {
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("malformed --setting %q, expected name=value", kv)
		}
		switch name {
		case "useParallel":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return err
			}
			cfg.UseParallel = b
		case "workerCount":
			n, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			cfg.WorkerCount = n
		case "logLevel":
			cfg.LogLevel = value
		case "logFile":
			cfg.LogFile = value
		case "logFormat":
			cfg.LogFormat = value
		case "startThenKillWorkers":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return err
			}
			cfg.StartThenKillWorkers = b
		default:
			return fmt.Errorf("unknown setting %q", name)
		}
	}
	return nil
}
