// Package settings loads the engine's global execution parameters:
// executor selection, worker count, and logging. YAML is decoded with
// gopkg.in/yaml.v3, the same library the rest of the module's
// manifests use, and dario.cat/mergo fills in anything the file or
// environment left unset from Defaults().
package settings

import (
	"os"
	"strconv"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

// Settings are the engine's configurable knobs.
type Settings struct {
	UseParallel          bool          `yaml:"useParallel"`
	WorkerCount          int           `yaml:"workerCount"`
	WaitDelay            time.Duration `yaml:"waitDelay"`
	StartThenKillWorkers bool          `yaml:"startThenKillWorkers"`
	LogLevel             string        `yaml:"logLevel"`
	LogFile              string        `yaml:"logFile"`
	LogFormat            string        `yaml:"logFormat"`
	GitCacheDir          string        `yaml:"gitCacheDir"`
}

// Defaults returns the engine's built-in defaults.
func Defaults() Settings {
	return Settings{
		UseParallel: false,
		WorkerCount: 4,
		WaitDelay:   100 * time.Millisecond,
		LogLevel:    "info",
		LogFormat:   "console",
		GitCacheDir: os.TempDir() + "/taskgraph-git-cache",
	}
}

// Load reads path as YAML, merges it over Defaults(), then applies
// TASKGRAPH_-prefixed environment variable overrides.
func Load(path string) (Settings, error) {
	s := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return applyEnv(s), nil
			}
			return Settings{}, &taskerrors.Internal{Reason: "reading " + path + ": " + err.Error()}
		}
		var fromFile Settings
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return Settings{}, &taskerrors.MalformedDocument{Reason: "parsing " + path + ": " + err.Error()}
		}
		if err := mergo.Merge(&s, fromFile, mergo.WithOverride); err != nil {
			return Settings{}, &taskerrors.Internal{Reason: "merging settings: " + err.Error()}
		}
	}
	return applyEnv(s), nil
}

func applyEnv(s Settings) Settings {
	if v := os.Getenv("TASKGRAPH_USE_PARALLEL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.UseParallel = b
		}
	}
	if v := os.Getenv("TASKGRAPH_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.WorkerCount = n
		}
	}
	if v := os.Getenv("TASKGRAPH_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv("TASKGRAPH_LOG_FILE"); v != "" {
		s.LogFile = v
	}
	return s
}
