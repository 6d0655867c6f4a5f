// Package config loads the service configuration, merging (lowest to
// highest precedence) flag defaults, an optional YAML file, ENGRAM_*
// environment variables, and explicitly set command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "ENGRAM_"

// Config holds the service settings.
type Config struct {
	ListenAddr  string `koanf:"listen_addr" validate:"required"`
	DBPath      string `koanf:"db_path" validate:"required"`
	ReposDir    string `koanf:"repos_dir" validate:"required"`
	SyncOnStart bool   `koanf:"sync_on_start"`
}

// Flags defines the command-line flags backing the configuration.
// The flag set is parsed by the caller before Load.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("engram", pflag.ExitOnError)
	f.String("config", "", "Path to a YAML config file")
	f.String("listen_addr", ":8484", "Address for the HTTP server to listen on")
	f.String("db_path", "engram.db", "Path to the SQLite database file")
	f.String("repos_dir", "repos", "Directory for checkouts of git sources")
	f.Bool("sync_on_start", false, "Reconcile all sources before serving")
	return f
}

// Load merges all configuration layers and validates the result.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// Flag defaults form the base layer.
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("loading flag defaults: %w", err)
	}

	if path, _ := f.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	// Flags set on the command line override file and environment values;
	// unchanged flags keep whatever the earlier layers produced.
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("loading flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadFromArgs parses args and loads the configuration, for callers that
// do not need to inspect the flag set themselves.
func LoadFromArgs(args []string) (*Config, error) {
	f := Flags()
	if err := f.Parse(args); err != nil {
		return nil, err
	}
	return Load(f)
}
