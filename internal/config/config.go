// Package config reads command-line settings, falling back to environment
// variables for anything not given as a flag.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/hailam/chesstactics/internal/position"
	"github.com/hailam/chesstactics/internal/storage"
)

// Environment variables consulted when the matching flag is not set.
const (
	EnvBackend    = "CHESSTACTICS_BACKEND"
	EnvDB         = "CHESSTACTICS_DB"
	EnvWorkers    = "CHESSTACTICS_WORKERS"
	EnvCPUProfile = "CPUPROFILE"
)

// ErrUsage is returned when no command is given.
var ErrUsage = errors.New("usage: chesstactics [flags] review|show|list|delete|shell|attackers|defenders|hanging [args]")

// Config holds the resolved settings.
type Config struct {
	Backend    string
	DBDir      string
	Workers    int
	CPUProfile string
	Verbose    bool

	// Command and Args are the positional arguments after the flags.
	Command string
	Args    []string
}

// Load parses args (without the program name). getenv is consulted for every
// flag not given on the command line; a flag given explicitly wins even when
// its value is empty or zero.
func Load(args []string, getenv func(string) string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("chesstactics", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.Backend, "backend", "", "position backend ("+strings.Join(position.Backends(), ", ")+")")
	fs.StringVar(&cfg.DBDir, "db", "", "review database directory")
	fs.IntVar(&cfg.Workers, "workers", 0, "plies analysed concurrently")
	fs.StringVar(&cfg.CPUProfile, "cpuprofile", "", "write cpu profile to file")
	fs.BoolVar(&cfg.Verbose, "v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["backend"] {
		cfg.Backend = getenv(EnvBackend)
		if cfg.Backend == "" {
			cfg.Backend = position.DefaultBackend
		}
	}
	if !set["db"] {
		cfg.DBDir = getenv(EnvDB)
	}
	if !set["cpuprofile"] {
		cfg.CPUProfile = getenv(EnvCPUProfile)
	}
	if !set["workers"] {
		cfg.Workers = runtime.NumCPU()
		if v := getenv(EnvWorkers); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return Config{}, fmt.Errorf("config: %s: %w", EnvWorkers, err)
			}
			cfg.Workers = n
		}
	}

	if fs.NArg() > 0 {
		cfg.Command = fs.Arg(0)
		cfg.Args = fs.Args()[1:]
	}
	return cfg, nil
}

// Validate checks the settings that Load cannot.
func (c Config) Validate() error {
	if !slices.Contains(position.Backends(), c.Backend) {
		return fmt.Errorf("config: %w: %q", position.ErrUnknownBackend, c.Backend)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	if c.Command == "" {
		return ErrUsage
	}
	return nil
}

// DatabaseDir returns the configured database directory, or the platform
// default.
func (c Config) DatabaseDir() (string, error) {
	if c.DBDir != "" {
		return c.DBDir, nil
	}
	return storage.GetDatabaseDir()
}
