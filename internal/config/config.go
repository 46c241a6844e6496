package config

import (
	"os"
	"runtime"
	"strconv"

	"netpres/domain/network"
	"netpres/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Run      RunConfig
	Database DatabaseConfig
	Server   ServerConfig
}

// RunConfig holds permutation procedure settings
type RunConfig struct {
	Permutations  int
	Workers       int
	NullModel     network.NullModel
	CoherenceMode network.CoherenceMode
	Seed          int64
	Verbose       bool
}

// DatabaseConfig holds database connection settings. An empty URL disables
// result persistence.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds the HTTP results server settings. An empty address
// disables the server.
type ServerConfig struct {
	Addr string
}

// Load builds the configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Run: RunConfig{
			Permutations:  10000,
			Workers:       runtime.NumCPU(),
			NullModel:     network.NullOverlap,
			CoherenceMode: network.CoherenceAbsolute,
			Verbose:       true,
		},
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Server:   ServerConfig{Addr: os.Getenv("LISTEN_ADDR")},
	}

	var err error
	if cfg.Run.Permutations, err = envInt("NETPRES_PERMUTATIONS", cfg.Run.Permutations); err != nil {
		return nil, err
	}
	if cfg.Run.Workers, err = envInt("NETPRES_WORKERS", cfg.Run.Workers); err != nil {
		return nil, err
	}
	if v := os.Getenv("NETPRES_NULL_MODEL"); v != "" {
		model, err := network.ParseNullModel(v)
		if err != nil {
			return nil, errors.ConfigInvalid(err.Error())
		}
		cfg.Run.NullModel = model
	}
	switch os.Getenv("NETPRES_COHERENCE") {
	case "", "absolute":
	case "signed":
		cfg.Run.CoherenceMode = network.CoherenceSigned
	default:
		return nil, errors.ConfigInvalid("NETPRES_COHERENCE must be \"absolute\" or \"signed\"")
	}
	if v := os.Getenv("NETPRES_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid("NETPRES_SEED must be an integer: " + v)
		}
		cfg.Run.Seed = seed
	}
	if v := os.Getenv("NETPRES_VERBOSE"); v != "" {
		verbose, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.ConfigInvalid("NETPRES_VERBOSE must be a boolean: " + v)
		}
		cfg.Run.Verbose = verbose
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Run.Permutations <= 0 {
		return errors.ConfigInvalid("permutation count must be positive")
	}
	if c.Run.Workers <= 0 {
		return errors.ConfigInvalid("worker count must be positive")
	}
	return nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be an integer: " + v)
	}
	return n, nil
}
