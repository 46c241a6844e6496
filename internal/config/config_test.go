package config

import (
	"testing"

	"netpres/domain/network"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Run.Permutations != 10000 {
		t.Errorf("permutations = %d, want 10000", cfg.Run.Permutations)
	}
	if cfg.Run.Workers <= 0 {
		t.Errorf("workers = %d, want positive", cfg.Run.Workers)
	}
	if cfg.Run.NullModel != network.NullOverlap {
		t.Errorf("null model = %q, want overlap", cfg.Run.NullModel)
	}
	if cfg.Run.CoherenceMode != network.CoherenceAbsolute {
		t.Error("default coherence mode should be absolute")
	}
	if !cfg.Run.Verbose {
		t.Error("verbose should default to true")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("NETPRES_PERMUTATIONS", "500")
	t.Setenv("NETPRES_WORKERS", "3")
	t.Setenv("NETPRES_NULL_MODEL", "all")
	t.Setenv("NETPRES_COHERENCE", "signed")
	t.Setenv("NETPRES_SEED", "12345")
	t.Setenv("NETPRES_VERBOSE", "false")
	t.Setenv("DATABASE_URL", "postgres://localhost/netpres")
	t.Setenv("LISTEN_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Run.Permutations != 500 || cfg.Run.Workers != 3 {
		t.Errorf("run config = %+v", cfg.Run)
	}
	if cfg.Run.NullModel != network.NullAll {
		t.Errorf("null model = %q, want all", cfg.Run.NullModel)
	}
	if cfg.Run.CoherenceMode != network.CoherenceSigned {
		t.Error("coherence mode should be signed")
	}
	if cfg.Run.Seed != 12345 || cfg.Run.Verbose {
		t.Errorf("run config = %+v", cfg.Run)
	}
	if cfg.Database.URL != "postgres://localhost/netpres" {
		t.Errorf("database url = %q", cfg.Database.URL)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("listen addr = %q", cfg.Server.Addr)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"NETPRES_PERMUTATIONS": "ten",
		"NETPRES_WORKERS":      "0",
		"NETPRES_NULL_MODEL":   "bogus",
		"NETPRES_COHERENCE":    "sometimes",
		"NETPRES_SEED":         "abc",
		"NETPRES_VERBOSE":      "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%q should be rejected", key, value)
			}
		})
	}
}
