package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Slots int    `env:"LP_TEST_SLOTS" envDefault:"13"`
	Name  string `env:"LP_TEST_NAME"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Slots != 13 {
		t.Fatalf("expected default slots 13, got %d", cfg.Slots)
	}
	if cfg.Name != "" {
		t.Fatalf("expected empty name, got %q", cfg.Name)
	}
}

func TestParseEnvOverride(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("LP_TEST_SLOTS", "37")
	t.Setenv("LP_TEST_NAME", "cities")
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Slots != 37 || cfg.Name != "cities" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("LP_TEST_SLOTS", "not-an-int")
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
