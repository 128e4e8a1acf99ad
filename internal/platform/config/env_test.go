package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Pads int `env:"CUBEDERBY_TEST_PADS" envDefault:"23"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Pads != 23 {
		t.Fatalf("expected default pads 23, got %d", cfg.Pads)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("CUBEDERBY_TEST_PADS", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
