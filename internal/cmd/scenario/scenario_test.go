package scenario

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if !cfg.Assertions {
		t.Fatal("expected assertions to default to true")
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("expected default timeout, got %v", cfg.Timeout)
	}
}

func TestRunRequiresScenarioPath(t *testing.T) {
	err := Run(context.Background(), Config{}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "scenario path is required") {
		t.Fatalf("expected missing path error, got %v", err)
	}
}

func TestRunExecutesScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "race.lua")
	script := `local race = Derby.new("cli")
race:roster({"Ivy", "Moss"})
race:pads(5)
race:seed(11)
race:play_leg()
return race
`
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}

	cfg := Config{Scenario: path, Assertions: true, Timeout: 10 * time.Second}
	if err := Run(context.Background(), cfg, nil, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
}
