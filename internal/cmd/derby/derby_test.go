package derby

import (
	"context"
	"flag"
	"strings"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("derby", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Mode != "full" {
		t.Fatalf("expected default mode full, got %q", cfg.Mode)
	}
	if cfg.Runs != 10000 {
		t.Fatalf("expected default runs 10000, got %d", cfg.Runs)
	}
}

func TestParseConfigFlagsWinOverEnv(t *testing.T) {
	t.Setenv("CUBEDERBY_MODE", "batch")
	t.Setenv("CUBEDERBY_SEED", "7")
	fs := flag.NewFlagSet("derby", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{"-mode", "cubes"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Mode != "cubes" {
		t.Fatalf("expected flag to win, got mode %q", cfg.Mode)
	}
	if cfg.Seed != 7 {
		t.Fatalf("expected env seed 7, got %d", cfg.Seed)
	}
}

func TestRunUnknownMode(t *testing.T) {
	err := Run(context.Background(), Config{Mode: "race"}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown mode") {
		t.Fatalf("expected unknown mode error, got %v", err)
	}
}

func TestRunMatchPrintsLegs(t *testing.T) {
	var out strings.Builder
	cfg := Config{Mode: "full", Cubes: "Ivy,Moss", Pads: 5, Seed: 11}

	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "seed 11, 5 pads") {
		t.Fatalf("expected seed header, got %q", got)
	}
	if !strings.Contains(got, "first leg:") || !strings.Contains(got, "second leg:") {
		t.Fatalf("expected both legs in output, got %q", got)
	}
	if !strings.Contains(got, " 1. ") {
		t.Fatalf("expected standings, got %q", got)
	}
}

func TestRunHalfStopsAfterFirstLeg(t *testing.T) {
	var out strings.Builder
	cfg := Config{Mode: "half", Cubes: "Ivy,Moss", Pads: 5, Seed: 11}

	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(out.String(), "second leg:") {
		t.Fatalf("half run should not report a second leg, got %q", out.String())
	}
}

func TestRunMatchTrace(t *testing.T) {
	var out strings.Builder
	cfg := Config{Mode: "full", Cubes: "Ivy,Moss", Pads: 3, Seed: 1, Trace: true}

	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "leg 1 round 1:") {
		t.Fatalf("expected round trace, got %q", got)
	}
	if !strings.Contains(got, "winners:") {
		t.Fatalf("expected winners line in trace, got %q", got)
	}
}

func TestRunBatchReportsEveryCube(t *testing.T) {
	var out strings.Builder
	cfg := Config{Mode: "batch", Cubes: "Ivy,Moss", Pads: 5, Runs: 20, Seed: 3}

	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "20 runs, seed 3") {
		t.Fatalf("expected batch header, got %q", got)
	}
	if !strings.Contains(got, "Ivy") || !strings.Contains(got, "Moss") {
		t.Fatalf("expected both cubes in the rate table, got %q", got)
	}
}

func TestRunBatchPersistsWhenStoreConfigured(t *testing.T) {
	var out strings.Builder
	path := t.TempDir() + "/batches.db"
	cfg := Config{Mode: "batch", Cubes: "Ivy,Moss", Pads: 5, Runs: 5, Seed: 3, Store: path}

	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "saved batch") {
		t.Fatalf("expected saved batch line, got %q", out.String())
	}
}

func TestRunCubesListsCatalog(t *testing.T) {
	var out strings.Builder

	if err := Run(context.Background(), Config{Mode: "cubes"}, &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Shorekeeper:") {
		t.Fatalf("expected catalog entries, got %q", out.String())
	}
}

func TestRosterFallsBackToEventRoster(t *testing.T) {
	names := roster(" ")
	if len(names) == 0 {
		t.Fatal("expected the event roster")
	}
	names = roster("Ivy, ,Moss")
	if len(names) != 2 || names[0] != "Ivy" || names[1] != "Moss" {
		t.Fatalf("expected trimmed names, got %v", names)
	}
}
