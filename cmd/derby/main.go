// Package main provides the derby CLI for matches, batches, and the
// cube catalog.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	derbycmd "github.com/echovale/cubederby/internal/cmd/derby"
	"github.com/echovale/cubederby/internal/platform/config"
)

func main() {
	cfg, err := derbycmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := derbycmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
