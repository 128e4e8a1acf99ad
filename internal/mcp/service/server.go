// Package service hosts the MCP server for the derby engine.
//
// Unlike a service fronting a remote backend, every tool call runs the
// race in-process: the server owns a derby service and, optionally, a
// SQLite batch store.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	dservice "github.com/echovale/cubederby/internal/derby/service"
	"github.com/echovale/cubederby/internal/derby/storage/sqlite"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Cube Derby MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// Config configures the MCP server.
type Config struct {
	// StorePath names a SQLite file for batch aggregates. Empty leaves
	// batches unpersisted.
	StorePath string
}

// Server hosts the MCP server around an in-process derby service.
type Server struct {
	mcpServer *mcp.Server
	store     *sqlite.Store
}

// New creates a configured MCP server. The returned server owns the
// store handle and releases it on Close.
func New(cfg Config) (*Server, error) {
	var opts []dservice.Option
	var store *sqlite.Store
	if cfg.StorePath != "" {
		var err error
		store, err = sqlite.Open(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open batch store: %w", err)
		}
		opts = append(opts, dservice.WithStore(store))
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerDerbyTools(mcpServer, dservice.New(opts...))

	return &Server{mcpServer: mcpServer, store: store}, nil
}

// Run creates a server from cfg and serves it on stdio until the
// context ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the MCP server on stdio and blocks until it stops or
// the context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// Close releases the store handle held by the server.
func (s *Server) Close() error {
	if s == nil || s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

// serveWithTransport starts the MCP server using the provided
// transport. A context cancellation is a normal shutdown, not an
// error.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close batch store: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close batch store: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
