// Package storage defines persistence contracts for batch aggregates.
//
// Individual matches are never persisted; only the win-rate summary of
// a batch is worth keeping around for later comparison.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested batch record is missing.
var ErrNotFound = errors.New("record not found")

// BatchRecord is one persisted batch aggregate.
type BatchRecord struct {
	ID              int64
	Seed            int64
	Pads            int
	Runs            int
	Failures        int
	Shuffle         bool
	CamellyaTrigger bool
	Rates           []BatchRate
	CreatedAt       time.Time
}

// BatchRate is one cube's share of a persisted batch.
type BatchRate struct {
	Name  string
	Wins  int
	Share float64
}

// BatchStore persists batch aggregates. ListBatches returns summaries
// without rates; GetBatch loads the full record.
type BatchStore interface {
	SaveBatch(ctx context.Context, record BatchRecord) (int64, error)
	GetBatch(ctx context.Context, id int64) (BatchRecord, error)
	ListBatches(ctx context.Context, limit int) ([]BatchRecord, error)
}
