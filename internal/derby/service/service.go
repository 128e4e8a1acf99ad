// Package service orchestrates derby runs around the pure engine. It
// resolves seeds so every run is reproducible, wraps matches and
// batches in trace spans, and persists batch aggregates when a store
// is configured. The engine itself stays free of I/O.
package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/echovale/cubederby/internal/derby"
	"github.com/echovale/cubederby/internal/derby/storage"
	"github.com/echovale/cubederby/internal/random"
)

// Service runs derby matches and batches for the CLI and MCP surfaces.
type Service struct {
	store  storage.BatchStore
	tracer trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithStore persists every finished batch aggregate to the given store.
func WithStore(store storage.BatchStore) Option {
	return func(s *Service) { s.store = store }
}

// New builds a Service.
func New(opts ...Option) *Service {
	s := &Service{tracer: otel.Tracer("derby")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MatchRequest configures one match run. A zero Seed draws a random
// one; the report carries whichever seed was used. OnRound, when set,
// receives every resolved round together with the standings it left.
type MatchRequest struct {
	Names    []string
	Pads     int
	Seed     int64
	Shuffle  bool
	HalfOnly bool
	Rules    derby.Ruleset
	OnRound  func(RoundTrace)
}

// RoundTrace is one resolved round and the track state after it.
type RoundTrace struct {
	Round     derby.Round
	Standings []derby.PadGroup
}

// Standing is one cube's final placement.
type Standing struct {
	Rank int
	Name string
	Pad  int
}

// MatchReport summarizes a finished match. SecondLeg is empty for
// half-only runs. Standings reflect the final leg's track, rank 1
// first.
type MatchReport struct {
	Seed      int64
	Pads      int
	FirstLeg  []string
	SecondLeg []string
	Standings []Standing
}

// RunMatch races one match to completion.
func (s *Service) RunMatch(ctx context.Context, req MatchRequest) (MatchReport, error) {
	seed, err := resolveSeed(req.Seed)
	if err != nil {
		return MatchReport{}, err
	}
	if req.Pads == 0 {
		req.Pads = derby.DefaultPads
	}
	_, span := s.tracer.Start(ctx, "derby.match", trace.WithAttributes(
		attribute.Int("derby.pads", req.Pads),
		attribute.Int64("derby.seed", seed),
		attribute.Int("derby.cubes", len(req.Names)),
	))
	defer span.End()

	cubes, err := derby.NewRoster(req.Names, req.Rules)
	if err != nil {
		span.RecordError(err)
		return MatchReport{}, err
	}
	m, err := derby.NewMatch(cubes, derby.MatchConfig{
		Pads:    req.Pads,
		Seed:    seed,
		Shuffle: req.Shuffle,
	})
	if err != nil {
		span.RecordError(err)
		return MatchReport{}, err
	}

	var onRound func(derby.Round)
	if req.OnRound != nil {
		onRound = func(round derby.Round) {
			req.OnRound(RoundTrace{Round: round, Standings: m.Summary()})
		}
	}

	report := MatchReport{Seed: seed, Pads: req.Pads}
	if req.HalfOnly {
		winners, err := m.PlayLegTraced(onRound)
		if err != nil {
			span.RecordError(err)
			return MatchReport{}, err
		}
		report.FirstLeg = cubeNames(winners)
	} else {
		result, err := m.PlayTraced(onRound)
		if err != nil {
			span.RecordError(err)
			return MatchReport{}, err
		}
		report.FirstLeg = cubeNames(result.FirstLeg)
		report.SecondLeg = cubeNames(result.SecondLeg)
	}
	report.Standings = standings(m)
	return report, nil
}

// BatchRequest configures one Monte Carlo batch. A zero Seed draws a
// random base seed; run i then races with seed+i.
type BatchRequest struct {
	Names   []string
	Pads    int
	Runs    int
	Seed    int64
	Shuffle bool
	Workers int
	Rules   derby.Ruleset
}

// BatchReport is a finished batch plus its persistence handle. SavedID
// is zero when no store is configured.
type BatchReport struct {
	Seed    int64
	Pads    int
	Result  derby.BatchResult
	SavedID int64
}

// RunBatch races a batch and saves the aggregate when a store is
// configured.
func (s *Service) RunBatch(ctx context.Context, req BatchRequest) (BatchReport, error) {
	seed, err := resolveSeed(req.Seed)
	if err != nil {
		return BatchReport{}, err
	}
	if req.Pads == 0 {
		req.Pads = derby.DefaultPads
	}
	ctx, span := s.tracer.Start(ctx, "derby.batch", trace.WithAttributes(
		attribute.Int("derby.pads", req.Pads),
		attribute.Int64("derby.seed", seed),
		attribute.Int("derby.runs", req.Runs),
		attribute.Int("derby.workers", req.Workers),
	))
	defer span.End()

	result, err := derby.RunBatch(ctx, derby.BatchConfig{
		Names:   req.Names,
		Pads:    req.Pads,
		Runs:    req.Runs,
		Seed:    seed,
		Shuffle: req.Shuffle,
		Workers: req.Workers,
		Rules:   req.Rules,
	})
	if err != nil {
		span.RecordError(err)
		return BatchReport{}, err
	}

	report := BatchReport{Seed: seed, Pads: req.Pads, Result: result}
	if s.store != nil {
		record := storage.BatchRecord{
			Seed:            seed,
			Pads:            req.Pads,
			Runs:            req.Runs,
			Failures:        len(result.Failures),
			Shuffle:         req.Shuffle,
			CamellyaTrigger: req.Rules.CamellyaTrigger,
			Rates:           make([]storage.BatchRate, 0, len(result.Rates)),
		}
		for _, rate := range result.Rates {
			record.Rates = append(record.Rates, storage.BatchRate{
				Name:  rate.Name,
				Wins:  rate.Wins,
				Share: rate.Share,
			})
		}
		id, err := s.store.SaveBatch(ctx, record)
		if err != nil {
			span.RecordError(err)
			return BatchReport{}, fmt.Errorf("save batch: %w", err)
		}
		report.SavedID = id
	}
	return report, nil
}

// Catalog lists the special-ability cubes.
func (s *Service) Catalog() []derby.CubeInfo {
	return derby.Catalog()
}

// resolveSeed keeps a non-zero seed and draws a crypto-random one
// otherwise, so an unseeded run can still be reproduced from its
// report.
func resolveSeed(seed int64) (int64, error) {
	if seed != 0 {
		return seed, nil
	}
	return random.NewSeed()
}

func cubeNames(cubes []*derby.Cube) []string {
	names := make([]string, len(cubes))
	for i, c := range cubes {
		names[i] = c.Name()
	}
	return names
}

// standings flattens the final track into rank order using the
// engine's rank assignment.
func standings(m *derby.Match) []Standing {
	ranks := m.Ranks()
	out := make([]Standing, len(ranks))
	for _, group := range m.Summary() {
		for _, c := range group.Cubes {
			rank := ranks[c]
			out[rank-1] = Standing{Rank: rank, Name: c.Name(), Pad: group.Pad}
		}
	}
	return out
}
