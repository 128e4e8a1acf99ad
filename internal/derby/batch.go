package derby

import (
	"context"
	"sort"
	"sync"

	apperrors "github.com/echovale/cubederby/internal/platform/errors"
)

// ErrBatchRuns indicates a batch was requested with no runs.
var ErrBatchRuns = apperrors.New(apperrors.CodeBatchRuns, "batch needs at least one run")

// BatchConfig configures a Monte Carlo batch of full matches. Run i
// races with a source seeded Seed+i, so a batch is reproducible from
// its base seed alone. Workers caps the parallel matches; values below
// one mean sequential.
type BatchConfig struct {
	Names   []string
	Pads    int
	Runs    int
	Seed    int64
	Shuffle bool
	Workers int
	Rules   Ruleset
}

// WinRate is one cube's tally across every leg of the batch.
type WinRate struct {
	Name  string
	Wins  int
	Share float64
}

// Failure records a match aborted by an engine error. The surrounding
// batch keeps running; the failed run contributes no wins.
type Failure struct {
	Run int
	Err error
}

// BatchResult aggregates a batch. Rates covers every roster name, wins
// or not, sorted by share descending then name. Shares are normalized
// over total wins, so they sum to 1 whenever any leg finished.
type BatchResult struct {
	Runs     int
	Rates    []WinRate
	Failures []Failure
}

// RunBatch races the same roster through cfg.Runs full matches and
// tallies every leg winner. Matches run on cfg.Workers goroutines,
// each with its own cube set; ctx is honored between matches.
func RunBatch(ctx context.Context, cfg BatchConfig) (BatchResult, error) {
	if cfg.Runs < 1 {
		return BatchResult{}, ErrBatchRuns
	}
	if cfg.Pads == 0 {
		cfg.Pads = DefaultPads
	}
	if cfg.Pads < 2 {
		return BatchResult{}, ErrTrackTooShort
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > cfg.Runs {
		workers = cfg.Runs
	}
	rosters := make([][]*Cube, workers)
	for i := range rosters {
		cubes, err := NewRoster(cfg.Names, cfg.Rules)
		if err != nil {
			return BatchResult{}, err
		}
		rosters[i] = cubes
	}

	type tally struct {
		wins     map[string]int
		failures []Failure
	}

	runs := make(chan int)
	go func() {
		defer close(runs)
		for run := 0; run < cfg.Runs; run++ {
			select {
			case runs <- run:
			case <-ctx.Done():
				return
			}
		}
	}()

	tallies := make(chan tally, workers)
	var wg sync.WaitGroup
	for _, cubes := range rosters {
		wg.Add(1)
		go func(cubes []*Cube) {
			defer wg.Done()
			local := tally{wins: make(map[string]int)}
			for run := range runs {
				ResetAbilities(cubes)
				result, err := playRun(cubes, cfg, run)
				if err != nil {
					local.failures = append(local.failures, Failure{Run: run, Err: err})
					continue
				}
				for _, c := range result.FirstLeg {
					local.wins[c.Name()]++
				}
				for _, c := range result.SecondLeg {
					local.wins[c.Name()]++
				}
			}
			tallies <- local
		}(cubes)
	}
	wg.Wait()
	close(tallies)

	wins := make(map[string]int)
	var failures []Failure
	for local := range tallies {
		for name, count := range local.wins {
			wins[name] += count
		}
		failures = append(failures, local.failures...)
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].Run < failures[j].Run })

	result := BatchResult{
		Runs:     cfg.Runs,
		Rates:    rates(rosters[0], wins),
		Failures: failures,
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func playRun(cubes []*Cube, cfg BatchConfig, run int) (MatchResult, error) {
	m, err := NewMatch(cubes, MatchConfig{
		Pads:    cfg.Pads,
		Seed:    cfg.Seed + int64(run),
		Shuffle: cfg.Shuffle,
	})
	if err != nil {
		return MatchResult{}, err
	}
	return m.Play()
}

// rates turns the win tally into the sorted rate table. Every roster
// cube appears, so a cube that never won still reports a zero share.
func rates(cubes []*Cube, wins map[string]int) []WinRate {
	total := 0
	for _, count := range wins {
		total += count
	}
	out := make([]WinRate, 0, len(cubes))
	for _, c := range cubes {
		rate := WinRate{Name: c.Name(), Wins: wins[c.Name()]}
		if total > 0 {
			rate.Share = float64(rate.Wins) / float64(total)
		}
		out = append(out, rate)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Share != out[j].Share {
			return out[i].Share > out[j].Share
		}
		return out[i].Name < out[j].Name
	})
	return out
}
