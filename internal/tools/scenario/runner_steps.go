package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/echovale/cubederby/internal/derby"
)

// scenarioState is the race being scripted: the configuration gathered
// so far and, once a race step runs, the live match.
type scenarioState struct {
	names   []string
	pads    int
	seed    int64
	shuffle bool
	rules   derby.Ruleset
	match   *derby.Match
	last    derby.Round
	batch   *derby.BatchResult
}

func (r *Runner) runStep(ctx context.Context, state *scenarioState, step Step) error {
	switch step.Kind {
	case "roster":
		return r.runRosterStep(state, step)
	case "pads":
		return r.runConfigStep(state, func() { state.pads = optionalInt(step.Args, "pads", 0) })
	case "seed":
		return r.runConfigStep(state, func() { state.seed = int64(optionalInt(step.Args, "seed", 0)) })
	case "shuffle":
		return r.runConfigStep(state, func() { state.shuffle = optionalBool(step.Args, "enabled", true) })
	case "camellya_trigger":
		return r.runConfigStep(state, func() {
			state.rules.CamellyaTrigger = optionalBool(step.Args, "enabled", true)
		})
	case "round":
		return r.runRoundStep(state, step)
	case "play_leg":
		return r.runPlayLegStep(state, step)
	case "play":
		return r.runPlayStep(state, step)
	case "batch":
		return r.runBatchStep(ctx, state, step)
	case "expect_pad":
		return r.runExpectPadStep(state, step)
	case "expect_rank":
		return r.runExpectRankStep(state, step)
	case "expect_track_len":
		return r.runExpectTrackLenStep(state, step)
	default:
		return r.failf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) runRosterStep(state *scenarioState, step Step) error {
	if state.match != nil {
		return r.failf("roster cannot change once the race has started")
	}
	names := stringList(step.Args, "cubes")
	if len(names) == 0 {
		return r.failf("roster needs at least one cube name")
	}
	state.names = names
	return nil
}

// runConfigStep applies a configuration mutation, rejecting it once the
// track is laid out.
func (r *Runner) runConfigStep(state *scenarioState, apply func()) error {
	if state.match != nil {
		return r.failf("configuration cannot change once the race has started")
	}
	apply()
	return nil
}

// ensureMatch lays out the match on the first race step. Scripts that
// skip the roster step race the event roster.
func (r *Runner) ensureMatch(state *scenarioState) error {
	if state.match != nil {
		return nil
	}
	names := state.names
	if len(names) == 0 {
		names = derby.DefaultRoster()
	}
	cubes, err := derby.NewRoster(names, state.rules)
	if err != nil {
		return fmt.Errorf("build roster: %w", err)
	}
	match, err := derby.NewMatch(cubes, derby.MatchConfig{
		Pads:    state.pads,
		Seed:    state.seed,
		Shuffle: state.shuffle,
	})
	if err != nil {
		return fmt.Errorf("lay out match: %w", err)
	}
	state.match = match
	return nil
}

func (r *Runner) runRoundStep(state *scenarioState, step Step) error {
	if err := r.ensureMatch(state); err != nil {
		return err
	}
	round, err := state.match.PlayRound()
	if err != nil {
		return fmt.Errorf("play round: %w", err)
	}
	state.last = round
	if err := r.checkOrderExpectations(round, step.Args); err != nil {
		return err
	}
	return r.checkWinners(round.Winners, step.Args, "winners")
}

func (r *Runner) runPlayLegStep(state *scenarioState, step Step) error {
	if err := r.ensureMatch(state); err != nil {
		return err
	}
	winners, err := state.match.PlayLegTraced(func(round derby.Round) {
		state.last = round
	})
	if err != nil {
		return fmt.Errorf("play leg: %w", err)
	}
	return r.checkWinners(winners, step.Args, "winners")
}

func (r *Runner) runPlayStep(state *scenarioState, step Step) error {
	if err := r.ensureMatch(state); err != nil {
		return err
	}
	result, err := state.match.PlayTraced(func(round derby.Round) {
		state.last = round
	})
	if err != nil {
		return fmt.Errorf("play match: %w", err)
	}
	if err := r.checkWinners(result.FirstLeg, step.Args, "first"); err != nil {
		return err
	}
	return r.checkWinners(result.SecondLeg, step.Args, "second")
}

func (r *Runner) runBatchStep(ctx context.Context, state *scenarioState, step Step) error {
	names := state.names
	if len(names) == 0 {
		names = derby.DefaultRoster()
	}
	result, err := derby.RunBatch(ctx, derby.BatchConfig{
		Names:   names,
		Pads:    state.pads,
		Runs:    optionalInt(step.Args, "runs", 100),
		Seed:    state.seed,
		Shuffle: state.shuffle,
		Workers: optionalInt(step.Args, "workers", 0),
		Rules:   state.rules,
	})
	if err != nil {
		return fmt.Errorf("run batch: %w", err)
	}
	state.batch = &result

	if optionalBool(step.Args, "all_win", false) {
		for _, rate := range result.Rates {
			if rate.Wins == 0 {
				if err := r.assertf("batch: expected every cube to win at least once, %s never did", rate.Name); err != nil {
					return err
				}
			}
		}
	}
	if err := r.checkShareBands(result, step.Args); err != nil {
		return err
	}
	if len(result.Failures) > 0 {
		return r.assertf("batch: %d of %d runs failed", len(result.Failures), result.Runs)
	}
	return nil
}

// checkShareBands verifies each scripted win-share band, e.g.
// shares = {Ivy = {min = 0.3, max = 0.7}}.
func (r *Runner) checkShareBands(result derby.BatchResult, args map[string]any) error {
	bands, ok := args["shares"].(map[string]any)
	if !ok {
		return nil
	}
	shares := make(map[string]float64, len(result.Rates))
	for _, rate := range result.Rates {
		shares[rate.Name] = rate.Share
	}
	for name, raw := range bands {
		band, ok := raw.(map[string]any)
		if !ok {
			return r.failf("batch: share band for %s must be a table", name)
		}
		share, raced := shares[name]
		if !raced {
			return r.failf("batch: cube %s is not in the race", name)
		}
		if min, ok := optionalFloat(band, "min"); ok && share < min {
			if err := r.assertf("batch: %s share = %.4f, want >= %.4f", name, share, min); err != nil {
				return err
			}
		}
		if max, ok := optionalFloat(band, "max"); ok && share > max {
			if err := r.assertf("batch: %s share = %.4f, want <= %.4f", name, share, max); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) runExpectPadStep(state *scenarioState, step Step) error {
	if state.match == nil {
		return r.failf("expect_pad needs a started race")
	}
	name := requiredString(step.Args, "cube")
	want := optionalInt(step.Args, "pad", -1)
	for _, group := range state.match.Summary() {
		for _, c := range group.Cubes {
			if c.Name() == name {
				if group.Pad != want {
					return r.assertf("cube %s: pad = %d, want %d", name, group.Pad, want)
				}
				return nil
			}
		}
	}
	return r.failf("cube %s is not in the race", name)
}

func (r *Runner) runExpectRankStep(state *scenarioState, step Step) error {
	if state.match == nil {
		return r.failf("expect_rank needs a started race")
	}
	name := requiredString(step.Args, "cube")
	want := optionalInt(step.Args, "rank", -1)
	for c, rank := range state.match.Ranks() {
		if c.Name() == name {
			if rank != want {
				return r.assertf("cube %s: rank = %d, want %d", name, rank, want)
			}
			return nil
		}
	}
	return r.failf("cube %s is not in the race", name)
}

func (r *Runner) runExpectTrackLenStep(state *scenarioState, step Step) error {
	if state.match == nil {
		return r.failf("expect_track_len needs a started race")
	}
	want := optionalInt(step.Args, "pads", -1)
	if got := state.match.TrackLen(); got != want {
		return r.assertf("track length = %d, want %d", got, want)
	}
	return nil
}

// checkOrderExpectations verifies the round order against the optional
// "first" and "last" step arguments.
func (r *Runner) checkOrderExpectations(round derby.Round, args map[string]any) error {
	if len(round.Order) == 0 {
		return nil
	}
	if want := optionalString(args, "first_mover", ""); want != "" {
		if got := round.Order[0].Name(); got != want {
			return r.assertf("round %d: first mover = %s, want %s", round.Number, got, want)
		}
	}
	if want := optionalString(args, "last_mover", ""); want != "" {
		if got := round.Order[len(round.Order)-1].Name(); got != want {
			return r.assertf("round %d: last mover = %s, want %s", round.Number, got, want)
		}
	}
	return nil
}

// checkWinners verifies a finish-line stack against the named list
// argument when the script provides one.
func (r *Runner) checkWinners(winners []*derby.Cube, args map[string]any, key string) error {
	want := stringList(args, key)
	if len(want) == 0 {
		return nil
	}
	got := make([]string, len(winners))
	for i, c := range winners {
		got[i] = c.Name()
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return r.assertf("%s = [%s], want [%s]", key, strings.Join(got, ", "), strings.Join(want, ", "))
	}
	return nil
}
