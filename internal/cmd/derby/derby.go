// Package derby parses derby command flags and runs races on the
// in-process engine.
package derby

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/echovale/cubederby/internal/derby"
	dservice "github.com/echovale/cubederby/internal/derby/service"
	"github.com/echovale/cubederby/internal/derby/storage/sqlite"
	entrypoint "github.com/echovale/cubederby/internal/platform/cmd"
)

// Config holds derby command configuration.
type Config struct {
	Mode     string `env:"CUBEDERBY_MODE"    envDefault:"full"`
	Cubes    string `env:"CUBEDERBY_CUBES"`
	Pads     int    `env:"CUBEDERBY_PADS"`
	Runs     int    `env:"CUBEDERBY_RUNS"    envDefault:"10000"`
	Seed     int64  `env:"CUBEDERBY_SEED"`
	Shuffle  bool   `env:"CUBEDERBY_SHUFFLE" envDefault:"true"`
	Workers  int    `env:"CUBEDERBY_WORKERS"`
	Trace    bool   `env:"CUBEDERBY_TRACE"`
	Store    string `env:"CUBEDERBY_STORE"`
	Camellya bool   `env:"CUBEDERBY_CAMELLYA_TRIGGER"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "run mode: full, half, batch, or cubes")
	fs.StringVar(&cfg.Cubes, "cubes", cfg.Cubes, "comma-separated cube names (defaults to the event roster)")
	fs.IntVar(&cfg.Pads, "pads", cfg.Pads, "first-leg track length in pads")
	fs.IntVar(&cfg.Runs, "runs", cfg.Runs, "matches to race in batch mode")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "dice seed (0 draws a random one)")
	fs.BoolVar(&cfg.Shuffle, "shuffle", cfg.Shuffle, "shuffle the starting stack order")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "parallel matches in batch mode")
	fs.BoolVar(&cfg.Trace, "trace", cfg.Trace, "print every round of a match run")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "SQLite file for batch aggregates (empty keeps batches unpersisted)")
	fs.BoolVar(&cfg.Camellya, "camellya-trigger", cfg.Camellya, "arm the corrected Camellya group boost")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the derby command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceDerby, func(ctx context.Context) error {
		return run(ctx, cfg, out)
	})
}

func run(ctx context.Context, cfg Config, out io.Writer) error {
	var opts []dservice.Option
	if cfg.Store != "" {
		store, err := sqlite.Open(cfg.Store)
		if err != nil {
			return fmt.Errorf("open batch store: %w", err)
		}
		defer store.Close()
		opts = append(opts, dservice.WithStore(store))
	}
	svc := dservice.New(opts...)

	switch cfg.Mode {
	case "full", "half":
		return runMatch(ctx, svc, cfg, out)
	case "batch":
		return runBatch(ctx, svc, cfg, out)
	case "cubes":
		return listCubes(svc, out)
	default:
		return fmt.Errorf("unknown mode %q (want full, half, batch, or cubes)", cfg.Mode)
	}
}

func runMatch(ctx context.Context, svc *dservice.Service, cfg Config, out io.Writer) error {
	req := dservice.MatchRequest{
		Names:    roster(cfg.Cubes),
		Pads:     cfg.Pads,
		Seed:     cfg.Seed,
		Shuffle:  cfg.Shuffle,
		HalfOnly: cfg.Mode == "half",
		Rules:    derby.Ruleset{CamellyaTrigger: cfg.Camellya},
	}
	if cfg.Trace {
		req.OnRound = func(trace dservice.RoundTrace) {
			printRound(out, trace)
		}
	}
	report, err := svc.RunMatch(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "seed %d, %d pads\n", report.Seed, report.Pads)
	fmt.Fprintf(out, "first leg: %s\n", strings.Join(report.FirstLeg, ", "))
	if len(report.SecondLeg) > 0 {
		fmt.Fprintf(out, "second leg: %s\n", strings.Join(report.SecondLeg, ", "))
	}
	for _, standing := range report.Standings {
		fmt.Fprintf(out, "%2d. %s (pad %d)\n", standing.Rank, standing.Name, standing.Pad)
	}
	return nil
}

func runBatch(ctx context.Context, svc *dservice.Service, cfg Config, out io.Writer) error {
	report, err := svc.RunBatch(ctx, dservice.BatchRequest{
		Names:   roster(cfg.Cubes),
		Pads:    cfg.Pads,
		Runs:    cfg.Runs,
		Seed:    cfg.Seed,
		Shuffle: cfg.Shuffle,
		Workers: cfg.Workers,
		Rules:   derby.Ruleset{CamellyaTrigger: cfg.Camellya},
	})
	if err != nil {
		return err
	}

	printer := message.NewPrinter(language.English)
	printer.Fprintf(out, "%d runs, seed %d\n", report.Result.Runs, report.Seed)
	for _, rate := range report.Result.Rates {
		printer.Fprintf(out, "%-14s %6.2f%%  (%d wins)\n", rate.Name, rate.Share*100, rate.Wins)
	}
	for _, failure := range report.Result.Failures {
		printer.Fprintf(out, "run %d failed: %v\n", failure.Run, failure.Err)
	}
	if report.SavedID != 0 {
		printer.Fprintf(out, "saved batch %d to %s\n", report.SavedID, cfg.Store)
	}
	return nil
}

func listCubes(svc *dservice.Service, out io.Writer) error {
	for _, info := range svc.Catalog() {
		fmt.Fprintf(out, "%s: %s\n", info.Name, info.Description)
	}
	return nil
}

// printRound renders one resolved round: the order with each cube's
// roll, then the occupied pads front to back.
func printRound(out io.Writer, trace dservice.RoundTrace) {
	round := trace.Round
	turns := make([]string, len(round.Order))
	for i, c := range round.Order {
		roll := round.Rolls[i]
		if roll.Bonus != 0 {
			turns[i] = fmt.Sprintf("%s %d+%d", c.Name(), roll.Base, roll.Bonus)
		} else {
			turns[i] = fmt.Sprintf("%s %d", c.Name(), roll.Base)
		}
	}
	fmt.Fprintf(out, "leg %d round %d: %s\n", round.Leg, round.Number, strings.Join(turns, ", "))
	for _, group := range trace.Standings {
		names := make([]string, len(group.Cubes))
		for i, c := range group.Cubes {
			names[i] = c.Name()
		}
		fmt.Fprintf(out, "  pad %2d: %s\n", group.Pad, strings.Join(names, ", "))
	}
	if len(round.Winners) > 0 {
		names := make([]string, len(round.Winners))
		for i, c := range round.Winners {
			names[i] = c.Name()
		}
		fmt.Fprintf(out, "  winners: %s\n", strings.Join(names, ", "))
	}
}

// roster splits the configured cube list, falling back to the event
// roster when nothing is configured.
func roster(cubes string) []string {
	if strings.TrimSpace(cubes) == "" {
		return derby.DefaultRoster()
	}
	parts := strings.Split(cubes, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
