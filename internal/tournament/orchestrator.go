package tournament

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/cardroom/pokerbench/internal/agent"
	"github.com/cardroom/pokerbench/internal/benchlog"
	"github.com/cardroom/pokerbench/internal/game"
)

// ManagerFactory builds a fresh agent manager for one run. Each run gets
// its own manager, memories and agents so concurrent runs never share
// mutable state.
type ManagerFactory func(run int, logger *log.Logger) (*agent.Manager, error)

// OrchestratorConfig drives a whole benchmark: K tournaments with
// per-run seeds derived from the base.
type OrchestratorConfig struct {
	Runs          int
	SeedBase      int64
	Parallel      int
	StartingStack int
	BlindLevels   []game.BlindLevel
	LogDir        string
}

// Orchestrator runs the configured number of tournaments and aggregates
// their results. A failed run is recorded and skipped; the remaining runs
// continue.
type Orchestrator struct {
	cfg      OrchestratorConfig
	factory  ManagerFactory
	logger   *log.Logger
	reporter *benchlog.Reporter
	progress ProgressSink

	failures []RunFailure
}

// RunFailure records a run that did not finish.
type RunFailure struct {
	Run   int
	Seed  int64
	Error string
}

// NewOrchestrator wires the orchestrator. A nil progress sink discards
// events.
func NewOrchestrator(cfg OrchestratorConfig, factory ManagerFactory, logger *log.Logger, progress ProgressSink) *Orchestrator {
	if progress == nil {
		progress = NopSink{}
	}
	return &Orchestrator{
		cfg:      cfg,
		factory:  factory,
		logger:   logger.WithPrefix("bench"),
		reporter: benchlog.NewReporter(cfg.LogDir),
		progress: progress,
	}
}

// Reporter exposes the aggregate reporter.
func (o *Orchestrator) Reporter() *benchlog.Reporter { return o.reporter }

// Failures returns the runs that errored, ordered by run number.
func (o *Orchestrator) Failures() []RunFailure {
	return append([]RunFailure(nil), o.failures...)
}

// Run executes all tournaments and writes the cross-run summary. It
// returns the summary along with an error if every run failed.
func (o *Orchestrator) Run(ctx context.Context) (benchlog.Summary, error) {
	if err := os.MkdirAll(o.cfg.LogDir, 0o755); err != nil {
		return benchlog.Summary{}, fmt.Errorf("creating log dir: %w", err)
	}

	parallel := o.cfg.Parallel
	if parallel < 1 {
		parallel = 1
	}
	o.logger.Info("benchmark starting", "runs", o.cfg.Runs, "parallel", parallel, "seed_base", o.cfg.SeedBase)

	failures := make([]RunFailure, o.cfg.Runs)
	failed := make([]bool, o.cfg.Runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for run := 1; run <= o.cfg.Runs; run++ {
		g.Go(func() error {
			seed := o.cfg.SeedBase + int64(run)
			if err := o.runOne(gctx, run, seed); err != nil {
				o.logger.Error("run failed", "run", run, "seed", seed, "error", err)
				o.progress.RunCompleted(run, 0, "", err)
				failures[run-1] = RunFailure{Run: run, Seed: seed, Error: err.Error()}
				failed[run-1] = true
			}
			return nil
		})
	}
	// Workers never return errors; Wait only observes context cancellation.
	_ = g.Wait()

	for i, f := range failed {
		if f {
			o.failures = append(o.failures, failures[i])
		}
	}

	if err := o.reporter.SaveSummary(); err != nil {
		return benchlog.Summary{}, err
	}

	summary := o.reporter.Summary()
	if summary.NumRuns == 0 {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("benchmark aborted: %w", err)
		}
		return summary, fmt.Errorf("all %d runs failed", o.cfg.Runs)
	}

	var hands Sample
	for _, res := range o.reporter.Results() {
		hands.Add(float64(res.TotalHands))
	}
	o.logger.Info("benchmark complete",
		"runs", summary.NumRuns,
		"mean_hands", hands.Mean(),
		"median_hands", hands.Median(),
		"stddev_hands", hands.StdDev(),
		"ci95_hands", hands.ConfidenceInterval95())
	return summary, nil
}

func (o *Orchestrator) runOne(ctx context.Context, run int, seed int64) error {
	schedule, err := game.NewBlindSchedule(o.cfg.BlindLevels)
	if err != nil {
		return err
	}

	runLogger := o.logger.With("run", run)
	manager, err := o.factory(run, runLogger)
	if err != nil {
		return fmt.Errorf("building agents: %w", err)
	}

	runner, err := NewRunner(Config{
		RunNumber:     run,
		Seed:          seed,
		StartingStack: o.cfg.StartingStack,
		Schedule:      schedule,
		LogDir:        filepath.Join(o.cfg.LogDir, fmt.Sprintf("tournament_%03d", run)),
	}, manager, runLogger, o.progress)
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	o.reporter.Add(*result)
	return o.reporter.SaveRunResults(*result)
}
