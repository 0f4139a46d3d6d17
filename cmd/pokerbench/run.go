package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/cardroom/pokerbench/internal/agent"
	"github.com/cardroom/pokerbench/internal/config"
	"github.com/cardroom/pokerbench/internal/llm"
	"github.com/cardroom/pokerbench/internal/progress"
	"github.com/cardroom/pokerbench/internal/tournament"
)

// RunCmd runs the configured benchmark.
type RunCmd struct {
	Config     string `kong:"default='bench.hcl',help='Path to the HCL configuration file'"`
	Verbose    bool   `kong:"help='Also log to stderr at debug level'"`
	NoProgress bool   `kong:"name='no-progress',help='Disable the interactive progress dashboard'"`
}

func (c *RunCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if c.Verbose {
		cfg.Output.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logDir := cfg.Output.LogDir
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	logger, closeLog, err := setupLogger(logDir, cfg.Output.Verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	display := c.newDisplay(cfg, logger)
	if err := display.Start(); err != nil {
		return err
	}

	orch := tournament.NewOrchestrator(tournament.OrchestratorConfig{
		Runs:          cfg.Tournament.Runs,
		SeedBase:      cfg.Tournament.SeedBase,
		Parallel:      cfg.Tournament.Parallel,
		StartingStack: cfg.Tournament.StartingStack,
		BlindLevels:   cfg.BlindLevels(),
		LogDir:        logDir,
	}, managerFactory(cfg, logger), logger, display)

	_, runErr := orch.Run(ctx)
	display.Stop()

	orch.Reporter().PrintSummary(os.Stdout)
	for _, f := range orch.Failures() {
		fmt.Fprintf(os.Stderr, "run %d (seed %d) failed: %s\n", f.Run, f.Seed, f.Error)
	}
	return runErr
}

func (c *RunCmd) newDisplay(cfg *config.Config, logger *log.Logger) progress.Display {
	if c.NoProgress || !isatty.IsTerminal(os.Stdout.Fd()) {
		return progress.NewPlain(logger)
	}
	return progress.NewTUI(cfg.Tournament.Runs)
}

// managerFactory builds one seat map per run: fresh memories and agents
// sharing a single transport client.
func managerFactory(cfg *config.Config, logger *log.Logger) tournament.ManagerFactory {
	return func(run int, runLogger *log.Logger) (*agent.Manager, error) {
		client := llm.NewClient(llm.ConfigFromEnv(), runLogger, nil)
		manager := agent.NewManager(runLogger)
		for i, ac := range cfg.Agents {
			seat := i + 1
			memory := agent.NewMemory(ac.Name, seat)
			opts := agent.Options{
				MaxRetries:              cfg.AgentSettings.MaxRetries,
				MaxTurns:                cfg.AgentSettings.MaxTurns,
				Temperature:             cfg.AgentSettings.Temperature,
				Reasoning:               ac.ReasoningOptions(),
				Provider:                ac.ProviderOptions(),
				PreserveReasoningBlocks: ac.PreserveReasoningBlocks(),
			}
			manager.AddSeat(seat, agent.NewLLMAgent(ac.Name, ac.Model, seat, memory, client, runLogger, nil, opts), memory)
		}
		return manager, nil
	}
}

// setupLogger writes structured logs to pokerbench.log in the log dir; with
// verbose they also go to stderr.
func setupLogger(logDir string, verbose bool) (*log.Logger, func(), error) {
	logFile, err := os.OpenFile(filepath.Join(logDir, "pokerbench.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	var w io.Writer = logFile
	level := log.InfoLevel
	if verbose {
		w = io.MultiWriter(logFile, os.Stderr)
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return logger, func() { logFile.Close() }, nil
}
