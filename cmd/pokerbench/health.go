package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/cardroom/pokerbench/internal/config"
	"github.com/cardroom/pokerbench/internal/llm"
)

// HealthCheckCmd verifies the benchmark is runnable without playing hands.
type HealthCheckCmd struct {
	Config      string `kong:"default='bench.hcl',help='Path to the HCL configuration file'"`
	ProbeModels bool   `kong:"name='probe-models',help='Send one tiny completion per configured model'"`
}

func (c *HealthCheckCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := config.NewHealthChecker(c.Config)
	if c.ProbeModels {
		logger := log.New(io.Discard)
		checker = checker.WithProber(llm.NewClient(llm.ConfigFromEnv(), logger, nil))
	}

	report := checker.Run(ctx)
	report.Render(os.Stdout)

	if report.Failed() {
		return fmt.Errorf("health check failed")
	}
	fmt.Println("All checks passed.")
	return nil
}
