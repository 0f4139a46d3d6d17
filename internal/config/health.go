package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/cardroom/pokerbench/internal/llm"
)

// CheckStatus is the outcome of one health check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// CheckResult is one row of the health report.
type CheckResult struct {
	Name   string
	Status CheckStatus
	Detail string
}

// Report is the full pre-flight health report.
type Report struct {
	Results []CheckResult
}

// Failed reports whether any check failed.
func (r Report) Failed() bool {
	for _, res := range r.Results {
		if res.Status == StatusFail {
			return true
		}
	}
	return false
}

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	nameStyle = lipgloss.NewStyle().Width(28)
)

// Render writes the report as aligned pass/warn/fail rows.
func (r Report) Render(w io.Writer) {
	for _, res := range r.Results {
		style := passStyle
		switch res.Status {
		case StatusWarn:
			style = warnStyle
		case StatusFail:
			style = failStyle
		}
		fmt.Fprintf(w, "%s %s  %s\n",
			style.Render(fmt.Sprintf("[%s]", res.Status)),
			nameStyle.Render(res.Name),
			res.Detail)
	}
}

// Prober issues the tiny connectivity completion for one model.
type Prober interface {
	Call(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// HealthChecker verifies the benchmark can run before any chips move:
// config readable and valid, API key present, log directory writable and
// per-agent options coherent. With a prober it also sends one minimal
// completion per distinct model.
type HealthChecker struct {
	path   string
	prober Prober
}

// NewHealthChecker checks the configuration at path.
func NewHealthChecker(path string) *HealthChecker {
	return &HealthChecker{path: path}
}

// WithProber enables per-model connectivity probes.
func (h *HealthChecker) WithProber(p Prober) *HealthChecker {
	h.prober = p
	return h
}

// Run executes all checks and returns the report.
func (h *HealthChecker) Run(ctx context.Context) Report {
	var report Report
	add := func(name string, status CheckStatus, detail string) {
		report.Results = append(report.Results, CheckResult{Name: name, Status: status, Detail: detail})
	}

	cfg, err := Load(h.path)
	if err != nil {
		add("config file", StatusFail, err.Error())
		return report
	}
	add("config file", StatusPass, h.path)

	if err := cfg.Validate(); err != nil {
		add("config schema", StatusFail, err.Error())
		return report
	}
	add("config schema", StatusPass,
		fmt.Sprintf("%d runs, %d seats, %d blind levels",
			cfg.Tournament.Runs, cfg.Tournament.Seats, len(cfg.Tournament.BlindLevels)))

	if os.Getenv(llm.APIKeyEnv) == "" {
		add("api key", StatusFail, llm.APIKeyEnv+" is not set")
	} else {
		add("api key", StatusPass, llm.APIKeyEnv+" is set")
	}

	h.checkLogDir(cfg, add)
	h.checkSchedule(cfg, add)
	h.checkAgentOptions(cfg, add)

	if h.prober != nil {
		h.probeModels(ctx, cfg, add)
	}
	return report
}

func (h *HealthChecker) checkLogDir(cfg *Config, add func(string, CheckStatus, string)) {
	dir := cfg.Output.LogDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		add("log dir", StatusFail, fmt.Sprintf("cannot create %s: %v", dir, err))
		return
	}
	probe, err := os.CreateTemp(dir, ".health-*")
	if err != nil {
		add("log dir", StatusFail, fmt.Sprintf("%s is not writable: %v", dir, err))
		return
	}
	probe.Close()
	os.Remove(probe.Name())
	add("log dir", StatusPass, dir+" is writable")

	if _, err := os.Stat(filepath.Join(dir, "summary.json")); err == nil {
		add("log dir", StatusWarn, dir+" holds results from a previous run")
	}
}

func (h *HealthChecker) checkSchedule(cfg *Config, add func(string, CheckStatus, string)) {
	first := cfg.Tournament.BlindLevels[0]
	stackBB := cfg.Tournament.StartingStack / first.BigBlind
	switch {
	case stackBB < 10:
		add("blind schedule", StatusWarn,
			fmt.Sprintf("starting stack is only %d big blinds; tournaments will be very short", stackBB))
	default:
		add("blind schedule", StatusPass,
			fmt.Sprintf("starting stack is %d big blinds", stackBB))
	}
}

func (h *HealthChecker) checkAgentOptions(cfg *Config, add func(string, CheckStatus, string)) {
	for _, a := range cfg.Agents {
		name := "agent " + a.Name
		r := a.Reasoning
		switch {
		case r == nil:
			add(name, StatusPass, a.Model)
		case r.Enabled && r.Effort == "" && r.MaxTokens == 0:
			add(name, StatusWarn, "reasoning enabled without effort or max_tokens; provider default applies")
		case !r.Enabled && (r.Effort != "" || r.MaxTokens != 0 || r.Include || r.PreserveBlocks):
			add(name, StatusWarn, "reasoning options set but enabled = false; they will be ignored")
		default:
			add(name, StatusPass, a.Model)
		}
	}
}

func (h *HealthChecker) probeModels(ctx context.Context, cfg *Config, add func(string, CheckStatus, string)) {
	models := make(map[string]bool)
	for _, a := range cfg.Agents {
		models[a.Model] = true
	}
	var sorted []string
	for m := range models {
		sorted = append(sorted, m)
	}
	sort.Strings(sorted)

	for _, model := range sorted {
		resp, err := h.prober.Call(ctx, llm.Request{
			Model:     model,
			Messages:  []llm.Message{{Role: llm.RoleUser, Content: "Reply with the single word OK."}},
			MaxTokens: 16,
		})
		if err != nil {
			add("model "+model, StatusFail, err.Error())
			continue
		}
		add("model "+model, StatusPass,
			fmt.Sprintf("responded via %s (%d tokens)", resp.Provider, resp.Usage.TotalTokens))
	}
}
