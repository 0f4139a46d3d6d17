package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/pokerbench/internal/llm"
)

func healthyConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`
tournament {
  seats = 2
  blind_level {
    hands = 0
    small_blind = 1
    big_blind = 2
  }
}
agent "a" { model = "m/a" }
agent "b" { model = "m/b" }
output { log_dir = %q }
`, filepath.Join(dir, "logs"))
	path := filepath.Join(dir, "bench.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func resultFor(report Report, name string) (CheckResult, bool) {
	for _, r := range report.Results {
		if r.Name == name {
			return r, true
		}
	}
	return CheckResult{}, false
}

func TestHealthCheckAllPass(t *testing.T) {
	t.Setenv(llm.APIKeyEnv, "sk-test")

	report := NewHealthChecker(healthyConfig(t)).Run(context.Background())
	assert.False(t, report.Failed())

	for _, name := range []string{"config file", "config schema", "api key", "log dir"} {
		res, ok := resultFor(report, name)
		require.True(t, ok, "missing check %q", name)
		assert.Equal(t, StatusPass, res.Status, "%s: %s", name, res.Detail)
	}
}

func TestHealthCheckMissingAPIKey(t *testing.T) {
	t.Setenv(llm.APIKeyEnv, "")

	report := NewHealthChecker(healthyConfig(t)).Run(context.Background())
	assert.True(t, report.Failed())

	res, ok := resultFor(report, "api key")
	require.True(t, ok)
	assert.Equal(t, StatusFail, res.Status)
}

func TestHealthCheckUnreadableConfig(t *testing.T) {
	t.Parallel()

	report := NewHealthChecker(filepath.Join(t.TempDir(), "missing.hcl")).Run(context.Background())
	assert.True(t, report.Failed())
	require.Len(t, report.Results, 1, "later checks are skipped when the config cannot load")
	assert.Equal(t, StatusFail, report.Results[0].Status)
}

func TestHealthCheckInvalidSchemaStops(t *testing.T) {
	t.Setenv(llm.APIKeyEnv, "sk-test")

	dir := t.TempDir()
	path := filepath.Join(dir, "bench.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
tournament {
  seats = 1
  blind_level {
    hands = 0
    small_blind = 1
    big_blind = 2
  }
}
agent "a" { model = "m/a" }
`), 0o644))

	report := NewHealthChecker(path).Run(context.Background())
	assert.True(t, report.Failed())

	res, ok := resultFor(report, "config schema")
	require.True(t, ok)
	assert.Equal(t, StatusFail, res.Status)
	assert.Contains(t, res.Detail, "seats")

	_, ok = resultFor(report, "api key")
	assert.False(t, ok)
}

func TestHealthCheckShortStackWarns(t *testing.T) {
	t.Setenv(llm.APIKeyEnv, "sk-test")

	dir := t.TempDir()
	path := filepath.Join(dir, "bench.hcl")
	content := fmt.Sprintf(`
tournament {
  seats          = 2
  starting_stack = 10
  blind_level {
    hands = 0
    small_blind = 1
    big_blind = 2
  }
}
agent "a" { model = "m/a" }
agent "b" { model = "m/b" }
output { log_dir = %q }
`, filepath.Join(dir, "logs"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	report := NewHealthChecker(path).Run(context.Background())
	assert.False(t, report.Failed(), "warnings are not failures")

	res, ok := resultFor(report, "blind schedule")
	require.True(t, ok)
	assert.Equal(t, StatusWarn, res.Status)
}

func TestHealthCheckReasoningCoherence(t *testing.T) {
	t.Setenv(llm.APIKeyEnv, "sk-test")

	dir := t.TempDir()
	path := filepath.Join(dir, "bench.hcl")
	content := fmt.Sprintf(`
tournament {
  seats = 2
  blind_level {
    hands = 0
    small_blind = 1
    big_blind = 2
  }
}
agent "bare" {
  model = "m/a"
  reasoning {
    enabled = true
  }
}
agent "ignored" {
  model = "m/b"
  reasoning {
    enabled = false
    effort = "high"
  }
}
output { log_dir = %q }
`, filepath.Join(dir, "logs"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	report := NewHealthChecker(path).Run(context.Background())

	res, ok := resultFor(report, "agent bare")
	require.True(t, ok)
	assert.Equal(t, StatusWarn, res.Status)

	res, ok = resultFor(report, "agent ignored")
	require.True(t, ok)
	assert.Equal(t, StatusWarn, res.Status)
	assert.Contains(t, res.Detail, "ignored")
}

// probeStub answers connectivity probes with a canned result per model.
type probeStub struct {
	fail     map[string]bool
	requests []llm.Request
}

func (p *probeStub) Call(_ context.Context, req llm.Request) (*llm.Response, error) {
	p.requests = append(p.requests, req)
	if p.fail[req.Model] {
		return nil, fmt.Errorf("model %s is unreachable", req.Model)
	}
	return &llm.Response{Content: "OK", Provider: "stub", Usage: llm.Usage{TotalTokens: 5}}, nil
}

func TestHealthCheckProbesEachModelOnce(t *testing.T) {
	t.Setenv(llm.APIKeyEnv, "sk-test")

	dir := t.TempDir()
	path := filepath.Join(dir, "bench.hcl")
	content := fmt.Sprintf(`
tournament {
  seats = 3
  blind_level {
    hands = 0
    small_blind = 1
    big_blind = 2
  }
}
agent "a" { model = "m/shared" }
agent "b" { model = "m/shared" }
agent "c" { model = "m/down" }
output { log_dir = %q }
`, filepath.Join(dir, "logs"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	stub := &probeStub{fail: map[string]bool{"m/down": true}}
	report := NewHealthChecker(path).WithProber(stub).Run(context.Background())

	require.Len(t, stub.requests, 2, "duplicate models are probed once")
	assert.True(t, report.Failed())

	res, ok := resultFor(report, "model m/shared")
	require.True(t, ok)
	assert.Equal(t, StatusPass, res.Status)

	res, ok = resultFor(report, "model m/down")
	require.True(t, ok)
	assert.Equal(t, StatusFail, res.Status)
}

func TestReportRender(t *testing.T) {
	t.Parallel()

	report := Report{Results: []CheckResult{
		{Name: "config file", Status: StatusPass, Detail: "bench.hcl"},
		{Name: "api key", Status: StatusFail, Detail: "missing"},
	}}

	var sb strings.Builder
	report.Render(&sb)
	out := sb.String()
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "config file")
	assert.Contains(t, out, "missing")
}
