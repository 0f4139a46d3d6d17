package benchlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cardroom/pokerbench/internal/agent"
	"github.com/cardroom/pokerbench/internal/fileutil"
	"github.com/cardroom/pokerbench/internal/llm"
)

// AgentStats summarizes one seat's decision quality for the run report.
type AgentStats struct {
	Seat              int     `json:"seat"`
	AgentName         string  `json:"agent_name"`
	TotalDecisions    int     `json:"total_decisions"`
	TotalToolCalls    int     `json:"total_tool_calls"`
	TotalRetries      int     `json:"total_retries"`
	ForcedActions     int     `json:"forced_actions"`
	ErrorCount        int     `json:"error_count"`
	InvalidActionRate float64 `json:"invalid_action_rate"`
}

// AgentLogger collects decision traces per seat and writes them under
// <logDir>/agents/: one file per hand with that hand's decisions, plus a
// per-seat rollup with totals and token usage at the end of the run.
type AgentLogger struct {
	agentsDir string
	names     map[int]string
	traces    map[int][]agent.DecisionTrace
}

// NewAgentLogger creates the agents directory.
func NewAgentLogger(logDir string) (*AgentLogger, error) {
	agentsDir := filepath.Join(logDir, "agents")
	if err := os.MkdirAll(agentsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating agents dir: %w", err)
	}
	return &AgentLogger{
		agentsDir: agentsDir,
		names:     make(map[int]string),
		traces:    make(map[int][]agent.DecisionTrace),
	}, nil
}

// Register announces an agent so its rollup exists even with zero
// decisions.
func (l *AgentLogger) Register(seat int, name string) {
	l.names[seat] = name
	if _, ok := l.traces[seat]; !ok {
		l.traces[seat] = nil
	}
}

// handTraceFile is the per-hand trace bundle across all seats.
type handTraceFile struct {
	HandNumber int                           `json:"hand_number"`
	Decisions  map[int][]agent.DecisionTrace `json:"decisions"`
}

// LogHand appends a hand's traces to each seat's history and writes the
// per-hand bundle.
func (l *AgentLogger) LogHand(handNumber int, traces map[int][]agent.DecisionTrace) error {
	if len(traces) == 0 {
		return nil
	}
	for seat, ts := range traces {
		l.traces[seat] = append(l.traces[seat], ts...)
	}
	path := filepath.Join(l.agentsDir, fmt.Sprintf("hand_%03d.json", handNumber))
	return fileutil.WriteJSON(path, handTraceFile{HandNumber: handNumber, Decisions: traces})
}

// seatRollup is the per-seat summary file.
type seatRollup struct {
	Seat           int                   `json:"seat"`
	AgentName      string                `json:"agent_name"`
	TotalDecisions int                   `json:"total_decisions"`
	TotalToolCalls int                   `json:"total_tool_calls"`
	TotalRetries   int                   `json:"total_retries"`
	TokenUsage     llm.Usage             `json:"token_usage"`
	Traces         []agent.DecisionTrace `json:"traces"`
}

// Save writes one rollup file per registered seat.
func (l *AgentLogger) Save() error {
	for seat, traces := range l.traces {
		name := l.names[seat]
		if name == "" {
			name = fmt.Sprintf("agent_%d", seat)
		}

		rollup := seatRollup{
			Seat:           seat,
			AgentName:      name,
			TotalDecisions: len(traces),
			Traces:         traces,
		}
		for _, t := range traces {
			rollup.TotalToolCalls += len(t.ToolCalls)
			rollup.TotalRetries += t.Retries
			rollup.TokenUsage.PromptTokens += t.Usage.PromptTokens
			rollup.TokenUsage.CompletionTokens += t.Usage.CompletionTokens
			rollup.TokenUsage.TotalTokens += t.Usage.TotalTokens
		}

		path := filepath.Join(l.agentsDir, fmt.Sprintf("seat_%d_%s.json", seat, sanitizeName(name)))
		if err := fileutil.WriteJSON(path, rollup); err != nil {
			return err
		}
	}
	return nil
}

// Stats computes the decision summary for one seat.
func (l *AgentLogger) Stats(seat int) AgentStats {
	traces := l.traces[seat]
	name := l.names[seat]
	if name == "" {
		name = fmt.Sprintf("agent_%d", seat)
	}

	stats := AgentStats{
		Seat:           seat,
		AgentName:      name,
		TotalDecisions: len(traces),
	}
	for _, t := range traces {
		stats.TotalToolCalls += len(t.ToolCalls)
		stats.TotalRetries += t.Retries
		if t.Forced {
			stats.ForcedActions++
		}
		if t.Error != "" {
			stats.ErrorCount++
		}
	}
	if len(traces) > 0 {
		stats.InvalidActionRate = float64(stats.TotalRetries) / float64(len(traces))
	}
	return stats
}

// AllStats returns stats for every registered seat, ascending.
func (l *AgentLogger) AllStats() []AgentStats {
	var seats []int
	for seat := range l.traces {
		seats = append(seats, seat)
	}
	sort.Ints(seats)

	stats := make([]AgentStats, 0, len(seats))
	for _, seat := range seats {
		stats = append(stats, l.Stats(seat))
	}
	return stats
}

// sanitizeName keeps only filename-safe characters.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '_' || r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}
