package benchlog

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/cardroom/pokerbench/internal/fileutil"
)

// TournamentResult is the outcome of a single tournament run.
type TournamentResult struct {
	RunNumber  int                   `json:"run_number"`
	Seed       int64                 `json:"seed"`
	TotalHands int                   `json:"total_hands"`
	Placements map[string]int        `json:"placements"`
	AgentStats map[string]AgentStats `json:"agent_stats"`
}

// LeaderboardEntry is one row of the cross-run leaderboard.
type LeaderboardEntry struct {
	Name         string  `json:"name"`
	AvgPlacement float64 `json:"avg_placement"`
	Wins         int     `json:"wins"`
}

// AgentDetail aggregates one agent's results across runs.
type AgentDetail struct {
	AvgPlacement      float64 `json:"avg_placement"`
	Wins              int     `json:"wins"`
	Placements        []int   `json:"placements"`
	InvalidActionRate float64 `json:"invalid_action_rate"`
}

// Telemetry is the benchmark-wide counters block.
type Telemetry struct {
	TotalHands            int                `json:"total_hands"`
	AvgHandsPerTournament float64            `json:"avg_hands_per_tournament"`
	InvalidActionRate     map[string]float64 `json:"invalid_action_rate"`
}

// Summary is the cross-run report written as summary.json.
type Summary struct {
	NumRuns      int                    `json:"num_runs"`
	Leaderboard  []LeaderboardEntry     `json:"leaderboard"`
	AgentDetails map[string]AgentDetail `json:"agent_details"`
	Telemetry    Telemetry              `json:"telemetry"`
}

// Reporter aggregates results across tournament runs. Add is safe to call
// from concurrent runs.
type Reporter struct {
	logDir string

	mu      sync.Mutex
	results []TournamentResult
}

// NewReporter creates a reporter rooted at the benchmark log directory.
func NewReporter(logDir string) *Reporter {
	return &Reporter{logDir: logDir}
}

// Add records a completed run.
func (r *Reporter) Add(result TournamentResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

// Results returns the recorded runs ordered by run number.
func (r *Reporter) Results() []TournamentResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]TournamentResult(nil), r.results...)
	sort.Slice(out, func(i, j int) bool { return out[i].RunNumber < out[j].RunNumber })
	return out
}

// SaveRunResults writes tournament_KKK/results.json for one run.
func (r *Reporter) SaveRunResults(result TournamentResult) error {
	path := filepath.Join(r.logDir, fmt.Sprintf("tournament_%03d", result.RunNumber), "results.json")
	return fileutil.WriteJSON(path, result)
}

// Summary builds the cross-run report.
func (r *Reporter) Summary() Summary {
	results := r.Results()

	details := make(map[string]AgentDetail)
	names := map[string]bool{}
	for _, res := range results {
		for name := range res.Placements {
			names[name] = true
		}
	}

	for name := range names {
		var placements []int
		wins, retries, decisions := 0, 0, 0
		for _, res := range results {
			if p, ok := res.Placements[name]; ok {
				placements = append(placements, p)
				if p == 1 {
					wins++
				}
			}
			if st, ok := res.AgentStats[name]; ok {
				retries += st.TotalRetries
				decisions += st.TotalDecisions
			}
		}

		d := AgentDetail{Wins: wins, Placements: placements}
		if len(placements) > 0 {
			sum := 0
			for _, p := range placements {
				sum += p
			}
			d.AvgPlacement = round2(float64(sum) / float64(len(placements)))
		}
		if decisions > 0 {
			d.InvalidActionRate = round4(float64(retries) / float64(decisions))
		}
		details[name] = d
	}

	var leaderboard []LeaderboardEntry
	for name, d := range details {
		leaderboard = append(leaderboard, LeaderboardEntry{
			Name:         name,
			AvgPlacement: d.AvgPlacement,
			Wins:         d.Wins,
		})
	}
	sort.Slice(leaderboard, func(i, j int) bool {
		if leaderboard[i].AvgPlacement != leaderboard[j].AvgPlacement {
			return leaderboard[i].AvgPlacement < leaderboard[j].AvgPlacement
		}
		return leaderboard[i].Name < leaderboard[j].Name
	})

	totalHands := 0
	for _, res := range results {
		totalHands += res.TotalHands
	}
	avgHands := 0.0
	if len(results) > 0 {
		avgHands = round1(float64(totalHands) / float64(len(results)))
	}
	invalidRates := make(map[string]float64, len(details))
	for name, d := range details {
		invalidRates[name] = d.InvalidActionRate
	}

	return Summary{
		NumRuns:      len(results),
		Leaderboard:  leaderboard,
		AgentDetails: details,
		Telemetry: Telemetry{
			TotalHands:            totalHands,
			AvgHandsPerTournament: avgHands,
			InvalidActionRate:     invalidRates,
		},
	}
}

// SaveSummary writes summary.json in the log directory.
func (r *Reporter) SaveSummary() error {
	return fileutil.WriteJSON(filepath.Join(r.logDir, "summary.json"), r.Summary())
}

var (
	summaryTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205")).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true)

	leaderNameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// PrintSummary renders the human-readable leaderboard.
func (r *Reporter) PrintSummary(w io.Writer) {
	s := r.Summary()

	fmt.Fprintln(w)
	fmt.Fprintln(w, summaryTitleStyle.Render("TOURNAMENT SUMMARY"))
	fmt.Fprintf(w, "Runs: %d    Hands: %d    Avg hands/run: %.1f\n\n",
		s.NumRuns, s.Telemetry.TotalHands, s.Telemetry.AvgHandsPerTournament)

	fmt.Fprintln(w, "Leaderboard:")
	for i, e := range s.Leaderboard {
		fmt.Fprintf(w, "  %d. %s  avg placement %.2f, wins %d\n",
			i+1, leaderNameStyle.Render(e.Name), e.AvgPlacement, e.Wins)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Invalid action rates:")
	var names []string
	for name := range s.Telemetry.InvalidActionRate {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render(
			fmt.Sprintf("%s: %.2f%%", name, s.Telemetry.InvalidActionRate[name]*100)))
	}
	fmt.Fprintln(w)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
