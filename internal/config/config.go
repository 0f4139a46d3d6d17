// Package config loads and validates the benchmark's HCL configuration and
// provides the pre-flight health checker.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/cardroom/pokerbench/internal/game"
	"github.com/cardroom/pokerbench/internal/llm"
)

// Config is the complete benchmark configuration.
type Config struct {
	Tournament    TournamentConfig `hcl:"tournament,block"`
	Agents        []AgentConfig    `hcl:"agent,block"`
	AgentSettings *AgentSettings   `hcl:"agent_settings,block"`
	Output        *OutputConfig    `hcl:"output,block"`
}

// TournamentConfig shapes the tournament series.
type TournamentConfig struct {
	Runs          int                `hcl:"runs,optional"`
	Seats         int                `hcl:"seats,optional"`
	StartingStack int                `hcl:"starting_stack,optional"`
	SeedBase      int64              `hcl:"seed_base,optional"`
	Parallel      int                `hcl:"parallel,optional"`
	BlindLevels   []BlindLevelConfig `hcl:"blind_level,block"`
}

// BlindLevelConfig is one blind level; hands = 0 means the level lasts
// forever and is only allowed on the final level.
type BlindLevelConfig struct {
	Hands      int `hcl:"hands"`
	SmallBlind int `hcl:"small_blind"`
	BigBlind   int `hcl:"big_blind"`
}

// AgentConfig describes one seated model.
type AgentConfig struct {
	Name      string           `hcl:"name,label"`
	Model     string           `hcl:"model"`
	Reasoning *ReasoningConfig `hcl:"reasoning,block"`
	Provider  *ProviderConfig  `hcl:"provider,block"`
}

// ReasoningConfig controls provider reasoning tokens for one agent.
type ReasoningConfig struct {
	Enabled        bool   `hcl:"enabled,optional"`
	Effort         string `hcl:"effort,optional"`
	MaxTokens      int    `hcl:"max_tokens,optional"`
	Include        bool   `hcl:"include,optional"`
	PreserveBlocks bool   `hcl:"preserve_blocks,optional"`
}

// ProviderConfig is the OpenRouter provider routing preference for one
// agent.
type ProviderConfig struct {
	Order             []string `hcl:"order,optional"`
	AllowFallbacks    *bool    `hcl:"allow_fallbacks,optional"`
	RequireParameters bool     `hcl:"require_parameters,optional"`
	DataCollection    string   `hcl:"data_collection,optional"`
	Only              []string `hcl:"only,optional"`
	Ignore            []string `hcl:"ignore,optional"`
	Quantizations     []string `hcl:"quantizations,optional"`
}

// AgentSettings are shared decision-protocol knobs.
type AgentSettings struct {
	MaxRetries  int      `hcl:"max_retries,optional"`
	MaxTurns    int      `hcl:"max_turns,optional"`
	Temperature *float64 `hcl:"temperature,optional"`
}

// OutputConfig controls where artifacts land.
type OutputConfig struct {
	LogDir  string `hcl:"log_dir,optional"`
	Verbose bool   `hcl:"verbose,optional"`
}

// Default returns the configuration defaults applied after decoding.
func Default() *Config {
	return &Config{
		Tournament: TournamentConfig{
			Runs:          1,
			StartingStack: 200,
			SeedBase:      42,
			Parallel:      1,
			BlindLevels: []BlindLevelConfig{
				{Hands: 20, SmallBlind: 1, BigBlind: 2},
				{Hands: 20, SmallBlind: 2, BigBlind: 4},
				{Hands: 0, SmallBlind: 4, BigBlind: 8},
			},
		},
		AgentSettings: &AgentSettings{
			MaxRetries: 3,
			MaxTurns:   5,
		},
		Output: &OutputConfig{
			LogDir: "logs",
		},
	}
}

// Load reads, decodes and defaults a configuration file. Agents must be
// declared in the file, so a missing file is an error.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("config file %s: %w", filename, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Tournament.Runs == 0 {
		c.Tournament.Runs = defaults.Tournament.Runs
	}
	if c.Tournament.Seats == 0 {
		c.Tournament.Seats = len(c.Agents)
	}
	if c.Tournament.StartingStack == 0 {
		c.Tournament.StartingStack = defaults.Tournament.StartingStack
	}
	if c.Tournament.SeedBase == 0 {
		c.Tournament.SeedBase = defaults.Tournament.SeedBase
	}
	if c.Tournament.Parallel == 0 {
		c.Tournament.Parallel = defaults.Tournament.Parallel
	}
	if len(c.Tournament.BlindLevels) == 0 {
		c.Tournament.BlindLevels = defaults.Tournament.BlindLevels
	}

	if c.AgentSettings == nil {
		c.AgentSettings = defaults.AgentSettings
	} else {
		if c.AgentSettings.MaxRetries == 0 {
			c.AgentSettings.MaxRetries = defaults.AgentSettings.MaxRetries
		}
		if c.AgentSettings.MaxTurns == 0 {
			c.AgentSettings.MaxTurns = defaults.AgentSettings.MaxTurns
		}
	}

	if c.Output == nil {
		c.Output = defaults.Output
	} else if c.Output.LogDir == "" {
		c.Output.LogDir = defaults.Output.LogDir
	}
}

var validEfforts = map[string]bool{
	"low":    true,
	"medium": true,
	"high":   true,
	"xhigh":  true,
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	t := c.Tournament
	if t.Runs < 1 {
		return fmt.Errorf("tournament: runs must be at least 1, got %d", t.Runs)
	}
	if t.Seats < 2 || t.Seats > 8 {
		return fmt.Errorf("tournament: seats must be between 2 and 8, got %d", t.Seats)
	}
	if len(c.Agents) != t.Seats {
		return fmt.Errorf("tournament: %d seats configured but %d agents declared", t.Seats, len(c.Agents))
	}
	if t.StartingStack < 1 {
		return fmt.Errorf("tournament: starting stack must be positive, got %d", t.StartingStack)
	}
	if t.Parallel < 1 {
		return fmt.Errorf("tournament: parallel must be at least 1, got %d", t.Parallel)
	}

	if err := c.validateSchedule(); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("agent: name label is required")
		}
		if seen[a.Name] {
			return fmt.Errorf("agent %s: duplicate name", a.Name)
		}
		seen[a.Name] = true
		if a.Model == "" {
			return fmt.Errorf("agent %s: model is required", a.Name)
		}
		if r := a.Reasoning; r != nil && r.Effort != "" && !validEfforts[r.Effort] {
			return fmt.Errorf("agent %s: invalid reasoning effort %q", a.Name, r.Effort)
		}
		if p := a.Provider; p != nil && p.DataCollection != "" &&
			p.DataCollection != "allow" && p.DataCollection != "deny" {
			return fmt.Errorf("agent %s: data_collection must be allow or deny, got %q", a.Name, p.DataCollection)
		}
	}

	if c.AgentSettings.MaxRetries < 1 {
		return fmt.Errorf("agent_settings: max_retries must be at least 1, got %d", c.AgentSettings.MaxRetries)
	}
	if c.AgentSettings.MaxTurns < 1 {
		return fmt.Errorf("agent_settings: max_turns must be at least 1, got %d", c.AgentSettings.MaxTurns)
	}
	if temp := c.AgentSettings.Temperature; temp != nil && (*temp < 0 || *temp > 2) {
		return fmt.Errorf("agent_settings: temperature must be between 0 and 2, got %g", *temp)
	}

	if c.Output.LogDir == "" {
		return fmt.Errorf("output: log_dir is required")
	}
	return nil
}

func (c *Config) validateSchedule() error {
	levels := c.Tournament.BlindLevels
	if len(levels) == 0 {
		return fmt.Errorf("tournament: at least one blind_level is required")
	}
	prevBig := 0
	for i, l := range levels {
		last := i == len(levels)-1
		if l.Hands < 0 {
			return fmt.Errorf("blind_level %d: hands cannot be negative", i+1)
		}
		if l.Hands == 0 && !last {
			return fmt.Errorf("blind_level %d: only the final level may last forever", i+1)
		}
		if last && l.Hands != 0 {
			return fmt.Errorf("blind_level %d: the final level must last forever (hands = 0)", i+1)
		}
		if l.SmallBlind < 1 {
			return fmt.Errorf("blind_level %d: small blind must be positive", i+1)
		}
		if l.BigBlind <= l.SmallBlind {
			return fmt.Errorf("blind_level %d: big blind must exceed the small blind", i+1)
		}
		if l.BigBlind <= prevBig {
			return fmt.Errorf("blind_level %d: big blind must increase level over level", i+1)
		}
		prevBig = l.BigBlind
	}
	return nil
}

// BlindLevels converts the schedule into engine blind levels.
func (c *Config) BlindLevels() []game.BlindLevel {
	out := make([]game.BlindLevel, 0, len(c.Tournament.BlindLevels))
	for _, l := range c.Tournament.BlindLevels {
		out = append(out, game.BlindLevel{
			Hands:      l.Hands,
			SmallBlind: l.SmallBlind,
			BigBlind:   l.BigBlind,
		})
	}
	return out
}

// ReasoningOptions maps the agent's reasoning block onto transport options.
// Returns nil when reasoning is not enabled.
func (a AgentConfig) ReasoningOptions() *llm.ReasoningOptions {
	r := a.Reasoning
	if r == nil || !r.Enabled {
		return nil
	}
	return &llm.ReasoningOptions{
		Effort:    r.Effort,
		MaxTokens: r.MaxTokens,
		Exclude:   !r.Include,
	}
}

// ProviderOptions maps the agent's provider block onto transport options.
func (a AgentConfig) ProviderOptions() *llm.ProviderOptions {
	p := a.Provider
	if p == nil {
		return nil
	}
	return &llm.ProviderOptions{
		Order:             append([]string(nil), p.Order...),
		AllowFallbacks:    p.AllowFallbacks,
		RequireParameters: p.RequireParameters,
		DataCollection:    p.DataCollection,
		Only:              append([]string(nil), p.Only...),
		Ignore:            append([]string(nil), p.Ignore...),
		Quantizations:     append([]string(nil), p.Quantizations...),
	}
}

// PreserveReasoningBlocks reports whether the agent should echo opaque
// provider reasoning blocks back on later turns.
func (a AgentConfig) PreserveReasoningBlocks() bool {
	return a.Reasoning != nil && a.Reasoning.Enabled && a.Reasoning.PreserveBlocks
}
