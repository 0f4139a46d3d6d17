package agent

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/cardroom/pokerbench/internal/llm"
	"github.com/cardroom/pokerbench/poker"
)

// Agent decides actions for one seat.
type Agent interface {
	Name() string
	Decide(ctx context.Context, obs Observation) (AgentAction, error)
}

// SeatStats are per-seat decision counters for the final report.
type SeatStats struct {
	Decisions int       `json:"decisions"`
	Retries   int       `json:"retries"`
	Forced    int       `json:"forced_actions"`
	ToolCalls int       `json:"tool_calls"`
	Usage     llm.Usage `json:"token_usage"`
}

// InvalidRate is the share of decisions that needed at least one retry or
// were forced.
func (s SeatStats) InvalidRate() float64 {
	if s.Decisions == 0 {
		return 0
	}
	invalid := s.Forced
	if s.Retries > invalid {
		invalid = s.Retries
	}
	if invalid > s.Decisions {
		invalid = s.Decisions
	}
	return float64(invalid) / float64(s.Decisions)
}

// HandOutcome is one seat's result passed to EndHand.
type HandOutcome struct {
	Result     string
	ChipsWon   int
	FinalStack int
}

// Manager owns the seat to agent and seat to memory maps, fans game events
// out to the seats still in the tournament, and tracks per-seat decision
// stats. Eliminated seats stop receiving events and actions.
type Manager struct {
	logger   *log.Logger
	agents   map[int]Agent
	memories map[int]*Memory
	active   map[int]bool
	stats    map[int]*SeatStats
}

// NewManager creates an empty manager.
func NewManager(logger *log.Logger) *Manager {
	return &Manager{
		logger:   logger.WithPrefix("agents"),
		agents:   make(map[int]Agent),
		memories: make(map[int]*Memory),
		active:   make(map[int]bool),
		stats:    make(map[int]*SeatStats),
	}
}

// AddSeat registers an agent and its memory at a seat.
func (m *Manager) AddSeat(seat int, a Agent, mem *Memory) {
	m.agents[seat] = a
	m.memories[seat] = mem
	m.active[seat] = true
	m.stats[seat] = &SeatStats{}
}

// Agent returns the agent at a seat, or nil.
func (m *Manager) Agent(seat int) Agent { return m.agents[seat] }

// Memory returns the memory for a seat, or nil.
func (m *Manager) Memory(seat int) *Memory { return m.memories[seat] }

// Name returns the display name for a seat.
func (m *Manager) Name(seat int) string {
	if a, ok := m.agents[seat]; ok {
		return a.Name()
	}
	return fmt.Sprintf("seat_%d", seat)
}

// IsActive reports whether a seat is still in the tournament.
func (m *Manager) IsActive(seat int) bool { return m.active[seat] }

// ActiveSeats returns the seats still in the tournament, ascending.
func (m *Manager) ActiveSeats() []int {
	var seats []int
	for seat, on := range m.active {
		if on {
			seats = append(seats, seat)
		}
	}
	sort.Ints(seats)
	return seats
}

// Eliminate removes a seat from event routing.
func (m *Manager) Eliminate(seat int) {
	if m.active[seat] {
		m.active[seat] = false
		m.logger.Info("seat eliminated", "seat", seat, "agent", m.Name(seat))
	}
}

// GetAction asks the seat's agent for a decision and folds the outcome
// into the seat's stats.
func (m *Manager) GetAction(ctx context.Context, seat int, obs Observation) (AgentAction, error) {
	a, ok := m.agents[seat]
	if !ok {
		return AgentAction{}, fmt.Errorf("no agent at seat %d", seat)
	}

	action, err := a.Decide(ctx, obs)
	if err != nil {
		return AgentAction{}, err
	}

	st := m.stats[seat]
	st.Decisions++
	st.Retries += action.Retries
	if action.Forced {
		st.Forced++
	}
	if la, ok := a.(*LLMAgent); ok && len(la.traces) > 0 {
		last := la.traces[len(la.traces)-1]
		st.ToolCalls += len(last.ToolCalls)
		st.Usage.PromptTokens += last.Usage.PromptTokens
		st.Usage.CompletionTokens += last.Usage.CompletionTokens
		st.Usage.TotalTokens += last.Usage.TotalTokens
	}
	return action, nil
}

// Stats returns a copy of the per-seat counters.
func (m *Manager) Stats(seat int) SeatStats {
	if st, ok := m.stats[seat]; ok {
		return *st
	}
	return SeatStats{}
}

// StartHand notifies active seats of a new hand. Each seat sees only its
// own hole cards.
func (m *Manager) StartHand(handNumber int, holeCards map[int][]poker.Card, buttonSeat int) {
	activeSeats := m.ActiveSeats()
	for _, seat := range activeSeats {
		cards, ok := holeCards[seat]
		if !ok {
			continue
		}
		position := PositionName(seat, buttonSeat, activeSeats)
		m.memories[seat].StartHand(handNumber, cards, position)
	}
}

// RecordAction fans an observed action out to all active seats.
func (m *Manager) RecordAction(street string, seat int, kind string, amount int) {
	name := m.Name(seat)
	for _, s := range m.ActiveSeats() {
		m.memories[s].RecordAction(street, seat, name, kind, amount)
	}
}

// UpdateCommunity fans the board out to all active seats.
func (m *Manager) UpdateCommunity(cards []poker.Card) {
	for _, s := range m.ActiveSeats() {
		m.memories[s].UpdateCommunity(cards)
	}
}

// RecordShowdown fans a revealed holding out to all active seats.
func (m *Manager) RecordShowdown(seat int, cards []poker.Card) {
	for _, s := range m.ActiveSeats() {
		m.memories[s].RecordShowdown(seat, cards)
	}
}

// EndHand finalizes the hand in every active seat's memory.
func (m *Manager) EndHand(results map[int]HandOutcome, pot int) {
	for _, s := range m.ActiveSeats() {
		r, ok := results[s]
		if !ok {
			r = HandOutcome{Result: "folded"}
		}
		m.memories[s].EndHand(r.Result, r.ChipsWon, pot, r.FinalStack)
	}
}

// DrainTraces collects and clears decision traces from every LLM-backed
// seat, keyed by seat.
func (m *Manager) DrainTraces() map[int][]DecisionTrace {
	out := make(map[int][]DecisionTrace)
	for seat, a := range m.agents {
		if la, ok := a.(*LLMAgent); ok {
			if traces := la.DrainTraces(); len(traces) > 0 {
				out[seat] = traces
			}
		}
	}
	return out
}
