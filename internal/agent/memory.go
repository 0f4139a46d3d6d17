// Package agent contains the per-seat decision stack: observable memory,
// the memory query tools exposed to models, the observation builder and the
// LLM-backed agent driver.
package agent

import (
	"strings"

	"github.com/cardroom/pokerbench/poker"
)

// ObservedAction is one action an agent witnessed during play.
type ObservedAction struct {
	HandNumber int    `json:"hand_number,omitempty"`
	Street     string `json:"street"`
	Seat       int    `json:"seat"`
	Player     string `json:"player"`
	Action     string `json:"action"`
	Amount     int    `json:"amount,omitempty"`
}

// HandRecord is one completed hand from the owning agent's perspective. It
// holds only information the agent legally observed.
type HandRecord struct {
	HandNumber int              `json:"hand_number"`
	Position   string           `json:"position"`
	HoleCards  []string         `json:"hole_cards"`
	Community  []string         `json:"community_cards"`
	Actions    []ObservedAction `json:"actions"`
	Showdowns  map[int][]string `json:"showdown_cards,omitempty"`
	Result     string           `json:"result"`
	ChipsWon   int              `json:"chips_won"`
	Pot        int              `json:"pot_size"`
	FinalStack int              `json:"final_stack"`
}

// Memory is a seat's grow-only record of what it has seen this tournament.
// It is written by the manager's event fan-out and read by the query tools.
// Not safe for concurrent use; each seat is driven single-threaded.
type Memory struct {
	agentName string
	seat      int
	hands     []HandRecord
	current   *HandRecord
}

// NewMemory creates an empty memory for a seat.
func NewMemory(agentName string, seat int) *Memory {
	return &Memory{agentName: agentName, seat: seat}
}

// Seat returns the owning seat number.
func (m *Memory) Seat() int { return m.seat }

// StartHand begins recording a new hand.
func (m *Memory) StartHand(handNumber int, hole []poker.Card, position string) {
	m.current = &HandRecord{
		HandNumber: handNumber,
		Position:   position,
		HoleCards:  poker.CardStrings(hole),
		Result:     "folded",
	}
}

// RecordAction records an observed action in the current hand.
func (m *Memory) RecordAction(street string, seat int, player, action string, amount int) {
	if m.current == nil {
		return
	}
	m.current.Actions = append(m.current.Actions, ObservedAction{
		Street: street,
		Seat:   seat,
		Player: player,
		Action: action,
		Amount: amount,
	})
}

// UpdateCommunity replaces the current hand's board.
func (m *Memory) UpdateCommunity(cards []poker.Card) {
	if m.current != nil {
		m.current.Community = poker.CardStrings(cards)
	}
}

// RecordShowdown records hole cards revealed at showdown.
func (m *Memory) RecordShowdown(seat int, cards []poker.Card) {
	if m.current == nil {
		return
	}
	if m.current.Showdowns == nil {
		m.current.Showdowns = make(map[int][]string)
	}
	m.current.Showdowns[seat] = poker.CardStrings(cards)
}

// EndHand finalizes the current hand record. result is one of "won",
// "lost", "folded" or "split".
func (m *Memory) EndHand(result string, chipsWon, pot, finalStack int) {
	if m.current == nil {
		return
	}
	m.current.Result = result
	m.current.ChipsWon = chipsWon
	m.current.Pot = pot
	m.current.FinalStack = finalStack
	m.hands = append(m.hands, *m.current)
	m.current = nil
}

// Hands returns all completed hand records, oldest first.
func (m *Memory) Hands() []HandRecord {
	return append([]HandRecord(nil), m.hands...)
}

// OpponentFilter narrows an OpponentActions query. Zero values match
// everything.
type OpponentFilter struct {
	Seat   int
	Name   string
	Street string
	Action string
	Limit  int
}

// OpponentShowdown is one revealed opponent holding.
type OpponentShowdown struct {
	HandNumber int      `json:"hand_number"`
	Cards      []string `json:"cards"`
	Community  []string `json:"community_cards"`
}

// OpponentReport is the result of an OpponentActions query.
type OpponentReport struct {
	TotalFound int                `json:"total_actions_found"`
	Actions    []ObservedAction   `json:"actions"`
	Showdowns  []OpponentShowdown `json:"showdowns"`
}

// OpponentActions returns opponents' past actions matching the filter,
// oldest first, keeping the most recent limit entries. Showdown holdings
// are included when the filter names a seat.
func (m *Memory) OpponentActions(f OpponentFilter) OpponentReport {
	if f.Limit <= 0 {
		f.Limit = 20
	}

	var actions []ObservedAction
	for _, h := range m.hands {
		for _, a := range h.Actions {
			if a.Seat == m.seat {
				continue
			}
			if f.Seat != 0 && a.Seat != f.Seat {
				continue
			}
			if f.Name != "" && !strings.EqualFold(a.Player, f.Name) {
				continue
			}
			if f.Street != "" && !strings.EqualFold(a.Street, f.Street) {
				continue
			}
			if f.Action != "" && !strings.EqualFold(a.Action, f.Action) {
				continue
			}
			a.HandNumber = h.HandNumber
			actions = append(actions, a)
		}
	}
	actions = tail(actions, f.Limit)

	var showdowns []OpponentShowdown
	if f.Seat != 0 {
		for _, h := range m.hands {
			if cards, ok := h.Showdowns[f.Seat]; ok {
				showdowns = append(showdowns, OpponentShowdown{
					HandNumber: h.HandNumber,
					Cards:      cards,
					Community:  h.Community,
				})
			}
		}
		showdowns = tail(showdowns, 5)
	}

	return OpponentReport{
		TotalFound: len(actions),
		Actions:    actions,
		Showdowns:  showdowns,
	}
}

// HandSummary is a compact hand view for query results.
type HandSummary struct {
	HandNumber int              `json:"hand_number"`
	Position   string           `json:"position"`
	HoleCards  []string         `json:"hole_cards"`
	Community  []string         `json:"community_cards"`
	Result     string           `json:"result"`
	ChipsWon   int              `json:"chips_won"`
	Pot        int              `json:"pot_size"`
	Actions    []ObservedAction `json:"actions,omitempty"`
	Showdowns  map[int][]string `json:"showdown_cards,omitempty"`
}

// OwnReport is the result of a MyHands query.
type OwnReport struct {
	TotalHands int           `json:"total_hands_played"`
	Wins       int           `json:"wins"`
	Folds      int           `json:"folds"`
	WinRate    float64       `json:"win_rate"`
	Hands      []HandSummary `json:"hands"`
}

// MyHands returns the agent's own hand history, optionally filtered by
// result and position, with win/fold tallies over the whole history.
func (m *Memory) MyHands(result, position string, limit int) OwnReport {
	if limit <= 0 {
		limit = 10
	}

	var matched []HandRecord
	for _, h := range m.hands {
		if result != "" && !strings.EqualFold(h.Result, result) {
			continue
		}
		if position != "" && !strings.EqualFold(h.Position, position) {
			continue
		}
		matched = append(matched, h)
	}
	matched = tail(matched, limit)

	report := OwnReport{TotalHands: len(m.hands)}
	for _, h := range m.hands {
		switch h.Result {
		case "won":
			report.Wins++
		case "folded":
			report.Folds++
		}
	}
	if report.TotalHands > 0 {
		report.WinRate = float64(report.Wins) / float64(report.TotalHands)
	}

	for _, h := range matched {
		s := summarize(h)
		// Own actions only in the per-hand detail.
		for _, a := range h.Actions {
			if a.Seat == m.seat {
				s.Actions = append(s.Actions, a)
			}
		}
		report.Hands = append(report.Hands, s)
	}
	return report
}

// SearchReport is the result of a Search query.
type SearchReport struct {
	Query   string        `json:"query"`
	Matches int           `json:"matches_found"`
	Hands   []HandSummary `json:"hands"`
}

// Search performs a case-insensitive substring search over cards,
// positions, results, player names and action names.
func (m *Memory) Search(query string, limit int) SearchReport {
	if limit <= 0 {
		limit = 10
	}
	q := strings.ToLower(query)

	var matched []HandRecord
	for _, h := range m.hands {
		if handMatches(h, q) {
			matched = append(matched, h)
		}
	}
	matched = tail(matched, limit)

	report := SearchReport{Query: query, Matches: len(matched)}
	for _, h := range matched {
		s := summarize(h)
		s.Actions = h.Actions
		s.Showdowns = h.Showdowns
		report.Hands = append(report.Hands, s)
	}
	return report
}

func handMatches(h HandRecord, q string) bool {
	for _, c := range h.HoleCards {
		if strings.Contains(strings.ToLower(c), q) {
			return true
		}
	}
	for _, c := range h.Community {
		if strings.Contains(strings.ToLower(c), q) {
			return true
		}
	}
	if strings.Contains(strings.ToLower(h.Position), q) {
		return true
	}
	if strings.Contains(strings.ToLower(h.Result), q) {
		return true
	}
	for _, a := range h.Actions {
		if strings.Contains(strings.ToLower(a.Action), q) || strings.Contains(strings.ToLower(a.Player), q) {
			return true
		}
	}
	return false
}

func summarize(h HandRecord) HandSummary {
	return HandSummary{
		HandNumber: h.HandNumber,
		Position:   h.Position,
		HoleCards:  h.HoleCards,
		Community:  h.Community,
		Result:     h.Result,
		ChipsWon:   h.ChipsWon,
		Pot:        h.Pot,
	}
}

// tail keeps the last n elements of s.
func tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
