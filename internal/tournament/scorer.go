// Package tournament drives complete tournaments: the single-run hand loop,
// the placement scorer and the multi-run orchestrator.
package tournament

import (
	"fmt"
	"sort"
)

// Elimination records one seat busting out.
type Elimination struct {
	Seat       int    `json:"seat"`
	AgentName  string `json:"agent_name"`
	HandNumber int    `json:"hand_number"`
}

// Scorer tracks elimination order and turns it into final placements.
// Seats that bust on the same hand share a placement.
type Scorer struct {
	names        map[int]string
	active       map[int]bool
	eliminations []Elimination
}

// NewScorer creates an empty scorer; seats join via RegisterPlayer.
func NewScorer() *Scorer {
	return &Scorer{
		names:  make(map[int]string),
		active: make(map[int]bool),
	}
}

// RegisterPlayer adds a seat to the tournament.
func (s *Scorer) RegisterPlayer(seat int, name string) {
	s.names[seat] = name
	s.active[seat] = true
}

// RecordEliminations marks a group of seats as busted on the same hand.
// The whole group shares one placement.
func (s *Scorer) RecordEliminations(handNumber int, seats []int) {
	for _, seat := range seats {
		if !s.active[seat] {
			continue
		}
		s.active[seat] = false
		s.eliminations = append(s.eliminations, Elimination{
			Seat:       seat,
			AgentName:  s.nameFor(seat),
			HandNumber: handNumber,
		})
	}
}

// IsOver reports whether at most one seat remains.
func (s *Scorer) IsOver() bool {
	return len(s.Survivors()) <= 1
}

// Survivors returns the seats still in, ascending.
func (s *Scorer) Survivors() []int {
	var seats []int
	for seat, on := range s.active {
		if on {
			seats = append(seats, seat)
		}
	}
	sort.Ints(seats)
	return seats
}

// Winner returns the sole surviving seat, if the tournament has one.
func (s *Scorer) Winner() (int, bool) {
	survivors := s.Survivors()
	if len(survivors) == 1 {
		return survivors[0], true
	}
	return 0, false
}

// Eliminations returns the bust-out log in chronological order.
func (s *Scorer) Eliminations() []Elimination {
	return append([]Elimination(nil), s.eliminations...)
}

// Placements computes the final placement per seat: survivors place 1st,
// then elimination groups fill the remaining ranks from the most recent
// bust backwards. A group of k busting on the same hand all take the best
// of the k ranks it spans.
func (s *Scorer) Placements() map[int]int {
	placements := make(map[int]int)
	survivors := s.Survivors()
	for _, seat := range survivors {
		placements[seat] = 1
	}

	byHand := make(map[int][]Elimination)
	var handNumbers []int
	for _, e := range s.eliminations {
		if _, ok := byHand[e.HandNumber]; !ok {
			handNumbers = append(handNumbers, e.HandNumber)
		}
		byHand[e.HandNumber] = append(byHand[e.HandNumber], e)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(handNumbers)))

	next := len(survivors) + 1
	for _, hand := range handNumbers {
		group := byHand[hand]
		for _, e := range group {
			placements[e.Seat] = next
		}
		next += len(group)
	}
	return placements
}

// PlacementsByName keys the placements by agent name.
func (s *Scorer) PlacementsByName() map[string]int {
	out := make(map[string]int)
	for seat, p := range s.Placements() {
		out[s.nameFor(seat)] = p
	}
	return out
}

func (s *Scorer) nameFor(seat int) string {
	if name, ok := s.names[seat]; ok {
		return name
	}
	return fmt.Sprintf("player_%d", seat)
}
