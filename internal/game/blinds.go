package game

import (
	"errors"
	"fmt"
)

// BlindLevel is one step of the escalation schedule. Hands == 0 means the
// level never expires, which is only legal for the final level.
type BlindLevel struct {
	Level      int `json:"level"`
	Hands      int `json:"hands"`
	SmallBlind int `json:"small_blind"`
	BigBlind   int `json:"big_blind"`
}

// Infinite reports whether the level serves indefinitely.
func (l BlindLevel) Infinite() bool {
	return l.Hands == 0
}

// BlindSchedule maps hand numbers to blind levels. Levels consume their
// hand quota in order; the final level serves forever.
type BlindSchedule struct {
	levels []BlindLevel
}

var errEmptySchedule = errors.New("blind schedule must have at least one level")

// NewBlindSchedule validates the levels and builds a schedule. Levels are
// renumbered 1..n in the order given.
func NewBlindSchedule(levels []BlindLevel) (*BlindSchedule, error) {
	if len(levels) == 0 {
		return nil, errEmptySchedule
	}
	out := make([]BlindLevel, len(levels))
	copy(out, levels)
	for i := range out {
		out[i].Level = i + 1
		last := i == len(out)-1

		if out[i].SmallBlind <= 0 {
			return nil, fmt.Errorf("blind level %d: small blind must be positive", i+1)
		}
		if out[i].BigBlind <= out[i].SmallBlind {
			return nil, fmt.Errorf("blind level %d: big blind must exceed small blind", i+1)
		}
		if i > 0 && out[i].BigBlind <= out[i-1].BigBlind {
			return nil, fmt.Errorf("blind level %d: big blind must increase (got %d after %d)",
				i+1, out[i].BigBlind, out[i-1].BigBlind)
		}
		if last {
			if !out[i].Infinite() {
				return nil, fmt.Errorf("final blind level must be infinite (hands = 0)")
			}
		} else {
			if out[i].Hands <= 0 {
				return nil, fmt.Errorf("blind level %d: hands must be positive", i+1)
			}
		}
	}
	return &BlindSchedule{levels: out}, nil
}

// ForHand returns the level in force for hand number h (1-based).
func (s *BlindSchedule) ForHand(h int) BlindLevel {
	if h < 1 {
		h = 1
	}
	remaining := h
	for _, level := range s.levels {
		if level.Infinite() || remaining <= level.Hands {
			return level
		}
		remaining -= level.Hands
	}
	return s.levels[len(s.levels)-1]
}

// Blinds returns the small and big blind for hand number h.
func (s *BlindSchedule) Blinds(h int) (sb, bb int) {
	level := s.ForHand(h)
	return level.SmallBlind, level.BigBlind
}

// Level returns the 1-based level number for hand number h.
func (s *BlindSchedule) Level(h int) int {
	return s.ForHand(h).Level
}

// Levels returns a copy of the schedule's levels.
func (s *BlindSchedule) Levels() []BlindLevel {
	out := make([]BlindLevel, len(s.levels))
	copy(out, s.levels)
	return out
}
