package game

import (
	"fmt"
	"sort"

	"github.com/cardroom/pokerbench/poker"
)

// Outcome is a seat's result for one hand.
type Outcome string

const (
	OutcomeWon    Outcome = "won"
	OutcomeLost   Outcome = "lost"
	OutcomeFolded Outcome = "folded"
	OutcomeSplit  Outcome = "split"
)

// SeatResult is the per-seat settlement summary.
type SeatResult struct {
	Outcome Outcome
	Payout  int // chips won from the pots
	Delta   int // net chips for the hand (payout minus contributions)
}

// Settlement describes how a completed hand paid out.
type Settlement struct {
	Pots     []Pot
	Winners  []int       // seats that won any pot, ascending
	Payouts  map[int]int // seat -> chips won
	Results  map[int]SeatResult
	Showdown map[int][]poker.Card // hole cards revealed at showdown
	Rankings map[int]poker.HandRank
	// WinningRank is the strongest rank at showdown (0 for uncontested pots).
	WinningRank poker.HandRank
}

// finishUncontested awards the pot to the last seat still in the hand.
// No cards are revealed.
func (h *HandState) finishUncontested() error {
	var winner *Player
	for _, p := range h.players {
		if p.InHand() {
			winner = p
			break
		}
	}
	if winner == nil {
		return fmt.Errorf("uncontested hand with no live seat")
	}

	winner.Stack += h.pot
	s := &Settlement{
		Pots:     []Pot{{Amount: h.pot, Eligible: []int{winner.Seat}}},
		Winners:  []int{winner.Seat},
		Payouts:  map[int]int{winner.Seat: h.pot},
		Results:  make(map[int]SeatResult),
		Showdown: map[int][]poker.Card{},
		Rankings: map[int]poker.HandRank{},
	}
	for _, p := range h.players {
		r := SeatResult{Outcome: OutcomeFolded, Delta: -p.BetThisHand}
		if p == winner {
			r = SeatResult{Outcome: OutcomeWon, Payout: h.pot, Delta: h.pot - p.BetThisHand}
		}
		s.Results[p.Seat] = r
	}
	h.settlement = s
	h.complete = true
	h.actionIdx = -1
	return nil
}

// settleShowdown builds the pot layering, ranks the live hands and pays
// every pot to the best eligible hand, splitting ties evenly with odd chips
// going one at a time clockwise from the first winner left of the button.
func (h *HandState) settleShowdown() error {
	pots := BuildPots(h.players)
	if total := PotTotal(pots); total != h.pot {
		return fmt.Errorf("side pot sum %d does not match pot %d", total, h.pot)
	}

	board := poker.NewHand(h.community...)
	rankings := make(map[int]poker.HandRank)
	showdown := make(map[int][]poker.Card)
	for _, p := range h.players {
		if !p.InHand() {
			continue
		}
		rankings[p.Seat] = poker.Evaluate(poker.NewHand(p.HoleCards...), board)
		showdown[p.Seat] = append([]poker.Card(nil), p.HoleCards...)
	}

	payouts := make(map[int]int)
	winnersSet := make(map[int]bool)
	var best poker.HandRank
	for _, pot := range pots {
		potWinners := bestSeats(pot.Eligible, rankings)
		if len(potWinners) == 0 {
			return fmt.Errorf("pot of %d has no eligible live seat", pot.Amount)
		}
		ordered := h.clockwiseFromButton(potWinners)
		share := pot.Amount / len(ordered)
		remainder := pot.Amount % len(ordered)
		for i, seat := range ordered {
			amount := share
			if i < remainder {
				amount++
			}
			payouts[seat] += amount
			winnersSet[seat] = true
		}
		if r := rankings[ordered[0]]; best == 0 || r < best {
			best = r
		}
	}

	s := &Settlement{
		Pots:        pots,
		Payouts:     payouts,
		Results:     make(map[int]SeatResult),
		Showdown:    showdown,
		Rankings:    rankings,
		WinningRank: best,
	}
	for seat := range winnersSet {
		s.Winners = append(s.Winners, seat)
	}
	sort.Ints(s.Winners)

	for _, p := range h.players {
		payout := payouts[p.Seat]
		p.Stack += payout

		var outcome Outcome
		switch {
		case p.Folded:
			outcome = OutcomeFolded
		case payout == 0:
			outcome = OutcomeLost
		case sharedAnyPot(p.Seat, pots, rankings):
			outcome = OutcomeSplit
		default:
			outcome = OutcomeWon
		}
		s.Results[p.Seat] = SeatResult{
			Outcome: outcome,
			Payout:  payout,
			Delta:   payout - p.BetThisHand,
		}
	}

	h.settlement = s
	h.complete = true
	return nil
}

// bestSeats returns the eligible seats holding the minimum (strongest) rank.
func bestSeats(eligible []int, rankings map[int]poker.HandRank) []int {
	var best poker.HandRank
	var out []int
	for _, seat := range eligible {
		r, ok := rankings[seat]
		if !ok {
			continue
		}
		switch {
		case len(out) == 0 || r < best:
			best = r
			out = out[:0]
			out = append(out, seat)
		case r == best:
			out = append(out, seat)
		}
	}
	sort.Ints(out)
	return out
}

// sharedAnyPot reports whether the seat tied with another seat in any pot it
// was eligible for and won.
func sharedAnyPot(seat int, pots []Pot, rankings map[int]poker.HandRank) bool {
	for _, pot := range pots {
		winners := bestSeats(pot.Eligible, rankings)
		if len(winners) < 2 {
			continue
		}
		for _, w := range winners {
			if w == seat {
				return true
			}
		}
	}
	return false
}

// clockwiseFromButton orders the given seats by table position starting
// with the first seat left of the button.
func (h *HandState) clockwiseFromButton(seats []int) []int {
	member := make(map[int]bool, len(seats))
	for _, s := range seats {
		member[s] = true
	}
	out := make([]int, 0, len(seats))
	start := h.buttonIdx()
	for step := 1; step <= len(h.players); step++ {
		p := h.players[(start+step)%len(h.players)]
		if member[p.Seat] {
			out = append(out, p.Seat)
		}
	}
	return out
}
