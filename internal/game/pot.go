package game

import (
	"sort"
)

// Pot is a main or side pot: an amount and the seats eligible to win it.
// Eligible seats are ascending.
type Pot struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
}

// BuildPots constructs the pot layering from per-hand contributions.
// Levels are the sorted distinct contribution totals across all players;
// each layer between consecutive levels collects every contribution that
// reaches into it, folded players' chips included. Eligibility for a layer
// is restricted to non-folded seats that covered it. Adjacent layers with
// identical eligible sets merge, so a folded player's contribution level
// never splits a pot.
func BuildPots(players []*Player) []Pot {
	levels := make([]int, 0, len(players))
	seen := make(map[int]bool)
	for _, p := range players {
		if p.BetThisHand > 0 && !seen[p.BetThisHand] {
			seen[p.BetThisHand] = true
			levels = append(levels, p.BetThisHand)
		}
	}
	sort.Ints(levels)

	var pots []Pot
	prev := 0
	for _, level := range levels {
		amount := 0
		var eligible []int
		for _, p := range players {
			if p.BetThisHand > prev {
				amount += min(p.BetThisHand, level) - prev
			}
			if !p.Folded && p.BetThisHand >= level {
				eligible = append(eligible, p.Seat)
			}
		}
		sort.Ints(eligible)
		prev = level
		if amount == 0 {
			continue
		}
		if n := len(pots); n > 0 && equalSeats(pots[n-1].Eligible, eligible) {
			pots[n-1].Amount += amount
			continue
		}
		pots = append(pots, Pot{Amount: amount, Eligible: eligible})
	}
	return pots
}

// PotTotal sums all pot amounts.
func PotTotal(pots []Pot) int {
	total := 0
	for _, pot := range pots {
		total += pot.Amount
	}
	return total
}

func equalSeats(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
