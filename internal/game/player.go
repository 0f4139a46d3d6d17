// Package game implements the No-Limit Texas Hold'em engine: blind
// schedules, the action algebra, the per-hand betting state machine and
// side-pot settlement. The engine is deterministic for a given RNG and
// action sequence.
package game

import (
	"github.com/cardroom/pokerbench/poker"
)

// Player is one seat's state. Stack and per-hand betting fields are owned by
// the hand state machine while a hand is in flight; the tournament runner
// owns the struct across hands.
type Player struct {
	Seat  int // 1-based table seat, stable for the whole tournament
	Name  string
	Stack int

	HoleCards []poker.Card

	// Per-hand state, reset by each NewHand.
	BetThisRound int
	BetThisHand  int
	HasActed     bool
	AllIn        bool
	Folded       bool
}

// InHand reports whether the player still holds cards (has not folded).
func (p *Player) InHand() bool {
	return !p.Folded
}

// CanAct reports whether the player can still make a betting decision.
func (p *Player) CanAct() bool {
	return !p.Folded && !p.AllIn
}

// ToCall returns the amount needed to match currentBet.
func (p *Player) ToCall(currentBet int) int {
	if d := currentBet - p.BetThisRound; d > 0 {
		return d
	}
	return 0
}

func (p *Player) resetForHand() {
	p.HoleCards = nil
	p.BetThisRound = 0
	p.BetThisHand = 0
	p.HasActed = false
	p.AllIn = false
	p.Folded = false
}

// commit moves up to n chips from the stack into the current bet and
// returns the amount actually committed. Committing the whole stack marks
// the player all-in.
func (p *Player) commit(n int) int {
	if n > p.Stack {
		n = p.Stack
	}
	p.Stack -= n
	p.BetThisRound += n
	p.BetThisHand += n
	if p.Stack == 0 {
		p.AllIn = true
	}
	return n
}
