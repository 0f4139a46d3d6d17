package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cardroom/pokerbench/internal/game"
	"github.com/cardroom/pokerbench/poker"
)

// SeatView is one seat's public state as seen by an observer.
type SeatView struct {
	Seat   int    `json:"seat"`
	Name   string `json:"name"`
	Stack  int    `json:"stack"`
	Folded bool   `json:"folded"`
	Active bool   `json:"active"`
}

// ActionView is one public action in the hand's chronological log.
type ActionView struct {
	Street string `json:"street"`
	Seat   int    `json:"seat"`
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

// LegalActionView is one available action with its raise-to bounds.
type LegalActionView struct {
	Action string `json:"action"`
	Min    int    `json:"min,omitempty"`
	Max    int    `json:"max,omitempty"`
}

// Observation is the full decision-point view for one seat: public state
// plus that seat's own hole cards. ToCall is the outstanding amount for
// this seat, never the table's raw current bet.
type Observation struct {
	HandNumber   int               `json:"hand_number"`
	Street       string            `json:"street"`
	Seat         int               `json:"seat"`
	Position     string            `json:"position"`
	HoleCards    []string          `json:"hole_cards"`
	Stack        int               `json:"stack"`
	Community    []string          `json:"community_cards"`
	Pot          int               `json:"pot"`
	ToCall       int               `json:"to_call"`
	MinRaiseTo   int               `json:"min_raise_to"`
	MaxRaiseTo   int               `json:"max_raise_to"`
	SmallBlind   int               `json:"small_blind"`
	BigBlind     int               `json:"big_blind"`
	ButtonSeat   int               `json:"button_seat"`
	Players      []SeatView        `json:"players"`
	Actions      []ActionView      `json:"actions"`
	LegalActions []LegalActionView `json:"legal_actions"`
}

// PositionName labels a seat by its clockwise rank from the button among
// the active seats: BTN, SB, BB, UTG, MP1..., CO. Heads-up the button is
// BTN (it posts the small blind) and the other seat is BB.
func PositionName(seat, buttonSeat int, activeSeats []int) string {
	seats := append([]int(nil), activeSeats...)
	sort.Ints(seats)
	n := len(seats)
	if n == 0 {
		return "OUT"
	}

	btnIdx, seatIdx := -1, -1
	for i, s := range seats {
		if s == buttonSeat {
			btnIdx = i
		}
		if s == seat {
			seatIdx = i
		}
	}
	if seatIdx < 0 {
		return "OUT"
	}
	if btnIdx < 0 {
		btnIdx = 0
	}

	rel := ((seatIdx-btnIdx)%n + n) % n
	switch {
	case rel == 0:
		return "BTN"
	case rel == 1:
		if n == 2 {
			return "BB"
		}
		return "SB"
	case rel == 2:
		return "BB"
	case rel == 3:
		return "UTG"
	case rel == n-1:
		return "CO"
	default:
		return fmt.Sprintf("MP%d", rel-3)
	}
}

// BuildObservation snapshots the hand for one seat. names maps seats to
// display names.
func BuildObservation(h *game.HandState, seat int, names func(int) string) Observation {
	me := h.Player(seat)
	view := h.BettingView()
	toCall := me.ToCall(view.CurrentBet)
	maxTotal := me.Stack + me.BetThisRound

	var activeSeats []int
	var players []SeatView
	for _, p := range h.Players() {
		activeSeats = append(activeSeats, p.Seat)
		players = append(players, SeatView{
			Seat:   p.Seat,
			Name:   names(p.Seat),
			Stack:  p.Stack,
			Folded: p.Folded,
			Active: true,
		})
	}

	var actions []ActionView
	for _, a := range h.Actions() {
		actions = append(actions, ActionView{
			Street: a.Street.String(),
			Seat:   a.Seat,
			Action: a.Kind.String(),
			Amount: a.Amount,
		})
	}

	var legal []LegalActionView
	for _, la := range h.LegalActionsFor(seat) {
		legal = append(legal, LegalActionView{
			Action: la.Kind.String(),
			Min:    la.Min,
			Max:    la.Max,
		})
	}

	return Observation{
		HandNumber:   h.HandNumber(),
		Street:       h.Street().String(),
		Seat:         seat,
		Position:     PositionName(seat, h.ButtonSeat(), activeSeats),
		HoleCards:    poker.CardStrings(me.HoleCards),
		Stack:        me.Stack,
		Community:    poker.CardStrings(h.Community()),
		Pot:          view.Pot,
		ToCall:       toCall,
		MinRaiseTo:   min(view.MinRaiseTo(), maxTotal),
		MaxRaiseTo:   maxTotal,
		SmallBlind:   h.SmallBlind(),
		BigBlind:     h.BigBlind(),
		ButtonSeat:   h.ButtonSeat(),
		Players:      players,
		Actions:      actions,
		LegalActions: legal,
	}
}

// Legal returns the legal-action entry for a kind, if present.
func (o Observation) Legal(kind string) (LegalActionView, bool) {
	for _, la := range o.LegalActions {
		if la.Action == kind {
			return la, true
		}
	}
	return LegalActionView{}, false
}

// Render formats the observation as the text block sent to the model.
func (o Observation) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Hand #%d - %s ===\n\n", o.HandNumber, strings.ToUpper(o.Street))
	fmt.Fprintf(&b, "Your Position: %s (Seat %d)\n", o.Position, o.Seat)
	fmt.Fprintf(&b, "Your Cards: %s\n", strings.Join(o.HoleCards, " "))
	fmt.Fprintf(&b, "Your Stack: %d chips (%.1f BB)\n\n", o.Stack, float64(o.Stack)/float64(o.BigBlind))
	fmt.Fprintf(&b, "Blinds: %d/%d (button: seat %d)\n", o.SmallBlind, o.BigBlind, o.ButtonSeat)
	fmt.Fprintf(&b, "Pot: %d chips\n", o.Pot)
	if len(o.Community) > 0 {
		fmt.Fprintf(&b, "Board: %s\n", strings.Join(o.Community, " "))
	}

	b.WriteString("\nPlayers at table:\n")
	for _, p := range o.Players {
		status := ""
		switch {
		case p.Folded:
			status = " (folded)"
		case !p.Active:
			status = " (out)"
		}
		fmt.Fprintf(&b, "  Seat %d: %s - %d chips%s\n", p.Seat, p.Name, p.Stack, status)
	}

	if len(o.Actions) > 0 {
		b.WriteString("\nActions this hand:\n")
		for _, a := range o.Actions {
			if a.Amount > 0 {
				fmt.Fprintf(&b, "  %s: Seat %d %s %d\n", a.Street, a.Seat, a.Action, a.Amount)
			} else {
				fmt.Fprintf(&b, "  %s: Seat %d %s\n", a.Street, a.Seat, a.Action)
			}
		}
	}

	fmt.Fprintf(&b, "\nAmount to call: %d\n", o.ToCall)
	var kinds []string
	for _, la := range o.LegalActions {
		kinds = append(kinds, la.Action)
	}
	fmt.Fprintf(&b, "Legal actions: %s\n", strings.Join(kinds, ", "))
	for _, la := range o.LegalActions {
		if la.Action == "raise" || la.Action == "bet" {
			fmt.Fprintf(&b, "%s range: %d to %d (total chips committed this street)\n",
				titleWord(la.Action), la.Min, la.Max)
		}
	}
	return b.String()
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
