package game

import (
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/cardroom/pokerbench/poker"
)

var (
	// ErrHandComplete is returned by Apply once the hand has finished.
	ErrHandComplete = errors.New("hand is complete")
	// ErrOutOfTurn is returned when a seat acts out of turn.
	ErrOutOfTurn = errors.New("action out of turn")
	// ErrInvalidAction is returned when an action fails validation.
	ErrInvalidAction = errors.New("invalid action")
	// ErrNoFallback means neither check nor fold is legal; the hand state
	// is corrupt and the run must abort.
	ErrNoFallback = errors.New("no legal fallback action")
)

// HandState is the betting state machine for a single hand. It owns the
// participating players' per-hand fields from NewHand until settlement.
// All mutation happens through Apply on the caller's goroutine.
type HandState struct {
	handNumber int
	buttonSeat int
	sb, bb     int

	players   []*Player // ascending seat order
	deck      *poker.Deck
	street    Street
	community []poker.Card

	pot           int
	currentBet    int
	minRaise      int
	actionIdx     int // -1 when no seat is to act

	actions    []ActionRecord
	complete   bool
	settlement *Settlement

	startingChips int
}

// NewHand deals a fresh hand. players must be the seats still holding chips,
// in ascending seat order; buttonSeat must be one of them. The deck is
// reshuffled from rng, hole cards are dealt two at a time clockwise starting
// left of the button, and blinds are posted (short stacks post all-in).
func NewHand(rng *rand.Rand, players []*Player, handNumber, buttonSeat, sb, bb int) (*HandState, error) {
	if len(players) < 2 {
		return nil, fmt.Errorf("need at least 2 players, got %d", len(players))
	}
	if sb <= 0 || bb <= sb {
		return nil, fmt.Errorf("invalid blinds sb=%d bb=%d", sb, bb)
	}

	h := &HandState{
		handNumber:    handNumber,
		buttonSeat:    buttonSeat,
		sb:            sb,
		bb:            bb,
		players:       players,
		street:        Preflop,
		actionIdx:     -1,
	}

	buttonIdx := -1
	prevSeat := 0
	for i, p := range players {
		if p.Seat <= prevSeat {
			return nil, fmt.Errorf("players must be in ascending seat order")
		}
		prevSeat = p.Seat
		if p.Stack <= 0 {
			return nil, fmt.Errorf("seat %d has no chips", p.Seat)
		}
		if p.Seat == buttonSeat {
			buttonIdx = i
		}
		p.resetForHand()
		h.startingChips += p.Stack
	}
	if buttonIdx < 0 {
		return nil, fmt.Errorf("button seat %d is not in the hand", buttonSeat)
	}

	h.deck = poker.NewDeck(rng)
	for i := 1; i <= len(players); i++ {
		p := players[(buttonIdx+i)%len(players)]
		cards := h.deck.Deal(2)
		p.HoleCards = append([]poker.Card(nil), cards...)
	}

	// Heads-up the button posts the small blind and acts first preflop.
	sbIdx := h.nextIdx(buttonIdx)
	if len(players) == 2 {
		sbIdx = buttonIdx
	}
	bbIdx := h.nextIdx(sbIdx)

	h.postBlind(sbIdx, sb, PostSmallBlind)
	h.postBlind(bbIdx, bb, PostBigBlind)

	h.currentBet = bb
	h.minRaise = bb

	h.actionIdx = h.nextCanAct(bbIdx)
	if h.actionIdx < 0 || h.bettingComplete() {
		// Blinds put everyone all-in; no betting is possible.
		if err := h.runOutBoard(); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *HandState) postBlind(idx, amount int, kind ActionKind) {
	p := h.players[idx]
	committed := p.commit(amount)
	h.pot += committed
	h.actions = append(h.actions, ActionRecord{
		Street:   Preflop,
		Seat:     p.Seat,
		Kind:     kind,
		Amount:   committed,
		AllIn:    p.AllIn,
		PotAfter: h.pot,
	})
}

// Apply validates and executes an action for the seat currently to act.
func (h *HandState) Apply(seat int, a Action) error {
	if h.complete {
		return ErrHandComplete
	}
	if h.actionIdx < 0 || h.players[h.actionIdx].Seat != seat {
		return fmt.Errorf("%w: seat %d (action on %d)", ErrOutOfTurn, seat, h.ActionOn())
	}

	idx := h.actionIdx
	p := h.players[idx]
	toCall := p.ToCall(h.currentBet)
	maxTotal := p.Stack + p.BetThisRound

	record := ActionRecord{Street: h.street, Seat: seat, Kind: a.Kind}

	switch a.Kind {
	case Fold:
		if toCall == 0 {
			return fmt.Errorf("%w: cannot fold with nothing to call", ErrInvalidAction)
		}
		p.Folded = true

	case Check:
		if toCall > 0 {
			return fmt.Errorf("%w: cannot check facing a bet of %d", ErrInvalidAction, toCall)
		}
		p.HasActed = true

	case Call:
		if toCall == 0 {
			return fmt.Errorf("%w: nothing to call", ErrInvalidAction)
		}
		committed := p.commit(toCall)
		h.pot += committed
		p.HasActed = true
		record.Amount = committed

	case Bet:
		if h.currentBet != 0 {
			return fmt.Errorf("%w: cannot bet into an opened pot (raise instead)", ErrInvalidAction)
		}
		if a.Amount < h.bb && a.Amount != maxTotal {
			return fmt.Errorf("%w: minimum bet is %d", ErrInvalidAction, h.bb)
		}
		if a.Amount > maxTotal {
			return fmt.Errorf("%w: bet %d exceeds stack limit %d", ErrInvalidAction, a.Amount, maxTotal)
		}
		h.pot += p.commit(a.Amount - p.BetThisRound)
		h.currentBet = a.Amount
		h.minRaise = max(a.Amount, h.bb)
		h.reopenAction(idx)
		p.HasActed = true
		record.Amount = a.Amount

	case Raise:
		if h.currentBet == 0 {
			return fmt.Errorf("%w: nothing to raise (bet instead)", ErrInvalidAction)
		}
		if p.HasActed {
			return fmt.Errorf("%w: raising is not reopened for seat %d", ErrInvalidAction, seat)
		}
		if a.Amount <= h.currentBet {
			return fmt.Errorf("%w: raise to %d does not exceed current bet %d", ErrInvalidAction, a.Amount, h.currentBet)
		}
		if a.Amount > maxTotal {
			return fmt.Errorf("%w: raise to %d exceeds stack limit %d", ErrInvalidAction, a.Amount, maxTotal)
		}
		fullRaise := a.Amount >= h.currentBet+h.minRaise
		if !fullRaise && a.Amount != maxTotal {
			return fmt.Errorf("%w: minimum raise is to %d", ErrInvalidAction, h.currentBet+h.minRaise)
		}
		h.pot += p.commit(a.Amount - p.BetThisRound)
		if fullRaise {
			h.minRaise = max(a.Amount-h.currentBet, h.bb)
			h.reopenAction(idx)
		}
		h.currentBet = a.Amount
		p.HasActed = true
		record.Amount = a.Amount

	default:
		return fmt.Errorf("%w: %s is not a player action", ErrInvalidAction, a.Kind)
	}

	record.AllIn = p.AllIn
	record.PotAfter = h.pot
	h.actions = append(h.actions, record)

	if h.countInHand() == 1 {
		return h.finishUncontested()
	}
	if h.bettingComplete() {
		return h.closeStreet()
	}
	h.actionIdx = h.nextCanAct(idx)
	if h.actionIdx < 0 {
		return h.closeStreet()
	}
	return nil
}

// SafeFallback returns the safe action for a seat: check when legal,
// otherwise fold. ErrNoFallback means the hand state is corrupt.
func (h *HandState) SafeFallback(seat int) (Action, error) {
	p := h.playerAt(seat)
	if p == nil || !p.CanAct() {
		return Action{}, ErrNoFallback
	}
	if p.ToCall(h.currentBet) == 0 {
		return Action{Kind: Check}, nil
	}
	return Action{Kind: Fold}, nil
}

// reopenAction clears HasActed for everyone but the aggressor so the other
// live seats get a response to a full raise or opening bet.
func (h *HandState) reopenAction(aggressorIdx int) {
	for i, p := range h.players {
		if i != aggressorIdx && p.CanAct() {
			p.HasActed = false
		}
	}
}

// bettingComplete reports whether the current street's betting is resolved:
// every seat that can act has acted and matched the current bet. Blind
// posts never set HasActed, which is what gives the big blind its option in
// an unopened preflop pot.
func (h *HandState) bettingComplete() bool {
	for _, p := range h.players {
		if !p.CanAct() {
			continue
		}
		if !p.HasActed || p.BetThisRound != h.currentBet {
			return false
		}
	}
	return true
}

func (h *HandState) closeStreet() error {
	if h.street == River {
		h.street = Showdown
		h.actionIdx = -1
		return h.settleShowdown()
	}

	for _, p := range h.players {
		p.BetThisRound = 0
		if p.CanAct() {
			p.HasActed = false
		}
	}
	h.currentBet = 0
	h.minRaise = h.bb

	h.dealNextStreet()

	if h.countCanAct() <= 1 {
		// Betting cannot continue; run the remaining board out.
		return h.runOutBoard()
	}

	h.actionIdx = h.nextCanAct(h.buttonIdx())
	if h.actionIdx < 0 {
		return h.runOutBoard()
	}
	return nil
}

func (h *HandState) dealNextStreet() {
	switch h.street {
	case Preflop:
		h.street = Flop
		h.community = append(h.community, h.deck.Deal(3)...)
	case Flop:
		h.street = Turn
		h.community = append(h.community, h.deck.Deal(1)...)
	case Turn:
		h.street = River
		h.community = append(h.community, h.deck.Deal(1)...)
	}
}

// runOutBoard deals any remaining streets without betting and settles.
func (h *HandState) runOutBoard() error {
	for h.street != River {
		h.dealNextStreet()
	}
	h.street = Showdown
	h.actionIdx = -1
	return h.settleShowdown()
}

func (h *HandState) buttonIdx() int {
	for i, p := range h.players {
		if p.Seat == h.buttonSeat {
			return i
		}
	}
	return 0
}

func (h *HandState) nextIdx(i int) int {
	return (i + 1) % len(h.players)
}

// nextCanAct returns the index of the next seat clockwise from i that can
// still act, or -1 if none.
func (h *HandState) nextCanAct(i int) int {
	for step := 1; step <= len(h.players); step++ {
		j := (i + step) % len(h.players)
		if h.players[j].CanAct() {
			return j
		}
	}
	return -1
}

func (h *HandState) countInHand() int {
	n := 0
	for _, p := range h.players {
		if p.InHand() {
			n++
		}
	}
	return n
}

func (h *HandState) countCanAct() int {
	n := 0
	for _, p := range h.players {
		if p.CanAct() {
			n++
		}
	}
	return n
}

func (h *HandState) playerAt(seat int) *Player {
	for _, p := range h.players {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}

// Accessors. Slices are copied so callers cannot mutate engine state.

func (h *HandState) HandNumber() int { return h.handNumber }
func (h *HandState) ButtonSeat() int { return h.buttonSeat }
func (h *HandState) SmallBlind() int { return h.sb }
func (h *HandState) BigBlind() int   { return h.bb }
func (h *HandState) Street() Street  { return h.street }
func (h *HandState) Pot() int        { return h.pot }
func (h *HandState) Complete() bool  { return h.complete }

// ActionOn returns the seat currently to act, or 0 when none.
func (h *HandState) ActionOn() int {
	if h.actionIdx < 0 {
		return 0
	}
	return h.players[h.actionIdx].Seat
}

// Community returns a copy of the board.
func (h *HandState) Community() []poker.Card {
	return append([]poker.Card(nil), h.community...)
}

// Actions returns a copy of the action log, blind posts included.
func (h *HandState) Actions() []ActionRecord {
	return append([]ActionRecord(nil), h.actions...)
}

// Players returns the participating players in ascending seat order.
func (h *HandState) Players() []*Player {
	return append([]*Player(nil), h.players...)
}

// Player returns the participant in the given seat, or nil.
func (h *HandState) Player(seat int) *Player {
	return h.playerAt(seat)
}

// StartingChips returns the chip total at the start of the hand.
func (h *HandState) StartingChips() int { return h.startingChips }

// BettingView returns the read-only betting state for the current street.
func (h *HandState) BettingView() BettingView {
	return BettingView{
		Pot:        h.pot,
		CurrentBet: h.currentBet,
		MinRaise:   h.minRaise,
		BigBlind:   h.bb,
	}
}

// LegalActionsFor computes the legal action set for a seat.
func (h *HandState) LegalActionsFor(seat int) []LegalAction {
	p := h.playerAt(seat)
	if p == nil || h.complete {
		return nil
	}
	return LegalActions(p, h.BettingView())
}

// Settlement returns the hand's settlement once Complete is true.
func (h *HandState) Settlement() *Settlement {
	return h.settlement
}
