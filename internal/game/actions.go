package game

// Street identifies the betting round. Showdown is the terminal
// pseudo-street after river betting resolves.
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
	Showdown
)

// String returns the lowercase street name used in logs and observations.
func (s Street) String() string {
	switch s {
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	default:
		return "unknown"
	}
}

// ActionKind is a tagged action variant. Blind posts appear in the action
// log but are never legal player choices.
type ActionKind int

const (
	Fold ActionKind = iota
	Check
	Call
	Bet
	Raise
	PostSmallBlind
	PostBigBlind
)

// String returns the lowercase wire/log name of the action.
func (k ActionKind) String() string {
	switch k {
	case Fold:
		return "fold"
	case Check:
		return "check"
	case Call:
		return "call"
	case Bet:
		return "bet"
	case Raise:
		return "raise"
	case PostSmallBlind:
		return "post_sb"
	case PostBigBlind:
		return "post_bb"
	default:
		return "unknown"
	}
}

// Action is an engine-level action. For Bet and Raise, Amount is the total
// the player is betting to on this street (raise-to semantics), not the
// increment.
type Action struct {
	Kind   ActionKind
	Amount int
}

// ActionRecord is one public entry in the hand's action log.
type ActionRecord struct {
	Street   Street
	Seat     int
	Kind     ActionKind
	Amount   int
	AllIn    bool
	PotAfter int
}

// LegalAction describes one available action with its amount bounds. For
// Call, Min == Max == the call amount. For Bet and Raise they are the
// raise-to bounds; Max is the effective all-in total.
type LegalAction struct {
	Kind ActionKind
	Min  int
	Max  int
}

// BettingView is the read-only betting state the action algebra operates
// on. The hand state machine supplies it for the current street.
type BettingView struct {
	Pot        int
	CurrentBet int
	MinRaise   int
	BigBlind   int
}

// MinRaiseTo returns the smallest total that constitutes a full raise.
func (v BettingView) MinRaiseTo() int {
	return v.CurrentBet + v.MinRaise
}

// LegalActions computes the legal action set for a player given the betting
// state. Invariants: never both Check and Call; Fold present iff there is a
// bet to call.
func LegalActions(p *Player, v BettingView) []LegalAction {
	if !p.CanAct() {
		return nil
	}

	toCall := p.ToCall(v.CurrentBet)
	actions := make([]LegalAction, 0, 3)

	if toCall > 0 {
		actions = append(actions, LegalAction{Kind: Fold})
		callAmount := min(toCall, p.Stack)
		actions = append(actions, LegalAction{Kind: Call, Min: callAmount, Max: callAmount})
	} else {
		actions = append(actions, LegalAction{Kind: Check})
	}

	maxTotal := p.Stack + p.BetThisRound
	if v.CurrentBet == 0 {
		if p.Stack >= v.BigBlind {
			actions = append(actions, LegalAction{Kind: Bet, Min: v.BigBlind, Max: maxTotal})
		}
	} else if maxTotal > v.CurrentBet && !p.HasActed {
		// HasActed survives an all-in for less, so a short all-in never
		// reopens raising for seats that already acted. A full raise
		// clears HasActed and restores the option.
		// A raise-to below the full minimum is only legal as an all-in.
		minTo := min(v.MinRaiseTo(), maxTotal)
		actions = append(actions, LegalAction{Kind: Raise, Min: minTo, Max: maxTotal})
	}

	return actions
}

// Normalize maps an agent-submitted (kind, raiseTo) onto an engine Action
// for this player and betting state. Fold and call collapse to check when
// there is nothing to call; a raise into an unopened pot becomes a bet;
// raise-to totals are clamped to the legal window.
func Normalize(p *Player, v BettingView, kind ActionKind, raiseTo int) Action {
	toCall := p.ToCall(v.CurrentBet)

	switch kind {
	case Fold:
		if toCall == 0 {
			return Action{Kind: Check}
		}
		return Action{Kind: Fold}

	case Check:
		return Action{Kind: Check}

	case Call:
		if toCall == 0 {
			return Action{Kind: Check}
		}
		return Action{Kind: Call}

	case Bet, Raise:
		maxTotal := p.Stack + p.BetThisRound
		total := raiseTo
		if v.CurrentBet == 0 {
			total = max(total, v.BigBlind)
			total = min(total, maxTotal)
			return Action{Kind: Bet, Amount: total}
		}
		minTo := v.MinRaiseTo()
		if total < minTo {
			// Clamp up to the full minimum when affordable; otherwise the
			// raise stands only as an all-in for less.
			total = min(minTo, maxTotal)
		}
		total = min(total, maxTotal)
		if total <= v.CurrentBet {
			// Cannot exceed the current bet: the raise degrades to a call.
			return Action{Kind: Call}
		}
		return Action{Kind: Raise, Amount: total}

	default:
		return Action{Kind: kind}
	}
}
