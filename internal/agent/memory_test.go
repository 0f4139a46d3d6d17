package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/pokerbench/poker"
)

func cards(t *testing.T, s string) []poker.Card {
	t.Helper()
	c, err := poker.ParseCards(s)
	require.NoError(t, err)
	return c
}

func seedMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory("hero", 1)

	m.StartHand(1, cards(t, "As Kh"), "BTN")
	m.RecordAction("preflop", 2, "villain", "raise", 30)
	m.RecordAction("preflop", 1, "hero", "call", 30)
	m.UpdateCommunity(cards(t, "2c 7d Jh"))
	m.RecordAction("flop", 2, "villain", "bet", 40)
	m.RecordAction("flop", 1, "hero", "fold", 0)
	m.EndHand("folded", 0, 100, 170)

	m.StartHand(2, cards(t, "Qd Qc"), "BB")
	m.RecordAction("preflop", 2, "villain", "call", 10)
	m.RecordAction("preflop", 1, "hero", "raise", 40)
	m.RecordAction("preflop", 2, "villain", "call", 40)
	m.UpdateCommunity(cards(t, "3h 8s Qs Ts 2d"))
	m.RecordShowdown(2, cards(t, "Ac Jc"))
	m.EndHand("won", 80, 80, 250)

	return m
}

func TestMemoryRecordsHands(t *testing.T) {
	t.Parallel()

	m := seedMemory(t)
	hands := m.Hands()
	require.Len(t, hands, 2)

	assert.Equal(t, 1, hands[0].HandNumber)
	assert.Equal(t, "BTN", hands[0].Position)
	assert.Equal(t, []string{"As", "Kh"}, hands[0].HoleCards)
	assert.Equal(t, "folded", hands[0].Result)

	assert.Equal(t, "won", hands[1].Result)
	assert.Equal(t, 80, hands[1].ChipsWon)
	assert.Equal(t, []string{"Ac", "Jc"}, hands[1].Showdowns[2])
}

func TestMemoryIgnoresEventsOutsideHand(t *testing.T) {
	t.Parallel()

	m := NewMemory("hero", 1)
	m.RecordAction("preflop", 2, "villain", "raise", 30)
	m.RecordShowdown(2, nil)
	m.EndHand("won", 10, 10, 10)
	assert.Empty(t, m.Hands())
}

func TestOpponentActionsExcludesOwnSeat(t *testing.T) {
	t.Parallel()

	m := seedMemory(t)
	report := m.OpponentActions(OpponentFilter{})
	for _, a := range report.Actions {
		assert.NotEqual(t, 1, a.Seat)
	}
	assert.Equal(t, 4, report.TotalFound)
}

func TestOpponentActionsFilters(t *testing.T) {
	t.Parallel()

	m := seedMemory(t)

	report := m.OpponentActions(OpponentFilter{Street: "flop"})
	require.Len(t, report.Actions, 1)
	assert.Equal(t, "bet", report.Actions[0].Action)
	assert.Equal(t, 1, report.Actions[0].HandNumber)

	report = m.OpponentActions(OpponentFilter{Action: "call"})
	require.Len(t, report.Actions, 2)
	assert.Equal(t, 2, report.Actions[0].HandNumber)

	report = m.OpponentActions(OpponentFilter{Name: "VILLAIN"})
	assert.Len(t, report.Actions, 4, "name filter is case-insensitive")
}

func TestOpponentActionsShowdownsRequireSeatFilter(t *testing.T) {
	t.Parallel()

	m := seedMemory(t)

	report := m.OpponentActions(OpponentFilter{})
	assert.Empty(t, report.Showdowns)

	report = m.OpponentActions(OpponentFilter{Seat: 2})
	require.Len(t, report.Showdowns, 1)
	assert.Equal(t, 2, report.Showdowns[0].HandNumber)
	assert.Equal(t, []string{"Ac", "Jc"}, report.Showdowns[0].Cards)
}

func TestOpponentActionsLimitKeepsMostRecent(t *testing.T) {
	t.Parallel()

	m := seedMemory(t)
	report := m.OpponentActions(OpponentFilter{Limit: 2})
	require.Len(t, report.Actions, 2)
	// Most recent entries survive the cut, oldest first within the window.
	assert.Equal(t, 2, report.Actions[0].HandNumber)
	assert.Equal(t, 2, report.Actions[1].HandNumber)
}

func TestMyHandsTalliesAndFilters(t *testing.T) {
	t.Parallel()

	m := seedMemory(t)
	report := m.MyHands("", "", 0)
	assert.Equal(t, 2, report.TotalHands)
	assert.Equal(t, 1, report.Wins)
	assert.Equal(t, 1, report.Folds)
	assert.InDelta(t, 0.5, report.WinRate, 1e-9)
	require.Len(t, report.Hands, 2)

	// Per-hand detail contains only the agent's own actions.
	for _, h := range report.Hands {
		for _, a := range h.Actions {
			assert.Equal(t, 1, a.Seat)
		}
	}

	report = m.MyHands("won", "", 0)
	require.Len(t, report.Hands, 1)
	assert.Equal(t, 2, report.Hands[0].HandNumber)

	report = m.MyHands("", "btn", 0)
	require.Len(t, report.Hands, 1)
	assert.Equal(t, "BTN", report.Hands[0].Position)
}

func TestSearchObservations(t *testing.T) {
	t.Parallel()

	m := seedMemory(t)

	report := m.Search("Qd", 0)
	require.Len(t, report.Hands, 1)
	assert.Equal(t, 2, report.Hands[0].HandNumber)

	report = m.Search("villain", 0)
	assert.Len(t, report.Hands, 2)

	report = m.Search("won", 0)
	require.Len(t, report.Hands, 1)

	report = m.Search("no-such-thing", 0)
	assert.Empty(t, report.Hands)
}
