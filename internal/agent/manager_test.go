package agent

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/pokerbench/poker"
)

// stubAgent returns a fixed action.
type stubAgent struct {
	name   string
	action AgentAction
}

func (s *stubAgent) Name() string { return s.name }

func (s *stubAgent) Decide(context.Context, Observation) (AgentAction, error) {
	return s.action, nil
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(log.New(io.Discard))
	for seat := 1; seat <= 3; seat++ {
		name := string(rune('a' + seat - 1))
		m.AddSeat(seat, &stubAgent{name: name, action: AgentAction{Kind: "fold"}}, NewMemory(name, seat))
	}
	return m
}

func TestManagerFansOutToActiveSeatsOnly(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	m.Eliminate(2)
	assert.Equal(t, []int{1, 3}, m.ActiveSeats())
	assert.False(t, m.IsActive(2))

	hole, err := poker.ParseCards("As Kh")
	require.NoError(t, err)
	m.StartHand(1, map[int][]poker.Card{1: hole, 3: hole}, 1)
	m.RecordAction("preflop", 1, "raise", 30)
	m.EndHand(map[int]HandOutcome{
		1: {Result: "won", ChipsWon: 15, FinalStack: 215},
	}, 15)

	assert.Len(t, m.Memory(1).Hands(), 1)
	assert.Len(t, m.Memory(3).Hands(), 1)
	assert.Empty(t, m.Memory(2).Hands(), "eliminated seat receives no events")

	rec := m.Memory(1).Hands()[0]
	assert.Equal(t, "won", rec.Result)
	assert.Equal(t, 15, rec.ChipsWon)
	// Seat 3 had no explicit outcome and defaults to folded.
	assert.Equal(t, "folded", m.Memory(3).Hands()[0].Result)
}

func TestManagerAssignsPositions(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	hole, err := poker.ParseCards("2c 3d")
	require.NoError(t, err)
	deal := map[int][]poker.Card{1: hole, 2: hole, 3: hole}
	m.StartHand(1, deal, 2)
	m.EndHand(nil, 0)

	assert.Equal(t, "BB", m.Memory(1).Hands()[0].Position)
	assert.Equal(t, "BTN", m.Memory(2).Hands()[0].Position)
	assert.Equal(t, "SB", m.Memory(3).Hands()[0].Position)
}

func TestManagerGetActionTracksStats(t *testing.T) {
	t.Parallel()

	m := NewManager(log.New(io.Discard))
	m.AddSeat(1, &stubAgent{name: "a", action: AgentAction{Kind: "fold", Retries: 2, Forced: true}}, NewMemory("a", 1))

	_, err := m.GetAction(context.Background(), 1, Observation{})
	require.NoError(t, err)
	_, err = m.GetAction(context.Background(), 1, Observation{})
	require.NoError(t, err)

	st := m.Stats(1)
	assert.Equal(t, 2, st.Decisions)
	assert.Equal(t, 4, st.Retries)
	assert.Equal(t, 2, st.Forced)
	assert.InDelta(t, 1.0, st.InvalidRate(), 1e-9)
}

func TestManagerGetActionUnknownSeat(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	_, err := m.GetAction(context.Background(), 9, Observation{})
	assert.Error(t, err)
}
