// Package benchlog persists benchmark artifacts: per-hand histories, agent
// decision traces and the cross-run summary. All files are written
// atomically so a crashed run never leaves partial JSON behind.
package benchlog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cardroom/pokerbench/internal/fileutil"
	"github.com/cardroom/pokerbench/internal/game"
)

// Meta describes one tournament run, written as meta.json in the run
// directory.
type Meta struct {
	Seed          int64             `json:"seed"`
	NumPlayers    int               `json:"num_players"`
	StartingStack int               `json:"starting_stack"`
	BlindSchedule []game.BlindLevel `json:"blind_schedule"`
}

// PlayerInfo is one seat's state at the start of a hand.
type PlayerInfo struct {
	Seat  int    `json:"seat"`
	Name  string `json:"name"`
	Stack int    `json:"stack"`
}

// ActionEntry is one logged action.
type ActionEntry struct {
	Street   string `json:"street"`
	Seat     int    `json:"seat"`
	Action   string `json:"action"`
	Amount   int    `json:"amount,omitempty"`
	PotAfter int    `json:"pot_after,omitempty"`
}

// HandLog is the complete history of a single hand.
type HandLog struct {
	HandNumber     int              `json:"hand_number"`
	BlindLevel     int              `json:"blind_level"`
	ButtonSeat     int              `json:"button_seat"`
	Blinds         Blinds           `json:"blinds"`
	Players        []PlayerInfo     `json:"players"`
	HoleCards      map[int][]string `json:"hole_cards"`
	CommunityCards []string         `json:"community_cards"`
	Actions        []ActionEntry    `json:"actions"`
	Showdown       map[int][]string `json:"showdown"`
	Winners        []int            `json:"winners"`
	Pot            int              `json:"pot"`
	PotsAwarded    map[int]int      `json:"pots_awarded"`
}

// Blinds is the posted blind pair.
type Blinds struct {
	Small int `json:"small"`
	Big   int `json:"big"`
}

// HandLogger writes one JSON file per hand under <logDir>/hands/.
type HandLogger struct {
	handsDir string
	current  *HandLog
}

// NewHandLogger creates the hands directory.
func NewHandLogger(logDir string) (*HandLogger, error) {
	handsDir := filepath.Join(logDir, "hands")
	if err := os.MkdirAll(handsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating hands dir: %w", err)
	}
	return &HandLogger{handsDir: handsDir}, nil
}

// StartHand begins a new hand log.
func (l *HandLogger) StartHand(handNumber, blindLevel, buttonSeat, smallBlind, bigBlind int, players []PlayerInfo, holeCards map[int][]string) {
	l.current = &HandLog{
		HandNumber:     handNumber,
		BlindLevel:     blindLevel,
		ButtonSeat:     buttonSeat,
		Blinds:         Blinds{Small: smallBlind, Big: bigBlind},
		Players:        players,
		HoleCards:      holeCards,
		CommunityCards: []string{},
		Actions:        []ActionEntry{},
		Showdown:       map[int][]string{},
		Winners:        []int{},
		PotsAwarded:    map[int]int{},
	}
}

// RecordAction appends an action to the current hand.
func (l *HandLogger) RecordAction(street string, seat int, action string, amount, potAfter int) {
	if l.current == nil {
		return
	}
	l.current.Actions = append(l.current.Actions, ActionEntry{
		Street:   street,
		Seat:     seat,
		Action:   action,
		Amount:   amount,
		PotAfter: potAfter,
	})
}

// RecordCommunity replaces the current hand's board.
func (l *HandLogger) RecordCommunity(cards []string) {
	if l.current != nil {
		l.current.CommunityCards = cards
	}
}

// RecordShowdown records a revealed holding.
func (l *HandLogger) RecordShowdown(seat int, cards []string) {
	if l.current != nil {
		l.current.Showdown[seat] = cards
	}
}

// EndHand finalizes the current hand and writes hand_NNN.json.
func (l *HandLogger) EndHand(winners []int, pot int, potsAwarded map[int]int) error {
	if l.current == nil {
		return nil
	}
	l.current.Winners = winners
	l.current.Pot = pot
	if potsAwarded != nil {
		l.current.PotsAwarded = potsAwarded
	}

	path := filepath.Join(l.handsDir, handFilename(l.current.HandNumber))
	err := fileutil.WriteJSON(path, l.current)
	l.current = nil
	return err
}

// ReadHand loads a previously written hand log.
func (l *HandLogger) ReadHand(handNumber int) (*HandLog, error) {
	var log HandLog
	path := filepath.Join(l.handsDir, handFilename(handNumber))
	if err := fileutil.ReadJSON(path, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

func handFilename(handNumber int) string {
	return fmt.Sprintf("hand_%03d.json", handNumber)
}
