// Package poker provides card primitives, a seeded deck and a 7-card hand
// evaluator for No-Limit Texas Hold'em.
package poker

import (
	"fmt"
	"math/bits"
	"strings"
)

// Suit constants. The bit layout of Card and Hand depends on these values.
const (
	Clubs uint8 = iota
	Diamonds
	Hearts
	Spades
)

// Card is a single playing card represented as one set bit in a 64-bit word.
// Bit index = suit*13 + rank, with rank 0 = deuce through rank 12 = ace.
// The representation makes hand membership and suit extraction cheap bitwise
// operations and composes directly into Hand.
type Card uint64

// Hand is a set of cards stored as a bitset. The zero value is an empty hand.
type Hand uint64

const (
	rankChars = "23456789TJQKA"
	suitChars = "cdhs"
)

// NewCard creates a card from a rank (0-12, deuce through ace) and suit.
func NewCard(rank, suit uint8) Card {
	return Card(1) << (uint64(suit)*13 + uint64(rank))
}

// Rank returns the card's rank, 0 (deuce) through 12 (ace).
func (c Card) Rank() uint8 {
	return uint8(bits.TrailingZeros64(uint64(c)) % 13)
}

// Suit returns the card's suit.
func (c Card) Suit() uint8 {
	return uint8(bits.TrailingZeros64(uint64(c)) / 13)
}

// String renders the card in compact notation, e.g. "As", "Th", "2c".
func (c Card) String() string {
	if c == 0 || bits.OnesCount64(uint64(c)) != 1 {
		return "??"
	}
	return string(rankChars[c.Rank()]) + string(suitChars[c.Suit()])
}

// ParseCard parses compact card notation ("As", "th", "2C"). Rank may be
// upper or lower case; suit likewise.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("invalid card %q: want rank+suit, e.g. \"As\"", s)
	}
	rank := strings.IndexByte(rankChars, upperByte(s[0]))
	if rank < 0 {
		return 0, fmt.Errorf("invalid card rank %q in %q", s[0], s)
	}
	suit := strings.IndexByte(suitChars, lowerByte(s[1]))
	if suit < 0 {
		return 0, fmt.Errorf("invalid card suit %q in %q", s[1], s)
	}
	return NewCard(uint8(rank), uint8(suit)), nil
}

// ParseCards parses a run of cards, with or without separating spaces:
// "As Kh" and "AsKh" are both accepted.
func ParseCards(s string) ([]Card, error) {
	s = strings.ReplaceAll(s, " ", "")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("invalid card string %q", s)
	}
	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		c, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// NewHand creates a hand containing the given cards.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= Hand(c)
	}
	return h
}

// AddCard adds a card to the hand.
func (h *Hand) AddCard(c Card) {
	*h |= Hand(c)
}

// HasCard reports whether the hand contains the card.
func (h Hand) HasCard(c Card) bool {
	return h&Hand(c) != 0
}

// CountCards returns the number of cards in the hand.
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// GetSuitMask returns the 13-bit rank mask for one suit.
func (h Hand) GetSuitMask(suit uint8) uint16 {
	return uint16(h>>(uint64(suit)*13)) & 0x1FFF
}

// Cards returns the hand's cards in ascending bit order.
func (h Hand) Cards() []Card {
	cards := make([]Card, 0, h.CountCards())
	for h != 0 {
		low := h & -h
		cards = append(cards, Card(low))
		h &^= low
	}
	return cards
}

// String renders the hand as space-separated cards in ascending bit order.
func (h Hand) String() string {
	cards := h.Cards()
	strs := make([]string, len(cards))
	for i, c := range cards {
		strs[i] = c.String()
	}
	return strings.Join(strs, " ")
}

// CardStrings renders a card slice in compact notation, preserving order.
func CardStrings(cards []Card) []string {
	strs := make([]string, len(cards))
	for i, c := range cards {
		strs[i] = c.String()
	}
	return strs
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func lowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}
