package poker

import (
	rand "math/rand/v2"
)

// Deck is a standard 52-card deck with a deal cursor. The RNG is bound at
// construction so that two decks built over identically seeded sources
// produce identical shuffle and deal sequences.
type Deck struct {
	cards [52]Card
	next  int
	rng   *rand.Rand
}

// NewDeck creates a shuffled deck drawing randomness from rng.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{rng: rng}
	i := 0
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			d.cards[i] = NewCard(rank, suit)
			i++
		}
	}
	d.Shuffle()
	return d
}

// Shuffle reorders the deck with Fisher-Yates and resets the deal cursor.
func (d *Deck) Shuffle() {
	d.next = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes the next n cards from the top of the deck. It returns nil if
// fewer than n cards remain.
func (d *Deck) Deal(n int) []Card {
	if n < 0 || d.next+n > len(d.cards) {
		return nil
	}
	cards := d.cards[d.next : d.next+n]
	d.next += n
	return cards
}

// DealOne deals a single card, or 0 if the deck is exhausted.
func (d *Deck) DealOne() Card {
	if d.next >= len(d.cards) {
		return 0
	}
	c := d.cards[d.next]
	d.next++
	return c
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}
