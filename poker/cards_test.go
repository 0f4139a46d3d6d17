package poker

import (
	"testing"
)

func TestCardCreation(t *testing.T) {
	t.Parallel()

	aceSpades := NewCard(12, Spades)
	if aceSpades.String() != "As" {
		t.Errorf("Expected 'As', got %s", aceSpades.String())
	}
	if aceSpades.Rank() != 12 || aceSpades.Suit() != Spades {
		t.Errorf("Ace of spades decodes to rank=%d suit=%d", aceSpades.Rank(), aceSpades.Suit())
	}

	twoClubs := NewCard(0, Clubs)
	if twoClubs.String() != "2c" {
		t.Errorf("Expected '2c', got %s", twoClubs.String())
	}

	tenHearts := NewCard(8, Hearts)
	if tenHearts.String() != "Th" {
		t.Errorf("Expected 'Th', got %s", tenHearts.String())
	}
}

func TestParseCard(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input   string
		want    Card
		wantErr bool
	}{
		{"As", NewCard(12, Spades), false},
		{"as", NewCard(12, Spades), false},
		{"AS", NewCard(12, Spades), false},
		{"Kd", NewCard(11, Diamonds), false},
		{"Th", NewCard(8, Hearts), false},
		{"2c", NewCard(0, Clubs), false},
		{"", 0, true},
		{"A", 0, true},
		{"Axs", 0, true},
		{"1s", 0, true},
		{"Ax", 0, true},
	}

	for _, tc := range cases {
		card, err := ParseCard(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseCard(%q) expected error, got %v", tc.input, card)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCard(%q) unexpected error: %v", tc.input, err)
		}
		if card != tc.want {
			t.Errorf("ParseCard(%q) = %v, want %v", tc.input, card, tc.want)
		}
	}
}

func TestAll52CardsRoundTrip(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for suit := uint8(0); suit < 4; suit++ {
		for rank := uint8(0); rank < 13; rank++ {
			card := NewCard(rank, suit)
			str := card.String()
			if seen[str] {
				t.Errorf("Duplicate card string %s", str)
			}
			seen[str] = true

			parsed, err := ParseCard(str)
			if err != nil {
				t.Errorf("ParseCard(%q) failed: %v", str, err)
			}
			if parsed != card {
				t.Errorf("Round trip failed for %s", str)
			}
		}
	}
	if len(seen) != 52 {
		t.Errorf("Expected 52 distinct cards, got %d", len(seen))
	}
}

func TestParseCards(t *testing.T) {
	t.Parallel()

	spaced, err := ParseCards("As Kh 2c")
	if err != nil {
		t.Fatalf("ParseCards failed: %v", err)
	}
	packed, err := ParseCards("AsKh2c")
	if err != nil {
		t.Fatalf("ParseCards failed: %v", err)
	}
	if len(spaced) != 3 || len(packed) != 3 {
		t.Fatalf("Expected 3 cards, got %d and %d", len(spaced), len(packed))
	}
	for i := range spaced {
		if spaced[i] != packed[i] {
			t.Errorf("Spaced and packed parses differ at %d", i)
		}
	}

	if _, err := ParseCards("AsK"); err == nil {
		t.Error("Expected error for odd-length card string")
	}
}

func TestHandOperations(t *testing.T) {
	t.Parallel()

	aceSpades, _ := ParseCard("As")
	kingHearts, _ := ParseCard("Kh")
	queenDiamonds, _ := ParseCard("Qd")

	hand := NewHand(aceSpades, kingHearts)
	if !hand.HasCard(aceSpades) {
		t.Error("Hand should contain As")
	}
	if !hand.HasCard(kingHearts) {
		t.Error("Hand should contain Kh")
	}
	if hand.HasCard(queenDiamonds) {
		t.Error("Hand should not contain Qd")
	}
	if hand.CountCards() != 2 {
		t.Errorf("Hand should have 2 cards, got %d", hand.CountCards())
	}

	hand.AddCard(queenDiamonds)
	if !hand.HasCard(queenDiamonds) {
		t.Error("Hand should contain Qd after AddCard")
	}
	if hand.CountCards() != 3 {
		t.Errorf("Hand should have 3 cards, got %d", hand.CountCards())
	}
}

func TestGetSuitMask(t *testing.T) {
	t.Parallel()

	hand := NewHand(mustCards(t, "2s 5s As Kh")...)

	spades := hand.GetSuitMask(Spades)
	// Bits 0 (deuce), 3 (five) and 12 (ace).
	want := uint16(1<<0 | 1<<3 | 1<<12)
	if spades != want {
		t.Errorf("Spades mask = %013b, want %013b", spades, want)
	}
	if hand.GetSuitMask(Hearts) != 1<<11 {
		t.Errorf("Hearts mask = %013b, want king only", hand.GetSuitMask(Hearts))
	}
	if hand.GetSuitMask(Clubs) != 0 {
		t.Errorf("Clubs mask should be empty")
	}
}

func TestHandPermutationStable(t *testing.T) {
	t.Parallel()

	a := NewHand(mustCards(t, "As Kh 2c")...)
	b := NewHand(mustCards(t, "2c As Kh")...)
	if a != b {
		t.Error("Hands built from permuted cards should be identical bitsets")
	}
	if a.String() != b.String() {
		t.Errorf("Hand strings differ: %q vs %q", a.String(), b.String())
	}
}

func mustCards(t *testing.T, s string) []Card {
	t.Helper()
	cards, err := ParseCards(s)
	if err != nil {
		t.Fatalf("ParseCards(%q) failed: %v", s, err)
	}
	return cards
}
