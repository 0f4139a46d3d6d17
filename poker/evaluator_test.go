package poker

import (
	"testing"
)

func rankFor(t *testing.T, cards string) HandRank {
	t.Helper()
	hand := NewHand(mustCards(t, cards)...)
	r := EvaluateHand(hand)
	if r == 0 {
		t.Fatalf("EvaluateHand(%q) returned invalid rank", cards)
	}
	return r
}

func TestHandTypeDetection(t *testing.T) {
	t.Parallel()

	cases := []struct {
		cards string
		want  HandType
	}{
		{"As Ks Qs Js Ts 2c 3d", StraightFlush},
		{"5s 4s 3s 2s As Kd Qc", StraightFlush}, // steel wheel
		{"Ah Ad Ac As Kd 2c 3h", FourOfAKind},
		{"Ah Ad Ac Kd Ks 2c 3h", FullHouse},
		{"Ah Ad Ac Kd Kc Qs Qh", FullHouse},
		{"As Ks 9s 5s 2s Ad Kd", Flush},
		{"9c 8d 7h 6s 5c Ad Kd", Straight},
		{"5d 4c 3h 2s Ah Kd 9c", Straight}, // wheel
		{"Ah Ad Ac Kd Qs 2c 7h", ThreeOfAKind},
		{"Ah Ad Kc Kd Qs 2c 7h", TwoPair},
		{"Ah Ad Kc Qd Js 2c 7h", Pair},
		{"Ah Kd Qc Js 9d 2c 7h", HighCard},
	}

	for _, tc := range cases {
		r := rankFor(t, tc.cards)
		if r.Type() != tc.want {
			t.Errorf("%s: got %s, want %s", tc.cards, r.Type(), tc.want)
		}
	}
}

func TestLowerRankIsStronger(t *testing.T) {
	t.Parallel()

	// Ordered strongest to weakest.
	ladder := []string{
		"As Ks Qs Js Ts 2c 3d", // royal flush
		"9s 8s 7s 6s 5s 2c 3d", // straight flush
		"Ah Ad Ac As Kd 2c 3h", // quads
		"Ah Ad Ac Kd Ks 2c 3h", // full house
		"As Ks 9s 5s 2s 3d 7h", // flush
		"9c 8d 7h 6s 5c Ad Kd", // straight
		"Ah Ad Ac Kd Qs 2c 7h", // trips
		"Ah Ad Kc Kd Qs 2c 7h", // two pair
		"Ah Ad Kc Qd Js 2c 7h", // pair
		"Ah Kd Qc Js 9d 2c 7h", // ace high
	}

	prev := HandRank(0)
	for i, cards := range ladder {
		r := rankFor(t, cards)
		if i > 0 && r <= prev {
			t.Errorf("%s (rank %d) should be weaker than previous (rank %d)", cards, r, prev)
		}
		prev = r
	}
}

func TestKickersBreakTies(t *testing.T) {
	t.Parallel()

	aceKicker := rankFor(t, "Qh Qd Ac 9d 5s 3c 2h")
	kingKicker := rankFor(t, "Qs Qc Kc 9h 5d 3d 2s")
	if CompareHands(aceKicker, kingKicker) != 1 {
		t.Error("Pair of queens with ace kicker should beat king kicker")
	}

	// Same five-card hand in different suits is an exact tie.
	a := rankFor(t, "Qh Qd Ac 9d 5s 3c 2h")
	b := rankFor(t, "Qs Qc Ad 9c 5h 3d 2s")
	if CompareHands(a, b) != 0 {
		t.Errorf("Identical ranks should tie: %d vs %d", a, b)
	}
}

func TestBoardPlaysForEveryone(t *testing.T) {
	t.Parallel()

	board := NewHand(mustCards(t, "As Ks Qs Js Ts")...)
	a := Evaluate(NewHand(mustCards(t, "2c 3d")...), board)
	b := Evaluate(NewHand(mustCards(t, "7h 8h")...), board)
	if a != b {
		t.Errorf("Royal flush on board should tie all players: %d vs %d", a, b)
	}
	if a.Type() != StraightFlush {
		t.Errorf("Expected straight flush, got %s", a.Type())
	}
}

func TestEvaluatePermutationInvariance(t *testing.T) {
	t.Parallel()

	holeA := NewHand(mustCards(t, "Ah Kd")...)
	holeB := NewHand(mustCards(t, "Kd Ah")...)
	boardA := NewHand(mustCards(t, "Qc Js Td 3c 7h")...)
	boardB := NewHand(mustCards(t, "7h 3c Td Js Qc")...)

	if Evaluate(holeA, boardA) != Evaluate(holeB, boardB) {
		t.Error("Rank should be invariant under hole/board permutation")
	}
}

func TestEvaluateHandSizeBounds(t *testing.T) {
	t.Parallel()

	if r := EvaluateHand(NewHand(mustCards(t, "Ah Kd Qc Js")...)); r != 0 {
		t.Errorf("4-card set should be invalid, got %d", r)
	}
	if r := EvaluateHand(NewHand(mustCards(t, "Ah Kd Qc Js Td 9c 8d 7s")...)); r != 0 {
		t.Errorf("8-card set should be invalid, got %d", r)
	}
	if r := EvaluateHand(NewHand(mustCards(t, "Ah Kd Qc Js 9d")...)); r == 0 {
		t.Error("5-card set should evaluate")
	}
}

func TestSixCardFlushPicksBestFive(t *testing.T) {
	t.Parallel()

	six := rankFor(t, "As Ks Qs 9s 5s 2s 3d")
	five := rankFor(t, "As Ks Qs 9s 5s 2c 3d")
	if CompareHands(six, five) != 0 {
		t.Error("Sixth flush card below the top five should not change the rank")
	}
}

func TestWinners(t *testing.T) {
	t.Parallel()

	board := NewHand(mustCards(t, "Qc Js Td 3c 7h")...)
	holes := map[int]Hand{
		1: NewHand(mustCards(t, "Ah Kd")...), // broadway straight
		2: NewHand(mustCards(t, "Ac Ks")...), // broadway straight (tie)
		3: NewHand(mustCards(t, "Qd Qh")...), // trips
	}

	winners, rank := Winners(holes, board)
	if len(winners) != 2 || winners[0] != 1 || winners[1] != 2 {
		t.Errorf("Expected winners [1 2], got %v", winners)
	}
	if rank.Type() != Straight {
		t.Errorf("Expected straight, got %s", rank.Type())
	}
}
