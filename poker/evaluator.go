package poker

import (
	"math/bits"
	"sort"
)

// HandRank represents the strength of a poker hand. Lower values are
// stronger; equal values are exact ties. The rank space is a total order
// over category and kickers, so comparing two ranks compares hands.
type HandRank uint32

// HandType enumerates the categories of poker hands ordered from weakest to
// strongest.
type HandType uint8

const (
	HighCard HandType = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// maxStrength is the packed value of the strongest possible hand; ranks are
// stored inverted so that lower HandRank means stronger hand.
const maxStrength = uint32(StraightFlush)<<20 | 0xFFFFF

// String returns a human-readable category name.
func (t HandType) String() string {
	switch t {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// Type returns the category of the rank.
func (hr HandRank) Type() HandType {
	return HandType((maxStrength - uint32(hr)) >> 20)
}

// String returns the category name of the rank.
func (hr HandRank) String() string {
	return hr.Type().String()
}

// CompareHands returns 1 if a is stronger, -1 if b is stronger, 0 for a tie.
func CompareHands(a, b HandRank) int {
	switch {
	case a < b:
		return 1
	case a > b:
		return -1
	default:
		return 0
	}
}

// Evaluate returns the rank of the best 5-card hand available from the hole
// cards combined with the board. The combined set must hold 5 to 7 cards.
// Because hands are bitsets the result is invariant under any permutation of
// hole or board cards.
func Evaluate(hole, board Hand) HandRank {
	return EvaluateHand(hole | board)
}

// EvaluateHand ranks the best 5-card hand within a 5-7 card set. It returns
// 0 for sets outside that size range.
func EvaluateHand(hand Hand) HandRank {
	n := hand.CountCards()
	if n < 5 || n > 7 {
		return 0
	}

	var suitMasks [4]uint16
	var rankMask uint16
	for suit := uint8(0); suit < 4; suit++ {
		m := hand.GetSuitMask(suit)
		suitMasks[suit] = m
		rankMask |= m
	}

	// Flushes first. With at most seven cards a flush excludes quads and
	// full houses, so a flush result is only ever beaten by a straight
	// flush in the same suit.
	var bestFlush HandRank
	for _, m := range suitMasks {
		if bits.OnesCount16(m) < 5 {
			continue
		}
		if high := straightHighMask(m); high > 0 {
			return packRank(StraightFlush, uint32(high))
		}
		top := topRanks(m, nil, 5)
		r := packRank(Flush, nibbles(top))
		if bestFlush == 0 || r < bestFlush {
			bestFlush = r
		}
	}
	if bestFlush != 0 {
		return bestFlush
	}

	s0, s1, s2, s3 := suitMasks[0], suitMasks[1], suitMasks[2], suitMasks[3]
	quadsMask := s0 & s1 & s2 & s3
	tripCandidates := (s0 & s1 & s2) | (s0 & s1 & s3) | (s0 & s2 & s3) | (s1 & s2 & s3)
	tripsMask := tripCandidates &^ quadsMask
	pairsMask := ((s0 & s1) | (s0 & s2) | (s0 & s3) | (s1 & s2) | (s1 & s3) | (s2 & s3)) &^ tripCandidates

	if quad := highestRank(quadsMask); quad >= 0 {
		kicker := topRanks(rankMask, []uint8{uint8(quad)}, 1)
		return packRank(FourOfAKind, uint32(quad)<<4|uint32(kicker[0]))
	}

	if trip := highestRank(tripsMask); trip >= 0 {
		// A second trip counts as the pair of a full house.
		pairCandidates := pairsMask | (tripsMask &^ (1 << trip))
		if pair := highestRank(pairCandidates); pair >= 0 {
			return packRank(FullHouse, uint32(trip)<<4|uint32(pair))
		}
	}

	if high := straightHighMask(rankMask); high > 0 {
		return packRank(Straight, uint32(high))
	}

	if trip := highestRank(tripsMask); trip >= 0 {
		k := topRanks(rankMask, []uint8{uint8(trip)}, 2)
		return packRank(ThreeOfAKind, uint32(trip)<<8|uint32(k[0])<<4|uint32(k[1]))
	}

	if hi := highestRank(pairsMask); hi >= 0 {
		if lo := highestRank(pairsMask &^ (1 << hi)); lo >= 0 {
			k := topRanks(rankMask, []uint8{uint8(hi), uint8(lo)}, 1)
			return packRank(TwoPair, uint32(hi)<<8|uint32(lo)<<4|uint32(k[0]))
		}
		k := topRanks(rankMask, []uint8{uint8(hi)}, 3)
		return packRank(Pair, uint32(hi)<<12|uint32(k[0])<<8|uint32(k[1])<<4|uint32(k[2]))
	}

	return packRank(HighCard, nibbles(topRanks(rankMask, nil, 5)))
}

// Winners returns the seats holding the strongest hand over the shared
// board, seats ascending, together with the winning rank.
func Winners(holes map[int]Hand, board Hand) ([]int, HandRank) {
	var best HandRank
	var winners []int
	seats := make([]int, 0, len(holes))
	for seat := range holes {
		seats = append(seats, seat)
	}
	sort.Ints(seats)
	for _, seat := range seats {
		r := Evaluate(holes[seat], board)
		switch {
		case len(winners) == 0 || r < best:
			best = r
			winners = winners[:0]
			winners = append(winners, seat)
		case r == best:
			winners = append(winners, seat)
		}
	}
	return winners, best
}

func packRank(t HandType, detail uint32) HandRank {
	return HandRank(maxStrength - (uint32(t)<<20 | detail))
}

// nibbles packs up to five descending ranks into 4-bit fields, highest rank
// in the most significant nibble.
func nibbles(ranks []uint8) uint32 {
	var v uint32
	for _, r := range ranks {
		v = v<<4 | uint32(r)
	}
	return v
}

// highestRank returns the highest rank present in the mask, or -1 when empty.
func highestRank(mask uint16) int {
	if mask == 0 {
		return -1
	}
	return bits.Len16(mask) - 1
}

// topRanks returns the n highest ranks in the mask in descending order,
// skipping excluded ranks. Missing positions are filled with 0.
func topRanks(mask uint16, exclude []uint8, n int) []uint8 {
	for _, r := range exclude {
		mask &^= 1 << r
	}
	out := make([]uint8, 0, n)
	for len(out) < n {
		if mask == 0 {
			out = append(out, 0)
			continue
		}
		top := uint8(bits.Len16(mask) - 1)
		out = append(out, top)
		mask &^= 1 << top
	}
	return out
}

// straightHighMask returns the high-card rank of the best straight in the
// rank mask, or 0 if none. The wheel (A-5) reports high card 3 (the five).
func straightHighMask(mask uint16) uint8 {
	const wheel = 0x100F // A + 2-3-4-5
	mask &= 0x1FFF

	// Bitwise cascade finds runs of five consecutive ranks in one pass.
	seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if seq != 0 {
		return uint8(bits.Len16(seq)-1) + 4
	}
	if mask&wheel == wheel {
		return 3
	}
	return 0
}
