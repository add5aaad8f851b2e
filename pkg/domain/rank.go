package domain

// Rank is an achievement tier used as a gate precondition.
// The ordering is a fixed total order from lowest (E) to highest (S).
type Rank string

const (
	RankE Rank = "E"
	RankD Rank = "D"
	RankC Rank = "C"
	RankB Rank = "B"
	RankA Rank = "A"
	RankS Rank = "S"
)

// rankOrder maps ranks to their position in the total order.
// Unknown ranks are absent and order below RankE (position 0 vs 1).
var rankOrder = map[Rank]int{
	RankE: 1,
	RankD: 2,
	RankC: 3,
	RankB: 4,
	RankA: 5,
	RankS: 6,
}

// Order returns the position of the rank in the total order.
// Unknown ranks return 0, so a malformed rank can never satisfy a gate.
func (r Rank) Order() int {
	return rankOrder[r]
}

// AtLeast reports whether r meets or exceeds the required rank.
func (r Rank) AtLeast(required Rank) bool {
	return r.Order() >= required.Order()
}

// Valid reports whether the rank is one of the known tiers.
func (r Rank) Valid() bool {
	_, ok := rankOrder[r]
	return ok
}
