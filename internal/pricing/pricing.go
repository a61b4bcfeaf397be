// Package pricing derives implied probability and per-side payout odds from
// a market's stake totals. Everything here is a pure function of its inputs
// so registry, stores, and settlement all price identically.
package pricing

import "math"

// DefaultMaxOdds caps the payout multiplier when one side's implied
// probability approaches zero.
const DefaultMaxOdds = 100.0

// DefaultSeedSplit is the share of an initial stake credited to the YES
// side when a market is created.
const DefaultSeedSplit = 0.6

const (
	// SeedProbability and SeedOdds are the display values a freshly created
	// market carries before any real stake differential exists.
	SeedProbability = 50
	SeedOdds        = 1.5
)

// Params carries the tunable pricing knobs.
type Params struct {
	// MaxOdds bounds per-side odds away from infinity at probability 0/100.
	MaxOdds float64

	// SeedSplit is the YES share of an initial stake. Values outside (0, 1)
	// fall back to DefaultSeedSplit.
	SeedSplit float64
}

// Defaults returns the standard pricing parameters.
func Defaults() Params {
	return Params{MaxOdds: DefaultMaxOdds, SeedSplit: DefaultSeedSplit}
}

// Probability returns the YES probability in percent implied by the stake
// totals, clamped to [0, 100]. A zero total keeps prev unchanged: once real
// stakes exist the value must never snap back to an arbitrary midpoint, and
// division by zero is avoided.
func (p Params) Probability(supporting, opposing float64, prev int) int {
	total := supporting + opposing
	if total <= 0 {
		return clampPct(prev)
	}
	return clampPct(int(math.Round(100 * supporting / total)))
}

// SideOdds returns the payout multiplier for one side given the market's
// probability. The supporting side pays 1/p, the opposing side 1/(1-p),
// both capped at MaxOdds and floored at 1.0.
func (p Params) SideOdds(probability int, supporting bool) float64 {
	prob := float64(clampPct(probability)) / 100
	if !supporting {
		prob = 1 - prob
	}

	maxOdds := p.MaxOdds
	if maxOdds <= 1 {
		maxOdds = DefaultMaxOdds
	}
	if prob <= 0 {
		return maxOdds
	}

	odds := 1 / prob
	if odds > maxOdds {
		return maxOdds
	}
	if odds < 1 {
		return 1
	}
	return odds
}

// SplitSeed divides an initial stake between the two sides using ratio as
// the YES share. The YES portion is floored to whole tokens, matching how
// markets have historically been seeded; the remainder backs NO.
func SplitSeed(initialStake, ratio float64) (supporting, opposing float64) {
	if ratio <= 0 || ratio >= 1 {
		ratio = DefaultSeedSplit
	}
	supporting = math.Floor(initialStake * ratio)
	opposing = initialStake - supporting
	return supporting, opposing
}

func clampPct(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
