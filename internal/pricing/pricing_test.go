package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbability(t *testing.T) {
	p := Defaults()

	tests := []struct {
		name       string
		supporting float64
		opposing   float64
		prev       int
		want       int
	}{
		{"even split", 500, 500, 50, 50},
		{"sixty forty", 600, 400, 50, 60},
		{"rounds up", 110, 40, 60, 73}, // 110/150 = 73.33
		{"all yes", 100, 0, 50, 100},
		{"all no", 0, 100, 50, 0},
		{"zero total keeps previous", 0, 0, 62, 62},
		{"zero total clamps bad previous", 0, 0, 140, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Probability(tt.supporting, tt.opposing, tt.prev))
		})
	}
}

func TestProbabilityIdempotent(t *testing.T) {
	p := Defaults()

	first := p.Probability(347, 891, 50)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, p.Probability(347, 891, first))
	}
}

func TestSideOdds(t *testing.T) {
	p := Defaults()

	// probability 60: YES pays 1/0.6, NO pays 1/0.4.
	assert.InDelta(t, 1.6667, p.SideOdds(60, true), 0.001)
	assert.InDelta(t, 2.5, p.SideOdds(60, false), 0.001)

	// Degenerate probabilities are capped, not infinite.
	assert.Equal(t, DefaultMaxOdds, p.SideOdds(0, true))
	assert.Equal(t, DefaultMaxOdds, p.SideOdds(100, false))

	// The near-certain side never pays below 1x.
	assert.Equal(t, 1.0, p.SideOdds(100, true))
}

func TestSideOddsCustomCap(t *testing.T) {
	p := Params{MaxOdds: 10}

	assert.Equal(t, 10.0, p.SideOdds(99, false))
	assert.InDelta(t, 10.0, p.SideOdds(10, true), 0.001)
}

func TestSplitSeed(t *testing.T) {
	supporting, opposing := SplitSeed(100, 0.6)
	assert.Equal(t, 60.0, supporting)
	assert.Equal(t, 40.0, opposing)
	assert.Equal(t, 100.0, supporting+opposing)

	// The YES share floors to whole tokens; nothing is lost.
	supporting, opposing = SplitSeed(101, 0.6)
	assert.Equal(t, 60.0, supporting)
	assert.Equal(t, 41.0, opposing)

	// Out-of-range ratios fall back to the default split.
	supporting, _ = SplitSeed(100, 1.5)
	assert.Equal(t, 60.0, supporting)
}
