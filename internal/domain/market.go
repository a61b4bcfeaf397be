package domain

import "time"

// MarketStatus represents the lifecycle state of a market. Transitions are
// monotonic: active -> resolved or active -> cancelled, nothing else.
type MarketStatus string

const (
	MarketStatusActive    MarketStatus = "active"
	MarketStatusResolved  MarketStatus = "resolved"
	MarketStatusCancelled MarketStatus = "cancelled"
)

// Market is a single binary (YES/NO) proposition with aggregated stakes.
type Market struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category,omitempty"`
	CreatedBy   string       `json:"createdBy"`
	Status      MarketStatus `json:"status"`

	// SupportingStake and OpposingStake are the cumulative token amounts
	// backing YES and NO respectively. Both only grow while the market is
	// active.
	SupportingStake float64 `json:"supportingStake"`
	OpposingStake   float64 `json:"opposingStake"`

	// Probability is the implied YES likelihood in percent, derived from the
	// stake totals and never set independently. Odds is the YES-side payout
	// multiplier implied by Probability.
	Probability int     `json:"probability"`
	Odds        float64 `json:"odds"`

	// Result is nil while the market is open and set exactly once at
	// resolution: true means YES won.
	Result *bool `json:"result"`

	CreatedAt  time.Time  `json:"createdAt"`
	TargetDate time.Time  `json:"targetDate"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// TotalStaked returns the sum of both side totals.
func (m Market) TotalStaked() float64 {
	return m.SupportingStake + m.OpposingStake
}

// Open reports whether the market still accepts stakes.
func (m Market) Open() bool {
	return m.Status == MarketStatusActive
}
