package domain

import "time"

// Outcome is the terminal state of an execution attempt.
type Outcome string

const (
	// OutcomeSuccess means both legs filled.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure means the attempt ended flat: either the first leg never
	// filled, or it was fully closed by the compensating order.
	OutcomeFailure Outcome = "failure"
	// OutcomeNaked means one leg is filled and the compensating close also
	// failed. Manual intervention is required.
	OutcomeNaked Outcome = "naked"
)

// TradeRecord is the immutable journal entry written once per terminal
// execution state. Field names are the journal's compatibility surface; they
// must not change without migrating stored records.
type TradeRecord struct {
	ID         string     `json:"id"`
	Timestamp  time.Time  `json:"timestamp"`
	Game       string     `json:"game"`
	MarketType MarketType `json:"market_type"`

	Description string `json:"description"`
	KalshiSide  Side   `json:"kalshi_side"`
	PolySide    Side   `json:"poly_side"`

	UnitCost   float64 `json:"unit_cost"`
	UnitProfit float64 `json:"unit_profit"`
	ROI        float64 `json:"roi"`

	PositionSize int     `json:"position_size"`
	TradeCost    float64 `json:"trade_cost"`
	LockedProfit float64 `json:"locked_profit"`

	Outcome        Outcome `json:"outcome"`
	BothLegsFilled bool    `json:"both_legs_filled"`

	// Detail carries failure context (which leg failed, compensation result).
	Detail string `json:"detail,omitempty"`
}

// Fill is one execution report from a venue.
type Fill struct {
	Venue    Venue
	OrderID  string
	Handle   string
	Side     Side
	Count    int
	AvgPrice float64
	Time     time.Time
}

// OrderResult is the outcome of a single order placement.
type OrderResult struct {
	OrderID     string
	FilledCount int
	AvgPrice    float64
}
