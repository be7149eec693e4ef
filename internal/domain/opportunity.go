package domain

import "fmt"

// Leg is one half of a candidate trade: a venue, the market to trade there,
// and which side of it to buy.
type Leg struct {
	Venue  Venue
	Market *CanonicalMarket
	Side   Side
	// Cost is the per-share cost of this side before fees.
	Cost float64
}

// Opportunity is a priced cross-venue arbitrage candidate. Buying one share of
// each leg locks UnitProfit regardless of the game result when both legs fill.
type Opportunity struct {
	Game GameKey
	Type MarketType

	// Kalshi and Poly are the two legs; Kalshi.Cost already excludes the taker
	// fee, which is applied inside UnitCost.
	Kalshi Leg
	Poly   Leg

	// UnitCost is kalshiCost*(1+fee) + polyCost for one share of each leg.
	UnitCost float64
	// UnitProfit is 1 - UnitCost.
	UnitProfit float64
	// ROI is UnitProfit / UnitCost.
	ROI float64

	// Description is a short human-readable label for logs and the journal,
	// e.g. "winner: kalshi yes det / poly no det".
	Description string
}

// DedupKey identifies the opportunity for cooldown purposes: same game, same
// market type, same pair of sides.
func (o *Opportunity) DedupKey() string {
	return fmt.Sprintf("%s:%s:%s:%s", o.Game, o.Type, o.Kalshi.Side, o.Poly.Side)
}
