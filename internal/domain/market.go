// Package domain defines the core types shared across the scanner: canonical
// market identities, arbitrage opportunities, trade records, and the
// collaborator interfaces implemented by the venue clients and the journal.
package domain

import (
	"fmt"
	"strings"
)

// Venue identifies one of the two trading venues.
type Venue string

const (
	VenueKalshi     Venue = "kalshi"
	VenuePolymarket Venue = "polymarket"
)

// Side is the outcome side of a binary contract as the venue understands it.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Opposite returns the complementary side.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// MarketType classifies a game market by its payoff shape.
type MarketType string

const (
	MarketWinner MarketType = "winner"
	MarketSpread MarketType = "spread"
	MarketTotal  MarketType = "total"
)

// TeamPair is an unordered pair of canonical team codes. Construct it with
// NewTeamPair so the ordering is normalized; two TeamPair values compare equal
// iff they name the same two teams.
type TeamPair struct {
	A, B string
}

// NewTeamPair returns the normalized pair and false when the two codes are
// empty or identical (a market naming one team twice is never pairable).
func NewTeamPair(a, b string) (TeamPair, bool) {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" || a == b {
		return TeamPair{}, false
	}
	if a > b {
		a, b = b, a
	}
	return TeamPair{A: a, B: b}, true
}

// Key returns the pair as "a-b" with the codes in normalized order.
func (p TeamPair) Key() string {
	return p.A + "-" + p.B
}

// Teams returns both codes in normalized order.
func (p TeamPair) Teams() [2]string {
	return [2]string{p.A, p.B}
}

// Contains reports whether code is one of the two teams.
func (p TeamPair) Contains(code string) bool {
	return code == p.A || code == p.B
}

// Other returns the opponent of code within the pair. It returns "" when code
// is not part of the pair.
func (p TeamPair) Other(code string) string {
	switch code {
	case p.A:
		return p.B
	case p.B:
		return p.A
	default:
		return ""
	}
}

// GameKey identifies a real-world game independent of venue: sport plus the
// unordered team pair.
type GameKey struct {
	Sport string
	Teams TeamPair
}

// String renders the key as "sport:a-b", the form used in logs and the journal.
func (g GameKey) String() string {
	return g.Sport + ":" + g.Teams.Key()
}

// SpreadRef ties a spread market to the team it is quoted on and the absolute
// line. Spreads only pair when both venues resolve to the same SpreadRef.
type SpreadRef struct {
	Team string
	Line float64
}

// CanonicalMarket is a venue market reduced to its venue-independent identity
// plus the quote and execution metadata needed downstream. It is produced by
// the identity resolver and never mutated afterwards.
type CanonicalMarket struct {
	Venue Venue
	Game  GameKey
	Type  MarketType

	// Title is the lowercased display text, kept for team attribution and logs.
	Title string

	// Handle is the opaque trading identifier: the market ticker on Kalshi,
	// the market slug on Polymarket.
	Handle string

	// YesCost and NoCost are the costs to buy one share of each outcome.
	YesCost float64
	NoCost  float64

	// BestBid and BestAsk are the raw top-of-book quotes used for spread-width
	// liquidity bucketing.
	BestBid float64
	BestAsk float64

	// Line is the numeric line for spread/total markets; nil for winner markets
	// and totals whose title carries no number (which are never paired).
	Line *float64

	// Spread is the resolved (team, line) for spread markets; nil otherwise.
	Spread *SpreadRef

	// Outcomes and TokenIDs describe Polymarket's two sides in venue order:
	// Outcomes[i] is traded via TokenIDs[i]. Empty for Kalshi markets, whose
	// sides are always yes/no on the single ticker.
	Outcomes [2]string
	TokenIDs [2]string

	// Liquidity signals. OpenInterest and Volume24h are contract counts on
	// Kalshi; VolumeUSD and Volume24h are dollar figures on Polymarket.
	OpenInterest float64
	VolumeUSD    float64
	Volume24h    float64
}

// TokenFor returns the Polymarket token ID for the given side.
func (m *CanonicalMarket) TokenFor(side Side) string {
	if side == SideYes {
		return m.TokenIDs[0]
	}
	return m.TokenIDs[1]
}

// CostFor returns the cost to buy one share of the given side.
func (m *CanonicalMarket) CostFor(side Side) float64 {
	if side == SideYes {
		return m.YesCost
	}
	return m.NoCost
}

// String implements fmt.Stringer for log lines.
func (m *CanonicalMarket) String() string {
	return fmt.Sprintf("%s/%s %s %q", m.Venue, m.Game, m.Type, m.Handle)
}
