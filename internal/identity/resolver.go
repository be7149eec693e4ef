// Package identity resolves venue market records to canonical cross-venue
// identities. Resolution is pure and idempotent; every failure is silent
// exclusion, never an error.
package identity

import (
	"regexp"
	"strings"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// KalshiRaw is the subset of a Kalshi market needed for resolution, already
// tagged with the sport of the series it was fetched under.
type KalshiRaw struct {
	Sport        string
	Ticker       string
	EventTicker  string
	Title        string
	YesAskCents  int
	OpenInterest float64
	Volume24h    float64
}

// PolymarketRaw is the subset of a Polymarket market needed for resolution.
type PolymarketRaw struct {
	Sport     string
	EventSlug string
	Slug      string
	Title     string
	BestBid   float64
	BestAsk   float64
	HasQuote  bool
	Outcomes  []string
	TokenIDs  []string
	VolumeUSD float64
	Volume24h float64
}

// tickerDateRe strips the leading DDMMMYY date from the team segment of a
// Kalshi event ticker, e.g. "26JAN17BUFDEN" leaves "BUFDEN".
var tickerDateRe = regexp.MustCompile(`^\d{2}[A-Z]{3}\d{2}`)

// TeamsFromEventTicker extracts the two team codes from a Kalshi event ticker
// like "KXNFLGAME-26JAN17BUFDEN". The segment after the date is split by
// length: 6 chars 3-3, 5 chars 3-2, 7 chars 4-3, 8 chars 4-4, anything else
// down the middle.
func TeamsFromEventTicker(eventTicker string) (domain.TeamPair, bool) {
	parts := strings.Split(strings.ToUpper(eventTicker), "-")
	if len(parts) < 2 {
		return domain.TeamPair{}, false
	}
	seg := tickerDateRe.ReplaceAllString(parts[len(parts)-1], "")
	if len(seg) < 4 {
		return domain.TeamPair{}, false
	}

	var cut int
	switch len(seg) {
	case 6, 5:
		cut = 3
	case 7, 8:
		cut = 4
	default:
		cut = len(seg) / 2
	}
	a := NormalizeTeamCode(seg[:cut])
	b := NormalizeTeamCode(seg[cut:])
	return domain.NewTeamPair(a, b)
}

// TeamsFromEventSlug extracts the two team codes from a Polymarket event slug
// like "nfl-buf-den-2026-01-17": drop the sport prefix and the trailing three
// date tokens, teams are the first two remaining tokens.
func TeamsFromEventSlug(slug string) (domain.TeamPair, bool) {
	parts := strings.Split(strings.ToLower(slug), "-")
	if len(parts) < 4 {
		return domain.TeamPair{}, false
	}
	teamParts := parts[1 : len(parts)-3]
	if len(teamParts) < 2 {
		return domain.TeamPair{}, false
	}
	a := NormalizeTeamCode(teamParts[0])
	b := NormalizeTeamCode(teamParts[1])
	return domain.NewTeamPair(a, b)
}

// ResolveKalshi reduces a raw Kalshi market to its canonical identity. The
// second return is false when the market is unclassifiable, a bundle, a
// partial-game or prop contract, or its teams cannot be extracted.
func ResolveKalshi(raw KalshiRaw) (domain.CanonicalMarket, bool) {
	title := lowerTrim(raw.Title)
	if title == "" || raw.EventTicker == "" {
		return domain.CanonicalMarket{}, false
	}

	teams, ok := TeamsFromEventTicker(raw.EventTicker)
	if !ok {
		return domain.CanonicalMarket{}, false
	}
	if IsBundle(title) || IsPartialGame(title) || IsPartialGame(strings.ToLower(raw.Ticker)) || IsProp(title) {
		return domain.CanonicalMarket{}, false
	}

	mtype, ok := ClassifyMarket(title)
	if !ok {
		return domain.CanonicalMarket{}, false
	}

	yesAsk := float64(raw.YesAskCents)
	if yesAsk <= 0 {
		yesAsk = 50
	}
	yesCost := yesAsk / 100.0
	noCost := (100.0 - yesAsk) / 100.0

	m := domain.CanonicalMarket{
		Venue:        domain.VenueKalshi,
		Game:         domain.GameKey{Sport: lowerTrim(raw.Sport), Teams: teams},
		Type:         mtype,
		Title:        title,
		Handle:       raw.Ticker,
		YesCost:      yesCost,
		NoCost:       noCost,
		OpenInterest: raw.OpenInterest,
		Volume24h:    raw.Volume24h,
	}
	attachLines(&m, title, teams, mtype)
	return m, true
}

// ResolvePolymarket reduces a raw Polymarket market to its canonical identity.
// Markets on award events, bundles, partial-game and prop contracts, and
// markets missing either CLOB token are excluded.
func ResolvePolymarket(raw PolymarketRaw) (domain.CanonicalMarket, bool) {
	slug := strings.ToLower(raw.EventSlug)
	title := lowerTrim(raw.Title)
	if title == "" || slug == "" {
		return domain.CanonicalMarket{}, false
	}
	if IsAwardEvent(slug) {
		return domain.CanonicalMarket{}, false
	}

	teams, ok := TeamsFromEventSlug(slug)
	if !ok {
		return domain.CanonicalMarket{}, false
	}
	if IsBundle(title) || IsPartialGame(title) || IsPartialGame(strings.ToLower(raw.Slug)) || IsProp(title) {
		return domain.CanonicalMarket{}, false
	}

	mtype, ok := ClassifyMarket(title)
	if !ok {
		return domain.CanonicalMarket{}, false
	}

	if len(raw.TokenIDs) < 2 || raw.TokenIDs[0] == "" || raw.TokenIDs[1] == "" {
		return domain.CanonicalMarket{}, false
	}

	bid, ask := raw.BestBid, raw.BestAsk
	if !raw.HasQuote {
		bid, ask = 0.5, 0.5
	}
	if ask <= 0 || bid < 0 || bid > 1 || ask > 1 {
		return domain.CanonicalMarket{}, false
	}

	outcomes := [2]string{"Yes", "No"}
	if len(raw.Outcomes) >= 2 {
		outcomes[0], outcomes[1] = raw.Outcomes[0], raw.Outcomes[1]
	}

	m := domain.CanonicalMarket{
		Venue:     domain.VenuePolymarket,
		Game:      domain.GameKey{Sport: lowerTrim(raw.Sport), Teams: teams},
		Type:      mtype,
		Title:     title,
		Handle:    raw.Slug,
		YesCost:   ask,
		NoCost:    1.0 - bid,
		BestBid:   bid,
		BestAsk:   ask,
		Outcomes:  outcomes,
		TokenIDs:  [2]string{raw.TokenIDs[0], raw.TokenIDs[1]},
		VolumeUSD: raw.VolumeUSD,
		Volume24h: raw.Volume24h,
	}
	attachLines(&m, title, teams, mtype)
	return m, true
}

// attachLines records the numeric line and, for spreads, the team attribution.
// Winner markets carry neither.
func attachLines(m *domain.CanonicalMarket, title string, teams domain.TeamPair, mtype domain.MarketType) {
	switch mtype {
	case domain.MarketSpread:
		if ref, ok := ExtractSpread(title, teams); ok {
			m.Spread = &ref
			m.Line = &ref.Line
		}
	case domain.MarketTotal:
		if line, ok := ExtractLine(title); ok {
			m.Line = &line
		}
	}
}
