package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

func TestTeamsFromEventTicker_SixCharSplit(t *testing.T) {
	pair, ok := TeamsFromEventTicker("KXNFLGAME-26JAN17BUFDEN")
	require.True(t, ok)
	assert.Equal(t, "buf-den", pair.Key())
}

func TestTeamsFromEventTicker_FiveCharSplit(t *testing.T) {
	pair, ok := TeamsFromEventTicker("KXNCAAMBGAME-26JAN13GCUNM")
	require.True(t, ok)
	assert.Equal(t, "gcu-nm", pair.Key())
}

func TestTeamsFromEventTicker_SevenCharSplit(t *testing.T) {
	pair, ok := TeamsFromEventTicker("KXNCAAMBGAME-26JAN13MARQSJU")
	require.True(t, ok)
	assert.Equal(t, "marq-sju", pair.Key())
}

func TestTeamsFromEventTicker_TooShort(t *testing.T) {
	_, ok := TeamsFromEventTicker("KXNFLGAME-26JAN17BU")
	assert.False(t, ok)

	_, ok = TeamsFromEventTicker("KXNFLGAME")
	assert.False(t, ok)
}

func TestTeamsFromEventSlug(t *testing.T) {
	pair, ok := TeamsFromEventSlug("nfl-buf-den-2026-01-17")
	require.True(t, ok)
	assert.Equal(t, "buf-den", pair.Key())
}

func TestTeamsFromEventSlug_AliasNormalization(t *testing.T) {
	pair, ok := TeamsFromEventSlug("cbb-gcan-nmx-2026-01-13")
	require.True(t, ok)
	assert.Equal(t, "gcu-nm", pair.Key())
}

func TestTeamsFromEventSlug_TooFewTokens(t *testing.T) {
	_, ok := TeamsFromEventSlug("nfl-buf-den")
	assert.False(t, ok)
}

func TestTeamPair_OrderIndependent(t *testing.T) {
	a, ok := domain.NewTeamPair("den", "buf")
	require.True(t, ok)
	b, ok := domain.NewTeamPair("buf", "den")
	require.True(t, ok)
	assert.Equal(t, a, b)
}

func TestClassifyMarket_Priority(t *testing.T) {
	mt, ok := ClassifyMarket("bills wins by over 3.5 points")
	require.True(t, ok)
	assert.Equal(t, domain.MarketSpread, mt)

	mt, ok = ClassifyMarket("total points o/u 47.5")
	require.True(t, ok)
	assert.Equal(t, domain.MarketTotal, mt)

	mt, ok = ClassifyMarket("buffalo bills winner?")
	require.True(t, ok)
	assert.Equal(t, domain.MarketWinner, mt)

	mt, ok = ClassifyMarket("bills vs. broncos")
	require.True(t, ok)
	assert.Equal(t, domain.MarketWinner, mt)

	_, ok = ClassifyMarket("something unrelated")
	assert.False(t, ok)
}

func TestClassifyMarket_SpreadBeatsWinnerKeywords(t *testing.T) {
	mt, ok := ClassifyMarket("steelers spread winner")
	require.True(t, ok)
	assert.Equal(t, domain.MarketSpread, mt)
}

func TestExtractSpread(t *testing.T) {
	teams, _ := domain.NewTeamPair("hou", "pit")

	ref, ok := ExtractSpread("steelers (-6.5)", teams)
	require.True(t, ok)
	assert.Equal(t, "pit", ref.Team)
	assert.InDelta(t, 6.5, ref.Line, 1e-9)
}

func TestExtractSpread_UnresolvableTeam(t *testing.T) {
	teams, _ := domain.NewTeamPair("hou", "pit")
	_, ok := ExtractSpread("someone wins by over 3.5", teams)
	assert.False(t, ok)
}

func TestExtractSpread_NoLine(t *testing.T) {
	teams, _ := domain.NewTeamPair("buf", "den")
	_, ok := ExtractSpread("bills cover the spread", teams)
	assert.False(t, ok)
}

func TestResolveKalshi_Winner(t *testing.T) {
	m, ok := ResolveKalshi(KalshiRaw{
		Sport:       "nfl",
		Ticker:      "KXNFLGAME-26JAN17BUFDEN-BUF",
		EventTicker: "KXNFLGAME-26JAN17BUFDEN",
		Title:       "Buffalo Bills winner?",
		YesAskCents: 47,
	})
	require.True(t, ok)
	assert.Equal(t, domain.VenueKalshi, m.Venue)
	assert.Equal(t, "nfl:buf-den", m.Game.String())
	assert.Equal(t, domain.MarketWinner, m.Type)
	assert.InDelta(t, 0.47, m.YesCost, 1e-9)
	assert.InDelta(t, 0.53, m.NoCost, 1e-9)
	assert.Nil(t, m.Line)
}

func TestResolveKalshi_ExcludesBundlesPartialsProps(t *testing.T) {
	base := KalshiRaw{
		Sport:       "nfl",
		Ticker:      "T",
		EventTicker: "KXNFLGAME-26JAN17BUFDEN",
		YesAskCents: 50,
	}

	bundle := base
	bundle.Title = "Bills winner, Broncos cover"
	_, ok := ResolveKalshi(bundle)
	assert.False(t, ok, "bundle")

	partial := base
	partial.Title = "bills 1st half winner"
	_, ok = ResolveKalshi(partial)
	assert.False(t, ok, "partial game")

	prop := base
	prop.Title = "josh allen passing touchdown winner"
	_, ok = ResolveKalshi(prop)
	assert.False(t, ok, "prop")
}

func TestResolveKalshi_Idempotent(t *testing.T) {
	raw := KalshiRaw{
		Sport:       "nfl",
		Ticker:      "T",
		EventTicker: "KXNFLGAME-26JAN17BUFDEN",
		Title:       "Bills wins by over 3.5?",
		YesAskCents: 30,
	}
	a, ok := ResolveKalshi(raw)
	require.True(t, ok)
	b, ok := ResolveKalshi(raw)
	require.True(t, ok)
	assert.Equal(t, a, b)
}

func TestResolvePolymarket_Winner(t *testing.T) {
	m, ok := ResolvePolymarket(PolymarketRaw{
		Sport:     "nfl",
		EventSlug: "nfl-buf-den-2026-01-17",
		Slug:      "nfl-buf-den-winner",
		Title:     "Bills vs. Broncos",
		BestBid:   0.44,
		BestAsk:   0.46,
		HasQuote:  true,
		Outcomes:  []string{"Bills", "Broncos"},
		TokenIDs:  []string{"tok-yes", "tok-no"},
	})
	require.True(t, ok)
	assert.Equal(t, domain.VenuePolymarket, m.Venue)
	assert.Equal(t, "nfl:buf-den", m.Game.String())
	assert.Equal(t, domain.MarketWinner, m.Type)
	assert.InDelta(t, 0.46, m.YesCost, 1e-9)
	assert.InDelta(t, 0.56, m.NoCost, 1e-9)
	assert.Equal(t, "tok-yes", m.TokenFor(domain.SideYes))
	assert.Equal(t, "tok-no", m.TokenFor(domain.SideNo))
}

func TestResolvePolymarket_MissingToken(t *testing.T) {
	_, ok := ResolvePolymarket(PolymarketRaw{
		Sport:     "nfl",
		EventSlug: "nfl-buf-den-2026-01-17",
		Title:     "Bills vs. Broncos",
		HasQuote:  true,
		BestBid:   0.4,
		BestAsk:   0.5,
		TokenIDs:  []string{"only-one"},
	})
	assert.False(t, ok)
}

func TestResolvePolymarket_AwardEventExcluded(t *testing.T) {
	_, ok := ResolvePolymarket(PolymarketRaw{
		Sport:     "nfl",
		EventSlug: "nfl-mvp-award-2026-01-17",
		Title:     "who wins mvp",
		TokenIDs:  []string{"a", "b"},
	})
	assert.False(t, ok)
}

func TestResolvePolymarket_MissingQuoteDefaultsToMid(t *testing.T) {
	m, ok := ResolvePolymarket(PolymarketRaw{
		Sport:     "nfl",
		EventSlug: "nfl-buf-den-2026-01-17",
		Slug:      "s",
		Title:     "Bills vs. Broncos",
		TokenIDs:  []string{"a", "b"},
	})
	require.True(t, ok)
	assert.InDelta(t, 0.5, m.YesCost, 1e-9)
	assert.InDelta(t, 0.5, m.NoCost, 1e-9)
}

func TestResolvePolymarket_InvalidQuoteExcluded(t *testing.T) {
	_, ok := ResolvePolymarket(PolymarketRaw{
		Sport:     "nfl",
		EventSlug: "nfl-buf-den-2026-01-17",
		Title:     "Bills vs. Broncos",
		HasQuote:  true,
		BestBid:   1.2,
		BestAsk:   0.5,
		TokenIDs:  []string{"a", "b"},
	})
	assert.False(t, ok)
}

func TestNormalizeTeamCode_UnknownKeptAsLiteral(t *testing.T) {
	assert.Equal(t, "xyz", NormalizeTeamCode("XYZ"))
	assert.Equal(t, "gcu", NormalizeTeamCode("GCAN"))
}

func TestAttributeTeam(t *testing.T) {
	teams, _ := domain.NewTeamPair("marq", "sju")
	assert.Equal(t, "marq", AttributeTeam("marquette golden eagles to win", teams))
	assert.Equal(t, "sju", AttributeTeam("st. john's red storm", teams))
	assert.Equal(t, "", AttributeTeam("gonzaga bulldogs", teams))
}
