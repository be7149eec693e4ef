package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/identity"
)

const (
	// minBuyNotionalUSD is the exchange minimum total value for buy orders.
	minBuyNotionalUSD = 1.0

	// takerOffset is added to the best ask (or subtracted from the best bid)
	// so the order still crosses the spread if the top of book moves one tick.
	takerOffset = 0.01

	maxPrice = 0.99
	minPrice = 0.01
)

// VenueAdapter exposes Polymarket as a snapshot source and order client.
// Discovery goes through Gamma, trading through the CLOB, and balances
// through the Polygon chain.
type VenueAdapter struct {
	gamma  *GammaClient
	clob   *ClobClient
	chain  *ChainReader
	logger *slog.Logger
}

// NewVenueAdapter wires the three Polymarket surfaces into one venue.
func NewVenueAdapter(gamma *GammaClient, clob *ClobClient, chain *ChainReader, logger *slog.Logger) *VenueAdapter {
	return &VenueAdapter{
		gamma:  gamma,
		clob:   clob,
		chain:  chain,
		logger: logger.With(slog.String("component", "polymarket")),
	}
}

// Venue identifies this adapter.
func (v *VenueAdapter) Venue() domain.Venue {
	return domain.VenuePolymarket
}

// Snapshot discovers open game markets across the sports series and resolves
// them to canonical identities.
func (v *VenueAdapter) Snapshot(ctx context.Context) ([]domain.CanonicalMarket, error) {
	sports, err := v.gamma.Sports(ctx)
	if err != nil {
		return nil, fmt.Errorf("polymarket: snapshot: %w", err)
	}

	series := seriesBySport(sports)
	if len(series) == 0 {
		return nil, fmt.Errorf("polymarket: snapshot: no tracked sports in metadata")
	}

	var out []domain.CanonicalMarket
	for sport, ids := range series {
		for _, id := range ids {
			events, err := v.gamma.EventsBySeries(ctx, id)
			if err != nil {
				v.logger.Warn("series fetch failed",
					slog.String("sport", sport),
					slog.String("series_id", id),
					slog.String("error", err.Error()))
				continue
			}
			for _, ev := range events {
				out = append(out, v.resolveEvent(sport, ev)...)
			}
		}
	}

	v.logger.Debug("snapshot complete", slog.Int("markets", len(out)))
	return out, nil
}

// seriesBySport maps the tracked sports to their Gamma series IDs. College
// basketball appears under both "cbb" and "ncaab" metadata rows.
func seriesBySport(sports []APISport) map[string][]string {
	out := make(map[string][]string)
	add := func(sport string, id json.Number) {
		if id.String() != "" && id.String() != "0" {
			out[sport] = append(out[sport], id.String())
		}
	}
	for _, s := range sports {
		switch s.Sport {
		case "nfl":
			add("nfl", s.Series)
		case "cfb":
			add("cfb", s.Series)
		case "cbb", "ncaab":
			add("cbb", s.Series)
		case "nba":
			add("nba", s.Series)
		}
	}
	return out
}

func (v *VenueAdapter) resolveEvent(sport string, ev APIEvent) []domain.CanonicalMarket {
	var out []domain.CanonicalMarket
	for _, m := range ev.Markets {
		if m.Closed {
			continue
		}

		bid, ask := 0.5, 0.5
		hasQuote := m.BestBid != nil || m.BestAsk != nil
		if m.BestBid != nil {
			bid = float64(*m.BestBid)
		}
		if m.BestAsk != nil {
			ask = float64(*m.BestAsk)
		}

		volume := float64(m.VolumeNum)
		if volume == 0 {
			volume = float64(m.Volume)
		}
		volume24h := float64(m.Volume24hr)
		if volume24h == 0 {
			// Estimate when the API omits the rolling window.
			volume24h = volume * 0.1
		}

		canonical, ok := identity.ResolvePolymarket(identity.PolymarketRaw{
			Sport:     sport,
			EventSlug: ev.Slug,
			Slug:      m.Slug,
			Title:     m.Question,
			BestBid:   bid,
			BestAsk:   ask,
			HasQuote:  hasQuote,
			Outcomes:  m.Outcomes,
			TokenIDs:  m.ClobTokenIDs,
			VolumeUSD: volume,
			Volume24h: volume24h,
		})
		if !ok {
			continue
		}
		out = append(out, canonical)
	}
	return out
}

// PlaceImmediate buys count shares of the token backing the given side with a
// fill-or-kill order priced through the fresh best ask. The order fills
// completely or rejects; a partial fill is impossible.
func (v *VenueAdapter) PlaceImmediate(ctx context.Context, m *domain.CanonicalMarket, side domain.Side, count int) (domain.OrderResult, error) {
	tokenID := m.TokenFor(side)
	if tokenID == "" {
		return domain.OrderResult{}, fmt.Errorf("polymarket: market %s has no token for side %s", m.Handle, side)
	}

	book, err := v.clob.OrderBook(ctx, tokenID)
	if err != nil {
		return domain.OrderResult{}, err
	}
	if len(book.Asks) == 0 {
		return domain.OrderResult{}, fmt.Errorf("polymarket: no asks for %s: %w", m.Handle, domain.ErrOrderRejected)
	}

	askPrice, askSize, err := parseLevel(book.Asks[0])
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket: bad book level for %s: %w", m.Handle, err)
	}

	price := round2(math.Min(askPrice+takerOffset, maxPrice))
	size := float64(count)

	if price*size < minBuyNotionalUSD {
		return domain.OrderResult{}, fmt.Errorf("polymarket: order value $%.2f below $%.2f minimum: %w",
			price*size, minBuyNotionalUSD, domain.ErrOrderRejected)
	}
	if size > askSize {
		return domain.OrderResult{}, fmt.Errorf("polymarket: need %.0f shares, only %.2f at best ask: %w",
			size, askSize, domain.ErrOrderRejected)
	}

	orderID, err := v.clob.PostOrderFOK(ctx, tokenID, sideBuy, price, size)
	if err != nil {
		return domain.OrderResult{}, err
	}

	return domain.OrderResult{OrderID: orderID, FilledCount: count, AvgPrice: price}, nil
}

// CloseImmediate sells count shares of the token backing the given side,
// priced through the fresh best bid.
func (v *VenueAdapter) CloseImmediate(ctx context.Context, m *domain.CanonicalMarket, side domain.Side, count int) (domain.OrderResult, error) {
	tokenID := m.TokenFor(side)
	if tokenID == "" {
		return domain.OrderResult{}, fmt.Errorf("polymarket: market %s has no token for side %s", m.Handle, side)
	}

	book, err := v.clob.OrderBook(ctx, tokenID)
	if err != nil {
		return domain.OrderResult{}, err
	}
	if len(book.Bids) == 0 {
		return domain.OrderResult{}, fmt.Errorf("polymarket: no bids for %s, cannot sell: %w", m.Handle, domain.ErrOrderRejected)
	}

	bidPrice, bidSize, err := parseLevel(book.Bids[0])
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket: bad book level for %s: %w", m.Handle, err)
	}

	price := round2(math.Max(bidPrice-takerOffset, minPrice))
	size := float64(count)
	if size > bidSize {
		return domain.OrderResult{}, fmt.Errorf("polymarket: need %.0f shares, only %.2f at best bid: %w",
			size, bidSize, domain.ErrOrderRejected)
	}

	orderID, err := v.clob.PostOrderFOK(ctx, tokenID, sideSell, price, size)
	if err != nil {
		return domain.OrderResult{}, err
	}

	return domain.OrderResult{OrderID: orderID, FilledCount: count, AvgPrice: price}, nil
}

// Balance returns the funder wallet's USDC balance in dollars.
func (v *VenueAdapter) Balance(ctx context.Context) (float64, error) {
	return v.chain.USDCBalance(ctx)
}

// RecentFills returns CLOB trades matched at or after since. Trades carry no
// yes/no attribution, only the token and size.
func (v *VenueAdapter) RecentFills(ctx context.Context, since time.Time) ([]domain.Fill, error) {
	trades, err := v.clob.Trades(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.Fill
	for _, t := range trades {
		matchedUnix, err := strconv.ParseInt(t.MatchTime, 10, 64)
		if err != nil {
			continue
		}
		matched := time.Unix(matchedUnix, 0)
		if matched.Before(since) {
			continue
		}

		size, _ := strconv.ParseFloat(t.Size, 64)
		price, _ := strconv.ParseFloat(t.Price, 64)
		out = append(out, domain.Fill{
			Venue:    domain.VenuePolymarket,
			OrderID:  t.ID,
			Handle:   t.AssetID,
			Count:    int(math.Round(size)),
			AvgPrice: price,
			Time:     matched,
		})
	}
	return out, nil
}

func parseLevel(l BookLevel) (price, size float64, err error) {
	price, err = strconv.ParseFloat(l.Price, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse price %q: %w", l.Price, err)
	}
	size, err = strconv.ParseFloat(l.Size, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse size %q: %w", l.Size, err)
	}
	return price, size, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
