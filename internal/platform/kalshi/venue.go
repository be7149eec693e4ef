package kalshi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/identity"
)

// seriesConfigs lists the game series scanned each cycle, one per sport and
// market flavor. Moneyline, spread, and total markets live in separate series.
var seriesConfigs = []struct {
	Series string
	Sport  string
}{
	{"KXNFLGAME", "nfl"},
	{"KXNFLSPREAD", "nfl"},
	{"KXNFLTOTAL", "nfl"},
	{"KXCFBGAME", "cfb"},
	{"KXCFBSPREAD", "cfb"},
	{"KXCFBTOTAL", "cfb"},
	{"KXNCAAMBGAME", "cbb"},
	{"KXNCAAMBSPREAD", "cbb"},
	{"KXNCAAMBTOTAL", "cbb"},
	{"KXNBAGAME", "nba"},
	{"KXNBASPREAD", "nba"},
	{"KXNBATOTAL", "nba"},
}

const (
	// takerBuyPriceCents crosses any possible spread so buy orders execute
	// immediately or reject. An order priced at the current ask can become a
	// resting maker if the ask moves.
	takerBuyPriceCents = 99

	// takerSellPriceCents guarantees immediate execution when flattening.
	takerSellPriceCents = 1
)

// VenueAdapter exposes Kalshi as a snapshot source and order client.
type VenueAdapter struct {
	client *Client
	logger *slog.Logger
}

// NewVenueAdapter wraps a Client for scanning and order placement.
func NewVenueAdapter(client *Client, logger *slog.Logger) *VenueAdapter {
	return &VenueAdapter{
		client: client,
		logger: logger.With(slog.String("component", "kalshi")),
	}
}

// Venue identifies this adapter.
func (v *VenueAdapter) Venue() domain.Venue {
	return domain.VenueKalshi
}

// Snapshot fetches all open game markets across the configured series and
// resolves them to canonical identities. A failed series is skipped; the
// snapshot fails only when every series fails.
func (v *VenueAdapter) Snapshot(ctx context.Context) ([]domain.CanonicalMarket, error) {
	var (
		out     []domain.CanonicalMarket
		fetched int
		lastErr error
	)

	for _, sc := range seriesConfigs {
		markets, err := v.client.MarketsBySeries(ctx, sc.Series, "open")
		if err != nil {
			lastErr = err
			v.logger.Warn("series fetch failed",
				slog.String("series", sc.Series),
				slog.String("error", err.Error()))
			continue
		}
		fetched++

		for _, m := range markets {
			if m.Status != "" && m.Status != "open" {
				continue
			}
			canonical, ok := identity.ResolveKalshi(identity.KalshiRaw{
				Sport:        sc.Sport,
				Ticker:       m.Ticker,
				EventTicker:  m.EventTicker,
				Title:        m.Title,
				YesAskCents:  m.YesAsk,
				OpenInterest: float64(m.OpenInterest),
				Volume24h:    float64(m.Volume24H),
			})
			if !ok {
				continue
			}
			out = append(out, canonical)
		}
	}

	if fetched == 0 && lastErr != nil {
		return nil, fmt.Errorf("kalshi: snapshot: %w", lastErr)
	}

	v.logger.Debug("snapshot complete",
		slog.Int("series", fetched),
		slog.Int("markets", len(out)))
	return out, nil
}

// PlaceImmediate buys count contracts on the given side with a limit price
// that always crosses the spread. The order fills as a taker or rejects; it
// never rests on the book. If the exchange reports it resting anyway, the
// position is flattened immediately and the placement fails.
func (v *VenueAdapter) PlaceImmediate(ctx context.Context, m *domain.CanonicalMarket, side domain.Side, count int) (domain.OrderResult, error) {
	order := Order{
		Ticker: m.Handle,
		Action: "buy",
		Side:   string(side),
		Type:   "market",
		Count:  count,
	}
	price := takerBuyPriceCents
	if side == domain.SideYes {
		order.YesPrice = &price
	} else {
		order.NoPrice = &price
	}

	status, err := v.client.CreateOrder(ctx, order)
	if err != nil {
		return domain.OrderResult{}, err
	}

	if status.Status == "resting" {
		v.logger.Error("order rested on book despite taker pricing, flattening",
			slog.String("ticker", m.Handle),
			slog.String("order_id", status.OrderID))
		if _, sellErr := v.CloseImmediate(ctx, m, side, count); sellErr != nil {
			v.logger.Error("emergency flatten failed",
				slog.String("ticker", m.Handle),
				slog.String("error", sellErr.Error()))
		}
		return domain.OrderResult{}, fmt.Errorf("kalshi: order %s rested on book: %w", status.OrderID, domain.ErrOrderRejected)
	}

	return toOrderResult(status), nil
}

// CloseImmediate sells count contracts on the given side at the minimum
// price, guaranteeing immediate execution.
func (v *VenueAdapter) CloseImmediate(ctx context.Context, m *domain.CanonicalMarket, side domain.Side, count int) (domain.OrderResult, error) {
	order := Order{
		Ticker: m.Handle,
		Action: "sell",
		Side:   string(side),
		Type:   "market",
		Count:  count,
	}
	price := takerSellPriceCents
	if side == domain.SideYes {
		order.YesPrice = &price
	} else {
		order.NoPrice = &price
	}

	status, err := v.client.CreateOrder(ctx, order)
	if err != nil {
		return domain.OrderResult{}, err
	}
	return toOrderResult(status), nil
}

// Balance returns the available cash balance in dollars.
func (v *VenueAdapter) Balance(ctx context.Context) (float64, error) {
	cents, err := v.client.BalanceCents(ctx)
	if err != nil {
		return 0, err
	}
	return float64(cents) / 100.0, nil
}

// RecentFills returns fills created at or after since.
func (v *VenueAdapter) RecentFills(ctx context.Context, since time.Time) ([]domain.Fill, error) {
	fills, err := v.client.Fills(ctx, "", 100)
	if err != nil {
		return nil, err
	}

	var out []domain.Fill
	for _, f := range fills {
		created, err := time.Parse(time.RFC3339, f.CreatedTime)
		if err != nil {
			continue
		}
		if created.Before(since) {
			continue
		}

		priceCents := f.YesPrice
		if f.Side == "no" {
			priceCents = f.NoPrice
		}
		out = append(out, domain.Fill{
			Venue:    domain.VenueKalshi,
			OrderID:  f.OrderID,
			Handle:   f.Ticker,
			Side:     domain.Side(f.Side),
			Count:    f.Count,
			AvgPrice: float64(priceCents) / 100.0,
			Time:     created,
		})
	}
	return out, nil
}

func toOrderResult(status OrderStatus) domain.OrderResult {
	filled := status.TakerFillCount + status.MakerFillCount
	avg := 0.0
	if status.TakerFillCount > 0 {
		avg = float64(status.TakerFillCost) / float64(status.TakerFillCount) / 100.0
	}
	return domain.OrderResult{
		OrderID:     status.OrderID,
		FilledCount: filled,
		AvgPrice:    avg,
	}
}
