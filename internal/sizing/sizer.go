// Package sizing implements the advisory position model: liquidity buckets
// from quoted spread width, capital ceilings, and a profitability floor. The
// output is a planning estimate only; the execution coordinator recomputes a
// hard bound from live balances and never lets this estimate raise it.
package sizing

import (
	"log/slog"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// Config holds the sizing parameters.
type Config struct {
	// BalanceFraction is the share of each venue balance a single trade may
	// deploy.
	BalanceFraction float64
	// MaxShares is the global per-trade share cap.
	MaxShares float64
	// SafetyFactor scales the synthesized maximum down before use.
	SafetyFactor float64
}

// Plan is the advisory size with the bounds it was derived from.
type Plan struct {
	Shares    float64
	MinShares float64
	MaxShares float64

	KalshiLiquidity float64
	PolyLiquidity   float64
}

// Sizer produces advisory position plans.
type Sizer struct {
	cfg    Config
	logger *slog.Logger
}

// NewSizer creates a Sizer with the given parameters.
func NewSizer(cfg Config, logger *slog.Logger) *Sizer {
	return &Sizer{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "sizer")),
	}
}

// kalshiLiquidityShares buckets the Kalshi quoted spread into a share ceiling.
// A tight spread signals a deep book.
func kalshiLiquidityShares(spread float64) float64 {
	switch {
	case spread < 0.01:
		return 20
	case spread < 0.03:
		return 10
	case spread < 0.05:
		return 5
	default:
		return 2
	}
}

// polyLiquidityShares buckets the Polymarket quoted spread into a share
// ceiling.
func polyLiquidityShares(spread float64) float64 {
	switch {
	case spread < 0.02:
		return 50
	case spread < 0.05:
		return 25
	case spread < 0.10:
		return 10
	default:
		return 5
	}
}

// Size derives the advisory plan for an opportunity given current balances.
func (s *Sizer) Size(opp *domain.Opportunity, kalshiBalance, polyBalance float64) Plan {
	ksSpread := opp.Kalshi.Market.YesCost - opp.Kalshi.Market.NoCost
	if ksSpread < 0 {
		ksSpread = -ksSpread
	}
	pmSpread := opp.Poly.Market.BestAsk - opp.Poly.Market.YesCost
	if pmSpread < 0 {
		pmSpread = -pmSpread
	}

	ksLiq := kalshiLiquidityShares(ksSpread)
	pmLiq := polyLiquidityShares(pmSpread)

	var ksCapital, pmCapital float64
	if opp.UnitCost > 0 {
		ksCapital = kalshiBalance * s.cfg.BalanceFraction / opp.UnitCost
		pmCapital = polyBalance * s.cfg.BalanceFraction / opp.UnitCost
	}

	maxShares := minOf(ksLiq, pmLiq, ksCapital, pmCapital, s.cfg.MaxShares)

	// The floor is the smallest position whose conservative profit still
	// covers per-side execution cost.
	minShares := 0.01
	conservativeProfit := opp.UnitProfit * 0.95
	if conservativeProfit > 0 {
		if required := 0.01 / (conservativeProfit + 0.001); required > minShares {
			minShares = required
		}
	}

	shares := minShares
	if maxShares >= minShares {
		shares = maxShares * s.cfg.SafetyFactor
	}
	if shares < 0.01 {
		shares = 0.01
	}
	if shares > 1.0 {
		shares = 1.0
	}

	s.logger.Debug("position plan",
		slog.String("game", opp.Game.String()),
		slog.Float64("shares", shares),
		slog.Float64("min", minShares),
		slog.Float64("max", maxShares))

	return Plan{
		Shares:          shares,
		MinShares:       minShares,
		MaxShares:       maxShares,
		KalshiLiquidity: ksLiq,
		PolyLiquidity:   pmLiq,
	}
}

func minOf(vs ...float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
