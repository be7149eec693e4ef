// Package executor implements the two-leg execution coordinator: a hard size
// bound from live balances and market liquidity, Polymarket first, Kalshi
// second, and a single compensating close when the second leg fails. The
// coordinator never leaves exposure uncontrolled without journaling it.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// State is the coordinator's position in the execution protocol.
type State string

const (
	StateIdle            State = "idle"
	StateLegBPlaced      State = "leg_b_placed"
	StateBothFilled      State = "both_filled"
	StateCompensating    State = "compensating"
	StateCompensatedSafe State = "compensated_safe"
	StateNakedPosition   State = "naked_position"
)

// Config holds the coordinator's hard limits.
type Config struct {
	// BalanceFraction is the share of each live venue balance one trade may
	// deploy.
	BalanceFraction float64
	// MaxPositionUSD is the global per-trade dollar cap.
	MaxPositionUSD float64
	// KalshiLiquidityFraction caps the position at this fraction of
	// max(open interest, 24h volume) on the Kalshi market.
	KalshiLiquidityFraction float64
	// PolyLiquidityFraction caps the position at this fraction of the
	// Polymarket volume, converted to shares at unit cost.
	PolyLiquidityFraction float64
	// FillMatchTolerance is the allowed relative mismatch between the two
	// legs' fill counts before a warning is raised.
	FillMatchTolerance float64
}

// Result reports the terminal state of one execution attempt together with
// the journaled record, when one was written.
type Result struct {
	AttemptID string
	State     State
	Executed  bool
	Record    *domain.TradeRecord
}

// Coordinator executes arbitrage candidates leg by leg.
type Coordinator struct {
	cfg     Config
	kalshi  domain.OrderClient
	poly    domain.OrderClient
	journal domain.TradeJournal
	notify  domain.Notifier
	logger  *slog.Logger
}

// NewCoordinator creates a Coordinator. The notifier may be nil.
func NewCoordinator(
	cfg Config,
	kalshi, poly domain.OrderClient,
	journal domain.TradeJournal,
	notify domain.Notifier,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		kalshi:  kalshi,
		poly:    poly,
		journal: journal,
		notify:  notify,
		logger:  logger.With(slog.String("component", "executor")),
	}
}

// Execute runs the full protocol for one candidate. advisoryCap, when
// positive, is an upper bound from the planning sizer; it can only shrink the
// hard bound, never raise it. The returned error describes rejections before
// any order was placed; once the first leg is out, every path ends in a
// journaled terminal state instead.
func (c *Coordinator) Execute(ctx context.Context, opp *domain.Opportunity, advisoryCap float64) (Result, error) {
	res := Result{AttemptID: uuid.NewString(), State: StateIdle}
	logger := c.logger.With(
		slog.String("attempt", res.AttemptID),
		slog.String("game", opp.Game.String()),
		slog.String("type", string(opp.Type)))

	if opp.UnitCost <= 0 || opp.UnitCost > 1 || opp.UnitProfit <= 0 {
		return res, fmt.Errorf("executor: invalid candidate economics (cost=%.4f profit=%.4f)", opp.UnitCost, opp.UnitProfit)
	}

	ksBalance, err := c.kalshi.Balance(ctx)
	if err != nil {
		return res, fmt.Errorf("executor: kalshi balance: %w", err)
	}
	pmBalance, err := c.poly.Balance(ctx)
	if err != nil {
		return res, fmt.Errorf("executor: polymarket balance: %w", err)
	}

	size, err := c.hardBound(opp, ksBalance, pmBalance, advisoryCap)
	if err != nil {
		return res, err
	}

	tradeCost := opp.UnitCost * float64(size)
	if ksBalance < tradeCost {
		return res, fmt.Errorf("executor: kalshi balance %.2f below trade cost %.2f: %w", ksBalance, tradeCost, domain.ErrInsufficientBalance)
	}
	if pmBalance < tradeCost {
		return res, fmt.Errorf("executor: polymarket balance %.2f below trade cost %.2f: %w", pmBalance, tradeCost, domain.ErrInsufficientBalance)
	}

	logger.Info("executing",
		slog.Int("size", size),
		slog.Float64("unit_cost", opp.UnitCost),
		slog.Float64("trade_cost", tradeCost),
		slog.Float64("locked_profit", opp.UnitProfit*float64(size)))

	// Leg 1: Polymarket, the venue with the weaker execution guarantees.
	// Failure here leaves zero exposure.
	pmResult, err := c.poly.PlaceImmediate(ctx, opp.Poly.Market, opp.Poly.Side, size)
	if err != nil || pmResult.FilledCount == 0 {
		if err != nil {
			logger.Warn("polymarket leg rejected", slog.String("error", err.Error()))
		} else {
			logger.Warn("polymarket leg unfilled")
		}
		rec := c.record(opp, size, domain.OutcomeFailure, true, "polymarket leg did not fill")
		// No capital was deployed; a clean rejection must not feed the loss
		// kill switch.
		rec.TradeCost = 0
		c.append(ctx, logger, &res, rec)
		res.State = StateIdle
		return res, nil
	}
	res.State = StateLegBPlaced
	logger.Info("polymarket leg filled",
		slog.String("order_id", pmResult.OrderID),
		slog.Int("filled", pmResult.FilledCount))

	// Leg 2: Kalshi, priced to cross any spread.
	ksResult, err := c.kalshi.PlaceImmediate(ctx, opp.Kalshi.Market, opp.Kalshi.Side, pmResult.FilledCount)
	if err != nil || ksResult.FilledCount == 0 {
		if err != nil {
			logger.Error("kalshi leg failed, compensating", slog.String("error", err.Error()))
		} else {
			logger.Error("kalshi leg unfilled, compensating")
		}
		return c.compensate(ctx, logger, res, opp, pmResult.FilledCount, size)
	}

	res.State = StateBothFilled
	res.Executed = true
	c.verifyFills(ctx, logger, opp, pmResult.FilledCount, ksResult.FilledCount)

	rec := c.record(opp, size, domain.OutcomeSuccess, true, "")
	c.append(ctx, logger, &res, rec)
	logger.Info("locked",
		slog.Float64("profit", opp.UnitProfit*float64(size)),
		slog.Float64("roi", opp.ROI))
	return res, nil
}

// hardBound computes the binding share count from live balances, per-market
// liquidity, the dollar cap, and the advisory ceiling. It fails when the
// bound falls below one whole share.
func (c *Coordinator) hardBound(opp *domain.Opportunity, ksBalance, pmBalance, advisoryCap float64) (int, error) {
	cost := opp.UnitCost

	bound := math.Min(ksBalance*c.cfg.BalanceFraction/cost, pmBalance*c.cfg.BalanceFraction/cost)
	bound = math.Min(bound, c.cfg.MaxPositionUSD/cost)

	km := opp.Kalshi.Market
	if liq := math.Max(km.OpenInterest, km.Volume24h); liq > 0 {
		bound = math.Min(bound, liq*c.cfg.KalshiLiquidityFraction)
	}

	pm := opp.Poly.Market
	pmLiquidity := pm.Volume24h
	if pmLiquidity <= 0 {
		pmLiquidity = pm.VolumeUSD * 0.1
	}
	if pmLiquidity > 0 {
		bound = math.Min(bound, pmLiquidity*c.cfg.PolyLiquidityFraction/cost)
	}

	if advisoryCap > 0 {
		bound = math.Min(bound, advisoryCap)
	}

	size := int(bound)
	if size < 1 {
		return 0, fmt.Errorf("executor: bound %.2f shares: %w", bound, domain.ErrPositionTooSmall)
	}
	return size, nil
}

// compensate issues exactly one closing order for the filled Polymarket leg.
// Success ends flat; failure is a naked position and halts trading upstream.
func (c *Coordinator) compensate(ctx context.Context, logger *slog.Logger, res Result, opp *domain.Opportunity, filled, size int) (Result, error) {
	res.State = StateCompensating

	_, err := c.poly.CloseImmediate(ctx, opp.Poly.Market, opp.Poly.Side, filled)
	if err != nil {
		res.State = StateNakedPosition
		logger.Error("compensating close failed, naked position",
			slog.String("error", err.Error()))
		rec := c.record(opp, size, domain.OutcomeNaked, false,
			fmt.Sprintf("kalshi leg failed and compensating close failed: %v", err))
		c.append(ctx, logger, &res, rec)
		if c.notify != nil {
			c.notify.Alert(ctx, "NAKED POSITION",
				fmt.Sprintf("game %s: polymarket %s leg of %d shares is unhedged, close manually",
					opp.Game, opp.Poly.Side, filled))
		}
		return res, nil
	}

	res.State = StateCompensatedSafe
	logger.Warn("polymarket leg closed, flat with spread loss")
	rec := c.record(opp, size, domain.OutcomeFailure, true, "kalshi leg failed, polymarket leg closed")
	c.append(ctx, logger, &res, rec)
	return res, nil
}

// verifyFills compares the two legs' recent fill totals. A mismatch beyond
// the tolerance only warns; settlement still pays both filled legs.
func (c *Coordinator) verifyFills(ctx context.Context, logger *slog.Logger, opp *domain.Opportunity, pmFilled, ksFilled int) {
	diff := math.Abs(float64(pmFilled - ksFilled))
	limit := c.cfg.FillMatchTolerance * float64(pmFilled)
	if diff > limit {
		logger.Warn("fill counts diverge",
			slog.Int("polymarket", pmFilled),
			slog.Int("kalshi", ksFilled))
	}

	since := time.Now().Add(-5 * time.Minute)
	fills, err := c.kalshi.RecentFills(ctx, since)
	if err != nil {
		logger.Warn("fill verification unavailable", slog.String("error", err.Error()))
		return
	}
	var total int
	for _, f := range fills {
		if f.Handle == opp.Kalshi.Market.Handle {
			total += f.Count
		}
	}
	if float64(total) > float64(ksFilled)*(1+c.cfg.FillMatchTolerance) {
		logger.Warn("kalshi position larger than expected",
			slog.Int("recent_fills", total),
			slog.Int("expected", ksFilled))
	}
}

// record builds the immutable journal entry for a terminal state.
func (c *Coordinator) record(opp *domain.Opportunity, size int, outcome domain.Outcome, bothFilled bool, detail string) domain.TradeRecord {
	rec := domain.TradeRecord{
		ID:             uuid.NewString(),
		Timestamp:      time.Now().UTC(),
		Game:           opp.Game.String(),
		MarketType:     opp.Type,
		Description:    opp.Description,
		KalshiSide:     opp.Kalshi.Side,
		PolySide:       opp.Poly.Side,
		UnitCost:       opp.UnitCost,
		UnitProfit:     opp.UnitProfit,
		ROI:            opp.ROI,
		PositionSize:   size,
		TradeCost:      opp.UnitCost * float64(size),
		Outcome:        outcome,
		BothLegsFilled: bothFilled,
		Detail:         detail,
	}
	if outcome == domain.OutcomeSuccess {
		rec.LockedProfit = opp.UnitProfit * float64(size)
	}
	return rec
}

// append journals the record. Append failure is logged and counted but never
// aborts the attempt.
func (c *Coordinator) append(ctx context.Context, logger *slog.Logger, res *Result, rec domain.TradeRecord) {
	res.Record = &rec
	if err := c.journal.Append(ctx, rec); err != nil {
		logger.Error("journal append failed", slog.String("error", err.Error()))
	}
}
