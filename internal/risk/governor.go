// Package risk implements the pre-scan and pre-execution safety gates: the
// realized-loss kill switch, the naked-position detector, duplicate
// suppression, and per-game exposure caps. All state is held in an explicit
// Governor value constructed at process start; there are no globals.
package risk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// Config holds the governor thresholds.
type Config struct {
	// LossKillThreshold stops all trading once realized losses reach this
	// fraction of total deployed cost.
	LossKillThreshold float64
	// NakedScanWindow is how many recent records the naked-position detector
	// inspects.
	NakedScanWindow int
	// Cooldown is how long an executed opportunity key suppresses re-entry.
	Cooldown time.Duration
	// MaxPositionsPerGame caps executed legs on a single game.
	MaxPositionsPerGame int
	// MaxPerCycle caps execution attempts in one scan cycle, whether or not
	// they succeed.
	MaxPerCycle int
}

// Governor gates scanning and execution against the trade journal.
type Governor struct {
	cfg       Config
	journal   domain.TradeJournal
	cooldown  domain.CooldownStore
	logger    *slog.Logger
	perGame   map[string]int
	thisCycle int
}

// NewGovernor creates a Governor. Per-game counters start empty; every
// CheckScan call rebuilds them from the journal.
func NewGovernor(cfg Config, journal domain.TradeJournal, cooldown domain.CooldownStore, logger *slog.Logger) *Governor {
	return &Governor{
		cfg:      cfg,
		journal:  journal,
		cooldown: cooldown,
		logger:   logger.With(slog.String("component", "risk")),
		perGame:  make(map[string]int),
	}
}

// CheckScan runs the pre-scan gates. A returned error wrapping
// domain.ErrTradingHalted means the process must stop scanning entirely; an
// error wrapping domain.ErrJournalUnreadable means the journal state is
// unknown and scanning must not proceed either.
func (g *Governor) CheckScan(ctx context.Context) error {
	var (
		totalCost float64
		netPnL    float64
		records   []domain.TradeRecord
	)
	err := g.journal.Replay(ctx, func(rec domain.TradeRecord) error {
		totalCost += rec.TradeCost
		if rec.Outcome == domain.OutcomeSuccess {
			netPnL += rec.LockedProfit
		} else {
			netPnL -= rec.TradeCost
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return fmt.Errorf("risk: replay journal: %w: %w", domain.ErrJournalUnreadable, err)
	}

	if totalCost > 0 {
		loss := 0.0
		if netPnL < 0 {
			loss = -netPnL
		}
		if ratio := loss / totalCost; ratio >= g.cfg.LossKillThreshold {
			g.logger.Error("loss kill switch tripped",
				slog.Float64("loss_ratio", ratio),
				slog.Float64("threshold", g.cfg.LossKillThreshold),
				slog.Float64("deployed", totalCost))
			return fmt.Errorf("risk: realized loss %.1f%% of deployed capital: %w", ratio*100, domain.ErrTradingHalted)
		}
	}

	window := records
	if len(window) > g.cfg.NakedScanWindow {
		window = window[len(window)-g.cfg.NakedScanWindow:]
	}
	for _, rec := range window {
		if !rec.BothLegsFilled {
			g.logger.Error("naked position detected",
				slog.String("game", rec.Game),
				slog.Time("at", rec.Timestamp))
			return fmt.Errorf("risk: naked position on %s: %w", rec.Game, domain.ErrTradingHalted)
		}
	}

	perGame := make(map[string]int)
	for _, rec := range records {
		if rec.Outcome == domain.OutcomeSuccess {
			perGame[rec.Game]++
		}
	}
	g.perGame = perGame
	g.thisCycle = 0
	return nil
}

// CheckExecution runs the pre-execution gates for a single candidate. It
// returns a descriptive error when the candidate must be skipped; the scan
// itself continues. An admitted candidate counts against the cycle cap
// immediately, so rejected or compensated attempts consume the budget the
// same as filled ones.
func (g *Governor) CheckExecution(ctx context.Context, opp *domain.Opportunity) error {
	if g.thisCycle >= g.cfg.MaxPerCycle {
		return fmt.Errorf("risk: cycle execution cap %d reached", g.cfg.MaxPerCycle)
	}

	game := opp.Game.String()
	if g.perGame[game] >= g.cfg.MaxPositionsPerGame {
		return fmt.Errorf("risk: game %s at position cap %d", game, g.cfg.MaxPositionsPerGame)
	}

	dup, err := g.cooldown.InCooldown(ctx, opp.DedupKey())
	if err != nil {
		return fmt.Errorf("risk: cooldown lookup: %w", err)
	}
	if dup {
		return fmt.Errorf("risk: %s inside cooldown window", opp.DedupKey())
	}

	g.thisCycle++
	return nil
}

// RecordExecution updates the per-game counter and starts the cooldown window
// after a successful execution. The cycle attempt was already counted when
// CheckExecution admitted the candidate.
func (g *Governor) RecordExecution(ctx context.Context, opp *domain.Opportunity) {
	g.perGame[opp.Game.String()]++
	if err := g.cooldown.Mark(ctx, opp.DedupKey(), g.cfg.Cooldown); err != nil {
		g.logger.Warn("cooldown mark failed",
			slog.String("key", opp.DedupKey()),
			slog.String("error", err.Error()))
	}
}
