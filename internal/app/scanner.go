package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/crossarb/internal/config"
	"github.com/alanyoungcy/crossarb/internal/domain"
)

// Scanner runs the scan-detect-execute cycle on a fixed interval. A cycle
// that fails on market data is skipped; a cycle refused by the risk governor
// halts the scanner entirely.
type Scanner struct {
	cfg    config.ScannerConfig
	deps   *Dependencies
	logger *slog.Logger
}

// NewScanner creates a Scanner over wired dependencies.
func NewScanner(cfg config.ScannerConfig, deps *Dependencies, logger *slog.Logger) *Scanner {
	return &Scanner{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With(slog.String("component", "scanner")),
	}
}

// Run executes cycles until the context is cancelled or the governor halts
// trading. The first cycle runs immediately.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info("scan loop starting",
		slog.Duration("interval", s.cfg.PollInterval.Duration),
		slog.Bool("dry_run", s.cfg.DryRun))

	ticker := time.NewTicker(s.cfg.PollInterval.Duration)
	defer ticker.Stop()

	for {
		if err := s.cycle(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Scanner) cycle(ctx context.Context) error {
	if err := s.deps.Governor.CheckScan(ctx); err != nil {
		if errors.Is(err, domain.ErrTradingHalted) || errors.Is(err, domain.ErrJournalUnreadable) {
			s.deps.Notifier.Alert(ctx, "TRADING HALTED", err.Error())
			return fmt.Errorf("app: %w", err)
		}
		s.logger.Warn("scan check failed", slog.String("error", err.Error()))
		return nil
	}

	kalshiMarkets, polyMarkets, err := s.snapshots(ctx)
	if err != nil {
		s.logger.Warn("snapshot failed, skipping cycle", slog.String("error", err.Error()))
		return nil
	}

	opps := s.deps.Detector.Detect(kalshiMarkets, polyMarkets)
	if len(opps) == 0 {
		return nil
	}
	s.logger.Info("opportunities found", slog.Int("count", len(opps)))

	if s.cfg.DryRun {
		for i := range opps {
			o := &opps[i]
			s.logger.Info("dry run candidate",
				slog.String("game", o.Game.String()),
				slog.String("description", o.Description),
				slog.Float64("unit_cost", o.UnitCost),
				slog.Float64("roi", o.ROI))
		}
		return nil
	}

	s.execute(ctx, opps)
	return nil
}

// snapshots fetches both venues concurrently under the snapshot timeout.
func (s *Scanner) snapshots(ctx context.Context) ([]domain.CanonicalMarket, []domain.CanonicalMarket, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SnapshotTimeout.Duration)
	defer cancel()

	var kalshiMarkets, polyMarkets []domain.CanonicalMarket
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		kalshiMarkets, err = s.deps.Kalshi.Snapshot(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		polyMarkets, err = s.deps.Poly.Snapshot(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	s.logger.Debug("snapshots",
		slog.Int("kalshi", len(kalshiMarkets)),
		slog.Int("polymarket", len(polyMarkets)))
	return kalshiMarkets, polyMarkets, nil
}

// execute walks the ranked candidates and trades the ones the governor
// admits. Legs run sequentially; failures skip to the next candidate.
func (s *Scanner) execute(ctx context.Context, opps []domain.Opportunity) {
	ksBalance, err := s.deps.Kalshi.Balance(ctx)
	if err != nil {
		s.logger.Warn("kalshi balance unavailable", slog.String("error", err.Error()))
		return
	}
	pmBalance, err := s.deps.Poly.Balance(ctx)
	if err != nil {
		s.logger.Warn("polymarket balance unavailable", slog.String("error", err.Error()))
		return
	}

	for i := range opps {
		opp := &opps[i]

		if err := s.deps.Governor.CheckExecution(ctx, opp); err != nil {
			s.logger.Debug("candidate refused",
				slog.String("key", opp.DedupKey()),
				slog.String("reason", err.Error()))
			continue
		}

		plan := s.deps.Sizer.Size(opp, ksBalance, pmBalance)

		result, err := s.deps.Coordinator.Execute(ctx, opp, plan.MaxShares)
		if err != nil {
			s.logger.Warn("execution attempt failed",
				slog.String("key", opp.DedupKey()),
				slog.String("error", err.Error()))
			continue
		}
		if result.Executed {
			s.deps.Governor.RecordExecution(ctx, opp)
		}
	}
}
