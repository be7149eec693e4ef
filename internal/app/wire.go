package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alanyoungcy/crossarb/internal/arbitrage"
	s3blob "github.com/alanyoungcy/crossarb/internal/blob/s3"
	"github.com/alanyoungcy/crossarb/internal/cache/redis"
	"github.com/alanyoungcy/crossarb/internal/config"
	"github.com/alanyoungcy/crossarb/internal/crypto"
	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/executor"
	"github.com/alanyoungcy/crossarb/internal/journal"
	"github.com/alanyoungcy/crossarb/internal/notify"
	"github.com/alanyoungcy/crossarb/internal/platform/kalshi"
	"github.com/alanyoungcy/crossarb/internal/platform/polymarket"
	"github.com/alanyoungcy/crossarb/internal/risk"
	"github.com/alanyoungcy/crossarb/internal/sizing"
	"github.com/alanyoungcy/crossarb/internal/store/postgres"
)

// Dependencies bundles every wired component the scan loop needs.
type Dependencies struct {
	Kalshi *kalshi.VenueAdapter
	Poly   *polymarket.VenueAdapter

	Journal  domain.TradeJournal
	Cooldown domain.CooldownStore

	Detector    *arbitrage.Detector
	Sizer       *sizing.Sizer
	Governor    *risk.Governor
	Coordinator *executor.Coordinator
	Notifier    *notify.Fanout

	// Archiver is nil unless S3 archival is enabled on a file journal.
	Archiver    *s3blob.Archiver
	JournalPath string
}

// Wire builds the full dependency graph from the configuration. The returned
// cleanup function tears down every acquired resource in reverse order and is
// safe to call even when Wire itself failed partway.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	deps := &Dependencies{}

	// Notifications.
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewFanout(senders, logger)

	// Trade journal.
	switch cfg.Journal.Backend {
	case "postgres":
		pg, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			return fail(fmt.Errorf("app: postgres: %w", err))
		}
		closers = append(closers, pg.Close)
		if cfg.Postgres.RunMigrations {
			if err := pg.RunMigrations(ctx); err != nil {
				return fail(fmt.Errorf("app: migrations: %w", err))
			}
		}
		deps.Journal = postgres.NewJournalStore(pg.Pool())
	default:
		j, err := journal.OpenFile(cfg.Journal.Path)
		if err != nil {
			return fail(fmt.Errorf("app: journal: %w", err))
		}
		closers = append(closers, func() { _ = j.Close() })
		deps.Journal = j
		deps.JournalPath = j.Path()
	}

	// Cooldown store.
	if cfg.Redis.Enabled {
		rc, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail(fmt.Errorf("app: redis: %w", err))
		}
		closers = append(closers, func() { _ = rc.Close() })
		deps.Cooldown = redis.NewCooldown(rc)
	} else {
		deps.Cooldown = risk.NewMemoryCooldown()
	}

	// Kalshi venue.
	ksClient := kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.APIKeyID)
	if pem, err := kalshiPEM(cfg.Kalshi); err != nil {
		return fail(fmt.Errorf("app: kalshi key: %w", err))
	} else if pem != nil {
		if err := ksClient.SetRSAPrivateKey(pem); err != nil {
			return fail(fmt.Errorf("app: kalshi key: %w", err))
		}
	}
	deps.Kalshi = kalshi.NewVenueAdapter(ksClient, logger)

	// Polymarket venue. Without a wallet key only Gamma discovery is wired,
	// which is enough for a dry run.
	gamma := polymarket.NewGammaClient(cfg.Polymarket.GammaHost)
	var (
		clob  *polymarket.ClobClient
		chain *polymarket.ChainReader
	)
	if cfg.Wallet.PrivateKey != "" || cfg.Wallet.EncryptedKeyPath != "" {
		keyHex, err := crypto.LoadKey(crypto.KeyConfig{
			RawPrivateKey:    cfg.Wallet.PrivateKey,
			EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
			KeyPassword:      cfg.Wallet.KeyPassword,
		})
		if err != nil {
			return fail(fmt.Errorf("app: wallet key: %w", err))
		}
		signer, err := crypto.NewSigner(keyHex, cfg.Polymarket.ChainID)
		if err != nil {
			return fail(fmt.Errorf("app: signer: %w", err))
		}

		clob = polymarket.NewClobClient(cfg.Polymarket.ClobHost, signer, cfg.Wallet.FunderAddress, cfg.Polymarket.SignatureType)
		if err := clob.DeriveAPIKey(ctx); err != nil {
			return fail(fmt.Errorf("app: clob credentials: %w", err))
		}

		funder := cfg.Wallet.FunderAddress
		if funder == "" {
			funder = signer.Address().Hex()
		}
		chain, err = polymarket.NewChainReader(ctx, cfg.Polymarket.PolygonRPC, funder)
		if err != nil {
			return fail(fmt.Errorf("app: polygon rpc: %w", err))
		}
		closers = append(closers, chain.Close)
	}
	deps.Poly = polymarket.NewVenueAdapter(gamma, clob, chain, logger)

	// Strategy components.
	deps.Detector = arbitrage.NewDetector(arbitrage.Config{
		KalshiTakerFee: cfg.Detector.KalshiTakerFee,
		MinProfitRatio: cfg.Detector.MinProfitRatio,
	}, logger)
	deps.Sizer = sizing.NewSizer(sizing.Config{
		BalanceFraction: cfg.Sizing.BalanceFraction,
		MaxShares:       cfg.Sizing.MaxShares,
		SafetyFactor:    cfg.Sizing.SafetyFactor,
	}, logger)
	deps.Governor = risk.NewGovernor(risk.Config{
		LossKillThreshold:   cfg.Risk.LossKillThreshold,
		NakedScanWindow:     cfg.Risk.NakedScanWindow,
		Cooldown:            cfg.Risk.Cooldown.Duration,
		MaxPositionsPerGame: cfg.Risk.MaxPositionsPerGame,
		MaxPerCycle:         cfg.Risk.MaxPerCycle,
	}, deps.Journal, deps.Cooldown, logger)
	deps.Coordinator = executor.NewCoordinator(executor.Config{
		BalanceFraction:         cfg.Executor.BalanceFraction,
		MaxPositionUSD:          cfg.Executor.MaxPositionUSD,
		KalshiLiquidityFraction: cfg.Executor.KalshiLiquidityFraction,
		PolyLiquidityFraction:   cfg.Executor.PolyLiquidityFraction,
		FillMatchTolerance:      cfg.Executor.FillMatchTolerance,
	}, deps.Kalshi, deps.Poly, deps.Journal, deps.Notifier, logger)

	// Journal archival.
	if cfg.S3.Enabled && deps.JournalPath != "" {
		s3c, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return fail(fmt.Errorf("app: s3: %w", err))
		}
		deps.Archiver = s3blob.NewArchiver(s3c, cfg.S3.Prefix, logger)
	}

	return deps, cleanup, nil
}

// kalshiPEM resolves the RSA key material, preferring inline PEM over a file
// path. A nil result with nil error means no key was configured.
func kalshiPEM(cfg config.KalshiConfig) ([]byte, error) {
	if cfg.RSAPrivateKeyPEM != "" {
		return []byte(cfg.RSAPrivateKeyPEM), nil
	}
	if cfg.RSAPrivateKeyPath != "" {
		data, err := os.ReadFile(cfg.RSAPrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", cfg.RSAPrivateKeyPath, err)
		}
		return data, nil
	}
	return nil, nil
}
