// Package config defines the top-level configuration for the cross-venue
// arbitrage bot and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by CROSSARB_* environment
// variables.
type Config struct {
	Wallet     WalletConfig     `toml:"wallet"`
	Kalshi     KalshiConfig     `toml:"kalshi"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Detector   DetectorConfig   `toml:"detector"`
	Sizing     SizingConfig     `toml:"sizing"`
	Executor   ExecutorConfig   `toml:"executor"`
	Risk       RiskConfig       `toml:"risk"`
	Scanner    ScannerConfig    `toml:"scanner"`
	Journal    JournalConfig    `toml:"journal"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Notify     NotifyConfig     `toml:"notify"`
	LogLevel   string           `toml:"log_level"`
}

// WalletConfig holds the Polymarket wallet credentials.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`

	// FunderAddress is the proxy wallet holding USDC. Empty means the
	// signing address funds orders directly.
	FunderAddress string `toml:"funder_address"`
}

// KalshiConfig holds Kalshi exchange API credentials.
type KalshiConfig struct {
	APIKeyID          string `toml:"api_key_id"`
	RSAPrivateKeyPath string `toml:"rsa_private_key_path"`
	RSAPrivateKeyPEM  string `toml:"rsa_private_key_pem"`
	BaseURL           string `toml:"base_url"`
}

// PolymarketConfig holds Polymarket API endpoints and chain parameters.
type PolymarketConfig struct {
	ClobHost      string `toml:"clob_host"`
	GammaHost     string `toml:"gamma_host"`
	PolygonRPC    string `toml:"polygon_rpc"`
	ChainID       int    `toml:"chain_id"`
	SignatureType int    `toml:"signature_type"`
}

// DetectorConfig holds opportunity detection thresholds.
type DetectorConfig struct {
	// KalshiTakerFee is applied to the Kalshi leg cost.
	KalshiTakerFee float64 `toml:"kalshi_taker_fee"`

	// MinProfitRatio is the minimum unit profit as a fraction of unit cost.
	MinProfitRatio float64 `toml:"min_profit_ratio"`
}

// SizingConfig holds the advisory position sizing parameters.
type SizingConfig struct {
	BalanceFraction float64 `toml:"balance_fraction"`
	MaxShares       float64 `toml:"max_shares"`
	SafetyFactor    float64 `toml:"safety_factor"`
}

// ExecutorConfig holds the hard execution bounds.
type ExecutorConfig struct {
	BalanceFraction         float64 `toml:"balance_fraction"`
	MaxPositionUSD          float64 `toml:"max_position_usd"`
	KalshiLiquidityFraction float64 `toml:"kalshi_liquidity_fraction"`
	PolyLiquidityFraction   float64 `toml:"poly_liquidity_fraction"`
	FillMatchTolerance      float64 `toml:"fill_match_tolerance"`
}

// RiskConfig holds the risk governor parameters.
type RiskConfig struct {
	LossKillThreshold   float64  `toml:"loss_kill_threshold"`
	NakedScanWindow     int      `toml:"naked_scan_window"`
	Cooldown            duration `toml:"cooldown"`
	MaxPositionsPerGame int      `toml:"max_positions_per_game"`
	MaxPerCycle         int      `toml:"max_per_cycle"`
}

// ScannerConfig holds the scan loop parameters.
type ScannerConfig struct {
	PollInterval    duration `toml:"poll_interval"`
	SnapshotTimeout duration `toml:"snapshot_timeout"`

	// DryRun detects and logs opportunities without placing orders.
	DryRun bool `toml:"dry_run"`
}

// JournalConfig selects where trade records are persisted.
type JournalConfig struct {
	// Backend is "file" or "postgres".
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the shared cooldown
// store. Disabled means cooldowns are kept in process memory.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for journal
// archival.
type S3Config struct {
	Enabled         bool     `toml:"enabled"`
	Endpoint        string   `toml:"endpoint"`
	Region          string   `toml:"region"`
	Bucket          string   `toml:"bucket"`
	AccessKey       string   `toml:"access_key"`
	SecretKey       string   `toml:"secret_key"`
	UseSSL          bool     `toml:"use_ssl"`
	ForcePathStyle  bool     `toml:"force_path_style"`
	Prefix          string   `toml:"prefix"`
	ArchiveInterval duration `toml:"archive_interval"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
}

// duration wraps time.Duration so the TOML decoder can parse strings like
// "15s" or "1h".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the production trading
// parameters.
func Defaults() Config {
	return Config{
		Kalshi: KalshiConfig{
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
		},
		Polymarket: PolymarketConfig{
			ClobHost:      "https://clob.polymarket.com",
			GammaHost:     "https://gamma-api.polymarket.com",
			PolygonRPC:    "https://polygon-rpc.com",
			ChainID:       137,
			SignatureType: 1,
		},
		Detector: DetectorConfig{
			KalshiTakerFee: 0.02,
			MinProfitRatio: 0.005,
		},
		Sizing: SizingConfig{
			BalanceFraction: 0.5,
			MaxShares:       1.0,
			SafetyFactor:    0.70,
		},
		Executor: ExecutorConfig{
			BalanceFraction:         0.30,
			MaxPositionUSD:          8.0,
			KalshiLiquidityFraction: 0.10,
			PolyLiquidityFraction:   0.01,
			FillMatchTolerance:      0.50,
		},
		Risk: RiskConfig{
			LossKillThreshold:   0.40,
			NakedScanWindow:     10,
			Cooldown:            duration{time.Hour},
			MaxPositionsPerGame: 3,
			MaxPerCycle:         2,
		},
		Scanner: ScannerConfig{
			PollInterval:    duration{15 * time.Second},
			SnapshotTimeout: duration{30 * time.Second},
			DryRun:          false,
		},
		Journal: JournalConfig{
			Backend: "file",
			Path:    "data/trades.jsonl",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "crossarb",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		S3: S3Config{
			Enabled:         false,
			Region:          "us-east-1",
			Bucket:          "crossarb-data",
			ForcePathStyle:  true,
			Prefix:          "journal",
			ArchiveInterval: duration{time.Hour},
		},
		LogLevel: "info",
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validJournalBackends = map[string]bool{
	"file":     true,
	"postgres": true,
}

// Validate checks Config for invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Wallet is mandatory outside dry runs.
	if !c.Scanner.DryRun {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: either private_key or encrypted_key_path must be set")
		}
		if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
			errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
		}
		if c.Kalshi.APIKeyID == "" {
			errs = append(errs, "kalshi: api_key_id must be set")
		}
		if c.Kalshi.RSAPrivateKeyPath == "" && c.Kalshi.RSAPrivateKeyPEM == "" {
			errs = append(errs, "kalshi: either rsa_private_key_path or rsa_private_key_pem must be set")
		}
	}

	if c.Kalshi.BaseURL == "" {
		errs = append(errs, "kalshi: base_url must not be empty")
	}
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ChainID <= 0 {
		errs = append(errs, "polymarket: chain_id must be positive")
	}
	if st := c.Polymarket.SignatureType; st < 0 || st > 2 {
		errs = append(errs, fmt.Sprintf("polymarket: signature_type must be 0, 1, or 2, got %d", st))
	}

	if c.Detector.KalshiTakerFee < 0 || c.Detector.KalshiTakerFee >= 1 {
		errs = append(errs, "detector: kalshi_taker_fee must be in [0, 1)")
	}
	if c.Detector.MinProfitRatio <= 0 {
		errs = append(errs, "detector: min_profit_ratio must be > 0")
	}

	if f := c.Sizing.BalanceFraction; f <= 0 || f > 1 {
		errs = append(errs, "sizing: balance_fraction must be in (0, 1]")
	}
	if f := c.Sizing.SafetyFactor; f <= 0 || f > 1 {
		errs = append(errs, "sizing: safety_factor must be in (0, 1]")
	}

	if f := c.Executor.BalanceFraction; f <= 0 || f > 1 {
		errs = append(errs, "executor: balance_fraction must be in (0, 1]")
	}
	if c.Executor.MaxPositionUSD <= 0 {
		errs = append(errs, "executor: max_position_usd must be > 0")
	}
	if f := c.Executor.KalshiLiquidityFraction; f <= 0 || f > 1 {
		errs = append(errs, "executor: kalshi_liquidity_fraction must be in (0, 1]")
	}
	if f := c.Executor.PolyLiquidityFraction; f <= 0 || f > 1 {
		errs = append(errs, "executor: poly_liquidity_fraction must be in (0, 1]")
	}
	if f := c.Executor.FillMatchTolerance; f <= 0 || f >= 1 {
		errs = append(errs, "executor: fill_match_tolerance must be in (0, 1)")
	}

	if f := c.Risk.LossKillThreshold; f <= 0 || f > 1 {
		errs = append(errs, "risk: loss_kill_threshold must be in (0, 1]")
	}
	if c.Risk.NakedScanWindow < 1 {
		errs = append(errs, "risk: naked_scan_window must be >= 1")
	}
	if c.Risk.Cooldown.Duration <= 0 {
		errs = append(errs, "risk: cooldown must be > 0")
	}
	if c.Risk.MaxPositionsPerGame < 1 {
		errs = append(errs, "risk: max_positions_per_game must be >= 1")
	}
	if c.Risk.MaxPerCycle < 1 {
		errs = append(errs, "risk: max_per_cycle must be >= 1")
	}

	if c.Scanner.PollInterval.Duration <= 0 {
		errs = append(errs, "scanner: poll_interval must be > 0")
	}
	if c.Scanner.SnapshotTimeout.Duration <= 0 {
		errs = append(errs, "scanner: snapshot_timeout must be > 0")
	}

	if !validJournalBackends[c.Journal.Backend] {
		errs = append(errs, fmt.Sprintf("journal: unknown backend %q (valid: file, postgres)", c.Journal.Backend))
	}
	if c.Journal.Backend == "file" && c.Journal.Path == "" {
		errs = append(errs, "journal: path must not be empty for the file backend")
	}
	if c.Journal.Backend == "postgres" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when enabled")
		}
		if c.S3.ArchiveInterval.Duration <= 0 {
			errs = append(errs, "s3: archive_interval must be > 0")
		}
	}

	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
