package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies CROSSARB_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CROSSARB_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Wallet.PrivateKey, "CROSSARB_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "CROSSARB_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "CROSSARB_WALLET_KEY_PASSWORD")
	setStr(&cfg.Wallet.FunderAddress, "CROSSARB_WALLET_FUNDER_ADDRESS")

	setStr(&cfg.Kalshi.APIKeyID, "CROSSARB_KALSHI_API_KEY_ID")
	setStr(&cfg.Kalshi.RSAPrivateKeyPath, "CROSSARB_KALSHI_RSA_PRIVATE_KEY_PATH")
	setStr(&cfg.Kalshi.RSAPrivateKeyPEM, "CROSSARB_KALSHI_RSA_PRIVATE_KEY_PEM")
	setStr(&cfg.Kalshi.BaseURL, "CROSSARB_KALSHI_BASE_URL")

	setStr(&cfg.Polymarket.ClobHost, "CROSSARB_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "CROSSARB_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.PolygonRPC, "CROSSARB_POLYMARKET_POLYGON_RPC")
	setInt(&cfg.Polymarket.ChainID, "CROSSARB_POLYMARKET_CHAIN_ID")
	setInt(&cfg.Polymarket.SignatureType, "CROSSARB_POLYMARKET_SIGNATURE_TYPE")

	setFloat64(&cfg.Detector.KalshiTakerFee, "CROSSARB_DETECTOR_KALSHI_TAKER_FEE")
	setFloat64(&cfg.Detector.MinProfitRatio, "CROSSARB_DETECTOR_MIN_PROFIT_RATIO")

	setFloat64(&cfg.Sizing.BalanceFraction, "CROSSARB_SIZING_BALANCE_FRACTION")
	setFloat64(&cfg.Sizing.MaxShares, "CROSSARB_SIZING_MAX_SHARES")
	setFloat64(&cfg.Sizing.SafetyFactor, "CROSSARB_SIZING_SAFETY_FACTOR")

	setFloat64(&cfg.Executor.BalanceFraction, "CROSSARB_EXECUTOR_BALANCE_FRACTION")
	setFloat64(&cfg.Executor.MaxPositionUSD, "CROSSARB_EXECUTOR_MAX_POSITION_USD")
	setFloat64(&cfg.Executor.KalshiLiquidityFraction, "CROSSARB_EXECUTOR_KALSHI_LIQUIDITY_FRACTION")
	setFloat64(&cfg.Executor.PolyLiquidityFraction, "CROSSARB_EXECUTOR_POLY_LIQUIDITY_FRACTION")
	setFloat64(&cfg.Executor.FillMatchTolerance, "CROSSARB_EXECUTOR_FILL_MATCH_TOLERANCE")

	setFloat64(&cfg.Risk.LossKillThreshold, "CROSSARB_RISK_LOSS_KILL_THRESHOLD")
	setInt(&cfg.Risk.NakedScanWindow, "CROSSARB_RISK_NAKED_SCAN_WINDOW")
	setDuration(&cfg.Risk.Cooldown, "CROSSARB_RISK_COOLDOWN")
	setInt(&cfg.Risk.MaxPositionsPerGame, "CROSSARB_RISK_MAX_POSITIONS_PER_GAME")
	setInt(&cfg.Risk.MaxPerCycle, "CROSSARB_RISK_MAX_PER_CYCLE")

	setDuration(&cfg.Scanner.PollInterval, "CROSSARB_SCANNER_POLL_INTERVAL")
	setDuration(&cfg.Scanner.SnapshotTimeout, "CROSSARB_SCANNER_SNAPSHOT_TIMEOUT")
	setBool(&cfg.Scanner.DryRun, "CROSSARB_SCANNER_DRY_RUN")

	setStr(&cfg.Journal.Backend, "CROSSARB_JOURNAL_BACKEND")
	setStr(&cfg.Journal.Path, "CROSSARB_JOURNAL_PATH")

	setStr(&cfg.Postgres.DSN, "CROSSARB_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "CROSSARB_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "CROSSARB_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "CROSSARB_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "CROSSARB_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "CROSSARB_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "CROSSARB_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "CROSSARB_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "CROSSARB_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "CROSSARB_POSTGRES_RUN_MIGRATIONS")

	setBool(&cfg.Redis.Enabled, "CROSSARB_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "CROSSARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "CROSSARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "CROSSARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "CROSSARB_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "CROSSARB_REDIS_TLS_ENABLED")

	setBool(&cfg.S3.Enabled, "CROSSARB_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "CROSSARB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "CROSSARB_S3_REGION")
	setStr(&cfg.S3.Bucket, "CROSSARB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "CROSSARB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "CROSSARB_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "CROSSARB_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "CROSSARB_S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.Prefix, "CROSSARB_S3_PREFIX")
	setDuration(&cfg.S3.ArchiveInterval, "CROSSARB_S3_ARCHIVE_INTERVAL")

	setStr(&cfg.Notify.TelegramToken, "CROSSARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "CROSSARB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "CROSSARB_NOTIFY_DISCORD_WEBHOOK_URL")

	setStr(&cfg.LogLevel, "CROSSARB_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
