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
// built-in defaults, applies ARBWATCH_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBWATCH_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Instruments ──
	setStringSlice(&cfg.Instruments, "ARBWATCH_INSTRUMENTS")

	// ── Arbitrage ──
	setFloat64(&cfg.Arbitrage.MinProfitPct, "ARBWATCH_ARBITRAGE_MIN_PROFIT_PCT")
	setFloat64(&cfg.Arbitrage.AlertThresholdPct, "ARBWATCH_ARBITRAGE_ALERT_THRESHOLD_PCT")
	setFloat64(&cfg.Arbitrage.TradeSizeUSD, "ARBWATCH_ARBITRAGE_TRADE_SIZE_USD")
	setFloat64(&cfg.Arbitrage.MaxSlippagePct, "ARBWATCH_ARBITRAGE_MAX_SLIPPAGE_PCT")
	setDuration(&cfg.Arbitrage.ScanInterval, "ARBWATCH_ARBITRAGE_SCAN_INTERVAL")
	setDuration(&cfg.Arbitrage.StaleAfter, "ARBWATCH_ARBITRAGE_STALE_AFTER")
	setFloat64(&cfg.Arbitrage.TriangleMinProfitPct, "ARBWATCH_ARBITRAGE_TRIANGLE_MIN_PROFIT_PCT")

	// ── Dex ──
	setBool(&cfg.Dex.Enabled, "ARBWATCH_DEX_ENABLED")
	setStr(&cfg.Dex.DexscreenerURL, "ARBWATCH_DEX_DEXSCREENER_URL")
	setStr(&cfg.Dex.SolanaRPC, "ARBWATCH_DEX_SOLANA_RPC")
	setDuration(&cfg.Dex.PollInterval, "ARBWATCH_DEX_POLL_INTERVAL")

	// ── History ──
	setStr(&cfg.History.Dir, "ARBWATCH_HISTORY_DIR")
	setInt(&cfg.History.TopPairs, "ARBWATCH_HISTORY_TOP_PAIRS")
	setStr(&cfg.History.MirrorDSN, "ARBWATCH_HISTORY_MIRROR_DSN")
	setInt(&cfg.History.MirrorMaxConns, "ARBWATCH_HISTORY_MIRROR_MAX_CONNS")
	setInt(&cfg.History.MirrorMinConns, "ARBWATCH_HISTORY_MIRROR_MIN_CONNS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "ARBWATCH_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "ARBWATCH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBWATCH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBWATCH_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBWATCH_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBWATCH_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBWATCH_REDIS_TLS_ENABLED")
	setInt(&cfg.Redis.StreamMaxLen, "ARBWATCH_REDIS_STREAM_MAX_LEN")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "ARBWATCH_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "ARBWATCH_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBWATCH_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBWATCH_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARBWATCH_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBWATCH_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARBWATCH_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARBWATCH_S3_FORCE_PATH_STYLE")
	setDuration(&cfg.S3.ArchiveInterval, "ARBWATCH_S3_ARCHIVE_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ARBWATCH_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ARBWATCH_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ARBWATCH_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ARBWATCH_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBWATCH_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBWATCH_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBWATCH_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBWATCH_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBWATCH_MODE")
	setStr(&cfg.LogLevel, "ARBWATCH_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

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
		if b, err := strconv.ParseBool(v); err == nil {
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

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
