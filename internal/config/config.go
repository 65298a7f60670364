// Package config defines the top-level configuration for arbwatch and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBWATCH_* environment variables.
type Config struct {
	Instruments []string               `toml:"instruments"`
	Venues      map[string]VenueConfig `toml:"venues"`
	Arbitrage   ArbitrageConfig        `toml:"arbitrage"`
	Dex         DexConfig              `toml:"dex"`
	History     HistoryConfig          `toml:"history"`
	Redis       RedisConfig            `toml:"redis"`
	S3          S3Config               `toml:"s3"`
	Server      ServerConfig           `toml:"server"`
	Notify      NotifyConfig           `toml:"notify"`
	Mode        string                 `toml:"mode"`
	LogLevel    string                 `toml:"log_level"`
}

// VenueConfig holds per-venue ingestion parameters.
type VenueConfig struct {
	Enabled bool `toml:"enabled"`
	// FeePct is the taker fee per leg in percent (0.1 = 0.1%).
	FeePct float64 `toml:"fee_pct"`
	// Stream switches the venue from REST polling to its WebSocket ticker.
	Stream bool `toml:"stream"`
	// PollInterval is the minimum interval between REST requests for this
	// venue. Enforced per (instrument, venue) task, not globally.
	PollInterval duration `toml:"poll_interval"`
	// MaxRetries bounds transient-error retries before the venue is marked
	// stale for the cycle.
	MaxRetries int `toml:"max_retries"`
}

// ArbitrageConfig holds the detection and alerting parameters.
type ArbitrageConfig struct {
	// MinProfitPct filters reportable opportunities; net profit must exceed it.
	MinProfitPct float64 `toml:"min_profit_pct"`
	// AlertThresholdPct triggers an alert when a recorded opportunity's net
	// profit meets or exceeds it.
	AlertThresholdPct float64 `toml:"alert_threshold_pct"`
	// TradeSizeUSD is the assumed round-trip size used for slippage modeling.
	TradeSizeUSD float64 `toml:"trade_size_usd"`
	// MaxSlippagePct excludes AMM trades whose modeled slippage meets or
	// exceeds it, regardless of raw profit.
	MaxSlippagePct float64 `toml:"max_slippage_pct"`
	// ScanInterval is the delay between detection passes.
	ScanInterval duration `toml:"scan_interval"`
	// StaleAfter flags quotes older than this as stale. Advisory only;
	// detection still runs on stale data.
	StaleAfter duration `toml:"stale_after"`
	// TriangleMinProfitPct is the floor for reporting triangular cycles.
	TriangleMinProfitPct float64 `toml:"triangle_min_profit_pct"`
}

// PoolConfig identifies one DEX pool to monitor.
type PoolConfig struct {
	Symbol string  `toml:"symbol"` // "SOL/USDC"
	PoolID string  `toml:"pool_id"`
	Dex    string  `toml:"dex"`
	FeePct float64 `toml:"fee_pct"`
}

// CurveConfig identifies one bonding-curve account to read on-chain.
type CurveConfig struct {
	Symbol  string `toml:"symbol"`
	Address string `toml:"address"`
}

// TriangleConfig is a closed three-pool cycle to evaluate.
type TriangleConfig struct {
	Route string   `toml:"route"` // "SOL → USDC → RAY → SOL"
	Path  []string `toml:"path"`  // pool symbols
	Start string   `toml:"start"` // starting asset
}

// DexConfig holds DEX and on-chain data source parameters.
type DexConfig struct {
	Enabled bool `toml:"enabled"`
	// DexscreenerURL is the aggregator API root.
	DexscreenerURL string `toml:"dexscreener_url"`
	// SolanaRPC is the JSON-RPC endpoint for raw account reads. Leave empty
	// to disable the bonding-curve path; this is a construction-time
	// capability, not a runtime import check.
	SolanaRPC string           `toml:"solana_rpc"`
	Pools     []PoolConfig     `toml:"pools"`
	Curves    []CurveConfig    `toml:"curves"`
	Triangles []TriangleConfig `toml:"triangles"`
	// PollInterval is the minimum interval between aggregator requests.
	PollInterval duration `toml:"poll_interval"`
}

// HistoryConfig holds history log and statistics parameters.
type HistoryConfig struct {
	// Dir is the directory for arbitrage_history.jsonl and
	// arbitrage_stats.json.
	Dir string `toml:"dir"`
	// TopPairs is how many venue pairs the statistics rank (by mean profit).
	TopPairs int `toml:"top_pairs"`
	// MirrorDSN, when set, enables the Postgres opportunity mirror used by
	// dashboard queries. The JSONL log stays the source of truth.
	MirrorDSN string `toml:"mirror_dsn"`
	// MirrorMaxConns / MirrorMinConns size the mirror's connection pool.
	MirrorMaxConns int `toml:"mirror_max_conns"`
	MirrorMinConns int `toml:"mirror_min_conns"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	// StreamMaxLen caps the durable opportunity stream (XADD MAXLEN ~).
	StreamMaxLen int `toml:"stream_max_len"`
}

// S3Config holds object-storage parameters for history archival.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	// ArchiveInterval is how often the stats snapshot and rotated history
	// segments are uploaded.
	ArchiveInterval duration `toml:"archive_interval"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Instruments: []string{"BTC/USDT", "ETH/USDT"},
		Venues: map[string]VenueConfig{
			"Binance": {
				Enabled:      true,
				FeePct:       0.1,
				PollInterval: duration{1 * time.Second},
				MaxRetries:   3,
			},
			"Kraken": {
				Enabled:      true,
				FeePct:       0.26,
				PollInterval: duration{1 * time.Second},
				MaxRetries:   3,
			},
			"Coinbase": {
				Enabled:      true,
				FeePct:       0.6,
				PollInterval: duration{1 * time.Second},
				MaxRetries:   3,
			},
		},
		Arbitrage: ArbitrageConfig{
			MinProfitPct:         0.0,
			AlertThresholdPct:    0.5,
			TradeSizeUSD:         1000,
			MaxSlippagePct:       5.0,
			ScanInterval:         duration{10 * time.Second},
			StaleAfter:           duration{30 * time.Second},
			TriangleMinProfitPct: 0.1,
		},
		Dex: DexConfig{
			Enabled:        false,
			DexscreenerURL: "https://api.dexscreener.com/latest/dex",
			SolanaRPC:      "",
			PollInterval:   duration{210 * time.Millisecond},
		},
		History: HistoryConfig{
			Dir:            "data",
			TopPairs:       5,
			MirrorMaxConns: 4,
			MirrorMinConns: 0,
		},
		Redis: RedisConfig{
			Enabled:      false,
			Addr:         "localhost:6379",
			DB:           0,
			PoolSize:     20,
			MaxRetries:   3,
			StreamMaxLen: 10000,
		},
		S3: S3Config{
			Enabled:         false,
			Endpoint:        "http://localhost:9000",
			Region:          "us-east-1",
			Bucket:          "arbwatch-data",
			UseSSL:          false,
			ForcePathStyle:  true,
			ArchiveInterval: duration{1 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity_alert", "venue_down", "error"},
		},
		Mode:     "monitor",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"monitor": true,
	"dex":     true,
	"scan":    true,
	"stats":   true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: monitor, dex, scan, stats, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if len(c.Instruments) == 0 {
		errs = append(errs, "instruments: at least one symbol must be configured")
	}
	for _, sym := range c.Instruments {
		if !strings.Contains(sym, "/") {
			errs = append(errs, fmt.Sprintf("instruments: %q is not a BASE/QUOTE pair", sym))
		}
	}

	enabled := 0
	for name, v := range c.Venues {
		if !v.Enabled {
			continue
		}
		enabled++
		if v.FeePct < 0 || v.FeePct > 50 {
			errs = append(errs, fmt.Sprintf("venues.%s: fee_pct must be in [0, 50], got %g", name, v.FeePct))
		}
		if v.MaxRetries < 0 {
			errs = append(errs, fmt.Sprintf("venues.%s: max_retries must be >= 0", name))
		}
	}
	needsVenues := c.Mode == "monitor" || c.Mode == "scan" || c.Mode == "full"
	if needsVenues && enabled < 2 {
		errs = append(errs, fmt.Sprintf("venues: at least two enabled venues are required for mode %s", c.Mode))
	}

	if c.Arbitrage.TradeSizeUSD <= 0 {
		errs = append(errs, "arbitrage: trade_size_usd must be > 0")
	}
	if c.Arbitrage.MaxSlippagePct <= 0 || c.Arbitrage.MaxSlippagePct > 100 {
		errs = append(errs, "arbitrage: max_slippage_pct must be in (0, 100]")
	}
	if c.Arbitrage.ScanInterval.Duration <= 0 {
		errs = append(errs, "arbitrage: scan_interval must be positive")
	}

	if c.Mode == "dex" || (c.Mode == "full" && c.Dex.Enabled) {
		if c.Dex.DexscreenerURL == "" {
			errs = append(errs, "dex: dexscreener_url must not be empty")
		}
		if len(c.Dex.Pools) == 0 && len(c.Dex.Curves) == 0 {
			errs = append(errs, "dex: at least one pool or curve must be configured for dex mode")
		}
		for _, t := range c.Dex.Triangles {
			if len(t.Path) != 3 {
				errs = append(errs, fmt.Sprintf("dex.triangles: %q must have exactly 3 legs", t.Route))
			}
		}
	}
	if len(c.Dex.Curves) > 0 && c.Dex.SolanaRPC == "" && (c.Mode == "dex" || c.Mode == "full") {
		errs = append(errs, "dex: solana_rpc is required when curves are configured")
	}

	if c.History.Dir == "" {
		errs = append(errs, "history: dir must not be empty")
	}
	if c.History.TopPairs < 1 {
		errs = append(errs, "history: top_pairs must be >= 1")
	}
	if c.History.MirrorDSN != "" && c.History.MirrorMaxConns < 1 {
		errs = append(errs, "history: mirror_max_conns must be >= 1 when mirror_dsn is set")
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
