package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "bogus"
	cfg.LogLevel = "loud"
	cfg.Instruments = nil
	cfg.Arbitrage.TradeSizeUSD = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"unknown mode", "unknown log_level", "at least one symbol", "trade_size_usd"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error missing %q:\n%s", want, msg)
		}
	}
}

func TestValidateRequiresTwoVenues(t *testing.T) {
	cfg := Defaults()
	for name, v := range cfg.Venues {
		if name != "Binance" {
			v.Enabled = false
			cfg.Venues[name] = v
		}
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "at least two enabled venues") {
		t.Fatalf("expected two-venue error, got %v", err)
	}
}

func TestValidateDexMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "dex"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "at least one pool or curve") {
		t.Fatalf("expected pool/curve error, got %v", err)
	}

	cfg.Dex.Curves = []CurveConfig{{Symbol: "PUMP", Address: "abc"}}
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "solana_rpc") {
		t.Fatalf("expected solana_rpc error, got %v", err)
	}

	cfg.Dex.SolanaRPC = "https://api.mainnet-beta.solana.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dex config should validate: %v", err)
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
instruments = ["SOL/USDT"]
mode = "scan"

[arbitrage]
min_profit_pct = 0.25
scan_interval = "5s"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ARBWATCH_ARBITRAGE_TRADE_SIZE_USD", "2500")
	t.Setenv("ARBWATCH_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Instruments; len(got) != 1 || got[0] != "SOL/USDT" {
		t.Errorf("instruments = %v", got)
	}
	if cfg.Mode != "scan" {
		t.Errorf("mode = %q", cfg.Mode)
	}
	if cfg.Arbitrage.MinProfitPct != 0.25 {
		t.Errorf("min_profit_pct = %g", cfg.Arbitrage.MinProfitPct)
	}
	if cfg.Arbitrage.ScanInterval.Duration != 5*time.Second {
		t.Errorf("scan_interval = %v", cfg.Arbitrage.ScanInterval.Duration)
	}
	if cfg.Arbitrage.TradeSizeUSD != 2500 {
		t.Errorf("env override lost, trade_size_usd = %g", cfg.Arbitrage.TradeSizeUSD)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
	// File values not overridden by env keep defaults.
	if cfg.Arbitrage.MaxSlippagePct != 5.0 {
		t.Errorf("max_slippage_pct = %g", cfg.Arbitrage.MaxSlippagePct)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Redis.Password = "hunter2"
	cfg.S3.SecretKey = "secret"
	cfg.Notify.TelegramToken = "123:abc"

	red := RedactedConfig(&cfg)
	if red.Redis.Password != "***" || red.S3.SecretKey != "***" || red.Notify.TelegramToken != "***" {
		t.Error("secrets not redacted")
	}
	if cfg.Redis.Password != "hunter2" {
		t.Error("original mutated")
	}
	red.Instruments[0] = "XXX"
	if cfg.Instruments[0] == "XXX" {
		t.Error("slice aliasing between original and redacted copy")
	}
}
