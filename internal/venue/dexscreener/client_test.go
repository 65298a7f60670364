package dexscreener

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

const pairBody = `{
	"pair": {
		"dexId": "raydium",
		"pairAddress": "pool-abc",
		"priceUsd": "142.35",
		"priceNative": "1.0",
		"liquidity": {"usd": 2500000.5},
		"volume": {"h24": 1250000}
	}
}`

func TestFetchPool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pairs/solana/pool-abc" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(pairBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "solana")
	pool, err := c.FetchPool(context.Background(), "pool-abc", "SOL/USDC")
	if err != nil {
		t.Fatal(err)
	}
	if pool.Venue != "Raydium" || pool.Symbol != "SOL/USDC" || pool.PoolID != "pool-abc" {
		t.Errorf("pool identity = %+v", pool)
	}
	if pool.PriceUSD != 142.35 || pool.LiquidityUSD != 2500000.5 || pool.Volume24h != 1250000 {
		t.Errorf("pool figures = %+v", pool)
	}
	if !pool.Usable() {
		t.Error("pool with liquidity should be usable")
	}
}

func TestFetchPoolPairsArrayFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs":[{"dexId":"orca","priceUsd":"1.02","liquidity":{"usd":1000},"volume":{"h24":10}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "solana")
	pool, err := c.FetchPool(context.Background(), "pool-x", "RAY/USDC")
	if err != nil {
		t.Fatal(err)
	}
	if pool.Venue != "Orca" || pool.PriceUSD != 1.02 {
		t.Errorf("pool = %+v", pool)
	}
}

func TestFetchPoolNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pair":null,"pairs":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "solana")
	_, err := c.FetchPool(context.Background(), "missing", "SOL/USDC")
	if !errors.Is(err, domain.ErrVenueUnavailable) {
		t.Errorf("want ErrVenueUnavailable, got %v", err)
	}
}

func TestFetchPoolBadPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pair":{"dexId":"raydium","priceUsd":"0","liquidity":{"usd":1000}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "solana")
	_, err := c.FetchPool(context.Background(), "pool-abc", "SOL/USDC")
	if !errors.Is(err, domain.ErrInvalidQuote) {
		t.Errorf("want ErrInvalidQuote, got %v", err)
	}
}
