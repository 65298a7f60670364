// Package dexscreener implements the pool source contract against the
// Dexscreener pair API.
package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

const defaultBaseURL = "https://api.dexscreener.com/latest/dex"

// Client is the REST client for the Dexscreener aggregator.
type Client struct {
	baseURL    string
	chain      string
	httpClient *http.Client
}

// NewClient creates a Dexscreener client for the given chain ("solana").
// baseURL overrides the public API root when non-empty.
func NewClient(baseURL, chain string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if chain == "" {
		chain = "solana"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		chain:   chain,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// pairResponse is the /pairs/{chain}/{pair} response shape. Dexscreener
// returns numeric prices as strings and liquidity/volume as objects.
type pairResponse struct {
	Pair  *pairInfo  `json:"pair"`
	Pairs []pairInfo `json:"pairs"`
}

type pairInfo struct {
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	PriceUSD    string `json:"priceUsd"`
	PriceNative string `json:"priceNative"`
	Liquidity   struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
}

// FetchPool returns the pool state for a known pool address, labelled with
// the given instrument symbol. Fee is not reported by the aggregator; the
// caller overlays the configured per-pool fee.
func (c *Client) FetchPool(ctx context.Context, poolID, symbol string) (domain.LiquidityPool, error) {
	url := fmt.Sprintf("%s/pairs/%s/%s", c.baseURL, c.chain, poolID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.LiquidityPool{}, fmt.Errorf("dexscreener: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.LiquidityPool{}, fmt.Errorf("dexscreener: fetch %s: %w: %w", poolID, domain.ErrVenueUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.LiquidityPool{}, fmt.Errorf("dexscreener: %s: status %d: %w", poolID, resp.StatusCode, domain.ErrVenueUnavailable)
	}

	var body pairResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.LiquidityPool{}, fmt.Errorf("dexscreener: decode %s: %w", poolID, err)
	}

	info := body.Pair
	if info == nil && len(body.Pairs) > 0 {
		info = &body.Pairs[0]
	}
	if info == nil {
		return domain.LiquidityPool{}, fmt.Errorf("dexscreener: %s: pair not found: %w", poolID, domain.ErrVenueUnavailable)
	}

	priceUSD, err := strconv.ParseFloat(info.PriceUSD, 64)
	if err != nil || priceUSD <= 0 {
		return domain.LiquidityPool{}, fmt.Errorf("dexscreener: %s: bad priceUsd %q: %w", poolID, info.PriceUSD, domain.ErrInvalidQuote)
	}

	pool := domain.LiquidityPool{
		Venue:        venueName(info.DexID),
		Symbol:       symbol,
		PoolID:       poolID,
		PriceUSD:     priceUSD,
		LiquidityUSD: info.Liquidity.USD,
		Volume24h:    info.Volume.H24,
		Timestamp:    time.Now().UTC(),
	}
	if native, err := strconv.ParseFloat(info.PriceNative, 64); err == nil {
		pool.PriceNative = native
	}
	return pool, nil
}

// venueName capitalizes the aggregator's dexId ("raydium" → "Raydium") so it
// reads like the CEX venue names.
func venueName(dexID string) string {
	if dexID == "" {
		return "DEX"
	}
	return strings.ToUpper(dexID[:1]) + dexID[1:]
}

var _ domain.PoolSource = (*Client)(nil)
