// Package binance implements the quote source contract against the Binance
// public market-data API.
package binance

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

// VenueName identifies Binance in the quote book and history records.
const VenueName = "Binance"

const defaultBaseURL = "https://api.binance.com"

// Client is the REST client for the Binance public ticker endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Binance client. baseURL overrides the public API root
// when non-empty (tests, mirrors).
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the venue identity.
func (c *Client) Name() string { return VenueName }

// bookTicker is the /api/v3/ticker/bookTicker response shape.
type bookTicker struct {
	Symbol   string `json:"symbol"`
	BidPrice string `json:"bidPrice"`
	AskPrice string `json:"askPrice"`
}

// FetchQuote returns the current top-of-book for symbol ("BTC/USDT").
// HTTP 451 and 403 mean the venue is geo-blocked and the ingestion task
// should abandon it.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	pair := Pair(symbol)
	url := fmt.Sprintf("%s/api/v3/ticker/bookTicker?symbol=%s", c.baseURL, pair)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("binance: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("binance: fetch %s: %w: %w", pair, domain.ErrVenueUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusUnavailableForLegalReasons:
		return domain.Quote{}, fmt.Errorf("binance: %s: status %d: %w", pair, resp.StatusCode, domain.ErrVenueBlocked)
	default:
		return domain.Quote{}, fmt.Errorf("binance: %s: status %d: %w", pair, resp.StatusCode, domain.ErrVenueUnavailable)
	}

	var tick bookTicker
	if err := json.NewDecoder(resp.Body).Decode(&tick); err != nil {
		return domain.Quote{}, fmt.Errorf("binance: decode %s: %w", pair, err)
	}

	bid, err := strconv.ParseFloat(tick.BidPrice, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("binance: parse bid %q: %w", tick.BidPrice, domain.ErrInvalidQuote)
	}
	ask, err := strconv.ParseFloat(tick.AskPrice, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("binance: parse ask %q: %w", tick.AskPrice, domain.ErrInvalidQuote)
	}

	q := domain.Quote{
		Venue:     VenueName,
		Bid:       bid,
		Ask:       ask,
		Timestamp: time.Now().UTC(),
	}
	if !q.Valid() {
		return domain.Quote{}, fmt.Errorf("binance: %s: non-positive prices: %w", pair, domain.ErrInvalidQuote)
	}
	return q, nil
}

// Pair converts "BTC/USDT" to Binance's "BTCUSDT" form.
func Pair(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

var _ domain.QuoteSource = (*Client)(nil)
