// Package coinbase implements the quote source contract against the Coinbase
// Exchange product ticker endpoint.
package coinbase

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

// VenueName identifies Coinbase in the quote book and history records.
const VenueName = "Coinbase"

const defaultBaseURL = "https://api.exchange.coinbase.com"

// Client is the REST client for the Coinbase Exchange public API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Coinbase client. baseURL overrides the public API root
// when non-empty.
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

// productTicker is the /products/{id}/ticker response shape.
type productTicker struct {
	Bid    string `json:"bid"`
	Ask    string `json:"ask"`
	Price  string `json:"price"`
	Volume string `json:"volume"`
	Time   string `json:"time"`
}

// FetchQuote returns the current ticker for symbol ("BTC/USDT").
func (c *Client) FetchQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	product := Product(symbol)
	url := fmt.Sprintf("%s/products/%s/ticker", c.baseURL, product)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("coinbase: build request: %w", err)
	}
	req.Header.Set("User-Agent", "arbwatch/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("coinbase: fetch %s: %w: %w", product, domain.ErrVenueUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusUnavailableForLegalReasons:
		return domain.Quote{}, fmt.Errorf("coinbase: %s: status %d: %w", product, resp.StatusCode, domain.ErrVenueBlocked)
	default:
		return domain.Quote{}, fmt.Errorf("coinbase: %s: status %d: %w", product, resp.StatusCode, domain.ErrVenueUnavailable)
	}

	var tick productTicker
	if err := json.NewDecoder(resp.Body).Decode(&tick); err != nil {
		return domain.Quote{}, fmt.Errorf("coinbase: decode %s: %w", product, err)
	}

	bid, err := strconv.ParseFloat(tick.Bid, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("coinbase: parse bid %q: %w", tick.Bid, domain.ErrInvalidQuote)
	}
	ask, err := strconv.ParseFloat(tick.Ask, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("coinbase: parse ask %q: %w", tick.Ask, domain.ErrInvalidQuote)
	}

	q := domain.Quote{
		Venue:     VenueName,
		Bid:       bid,
		Ask:       ask,
		Timestamp: time.Now().UTC(),
	}
	if last, err := strconv.ParseFloat(tick.Price, 64); err == nil {
		q.Last = last
	}
	if vol, err := strconv.ParseFloat(tick.Volume, 64); err == nil {
		q.Volume24h = vol
	}
	if ts, err := time.Parse(time.RFC3339Nano, tick.Time); err == nil {
		q.Timestamp = ts
	}
	if !q.Valid() {
		return domain.Quote{}, fmt.Errorf("coinbase: %s: non-positive prices: %w", product, domain.ErrInvalidQuote)
	}
	return q, nil
}

// Product converts "BTC/USDT" to Coinbase's "BTC-USDT" product ID.
func Product(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", "-"))
}

var _ domain.QuoteSource = (*Client)(nil)
