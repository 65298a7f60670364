// Package kraken implements the quote source contract against the Kraken
// public Ticker endpoint.
package kraken

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

// VenueName identifies Kraken in the quote book and history records.
const VenueName = "Kraken"

const defaultBaseURL = "https://api.kraken.com"

// Client is the REST client for the Kraken public API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Kraken client. baseURL overrides the public API root
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

// tickerEntry is one pair's entry in the Ticker result map. Kraken encodes
// prices as string arrays: a = ask [price, whole lot volume, lot volume],
// b = bid, c = last trade [price, lot volume], v = volume [today, 24h].
type tickerEntry struct {
	Ask    []string `json:"a"`
	Bid    []string `json:"b"`
	Last   []string `json:"c"`
	Volume []string `json:"v"`
}

type tickerResponse struct {
	Error  []string               `json:"error"`
	Result map[string]tickerEntry `json:"result"`
}

// FetchQuote returns the current ticker for symbol ("BTC/USDT"). Kraken names
// Bitcoin XBT; the pair is rewritten accordingly.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	pair := Pair(symbol)
	url := fmt.Sprintf("%s/0/public/Ticker?pair=%s", c.baseURL, pair)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("kraken: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("kraken: fetch %s: %w: %w", pair, domain.ErrVenueUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusUnavailableForLegalReasons:
		return domain.Quote{}, fmt.Errorf("kraken: %s: status %d: %w", pair, resp.StatusCode, domain.ErrVenueBlocked)
	default:
		return domain.Quote{}, fmt.Errorf("kraken: %s: status %d: %w", pair, resp.StatusCode, domain.ErrVenueUnavailable)
	}

	var body tickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Quote{}, fmt.Errorf("kraken: decode %s: %w", pair, err)
	}
	if len(body.Error) > 0 {
		return domain.Quote{}, fmt.Errorf("kraken: %s: %s: %w", pair, strings.Join(body.Error, "; "), domain.ErrVenueUnavailable)
	}

	// The result key may differ from the requested pair (Kraken aliases);
	// a single-pair request returns exactly one entry.
	var entry tickerEntry
	found := false
	for _, e := range body.Result {
		entry = e
		found = true
		break
	}
	if !found {
		return domain.Quote{}, fmt.Errorf("kraken: %s: empty result: %w", pair, domain.ErrVenueUnavailable)
	}

	q := domain.Quote{Venue: VenueName, Timestamp: time.Now().UTC()}
	if q.Bid, err = firstFloat(entry.Bid); err != nil {
		return domain.Quote{}, fmt.Errorf("kraken: parse bid: %w", domain.ErrInvalidQuote)
	}
	if q.Ask, err = firstFloat(entry.Ask); err != nil {
		return domain.Quote{}, fmt.Errorf("kraken: parse ask: %w", domain.ErrInvalidQuote)
	}
	if last, err := firstFloat(entry.Last); err == nil {
		q.Last = last
	}
	if len(entry.Volume) > 1 {
		if vol, err := strconv.ParseFloat(entry.Volume[1], 64); err == nil {
			q.Volume24h = vol
		}
	}
	if !q.Valid() {
		return domain.Quote{}, fmt.Errorf("kraken: %s: non-positive prices: %w", pair, domain.ErrInvalidQuote)
	}
	return q, nil
}

// Pair converts "BTC/USDT" to Kraken's "XBTUSDT" form.
func Pair(symbol string) string {
	pair := strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
	return strings.ReplaceAll(pair, "BTC", "XBT")
}

func firstFloat(arr []string) (float64, error) {
	if len(arr) == 0 {
		return 0, fmt.Errorf("empty array")
	}
	return strconv.ParseFloat(arr[0], 64)
}

var _ domain.QuoteSource = (*Client)(nil)
