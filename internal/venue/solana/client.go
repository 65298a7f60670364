// Package solana implements the raw account reader used for bonding-curve
// pricing, over the Solana JSON-RPC getAccountInfo method.
package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// Client is a minimal Solana JSON-RPC client. It only fetches raw account
// bytes; decoding belongs to the pricing layer.
type Client struct {
	rpcURL     string
	httpClient *http.Client
}

// NewClient creates a client for the given RPC endpoint.
func NewClient(rpcURL string) *Client {
	return &Client{
		rpcURL: rpcURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type accountInfoResponse struct {
	Result struct {
		Value *struct {
			// Data is [payload, encoding].
			Data []string `json:"data"`
		} `json:"value"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FetchRawReserves returns the raw account bytes at address via
// getAccountInfo with base64 encoding. A missing account is reported as
// ErrVenueUnavailable.
func (c *Client) FetchRawReserves(ctx context.Context, address string) ([]byte, error) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getAccountInfo",
		Params: []any{
			address,
			map[string]string{"encoding": "base64"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("solana: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("solana: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("solana: rpc %s: %w: %w", address, domain.ErrVenueUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("solana: %s: status %d: %w", address, resp.StatusCode, domain.ErrVenueUnavailable)
	}

	var body accountInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("solana: decode response: %w", err)
	}
	if body.Error != nil {
		return nil, fmt.Errorf("solana: %s: rpc error %d %s: %w", address, body.Error.Code, body.Error.Message, domain.ErrVenueUnavailable)
	}
	if body.Result.Value == nil || len(body.Result.Value.Data) == 0 {
		return nil, fmt.Errorf("solana: %s: account not found: %w", address, domain.ErrVenueUnavailable)
	}

	raw, err := base64.StdEncoding.DecodeString(body.Result.Value.Data[0])
	if err != nil {
		return nil, fmt.Errorf("solana: %s: decode account data: %w", address, domain.ErrInvalidAccountData)
	}
	return raw, nil
}

var _ domain.ReserveReader = (*Client)(nil)
