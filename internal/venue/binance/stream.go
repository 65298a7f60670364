package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

const defaultStreamURL = "wss://stream.binance.com:9443/ws"

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Stream is the Binance WebSocket book-ticker feed for one instrument.
type Stream struct {
	baseURL string
	log     *slog.Logger
}

// NewStream creates a Binance streaming source. baseURL overrides the public
// stream root when non-empty.
func NewStream(baseURL string, log *slog.Logger) *Stream {
	if baseURL == "" {
		baseURL = defaultStreamURL
	}
	return &Stream{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.With(slog.String("component", "binance_ws")),
	}
}

// Name returns the venue identity.
func (s *Stream) Name() string { return VenueName }

// streamTicker is the <symbol>@bookTicker payload.
type streamTicker struct {
	Symbol string `json:"s"`
	Bid    string `json:"b"`
	Ask    string `json:"a"`
}

// Stream connects to <symbol>@bookTicker and delivers each update to handle
// until ctx is cancelled. Connection drops return ErrWSDisconnect so the
// caller can reconnect with backoff.
func (s *Stream) Stream(ctx context.Context, symbol string, handle func(domain.Quote)) error {
	url := fmt.Sprintf("%s/%s@bookTicker", s.baseURL, strings.ToLower(Pair(symbol)))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("binance: dial %s: %w: %w", url, domain.ErrWSDisconnect, err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Close the connection when ctx ends so the read loop unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	s.log.Info("stream connected", slog.String("symbol", symbol))

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("binance: read: %w: %w", domain.ErrWSDisconnect, err)
		}

		var tick streamTicker
		if err := json.Unmarshal(msg, &tick); err != nil {
			s.log.Debug("skipping malformed frame", slog.Any("error", err))
			continue
		}
		bid, err1 := strconv.ParseFloat(tick.Bid, 64)
		ask, err2 := strconv.ParseFloat(tick.Ask, 64)
		if err1 != nil || err2 != nil {
			continue
		}

		q := domain.Quote{
			Venue:     VenueName,
			Bid:       bid,
			Ask:       ask,
			Timestamp: time.Now().UTC(),
		}
		if q.Valid() {
			handle(q)
		}
	}
}

var _ domain.StreamSource = (*Stream)(nil)
