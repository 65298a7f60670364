package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DiscordSender delivers notes to a channel via a Discord webhook.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a sender posting to the given webhook URL.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// webhookPayload is the execute-webhook body. Notes render as one embed so
// the event class can color-code the message.
type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// embedColor maps the event class to the embed accent color.
func embedColor(e Event) int {
	switch e {
	case EventOpportunityAlert:
		return 0x2ECC71 // green
	case EventVenueDown:
		return 0xE67E22 // orange
	case EventError:
		return 0xE74C3C // red
	default:
		return 0x95A5A6 // grey
	}
}

// Send posts the note as a single embed.
func (d *DiscordSender) Send(ctx context.Context, note Note) error {
	body, err := json.Marshal(webhookPayload{Embeds: []embed{{
		Title:       note.Title,
		Description: note.Body,
		Color:       embedColor(note.Event),
	}}})
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	// Discord answers 204 No Content on success.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}

// Name identifies the channel.
func (d *DiscordSender) Name() string {
	return "discord"
}
