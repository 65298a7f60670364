// Package notify fans engine events out to operator channels. The engine
// hands over domain values (high-profit alerts, venue outages, fatal errors);
// this package owns their presentation and the delivery fan-out.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Event classifies an outbound notification. The configured allow-list
// filters on these values.
type Event string

const (
	EventOpportunityAlert Event = "opportunity_alert"
	EventVenueDown        Event = "venue_down"
	EventError            Event = "error"
)

// Note is one outbound notification: an event class plus the rendered text.
// Senders may use the event class to style the message for their channel.
type Note struct {
	Event Event
	Title string
	Body  string
}

// Sender delivers a Note over a single channel.
type Sender interface {
	Send(ctx context.Context, note Note) error
	// Name identifies the channel in logs and combined errors.
	Name() string
}

// Notifier holds the configured senders and the event allow-list.
type Notifier struct {
	senders []Sender
	allowed map[Event]bool
	logger  *slog.Logger
}

// NewNotifier builds a Notifier delivering to the given senders. Only notes
// whose event appears in events pass the filter; an empty list lets every
// event through.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[Event]bool, len(events))
	for _, e := range events {
		allowed[Event(strings.TrimSpace(e))] = true
	}
	return &Notifier{
		senders: senders,
		allowed: allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify runs the note through the event filter and fans it out.
func (n *Notifier) Notify(ctx context.Context, note Note) error {
	if len(n.allowed) > 0 && !n.allowed[note.Event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", string(note.Event)),
		)
		return nil
	}
	return n.deliver(ctx, note)
}

// deliver hands the note to every sender. A failing sender never blocks the
// rest; failures are joined into one error after the full pass.
func (n *Notifier) deliver(ctx context.Context, note Note) error {
	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, note); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("event", string(note.Event)),
		)
	}
	return errors.Join(errs...)
}
