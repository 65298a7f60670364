package notify

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// NotifyAlert renders and dispatches a high-profit alert. It satisfies the
// scanner's alert sink; delivery failures are already logged by deliver, so
// the error is dropped here rather than bubbling into the scan pass.
func (n *Notifier) NotifyAlert(ctx context.Context, alert domain.Alert) {
	rec := alert.Record
	body := fmt.Sprintf(
		"%s\nRoute: %s\nBuy %.6f / Sell %.6f\nGross %.3f%% / Net %.3f%%",
		alert.Message,
		rec.Route(),
		rec.BuyPrice, rec.SellPrice,
		rec.GrossProfitPct, rec.NetProfitPct,
	)
	_ = n.Notify(ctx, Note{Event: EventOpportunityAlert, Title: "Arbitrage alert", Body: body})
}

// NotifyVenueDown reports a venue that was abandoned or marked stale.
func (n *Notifier) NotifyVenueDown(ctx context.Context, venue, reason string) {
	_ = n.Notify(ctx, Note{
		Event: EventVenueDown,
		Title: "Venue unavailable",
		Body:  fmt.Sprintf("Venue %s is down: %s", venue, reason),
	})
}

// NotifyError reports a fatal engine error on the way out.
func (n *Notifier) NotifyError(ctx context.Context, err error) {
	_ = n.Notify(ctx, Note{
		Event: EventError,
		Title: "Engine error",
		Body:  err.Error(),
	})
}
