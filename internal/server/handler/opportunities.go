package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// StatsSource computes aggregate views over the opportunity history.
type StatsSource interface {
	Statistics(ctx context.Context, window time.Duration) (domain.Stats, error)
	BestOpportunities(ctx context.Context, window time.Duration, limit int) ([]domain.HistoryRecord, error)
}

// AlertSource exposes the session alert list.
type AlertSource interface {
	Alerts() []domain.Alert
}

// RecentSource lists mirrored records newest first.
type RecentSource interface {
	ListRecent(ctx context.Context, limit int) ([]domain.HistoryRecord, error)
}

// OpportunityHandler serves the history-backed endpoints.
type OpportunityHandler struct {
	stats  StatsSource
	alerts AlertSource
	recent RecentSource // nil without the SQL mirror
	logger *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler with the given sources.
func NewOpportunityHandler(stats StatsSource, alerts AlertSource, recent RecentSource, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{stats: stats, alerts: alerts, recent: recent, logger: logger}
}

// ListRecent returns recorded opportunities. With the SQL mirror wired and no
// window requested it serves newest first from the mirror; otherwise it ranks
// the history log by net profit. The mirror keeps no window index.
// GET /api/opportunities/recent?limit=20&window=24h
func (h *OpportunityHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 20, 200)
	window := parseWindow(r)

	var (
		recs []domain.HistoryRecord
		err  error
	)
	if h.recent != nil && window == 0 {
		recs, err = h.recent.ListRecent(r.Context(), limit)
	} else {
		recs, err = h.stats.BestOpportunities(r.Context(), window, limit)
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}
	if recs == nil {
		recs = []domain.HistoryRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"opportunities": recs})
}

// GetStats returns the aggregate statistics snapshot for the requested window.
// GET /api/stats?window=24h
func (h *OpportunityHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	window := parseWindow(r)

	stats, err := h.stats.Statistics(r.Context(), window)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: stats failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// alertView is the JSON shape of one session alert.
type alertView struct {
	Message string               `json:"message"`
	At      time.Time            `json:"at"`
	Record  domain.HistoryRecord `json:"record"`
}

// ListAlerts returns every high-profit alert raised this session.
// GET /api/alerts
func (h *OpportunityHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.alerts.Alerts()
	views := make([]alertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, alertView{Message: a.Message, At: a.At, Record: a.Record})
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": views})
}
