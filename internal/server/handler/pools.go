package handler

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// PoolReader is the read side of the DEX pool book.
type PoolReader interface {
	All() map[string]domain.LiquidityPool
}

// PoolHandler serves the DEX pool endpoints.
type PoolHandler struct {
	pools  PoolReader // nil when no DEX sources are configured
	logger *slog.Logger
}

// NewPoolHandler creates a PoolHandler over the given pool book.
func NewPoolHandler(pools PoolReader, logger *slog.Logger) *PoolHandler {
	return &PoolHandler{pools: pools, logger: logger}
}

// ListPools returns the latest state of every tracked pool, sorted by symbol.
// GET /api/pools
func (h *PoolHandler) ListPools(w http.ResponseWriter, r *http.Request) {
	if h.pools == nil {
		writeJSON(w, http.StatusOK, map[string]any{"pools": []domain.LiquidityPool{}})
		return
	}

	byName := h.pools.All()
	pools := make([]domain.LiquidityPool, 0, len(byName))
	for _, p := range byName {
		pools = append(pools, p)
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].Symbol < pools[j].Symbol })

	writeJSON(w, http.StatusOK, map[string]any{"pools": pools})
}
