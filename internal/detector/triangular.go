package detector

import (
	"log/slog"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// Triangle is a closed three-leg cycle to evaluate against known pools.
type Triangle struct {
	Route string   // display label, e.g. "SOL → USDC → RAY → SOL"
	Path  []string // pool symbols for each hop
	Start string   // starting asset
}

// EvaluateTriangles checks each closed cycle against the pools currently
// known, keyed by pool symbol. The compounded return applies only the fee
// decay (1 - fee) per hop; price ratios are assumed to cancel along the
// closed loop, so the estimate is an upper bound, not an execution
// simulation. A cycle with any unknown leg is skipped.
func (d *Detector) EvaluateTriangles(triangles []Triangle, pools map[string]domain.LiquidityPool, minProfitPct float64) []domain.TriangleOpportunity {
	var out []domain.TriangleOpportunity
	for _, tri := range triangles {
		if len(tri.Path) != 3 {
			continue
		}
		multiplier := 1.0
		complete := true
		for _, leg := range tri.Path {
			pool, ok := pools[leg]
			if !ok || !pool.Usable() {
				d.log.Debug("triangle leg missing", slog.String("route", tri.Route), slog.String("leg", leg))
				complete = false
				break
			}
			multiplier *= 1 - pool.FeePct/100
		}
		if !complete {
			continue
		}
		profit := (multiplier - 1) * 100
		if profit <= minProfitPct {
			continue
		}
		out = append(out, domain.TriangleOpportunity{
			Route:      tri.Route,
			Path:       append([]string(nil), tri.Path...),
			StartAsset: tri.Start,
			ProfitPct:  profit,
		})
	}
	return out
}
