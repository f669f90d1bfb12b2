package intake

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/komposer-mcp/komposer/internal/apierr"
	"github.com/komposer-mcp/komposer/internal/komposition"
)

// RateLimitedAdapter wraps an Adapter with a per-call deadline and a token
// bucket sized off a daily budget, so a burst of briefs cannot exceed
// whatever quota backs the real adapter. A refused call counts as an
// adapter error and falls back to the deterministic pipeline, same as any
// other Propose failure.
type RateLimitedAdapter struct {
	Adapter     Adapter
	Limiter     *rate.Limiter
	CallTimeout time.Duration
}

// NewRateLimitedAdapter builds a RateLimitedAdapter whose limiter refills
// at dailyBudget tokens per 24h and allows bursts of up to burst calls.
func NewRateLimitedAdapter(adapter Adapter, dailyBudget float64, burst int, callTimeout time.Duration) *RateLimitedAdapter {
	perSecond := dailyBudget / (24 * 60 * 60)
	return &RateLimitedAdapter{
		Adapter:     adapter,
		Limiter:     rate.NewLimiter(rate.Limit(perSecond), burst),
		CallTimeout: callTimeout,
	}
}

func (a *RateLimitedAdapter) Propose(ctx context.Context, brief string, catalog SourceCatalog) (komposition.Document, error) {
	if !a.Limiter.Allow() {
		return komposition.Document{}, apierr.Adapter("daily AI adapter budget exhausted", nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.CallTimeout)
	defer cancel()
	return a.Adapter.Propose(callCtx, brief, catalog)
}

var _ Adapter = (*RateLimitedAdapter)(nil)
