package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospector/internal/model"
)

// Orchestrator fans research out across the source collectors. Each invoked
// collector yields exactly one SourceResult; a misbehaving source can time
// out, error, or panic without disturbing the others.
type Orchestrator struct {
	collectors []Collector
	cache      *Cache
}

// NewOrchestrator creates an orchestrator over the given collectors.
// cache may be nil to disable result caching.
func NewOrchestrator(collectors []Collector, cache *Cache) *Orchestrator {
	return &Orchestrator{collectors: collectors, cache: cache}
}

// Run collects from the first depth.SourceCount() collectors concurrently
// and returns their results in collector order. Run never returns an error:
// per-source failures are recorded in the corresponding SourceResult.
func (o *Orchestrator) Run(ctx context.Context, ident *model.ProspectIdentity, depth model.Depth) []model.SourceResult {
	active := o.collectors
	if n := depth.SourceCount(); n < len(active) {
		active = active[:n]
	}
	timeout := depth.SourceTimeout()

	results := make([]model.SourceResult, len(active))
	g, gctx := errgroup.WithContext(ctx)
	for i, col := range active {
		g.Go(func() error {
			results[i] = o.collectOne(gctx, col, ident, timeout)
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	var ok int
	for _, r := range results {
		if r.Outcome == model.OutcomeOK {
			ok++
		}
	}
	zap.L().Info("source: fan-out complete",
		zap.String("identity_id", ident.ID),
		zap.String("depth", string(depth)),
		zap.Int("sources", len(active)),
		zap.Int("succeeded", ok),
	)
	return results
}

func (o *Orchestrator) collectOne(ctx context.Context, col Collector, ident *model.ProspectIdentity, timeout time.Duration) model.SourceResult {
	res := model.SourceResult{SourceName: col.Name()}

	if !col.Configured() {
		res.Outcome = model.OutcomeUnavailable
		res.Demo = true
		return res
	}

	start := time.Now()
	if payload, hit := o.cache.Get(ctx, col.Name(), ident.ID); hit {
		res.Outcome = model.OutcomeOK
		res.Payload = payload
		res.LatencyMS = time.Since(start).Milliseconds()
		zap.L().Debug("source: cache hit",
			zap.String("source", col.Name()), zap.String("identity_id", ident.ID))
		return res
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := safeCollect(cctx, col, ident)
	res.LatencyMS = time.Since(start).Milliseconds()

	switch {
	case err == nil:
		res.Outcome = model.OutcomeOK
		res.Payload = payload
		o.cache.Set(ctx, col.Name(), ident.ID, payload)
	case errors.Is(err, context.DeadlineExceeded):
		res.Outcome = model.OutcomeTimeout
		zap.L().Warn("source: collector timed out",
			zap.String("source", col.Name()),
			zap.Duration("timeout", timeout))
	default:
		res.Outcome = model.OutcomeError
		zap.L().Warn("source: collector failed",
			zap.String("source", col.Name()),
			zap.Error(err))
	}
	return res
}

// safeCollect invokes the collector with panic recovery. A panicking source
// is reported as an ordinary collection error.
func safeCollect(ctx context.Context, col Collector, ident *model.ProspectIdentity) (payload map[string]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			err = eris.New(fmt.Sprintf("source: collector %s panicked: %v", col.Name(), r))
		}
	}()
	return col.Collect(ctx, ident)
}
