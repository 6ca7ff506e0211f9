// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate fans a query out to source adapters, enriches and
// filters the raw candidates, and merges them into a single ranked
// response. Adapter failures are absorbed at the fan-out boundary; only
// the total absence of results surfaces to the caller, and then as data
// rather than as an error.
package aggregate

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/pdiddy/sinoseek/internal/adapter"
	"github.com/pdiddy/sinoseek/internal/httputil"
	"github.com/pdiddy/sinoseek/internal/score"
	"github.com/pdiddy/sinoseek/pkg/types"
)

// ErrNoResults is the reason string reported when every adapter came
// back empty or failed.
const ErrNoResults = "no results from any source"

const maxAttempts = 3

// Engine coordinates the concurrent fan-out. It is safe for concurrent
// Run calls; the per-adapter pacing limiters are shared across calls so
// retries and overlapping queries respect one source-level rate.
type Engine struct {
	cfg types.Config
	log *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates an Engine. A nil logger disables logging.
func New(cfg types.Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		log:      log,
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiterFor returns the pacing limiter for one source, creating it on
// first use. The limiter spaces consecutive calls to the same source by
// the configured cooldown.
func (e *Engine) limiterFor(name string) *rate.Limiter {
	e.mu.Lock()
	defer e.mu.Unlock()
	lim, ok := e.limiters[name]
	if !ok {
		every := e.cfg.Performance.Cooldown
		if every <= 0 {
			every = time.Millisecond
		}
		lim = rate.NewLimiter(rate.Every(every), 1)
		e.limiters[name] = lim
	}
	return lim
}

// taskResult is one adapter's contribution, already scored and filtered.
type taskResult struct {
	index   int
	name    string
	results []types.Result
}

// Run fans the query out to the given adapters, which must already be
// ordered by descending static priority. Concurrency is bounded by the
// configured gate; a failing adapter is logged and excluded without
// affecting its siblings. If ctx expires before every task finishes,
// the response is built from the tasks that completed in time.
func (e *Engine) Run(ctx context.Context, query string, adapters []adapter.Adapter, limit int) types.Response {
	if limit <= 0 {
		limit = e.cfg.Business.MaxResults
	}

	gateSize := int64(e.cfg.Performance.MaxConcurrent)
	if gateSize <= 0 {
		gateSize = 1
	}
	gate := semaphore.NewWeighted(gateSize)

	ch := make(chan taskResult, len(adapters))
	var wg sync.WaitGroup
	for i, a := range adapters {
		wg.Add(1)
		go func(i int, a adapter.Adapter) {
			defer wg.Done()
			if err := gate.Acquire(ctx, 1); err != nil {
				return
			}
			results, err := e.fetchOne(ctx, a, query, limit)
			// Hold the gate slot through the mandatory cooldown so a
			// burst of adapters cannot hammer the network back-to-back.
			e.cooldown(ctx)
			gate.Release(1)
			if err != nil {
				e.log.Warn("adapter failed, excluding from results",
					zap.String("adapter", a.Name()),
					zap.Error(err),
				)
				return
			}
			e.log.Debug("adapter returned",
				zap.String("adapter", a.Name()),
				zap.Int("results", len(results)),
			)
			ch <- taskResult{index: i, name: a.Name(), results: results}
		}(i, a)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	// Barrier join with a deadline escape: completed contributions land
	// in the buffered channel, so a timeout still yields a partial set.
	byIndex := make([][]types.Result, len(adapters))
	names := make([]string, len(adapters))
collect:
	for {
		select {
		case <-done:
			break collect
		case <-ctx.Done():
			e.log.Warn("aggregation deadline elapsed, returning partial results",
				zap.String("query", query))
			break collect
		case tr := <-ch:
			byIndex[tr.index] = tr.results
			names[tr.index] = tr.name
		}
	}
	// Drain whatever else made it into the buffer.
	for {
		select {
		case tr := <-ch:
			byIndex[tr.index] = tr.results
			names[tr.index] = tr.name
		default:
			return e.assemble(query, byIndex, names, limit, len(adapters), true)
		}
	}
}

// RunSequential queries adapters one at a time in the given order,
// stopping early once limit candidates have accumulated. Used when
// parallel execution is disabled by configuration.
func (e *Engine) RunSequential(ctx context.Context, query string, adapters []adapter.Adapter, limit int) types.Response {
	if limit <= 0 {
		limit = e.cfg.Business.MaxResults
	}

	byIndex := make([][]types.Result, len(adapters))
	names := make([]string, len(adapters))
	total := 0
	for i, a := range adapters {
		if total >= limit {
			break
		}
		results, err := e.fetchOne(ctx, a, query, limit)
		e.cooldown(ctx)
		if err != nil {
			e.log.Warn("adapter failed, excluding from results",
				zap.String("adapter", a.Name()),
				zap.Error(err),
			)
			continue
		}
		byIndex[i] = results
		names[i] = a.Name()
		total += len(results)
	}
	return e.assemble(query, byIndex, names, limit, len(adapters), false)
}

// fetchOne runs one adapter call under the per-call timeout and retry
// policy: up to three attempts with exponential backoff plus jitter,
// retried only for rate-limit and transient network failures.
func (e *Engine) fetchOne(ctx context.Context, a adapter.Adapter, query string, limit int) ([]types.Result, error) {
	var candidates []adapter.Candidate
	err := httputil.Retry(ctx, maxAttempts, retryable, func() error {
		if err := e.limiterFor(a.Name()).Wait(ctx); err != nil {
			return adapter.Classify(a.Name(), err)
		}
		callCtx := ctx
		if t := e.cfg.Performance.Timeout; t > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, t)
			defer cancel()
		}
		var ferr error
		candidates, ferr = a.Fetch(callCtx, query, limit)
		if ferr != nil {
			return adapter.Classify(a.Name(), ferr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]types.Result, 0, len(candidates))
	for i, c := range candidates {
		r, ok := score.Enrich(score.Input{
			Title:       c.Title,
			URL:         c.URL,
			Description: c.Description,
			Source:      a.Name(),
			Query:       query,
			Position:    i,
		}, e.cfg.Business.QualityThreshold, e.cfg.Business.ChineseThreshold)
		if !ok {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

// retryable reports whether an adapter error kind permits another attempt.
func retryable(err error) bool {
	var ae *adapter.Error
	if errors.As(err, &ae) {
		return ae.Retryable()
	}
	return false
}

// cooldown sleeps for the mandatory post-call delay, cut short if ctx expires.
func (e *Engine) cooldown(ctx context.Context) {
	d := e.cfg.Performance.Cooldown
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// assemble concatenates per-adapter contributions in priority order,
// deduplicates, ranks, and truncates to limit.
func (e *Engine) assemble(query string, byIndex [][]types.Result, names []string, limit, attempted int, parallel bool) types.Response {
	var all []types.Result
	var used []string
	for i, rs := range byIndex {
		if len(rs) == 0 {
			continue
		}
		all = append(all, rs...)
		used = append(used, names[i])
	}

	resp := types.Response{
		Query:       query,
		SourcesUsed: used,
		Performance: types.Performance{
			Parallel:         parallel,
			SourcesAttempted: attempted,
		},
	}

	if len(all) == 0 {
		resp.ErrorReason = ErrNoResults
		resp.SourcesUsed = []string{}
		return resp
	}

	unique := Dedupe(all)
	ranked := Rank(unique, e.cfg.Business.PremiumBoost)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	resp.Results = ranked
	resp.Tally()
	if !resp.Success {
		resp.ErrorReason = ErrNoResults
	}
	return resp
}
