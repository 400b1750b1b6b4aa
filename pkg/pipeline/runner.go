package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/juliaset/pkg/cache"
	"github.com/matzehuels/juliaset/pkg/generator"
	"github.com/matzehuels/juliaset/pkg/observability"
	"github.com/matzehuels/juliaset/pkg/point"
	"github.com/matzehuels/juliaset/pkg/task"
)

// Runner encapsulates generation with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Start validates opts and runs the generation as a background task.
// Validation errors surface through the task's Wait.
func (r *Runner) Start(ctx context.Context, opts Options) *task.Task[*Result] {
	return task.Start(ctx, func(ctx context.Context, report func(int)) (*Result, error) {
		return r.Generate(ctx, opts, report)
	})
}

// Generate runs the generation synchronously, consulting the cache for
// deterministic types.
func (r *Runner) Generate(ctx context.Context, opts Options, report func(int)) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}
	if report == nil {
		report = func(int) {}
	}

	g, err := generator.New(opts.config())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	typ := opts.Type.String()
	observability.Generator().OnGenerateStart(ctx, typ, len(opts.Functions))
	logger.Debug("generating", "type", typ, "functions", len(opts.Functions))

	key, cacheable := r.cacheKey(opts)
	if cacheable && !opts.Refresh {
		if pts, ok := r.lookup(ctx, logger, key, opts.maxPoints()); ok {
			report(100)
			res := &Result{Points: pts, CacheHit: true, Duration: time.Since(start)}
			observability.Generator().OnGenerateComplete(ctx, typ, len(pts), res.Duration, nil)
			logger.Info("loaded from cache", "type", typ, "points", len(pts))
			return res, nil
		}
	}

	pts, err := g.Generate(ctx, report)
	duration := time.Since(start)
	observability.Generator().OnGenerateComplete(ctx, typ, len(pts), duration, err)
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug("generation cancelled", "type", typ)
		} else {
			logger.Warn("generation failed", "type", typ, "err", err)
		}
		return nil, err
	}
	logger.Info("generated", "type", typ, "points", len(pts), "duration", duration.Round(time.Millisecond))

	if cacheable {
		r.store(ctx, logger, key, pts)
	}
	return &Result{Points: pts, Duration: duration}, nil
}

// cacheKey returns the key for opts and whether the type may be cached.
func (r *Runner) cacheKey(opts Options) (string, bool) {
	if !opts.Type.IsDeterministic() || opts.Params == nil {
		return "", false
	}
	p := generator.Snapshot(opts.Params)
	keyOpts := cache.PointsKeyOpts{
		Type:       opts.Type.String(),
		Iterations: p.N,
	}
	if opts.Type != generator.PostCritical {
		keyOpts.Seed = point.Format(p.Z0)
	}
	if opts.Type.AppliesSkips() {
		keyOpts.Skips = p.Skip
	}
	for _, f := range opts.Functions {
		keyOpts.Functions = append(keyOpts.Functions, f.HistoryInfo())
	}
	return r.Keyer.PointsKey(keyOpts), true
}

// lookup returns a cached result. Entries larger than limit are treated as
// misses so the generator can report the exhaustion itself.
func (r *Runner) lookup(ctx context.Context, logger *log.Logger, key string, limit int) ([]complex128, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "err", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "points")
		return nil, false
	}
	pts, err := point.Unmarshal(data)
	if err != nil {
		logger.Warn("discarding corrupt cache entry", "err", err)
		_ = r.Cache.Delete(ctx, key)
		return nil, false
	}
	if len(pts) > limit {
		logger.Debug("cached result exceeds point limit", "points", len(pts), "limit", limit)
		observability.Cache().OnCacheMiss(ctx, "points")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "points")
	return pts, true
}

func (r *Runner) store(ctx context.Context, logger *log.Logger, key string, pts []complex128) {
	data := point.Marshal(pts)
	if err := r.Cache.Set(ctx, key, data, cache.TTLPoints); err != nil {
		logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "points", len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
