// Package generator computes the point sets behind every output set type.
//
// # Overview
//
// All generators share one "grow-and-threshold" loop. A working collection is
// seeded (from the seed point, the critical points of the input functions, or
// the union of prior output sets), then every round maps each point through
// the input functions and replaces the collection with the result:
//
//   - forward-single: one function, forward, one point per point (ForwardImage)
//   - forward-random / backward-random: one weighted-random function per point,
//     evaluated forward or with one random pre-image (random Julia, attractor
//     and inverse-image types)
//   - forward-full / backward-full: every function, every pre-image; the
//     collection grows geometrically (full Julia, attractor, inverse-image and
//     post-critical types)
//
// Random plans stop once the round counter reaches the iteration bound. Full
// plans stop once max(round, collection size) reaches it. At least one round
// always runs and the final collection is returned as-is, duplicates included.
//
// Random plans first run Params.Skips burn-in rounds that count toward
// neither termination nor progress. Full plans ignore skips, since every
// extra round multiplies the collection size.
//
// # Failures
//
// A generation aborts with a coded error from pkg/errors:
//
//   - SINGULAR_INVERSE: a backward evaluation hit a zero denominator
//   - ARITHMETIC_FAILURE: a point became NaN or infinite
//   - RESOURCE_EXHAUSTED: the next round would exceed Config.MaxPoints
//   - INVALID_INPUT: the seed collection is empty
//
// Cancellation of the context is checked between rounds and periodically
// within large rounds; a cancelled generation returns ctx.Err().
package generator

import (
	"context"
	"math/rand/v2"

	"github.com/matzehuels/juliaset/pkg/errors"
	"github.com/matzehuels/juliaset/pkg/function"
	"github.com/matzehuels/juliaset/pkg/point"
)

// DefaultMaxPoints bounds the working collection (16M points, 256 MiB).
const DefaultMaxPoints = 1 << 24

// cancelCheckInterval is how many points a round maps between context checks.
const cancelCheckInterval = 1 << 16

// ReportFunc receives progress percentages in [0, 100].
type ReportFunc func(percent int)

// Config describes one generation.
type Config struct {
	Type      Type
	Functions []*function.Function
	Params    Params
	Sources   []PointSource // inverse images only
	Points    []complex128  // Basic only
	MaxPoints int           // 0 means DefaultMaxPoints
	Rand      *rand.Rand    // nil means a randomly seeded PCG
}

// Generator runs a validated Config. A Generator is not safe for concurrent
// use; each output set owns its own.
type Generator struct {
	typ       Type
	plan      plan
	functions []*function.Function
	params    FixedParams
	sources   []PointSource
	points    []complex128
	maxPoints int
	rng       *rand.Rand
	weights   []int
	total     int
}

// New validates cfg and returns a generator ready to run.
func New(cfg Config) (*Generator, error) {
	if !cfg.Type.Valid() {
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown output set type %d", int(cfg.Type))
	}
	p := planFor(cfg.Type)

	g := &Generator{
		typ:       cfg.Type,
		plan:      p,
		functions: cfg.Functions,
		sources:   cfg.Sources,
		maxPoints: cfg.MaxPoints,
		rng:       cfg.Rand,
	}
	if g.maxPoints <= 0 {
		g.maxPoints = DefaultMaxPoints
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	if p.mode == modeStatic {
		g.points = append([]complex128(nil), cfg.Points...)
		return g, nil
	}

	if len(cfg.Functions) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s needs at least one input function", cfg.Type.Description())
	}
	if cfg.Type.IsIndividual() && len(cfg.Functions) != 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s needs exactly one input function, got %d", cfg.Type.Description(), len(cfg.Functions))
	}
	for i, f := range cfg.Functions {
		if f == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "input function %d is nil", i)
		}
	}
	if cfg.Params == nil {
		return nil, errors.New(errors.ErrCodeInvalidParams, "%s needs generation parameters", cfg.Type.Description())
	}
	g.params = Snapshot(cfg.Params)
	if err := errors.ValidateIterations(g.params.N); err != nil {
		return nil, err
	}
	if err := errors.ValidateSkips(g.params.Skip); err != nil {
		return nil, err
	}
	if err := errors.ValidateSeed(g.params.Z0); err != nil {
		return nil, err
	}
	if p.seeding == seedSources && len(cfg.Sources) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s needs at least one source output set", cfg.Type.Description())
	}

	g.weights = make([]int, len(cfg.Functions))
	for i, f := range cfg.Functions {
		g.total += f.Multiplicity()
		g.weights[i] = g.total
	}
	return g, nil
}

// Type returns the output set type this generator produces.
func (g *Generator) Type() Type { return g.typ }

// Generate runs the generation to completion, reporting progress to report
// (which may be nil). It returns the final working collection or an error;
// never both.
func (g *Generator) Generate(ctx context.Context, report ReportFunc) ([]complex128, error) {
	if report == nil {
		report = func(int) {}
	}
	if g.plan.mode == modeStatic {
		report(100)
		return append(make([]complex128, 0, len(g.points)), g.points...), nil
	}

	cur, err := g.seed(ctx)
	if err != nil {
		return nil, err
	}
	if len(cur) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s has no starting points", g.typ.Description())
	}

	random := g.plan.random()
	if random {
		for i := 0; i < g.params.Skip; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if cur, err = g.step(ctx, cur); err != nil {
				return nil, err
			}
		}
	}

	iterations := g.params.N
	last := -1
	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if cur, err = g.step(ctx, cur); err != nil {
			return nil, err
		}

		measure := round
		if !random && len(cur) > measure {
			measure = len(cur)
		}
		if pct := percent(measure, iterations); pct > last {
			report(pct)
			last = pct
		}
		if measure >= iterations {
			return cur, nil
		}
	}
}

// percent returns min(100, 100*n/total).
func percent(n, total int) int {
	if total <= 0 || n >= total {
		return 100
	}
	return int(int64(n) * 100 / int64(total))
}

// seed builds the initial working collection.
func (g *Generator) seed(ctx context.Context) ([]complex128, error) {
	switch g.plan.seeding {
	case seedCritical:
		var pts []complex128
		for _, f := range g.functions {
			pts = append(pts, f.Critical()...)
		}
		return pts, nil
	case seedSources:
		return g.gatherSources(ctx)
	default:
		return []complex128{g.params.Z0}, nil
	}
}

// gatherSources unions the points of every source, waiting for sources that
// are still being generated or reloaded.
func (g *Generator) gatherSources(ctx context.Context) ([]complex128, error) {
	var pts []complex128
	for _, src := range g.sources {
		ch := make(chan []complex128, 1)
		go func(s PointSource) { ch <- s.Points(true) }(src)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case got := <-ch:
			pts = append(pts, got...)
		}
	}
	return pts, nil
}

// step maps every point in cur through the plan's evaluation mode.
func (g *Generator) step(ctx context.Context, cur []complex128) ([]complex128, error) {
	var (
		next []complex128
		err  error
	)
	switch g.plan.mode {
	case modeForwardSingle, modeForwardRandom, modeBackwardRandom:
		next, err = g.stepRandom(ctx, cur)
	case modeForwardFull:
		next, err = g.stepForwardFull(ctx, cur)
	case modeBackwardFull:
		next, err = g.stepBackwardFull(ctx, cur)
	default:
		return nil, errors.New(errors.ErrCodeInternal, "no step for %s", g.typ)
	}
	if err != nil {
		return nil, err
	}
	for _, z := range next {
		if !point.IsFinite(z) {
			return nil, errors.New(errors.ErrCodeArithmetic, "%s produced a non-finite point", g.typ.Description())
		}
	}
	return next, nil
}

func (g *Generator) stepRandom(ctx context.Context, cur []complex128) ([]complex128, error) {
	next := make([]complex128, len(cur))
	for i, z := range cur {
		if i%cancelCheckInterval == cancelCheckInterval-1 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		f := g.pick()
		switch g.plan.mode {
		case modeBackwardRandom:
			w, err := f.BackwardRandom(z, g.rng)
			if err != nil {
				return nil, err
			}
			next[i] = w
		default:
			next[i] = f.Forward(z)
		}
	}
	return next, nil
}

func (g *Generator) stepForwardFull(ctx context.Context, cur []complex128) ([]complex128, error) {
	next, err := g.alloc(len(cur), len(g.functions))
	if err != nil {
		return nil, err
	}
	for i, z := range cur {
		if i%cancelCheckInterval == cancelCheckInterval-1 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for _, f := range g.functions {
			next = append(next, f.Forward(z))
		}
	}
	return next, nil
}

func (g *Generator) stepBackwardFull(ctx context.Context, cur []complex128) ([]complex128, error) {
	branches := 0
	for _, f := range g.functions {
		branches += f.Branches()
	}
	next, err := g.alloc(len(cur), branches)
	if err != nil {
		return nil, err
	}
	for i, z := range cur {
		if i%cancelCheckInterval == cancelCheckInterval-1 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for _, f := range g.functions {
			pre, err := f.BackwardFull(z)
			if err != nil {
				return nil, err
			}
			next = append(next, pre...)
		}
	}
	return next, nil
}

// alloc reserves room for n*branches points or reports exhaustion.
func (g *Generator) alloc(n, branches int) ([]complex128, error) {
	size := int64(n) * int64(branches)
	if size > int64(g.maxPoints) {
		return nil, errors.New(errors.ErrCodeResourceExhausted,
			"%s needs %d points, limit is %d", g.typ.Description(), size, g.maxPoints)
	}
	return make([]complex128, 0, size), nil
}

// pick selects a function with probability proportional to its multiplicity.
func (g *Generator) pick() *function.Function {
	if len(g.functions) == 1 {
		return g.functions[0]
	}
	r := g.rng.IntN(g.total)
	for i, w := range g.weights {
		if r < w {
			return g.functions[i]
		}
	}
	return g.functions[len(g.functions)-1]
}
