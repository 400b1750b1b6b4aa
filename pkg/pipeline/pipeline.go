// Package pipeline runs output set generations with result caching and
// observability.
//
// The Runner is the single place where a generator.Config becomes a running
// task. Both the session and the CLI go through it, so cache lookups, logging
// and hook events behave the same everywhere.
//
// # Caching
//
// Deterministic types (full Julia and attractor types, forward images and
// post-critical sets) always produce the same points for the same type,
// iteration bound, seed, skips and functions. Their results are stored in the cache
// under a Keyer.PointsKey and reused on the next run. Random and
// inverse-image types are never cached. Cache failures are logged and never
// fail a generation.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	t := runner.Start(ctx, pipeline.Options{
//	    Type:      generator.FullJuliaComposite,
//	    Functions: fns,
//	    Params:    generator.FixedParams{N: 50000, Z0: 1},
//	})
//	for p := range t.Progress() {
//	    fmt.Printf("\r%d%%", p)
//	}
//	res, err := t.Wait()
package pipeline

import (
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/juliaset/pkg/function"
	"github.com/matzehuels/juliaset/pkg/generator"
)

// Options describes one generation request.
type Options struct {
	Type      generator.Type
	Functions []*function.Function
	Params    generator.Params
	Sources   []generator.PointSource
	Points    []complex128
	MaxPoints int
	Rand      *rand.Rand

	// Refresh skips the cache lookup but still stores the new result.
	Refresh bool

	// Logger overrides the runner's logger for this request.
	Logger *log.Logger
}

// config converts the options into a generator config.
func (o Options) config() generator.Config {
	return generator.Config{
		Type:      o.Type,
		Functions: o.Functions,
		Params:    o.Params,
		Sources:   o.Sources,
		Points:    o.Points,
		MaxPoints: o.MaxPoints,
		Rand:      o.Rand,
	}
}

// maxPoints returns the effective working-collection limit.
func (o Options) maxPoints() int {
	if o.MaxPoints <= 0 {
		return generator.DefaultMaxPoints
	}
	return o.MaxPoints
}

// Result is a finished generation.
type Result struct {
	Points   []complex128
	CacheHit bool
	Duration time.Duration
}
