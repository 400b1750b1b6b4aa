// Package pkg provides the core libraries for juliaset point-set generation.
//
// # Overview
//
// juliaset computes finite point sets of iterated function systems built from
// complex maps: Julia sets (backward iteration), attractors (forward
// iteration), forward and inverse images, and post-critical sets. The pkg
// directory is organized into three areas:
//
//  1. Domain - [point], [function], [generator]
//  2. Execution - [task], [pipeline], [cache], [observability]
//  3. Ownership - [outputset], [session]
//
// # Architecture
//
// The typical data flow:
//
//	session file (TOML)
//	         ↓
//	    [session] package (functions, parameters, identities, colors)
//	         ↓
//	    [pipeline] package (cache lookup, hooks, logging)
//	         ↓
//	    [generator] package (grow-and-threshold rounds inside a [task])
//	         ↓
//	    [outputset] package (resident points, spill file, history export)
//
// # Quick Start
//
// Generate a full composite Julia set:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/juliaset/pkg/generator"
//	    "github.com/matzehuels/juliaset/pkg/session"
//	)
//
//	s, _ := session.FromFile(session.DefaultFile(), session.Options{})
//	defer s.Close()
//
//	set, _ := s.Generate(ctx, generator.FullJuliaComposite, s.Functions())
//	if err := set.Wait(ctx); err != nil {
//	    return err
//	}
//	points := set.Points(true)
//
// Run a generator directly, without a session:
//
//	f, _ := function.NewLinear(1, 2, 0)
//	g, _ := generator.New(generator.Config{
//	    Type:      generator.RandomAttractorComposite,
//	    Functions: []*function.Function{f},
//	    Params:    generator.FixedParams{N: 5, Z0: 1},
//	})
//	points, _ := g.Generate(ctx, nil) // [32]
//
// # Main Packages
//
// [point] - Exact point equality, finiteness checks and the "re,im" line
// format shared by spill files and caches.
//
// [function] - Linear (az+b) and cubic (az³+b) input functions with forward,
// full backward and random backward evaluation.
//
// [generator] - The closed set of output types and the engine that grows a
// working collection round by round until the iteration bound is met.
//
// [task] - A generic cancellable background task with a latest-value
// progress channel.
//
// [pipeline] - Runs generators as tasks, caching deterministic results.
//
// [cache] - File, Redis and no-op result caches.
//
// [outputset] - Output set lifecycle, spill files and history exports.
//
// [session] - Owns functions and output sets, evicts failed sets, reads and
// writes session files.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                                # All tests
//	go test -run Example ./pkg/...                   # Examples only
//	JULIASET_REDIS_ADDR=localhost:6379 go test ./pkg/cache  # Include Redis
//
// [point]: https://pkg.go.dev/github.com/matzehuels/juliaset/pkg/point
// [function]: https://pkg.go.dev/github.com/matzehuels/juliaset/pkg/function
// [generator]: https://pkg.go.dev/github.com/matzehuels/juliaset/pkg/generator
// [task]: https://pkg.go.dev/github.com/matzehuels/juliaset/pkg/task
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/juliaset/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/juliaset/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/juliaset/pkg/observability
// [outputset]: https://pkg.go.dev/github.com/matzehuels/juliaset/pkg/outputset
// [session]: https://pkg.go.dev/github.com/matzehuels/juliaset/pkg/session
package pkg
