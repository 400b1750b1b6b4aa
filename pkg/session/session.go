// Package session owns a working collection of input functions and the
// output sets generated from them.
//
// A Session supplies the generation parameters (it implements
// generator.Params), assigns display subscripts, identities and palette
// colors, and receives every output set's completion events. Failed sets are
// evicted automatically. Spill files live in a private temporary directory
// that Close removes.
//
//	s, err := session.New(session.Options{Runner: runner})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	f, _ := function.NewLinear(1, 2, 0)
//	f = s.AddFunction(f)
//	set, err := s.Generate(ctx, generator.FullJuliaComposite, s.Functions())
//	if err != nil {
//	    return err
//	}
//	if err := set.Wait(ctx); err != nil {
//	    return err
//	}
//	points := set.Points(true)
package session

import (
	"context"
	stderrors "errors"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/juliaset/pkg/errors"
	"github.com/matzehuels/juliaset/pkg/function"
	"github.com/matzehuels/juliaset/pkg/generator"
	"github.com/matzehuels/juliaset/pkg/outputset"
	"github.com/matzehuels/juliaset/pkg/pipeline"
	"github.com/matzehuels/juliaset/pkg/point"
)

// Options configures New.
type Options struct {
	// Runner executes generations; nil means an uncached runner.
	Runner *pipeline.Runner

	// Logger defaults to the runner's logger.
	Logger *log.Logger

	// SpillDir overrides the private temporary directory. It is not removed
	// by Close.
	SpillDir string

	// NoSpill keeps every output set resident.
	NoSpill bool

	// Sink receives output set events after the session has handled them.
	Sink outputset.Sink

	// MaxPoints bounds each generation; 0 means generator.DefaultMaxPoints.
	MaxPoints int

	// Clock supplies creation timestamps; nil means time.Now.
	Clock func() time.Time
}

// Session is safe for concurrent use.
type Session struct {
	runner    *pipeline.Runner
	logger    *log.Logger
	sink      outputset.Sink
	clock     func() time.Time
	maxPoints int
	spillDir  string
	ownsDir   bool

	mu           sync.Mutex
	iterations   int
	skips        int
	seed         complex128
	functions    []*function.Function
	nextFunction int
	sets         []*outputset.OutputSet
	nextSet      int
	palette      outputset.Cursor
	lastID       int64
	closed       bool
}

// New creates an empty session with the default parameters.
func New(opts Options) (*Session, error) {
	runner := opts.Runner
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	logger := opts.Logger
	if logger == nil {
		logger = runner.Logger
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	s := &Session{
		runner:     runner,
		logger:     logger,
		sink:       opts.Sink,
		clock:      clock,
		maxPoints:  opts.MaxPoints,
		spillDir:   opts.SpillDir,
		iterations: DefaultIterations,
		skips:      DefaultSkips,
		seed:       DefaultSeed,
	}
	if !opts.NoSpill && s.spillDir == "" {
		dir, err := os.MkdirTemp("", "juliaset-spill-")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "create spill dir")
		}
		s.spillDir = dir
		s.ownsDir = true
	}
	return s, nil
}

// FromFile creates a session holding f's parameters and functions.
func FromFile(f *File, opts Options) (*Session, error) {
	params, fns, err := f.Build()
	if err != nil {
		return nil, err
	}
	s, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := s.SetParams(params); err != nil {
		s.Close()
		return nil, err
	}
	for _, fn := range fns {
		s.AddFunction(fn)
	}
	return s, nil
}

// File snapshots the session's parameters and functions.
func (s *Session) File() *File {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &File{
		Iterations: s.iterations,
		Skips:      s.skips,
		Functions:  make([]FunctionSpec, 0, len(s.functions)),
	}
	f.Seed = point.Format(s.seed)
	for _, fn := range s.functions {
		f.Functions = append(f.Functions, specFor(fn))
	}
	return f
}

// Iterations implements generator.Params.
func (s *Session) Iterations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iterations
}

// Skips implements generator.Params.
func (s *Session) Skips() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skips
}

// Seed implements generator.Params.
func (s *Session) Seed() complex128 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seed
}

// SetParams validates and replaces the generation parameters. Running
// generations keep the values they started with.
func (s *Session) SetParams(p generator.FixedParams) error {
	if err := errors.ValidateIterations(p.N); err != nil {
		return err
	}
	if err := errors.ValidateSkips(p.Skip); err != nil {
		return err
	}
	if err := errors.ValidateSeed(p.Z0); err != nil {
		return err
	}
	s.mu.Lock()
	s.iterations, s.skips, s.seed = p.N, p.Skip, p.Z0
	s.mu.Unlock()
	return nil
}

// AddFunction adds fn with the next display subscript and returns the
// session's copy.
func (s *Session) AddFunction(fn *function.Function) *function.Function {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextFunction++
	fn = fn.WithSubscript(s.nextFunction)
	s.functions = append(s.functions, fn)
	return fn
}

// RemoveFunction drops the function with fn's identity. Output sets that use
// it are unaffected.
func (s *Session) RemoveFunction(fn *function.Function) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.functions, func(g *function.Function) bool { return g.ID() == fn.ID() })
	if i < 0 {
		return false
	}
	s.functions = slices.Delete(s.functions, i, i+1)
	return true
}

// Functions returns the session's functions in subscript order.
func (s *Session) Functions() []*function.Function {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.functions)
}

// Select returns the functions with the given 1-based positions. An empty
// selection returns every function.
func (s *Session) Select(positions []int) ([]*function.Function, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(positions) == 0 {
		return slices.Clone(s.functions), nil
	}
	out := make([]*function.Function, 0, len(positions))
	for _, p := range positions {
		if p < 1 || p > len(s.functions) {
			return nil, errors.New(errors.ErrCodeNotFound, "no function %d (session has %d)", p, len(s.functions))
		}
		out = append(out, s.functions[p-1])
	}
	return out, nil
}

// Generate starts an output set of type typ over fns using the session's
// current parameters. The set is returned while it is still pending; use
// its Wait to block. Inverse images must go through InverseImage.
func (s *Session) Generate(ctx context.Context, typ generator.Type, fns []*function.Function) (*outputset.OutputSet, error) {
	if typ.IsInverseImage() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s needs source output sets", typ.Description())
	}
	if typ == generator.Basic {
		return nil, errors.New(errors.ErrCodeInvalidInput, "basic output sets are imported, not generated")
	}
	return s.start(ctx, typ, fns, nil)
}

// InverseImage starts one output set per function in fns, each seeded from
// the union of sources' points. method is RandomInverseImage or
// FullInverseImage.
func (s *Session) InverseImage(ctx context.Context, method generator.Type, fns []*function.Function, sources []*outputset.OutputSet) ([]*outputset.OutputSet, error) {
	if !method.IsInverseImage() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s is not an inverse image method", method)
	}
	if len(fns) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no functions selected")
	}
	if len(sources) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no source output sets selected")
	}

	sets := make([]*outputset.OutputSet, 0, len(fns))
	for _, fn := range fns {
		o, err := s.start(ctx, method, []*function.Function{fn}, sources)
		if err != nil {
			for _, started := range sets {
				s.Remove(started)
			}
			return nil, err
		}
		sets = append(sets, o)
	}
	return sets, nil
}

// Import adds a basic output set holding pts.
func (s *Session) Import(pts []complex128) (*outputset.OutputSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New(errors.ErrCodeInvalidInput, "session is closed")
	}
	cfg := s.configLocked(generator.Basic, nil, nil)
	o := outputset.NewResident(cfg, pts)
	s.sets = append(s.sets, o)
	return o, nil
}

func (s *Session) start(ctx context.Context, typ generator.Type, fns []*function.Function, sources []*outputset.OutputSet) (*outputset.OutputSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New(errors.ErrCodeInvalidInput, "session is closed")
	}

	params := generator.FixedParams{N: s.iterations, Skip: s.skips, Z0: s.seed}
	opts := pipeline.Options{
		Type:      typ,
		Functions: fns,
		Params:    params,
		MaxPoints: s.maxPoints,
		Logger:    s.logger,
	}
	var sourceIDs []int64
	for _, src := range sources {
		opts.Sources = append(opts.Sources, src)
		sourceIDs = append(sourceIDs, src.ID())
	}

	// Reject bad requests before consuming an ID, color or subscript.
	if _, err := generator.New(generator.Config{
		Type:      typ,
		Functions: fns,
		Params:    params,
		Sources:   opts.Sources,
	}); err != nil {
		return nil, err
	}

	cfg := s.configLocked(typ, fns, sourceIDs)
	if typ.HasParams() {
		cfg.Params = &params
	}

	// Sink callbacks take s.mu, so they wait until the set is registered.
	o := outputset.New(cfg, s.runner.Start(ctx, opts))
	s.sets = append(s.sets, o)
	s.logger.Debug("started output set", "id", cfg.ID, "type", typ, "functions", len(fns))
	return o, nil
}

// configLocked assigns identity, color and subscript. s.mu must be held.
func (s *Session) configLocked(typ generator.Type, fns []*function.Function, sources []int64) outputset.Config {
	id := s.clock().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	s.nextSet++

	return outputset.Config{
		ID:        id,
		Type:      typ,
		Functions: fns,
		Sources:   sources,
		Color:     s.palette.Next(),
		Subscript: s.nextSet,
		SpillDir:  s.spillDir,
		Sink:      s,
		Logger:    s.logger,
	}
}

// OutputSets returns the live output sets in creation order.
func (s *Session) OutputSets() []*outputset.OutputSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sets)
}

// Lookup returns the output set with the given ID.
func (s *Session) Lookup(id int64) (*outputset.OutputSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.sets {
		if o.ID() == id {
			return o, true
		}
	}
	return nil, false
}

// Remove deletes o: its generation is cancelled, its points dropped and its
// spill file removed. It reports whether o belonged to the session.
func (s *Session) Remove(o *outputset.OutputSet) bool {
	s.mu.Lock()
	i := slices.Index(s.sets, o)
	if i >= 0 {
		s.sets = slices.Delete(s.sets, i, i+1)
	}
	s.mu.Unlock()
	if i < 0 {
		return false
	}

	o.Delete()
	// A spill may still be in flight; the set removes late files itself.
	if path := o.SpillPath(); path != "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("remove spill file", "path", path, "err", err)
		}
	}
	return true
}

// UnloadAll unloads every spilled set and returns how many were unloaded.
func (s *Session) UnloadAll() int {
	n := 0
	for _, o := range s.OutputSets() {
		if o.Unload() {
			n++
		}
	}
	return n
}

// OutputSetReady implements outputset.Sink.
func (s *Session) OutputSetReady(o *outputset.OutputSet) {
	if s.sink != nil {
		s.sink.OutputSetReady(o)
	}
}

// OutputSetFailed implements outputset.Sink by evicting o.
func (s *Session) OutputSetFailed(o *outputset.OutputSet, err error) {
	if s.Remove(o) {
		if isCancel(err) {
			s.logger.Debug("discarded cancelled output set", "set", o.String())
		} else {
			s.logger.Warn("discarded output set", "set", o.String(), "err", errors.UserMessage(err))
		}
	}
	if s.sink != nil {
		s.sink.OutputSetFailed(o, err)
	}
}

func isCancel(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

// Wait blocks until every pending output set has finished. It returns the
// first generation error; failed sets are already evicted when it returns.
func (s *Session) Wait(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, o := range s.OutputSets() {
		g.Go(func() error {
			return o.Wait(ctx)
		})
	}
	return g.Wait()
}

// SpillDir returns the directory spill files are written to.
func (s *Session) SpillDir() string { return s.spillDir }

// Close removes every output set and, when the session created it, the
// spill directory. The session cannot start new sets afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sets := slices.Clone(s.sets)
	s.mu.Unlock()

	for _, o := range sets {
		s.Remove(o)
	}
	for _, o := range sets {
		<-o.Done()
		<-o.SpillDone()
	}
	if s.ownsDir {
		if err := os.RemoveAll(s.spillDir); err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "remove spill dir")
		}
	}
	return nil
}
