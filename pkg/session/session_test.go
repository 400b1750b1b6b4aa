package session

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/juliaset/pkg/errors"
	"github.com/matzehuels/juliaset/pkg/function"
	"github.com/matzehuels/juliaset/pkg/generator"
	"github.com/matzehuels/juliaset/pkg/outputset"
)

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func fixedClock() func() time.Time {
	at := time.UnixMilli(1700000000000)
	return func() time.Time { return at }
}

func mustLinear(t *testing.T, a, b complex128) *function.Function {
	t.Helper()
	f, err := function.NewLinear(1, a, b)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

type collectingSink struct {
	mu     sync.Mutex
	ready  []*outputset.OutputSet
	failed []error
}

func (c *collectingSink) OutputSetReady(o *outputset.OutputSet) {
	c.mu.Lock()
	c.ready = append(c.ready, o)
	c.mu.Unlock()
}

func (c *collectingSink) OutputSetFailed(o *outputset.OutputSet, err error) {
	c.mu.Lock()
	c.failed = append(c.failed, err)
	c.mu.Unlock()
}

func TestNewDefaults(t *testing.T) {
	s := newTestSession(t, Options{})
	if s.Iterations() != 50000 || s.Skips() != 20 || s.Seed() != 1 {
		t.Errorf("defaults = %d/%d/%v", s.Iterations(), s.Skips(), s.Seed())
	}
	if _, err := os.Stat(s.SpillDir()); err != nil {
		t.Fatalf("spill dir missing: %v", err)
	}

	dir := s.SpillDir()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("Close should remove the private spill dir")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}
}

func TestFromDefaultFile(t *testing.T) {
	s, err := FromFile(DefaultFile(), Options{NoSpill: true, Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	fns := s.Functions()
	if len(fns) != 3 {
		t.Fatalf("got %d functions, want 3", len(fns))
	}
	for i, f := range fns {
		if want := string(rune('1' + i)); f.Subscript() != want {
			t.Errorf("function %d subscript = %s, want %s", i, f.Subscript(), want)
		}
	}
	if _, b := fns[2].Coefficients(); b != complex(-0.5, -0.866) {
		t.Errorf("third function b = %v", b)
	}
}

func TestGenerateDoublingScenario(t *testing.T) {
	s := newTestSession(t, Options{Clock: fixedClock()})
	if err := s.SetParams(generator.FixedParams{N: 5, Skip: 0, Z0: 1}); err != nil {
		t.Fatal(err)
	}
	f := s.AddFunction(mustLinear(t, 2, 0))

	o, err := s.Generate(context.Background(), generator.RandomAttractorComposite, []*function.Function{f})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	pts := o.Points(true)
	if len(pts) != 1 || pts[0] != 32 {
		t.Errorf("points = %v, want [32]", pts)
	}
	if p, ok := o.Params(); !ok || p.N != 5 {
		t.Errorf("params = %+v, %v", p, ok)
	}
}

func TestIdentityColorAndSubscript(t *testing.T) {
	s := newTestSession(t, Options{Clock: fixedClock(), NoSpill: true})
	if err := s.SetParams(generator.FixedParams{N: 2, Z0: 1}); err != nil {
		t.Fatal(err)
	}
	f := s.AddFunction(mustLinear(t, 2, 0))

	var sets []*outputset.OutputSet
	for i := 0; i < len(outputset.Palette)+1; i++ {
		o, err := s.Generate(context.Background(), generator.ForwardImage, []*function.Function{f})
		if err != nil {
			t.Fatal(err)
		}
		sets = append(sets, o)
	}
	for i, o := range sets {
		if o.ID() != 1700000000000+int64(i) {
			t.Errorf("set %d id = %d, IDs must stay unique under a frozen clock", i, o.ID())
		}
		if o.Subscript() != i+1 {
			t.Errorf("set %d subscript = %d", i, o.Subscript())
		}
		if o.Color() != outputset.Palette[i%len(outputset.Palette)] {
			t.Errorf("set %d color = %s", i, o.Color())
		}
	}
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	s := newTestSession(t, Options{NoSpill: true})
	f := s.AddFunction(mustLinear(t, 2, 0))

	if _, err := s.Generate(context.Background(), generator.FullJuliaComposite, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("no functions: %v", err)
	}
	if _, err := s.Generate(context.Background(), generator.FullInverseImage, []*function.Function{f}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("inverse via Generate: %v", err)
	}
	if _, err := s.Generate(context.Background(), generator.Basic, nil); err == nil {
		t.Error("basic via Generate should fail")
	}
	if len(s.OutputSets()) != 0 {
		t.Error("rejected requests must not create sets")
	}

	o, err := s.Generate(context.Background(), generator.PostCritical, []*function.Function{mustCubic(t)})
	if err != nil {
		t.Fatal(err)
	}
	if o.Subscript() != 1 {
		t.Errorf("rejected requests consumed subscripts: got %d", o.Subscript())
	}
	if _, ok := o.Params(); ok {
		t.Error("post-critical sets carry no parameters")
	}
}

func mustCubic(t *testing.T) *function.Function {
	t.Helper()
	f, err := function.NewCubic(1, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestFailedSetIsEvicted(t *testing.T) {
	sink := &collectingSink{}
	s := newTestSession(t, Options{MaxPoints: 50, Sink: sink})
	if err := s.SetParams(generator.FixedParams{N: 1000, Z0: 1}); err != nil {
		t.Fatal(err)
	}
	f, _ := function.NewCubic(1, 1, 0)
	f = s.AddFunction(f)

	o, err := s.Generate(context.Background(), generator.IndividualFullJulia, []*function.Function{f})
	if err != nil {
		t.Fatal(err)
	}
	err = s.Wait(context.Background())
	if !errors.Is(err, errors.ErrCodeResourceExhausted) {
		t.Fatalf("Wait error = %v, want RESOURCE_EXHAUSTED", err)
	}
	if _, ok := s.Lookup(o.ID()); ok {
		t.Error("failed set should be evicted")
	}
	if len(o.Points(false)) != 0 {
		t.Error("failed set should have no points")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.failed) != 1 {
		t.Errorf("sink saw %d failures, want 1", len(sink.failed))
	}
}

func TestInverseImageBatch(t *testing.T) {
	s := newTestSession(t, Options{})
	if err := s.SetParams(generator.FixedParams{N: 8, Z0: 1}); err != nil {
		t.Fatal(err)
	}
	f1 := s.AddFunction(mustLinear(t, 2, 0))
	f2 := s.AddFunction(mustLinear(t, 2, -1))

	src, err := s.Import([]complex128{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	sets, err := s.InverseImage(context.Background(), generator.FullInverseImage, []*function.Function{f1, f2}, []*outputset.OutputSet{src})
	if err != nil {
		t.Fatalf("InverseImage error: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("got %d sets, want one per function", len(sets))
	}
	if err := s.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	for i, o := range sets {
		if ids := o.Sources(); len(ids) != 1 || ids[0] != src.ID() {
			t.Errorf("set %d sources = %v", i, ids)
		}
		if fns := o.Functions(); len(fns) != 1 || fns[0].ID() != []*function.Function{f1, f2}[i].ID() {
			t.Errorf("set %d has the wrong function", i)
		}
		// A linear map keeps the four source points; the round bound ends the run.
		if got := len(o.Points(true)); got != 4 {
			t.Errorf("set %d has %d points, want 4", i, got)
		}
		if o.HistoryInfo()[0] != "class: "+outputset.ClassInverseImageOutputSet {
			t.Errorf("set %d history class = %q", i, o.HistoryInfo()[0])
		}
	}
	if got := len(s.OutputSets()); got != 3 {
		t.Errorf("session holds %d sets, want 3", got)
	}
}

func TestInverseImageValidation(t *testing.T) {
	s := newTestSession(t, Options{NoSpill: true})
	f := s.AddFunction(mustLinear(t, 2, 0))
	src, _ := s.Import([]complex128{1})
	ctx := context.Background()

	if _, err := s.InverseImage(ctx, generator.FullJuliaComposite, []*function.Function{f}, []*outputset.OutputSet{src}); err == nil {
		t.Error("non-inverse method should fail")
	}
	if _, err := s.InverseImage(ctx, generator.RandomInverseImage, nil, []*outputset.OutputSet{src}); err == nil {
		t.Error("no functions should fail")
	}
	if _, err := s.InverseImage(ctx, generator.RandomInverseImage, []*function.Function{f}, nil); err == nil {
		t.Error("no sources should fail")
	}
}

func TestRemoveDeletesSpillFile(t *testing.T) {
	s := newTestSession(t, Options{})
	o, err := s.Import([]complex128{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	<-o.SpillDone()
	path := o.SpillPath()
	if path == "" {
		t.Fatal("import should spill")
	}

	if !s.Remove(o) {
		t.Fatal("Remove should report success")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("spill file should be removed")
	}
	if s.Remove(o) {
		t.Error("second Remove should report false")
	}
	if o.State() != outputset.StateDeleted {
		t.Errorf("state = %s", o.State())
	}
}

func TestUnloadAll(t *testing.T) {
	s := newTestSession(t, Options{})
	o, _ := s.Import([]complex128{1, 2, 3})
	<-o.SpillDone()

	if n := s.UnloadAll(); n != 1 {
		t.Errorf("UnloadAll = %d, want 1", n)
	}
	if got := o.Points(true); len(got) != 3 {
		t.Errorf("reloaded %d points, want 3", len(got))
	}
}

func TestSelect(t *testing.T) {
	s := newTestSession(t, Options{NoSpill: true})
	f1 := s.AddFunction(mustLinear(t, 2, 0))
	s.AddFunction(mustLinear(t, 2, 1))
	f3 := s.AddFunction(mustLinear(t, 2, 2))

	got, err := s.Select([]int{3, 1})
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != f3 || got[1] != f1 {
		t.Error("Select returned the wrong functions")
	}
	if all, _ := s.Select(nil); len(all) != 3 {
		t.Errorf("empty selection returned %d functions", len(all))
	}
	if _, err := s.Select([]int{4}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("out of range: %v", err)
	}

	if !s.RemoveFunction(f1) || len(s.Functions()) != 2 {
		t.Error("RemoveFunction failed")
	}
}

func TestSetParamsValidation(t *testing.T) {
	s := newTestSession(t, Options{NoSpill: true})
	for _, p := range []generator.FixedParams{
		{N: 0, Z0: 1},
		{N: 1, Skip: -1},
	} {
		if err := s.SetParams(p); !errors.Is(err, errors.ErrCodeInvalidParams) {
			t.Errorf("SetParams(%+v) = %v", p, err)
		}
	}
	if s.Iterations() != DefaultIterations {
		t.Error("failed SetParams must not change the session")
	}
}

func TestClosedSessionRejectsWork(t *testing.T) {
	s := newTestSession(t, Options{NoSpill: true})
	f := s.AddFunction(mustLinear(t, 2, 0))
	s.Close()

	if _, err := s.Generate(context.Background(), generator.ForwardImage, []*function.Function{f}); err == nil {
		t.Error("Generate on a closed session should fail")
	}
	if _, err := s.Import(nil); err == nil {
		t.Error("Import on a closed session should fail")
	}
}
