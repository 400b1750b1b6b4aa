// Package outputset owns the lifecycle of generated point sets.
//
// An OutputSet is created around a running generation task. When the task
// succeeds the points become resident and are written to a spill file in the
// background; once the spill exists the set may be unloaded to free memory
// and reloaded on demand. When the task fails or is cancelled the set is
// marked failed, its sink is told, and no spill file is ever written.
//
// States:
//
//	pending ──► resident ◄──► spilled
//	   │
//	   └──► failed
//
// Any state moves to deleted on Delete.
//
// Resident points are published through an atomic pointer and never mutated,
// so readers need no lock. Spill reads and writes for one set are serialized
// by a per-set mutex; different sets spill independently.
package outputset

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/juliaset/pkg/function"
	"github.com/matzehuels/juliaset/pkg/generator"
	"github.com/matzehuels/juliaset/pkg/pipeline"
	"github.com/matzehuels/juliaset/pkg/point"
	"github.com/matzehuels/juliaset/pkg/task"
)

// State is an output set's lifecycle state.
type State int

const (
	StatePending State = iota
	StateResident
	StateSpilled
	StateFailed
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResident:
		return "resident"
	case StateSpilled:
		return "spilled"
	case StateFailed:
		return "failed"
	case StateDeleted:
		return "deleted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Sink is notified when an output set's points become available or its
// generation fails. Calls happen on background goroutines.
type Sink interface {
	OutputSetReady(o *OutputSet)
	OutputSetFailed(o *OutputSet, err error)
}

// Config holds the descriptive attributes of an output set.
type Config struct {
	ID        int64 // creation timestamp, unique per session
	Type      generator.Type
	Functions []*function.Function

	// Params is nil for types without parameters (post-critical sets).
	Params *generator.FixedParams

	// Sources lists the IDs of the sets an inverse image was computed from.
	Sources []int64

	Color     Color
	Subscript int

	// SpillDir enables spilling; empty keeps points resident only.
	SpillDir string

	Sink   Sink
	Logger *log.Logger
}

// OutputSet is one computed or in-flight point set.
type OutputSet struct {
	id        int64
	typ       generator.Type
	functions []*function.Function
	params    *generator.FixedParams
	sources   []int64
	color     Color
	subscript int
	spillDir  string
	sink      Sink
	logger    *log.Logger

	task     *task.Task[*pipeline.Result]
	finished chan struct{} // closed once the task outcome is recorded

	points atomic.Pointer[[]complex128]

	mu        sync.Mutex // guards the fields below
	state     State
	err       error
	spillPath string
	reloading chan struct{}

	io        sync.Mutex    // serializes spill file access
	spillDone chan struct{} // closed when the spill attempt ends
}

// New wraps a running generation task. The set watches the task in the
// background and notifies cfg.Sink when it ends.
func New(cfg Config, t *task.Task[*pipeline.Result]) *OutputSet {
	o := newSet(cfg)
	o.task = t
	go o.watch()
	return o
}

// NewResident creates a set whose points are already known, such as a set
// restored from an export. It is spilled like a generated set.
func NewResident(cfg Config, pts []complex128) *OutputSet {
	o := newSet(cfg)
	o.finish(pts)
	return o
}

func newSet(cfg Config) *OutputSet {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	var params *generator.FixedParams
	if cfg.Params != nil {
		p := *cfg.Params
		params = &p
	}
	return &OutputSet{
		id:        cfg.ID,
		typ:       cfg.Type,
		functions: append([]*function.Function(nil), cfg.Functions...),
		params:    params,
		sources:   append([]int64(nil), cfg.Sources...),
		color:     cfg.Color,
		subscript: cfg.Subscript,
		spillDir:  cfg.SpillDir,
		sink:      cfg.Sink,
		logger:    logger.With("set", cfg.ID),
		finished:  make(chan struct{}),
		spillDone: make(chan struct{}),
	}
}

func (o *OutputSet) watch() {
	res, err := o.task.Wait()
	if err != nil {
		o.fail(err)
		return
	}
	o.finish(res.Points)
}

func (o *OutputSet) fail(err error) {
	o.mu.Lock()
	deleted := o.state == StateDeleted
	if !deleted {
		o.state = StateFailed
		o.err = err
	}
	o.mu.Unlock()

	// The sink runs first so that waiters observe its effects.
	if !deleted && o.sink != nil {
		o.sink.OutputSetFailed(o, err)
	}
	close(o.finished)
	close(o.spillDone)
}

func (o *OutputSet) finish(pts []complex128) {
	if pts == nil {
		pts = []complex128{}
	}
	o.mu.Lock()
	deleted := o.state == StateDeleted
	if !deleted {
		o.points.Store(&pts)
		o.state = StateResident
	}
	o.mu.Unlock()
	close(o.finished)

	if deleted {
		close(o.spillDone)
		return
	}
	if o.sink != nil {
		o.sink.OutputSetReady(o)
	}
	if o.spillDir == "" {
		close(o.spillDone)
		return
	}
	go func() {
		defer close(o.spillDone)
		o.spill(pts)
	}()
}

// ID returns the set's creation timestamp.
func (o *OutputSet) ID() int64 { return o.id }

// Type returns the set's output type.
func (o *OutputSet) Type() generator.Type { return o.typ }

// Functions returns the contributing functions in order.
func (o *OutputSet) Functions() []*function.Function {
	return append([]*function.Function(nil), o.functions...)
}

// Params returns the generation parameters, or false for parameter-free sets.
func (o *OutputSet) Params() (generator.FixedParams, bool) {
	if o.params == nil {
		return generator.FixedParams{}, false
	}
	return *o.params, true
}

// Sources returns the IDs of the sets an inverse image was computed from.
func (o *OutputSet) Sources() []int64 { return append([]int64(nil), o.sources...) }

// Color returns the display color.
func (o *OutputSet) Color() Color { return o.color }

// Subscript returns the display subscript.
func (o *OutputSet) Subscript() int { return o.subscript }

// State returns the current lifecycle state.
func (o *OutputSet) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Err returns the generation error of a failed set.
func (o *OutputSet) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Progress returns the latest generation progress in [0, 100].
func (o *OutputSet) Progress() int {
	if o.task == nil {
		return 100
	}
	select {
	case <-o.finished:
		if o.State() == StateFailed {
			return o.task.Latest()
		}
		return 100
	default:
		return o.task.Latest()
	}
}

// Done is closed once generation has succeeded, failed or been cancelled.
func (o *OutputSet) Done() <-chan struct{} { return o.finished }

// SpillDone is closed once the spill attempt, if any, has ended.
func (o *OutputSet) SpillDone() <-chan struct{} { return o.spillDone }

// Wait blocks until generation ends and returns its error, if any.
func (o *OutputSet) Wait(ctx context.Context) error {
	select {
	case <-o.finished:
		return o.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Points returns the set's points.
//
// Resident points are returned immediately. Otherwise, with wait false, a
// reload from the spill file is started if one exists and an empty slice is
// returned; the sink is told when the points are ready. With wait true the
// call blocks on the generation or the reload and returns an empty slice if
// either fails.
func (o *OutputSet) Points(wait bool) []complex128 {
	if p := o.points.Load(); p != nil {
		return *p
	}
	if !wait {
		o.mu.Lock()
		if o.state == StateSpilled {
			o.startReloadLocked()
		}
		o.mu.Unlock()
		return []complex128{}
	}

	<-o.finished
	if p := o.points.Load(); p != nil {
		return *p
	}
	o.mu.Lock()
	if o.state != StateSpilled {
		o.mu.Unlock()
		return []complex128{}
	}
	ch := o.startReloadLocked()
	o.mu.Unlock()

	<-ch
	if p := o.points.Load(); p != nil {
		return *p
	}
	return []complex128{}
}

// Unload drops resident points once a spill file holds them. It reports
// whether memory was released; without a spill it does nothing.
func (o *OutputSet) Unload() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateResident || o.spillPath == "" {
		return false
	}
	o.points.Store(nil)
	o.state = StateSpilled
	return true
}

// Delete cancels a running generation and drops resident points. The spill
// file, if any, stays on disk for the owner to remove via SpillPath.
func (o *OutputSet) Delete() {
	o.mu.Lock()
	if o.state == StateDeleted {
		o.mu.Unlock()
		return
	}
	o.state = StateDeleted
	o.points.Store(nil)
	o.mu.Unlock()

	if o.task != nil {
		o.task.Cancel()
	}
}

// SpillPath returns the spill file path, or "" if none was written.
func (o *OutputSet) SpillPath() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.spillPath
}

// Equal reports whether two sets have the same type, parameters, functions
// and points. Identity, color and subscript are ignored.
func (o *OutputSet) Equal(other *OutputSet) bool {
	if o == nil || other == nil {
		return o == other
	}
	if o.typ != other.typ {
		return false
	}
	if (o.params == nil) != (other.params == nil) {
		return false
	}
	if o.params != nil && *o.params != *other.params {
		return false
	}
	if len(o.functions) != len(other.functions) {
		return false
	}
	for i := range o.functions {
		if !o.functions[i].Equal(other.functions[i]) {
			return false
		}
	}
	return point.Equal(o.Points(true), other.Points(true))
}

// String returns the display name, e.g. "Full Composite Julia Set 2".
func (o *OutputSet) String() string {
	return fmt.Sprintf("%s %d", o.typ.Description(), o.subscript)
}
