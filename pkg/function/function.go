// Package function defines the input functions that drive point-set generation.
//
// # Overview
//
// An input function is a complex polynomial map with a forward evaluation and
// an analytic inverse. Two variants exist:
//
//   - [KindLinear]: f(z) = a*z + b (one pre-image)
//   - [KindCubic]: f(z) = a*z^3 + b (three pre-images, one critical point)
//
// The variants form a closed set. Every capability ([Function.Forward],
// [Function.BackwardRandom], [Function.BackwardFull], [Function.Critical])
// switches over [Kind], so adding a variant means adding a case to each
// switch and nothing dispatches dynamically.
//
// # Construction
//
// Functions are built with [NewLinear], [NewCubic] or [New]. Construction
// fails with a validation error when the multiplicity is not positive or the
// leading coefficient is zero:
//
//	f, err := function.NewLinear(1, 2, 0)
//	if errors.IsValidation(err) {
//	    // rejected, no instance exists
//	}
//
// A [Function] is immutable once built. [Function.WithSubscript] and
// [Function.WithID] return modified copies, so one value can be shared by
// every generator and output set without locking.
//
// # Multiplicity
//
// The multiplicity m weights random selection: when a random generator picks
// a function for a point, a function with multiplicity m is m times as likely
// to be chosen as one with multiplicity 1. Full generators apply every
// function exactly once.
package function

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/juliaset/pkg/errors"
)

// Kind identifies an input function variant.
type Kind int

// Supported variants.
const (
	KindLinear Kind = iota + 1
	KindCubic
)

// String returns the lowercase variant name used in history and session files.
func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindCubic:
		return "cubic"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a variant name back into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return KindLinear, nil
	case "cubic":
		return KindCubic, nil
	}
	return 0, errors.New(errors.ErrCodeUnsupported, "unknown function kind %q (must be 'linear' or 'cubic')", s)
}

// Function is an immutable input function.
type Function struct {
	id        uuid.UUID
	kind      Kind
	m         int
	a, b      complex128
	subscript int
}

// New builds a function of the given kind with a fresh identity.
func New(kind Kind, m int, a, b complex128) (*Function, error) {
	switch kind {
	case KindLinear, KindCubic:
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown function kind %d", int(kind))
	}
	if err := errors.ValidateMultiplicity(m); err != nil {
		return nil, err
	}
	if err := errors.ValidateLeadingCoefficient(a); err != nil {
		return nil, err
	}
	return &Function{id: uuid.New(), kind: kind, m: m, a: a, b: b}, nil
}

// NewLinear builds f(z) = a*z + b.
func NewLinear(m int, a, b complex128) (*Function, error) {
	return New(KindLinear, m, a, b)
}

// NewCubic builds f(z) = a*z^3 + b.
func NewCubic(m int, a, b complex128) (*Function, error) {
	return New(KindCubic, m, a, b)
}

// ID returns the stable identity token.
func (f *Function) ID() uuid.UUID { return f.id }

// Kind returns the variant.
func (f *Function) Kind() Kind { return f.kind }

// Multiplicity returns m.
func (f *Function) Multiplicity() int { return f.m }

// Coefficients returns the leading coefficient a and the constant term b.
func (f *Function) Coefficients() (a, b complex128) { return f.a, f.b }

// Subscript returns the display subscript, or "?" when none was assigned.
func (f *Function) Subscript() string {
	if f.subscript == 0 {
		return "?"
	}
	return fmt.Sprint(f.subscript)
}

// WithSubscript returns a copy carrying the given display subscript.
// The identity is preserved.
func (f *Function) WithSubscript(n int) *Function {
	c := *f
	c.subscript = n
	return &c
}

// WithID returns a copy carrying the given identity.
func (f *Function) WithID(id uuid.UUID) *Function {
	c := *f
	c.id = id
	return &c
}

// Equal reports whether two functions compute the same map with the same
// multiplicity. Identity and subscript are not compared.
func (f *Function) Equal(g *Function) bool {
	if f == nil || g == nil {
		return f == g
	}
	return f.kind == g.kind && f.m == g.m && f.a == g.a && f.b == g.b
}

// Branches returns how many pre-images BackwardFull produces per point.
func (f *Function) Branches() int {
	switch f.kind {
	case KindCubic:
		return 3
	default:
		return 1
	}
}

// Forward evaluates f(z).
func (f *Function) Forward(z complex128) complex128 {
	switch f.kind {
	case KindCubic:
		return f.a*z*z*z + f.b
	default:
		return f.a*z + f.b
	}
}

// BackwardFull returns every pre-image of w: one for linear functions and
// exactly three for cubic functions (repeated when roots coincide).
func (f *Function) BackwardFull(w complex128) ([]complex128, error) {
	if f.a == 0 {
		return nil, errors.New(errors.ErrCodeSingularInverse, "cannot invert %s at %v", f, w)
	}
	x := (w - f.b) / f.a
	switch f.kind {
	case KindCubic:
		roots := cubeRoots(x)
		return roots[:], nil
	default:
		return []complex128{x}, nil
	}
}

// BackwardRandom returns one pre-image of w chosen uniformly at random.
func (f *Function) BackwardRandom(w complex128, rng *rand.Rand) (complex128, error) {
	if f.a == 0 {
		return 0, errors.New(errors.ErrCodeSingularInverse, "cannot invert %s at %v", f, w)
	}
	x := (w - f.b) / f.a
	switch f.kind {
	case KindCubic:
		return cubeRoot(x, rng.IntN(3)), nil
	default:
		return x, nil
	}
}

// Critical returns the critical points of the map: none for linear functions
// and the origin for cubic functions.
func (f *Function) Critical() []complex128 {
	switch f.kind {
	case KindCubic:
		return []complex128{0}
	default:
		return nil
	}
}

// String renders the function for display, e.g. "f1(z) = (2+0i)z + (0+0i)".
func (f *Function) String() string {
	name := "f" + f.Subscript()
	switch f.kind {
	case KindCubic:
		return fmt.Sprintf("%s(z) = %vz^3 + %v", name, f.a, f.b)
	default:
		return fmt.Sprintf("%s(z) = %vz + %v", name, f.a, f.b)
	}
}

// cubeRoots returns the three cube roots of x, starting from the principal one.
func cubeRoots(x complex128) [3]complex128 {
	return [3]complex128{cubeRoot(x, 0), cubeRoot(x, 1), cubeRoot(x, 2)}
}

// cubeRoot returns the k-th cube root of x in polar form.
func cubeRoot(x complex128, k int) complex128 {
	r := math.Cbrt(cmplx.Abs(x))
	theta := (cmplx.Phase(x) + 2*math.Pi*float64(k)) / 3
	return cmplx.Rect(r, theta)
}
