package generator

// Params supplies the generation parameters independently of any session
// representation.
type Params interface {
	Iterations() int
	Skips() int
	Seed() complex128
}

// FixedParams is a Params backed by plain values.
type FixedParams struct {
	N    int
	Skip int
	Z0   complex128
}

// Iterations returns N.
func (p FixedParams) Iterations() int { return p.N }

// Skips returns Skip.
func (p FixedParams) Skips() int { return p.Skip }

// Seed returns Z0.
func (p FixedParams) Seed() complex128 { return p.Z0 }

// Snapshot copies any Params into a FixedParams so later changes to the
// provider do not affect a running generator.
func Snapshot(p Params) FixedParams {
	if p == nil {
		return FixedParams{}
	}
	return FixedParams{N: p.Iterations(), Skip: p.Skips(), Z0: p.Seed()}
}

// PointSource provides the points of a previously computed output set.
// Inverse-image generators union the points of their sources.
type PointSource interface {
	// Points returns the source's points; with wait set it blocks until they
	// are available and returns an empty slice if the source failed.
	Points(wait bool) []complex128
}
