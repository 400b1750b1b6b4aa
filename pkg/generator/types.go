package generator

import (
	"fmt"
	"strings"

	"github.com/matzehuels/juliaset/pkg/errors"
)

// Type tags an output set with the algorithm that produced it.
type Type int

// Output set types. The set is closed; every switch over Type is exhaustive.
const (
	Basic Type = iota + 1
	FullJuliaComposite
	RandomJuliaComposite
	FullAttractorComposite
	RandomAttractorComposite
	ForwardImage
	RandomInverseImage
	FullInverseImage
	IndividualFullJulia
	IndividualRandomJulia
	IndividualFullAttractor
	IndividualRandomAttractor
	PostCritical
)

// Types lists every output set type in declaration order.
var Types = []Type{
	Basic,
	FullJuliaComposite,
	RandomJuliaComposite,
	FullAttractorComposite,
	RandomAttractorComposite,
	ForwardImage,
	RandomInverseImage,
	FullInverseImage,
	IndividualFullJulia,
	IndividualRandomJulia,
	IndividualFullAttractor,
	IndividualRandomAttractor,
	PostCritical,
}

type typeInfo struct {
	name        string // stable history name
	slug        string // CLI name
	description string
}

var typeInfos = map[Type]typeInfo{
	Basic:                     {"BASIC", "basic", "Basic Output Set"},
	FullJuliaComposite:        {"FULL_JULIA", "full-julia", "Full Composite Julia Set"},
	RandomJuliaComposite:      {"RANDOM_JULIA", "random-julia", "Random Composite Julia Set"},
	FullAttractorComposite:    {"FULL_ATTR", "full-attractor", "Full Composite Attractor Set"},
	RandomAttractorComposite:  {"RANDOM_ATTR", "random-attractor", "Random Composite Attractor Set"},
	ForwardImage:              {"FORWARD_IMAGE", "forward-image", "Forward Image"},
	RandomInverseImage:        {"RANDOM_INVERSE_IMAGE", "random-inverse-image", "Random Inverse Image"},
	FullInverseImage:          {"FULL_INVERSE_IMAGE", "full-inverse-image", "Full Inverse Image"},
	IndividualFullJulia:       {"IND_FULL_JULIA", "individual-full-julia", "Full Individual Julia Set"},
	IndividualRandomJulia:     {"IND_RANDOM_JULIA", "individual-random-julia", "Random Individual Julia Set"},
	IndividualFullAttractor:   {"IND_FULL_ATTR", "individual-full-attractor", "Full Individual Attractor Set"},
	IndividualRandomAttractor: {"IND_RANDOM_ATTR", "individual-random-attractor", "Random Individual Attractor Set"},
	PostCritical:              {"POST_CRITICAL", "post-critical", "Post Critical Set"},
}

// String returns the stable name written to history exports (e.g. "FULL_JULIA").
func (t Type) String() string {
	if info, ok := typeInfos[t]; ok {
		return info.name
	}
	return fmt.Sprintf("TYPE(%d)", int(t))
}

// Slug returns the command-line name (e.g. "full-julia").
func (t Type) Slug() string {
	return typeInfos[t].slug
}

// Description returns the human-readable name (e.g. "Full Composite Julia Set").
func (t Type) Description() string {
	return typeInfos[t].description
}

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool {
	_, ok := typeInfos[t]
	return ok
}

// ParseType accepts either the history name or the slug, case-insensitively.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	for _, t := range Types {
		info := typeInfos[t]
		if strings.EqualFold(s, info.name) || strings.EqualFold(s, info.slug) {
			return t, nil
		}
	}
	return 0, errors.New(errors.ErrCodeUnsupported, "unknown output set type %q", s)
}

// HasParams reports whether output sets of this type record iterations,
// skips and seed. Post-critical sets are parameter-free.
func (t Type) HasParams() bool {
	return t != PostCritical
}

// IsInverseImage reports whether the type is seeded from prior output sets.
func (t Type) IsInverseImage() bool {
	return t == RandomInverseImage || t == FullInverseImage
}

// IsIndividual reports whether the type requires exactly one input function.
func (t Type) IsIndividual() bool {
	switch t {
	case IndividualFullJulia, IndividualRandomJulia,
		IndividualFullAttractor, IndividualRandomAttractor,
		ForwardImage, RandomInverseImage, FullInverseImage:
		return true
	}
	return false
}

// IsDeterministic reports whether two runs with equal inputs produce the same
// points. Only deterministic generations are worth caching.
func (t Type) IsDeterministic() bool {
	switch t {
	case FullJuliaComposite, FullAttractorComposite,
		IndividualFullJulia, IndividualFullAttractor,
		ForwardImage, PostCritical:
		return true
	}
	return false
}

// AppliesSkips reports whether generations of this type run burn-in rounds
// before counting, so that the skip count changes the result.
func (t Type) AppliesSkips() bool {
	return t.Valid() && planFor(t).random()
}

// mode is the per-round evaluation applied to each point.
type mode int

const (
	modeStatic mode = iota
	modeForwardSingle
	modeForwardRandom
	modeBackwardRandom
	modeForwardFull
	modeBackwardFull
)

// seeding selects where the working collection starts.
type seeding int

const (
	seedPoint seeding = iota
	seedCritical
	seedSources
	seedStatic
)

// plan is the algorithm a Type maps to.
type plan struct {
	mode    mode
	seeding seeding
}

// random reports whether the plan keeps the collection size constant and
// stops on the round counter alone.
func (p plan) random() bool {
	switch p.mode {
	case modeForwardSingle, modeForwardRandom, modeBackwardRandom:
		return true
	}
	return false
}

// planFor maps a type to its algorithm. Julia types run the inverse maps
// (backward), attractor types run the maps themselves (forward).
func planFor(t Type) plan {
	switch t {
	case Basic:
		return plan{modeStatic, seedStatic}
	case FullJuliaComposite, IndividualFullJulia:
		return plan{modeBackwardFull, seedPoint}
	case RandomJuliaComposite, IndividualRandomJulia:
		return plan{modeBackwardRandom, seedPoint}
	case FullAttractorComposite, IndividualFullAttractor:
		return plan{modeForwardFull, seedPoint}
	case RandomAttractorComposite, IndividualRandomAttractor:
		return plan{modeForwardRandom, seedPoint}
	case ForwardImage:
		return plan{modeForwardSingle, seedPoint}
	case RandomInverseImage:
		return plan{modeBackwardRandom, seedSources}
	case FullInverseImage:
		return plan{modeBackwardFull, seedSources}
	case PostCritical:
		return plan{modeForwardFull, seedCritical}
	}
	panic(fmt.Sprintf("generator: no plan for %v", t))
}
