package errors

import (
	"math"
	"math/cmplx"
)

// MaxIterations bounds the iteration count accepted from users. Full
// generators grow geometrically, so anything larger is almost certainly a typo.
const MaxIterations = 1 << 30

// ValidateIterations checks the iteration bound of a generation.
//
// Validation rules:
//   - Must be at least 1
//   - Must not exceed MaxIterations
func ValidateIterations(n int) error {
	if n < 1 {
		return New(ErrCodeInvalidParams, "iterations must be at least 1, got %d", n)
	}
	if n > MaxIterations {
		return New(ErrCodeInvalidParams, "iterations too large (max %d), got %d", MaxIterations, n)
	}
	return nil
}

// ValidateSkips checks the burn-in round count. Zero is allowed.
func ValidateSkips(n int) error {
	if n < 0 {
		return New(ErrCodeInvalidParams, "skips cannot be negative, got %d", n)
	}
	if n > MaxIterations {
		return New(ErrCodeInvalidParams, "skips too large (max %d), got %d", MaxIterations, n)
	}
	return nil
}

// ValidateSeed rejects NaN and infinite seeds.
func ValidateSeed(z complex128) error {
	if cmplx.IsNaN(z) || cmplx.IsInf(z) {
		return New(ErrCodeInvalidParams, "seed must be finite, got %v", z)
	}
	return nil
}

// ValidateMultiplicity checks an input function's repetition factor.
func ValidateMultiplicity(m int) error {
	if m <= 0 {
		return New(ErrCodeInvalidMultiplicity, "multiplicity must be positive, got %d", m)
	}
	return nil
}

// ValidateLeadingCoefficient rejects a zero (or non-finite) leading
// coefficient, which would make the function constant or undefined.
func ValidateLeadingCoefficient(a complex128) error {
	if a == 0 {
		return New(ErrCodeZeroCoefficient, "leading coefficient cannot be zero")
	}
	if math.IsNaN(real(a)) || math.IsNaN(imag(a)) || cmplx.IsInf(a) {
		return New(ErrCodeInvalidInput, "leading coefficient must be finite, got %v", a)
	}
	return nil
}
