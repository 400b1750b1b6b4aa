// Package point provides helpers for the complex points produced by the
// generation engine.
//
// Points are plain complex128 values. Equality is exact and component-wise;
// two points built from the same bits compare equal, and nothing in this
// package applies a tolerance.
//
// The text encoding is one point per line, "<real>,<imaginary>", using the
// shortest decimal representation that parses back to the identical float64.
// It is used for spill files, cache entries and exported point files:
//
//	point.Format(0.5+0.25i) // "0.5,0.25"
//	z, err := point.Parse("0.5,0.25")
package point

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"math/cmplx"
	"strconv"
	"strings"

	"github.com/matzehuels/juliaset/pkg/errors"
)

// Equal reports whether two slices hold the same points in the same order.
// Nil and empty slices are distinct: a nil slice means "no points assigned".
func Equal(a, b []complex128) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IsFinite reports whether both components of z are finite numbers.
func IsFinite(z complex128) bool {
	return !cmplx.IsNaN(z) && !math.IsInf(real(z), 0) && !math.IsInf(imag(z), 0)
}

// Format renders z as "<real>,<imaginary>".
func Format(z complex128) string {
	return formatFloat(real(z)) + "," + formatFloat(imag(z))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Parse reads a point written by Format. Surrounding whitespace is ignored.
func Parse(s string) (complex128, error) {
	re, im, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidFormat, "point %q: missing comma", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(re), 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidFormat, err, "point %q: real part", s)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(im), 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidFormat, err, "point %q: imaginary part", s)
	}
	return complex(x, y), nil
}

// Write encodes points to w, one per line.
func Write(w io.Writer, points []complex128) error {
	bw := bufio.NewWriter(w)
	for _, z := range points {
		if _, err := bw.WriteString(Format(z)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read decodes a point list written by Write. Blank lines are skipped.
// The result is never nil on success, so an empty file reads as an empty,
// assigned point list.
func Read(r io.Reader) ([]complex128, error) {
	points := make([]complex128, 0, 1024)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		z, err := Parse(text)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "line %d", line)
		}
		points = append(points, z)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read points")
	}
	return points, nil
}

// Marshal encodes points into a byte slice (used by result caches). The
// encoding is exactly what Write produces.
func Marshal(points []complex128) []byte {
	var buf bytes.Buffer
	buf.Grow(len(points) * 24)
	_ = Write(&buf, points) // writes to a bytes.Buffer cannot fail
	return buf.Bytes()
}

// Unmarshal decodes a byte slice produced by Marshal.
func Unmarshal(data []byte) ([]complex128, error) {
	return Read(bytes.NewReader(data))
}
