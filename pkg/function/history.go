package function

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/juliaset/pkg/errors"
	"github.com/matzehuels/juliaset/pkg/point"
)

// History keys.
const (
	keyClass = "class"
	keyM     = "m"
	keyA     = "a"
	keyB     = "b"
)

// HistoryInfo describes the function as "key: value" lines for provenance
// exports. The identity is not included; output sets record it in the
// enclosing begin_input_function line.
func (f *Function) HistoryInfo() []string {
	return []string{
		keyClass + ": " + f.kind.String(),
		keyM + ": " + strconv.Itoa(f.m),
		keyA + ": " + point.Format(f.a),
		keyB + ": " + point.Format(f.b),
	}
}

// FromHistory rebuilds a function from its identity and the lines produced by
// HistoryInfo. Leading whitespace on each line is ignored.
func FromHistory(id string, lines []string) (*Function, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "function id %q", id)
	}

	fields := make(map[string]string, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "function history line %q", line)
		}
		fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	for _, k := range []string{keyClass, keyM, keyA, keyB} {
		if _, ok := fields[k]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "function history missing %q", k)
		}
	}

	kind, err := ParseKind(fields[keyClass])
	if err != nil {
		return nil, err
	}
	m, err := strconv.Atoi(fields[keyM])
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "function multiplicity")
	}
	a, err := point.Parse(fields[keyA])
	if err != nil {
		return nil, err
	}
	b, err := point.Parse(fields[keyB])
	if err != nil {
		return nil, err
	}

	f, err := New(kind, m, a, b)
	if err != nil {
		return nil, err
	}
	return f.WithID(uid), nil
}
