package outputset

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/juliaset/pkg/errors"
	"github.com/matzehuels/juliaset/pkg/function"
	"github.com/matzehuels/juliaset/pkg/generator"
	"github.com/matzehuels/juliaset/pkg/point"
)

// History classes.
const (
	ClassOutputSet             = "OutputSet"
	ClassInverseImageOutputSet = "InverseImageOutputSet"
)

const (
	beginFunction = "begin_input_function"
	endFunction   = "end_input_function"
)

// HistoryInfo returns the set's provenance as export lines. The output is
// byte-reproducible for a given set.
func (o *OutputSet) HistoryInfo() []string {
	class := ClassOutputSet
	if o.typ.IsInverseImage() {
		class = ClassInverseImageOutputSet
	}
	lines := []string{
		"class: " + class,
		"type: " + o.typ.String(),
	}
	if o.params != nil {
		lines = append(lines,
			"min_points: "+strconv.Itoa(o.params.N),
			"skips: "+strconv.Itoa(o.params.Skip),
			"seed: "+point.Format(o.params.Z0),
		)
	}
	for _, id := range o.sources {
		lines = append(lines, "source_output_set: "+strconv.FormatInt(id, 10))
	}
	lines = append(lines, "")

	for _, f := range o.functions {
		lines = append(lines, beginFunction+": "+f.ID().String())
		for _, s := range f.HistoryInfo() {
			lines = append(lines, "\t"+s)
		}
		lines = append(lines, endFunction, "")
	}
	return lines
}

// WriteHistory writes HistoryInfo to w, one line per entry.
func (o *OutputSet) WriteHistory(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, line := range o.HistoryInfo() {
		bw.WriteString(line)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// History is a parsed history export.
type History struct {
	Class     string
	Type      generator.Type
	Params    *generator.FixedParams
	Sources   []int64
	Functions []*function.Function
}

// ParseHistory parses lines produced by HistoryInfo. Function identities are
// preserved.
func ParseHistory(lines []string) (*History, error) {
	h := &History{}
	var (
		params  generator.FixedParams
		nParams int
		i       int
	)

	// Header, up to the first blank line.
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			break
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "history line %d: %q", i+1, line)
		}
		v = strings.TrimSpace(v)
		var err error
		switch strings.TrimSpace(k) {
		case "class":
			h.Class = v
		case "type":
			h.Type, err = generator.ParseType(v)
		case "min_points":
			params.N, err = strconv.Atoi(v)
			nParams++
		case "skips":
			params.Skip, err = strconv.Atoi(v)
			nParams++
		case "seed":
			params.Z0, err = point.Parse(v)
			nParams++
		case "source_output_set":
			var id int64
			id, err = strconv.ParseInt(v, 10, 64)
			h.Sources = append(h.Sources, id)
		default:
			err = errors.New(errors.ErrCodeInvalidFormat, "unknown key %q", k)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "history line %d", i+1)
		}
	}
	if h.Class == "" || h.Type == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "history is missing class or type")
	}
	switch nParams {
	case 0:
	case 3:
		h.Params = &params
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "history has partial parameters")
	}

	// Function blocks.
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		k, id, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(k) != beginFunction {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "history line %d: expected %s", i+1, beginFunction)
		}
		start := i + 1
		end := start
		for end < len(lines) && strings.TrimSpace(lines[end]) != endFunction {
			end++
		}
		if end == len(lines) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "history line %d: unterminated function block", i+1)
		}
		f, err := function.FromHistory(id, lines[start:end])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "history line %d", i+1)
		}
		h.Functions = append(h.Functions, f)
		i = end
	}
	return h, nil
}

// ReadHistory reads and parses a history export.
func ReadHistory(r io.Reader) (*History, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read history")
	}
	return ParseHistory(lines)
}
