package outputset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/matzehuels/juliaset/pkg/errors"
	"github.com/matzehuels/juliaset/pkg/function"
	"github.com/matzehuels/juliaset/pkg/generator"
)

func TestHistoryInfoFormat(t *testing.T) {
	f, err := function.NewLinear(1, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	f = f.WithID(uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))

	o := NewResident(Config{
		ID:        1,
		Type:      generator.RandomJuliaComposite,
		Functions: []*function.Function{f},
		Params:    &generator.FixedParams{N: 5, Skip: 0, Z0: 1},
		Logger:    quiet(),
	}, []complex128{1.0 / 32})

	want := strings.Join([]string{
		"class: OutputSet",
		"type: RANDOM_JULIA",
		"min_points: 5",
		"skips: 0",
		"seed: 1,0",
		"",
		"begin_input_function: 6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		"\tclass: linear",
		"\tm: 1",
		"\ta: 2,0",
		"\tb: 0,0",
		"end_input_function",
		"",
	}, "\n") + "\n"

	var buf bytes.Buffer
	if err := o.WriteHistory(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != want {
		t.Errorf("history =\n%s\nwant\n%s", buf.String(), want)
	}

	// Byte-reproducible.
	var again bytes.Buffer
	_ = o.WriteHistory(&again)
	if again.String() != buf.String() {
		t.Error("history is not reproducible")
	}
}

func TestHistoryRoundTripRecoversIdentities(t *testing.T) {
	f1, _ := function.NewLinear(2, 2, -1)
	f2, _ := function.NewCubic(1, 1+1i, -0.5)
	f3, _ := function.NewLinear(1, 0.5, 0.25i)
	fns := []*function.Function{f1, f2, f3}

	o := NewResident(Config{
		ID:        10,
		Type:      generator.FullJuliaComposite,
		Functions: fns,
		Params:    &generator.FixedParams{N: 50000, Skip: 20, Z0: 1 + 0.5i},
		Logger:    quiet(),
	}, nil)

	h, err := ParseHistory(o.HistoryInfo())
	if err != nil {
		t.Fatalf("ParseHistory error: %v", err)
	}
	if h.Class != ClassOutputSet || h.Type != generator.FullJuliaComposite {
		t.Errorf("header = %s %s", h.Class, h.Type)
	}
	if h.Params == nil || *h.Params != (generator.FixedParams{N: 50000, Skip: 20, Z0: 1 + 0.5i}) {
		t.Errorf("params = %+v", h.Params)
	}
	if len(h.Functions) != len(fns) {
		t.Fatalf("got %d functions, want %d", len(h.Functions), len(fns))
	}
	for i, f := range h.Functions {
		if f.ID() != fns[i].ID() {
			t.Errorf("function %d id = %s, want %s", i, f.ID(), fns[i].ID())
		}
		if !f.Equal(fns[i]) {
			t.Errorf("function %d = %s, want %s", i, f, fns[i])
		}
	}
}

func TestHistoryPostCriticalHasNoParams(t *testing.T) {
	f, _ := function.NewCubic(1, 1, -1)
	o := NewResident(Config{Type: generator.PostCritical, Functions: []*function.Function{f}, Logger: quiet()}, nil)

	for _, line := range o.HistoryInfo() {
		for _, k := range []string{"min_points:", "skips:", "seed:"} {
			if strings.HasPrefix(line, k) {
				t.Errorf("post-critical history has %q", line)
			}
		}
	}
	h, err := ParseHistory(o.HistoryInfo())
	if err != nil {
		t.Fatal(err)
	}
	if h.Params != nil {
		t.Errorf("params = %+v, want nil", h.Params)
	}
}

func TestHistoryInverseImage(t *testing.T) {
	f, _ := function.NewLinear(1, 2, 0)
	o := NewResident(Config{
		Type:      generator.FullInverseImage,
		Functions: []*function.Function{f},
		Params:    &generator.FixedParams{N: 100, Z0: 1},
		Sources:   []int64{1700000000001, 1700000000002},
		Logger:    quiet(),
	}, nil)

	lines := o.HistoryInfo()
	if lines[0] != "class: InverseImageOutputSet" {
		t.Errorf("class line = %q", lines[0])
	}
	h, err := ParseHistory(lines)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Sources) != 2 || h.Sources[0] != 1700000000001 || h.Sources[1] != 1700000000002 {
		t.Errorf("sources = %v", h.Sources)
	}
}

func TestReadHistoryToleratesCRLF(t *testing.T) {
	f, _ := function.NewLinear(1, 2, 0)
	o := NewResident(Config{Type: generator.ForwardImage, Functions: []*function.Function{f}, Params: &generator.FixedParams{N: 5, Z0: 1}, Logger: quiet()}, nil)
	text := strings.Join(o.HistoryInfo(), "\r\n")

	h, err := ReadHistory(strings.NewReader(text))
	if err != nil {
		t.Fatalf("ReadHistory error: %v", err)
	}
	if len(h.Functions) != 1 || h.Functions[0].ID() != f.ID() {
		t.Errorf("functions = %v", h.Functions)
	}
}

func TestParseHistoryErrors(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"empty", nil},
		{"missing type", []string{"class: OutputSet", ""}},
		{"bad type", []string{"class: OutputSet", "type: MANDELBROT", ""}},
		{"partial params", []string{"class: OutputSet", "type: FULL_JULIA", "min_points: 5", ""}},
		{"bad seed", []string{"class: OutputSet", "type: FULL_JULIA", "min_points: 5", "skips: 0", "seed: one", ""}},
		{"unknown key", []string{"class: OutputSet", "type: FULL_JULIA", "color: red", ""}},
		{"stray line", []string{"class: OutputSet", "type: POST_CRITICAL", "", "hello"}},
		{"unterminated", []string{"class: OutputSet", "type: POST_CRITICAL", "", "begin_input_function: 6ba7b810-9dad-11d1-80b4-00c04fd430c8", "\tclass: linear"}},
		{"bad function", []string{"class: OutputSet", "type: POST_CRITICAL", "", "begin_input_function: nope", "end_input_function"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHistory(tt.lines)
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("error = %v, want INVALID_FORMAT", err)
			}
		})
	}
}
