package session

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/matzehuels/juliaset/pkg/errors"
	"github.com/matzehuels/juliaset/pkg/function"
	"github.com/matzehuels/juliaset/pkg/generator"
	"github.com/matzehuels/juliaset/pkg/point"
)

// Defaults for a new session.
const (
	DefaultIterations = 50000
	DefaultSkips      = 20
	DefaultSeed       = complex(1, 0)
)

// File is the on-disk TOML form of a session's parameters and functions.
type File struct {
	Iterations int            `toml:"iterations" validate:"gte=1,lte=1073741824"`
	Skips      int            `toml:"skips" validate:"gte=0,lte=1073741824"`
	Seed       string         `toml:"seed" validate:"required,point"`
	Functions  []FunctionSpec `toml:"function" validate:"dive"`
}

// FunctionSpec is one [[function]] table. Multiplicity and the leading
// coefficient are checked by the function constructors so their errors keep
// their own codes.
type FunctionSpec struct {
	ID   string `toml:"id,omitempty" validate:"omitempty,uuid"`
	Kind string `toml:"kind" validate:"required,oneof=linear cubic"`
	M    int    `toml:"m"`
	A    string `toml:"a" validate:"required,point"`
	B    string `toml:"b" validate:"required,point"`
}

var fileValidate *validator.Validate

func init() {
	fileValidate = validator.New()
	_ = fileValidate.RegisterValidation("point", func(fl validator.FieldLevel) bool {
		z, err := point.Parse(fl.Field().String())
		return err == nil && point.IsFinite(z)
	})
}

// DefaultFile returns the parameters and functions of an empty session.
func DefaultFile() *File {
	return &File{
		Iterations: DefaultIterations,
		Skips:      DefaultSkips,
		Seed:       point.Format(DefaultSeed),
		Functions: []FunctionSpec{
			{Kind: "linear", M: 1, A: "2,0", B: "0,0"},
			{Kind: "linear", M: 1, A: "2,0", B: "-1,0"},
			{Kind: "linear", M: 1, A: "2,0", B: "-0.5,-0.866"},
		},
	}
}

// DefaultPath returns ~/.config/juliaset/session.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "juliaset", "session.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "juliaset", "session.toml"), nil
}

// Validate checks the struct tags.
func (f *File) Validate() error {
	if err := fileValidate.Struct(f); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParams, err, "invalid session file")
	}
	return nil
}

// Decode reads a TOML session file. Unknown keys are rejected.
func Decode(r io.Reader) (*File, error) {
	var f File
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse session file")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown session keys: %s", strings.Join(keys, ", "))
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads and validates the session file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "session file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read session file")
	}
	return Decode(bytes.NewReader(data))
}

// Encode writes f as TOML.
func (f *File) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(f); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "encode session file")
	}
	return nil
}

// Save writes f to path, creating parent directories.
func (f *File) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create session dir")
	}
	var buf bytes.Buffer
	if err := f.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write session file")
	}
	return nil
}

// Build converts the file into generation parameters and functions.
// Functions without an id get a fresh identity.
func (f *File) Build() (generator.FixedParams, []*function.Function, error) {
	seed, err := point.Parse(f.Seed)
	if err != nil {
		return generator.FixedParams{}, nil, err
	}
	params := generator.FixedParams{N: f.Iterations, Skip: f.Skips, Z0: seed}

	fns := make([]*function.Function, 0, len(f.Functions))
	for i, spec := range f.Functions {
		fn, err := spec.build()
		if err != nil {
			return generator.FixedParams{}, nil, errors.Wrap(errors.GetCode(err), err, "function %d", i+1)
		}
		fns = append(fns, fn)
	}
	return params, fns, nil
}

func (s FunctionSpec) build() (*function.Function, error) {
	kind, err := function.ParseKind(s.Kind)
	if err != nil {
		return nil, err
	}
	a, err := point.Parse(s.A)
	if err != nil {
		return nil, err
	}
	b, err := point.Parse(s.B)
	if err != nil {
		return nil, err
	}
	fn, err := function.New(kind, s.M, a, b)
	if err != nil {
		return nil, err
	}
	if s.ID != "" {
		id, err := uuid.Parse(s.ID)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "function id")
		}
		fn = fn.WithID(id)
	}
	return fn, nil
}

// specFor renders fn as a FunctionSpec with its identity.
func specFor(fn *function.Function) FunctionSpec {
	a, b := fn.Coefficients()
	return FunctionSpec{
		ID:   fn.ID().String(),
		Kind: fn.Kind().String(),
		M:    fn.Multiplicity(),
		A:    point.Format(a),
		B:    point.Format(b),
	}
}
