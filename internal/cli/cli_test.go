package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/juliaset/pkg/cache"
	"github.com/matzehuels/juliaset/pkg/errors"
	"github.com/matzehuels/juliaset/pkg/observability"
)

// execute runs the root command with args against temporary XDG dirs.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	t.Cleanup(observability.Reset)
	return root.ExecuteContext(context.Background())
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestParsePositions(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"", nil, false},
		{"  ", nil, false},
		{"1", []int{1}, false},
		{"3, 1", []int{3, 1}, false},
		{"0", nil, true},
		{"1,x", nil, true},
	}
	for _, tt := range tests {
		got, err := parsePositions(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePositions(%q) error = %v", tt.in, err)
			continue
		}
		if tt.wantErr && !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("parsePositions(%q) code = %s", tt.in, errors.GetCode(err))
		}
		if len(got) != len(tt.want) {
			t.Errorf("parsePositions(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parsePositions(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a.dat, ,b.dat,")
	if len(got) != 2 || got[0] != "a.dat" || got[1] != "b.dat" {
		t.Errorf("splitList = %q", got)
	}
}

func TestNewCache(t *testing.T) {
	isolate(t)
	c := New(io.Discard, LogInfo)
	ctx := context.Background()

	rc, err := c.newCache(ctx, cacheFlags{noCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rc.(*cache.NullCache); !ok {
		t.Errorf("--no-cache gave %T", rc)
	}

	rc, err = c.newCache(ctx, cacheFlags{})
	if err != nil {
		t.Fatal(err)
	}
	fc, ok := rc.(*cache.FileCache)
	if !ok {
		t.Fatalf("default cache is %T", rc)
	}
	if want, _ := cacheDir(); fc.Dir() != want {
		t.Errorf("file cache dir = %s, want %s", fc.Dir(), want)
	}
}

func TestCacheFlagsKeyer(t *testing.T) {
	if k := (cacheFlags{}).keyer(); k != nil {
		t.Errorf("keyer without scope = %T, want nil", k)
	}

	opts := cache.PointsKeyOpts{Type: "FULL_JULIA_COMPOSITE", Iterations: 8}
	k := cacheFlags{scope: "lab"}.keyer()
	if k == nil {
		t.Fatal("keyer with scope is nil")
	}
	if got, want := k.PointsKey(opts), "lab:"+cache.NewDefaultKeyer().PointsKey(opts); got != want {
		t.Errorf("PointsKey = %s, want %s", got, want)
	}

	r, err := New(io.Discard, LogInfo).newRunner(context.Background(), cacheFlags{noCache: true, scope: "lab"})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if !strings.HasPrefix(r.Keyer.PointsKey(opts), "lab:points:") {
		t.Errorf("runner keyer is not scoped: %s", r.Keyer.PointsKey(opts))
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.Logger.Debug("hidden")
	c.SetLogLevel(LogDebug)
	c.Logger.Debug("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestDebugHooks(t *testing.T) {
	var buf bytes.Buffer
	installHooks(newLogger(&buf, log.DebugLevel))
	defer observability.Reset()

	ctx := context.Background()
	observability.Generator().OnGenerateStart(ctx, "FULL_JULIA", 2)
	observability.Spill().OnSpill(ctx, 42, 8, 0, nil)
	observability.Cache().OnCacheHit(ctx, "points")

	out := buf.String()
	for _, want := range []string{"generate start", "FULL_JULIA", "spill", "set=42", "cache hit"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
