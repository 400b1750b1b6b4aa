package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/juliaset/pkg/errors"
	"github.com/matzehuels/juliaset/pkg/outputset"
	"github.com/matzehuels/juliaset/pkg/point"
	"github.com/matzehuels/juliaset/pkg/session"
)

// sessionFlags are the flags shared by commands that build a session.
type sessionFlags struct {
	path       string // session file; empty means the default path if it exists
	functions  string // comma-separated 1-based positions
	iterations int
	skips      int
	seed       string
	tui        bool
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "session", "", "session file (default ~/.config/juliaset/session.toml if present)")
	cmd.Flags().StringVar(&f.functions, "function", "", "function positions to use, e.g. 1,3 (default all)")
	cmd.Flags().IntVar(&f.iterations, "iterations", session.DefaultIterations, "minimum points or rounds")
	cmd.Flags().IntVar(&f.skips, "skips", session.DefaultSkips, "burn-in rounds for random types")
	cmd.Flags().StringVar(&f.seed, "seed", point.Format(session.DefaultSeed), "starting point as re,im")
	cmd.Flags().BoolVar(&f.tui, "tui", false, "show an interactive progress view")
	_ = cmd.RegisterFlagCompletionFunc("session", completeFiles("toml"))
}

// file loads the session file and applies any parameter flags the user set.
func (f *sessionFlags) file(cmd *cobra.Command) (*session.File, error) {
	sf, err := loadSessionFile(f.path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("iterations") {
		sf.Iterations = f.iterations
	}
	if cmd.Flags().Changed("skips") {
		sf.Skips = f.skips
	}
	if cmd.Flags().Changed("seed") {
		sf.Seed = f.seed
	}
	if err := sf.Validate(); err != nil {
		return nil, err
	}
	return sf, nil
}

// loadSessionFile reads path, or the default session file when path is
// empty. A missing default file yields the built-in defaults.
func loadSessionFile(path string) (*session.File, error) {
	if path != "" {
		return session.Load(path)
	}
	def, err := session.DefaultPath()
	if err != nil {
		return session.DefaultFile(), nil
	}
	sf, err := session.Load(def)
	if errors.Is(err, errors.ErrCodeNotFound) {
		return session.DefaultFile(), nil
	}
	return sf, err
}

// await blocks until every set in s has finished, showing either the
// progress view or a spinner.
func await(ctx context.Context, s *session.Session, sets []*outputset.OutputSet, useTUI bool) error {
	if useTUI {
		if err := runProgress(ctx, sets); err != nil {
			return err
		}
		return s.Wait(ctx)
	}

	spinner := newSpinnerWithContext(ctx, progressLine(sets))
	spinner.Start()

	done := make(chan error, 1)
	go func() { done <- s.Wait(ctx) }()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			if err != nil {
				spinner.StopWithError(errors.UserMessage(err))
				return err
			}
			spinner.Stop()
			return nil
		case <-ticker.C:
			spinner.SetMessage(progressLine(sets))
		}
	}
}

// progressLine summarizes the progress of sets, e.g. "Forward Image 1 (40%)".
func progressLine(sets []*outputset.OutputSet) string {
	if len(sets) == 1 {
		return fmt.Sprintf("%s (%d%%)", sets[0], sets[0].Progress())
	}
	total := 0
	for _, o := range sets {
		total += o.Progress()
	}
	return fmt.Sprintf("Generating %d output sets (%d%%)", len(sets), total/max(len(sets), 1))
}

// writePoints writes pts to path in the point file format.
func writePoints(path string, pts []complex128) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %s", path)
	}
	if err := point.Write(f, pts); err != nil {
		f.Close()
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "close %s", path)
	}
	return nil
}

// readPoints reads a point file.
func readPoints(path string) ([]complex128, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "point file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeIO, err, "open %s", path)
	}
	defer f.Close()
	return point.Read(f)
}
