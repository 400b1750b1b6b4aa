package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/juliaset/pkg/errors"
	"github.com/matzehuels/juliaset/pkg/generator"
	"github.com/matzehuels/juliaset/pkg/outputset"
	"github.com/matzehuels/juliaset/pkg/session"
)

const (
	methodRandom = "random"
	methodFull   = "full"
)

type inverseOpts struct {
	session sessionFlags
	method  string // random or full
	points  string // comma-separated point files
	prefix  string // output prefix; files are <prefix>-f<n>.dat
}

// inverseCommand creates the inverse command, which computes one inverse
// image per selected function from the union of the given point files.
func (c *CLI) inverseCommand() *cobra.Command {
	opts := inverseOpts{method: methodFull, prefix: "inverse"}

	cmd := &cobra.Command{
		Use:   "inverse",
		Short: "Compute inverse images of point files",
		Long: `Compute the inverse image of the union of one or more point files under each
selected function. One output set per function is generated concurrently and
written to <prefix>-f<n>.dat, where n is the function's position.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			method, err := parseMethod(opts.method)
			if err != nil {
				return err
			}
			files := splitList(opts.points)
			if len(files) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "--points is required")
			}
			sf, err := opts.session.file(cmd)
			if err != nil {
				return err
			}
			return c.runInverse(cmd.Context(), sf, method, files, &opts)
		},
	}

	opts.session.register(cmd)
	cmd.Flags().StringVar(&opts.method, "method", opts.method, "inverse image method: random, full")
	cmd.Flags().StringVar(&opts.points, "points", "", "source point files (comma-separated)")
	cmd.Flags().StringVarP(&opts.prefix, "output", "o", opts.prefix, "output file prefix")
	_ = cmd.RegisterFlagCompletionFunc("method", completeValues(methodRandom, methodFull))
	_ = cmd.RegisterFlagCompletionFunc("points", completeFiles("dat"))

	return cmd
}

func parseMethod(s string) (generator.Type, error) {
	switch s {
	case methodRandom:
		return generator.RandomInverseImage, nil
	case methodFull:
		return generator.FullInverseImage, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "invalid method %q (must be 'random' or 'full')", s)
}

func (c *CLI) runInverse(ctx context.Context, sf *session.File, method generator.Type, files []string, opts *inverseOpts) error {
	logger := loggerFromContext(ctx)

	positions, err := parsePositions(opts.session.functions)
	if err != nil {
		return err
	}

	// Inverse images are never cached, so the runner needs no cache.
	s, err := session.FromFile(sf, session.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer s.Close()

	fns, err := s.Select(positions)
	if err != nil {
		return err
	}

	sources := make([]*outputset.OutputSet, 0, len(files))
	for _, path := range files {
		pts, err := readPoints(path)
		if err != nil {
			return err
		}
		o, err := s.Import(pts)
		if err != nil {
			return err
		}
		logger.Debug("loaded source", "path", path, "points", len(pts), "set", o.ID())
		sources = append(sources, o)
	}

	prog := newProgress(logger)
	sets, err := s.InverseImage(ctx, method, fns, sources)
	if err != nil {
		return err
	}
	if err := await(ctx, s, sets, opts.session.tui); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Computed %d inverse images", len(sets)))

	for i, o := range sets {
		out := fmt.Sprintf("%s-f%s.dat", opts.prefix, fns[i].Subscript())
		pts := o.Points(true)
		if err := writePoints(out, pts); err != nil {
			return err
		}
		printSuccess("%s under f%s", o, fns[i].Subscript())
		printSetStats(o, len(pts))
		printFile(out)
	}
	return nil
}
