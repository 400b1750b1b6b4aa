package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/juliaset/pkg/errors"
	"github.com/matzehuels/juliaset/pkg/generator"
	"github.com/matzehuels/juliaset/pkg/outputset"
	"github.com/matzehuels/juliaset/pkg/session"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	session sessionFlags
	cache   cacheFlags
	typ     string // output set type slug or history name
	output  string // point file; default <slug>.dat
	history string // optional history export path
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOpts{typ: generator.FullJuliaComposite.Slug()}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an output set from the session's functions",
		Long: `Generate an output set from the session's input functions and write its
points to a file, one "re,im" pair per line.

Types: ` + strings.Join(generatedSlugs(), ", ") + `

Full and post-critical types are deterministic and cached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := opts.session.file(cmd)
			if err != nil {
				return err
			}
			return c.runGenerate(cmd.Context(), sf, &opts)
		},
	}

	opts.session.register(cmd)
	cmd.Flags().StringVarP(&opts.typ, "type", "t", opts.typ, "output set type")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output point file (default <type>.dat)")
	cmd.Flags().StringVar(&opts.history, "history", "", "also write the history export to this file")
	cmd.Flags().BoolVar(&opts.cache.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().StringVar(&opts.cache.redisAddr, "redis-addr", "", "use a Redis result cache at host:port")
	cmd.Flags().StringVar(&opts.cache.scope, "cache-scope", "", "namespace for result cache keys")
	_ = cmd.RegisterFlagCompletionFunc("type", completeValues(generatedSlugs()...))

	return cmd
}

// generatedSlugs lists the types the generate command accepts.
func generatedSlugs() []string {
	var out []string
	for _, t := range generator.Types {
		if t == generator.Basic || t.IsInverseImage() {
			continue
		}
		out = append(out, t.Slug())
	}
	return out
}

func (c *CLI) runGenerate(ctx context.Context, sf *session.File, opts *generateOpts) error {
	logger := loggerFromContext(ctx)

	typ, err := generator.ParseType(opts.typ)
	if err != nil {
		return err
	}
	positions, err := parsePositions(opts.session.functions)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	s, err := session.FromFile(sf, session.Options{Runner: runner, Logger: logger})
	if err != nil {
		return err
	}
	defer s.Close()

	fns, err := s.Select(positions)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	o, err := s.Generate(ctx, typ, fns)
	if err != nil {
		return err
	}
	if err := await(ctx, s, []*outputset.OutputSet{o}, opts.session.tui); err != nil {
		return err
	}
	pts := o.Points(true)
	prog.done(fmt.Sprintf("Generated %s", o))

	out := opts.output
	if out == "" {
		out = typ.Slug() + ".dat"
	}
	if err := writePoints(out, pts); err != nil {
		return err
	}

	if len(pts) == 0 {
		printWarning("%s is empty", o)
	} else {
		printSuccess("%s", o)
	}
	printSetStats(o, len(pts))
	printFile(out)

	if opts.history != "" {
		if err := writeHistory(opts.history, o); err != nil {
			return err
		}
		printFile(opts.history)
	}
	return nil
}

func writeHistory(path string, o *outputset.OutputSet) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %s", path)
	}
	if err := o.WriteHistory(f); err != nil {
		f.Close()
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "close %s", path)
	}
	return nil
}
