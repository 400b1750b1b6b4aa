package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/juliaset/pkg/buildinfo"
)

// SetVersion sets the version information displayed by --version.
// This is typically called by the main package during initialization with values
// injected via ldflags at build time. Empty values keep the defaults.
func SetVersion(v, c, d string) {
	if v != "" {
		buildinfo.Version = v
	}
	if c != "" {
		buildinfo.Commit = c
	}
	if d != "" {
		buildinfo.Date = d
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
// Its pre-run hook routes generator, spill and cache events to the debug log.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "juliaset computes Julia sets and attractors of iterated function systems",
		Long: `juliaset computes point sets of iterated function systems built from linear
and cubic complex maps: Julia sets, attractors, forward and inverse images,
and post-critical sets. Deterministic results are cached between runs.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			installHooks(c.Logger)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.inverseCommand())
	root.AddCommand(c.sessionCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
