package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/juliaset/pkg/errors"
	"github.com/matzehuels/juliaset/pkg/session"
)

// sessionCommand creates the session file management command.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Create or display session files",
	}

	cmd.AddCommand(c.sessionInitCommand())
	cmd.AddCommand(c.sessionShowCommand())

	return cmd
}

// sessionInitCommand creates the "session init" subcommand.
func (c *CLI) sessionInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a session file with the default functions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := sessionPath(args)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", path)
			}
			if err := session.DefaultFile().Save(path); err != nil {
				return err
			}
			printSuccess("Created session file")
			printFile(path)
			printNextStep("Generate a Julia set", fmt.Sprintf("%s generate --session %s", appName, path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// sessionShowCommand creates the "session show" subcommand.
func (c *CLI) sessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [file]",
		Short: "Print a session's parameters and functions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			sf, err := loadSessionFile(path)
			if err != nil {
				return err
			}
			_, fns, err := sf.Build()
			if err != nil {
				return err
			}

			printKeyValue("iterations", strconv.Itoa(sf.Iterations))
			printKeyValue("skips", strconv.Itoa(sf.Skips))
			printKeyValue("seed", sf.Seed)
			fmt.Println()

			rows := make([][]string, 0, len(fns))
			for i, fn := range fns {
				a, b := fn.Coefficients()
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					fn.Kind().String(),
					strconv.Itoa(fn.Multiplicity()),
					fmt.Sprint(a),
					fmt.Sprint(b),
					fn.ID().String(),
				})
			}
			fmt.Println(functionTable(rows))
			return nil
		},
	}
}

func functionTable(rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Kind", "m", "a", "b", "ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 5:
				return StyleDim
			case col == 0:
				return StyleHighlight
			}
			return StyleValue
		}).
		Render()
}

// sessionPath returns the file argument or the default session path.
func sessionPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	path, err := session.DefaultPath()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "default session path")
	}
	return path, nil
}
