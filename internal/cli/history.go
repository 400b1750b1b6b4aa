package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/juliaset/pkg/errors"
	"github.com/matzehuels/juliaset/pkg/outputset"
	"github.com/matzehuels/juliaset/pkg/point"
)

// historyCommand creates the history inspection command.
func (c *CLI) historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect history exports",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a history export and list its functions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				if os.IsNotExist(err) {
					return errors.Wrap(errors.ErrCodeNotFound, err, "history file %s", args[0])
				}
				return errors.Wrap(errors.ErrCodeIO, err, "open %s", args[0])
			}
			defer f.Close()

			h, err := outputset.ReadHistory(f)
			if err != nil {
				return err
			}
			printHistory(h)
			return nil
		},
	})
	return cmd
}

func printHistory(h *outputset.History) {
	printKeyValue("class", h.Class)
	printKeyValue("type", StyleHighlight.Render(h.Type.String())+" "+StyleDim.Render(h.Type.Description()))
	if h.Params != nil {
		printKeyValue("min points", strconv.Itoa(h.Params.N))
		printKeyValue("skips", strconv.Itoa(h.Params.Skip))
		printKeyValue("seed", point.Format(h.Params.Z0))
	}
	for _, id := range h.Sources {
		printKeyValue("source", strconv.FormatInt(id, 10))
	}
	fmt.Println()
	for i, fn := range h.Functions {
		printInfo("%s", fn.WithSubscript(i+1))
		printDetail("%s", fn.ID())
	}
}
