package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/oxleaf/parlour/internal/puzzle"
)

// NewPuzzlesCommand creates the puzzles command.
func NewPuzzlesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "puzzles",
		Short:         "List the built-in puzzle types",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := DefaultRegistry()

			type info struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			}
			var puzzles []info
			for _, id := range reg.IDs() {
				b, err := reg.New(id, puzzle.Hooks{})
				if err != nil {
					return WrapExitError(ExitCommandError, "instantiate puzzle", err)
				}
				puzzles = append(puzzles, info{ID: id, Name: b.Meta().Name})
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: os.Stdout, Verbose: rootOpts.Verbose}
			return out.Success(puzzles, func(w io.Writer) {
				for _, p := range puzzles {
					fmt.Fprintf(w, "%s\t%s\n", p.ID, p.Name)
				}
			})
		},
	}
}
