package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/oxleaf/parlour/internal/savegame"
)

// NewSavesCommand creates the saves command group.
func NewSavesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saves",
		Short: "Inspect and manage saved games",
	}
	cmd.AddCommand(newSavesListCommand(rootOpts))
	cmd.AddCommand(newSavesRemoveCommand(rootOpts))
	return cmd
}

func newSavesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [puzzle-id]",
		Short: "List saved games, optionally for one puzzle",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			puzzleID := ""
			if len(args) == 1 {
				puzzleID = args[0]
			}

			store, err := savegame.Open(rootOpts.Config.DatabasePath)
			if err != nil {
				return WrapExitError(ExitCommandError, "open database", err)
			}
			defer store.Close()

			saves, err := store.ListSavedGames(cmd.Context(), puzzleID)
			if err != nil {
				return WrapExitError(ExitCommandError, "list saved games", err)
			}
			sortSaves(saves)

			out := &OutputFormatter{Format: rootOpts.Format, Writer: os.Stdout, Verbose: rootOpts.Verbose}
			return out.Success(saves, func(w io.Writer) {
				if len(saves) == 0 {
					fmt.Fprintln(w, "no saved games")
					return
				}
				for _, m := range saves {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						m.PuzzleID, m.Filename, m.Status, m.Timestamp.Format("2006-01-02 15:04:05"))
				}
			})
		},
	}
}

// sortSaves orders for display: puzzle id first, then filename under a
// locale-aware collation so "Untitled-2" and accented names sort the way a
// user expects rather than bytewise.
func sortSaves(saves []savegame.Metadata) {
	c := collate.New(language.Und, collate.Numeric)
	sort.SliceStable(saves, func(i, j int) bool {
		if saves[i].PuzzleID != saves[j].PuzzleID {
			return saves[i].PuzzleID < saves[j].PuzzleID
		}
		return c.CompareString(saves[i].Filename, saves[j].Filename) < 0
	})
}

func newSavesRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "rm <puzzle-id> [filename]",
		Short: "Remove a saved game, or all saves for a puzzle",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			puzzleID := args[0]
			if !all && len(args) != 2 {
				return NewExitError(ExitCommandError, "filename required unless --all is set")
			}

			store, err := savegame.Open(rootOpts.Config.DatabasePath)
			if err != nil {
				return WrapExitError(ExitCommandError, "open database", err)
			}
			defer store.Close()

			ctx := cmd.Context()
			if all {
				if err := store.RemoveAll(ctx, puzzleID); err != nil {
					return WrapExitError(ExitCommandError, "remove saved games", err)
				}
			} else if err := store.RemoveSavedGame(ctx, puzzleID, args[1]); err != nil {
				return WrapExitError(ExitCommandError, "remove saved game", err)
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: os.Stdout, Verbose: rootOpts.Verbose}
			return out.Success("removed", func(w io.Writer) {
				fmt.Fprintln(w, "removed")
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "remove all saves (user and auto) for the puzzle")
	return cmd
}
