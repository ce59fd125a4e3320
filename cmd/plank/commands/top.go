package commands

import (
	"github.com/spf13/cobra"

	"github.com/plankdev/plank/internal/printer"
)

var topTeam string

var topCmd = &cobra.Command{
	Use:   "top <work-item-id>",
	Short: "Move a work item to the top of its column",
	Long: `Top reorders the work item to the first position within its current
column, row and done split, and prints the position it held before the move.
Items already at the top are left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runTop,
}

func init() {
	topCmd.Flags().StringVar(&topTeam, "team", "", "team whose board to reorder on (default: configured team or area-path estimate)")
	rootCmd.AddCommand(topCmd)
}

func runTop(cmd *cobra.Command, args []string) error {
	id, err := parseWorkItemID(args[0])
	if err != nil {
		return err
	}

	model, cfg, cleanup, err := newModel(cmd.Context(), id)
	if err != nil {
		return err
	}
	defer cleanup()

	team := chooseTeam(topTeam, cfg, model)

	pos, err := model.ColumnIndex(cmd.Context(), team, true)
	if err != nil {
		return printer.Error("failed to reorder work item", err.Error(), nil)
	}
	switch {
	case pos < 0:
		printer.Warning("Work item #%d is not visible in its column's query results", model.ID())
	case pos == 0:
		printer.Info("Work item #%d is already at the top of its column", model.ID())
	default:
		printer.Success("Moved #%d to the top of its column (was at position %d)", model.ID(), pos)
	}
	return nil
}
