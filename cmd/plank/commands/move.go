package commands

import (
	"github.com/spf13/cobra"

	"github.com/plankdev/plank/internal/printer"
	"github.com/plankdev/plank/pkg/boardmodel"
)

var (
	moveTeam     string
	moveColumn   string
	moveRow      string
	moveClearRow bool
	moveDone     bool
	moveNotDone  bool
)

var moveCmd = &cobra.Command{
	Use:   "move <work-item-id>",
	Short: "Move a work item on its board",
	Long: `Move writes a single board field of the work item: its column, its row
(swimlane), or its done split. Exactly one of --column, --row, --clear-row,
--done or --not-done must be given.

Column moves are validated against the board's transition rules before the
write. Use 'plank columns' to list the legal targets.`,
	Args: cobra.ExactArgs(1),
	RunE: runMove,
}

func init() {
	moveCmd.Flags().StringVar(&moveTeam, "team", "", "team whose board to write to (default: configured team or area-path estimate)")
	moveCmd.Flags().StringVar(&moveColumn, "column", "", "column to move the item to")
	moveCmd.Flags().StringVar(&moveRow, "row", "", "row (swimlane) to move the item to")
	moveCmd.Flags().BoolVar(&moveClearRow, "clear-row", false, "move the item back to the default row")
	moveCmd.Flags().BoolVar(&moveDone, "done", false, "mark the item done within its split column")
	moveCmd.Flags().BoolVar(&moveNotDone, "not-done", false, "mark the item not done within its split column")
	rootCmd.AddCommand(moveCmd)
}

func moveUpdate() (boardmodel.FieldUpdate, error) {
	var updates []boardmodel.FieldUpdate
	if moveColumn != "" {
		updates = append(updates, boardmodel.ColumnChange(moveColumn))
	}
	if moveRow != "" {
		updates = append(updates, boardmodel.RowChange(moveRow))
	}
	if moveClearRow {
		updates = append(updates, boardmodel.RowChange(""))
	}
	if moveDone {
		updates = append(updates, boardmodel.DoneChange(true))
	}
	if moveNotDone {
		updates = append(updates, boardmodel.DoneChange(false))
	}
	if len(updates) != 1 {
		return nil, printer.Error(
			"exactly one field must be given",
			"Pass one of --column, --row, --clear-row, --done or --not-done.",
			[]string{"Example: plank move 42 --column Active"},
		)
	}
	return updates[0], nil
}

func runMove(cmd *cobra.Command, args []string) error {
	id, err := parseWorkItemID(args[0])
	if err != nil {
		return err
	}
	update, err := moveUpdate()
	if err != nil {
		return err
	}

	model, cfg, cleanup, err := newModel(cmd.Context(), id)
	if err != nil {
		return err
	}
	defer cleanup()

	team := chooseTeam(moveTeam, cfg, model)

	if moveColumn != "" {
		if !columnIsValid(model, team, moveColumn) {
			return printer.Error(
				"column not reachable",
				"The work item cannot move to column "+moveColumn+" from its current state.",
				[]string{"Run 'plank columns " + args[0] + "' to see the legal targets"},
			)
		}
	}

	if err := model.Save(cmd.Context(), team, update); err != nil {
		return printer.Error("failed to save work item", err.Error(), nil)
	}
	printer.Success("Updated #%d", model.ID())
	return nil
}

func columnIsValid(model *boardmodel.Model, team, column string) bool {
	for _, col := range model.ValidColumns(team) {
		if col.Name == column {
			return true
		}
	}
	return false
}
