package commands

import (
	"github.com/spf13/cobra"

	"github.com/plankdev/plank/internal/printer"
	"github.com/plankdev/plank/pkg/tracking"
)

var columnsTeam string

var columnsCmd = &cobra.Command{
	Use:   "columns <work-item-id>",
	Short: "List the columns the work item can legally move to",
	Long: `Columns lists the board columns the work item could occupy after at most
one state transition from its current state. The item's current column is
always included and marked.`,
	Args: cobra.ExactArgs(1),
	RunE: runColumns,
}

func init() {
	columnsCmd.Flags().StringVar(&columnsTeam, "team", "", "team whose board to inspect (default: configured team or area-path estimate)")
	rootCmd.AddCommand(columnsCmd)
}

func runColumns(cmd *cobra.Command, args []string) error {
	id, err := parseWorkItemID(args[0])
	if err != nil {
		return err
	}

	model, cfg, cleanup, err := newModel(cmd.Context(), id)
	if err != nil {
		return err
	}
	defer cleanup()

	team := chooseTeam(columnsTeam, cfg, model)
	cols := model.ValidColumns(team)
	if cols == nil {
		return printer.Error(
			"no board found",
			"The work item has no board for team "+team+".",
			[]string{"Run 'plank show' to see which teams have a board for this item"},
		)
	}

	current := model.Column(team)
	typeName := model.WorkItem().StringField(tracking.FieldWorkItemType)
	printer.Info("Valid columns for #%d (%s) on team %s:", model.ID(), typeName, team)
	for _, col := range cols {
		if col.Name == current {
			printer.Success("%s (current)", col.Name)
		} else {
			printer.Printf("    %s\n", col.Name)
		}
	}
	return nil
}
