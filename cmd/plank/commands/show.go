package commands

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/plankdev/plank/internal/printer"
	"github.com/plankdev/plank/pkg/tracking"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <work-item-id>",
	Short: "Show the board placement of a work item",
	Long: `Show resolves the boards associated with a work item and prints the
item's placement on its estimated team's board: team, board, column, row and
done split.

Teams are resolved from the item's area path. When the item carries board
data for more than one team, the deepest area-path match decides which team
is shown; the others are listed underneath.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the placement as JSON")
	rootCmd.AddCommand(showCmd)
}

type showOutput struct {
	ID     int      `json:"id"`
	Title  string   `json:"title,omitempty"`
	Type   string   `json:"type"`
	State  string   `json:"state"`
	Team   string   `json:"team,omitempty"`
	Board  string   `json:"board,omitempty"`
	Column string   `json:"column,omitempty"`
	Row    string   `json:"row,omitempty"`
	Done   bool     `json:"done"`
	Teams  []string `json:"teams,omitempty"`
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseWorkItemID(args[0])
	if err != nil {
		return err
	}

	model, cfg, cleanup, err := newModel(cmd.Context(), id)
	if err != nil {
		return err
	}
	defer cleanup()

	wi := model.WorkItem()
	team := chooseTeam("", cfg, model)

	out := showOutput{
		ID:    model.ID(),
		Title: wi.StringField("System.Title"),
		Type:  wi.StringField(tracking.FieldWorkItemType),
		State: wi.StringField(tracking.FieldState),
		Team:  team,
	}
	if tb := model.TeamBoard(team); tb != nil && tb.Board != nil {
		out.Board = tb.Board.Name
		out.Column = model.Column(team)
		out.Row = model.Row(team)
		out.Done = model.Done(team)
	}
	for _, tb := range model.Boards() {
		out.Teams = append(out.Teams, tb.Team)
	}

	if showJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printer.Field("Work Item", "#%d %s", out.ID, out.Title)
	printer.Field("Type", "%s (%s)", out.Type, out.State)
	if out.Board == "" {
		printer.Warning("No board found for this work item")
		return nil
	}
	printer.Field("Team", "%s", out.Team)
	printer.Field("Board", "%s", out.Board)
	printer.Field("Column", "%s", out.Column)
	if out.Row != "" {
		printer.Field("Row", "%s", out.Row)
	}
	printer.Field("Done", "%t", out.Done)
	if len(out.Teams) > 1 {
		printer.Info("Also on boards for: %s", otherTeams(out.Teams, out.Team))
	}
	return nil
}

func otherTeams(teams []string, current string) string {
	var s string
	for _, t := range teams {
		if t == current {
			continue
		}
		if s != "" {
			s += ", "
		}
		s += t
	}
	return s
}
