package tracking

import (
	"fmt"
	"strings"
)

// PositionQuery builds the WIQL used to establish a work item's position
// within its board cell. It selects the ids of every work item sharing the
// same project, area path, column, done split and swimlane, restricted to the
// workflow states the board accepts, ordered by stack rank ascending.
type PositionQuery struct {
	Project     string
	AreaPath    string
	ColumnField string
	Column      string
	DoneField   string
	Done        bool
	RowField    string
	Row         string // empty means "no swimlane", matched as ''
	States      []string
}

// Build renders the query as WIQL text. String values are single-quoted with
// embedded quotes doubled.
func (q PositionQuery) Build() string {
	var b strings.Builder
	b.WriteString("SELECT [" + FieldID + "] FROM WorkItems")
	b.WriteString(" WHERE [" + FieldTeamProject + "] = " + wiqlString(q.Project))
	b.WriteString(" AND [" + FieldAreaPath + "] = " + wiqlString(q.AreaPath))
	b.WriteString(" AND [" + q.ColumnField + "] = " + wiqlString(q.Column))
	b.WriteString(fmt.Sprintf(" AND [%s] = %t", q.DoneField, q.Done))
	b.WriteString(" AND [" + q.RowField + "] = " + wiqlString(q.Row))
	if len(q.States) > 0 {
		quoted := make([]string, len(q.States))
		for i, s := range q.States {
			quoted[i] = wiqlString(s)
		}
		b.WriteString(" AND [" + FieldState + "] IN (" + strings.Join(quoted, ", ") + ")")
	}
	b.WriteString(" ORDER BY [" + FieldStackRank + "] ASC")
	return b.String()
}

func wiqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
