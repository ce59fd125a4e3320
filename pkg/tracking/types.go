// Package tracking provides type-safe Go definitions and a REST client for an
// Azure-DevOps-style work-tracking service. It covers the slice of the API
// surface Plank consumes: work items and their field maps, work-item types
// with their state-transition tables, teams, Kanban board configurations, and
// WIQL queries.
//
// All client methods take a context and return wrapped errors; callers decide
// retry policy.
package tracking

import (
	"fmt"
	"strconv"
)

// Well-known field reference names. Board-specific fields (column, row, done)
// are not listed here because their reference names are per-board and come
// from the board's Fields configuration.
const (
	FieldID           = "System.Id"
	FieldTeamProject  = "System.TeamProject"
	FieldAreaPath     = "System.AreaPath"
	FieldWorkItemType = "System.WorkItemType"
	FieldState        = "System.State"
	FieldStackRank    = "Microsoft.VSTS.Common.StackRank"
)

// WorkItem is a snapshot of a work item: its identity plus a flat mapping
// from field reference name to value. Values are string, float64 or bool as
// decoded from JSON. The service owns the data; Plank holds a cached copy
// that is replaced wholesale after each successful write.
type WorkItem struct {
	ID     int            `json:"id"`
	Rev    int            `json:"rev"`
	Fields map[string]any `json:"fields"`
}

// HasField reports whether the work item carries any value under the given
// field reference name.
func (wi *WorkItem) HasField(ref string) bool {
	_, ok := wi.Fields[ref]
	return ok
}

// StringField returns the field value as a string, or "" if the field is
// absent or not a string.
func (wi *WorkItem) StringField(ref string) string {
	s, _ := wi.Fields[ref].(string)
	return s
}

// BoolField returns the field value as a bool. The service serializes done
// flags both as JSON booleans and as "True"/"False" strings depending on the
// API version, so both spellings are accepted.
func (wi *WorkItem) BoolField(ref string) bool {
	switch v := wi.Fields[ref].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	default:
		return false
	}
}

// NumberField returns the field value as a float64, or an error if the field
// is absent or not numeric.
func (wi *WorkItem) NumberField(ref string) (float64, error) {
	switch v := wi.Fields[ref].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("field %s is not numeric: %q", ref, v)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("field %s is not set", ref)
	default:
		return 0, fmt.Errorf("field %s has unsupported type %T", ref, v)
	}
}

// Transition is a single allowed state change. The service models richer
// transitions (actions, reasons); Plank only needs the target state.
type Transition struct {
	To string `json:"to"`
}

// WorkItemType describes a work-item type and its state-transition table.
// Transitions maps a source state name to the transitions allowed out of it.
// A state missing from the table is unconstrained.
type WorkItemType struct {
	Name        string                  `json:"name"`
	Transitions map[string][]Transition `json:"transitions"`
}

// Team is a project team. Teams are associated with area-path subtrees; a
// work item can belong to zero or more teams via its area path.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FieldRef identifies a work-item field by reference name.
type FieldRef struct {
	ReferenceName string `json:"referenceName"`
}

// BoardFields names the three fields a board uses to place a work item:
// which column it is in, which horizontal swimlane (row), and whether it sits
// in the "done" split of a split column.
type BoardFields struct {
	ColumnField FieldRef `json:"columnField"`
	RowField    FieldRef `json:"rowField"`
	DoneField   FieldRef `json:"doneField"`
}

// BoardColumn is one column of a board. StateMappings maps a work-item-type
// name to the workflow state that type must be in to sit in this column.
type BoardColumn struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	StateMappings map[string]string `json:"stateMappings"`
}

// Board is a team's Kanban board configuration. AllowedMappings is keyed by
// column group ("Incoming", "InProgress", "Outgoing"), then by work-item-type
// name, giving the workflow states from which that type may enter the group.
// A type absent from every group is not accepted on the board.
type Board struct {
	ID              string                         `json:"id"`
	Name            string                         `json:"name"`
	Fields          BoardFields                    `json:"fields"`
	Columns         []BoardColumn                  `json:"columns"`
	AllowedMappings map[string]map[string][]string `json:"allowedMappings"`
}

// BoardReference is the lightweight board listing entry returned by the
// boards index; the full Board is a separate fetch.
type BoardReference struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WorkItemRef is a work-item identity as returned by WIQL queries.
type WorkItemRef struct {
	ID int `json:"id"`
}

// QueryResult is the response to a flat WIQL query. WorkItems preserves the
// query's ORDER BY ordering.
type QueryResult struct {
	WorkItems []WorkItemRef `json:"workItems"`
}

// EnabledBoards is the per-team predicate from the backlog configuration:
// board names mapped to whether that backlog level is visible for the team.
type EnabledBoards map[string]bool

// Enabled reports whether the named board is enabled for the team. Boards
// missing from the configuration are treated as enabled; the service omits
// levels it has never persisted a setting for.
func (e EnabledBoards) Enabled(boardName string) bool {
	if v, ok := e[boardName]; ok {
		return v
	}
	return true
}
