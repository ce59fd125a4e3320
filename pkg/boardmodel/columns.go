package boardmodel

import (
	"sort"

	"github.com/plankdev/plank/pkg/tracking"
)

// ValidColumns returns the columns of the team's board the work item may
// legally move to from its current workflow state: those whose per-type
// state mapping is reachable in one transition step. A state missing from
// the transition table is unconstrained, so every column is returned (fail
// open). Returns nil when the team has no resolved board.
func (m *Model) ValidColumns(team string) []tracking.BoardColumn {
	tb := m.TeamBoard(team)
	if tb == nil || tb.Board == nil || m.workItem == nil || m.workItemType == nil {
		return nil
	}

	state := m.workItem.StringField(tracking.FieldState)
	transitions, ok := m.workItemType.Transitions[state]
	if !ok {
		return tb.Board.Columns
	}

	reachable := make(map[string]bool, len(transitions))
	for _, t := range transitions {
		reachable[t.To] = true
	}

	var columns []tracking.BoardColumn
	for _, col := range tb.Board.Columns {
		if reachable[col.StateMappings[m.workItemType.Name]] {
			columns = append(columns, col)
		}
	}
	return columns
}

// AllowedStates flattens the team board's allowed mappings into the workflow
// states permitted for the given work-item-type name, across all column
// groups. An empty type name means all types. The result is deduplicated and
// sorted so the WIQL predicates built from it are stable. Returns nil when
// the team has no resolved board.
func (m *Model) AllowedStates(team, typeName string) []string {
	tb := m.TeamBoard(team)
	if tb == nil || tb.Board == nil {
		return nil
	}

	set := make(map[string]struct{})
	for _, group := range tb.Board.AllowedMappings {
		if typeName != "" {
			for _, state := range group[typeName] {
				set[state] = struct{}{}
			}
			continue
		}
		for _, states := range group {
			for _, state := range states {
				set[state] = struct{}{}
			}
		}
	}

	if len(set) == 0 {
		return nil
	}
	states := make([]string, 0, len(set))
	for state := range set {
		states = append(states, state)
	}
	sort.Strings(states)
	return states
}
