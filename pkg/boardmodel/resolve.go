package boardmodel

import (
	"strings"

	"github.com/plankdev/plank/pkg/tracking"
)

// areaPathSeparator splits hierarchical area paths ("ProjA\\Web\\TeamX").
const areaPathSeparator = "\\"

// findAssociatedBoard picks the first board that accepts the work item's
// type. A board accepts a type when any of its allowed-mapping column groups
// lists the type name. Boards with no allowed mappings accept nothing.
func findAssociatedBoard(boards []*tracking.Board, typeName string) *tracking.Board {
	for _, board := range boards {
		if board != nil && boardAcceptsType(board, typeName) {
			return board
		}
	}
	return nil
}

func boardAcceptsType(board *tracking.Board, typeName string) bool {
	for _, group := range board.AllowedMappings {
		if _, ok := group[typeName]; ok {
			return true
		}
	}
	return false
}

// TeamBoard returns the resolved board entry for a team. With an explicit
// team name it returns exactly that team's entry or nil; it never falls back
// to area-path matching. With an empty team name it estimates which board the
// item is "really" on: walk the work item's area-path segments from the leaf
// upward, and the first board (searching in reversed resolution order) whose
// team name equals the segment wins. When no segment names a team, the
// last-resolved board is the fallback.
func (m *Model) TeamBoard(team string) *TeamBoard {
	if team != "" {
		for i := range m.boards {
			if m.boards[i].Team == team {
				return &m.boards[i]
			}
		}
		return nil
	}

	if len(m.boards) == 0 || m.workItem == nil {
		return nil
	}

	areaPath := m.workItem.StringField(tracking.FieldAreaPath)
	segments := strings.Split(areaPath, areaPathSeparator)
	for si := len(segments) - 1; si >= 0; si-- {
		for bi := len(m.boards) - 1; bi >= 0; bi-- {
			if m.boards[bi].Team == segments[si] {
				return &m.boards[bi]
			}
		}
	}
	return &m.boards[len(m.boards)-1]
}

// EstimatedTeam returns the team name of the estimated board, or "" when no
// board resolved.
func (m *Model) EstimatedTeam() string {
	if tb := m.TeamBoard(""); tb != nil {
		return tb.Team
	}
	return ""
}

// Column returns the work item's current column on the team's board, or ""
// when the team has no resolved board.
func (m *Model) Column(team string) string {
	if tb := m.TeamBoard(team); tb != nil && tb.Board != nil {
		return m.workItem.StringField(tb.Board.Fields.ColumnField.ReferenceName)
	}
	return ""
}

// Row returns the work item's current swimlane on the team's board. Empty
// means the default lane.
func (m *Model) Row(team string) string {
	if tb := m.TeamBoard(team); tb != nil && tb.Board != nil {
		return m.workItem.StringField(tb.Board.Fields.RowField.ReferenceName)
	}
	return ""
}

// Done reports whether the work item sits in the "done" split of its column
// on the team's board.
func (m *Model) Done(team string) bool {
	if tb := m.TeamBoard(team); tb != nil && tb.Board != nil {
		return m.workItem.BoolField(tb.Board.Fields.DoneField.ReferenceName)
	}
	return false
}
