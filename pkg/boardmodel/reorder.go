package boardmodel

import (
	"context"
	"fmt"

	"github.com/plankdev/plank/pkg/tracking"
)

// ColumnIndex returns the work item's 0-based position within its board
// cell: all items sharing the same project, area path, column, done split
// and swimlane, in the states the board accepts, ordered by rank ascending.
// Returns -1 when the query result does not contain the item.
//
// With moveToTop set, an item not already first is re-ranked one unit below
// the current top item; the cached work item is replaced with the server's
// copy and the pre-move position is returned, so the caller can tell how far
// the item jumped.
func (m *Model) ColumnIndex(ctx context.Context, team string, moveToTop bool) (int, error) {
	tb := m.TeamBoard(team)
	if tb == nil || tb.Board == nil {
		return -1, fmt.Errorf("no board resolved for team %q", team)
	}
	if m.workItem == nil {
		return -1, fmt.Errorf("model has not been refreshed")
	}

	fields := tb.Board.Fields
	typeName := m.workItem.StringField(tracking.FieldWorkItemType)
	project := m.workItem.StringField(tracking.FieldTeamProject)

	query := tracking.PositionQuery{
		Project:     project,
		AreaPath:    m.workItem.StringField(tracking.FieldAreaPath),
		ColumnField: fields.ColumnField.ReferenceName,
		Column:      m.workItem.StringField(fields.ColumnField.ReferenceName),
		DoneField:   fields.DoneField.ReferenceName,
		Done:        m.workItem.BoolField(fields.DoneField.ReferenceName),
		RowField:    fields.RowField.ReferenceName,
		Row:         m.workItem.StringField(fields.RowField.ReferenceName),
		States:      m.AllowedStates(team, typeName),
	}

	result, err := m.svc.WorkItems.QueryByWiql(ctx, query.Build(), project)
	if err != nil {
		return -1, fmt.Errorf("failed to query column position: %w", err)
	}

	position := -1
	for i, ref := range result.WorkItems {
		if ref.ID == m.id {
			position = i
			break
		}
	}
	if position < 0 {
		// Not in its own cell's result set. Can happen when the item moved
		// between refresh and reorder; reordering would be meaningless.
		return -1, nil
	}
	if !moveToTop || position == 0 {
		return position, nil
	}

	// Re-rank below the current top item. The rank fetch is a partial-field
	// read; only the patched item's server copy replaces our cache.
	topID := result.WorkItems[0].ID
	top, err := m.svc.WorkItems.GetWorkItemFields(ctx, topID, []string{tracking.FieldStackRank})
	if err != nil {
		return -1, fmt.Errorf("failed to fetch rank of work item %d: %w", topID, err)
	}
	topRank, err := top.NumberField(tracking.FieldStackRank)
	if err != nil {
		return -1, fmt.Errorf("work item %d has no usable rank: %w", topID, err)
	}

	updated, err := m.svc.WorkItems.UpdateWorkItem(ctx, m.id, []tracking.PatchOp{
		tracking.AddField(tracking.FieldStackRank, topRank-1),
	})
	if err != nil {
		return -1, fmt.Errorf("failed to re-rank work item %d: %w", m.id, err)
	}
	m.workItem = updated

	m.svc.Telemetry.TrackEvent("board.reorder", map[string]string{
		"location": m.location,
	}, map[string]float64{
		"position": float64(position),
	})
	return position, nil
}
