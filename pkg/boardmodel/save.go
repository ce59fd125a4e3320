package boardmodel

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/plankdev/plank/pkg/tracking"
)

// FieldUpdate is one board field edit. Exactly three kinds exist:
// ColumnChange, RowChange and DoneChange.
type FieldUpdate interface {
	patch(fields tracking.BoardFields) tracking.PatchOp
	kind() string
}

// ColumnChange moves the work item to the named column.
type ColumnChange string

func (c ColumnChange) patch(fields tracking.BoardFields) tracking.PatchOp {
	return tracking.AddField(fields.ColumnField.ReferenceName, string(c))
}

func (ColumnChange) kind() string { return "column" }

// RowChange moves the work item to the named swimlane. The empty string
// clears the lane, which removes the row field outright: an empty-string
// value and an absent field are different things to the board.
type RowChange string

func (r RowChange) patch(fields tracking.BoardFields) tracking.PatchOp {
	if r == "" {
		return tracking.RemoveField(fields.RowField.ReferenceName)
	}
	return tracking.AddField(fields.RowField.ReferenceName, string(r))
}

func (RowChange) kind() string { return "row" }

// DoneChange sets whether the work item sits in the "done" split of its
// column.
type DoneChange bool

func (d DoneChange) patch(fields tracking.BoardFields) tracking.PatchOp {
	return tracking.AddField(fields.DoneField.ReferenceName, bool(d))
}

func (DoneChange) kind() string { return "done" }

// Save persists one board field edit for the given team (empty team means
// the estimated one). When the resolved team has no board the call logs a
// warning, emits an error-tagged telemetry event and resolves successfully
// with zero writes: editing an unset board must not break the caller. On a
// successful write the cached work item is replaced with the server's copy.
func (m *Model) Save(ctx context.Context, team string, update FieldUpdate) error {
	tb := m.TeamBoard(team)
	if tb == nil || tb.Board == nil {
		log.Printf("[boardmodel] no board resolved for team %q on work item %d, skipping %s save", team, m.id, update.kind())
		m.svc.Telemetry.TrackEvent("board.save", map[string]string{
			"location": m.location,
			"error":    "no board to save to",
		}, nil)
		return nil
	}

	op := update.patch(tb.Board.Fields)
	updated, err := m.svc.WorkItems.UpdateWorkItem(ctx, m.id, []tracking.PatchOp{op})
	if err != nil {
		return fmt.Errorf("failed to save %s change on work item %d: %w", update.kind(), m.id, err)
	}
	m.workItem = updated

	m.svc.Telemetry.TrackEvent("board.save", map[string]string{
		"location": m.location,
		"field":    update.kind(),
	}, map[string]float64{
		"msToClick": float64(time.Since(m.createdAt).Milliseconds()),
	})
	return nil
}
