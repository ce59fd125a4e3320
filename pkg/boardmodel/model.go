// Package boardmodel implements the per-work-item board aggregate: given one
// work item, it resolves which team Kanban boards carry it, exposes the
// item's board-specific field values (column, row, done), computes which
// column moves are legal for the item's workflow state, and persists edits
// back through the work-tracking service.
//
// A Model is bound to a single work-item id. Refresh recomputes the full
// snapshot (work item, work-item type, resolved boards) and commits it
// atomically at the end of the pipeline; reads between a Refresh call and its
// return are undefined. Refresh is not re-entrant or cancel-safe: a second
// Refresh started while one is in flight does not cancel the first, and
// whichever completes last wins. Callers must serialize use of one Model.
package boardmodel

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plankdev/plank/pkg/tracking"
)

// TeamBoard is the result of testing one team's boards against the work
// item. Board is nil when no board of that team accepts the item's type.
// HasItemData is true only when the work item's field map already holds a
// value under the board's column field, i.e. the item has actually been
// placed on that board before.
type TeamBoard struct {
	Team        string
	Board       *tracking.Board
	HasItemData bool
}

// Model is the board aggregate for one work item.
type Model struct {
	id           int
	location     string
	firstRefresh bool
	createdAt    time.Time
	svc          Services

	// Snapshot state. The three fields are always replaced together at the
	// end of a completed refresh, never piecewise.
	workItem     *tracking.WorkItem
	workItemType *tracking.WorkItemType
	boards       []TeamBoard
}

// New creates a model bound to the given work-item id. The location label is
// an opaque UI-context tag used only for telemetry. firstRefresh marks
// whether the next Refresh is the first of the session, for startup-time
// measurement; the caller owns session tracking.
func New(svc Services, id int, location string, firstRefresh bool) (*Model, error) {
	if err := svc.validate(); err != nil {
		return nil, fmt.Errorf("invalid services: %w", err)
	}
	if id <= 0 {
		return nil, fmt.Errorf("work item id must be positive, got %d", id)
	}
	return &Model{
		id:           id,
		location:     location,
		firstRefresh: firstRefresh,
		createdAt:    time.Now(),
		svc:          svc,
	}, nil
}

// ID returns the work-item id the model is bound to.
func (m *Model) ID() int {
	return m.id
}

// WorkItem returns the cached work-item snapshot from the last completed
// refresh, or nil before the first one.
func (m *Model) WorkItem() *tracking.WorkItem {
	return m.workItem
}

// WorkItemType returns the work-item type snapshot matching WorkItem.
func (m *Model) WorkItemType() *tracking.WorkItemType {
	return m.workItemType
}

// Boards returns the resolved team boards. Only entries the work item
// actually carries column data for are kept; order follows team resolution
// order.
func (m *Model) Boards() []TeamBoard {
	return m.boards
}

// Refresh recomputes the full snapshot for the work item. Any upstream
// failure fails the whole call and leaves the previous snapshot untouched.
// There is no retry logic here; calling Refresh again is the retry.
func (m *Model) Refresh(ctx context.Context) error {
	started := time.Now()

	wi, err := m.svc.WorkItems.GetWorkItem(ctx, m.id)
	if err != nil {
		return fmt.Errorf("failed to fetch work item %d: %w", m.id, err)
	}
	wiFetch := time.Since(started)

	project := wi.StringField(tracking.FieldTeamProject)
	areaPath := wi.StringField(tracking.FieldAreaPath)
	typeName := wi.StringField(tracking.FieldWorkItemType)

	// Teams and the work-item type come from independent services; resolve
	// both before fanning out per team. First failure aborts the group.
	var (
		teams []tracking.Team
		wit   *tracking.WorkItemType
	)
	lookupStart := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teams, err = m.svc.Teams.GetTeamsForAreaPath(gctx, project, areaPath)
		if err != nil {
			return fmt.Errorf("failed to resolve teams for area path %q: %w", areaPath, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		wit, err = m.svc.Types.GetWorkItemType(gctx, project, typeName)
		if err != nil {
			return fmt.Errorf("failed to fetch work item type %q: %w", typeName, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	lookups := time.Since(lookupStart)

	// No owning team is a legitimate outcome, not an error: the item renders
	// with zero boards.
	if len(teams) == 0 {
		m.commit(wi, wit, nil)
		m.trackRefresh(0, false, refreshTimings{
			WorkItemFetch: wiFetch,
			Lookups:       lookups,
			Total:         time.Since(started),
		})
		return nil
	}

	// Per-team resolution fans out concurrently; results land in their input
	// slot so the final board order follows team resolution order.
	boardsStart := time.Now()
	resolved := make([]TeamBoard, len(teams))
	bg, bgctx := errgroup.WithContext(ctx)
	for i, team := range teams {
		i, team := i, team
		bg.Go(func() error {
			tb, err := m.resolveTeamBoard(bgctx, project, team.Name, wi, typeName)
			if err != nil {
				return err
			}
			resolved[i] = tb
			return nil
		})
	}
	if err := bg.Wait(); err != nil {
		return err
	}
	boardsResolve := time.Since(boardsStart)

	// Two-tier filter: a team may allow the item's type on its board without
	// the item ever having been dragged onto it. foundBoard records the
	// former for telemetry; only boards with real item data are kept.
	foundBoard := false
	kept := make([]TeamBoard, 0, len(resolved))
	for _, tb := range resolved {
		if tb.Board != nil {
			foundBoard = true
		}
		if tb.HasItemData {
			kept = append(kept, tb)
		}
	}

	m.commit(wi, wit, kept)
	m.trackRefresh(len(teams), foundBoard, refreshTimings{
		WorkItemFetch: wiFetch,
		Lookups:       lookups,
		BoardsResolve: boardsResolve,
		Total:         time.Since(started),
	})
	return nil
}

// resolveTeamBoard tests one team against the work item: list the team's
// boards, drop disabled ones, fetch the survivors' full configurations and
// pick the one (if any) associated with the item's type.
func (m *Model) resolveTeamBoard(ctx context.Context, project, team string, wi *tracking.WorkItem, typeName string) (TeamBoard, error) {
	var (
		refs    []tracking.BoardReference
		enabled tracking.EnabledBoards
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		refs, err = m.svc.Boards.GetBoardReferences(gctx, project, team)
		if err != nil {
			return fmt.Errorf("failed to list boards for team %q: %w", team, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		enabled, err = m.svc.Backlog.GetEnabledBoards(gctx, project, team)
		if err != nil {
			return fmt.Errorf("failed to fetch enabled boards for team %q: %w", team, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return TeamBoard{}, err
	}

	var candidates []tracking.BoardReference
	for _, ref := range refs {
		if enabled.Enabled(ref.Name) {
			candidates = append(candidates, ref)
		}
	}

	boards := make([]*tracking.Board, len(candidates))
	fg, fgctx := errgroup.WithContext(ctx)
	for i, ref := range candidates {
		i, ref := i, ref
		fg.Go(func() error {
			board, err := m.svc.Boards.GetBoard(fgctx, project, team, ref.ID)
			if err != nil {
				return fmt.Errorf("failed to fetch board %q for team %q: %w", ref.ID, team, err)
			}
			boards[i] = board
			return nil
		})
	}
	if err := fg.Wait(); err != nil {
		return TeamBoard{}, err
	}

	tb := TeamBoard{Team: team}
	if board := findAssociatedBoard(boards, typeName); board != nil {
		tb.Board = board
		tb.HasItemData = wi.HasField(board.Fields.ColumnField.ReferenceName)
	}
	return tb, nil
}

// commit atomically swaps in the snapshot computed by a completed refresh.
func (m *Model) commit(wi *tracking.WorkItem, wit *tracking.WorkItemType, boards []TeamBoard) {
	m.workItem = wi
	m.workItemType = wit
	m.boards = boards
}

type refreshTimings struct {
	WorkItemFetch time.Duration
	Lookups       time.Duration
	BoardsResolve time.Duration
	Total         time.Duration
}

func (m *Model) trackRefresh(teamCount int, foundBoard bool, timings refreshTimings) {
	hasEstimatedData := false
	if est := m.TeamBoard(""); est != nil {
		hasEstimatedData = est.HasItemData
	}
	m.svc.Telemetry.TrackEvent("board.refresh", map[string]string{
		"location":         m.location,
		"firstRefresh":     strconv.FormatBool(m.firstRefresh),
		"foundBoard":       strconv.FormatBool(foundBoard),
		"hasEstimatedData": strconv.FormatBool(hasEstimatedData),
	}, map[string]float64{
		"teamCount":       float64(teamCount),
		"boardsMatched":   float64(len(m.boards)),
		"workItemFetchMs": float64(timings.WorkItemFetch.Milliseconds()),
		"lookupsMs":       float64(timings.Lookups.Milliseconds()),
		"boardsResolveMs": float64(timings.BoardsResolve.Milliseconds()),
		"totalMs":         float64(timings.Total.Milliseconds()),
	})
}
