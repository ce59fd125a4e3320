package boardmodel

import (
	"context"
	"fmt"

	"github.com/plankdev/plank/internal/telemetry"
	"github.com/plankdev/plank/pkg/tracking"
)

// WorkItemService is the slice of the work-tracking API the model reads and
// writes work items through. Satisfied by *tracking.Client.
type WorkItemService interface {
	GetWorkItem(ctx context.Context, id int) (*tracking.WorkItem, error)
	GetWorkItemFields(ctx context.Context, id int, fields []string) (*tracking.WorkItem, error)
	UpdateWorkItem(ctx context.Context, id int, ops []tracking.PatchOp) (*tracking.WorkItem, error)
	QueryByWiql(ctx context.Context, query, project string) (*tracking.QueryResult, error)
}

// BoardProvider serves board listings and full board configurations.
// Satisfied by *tracking.Client directly or by *boardcache.Cache in front of
// it.
type BoardProvider interface {
	GetBoard(ctx context.Context, project, team, boardID string) (*tracking.Board, error)
	GetBoardReferences(ctx context.Context, project, team string) ([]tracking.BoardReference, error)
}

// TeamResolver maps an area path to the teams associated with it.
type TeamResolver interface {
	GetTeamsForAreaPath(ctx context.Context, project, areaPath string) ([]tracking.Team, error)
}

// BacklogConfig serves the per-team enabled-board predicate.
type BacklogConfig interface {
	GetEnabledBoards(ctx context.Context, project, team string) (tracking.EnabledBoards, error)
}

// WorkItemTypeProvider serves work-item types with their transition tables.
type WorkItemTypeProvider interface {
	GetWorkItemType(ctx context.Context, project, typeName string) (*tracking.WorkItemType, error)
}

// Services bundles every external collaborator the model consumes. All
// fields except Telemetry are required; a nil Telemetry is replaced with a
// no-op sink.
type Services struct {
	WorkItems WorkItemService
	Boards    BoardProvider
	Teams     TeamResolver
	Backlog   BacklogConfig
	Types     WorkItemTypeProvider
	Telemetry telemetry.Tracker
}

func (s *Services) validate() error {
	if s.WorkItems == nil {
		return fmt.Errorf("work item service is required")
	}
	if s.Boards == nil {
		return fmt.Errorf("board provider is required")
	}
	if s.Teams == nil {
		return fmt.Errorf("team resolver is required")
	}
	if s.Backlog == nil {
		return fmt.Errorf("backlog config is required")
	}
	if s.Types == nil {
		return fmt.Errorf("work item type provider is required")
	}
	if s.Telemetry == nil {
		s.Telemetry = telemetry.Noop{}
	}
	return nil
}
