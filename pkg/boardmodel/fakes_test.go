package boardmodel

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plankdev/plank/pkg/tracking"
)

// fakeBackend implements every service contract in memory and records the
// calls the model makes, so tests can assert both results and protocol
// (which writes happened, what the query looked like).
type fakeBackend struct {
	mu sync.Mutex

	workItems map[int]*tracking.WorkItem
	types     map[string]*tracking.WorkItemType
	teams     map[string][]tracking.Team // by area path
	refs      map[string][]tracking.BoardReference
	enabled   map[string]tracking.EnabledBoards
	boards    map[string]*tracking.Board // by board id
	queryIDs  []int

	// Failure injection, keyed by method name.
	fail map[string]error

	// Recorded protocol.
	lastQuery    string
	fieldFetches []int
	updates      [][]tracking.PatchOp
	updateResult *tracking.WorkItem
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		workItems: make(map[int]*tracking.WorkItem),
		types:     make(map[string]*tracking.WorkItemType),
		teams:     make(map[string][]tracking.Team),
		refs:      make(map[string][]tracking.BoardReference),
		enabled:   make(map[string]tracking.EnabledBoards),
		boards:    make(map[string]*tracking.Board),
		fail:      make(map[string]error),
	}
}

func (f *fakeBackend) GetWorkItem(ctx context.Context, id int) (*tracking.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["GetWorkItem"]; err != nil {
		return nil, err
	}
	wi, ok := f.workItems[id]
	if !ok {
		return nil, fmt.Errorf("no such work item: %d", id)
	}
	return wi, nil
}

func (f *fakeBackend) GetWorkItemFields(ctx context.Context, id int, fields []string) (*tracking.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["GetWorkItemFields"]; err != nil {
		return nil, err
	}
	f.fieldFetches = append(f.fieldFetches, id)
	wi, ok := f.workItems[id]
	if !ok {
		return nil, fmt.Errorf("no such work item: %d", id)
	}
	return wi, nil
}

func (f *fakeBackend) UpdateWorkItem(ctx context.Context, id int, ops []tracking.PatchOp) (*tracking.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["UpdateWorkItem"]; err != nil {
		return nil, err
	}
	f.updates = append(f.updates, ops)
	if f.updateResult != nil {
		return f.updateResult, nil
	}
	return f.workItems[id], nil
}

func (f *fakeBackend) QueryByWiql(ctx context.Context, query, project string) (*tracking.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["QueryByWiql"]; err != nil {
		return nil, err
	}
	f.lastQuery = query
	result := &tracking.QueryResult{}
	for _, id := range f.queryIDs {
		result.WorkItems = append(result.WorkItems, tracking.WorkItemRef{ID: id})
	}
	return result, nil
}

func (f *fakeBackend) GetBoard(ctx context.Context, project, team, boardID string) (*tracking.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["GetBoard"]; err != nil {
		return nil, err
	}
	board, ok := f.boards[boardID]
	if !ok {
		return nil, fmt.Errorf("no such board: %s", boardID)
	}
	return board, nil
}

func (f *fakeBackend) GetBoardReferences(ctx context.Context, project, team string) ([]tracking.BoardReference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["GetBoardReferences"]; err != nil {
		return nil, err
	}
	return f.refs[team], nil
}

func (f *fakeBackend) GetTeamsForAreaPath(ctx context.Context, project, areaPath string) ([]tracking.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["GetTeamsForAreaPath"]; err != nil {
		return nil, err
	}
	return f.teams[areaPath], nil
}

func (f *fakeBackend) GetEnabledBoards(ctx context.Context, project, team string) (tracking.EnabledBoards, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["GetEnabledBoards"]; err != nil {
		return nil, err
	}
	if e, ok := f.enabled[team]; ok {
		return e, nil
	}
	return tracking.EnabledBoards{}, nil
}

func (f *fakeBackend) GetWorkItemType(ctx context.Context, project, typeName string) (*tracking.WorkItemType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["GetWorkItemType"]; err != nil {
		return nil, err
	}
	wit, ok := f.types[typeName]
	if !ok {
		return nil, fmt.Errorf("no such work item type: %s", typeName)
	}
	return wit, nil
}

// recordingTracker captures telemetry events for assertions.
type recordingTracker struct {
	mu     sync.Mutex
	events []trackedEvent
}

type trackedEvent struct {
	name         string
	properties   map[string]string
	measurements map[string]float64
}

func (r *recordingTracker) TrackEvent(name string, properties map[string]string, measurements map[string]float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, trackedEvent{name: name, properties: properties, measurements: measurements})
}

func (r *recordingTracker) byName(name string) []trackedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []trackedEvent
	for _, e := range r.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

// Test fixture: work item 42, a User Story in ProjA\TeamX, placed on TeamX's
// Stories board in the Active column.

const (
	fixtureItemID   = 42
	fixtureProject  = "ProjA"
	fixtureAreaPath = `ProjA\TeamX`
	fixtureType     = "User Story"

	colFieldX  = "WEF_X_Kanban.Column"
	rowFieldX  = "WEF_X_Kanban.Lane"
	doneFieldX = "WEF_X_Kanban.Column.Done"
	colFieldY  = "WEF_Y_Kanban.Column"
	rowFieldY  = "WEF_Y_Kanban.Lane"
	doneFieldY = "WEF_Y_Kanban.Column.Done"
)

func storyBoard(id, colField, rowField, doneField string) *tracking.Board {
	return &tracking.Board{
		ID:   id,
		Name: "Stories",
		Fields: tracking.BoardFields{
			ColumnField: tracking.FieldRef{ReferenceName: colField},
			RowField:    tracking.FieldRef{ReferenceName: rowField},
			DoneField:   tracking.FieldRef{ReferenceName: doneField},
		},
		Columns: []tracking.BoardColumn{
			{ID: "c1", Name: "New", StateMappings: map[string]string{fixtureType: "New"}},
			{ID: "c2", Name: "Active", StateMappings: map[string]string{fixtureType: "Active"}},
			{ID: "c3", Name: "Resolved", StateMappings: map[string]string{fixtureType: "Resolved"}},
			{ID: "c4", Name: "Closed", StateMappings: map[string]string{fixtureType: "Closed"}},
		},
		AllowedMappings: map[string]map[string][]string{
			"Incoming":   {fixtureType: {"New"}},
			"InProgress": {fixtureType: {"Active", "Resolved"}},
			"Outgoing":   {fixtureType: {"Closed"}},
		},
	}
}

func storyType() *tracking.WorkItemType {
	return &tracking.WorkItemType{
		Name: fixtureType,
		Transitions: map[string][]tracking.Transition{
			"New":    {{To: "Active"}, {To: "New"}},
			"Active": {{To: "Resolved"}, {To: "Active"}, {To: "New"}},
		},
	}
}

func fixtureWorkItem() *tracking.WorkItem {
	return &tracking.WorkItem{
		ID:  fixtureItemID,
		Rev: 3,
		Fields: map[string]any{
			tracking.FieldTeamProject:  fixtureProject,
			tracking.FieldAreaPath:     fixtureAreaPath,
			tracking.FieldWorkItemType: fixtureType,
			tracking.FieldState:        "Active",
			tracking.FieldStackRank:    float64(5000),
			colFieldX:                  "Active",
		},
	}
}

// setupBackend wires the standard two-team fixture: TeamX and TeamY both own
// the area path and both have a Stories board accepting User Story, but only
// TeamX's board has column data on the work item.
func setupBackend() *fakeBackend {
	f := newFakeBackend()
	f.workItems[fixtureItemID] = fixtureWorkItem()
	f.types[fixtureType] = storyType()
	f.teams[fixtureAreaPath] = []tracking.Team{{ID: "t1", Name: "TeamX"}, {ID: "t2", Name: "TeamY"}}
	f.refs["TeamX"] = []tracking.BoardReference{{ID: "bx", Name: "Stories"}}
	f.refs["TeamY"] = []tracking.BoardReference{{ID: "by", Name: "Stories"}}
	f.boards["bx"] = storyBoard("bx", colFieldX, rowFieldX, doneFieldX)
	f.boards["by"] = storyBoard("by", colFieldY, rowFieldY, doneFieldY)
	return f
}

// newTestModel creates a refreshed model over the given backend.
func newTestModel(t *testing.T, f *fakeBackend) (*Model, *recordingTracker) {
	t.Helper()
	tracker := &recordingTracker{}
	m, err := New(Services{
		WorkItems: f,
		Boards:    f,
		Teams:     f,
		Backlog:   f,
		Types:     f,
		Telemetry: tracker,
	}, fixtureItemID, "test", true)
	require.NoError(t, err)
	require.NoError(t, m.Refresh(context.Background()))
	return m, tracker
}
