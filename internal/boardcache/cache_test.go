package boardcache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plankdev/plank/pkg/tracking"
)

// fakeSource records how often each upstream fetch runs so tests can assert
// cache hits avoided the round trip.
type fakeSource struct {
	boards     map[string]*tracking.Board
	refs       map[string][]tracking.BoardReference
	boardCalls int
	refCalls   int
}

func (f *fakeSource) GetBoard(ctx context.Context, project, team, boardID string) (*tracking.Board, error) {
	f.boardCalls++
	board, ok := f.boards[boardID]
	if !ok {
		return nil, fmt.Errorf("no such board: %s", boardID)
	}
	return board, nil
}

func (f *fakeSource) GetBoardReferences(ctx context.Context, project, team string) ([]tracking.BoardReference, error) {
	f.refCalls++
	return f.refs[team], nil
}

// setupTestCache creates a cache backed by a miniredis instance.
func setupTestCache(t *testing.T, source Source, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache, err := New(&redis.Options{Addr: mr.Addr()}, source, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return cache, mr
}

func testBoard(id string) *tracking.Board {
	return &tracking.Board{
		ID:   id,
		Name: "Stories",
		Fields: tracking.BoardFields{
			ColumnField: tracking.FieldRef{ReferenceName: "WEF_" + id + "_Kanban.Column"},
		},
		Columns: []tracking.BoardColumn{
			{ID: "c1", Name: "New", StateMappings: map[string]string{"User Story": "New"}},
		},
		AllowedMappings: map[string]map[string][]string{
			"Incoming": {"User Story": {"New"}},
		},
	}
}

func TestNew(t *testing.T) {
	t.Run("rejects nil source", func(t *testing.T) {
		_, err := New(&redis.Options{Addr: "localhost:6379"}, nil, time.Minute)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "source cannot be nil")
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		_, err := New(&redis.Options{Addr: "localhost:6379"}, &fakeSource{}, 0)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "ttl must be positive")
	})
}

func TestGetBoard(t *testing.T) {
	ctx := context.Background()

	t.Run("miss fetches from source and caches", func(t *testing.T) {
		source := &fakeSource{boards: map[string]*tracking.Board{"b1": testBoard("b1")}}
		cache, mr := setupTestCache(t, source, time.Minute)

		board, err := cache.GetBoard(ctx, "ProjA", "TeamX", "b1")
		require.NoError(t, err)
		assert.Equal(t, "b1", board.ID)
		assert.Equal(t, 1, source.boardCalls)

		// Entry landed in Redis under the schema key.
		assert.True(t, mr.Exists(BoardKey("ProjA", "TeamX", "b1")))
	})

	t.Run("repeated get hits cache, source called once", func(t *testing.T) {
		source := &fakeSource{boards: map[string]*tracking.Board{"b1": testBoard("b1")}}
		cache, _ := setupTestCache(t, source, time.Minute)

		for i := 0; i < 3; i++ {
			board, err := cache.GetBoard(ctx, "ProjA", "TeamX", "b1")
			require.NoError(t, err)
			assert.Equal(t, "Stories", board.Name)
		}
		assert.Equal(t, 1, source.boardCalls)
	})

	t.Run("expired entry refetches", func(t *testing.T) {
		source := &fakeSource{boards: map[string]*tracking.Board{"b1": testBoard("b1")}}
		cache, mr := setupTestCache(t, source, time.Minute)

		_, err := cache.GetBoard(ctx, "ProjA", "TeamX", "b1")
		require.NoError(t, err)

		mr.FastForward(2 * time.Minute)

		_, err = cache.GetBoard(ctx, "ProjA", "TeamX", "b1")
		require.NoError(t, err)
		assert.Equal(t, 2, source.boardCalls)
	})

	t.Run("source failure propagates", func(t *testing.T) {
		source := &fakeSource{boards: map[string]*tracking.Board{}}
		cache, _ := setupTestCache(t, source, time.Minute)

		_, err := cache.GetBoard(ctx, "ProjA", "TeamX", "missing")
		assert.Error(t, err)
	})

	t.Run("corrupt entry behaves like a miss", func(t *testing.T) {
		source := &fakeSource{boards: map[string]*tracking.Board{"b1": testBoard("b1")}}
		cache, mr := setupTestCache(t, source, time.Minute)

		require.NoError(t, mr.Set(BoardKey("ProjA", "TeamX", "b1"), "{not json"))

		board, err := cache.GetBoard(ctx, "ProjA", "TeamX", "b1")
		require.NoError(t, err)
		assert.Equal(t, "b1", board.ID)
		assert.Equal(t, 1, source.boardCalls)
	})
}

func TestGetBoardReferences(t *testing.T) {
	ctx := context.Background()

	t.Run("miss then hit", func(t *testing.T) {
		source := &fakeSource{refs: map[string][]tracking.BoardReference{
			"TeamX": {{ID: "b1", Name: "Stories"}, {ID: "b2", Name: "Epics"}},
		}}
		cache, _ := setupTestCache(t, source, time.Minute)

		refs, err := cache.GetBoardReferences(ctx, "ProjA", "TeamX")
		require.NoError(t, err)
		require.Len(t, refs, 2)

		refs, err = cache.GetBoardReferences(ctx, "ProjA", "TeamX")
		require.NoError(t, err)
		assert.Equal(t, "Stories", refs[0].Name)
		assert.Equal(t, 1, source.refCalls)
	})

	t.Run("teams are cached independently", func(t *testing.T) {
		source := &fakeSource{refs: map[string][]tracking.BoardReference{
			"TeamX": {{ID: "b1", Name: "Stories"}},
			"TeamY": {{ID: "b2", Name: "Epics"}},
		}}
		cache, _ := setupTestCache(t, source, time.Minute)

		refsX, err := cache.GetBoardReferences(ctx, "ProjA", "TeamX")
		require.NoError(t, err)
		refsY, err := cache.GetBoardReferences(ctx, "ProjA", "TeamY")
		require.NoError(t, err)

		assert.Equal(t, "Stories", refsX[0].Name)
		assert.Equal(t, "Epics", refsY[0].Name)
		assert.Equal(t, 2, source.refCalls)
	})
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()

	source := &fakeSource{
		boards: map[string]*tracking.Board{"b1": testBoard("b1")},
		refs:   map[string][]tracking.BoardReference{"TeamX": {{ID: "b1", Name: "Stories"}}},
	}
	cache, mr := setupTestCache(t, source, time.Minute)

	_, err := cache.GetBoard(ctx, "ProjA", "TeamX", "b1")
	require.NoError(t, err)
	_, err = cache.GetBoardReferences(ctx, "ProjA", "TeamX")
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(ctx, "ProjA", "TeamX"))

	assert.False(t, mr.Exists(BoardKey("ProjA", "TeamX", "b1")))
	assert.False(t, mr.Exists(BoardRefsKey("ProjA", "TeamX")))

	// Next read goes back to the source.
	_, err = cache.GetBoard(ctx, "ProjA", "TeamX", "b1")
	require.NoError(t, err)
	assert.Equal(t, 2, source.boardCalls)
}
