package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/hiscore/internal/domain/model"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestFileStore_AppendToMissingFileStartsAtOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scores.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	rec, err := s.Append(context.Background(), model.NewScore{PlayerName: "Alice", Score: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, "Alice", rec.PlayerName)
	assert.Equal(t, int64(100), rec.Score)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm())
}

func TestFileStore_EmptyFileIsEmptyCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	require.NoError(t, os.WriteFile(path, nil, fileMode))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	all, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.NotNil(t, all)

	rec, err := s.Append(context.Background(), model.NewScore{PlayerName: "Bob", Score: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)
}

func TestFileStore_IDsFollowCount(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "scores.json"))
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		rec, err := s.Append(context.Background(), model.NewScore{PlayerName: "P", Score: int64(i)})
		require.NoError(t, err)
		assert.Equal(t, int64(i), rec.ID)
	}

	all, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, r := range all {
		assert.Equal(t, int64(i+1), r.ID)
	}
}

func TestFileStore_WireFormat(t *testing.T) {
	clock := newStepClock()
	path := filepath.Join(t.TempDir(), "scores.json")
	s, err := NewFileStore(path, WithClock(clock.Now))
	require.NoError(t, err)

	_, err = s.Append(context.Background(), model.NewScore{PlayerName: "Alice", Score: 100})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, float64(1), raw[0]["id"])
	assert.Equal(t, "Alice", raw[0]["player_name"])
	assert.Equal(t, float64(100), raw[0]["score"])
	assert.Equal(t, "2024-05-01T12:00:00", raw[0]["created_at"])
}

func TestFileStore_ReadsExistingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	doc := `[
  {"id": 1, "player_name": "Old", "score": 7, "created_at": "2023-01-02T03:04:05.123456"},
  {"id": 2, "player_name": "Older", "score": 9, "created_at": "2023-01-02T03:04:06"}
]`
	require.NoError(t, os.WriteFile(path, []byte(doc), fileMode))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	all, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Old", all[0].PlayerName)
	assert.Equal(t, 123456*time.Microsecond, time.Duration(all[0].CreatedAt.Nanosecond()))

	rec, err := s.Append(context.Background(), model.NewScore{PlayerName: "New", Score: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.ID)
}

func TestFileStore_CorruptFileFailsAtOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), fileMode))

	_, err := NewFileStore(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage))

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, BackendFile, se.Backend)
	assert.Equal(t, OpOpen, se.Op)
}

func TestFileStore_CorruptionAfterOpenIsStorageError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("[{"), fileMode))

	_, err = s.Append(context.Background(), model.NewScore{PlayerName: "A", Score: 1})
	assert.ErrorIs(t, err, ErrStorage)

	_, err = s.ListAll(context.Background())
	assert.ErrorIs(t, err, ErrStorage)

	_, err = s.QueryRecent(context.Background(), "A", 1, time.Time{})
	assert.ErrorIs(t, err, ErrStorage)
}

func TestFileStore_EmptyPathNotConfigured(t *testing.T) {
	_, err := NewFileStore("")
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFileStore_QueryRecent(t *testing.T) {
	clock := newStepClock()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "scores.json"), WithClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := s.Append(ctx, model.NewScore{PlayerName: "Alice", Score: 100})
	require.NoError(t, err)

	t.Run("match at the lower bound", func(t *testing.T) {
		rec, err := s.QueryRecent(ctx, "Alice", 100, first.CreatedAt.Time)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, first.ID, rec.ID)
	})

	t.Run("older than since", func(t *testing.T) {
		rec, err := s.QueryRecent(ctx, "Alice", 100, first.CreatedAt.Add(time.Second))
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("different score", func(t *testing.T) {
		rec, err := s.QueryRecent(ctx, "Alice", 101, time.Time{})
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("different name", func(t *testing.T) {
		rec, err := s.QueryRecent(ctx, "alice", 100, time.Time{})
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("newest match wins", func(t *testing.T) {
		clock.Advance(2 * time.Minute)
		second, err := s.Append(ctx, model.NewScore{PlayerName: "Alice", Score: 100})
		require.NoError(t, err)

		rec, err := s.QueryRecent(ctx, "Alice", 100, time.Time{})
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, second.ID, rec.ID)
	})
}

func TestFileStore_CanceledContext(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "scores.json"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Append(ctx, model.NewScore{PlayerName: "A", Score: 1})
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStore_ConcurrentAppendsKeepEveryRecord(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "scores.json"))
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Append(context.Background(), model.NewScore{PlayerName: "P", Score: int64(i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, writers)

	seen := make(map[int64]bool, writers)
	for _, r := range all {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
	}
}
