package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/hiscore/internal/adapters/repository"
	"github.com/okian/hiscore/internal/domain/model"
)

var errUnreachable = errors.New("connection refused")

// memBackend is an in-memory repository.Backend with switchable failures.
type memBackend struct {
	mu      sync.Mutex
	records []model.ScoreRecord
	now     func() time.Time

	failAppend bool
	failQuery  bool
	failList   bool
	block      bool

	appends int
	lists   int
	closed  bool
}

func newMemBackend(now func() time.Time) *memBackend {
	return &memBackend{now: now}
}

func (b *memBackend) Name() string { return "memory" }

func (b *memBackend) setFailures(appendFails, queryFails, listFails bool) {
	b.mu.Lock()
	b.failAppend, b.failQuery, b.failList = appendFails, queryFails, listFails
	b.mu.Unlock()
}

func (b *memBackend) Append(ctx context.Context, s model.NewScore) (model.ScoreRecord, error) {
	if err := b.wait(ctx, repository.OpAppend); err != nil {
		return model.ScoreRecord{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.appends++
	if b.failAppend {
		return model.ScoreRecord{}, &repository.StorageError{Backend: b.Name(), Op: repository.OpAppend, Err: errUnreachable}
	}
	rec := model.ScoreRecord{
		ID:         int64(len(b.records)) + 1,
		PlayerName: s.PlayerName,
		Score:      s.Score,
		CreatedAt:  model.NewTimestamp(b.now()),
	}
	b.records = append(b.records, rec)
	return rec, nil
}

func (b *memBackend) QueryRecent(ctx context.Context, name string, score int64, since time.Time) (*model.ScoreRecord, error) {
	if err := b.wait(ctx, repository.OpQueryRecent); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failQuery {
		return nil, &repository.StorageError{Backend: b.Name(), Op: repository.OpQueryRecent, Err: errUnreachable}
	}
	for i := len(b.records) - 1; i >= 0; i-- {
		r := b.records[i]
		if r.PlayerName == name && r.Score == score && !r.CreatedAt.Before(since) {
			return &r, nil
		}
	}
	return nil, nil
}

func (b *memBackend) ListAll(ctx context.Context) ([]model.ScoreRecord, error) {
	if err := b.wait(ctx, repository.OpListAll); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists++
	if b.failList {
		return nil, &repository.StorageError{Backend: b.Name(), Op: repository.OpListAll, Err: errUnreachable}
	}
	out := make([]model.ScoreRecord, len(b.records))
	copy(out, b.records)
	return out, nil
}

func (b *memBackend) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

func (b *memBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// wait blocks until ctx ends when block is set, mimicking a hung connection.
func (b *memBackend) wait(ctx context.Context, op string) error {
	b.mu.Lock()
	block := b.block
	b.mu.Unlock()
	if !block {
		return nil
	}
	<-ctx.Done()
	return &repository.StorageError{Backend: b.Name(), Op: op, Err: ctx.Err()}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func strPtr(s string) *string { return &s }
func intPtr(i int64) *int64  { return &i }
