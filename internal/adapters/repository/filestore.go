package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/hiscore/internal/domain/model"
)

const fileMode = 0o644

// FileStore keeps every record as one JSON array in a single file.
//
// Appends rewrite the whole file. Calls within one process are serialized by
// mu and the rewrite goes through a temp file and rename, so readers never see
// a truncated document. Separate processes sharing the file still race on the
// read-modify-write cycle and ids are count+1, so they collide after such a
// race or after records are removed by hand.
type FileStore struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

var _ Backend = (*FileStore)(nil)

// NewFileStore returns a store backed by path. The parent directory is created
// if needed and an existing file is read once so a corrupt document fails here
// instead of on the first request.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	if path == "" {
		return nil, wrap(BackendFile, OpOpen, ErrNotConfigured)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, wrap(BackendFile, OpOpen, err)
		}
	}

	s := &FileStore{path: path, now: o.now}
	if _, err := s.load(); err != nil {
		return nil, wrap(BackendFile, OpOpen, err)
	}
	return s, nil
}

// Name returns BackendFile.
func (s *FileStore) Name() string { return BackendFile }

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Append reads the collection, assigns id = count+1 and rewrites the file.
func (s *FileStore) Append(ctx context.Context, n model.NewScore) (model.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.ScoreRecord{}, wrap(BackendFile, OpAppend, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return model.ScoreRecord{}, wrap(BackendFile, OpAppend, err)
	}

	rec := model.ScoreRecord{
		ID:         int64(len(records)) + 1,
		PlayerName: n.PlayerName,
		Score:      n.Score,
		CreatedAt:  model.NewTimestamp(s.now()),
	}
	records = append(records, rec)

	if err := s.store(records); err != nil {
		return model.ScoreRecord{}, wrap(BackendFile, OpAppend, err)
	}
	return rec, nil
}

// QueryRecent scans from the newest record backwards and returns the first
// match created at or after since.
func (s *FileStore) QueryRecent(ctx context.Context, playerName string, score int64, since time.Time) (*model.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(BackendFile, OpQueryRecent, err)
	}

	s.mu.Lock()
	records, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, wrap(BackendFile, OpQueryRecent, err)
	}

	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if r.PlayerName == playerName && r.Score == score && !r.CreatedAt.Before(since) {
			return &r, nil
		}
	}
	return nil, nil
}

// ListAll returns the records in file order, which is creation order.
func (s *FileStore) ListAll(ctx context.Context) ([]model.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(BackendFile, OpListAll, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, wrap(BackendFile, OpListAll, err)
	}
	return records, nil
}

// Close is a no-op; the file is only open for the duration of each call.
func (s *FileStore) Close() error { return nil }

// load reads the whole collection. A missing or empty file is an empty collection.
func (s *FileStore) load() ([]model.ScoreRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.ScoreRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []model.ScoreRecord{}, nil
	}

	var records []model.ScoreRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if records == nil {
		records = []model.ScoreRecord{}
	}
	return records, nil
}

// store writes records to a temp file in the same directory and renames it
// over the target.
func (s *FileStore) store(records []model.ScoreRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
