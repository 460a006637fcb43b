package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"

	_ "modernc.org/sqlite" // pure Go SQLite driver, registers "sqlite"

	"github.com/okian/hiscore/internal/domain/model"
)

// scoreRow is the high_score table.
type scoreRow struct {
	bun.BaseModel `bun:"table:high_score"`

	ID         int64     `bun:"id,pk,autoincrement"`
	PlayerName string    `bun:"player_name,notnull"`
	Score      int64     `bun:"score,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

func (r *scoreRow) record() model.ScoreRecord {
	return model.ScoreRecord{
		ID:         r.ID,
		PlayerName: r.PlayerName,
		Score:      r.Score,
		CreatedAt:  model.NewTimestamp(r.CreatedAt),
	}
}

// SQLStore is the transactional backend. Ids come from the table's
// auto-increment column and every append runs in its own transaction.
type SQLStore struct {
	db   *bun.DB
	name string
	now  func() time.Time
}

var _ Backend = (*SQLStore)(nil)

// NewSQLStore wraps db, verifies the connection and creates the schema if it
// is missing. The caller keeps ownership of db until NewSQLStore succeeds.
func NewSQLStore(ctx context.Context, db *bun.DB, opts ...Option) (*SQLStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &SQLStore{db: db, name: dialectName(db), now: o.now}
	if err := s.migrate(ctx); err != nil {
		return nil, wrap(s.name, OpOpen, err)
	}
	return s, nil
}

// OpenSQL connects to url (postgres:// or a SQLite path) and returns a ready store.
func OpenSQL(ctx context.Context, url string, opts ...Option) (*SQLStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var db *bun.DB
	switch DetectDriver(url) {
	case DriverPostgres:
		sqldb, err := openPostgres(url)
		if err != nil {
			return nil, wrap(BackendPostgres, OpOpen, err)
		}
		sqldb.SetMaxOpenConns(o.maxOpenConns)
		db = bun.NewDB(sqldb, pgdialect.New())
	case DriverSQLite:
		sqldb, err := sql.Open("sqlite", sqlitePath(url))
		if err != nil {
			return nil, wrap(BackendSQLite, OpOpen, err)
		}
		// SQLite has a single writer; one connection also keeps :memory: databases alive.
		sqldb.SetMaxOpenConns(1)
		sqldb.SetMaxIdleConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		if url == "" {
			return nil, wrap("sql", OpOpen, ErrNotConfigured)
		}
		return nil, wrap("sql", OpOpen, fmt.Errorf("%w: %q", ErrUnsupportedDriver, redact(url)))
	}

	s, err := NewSQLStore(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// openPostgres builds a pgdriver connector. pgdriver.WithDSN panics on a
// malformed DSN, which is turned into an error here.
func openPostgres(dsn string) (db *sql.DB, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid postgres dsn: %v", r)
		}
	}()
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), nil
}

func dialectName(db *bun.DB) string {
	if _, ok := db.Dialect().(*pgdialect.Dialect); ok {
		return BackendPostgres
	}
	return BackendSQLite
}

func (s *SQLStore) migrate(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if _, err := s.db.NewCreateTable().
		Model((*scoreRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*scoreRow)(nil)).
		Index("high_score_player_score_idx").
		Column("player_name", "score").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Name identifies the SQL engine in use.
func (s *SQLStore) Name() string { return s.name }

// Append inserts one row atomically and returns it with its assigned id.
func (s *SQLStore) Append(ctx context.Context, n model.NewScore) (model.ScoreRecord, error) {
	row := &scoreRow{
		PlayerName: n.PlayerName,
		Score:      n.Score,
		CreatedAt:  model.NewTimestamp(s.now()).Time,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx)
		return err
	})
	if err != nil {
		return model.ScoreRecord{}, wrap(s.name, OpAppend, err)
	}
	return row.record(), nil
}

// QueryRecent returns the newest row for name and score if it was created at
// or after since. created_at never decreases with id, so only the newest
// matching row has to be compared.
func (s *SQLStore) QueryRecent(ctx context.Context, playerName string, score int64, since time.Time) (*model.ScoreRecord, error) {
	row := new(scoreRow)
	err := s.db.NewSelect().
		Model(row).
		Where("player_name = ?", playerName).
		Where("score = ?", score).
		OrderExpr("id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(s.name, OpQueryRecent, err)
	}

	rec := row.record()
	if rec.CreatedAt.Before(since) {
		return nil, nil
	}
	return &rec, nil
}

// ListAll returns every row ordered by id.
func (s *SQLStore) ListAll(ctx context.Context) ([]model.ScoreRecord, error) {
	var rows []scoreRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, wrap(s.name, OpListAll, err)
	}

	out := make([]model.ScoreRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].record()
	}
	return out, nil
}

// Close closes the connection pool.
func (s *SQLStore) Close() error {
	return wrap(s.name, OpClose, s.db.Close())
}
