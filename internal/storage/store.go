// Package storage persists the tracker's projects, boards, tasks, time logs
// and comments in SQLite or Postgres.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"tracker/internal/board"
)

// Store wraps access to the database and exposes high level helpers.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  zerolog.Logger
	locks   *board.Locks
}

// Open connects to the database of the given driver ("sqlite" or
// "postgres") and runs the required migrations.
func Open(driver, dsn string, logger zerolog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty database dsn")
	}

	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	if d.name == DriverSQLite {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open(d.driverName, d.connString(dsn))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	if d.name == DriverSQLite {
		// one writer: transactions on the single connection never interleave
		conn.SetMaxOpenConns(1)
		conn.SetConnMaxLifetime(0)
	}

	s := &Store{
		db:      conn,
		dialect: d,
		logger:  logger.With().Str("component", "storage").Str("driver", d.name).Logger(),
		locks:   board.NewLocks(),
	}
	if err := s.Migrate(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s.logger.Info().Msg("database ready")
	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the schema when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func ensureDir(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// querier rebinds the ? placeholders of every statement to the dialect.
type querier struct {
	ex executor
	d  dialect
}

func (q querier) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.ex.ExecContext(ctx, q.d.rebind(query), args...)
}

func (q querier) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.ex.QueryContext(ctx, q.d.rebind(query), args...)
}

func (q querier) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.ex.QueryRowContext(ctx, q.d.rebind(query), args...)
}

func (s *Store) q() querier {
	return querier{ex: s.db, d: s.dialect}
}

// withTx runs fn inside a transaction. Any error rolls everything back.
func (s *Store) withTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(querier{ex: tx, d: s.dialect}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// lockProject confirms the project exists and, where the database supports
// it, holds its row until the transaction ends.
func (s *Store) lockProject(ctx context.Context, q querier, projectID int64) error {
	var id int64
	err := q.queryRow(ctx, s.dialect.lockProjectSQL, projectID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return errNotFound("project")
	}
	if err != nil {
		return fmt.Errorf("lock project: %w", err)
	}
	return nil
}
