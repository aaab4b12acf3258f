package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"tracker/internal/board"
	"tracker/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, ":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestUser(t *testing.T, s *Store, name string) models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return u
}

func newTestProject(t *testing.T, s *Store, owner models.User, boardType string) models.Project {
	t.Helper()
	in := NewProject{Name: "Tracker", Key: "TRK", BoardType: boardType, CreatedBy: owner.ID}
	if boardType == models.BoardScrum {
		name := "Sprint 1"
		in.SprintName = &name
	}
	p, err := s.CreateProject(context.Background(), in)
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	return p
}

func columnTitles(t *testing.T, s *Store, projectID int64) []string {
	t.Helper()
	cols := assertDense(t, s, projectID)
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.Title
	}
	return titles
}

// assertDense fails the test unless the project's positions are exactly 1..N.
func assertDense(t *testing.T, s *Store, projectID int64) []models.Column {
	t.Helper()
	cols, err := s.ListColumns(context.Background(), projectID)
	if err != nil {
		t.Fatalf("Failed to list columns: %v", err)
	}
	for i, c := range cols {
		if c.Position != i+1 {
			t.Fatalf("column %q at position %d, expected %d", c.Title, c.Position, i+1)
		}
	}
	return cols
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func assertValidation(t *testing.T, err error, field, msg string) {
	t.Helper()
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error on %s, got %v", field, err)
	}
	if verr.Field != field {
		t.Fatalf("expected error on %s, got %s: %s", field, verr.Field, verr.Message)
	}
	if msg != "" && verr.Message != msg {
		t.Fatalf("expected message %q, got %q", msg, verr.Message)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "dsn", zerolog.Nop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestRebind(t *testing.T) {
	got := postgresDialect.rebind(`SELECT * FROM t WHERE a = ? AND b = ?`)
	if got != `SELECT * FROM t WHERE a = $1 AND b = $2` {
		t.Errorf("unexpected postgres query: %s", got)
	}
	q := `SELECT * FROM t WHERE a = ?`
	if sqliteDialect.rebind(q) != q {
		t.Errorf("sqlite query must stay untouched")
	}
}

func TestUserUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTestUser(t, s, "alice")

	_, err := s.CreateUser(ctx, models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
	_, err = s.CreateUser(ctx, models.User{Username: "bob", Email: "ALICE@example.com", PasswordHash: "x"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	u, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("unexpected email %q", u.Email)
	}
	if _, err := s.GetUser(ctx, 999); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// Rows inserted by the triggers between the existence checks and the insert
// stand in for a concurrent registration.
func TestUserUniquenessOnInsertRace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stmts := []string{
		`CREATE TRIGGER steal_email BEFORE INSERT ON users WHEN NEW.username = 'bob'
            BEGIN INSERT INTO users(username, email, first_name, last_name, password_hash)
            VALUES('carol', NEW.email, '', '', 'x'); END`,
		`CREATE TRIGGER steal_username BEFORE INSERT ON users WHEN NEW.email = 'dave@example.com'
            BEGIN INSERT INTO users(username, email, first_name, last_name, password_hash)
            VALUES(NEW.username, 'erin@example.com', '', '', 'x'); END`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			t.Fatalf("create trigger: %v", err)
		}
	}

	tests := []struct {
		name string
		user models.User
		want error
	}{
		{"email", models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}, ErrEmailTaken},
		{"username", models.User{Username: "dave", Email: "dave@example.com", PasswordHash: "x"}, ErrUsernameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.CreateUser(ctx, tt.user); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUniqueViolationOnPostgresConstraint(t *testing.T) {
	byName := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"}
	byDetail := &pgconn.PgError{Code: pgerrcode.UniqueViolation, Detail: "Key (email)=(a@example.com) already exists."}
	username := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_key"}
	other := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "users_email_key"}

	if !uniqueViolationOn(byName, "email") || !uniqueViolationOn(byDetail, "email") {
		t.Errorf("email violation not recognized")
	}
	if uniqueViolationOn(username, "email") {
		t.Errorf("username violation reported as email")
	}
	if uniqueViolationOn(other, "email") {
		t.Errorf("foreign key violation reported as unique")
	}
}

// postgresStore opens the store against a real Postgres when one is configured.
func postgresStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TRACKER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TRACKER_TEST_POSTGRES_DSN not set")
	}
	s, err := Open(DriverPostgres, dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to open postgres store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgresColumnOrdering(t *testing.T) {
	s := postgresStore(t)
	ctx := context.Background()
	u, err := s.CreateUser(ctx, models.User{
		Username:     fmt.Sprintf("pg-%d", os.Getpid()),
		Email:        fmt.Sprintf("pg-%d@example.com", os.Getpid()),
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	p := newTestProject(t, s, u, models.BoardKanban)
	defer s.DeleteProject(ctx, p.ID)

	if _, err := s.CreateColumn(ctx, NewColumn{ProjectID: p.ID, Title: "Review", Position: 3, Visible: true}); err != nil {
		t.Fatalf("CreateColumn: %v", err)
	}
	want := []string{board.ColumnBacklog, board.ColumnSelectedForDev, "Review", board.ColumnInProgress, board.ColumnDone}
	if got := columnTitles(t, s, p.ID); !equalStrings(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
