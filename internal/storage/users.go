package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tracker/internal/models"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, created_at`

// CreateUser inserts an account. The password must already be hashed.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	q := s.q()
	var exists int
	err := q.queryRow(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, u.Username).Scan(&exists)
	if err != nil {
		return models.User{}, fmt.Errorf("check username: %w", err)
	}
	if exists > 0 {
		return models.User{}, ErrUsernameTaken
	}
	err = q.queryRow(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, u.Email).Scan(&exists)
	if err != nil {
		return models.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists > 0 {
		return models.User{}, ErrEmailTaken
	}

	var id int64
	err = q.queryRow(ctx, `INSERT INTO users(username, email, first_name, last_name, password_hash)
        VALUES(?, ?, ?, ?, ?) RETURNING id`,
		u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash).Scan(&id)
	switch {
	case uniqueViolationOn(err, "email"):
		return models.User{}, ErrEmailTaken
	case isUniqueViolation(err):
		return models.User{}, ErrUsernameTaken
	}
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	return scanUser(s.q().queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByUsername fetches a user for login.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return scanUser(s.q().queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, strings.TrimSpace(username)))
}

// ListUsers returns every account ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.q().query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) userExists(ctx context.Context, q querier, id int64) (bool, error) {
	var n int
	if err := q.queryRow(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return n > 0, nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, errNotFound("user")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
