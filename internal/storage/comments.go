package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tracker/internal/board"
	"tracker/internal/models"
)

const commentColumns = `id, task_id, owner_id, content, created_at, updated_at`

// ListComments returns the comments of a task, newest first.
func (s *Store) ListComments(ctx context.Context, taskID int64) ([]models.Comment, error) {
	if _, err := getTask(ctx, s.q(), taskID); err != nil {
		return nil, err
	}
	return listComments(ctx, s.q(), `task_id = ?`, taskID)
}

func listComments(ctx context.Context, q querier, where string, args ...any) ([]models.Comment, error) {
	rows, err := q.query(ctx, `SELECT `+commentColumns+` FROM comments WHERE `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CreateComment adds a comment by ownerID to a task.
func (s *Store) CreateComment(ctx context.Context, taskID, ownerID int64, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, models.NewValidationError("content", "This field may not be blank.")
	}
	if _, err := getTask(ctx, s.q(), taskID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Comment{}, models.NewValidationError("task", board.MsgDoesNotExist)
		}
		return models.Comment{}, err
	}

	var id int64
	err := s.q().queryRow(ctx, `INSERT INTO comments(task_id, owner_id, content) VALUES(?, ?, ?) RETURNING id`,
		taskID, ownerID, content).Scan(&id)
	if err != nil {
		return models.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return s.getComment(ctx, id)
}

// GetComment fetches a comment owned by requesterID.
func (s *Store) GetComment(ctx context.Context, id, requesterID int64) (models.Comment, error) {
	c, err := s.getComment(ctx, id)
	if err != nil {
		return models.Comment{}, err
	}
	if err := ownedBy(c.OwnerID, requesterID, "comment"); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// UpdateComment rewrites the content of a comment owned by requesterID.
func (s *Store) UpdateComment(ctx context.Context, id, requesterID int64, content string) (models.Comment, error) {
	if _, err := s.GetComment(ctx, id, requesterID); err != nil {
		return models.Comment{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, models.NewValidationError("content", "This field may not be blank.")
	}
	_, err := s.q().exec(ctx, `UPDATE comments SET content = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, content, id)
	if err != nil {
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	return s.getComment(ctx, id)
}

// DeleteComment removes a comment owned by requesterID.
func (s *Store) DeleteComment(ctx context.Context, id, requesterID int64) error {
	if _, err := s.GetComment(ctx, id, requesterID); err != nil {
		return err
	}
	if _, err := s.q().exec(ctx, `DELETE FROM comments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *Store) getComment(ctx context.Context, id int64) (models.Comment, error) {
	c, err := scanComment(s.q().queryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, errNotFound("comment")
	}
	return c, err
}

// ownedBy hides records of other users behind the same error as a missing
// record.
func ownedBy(ownerID, requesterID int64, what string) error {
	if ownerID != requesterID {
		return errNotFound(what)
	}
	return nil
}

func scanComment(row rowScanner) (models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.TaskID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, err
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("scan comment: %w", err)
	}
	return c, nil
}
