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

// SprintUpdate lists the sprint fields to change; nil fields stay.
type SprintUpdate struct {
	Name     *string
	IsClosed *bool
}

// ListSprints returns the sprints of a project, oldest first.
func (s *Store) ListSprints(ctx context.Context, projectID int64) ([]models.Sprint, error) {
	rows, err := s.q().query(ctx, `SELECT id, project_id, name, is_closed, created_at FROM sprints WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list sprints: %w", err)
	}
	defer rows.Close()

	sprints := []models.Sprint{}
	for rows.Next() {
		var sp models.Sprint
		if err := rows.Scan(&sp.ID, &sp.ProjectID, &sp.Name, &sp.IsClosed, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sprint: %w", err)
		}
		sprints = append(sprints, sp)
	}
	return sprints, rows.Err()
}

// CreateSprint opens a new sprint on a scrum project.
func (s *Store) CreateSprint(ctx context.Context, projectID int64, name string) (models.Sprint, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return models.Sprint{}, err
	}
	if p.BoardType != models.BoardScrum {
		return models.Sprint{}, models.NewValidationError("project", board.MsgKanbanNoSprints)
	}
	name = strings.TrimSpace(name)
	if err := validateSprintName(name); err != nil {
		return models.Sprint{}, err
	}

	id, err := insertSprint(ctx, s.q(), projectID, name)
	if err != nil {
		return models.Sprint{}, err
	}
	return s.GetSprint(ctx, id)
}

// GetSprint fetches a sprint by id.
func (s *Store) GetSprint(ctx context.Context, id int64) (models.Sprint, error) {
	var sp models.Sprint
	err := s.q().queryRow(ctx, `SELECT id, project_id, name, is_closed, created_at FROM sprints WHERE id = ?`, id).
		Scan(&sp.ID, &sp.ProjectID, &sp.Name, &sp.IsClosed, &sp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sprint{}, errNotFound("sprint")
	}
	if err != nil {
		return models.Sprint{}, fmt.Errorf("get sprint: %w", err)
	}
	return sp, nil
}

// UpdateSprint renames a sprint or opens/closes it.
func (s *Store) UpdateSprint(ctx context.Context, id int64, upd SprintUpdate) (models.Sprint, error) {
	current, err := s.GetSprint(ctx, id)
	if err != nil {
		return models.Sprint{}, err
	}
	if upd.Name != nil {
		current.Name = strings.TrimSpace(*upd.Name)
		if err := validateSprintName(current.Name); err != nil {
			return models.Sprint{}, err
		}
	}
	if upd.IsClosed != nil {
		current.IsClosed = *upd.IsClosed
	}

	_, err = s.q().exec(ctx, `UPDATE sprints SET name = ?, is_closed = ? WHERE id = ?`, current.Name, current.IsClosed, id)
	if err != nil {
		return models.Sprint{}, fmt.Errorf("update sprint: %w", err)
	}
	return s.GetSprint(ctx, id)
}

func insertSprint(ctx context.Context, q querier, projectID int64, name string) (int64, error) {
	var id int64
	err := q.queryRow(ctx, `INSERT INTO sprints(project_id, name) VALUES(?, ?) RETURNING id`, projectID, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert sprint: %w", err)
	}
	return id, nil
}

func validateSprintName(name string) error {
	if name == "" {
		return models.NewValidationError("name", "This field may not be blank.")
	}
	return nil
}
