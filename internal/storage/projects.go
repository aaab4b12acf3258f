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

const projectColumns = `id, name, project_key, board_type, created_by, created_at, updated_at`

// NewProject holds the values of a project about to be created.
type NewProject struct {
	Name       string
	Key        string
	BoardType  string
	SprintName *string
	CreatedBy  int64
}

// ProjectUpdate lists the project fields to change; nil fields stay.
type ProjectUpdate struct {
	Name      *string
	Key       *string
	BoardType *string
}

// ListProjects retrieves all projects ordered by id.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.q().query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateProject persists a project together with its initial board. The
// project, its four columns and, for scrum, its first sprint are written
// in one transaction.
func (s *Store) CreateProject(ctx context.Context, in NewProject) (models.Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Key = strings.TrimSpace(in.Key)
	if in.BoardType == "" {
		in.BoardType = models.BoardKanban
	}
	if err := validateProject(in.Name, in.Key); err != nil {
		return models.Project{}, err
	}
	if err := board.ValidateSprintName(in.BoardType, in.SprintName); err != nil {
		return models.Project{}, err
	}

	var id int64
	err := s.withTx(ctx, func(q querier) error {
		err := q.queryRow(ctx, `INSERT INTO projects(name, project_key, board_type, created_by) VALUES(?, ?, ?, ?) RETURNING id`,
			in.Name, in.Key, in.BoardType, in.CreatedBy).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}

		for _, c := range board.InitialColumns(id, in.BoardType) {
			if _, err := s.insertColumn(ctx, q, c); err != nil {
				return fmt.Errorf("provision column %q: %w", c.Title, err)
			}
		}

		if in.BoardType == models.BoardScrum {
			if _, err := insertSprint(ctx, q, id, strings.TrimSpace(*in.SprintName)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Project{}, err
	}

	s.logger.Info().Int64("project_id", id).Str("board_type", in.BoardType).Msg("created project")
	return s.GetProject(ctx, id)
}

// GetProject fetches a single project by id.
func (s *Store) GetProject(ctx context.Context, id int64) (models.Project, error) {
	return getProject(ctx, s.q(), id)
}

func getProject(ctx context.Context, q querier, id int64) (models.Project, error) {
	p, err := scanProject(q.queryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, errNotFound("project")
	}
	return p, err
}

// GetProjectDetail returns a project with its sprints and its columns,
// ordered by position, each holding its tasks.
func (s *Store) GetProjectDetail(ctx context.Context, id int64) (models.ProjectDetail, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return models.ProjectDetail{}, err
	}
	sprints, err := s.ListSprints(ctx, id)
	if err != nil {
		return models.ProjectDetail{}, err
	}
	columns, err := s.ListColumns(ctx, id)
	if err != nil {
		return models.ProjectDetail{}, err
	}
	tasks, err := s.ListTasks(ctx, id)
	if err != nil {
		return models.ProjectDetail{}, err
	}

	byColumn := make(map[int64][]models.Task, len(columns))
	for _, t := range tasks {
		byColumn[t.ColumnID] = append(byColumn[t.ColumnID], t)
	}

	detail := models.ProjectDetail{Project: p, Sprints: sprints, Columns: make([]models.ColumnDetail, 0, len(columns))}
	for _, c := range columns {
		ct := byColumn[c.ID]
		if ct == nil {
			ct = []models.Task{}
		}
		detail.Columns = append(detail.Columns, models.ColumnDetail{Column: c, Tasks: ct})
	}
	return detail, nil
}

// UpdateProject renames a project or changes its key. The board type is
// fixed once the project exists.
func (s *Store) UpdateProject(ctx context.Context, id int64, upd ProjectUpdate) (models.Project, error) {
	current, err := s.GetProject(ctx, id)
	if err != nil {
		return models.Project{}, err
	}

	name, key := current.Name, current.Key
	if upd.Name != nil {
		name = strings.TrimSpace(*upd.Name)
	}
	if upd.Key != nil {
		key = strings.TrimSpace(*upd.Key)
	}
	if upd.BoardType != nil && *upd.BoardType != current.BoardType {
		return models.Project{}, models.NewValidationError("board_type", "Board type cannot be changed.")
	}
	if err := validateProject(name, key); err != nil {
		return models.Project{}, err
	}

	_, err = s.q().exec(ctx, `UPDATE projects SET name = ?, project_key = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, key, id)
	if err != nil {
		return models.Project{}, fmt.Errorf("update project: %w", err)
	}
	return s.GetProject(ctx, id)
}

// DeleteProject removes a project with its whole board. Time logs of its
// tasks survive with their task cleared.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	return s.withTx(ctx, func(q querier) error {
		if err := s.lockProject(ctx, q, id); err != nil {
			return err
		}
		stmts := []string{
			`UPDATE time_logs SET task_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE task_id IN (SELECT id FROM tasks WHERE project_id = ?)`,
			`DELETE FROM comments WHERE task_id IN (SELECT id FROM tasks WHERE project_id = ?)`,
			`UPDATE tasks SET story_id = NULL WHERE project_id = ?`,
			`DELETE FROM tasks WHERE project_id = ?`,
			`DELETE FROM board_columns WHERE project_id = ?`,
			`DELETE FROM sprints WHERE project_id = ?`,
			`DELETE FROM projects WHERE id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := q.exec(ctx, stmt, id); err != nil {
				return fmt.Errorf("delete project: %w", err)
			}
		}
		s.logger.Info().Int64("project_id", id).Msg("deleted project")
		return nil
	})
}

func validateProject(name, key string) error {
	switch {
	case name == "":
		return models.NewValidationError("name", "This field may not be blank.")
	case key == "":
		return models.NewValidationError("key", "This field may not be blank.")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (models.Project, error) {
	var (
		p         models.Project
		createdBy sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Key, &p.BoardType, &createdBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, err
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("scan project: %w", err)
	}
	p.CreatedBy = nullableInt(createdBy)
	return p, nil
}

func nullableInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
