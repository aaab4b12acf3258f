package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tracker/internal/board"
	"tracker/internal/models"
)

const taskColumns = `id, project_id, column_id, title, description, priority, task_type, created_by, assigned_to, story_id, created_at, updated_at`

// NewTask holds the values of a task about to be created.
type NewTask struct {
	ProjectID   int64
	ColumnID    int64
	Title       string
	Description *string
	Priority    string
	TaskType    string
	AssignedTo  *int64
	StoryID     *int64
	CreatedBy   int64
}

// TaskUpdate lists the task fields to change. Nil pointers and unset
// optionals stay as they are.
type TaskUpdate struct {
	ColumnID    *int64
	Title       *string
	Description models.Optional[string]
	Priority    *string
	TaskType    *string
	AssignedTo  models.Optional[int64]
	StoryID     models.Optional[int64]
}

// ListTasks returns the tasks of a project with their logged time and comments.
func (s *Store) ListTasks(ctx context.Context, projectID int64) ([]models.Task, error) {
	q := s.q()
	rows, err := q.query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	logged, err := loggedMinutes(ctx, q, `task_id IN (SELECT id FROM tasks WHERE project_id = ?)`, projectID)
	if err != nil {
		return nil, err
	}
	comments, err := listComments(ctx, q, `task_id IN (SELECT id FROM tasks WHERE project_id = ?)`, projectID)
	if err != nil {
		return nil, err
	}
	byTask := make(map[int64][]models.Comment)
	for _, c := range comments {
		byTask[c.TaskID] = append(byTask[c.TaskID], c)
	}

	for i := range tasks {
		tasks[i].TimeLogged = logged[tasks[i].ID]
		if c := byTask[tasks[i].ID]; c != nil {
			tasks[i].Comments = c
		}
	}
	return tasks, nil
}

// GetTask fetches a task with its logged time and comments.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	q := s.q()
	t, err := getTask(ctx, q, id)
	if err != nil {
		return models.Task{}, err
	}
	logged, err := loggedMinutes(ctx, q, `task_id = ?`, id)
	if err != nil {
		return models.Task{}, err
	}
	t.TimeLogged = logged[id]
	comments, err := listComments(ctx, q, `task_id = ?`, id)
	if err != nil {
		return models.Task{}, err
	}
	t.Comments = comments
	return t, nil
}

// CreateTask validates the task's placement and inserts it.
func (s *Store) CreateTask(ctx context.Context, in NewTask) (models.Task, error) {
	t := models.Task{
		ProjectID:   in.ProjectID,
		ColumnID:    in.ColumnID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Priority:    in.Priority,
		TaskType:    in.TaskType,
		CreatedBy:   &in.CreatedBy,
		AssignedTo:  in.AssignedTo,
		StoryID:     in.StoryID,
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if t.TaskType == "" {
		t.TaskType = models.TaskSubtask
	}
	if err := validateTaskFields(t); err != nil {
		return models.Task{}, err
	}
	if _, err := s.GetProject(ctx, in.ProjectID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Task{}, models.NewValidationError("project", board.MsgDoesNotExist)
		}
		return models.Task{}, err
	}

	unlock := s.locks.Lock(in.ProjectID)
	defer unlock()

	var id int64
	err := s.withTx(ctx, func(q querier) error {
		if err := s.lockProject(ctx, q, in.ProjectID); err != nil {
			return err
		}
		placement, err := s.placement(ctx, q, t, true, false)
		if err != nil {
			return err
		}
		if err := board.ValidateTask(placement); err != nil {
			return err
		}
		if err := s.checkAssignee(ctx, q, t.AssignedTo); err != nil {
			return err
		}

		err = q.queryRow(ctx, `INSERT INTO tasks(project_id, column_id, title, description, priority, task_type, created_by, assigned_to, story_id)
            VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			t.ProjectID, t.ColumnID, t.Title, t.Description, t.Priority, t.TaskType, t.CreatedBy, t.AssignedTo, t.StoryID).Scan(&id)
		if isForeignKeyViolation(err) {
			return models.NewValidationError("column", board.MsgDoesNotExist)
		}
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, id)
}

// UpdateTask applies upd to a task after checking the resulting placement.
func (s *Store) UpdateTask(ctx context.Context, id int64, upd TaskUpdate) (models.Task, error) {
	current, err := getTask(ctx, s.q(), id)
	if err != nil {
		return models.Task{}, err
	}

	unlock := s.locks.Lock(current.ProjectID)
	defer unlock()

	err = s.withTx(ctx, func(q querier) error {
		if err := s.lockProject(ctx, q, current.ProjectID); err != nil {
			return err
		}
		t, err := getTask(ctx, q, id)
		if err != nil {
			return err
		}

		if upd.ColumnID != nil {
			t.ColumnID = *upd.ColumnID
		}
		if upd.Title != nil {
			t.Title = strings.TrimSpace(*upd.Title)
		}
		if upd.Description.Set {
			t.Description = upd.Description.Value
		}
		if upd.Priority != nil {
			t.Priority = *upd.Priority
		}
		if upd.TaskType != nil {
			t.TaskType = *upd.TaskType
		}
		if upd.AssignedTo.Set {
			t.AssignedTo = upd.AssignedTo.Value
		}
		if upd.StoryID.Set {
			t.StoryID = upd.StoryID.Value
		}
		if err := validateTaskFields(t); err != nil {
			return err
		}

		placement, err := s.placement(ctx, q, t, upd.ColumnID != nil, true)
		if err != nil {
			return err
		}
		if err := board.ValidateTask(placement); err != nil {
			return err
		}
		if upd.AssignedTo.Set {
			if err := s.checkAssignee(ctx, q, t.AssignedTo); err != nil {
				return err
			}
		}

		_, err = q.exec(ctx, `UPDATE tasks SET column_id = ?, title = ?, description = ?, priority = ?, task_type = ?,
            assigned_to = ?, story_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			t.ColumnID, t.Title, t.Description, t.Priority, t.TaskType, t.AssignedTo, t.StoryID, id)
		if isForeignKeyViolation(err) {
			return models.NewValidationError("column", board.MsgDoesNotExist)
		}
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task. Its time logs stay with their task cleared and
// its comments go with it. Deleting a story deletes its connected tasks the
// same way.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	current, err := getTask(ctx, s.q(), id)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(current.ProjectID)
	defer unlock()

	return s.withTx(ctx, func(q querier) error {
		if err := s.lockProject(ctx, q, current.ProjectID); err != nil {
			return err
		}
		stmts := []string{
			`UPDATE time_logs SET task_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE task_id = ? OR task_id IN (SELECT id FROM tasks WHERE story_id = ?)`,
			`DELETE FROM comments WHERE task_id = ? OR task_id IN (SELECT id FROM tasks WHERE story_id = ?)`,
		}
		for _, stmt := range stmts {
			if _, err := q.exec(ctx, stmt, id, id); err != nil {
				return fmt.Errorf("detach task: %w", err)
			}
		}
		if _, err := q.exec(ctx, `DELETE FROM tasks WHERE story_id = ?`, id); err != nil {
			return fmt.Errorf("delete connected tasks: %w", err)
		}
		res, err := q.exec(ctx, `DELETE FROM tasks WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return errNotFound("task")
		}
		return nil
	})
}

// placement resolves the column and story references of t for validation.
func (s *Store) placement(ctx context.Context, q querier, t models.Task, columnRequested, existing bool) (board.Placement, error) {
	p := board.Placement{
		ProjectID:       t.ProjectID,
		TaskType:        t.TaskType,
		ColumnRequested: columnRequested,
		StoryRequested:  t.StoryID != nil,
	}
	if existing {
		p.TaskID = t.ID
	}

	if columnRequested {
		c, err := getColumn(ctx, q, t.ColumnID)
		switch {
		case err == nil:
			p.Column = &c
		case !errors.Is(err, models.ErrNotFound):
			return board.Placement{}, err
		}
	}

	if t.StoryID != nil {
		story, err := getTask(ctx, q, *t.StoryID)
		switch {
		case err == nil:
			p.Story = &story
		case !errors.Is(err, models.ErrNotFound):
			return board.Placement{}, err
		}
	}

	if existing {
		var n int
		if err := q.queryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE story_id = ?`, t.ID).Scan(&n); err != nil {
			return board.Placement{}, fmt.Errorf("count connected tasks: %w", err)
		}
		p.HasSubtasks = n > 0
	}
	return p, nil
}

func (s *Store) checkAssignee(ctx context.Context, q querier, userID *int64) error {
	if userID == nil {
		return nil
	}
	ok, err := s.userExists(ctx, q, *userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewValidationError("assigned_to", board.MsgDoesNotExist)
	}
	return nil
}

func validateTaskFields(t models.Task) error {
	if t.Title == "" {
		return models.NewValidationError("title", "This field may not be blank.")
	}
	return nil
}

func getTask(ctx context.Context, q querier, id int64) (models.Task, error) {
	t, err := scanTask(q.queryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, errNotFound("task")
	}
	return t, err
}

// loggedMinutes sums the minutes of the time logs matching where, per task.
func loggedMinutes(ctx context.Context, q querier, where string, args ...any) (map[int64]decimal.Decimal, error) {
	rows, err := q.query(ctx, `SELECT task_id, CAST(minutes AS TEXT) FROM time_logs WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("sum time logs: %w", err)
	}
	defer rows.Close()

	sums := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var (
			taskID  int64
			minutes decimal.Decimal
		)
		if err := rows.Scan(&taskID, &minutes); err != nil {
			return nil, fmt.Errorf("scan time log: %w", err)
		}
		sums[taskID] = sums[taskID].Add(minutes)
	}
	return sums, rows.Err()
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		t                            models.Task
		description                  sql.NullString
		createdBy, assignedTo, story sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.ColumnID, &t.Title, &description, &t.Priority, &t.TaskType,
		&createdBy, &assignedTo, &story, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, err
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("scan task: %w", err)
	}
	if description.Valid {
		t.Description = &description.String
	}
	t.CreatedBy = nullableInt(createdBy)
	t.AssignedTo = nullableInt(assignedTo)
	t.StoryID = nullableInt(story)
	t.Comments = []models.Comment{}
	return t, nil
}
