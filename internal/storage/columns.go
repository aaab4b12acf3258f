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

const columnColumns = `id, project_id, title, position, visible, removable`

// NewColumn holds the values of a column about to be inserted.
type NewColumn struct {
	ProjectID int64
	Title     string
	Position  int
	Visible   bool
}

// ColumnUpdate lists the column fields to change; nil fields stay.
type ColumnUpdate struct {
	Title    *string
	Position *int
	Visible  *bool
}

// ListColumns returns a project's columns ordered by position.
func (s *Store) ListColumns(ctx context.Context, projectID int64) ([]models.Column, error) {
	return listColumns(ctx, s.q(), projectID)
}

func listColumns(ctx context.Context, q querier, projectID int64) ([]models.Column, error) {
	rows, err := q.query(ctx, `SELECT `+columnColumns+` FROM board_columns WHERE project_id = ? ORDER BY position`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	columns := []models.Column{}
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// GetColumn fetches a column by id.
func (s *Store) GetColumn(ctx context.Context, id int64) (models.Column, error) {
	return getColumn(ctx, s.q(), id)
}

func getColumn(ctx context.Context, q querier, id int64) (models.Column, error) {
	c, err := scanColumn(q.queryRow(ctx, `SELECT `+columnColumns+` FROM board_columns WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Column{}, errNotFound("column")
	}
	return c, err
}

// CreateColumn inserts a removable column at the requested position and
// moves every column at or after it one slot later.
func (s *Store) CreateColumn(ctx context.Context, in NewColumn) (models.Column, error) {
	title := strings.TrimSpace(in.Title)
	if err := validateColumnTitle(title); err != nil {
		return models.Column{}, err
	}
	if in.Position < 1 {
		return models.Column{}, models.NewValidationError(board.PositionField, board.MsgPositionTooSmall)
	}
	if _, err := s.GetProject(ctx, in.ProjectID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Column{}, models.NewValidationError("project", board.MsgDoesNotExist)
		}
		return models.Column{}, err
	}

	unlock := s.locks.Lock(in.ProjectID)
	defer unlock()

	var id int64
	err := s.withTx(ctx, func(q querier) error {
		if err := s.lockProject(ctx, q, in.ProjectID); err != nil {
			return err
		}
		var err error
		id, err = s.insertColumn(ctx, q, models.Column{
			ProjectID: in.ProjectID,
			Title:     title,
			Position:  in.Position,
			Visible:   in.Visible,
			Removable: true,
		})
		return err
	})
	if err != nil {
		return models.Column{}, err
	}
	return s.GetColumn(ctx, id)
}

// UpdateColumn changes a column's title or visibility and moves it to a
// new position, shifting the columns in between by one.
func (s *Store) UpdateColumn(ctx context.Context, id int64, upd ColumnUpdate) (models.Column, error) {
	current, err := s.GetColumn(ctx, id)
	if err != nil {
		return models.Column{}, err
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if err := validateColumnTitle(title); err != nil {
			return models.Column{}, err
		}
		upd.Title = &title
	}

	unlock := s.locks.Lock(current.ProjectID)
	defer unlock()

	err = s.withTx(ctx, func(q querier) error {
		if err := s.lockProject(ctx, q, current.ProjectID); err != nil {
			return err
		}
		// re-read under the lock, the column may have moved meanwhile
		col, err := getColumn(ctx, q, id)
		if err != nil {
			return err
		}

		if upd.Position != nil {
			if err := s.moveColumn(ctx, q, col, *upd.Position); err != nil {
				return err
			}
		}
		if upd.Title != nil {
			col.Title = *upd.Title
		}
		if upd.Visible != nil {
			col.Visible = *upd.Visible
		}
		_, err = q.exec(ctx, `UPDATE board_columns SET title = ?, visible = ? WHERE id = ?`, col.Title, col.Visible, id)
		if err != nil {
			return fmt.Errorf("update column: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Column{}, err
	}
	return s.GetColumn(ctx, id)
}

// DeleteColumn removes an empty, removable column and closes the gap it
// leaves. Fixed columns are reported as not found; columns that still hold
// tasks are refused with models.ErrColumnOccupied.
func (s *Store) DeleteColumn(ctx context.Context, id int64) error {
	current, err := s.GetColumn(ctx, id)
	if err != nil {
		return err
	}
	if !current.Removable {
		return errNotFound("column")
	}

	unlock := s.locks.Lock(current.ProjectID)
	defer unlock()

	return s.withTx(ctx, func(q querier) error {
		if err := s.lockProject(ctx, q, current.ProjectID); err != nil {
			return err
		}
		col, err := getColumn(ctx, q, id)
		if err != nil {
			return err
		}

		var tasks int
		if err := q.queryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE column_id = ?`, id).Scan(&tasks); err != nil {
			return fmt.Errorf("count column tasks: %w", err)
		}
		if tasks > 0 {
			return fmt.Errorf("column %d holds %d tasks: %w", id, tasks, models.ErrColumnOccupied)
		}

		count, err := countColumns(ctx, q, col.ProjectID)
		if err != nil {
			return err
		}
		if _, err := q.exec(ctx, `DELETE FROM board_columns WHERE id = ?`, id); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("column %d: %w", id, models.ErrColumnOccupied)
			}
			return fmt.Errorf("delete column: %w", err)
		}
		shift := board.PlanDelete(col.Position, count)
		if err := s.applyShift(ctx, q, col.ProjectID, shift); err != nil {
			return err
		}
		s.logger.Debug().Int64("project_id", col.ProjectID).Int("position", col.Position).
			Stringer("shift", shift).Msg("deleted column")
		return nil
	})
}

// insertColumn opens the slot for c and inserts it. The caller holds the
// project's lock and runs q inside a transaction.
func (s *Store) insertColumn(ctx context.Context, q querier, c models.Column) (int64, error) {
	count, err := countColumns(ctx, q, c.ProjectID)
	if err != nil {
		return 0, err
	}
	shift, err := board.PlanInsert(c.Position, count)
	if err != nil {
		return 0, err
	}
	if err := s.applyShift(ctx, q, c.ProjectID, shift); err != nil {
		return 0, err
	}

	var id int64
	err = q.queryRow(ctx, `INSERT INTO board_columns(project_id, title, position, visible, removable) VALUES(?, ?, ?, ?, ?) RETURNING id`,
		c.ProjectID, c.Title, c.Position, c.Visible, c.Removable).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert column: %w", err)
	}
	s.logger.Debug().Int64("project_id", c.ProjectID).Int("position", c.Position).
		Stringer("shift", shift).Msg("inserted column")
	return id, nil
}

// moveColumn parks col at 0, shifts the columns between its old and new
// position and places it at newPos.
func (s *Store) moveColumn(ctx context.Context, q querier, col models.Column, newPos int) error {
	count, err := countColumns(ctx, q, col.ProjectID)
	if err != nil {
		return err
	}
	shift, ok, err := board.PlanMove(col.Position, newPos, count)
	if err != nil || !ok {
		return err
	}

	if _, err := q.exec(ctx, `UPDATE board_columns SET position = 0 WHERE id = ?`, col.ID); err != nil {
		return fmt.Errorf("park column: %w", err)
	}
	if err := s.applyShift(ctx, q, col.ProjectID, shift); err != nil {
		return err
	}
	if _, err := q.exec(ctx, `UPDATE board_columns SET position = ? WHERE id = ?`, newPos, col.ID); err != nil {
		return fmt.Errorf("place column: %w", err)
	}
	s.logger.Debug().Int64("project_id", col.ProjectID).Int("from", col.Position).Int("to", newPos).
		Stringer("shift", shift).Msg("moved column")
	return nil
}

// applyShift renumbers in two steps so UNIQUE(project_id, position) holds
// after every statement: the shifted rows first get negative positions,
// then they are flipped back.
func (s *Store) applyShift(ctx context.Context, q querier, projectID int64, shift board.Shift) error {
	if shift.Empty() {
		return nil
	}
	_, err := q.exec(ctx, `UPDATE board_columns SET position = -(position + ?)
        WHERE project_id = ? AND position >= ? AND position <= ?`,
		shift.Delta, projectID, shift.From, shift.To)
	if err != nil {
		return fmt.Errorf("shift columns: %w", err)
	}
	_, err = q.exec(ctx, `UPDATE board_columns SET position = -position WHERE project_id = ? AND position < 0`, projectID)
	if err != nil {
		return fmt.Errorf("restore column positions: %w", err)
	}
	return nil
}

func countColumns(ctx context.Context, q querier, projectID int64) (int, error) {
	var n int
	if err := q.queryRow(ctx, `SELECT COUNT(*) FROM board_columns WHERE project_id = ?`, projectID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count columns: %w", err)
	}
	return n, nil
}

func validateColumnTitle(title string) error {
	if title == "" {
		return models.NewValidationError("title", "This field may not be blank.")
	}
	return nil
}

func scanColumn(row rowScanner) (models.Column, error) {
	var c models.Column
	err := row.Scan(&c.ID, &c.ProjectID, &c.Title, &c.Position, &c.Visible, &c.Removable)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Column{}, err
	}
	if err != nil {
		return models.Column{}, fmt.Errorf("scan column: %w", err)
	}
	return c, nil
}
