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

const timeLogColumns = `id, task_id, user_id, CAST(minutes AS TEXT), CAST(date AS TEXT), created_at, updated_at`

// NewTimeLog holds a normalized time log about to be created.
type NewTimeLog struct {
	TaskID  *int64
	UserID  int64
	Minutes decimal.Decimal
	Date    string
}

// TimeLogUpdate lists the time log fields to change; nil fields stay.
type TimeLogUpdate struct {
	TaskID  *int64
	Minutes *decimal.Decimal
	Date    *string
}

// TimeLogFilter narrows ListTimeLogs; nil fields match everything.
type TimeLogFilter struct {
	TaskID *int64
	UserID *int64
}

// ListTimeLogs returns time logs matching f, oldest first.
func (s *Store) ListTimeLogs(ctx context.Context, f TimeLogFilter) ([]models.TimeLog, error) {
	var (
		where []string
		args  []any
	)
	if f.TaskID != nil {
		where = append(where, "task_id = ?")
		args = append(args, *f.TaskID)
	}
	if f.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *f.UserID)
	}
	query := `SELECT ` + timeLogColumns + ` FROM time_logs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := s.q().query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list time logs: %w", err)
	}
	defer rows.Close()

	logs := []models.TimeLog{}
	for rows.Next() {
		l, err := scanTimeLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// CreateTimeLog stores a log for an existing task.
func (s *Store) CreateTimeLog(ctx context.Context, in NewTimeLog) (models.TimeLog, error) {
	if in.TaskID == nil {
		return models.TimeLog{}, models.NewValidationError("task", "You have to assign issue first.")
	}
	if !in.Minutes.IsPositive() {
		return models.TimeLog{}, models.NewValidationError("time_logged", "You have to log more than 0 minutes")
	}
	if err := s.checkLogTask(ctx, *in.TaskID); err != nil {
		return models.TimeLog{}, err
	}

	var id int64
	err := s.q().queryRow(ctx, `INSERT INTO time_logs(task_id, user_id, minutes, date) VALUES(?, ?, ?, ?) RETURNING id`,
		in.TaskID, in.UserID, in.Minutes, in.Date).Scan(&id)
	if err != nil {
		return models.TimeLog{}, fmt.Errorf("insert time log: %w", err)
	}
	s.logger.Debug().Int64("time_log_id", id).Int64("task_id", *in.TaskID).
		Str("minutes", in.Minutes.String()).Msg("logged time")
	return s.getTimeLog(ctx, id)
}

// GetTimeLog fetches a log owned by requesterID.
func (s *Store) GetTimeLog(ctx context.Context, id, requesterID int64) (models.TimeLog, error) {
	l, err := s.getTimeLog(ctx, id)
	if err != nil {
		return models.TimeLog{}, err
	}
	if err := ownedBy(l.UserID, requesterID, "time log"); err != nil {
		return models.TimeLog{}, err
	}
	return l, nil
}

// UpdateTimeLog changes a log owned by requesterID.
func (s *Store) UpdateTimeLog(ctx context.Context, id, requesterID int64, upd TimeLogUpdate) (models.TimeLog, error) {
	l, err := s.GetTimeLog(ctx, id, requesterID)
	if err != nil {
		return models.TimeLog{}, err
	}

	if upd.TaskID != nil {
		if err := s.checkLogTask(ctx, *upd.TaskID); err != nil {
			return models.TimeLog{}, err
		}
		l.TaskID = upd.TaskID
	}
	if upd.Minutes != nil {
		if !upd.Minutes.IsPositive() {
			return models.TimeLog{}, models.NewValidationError("time_logged", "You have to log more than 0 minutes")
		}
		l.Minutes = *upd.Minutes
	}
	if upd.Date != nil {
		l.Date = *upd.Date
	}

	_, err = s.q().exec(ctx, `UPDATE time_logs SET task_id = ?, minutes = ?, date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		l.TaskID, l.Minutes, l.Date, id)
	if err != nil {
		return models.TimeLog{}, fmt.Errorf("update time log: %w", err)
	}
	return s.getTimeLog(ctx, id)
}

// DeleteTimeLog removes a log owned by requesterID.
func (s *Store) DeleteTimeLog(ctx context.Context, id, requesterID int64) error {
	if _, err := s.GetTimeLog(ctx, id, requesterID); err != nil {
		return err
	}
	if _, err := s.q().exec(ctx, `DELETE FROM time_logs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete time log: %w", err)
	}
	return nil
}

func (s *Store) checkLogTask(ctx context.Context, taskID int64) error {
	if _, err := getTask(ctx, s.q(), taskID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewValidationError("task", board.MsgDoesNotExist)
		}
		return err
	}
	return nil
}

func (s *Store) getTimeLog(ctx context.Context, id int64) (models.TimeLog, error) {
	l, err := scanTimeLog(s.q().queryRow(ctx, `SELECT `+timeLogColumns+` FROM time_logs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.TimeLog{}, errNotFound("time log")
	}
	return l, err
}

func scanTimeLog(row rowScanner) (models.TimeLog, error) {
	var (
		l      models.TimeLog
		taskID sql.NullInt64
	)
	err := row.Scan(&l.ID, &taskID, &l.UserID, &l.Minutes, &l.Date, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TimeLog{}, err
	}
	if err != nil {
		return models.TimeLog{}, fmt.Errorf("scan time log: %w", err)
	}
	l.TaskID = nullableInt(taskID)
	return l, nil
}
