package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"tracker/internal/board"
	"tracker/internal/models"
)

func TestCreateTimeLogValidation(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.create(t, "T", models.TaskBug, nil)

	_, err := f.s.CreateTimeLog(ctx, NewTimeLog{UserID: f.user.ID, Minutes: decimal.NewFromInt(10), Date: "2024-05-01"})
	assertValidation(t, err, "task", "You have to assign issue first.")

	_, err = f.s.CreateTimeLog(ctx, NewTimeLog{TaskID: &task.ID, UserID: f.user.ID, Minutes: decimal.Zero, Date: "2024-05-01"})
	assertValidation(t, err, "time_logged", "")

	missing := int64(999)
	_, err = f.s.CreateTimeLog(ctx, NewTimeLog{TaskID: &missing, UserID: f.user.ID, Minutes: decimal.NewFromInt(10), Date: "2024-05-01"})
	assertValidation(t, err, "task", board.MsgDoesNotExist)
}

func TestTimeLogOwnerGuard(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	bob := newTestUser(t, f.s, "bob")
	task := f.create(t, "T", models.TaskBug, nil)

	log, err := f.s.CreateTimeLog(ctx, NewTimeLog{TaskID: &task.ID, UserID: f.user.ID, Minutes: decimal.NewFromInt(45), Date: "2024-05-01"})
	if err != nil {
		t.Fatalf("CreateTimeLog: %v", err)
	}

	if _, err := f.s.GetTimeLog(ctx, log.ID, bob.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign read: expected ErrNotFound, got %v", err)
	}
	minutes := decimal.NewFromInt(5)
	if _, err := f.s.UpdateTimeLog(ctx, log.ID, bob.ID, TimeLogUpdate{Minutes: &minutes}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign update: expected ErrNotFound, got %v", err)
	}
	if err := f.s.DeleteTimeLog(ctx, log.ID, bob.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign delete: expected ErrNotFound, got %v", err)
	}

	unchanged, err := f.s.GetTimeLog(ctx, log.ID, f.user.ID)
	if err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if !unchanged.Minutes.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("foreign update changed minutes to %s", unchanged.Minutes)
	}

	date := "2024-06-02"
	updated, err := f.s.UpdateTimeLog(ctx, log.ID, f.user.ID, TimeLogUpdate{Minutes: &minutes, Date: &date})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if !updated.Minutes.Equal(minutes) || updated.Date != date {
		t.Fatalf("unexpected log %+v", updated)
	}
	if err := f.s.DeleteTimeLog(ctx, log.ID, f.user.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestListTimeLogsFilters(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	bob := newTestUser(t, f.s, "bob")
	a := f.create(t, "A", models.TaskBug, nil)
	b := f.create(t, "B", models.TaskBug, nil)

	for _, in := range []NewTimeLog{
		{TaskID: &a.ID, UserID: f.user.ID},
		{TaskID: &a.ID, UserID: bob.ID},
		{TaskID: &b.ID, UserID: bob.ID},
	} {
		in.Minutes, in.Date = decimal.NewFromInt(1), "2024-05-01"
		if _, err := f.s.CreateTimeLog(ctx, in); err != nil {
			t.Fatalf("CreateTimeLog: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter TimeLogFilter
		want   int
	}{
		{"all", TimeLogFilter{}, 3},
		{"task", TimeLogFilter{TaskID: &a.ID}, 2},
		{"user", TimeLogFilter{UserID: &bob.ID}, 2},
		{"both", TimeLogFilter{TaskID: &b.ID, UserID: &f.user.ID}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs, err := f.s.ListTimeLogs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListTimeLogs: %v", err)
			}
			if len(logs) != tt.want {
				t.Fatalf("got %d logs, want %d", len(logs), tt.want)
			}
		})
	}
}

func TestCommentOwnerGuard(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	bob := newTestUser(t, f.s, "bob")
	task := f.create(t, "T", models.TaskBug, nil)

	_, err := f.s.CreateComment(ctx, task.ID, f.user.ID, "   ")
	assertValidation(t, err, "content", "")
	_, err = f.s.CreateComment(ctx, 999, f.user.ID, "hi")
	assertValidation(t, err, "task", board.MsgDoesNotExist)

	c, err := f.s.CreateComment(ctx, task.ID, f.user.ID, "hello")
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if _, err := f.s.GetComment(ctx, c.ID, bob.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign read: expected ErrNotFound, got %v", err)
	}
	if _, err := f.s.UpdateComment(ctx, c.ID, bob.ID, "hijack"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign update: expected ErrNotFound, got %v", err)
	}
	if err := f.s.DeleteComment(ctx, c.ID, bob.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign delete: expected ErrNotFound, got %v", err)
	}

	updated, err := f.s.UpdateComment(ctx, c.ID, f.user.ID, "edited")
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Content != "edited" {
		t.Fatalf("content = %q", updated.Content)
	}

	list, err := f.s.ListComments(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d comments", len(list))
	}
	if err := f.s.DeleteComment(ctx, c.ID, f.user.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}
