package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"tracker/internal/board"
	"tracker/internal/models"
)

func TestCreateProjectProvisionsBoard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "alice")

	kanban := newTestProject(t, s, u, models.BoardKanban)
	cols := assertDense(t, s, kanban.ID)
	want := []string{board.ColumnBacklog, board.ColumnSelectedForDev, board.ColumnInProgress, board.ColumnDone}
	if got := columnTitles(t, s, kanban.ID); !equalStrings(got, want) {
		t.Fatalf("kanban columns %v, want %v", got, want)
	}
	for _, c := range cols {
		if c.Removable {
			t.Errorf("initial column %q must not be removable", c.Title)
		}
		if c.Visible == (c.Title == board.ColumnBacklog) {
			t.Errorf("column %q has visible=%v", c.Title, c.Visible)
		}
	}
	sprints, err := s.ListSprints(ctx, kanban.ID)
	if err != nil {
		t.Fatalf("ListSprints: %v", err)
	}
	if len(sprints) != 0 {
		t.Errorf("kanban project has %d sprints", len(sprints))
	}

	scrum := newTestProject(t, s, u, models.BoardScrum)
	want = []string{board.ColumnBacklog, board.ColumnToDo, board.ColumnInProgress, board.ColumnDone}
	if got := columnTitles(t, s, scrum.ID); !equalStrings(got, want) {
		t.Fatalf("scrum columns %v, want %v", got, want)
	}
	sprints, err = s.ListSprints(ctx, scrum.ID)
	if err != nil {
		t.Fatalf("ListSprints: %v", err)
	}
	if len(sprints) != 1 || sprints[0].Name != "Sprint 1" || sprints[0].IsClosed {
		t.Errorf("unexpected scrum sprints %+v", sprints)
	}
}

func TestCreateProjectSprintNameRules(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "alice")

	_, err := s.CreateProject(ctx, NewProject{Name: "A", Key: "A", BoardType: models.BoardScrum, CreatedBy: u.ID})
	assertValidation(t, err, board.SprintNameField, board.MsgSprintNameRequired)

	name := "Sprint 1"
	_, err = s.CreateProject(ctx, NewProject{Name: "A", Key: "A", BoardType: models.BoardKanban, SprintName: &name, CreatedBy: u.ID})
	assertValidation(t, err, board.SprintNameField, board.MsgKanbanNoSprints)

	_, err = s.CreateProject(ctx, NewProject{Name: "A", Key: "A", BoardType: "waterfall", CreatedBy: u.ID})
	assertValidation(t, err, "board_type", "")

	projects, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 0 {
		t.Fatalf("rejected projects were stored: %+v", projects)
	}
}

func TestCreateProjectRollsBackFailedProvisioning(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "alice")

	_, err := s.db.Exec(`CREATE TRIGGER fail_third_column BEFORE INSERT ON board_columns
        WHEN NEW.position = 3 BEGIN SELECT RAISE(ABORT, 'third column refused'); END`)
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}
	_, err = s.CreateProject(ctx, NewProject{Name: "A", Key: "A", BoardType: models.BoardKanban, CreatedBy: u.ID})
	if err == nil || !strings.Contains(err.Error(), "third column refused") {
		t.Fatalf("expected provisioning error, got %v", err)
	}

	projects, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 0 {
		t.Fatalf("project survived failed provisioning: %+v", projects)
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM board_columns`).Scan(&n); err != nil {
		t.Fatalf("count columns: %v", err)
	}
	if n != 0 {
		t.Fatalf("%d columns survived failed provisioning", n)
	}
}

func TestCreateColumnShiftsLaterColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := newTestProject(t, s, newTestUser(t, s, "alice"), models.BoardKanban)
	before := assertDense(t, s, p.ID)

	c, err := s.CreateColumn(ctx, NewColumn{ProjectID: p.ID, Title: "Review", Position: 3, Visible: true})
	if err != nil {
		t.Fatalf("CreateColumn: %v", err)
	}
	if c.Position != 3 || !c.Removable || !c.Visible {
		t.Fatalf("unexpected column %+v", c)
	}

	after := assertDense(t, s, p.ID)
	if len(after) != 5 {
		t.Fatalf("expected 5 columns, got %d", len(after))
	}
	byID := make(map[int64]int)
	for _, col := range after {
		byID[col.ID] = col.Position
	}
	for _, old := range before {
		want := old.Position
		if old.Position >= 3 {
			want++
		}
		if byID[old.ID] != want {
			t.Errorf("column %q at %d, want %d", old.Title, byID[old.ID], want)
		}
	}
}

func TestCreateColumnBounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := newTestProject(t, s, newTestUser(t, s, "alice"), models.BoardKanban)

	_, err := s.CreateColumn(ctx, NewColumn{ProjectID: p.ID, Title: "Too far", Position: 6})
	assertValidation(t, err, board.PositionField, board.MsgPositionTooBig)
	_, err = s.CreateColumn(ctx, NewColumn{ProjectID: p.ID, Title: "Zero", Position: 0})
	assertValidation(t, err, board.PositionField, board.MsgPositionTooSmall)
	_, err = s.CreateColumn(ctx, NewColumn{ProjectID: p.ID, Title: "", Position: 1})
	assertValidation(t, err, "title", "")
	_, err = s.CreateColumn(ctx, NewColumn{ProjectID: 999, Title: "Nowhere", Position: 1})
	assertValidation(t, err, "project", board.MsgDoesNotExist)

	if got := len(assertDense(t, s, p.ID)); got != 4 {
		t.Fatalf("rejected inserts changed the board: %d columns", got)
	}

	c, err := s.CreateColumn(ctx, NewColumn{ProjectID: p.ID, Title: "Archive", Position: 5})
	if err != nil {
		t.Fatalf("append at N+1: %v", err)
	}
	if c.Position != 5 {
		t.Fatalf("appended column at %d", c.Position)
	}
	assertDense(t, s, p.ID)
}

func TestUpdateColumnMoves(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := newTestProject(t, s, newTestUser(t, s, "alice"), models.BoardKanban)
	review, err := s.CreateColumn(ctx, NewColumn{ProjectID: p.ID, Title: "Review", Position: 1, Visible: true})
	if err != nil {
		t.Fatalf("CreateColumn: %v", err)
	}

	tests := []struct {
		to   int
		want []string
	}{
		{4, []string{board.ColumnBacklog, board.ColumnSelectedForDev, board.ColumnInProgress, "Review", board.ColumnDone}},
		{2, []string{board.ColumnBacklog, "Review", board.ColumnSelectedForDev, board.ColumnInProgress, board.ColumnDone}},
		{2, []string{board.ColumnBacklog, "Review", board.ColumnSelectedForDev, board.ColumnInProgress, board.ColumnDone}},
		{5, []string{board.ColumnBacklog, board.ColumnSelectedForDev, board.ColumnInProgress, board.ColumnDone, "Review"}},
	}
	for _, tt := range tests {
		pos := tt.to
		if _, err := s.UpdateColumn(ctx, review.ID, ColumnUpdate{Position: &pos}); err != nil {
			t.Fatalf("move to %d: %v", tt.to, err)
		}
		if got := columnTitles(t, s, p.ID); !equalStrings(got, tt.want) {
			t.Fatalf("after move to %d got %v, want %v", tt.to, got, tt.want)
		}
	}

	tooBig := 6
	_, err = s.UpdateColumn(ctx, review.ID, ColumnUpdate{Position: &tooBig})
	assertValidation(t, err, board.PositionField, board.MsgPositionTooBig)

	title, hidden := "QA", false
	c, err := s.UpdateColumn(ctx, review.ID, ColumnUpdate{Title: &title, Visible: &hidden})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if c.Title != "QA" || c.Visible || c.Position != 5 {
		t.Fatalf("unexpected column %+v", c)
	}
}

func TestDeleteColumn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "alice")
	p := newTestProject(t, s, u, models.BoardKanban)
	fixed := assertDense(t, s, p.ID)

	if err := s.DeleteColumn(ctx, fixed[0].ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("deleting a fixed column: expected ErrNotFound, got %v", err)
	}

	busy, err := s.CreateColumn(ctx, NewColumn{ProjectID: p.ID, Title: "Busy", Position: 2})
	if err != nil {
		t.Fatalf("CreateColumn: %v", err)
	}
	if _, err := s.CreateTask(ctx, NewTask{ProjectID: p.ID, ColumnID: busy.ID, Title: "Work", CreatedBy: u.ID}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := s.DeleteColumn(ctx, busy.ID); !errors.Is(err, models.ErrColumnOccupied) {
		t.Fatalf("deleting an occupied column: expected ErrColumnOccupied, got %v", err)
	}

	empty, err := s.CreateColumn(ctx, NewColumn{ProjectID: p.ID, Title: "Empty", Position: 2})
	if err != nil {
		t.Fatalf("CreateColumn: %v", err)
	}
	if err := s.DeleteColumn(ctx, empty.ID); err != nil {
		t.Fatalf("DeleteColumn: %v", err)
	}
	want := []string{board.ColumnBacklog, "Busy", board.ColumnSelectedForDev, board.ColumnInProgress, board.ColumnDone}
	if got := columnTitles(t, s, p.ID); !equalStrings(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if err := s.DeleteColumn(ctx, empty.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("deleting twice: expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentColumnChangesStayDense(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := newTestProject(t, s, newTestUser(t, s, "alice"), models.BoardKanban)

	const workers = 18
	own := make([]models.Column, workers)
	for i := range own {
		col, err := s.CreateColumn(ctx, NewColumn{ProjectID: p.ID, Title: fmt.Sprintf("Own%d", i), Position: 5 + i})
		if err != nil {
			t.Fatalf("CreateColumn: %v", err)
		}
		own[i] = col
	}

	var (
		wg      sync.WaitGroup
		created int
		deleted int
	)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		switch i % 3 {
		case 0:
			created++
		case 2:
			deleted++
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			switch i % 3 {
			case 0:
				_, err = s.CreateColumn(ctx, NewColumn{ProjectID: p.ID, Title: fmt.Sprintf("New%d", i), Position: 1 + i%4})
			case 1:
				pos := 1 + i%4
				_, err = s.UpdateColumn(ctx, own[i].ID, ColumnUpdate{Position: &pos})
			case 2:
				err = s.DeleteColumn(ctx, own[i].ID)
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent column change: %v", err)
		}
	}

	cols := assertDense(t, s, p.ID)
	if want := 4 + workers + created - deleted; len(cols) != want {
		t.Fatalf("expected %d columns, got %d", want, len(cols))
	}
	for i := 2; i < workers; i += 3 {
		if _, err := s.GetColumn(ctx, own[i].ID); !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("deleted column %d still readable: %v", own[i].ID, err)
		}
	}
}
