package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Board types. The board type of a project never changes after creation.
const (
	BoardKanban = "kanban"
	BoardScrum  = "scrum"
)

// Task priorities.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Task types.
const (
	TaskBug     = "BUG"
	TaskSubtask = "SUBTASK"
	TaskStory   = "STORY"
)

// User is an account that can own projects, logs and comments.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Project groups a board of columns and, for scrum boards, sprints.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	BoardType string    `json:"board_type"`
	CreatedBy *int64    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectDetail is a project together with its whole board.
type ProjectDetail struct {
	Project
	Sprints []Sprint       `json:"sprints"`
	Columns []ColumnDetail `json:"columns"`
}

// Sprint belongs to a scrum project.
type Sprint struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project"`
	Name      string    `json:"name"`
	IsClosed  bool      `json:"is_closed"`
	CreatedAt time.Time `json:"created_at"`
}

// Column is one slot of a project's board. Positions of a project's
// columns always form the range 1..N.
type Column struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project"`
	Title     string `json:"title"`
	Position  int    `json:"position"`
	Visible   bool   `json:"visible"`
	Removable bool   `json:"removable"`
}

// ColumnDetail is a column with the tasks it holds.
type ColumnDetail struct {
	Column
	Tasks []Task `json:"tasks"`
}

// Task represents a single card in the board.
type Task struct {
	ID          int64           `json:"id"`
	ProjectID   int64           `json:"project"`
	ColumnID    int64           `json:"column"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Priority    string          `json:"priority"`
	TaskType    string          `json:"task_type"`
	CreatedBy   *int64          `json:"created_by"`
	AssignedTo  *int64          `json:"assigned_to"`
	StoryID     *int64          `json:"story"`
	TimeLogged  decimal.Decimal `json:"time_logged"`
	Comments    []Comment       `json:"comments"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TimeLog records minutes a user spent on a task. The task reference is
// cleared when the task is deleted; the log itself stays.
type TimeLog struct {
	ID        int64           `json:"id"`
	TaskID    *int64          `json:"task"`
	UserID    int64           `json:"user"`
	Minutes   decimal.Decimal `json:"time_logged"`
	Date      string          `json:"date"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Comment is a note left by a user on a task.
type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task"`
	OwnerID   int64     `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
