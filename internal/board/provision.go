package board

import (
	"fmt"

	"tracker/internal/models"
)

// Titles of the columns every new board starts with.
const (
	ColumnBacklog        = "Backlog"
	ColumnSelectedForDev = "Selected for Development"
	ColumnToDo           = "To Do"
	ColumnInProgress     = "In Progress"
	ColumnDone           = "Done"
)

const (
	SprintNameField = "sprint_name"

	MsgSprintNameRequired = "Sprint name is required for scrum board."
	MsgKanbanNoSprints    = "Kanban board do not contain sprints"
)

// InitialColumns returns the four fixed columns of a new board, in
// position order. None of them can be removed and only Backlog is hidden.
func InitialColumns(projectID int64, boardType string) []models.Column {
	second := ColumnSelectedForDev
	if boardType == models.BoardScrum {
		second = ColumnToDo
	}
	titles := []string{ColumnBacklog, second, ColumnInProgress, ColumnDone}

	columns := make([]models.Column, len(titles))
	for i, title := range titles {
		columns[i] = models.Column{
			ProjectID: projectID,
			Title:     title,
			Position:  i + 1,
			Visible:   title != ColumnBacklog,
			Removable: false,
		}
	}
	return columns
}

// ValidateSprintName checks the sprint name against the board type when a
// project is created. Board types without a column layout are refused.
func ValidateSprintName(boardType string, sprintName *string) error {
	present := sprintName != nil && *sprintName != ""
	switch boardType {
	case models.BoardScrum:
		if !present {
			return models.NewValidationError(SprintNameField, MsgSprintNameRequired)
		}
	case models.BoardKanban:
		if present {
			return models.NewValidationError(SprintNameField, MsgKanbanNoSprints)
		}
	default:
		return models.NewValidationError("board_type", fmt.Sprintf("%q is not a valid choice.", boardType))
	}
	return nil
}
