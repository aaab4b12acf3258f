package board

import "tracker/internal/models"

const (
	MsgDoesNotExist     = "Invalid pk - object does not exist."
	MsgStoryOfStory     = "Story cannot contain another story."
	MsgOnlyStory        = "Only story may contain subtasks."
	MsgOwnStory         = "Task cannot be its own story."
	MsgStoryHasSubtasks = "Story with connected tasks has to stay a story."
)

// Placement describes where a task is about to be saved. References that
// were requested but could not be resolved are left nil.
type Placement struct {
	TaskID    int64 // 0 for a new task
	ProjectID int64
	TaskType  string

	ColumnRequested bool
	Column          *models.Column

	StoryRequested bool
	Story          *models.Task

	// HasSubtasks is set when other tasks reference this one as their story.
	HasSubtasks bool
}

// ValidateTask checks the column and story rules of a task in one pass.
func ValidateTask(p Placement) error {
	if p.ColumnRequested {
		if p.Column == nil || p.Column.ProjectID != p.ProjectID {
			return models.NewValidationError("column", MsgDoesNotExist)
		}
	}

	if p.HasSubtasks && p.TaskType != models.TaskStory {
		return models.NewValidationError("task_type", MsgStoryHasSubtasks)
	}

	if !p.StoryRequested {
		return nil
	}
	story := p.Story
	if story == nil || story.ProjectID != p.ProjectID {
		return models.NewValidationError("story", MsgDoesNotExist)
	}
	if p.TaskID != 0 && story.ID == p.TaskID {
		return models.NewValidationError("story", MsgOwnStory)
	}
	if story.TaskType != models.TaskStory {
		return models.NewValidationError("task_type", MsgOnlyStory)
	}
	if p.TaskType == models.TaskStory {
		return models.NewValidationError("story", MsgStoryOfStory)
	}
	return nil
}
