package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tracker/internal/models"
	"tracker/internal/storage"
)

type createTaskRequest struct {
	Project     int64   `json:"project" binding:"required"`
	Column      int64   `json:"column" binding:"required"`
	Title       string  `json:"title" binding:"max=255"`
	Description *string `json:"description"`
	Priority    string  `json:"priority" binding:"omitempty,oneof=Low Medium High"`
	TaskType    string  `json:"task_type" binding:"omitempty,oneof=BUG SUBTASK STORY"`
	AssignedTo  *int64  `json:"assigned_to"`
	Story       *int64  `json:"story"`
}

// updateTaskRequest tells a missing description, assignee or story apart
// from an explicit null, which clears it.
type updateTaskRequest struct {
	Column      *int64                  `json:"column"`
	Title       *string                 `json:"title" binding:"omitempty,max=255"`
	Description models.Optional[string] `json:"description"`
	Priority    *string                 `json:"priority" binding:"omitempty,oneof=Low Medium High"`
	TaskType    *string                 `json:"task_type" binding:"omitempty,oneof=BUG SUBTASK STORY"`
	AssignedTo  models.Optional[int64]  `json:"assigned_to"`
	Story       models.Optional[int64]  `json:"story"`
}

// handleListTasks fetches tasks for a project.
func (s *Server) handleListTasks(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := s.store.GetProject(c.Request.Context(), projectID); err != nil {
		s.respondError(c, err)
		return
	}

	tasks, err := s.store.ListTasks(c.Request.Context(), projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks})
}

// handleCreateTask inserts a new task into a project column.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, err)
		return
	}

	task, err := s.store.CreateTask(c.Request.Context(), storage.NewTask{
		ProjectID:   req.Project,
		ColumnID:    req.Column,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		TaskType:    req.TaskType,
		AssignedTo:  req.AssignedTo,
		StoryID:     req.Story,
		CreatedBy:   currentUser(c).ID,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	task, err := s.store.GetTask(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleUpdateTask updates task fields such as column, type or story.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, err)
		return
	}

	task, err := s.store.UpdateTask(c.Request.Context(), id, storage.TaskUpdate{
		ColumnID:    req.Column,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		TaskType:    req.TaskType,
		AssignedTo:  req.AssignedTo,
		StoryID:     req.Story,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task; its time logs stay behind.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteTask(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusNoContent, nil)
}
