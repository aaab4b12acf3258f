package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tracker/internal/storage"
)

type createProjectRequest struct {
	Name       string  `json:"name" binding:"max=255"`
	Key        string  `json:"key" binding:"max=30"`
	BoardType  string  `json:"board_type" binding:"omitempty,oneof=kanban scrum"`
	SprintName *string `json:"sprint_name" binding:"omitempty,max=200"`
}

type updateProjectRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=255"`
	Key       *string `json:"key" binding:"omitempty,max=30"`
	BoardType *string `json:"board_type" binding:"omitempty,oneof=kanban scrum"`
}

// handleListProjects returns all available projects.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"projects": projects})
}

// handleCreateProject creates a project together with its board.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, err)
		return
	}

	project, err := s.store.CreateProject(c.Request.Context(), storage.NewProject{
		Name:       req.Name,
		Key:        req.Key,
		BoardType:  req.BoardType,
		SprintName: req.SprintName,
		CreatedBy:  currentUser(c).ID,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"project": project})
}

// handleGetProject returns a project with its sprints and board.
func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := s.store.GetProjectDetail(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": detail})
}

// handleUpdateProject renames a project or changes its key.
func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, err)
		return
	}

	project, err := s.store.UpdateProject(c.Request.Context(), id, storage.ProjectUpdate{
		Name:      req.Name,
		Key:       req.Key,
		BoardType: req.BoardType,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleDeleteProject removes a project and its whole board.
func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteProject(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusNoContent, nil)
}

func (s *Server) handleListSprints(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := s.store.GetProject(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	sprints, err := s.store.ListSprints(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"sprints": sprints})
}

type sprintRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=200"`
	IsClosed *bool   `json:"is_closed"`
}

// handleCreateSprint opens a sprint on a scrum project.
func (s *Server) handleCreateSprint(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req sprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, err)
		return
	}
	var name string
	if req.Name != nil {
		name = *req.Name
	}

	sprint, err := s.store.CreateSprint(c.Request.Context(), id, name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"sprint": sprint})
}

func (s *Server) handleUpdateSprint(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req sprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, err)
		return
	}

	sprint, err := s.store.UpdateSprint(c.Request.Context(), id, storage.SprintUpdate{
		Name:     req.Name,
		IsClosed: req.IsClosed,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"sprint": sprint})
}
