package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tracker/internal/storage"
)

type createColumnRequest struct {
	Project  int64  `json:"project" binding:"required"`
	Title    string `json:"title" binding:"max=100"`
	Position *int   `json:"position" binding:"required"`
	Visible  *bool  `json:"visible"`
}

type updateColumnRequest struct {
	Title    *string `json:"title" binding:"omitempty,max=100"`
	Position *int    `json:"position"`
	Visible  *bool   `json:"visible"`
}

// handleCreateColumn inserts a column and shifts the ones after it.
func (s *Server) handleCreateColumn(c *gin.Context) {
	var req createColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, err)
		return
	}
	visible := true
	if req.Visible != nil {
		visible = *req.Visible
	}

	column, err := s.store.CreateColumn(c.Request.Context(), storage.NewColumn{
		ProjectID: req.Project,
		Title:     req.Title,
		Position:  *req.Position,
		Visible:   visible,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"column": column})
}

func (s *Server) handleGetColumn(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	column, err := s.store.GetColumn(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"column": column})
}

// handleUpdateColumn renames, hides or moves a column.
func (s *Server) handleUpdateColumn(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, err)
		return
	}

	column, err := s.store.UpdateColumn(c.Request.Context(), id, storage.ColumnUpdate{
		Title:    req.Title,
		Position: req.Position,
		Visible:  req.Visible,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"column": column})
}

// handleDeleteColumn removes an empty, removable column.
func (s *Server) handleDeleteColumn(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteColumn(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusNoContent, nil)
}
