package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createCommentRequest struct {
	Task    int64  `json:"task" binding:"required"`
	Content string `json:"content"`
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleListComments(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	comments, err := s.store.ListComments(c.Request.Context(), taskID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"comments": comments})
}

func (s *Server) handleCreateComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, err)
		return
	}
	comment, err := s.store.CreateComment(c.Request.Context(), req.Task, currentUser(c).ID, req.Content)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"comment": comment})
}

func (s *Server) handleGetComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	comment, err := s.store.GetComment(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"comment": comment})
}

// handleUpdateComment rewrites a comment of the current user.
func (s *Server) handleUpdateComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, err)
		return
	}
	comment, err := s.store.UpdateComment(c.Request.Context(), id, currentUser(c).ID, req.Content)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"comment": comment})
}

func (s *Server) handleDeleteComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteComment(c.Request.Context(), id, currentUser(c).ID); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusNoContent, nil)
}
