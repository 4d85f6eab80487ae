package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/irequest/internal/middleware"
	"github.com/example/irequest/internal/models"
)

func (s *Server) listComments(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor := middleware.Actor(c)
	req, err := s.lifecycle.Get(c.Request.Context(), actor, id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	// Internal comments are for the processing side: assignee and admins.
	includeInternal := actor.IsAdmin ||
		(req.AssignedUserID != nil && *req.AssignedUserID == actor.UserID)

	comments, err := s.comments.ListByRequest(c.Request.Context(), id, includeInternal)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (s *Server) addComment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload struct {
		Content    string `json:"content" binding:"required"`
		IsInternal bool   `json:"isInternal"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Dữ liệu không hợp lệ", "detail": err.Error()})
		return
	}

	actor := middleware.Actor(c)
	req, err := s.lifecycle.Get(c.Request.Context(), actor, id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	isInternal := payload.IsInternal &&
		(actor.IsAdmin || (req.AssignedUserID != nil && *req.AssignedUserID == actor.UserID))

	comment := &models.Comment{
		RequestID:  id,
		UserID:     actor.UserID,
		Content:    payload.Content,
		IsInternal: isInternal,
	}
	if err := s.comments.Create(c.Request.Context(), comment); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}
