package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/example/irequest/internal/middleware"
	"github.com/example/irequest/internal/models"
)

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Người dùng không hợp lệ"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) chatConversation(c *gin.Context) {
	other, ok := parseUserID(c)
	if !ok {
		return
	}
	messages, err := s.chats.Conversation(c.Request.Context(), middleware.Actor(c).UserID, other, 100)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (s *Server) sendChatMessage(c *gin.Context) {
	other, ok := parseUserID(c)
	if !ok {
		return
	}
	var payload struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Dữ liệu không hợp lệ", "detail": err.Error()})
		return
	}

	msg := &models.ChatMessage{
		SenderID:    middleware.Actor(c).UserID,
		RecipientID: other,
		Content:     payload.Content,
	}
	if err := s.chats.Create(c.Request.Context(), msg); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
