package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/irequest/internal/db"
	"github.com/example/irequest/internal/middleware"
)

func (s *Server) listNotifications(c *gin.Context) {
	notifications, err := s.notifications.ListByUser(c.Request.Context(), middleware.Actor(c).UserID, 50)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (s *Server) unreadCount(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.Actor(c).UserID

	if count, ok := s.counters.GetUnread(ctx, userID); ok {
		c.JSON(http.StatusOK, gin.H{"count": count})
		return
	}

	var count int64
	err := db.WithRetry(ctx, func() error {
		var e error
		count, e = s.notifications.CountUnread(ctx, userID)
		return e
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.counters.SetUnread(ctx, userID, count)
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (s *Server) markNotificationRead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	userID := middleware.Actor(c).UserID
	updated, err := s.notifications.MarkRead(c.Request.Context(), id, userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"message": "Không tìm thấy dữ liệu"})
		return
	}
	s.counters.InvalidateUnread(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
