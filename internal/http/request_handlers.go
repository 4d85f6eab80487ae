package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/example/irequest/internal/db"
	"github.com/example/irequest/internal/middleware"
	"github.com/example/irequest/internal/models"
)

func (s *Server) createRequest(c *gin.Context) {
	var payload struct {
		Title          string  `json:"title" binding:"required"`
		Description    string  `json:"description"`
		PriorityID     uint    `json:"priorityId" binding:"required"`
		WorkflowID     *uint   `json:"workflowId"`
		AssignedUserID *string `json:"assignedUserId"`
		FormData       string  `json:"formData"`
		Draft          bool    `json:"draft"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Dữ liệu không hợp lệ", "detail": err.Error()})
		return
	}

	req := &models.Request{
		Title:       payload.Title,
		Description: payload.Description,
		PriorityID:  payload.PriorityID,
		WorkflowID:  payload.WorkflowID,
		FormData:    payload.FormData,
	}
	if payload.AssignedUserID != nil {
		assignee, err := uuid.Parse(*payload.AssignedUserID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Người xử lý không hợp lệ"})
			return
		}
		req.AssignedUserID = &assignee
	}

	if err := s.lifecycle.Create(c.Request.Context(), middleware.Actor(c), req, payload.Draft); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (s *Server) listRequests(c *gin.Context) {
	ctx := c.Request.Context()
	var requests []models.Request
	err := db.WithRetry(ctx, func() error {
		var e error
		requests, e = s.requests.ListVisible(ctx, middleware.Actor(c), 100)
		return e
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (s *Server) listAssigned(c *gin.Context) {
	requests, err := s.requests.ListAssigned(c.Request.Context(), middleware.Actor(c).UserID, 100)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (s *Server) listDrafts(c *gin.Context) {
	drafts, err := s.requests.ListDrafts(c.Request.Context(), middleware.Actor(c).UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, drafts)
}

func (s *Server) countDrafts(c *gin.Context) {
	count, err := s.requests.CountDrafts(c.Request.Context(), middleware.Actor(c).UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (s *Server) getRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, err := s.lifecycle.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// updateRequest edits a draft's content. Only the creator may edit, and only
// before publication.
func (s *Server) updateRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		PriorityID  uint   `json:"priorityId" binding:"required"`
		FormData    string `json:"formData"`
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
	if req.CreatorID != actor.UserID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Bạn không có quyền thực hiện thao tác này"})
		return
	}
	if req.StatusID != s.lifecycle.Statuses().ID(models.StatusDraft) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Chỉ bản nháp mới được chỉnh sửa"})
		return
	}

	req.Title = payload.Title
	req.Description = payload.Description
	req.PriorityID = payload.PriorityID
	req.FormData = payload.FormData
	if err := s.requests.Update(c.Request.Context(), req); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (s *Server) deleteRequest(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.requests.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) publishDraft(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.lifecycle.PublishDraft(c.Request.Context(), id, middleware.Actor(c).UserID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Đã gửi yêu cầu"})
}

func (s *Server) approveRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&payload)

	if err := s.lifecycle.Approve(c.Request.Context(), middleware.Actor(c), id, payload.Note); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Yêu cầu đã được phê duyệt"})
}

func (s *Server) rejectRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&payload)

	if err := s.lifecycle.Reject(c.Request.Context(), middleware.Actor(c), id, payload.Note); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Yêu cầu đã bị từ chối"})
}

func (s *Server) startProcessing(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.lifecycle.StartProcessing(c.Request.Context(), middleware.Actor(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Bắt đầu xử lý yêu cầu"})
}

func (s *Server) updateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload struct {
		StatusID uint   `json:"statusId" binding:"required"`
		Note     string `json:"note"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Dữ liệu không hợp lệ", "detail": err.Error()})
		return
	}
	if err := s.lifecycle.UpdateStatus(c.Request.Context(), middleware.Actor(c), id, payload.StatusID, payload.Note); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Đã cập nhật trạng thái"})
}

func (s *Server) assignRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload struct {
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Dữ liệu không hợp lệ", "detail": err.Error()})
		return
	}
	assignee, err := uuid.Parse(payload.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Người xử lý không hợp lệ"})
		return
	}
	if err := s.lifecycle.Assign(c.Request.Context(), middleware.Actor(c), id, assignee); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Đã giao yêu cầu"})
}

func (s *Server) requestHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, err := s.lifecycle.Get(c.Request.Context(), middleware.Actor(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	entries, err := s.requests.History(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) requestApprovals(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, err := s.lifecycle.Get(c.Request.Context(), middleware.Actor(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	approvals, err := s.requests.Approvals(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, approvals)
}
