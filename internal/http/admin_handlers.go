package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/irequest/internal/auth"
	"github.com/example/irequest/internal/db"
	"github.com/example/irequest/internal/export"
	"github.com/example/irequest/internal/models"
	"github.com/example/irequest/internal/repository"
)

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) listDepartments(c *gin.Context) {
	departments, err := s.departments.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, departments)
}

func (s *Server) createDepartment(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var payload struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Dữ liệu không hợp lệ", "detail": err.Error()})
		return
	}
	department := &models.Department{Name: payload.Name}
	if err := s.departments.Create(c.Request.Context(), department); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, department)
}

func (s *Server) dashboard(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	ctx := c.Request.Context()

	if stats, ok := s.counters.GetDashboard(ctx); ok {
		c.JSON(http.StatusOK, stats)
		return
	}

	var stats *repository.DashboardStats
	err := db.WithRetry(ctx, func() error {
		var e error
		stats, e = s.requests.Dashboard(ctx)
		return e
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.counters.SetDashboard(ctx, stats)
	c.JSON(http.StatusOK, stats)
}

func (s *Server) exportRequests(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	ctx := c.Request.Context()

	// Admin scope: every non-draft request.
	adminScope := auth.Context{IsAdmin: true}
	requests, err := s.requests.ListVisible(ctx, adminScope, 10000)
	if err != nil {
		s.respondError(c, err)
		return
	}
	stats, err := s.requests.Dashboard(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}

	workbook, err := export.RequestsReport(requests, stats)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="requests.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := workbook.Write(c.Writer); err != nil {
		s.log.Warn("write report failed", zap.Error(err))
	}
}
