package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/example/irequest/internal/auth"
	"github.com/example/irequest/internal/models"
)

func (s *Server) register(c *gin.Context) {
	var payload struct {
		Username     string `json:"username" binding:"required"`
		Password     string `json:"password" binding:"required,min=6"`
		FullName     string `json:"fullName" binding:"required"`
		Email        string `json:"email" binding:"omitempty,email"`
		DepartmentID *uint  `json:"departmentId"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Dữ liệu không hợp lệ", "detail": err.Error()})
		return
	}

	if _, err := s.users.FindByUsername(c.Request.Context(), payload.Username); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Tên đăng nhập đã tồn tại"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.respondError(c, err)
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	user := &models.User{
		Username:     payload.Username,
		PasswordHash: hash,
		FullName:     payload.FullName,
		Email:        payload.Email,
		DepartmentID: payload.DepartmentID,
	}
	if err := s.users.Create(c.Request.Context(), user); err != nil {
		s.respondError(c, err)
		return
	}

	token, err := s.tokens.Issue(user.ID, user.IsAdmin, user.RoleNames())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

func (s *Server) login(c *gin.Context) {
	var payload struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Dữ liệu không hợp lệ", "detail": err.Error()})
		return
	}

	user, err := s.users.FindByUsername(c.Request.Context(), payload.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Sai tên đăng nhập hoặc mật khẩu"})
			return
		}
		s.respondError(c, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, payload.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Sai tên đăng nhập hoặc mật khẩu"})
		return
	}

	token, err := s.tokens.Issue(user.ID, user.IsAdmin, user.RoleNames())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
