package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/irequest/internal/auth"
	"github.com/example/irequest/internal/cache"
	"github.com/example/irequest/internal/lifecycle"
	"github.com/example/irequest/internal/middleware"
	"github.com/example/irequest/internal/repository"
)

// Server wraps the gin engine and collaborators needed to handle API requests.
type Server struct {
	Engine        *gin.Engine
	lifecycle     *lifecycle.Service
	requests      *repository.RequestRepository
	users         *repository.UserRepository
	comments      *repository.CommentRepository
	notifications *repository.NotificationRepository
	chats         *repository.ChatRepository
	departments   *repository.DepartmentRepository
	tokens        *auth.TokenManager
	counters      *cache.Counters
	log           *zap.Logger
}

// Deps carries everything the server needs.
type Deps struct {
	Lifecycle     *lifecycle.Service
	Requests      *repository.RequestRepository
	Users         *repository.UserRepository
	Comments      *repository.CommentRepository
	Notifications *repository.NotificationRepository
	Chats         *repository.ChatRepository
	Departments   *repository.DepartmentRepository
	Tokens        *auth.TokenManager
	Counters      *cache.Counters
	Logger        *zap.Logger
}

// NewServer constructs a new API server and registers routes.
func NewServer(deps Deps) *Server {
	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.CORS(), middleware.Logger(deps.Logger), gin.Recovery())

	srv := &Server{
		Engine:        engine,
		lifecycle:     deps.Lifecycle,
		requests:      deps.Requests,
		users:         deps.Users,
		comments:      deps.Comments,
		notifications: deps.Notifications,
		chats:         deps.Chats,
		departments:   deps.Departments,
		tokens:        deps.Tokens,
		counters:      deps.Counters,
		log:           deps.Logger,
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	api := s.Engine.Group("/api")

	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)

	secured := api.Group("", middleware.JWTAuth(s.tokens))

	secured.POST("/requests", s.createRequest)
	secured.GET("/requests", s.listRequests)
	secured.GET("/requests/assigned", s.listAssigned)
	secured.GET("/requests/drafts", s.listDrafts)
	secured.GET("/requests/drafts/count", s.countDrafts)
	secured.GET("/requests/:id", s.getRequest)
	secured.PUT("/requests/:id", s.updateRequest)
	secured.DELETE("/requests/:id", s.deleteRequest)
	secured.POST("/requests/:id/publish", s.publishDraft)
	secured.POST("/requests/:id/approve", s.approveRequest)
	secured.POST("/requests/:id/reject", s.rejectRequest)
	secured.POST("/requests/:id/start-processing", s.startProcessing)
	secured.POST("/requests/:id/status", s.updateStatus)
	secured.POST("/requests/:id/assign", s.assignRequest)
	secured.GET("/requests/:id/history", s.requestHistory)
	secured.GET("/requests/:id/approvals", s.requestApprovals)
	secured.GET("/requests/:id/comments", s.listComments)
	secured.POST("/requests/:id/comments", s.addComment)

	secured.GET("/notifications", s.listNotifications)
	secured.GET("/notifications/unread-count", s.unreadCount)
	secured.POST("/notifications/:id/read", s.markNotificationRead)

	secured.GET("/chat/:userId", s.chatConversation)
	secured.POST("/chat/:userId", s.sendChatMessage)

	secured.GET("/users", s.listUsers)
	secured.GET("/departments", s.listDepartments)
	secured.POST("/departments", s.createDepartment)

	secured.GET("/dashboard", s.dashboard)
	secured.GET("/reports/requests.xlsx", s.exportRequests)
}

// respondError translates life-cycle errors into status codes with localized
// messages. The core itself never knows about HTTP.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Dữ liệu không hợp lệ", "detail": err.Error()})
	case errors.Is(err, lifecycle.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "Bạn không có quyền thực hiện thao tác này"})
	case errors.Is(err, lifecycle.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Không tìm thấy dữ liệu"})
	default:
		s.log.Error("internal error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi hệ thống"})
	}
}

func (s *Server) requireAdmin(c *gin.Context) bool {
	if !middleware.Actor(c).IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"message": "Chỉ quản trị viên được phép"})
		return false
	}
	return true
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "ID không hợp lệ"})
		return 0, false
	}
	return uint(id), true
}
