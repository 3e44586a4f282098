package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"habit-planner/internal/service"
)

// Services are the domain services the HTTP layer exposes.
type Services struct {
	Tasks     *service.TaskService
	Templates *service.TemplateService
	Auth      *service.AuthService
	Nutrition *service.NutritionService
}

// Server holds the gin engine and the services behind it.
type Server struct {
	router *gin.Engine
	svc    Services
	loc    *time.Location
	log    zerolog.Logger
	now    func() time.Time
}

// NewServer wires routes. loc interprets date-only query values.
func NewServer(svc Services, loc *time.Location, log zerolog.Logger) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		router: gin.New(),
		svc:    svc,
		loc:    loc,
		log:    log.With().Str("component", "api").Logger(),
		now:    time.Now,
	}
	s.router.Use(gin.Recovery(), RequestLogger(s.log))
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/register", s.handleRegister)
	r.POST("/login", s.handleLogin)

	// Bearer tokens are optional on the planner routes; when present they
	// supply the user id a request omits.
	open := r.Group("/", OptionalAuth(s.svc.Auth))
	open.POST("/tasks", s.handleCreateTask)
	open.GET("/tasks", s.handleListTasks)
	open.POST("/tasks/rollover", s.handleRollover)
	open.PUT("/tasks/:id", s.handleUpdateTask)
	open.POST("/tasks/:id/complete", s.handleCompleteTask)
	open.DELETE("/tasks", s.handleDeleteTasks)

	open.GET("/templates", s.handleListTemplates)
	open.POST("/templates/:id/apply", s.handleApplyTemplate)

	open.GET("/users/:id/stats", s.handleUserStats)
	open.PUT("/users/:id/contact", s.handleUpdateContact)

	calAI := open.Group("/api/cal-ai")
	calAI.GET("/profile", s.handleGetProfile)
	calAI.POST("/profile", s.handleSaveProfile)
	calAI.GET("/dashboard", s.handleDashboard)
	calAI.POST("/meals", s.handleLogMeal)

	r.GET("/me", Auth(s.svc.Auth), s.handleMe)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": s.now().UTC()})
}
