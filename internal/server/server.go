package server

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"tracker/internal/auth"
	"tracker/internal/storage"
)

// Server provides HTTP handlers for the tracker backend.
type Server struct {
	engine    *gin.Engine
	store     *storage.Store
	auth      *auth.Service
	logger    zerolog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *storage.Store, authService *auth.Service, logger zerolog.Logger, staticDir string) *Server {
	gin.SetMode(gin.ReleaseMode)
	useJSONFieldNames()

	router := gin.New()
	router.Use(gin.Recovery())

	srv := &Server{
		engine:    router,
		store:     store,
		auth:      authService,
		logger:    logger.With().Str("component", "http").Logger(),
		staticDir: staticDir,
	}
	router.Use(srv.requestID, srv.accessLog)

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		authGroup := api.Group("/auth")
		authGroup.POST("/register", s.handleRegister)
		authGroup.POST("/login", s.handleLogin)
	}

	private := api.Group("", s.requireAuth)
	{
		private.GET("/users", s.handleListUsers)
		private.GET("/users/me", s.handleMe)

		projects := private.Group("/projects")
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.GET(":id", s.handleGetProject)
			projects.PATCH(":id", s.handleUpdateProject)
			projects.DELETE(":id", s.handleDeleteProject)
			projects.GET(":id/tasks", s.handleListTasks)
			projects.GET(":id/sprints", s.handleListSprints)
			projects.POST(":id/sprints", s.handleCreateSprint)
		}

		private.PATCH("/sprints/:id", s.handleUpdateSprint)

		private.POST("/columns", s.handleCreateColumn)
		private.GET("/columns/:id", s.handleGetColumn)
		private.PATCH("/columns/:id", s.handleUpdateColumn)
		private.DELETE("/columns/:id", s.handleDeleteColumn)

		private.POST("/tasks", s.handleCreateTask)
		private.GET("/tasks/:id", s.handleGetTask)
		private.PATCH("/tasks/:id", s.handleUpdateTask)
		private.DELETE("/tasks/:id", s.handleDeleteTask)
		private.GET("/tasks/:id/comments", s.handleListComments)

		private.GET("/timelogs", s.handleListTimeLogs)
		private.POST("/timelogs", s.handleCreateTimeLog)
		private.GET("/timelogs/:id", s.handleGetTimeLog)
		private.PATCH("/timelogs/:id", s.handleUpdateTimeLog)
		private.DELETE("/timelogs/:id", s.handleDeleteTimeLog)

		private.POST("/comments", s.handleCreateComment)
		private.GET("/comments/:id", s.handleGetComment)
		private.PATCH("/comments/:id", s.handleUpdateComment)
		private.DELETE("/comments/:id", s.handleDeleteComment)
	}

	s.mountStatic()
}

// handleHealth reports whether the database answers.
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.logger.Error().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64, answering 404 when it is not one.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusNotFound, notFoundBody)
		return 0, false
	}
	return id, true
}

// respondSuccess writes payload with status, or only the status when
// there is nothing to send.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

// useJSONFieldNames makes binding errors name fields the way clients send them.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
