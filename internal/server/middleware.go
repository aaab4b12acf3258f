package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tracker/internal/models"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	userCtxKey      = "user"
)

// requestID tags every request with an id, reusing the caller's when sent.
func (s *Server) requestID(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDKey, id)
	c.Header(requestIDHeader, id)
	c.Next()
}

func (s *Server) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()

	if !strings.HasPrefix(c.Request.URL.Path, "/api") {
		return
	}
	s.logger.Info().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("latency", time.Since(start)).
		Str("request_id", c.GetString(requestIDKey)).
		Msg("handled request")
}

// requireAuth accepts "Authorization: Bearer <token>" and stores the
// token's user in the context.
func (s *Server) requireAuth(c *gin.Context) {
	const bearerPrefix = "Bearer"
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix {
		s.logger.Debug().Str("request_id", c.GetString(requestIDKey)).Msg("invalid authorization header")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}

	user, err := s.auth.Authenticate(c.Request.Context(), parts[1])
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Set(userCtxKey, user)
	c.Next()
}

// currentUser returns the user requireAuth stored.
func currentUser(c *gin.Context) models.User {
	return c.MustGet(userCtxKey).(models.User)
}
