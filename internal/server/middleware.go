package server

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"order-console/internal/auth"
	"order-console/internal/domain"
	"order-console/internal/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	profileKey      = "profile"
)

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		setContext(c, context.WithValue(c.Request.Context(), logger.RequestIDKey, id))
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithContext(c.Request.Context(), s.log).WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if c.Writer.Status() >= 500 {
			entry.Error("request failed")
			return
		}
		entry.Debug("request served")
	}
}

// authenticate resolves the bearer token into a profile stored on the gin context
// and the caller id stored on the request context.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			abortWithError(c, s.log, domain.ErrUnauthenticated)
			return
		}
		id, err := s.tokens.Parse(raw)
		if err != nil {
			abortWithError(c, s.log, domain.ErrUnauthenticated)
			return
		}

		ctx := auth.WithUserID(c.Request.Context(), id)
		ctx = context.WithValue(ctx, logger.UserIDKey, id.String())
		profile, err := s.auth.CurrentUser(ctx)
		if err != nil {
			abortWithError(c, s.log, err)
			return
		}
		setContext(c, ctx)
		c.Set(profileKey, profile)
		c.Next()
	}
}

func requireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := currentProfile(c)
		if p == nil || !slices.Contains(roles, p.Role) {
			abortWithError(c, nil, domain.ErrForbidden)
			return
		}
		c.Next()
	}
}

func currentProfile(c *gin.Context) *domain.Profile {
	v, ok := c.Get(profileKey)
	if !ok {
		return nil
	}
	p, _ := v.(*domain.Profile)
	return p
}

func setContext(c *gin.Context, ctx context.Context) {
	c.Request = c.Request.WithContext(ctx)
}
