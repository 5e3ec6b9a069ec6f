package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/devhabit/internal/common"
	"github.com/dmitrijs2005/devhabit/internal/logging"
	"github.com/dmitrijs2005/devhabit/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// requestID propagates the caller's X-Request-ID or generates one, and
// echoes it on the response.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(common.RequestIDHeaderName, id)
		c.Next()
	}
}

func accessLog(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
			logger.Error(c.Request.Context(), "request", args...)
			return
		}
		logger.Info(c.Request.Context(), "request", args...)
	}
}

func recovery(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(c.Request.Context(), "panic recovered", "panic", r, "request_id", c.GetString(requestIDKey))
				abortWithProblem(c, http.StatusInternalServerError, "An unexpected error occurred.")
			}
		}()
		c.Next()
	}
}

// authenticate requires "Authorization: Bearer <jwt>" and stores the token's
// principal in the request context.
func authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, common.BearerScheme) || token == "" {
			c.Header("WWW-Authenticate", common.BearerScheme)
			abortWithProblem(c, http.StatusUnauthorized, "")
			return
		}

		principal, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			c.Header("WWW-Authenticate", common.BearerScheme)
			abortWithProblem(c, http.StatusUnauthorized, "")
			return
		}

		c.Request = c.Request.WithContext(auth.NewContext(c.Request.Context(), principal))
		c.Next()
	}
}

// requireRole rejects principals that lack role with 403.
func requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := auth.FromContext(c.Request.Context())
		if !ok {
			abortWithProblem(c, http.StatusUnauthorized, "")
			return
		}
		if !p.HasRole(role) {
			abortWithProblem(c, http.StatusForbidden, "")
			return
		}
		c.Next()
	}
}
