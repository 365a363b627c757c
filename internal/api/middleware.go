package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// UserHeader carries the caller's user id.
const UserHeader = "X-User-ID"

const userKey = "user_id"

// RequestLogger logs one line per request with method, path, status and
// duration. Requests that recorded errors are logged at Error.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if query != "" {
			attrs = append(attrs, "query", query)
		}
		if user := c.GetString(userKey); user != "" {
			attrs = append(attrs, "user_id", user)
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.Errors())
			log.Error("http request failed", attrs...)
			return
		}
		if strings.HasPrefix(path, "/health") || path == "/metrics" {
			log.Debug("http request", attrs...)
			return
		}
		log.Info("http request", attrs...)
	}
}

// Recovery turns handler panics into 500 responses.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				log.Error("http handler panicked", "path", c.Request.URL.Path, "panic", p)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "internal error"})
			}
		}()
		c.Next()
	}
}

// RequireUser rejects requests without a user id header.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(UserHeader))
		if user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "missing " + UserHeader + " header"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(userKey)
}
