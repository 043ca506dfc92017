// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. It validates the
// Authorization header on every protected route, resolves the token subject to
// a stored account, and stashes the identity in the Gin context for handlers
// and downstream middleware (logging, rate limiting) to consume.
//
// Context keys set on success:
//   - "userID":   the account's primary key
//   - "username": the token subject
//
// Failure behavior: the request is aborted with 401 and the standard error
// envelope. The response never distinguishes a malformed token from an expired
// one or from a token whose subject no longer exists.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-llm-chat-backend/internal/domain"
)

// TokenValidator checks a bearer token and returns its subject username.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// UserResolver maps a validated username to a stored account.
type UserResolver interface {
	Lookup(ctx context.Context, username string) (*domain.User, error)
}

// BearerAuth returns middleware that enforces `Authorization: Bearer <token>`
// on every request it wraps.
func BearerAuth(tokens TokenValidator, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		const prefix = "Bearer "
		if raw == "" || !strings.HasPrefix(raw, prefix) {
			unauthorized(c)
			return
		}
		token := strings.TrimSpace(raw[len(prefix):])
		if token == "" {
			unauthorized(c)
			return
		}

		uname, err := tokens.Validate(token)
		if err != nil {
			unauthorized(c)
			return
		}

		u, err := users.Lookup(c.Request.Context(), uname)
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set("userID", u.ID)
		c.Set("username", u.Username)
		c.Next()
	}
}

// unauthorized aborts with the standard 401 envelope.
func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    "missing or invalid bearer token",
	})
}
