// Auth HTTP handlers.
//
// This file exposes the unauthenticated endpoints of the API:
//   - POST /register  (create an account, returns a bearer token)
//   - POST /login     (verify credentials, returns a bearer token)
//
// Handlers are transport-thin: they validate input, call the account service,
// and translate results into HTTP responses. Both endpoints answer with the
// same token envelope so clients have a single success shape to parse.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-llm-chat-backend/internal/services"
)

// CredentialsRequest is the JSON payload for both registration and login.
type CredentialsRequest struct {
	Username string `json:"username" binding:"required,min=1"`
	Password string `json:"password" binding:"required,min=1"`
}

// TokenResponse is the JSON envelope carrying a freshly issued bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register creates a new account and returns a bearer token for it.
//
// Failure modes:
//   - 400 bad_request: missing username/password or oversized password
//   - 400 conflict: the username is already registered
func (h *Handlers) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password required")
		return
	}

	u, err := h.acctSvc.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			fail(c, http.StatusBadRequest, ErrCodeConflict, "username already registered")
		case errors.Is(err, services.ErrMissingCredentials):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password required")
		case errors.Is(err, services.ErrPasswordTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "password too long")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	h.issueToken(c, u.Username)
}

// Login verifies credentials and returns a bearer token.
//
// A missing user and a wrong password both return 401 unauthorized; the
// endpoint never reveals which of the two happened.
func (h *Handlers) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password required")
		return
	}

	u, err := h.acctSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid username or password")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	h.issueToken(c, u.Username)
}

// issueToken signs a token for username and writes the standard envelope.
func (h *Handlers) issueToken(c *gin.Context, username string) {
	tok, err := h.tokens.Issue(username)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not issue token")
		return
	}
	ok(c, http.StatusOK, TokenResponse{AccessToken: tok, TokenType: "bearer"})
}
