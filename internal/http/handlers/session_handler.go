// Chat-session HTTP handlers.
//
// This file exposes REST endpoints for chat-session resources:
//   - POST   /new_chat            (create)
//   - GET    /chat_history        (list, capped, ETag support)
//   - GET    /chat_session/{id}   (fetch one session with its messages)
//   - PUT    /rename_chat/{id}    (rename)
//   - DELETE /delete_chat/{id}    (delete)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
// Every route here runs behind the bearer-token middleware; the user identity
// comes from the Gin context, never from the request body.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-llm-chat-backend/internal/domain"
	"github.com/tbourn/go-llm-chat-backend/internal/repo"
	"github.com/tbourn/go-llm-chat-backend/internal/services"
	"github.com/tbourn/go-llm-chat-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AccountService defines the account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AccountService interface {
	// Register creates a new user with the given credentials.
	Register(ctx context.Context, username, password string) (*domain.User, error)
	// Login verifies credentials and returns the matching user.
	Login(ctx context.Context, username, password string) (*domain.User, error)
}

// TokenIssuer signs bearer tokens for authenticated usernames.
type TokenIssuer interface {
	Issue(username string) (string, error)
}

// SessionService defines chat-session lifecycle operations consumed by HTTP
// handlers.
type SessionService interface {
	// Create starts a new session for userID with an optional title.
	Create(ctx context.Context, userID, title string) (*domain.ChatSession, error)
	// List returns the user's sessions, newest first, capped.
	List(ctx context.Context, userID string) ([]domain.ChatSession, error)
	// Get fetches one session (with messages) owned by userID.
	Get(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error)
	// Rename updates the title of a session owned by userID.
	Rename(ctx context.Context, userID, sessionID, title string) error
	// Delete removes a session owned by userID.
	Delete(ctx context.Context, userID, sessionID string) error
}

// MessageService defines chat-turn and cancellation operations.
type MessageService interface {
	// Answer appends a user prompt and a bot reply to a session.
	Answer(ctx context.Context, userID, username, sessionID, prompt string) (*domain.Message, error)
	// Stop cancels username's in-flight generation, reporting whether one ran.
	Stop(username string) bool
}

// FeedbackService defines operations to capture user feedback on messages.
type FeedbackService interface {
	// Leave submits a feedback value (-1 or 1) for messageID by userID.
	Leave(ctx context.Context, userID, messageID string, value int) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for accounts, sessions, chat turns, and
// feedback. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	acctSvc AccountService
	tokens  TokenIssuer
	sessSvc SessionService
	msgSvc  MessageService
	fbSvc   FeedbackService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(acctSvc AccountService, tokens TokenIssuer, sessSvc SessionService, msgSvc MessageService, fbSvc FeedbackService) *Handlers {
	return &Handlers{acctSvc: acctSvc, tokens: tokens, sessSvc: sessSvc, msgSvc: msgSvc, fbSvc: fbSvc}
}

// userID extracts the authenticated user id from Gin context (set by the
// bearer-token middleware).
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// username extracts the authenticated username from Gin context (set by the
// bearer-token middleware).
func username(c *gin.Context) string {
	if v, ok := c.Get("username"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

//
// DTOs
//

// NewChatRequest is the JSON payload for creating a chat session.
type NewChatRequest struct {
	// Title optionally names the session; a default is used when empty.
	Title string `json:"title"`
}

// NewChatResponse carries the identifier of a freshly created session.
type NewChatResponse struct {
	ChatSessionID string `json:"chat_session_id"`
}

// ChatHistoryResponse wraps the user's sessions, newest first.
type ChatHistoryResponse struct {
	ChatSessions []domain.ChatSession `json:"chat_sessions"`
}

// RenameChatRequest is the JSON payload for renaming a session.
type RenameChatRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255"`
}

// MessageResponse is a plain informational envelope.
type MessageResponse struct {
	Message string `json:"message"`
}

//
// Handlers
//

// NewChat creates a session for the current user and returns its id.
func (h *Handlers) NewChat(c *gin.Context) {
	var req NewChatRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	title := strings.TrimSpace(req.Title)

	sess, err := h.sessSvc.Create(c.Request.Context(), userID(c), title)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, NewChatResponse{ChatSessionID: sess.ID})
}

// ChatHistory returns the user's sessions, newest first. It supports weak
// ETags via If-None-Match and may answer 304.
func (h *Handlers) ChatHistory(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okSvc := h.sessSvc.(*services.SessionService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.SessionsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"sessions:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.sessSvc.List(ctx, uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	// Optional ?limit= trims the capped listing further.
	if limit := utils.AtoiDefault(c.Query("limit"), 0); limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	ok(c, http.StatusOK, ChatHistoryResponse{ChatSessions: items})
}

// GetChatSession returns one session, including its ordered messages.
func (h *Handlers) GetChatSession(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := uuid.Parse(sessionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	sess, err := h.sessSvc.Get(c.Request.Context(), userID(c), sessionID)
	if err != nil {
		if err == services.ErrSessionNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "chat session not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, sess)
}

// RenameChat updates the title of a session owned by the current user.
func (h *Handlers) RenameChat(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := uuid.Parse(sessionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	var req RenameChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1–255 chars)")
		return
	}

	if err := h.sessSvc.Rename(c.Request.Context(), userID(c), sessionID, req.Title); err != nil {
		switch err {
		case services.ErrEmptyTitle:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1–255 chars)")
		case services.ErrSessionNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "chat session not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "Chat session renamed"})
}

// DeleteChat removes a session owned by the current user.
func (h *Handlers) DeleteChat(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := uuid.Parse(sessionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	if err := h.sessSvc.Delete(c.Request.Context(), userID(c), sessionID); err != nil {
		if err == services.ErrSessionNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "chat session not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "Chat session deleted"})
}
