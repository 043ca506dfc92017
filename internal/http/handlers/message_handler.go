// Chat-turn HTTP handlers.
//
// This file exposes the REST endpoints that drive a conversation:
//   - POST /chat             (append a user message and generate the bot reply)
//   - POST /stop_generation  (cancel the caller's in-flight generation)
//
// Handlers are transport-thin:
//   - validate & normalize inputs (including newline and length constraints)
//   - delegate to application services (MessageService)
//   - implement idempotency semantics for safe retries
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (user, session, key), the handler returns that recorded
// bot message and sets `Idempotency-Replayed: true`.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-llm-chat-backend/internal/http/middleware"
	"github.com/tbourn/go-llm-chat-backend/internal/repo"
	"github.com/tbourn/go-llm-chat-backend/internal/services"
)

//
// DTOs
//

// ChatRequest is the JSON payload for sending a user message.
//
// Message is normalized by the handler (line endings and excessive blank
// lines) before being passed to the service layer. The service also enforces
// a maximum rune count, which can be configured in MessageService.
type ChatRequest struct {
	// ChatSessionID identifies the session the message belongs to.
	ChatSessionID string `json:"chat_session_id" binding:"required,min=1"`
	// Message is the user prompt. It must be non-empty.
	Message string `json:"message" binding:"required,min=1"`
}

// ChatResponse is the JSON envelope for a completed chat turn.
type ChatResponse struct {
	// Response is the bot reply text.
	Response string `json:"response"`
	// MessageID identifies the stored bot message, usable for feedback.
	MessageID string `json:"message_id"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes user text for consistent downstream behavior:
//   - converts CRLF/CR to LF,
//   - collapses runs of 3+ LFs to exactly two (paragraph separation),
//   - trims surrounding whitespace.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// discoverMaxPromptRunes inspects the concrete MessageService for a configured
// prompt-length limit. If unavailable, it returns a conservative fallback.
func discoverMaxPromptRunes(msgSvc MessageService) int {
	const fallback = 4000
	if ms, okSvc := msgSvc.(*services.MessageService); okSvc {
		if ms.MaxPromptRunes > 0 {
			return ms.MaxPromptRunes
		}
	}
	return fallback
}

// idempotencyKey extracts the key validated by the idempotency middleware,
// falling back to the raw header when the middleware is not mounted.
func idempotencyKey(c *gin.Context) (string, bool) {
	if key, okKey := middleware.GetIdempotencyKey(c); okKey {
		return key, true
	}
	if v := strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey)); v != "" {
		return v, true
	}
	return "", false
}

//
// Handlers
//

// Chat appends a user message to the session and answers with the generated
// bot reply. Supports idempotency via the Idempotency-Key header (same key →
// same result).
func (h *Handlers) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat_session_id and message required")
		return
	}

	sessionID := strings.TrimSpace(req.ChatSessionID)
	if _, err := uuid.Parse(sessionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat_session_id must be a UUID")
		return
	}

	// Sanitize + early size cap to fail fast at the edge.
	content := sanitizeContent(req.Message)
	maxRunes := discoverMaxPromptRunes(h.msgSvc)
	if maxRunes > 0 && utf8.RuneCountInString(content) > maxRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("message too long: max %d runes", maxRunes))
		return
	}
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat_session_id and message required")
		return
	}

	uid := userID(c)
	uname := username(c)

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := idempotencyKey(c)
	if idemKey != "" {
		if svc, okSvc := h.msgSvc.(*services.MessageService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, uid, sessionID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetMessage(svc.DB, rec.MessageID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, ChatResponse{Response: prev.Content, MessageID: prev.ID})
					return
				}
			}
		}
	}

	// Normal processing (service has a second guard for length).
	m, err := h.msgSvc.Answer(ctx, uid, uname, sessionID, content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "chat session not found")
		case errors.Is(err, services.ErrTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("message too long: max %d runes", maxRunes))
		case errors.Is(err, services.ErrEmptyPrompt):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat_session_id and message required")
		case errors.Is(err, services.ErrGenerationFailed):
			fail(c, http.StatusBadGateway, ErrCodeGenerationFailed, "model failed to produce a reply")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if svc, okSvc := h.msgSvc.(*services.MessageService); okSvc && svc.DB != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, svc.DB, uid, sessionID, idemKey, m.ID, http.StatusOK, ttl)
		}
	}

	ok(c, http.StatusOK, ChatResponse{Response: m.Content, MessageID: m.ID})
}

// StopGeneration cancels the caller's in-flight generation, if any. Calling it
// with nothing running is informational, not an error.
func (h *Handlers) StopGeneration(c *gin.Context) {
	if h.msgSvc.Stop(username(c)) {
		ok(c, http.StatusOK, MessageResponse{Message: "Generation stopped"})
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "No generation in progress"})
}
