// Package services – SessionService
//
// This file implements the SessionService, which manages the lifecycle of chat
// sessions. It validates and normalizes titles, enforces ownership rules, and
// coordinates repository operations for creating, listing, renaming, and
// deleting sessions. Title handling is intentionally minimal here because
// automatic title generation is performed in MessageService on the first user
// message.
//
// Service-level errors (e.g., ErrSessionNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-llm-chat-backend/internal/domain"
	"github.com/tbourn/go-llm-chat-backend/internal/repo"
)

// DefaultSessionTitle is assigned when a session is created without a title.
const DefaultSessionTitle = "New Chat"

// SessionService provides session-level operations such as creating, listing,
// and renaming chat sessions. It enforces title rules and ownership
// constraints.
type SessionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// HistoryLimit caps how many sessions a listing returns, newest first.
	HistoryLimit int
	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
}

// NewSessionService constructs a SessionService with sane defaults.
func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{
		DB:           db,
		HistoryLimit: 100,
		TitleMaxLen:  60,
	}
}

// Create inserts a new session owned by userID with the provided title.
// Titles are normalized, trimmed, clipped, and a default fallback is applied.
func (s *SessionService) Create(ctx context.Context, userID, title string) (*domain.ChatSession, error) {
	title = normalizeTitle(title)
	if title == "" {
		title = DefaultSessionTitle
	}
	return repo.CreateSession(ctx, s.DB, userID, s.clip(title))
}

// List returns the user's sessions, newest first, with their messages
// preloaded. The result is capped at HistoryLimit entries.
func (s *SessionService) List(ctx context.Context, userID string) ([]domain.ChatSession, error) {
	limit := s.HistoryLimit
	if limit <= 0 {
		limit = 100
	}
	return repo.ListSessions(ctx, s.DB, userID, limit)
}

// Get fetches a single session by ID, ensuring it belongs to the user.
// A missing or foreign session yields ErrSessionNotFound.
func (s *SessionService) Get(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error) {
	sess, err := repo.GetSession(ctx, s.DB, sessionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

// Rename updates a session's title. A blank title is rejected with
// ErrEmptyTitle rather than silently replaced.
func (s *SessionService) Rename(ctx context.Context, userID, sessionID, title string) error {
	title = normalizeTitle(title)
	if title == "" {
		return ErrEmptyTitle
	}
	if err := repo.RenameSession(ctx, s.DB, sessionID, userID, s.clip(title)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// Delete removes a session (and, transitively, its messages) if it belongs to
// the user.
func (s *SessionService) Delete(ctx context.Context, userID, sessionID string) error {
	if err := repo.DeleteSession(ctx, s.DB, sessionID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// clip truncates a session title to the configured maximum rune length.
func (s *SessionService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return string([]rune(title)[:s.TitleMaxLen])
	}
	return title
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	s = whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
	return s
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
