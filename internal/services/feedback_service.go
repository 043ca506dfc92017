// Package services – FeedbackService
//
// This file implements the FeedbackService, which governs how users leave
// feedback (-1 or +1) on bot messages. It enforces business rules (message
// existence, session ownership, bot-only restriction, uniqueness) and persists
// feedback atomically in the database. Service-level errors
// (e.g. ErrInvalidFeedback, ErrMessageNotFound, ErrForbiddenFeedback,
// ErrDuplicateFeedback) are returned for predictable cases so handlers can
// map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-llm-chat-backend/internal/domain"
	"github.com/tbourn/go-llm-chat-backend/internal/repo"
)

// FeedbackService implements the use-cases around message feedback.
// It validates the operation (ownership, message sender, uniqueness) and
// persists the feedback using the provided GORM handle.
type FeedbackService struct {
	// DB is the database handle used for all feedback operations.
	DB *gorm.DB
}

// Leave records a feedback value for messageID on behalf of userID.
//
// Semantics and validation:
//   - value must be exactly -1 (negative) or 1 (positive); otherwise ErrInvalidFeedback.
//   - messageID must exist; otherwise ErrMessageNotFound.
//   - The message must belong to a session owned by userID; otherwise ErrForbiddenFeedback.
//   - Feedback is allowed only for bot messages; user messages are rejected
//     with ErrForbiddenFeedback.
//   - A user may leave at most one feedback per message; attempting to do so
//     again yields ErrDuplicateFeedback.
//
// The existence/ownership checks and the insert run inside one transaction.
func (s *FeedbackService) Leave(ctx context.Context, userID, messageID string, value int) error {
	if value != -1 && value != 1 {
		return ErrInvalidFeedback
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) Load message and verify it exists.
		msg, err := repo.GetMessage(tx, messageID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, repo.ErrNotFound) {
				return ErrMessageNotFound
			}
			return err
		}

		// 2) Ensure the message's session belongs to this user.
		if _, err := repo.GetSession(ctx, tx, msg.SessionID, userID); err != nil {
			// either not found or not owned by this user
			return ErrForbiddenFeedback
		}

		// 3) Only allow feedback on bot messages.
		if msg.Sender != domain.SenderChatbot {
			return ErrForbiddenFeedback
		}

		// 4) Insert feedback with (message_id, user_id) uniqueness semantics.
		if err := repo.CreateFeedback(ctx, tx, messageID, userID, value); err != nil {
			if errors.Is(err, repo.ErrDuplicate) || isDuplicate(err) {
				return ErrDuplicateFeedback
			}
			return err
		}
		return nil
	})
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to repo.ErrDuplicate.
func isDuplicate(err error) bool {
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
