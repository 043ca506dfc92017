// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the ChatSession
// model.
//
// Every lookup is filtered by both the session ID and the owning user, so a
// session can never be read or mutated by anyone but its owner. A session
// that exists but belongs to someone else is indistinguishable from a missing
// one: both return ErrNotFound.
//
// Functions:
//
//   - CreateSession(ctx, db, userID, title) -> *domain.ChatSession, error
//     Inserts a new session row with UUID primary key and empty message log.
//
//   - ListSessions(ctx, db, userID, limit) -> []domain.ChatSession, error
//     Returns the user's most recently created sessions, messages preloaded.
//
//   - GetSession(ctx, db, id, userID) -> *domain.ChatSession, error
//     Fetches a single session with its ordered messages, or ErrNotFound.
//
//   - RenameSession(ctx, db, id, userID, title) -> error
//     Updates the title, enforcing ownership. ErrNotFound if no row matched.
//
//   - DeleteSession(ctx, db, id, userID) -> error
//     Soft-deletes the session, enforcing ownership. ErrNotFound if absent.
//
// This repository is designed to be wrapped by a higher-level service
// (see services.SessionService) which enforces business rules.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-llm-chat-backend/internal/domain"
)

// CreateSession inserts a new ChatSession row owned by userID with the given
// title. The session ID is a randomly generated UUID (string), and CreatedAt
// is set to UTC. The message log starts empty.
func CreateSession(ctx context.Context, db *gorm.DB, userID, title string) (*domain.ChatSession, error) {
	s := &domain.ChatSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	s.Messages = []domain.Message{}
	return s, nil
}

// ListSessions returns up to limit sessions belonging to userID, ordered by
// creation time descending (most recent first), each with its messages
// preloaded in insertion order. It returns an empty slice if the user has no
// sessions. A limit <= 0 disables the cap.
func ListSessions(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.ChatSession, error) {
	var out []domain.ChatSession
	q := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Preload("Messages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		})
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountSessions returns the total number of sessions owned by userID.
func CountSessions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ChatSession{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// GetSession fetches a single session by its ID and owner (userID), with its
// messages preloaded in insertion order. If the record does not exist or is
// owned by someone else, it returns ErrNotFound.
func GetSession(ctx context.Context, db *gorm.DB, id, userID string) (*domain.ChatSession, error) {
	var s domain.ChatSession
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Preload("Messages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RenameSession updates the title of a session identified by id and owned by
// userID. If no rows are affected (session missing or not owned by userID),
// it returns ErrNotFound. On DB error, the raw error is returned.
func RenameSession(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	res := db.WithContext(ctx).
		Model(&domain.ChatSession{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteSession soft-deletes a session identified by id and owned by userID.
// If no rows are affected, it returns ErrNotFound.
func DeleteSession(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.ChatSession{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
