package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-llm-chat-backend/internal/domain"
)

func TestSessionsStats_Empty(t *testing.T) {
	db := newRepoDB(t, &domain.ChatSession{})

	count, maxUpdated, err := SessionsStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("SessionsStats: %v", err)
	}
	if count != 0 || maxUpdated != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxUpdated)
	}
}

func TestSessionsStats_CountsAndLatestUpdate(t *testing.T) {
	db := newRepoDB(t, sessionSchema()...)
	ctx := context.Background()

	var last *domain.ChatSession
	for i := 0; i < 3; i++ {
		s, err := CreateSession(ctx, db, "u1", "t")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		last = s
		time.Sleep(time.Millisecond)
	}
	if _, err := CreateSession(ctx, db, "other", "t"); err != nil {
		t.Fatalf("create foreign: %v", err)
	}

	count, maxUpdated, err := SessionsStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("SessionsStats: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d", count)
	}
	if maxUpdated == nil {
		t.Fatal("maxUpdatedAt is nil")
	}

	// Renaming a session moves the watermark forward.
	time.Sleep(time.Millisecond)
	if err := RenameSession(ctx, db, last.ID, "u1", "renamed"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	_, after, err := SessionsStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("SessionsStats after rename: %v", err)
	}
	if after == nil || !after.After(*maxUpdated) {
		t.Fatalf("watermark did not advance: before=%v after=%v", maxUpdated, after)
	}
}

func TestSessionsStats_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	if _, _, err := SessionsStats(context.Background(), db, "u1"); err == nil {
		t.Fatal("expected error without table")
	}
}
