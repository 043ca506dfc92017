package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-llm-chat-backend/internal/domain"
)

// newSvcDB opens an isolated in-memory SQLite database with the full schema.
// It is shared by the service tests in this package.
func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.ChatSession{},
		&domain.Message{},
		&domain.Feedback{},
		&domain.Idempotency{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newAccountService uses the minimum bcrypt cost to keep tests fast.
func newAccountService(db *gorm.DB) *AccountService {
	return &AccountService{DB: db, BcryptCost: bcrypt.MinCost}
}

func TestAccount_RegisterAndLogin(t *testing.T) {
	db := newSvcDB(t)
	svc := newAccountService(db)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == "" || u.Username != "alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.PasswordHash == "s3cret" || u.PasswordHash == "" {
		t.Fatalf("password stored in plain text or empty")
	}

	got, err := svc.Login(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("login returned wrong user: %s != %s", got.ID, u.ID)
	}
}

func TestAccount_Register_TrimsUsername(t *testing.T) {
	db := newSvcDB(t)
	svc := newAccountService(db)

	u, err := svc.Register(context.Background(), "  bob  ", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Username != "bob" {
		t.Fatalf("username not trimmed: %q", u.Username)
	}
}

func TestAccount_Register_MissingFields(t *testing.T) {
	db := newSvcDB(t)
	svc := newAccountService(db)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "", "pw"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := svc.Register(ctx, "carol", ""); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := svc.Register(ctx, "   ", "pw"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestAccount_Register_PasswordTooLong(t *testing.T) {
	db := newSvcDB(t)
	svc := newAccountService(db)

	long := strings.Repeat("x", 73)
	if _, err := svc.Register(context.Background(), "dave", long); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestAccount_Register_DuplicateUsername(t *testing.T) {
	db := newSvcDB(t)
	svc := newAccountService(db)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "erin", "pw1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, "erin", "pw2"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAccount_Login_WrongPassword(t *testing.T) {
	db := newSvcDB(t)
	svc := newAccountService(db)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "frank", "right"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(ctx, "frank", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAccount_Login_UnknownUser(t *testing.T) {
	db := newSvcDB(t)
	svc := newAccountService(db)

	// Unknown usernames must be indistinguishable from wrong passwords.
	if _, err := svc.Login(context.Background(), "nobody", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAccount_Lookup(t *testing.T) {
	db := newSvcDB(t)
	svc := newAccountService(db)
	ctx := context.Background()

	u, err := svc.Register(ctx, "grace", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.Lookup(ctx, "grace")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("lookup returned wrong user")
	}

	if _, err := svc.Lookup(ctx, "ghost"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
