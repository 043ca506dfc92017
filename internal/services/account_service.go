// Package services – AccountService
//
// This file implements the AccountService, which owns user registration and
// credential verification. Passwords are hashed with bcrypt before storage and
// never leave this package in plain form. Login failures are deliberately
// indistinguishable: an unknown username and a wrong password both yield
// ErrInvalidCredentials, so the endpoint cannot be used to enumerate accounts.
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/go-llm-chat-backend/internal/domain"
	"github.com/tbourn/go-llm-chat-backend/internal/repo"
)

// bcrypt rejects inputs longer than 72 bytes.
const maxPasswordBytes = 72

// dummyHash is a valid bcrypt hash of a random string. Login compares against
// it when the username does not exist so both failure paths cost roughly the
// same amount of work.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// AccountService implements the use-cases around user accounts: registering a
// new account and verifying credentials at login.
type AccountService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// BcryptCost controls the work factor for new password hashes.
	// Zero or negative falls back to bcrypt.DefaultCost.
	BcryptCost int
}

// NewAccountService constructs an AccountService with the default bcrypt cost.
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{DB: db, BcryptCost: bcrypt.DefaultCost}
}

// Register creates a new user with the given credentials.
//
// Validation:
//   - username and password must be non-blank; otherwise ErrMissingCredentials.
//   - password must fit in 72 bytes (a bcrypt limit); otherwise ErrPasswordTooLong.
//   - the username must be unused; otherwise ErrUsernameTaken.
func (s *AccountService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		return nil, err
	}

	u, err := repo.CreateUser(ctx, s.DB, username, string(hash))
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return u, nil
}

// Login verifies username/password and returns the matching user.
// Any failure, including an unknown username, yields ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := repo.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Burn a comparison so the miss is not observably faster.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Lookup resolves a username to its user record. It is used by the
// authentication middleware to map a validated token subject to an account.
func (s *AccountService) Lookup(ctx context.Context, username string) (*domain.User, error) {
	u, err := repo.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return u, nil
}

func (s *AccountService) cost() int {
	if s.BcryptCost > 0 {
		return s.BcryptCost
	}
	return bcrypt.DefaultCost
}
