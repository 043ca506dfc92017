// Package services defines the business logic for accounts, chat sessions,
// chat turns, and feedback. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Account-related errors.
var (
	// ErrUsernameTaken indicates a registration attempt with a username that
	// already exists.
	ErrUsernameTaken = errors.New("username already registered")

	// ErrInvalidCredentials is returned for any failed login. It deliberately
	// covers both "unknown user" and "wrong password" so the API cannot be
	// used to probe which usernames exist.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrMissingCredentials is returned when username or password is blank.
	ErrMissingCredentials = errors.New("username and password are required")

	// ErrPasswordTooLong is returned when a password exceeds the maximum
	// length bcrypt accepts.
	ErrPasswordTooLong = errors.New("password too long")
)

// Session-related errors.
var (
	// ErrSessionNotFound indicates that the requested chat session does not
	// exist or is not accessible to the current user.
	ErrSessionNotFound = errors.New("chat session not found")

	// ErrEmptyTitle is returned when a rename request carries a blank title.
	ErrEmptyTitle = errors.New("title is required")

	// ErrEmptyPrompt is returned when a chat turn contains an empty message.
	ErrEmptyPrompt = errors.New("message is required")

	// ErrTooLong is returned when a chat message exceeds the maximum
	// configured length limit.
	ErrTooLong = errors.New("message too long")
)

// Generation-related errors.
var (
	// ErrGenerationFailed wraps an unexpected model failure. The chat turn is
	// aborted: the user message stays persisted, no bot message is appended.
	ErrGenerationFailed = errors.New("generation failed")
)

// Feedback-related errors.
var (
	// ErrInvalidFeedback is returned when a feedback value is outside the
	// allowed set (currently -1 or 1).
	ErrInvalidFeedback = errors.New("feedback value must be -1 or 1")

	// ErrMessageNotFound indicates that the requested message does not exist
	// or is not accessible to the current user.
	ErrMessageNotFound = errors.New("message not found")

	// ErrForbiddenFeedback is returned when a user attempts to leave feedback
	// on a message they are not permitted to rate.
	ErrForbiddenFeedback = errors.New("cannot leave feedback on this message")

	// ErrDuplicateFeedback is returned when a user attempts to leave feedback
	// on a message that they have already rated.
	ErrDuplicateFeedback = errors.New("feedback already exists")
)
