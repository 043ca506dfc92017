// Package domain defines the persistence models for users, chat sessions,
// messages, and feedback. These types are mapped with GORM and form the core
// data layer of the chat backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Sender values for Message.Sender. The wire format uses the capitalized
// variants for compatibility with existing clients.
const (
	SenderUser    = "User"
	SenderChatbot = "Chatbot"
)

// User represents a registered account. Credentials are stored as a bcrypt
// hash; the plaintext password never touches the database.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Username: unique login identifier.
//   - PasswordHash: bcrypt hash of the password (never serialized to JSON).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID           string    `json:"id"       gorm:"type:char(36);primaryKey"`
	Username     string    `json:"username" gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	PasswordHash string    `json:"-"        gorm:"type:varchar(128);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// ChatSession represents a named conversation owned by exactly one user.
// Messages belonging to the session are stored as Message rows and are
// cascade-deleted with it.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: username of the owner; indexed for efficient retrieval.
//     Every read/update/delete is filtered by both ID and UserID.
//   - Title: human-readable session title.
//   - Messages: ordered message log (append-only).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type ChatSession struct {
	ID        string         `json:"id"       gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"  gorm:"type:varchar(64);not null;index:idx_user_sessions"`
	Title     string         `json:"title"    gorm:"type:varchar(255);not null;default:'New Chat'"`
	Messages  []Message      `json:"messages" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"        gorm:"index"`
}

// TableName returns the database table name for ChatSession.
func (ChatSession) TableName() string { return "chat_sessions" }

// Message is a single utterance within a chat session, authored either by
// the "User" or the "Chatbot". Messages are immutable once appended and
// ordered by insertion.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - SessionID: foreign key to the owning session (indexed).
//   - Sender: "User" or "Chatbot" (enforced by DB constraint).
//   - Content: full text content of the message.
//   - CreatedAt: insertion timestamp, part of the ordering index.
type Message struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	SessionID string    `json:"session_id" gorm:"type:char(36);not null;index:idx_session_msgs,priority:1"`
	Sender    string    `json:"sender"     gorm:"type:varchar(16);not null;check:sender IN ('User','Chatbot')"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_session_msgs,priority:2"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Feedback represents a user-provided rating on a specific bot message.
// A user can only leave one feedback entry per message (enforced by unique index).
type Feedback struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	MessageID string         `json:"message_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_feedback_message_user"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index;uniqueIndex:ux_feedback_message_user"`
	Value     int            `json:"value"      gorm:"not null;check:value IN (-1,1)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	// Message is the rated bot message. Feedback is cascade-deleted if the
	// underlying message is removed.
	Message Message `json:"-" gorm:"foreignKey:MessageID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Feedback.
func (Feedback) TableName() string { return "feedback" }
