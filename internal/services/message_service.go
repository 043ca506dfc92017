// Package services – MessageService
//
// This file implements MessageService, the application-level component that
// owns the lifecycle of chat turns. It validates inputs, checks session
// ownership, runs the configured llm.Provider to produce the bot reply, and
// persists the conversation. The user message is stored before generation
// starts, so a failed or stopped generation never loses what the user typed.
//
// Each user has at most one generation in flight: starting a new turn
// atomically cancels the previous one through the genreg.Registry, and a
// cancelled turn is recorded with the StopSentinel reply instead of model
// output.
//
// Optional enhancement: it also auto-generates a session title from the first
// user prompt when the session still has a default/empty title.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// session/user identifiers.

package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-llm-chat-backend/internal/domain"
	"github.com/tbourn/go-llm-chat-backend/internal/genreg"
	"github.com/tbourn/go-llm-chat-backend/internal/llm"
	"github.com/tbourn/go-llm-chat-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StopSentinel is stored as the bot reply when a generation is cancelled
// before the model finishes.
const StopSentinel = "Generation stopped"

// MessageService coordinates chat-turn persistence and model-backed answers.
type MessageService struct {
	DB       *gorm.DB
	Provider llm.Provider
	Registry *genreg.Registry

	// Optional guards
	MaxPromptRunes int

	// Title generation config
	TitleLocale language.Tag
	TitleMaxLen int
}

// Answer validates the prompt, verifies the session, stores the user message,
// runs the model, and stores the bot reply. It may auto-generate a session
// title from the first prompt.
//
// The turn is registered under username in the Registry for the duration of
// the model call; Stop (or a newer turn by the same user) cancels it, in which
// case the stored reply is StopSentinel.
func (s *MessageService) Answer(ctx context.Context, userID, username, sessionID, prompt string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Answer",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	// Normalize & validate prompt
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	// Ensure the session exists and belongs to the user
	sess, err := repo.GetSession(ctx, s.DB, sessionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	// Persist the user message up front. It survives even if generation
	// fails or is stopped.
	if _, err := repo.AppendMessage(s.DB.WithContext(ctx), sessionID, domain.SenderUser, prompt); err != nil {
		return nil, err
	}

	reply, err := s.generate(ctx, username, prompt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// Persist the bot reply (and maybe update the title) in one transaction.
	var botMsg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := repo.AppendMessage(tx, sessionID, domain.SenderChatbot, reply)
		if err != nil {
			return err
		}
		botMsg = m

		// Auto-title if placeholder
		if s.shouldAutoTitle(sess.Title) {
			gen := s.generateTitleFromPrompt(prompt)
			if gen != "" {
				gen = s.clipTitle(gen)
				if uerr := tx.Model(&domain.ChatSession{}).Where("id = ?", sessionID).Update("title", gen).Error; uerr == nil {
					sess.Title = gen
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return botMsg, nil
}

// Stop cancels username's in-flight generation, if any. It reports whether a
// generation was actually running.
func (s *MessageService) Stop(username string) bool {
	return s.Registry.Cancel(username)
}

// generate runs the model call under a registry task so it can be cancelled by
// Stop or superseded by a newer turn. A cancelled turn yields StopSentinel.
func (s *MessageService) generate(ctx context.Context, username, prompt string) (string, error) {
	task := s.Registry.Begin(ctx, username)
	defer s.Registry.Remove(task)

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := s.Provider.Complete(task.Context(), prompt)
		ch <- result{text, err}
	}()

	select {
	case <-task.Done():
		return StopSentinel, nil
	case res := <-ch:
		if res.err != nil {
			if task.State() == genreg.Cancelled || errors.Is(res.err, context.Canceled) {
				return StopSentinel, nil
			}
			return "", fmt.Errorf("%w: %v", ErrGenerationFailed, res.err)
		}
		// Finish loses the race only when a cancel landed after the model
		// returned; honor the cancel.
		if !task.Finish() {
			return StopSentinel, nil
		}
		return res.text, nil
	}
}

// shouldAutoTitle reports whether the current title is a placeholder.
func (s *MessageService) shouldAutoTitle(current string) bool {
	t := strings.TrimSpace(strings.ToLower(current))
	return t == "" || t == strings.ToLower(DefaultSessionTitle)
}

// generateTitleFromPrompt derives a concise title from the prompt.
func (s *MessageService) generateTitleFromPrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ""
	}
	toks := titleWordRE.FindAllString(strings.ToLower(prompt), -1)
	if len(toks) == 0 {
		return ""
	}

	titleCaser := cases.Title(s.TitleLocaleOrDefault())
	out := make([]string, 0, 8)

	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, " ")
}

// clipTitle truncates a generated title to the configured maximum rune length.
func (s *MessageService) clipTitle(title string) string {
	max := s.TitleMaxLen
	if max <= 0 {
		max = 60
	}
	if utf8.RuneCountInString(title) > max {
		return string([]rune(title)[:max])
	}
	return title
}

// TitleLocaleOrDefault returns the configured locale for casing or English if unset.
func (s *MessageService) TitleLocaleOrDefault() language.Tag {
	if s.TitleLocale == language.Und {
		return language.English
	}
	return s.TitleLocale
}

// --- Title generation helpers ---

// Extract Unicode letters with optional trailing numbers (e.g., "llama3").
var titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// Minimal English stop-words set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
}
