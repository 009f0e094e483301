// Package push delivers notifications to registered devices through
// Firebase Cloud Messaging.
package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/uncleisme/mobile-app/internal/models"
)

var (
	ErrNoTokens = errors.New("no push tokens registered for target")
	ErrDisabled = errors.New("push delivery is not configured")
)

// MissingFieldsError reports which required message fields were empty.
type MissingFieldsError struct{ Fields []string }

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Message targets either every token of UserID or the single Token.
type Message struct {
	UserID *uuid.UUID        `json:"user_id,omitempty"`
	Token  string            `json:"token,omitempty"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

func (m Message) validate() error {
	var missing []string
	if strings.TrimSpace(m.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(m.Body) == "" {
		missing = append(missing, "body")
	}
	if m.UserID == nil && m.Token == "" {
		missing = append(missing, "user_id|token")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// Result is the upstream answer for one token.
type Result struct {
	Token  string `json:"token"`
	Status int    `json:"status"`
	Body   any    `json:"body,omitempty"`
}

type TokenStore interface {
	UpsertPushToken(ctx context.Context, t models.PushToken) error
	ListPushTokens(ctx context.Context, uid uuid.UUID) ([]string, error)
	DeletePushToken(ctx context.Context, token string) error
}

// Sender delivers to one device token.
type Sender interface {
	SendToken(ctx context.Context, token string, m Message) Result
}

type Service struct {
	tokens TokenStore
	sender Sender
}

// NewService returns a push service. A nil sender disables delivery.
func NewService(tokens TokenStore, sender Sender) *Service {
	return &Service{tokens: tokens, sender: sender}
}

func (s *Service) Enabled() bool { return s.sender != nil }

// RegisterToken stores the device token for userID, moving it from any
// previous owner.
func (s *Service) RegisterToken(ctx context.Context, userID uuid.UUID, token, platform string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return &MissingFieldsError{Fields: []string{"token"}}
	}
	if platform == "" {
		platform = "web"
	}
	if err := s.tokens.UpsertPushToken(ctx, models.PushToken{UserID: userID, Token: token, Platform: platform}); err != nil {
		return fmt.Errorf("register push token: %w", err)
	}
	return nil
}

// Send posts one message per target token and returns every upstream result.
func (s *Service) Send(ctx context.Context, m Message) ([]Result, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	if s.sender == nil {
		slog.DebugContext(ctx, "push disabled, dropping message", "title", m.Title)
		return nil, ErrDisabled
	}

	var targets []string
	if m.UserID != nil {
		toks, err := s.tokens.ListPushTokens(ctx, *m.UserID)
		if err != nil {
			return nil, fmt.Errorf("load push tokens: %w", err)
		}
		targets = toks
	} else {
		targets = []string{m.Token}
	}
	if len(targets) == 0 {
		return nil, ErrNoTokens
	}

	results := make([]Result, 0, len(targets))
	for _, tok := range targets {
		res := s.sender.SendToken(ctx, tok, m)
		if res.Status == http.StatusNotFound {
			// Unregistered device; stop targeting it.
			if err := s.tokens.DeletePushToken(ctx, tok); err != nil {
				slog.WarnContext(ctx, "delete stale push token failed", "err", err)
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// Notify pushes a stored notification to each recipient. Failures are logged.
func (s *Service) Notify(ctx context.Context, n models.Notification) {
	if s.sender == nil {
		slog.DebugContext(ctx, "push disabled, skipping notification", "id", n.ID.String())
		return
	}
	title := n.Module
	if title == "" {
		title = "Notification"
	}
	for _, uid := range n.Recipients {
		uid := uid
		_, err := s.Send(ctx, Message{
			UserID: &uid,
			Title:  title,
			Body:   n.Message,
			Data:   map[string]string{"notification_id": n.ID.String(), "action": n.Action, "entity_id": n.EntityID},
		})
		switch {
		case errors.Is(err, ErrNoTokens):
			slog.DebugContext(ctx, "recipient has no push tokens", "user_id", uid.String())
		case err != nil:
			slog.WarnContext(ctx, "push notify failed", "user_id", uid.String(), "err", err)
		}
	}
}
