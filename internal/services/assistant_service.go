// Package services – AssistantService
//
// AssistantService orchestrates one chat turn end to end: validate the
// message, extract entities, persist the user turn, route to a specialized
// handler, persist the reply, and hand back the response envelope. It is the
// only service the chat transport talks to.

package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/auralabs/go-assistant-backend/internal/domain"
	"github.com/auralabs/go-assistant-backend/internal/extract"
	"github.com/auralabs/go-assistant-backend/internal/memory"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const assistantErrorReply = "I apologize, but something went wrong while handling your message. " +
	"Please try again in a moment."

// ChatReply is the outcome of one processed turn.
type ChatReply struct {
	Message   string    `json:"message"`
	SessionID string    `json:"session_id"`
	Intent    Intent    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// AssistantService coordinates memory, extraction, and routing for the chat
// surface.
type AssistantService struct {
	Memory *memory.Memory
	Router *Router

	// MaxMessageRunes rejects oversized messages when > 0.
	MaxMessageRunes int
}

// ProcessMessage handles one user message and returns the assistant's reply.
// Validation failures return sentinel errors for the transport to map; after
// the user turn is persisted, downstream failures degrade to an apologetic
// reply instead of an error.
func (s *AssistantService) ProcessMessage(ctx context.Context, sessionID, message string) (*ChatReply, error) {
	tr := otel.Tracer("services/AssistantService")
	ctx, span := tr.Start(ctx, "ProcessMessage",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(message) > s.MaxMessageRunes {
		return nil, ErrMessageTooLong
	}

	entities := extract.ExtractEntities(message)
	var contextMap map[string]any
	if len(entities) > 0 {
		contextMap = make(map[string]any, len(entities))
		for kind, values := range entities {
			contextMap[kind] = values
		}
	}

	if _, err := s.Memory.Save(ctx, sessionID, domain.RoleUser, message, contextMap); err != nil {
		return nil, err
	}

	reply, intent := s.Router.Route(ctx, sessionID, message)
	if strings.TrimSpace(reply) == "" {
		reply = assistantErrorReply
	}

	saved, err := s.Memory.Save(ctx, sessionID, domain.RoleAssistant, reply, map[string]any{"intent": string(intent)})
	ts := time.Now().UTC()
	if err != nil {
		// The user already has an answer; losing the assistant turn from
		// memory is logged, not surfaced.
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to persist assistant reply")
	} else {
		ts = saved.CreatedAt
	}

	return &ChatReply{
		Message:   reply,
		SessionID: sessionID,
		Intent:    intent,
		Timestamp: ts,
	}, nil
}

// History returns a session's turns in ascending creation order, capped at
// limit (default 100).
func (s *AssistantService) History(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.Memory.RecentHistory(ctx, sessionID, limit)
}

// ClearHistory purges a session's memory.
func (s *AssistantService) ClearHistory(ctx context.Context, sessionID string) error {
	return s.Memory.Clear(ctx, sessionID)
}
