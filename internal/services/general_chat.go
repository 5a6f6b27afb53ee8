// Package services – GeneralChatService
//
// GeneralChatService handles conversation that touches neither products nor
// orders: a friendly persona with the recent history attached, no tools, no
// retrieval.

package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/auralabs/go-assistant-backend/internal/llm"
	"github.com/auralabs/go-assistant-backend/internal/memory"
)

const generalChatPrompt = `You are Aura, a friendly and helpful AI assistant for Aura Quiet Living,
an e-commerce platform selling high-quality electronic products.

Your role:
- Engage in friendly, natural conversations
- Answer general questions
- Provide helpful information when possible
- If the user asks about products or orders, politely guide them to ask specific questions

Guidelines:
- Be warm, friendly, and professional
- Keep responses concise but informative
- Adapt to the user's language naturally
- If you don't know something, admit it honestly
- Do not fabricate product or order information`

// GeneralChatService answers off-topic conversation.
type GeneralChatService struct {
	Memory *memory.Memory
	LLM    llm.Completer
}

// Reply produces a persona response with up to ten turns of context.
// Failures degrade to a generic but friendly line.
func (s *GeneralChatService) Reply(ctx context.Context, sessionID, message string) string {
	if strings.TrimSpace(message) == "" {
		return "I'm here to help! How can I assist you today?"
	}

	history, err := s.Memory.RecentHistory(ctx, sessionID, 10)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("history unavailable for general chat")
		history = nil
	}

	messages := append(historyMessages(history), llm.Message{Role: llm.RoleUser, Content: message})
	resp, err := s.LLM.Complete(ctx, llm.Request{System: generalChatPrompt, Messages: messages})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		log.Error().Err(err).Str("session_id", sessionID).Msg("general chat completion failed")
		return routingFallback
	}
	return resp.Content
}
