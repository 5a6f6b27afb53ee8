package services

import (
	"github.com/auralabs/go-assistant-backend/internal/domain"
	"github.com/auralabs/go-assistant-backend/internal/llm"
)

// historyMessages converts stored conversation turns into completion-wire
// messages, oldest first.
func historyMessages(history []domain.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(history)+1)
	for _, h := range history {
		role := llm.RoleUser
		if h.Role == domain.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: h.Content})
	}
	return out
}
