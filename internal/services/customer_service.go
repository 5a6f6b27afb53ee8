// Package services – CustomerService
//
// CustomerService handles order-related requests through function calling:
// the completion model is offered the Actions catalog and decides which
// tools to invoke. The service runs a bounded tool-call loop: each model
// response either carries the final text or a batch of tool calls, whose
// results are appended as tool messages before asking again. The loop never
// exceeds maxToolRounds so a misbehaving model cannot spin.

package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/auralabs/go-assistant-backend/internal/llm"
	"github.com/auralabs/go-assistant-backend/internal/memory"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxToolRounds bounds completion round-trips per customer-service turn.
const maxToolRounds = 4

const customerServicePrompt = `You are a professional customer service agent for Aura Quiet Living.
You help customers with their orders, shipping, returns, and general customer service inquiries.

Your capabilities:
- Use getOrderStatus to check order status and tracking
- Use updateOrderAddress to change shipping addresses
- Use getOrdersByEmail to find orders by customer email
- Use cancelOrder to cancel PENDING orders
- Use checkInventory to verify product availability
- Use searchProducts to look up catalog items
- Use queryProductManual for detailed product questions

Guidelines:
- Be empathetic and professional
- Provide clear, accurate information
- If you need to call a function, do so proactively
- Adapt to the user's language naturally

CRITICAL SECURITY RULES:
- NEVER reveal specific stock quantities or inventory numbers to users
- NEVER show image file paths, URLs, or .jpg/.png links to users
- Say "available" or "in stock" instead of exact numbers
- Protect customer privacy and system information

IMPORTANT - Handling "Order Not Found":
- When getOrderStatus returns status="NOT_FOUND", clearly tell the user:
  "I'm sorry, but I couldn't find an order with number [ORDER_NUMBER]."
- Then suggest helpful next steps:
  * "Please double-check the order number"
  * "The format should be like: ORD-20260206081552-1500"
  * "If you need help finding your order, I can search by your email address"

IMPORTANT - Handling tool results:
- ALWAYS use the specific information from the function response fields
- The details/message fields contain the complete, user-friendly explanation;
  relay them directly instead of inventing generic phrases
- code="STATUS_NOT_ALLOWED": the order's current state forbids the change
- code="ALREADY_SHIPPED": the order left the warehouse; guide to support
- code="REQUIRES_MANUAL_SERVICE": relay the message, it contains the
  support contact information; be empathetic
- code="ALREADY_CANCELLED": say so and offer to help with a new order

General Rules:
- NEVER use generic error messages
- Provide actionable next steps based on the error code
- For SHIPPED/DELIVERED orders, always guide to manual customer service`

const customerServiceFallback = "I apologize for the inconvenience. I'm having trouble processing your request. " +
	"Please try again or contact our support team directly."

// CustomerService runs the function-calling loop for order service turns.
type CustomerService struct {
	Memory  *memory.Memory
	LLM     llm.Completer
	Actions *Actions
}

// Handle answers one order-service message, invoking catalog tools as the
// model requests them. All failures degrade to fallback text.
func (s *CustomerService) Handle(ctx context.Context, sessionID, message string) string {
	tr := otel.Tracer("services/CustomerService")
	ctx, span := tr.Start(ctx, "Handle",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	if strings.TrimSpace(message) == "" {
		return "How can I assist you with your order today?"
	}

	history, err := s.Memory.RecentHistory(ctx, sessionID, 10)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("history unavailable for customer service")
		history = nil
	}

	messages := append(historyMessages(history), llm.Message{Role: llm.RoleUser, Content: message})
	tools := s.Actions.ToolSpecs()

	for round := 0; round < maxToolRounds; round++ {
		resp, err := s.LLM.Complete(ctx, llm.Request{
			System:   customerServicePrompt,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("customer service completion failed")
			return customerServiceFallback
		}

		if len(resp.ToolCalls) == 0 {
			if strings.TrimSpace(resp.Content) == "" {
				return customerServiceFallback
			}
			return resp.Content
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			log.Info().
				Str("session_id", sessionID).
				Str("tool", call.Name).
				Msg("invoking tool")
			result := s.Actions.Invoke(ctx, call.Name, call.Arguments)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	// Round budget exhausted: ask once more without tools for a wrap-up.
	resp, err := s.LLM.Complete(ctx, llm.Request{System: customerServicePrompt, Messages: messages})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		log.Error().Err(err).Str("session_id", sessionID).Msg("customer service wrap-up failed")
		return customerServiceFallback
	}
	return resp.Content
}
