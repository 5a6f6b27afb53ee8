// Package services – Router
//
// Router classifies each inbound message into a fixed intent set with one
// completion call, then dispatches to the matching specialized handler. It
// is pure routing: no business logic lives here. Classification failures of
// any kind collapse to UNKNOWN, which falls back to general chat.

package services

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/auralabs/go-assistant-backend/internal/llm"
	"github.com/auralabs/go-assistant-backend/internal/memory"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Intent is the closed set of message classifications.
type Intent string

// Recognized intents.
const (
	IntentProductInquiry Intent = "PRODUCT_INQUIRY"
	IntentOrderService   Intent = "ORDER_SERVICE"
	IntentGeneralChat    Intent = "GENERAL_CHAT"
	IntentUnknown        Intent = "UNKNOWN"
)

// ParseIntent maps classifier output onto the intent set; anything
// unrecognized is UNKNOWN.
func ParseIntent(s string) Intent {
	switch Intent(strings.ToUpper(strings.TrimSpace(s))) {
	case IntentProductInquiry:
		return IntentProductInquiry
	case IntentOrderService:
		return IntentOrderService
	case IntentGeneralChat:
		return IntentGeneralChat
	default:
		return IntentUnknown
	}
}

const intentPrompt = `Classify the user's message into one of the following intents:

1. PRODUCT_INQUIRY: Questions about products, their features, prices, availability, or recommendations
2. ORDER_SERVICE: Questions about orders, shipping, returns, or customer service
3. GENERAL_CHAT: General conversation not related to products or orders
4. UNKNOWN: Cannot be classified into the above categories

User message: %MESSAGE%

Return only the intent name (one of the four options above) without any additional explanation.`

const routingFallback = "I apologize, but I'm having trouble processing your request right now. " +
	"Please try again or rephrase your question."

var intentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "assistant_intents_total",
		Help: "Messages classified, labeled by resulting intent.",
	},
	[]string{"intent"},
)

// Router classifies messages and dispatches to the specialized handlers.
type Router struct {
	Memory        *memory.Memory
	LLM           llm.Completer
	ProductExpert *RetrievalService
	OrderSupport  *CustomerService
	GeneralChat   *GeneralChatService
}

// Classify determines the intent of one message, using up to five recent
// turns as context. Blank messages are UNKNOWN without a completion call;
// completion failure is UNKNOWN as well.
func (r *Router) Classify(ctx context.Context, sessionID, message string) Intent {
	tr := otel.Tracer("services/Router")
	ctx, span := tr.Start(ctx, "Classify",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	if strings.TrimSpace(message) == "" {
		return IntentUnknown
	}

	history, err := r.Memory.RecentHistory(ctx, sessionID, 5)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("history unavailable for classification")
		history = nil
	}

	prompt := strings.Replace(intentPrompt, "%MESSAGE%", message, 1)
	messages := append(historyMessages(history), llm.Message{Role: llm.RoleUser, Content: prompt})

	resp, err := r.LLM.Complete(ctx, llm.Request{Messages: messages})
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("intent classification failed")
		return IntentUnknown
	}

	intent := ParseIntent(resp.Content)
	span.SetAttributes(attribute.String("intent", string(intent)))
	return intent
}

// Route classifies the message and hands it to the matching handler,
// returning the handler's reply and the classified intent. UNKNOWN falls
// back to general chat; a blank message gets a standing invitation instead.
func (r *Router) Route(ctx context.Context, sessionID, message string) (string, Intent) {
	if strings.TrimSpace(message) == "" {
		return "I'm here to help! Please tell me what you need.", IntentUnknown
	}

	intent := r.Classify(ctx, sessionID, message)
	intentsTotal.WithLabelValues(string(intent)).Inc()
	log.Info().
		Str("session_id", sessionID).
		Str("intent", string(intent)).
		Msg("message routed")

	switch intent {
	case IntentProductInquiry:
		return r.ProductExpert.Answer(ctx, sessionID, message), intent
	case IntentOrderService:
		return r.OrderSupport.Handle(ctx, sessionID, message), intent
	case IntentGeneralChat:
		return r.GeneralChat.Reply(ctx, sessionID, message), intent
	default:
		return r.GeneralChat.Reply(ctx, sessionID, message), intent
	}
}
