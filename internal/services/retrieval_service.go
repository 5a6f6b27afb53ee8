// Package services – RetrievalService
//
// RetrievalService answers product questions by blending two sources: a
// structured keyword search over the catalog and a semantic search over the
// indexed product-manual chunks. Both results are handed to the completion
// service as grounding context; the model decides which source answers the
// question. Anaphoric queries ("how much is it") are rewritten with product
// keywords mined from recent turns before either search runs.
//
// Every failure path degrades to safe fallback text. A retrieval or
// completion error never propagates to the caller as a Go error from Answer.

package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/auralabs/go-assistant-backend/internal/domain"
	"github.com/auralabs/go-assistant-backend/internal/extract"
	"github.com/auralabs/go-assistant-backend/internal/llm"
	"github.com/auralabs/go-assistant-backend/internal/memory"
	"github.com/auralabs/go-assistant-backend/internal/repo"
	"github.com/auralabs/go-assistant-backend/internal/vector"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const productExpertPrompt = `You are a professional e-commerce product expert for Aura Quiet Living. Answer user questions based on the following information:
1. Product Info: %PRODUCT_INFO%
2. Product Manual: %MANUAL_CONTEXT%

Requirements:
- Be concise and accurate
- Use conversation history to understand context (e.g., "it", "that product", etc.)
- Provide detailed information when asked
- If no information is available, clearly state so
- Do not fabricate content
- Adapt to the user's language naturally

CRITICAL SECURITY RULES:
- NEVER reveal specific stock quantities or inventory numbers to users
- NEVER show image file paths, URLs, or .jpg/.png links to users
- Say "available" or "in stock" instead of exact numbers like "50 units"
- Focus on product features and benefits, not internal data`

const manualQueryPrompt = `You answer questions strictly from the product manual excerpts below. If the excerpts do not contain the answer, say the manual does not cover it. Never invent specifications.

Manual excerpts:
%MANUAL_CONTEXT%`

const productInquiryFallback = "Sorry, an error occurred while processing your inquiry. Please try again later."

// RetrievalService composes grounded answers to product questions.
type RetrievalService struct {
	Memory   *memory.Memory
	Products *ProductService
	Manuals  *vector.Store
	LLM      llm.Completer

	// Semantic search tunables.
	TopK      int
	Threshold float64
}

// Answer handles one product inquiry: resolve context, search both sources,
// and ask the completion service with the conversation history attached.
// Failures degrade to fallback text, never an error.
func (s *RetrievalService) Answer(ctx context.Context, sessionID, question string) string {
	tr := otel.Tracer("services/RetrievalService")
	ctx, span := tr.Start(ctx, "Answer",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	if strings.TrimSpace(question) == "" {
		return "Sorry, product inquiry question cannot be empty. Please provide a question."
	}

	history, err := s.Memory.RecentHistory(ctx, sessionID, 10)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("history unavailable for inquiry")
		history = nil
	}

	enhanced := question
	if extract.IsContextual(question) {
		enhanced = extract.Resolve(question, history)
		if enhanced != question {
			log.Info().Str("query", question).Str("enhanced", enhanced).Msg("contextual query resolved")
		}
	}

	products, err := s.Products.Search(ctx, enhanced)
	if err != nil {
		log.Error().Err(err).Msg("product search failed")
		products = nil
	}
	productJSON, err := json.Marshal(products)
	if err != nil {
		productJSON = []byte("[]")
	}

	manualContext := s.manualContext(enhanced, "")

	system := strings.NewReplacer(
		"%PRODUCT_INFO%", string(productJSON),
		"%MANUAL_CONTEXT%", manualContext,
	).Replace(productExpertPrompt)

	messages := append(historyMessages(history), llm.Message{Role: llm.RoleUser, Content: question})
	resp, err := s.LLM.Complete(ctx, llm.Request{System: system, Messages: messages})
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("product inquiry completion failed")
		return productInquiryFallback
	}
	if strings.TrimSpace(resp.Content) == "" {
		return productInquiryFallback
	}
	return resp.Content
}

// AnswerFromManual answers a question against one product's manual only.
// When no chunk clears the similarity threshold it returns "", nil so the
// caller can report the manual as unavailable.
func (s *RetrievalService) AnswerFromManual(ctx context.Context, productID, question string) (string, error) {
	tr := otel.Tracer("services/RetrievalService")
	ctx, span := tr.Start(ctx, "AnswerFromManual",
		trace.WithAttributes(attribute.String("product.id", productID)),
	)
	defer span.End()

	var filter map[string]string
	if productID != "" {
		filter = map[string]string{"productId": productID}
	}
	results := s.Manuals.Search(question, s.topK(), s.Threshold, filter)
	if len(results) == 0 {
		return "", nil
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(r.Text)
	}
	excerpts := b.String()

	system := strings.Replace(manualQueryPrompt, "%MANUAL_CONTEXT%", excerpts, 1)
	resp, err := s.LLM.Complete(ctx, llm.Request{
		System:   system,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: question}},
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		// The excerpts themselves are still a usable answer.
		log.Warn().Err(err).Str("product_id", productID).Msg("manual answer completion failed, returning excerpts")
		return excerpts, nil
	}
	return resp.Content, nil
}

// IndexManuals loads every persisted manual chunk into the semantic store.
// Called at boot so the index survives restarts of the in-memory store.
func (s *RetrievalService) IndexManuals(ctx context.Context, db *gorm.DB) (int, error) {
	chunks, err := repo.ListManualChunks(ctx, db)
	if err != nil {
		return 0, err
	}
	for _, c := range chunks {
		s.indexChunk(c)
	}
	log.Info().Int("chunks", len(chunks)).Msg("manual chunks indexed")
	return len(chunks), nil
}

// IndexChunks replaces the stored manual for every product in the batch:
// existing durable rows for those products are dropped, the new chunks are
// persisted, and the live index entries are rebuilt from the durable rows.
// Re-ingesting a manual therefore never leaves stale or duplicate entries.
func (s *RetrievalService) IndexChunks(ctx context.Context, db *gorm.DB, chunks []domain.ManualChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	affected := make([]string, 0, 1)
	seen := make(map[string]bool, 1)
	for _, c := range chunks {
		if !seen[c.ProductID] {
			seen[c.ProductID] = true
			affected = append(affected, c.ProductID)
		}
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range affected {
			if _, err := repo.DeleteManualChunksByProduct(ctx, tx, id); err != nil {
				return err
			}
		}
		return repo.CreateManualChunks(ctx, tx, chunks)
	})
	if err != nil {
		return err
	}

	for _, id := range affected {
		if _, err := s.ReindexProduct(ctx, db, id); err != nil {
			return err
		}
	}
	return nil
}

// ReindexProduct swaps one product's live index entries for the chunks
// currently persisted for it and reports how many were indexed.
func (s *RetrievalService) ReindexProduct(ctx context.Context, db *gorm.DB, productID string) (int, error) {
	chunks, err := repo.ListManualChunksByProduct(ctx, db, productID)
	if err != nil {
		return 0, err
	}
	s.Manuals.RemoveWhere(map[string]string{"productId": productID})
	for _, c := range chunks {
		s.indexChunk(c)
	}
	return len(chunks), nil
}

func (s *RetrievalService) indexChunk(c domain.ManualChunk) {
	s.Manuals.Add(c.Content, map[string]string{
		"productId": c.ProductID,
		"source":    "product_manual",
	})
}

// manualContext joins the top-scoring manual chunks for a query into one
// grounding block. Empty when nothing clears the threshold.
func (s *RetrievalService) manualContext(query, productID string) string {
	var filter map[string]string
	if productID != "" {
		filter = map[string]string{"productId": productID}
	}
	results := s.Manuals.Search(query, s.topK(), s.Threshold, filter)
	if len(results) == 0 {
		return "(no manual excerpts matched)"
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, "\n---\n")
}

func (s *RetrievalService) topK() int {
	if s.TopK <= 0 {
		return 5
	}
	return s.TopK
}
