// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the durable
// conversation log (ChatMessage).
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/auralabs/go-assistant-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateChatMessage appends one message to a session's durable log. The ID is
// a randomly generated UUID (string) and CreatedAt is set to UTC.
func CreateChatMessage(ctx context.Context, db *gorm.DB, sessionID, role, content, contextJSON string) (*domain.ChatMessage, error) {
	m := &domain.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Context:   contextJSON,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListRecentMessages returns up to limit most-recent messages for a session
// in ascending creation order (oldest of the window first). A limit <= 0
// returns an empty slice.
func ListRecentMessages(ctx context.Context, db *gorm.DB, sessionID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return []domain.ChatMessage{}, nil
	}
	var out []domain.ChatMessage
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	// Query is newest-first for the LIMIT; callers want chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CountMessages returns the total number of messages stored for a session.
func CountMessages(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Count(&total).Error
	return total, err
}

// DeleteSessionMessages removes every durable-log row for the session and
// returns the number of rows deleted.
func DeleteSessionMessages(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&domain.ChatMessage{})
	return res.RowsAffected, res.Error
}
