// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for ManualChunk,
// the persisted form of product documentation fragments.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/auralabs/go-assistant-backend/internal/domain"
)

// CreateManualChunks inserts a batch of manual chunks (used by the ingestion
// collaborator). Empty batches are a no-op.
func CreateManualChunks(ctx context.Context, db *gorm.DB, chunks []domain.ManualChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range chunks {
		chunks[i].CreatedAt = now
	}
	return db.WithContext(ctx).Create(&chunks).Error
}

// ListManualChunks returns every stored chunk in (product, chunk index)
// order. Used at boot to rebuild the semantic index.
func ListManualChunks(ctx context.Context, db *gorm.DB) ([]domain.ManualChunk, error) {
	var out []domain.ManualChunk
	err := db.WithContext(ctx).
		Order("product_id ASC, chunk_index ASC").
		Find(&out).Error
	return out, err
}

// DeleteManualChunksByProduct removes every stored chunk for one product and
// returns the number of rows deleted.
func DeleteManualChunksByProduct(ctx context.Context, db *gorm.DB, productID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&domain.ManualChunk{})
	return res.RowsAffected, res.Error
}

// ListManualChunksByProduct returns the chunks for one product in index order.
func ListManualChunksByProduct(ctx context.Context, db *gorm.DB, productID string) ([]domain.ManualChunk, error) {
	var out []domain.ManualChunk
	err := db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("chunk_index ASC").
		Find(&out).Error
	return out, err
}
