// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Product
// model, including the sole stock mutator.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/auralabs/go-assistant-backend/internal/domain"
)

// ErrInsufficientStock is returned by AdjustStock when applying the delta
// would drive a product's stock below zero. The row is left unchanged.
var ErrInsufficientStock = errors.New("insufficient stock")

// GetProduct fetches a product by its ID, or ErrNotFound if missing.
func GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns the full catalog ordered by ID.
func ListProducts(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

// ListProductsByCategory returns the catalog entries in one category.
func ListProductsByCategory(ctx context.Context, db *gorm.DB, category string) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).Where("category = ?", category).Order("id ASC").Find(&out).Error
	return out, err
}

// ListProductsByIDs returns the products whose IDs appear in ids,
// ordered by ID. Unknown IDs are silently skipped.
func ListProductsByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	var out []domain.Product
	err := db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&out).Error
	return out, err
}

// AdjustStock applies delta to a product's stock as a single conditional
// UPDATE (compare-and-set), so concurrent adjustments on the same row cannot
// interleave a stale read-modify-write. A negative result is rejected with
// ErrInsufficientStock; a missing product yields ErrNotFound.
func AdjustStock(ctx context.Context, db *gorm.DB, productID string, delta int) error {
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND stock + ? >= 0", productID, delta).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Disambiguate: missing row vs. guard rejection.
		var n int64
		if err := db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", productID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}
