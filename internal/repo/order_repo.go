// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Order
// aggregate (orders plus their line items).
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/auralabs/go-assistant-backend/internal/domain"
)

// CreateOrder inserts an order and its items in one cascade save. Timestamps
// are set to UTC; the caller supplies the generated order number and totals.
func CreateOrder(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	return db.WithContext(ctx).Create(order).Error
}

// GetOrderByNumber fetches an order with its items preloaded, or ErrNotFound.
func GetOrderByNumber(ctx context.Context, db *gorm.DB, orderNumber string) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Preload("Items").
		First(&o, "order_number = ?", orderNumber).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrdersByEmail returns all orders for a customer email, most recent
// first, items preloaded. An unknown email yields an empty slice.
func ListOrdersByEmail(ctx context.Context, db *gorm.DB, email string) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Preload("Items").
		Where("customer_email = ?", email).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// UpdateOrderStatus persists a status change. Transition validation belongs
// to the service layer; this only writes the new value.
func UpdateOrderStatus(ctx context.Context, db *gorm.DB, orderNumber string, status domain.OrderStatus) error {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("order_number = ?", orderNumber).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateShippingAddress persists a new shipping address for an order.
func UpdateShippingAddress(ctx context.Context, db *gorm.DB, orderNumber, address string) error {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("order_number = ?", orderNumber).
		Updates(map[string]any{"shipping_address": address, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
