// Package services defines the business logic of the assistant: intent
// routing, retrieval-grounded answering, the order lifecycle, and the action
// functions exposed to the completion model. This file centralizes the
// service-level error values so they can be consistently returned by service
// methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes belongs in the
// handler layer; the action-function layer additionally maps these errors
// into structured result codes that are never surfaced as Go errors.
package services

import (
	"errors"
	"fmt"

	"github.com/auralabs/go-assistant-backend/internal/domain"
)

var (
	// ErrEmptyMessage is returned when an incoming chat message is blank
	// after trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when an incoming chat message exceeds
	// the configured length limit.
	ErrMessageTooLong = errors.New("message too long")

	// ErrOrderNotFound indicates that no order exists for the given order
	// number.
	ErrOrderNotFound = errors.New("order not found")

	// ErrProductNotFound indicates that no product exists for the given id.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when an order cannot be placed
	// because at least one line item exceeds the available stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrEmptyOrder is returned when an order placement request carries no
	// line items.
	ErrEmptyOrder = errors.New("order has no items")

	// ErrInvalidStatus is returned when a status string is not one of the
	// known order statuses.
	ErrInvalidStatus = errors.New("unknown order status")

	// ErrAlreadyShipped rejects a cancellation of an order that has left
	// the warehouse.
	ErrAlreadyShipped = errors.New("order already shipped")

	// ErrAlreadyDelivered rejects changes to a delivered order.
	ErrAlreadyDelivered = errors.New("order already delivered")

	// ErrAlreadyCancelled rejects changes to a cancelled order.
	ErrAlreadyCancelled = errors.New("order already cancelled")
)

// StatusNotAllowedError reports an order-status transition outside the
// allowed table. It carries both endpoints so handlers and action functions
// can explain the rejection.
type StatusNotAllowedError struct {
	From domain.OrderStatus
	To   domain.OrderStatus
}

func (e *StatusNotAllowedError) Error() string {
	return fmt.Sprintf("status transition %s -> %s not allowed", e.From, e.To)
}
