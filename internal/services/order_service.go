// Package services – OrderService
//
// OrderService owns the order lifecycle: placement with atomic stock
// decrements, the status transition state machine, compensating stock
// restoration on cancellation, and shipping-address edits. All multi-row
// writes run inside one transaction so a partial failure never leaves stock
// and orders disagreeing.
//
// Transition table (self-transition is always a no-op success):
//
//	PENDING    -> SHIPPED, CANCELLED
//	PROCESSING -> SHIPPED, CANCELLED
//	SHIPPED    -> DELIVERED       (CANCELLED rejected as "already shipped")
//	DELIVERED  -> nothing         (rejected as "already delivered")
//	CANCELLED  -> nothing         (rejected as "already cancelled")
//
// Everything else is a StatusNotAllowedError carrying both endpoints.

package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/auralabs/go-assistant-backend/internal/domain"
	"github.com/auralabs/go-assistant-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// deliveryEstimateDays is added to an order's creation time to produce the
// estimated delivery date reported to customers.
const deliveryEstimateDays = 5

// OrderService coordinates order placement and lifecycle transitions.
type OrderService struct {
	DB *gorm.DB
}

// PlaceOrderItem is one requested line of a new order.
type PlaceOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderRequest carries everything needed to create an order.
type PlaceOrderRequest struct {
	CustomerName    string           `json:"customer_name"`
	CustomerEmail   string           `json:"customer_email"`
	CustomerPhone   string           `json:"customer_phone"`
	ShippingAddress string           `json:"shipping_address"`
	Items           []PlaceOrderItem `json:"items"`
}

// PlaceOrder validates the request, loads every referenced product in one
// query, decrements stock per line, and creates the order with its items in
// one transaction. Any failure (unknown product, insufficient stock on any
// line) rolls the whole placement back with no stock mutated and no order
// created.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "PlaceOrder",
		trace.WithAttributes(attribute.Int("items", len(req.Items))),
	)
	defer span.End()

	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrEmptyOrder)
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return nil, fmt.Errorf("%w: shipping address is required", ErrEmptyOrder)
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" || item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: each item needs a product id and a positive quantity", ErrEmptyOrder)
		}
	}

	var order *domain.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]string, 0, len(req.Items))
		for _, item := range req.Items {
			ids = append(ids, item.ProductID)
		}
		products, err := repo.ListProductsByIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		byID := make(map[string]domain.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		items := make([]domain.OrderItem, 0, len(req.Items))
		var total float64

		for _, item := range req.Items {
			product, ok := byID[item.ProductID]
			if !ok {
				return fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
			}
			if err := repo.AdjustStock(ctx, tx, item.ProductID, -item.Quantity); err != nil {
				if err == repo.ErrInsufficientStock {
					return fmt.Errorf("%w: %s", ErrInsufficientStock, product.Name)
				}
				return err
			}

			subtotal := round2(product.Price * float64(item.Quantity))
			total += subtotal
			items = append(items, domain.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    item.Quantity,
				Price:       product.Price,
				Subtotal:    subtotal,
			})
		}

		order = &domain.Order{
			OrderNumber:     generateOrderNumber(),
			CustomerName:    req.CustomerName,
			CustomerEmail:   req.CustomerEmail,
			CustomerPhone:   req.CustomerPhone,
			ShippingAddress: req.ShippingAddress,
			TotalAmount:     round2(total),
			Status:          domain.StatusPending,
			Items:           items,
		}
		return repo.CreateOrder(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("order_number", order.OrderNumber).
		Float64("total", order.TotalAmount).
		Int("items", len(order.Items)).
		Msg("order placed")
	return order, nil
}

// GetByNumber returns an order with its items.
func (s *OrderService) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	o, err := repo.GetOrderByNumber(ctx, s.DB, orderNumber)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

// ListByEmail returns a customer's orders, most recent first.
func (s *OrderService) ListByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	return repo.ListOrdersByEmail(ctx, s.DB, email)
}

// EstimatedDelivery reports when an order should arrive.
func (s *OrderService) EstimatedDelivery(o *domain.Order) time.Time {
	return o.CreatedAt.AddDate(0, 0, deliveryEstimateDays)
}

// UpdateStatus applies one transition of the lifecycle state machine.
// Requesting the current status is a no-op success. Transitioning into
// CANCELLED restores stock for every item in the same transaction.
func (s *OrderService) UpdateStatus(ctx context.Context, orderNumber string, newStatus domain.OrderStatus) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "UpdateStatus",
		trace.WithAttributes(
			attribute.String("order.number", orderNumber),
			attribute.String("order.status", string(newStatus)),
		),
	)
	defer span.End()

	if _, ok := domain.ParseOrderStatus(string(newStatus)); !ok {
		return nil, ErrInvalidStatus
	}

	var order *domain.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := repo.GetOrderByNumber(ctx, tx, orderNumber)
		if err != nil {
			if err == repo.ErrNotFound {
				return ErrOrderNotFound
			}
			return err
		}
		order = o

		if o.Status == newStatus {
			return nil
		}
		if err := validateTransition(o.Status, newStatus); err != nil {
			return err
		}

		if err := repo.UpdateOrderStatus(ctx, tx, orderNumber, newStatus); err != nil {
			return err
		}
		if newStatus == domain.StatusCancelled {
			for _, item := range o.Items {
				if err := repo.AdjustStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
				log.Info().
					Str("order_number", orderNumber).
					Str("product_id", item.ProductID).
					Int("quantity", item.Quantity).
					Msg("stock restored")
			}
		}

		oldStatus := o.Status
		o.Status = newStatus
		log.Info().
			Str("order_number", orderNumber).
			Str("from", string(oldStatus)).
			Str("to", string(newStatus)).
			Msg("order status updated")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel transitions an order into CANCELLED, restoring stock.
func (s *OrderService) Cancel(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return s.UpdateStatus(ctx, orderNumber, domain.StatusCancelled)
}

// UpdateShippingAddress changes the delivery address. Permitted only while
// the order is PENDING or PROCESSING; afterwards the current status is
// reported in a StatusNotAllowedError.
func (s *OrderService) UpdateShippingAddress(ctx context.Context, orderNumber, newAddress string) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "UpdateShippingAddress",
		trace.WithAttributes(attribute.String("order.number", orderNumber)),
	)
	defer span.End()

	if strings.TrimSpace(newAddress) == "" {
		return nil, ErrEmptyMessage
	}

	o, err := s.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !o.Status.AddressEditable() {
		return nil, &StatusNotAllowedError{From: o.Status, To: o.Status}
	}

	if err := repo.UpdateShippingAddress(ctx, s.DB, orderNumber, newAddress); err != nil {
		return nil, err
	}
	o.ShippingAddress = newAddress
	log.Info().Str("order_number", orderNumber).Msg("shipping address updated")
	return o, nil
}

// validateTransition enforces the lifecycle table for from != to.
func validateTransition(from, to domain.OrderStatus) error {
	switch from {
	case domain.StatusPending, domain.StatusProcessing:
		if to == domain.StatusShipped || to == domain.StatusCancelled {
			return nil
		}
		return &StatusNotAllowedError{From: from, To: to}
	case domain.StatusShipped:
		if to == domain.StatusDelivered {
			return nil
		}
		if to == domain.StatusCancelled {
			return ErrAlreadyShipped
		}
		return &StatusNotAllowedError{From: from, To: to}
	case domain.StatusDelivered:
		return ErrAlreadyDelivered
	case domain.StatusCancelled:
		return ErrAlreadyCancelled
	default:
		return &StatusNotAllowedError{From: from, To: to}
	}
}

// generateOrderNumber builds "ORD-" + a 14-digit timestamp + "-" + a
// zero-padded 4-digit random suffix. Uniqueness is by construction; the
// unique index on order_number backstops the negligible collision chance.
func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%04d",
		time.Now().Format("20060102150405"),
		rand.Intn(10000))
}

// round2 rounds a monetary amount to 2 decimal places, half up.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
