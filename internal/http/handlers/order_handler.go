// Package handlers – order endpoints.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/auralabs/go-assistant-backend/internal/domain"
	"github.com/auralabs/go-assistant-backend/internal/services"
)

// OrderAPI is the subset of the order service used by OrderHandler.
type OrderAPI interface {
	PlaceOrder(ctx context.Context, req services.PlaceOrderRequest) (*domain.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderNumber string, newStatus domain.OrderStatus) (*domain.Order, error)
	UpdateShippingAddress(ctx context.Context, orderNumber, newAddress string) (*domain.Order, error)
	EstimatedDelivery(o *domain.Order) time.Time
}

// OrderHandler serves the /orders endpoints.
type OrderHandler struct {
	Orders OrderAPI
}

// updateStatusRequest is the body of PUT /orders/:orderNumber/status.
type updateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"SHIPPED"`
}

// updateAddressRequest is the body of PUT /orders/:orderNumber/address.
type updateAddressRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required" example:"12 Willow Lane, Springfield"`
}

// orderItemResponse is one order line in API payloads.
type orderItemResponse struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Subtotal    float64 `json:"subtotal"`
}

// orderResponse is the order envelope returned by all order endpoints.
type orderResponse struct {
	OrderNumber       string              `json:"order_number"`
	CustomerName      string              `json:"customer_name"`
	CustomerEmail     string              `json:"customer_email,omitempty"`
	ShippingAddress   string              `json:"shipping_address"`
	Status            string              `json:"status"`
	TotalAmount       float64             `json:"total_amount"`
	TrackingNumber    string              `json:"tracking_number,omitempty"`
	EstimatedDelivery time.Time           `json:"estimated_delivery"`
	CreatedAt         time.Time           `json:"created_at"`
	Items             []orderItemResponse `json:"items"`
}

func (h *OrderHandler) toResponse(o *domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Subtotal:    it.Subtotal,
		})
	}
	return orderResponse{
		OrderNumber:       o.OrderNumber,
		CustomerName:      o.CustomerName,
		CustomerEmail:     o.CustomerEmail,
		ShippingAddress:   o.ShippingAddress,
		Status:            string(o.Status),
		TotalAmount:       o.TotalAmount,
		TrackingNumber:    o.TrackingNumber,
		EstimatedDelivery: h.Orders.EstimatedDelivery(o),
		CreatedAt:         o.CreatedAt,
		Items:             items,
	}
}

// failOrderError maps order service sentinels onto HTTP statuses.
func failOrderError(c *gin.Context, err error) {
	var notAllowed *services.StatusNotAllowedError
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		fail(c, http.StatusNotFound, ErrCodeOrderNotFound, "order not found")
	case errors.Is(err, services.ErrProductNotFound):
		fail(c, http.StatusNotFound, ErrCodeProductNotFound, "product not found")
	case errors.Is(err, services.ErrInsufficientStock):
		fail(c, http.StatusConflict, ErrCodeOutOfStock, err.Error())
	case errors.Is(err, services.ErrEmptyOrder):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown order status")
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "shipping address must not be empty")
	case errors.Is(err, services.ErrAlreadyShipped):
		fail(c, http.StatusConflict, ErrCodeStatusNotAllowed, "order has already shipped")
	case errors.Is(err, services.ErrAlreadyDelivered):
		fail(c, http.StatusConflict, ErrCodeStatusNotAllowed, "order has already been delivered")
	case errors.Is(err, services.ErrAlreadyCancelled):
		fail(c, http.StatusConflict, ErrCodeStatusNotAllowed, "order has already been cancelled")
	case errors.As(err, &notAllowed):
		fail(c, http.StatusConflict, ErrCodeStatusNotAllowed, notAllowed.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeOrderFailed, "order operation failed")
	}
}

// PlaceOrder godoc
//
//	@Summary      Place an order
//	@Description  Creates an order, decrementing stock atomically.
//	@Tags         orders
//	@Accept       json
//	@Produce      json
//	@Param        payload  body      services.PlaceOrderRequest  true  "Order payload"
//	@Success      201      {object}  orderResponse
//	@Failure      400      {object}  ErrorResponse
//	@Failure      404      {object}  ErrorResponse
//	@Failure      409      {object}  ErrorResponse
//	@Router       /orders [post]
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req services.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	order, err := h.Orders.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		failOrderError(c, err)
		return
	}
	ok(c, http.StatusCreated, h.toResponse(order))
}

// GetOrder godoc
//
//	@Summary  Get an order by number
//	@Tags     orders
//	@Produce  json
//	@Param    orderNumber  path      string  true  "Order number"
//	@Success  200          {object}  orderResponse
//	@Failure  404          {object}  ErrorResponse
//	@Router   /orders/{orderNumber} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.Orders.GetByNumber(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		failOrderError(c, err)
		return
	}
	ok(c, http.StatusOK, h.toResponse(order))
}

// ListOrders godoc
//
//	@Summary  List orders for a customer email
//	@Tags     orders
//	@Produce  json
//	@Param    email  query     string  true  "Customer email"
//	@Success  200    {object}  map[string]any
//	@Failure  400    {object}  ErrorResponse
//	@Router   /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email query parameter is required")
		return
	}

	orders, err := h.Orders.ListByEmail(c.Request.Context(), email)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeOrderFailed, "failed to list orders")
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, h.toResponse(&orders[i]))
	}
	ok(c, http.StatusOK, gin.H{"orders": out, "count": len(out)})
}

// UpdateStatus godoc
//
//	@Summary      Update order status
//	@Description  Applies one lifecycle transition. Requesting the current status is a no-op.
//	@Tags         orders
//	@Accept       json
//	@Produce      json
//	@Param        orderNumber  path      string               true  "Order number"
//	@Param        payload      body      updateStatusRequest  true  "New status"
//	@Success      200          {object}  orderResponse
//	@Failure      400          {object}  ErrorResponse
//	@Failure      404          {object}  ErrorResponse
//	@Failure      409          {object}  ErrorResponse
//	@Router       /orders/{orderNumber}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	status, okParse := domain.ParseOrderStatus(req.Status)
	if !okParse {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown order status")
		return
	}

	order, err := h.Orders.UpdateStatus(c.Request.Context(), c.Param("orderNumber"), status)
	if err != nil {
		failOrderError(c, err)
		return
	}
	ok(c, http.StatusOK, h.toResponse(order))
}

// UpdateAddress godoc
//
//	@Summary      Update shipping address
//	@Description  Changes the delivery address while the order has not shipped.
//	@Tags         orders
//	@Accept       json
//	@Produce      json
//	@Param        orderNumber  path      string                true  "Order number"
//	@Param        payload      body      updateAddressRequest  true  "New address"
//	@Success      200          {object}  orderResponse
//	@Failure      400          {object}  ErrorResponse
//	@Failure      404          {object}  ErrorResponse
//	@Failure      409          {object}  ErrorResponse
//	@Router       /orders/{orderNumber}/address [put]
func (h *OrderHandler) UpdateAddress(c *gin.Context) {
	var req updateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	order, err := h.Orders.UpdateShippingAddress(c.Request.Context(), c.Param("orderNumber"), req.ShippingAddress)
	if err != nil {
		failOrderError(c, err)
		return
	}
	ok(c, http.StatusOK, h.toResponse(order))
}
