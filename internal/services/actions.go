// Package services – Actions
//
// Actions is the fixed catalog of operations the completion model may invoke
// while handling a customer-service turn. Each function wraps an
// OrderService / ProductService / manual-retrieval call behind a uniform
// request/response contract with a closed code vocabulary:
//
//	NOT_FOUND, STATUS_NOT_ALLOWED, ALREADY_SHIPPED, ALREADY_DELIVERED,
//	ALREADY_CANCELLED, REQUIRES_MANUAL_SERVICE, VALIDATION_ERROR,
//	SYSTEM_ERROR
//
// Action functions never return Go errors past this boundary. Every failure
// becomes a tagged response with a specific, actionable message so the model
// can relay accurate guidance instead of a generic apology.

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/auralabs/go-assistant-backend/internal/domain"
	"github.com/auralabs/go-assistant-backend/internal/llm"
)

// Action result codes.
const (
	CodeOK                    = "OK"
	CodeOrderCancelled        = "ORDER_CANCELLED"
	CodeNotFound              = "NOT_FOUND"
	CodeStatusNotAllowed      = "STATUS_NOT_ALLOWED"
	CodeAlreadyShipped        = "ALREADY_SHIPPED"
	CodeAlreadyDelivered      = "ALREADY_DELIVERED"
	CodeAlreadyCancelled      = "ALREADY_CANCELLED"
	CodeRequiresManualService = "REQUIRES_MANUAL_SERVICE"
	CodeValidationError       = "VALIDATION_ERROR"
	CodeSystemError           = "SYSTEM_ERROR"
)

const supportContact = "support@aura.com or 1-800-AURA-HELP"

// Tool names in the catalog.
const (
	ToolGetOrderStatus     = "getOrderStatus"
	ToolUpdateOrderAddress = "updateOrderAddress"
	ToolCancelOrder        = "cancelOrder"
	ToolCheckInventory     = "checkInventory"
	ToolGetOrdersByEmail   = "getOrdersByEmail"
	ToolQueryProductManual = "queryProductManual"
	ToolSearchProducts     = "searchProducts"
)

// ManualAnswerer answers a free-form question from one product's manual.
// Implemented by RetrievalService.
type ManualAnswerer interface {
	AnswerFromManual(ctx context.Context, productID, question string) (string, error)
}

// Actions bundles the services the tool catalog dispatches into.
type Actions struct {
	Orders   *OrderService
	Products *ProductService
	Manuals  ManualAnswerer
}

// ---- request/response payloads (camelCase: these cross the model wire) ----

// OrderStatusRequest asks for one order's status.
type OrderStatusRequest struct {
	OrderNumber string `json:"orderNumber"`
}

// OrderStatusResponse reports lifecycle state and delivery info. Status is
// "NOT_FOUND" when the order number matches nothing.
type OrderStatusResponse struct {
	OrderNumber       string `json:"orderNumber"`
	Status            string `json:"status"`
	TrackingNumber    string `json:"trackingNumber,omitempty"`
	EstimatedDelivery string `json:"estimatedDelivery,omitempty"`
	Message           string `json:"message"`
}

// UpdateAddressRequest changes where an order ships.
type UpdateAddressRequest struct {
	OrderNumber string `json:"orderNumber"`
	NewAddress  string `json:"newAddress"`
}

// UpdateAddressResponse reports the outcome of an address change. Details
// carries the current order status when the change is rejected for state.
type UpdateAddressResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Details string `json:"details"`
}

// CancelOrderRequest cancels an order, with an optional customer reason.
type CancelOrderRequest struct {
	OrderNumber string `json:"orderNumber"`
	Reason      string `json:"reason,omitempty"`
}

// CancelOrderResponse reports the outcome of a cancellation.
type CancelOrderResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InventoryRequest checks one product's availability.
type InventoryRequest struct {
	ProductID string `json:"productId"`
}

// InventoryResponse carries the raw stock count for the agent's internal
// reasoning. The calling agent must surface only Available to end users,
// never the count itself.
type InventoryResponse struct {
	ProductID string `json:"productId"`
	Stock     int    `json:"stock"`
	Available bool   `json:"available"`
}

// OrdersByEmailRequest lists a customer's orders.
type OrdersByEmailRequest struct {
	Email string `json:"email"`
}

// OrderSummary is one order in an email lookup result.
type OrderSummary struct {
	OrderNumber     string  `json:"orderNumber"`
	Status          string  `json:"status"`
	TotalAmount     float64 `json:"totalAmount"`
	CreatedAt       string  `json:"createdAt"`
	ShippingAddress string  `json:"shippingAddress"`
}

// OrdersByEmailResponse lists order summaries for an email address.
type OrdersByEmailResponse struct {
	Email   string         `json:"email"`
	Orders  []OrderSummary `json:"orders"`
	Message string         `json:"message"`
}

// ManualQueryRequest asks a question against one product's manual.
type ManualQueryRequest struct {
	ProductID string `json:"productId"`
	Question  string `json:"question"`
}

// ManualQueryResponse carries the grounded answer and its source tag.
type ManualQueryResponse struct {
	Answer string `json:"answer"`
	Source string `json:"source"`
}

// ProductSearchRequest searches the catalog by keyword or category.
type ProductSearchRequest struct {
	Keyword  string `json:"keyword,omitempty"`
	Category string `json:"category,omitempty"`
}

// ProductInfo is one catalog hit. Stock is deliberately absent.
type ProductInfo struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

// ProductSearchResponse lists catalog hits.
type ProductSearchResponse struct {
	Products []ProductInfo `json:"products"`
}

// ---- the functions ----

// GetOrderStatus looks up an order and reports its lifecycle state, tracking
// number, and estimated delivery (placement time plus five days).
func (a *Actions) GetOrderStatus(ctx context.Context, req OrderStatusRequest) OrderStatusResponse {
	order, err := a.Orders.GetByNumber(ctx, req.OrderNumber)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return OrderStatusResponse{
				OrderNumber: req.OrderNumber,
				Status:      CodeNotFound,
				Message: fmt.Sprintf("No order found with number %s. Please double-check the number; "+
					"it should look like ORD-20260206081552-1500. I can also look up orders by email address.",
					req.OrderNumber),
			}
		}
		log.Error().Err(err).Str("order_number", req.OrderNumber).Msg("order status lookup failed")
		return OrderStatusResponse{
			OrderNumber: req.OrderNumber,
			Status:      CodeSystemError,
			Message:     "Something went wrong while looking up this order. Please try again in a moment.",
		}
	}
	return OrderStatusResponse{
		OrderNumber:       order.OrderNumber,
		Status:            string(order.Status),
		TrackingNumber:    order.TrackingNumber,
		EstimatedDelivery: a.Orders.EstimatedDelivery(order).Format(time.RFC3339),
		Message:           fmt.Sprintf("Order %s is currently %s.", order.OrderNumber, order.Status),
	}
}

// UpdateOrderAddress changes an order's shipping address. Permitted only
// while the order is PENDING or PROCESSING; the rejection details carry the
// order's current status.
func (a *Actions) UpdateOrderAddress(ctx context.Context, req UpdateAddressRequest) UpdateAddressResponse {
	if req.OrderNumber == "" || req.NewAddress == "" {
		return UpdateAddressResponse{
			Success: false,
			Code:    CodeValidationError,
			Details: "Both the order number and the new address are required.",
		}
	}

	_, err := a.Orders.UpdateShippingAddress(ctx, req.OrderNumber, req.NewAddress)
	switch {
	case err == nil:
		return UpdateAddressResponse{
			Success: true,
			Code:    CodeOK,
			Details: fmt.Sprintf("The shipping address for order %s has been updated to: %s", req.OrderNumber, req.NewAddress),
		}
	case errors.Is(err, ErrOrderNotFound):
		return UpdateAddressResponse{
			Success: false,
			Code:    CodeNotFound,
			Details: fmt.Sprintf("No order found with number %s. Please double-check the order number.", req.OrderNumber),
		}
	case errors.Is(err, ErrEmptyMessage):
		return UpdateAddressResponse{
			Success: false,
			Code:    CodeValidationError,
			Details: "The new address cannot be empty.",
		}
	default:
		var statusErr *StatusNotAllowedError
		if errors.As(err, &statusErr) {
			return UpdateAddressResponse{
				Success: false,
				Code:    CodeStatusNotAllowed,
				Details: fmt.Sprintf("%s: the shipping address for order %s can no longer be changed. "+
					"Only PENDING or PROCESSING orders can be modified. For shipped orders contact %s.",
					statusErr.From, req.OrderNumber, supportContact),
			}
		}
		log.Error().Err(err).Str("order_number", req.OrderNumber).Msg("address update failed")
		return UpdateAddressResponse{
			Success: false,
			Code:    CodeSystemError,
			Details: fmt.Sprintf("An unexpected error occurred while updating the address for order %s. Please try again.", req.OrderNumber),
		}
	}
}

// CancelOrder cancels an order and releases its stock. Shipped orders are
// rejected with ALREADY_SHIPPED guidance; delivered orders need a human
// (returns, not cancellations) and escalate with REQUIRES_MANUAL_SERVICE.
func (a *Actions) CancelOrder(ctx context.Context, req CancelOrderRequest) CancelOrderResponse {
	if req.OrderNumber == "" {
		return CancelOrderResponse{
			Success: false,
			Code:    CodeValidationError,
			Message: "Please provide a valid order number.",
		}
	}

	_, err := a.Orders.Cancel(ctx, req.OrderNumber)
	switch {
	case err == nil:
		return CancelOrderResponse{
			Success: true,
			Code:    CodeOrderCancelled,
			Message: fmt.Sprintf("Your order %s has been cancelled. The payment will be refunded within "+
				"3-5 business days and any reserved stock has been released.", req.OrderNumber),
		}
	case errors.Is(err, ErrOrderNotFound):
		return CancelOrderResponse{
			Success: false,
			Code:    CodeNotFound,
			Message: fmt.Sprintf("No order found with number %s. Please double-check the order number; "+
				"it should look like ORD-20260206081552-1500.", req.OrderNumber),
		}
	case errors.Is(err, ErrAlreadyShipped):
		return CancelOrderResponse{
			Success: false,
			Code:    CodeAlreadyShipped,
			Message: fmt.Sprintf("Order %s has already been shipped and cannot be cancelled automatically. "+
				"Please contact %s for return or exchange options.", req.OrderNumber, supportContact),
		}
	case errors.Is(err, ErrAlreadyDelivered):
		return CancelOrderResponse{
			Success: false,
			Code:    CodeRequiresManualService,
			Message: fmt.Sprintf("Order %s has already been delivered, so a cancellation is no longer possible. "+
				"To arrange a return, please contact %s.", req.OrderNumber, supportContact),
		}
	case errors.Is(err, ErrAlreadyCancelled):
		return CancelOrderResponse{
			Success: false,
			Code:    CodeAlreadyCancelled,
			Message: fmt.Sprintf("Order %s has already been cancelled. If you need the products, please place a new order.", req.OrderNumber),
		}
	default:
		var statusErr *StatusNotAllowedError
		if errors.As(err, &statusErr) {
			return CancelOrderResponse{
				Success: false,
				Code:    CodeStatusNotAllowed,
				Message: fmt.Sprintf("Order %s cannot be cancelled from its current status (%s).", req.OrderNumber, statusErr.From),
			}
		}
		log.Error().Err(err).Str("order_number", req.OrderNumber).Msg("order cancellation failed")
		return CancelOrderResponse{
			Success: false,
			Code:    CodeSystemError,
			Message: fmt.Sprintf("An unexpected error occurred while cancelling order %s. Please try again or contact %s.",
				req.OrderNumber, supportContact),
		}
	}
}

// CheckInventory reports whether a product is in stock. A missing product
// reads as zero stock, unavailable.
func (a *Actions) CheckInventory(ctx context.Context, req InventoryRequest) InventoryResponse {
	product, _, err := a.Products.CheckInventory(ctx, req.ProductID)
	if err != nil {
		return InventoryResponse{ProductID: req.ProductID, Stock: 0, Available: false}
	}
	return InventoryResponse{
		ProductID: req.ProductID,
		Stock:     product.Stock,
		Available: product.Stock > 0,
	}
}

// GetOrdersByEmail lists every order placed under an email address.
func (a *Actions) GetOrdersByEmail(ctx context.Context, req OrdersByEmailRequest) OrdersByEmailResponse {
	orders, err := a.Orders.ListByEmail(ctx, req.Email)
	if err != nil {
		log.Error().Err(err).Msg("orders-by-email lookup failed")
		return OrdersByEmailResponse{
			Email:   req.Email,
			Orders:  []OrderSummary{},
			Message: "Something went wrong while looking up orders for this email. Please try again.",
		}
	}
	if len(orders) == 0 {
		return OrdersByEmailResponse{
			Email:   req.Email,
			Orders:  []OrderSummary{},
			Message: "No orders found for this email",
		}
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		summaries = append(summaries, OrderSummary{
			OrderNumber:     o.OrderNumber,
			Status:          string(o.Status),
			TotalAmount:     o.TotalAmount,
			CreatedAt:       o.CreatedAt.Format(time.RFC3339),
			ShippingAddress: o.ShippingAddress,
		})
	}
	return OrdersByEmailResponse{
		Email:   req.Email,
		Orders:  summaries,
		Message: fmt.Sprintf("Found %d order(s) for this email", len(orders)),
	}
}

// QueryProductManual answers a question from a product's manual chunks.
func (a *Actions) QueryProductManual(ctx context.Context, req ManualQueryRequest) ManualQueryResponse {
	answer, err := a.Manuals.AnswerFromManual(ctx, req.ProductID, req.Question)
	if err != nil || answer == "" {
		return ManualQueryResponse{
			Answer: "There is currently no product manual available.",
			Source: "product_manual",
		}
	}
	return ManualQueryResponse{Answer: answer, Source: "product_manual"}
}

// SearchProducts finds catalog entries by keyword, falling back to category
// and finally the whole catalog. Stock levels are never included.
func (a *Actions) SearchProducts(ctx context.Context, req ProductSearchRequest) ProductSearchResponse {
	var (
		products []domain.Product
		err      error
	)
	switch {
	case req.Keyword != "":
		products, err = a.Products.Search(ctx, req.Keyword)
	case req.Category != "":
		products, err = a.Products.ListByCategory(ctx, req.Category)
	default:
		products, err = a.Products.List(ctx)
	}
	if err != nil {
		log.Error().Err(err).Msg("product search failed")
		return ProductSearchResponse{Products: []ProductInfo{}}
	}

	infos := make([]ProductInfo, 0, len(products))
	for _, p := range products {
		infos = append(infos, ProductInfo{ID: p.ID, Name: p.Name, Price: p.Price, Category: p.Category})
	}
	return ProductSearchResponse{Products: infos}
}

// ---- model-facing catalog ----

// ToolSpecs describes the catalog in the shape the completion service
// expects for function calling.
func (a *Actions) ToolSpecs() []llm.ToolSpec {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	obj := func(required []string, props map[string]any) map[string]any {
		return map[string]any{"type": "object", "properties": props, "required": required}
	}
	return []llm.ToolSpec{
		{
			Name:        ToolGetOrderStatus,
			Description: "Get order status and tracking information by order number",
			Parameters: obj([]string{"orderNumber"}, map[string]any{
				"orderNumber": str("Order number, e.g. ORD-20260206081552-1500"),
			}),
		},
		{
			Name:        ToolUpdateOrderAddress,
			Description: "Update the shipping address for an existing order. Only PENDING or PROCESSING orders can be modified.",
			Parameters: obj([]string{"orderNumber", "newAddress"}, map[string]any{
				"orderNumber": str("Order number"),
				"newAddress":  str("Complete new shipping address"),
			}),
		},
		{
			Name:        ToolCancelOrder,
			Description: "Cancel a pending order. Shipped or delivered orders cannot be cancelled automatically; guide the customer to support.",
			Parameters: obj([]string{"orderNumber"}, map[string]any{
				"orderNumber": str("Order number"),
				"reason":      str("Optional customer-provided reason"),
			}),
		},
		{
			Name:        ToolCheckInventory,
			Description: "Check product inventory availability. Tell the customer only whether the product is available, never the exact stock count.",
			Parameters: obj([]string{"productId"}, map[string]any{
				"productId": str("Product id, e.g. P-1024"),
			}),
		},
		{
			Name:        ToolGetOrdersByEmail,
			Description: "Find all orders for a customer by their email address",
			Parameters: obj([]string{"email"}, map[string]any{
				"email": str("Customer email address"),
			}),
		},
		{
			Name:        ToolQueryProductManual,
			Description: "Query a product manual for detailed specifications and instructions",
			Parameters: obj([]string{"productId", "question"}, map[string]any{
				"productId": str("Product id"),
				"question":  str("The customer's question about the product"),
			}),
		},
		{
			Name:        ToolSearchProducts,
			Description: "Search products by keyword or category",
			Parameters: obj(nil, map[string]any{
				"keyword":  str("Free-text search keyword"),
				"category": str("Exact category name"),
			}),
		},
	}
}

// Invoke dispatches one model-requested tool call by name. The rawArgs are
// the model's JSON arguments; malformed arguments or an unknown tool produce
// a tagged error payload, never a Go error.
func (a *Actions) Invoke(ctx context.Context, name, rawArgs string) string {
	if rawArgs == "" {
		rawArgs = "{}"
	}
	unmarshal := func(v any) bool {
		if err := json.Unmarshal([]byte(rawArgs), v); err != nil {
			log.Warn().Err(err).Str("tool", name).Msg("malformed tool arguments")
			return false
		}
		return true
	}
	badArgs := llm.MarshalArgs(map[string]string{
		"code":    CodeValidationError,
		"message": "The tool arguments could not be parsed.",
	})

	switch name {
	case ToolGetOrderStatus:
		var req OrderStatusRequest
		if !unmarshal(&req) {
			return badArgs
		}
		return llm.MarshalArgs(a.GetOrderStatus(ctx, req))
	case ToolUpdateOrderAddress:
		var req UpdateAddressRequest
		if !unmarshal(&req) {
			return badArgs
		}
		return llm.MarshalArgs(a.UpdateOrderAddress(ctx, req))
	case ToolCancelOrder:
		var req CancelOrderRequest
		if !unmarshal(&req) {
			return badArgs
		}
		return llm.MarshalArgs(a.CancelOrder(ctx, req))
	case ToolCheckInventory:
		var req InventoryRequest
		if !unmarshal(&req) {
			return badArgs
		}
		return llm.MarshalArgs(a.CheckInventory(ctx, req))
	case ToolGetOrdersByEmail:
		var req OrdersByEmailRequest
		if !unmarshal(&req) {
			return badArgs
		}
		return llm.MarshalArgs(a.GetOrdersByEmail(ctx, req))
	case ToolQueryProductManual:
		var req ManualQueryRequest
		if !unmarshal(&req) {
			return badArgs
		}
		return llm.MarshalArgs(a.QueryProductManual(ctx, req))
	case ToolSearchProducts:
		var req ProductSearchRequest
		if !unmarshal(&req) {
			return badArgs
		}
		return llm.MarshalArgs(a.SearchProducts(ctx, req))
	default:
		log.Warn().Str("tool", name).Msg("unknown tool requested")
		return llm.MarshalArgs(map[string]string{
			"code":    CodeNotFound,
			"message": fmt.Sprintf("Unknown tool %q.", name),
		})
	}
}
