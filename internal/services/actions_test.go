package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/auralabs/go-assistant-backend/internal/domain"
)

// fakeManuals scripts the manual answerer.
type fakeManuals struct {
	answer string
	err    error
}

func (f *fakeManuals) AnswerFromManual(ctx context.Context, productID, question string) (string, error) {
	return f.answer, f.err
}

func newTestActions(t *testing.T) (*Actions, *OrderService) {
	t.Helper()
	db := newTestDB(t)
	seedProduct(t, db, "P-1001", "Aura Harmony", 79.99, 5)
	seedProduct(t, db, "P-1002", "Aura Pulse", 199, 0)
	orders := &OrderService{DB: db}
	a := &Actions{
		Orders:   orders,
		Products: &ProductService{DB: db},
		Manuals:  &fakeManuals{},
	}
	return a, orders
}

func TestGetOrderStatus(t *testing.T) {
	a, orders := newTestActions(t)
	ctx := context.Background()

	order := placeTestOrder(t, orders, PlaceOrderItem{ProductID: "P-1001", Quantity: 1})

	got := a.GetOrderStatus(ctx, OrderStatusRequest{OrderNumber: order.OrderNumber})
	if got.Status != string(domain.StatusPending) {
		t.Fatalf("status = %q", got.Status)
	}
	if got.EstimatedDelivery == "" {
		t.Fatalf("estimated delivery missing")
	}
	if !strings.Contains(got.Message, order.OrderNumber) {
		t.Fatalf("message should reference the order: %q", got.Message)
	}
}

func TestGetOrderStatus_NotFoundGuidance(t *testing.T) {
	a, _ := newTestActions(t)

	got := a.GetOrderStatus(context.Background(), OrderStatusRequest{OrderNumber: "ORD-00000000000000-0000"})
	if got.Status != CodeNotFound {
		t.Fatalf("status = %q, want NOT_FOUND", got.Status)
	}
	if !strings.Contains(got.Message, "ORD-00000000000000-0000") || !strings.Contains(got.Message, "email") {
		t.Fatalf("guidance message incomplete: %q", got.Message)
	}
}

func TestCancelOrder_Codes(t *testing.T) {
	a, orders := newTestActions(t)
	ctx := context.Background()

	// Success on a fresh order.
	o1 := placeTestOrder(t, orders, PlaceOrderItem{ProductID: "P-1001", Quantity: 1})
	got := a.CancelOrder(ctx, CancelOrderRequest{OrderNumber: o1.OrderNumber})
	if !got.Success || got.Code != CodeOrderCancelled {
		t.Fatalf("cancel: %+v", got)
	}

	// Second cancel: already cancelled.
	got = a.CancelOrder(ctx, CancelOrderRequest{OrderNumber: o1.OrderNumber})
	if got.Success || got.Code != CodeAlreadyCancelled {
		t.Fatalf("re-cancel: %+v", got)
	}

	// Shipped order.
	o2 := placeTestOrder(t, orders, PlaceOrderItem{ProductID: "P-1001", Quantity: 1})
	setStatus(t, orders.DB, o2.OrderNumber, domain.StatusShipped)
	got = a.CancelOrder(ctx, CancelOrderRequest{OrderNumber: o2.OrderNumber})
	if got.Success || got.Code != CodeAlreadyShipped || !strings.Contains(got.Message, supportContact) {
		t.Fatalf("shipped cancel: %+v", got)
	}

	// Delivered order escalates to a human.
	o3 := placeTestOrder(t, orders, PlaceOrderItem{ProductID: "P-1001", Quantity: 1})
	setStatus(t, orders.DB, o3.OrderNumber, domain.StatusDelivered)
	got = a.CancelOrder(ctx, CancelOrderRequest{OrderNumber: o3.OrderNumber})
	if got.Success || got.Code != CodeRequiresManualService {
		t.Fatalf("delivered cancel: %+v", got)
	}

	// Unknown order.
	got = a.CancelOrder(ctx, CancelOrderRequest{OrderNumber: "ORD-00000000000000-0000"})
	if got.Success || got.Code != CodeNotFound {
		t.Fatalf("unknown cancel: %+v", got)
	}

	// Missing order number.
	got = a.CancelOrder(ctx, CancelOrderRequest{})
	if got.Success || got.Code != CodeValidationError {
		t.Fatalf("blank cancel: %+v", got)
	}
}

func TestUpdateOrderAddress_Codes(t *testing.T) {
	a, orders := newTestActions(t)
	ctx := context.Background()

	o := placeTestOrder(t, orders, PlaceOrderItem{ProductID: "P-1001", Quantity: 1})

	got := a.UpdateOrderAddress(ctx, UpdateAddressRequest{OrderNumber: o.OrderNumber, NewAddress: "2 New Road"})
	if !got.Success || got.Code != CodeOK || !strings.Contains(got.Details, "2 New Road") {
		t.Fatalf("address update: %+v", got)
	}

	setStatus(t, orders.DB, o.OrderNumber, domain.StatusShipped)
	got = a.UpdateOrderAddress(ctx, UpdateAddressRequest{OrderNumber: o.OrderNumber, NewAddress: "3 Late Lane"})
	if got.Success || got.Code != CodeStatusNotAllowed {
		t.Fatalf("shipped address update: %+v", got)
	}
	if !strings.Contains(got.Details, string(domain.StatusShipped)) {
		t.Fatalf("details should carry current status: %q", got.Details)
	}

	got = a.UpdateOrderAddress(ctx, UpdateAddressRequest{OrderNumber: "", NewAddress: ""})
	if got.Code != CodeValidationError {
		t.Fatalf("blank request: %+v", got)
	}

	got = a.UpdateOrderAddress(ctx, UpdateAddressRequest{OrderNumber: "ORD-00000000000000-0000", NewAddress: "x"})
	if got.Code != CodeNotFound {
		t.Fatalf("unknown order: %+v", got)
	}
}

func TestCheckInventory(t *testing.T) {
	a, _ := newTestActions(t)
	ctx := context.Background()

	got := a.CheckInventory(ctx, InventoryRequest{ProductID: "P-1001"})
	if got.Stock != 5 || !got.Available {
		t.Fatalf("in-stock product: %+v", got)
	}

	got = a.CheckInventory(ctx, InventoryRequest{ProductID: "P-1002"})
	if got.Stock != 0 || got.Available {
		t.Fatalf("zero-stock product: %+v", got)
	}

	got = a.CheckInventory(ctx, InventoryRequest{ProductID: "P-9999"})
	if got.Stock != 0 || got.Available {
		t.Fatalf("missing product reads as unavailable: %+v", got)
	}
}

func TestGetOrdersByEmail(t *testing.T) {
	a, orders := newTestActions(t)
	ctx := context.Background()

	got := a.GetOrdersByEmail(ctx, OrdersByEmailRequest{Email: "nobody@example.com"})
	if len(got.Orders) != 0 || got.Message != "No orders found for this email" {
		t.Fatalf("empty lookup: %+v", got)
	}

	placeTestOrder(t, orders, PlaceOrderItem{ProductID: "P-1001", Quantity: 1})
	placeTestOrder(t, orders, PlaceOrderItem{ProductID: "P-1001", Quantity: 2})

	got = a.GetOrdersByEmail(ctx, OrdersByEmailRequest{Email: "jo@example.com"})
	if len(got.Orders) != 2 || !strings.Contains(got.Message, "2 order(s)") {
		t.Fatalf("lookup: %+v", got)
	}
}

func TestQueryProductManual(t *testing.T) {
	a, _ := newTestActions(t)
	ctx := context.Background()

	a.Manuals = &fakeManuals{answer: "Hold the button for five seconds."}
	got := a.QueryProductManual(ctx, ManualQueryRequest{ProductID: "P-1001", Question: "how do I pair it"})
	if got.Answer != "Hold the button for five seconds." || got.Source != "product_manual" {
		t.Fatalf("manual answer: %+v", got)
	}

	a.Manuals = &fakeManuals{answer: ""}
	got = a.QueryProductManual(ctx, ManualQueryRequest{ProductID: "P-1001", Question: "anything"})
	if got.Answer != "There is currently no product manual available." {
		t.Fatalf("missing manual: %+v", got)
	}

	a.Manuals = &fakeManuals{err: errors.New("index offline")}
	got = a.QueryProductManual(ctx, ManualQueryRequest{ProductID: "P-1001", Question: "anything"})
	if got.Answer != "There is currently no product manual available." {
		t.Fatalf("errored manual: %+v", got)
	}
}

func TestSearchProducts_NeverExposesStock(t *testing.T) {
	a, _ := newTestActions(t)
	ctx := context.Background()

	got := a.SearchProducts(ctx, ProductSearchRequest{Keyword: "harmony"})
	if len(got.Products) != 1 || got.Products[0].ID != "P-1001" {
		t.Fatalf("keyword search: %+v", got)
	}

	raw, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(strings.ToLower(string(raw)), "stock") {
		t.Fatalf("search payload must not mention stock: %s", raw)
	}

	got = a.SearchProducts(ctx, ProductSearchRequest{Category: "audio"})
	if len(got.Products) != 2 {
		t.Fatalf("category search: %+v", got)
	}

	got = a.SearchProducts(ctx, ProductSearchRequest{})
	if len(got.Products) != 2 {
		t.Fatalf("unfiltered search: %+v", got)
	}
}

func TestInvoke_DispatchAndBadInput(t *testing.T) {
	a, orders := newTestActions(t)
	ctx := context.Background()
	o := placeTestOrder(t, orders, PlaceOrderItem{ProductID: "P-1001", Quantity: 1})

	out := a.Invoke(ctx, ToolGetOrderStatus, `{"orderNumber":"`+o.OrderNumber+`"}`)
	var status OrderStatusResponse
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, out)
	}
	if status.Status != string(domain.StatusPending) {
		t.Fatalf("dispatched status: %+v", status)
	}

	// Empty arguments behave like {}.
	out = a.Invoke(ctx, ToolSearchProducts, "")
	var search ProductSearchResponse
	if err := json.Unmarshal([]byte(out), &search); err != nil || len(search.Products) != 2 {
		t.Fatalf("empty-arg invoke: %s (%v)", out, err)
	}

	// Malformed arguments become a tagged validation payload.
	out = a.Invoke(ctx, ToolCancelOrder, `{"orderNumber":`)
	if !strings.Contains(out, CodeValidationError) {
		t.Fatalf("malformed args: %s", out)
	}

	// Unknown tool becomes a tagged not-found payload.
	out = a.Invoke(ctx, "timeTravel", "{}")
	if !strings.Contains(out, CodeNotFound) {
		t.Fatalf("unknown tool: %s", out)
	}
}

func TestToolSpecs_CoversCatalog(t *testing.T) {
	a, _ := newTestActions(t)
	specs := a.ToolSpecs()
	want := map[string]bool{
		ToolGetOrderStatus: false, ToolUpdateOrderAddress: false, ToolCancelOrder: false,
		ToolCheckInventory: false, ToolGetOrdersByEmail: false, ToolQueryProductManual: false,
		ToolSearchProducts: false,
	}
	for _, s := range specs {
		if _, ok := want[s.Name]; !ok {
			t.Fatalf("unexpected tool %q", s.Name)
		}
		want[s.Name] = true
		if s.Parameters["type"] != "object" {
			t.Fatalf("tool %q parameters must be an object schema", s.Name)
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("tool %q missing from specs", name)
		}
	}
}
