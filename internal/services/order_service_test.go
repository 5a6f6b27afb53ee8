package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/auralabs/go-assistant-backend/internal/domain"
	"github.com/auralabs/go-assistant-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, id, name string, price float64, stock int) {
	t.Helper()
	p := domain.Product{
		ID:          id,
		Name:        name,
		Tagline:     "tagline for " + name,
		Description: "description of " + name,
		Price:       price,
		Category:    "audio",
		Stock:       stock,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
}

func placeTestOrder(t *testing.T, svc *OrderService, items ...PlaceOrderItem) *domain.Order {
	t.Helper()
	order, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerName:    "Jo Customer",
		CustomerEmail:   "jo@example.com",
		ShippingAddress: "1 Test Way",
		Items:           items,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	return order
}

func stockOf(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	p, err := repo.GetProduct(context.Background(), db, id)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	return p.Stock
}

// --- placement ---

func TestPlaceOrder_DecrementsStockAndSnapshotsPrices(t *testing.T) {
	db := newTestDB(t)
	seedProduct(t, db, "P-1001", "Aura Harmony", 79.99, 5)
	svc := &OrderService{DB: db}

	order := placeTestOrder(t, svc, PlaceOrderItem{ProductID: "P-1001", Quantity: 3})

	if !strings.HasPrefix(order.OrderNumber, "ORD-") {
		t.Fatalf("order number malformed: %q", order.OrderNumber)
	}
	if order.Status != domain.StatusPending {
		t.Fatalf("new order status = %s, want PENDING", order.Status)
	}
	if stockOf(t, db, "P-1001") != 2 {
		t.Fatalf("stock = %d, want 2", stockOf(t, db, "P-1001"))
	}
	if len(order.Items) != 1 || order.Items[0].Subtotal != 239.97 || order.TotalAmount != 239.97 {
		t.Fatalf("totals wrong: %+v", order)
	}
	if order.Items[0].ProductName != "Aura Harmony" || order.Items[0].Price != 79.99 {
		t.Fatalf("price snapshot wrong: %+v", order.Items[0])
	}
}

func TestPlaceOrder_InsufficientStockRollsBackEverything(t *testing.T) {
	db := newTestDB(t)
	seedProduct(t, db, "P-1001", "Aura Harmony", 10, 5)
	seedProduct(t, db, "P-1002", "Aura Pulse", 20, 1)
	svc := &OrderService{DB: db}

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerName:    "Jo",
		ShippingAddress: "1 Test Way",
		Items: []PlaceOrderItem{
			{ProductID: "P-1001", Quantity: 2}, // fine
			{ProductID: "P-1002", Quantity: 5}, // over stock
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	// First line's decrement must have been rolled back.
	if stockOf(t, db, "P-1001") != 5 || stockOf(t, db, "P-1002") != 1 {
		t.Fatalf("rollback failed: %d, %d", stockOf(t, db, "P-1001"), stockOf(t, db, "P-1002"))
	}
}

func TestPlaceOrder_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := &OrderService{DB: db}
	ctx := context.Background()

	cases := []PlaceOrderRequest{
		{CustomerName: "", ShippingAddress: "a", Items: []PlaceOrderItem{{ProductID: "P-1001", Quantity: 1}}},
		{CustomerName: "n", ShippingAddress: "", Items: []PlaceOrderItem{{ProductID: "P-1001", Quantity: 1}}},
		{CustomerName: "n", ShippingAddress: "a", Items: nil},
		{CustomerName: "n", ShippingAddress: "a", Items: []PlaceOrderItem{{ProductID: "P-1001", Quantity: 0}}},
		{CustomerName: "n", ShippingAddress: "a", Items: []PlaceOrderItem{{ProductID: "", Quantity: 1}}},
	}
	for i, req := range cases {
		if _, err := svc.PlaceOrder(ctx, req); !errors.Is(err, ErrEmptyOrder) {
			t.Errorf("case %d: expected ErrEmptyOrder, got %v", i, err)
		}
	}

	if _, err := svc.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerName: "n", ShippingAddress: "a",
		Items: []PlaceOrderItem{{ProductID: "P-9999", Quantity: 1}},
	}); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestPlaceOrder_UnknownProductAmongItemsRollsBack(t *testing.T) {
	db := newTestDB(t)
	seedProduct(t, db, "P-1001", "Aura Harmony", 10, 5)
	svc := &OrderService{DB: db}

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerName:    "Jo",
		ShippingAddress: "1 Test Way",
		Items: []PlaceOrderItem{
			{ProductID: "P-1001", Quantity: 2},
			{ProductID: "P-9999", Quantity: 1},
		},
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "P-9999") {
		t.Fatalf("error should name the missing product: %v", err)
	}
	if stockOf(t, db, "P-1001") != 5 {
		t.Fatalf("known line's decrement must roll back, stock = %d", stockOf(t, db, "P-1001"))
	}
}

// --- transitions ---

func setStatus(t *testing.T, db *gorm.DB, orderNumber string, status domain.OrderStatus) {
	t.Helper()
	if err := repo.UpdateOrderStatus(context.Background(), db, orderNumber, status); err != nil {
		t.Fatalf("setStatus: %v", err)
	}
}

func TestUpdateStatus_TransitionTable(t *testing.T) {
	type result int
	const (
		allowed result = iota
		noop
		notAllowed
		alreadyShipped
		alreadyDelivered
		alreadyCancelled
	)

	all := []domain.OrderStatus{
		domain.StatusPending, domain.StatusProcessing, domain.StatusShipped,
		domain.StatusDelivered, domain.StatusCancelled,
	}
	table := map[domain.OrderStatus]map[domain.OrderStatus]result{
		domain.StatusPending: {
			domain.StatusPending:    noop,
			domain.StatusProcessing: notAllowed,
			domain.StatusShipped:    allowed,
			domain.StatusDelivered:  notAllowed,
			domain.StatusCancelled:  allowed,
		},
		domain.StatusProcessing: {
			domain.StatusPending:    notAllowed,
			domain.StatusProcessing: noop,
			domain.StatusShipped:    allowed,
			domain.StatusDelivered:  notAllowed,
			domain.StatusCancelled:  allowed,
		},
		domain.StatusShipped: {
			domain.StatusPending:    notAllowed,
			domain.StatusProcessing: notAllowed,
			domain.StatusShipped:    noop,
			domain.StatusDelivered:  allowed,
			domain.StatusCancelled:  alreadyShipped,
		},
		domain.StatusDelivered: {
			domain.StatusPending:    alreadyDelivered,
			domain.StatusProcessing: alreadyDelivered,
			domain.StatusShipped:    alreadyDelivered,
			domain.StatusDelivered:  noop,
			domain.StatusCancelled:  alreadyDelivered,
		},
		domain.StatusCancelled: {
			domain.StatusPending:    alreadyCancelled,
			domain.StatusProcessing: alreadyCancelled,
			domain.StatusShipped:    alreadyCancelled,
			domain.StatusDelivered:  alreadyCancelled,
			domain.StatusCancelled:  noop,
		},
	}

	for _, from := range all {
		for _, to := range all {
			want := table[from][to]
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				db := newTestDB(t)
				seedProduct(t, db, "P-1001", "Aura Harmony", 10, 5)
				svc := &OrderService{DB: db}
				order := placeTestOrder(t, svc, PlaceOrderItem{ProductID: "P-1001", Quantity: 1})
				if from != domain.StatusPending {
					setStatus(t, db, order.OrderNumber, from)
				}

				_, err := svc.UpdateStatus(context.Background(), order.OrderNumber, to)
				switch want {
				case allowed, noop:
					if err != nil {
						t.Fatalf("expected success, got %v", err)
					}
				case notAllowed:
					var statusErr *StatusNotAllowedError
					if !errors.As(err, &statusErr) {
						t.Fatalf("expected StatusNotAllowedError, got %v", err)
					}
					if statusErr.From != from || statusErr.To != to {
						t.Fatalf("error endpoints wrong: %+v", statusErr)
					}
				case alreadyShipped:
					if !errors.Is(err, ErrAlreadyShipped) {
						t.Fatalf("expected ErrAlreadyShipped, got %v", err)
					}
				case alreadyDelivered:
					if !errors.Is(err, ErrAlreadyDelivered) {
						t.Fatalf("expected ErrAlreadyDelivered, got %v", err)
					}
				case alreadyCancelled:
					if !errors.Is(err, ErrAlreadyCancelled) {
						t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
					}
				}
			})
		}
	}
}

func TestUpdateStatus_UnknownStatusAndOrder(t *testing.T) {
	db := newTestDB(t)
	svc := &OrderService{DB: db}
	ctx := context.Background()

	if _, err := svc.UpdateStatus(ctx, "ORD-x", domain.OrderStatus("TELEPORTED")); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "ORD-x", domain.StatusShipped); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestCancel_RestoresStockPerItem(t *testing.T) {
	db := newTestDB(t)
	seedProduct(t, db, "P-1001", "Aura Harmony", 10, 5)
	seedProduct(t, db, "P-1002", "Aura Pulse", 20, 4)
	svc := &OrderService{DB: db}

	order := placeTestOrder(t, svc,
		PlaceOrderItem{ProductID: "P-1001", Quantity: 1},
		PlaceOrderItem{ProductID: "P-1002", Quantity: 2},
	)
	if stockOf(t, db, "P-1001") != 4 || stockOf(t, db, "P-1002") != 2 {
		t.Fatalf("placement decrements wrong")
	}

	updated, err := svc.Cancel(context.Background(), order.OrderNumber)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if updated == nil {
		t.Fatalf("expected order back from Cancel")
	}
	if stockOf(t, db, "P-1001") != 5 || stockOf(t, db, "P-1002") != 4 {
		t.Fatalf("stock not restored: %d, %d", stockOf(t, db, "P-1001"), stockOf(t, db, "P-1002"))
	}
}

func TestCancel_ShippedOrderKeepsStock(t *testing.T) {
	db := newTestDB(t)
	seedProduct(t, db, "P-1001", "Aura Harmony", 10, 5)
	svc := &OrderService{DB: db}

	order := placeTestOrder(t, svc, PlaceOrderItem{ProductID: "P-1001", Quantity: 3})
	setStatus(t, db, order.OrderNumber, domain.StatusShipped)

	if _, err := svc.Cancel(context.Background(), order.OrderNumber); !errors.Is(err, ErrAlreadyShipped) {
		t.Fatalf("expected ErrAlreadyShipped, got %v", err)
	}
	if stockOf(t, db, "P-1001") != 2 {
		t.Fatalf("rejected cancel must not touch stock, got %d", stockOf(t, db, "P-1001"))
	}
}

// --- address edits ---

func TestUpdateShippingAddress(t *testing.T) {
	db := newTestDB(t)
	seedProduct(t, db, "P-1001", "Aura Harmony", 10, 5)
	svc := &OrderService{DB: db}
	ctx := context.Background()

	order := placeTestOrder(t, svc, PlaceOrderItem{ProductID: "P-1001", Quantity: 1})

	updated, err := svc.UpdateShippingAddress(ctx, order.OrderNumber, "2 New Road")
	if err != nil {
		t.Fatalf("UpdateShippingAddress: %v", err)
	}
	if updated.ShippingAddress != "2 New Road" {
		t.Fatalf("address not applied: %q", updated.ShippingAddress)
	}

	setStatus(t, db, order.OrderNumber, domain.StatusShipped)
	_, err = svc.UpdateShippingAddress(ctx, order.OrderNumber, "3 Late Lane")
	var statusErr *StatusNotAllowedError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusNotAllowedError, got %v", err)
	}
	if statusErr.From != domain.StatusShipped {
		t.Fatalf("error should carry current status, got %+v", statusErr)
	}

	if _, err := svc.UpdateShippingAddress(ctx, order.OrderNumber, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage for blank address, got %v", err)
	}
	if _, err := svc.UpdateShippingAddress(ctx, "ORD-nope", "4 Ghost Street"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

// --- helpers ---

func TestRound2(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{239.96999999999997, 239.97},
		{0.1 + 0.2, 0.3},
		{10, 10},
	}
	for _, tc := range cases {
		if got := round2(tc.in); got != tc.want {
			t.Errorf("round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestGenerateOrderNumber_Shape(t *testing.T) {
	n := generateOrderNumber()
	if len(n) != len("ORD-20060102150405-0000") {
		t.Fatalf("unexpected length: %q", n)
	}
	if !strings.HasPrefix(n, "ORD-") || n[18] != '-' {
		t.Fatalf("unexpected shape: %q", n)
	}
}
