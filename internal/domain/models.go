// Package domain defines the persistence models for the assistant core:
// conversation messages, orders with their line items, products, and product
// manual chunks. These types are mapped with GORM and form the data layer of
// the application.
package domain

import (
	"time"
)

// Message roles stored in the conversation log.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single utterance within a session. Messages are immutable
// once persisted; their per-session order is creation time (ascending).
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - SessionID: opaque conversation identifier; indexed with CreatedAt for
//     efficient recent-history queries.
//   - Role: "user" or "assistant" (enforced by DB constraint).
//   - Content: full text of the message.
//   - Context: free-form JSON blob (extracted entities, routing metadata).
//   - CreatedAt: timestamp, part of the session ordering index.
type ChatMessage struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	SessionID string    `json:"session_id" gorm:"type:varchar(100);not null;index:idx_session_msgs,priority:1"`
	Role      string    `json:"role"       gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	Context   string    `json:"-"          gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_session_msgs,priority:2"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chat_messages" }

// OrderStatus is the closed set of order lifecycle states.
type OrderStatus string

// Order lifecycle states. PENDING is the initial state; DELIVERED and
// CANCELLED are terminal.
const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// ParseOrderStatus maps a string to an OrderStatus, reporting whether the
// value names a known state.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return OrderStatus(s), true
	default:
		return "", false
	}
}

// Terminal reports whether the status accepts no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// AddressEditable reports whether the shipping address may still be changed.
func (s OrderStatus) AddressEditable() bool {
	return s == StatusPending || s == StatusProcessing
}

// Order is a customer order. Status is mutated only through the validated
// transitions in services.OrderService; items are created atomically with the
// order and never independently mutated.
type Order struct {
	ID              uint        `json:"-"                gorm:"primaryKey;autoIncrement"`
	OrderNumber     string      `json:"order_number"     gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerName    string      `json:"customer_name"    gorm:"type:varchar(100)"`
	CustomerEmail   string      `json:"customer_email"   gorm:"type:varchar(100);index"`
	CustomerPhone   string      `json:"customer_phone"   gorm:"type:varchar(20)"`
	ShippingAddress string      `json:"shipping_address" gorm:"type:text"`
	TotalAmount     float64     `json:"total_amount"     gorm:"not null"`
	Status          OrderStatus `json:"status"           gorm:"type:varchar(50);not null;default:'PENDING'"`
	TrackingNumber  string      `json:"tracking_number"  gorm:"type:varchar(100)"`
	Items           []OrderItem `json:"items"            gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// OrderItem is one line of an order. ProductName and Price are snapshots
// taken at placement time; Subtotal always equals Price × Quantity.
type OrderItem struct {
	ID          uint    `json:"-"            gorm:"primaryKey;autoIncrement"`
	OrderID     uint    `json:"-"            gorm:"not null;index"`
	ProductID   string  `json:"product_id"   gorm:"type:varchar(50);not null"`
	ProductName string  `json:"product_name" gorm:"type:varchar(200)"`
	Quantity    int     `json:"quantity"     gorm:"not null"`
	Price       float64 `json:"price"        gorm:"not null"`
	Subtotal    float64 `json:"subtotal"     gorm:"not null"`
}

// TableName returns the database table name for OrderItem.
func (OrderItem) TableName() string { return "order_items" }

// Product is a catalog entry. Stock is mutated only via the stock-adjustment
// operation in the repo layer, never by direct field assignment.
type Product struct {
	ID              string    `json:"id"          gorm:"type:varchar(50);primaryKey"`
	Name            string    `json:"name"        gorm:"type:varchar(200);not null"`
	Tagline         string    `json:"tagline"     gorm:"type:varchar(500)"`
	Description     string    `json:"description" gorm:"type:text"`
	LongDescription string    `json:"long_description" gorm:"type:text"`
	Price           float64   `json:"price"       gorm:"not null"`
	Category        string    `json:"category"    gorm:"type:varchar(50);index"`
	ImageURL        string    `json:"-"           gorm:"type:varchar(500)"`
	Stock           int       `json:"-"           gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// ManualChunk is a fragment of a product's documentation prepared for
// semantic search. Chunks are produced by the ingestion collaborator and
// consumed read-only by the retrieval answerer.
type ManualChunk struct {
	ID         uint      `json:"-"           gorm:"primaryKey;autoIncrement"`
	ProductID  string    `json:"product_id"  gorm:"type:varchar(50);not null;index"`
	Content    string    `json:"content"     gorm:"type:text;not null"`
	ChunkIndex int       `json:"chunk_index" gorm:"not null"`
	PageNumber *int      `json:"page_number,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for ManualChunk.
func (ManualChunk) TableName() string { return "manual_chunks" }
