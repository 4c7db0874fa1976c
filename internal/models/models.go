package models

import "time"

// Product categories
const (
	CategoryCubiertas = "Cubiertas"
	CategoryLlantas   = "Llantas"
)

// Categories lists the fixed product category set.
var Categories = []string{CategoryCubiertas, CategoryLlantas}

// Promotion is a time-boxed discount embedded in a product. EndDate is
// stored as a calendar date and extended to 23:59:59.999 of that day when
// the window is evaluated.
type Promotion struct {
	Active          bool      `db:"promo_active" json:"isActive"`
	Name            string    `db:"promo_name" json:"name"`
	DiscountedPrice int64     `db:"promo_price" json:"discountedPrice"`
	StartDate       time.Time `db:"promo_start" json:"startDate"`
	EndDate         time.Time `db:"promo_end" json:"endDate"`
}

// Product represents a catalog product. Price is in guaraníes, which carry
// no minor unit. IsPromotionActive is attached by the catalog when serving
// products; when present it is authoritative over local window evaluation.
type Product struct {
	ID                string     `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	Price             int64      `db:"price" json:"price"`
	Image             string     `db:"image" json:"image"`
	Description       string     `db:"description" json:"description"`
	Category          string     `db:"category" json:"category"`
	SoldOut           bool       `db:"sold_out" json:"soldOut"`
	Promotion         *Promotion `db:"-" json:"promotion,omitempty"`
	IsPromotionActive *bool      `db:"-" json:"isPromotionActive,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
}

// CartItem is one cart line: a product snapshot plus a positive quantity.
// UnitPrice is the effective price frozen when the line was added.
type CartItem struct {
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
	UnitPrice int64   `json:"unitPrice"`
}

// User represents a shop account.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsAdmin      bool      `db:"is_admin" json:"isAdmin"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// DeliveryInfo captures the delivery choice made at checkout.
type DeliveryInfo struct {
	Type     string `db:"delivery_type" json:"type"`
	Whatsapp string `db:"delivery_whatsapp" json:"whatsapp"`
}

// Order is a placed order. Line items and total are immutable once created;
// only status and payment status change afterwards.
type Order struct {
	ID            int64         `db:"id" json:"id"`
	UserID        string        `db:"user_id" json:"userId"`
	Total         int64         `db:"total" json:"total"`
	PaymentMethod string        `db:"payment_method" json:"paymentMethod"`
	PaymentStatus string        `db:"payment_status" json:"paymentStatus"`
	Status        string        `db:"status" json:"status"`
	Delivery      *DeliveryInfo `db:"-" json:"deliveryInfo,omitempty"`
	Items         []OrderItem   `db:"-" json:"products,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
}

// OrderItem is one charged line of an order. UnitPrice is the price as
// charged, promotional or not.
type OrderItem struct {
	ID        int64  `db:"id" json:"-"`
	OrderID   int64  `db:"order_id" json:"-"`
	ProductID string `db:"product_id" json:"productId"`
	Name      string `db:"name" json:"name"`
	Quantity  int    `db:"quantity" json:"quantity"`
	UnitPrice int64  `db:"unit_price" json:"price"`
}

// Payment methods
const (
	PaymentMethodCash = "Efectivo"
	PaymentMethodCard = "Tarjeta/Transferencia"
)

// Payment statuses
const (
	PaymentStatusPending = "Pendiente"
	PaymentStatusPaid    = "Pagado"
)

// Order statuses
const (
	OrderStatusPending   = "Pendiente"
	OrderStatusCompleted = "Completada"
)

// Delivery types
const (
	DeliveryTypeDelivery = "delivery"
	DeliveryTypePickup   = "pickup"
)
