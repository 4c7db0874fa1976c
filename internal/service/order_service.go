package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vecar-shop/internal/cart"
	"vecar-shop/internal/models"
	"vecar-shop/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrEmptyCart rejects checkout of an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidPayment rejects unknown payment methods.
	ErrInvalidPayment = errors.New("unknown payment method")
	// ErrInvalidDelivery rejects malformed delivery info.
	ErrInvalidDelivery = errors.New("delivery info requires a valid type and a whatsapp number")
	// ErrInvalidStatus rejects unknown order or payment statuses.
	ErrInvalidStatus = errors.New("unknown order or payment status")
)

type orderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrders(ctx context.Context, userID string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status, paymentStatus string) error
}

type orderEvents interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// OrderService turns carts into orders and manages their admin lifecycle.
type OrderService struct {
	store  orderStore
	cart   *cart.Reconciler
	events orderEvents
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store orderStore, reconciler *cart.Reconciler, events orderEvents) *OrderService {
	return &OrderService{
		store:  store,
		cart:   reconciler,
		events: events,
		logger: util.GetLogger(),
	}
}

// PlaceOrderRequest represents a checkout submission.
type PlaceOrderRequest struct {
	UserID        string               `json:"userId" binding:"required"`
	PaymentMethod string               `json:"paymentMethod" binding:"required"`
	Delivery      *models.DeliveryInfo `json:"deliveryInfo,omitempty"`
}

// PlaceOrder converts the user's cart into an immutable order. Unit prices
// are the effective prices at placement time; the total is the sum over the
// charged lines. The cart is cleared once the order is persisted.
func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	if err := validateCheckout(req); err != nil {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	identity := cart.Identity{UserID: req.UserID}
	items, err := s.cart.Load(ctx, identity)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("cart_load").Inc()
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(items) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, ErrEmptyCart
	}

	orderItems := make([]models.OrderItem, 0, len(items))
	var total int64
	for i := range items {
		unitPrice := s.cart.UnitPrice(&items[i], identity)
		orderItems = append(orderItems, models.OrderItem{
			ProductID: items[i].Product.ID,
			Name:      items[i].Product.Name,
			Quantity:  items[i].Quantity,
			UnitPrice: unitPrice,
		})
		total += unitPrice * int64(items[i].Quantity)
	}

	paymentStatus := models.PaymentStatusPaid
	if req.PaymentMethod == models.PaymentMethodCash {
		paymentStatus = models.PaymentStatusPending
	}

	order := &models.Order{
		UserID:        req.UserID,
		Total:         total,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: paymentStatus,
		Status:        models.OrderStatusPending,
		Delivery:      req.Delivery,
		Items:         orderItems,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersPlacedTotal.Inc()
	util.OrderTotalAmount.Observe(float64(total))
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.Int64("total", order.Total))

	s.publishPlaced(ctx, order)

	// The order is already committed; a failed cart clear only leaves
	// stale lines behind for the next request to see.
	if err := s.cart.Clear(ctx, identity); err != nil {
		s.logger.Error("Failed to clear cart after order placement",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}

	return order, nil
}

func (s *OrderService) publishPlaced(ctx context.Context, order *models.Order) {
	lines := make([]models.OrderLineData, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, models.OrderLineData{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		UserID:        order.UserID,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		Delivery:      order.Delivery,
		Items:         lines,
	}

	// Best-effort: the notification side channel never blocks checkout.
	if err := s.events.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.store.GetOrderByID(ctx, orderID)
}

// ListOrders returns a user's order history, or every order when userID is
// empty (admin view).
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.GetOrders(ctx, userID)
}

// UpdateOrderStatus moves an order through its admin transitions. Line
// items and total never change.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, status, paymentStatus string) (*models.Order, error) {
	if !validOrderStatus(status) || !validPaymentStatus(paymentStatus) {
		return nil, ErrInvalidStatus
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, status, paymentStatus); err != nil {
		return nil, err
	}

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID:       orderID,
		Status:        status,
		PaymentStatus: paymentStatus,
	}
	if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}

	return s.store.GetOrderByID(ctx, orderID)
}

func validateCheckout(req *PlaceOrderRequest) error {
	if req.PaymentMethod != models.PaymentMethodCash && req.PaymentMethod != models.PaymentMethodCard {
		return ErrInvalidPayment
	}
	if req.Delivery != nil {
		validType := req.Delivery.Type == models.DeliveryTypeDelivery ||
			req.Delivery.Type == models.DeliveryTypePickup
		if !validType || req.Delivery.Whatsapp == "" {
			return ErrInvalidDelivery
		}
	}
	return nil
}

func validOrderStatus(s string) bool {
	return s == models.OrderStatusPending || s == models.OrderStatusCompleted
}

func validPaymentStatus(s string) bool {
	return s == models.PaymentStatusPending || s == models.PaymentStatusPaid
}
