package service

import (
	"context"
	"fmt"
	"time"

	"vecar-shop/internal/cart"
	"vecar-shop/internal/models"
	"vecar-shop/internal/redisclient"
)

// mockOrderStore is an in-memory orderStore.
type mockOrderStore struct {
	orders map[int64]*models.Order
	nextID int64
	err    error
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{orders: make(map[int64]*models.Order), nextID: 1}
}

func (m *mockOrderStore) CreateOrder(_ context.Context, order *models.Order) error {
	if m.err != nil {
		return m.err
	}
	order.ID = m.nextID
	order.CreatedAt = time.Now()
	m.nextID++
	saved := *order
	m.orders[order.ID] = &saved
	return nil
}

func (m *mockOrderStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order not found: %d", id)
	}
	return order, nil
}

func (m *mockOrderStore) GetOrders(_ context.Context, userID string) ([]models.Order, error) {
	var out []models.Order
	for _, order := range m.orders {
		if userID == "" || order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (m *mockOrderStore) UpdateOrderStatus(_ context.Context, orderID int64, status, paymentStatus string) error {
	order, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("order not found: %d", orderID)
	}
	order.Status = status
	order.PaymentStatus = paymentStatus
	return nil
}

// mockEvents records published events.
type mockEvents struct {
	placed        []*models.OrderPlacedEvent
	statusChanged []*models.OrderStatusChangedEvent
	err           error
}

func (m *mockEvents) PublishOrderPlaced(_ context.Context, event *models.OrderPlacedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.placed = append(m.placed, event)
	return nil
}

func (m *mockEvents) PublishOrderStatusChanged(_ context.Context, event *models.OrderStatusChangedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.statusChanged = append(m.statusChanged, event)
	return nil
}

// mockCartStore backs a real ServerRepository with in-memory lines.
type mockCartStore struct {
	items map[string][]models.CartItem
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{items: make(map[string][]models.CartItem)}
}

func (m *mockCartStore) GetCartItems(_ context.Context, userID string) ([]models.CartItem, error) {
	return append([]models.CartItem(nil), m.items[userID]...), nil
}

func (m *mockCartStore) AddCartItem(_ context.Context, userID, productID string, quantity int, unitPrice int64) error {
	lines := m.items[userID]
	for i := range lines {
		if lines[i].Product.ID == productID {
			lines[i].Quantity += quantity
			lines[i].UnitPrice = unitPrice
			return nil
		}
	}
	m.items[userID] = append(lines, models.CartItem{
		Product:   models.Product{ID: productID},
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
	return nil
}

func (m *mockCartStore) SetCartItemQuantity(_ context.Context, userID, productID string, quantity int) error {
	lines := m.items[userID]
	for i := range lines {
		if lines[i].Product.ID == productID {
			if quantity == 0 {
				m.items[userID] = append(lines[:i], lines[i+1:]...)
			} else {
				lines[i].Quantity = quantity
			}
			return nil
		}
	}
	return nil
}

func (m *mockCartStore) RemoveCartItem(_ context.Context, userID, productID string) error {
	return m.SetCartItemQuantity(context.Background(), userID, productID, 0)
}

func (m *mockCartStore) ClearCart(_ context.Context, userID string) error {
	delete(m.items, userID)
	return nil
}

// seedCartLine puts a fully-described line into a user's cart.
func (m *mockCartStore) seedCartLine(userID string, product models.Product, quantity int, unitPrice int64) {
	m.items[userID] = append(m.items[userID], models.CartItem{
		Product:   product,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
}

// mockGuestStorage is an in-memory guest cart entry store.
type mockGuestStorage struct {
	entries map[string][]byte
}

func newMockGuestStorage() *mockGuestStorage {
	return &mockGuestStorage{entries: make(map[string][]byte)}
}

func (m *mockGuestStorage) GetGuestCart(_ context.Context, guestID string) ([]byte, error) {
	payload, ok := m.entries[guestID]
	if !ok {
		return nil, redisclient.ErrCacheMiss
	}
	return payload, nil
}

func (m *mockGuestStorage) SetGuestCart(_ context.Context, guestID string, payload []byte, _ time.Duration) error {
	m.entries[guestID] = payload
	return nil
}

func (m *mockGuestStorage) DeleteGuestCart(_ context.Context, guestID string) error {
	delete(m.entries, guestID)
	return nil
}

// mockUserStore is an in-memory userStore.
type mockUserStore struct {
	users map[string]*models.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]*models.User)}
}

func (m *mockUserStore) CreateUser(_ context.Context, user *models.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return fmt.Errorf("duplicate username: %s", user.Username)
		}
	}
	user.CreatedAt = time.Now()
	saved := *user
	m.users[user.ID] = &saved
	return nil
}

func (m *mockUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user not found: %s", username)
}

func (m *mockUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %s", id)
	}
	return u, nil
}

func (m *mockUserStore) GetUsers(_ context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserStore) UpdateUser(_ context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return fmt.Errorf("user not found: %s", user.ID)
	}
	saved := *user
	m.users[user.ID] = &saved
	return nil
}

func (m *mockUserStore) DeleteUser(_ context.Context, id string) error {
	delete(m.users, id)
	return nil
}

var serviceNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

// testReconciler builds a reconciler over in-memory realms with a fixed
// clock.
func testReconciler(cartStore *mockCartStore, guestStorage *mockGuestStorage) *cart.Reconciler {
	guest := cart.NewGuestRepository(guestStorage, time.Hour)
	server := cart.NewServerRepository(cartStore)
	return cart.NewReconciler(guest, server, cart.WithClock(func() time.Time { return serviceNow }))
}
