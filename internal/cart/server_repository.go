package cart

import (
	"context"
	"fmt"

	"vecar-shop/internal/models"
)

// serverStorage is the subset of the database store the server cart needs.
type serverStorage interface {
	GetCartItems(ctx context.Context, userID string) ([]models.CartItem, error)
	AddCartItem(ctx context.Context, userID, productID string, quantity int, unitPrice int64) error
	SetCartItemQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

// ServerRepository is the authenticated realm, backed by the database. Every
// failure surfaces to the caller; there is no fallback to guest data.
type ServerRepository struct {
	store serverStorage
}

// NewServerRepository creates a server cart repository on top of the store.
func NewServerRepository(store serverStorage) *ServerRepository {
	return &ServerRepository{store: store}
}

// Load fetches the user's cart lines with their current catalog state.
func (r *ServerRepository) Load(ctx context.Context, key string) ([]models.CartItem, error) {
	items, err := r.store.GetCartItems(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return items, nil
}

// Add inserts or increments a cart line, refreshing its price snapshot.
func (r *ServerRepository) Add(ctx context.Context, key string, product models.Product, quantity int, unitPrice int64) error {
	if err := r.store.AddCartItem(ctx, key, product.ID, quantity, unitPrice); err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

// SetQuantity replaces a line's quantity; zero removes the line.
func (r *ServerRepository) SetQuantity(ctx context.Context, key, productID string, quantity int) error {
	if err := r.store.SetCartItemQuantity(ctx, key, productID, quantity); err != nil {
		return fmt.Errorf("failed to update cart quantity: %w", err)
	}
	return nil
}

// Remove deletes a line.
func (r *ServerRepository) Remove(ctx context.Context, key, productID string) error {
	if err := r.store.RemoveCartItem(ctx, key, productID); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Clear empties the user's cart.
func (r *ServerRepository) Clear(ctx context.Context, key string) error {
	if err := r.store.ClearCart(ctx, key); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
