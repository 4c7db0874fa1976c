// Package cart is the single point of truth for what is in a cart and what
// it costs. It abstracts over the two storage realms — the server-backed
// cart of an authenticated user and the durable guest cart — behind one
// Repository interface, and prices every mutation through the promotion
// evaluator.
package cart

import (
	"context"
	"errors"

	"vecar-shop/internal/models"
)

var (
	// ErrNegativeQuantity rejects quantity updates below zero.
	ErrNegativeQuantity = errors.New("quantity must be a non-negative integer")
	// ErrInvalidQuantity rejects non-positive add quantities.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrNoIdentity is returned when neither a user nor a guest id is present.
	ErrNoIdentity = errors.New("cart identity is required")
)

// Identity selects the cart realm. A non-empty UserID addresses the
// server-backed cart; otherwise GuestID addresses the guest cart.
type Identity struct {
	UserID  string
	GuestID string
}

// Authenticated reports whether the identity addresses the server realm.
func (id Identity) Authenticated() bool {
	return id.UserID != ""
}

// Key returns the storage key for the realm the identity addresses.
func (id Identity) Key() string {
	if id.Authenticated() {
		return id.UserID
	}
	return id.GuestID
}

func (id Identity) valid() bool {
	return id.UserID != "" || id.GuestID != ""
}

// Repository is one cart storage realm.
type Repository interface {
	// Load returns the ordered cart lines for key.
	Load(ctx context.Context, key string) ([]models.CartItem, error)
	// Add appends a line or increments the quantity of an existing line
	// for the same product, refreshing its unit price snapshot.
	Add(ctx context.Context, key string, product models.Product, quantity int, unitPrice int64) error
	// SetQuantity replaces a line's quantity in place; zero removes the line.
	SetQuantity(ctx context.Context, key, productID string, quantity int) error
	// Remove deletes a line. Removing an absent line is not an error.
	Remove(ctx context.Context, key, productID string) error
	// Clear empties the cart.
	Clear(ctx context.Context, key string) error
}
