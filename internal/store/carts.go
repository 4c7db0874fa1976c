package store

import (
	"context"

	"vecar-shop/internal/models"
)

// cartRow joins a cart line with its product's current catalog state so
// totals can re-evaluate promotions at read time.
type cartRow struct {
	productRow
	Quantity  int   `db:"quantity"`
	UnitPrice int64 `db:"unit_price"`
}

const cartSelect = `
	SELECT p.*, c.quantity, c.unit_price
	FROM cart_items c
	JOIN products p ON p.id = c.product_id
	WHERE c.user_id = $1
	ORDER BY c.added_at`

// GetCartItems retrieves the cart lines for a user, oldest first.
func (s *Store) GetCartItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	var rows []cartRow
	if err := s.db.SelectContext(ctx, &rows, cartSelect, userID); err != nil {
		return nil, err
	}

	items := make([]models.CartItem, 0, len(rows))
	for i := range rows {
		items = append(items, models.CartItem{
			Product:   rows[i].toProduct(),
			Quantity:  rows[i].Quantity,
			UnitPrice: rows[i].UnitPrice,
		})
	}
	return items, nil
}

// AddCartItem inserts a cart line or increments the quantity of an existing
// line for the same product. The unit price snapshot is refreshed on
// increment.
func (s *Store) AddCartItem(ctx context.Context, userID, productID string, quantity int, unitPrice int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity,
			unit_price = EXCLUDED.unit_price`,
		userID, productID, quantity, unitPrice)
	return err
}

// SetCartItemQuantity replaces the quantity of a cart line in place. A zero
// quantity deletes the line.
func (s *Store) SetCartItemQuantity(ctx context.Context, userID, productID string, quantity int) error {
	if quantity == 0 {
		return s.RemoveCartItem(ctx, userID, productID)
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE cart_items SET quantity = $1 WHERE user_id = $2 AND product_id = $3",
		quantity, userID, productID)
	return err
}

// RemoveCartItem deletes a cart line. Removing an absent line is not an
// error.
func (s *Store) RemoveCartItem(ctx context.Context, userID, productID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2",
		userID, productID)
	return err
}

// ClearCart removes every cart line for a user.
func (s *Store) ClearCart(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID)
	return err
}
