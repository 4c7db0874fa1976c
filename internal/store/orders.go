package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vecar-shop/internal/models"
)

type orderRow struct {
	ID               int64          `db:"id"`
	UserID           string         `db:"user_id"`
	Total            int64          `db:"total"`
	PaymentMethod    string         `db:"payment_method"`
	PaymentStatus    string         `db:"payment_status"`
	Status           string         `db:"status"`
	DeliveryType     sql.NullString `db:"delivery_type"`
	DeliveryWhatsapp sql.NullString `db:"delivery_whatsapp"`
	CreatedAt        time.Time      `db:"created_at"`
}

func (r *orderRow) toOrder() models.Order {
	o := models.Order{
		ID:            r.ID,
		UserID:        r.UserID,
		Total:         r.Total,
		PaymentMethod: r.PaymentMethod,
		PaymentStatus: r.PaymentStatus,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
	}
	if r.DeliveryType.Valid {
		o.Delivery = &models.DeliveryInfo{
			Type:     r.DeliveryType.String,
			Whatsapp: r.DeliveryWhatsapp.String,
		}
	}
	return o
}

// CreateOrder persists an order and its line items in one transaction. The
// order's ID and creation time are filled in on success.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var deliveryType, deliveryWhatsapp sql.NullString
	if order.Delivery != nil {
		deliveryType = sql.NullString{String: order.Delivery.Type, Valid: true}
		deliveryWhatsapp = sql.NullString{String: order.Delivery.Whatsapp, Valid: true}
	}

	query := `
		INSERT INTO orders (user_id, total, payment_method, payment_status, status,
			delivery_type, delivery_whatsapp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	row := tx.QueryRowxContext(ctx, query,
		order.UserID, order.Total, order.PaymentMethod, order.PaymentStatus,
		order.Status, deliveryType, deliveryWhatsapp)
	if err := row.Scan(&order.ID, &order.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := tx.GetContext(ctx, &item.ID, `
			INSERT INTO order_items (order_id, product_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			item.OrderID, item.ProductID, item.Name, item.Quantity, item.UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order with its line items.
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	order := row.toOrder()
	if order.Items, err = s.getOrderItems(ctx, order.ID); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrders retrieves orders newest first; an empty userID returns every
// order (admin view).
func (s *Store) GetOrders(ctx context.Context, userID string) ([]models.Order, error) {
	var rows []orderRow
	var err error
	if userID == "" {
		err = s.db.SelectContext(ctx, &rows, "SELECT * FROM orders ORDER BY created_at DESC")
	} else {
		err = s.db.SelectContext(ctx, &rows,
			"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	}
	if err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(rows))
	for i := range rows {
		order := rows[i].toOrder()
		if order.Items, err = s.getOrderItems(ctx, order.ID); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (s *Store) getOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// UpdateOrderStatus updates status and payment status. Line items and total
// stay untouched.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status, paymentStatus string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, payment_status = $2 WHERE id = $3",
		status, paymentStatus, orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	return nil
}
