package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vecar-shop/internal/models"
	"vecar-shop/internal/redisclient"
	"vecar-shop/internal/util"

	"go.uber.org/zap"
)

// guestStorage is the durable key-value entry backing guest carts.
type guestStorage interface {
	GetGuestCart(ctx context.Context, guestID string) ([]byte, error)
	SetGuestCart(ctx context.Context, guestID string, payload []byte, ttl time.Duration) error
	DeleteGuestCart(ctx context.Context, guestID string) error
}

// GuestRepository keeps one JSON-encoded cart entry per guest. An absent or
// corrupt entry always reads as an empty cart; the entry is replaced
// wholesale on every mutation.
type GuestRepository struct {
	storage guestStorage
	ttl     time.Duration
	logger  *zap.Logger
}

// guestLine is the persisted shape of one guest cart line: a product
// snapshot, the quantity, and the effective price frozen at add time.
type guestLine struct {
	Product   models.Product `json:"product"`
	Quantity  int            `json:"quantity"`
	UnitPrice int64          `json:"unitPrice"`
}

// NewGuestRepository creates a guest cart repository on top of Redis.
func NewGuestRepository(storage guestStorage, ttl time.Duration) *GuestRepository {
	return &GuestRepository{
		storage: storage,
		ttl:     ttl,
		logger:  util.GetLogger(),
	}
}

// Load returns the guest's cart lines. Storage failures and unparseable
// payloads degrade to an empty cart, never an error.
func (r *GuestRepository) Load(ctx context.Context, key string) ([]models.CartItem, error) {
	lines := r.read(ctx, key)

	items := make([]models.CartItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.CartItem{
			Product:   line.Product,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return items, nil
}

// Add appends a line or increments an existing one. On increment the stored
// unit price is refreshed to the price current at this moment.
func (r *GuestRepository) Add(ctx context.Context, key string, product models.Product, quantity int, unitPrice int64) error {
	lines := r.read(ctx, key)

	found := false
	for i := range lines {
		if lines[i].Product.ID == product.ID {
			lines[i].Quantity += quantity
			lines[i].UnitPrice = unitPrice
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, guestLine{Product: product, Quantity: quantity, UnitPrice: unitPrice})
	}

	return r.write(ctx, key, lines)
}

// SetQuantity replaces a line's quantity; zero removes the line. An unknown
// product leaves the cart unchanged.
func (r *GuestRepository) SetQuantity(ctx context.Context, key, productID string, quantity int) error {
	lines := r.read(ctx, key)

	for i := range lines {
		if lines[i].Product.ID != productID {
			continue
		}
		if quantity == 0 {
			lines = append(lines[:i], lines[i+1:]...)
		} else {
			lines[i].Quantity = quantity
		}
		return r.write(ctx, key, lines)
	}
	return nil
}

// Remove deletes a line; removing an absent product is a no-op.
func (r *GuestRepository) Remove(ctx context.Context, key, productID string) error {
	lines := r.read(ctx, key)

	for i := range lines {
		if lines[i].Product.ID == productID {
			lines = append(lines[:i], lines[i+1:]...)
			return r.write(ctx, key, lines)
		}
	}
	return nil
}

// Clear drops the guest's entry entirely.
func (r *GuestRepository) Clear(ctx context.Context, key string) error {
	return r.storage.DeleteGuestCart(ctx, key)
}

// read loads and decodes the stored entry, recovering to an empty cart on
// any failure.
func (r *GuestRepository) read(ctx context.Context, key string) []guestLine {
	payload, err := r.storage.GetGuestCart(ctx, key)
	if err != nil {
		if !errors.Is(err, redisclient.ErrCacheMiss) {
			util.GuestCartRecoveries.Inc()
			r.logger.Warn("Guest cart unreadable, treating as empty",
				zap.String("guest_id", key), zap.Error(err))
		}
		return nil
	}

	var lines []guestLine
	if err := json.Unmarshal(payload, &lines); err != nil {
		util.GuestCartRecoveries.Inc()
		r.logger.Warn("Guest cart corrupt, treating as empty",
			zap.String("guest_id", key), zap.Error(err))
		return nil
	}
	return lines
}

func (r *GuestRepository) write(ctx context.Context, key string, lines []guestLine) error {
	if len(lines) == 0 {
		return r.storage.DeleteGuestCart(ctx, key)
	}

	payload, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return r.storage.SetGuestCart(ctx, key, payload, r.ttl)
}
