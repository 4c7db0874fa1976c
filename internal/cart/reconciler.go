package cart

import (
	"context"
	"strconv"
	"time"

	"vecar-shop/internal/models"
	"vecar-shop/internal/pricing"
	"vecar-shop/internal/util"

	"go.uber.org/zap"
)

// PricePolicy selects how totals treat promotion windows for a realm.
type PricePolicy string

const (
	// PolicySnapshot sums the unit prices frozen when lines were added.
	PolicySnapshot PricePolicy = "snapshot"
	// PolicyLive re-evaluates each line's promotion at totalling time.
	PolicyLive PricePolicy = "live"
)

// ParsePolicy maps a config string to a policy, defaulting unknown values
// to snapshot so ambiguous configuration never inflates a price.
func ParsePolicy(s string) PricePolicy {
	if PricePolicy(s) == PolicyLive {
		return PolicyLive
	}
	return PolicySnapshot
}

// Reconciler owns cart state across both realms. Guest carts historically
// freeze prices at add time while authenticated totals track the current
// promotion window; both behaviors are explicit policies here rather than
// implicit branching.
type Reconciler struct {
	guest       Repository
	server      Repository
	guestPolicy PricePolicy
	userPolicy  PricePolicy
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock injects the time source used for promotion evaluation.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithPolicies overrides the per-realm pricing policies.
func WithPolicies(guest, user PricePolicy) Option {
	return func(r *Reconciler) {
		r.guestPolicy = guest
		r.userPolicy = user
	}
}

// NewReconciler creates a reconciler over the two cart realms. Defaults
// reproduce the shop's observed behavior: guest totals are snapshots,
// authenticated totals are live.
func NewReconciler(guest, server Repository, opts ...Option) *Reconciler {
	r := &Reconciler{
		guest:       guest,
		server:      server,
		guestPolicy: PolicySnapshot,
		userPolicy:  PolicyLive,
		now:         time.Now,
		logger:      util.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) repo(id Identity) Repository {
	if id.Authenticated() {
		return r.server
	}
	return r.guest
}

func realm(id Identity) string {
	if id.Authenticated() {
		return "server"
	}
	return "guest"
}

// Load returns the ordered cart lines for the identity's realm.
func (r *Reconciler) Load(ctx context.Context, id Identity) ([]models.CartItem, error) {
	if !id.valid() {
		return nil, ErrNoIdentity
	}

	items, err := r.repo(id).Load(ctx, id.Key())
	if err != nil {
		util.CartOperationsFailed.WithLabelValues("load", realm(id)).Inc()
		return nil, err
	}
	util.CartOperationsTotal.WithLabelValues("load", realm(id)).Inc()
	return items, nil
}

// AddItem puts quantity units of product into the cart, freezing the
// effective price computed at this moment into the stored line. Adding a
// product already present increments its line instead of duplicating it.
func (r *Reconciler) AddItem(ctx context.Context, id Identity, product models.Product, quantity int) error {
	if !id.valid() {
		return ErrNoIdentity
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	quote := r.evaluate(&product)
	if err := r.repo(id).Add(ctx, id.Key(), product, quantity, quote.UnitPrice); err != nil {
		util.CartOperationsFailed.WithLabelValues("add", realm(id)).Inc()
		return err
	}

	util.CartOperationsTotal.WithLabelValues("add", realm(id)).Inc()
	r.logger.Info("Cart item added",
		zap.String("realm", realm(id)),
		zap.String("product_id", product.ID),
		zap.Int("quantity", quantity),
		zap.Int64("unit_price", quote.UnitPrice),
		zap.Bool("discounted", quote.Discounted))
	return nil
}

// UpdateQuantity replaces a line's quantity in place. A quantity of zero
// removes the line; negative quantities are rejected and leave the cart
// unchanged.
func (r *Reconciler) UpdateQuantity(ctx context.Context, id Identity, productID string, quantity int) error {
	if !id.valid() {
		return ErrNoIdentity
	}
	if quantity < 0 {
		return ErrNegativeQuantity
	}

	if err := r.repo(id).SetQuantity(ctx, id.Key(), productID, quantity); err != nil {
		util.CartOperationsFailed.WithLabelValues("update", realm(id)).Inc()
		return err
	}
	util.CartOperationsTotal.WithLabelValues("update", realm(id)).Inc()
	return nil
}

// RemoveItem deletes a line. Removing a product that is not in the cart is
// not an error.
func (r *Reconciler) RemoveItem(ctx context.Context, id Identity, productID string) error {
	if !id.valid() {
		return ErrNoIdentity
	}

	if err := r.repo(id).Remove(ctx, id.Key(), productID); err != nil {
		util.CartOperationsFailed.WithLabelValues("remove", realm(id)).Inc()
		return err
	}
	util.CartOperationsTotal.WithLabelValues("remove", realm(id)).Inc()
	return nil
}

// Clear empties the cart; used after successful order placement.
func (r *Reconciler) Clear(ctx context.Context, id Identity) error {
	if !id.valid() {
		return ErrNoIdentity
	}

	if err := r.repo(id).Clear(ctx, id.Key()); err != nil {
		util.CartOperationsFailed.WithLabelValues("clear", realm(id)).Inc()
		return err
	}
	util.CartOperationsTotal.WithLabelValues("clear", realm(id)).Inc()
	return nil
}

// Total aggregates line items into an order total under the realm's pricing
// policy.
func (r *Reconciler) Total(items []models.CartItem, id Identity) int64 {
	policy := r.guestPolicy
	if id.Authenticated() {
		policy = r.userPolicy
	}

	var total int64
	for i := range items {
		total += r.unitPrice(&items[i], policy) * int64(items[i].Quantity)
	}
	return total
}

// UnitPrice returns the price one unit of the line costs right now under
// the realm's policy.
func (r *Reconciler) UnitPrice(item *models.CartItem, id Identity) int64 {
	policy := r.guestPolicy
	if id.Authenticated() {
		policy = r.userPolicy
	}
	return r.unitPrice(item, policy)
}

func (r *Reconciler) unitPrice(item *models.CartItem, policy PricePolicy) int64 {
	if policy == PolicyLive {
		return r.evaluate(&item.Product).UnitPrice
	}
	return item.UnitPrice
}

// ItemCount returns the total quantity across the cart, for the storefront
// badge. Guest storage failures count as an empty cart.
func (r *Reconciler) ItemCount(ctx context.Context, id Identity) (int, error) {
	items, err := r.Load(ctx, id)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count, nil
}

// MergeGuestCart folds a guest cart into a user's server cart at login.
// Each guest line is re-priced at merge time, exactly as a fresh add would
// be. The guest entry is cleared only after every line lands.
func (r *Reconciler) MergeGuestCart(ctx context.Context, guestID, userID string) error {
	if guestID == "" || userID == "" {
		return ErrNoIdentity
	}

	guestItems, err := r.guest.Load(ctx, guestID)
	if err != nil {
		return err
	}
	if len(guestItems) == 0 {
		return nil
	}

	for i := range guestItems {
		item := &guestItems[i]
		quote := r.evaluate(&item.Product)
		if err := r.server.Add(ctx, userID, item.Product, item.Quantity, quote.UnitPrice); err != nil {
			util.CartOperationsFailed.WithLabelValues("merge", "server").Inc()
			return err
		}
	}

	if err := r.guest.Clear(ctx, guestID); err != nil {
		// The server cart already holds the lines; losing the guest entry
		// cleanup is recoverable on the next merge attempt.
		r.logger.Warn("Failed to clear guest cart after merge",
			zap.String("guest_id", guestID), zap.Error(err))
	}

	util.GuestCartMergesTotal.Inc()
	r.logger.Info("Guest cart merged",
		zap.String("guest_id", guestID),
		zap.String("user_id", userID),
		zap.Int("lines", len(guestItems)))
	return nil
}

func (r *Reconciler) evaluate(p *models.Product) pricing.Quote {
	quote := pricing.Evaluate(p, r.now())
	util.PromotionEvaluationsTotal.WithLabelValues(strconv.FormatBool(quote.Discounted)).Inc()
	return quote
}
