package cart

import (
	"context"
	"testing"
	"time"

	"vecar-shop/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepository is an in-memory Repository for reconciler tests.
type memoryRepository struct {
	items map[string][]models.CartItem
	err   error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{items: make(map[string][]models.CartItem)}
}

func (m *memoryRepository) Load(_ context.Context, key string) ([]models.CartItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]models.CartItem(nil), m.items[key]...), nil
}

func (m *memoryRepository) Add(_ context.Context, key string, product models.Product, quantity int, unitPrice int64) error {
	if m.err != nil {
		return m.err
	}
	lines := m.items[key]
	for i := range lines {
		if lines[i].Product.ID == product.ID {
			lines[i].Quantity += quantity
			lines[i].UnitPrice = unitPrice
			return nil
		}
	}
	m.items[key] = append(lines, models.CartItem{Product: product, Quantity: quantity, UnitPrice: unitPrice})
	return nil
}

func (m *memoryRepository) SetQuantity(_ context.Context, key, productID string, quantity int) error {
	if m.err != nil {
		return m.err
	}
	lines := m.items[key]
	for i := range lines {
		if lines[i].Product.ID != productID {
			continue
		}
		if quantity == 0 {
			m.items[key] = append(lines[:i], lines[i+1:]...)
		} else {
			lines[i].Quantity = quantity
		}
		return nil
	}
	return nil
}

func (m *memoryRepository) Remove(_ context.Context, key, productID string) error {
	if m.err != nil {
		return m.err
	}
	lines := m.items[key]
	for i := range lines {
		if lines[i].Product.ID == productID {
			m.items[key] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memoryRepository) Clear(_ context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.items, key)
	return nil
}

var fixedNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func testReconciler() (*Reconciler, *memoryRepository, *memoryRepository) {
	guest := newMemoryRepository()
	server := newMemoryRepository()
	r := NewReconciler(guest, server, WithClock(fixedClock))
	return r, guest, server
}

func discountedProduct(id string) models.Product {
	return models.Product{
		ID:       id,
		Name:     "Cubierta " + id,
		Price:    100000,
		Category: models.CategoryCubiertas,
		Promotion: &models.Promotion{
			Active:          true,
			Name:            "Oferta",
			DiscountedPrice: 80000,
			StartDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:         time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		},
	}
}

func plainProduct(id string, price int64) models.Product {
	return models.Product{ID: id, Name: "Llanta " + id, Price: price, Category: models.CategoryLlantas}
}

func guestID() Identity { return Identity{GuestID: "g1"} }
func userID() Identity  { return Identity{UserID: "u1"} }

func TestAddItemFreezesPromotionalPrice(t *testing.T) {
	r, _, _ := testReconciler()
	ctx := context.Background()

	require.NoError(t, r.AddItem(ctx, guestID(), discountedProduct("p1"), 1))

	items, err := r.Load(ctx, guestID())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(80000), items[0].UnitPrice)
}

func TestAddItemTwiceIncrementsSingleLine(t *testing.T) {
	r, _, _ := testReconciler()
	ctx := context.Background()

	require.NoError(t, r.AddItem(ctx, guestID(), discountedProduct("p1"), 1))
	require.NoError(t, r.AddItem(ctx, guestID(), discountedProduct("p1"), 1))

	items, err := r.Load(ctx, guestID())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddThenRemoveRoundTrip(t *testing.T) {
	r, _, _ := testReconciler()
	ctx := context.Background()

	require.NoError(t, r.AddItem(ctx, guestID(), plainProduct("base", 50000), 1))
	before, err := r.Load(ctx, guestID())
	require.NoError(t, err)

	require.NoError(t, r.AddItem(ctx, guestID(), plainProduct("extra", 30000), 1))
	require.NoError(t, r.RemoveItem(ctx, guestID(), "extra"))

	after, err := r.Load(ctx, guestID())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateQuantityZeroEqualsRemove(t *testing.T) {
	r, _, _ := testReconciler()
	ctx := context.Background()

	require.NoError(t, r.AddItem(ctx, guestID(), plainProduct("p1", 50000), 2))
	require.NoError(t, r.UpdateQuantity(ctx, guestID(), "p1", 0))

	items, err := r.Load(ctx, guestID())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateQuantityNegativeRejected(t *testing.T) {
	r, _, _ := testReconciler()
	ctx := context.Background()

	require.NoError(t, r.AddItem(ctx, guestID(), plainProduct("p1", 50000), 2))
	err := r.UpdateQuantity(ctx, guestID(), "p1", -1)
	assert.ErrorIs(t, err, ErrNegativeQuantity)

	items, err := r.Load(ctx, guestID())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestUpdateQuantityReplacesInPlace(t *testing.T) {
	r, _, _ := testReconciler()
	ctx := context.Background()

	require.NoError(t, r.AddItem(ctx, guestID(), plainProduct("p1", 50000), 2))
	require.NoError(t, r.UpdateQuantity(ctx, guestID(), "p1", 5))

	items, err := r.Load(ctx, guestID())
	require.NoError(t, err)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestRemoveItemIdempotent(t *testing.T) {
	r, _, _ := testReconciler()
	ctx := context.Background()

	require.NoError(t, r.AddItem(ctx, guestID(), plainProduct("p1", 50000), 1))
	require.NoError(t, r.RemoveItem(ctx, guestID(), "missing"))

	items, err := r.Load(ctx, guestID())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestTotalAdditive(t *testing.T) {
	r, _, _ := testReconciler()

	a := models.CartItem{Product: plainProduct("a", 80000), Quantity: 2, UnitPrice: 80000}
	b := models.CartItem{Product: plainProduct("b", 50000), Quantity: 1, UnitPrice: 50000}

	totalAB := r.Total([]models.CartItem{a, b}, guestID())
	totalA := r.Total([]models.CartItem{a}, guestID())
	totalB := r.Total([]models.CartItem{b}, guestID())

	assert.Equal(t, int64(210000), totalAB)
	assert.Equal(t, totalA+totalB, totalAB)
}

func TestGuestTotalUsesSnapshotPrice(t *testing.T) {
	r, _, _ := testReconciler()

	// Snapshot was taken while the promotion was running; the product's
	// window has since changed, which must not affect a guest total.
	item := models.CartItem{Product: discountedProduct("p1"), Quantity: 2, UnitPrice: 80000}
	item.Product.Promotion.EndDate = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(160000), r.Total([]models.CartItem{item}, guestID()))
}

func TestUserTotalReEvaluatesPromotion(t *testing.T) {
	r, _, _ := testReconciler()

	// Snapshot price is stale: the promotion expired before fixedNow.
	item := models.CartItem{Product: discountedProduct("p1"), Quantity: 2, UnitPrice: 80000}
	item.Product.Promotion.EndDate = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(200000), r.Total([]models.CartItem{item}, userID()))
}

func TestPolicyOverride(t *testing.T) {
	guest := newMemoryRepository()
	server := newMemoryRepository()
	r := NewReconciler(guest, server,
		WithClock(fixedClock),
		WithPolicies(PolicyLive, PolicySnapshot))

	item := models.CartItem{Product: discountedProduct("p1"), Quantity: 1, UnitPrice: 99999}

	// Guest realm now live: promotion is running at fixedNow.
	assert.Equal(t, int64(80000), r.Total([]models.CartItem{item}, guestID()))
	// User realm now snapshot.
	assert.Equal(t, int64(99999), r.Total([]models.CartItem{item}, userID()))
}

func TestIdentitySelectsRealm(t *testing.T) {
	r, guest, server := testReconciler()
	ctx := context.Background()

	require.NoError(t, r.AddItem(ctx, guestID(), plainProduct("g", 1000), 1))
	require.NoError(t, r.AddItem(ctx, userID(), plainProduct("u", 2000), 1))

	assert.Len(t, guest.items["g1"], 1)
	assert.Len(t, server.items["u1"], 1)
}

func TestMissingIdentityRejected(t *testing.T) {
	r, _, _ := testReconciler()
	ctx := context.Background()

	_, err := r.Load(ctx, Identity{})
	assert.ErrorIs(t, err, ErrNoIdentity)
	assert.ErrorIs(t, r.AddItem(ctx, Identity{}, plainProduct("p", 1000), 1), ErrNoIdentity)
}

func TestItemCount(t *testing.T) {
	r, _, _ := testReconciler()
	ctx := context.Background()

	require.NoError(t, r.AddItem(ctx, userID(), plainProduct("a", 1000), 2))
	require.NoError(t, r.AddItem(ctx, userID(), plainProduct("b", 2000), 3))

	count, err := r.ItemCount(ctx, userID())
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestMergeGuestCart(t *testing.T) {
	r, guest, server := testReconciler()
	ctx := context.Background()

	require.NoError(t, r.AddItem(ctx, guestID(), discountedProduct("p1"), 2))
	require.NoError(t, r.AddItem(ctx, userID(), discountedProduct("p1"), 1))

	require.NoError(t, r.MergeGuestCart(ctx, "g1", "u1"))

	// Quantities fold into the existing server line.
	require.Len(t, server.items["u1"], 1)
	assert.Equal(t, 3, server.items["u1"][0].Quantity)

	// Guest entry is gone.
	assert.Empty(t, guest.items["g1"])
}

func TestMergeEmptyGuestCartNoOp(t *testing.T) {
	r, _, server := testReconciler()
	ctx := context.Background()

	require.NoError(t, r.MergeGuestCart(ctx, "g1", "u1"))
	assert.Empty(t, server.items["u1"])
}

func TestServerLoadErrorSurfaces(t *testing.T) {
	r, _, server := testReconciler()
	server.err = assert.AnError

	_, err := r.Load(context.Background(), userID())
	assert.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	assert.Equal(t, PolicyLive, ParsePolicy("live"))
	assert.Equal(t, PolicySnapshot, ParsePolicy("snapshot"))
	assert.Equal(t, PolicySnapshot, ParsePolicy("whatever"))
}
