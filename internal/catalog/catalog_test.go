package catalog

import (
	"context"
	"testing"
	"time"

	"vecar-shop/internal/models"
	"vecar-shop/internal/pricing"
	"vecar-shop/internal/redisclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductStore struct {
	products map[string]models.Product
	order    []string
	err      error
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: make(map[string]models.Product)}
}

func (f *fakeProductStore) GetProducts(context.Context) ([]models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Product, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.products[id])
	}
	return out, nil
}

func (f *fakeProductStore) GetProductByID(_ context.Context, id string) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, assert.AnError
	}
	return &p, nil
}

func (f *fakeProductStore) CreateProduct(_ context.Context, p *models.Product) error {
	if f.err != nil {
		return f.err
	}
	f.products[p.ID] = *p
	f.order = append(f.order, p.ID)
	return nil
}

func (f *fakeProductStore) UpdateProduct(_ context.Context, p *models.Product) error {
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProductStore) DeleteProduct(_ context.Context, id string) error {
	delete(f.products, id)
	return nil
}

type fakeListCache struct {
	payload     []byte
	invalidated int
}

func (f *fakeListCache) GetCatalogCache(context.Context) ([]byte, error) {
	if f.payload == nil {
		return nil, redisclient.ErrCacheMiss
	}
	return f.payload, nil
}

func (f *fakeListCache) SetCatalogCache(_ context.Context, payload []byte, _ time.Duration) error {
	f.payload = payload
	return nil
}

func (f *fakeListCache) InvalidateCatalogCache(context.Context) error {
	f.payload = nil
	f.invalidated++
	return nil
}

var catalogNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func testService() (*Service, *fakeProductStore, *fakeListCache) {
	store := newFakeProductStore()
	cache := &fakeListCache{}
	svc := NewService(store, cache, WithClock(func() time.Time { return catalogNow }))
	return svc, store, cache
}

func seed(store *fakeProductStore, p models.Product) {
	store.products[p.ID] = p
	store.order = append(store.order, p.ID)
}

func tire(id, name string, createdAt time.Time) models.Product {
	return models.Product{
		ID: id, Name: name, Price: 100000,
		Image: "img", Description: "cubierta radial",
		Category: models.CategoryCubiertas, CreatedAt: createdAt,
	}
}

func promoted(id, name string) models.Product {
	p := tire(id, name, catalogNow.Add(-48*time.Hour))
	p.Promotion = &models.Promotion{
		Active:          true,
		Name:            "Oferta",
		DiscountedPrice: 80000,
		StartDate:       catalogNow.Add(-24 * time.Hour),
		EndDate:         catalogNow.Add(24 * time.Hour),
	}
	return p
}

func TestListProductsAnnotatesAndSortsPromotedFirst(t *testing.T) {
	svc, store, _ := testService()
	seed(store, tire("a", "Cubierta A", catalogNow.Add(-time.Hour)))
	seed(store, promoted("b", "Cubierta B"))

	products, err := svc.ListProducts(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "b", products[0].ID)
	require.NotNil(t, products[0].IsPromotionActive)
	assert.True(t, *products[0].IsPromotionActive)
	require.NotNil(t, products[1].IsPromotionActive)
	assert.False(t, *products[1].IsPromotionActive)
}

func TestListProductsFilters(t *testing.T) {
	svc, store, _ := testService()
	seed(store, tire("a", "Cubierta 185/65", catalogNow))
	wheel := tire("b", "Llanta R17", catalogNow)
	wheel.Category = models.CategoryLlantas
	wheel.Description = "llanta de aleación"
	seed(store, wheel)

	products, err := svc.ListProducts(context.Background(), Query{Category: models.CategoryLlantas})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "b", products[0].ID)

	products, err = svc.ListProducts(context.Background(), Query{Search: "185"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "a", products[0].ID)

	// Search also matches descriptions, case-insensitively.
	products, err = svc.ListProducts(context.Background(), Query{Search: "ALEACIÓN"})
	require.NoError(t, err)
	require.Len(t, products, 1)

	// "Todos" is the catch-all category.
	products, err = svc.ListProducts(context.Background(), Query{Category: "Todos"})
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestNewProductsCutoff(t *testing.T) {
	svc, store, _ := testService()
	seed(store, tire("old", "Vieja", catalogNow.Add(-31*24*time.Hour)))
	seed(store, tire("new", "Nueva", catalogNow.Add(-5*24*time.Hour)))

	products, err := svc.NewProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "new", products[0].ID)
}

func TestListProductsServedFromCache(t *testing.T) {
	svc, store, _ := testService()
	seed(store, tire("a", "Cubierta A", catalogNow))

	_, err := svc.ListProducts(context.Background(), Query{})
	require.NoError(t, err)

	// Remove from the store; the cached list still serves it.
	store.products = map[string]models.Product{}
	store.order = nil

	products, err := svc.ListProducts(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestCreateProductValidatesAndInvalidates(t *testing.T) {
	svc, store, cache := testService()
	ctx := context.Background()

	p := tire("", "Cubierta nueva", time.Time{})
	require.NoError(t, svc.CreateProduct(ctx, &p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 1, cache.invalidated)
	assert.Len(t, store.products, 1)

	bad := tire("", "Sin precio", time.Time{})
	bad.Price = 0
	assert.ErrorIs(t, svc.CreateProduct(ctx, &bad), pricing.ErrNonPositivePrice)

	badPromo := promoted("", "Promo rota")
	badPromo.Promotion.DiscountedPrice = 200000
	assert.ErrorIs(t, svc.CreateProduct(ctx, &badPromo), pricing.ErrDiscountedPrice)

	badCat := tire("", "Otra cosa", time.Time{})
	badCat.Category = "Accesorios"
	assert.ErrorIs(t, svc.CreateProduct(ctx, &badCat), ErrUnknownCategory)
}

func TestGetProductAnnotates(t *testing.T) {
	svc, store, _ := testService()
	seed(store, promoted("b", "Cubierta B"))

	p, err := svc.GetProduct(context.Background(), "b")
	require.NoError(t, err)
	require.NotNil(t, p.IsPromotionActive)
	assert.True(t, *p.IsPromotionActive)
}
