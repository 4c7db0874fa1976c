// Package catalog serves the product listing the storefront and admin
// console browse, and owns admin-side product mutations. Served products
// carry a computed isPromotionActive flag so clients never re-derive the
// promotion window themselves.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"vecar-shop/internal/models"
	"vecar-shop/internal/pricing"
	"vecar-shop/internal/redisclient"
	"vecar-shop/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	cacheTTL      = 5 * time.Minute
	newProductAge = 30 * 24 * time.Hour
)

// ErrUnknownCategory rejects products outside the fixed category set.
var ErrUnknownCategory = errors.New("unknown product category")

type productStore interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type listCache interface {
	GetCatalogCache(ctx context.Context) ([]byte, error)
	SetCatalogCache(ctx context.Context, payload []byte, ttl time.Duration) error
	InvalidateCatalogCache(ctx context.Context) error
}

// Service is the product catalog.
type Service struct {
	store  productStore
	cache  listCache
	sfg    singleflight.Group // prevents cache stampede on the product list
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a catalog service.
func NewService(store productStore, cache listCache, opts ...Option) *Service {
	s := &Service{
		store:  store,
		cache:  cache,
		now:    time.Now,
		logger: util.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option configures a Service.
type Option func(*Service)

// WithClock injects the time source used for promotion flags and the
// new-product cutoff.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Query filters a product listing.
type Query struct {
	Search   string
	Category string
}

// ListProducts returns products matching the query, active promotions
// first, each annotated with its promotion flag.
func (s *Service) ListProducts(ctx context.Context, q Query) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "Catalog.ListProducts")
	defer span.End()

	products, err := s.allProducts(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	filtered := make([]models.Product, 0, len(products))
	for i := range products {
		p := products[i]
		if !matches(&p, q) {
			continue
		}
		s.annotate(&p, now)
		filtered = append(filtered, p)
	}

	// Promoted products first, otherwise keep catalog order.
	sort.SliceStable(filtered, func(i, j int) bool {
		return isFlagged(&filtered[i]) && !isFlagged(&filtered[j])
	})
	return filtered, nil
}

// NewProducts returns products created within the last 30 days, annotated.
func (s *Service) NewProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.allProducts(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cutoff := now.Add(-newProductAge)
	recent := make([]models.Product, 0)
	for i := range products {
		p := products[i]
		if p.CreatedAt.Before(cutoff) {
			continue
		}
		s.annotate(&p, now)
		recent = append(recent, p)
	}
	return recent, nil
}

// GetProduct returns one product with its promotion flag attached.
func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.annotate(p, s.now())
	return p, nil
}

// CreateProduct validates and persists a new product.
func (s *Service) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := s.validate(p); err != nil {
		return err
	}
	p.ID = uuid.New().String()

	if err := s.store.CreateProduct(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.logger.Info("Product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
	return nil
}

// UpdateProduct validates and replaces an existing product.
func (s *Service) UpdateProduct(ctx context.Context, p *models.Product) error {
	if err := s.validate(p); err != nil {
		return err
	}

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.logger.Info("Product updated", zap.String("product_id", p.ID))
	return nil
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

func (s *Service) validate(p *models.Product) error {
	if err := pricing.Validate(p); err != nil {
		return err
	}
	for _, cat := range models.Categories {
		if p.Category == cat {
			return nil
		}
	}
	return ErrUnknownCategory
}

// annotate stamps the authoritative promotion flag onto a served product.
func (s *Service) annotate(p *models.Product, now time.Time) {
	active := pricing.Active(p, now)
	p.IsPromotionActive = &active
}

func isFlagged(p *models.Product) bool {
	return p.IsPromotionActive != nil && *p.IsPromotionActive
}

func matches(p *models.Product, q Query) bool {
	if q.Category != "" && q.Category != "Todos" && p.Category != q.Category {
		return false
	}
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(q.Search)
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle)
}

// allProducts reads the product list through the cache; concurrent misses
// collapse into one store query.
func (s *Service) allProducts(ctx context.Context) ([]models.Product, error) {
	if payload, err := s.cache.GetCatalogCache(ctx); err == nil {
		var products []models.Product
		if err := json.Unmarshal(payload, &products); err == nil {
			util.CatalogCacheHits.WithLabelValues("hit").Inc()
			return products, nil
		}
		s.invalidate(ctx)
	} else if !errors.Is(err, redisclient.ErrCacheMiss) {
		s.logger.Warn("Catalog cache read failed", zap.Error(err))
	}
	util.CatalogCacheHits.WithLabelValues("miss").Inc()

	v, err, _ := s.sfg.Do("products", func() (interface{}, error) {
		products, err := s.store.GetProducts(ctx)
		if err != nil {
			return nil, err
		}

		if payload, err := json.Marshal(products); err == nil {
			if err := s.cache.SetCatalogCache(ctx, payload, cacheTTL); err != nil {
				s.logger.Warn("Catalog cache write failed", zap.Error(err))
			}
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Product), nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateCatalogCache(ctx); err != nil {
		s.logger.Warn("Catalog cache invalidation failed", zap.Error(err))
	}
}
