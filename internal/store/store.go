package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vecar-shop/internal/models"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Migrate applies pending schema migrations from the given directory.
func (s *Store) Migrate(migrationsPath string) error {
	driver, err := postgres.WithInstance(s.db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath), "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// productRow flattens the optional promotion sub-object into nullable
// columns for scanning.
type productRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Price       int64          `db:"price"`
	Image       string         `db:"image"`
	Description string         `db:"description"`
	Category    string         `db:"category"`
	SoldOut     bool           `db:"sold_out"`
	CreatedAt   time.Time      `db:"created_at"`
	PromoActive sql.NullBool   `db:"promo_active"`
	PromoName   sql.NullString `db:"promo_name"`
	PromoPrice  sql.NullInt64  `db:"promo_price"`
	PromoStart  sql.NullTime   `db:"promo_start"`
	PromoEnd    sql.NullTime   `db:"promo_end"`
}

func (r *productRow) toProduct() models.Product {
	p := models.Product{
		ID:          r.ID,
		Name:        r.Name,
		Price:       r.Price,
		Image:       r.Image,
		Description: r.Description,
		Category:    r.Category,
		SoldOut:     r.SoldOut,
		CreatedAt:   r.CreatedAt,
	}
	if r.PromoActive.Valid {
		p.Promotion = &models.Promotion{
			Active:          r.PromoActive.Bool,
			Name:            r.PromoName.String,
			DiscountedPrice: r.PromoPrice.Int64,
			StartDate:       r.PromoStart.Time,
			EndDate:         r.PromoEnd.Time,
		}
	}
	return p
}

func promoColumns(p *models.Product) (active sql.NullBool, name sql.NullString, price sql.NullInt64, start, end sql.NullTime) {
	if p.Promotion == nil {
		return
	}
	active = sql.NullBool{Bool: p.Promotion.Active, Valid: true}
	name = sql.NullString{String: p.Promotion.Name, Valid: true}
	price = sql.NullInt64{Int64: p.Promotion.DiscountedPrice, Valid: true}
	start = sql.NullTime{Time: p.Promotion.StartDate, Valid: !p.Promotion.StartDate.IsZero()}
	end = sql.NullTime{Time: p.Promotion.EndDate, Valid: !p.Promotion.EndDate.IsZero()}
	return
}

// GetProducts retrieves all products, newest first.
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var rows []productRow
	err := s.db.SelectContext(ctx, &rows, "SELECT * FROM products ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(rows))
	for i := range rows {
		products = append(products, rows[i].toProduct())
	}
	return products, nil
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	p := row.toProduct()
	return &p, nil
}

// CreateProduct inserts a new product with its optional promotion.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	active, name, price, start, end := promoColumns(p)

	query := `
		INSERT INTO products (id, name, price, image, description, category, sold_out,
			promo_active, promo_name, promo_price, promo_start, promo_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`

	return s.db.GetContext(ctx, &p.CreatedAt, query,
		p.ID, p.Name, p.Price, p.Image, p.Description, p.Category, p.SoldOut,
		active, name, price, start, end)
}

// UpdateProduct replaces a product's fields and promotion.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	active, name, price, start, end := promoColumns(p)

	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET name = $1, price = $2, image = $3, description = $4,
			category = $5, sold_out = $6,
			promo_active = $7, promo_name = $8, promo_price = $9, promo_start = $10, promo_end = $11
		WHERE id = $12`,
		p.Name, p.Price, p.Image, p.Description, p.Category, p.SoldOut,
		active, name, price, start, end, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

// DeleteProduct removes a product and any cart lines referencing it.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}
