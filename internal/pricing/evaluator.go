// Package pricing decides the effective unit price of a product under
// time-boxed promotions. Evaluation is a pure function of (product, instant);
// callers inject the instant so results stay deterministic.
package pricing

import (
	"errors"
	"math"
	"time"

	"vecar-shop/internal/models"
)

// Quote is the outcome of evaluating a product at an instant.
type Quote struct {
	UnitPrice  int64
	Discounted bool
}

// Validation errors for admin promotion editing.
var (
	ErrPromotionName      = errors.New("promotion name is required")
	ErrDiscountedPrice    = errors.New("discounted price must be positive and below the base price")
	ErrPromotionWindow    = errors.New("promotion start must be before its end")
	ErrNonPositivePrice   = errors.New("price must be positive")
	ErrMissingProductInfo = errors.New("name, image, description and category are required")
)

// Evaluate returns the effective unit price of p at instant now.
//
// If the product carries a precomputed IsPromotionActive flag it is trusted
// unconditionally; otherwise the window is evaluated locally, with the end
// date extended to the last instant of its calendar day. Ambiguous data
// (missing promotion, zero dates) never applies a discount.
func Evaluate(p *models.Product, now time.Time) Quote {
	if active := p.IsPromotionActive; active != nil {
		if *active && p.Promotion != nil {
			return Quote{UnitPrice: p.Promotion.DiscountedPrice, Discounted: true}
		}
		return Quote{UnitPrice: p.Price}
	}

	if windowActive(p.Promotion, now) {
		return Quote{UnitPrice: p.Promotion.DiscountedPrice, Discounted: true}
	}
	return Quote{UnitPrice: p.Price}
}

// Active reports whether p's promotion applies at instant now, honouring a
// precomputed flag when present.
func Active(p *models.Product, now time.Time) bool {
	return Evaluate(p, now).Discounted
}

func windowActive(promo *models.Promotion, now time.Time) bool {
	if promo == nil || !promo.Active {
		return false
	}
	if promo.StartDate.IsZero() || promo.EndDate.IsZero() {
		return false
	}
	end := EndOfDay(promo.EndDate)
	return !now.Before(promo.StartDate) && !now.After(end)
}

// EndOfDay normalizes t to 23:59:59.999 of its calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999_000_000, t.Location())
}

// DiscountPercent returns the rounded display percentage for a discounted
// product. The second return is false when the base price is not positive
// or no promotion is attached.
func DiscountPercent(p *models.Product) (int, bool) {
	if p.Promotion == nil || p.Price <= 0 {
		return 0, false
	}
	pct := float64(p.Price-p.Promotion.DiscountedPrice) / float64(p.Price) * 100
	return int(math.Round(pct)), true
}

// Validate checks a product and its promotion sub-object the way the admin
// form does before anything reaches storage.
func Validate(p *models.Product) error {
	if p.Name == "" || p.Image == "" || p.Description == "" || p.Category == "" {
		return ErrMissingProductInfo
	}
	if p.Price <= 0 {
		return ErrNonPositivePrice
	}
	promo := p.Promotion
	if promo == nil || !promo.Active {
		return nil
	}
	if promo.Name == "" {
		return ErrPromotionName
	}
	if promo.DiscountedPrice <= 0 || promo.DiscountedPrice >= p.Price {
		return ErrDiscountedPrice
	}
	if promo.StartDate.IsZero() || promo.EndDate.IsZero() || !promo.StartDate.Before(promo.EndDate) {
		return ErrPromotionWindow
	}
	return nil
}
