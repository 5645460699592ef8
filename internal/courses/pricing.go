package courses

import (
	"strings"
	"time"

	"github.com/aura-academy/backend/internal/models"
)

// Quote is the response of GET /courses/:id/price.
type Quote struct {
	CourseID        string               `json:"course_id"`
	BasePriceCents  int                  `json:"base_price_cents"`
	DiscountCents   int                  `json:"discount_cents"`
	FinalPriceCents int                  `json:"final_price_cents"`
	Currency        string               `json:"currency"`
	Discount        *models.DiscountRule `json:"discount,omitempty"`
}

// inWindow reports whether r is active at now. Bounds are inclusive from, exclusive until.
func inWindow(r models.DiscountRule, now time.Time) bool {
	if !r.Active {
		return false
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && !now.Before(*r.ValidUntil) {
		return false
	}
	return true
}

// matches reports whether r's scope covers course.
func matches(r models.DiscountRule, course *models.Course) bool {
	if r.CourseID != nil && *r.CourseID != course.ID {
		return false
	}
	if r.Department != "" && !strings.EqualFold(r.Department, course.Department) {
		return false
	}
	return course.PriceCents >= r.MinPriceCents
}

// DiscountAmount is what r takes off price, never more than the price itself.
func DiscountAmount(r models.DiscountRule, price int) int {
	var amount int
	switch r.Kind {
	case models.DiscountPercent:
		amount = price * min(max(r.Value, 0), 100) / 100
	case models.DiscountFixed:
		amount = max(r.Value, 0)
	}
	return min(amount, price)
}

// ApplicableDiscount picks the single rule giving course the largest discount at now.
// Rules never stack. It returns nil when no rule applies.
func ApplicableDiscount(rules []models.DiscountRule, course *models.Course, now time.Time) (*models.DiscountRule, int) {
	var (
		best   *models.DiscountRule
		amount int
	)
	for i := range rules {
		r := rules[i]
		if !inWindow(r, now) || !matches(r, course) {
			continue
		}
		if a := DiscountAmount(r, course.PriceCents); a > amount {
			best, amount = &r, a
		}
	}
	return best, amount
}

// Price quotes course against rules at now.
func Price(rules []models.DiscountRule, course *models.Course, now time.Time) Quote {
	rule, amount := ApplicableDiscount(rules, course, now)
	return Quote{
		CourseID:        course.ID.String(),
		BasePriceCents:  course.PriceCents,
		DiscountCents:   amount,
		FinalPriceCents: course.PriceCents - amount,
		Currency:        course.Currency,
		Discount:        rule,
	}
}
