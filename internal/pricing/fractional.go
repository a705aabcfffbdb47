package pricing

import (
	"errors"
	"fmt"
	"strings"
)

// Category minimum billable weights in grams
const (
	MinFriosGrams      = 100
	MinCarnesGrams     = 300
	MinHortifrutiGrams = 200
)

// DefaultMinimums maps fractional category names to their minimum weight
var DefaultMinimums = map[string]int{
	"frios":      MinFriosGrams,
	"carnes":     MinCarnesGrams,
	"hortifruti": MinHortifrutiGrams,
	"hortifrúti": MinHortifrutiGrams,
}

// MinimumPolicy decides what happens when a request falls below the category
// minimum weight. Reject makes the attendant reprompt the customer; ClampUp
// silently raises the weight to the minimum.
type MinimumPolicy int

const (
	Reject MinimumPolicy = iota
	ClampUp
)

func (p MinimumPolicy) String() string {
	if p == ClampUp {
		return "clamp_up"
	}
	return "reject"
}

// ErrBelowMinimum is returned under the Reject policy when the requested
// weight is under the category minimum
var ErrBelowMinimum = errors.New("requested weight below category minimum")

// BelowMinimumError carries the amounts involved so the attendant can
// reprompt with concrete numbers
type BelowMinimumError struct {
	RequestedGrams int
	MinimumGrams   int
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("%v: %dg requested, minimum is %dg", ErrBelowMinimum, e.RequestedGrams, e.MinimumGrams)
}

func (e *BelowMinimumError) Unwrap() error { return ErrBelowMinimum }

// Quote is the billable result of a fractional pricing calculation. Quantity
// is always 1: the weight is folded into the line-item name, never expressed
// as a fractional quantity.
type Quote struct {
	Grams      int
	PriceCents int64
	Quantity   int
	Clamped    bool
}

// Calculator converts weight or monetary requests into billable quotes for
// goods priced per kilogram
type Calculator struct {
	policy MinimumPolicy
}

// NewCalculator creates a calculator with the given below-minimum policy
func NewCalculator(policy MinimumPolicy) *Calculator {
	return &Calculator{policy: policy}
}

// ByWeight quotes a requested weight in grams at a per-kg price in cents.
// price = round((g/1000) x p) to currency precision.
func (c *Calculator) ByWeight(grams int, perKgCents int64, minGrams int) (Quote, error) {
	if grams <= 0 {
		return Quote{}, fmt.Errorf("invalid weight: %dg", grams)
	}
	if perKgCents <= 0 {
		return Quote{}, fmt.Errorf("invalid per-kg price: %d cents", perKgCents)
	}

	clamped := false
	if minGrams > 0 && grams < minGrams {
		if c.policy == Reject {
			return Quote{}, &BelowMinimumError{RequestedGrams: grams, MinimumGrams: minGrams}
		}
		grams = minGrams
		clamped = true
	}

	return Quote{
		Grams:      grams,
		PriceCents: roundDiv(int64(grams)*perKgCents, 1000),
		Quantity:   1,
		Clamped:    clamped,
	}, nil
}

// ByAmount quotes a requested currency amount at a per-kg price in cents:
// grams = (r/p) x 1000, then the same minimum check. The price is re-derived
// from the final weight so the quote stays internally consistent.
func (c *Calculator) ByAmount(amountCents, perKgCents int64, minGrams int) (Quote, error) {
	if amountCents <= 0 {
		return Quote{}, fmt.Errorf("invalid amount: %d cents", amountCents)
	}
	if perKgCents <= 0 {
		return Quote{}, fmt.Errorf("invalid per-kg price: %d cents", perKgCents)
	}

	grams := int(roundDiv(amountCents*1000, perKgCents))
	if grams <= 0 {
		return Quote{}, &BelowMinimumError{RequestedGrams: grams, MinimumGrams: minGrams}
	}
	return c.ByWeight(grams, perKgCents, minGrams)
}

// FormatWeight renders a weight for embedding in a line-item name,
// e.g. 300 -> "300g", 1500 -> "1,5kg"
func FormatWeight(grams int) string {
	if grams >= 1000 && grams%100 == 0 {
		kg := fmt.Sprintf("%.1f", float64(grams)/1000)
		kg = strings.TrimSuffix(kg, ".0")
		return strings.ReplaceAll(kg, ".", ",") + "kg"
	}
	return fmt.Sprintf("%dg", grams)
}

// ItemName folds a computed weight into a product name,
// e.g. ("Presunto Sadia", 300) -> "Presunto Sadia 300g"
func ItemName(productName string, grams int) string {
	return strings.TrimSpace(productName) + " " + FormatWeight(grams)
}

// roundDiv divides rounding half away from zero (operands are positive here)
func roundDiv(n, d int64) int64 {
	return (n + d/2) / d
}
