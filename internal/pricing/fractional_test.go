package pricing

import (
	"errors"
	"testing"
)

func TestByWeight(t *testing.T) {
	calc := NewCalculator(Reject)

	tests := []struct {
		name       string
		grams      int
		perKgCents int64
		minGrams   int
		wantCents  int64
	}{
		{"300g presunto at R$45/kg", 300, 4500, MinFriosGrams, 1350},
		{"half kilo at R$10/kg", 500, 1000, 0, 500},
		{"exact minimum frios", 100, 4500, MinFriosGrams, 450},
		{"rounding up", 333, 1000, 0, 333},
		{"one gram", 1, 999, 0, 1},
	}

	for _, test := range tests {
		q, err := calc.ByWeight(test.grams, test.perKgCents, test.minGrams)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if q.PriceCents != test.wantCents {
			t.Errorf("%s: price = %d cents, expected %d", test.name, q.PriceCents, test.wantCents)
		}
		if q.Quantity != 1 {
			t.Errorf("%s: quantity = %d, must always be 1", test.name, q.Quantity)
		}
		if q.Grams != test.grams {
			t.Errorf("%s: grams = %d, expected %d", test.name, q.Grams, test.grams)
		}
	}
}

func TestByWeightBelowMinimumReject(t *testing.T) {
	calc := NewCalculator(Reject)

	_, err := calc.ByWeight(200, 5000, MinCarnesGrams)
	if !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}

	var bm *BelowMinimumError
	if !errors.As(err, &bm) {
		t.Fatalf("expected *BelowMinimumError, got %T", err)
	}
	if bm.RequestedGrams != 200 || bm.MinimumGrams != MinCarnesGrams {
		t.Errorf("unexpected error detail: %+v", bm)
	}
}

func TestByWeightBelowMinimumClampUp(t *testing.T) {
	calc := NewCalculator(ClampUp)

	q, err := calc.ByWeight(50, 4500, MinFriosGrams)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Grams != MinFriosGrams {
		t.Errorf("grams = %d, expected clamp to %d", q.Grams, MinFriosGrams)
	}
	if !q.Clamped {
		t.Error("quote should be flagged as clamped")
	}
	if q.PriceCents != 450 {
		t.Errorf("price = %d cents, expected 450", q.PriceCents)
	}
}

func TestByAmount(t *testing.T) {
	calc := NewCalculator(Reject)

	// R$20 of queijo mussarela at R$50/kg -> 400g, R$20.00
	q, err := calc.ByAmount(2000, 5000, MinFriosGrams)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Grams != 400 {
		t.Errorf("grams = %d, expected 400", q.Grams)
	}
	if q.PriceCents != 2000 {
		t.Errorf("price = %d cents, expected 2000", q.PriceCents)
	}
	if q.Quantity != 1 {
		t.Errorf("quantity = %d, must always be 1", q.Quantity)
	}
}

func TestByAmountBelowMinimum(t *testing.T) {
	calc := NewCalculator(Reject)

	// R$2 at R$50/kg is 40g, under the frios minimum
	_, err := calc.ByAmount(200, 5000, MinFriosGrams)
	if !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}

	// Same request under ClampUp lands on the minimum weight
	q, err := NewCalculator(ClampUp).ByAmount(200, 5000, MinFriosGrams)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Grams != MinFriosGrams || q.PriceCents != 500 {
		t.Errorf("unexpected clamped quote: %+v", q)
	}
}

func TestByAmountInvalidInput(t *testing.T) {
	calc := NewCalculator(Reject)

	if _, err := calc.ByAmount(0, 5000, 0); err == nil {
		t.Error("zero amount should fail")
	}
	if _, err := calc.ByAmount(2000, 0, 0); err == nil {
		t.Error("zero per-kg price should fail")
	}
	if _, err := calc.ByWeight(-100, 5000, 0); err == nil {
		t.Error("negative weight should fail")
	}
}

func TestFormatWeight(t *testing.T) {
	tests := []struct {
		grams    int
		expected string
	}{
		{300, "300g"},
		{1000, "1kg"},
		{1500, "1,5kg"},
		{2300, "2,3kg"},
		{1250, "1250g"},
		{50, "50g"},
	}

	for _, test := range tests {
		if got := FormatWeight(test.grams); got != test.expected {
			t.Errorf("FormatWeight(%d) = %q, expected %q", test.grams, got, test.expected)
		}
	}
}

func TestItemName(t *testing.T) {
	if got := ItemName("Presunto Sadia", 300); got != "Presunto Sadia 300g" {
		t.Errorf("ItemName = %q", got)
	}
}
