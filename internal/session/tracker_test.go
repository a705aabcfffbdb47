package session

import (
	"errors"
	"testing"
	"time"

	"iamercado/pkg/models"
)

func newTestTracker() (*Tracker, *time.Time) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	t := NewTracker(nil)
	t.StopCleanupScheduler()
	t.now = func() time.Time { return now }
	return t, &now
}

func item(name string, qty int, cents int64) models.OrderItem {
	return models.OrderItem{ProductName: name, Quantity: qty, UnitPriceCents: cents}
}

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"+55 (27) 99779-9027", "5527997799027"},
		{"5527997799027", "5527997799027"},
		{"5527997799027@c.us", "5527997799027"},
		{"", ""},
	}

	for _, test := range tests {
		if got := SanitizePhone(test.input); got != test.expected {
			t.Errorf("SanitizePhone(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	tr, now := newTestTracker()
	phone := "5527999990000"

	if got := tr.Status(phone); got != models.SessionUnset {
		t.Fatalf("initial status = %q, expected unset", got)
	}

	if _, err := tr.AddItem(phone, item("Arroz Tio João 5kg", 1, 2890)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if got := tr.Status(phone); got != models.SessionInProgress {
		t.Fatalf("status after first item = %q, expected in_progress", got)
	}

	if _, err := tr.Submit(phone); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := tr.Status(phone); got != models.SessionSubmitted {
		t.Fatalf("status after submit = %q, expected submitted", got)
	}

	// Past the modification window the session is gone
	*now = now.Add(ModificationWindow + time.Minute)
	if got := tr.Status(phone); got != models.SessionUnset {
		t.Fatalf("status after window = %q, expected unset", got)
	}
}

func TestAddItemAfterSubmitIsRejected(t *testing.T) {
	tr, _ := newTestTracker()
	phone := "5527999990001"

	tr.AddItem(phone, item("Feijão Preto 1kg", 2, 899))
	tr.Submit(phone)

	_, err := tr.AddItem(phone, item("Farinha 1kg", 1, 650))
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestModificationWindow(t *testing.T) {
	tr, now := newTestTracker()
	phone := "5527999990002"

	tr.AddItem(phone, item("Presunto Sadia 300g", 1, 1350))
	tr.Submit(phone)

	// Inside the window modification is allowed
	*now = now.Add(5 * time.Minute)
	s, err := tr.AppendModification(phone, item("Queijo Mussarela 400g", 1, 2000))
	if err != nil {
		t.Fatalf("AppendModification inside window: %v", err)
	}
	if len(s.Items) != 2 {
		t.Fatalf("items = %d, expected 2", len(s.Items))
	}
	if s.Status != models.SessionSubmitted {
		t.Fatalf("status = %q, modification must not change it", s.Status)
	}

	// Past the window it is rejected
	*now = now.Add(6 * time.Minute)
	_, err = tr.AppendModification(phone, item("Pão Francês 500g", 1, 700))
	if !errors.Is(err, ErrModificationWindowClosed) {
		t.Fatalf("expected ErrModificationWindowClosed, got %v", err)
	}
}

func TestSetItemsReplacesOpenSessionLines(t *testing.T) {
	tr, _ := newTestTracker()
	phone := "5527999990014"

	lines := []models.OrderItem{
		item("Presunto Sadia 300g", 1, 1350),
		item("Leite Integral 1L", 2, 549),
	}
	if _, err := tr.SetItems(phone, lines); err != nil {
		t.Fatalf("SetItems: %v", err)
	}
	if got := tr.Status(phone); got != models.SessionInProgress {
		t.Fatalf("status = %q, expected in_progress", got)
	}

	// recording the same list again must not accumulate lines
	s, err := tr.SetItems(phone, lines)
	if err != nil {
		t.Fatalf("SetItems again: %v", err)
	}
	if len(s.Items) != 2 {
		t.Fatalf("items = %d after repeated recording, expected 2", len(s.Items))
	}

	tr.Submit(phone)
	if _, err := tr.SetItems(phone, lines); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestReplaceItems(t *testing.T) {
	tr, now := newTestTracker()
	phone := "5527999990012"

	tr.AddItem(phone, item("Presunto Sadia 300g", 1, 1350))
	tr.AddItem(phone, item("Leite Integral 1L", 2, 549))
	tr.Submit(phone)

	*now = now.Add(3 * time.Minute)
	revised := []models.OrderItem{
		item("Presunto Sadia 500g", 1, 2250),
		item("Leite Integral 1L", 2, 549),
		item("Pão Francês 500g", 1, 700),
	}
	s, err := tr.ReplaceItems(phone, revised)
	if err != nil {
		t.Fatalf("ReplaceItems inside window: %v", err)
	}
	if len(s.Items) != 3 {
		t.Fatalf("items = %d, expected 3", len(s.Items))
	}
	if s.Items[0].ProductName != "Presunto Sadia 500g" {
		t.Fatalf("first item = %q, expected the revised one", s.Items[0].ProductName)
	}

	*now = now.Add(8 * time.Minute)
	if _, err := tr.ReplaceItems(phone, revised); !errors.Is(err, ErrModificationWindowClosed) {
		t.Fatalf("expected ErrModificationWindowClosed, got %v", err)
	}
}

func TestBeginModificationOnInProgressSession(t *testing.T) {
	tr, _ := newTestTracker()
	phone := "5527999990003"

	tr.AddItem(phone, item("Leite Integral 1L", 6, 549))

	s, err := tr.BeginModification(phone)
	if err != nil {
		t.Fatalf("BeginModification: %v", err)
	}
	if s.Status != models.SessionInProgress {
		t.Fatalf("status = %q, expected in_progress", s.Status)
	}
}

func TestSubmitWithoutSession(t *testing.T) {
	tr, _ := newTestTracker()

	if _, err := tr.Submit("5527999990004"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestDoubleSubmit(t *testing.T) {
	tr, _ := newTestTracker()
	phone := "5527999990005"

	tr.AddItem(phone, item("Café 500g", 1, 1890))
	if _, err := tr.Submit(phone); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := tr.Submit(phone); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestRemoveItem(t *testing.T) {
	tr, _ := newTestTracker()
	phone := "5527999990006"

	tr.AddItem(phone, item("Arroz 5kg", 1, 2890))
	tr.AddItem(phone, item("Feijão Preto 1kg", 2, 899))

	removed, err := tr.RemoveItem(phone, "feijão")
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if removed.ProductName != "Feijão Preto 1kg" {
		t.Errorf("removed %q", removed.ProductName)
	}
	if s := tr.Get(phone); len(s.Items) != 1 {
		t.Errorf("items = %d, expected 1", len(s.Items))
	}
}

func TestSetDelivery(t *testing.T) {
	tr, _ := newTestTracker()
	phone := "5527999990007"

	tr.AddItem(phone, item("Arroz 5kg", 1, 2890))
	if err := tr.SetDelivery(phone, models.PaymentPix, "Rua das Flores 123", false); err != nil {
		t.Fatalf("SetDelivery: %v", err)
	}

	s := tr.Get(phone)
	if s.PaymentMethod != models.PaymentPix || s.Address != "Rua das Flores 123" || s.Pickup {
		t.Errorf("unexpected delivery data: %+v", s)
	}

	// Switching to pickup clears the address
	if err := tr.SetDelivery(phone, "", "", true); err != nil {
		t.Fatalf("SetDelivery pickup: %v", err)
	}
	s = tr.Get(phone)
	if !s.Pickup || s.Address != "" {
		t.Errorf("pickup not recorded: %+v", s)
	}
}

func TestIdleSessionExpires(t *testing.T) {
	tr, now := newTestTracker()
	phone := "5527999990008"

	tr.AddItem(phone, item("Arroz 5kg", 1, 2890))

	*now = now.Add(idleTimeout + time.Hour)
	if got := tr.Status(phone); got != models.SessionUnset {
		t.Fatalf("status = %q, expected unset after idle timeout", got)
	}
	// A new item opens a fresh session
	s, err := tr.AddItem(phone, item("Açúcar 1kg", 1, 499))
	if err != nil {
		t.Fatalf("AddItem after expiry: %v", err)
	}
	if len(s.Items) != 1 {
		t.Errorf("fresh session items = %d, expected 1", len(s.Items))
	}
}

func TestOrderTotalArithmetic(t *testing.T) {
	items := []models.OrderItem{
		item("Presunto Sadia 300g", 1, 1350),
		item("Leite Integral 1L", 6, 549),
	}
	want := int64(1350 + 6*549)
	if got := models.SumItemsCents(items); got != want {
		t.Errorf("SumItemsCents = %d, expected %d", got, want)
	}
}
