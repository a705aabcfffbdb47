package services

import (
	"testing"
)

func TestParseStockResponseArray(t *testing.T) {
	body := []byte(`[
		{"nome": "Presunto Sadia kg", "vl_produto": "45,00", "estoque": 12},
		{"nome": "Presunto Sadia kg", "preco_venda": 44.5, "qtd_estoque": 0},
		{"nome": "Presunto Seara kg", "valor": "1.234,56", "saldo": "3"}
	]`)

	infos := ParseStockResponse("7891234567890", body)
	if len(infos) != 2 {
		t.Fatalf("expected 2 available records, got %d", len(infos))
	}
	if infos[0].PriceCents != 4500 {
		t.Errorf("expected 4500 cents, got %d", infos[0].PriceCents)
	}
	if infos[1].PriceCents != 123456 {
		t.Errorf("expected 123456 cents, got %d", infos[1].PriceCents)
	}
	for _, info := range infos {
		if !info.Available {
			t.Errorf("record %q should be available", info.Name)
		}
		if info.EAN != "7891234567890" {
			t.Errorf("unexpected EAN %q", info.EAN)
		}
	}
}

func TestParseStockResponseSingleObject(t *testing.T) {
	body := []byte(`{"descricao": "Leite Integral 1L", "preco": "4,79", "quantidade": 30}`)

	infos := ParseStockResponse("7896036090244", body)
	if len(infos) != 1 {
		t.Fatalf("expected 1 record, got %d", len(infos))
	}
	if infos[0].PriceCents != 479 {
		t.Errorf("expected 479 cents, got %d", infos[0].PriceCents)
	}
	if infos[0].Name != "Leite Integral 1L" {
		t.Errorf("unexpected name %q", infos[0].Name)
	}
}

func TestParseStockResponsePriceKeyPriority(t *testing.T) {
	// vl_produto wins over atacadoPreco when both are present
	body := []byte(`{"vl_produto": "10,00", "atacadoPreco": "8,50", "estoque": 5}`)

	infos := ParseStockResponse("123", body)
	if len(infos) != 1 {
		t.Fatalf("expected 1 record, got %d", len(infos))
	}
	if infos[0].PriceCents != 1000 {
		t.Errorf("expected 1000 cents, got %d", infos[0].PriceCents)
	}
}

func TestParseStockResponseNoStockField(t *testing.T) {
	// a record with a price but no recognizable stock quantity is not offered
	body := []byte(`{"preco": "9,90", "codigo": "abc"}`)

	if infos := ParseStockResponse("123", body); len(infos) != 0 {
		t.Fatalf("expected no records, got %d", len(infos))
	}
}

func TestParseStockResponseInvalidJSON(t *testing.T) {
	if infos := ParseStockResponse("123", []byte(`not json`)); infos != nil {
		t.Fatalf("expected nil for invalid JSON, got %v", infos)
	}
}

func TestAsFloatFormats(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12,90", 12.90, true},
		{"12.90", 12.90, true},
		{"1.234,56", 1234.56, true},
		{"3", 3, true},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := asFloat(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("asFloat(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestOnlyDigits(t *testing.T) {
	if got := onlyDigits("EAN 789-6036.090244"); got != "7896036090244" {
		t.Errorf("onlyDigits = %q", got)
	}
}
