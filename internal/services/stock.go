package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// StockClient queries the market's ERP for price and availability by EAN.
// The ERP response shape varies by deployment, so price and stock fields are
// extracted heuristically.
type StockClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// NewStockClient creates a stock client for the ERP base URL
func NewStockClient(baseURL, authToken string) *StockClient {
	return &StockClient{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// StockInfo is the sanitized view of one ERP record. Stock quantities are
// deliberately absent: the attendant must never mention them.
type StockInfo struct {
	EAN        string `json:"ean"`
	Name       string `json:"name,omitempty"`
	PriceCents int64  `json:"price_cents"`
	Available  bool   `json:"available"`
}

// Lookup fetches the ERP records for an EAN and returns only the available
// ones, with prices normalized to cents
func (c *StockClient) Lookup(ctx context.Context, ean string) ([]StockInfo, error) {
	digits := onlyDigits(ean)
	if digits == "" {
		return nil, fmt.Errorf("invalid EAN %q: digits only", ean)
	}

	url := c.baseURL + "/" + digits
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stock lookup failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read stock response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stock lookup returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	infos := ParseStockResponse(digits, body)
	log.Info().Str("ean", digits).Int("available", len(infos)).Msg("stock lookup")
	return infos, nil
}

// Possible price fields across ERP deployments, in priority order
var priceKeys = []string{
	"vl_produto",
	"vl_produto_normal",
	"preco",
	"preco_venda",
	"valor",
	"valor_unitario",
	"preco_unitario",
	"atacadoPreco",
}

// Possible stock-quantity fields; used for availability only and then
// redacted from the result
var stockQtyKeys = map[string]bool{
	"estoque": true, "qtd": true, "qtde": true, "qtd_estoque": true,
	"quantidade": true, "quantidade_disponivel": true, "quantidadeDisponivel": true,
	"qtdDisponivel": true, "qtdEstoque": true, "estoqueAtual": true, "saldo": true,
	"qty": true, "quantity": true, "stock": true, "qtd_produto": true,
}

var nameKeys = []string{"nome", "produto", "descricao", "nome_produto", "name"}

// ParseStockResponse normalizes an ERP JSON response (object or array) into
// available StockInfo records
func ParseStockResponse(ean string, body []byte) []StockInfo {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	var records []map[string]interface{}
	switch v := raw.(type) {
	case []interface{}:
		for _, it := range v {
			if m, ok := it.(map[string]interface{}); ok {
				records = append(records, m)
			}
		}
	case map[string]interface{}:
		records = append(records, v)
	}

	var infos []StockInfo
	for _, rec := range records {
		if !hasPositiveStock(rec) {
			continue
		}
		price, ok := extractPriceCents(rec)
		if !ok {
			continue
		}
		infos = append(infos, StockInfo{
			EAN:        ean,
			Name:       extractName(rec),
			PriceCents: price,
			Available:  true,
		})
	}
	return infos
}

func hasPositiveStock(rec map[string]interface{}) bool {
	for key := range stockQtyKeys {
		v, ok := rec[key]
		if !ok {
			continue
		}
		if n, ok := asFloat(v); ok && n > 0 {
			return true
		}
	}
	return false
}

func extractPriceCents(rec map[string]interface{}) (int64, bool) {
	for _, key := range priceKeys {
		v, ok := rec[key]
		if !ok {
			continue
		}
		if n, ok := asFloat(v); ok && n > 0 {
			return int64(math.Round(n * 100)), true
		}
	}
	return 0, false
}

func extractName(rec map[string]interface{}) string {
	for _, key := range nameKeys {
		if v, ok := rec[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// asFloat accepts JSON numbers and Brazilian-formatted strings
// ("1.234,56" or "12,90" or "12.90")
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		if strings.Count(s, ",") == 1 {
			// comma is the decimal separator; dots are thousands
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
