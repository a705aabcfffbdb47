package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"iamercado/pkg/models"
)

// DashboardClient submits and updates orders on the staff dashboard service
type DashboardClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

func NewDashboardClient(baseURL, authToken string) *DashboardClient {
	return &DashboardClient{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SubmitOrder POSTs a new order payload to the dashboard
func (c *DashboardClient) SubmitOrder(ctx context.Context, order *models.DashboardOrder) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/pedidos", payload); err != nil {
		return err
	}
	log.Info().Str("phone", order.Phone).Int("items", len(order.Items)).Msg("order submitted to dashboard")
	return nil
}

// UpdateOrder PUTs the full revised payload for the customer's latest order.
// The dashboard keys orders by the customer's phone digits.
func (c *DashboardClient) UpdateOrder(ctx context.Context, phone string, order *models.DashboardOrder) error {
	digits := onlyDigits(phone)
	if digits == "" {
		return fmt.Errorf("invalid phone %q", phone)
	}
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	if err := c.do(ctx, http.MethodPut, c.baseURL+"/alterar/"+digits, payload); err != nil {
		return err
	}
	log.Info().Str("phone", digits).Int("items", len(order.Items)).Msg("order updated on dashboard")
	return nil
}

func (c *DashboardClient) do(ctx context.Context, method, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dashboard request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("dashboard returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
