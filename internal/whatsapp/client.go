package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Client talks to the WhatsApp gateway that fronts the store's number
type Client struct {
	baseURL    string
	session    string
	apiKey     string
	httpClient *http.Client
}

// SendTextRequest is the gateway payload for a text message
type SendTextRequest struct {
	ChatID      string `json:"chatId"`
	Text        string `json:"text"`
	LinkPreview bool   `json:"linkPreview"`
	Session     string `json:"session"`
}

// NewClient builds a gateway client from WHATSAPP_* environment variables
func NewClient() *Client {
	baseURL := os.Getenv("WHATSAPP_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	session := os.Getenv("WHATSAPP_SESSION")
	if session == "" {
		session = "default"
	}
	return NewClientWith(baseURL, session, os.Getenv("WHATSAPP_API_KEY"))
}

// NewClientWith builds a gateway client with explicit settings
func NewClientWith(baseURL, session, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ChatID converts a phone number in digits to the gateway chat identifier
func ChatID(phone string) string {
	if strings.Contains(phone, "@") {
		return phone
	}
	return phone + "@c.us"
}

// SendText delivers a text reply to a customer
func (c *Client) SendText(ctx context.Context, phone, text string) error {
	request := SendTextRequest{
		ChatID:      ChatID(phone),
		Text:        text,
		LinkPreview: false,
		Session:     c.session,
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sendText", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	log.Info().Str("phone", phone).Int("length", len(text)).Msg("message sent")
	return nil
}
