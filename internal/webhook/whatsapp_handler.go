package webhook

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"iamercado/internal/ai"
	"iamercado/internal/session"
	"iamercado/internal/whatsapp"
)

// GatewayWebhook is the envelope the WhatsApp gateway posts on each event
type GatewayWebhook struct {
	ID      string         `json:"id"`
	Event   string         `json:"event"`
	Session string         `json:"session"`
	Payload GatewayPayload `json:"payload"`
}

// GatewayPayload is the message body of a webhook event
type GatewayPayload struct {
	ID        string     `json:"id"`
	Timestamp int64      `json:"timestamp"`
	From      string     `json:"from"`
	FromMe    bool       `json:"fromMe"`
	To        string     `json:"to"`
	Body      string     `json:"body"`
	HasMedia  bool       `json:"hasMedia"`
	Media     *MediaInfo `json:"media"`
	MediaURL  string     `json:"mediaUrl"`
}

// MediaInfo describes an attachment on an inbound message
type MediaInfo struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	MimeType string `json:"mimetype"`
}

// Sender delivers outbound replies
type Sender interface {
	SendText(ctx context.Context, phone, text string) error
}

// WhatsAppHandler receives gateway webhooks and routes customer messages to
// the attendant
type WhatsAppHandler struct {
	attendant *ai.AttendantService
	sender    Sender
}

func NewWhatsAppHandler(attendant *ai.AttendantService, sender Sender) *WhatsAppHandler {
	return &WhatsAppHandler{
		attendant: attendant,
		sender:    sender,
	}
}

// Handle processes one webhook delivery. The gateway expects a fast 200, so
// the conversation turn runs in the background.
func (h *WhatsAppHandler) Handle(c echo.Context) error {
	var hook GatewayWebhook
	if err := c.Bind(&hook); err != nil {
		log.Warn().Err(err).Msg("malformed webhook payload")
		return c.NoContent(http.StatusBadRequest)
	}

	if hook.Event != "message" || hook.Payload.FromMe {
		return c.NoContent(http.StatusOK)
	}
	// group chats are not attended
	if strings.HasSuffix(hook.Payload.From, "@g.us") {
		return c.NoContent(http.StatusOK)
	}

	phone := session.SanitizePhone(hook.Payload.From)
	if phone == "" {
		return c.NoContent(http.StatusOK)
	}

	message := buildMessage(&hook.Payload)
	if message == "" {
		return c.NoContent(http.StatusOK)
	}

	go h.respond(phone, message)
	return c.NoContent(http.StatusOK)
}

func (h *WhatsAppHandler) respond(phone, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	reply, err := h.attendant.ProcessMessage(ctx, phone, message)
	if err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("attendant failed to process message")
		reply = "Desculpa, tive um problema aqui. Pode repetir, por favor?"
	}
	if reply == "" {
		return
	}

	if err := h.sender.SendText(ctx, phone, reply); err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("failed to send reply")
	}
}

// buildMessage folds an image attachment into the text as a media tag the
// attendant knows how to extract
func buildMessage(p *GatewayPayload) string {
	text := strings.TrimSpace(p.Body)

	mediaURL := p.MediaURL
	if mediaURL == "" && p.Media != nil {
		mediaURL = p.Media.URL
	}
	if mediaURL == "" {
		return text
	}
	if p.Media != nil && !strings.HasPrefix(p.Media.MimeType, "image/") {
		// only images matter (payment receipts); other media is ignored
		return text
	}
	return strings.TrimSpace(fmt.Sprintf("%s [MEDIA_URL: %s]", text, mediaURL))
}

// Ensure the concrete gateway client satisfies Sender
var _ Sender = (*whatsapp.Client)(nil)
