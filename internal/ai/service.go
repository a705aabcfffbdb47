package ai

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"iamercado/internal/pricing"
	"iamercado/internal/services"
	"iamercado/internal/session"
	"iamercado/internal/vocab"
	"iamercado/pkg/models"
)

// Tool rounds per inbound message. Each round is one model call; a message
// that triggers lookups typically needs two or three.
const maxToolRounds = 5

// ChatCompleter is the slice of the OpenAI client the attendant uses
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ProductFinder resolves a free-text product query to EAN candidates
type ProductFinder interface {
	SearchEANCandidates(ctx context.Context, query string, max int) ([]services.EANCandidate, error)
}

// StockLookup fetches price and availability for an EAN
type StockLookup interface {
	Lookup(ctx context.Context, ean string) ([]services.StockInfo, error)
}

// OrderGateway submits and revises orders on the staff dashboard
type OrderGateway interface {
	SubmitOrder(ctx context.Context, order *models.DashboardOrder) error
	UpdateOrder(ctx context.Context, phone string, order *models.DashboardOrder) error
}

// ReceiptStore re-hosts receipt images on durable storage
type ReceiptStore interface {
	UploadReceiptImage(mediaURL, phone string) (string, error)
}

// CatalogStore reads the local product catalog
type CatalogStore interface {
	GetByEAN(ean string) (*models.Product, error)
}

// CustomerStore reads and updates customer profiles
type CustomerStore interface {
	GetOrCreateByPhone(phone string) (*models.Customer, error)
	UpdateProfile(phone, name, address string) error
}

// MessageStore persists the chat log
type MessageStore interface {
	Save(msg *models.ChatMessage) error
	Recent(phone string, limit int) ([]models.ChatMessage, error)
	SearchByKeyword(phone, keyword string, limit int) ([]models.ChatMessage, error)
}

// OrderStore persists submitted orders
type OrderStore interface {
	Create(order *models.Order) error
	Update(order *models.Order) error
	GetLatestByPhone(phone string) (*models.Order, error)
}

// OrderNotifier receives order lifecycle events, e.g. a dashboard feed
type OrderNotifier interface {
	OrderSubmitted(order *models.Order)
	OrderUpdated(order *models.Order)
}

// AttendantService runs the customer-facing conversation: it normalizes the
// inbound text, lets the model decide which tools to call, executes them and
// returns the reply to send back
type AttendantService struct {
	client     ChatCompleter
	model      string
	memory     *MemoryManager
	normalizer atomic.Pointer[vocab.Normalizer] // swappable at runtime by the vocabulary admin API
	calc       *pricing.Calculator
	tracker    *session.Tracker
	clock      *services.LocalClock

	products  ProductFinder
	stock     StockLookup
	dashboard OrderGateway
	catalog   CatalogStore
	customers CustomerStore
	messages  MessageStore
	orders    OrderStore
	storage   ReceiptStore // nil when S3 is not configured

	notifier OrderNotifier // nil until a feed attaches
}

// SetNotifier attaches an order event listener
func (s *AttendantService) SetNotifier(n OrderNotifier) {
	s.notifier = n
}

// Stop shuts down the background memory janitor
func (s *AttendantService) Stop() {
	s.memory.StopCleanupScheduler()
}

// AttendantConfig bundles the dependencies of the attendant
type AttendantConfig struct {
	Client     ChatCompleter
	Model      string
	Normalizer *vocab.Normalizer
	Calculator *pricing.Calculator
	Tracker    *session.Tracker
	Clock      *services.LocalClock
	Products   ProductFinder
	Stock      StockLookup
	Dashboard  OrderGateway
	Catalog    CatalogStore
	Customers  CustomerStore
	Messages   MessageStore
	Orders     OrderStore
	Storage    ReceiptStore
}

func NewAttendantService(cfg AttendantConfig) *AttendantService {
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	var loader HistoryLoader
	if cfg.Messages != nil {
		loader = cfg.Messages
	}
	s := &AttendantService{
		client:    cfg.Client,
		model:     model,
		memory:    NewMemoryManager(loader),
		calc:      cfg.Calculator,
		tracker:   cfg.Tracker,
		clock:     cfg.Clock,
		products:  cfg.Products,
		stock:     cfg.Stock,
		dashboard: cfg.Dashboard,
		catalog:   cfg.Catalog,
		customers: cfg.Customers,
		messages:  cfg.Messages,
		orders:    cfg.Orders,
		storage:   cfg.Storage,
	}
	normalizer := cfg.Normalizer
	if normalizer == nil {
		normalizer = vocab.NewNormalizer()
	}
	s.normalizer.Store(normalizer)
	return s
}

// SetNormalizer swaps the vocabulary normalizer, used when staff edit the
// regional term table
func (s *AttendantService) SetNormalizer(n *vocab.Normalizer) {
	if n != nil {
		s.normalizer.Store(n)
	}
}

func (s *AttendantService) norm() *vocab.Normalizer {
	return s.normalizer.Load()
}

// ProcessMessage handles one inbound customer message and returns the reply
func (s *AttendantService) ProcessMessage(ctx context.Context, phone, message string) (string, error) {
	phone = session.SanitizePhone(phone)
	if phone == "" {
		return "", fmt.Errorf("message without a valid phone")
	}

	text, mediaURL := ExtractMediaURL(message)

	// Warm the conversation before logging the inbound message, so a cold
	// replay from the chat log does not pick up the message being handled now
	history := s.memory.History(phone)

	s.saveMessage(&models.ChatMessage{
		Phone:    phone,
		Role:     models.RoleUser,
		Content:  text,
		MediaURL: mediaURL,
	})

	if mediaURL != "" {
		s.memory.SetPendingReceipt(phone, mediaURL)
		if text == "" {
			text = "(cliente enviou uma imagem, provavelmente o comprovante de pagamento)"
		}
	}

	// First contact gets the fixed greeting without a model round trip
	if isGreetingOnly(text) && !s.memory.MarkGreeted(phone) {
		s.memory.Append(phone, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})
		s.memory.Append(phone, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: WelcomeMessage})
		s.saveMessage(&models.ChatMessage{Phone: phone, Role: models.RoleAssistant, Content: WelcomeMessage})
		return WelcomeMessage, nil
	}
	s.memory.MarkGreeted(phone)

	normalized := s.norm().Normalize(text)
	if normalized != text {
		log.Debug().Str("phone", phone).Str("original", text).Str("normalized", normalized).Msg("regional vocabulary rewritten")
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt(s.clock.DescribeNow(), phone),
		},
	}
	messages = append(messages, history...)

	userMessage := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: normalized,
	}
	if mediaURL != "" {
		// the image rides only on the live request; the memory window and the
		// chat log keep the text
		userMessage = openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type: openai.ChatMessagePartTypeText,
					Text: normalized,
				},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: mediaURL,
					},
				},
			},
		}
	}
	messages = append(messages, userMessage)

	reply, err := s.runToolLoop(ctx, phone, messages)
	if err != nil {
		return "", err
	}

	s.memory.Append(phone, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: normalized,
	})
	s.memory.Append(phone, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: reply,
	})
	s.saveMessage(&models.ChatMessage{Phone: phone, Role: models.RoleAssistant, Content: reply})

	return reply, nil
}

// runToolLoop calls the model, executes any tool calls it makes and feeds the
// results back until the model produces a plain reply
func (s *AttendantService) runToolLoop(ctx context.Context, phone string, messages []openai.ChatCompletionMessage) (string, error) {
	tools := availableTools()
	turn := &turnState{}
	var promptTokens, completionTokens int

	for round := 0; round < maxToolRounds; round++ {
		req := openai.ChatCompletionRequest{
			Model:               s.model,
			Messages:            messages,
			Tools:               tools,
			ToolChoice:          "auto",
			MaxCompletionTokens: 1024,
		}

		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil {
			log.Error().Err(err).Str("phone", phone).Int("round", round).Msg("chat completion failed")
			return "", fmt.Errorf("chat completion failed: %w", err)
		}
		promptTokens += resp.Usage.PromptTokens
		completionTokens += resp.Usage.CompletionTokens

		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("chat completion returned no choices")
		}
		choice := resp.Choices[0]

		if len(choice.Message.ToolCalls) == 0 {
			log.Info().
				Str("phone", phone).
				Int("rounds", round+1).
				Int("lookups", turn.lookups).
				Int("prompt_tokens", promptTokens).
				Int("completion_tokens", completionTokens).
				Msg("reply produced")
			return choice.Message.Content, nil
		}

		messages = append(messages, choice.Message)
		for _, call := range choice.Message.ToolCalls {
			result := s.executeToolCall(ctx, phone, turn, call)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	log.Warn().Str("phone", phone).Int("rounds", maxToolRounds).Msg("tool loop budget exhausted")
	return "Desculpa, não consegui concluir agora. Pode repetir o pedido?", nil
}

func (s *AttendantService) saveMessage(msg *models.ChatMessage) {
	if s.messages == nil {
		return
	}
	if err := s.messages.Save(msg); err != nil {
		log.Error().Err(err).Str("phone", msg.Phone).Msg("failed to save chat message")
	}
}

var greetings = map[string]bool{
	"oi": true, "oie": true, "oii": true, "ola": true, "olá": true,
	"bom dia": true, "boa tarde": true, "boa noite": true,
	"opa": true, "eai": true, "e ai": true, "e aí": true, "hello": true, "oi ana": true,
}

// isGreetingOnly reports whether the message is just an opening greeting,
// with no product request attached
func isGreetingOnly(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.Trim(t, "!?.,: ")
	return greetings[t]
}
