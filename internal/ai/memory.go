package ai

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"iamercado/pkg/models"
)

// Conversation memory keeps a sliding window of recent turns per customer so
// the attendant stays coherent across messages without re-reading the whole
// chat log on every turn. Cold conversations are rebuilt from the persisted
// chat log, so a restart does not lose context.

const (
	memoryTimeout   = 1 * time.Hour
	maxHistorySize  = 30
	cleanupInterval = 15 * time.Minute
)

// HistoryLoader replays the persisted chat log into a cold conversation
type HistoryLoader interface {
	Recent(phone string, limit int) ([]models.ChatMessage, error)
}

// conversationMemory holds recent turns and per-conversation scratch state
type conversationMemory struct {
	history        []openai.ChatCompletionMessage
	lastUpdate     time.Time
	pendingReceipt string // media URL of a receipt image awaiting an order
	greeted        bool
}

// MemoryManager tracks in-flight conversations keyed by phone digits
type MemoryManager struct {
	memories map[string]*conversationMemory
	loader   HistoryLoader
	mu       sync.Mutex
	now      func() time.Time

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	running       bool
}

// NewMemoryManager creates a manager that rebuilds cold conversations through
// the given loader. A nil loader keeps memory RAM-only.
func NewMemoryManager(loader HistoryLoader) *MemoryManager {
	m := &MemoryManager{
		memories:    make(map[string]*conversationMemory),
		loader:      loader,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	m.startCleanupScheduler()
	return m
}

// getOrCreate must be called with the lock held
func (m *MemoryManager) getOrCreate(phone string) *conversationMemory {
	mem, ok := m.memories[phone]
	if !ok || m.now().Sub(mem.lastUpdate) > memoryTimeout {
		mem = &conversationMemory{}
		m.replay(phone, mem)
		m.memories[phone] = mem
	}
	mem.lastUpdate = m.now()
	return mem
}

// replay rebuilds a cold conversation window from the persisted chat log
func (m *MemoryManager) replay(phone string, mem *conversationMemory) {
	if m.loader == nil {
		return
	}
	stored, err := m.loader.Recent(phone, maxHistorySize)
	if err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("failed to replay chat history")
		return
	}
	for _, msg := range stored {
		role := openai.ChatMessageRoleUser
		if msg.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		mem.history = append(mem.history, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	// a customer with prior turns was already welcomed
	if len(mem.history) > 0 {
		mem.greeted = true
		log.Debug().Str("phone", phone).Int("messages", len(mem.history)).Msg("conversation replayed from chat log")
	}
}

// History returns a copy of the customer's recent conversation turns
func (m *MemoryManager) History(phone string) []openai.ChatCompletionMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	mem := m.getOrCreate(phone)
	out := make([]openai.ChatCompletionMessage, len(mem.history))
	copy(out, mem.history)
	return out
}

// Append records a turn, trimming the window to the most recent messages
func (m *MemoryManager) Append(phone string, msg openai.ChatCompletionMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mem := m.getOrCreate(phone)
	mem.history = append(mem.history, msg)
	if len(mem.history) > maxHistorySize {
		mem.history = mem.history[len(mem.history)-maxHistorySize:]
	}
}

// MarkGreeted records that the opening greeting was already sent. It reports
// whether this conversation had been greeted before.
func (m *MemoryManager) MarkGreeted(phone string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	mem := m.getOrCreate(phone)
	was := mem.greeted
	mem.greeted = true
	return was
}

// SetPendingReceipt stores a receipt image URL until an order absorbs it
func (m *MemoryManager) SetPendingReceipt(phone, mediaURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getOrCreate(phone).pendingReceipt = mediaURL
}

// TakePendingReceipt returns and clears the stored receipt URL, if any
func (m *MemoryManager) TakePendingReceipt(phone string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	mem := m.getOrCreate(phone)
	url := mem.pendingReceipt
	mem.pendingReceipt = ""
	return url
}

// Clear drops the conversation state for a customer
func (m *MemoryManager) Clear(phone string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.memories, phone)
}

// startCleanupScheduler periodically drops expired conversations from memory
func (m *MemoryManager) startCleanupScheduler() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	m.cleanupTicker = time.NewTicker(cleanupInterval)

	go func() {
		for {
			select {
			case <-m.cleanupTicker.C:
				m.cleanupExpired()
			case <-m.stopCleanup:
				return
			}
		}
	}()
}

// StopCleanupScheduler stops the background cleanup goroutine
func (m *MemoryManager) StopCleanupScheduler() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false
	m.cleanupTicker.Stop()
	close(m.stopCleanup)
}

func (m *MemoryManager) cleanupExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cleaned := 0
	for phone, mem := range m.memories {
		if m.now().Sub(mem.lastUpdate) > memoryTimeout {
			delete(m.memories, phone)
			cleaned++
		}
	}
	if cleaned > 0 {
		log.Info().Int("cleaned_count", cleaned).Msg("expired conversations cleaned up")
	}
}
