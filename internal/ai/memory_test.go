package ai

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"iamercado/pkg/models"
)

type stubLoader struct {
	stored []models.ChatMessage
	err    error
	calls  int
}

func (l *stubLoader) Recent(_ string, _ int) ([]models.ChatMessage, error) {
	l.calls++
	return l.stored, l.err
}

func newTestMemory(t *testing.T, loader HistoryLoader) *MemoryManager {
	t.Helper()
	m := NewMemoryManager(loader)
	t.Cleanup(m.StopCleanupScheduler)
	return m
}

func TestMemoryHistoryWindow(t *testing.T) {
	m := newTestMemory(t, nil)
	phone := "5527999990000"

	for i := 0; i < maxHistorySize+10; i++ {
		m.Append(phone, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: fmt.Sprintf("mensagem %d", i),
		})
	}

	history := m.History(phone)
	if len(history) != maxHistorySize {
		t.Fatalf("history = %d messages, want %d", len(history), maxHistorySize)
	}
	if history[len(history)-1].Content != fmt.Sprintf("mensagem %d", maxHistorySize+9) {
		t.Fatalf("last message = %q, window did not keep the newest", history[len(history)-1].Content)
	}
}

func TestMemoryExpires(t *testing.T) {
	m := newTestMemory(t, nil)
	now := time.Now()
	m.now = func() time.Time { return now }
	phone := "5527999990001"

	m.Append(phone, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "oi"})
	if len(m.History(phone)) != 1 {
		t.Fatalf("expected 1 message before expiry")
	}

	now = now.Add(memoryTimeout + time.Minute)
	if len(m.History(phone)) != 0 {
		t.Fatalf("expected empty history after expiry")
	}
}

func TestMemoryReplaysChatLogWhenCold(t *testing.T) {
	loader := &stubLoader{stored: []models.ChatMessage{
		{Phone: "5527999990005", Role: models.RoleUser, Content: "quero presunto"},
		{Phone: "5527999990005", Role: models.RoleAssistant, Content: "300g fica R$ 13,50"},
	}}
	m := newTestMemory(t, loader)
	phone := "5527999990005"

	history := m.History(phone)
	if len(history) != 2 {
		t.Fatalf("history = %d messages, want the 2 persisted turns", len(history))
	}
	if history[0].Role != openai.ChatMessageRoleUser || history[0].Content != "quero presunto" {
		t.Errorf("first replayed message = %+v", history[0])
	}
	if history[1].Role != openai.ChatMessageRoleAssistant {
		t.Errorf("second replayed message role = %q", history[1].Role)
	}

	// a replayed conversation was already welcomed
	if !m.MarkGreeted(phone) {
		t.Error("replayed conversation must count as greeted")
	}

	// warm conversations must not hit the store again
	m.History(phone)
	if loader.calls != 1 {
		t.Fatalf("loader called %d times, want 1", loader.calls)
	}
}

func TestMemoryReplayFailureKeepsConversationUsable(t *testing.T) {
	m := newTestMemory(t, &stubLoader{err: errors.New("db down")})
	phone := "5527999990006"

	if len(m.History(phone)) != 0 {
		t.Fatal("failed replay must yield an empty history")
	}
	m.Append(phone, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "oi"})
	if len(m.History(phone)) != 1 {
		t.Fatal("conversation must keep working after a failed replay")
	}
}

func TestMemoryCleanupDropsExpiredConversations(t *testing.T) {
	m := newTestMemory(t, nil)
	now := time.Now()
	m.now = func() time.Time { return now }

	m.Append("5527999990007", openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "oi"})
	m.Append("5527999990008", openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "oi"})

	now = now.Add(memoryTimeout + time.Minute)
	m.cleanupExpired()

	m.mu.Lock()
	remaining := len(m.memories)
	m.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("%d conversations retained after cleanup, want 0", remaining)
	}
}

func TestMemoryGreeted(t *testing.T) {
	m := newTestMemory(t, nil)
	phone := "5527999990002"

	if m.MarkGreeted(phone) {
		t.Fatal("fresh conversation must not be marked greeted")
	}
	if !m.MarkGreeted(phone) {
		t.Fatal("second call must report the conversation as greeted")
	}
}

func TestMemoryPendingReceipt(t *testing.T) {
	m := newTestMemory(t, nil)
	phone := "5527999990003"

	if got := m.TakePendingReceipt(phone); got != "" {
		t.Fatalf("unexpected pending receipt %q", got)
	}

	m.SetPendingReceipt(phone, "https://cdn.example/r.jpg")
	if got := m.TakePendingReceipt(phone); got != "https://cdn.example/r.jpg" {
		t.Fatalf("TakePendingReceipt = %q", got)
	}
	if got := m.TakePendingReceipt(phone); got != "" {
		t.Fatalf("receipt must be consumed once, got %q", got)
	}
}
