package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"iamercado/pkg/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ModificationWindow is how long after submission an order can still be
// changed through the dashboard
const ModificationWindow = 10 * time.Minute

// idleTimeout is how long an in-progress session survives without activity
const idleTimeout = 24 * time.Hour

var (
	// ErrNoActiveSession is returned when an operation needs an order in
	// progress and there is none
	ErrNoActiveSession = errors.New("no active order session")
	// ErrAlreadySubmitted is returned when items are added to a submitted
	// order through the creation path instead of the modification path
	ErrAlreadySubmitted = errors.New("order already submitted, use modification")
	// ErrModificationWindowClosed is returned when a modification is
	// attempted more than ModificationWindow after submission
	ErrModificationWindowClosed = errors.New("too late to modify the order")
)

// Tracker owns all order sessions, keyed by customer phone number. It is the
// single component allowed to transition session status.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*models.OrderSession
	db       *gorm.DB
	window   time.Duration
	now      func() time.Time

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	running       bool
}

// NewTracker creates a tracker with the default modification window. A nil db
// keeps sessions in memory only.
func NewTracker(db *gorm.DB) *Tracker {
	return NewTrackerWithWindow(db, ModificationWindow)
}

// NewTrackerWithWindow creates a tracker with a custom modification window
func NewTrackerWithWindow(db *gorm.DB, window time.Duration) *Tracker {
	t := &Tracker{
		sessions:    make(map[string]*models.OrderSession),
		db:          db,
		window:      window,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	if db != nil {
		go t.loadSessionsFromDB()
	}
	t.startCleanupScheduler()
	return t
}

// SanitizePhone keeps only the digits of a phone number
func SanitizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Status reports the current session status for a phone number: unset,
// in_progress or submitted
func (t *Tracker) Status(phone string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.sessions[SanitizePhone(phone)]
	if !ok || t.expired(s) {
		return models.SessionUnset
	}
	return s.Status
}

// Get returns the session for a phone number, or nil when there is none
func (t *Tracker) Get(phone string) *models.OrderSession {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.sessions[SanitizePhone(phone)]
	if !ok || t.expired(s) {
		return nil
	}
	return s
}

// AddItem appends a confirmed line item to the customer's order, creating the
// session on the first item (unset -> in_progress). Items for an already
// submitted order must go through BeginModification instead.
func (t *Tracker) AddItem(phone string, item models.OrderItem) (*models.OrderSession, error) {
	key := SanitizePhone(phone)

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[key]
	if ok && !t.expired(s) && s.Status == models.SessionSubmitted {
		return nil, ErrAlreadySubmitted
	}
	if !ok || t.expired(s) {
		s = &models.OrderSession{
			Phone:  key,
			Status: models.SessionInProgress,
		}
		s.CreatedAt = t.now()
		t.sessions[key] = s
		log.Info().Str("phone", key).Msg("order session created")
	}

	s.Items = append(s.Items, item)
	s.UpdatedAt = t.now()

	t.saveAsync(s)
	return s, nil
}

// SetItems replaces the full item list of the customer's open order, creating
// the session when needed (unset -> in_progress). Replacing instead of
// appending keeps a retried submission from duplicating lines.
func (t *Tracker) SetItems(phone string, items []models.OrderItem) (*models.OrderSession, error) {
	key := SanitizePhone(phone)

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[key]
	if ok && !t.expired(s) && s.Status == models.SessionSubmitted {
		return nil, ErrAlreadySubmitted
	}
	if !ok || t.expired(s) {
		s = &models.OrderSession{
			Phone:  key,
			Status: models.SessionInProgress,
		}
		s.CreatedAt = t.now()
		t.sessions[key] = s
		log.Info().Str("phone", key).Msg("order session created")
	}

	s.Items = items
	s.UpdatedAt = t.now()

	t.saveAsync(s)
	return s, nil
}

// RemoveItem removes the first line whose name contains the given text
// (case-insensitive). Returns the removed item.
func (t *Tracker) RemoveItem(phone, name string) (*models.OrderItem, error) {
	key := SanitizePhone(phone)

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[key]
	if !ok || t.expired(s) || s.Status != models.SessionInProgress {
		return nil, ErrNoActiveSession
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	for i, it := range s.Items {
		if strings.Contains(strings.ToLower(it.ProductName), needle) {
			removed := it
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			s.UpdatedAt = t.now()
			t.saveAsync(s)
			return &removed, nil
		}
	}
	return nil, ErrNoActiveSession
}

// SetDelivery records payment method and delivery address (or pickup) on the
// in-progress session
func (t *Tracker) SetDelivery(phone, paymentMethod, address string, pickup bool) error {
	key := SanitizePhone(phone)

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[key]
	if !ok || t.expired(s) || s.Status != models.SessionInProgress {
		return ErrNoActiveSession
	}
	if paymentMethod != "" {
		s.PaymentMethod = paymentMethod
	}
	if address != "" {
		s.Address = address
		s.Pickup = false
	}
	if pickup {
		s.Pickup = true
		s.Address = ""
	}
	s.UpdatedAt = t.now()
	t.saveAsync(s)
	return nil
}

// Submit transitions in_progress -> submitted and stamps the submission time
// that anchors the modification window. The caller sends the payload to the
// dashboard first and only calls Submit on success.
func (t *Tracker) Submit(phone string) (*models.OrderSession, error) {
	key := SanitizePhone(phone)

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[key]
	if !ok || t.expired(s) {
		return nil, ErrNoActiveSession
	}
	if s.Status == models.SessionSubmitted {
		return nil, ErrAlreadySubmitted
	}

	now := t.now()
	s.Status = models.SessionSubmitted
	s.SubmittedAt = &now
	s.UpdatedAt = now

	t.saveAsync(s)
	log.Info().Str("phone", key).Int("items", len(s.Items)).Msg("order session submitted")
	return s, nil
}

// BeginModification validates that the submitted order can still be changed
// and returns the session. in_progress sessions are returned as-is so callers
// can treat "add more items" uniformly.
func (t *Tracker) BeginModification(phone string) (*models.OrderSession, error) {
	key := SanitizePhone(phone)

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[key]
	if !ok || t.expired(s) {
		return nil, ErrNoActiveSession
	}
	if s.Status != models.SessionSubmitted {
		return s, nil
	}
	if s.SubmittedAt == nil || t.now().Sub(*s.SubmittedAt) > t.window {
		return nil, ErrModificationWindowClosed
	}
	return s, nil
}

// AppendModification adds an item to a submitted order inside the
// modification window. The session stays submitted; the caller re-sends the
// full payload through the dashboard modification endpoint.
func (t *Tracker) AppendModification(phone string, item models.OrderItem) (*models.OrderSession, error) {
	s, err := t.BeginModification(phone)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s.Items = append(s.Items, item)
	s.UpdatedAt = t.now()
	t.saveAsync(s)
	return s, nil
}

// ReplaceItems swaps the full item list of a session, used when a customer
// revises a submitted order. Window rules are the same as AppendModification.
func (t *Tracker) ReplaceItems(phone string, items []models.OrderItem) (*models.OrderSession, error) {
	s, err := t.BeginModification(phone)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s.Items = items
	s.UpdatedAt = t.now()
	t.saveAsync(s)
	return s, nil
}

// Clear drops the session for a customer
func (t *Tracker) Clear(phone string) {
	key := SanitizePhone(phone)

	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.sessions, key)
	if t.db != nil {
		go func() {
			if err := t.db.Where("phone = ?", key).Delete(&models.OrderSession{}).Error; err != nil {
				log.Error().Err(err).Str("phone", key).Msg("failed to delete session")
			}
		}()
	}
}

// expired reports whether an in-progress session went idle for too long.
// Submitted sessions expire once the modification window closes.
func (t *Tracker) expired(s *models.OrderSession) bool {
	if s.Status == models.SessionSubmitted {
		if s.SubmittedAt == nil {
			return true
		}
		return t.now().Sub(*s.SubmittedAt) > t.window
	}
	return t.now().Sub(s.UpdatedAt) > idleTimeout
}

// loadSessionsFromDB restores live sessions on startup
func (t *Tracker) loadSessionsFromDB() {
	var stored []models.OrderSession
	err := t.db.Preload("Items").
		Where("updated_at > ?", t.now().Add(-idleTimeout)).
		Find(&stored).Error
	if err != nil {
		log.Error().Err(err).Msg("failed to load order sessions")
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	loaded := 0
	for i := range stored {
		s := stored[i]
		if t.expired(&s) {
			continue
		}
		t.sessions[s.Phone] = &s
		loaded++
	}
	log.Info().Int("loaded_count", loaded).Msg("order sessions loaded from database")
}

// saveAsync persists a snapshot of the session without blocking the caller.
// Must be called with the lock held.
func (t *Tracker) saveAsync(s *models.OrderSession) {
	if t.db == nil {
		return
	}

	snapshot := *s
	snapshot.Items = make([]models.OrderItem, len(s.Items))
	copy(snapshot.Items, s.Items)

	go func() {
		var existing models.OrderSession
		err := t.db.Where("phone = ?", snapshot.Phone).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			err = t.db.Create(&snapshot).Error
		} else if err == nil {
			snapshot.ID = existing.ID
			err = t.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(&snapshot).Error
		}
		if err != nil {
			log.Error().Err(err).Str("phone", snapshot.Phone).Msg("failed to save order session")
		}
	}()
}

// startCleanupScheduler periodically drops expired sessions from memory
func (t *Tracker) startCleanupScheduler() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}
	t.running = true
	t.cleanupTicker = time.NewTicker(10 * time.Minute)

	go func() {
		for {
			select {
			case <-t.cleanupTicker.C:
				t.cleanupExpired()
			case <-t.stopCleanup:
				return
			}
		}
	}()
}

// StopCleanupScheduler stops the background cleanup goroutine
func (t *Tracker) StopCleanupScheduler() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}
	t.running = false
	t.cleanupTicker.Stop()
	close(t.stopCleanup)
}

func (t *Tracker) cleanupExpired() {
	t.mu.Lock()
	defer t.mu.Unlock()

	cleaned := 0
	for key, s := range t.sessions {
		if t.expired(s) {
			delete(t.sessions, key)
			cleaned++
		}
	}
	if cleaned > 0 {
		log.Info().Int("cleaned_count", cleaned).Msg("expired order sessions cleaned up")
	}
}
