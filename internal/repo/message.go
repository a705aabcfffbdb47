package repo

import (
	"iamercado/pkg/models"

	"gorm.io/gorm"
)

// MessageRepository handles chat history data access
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Save stores one chat message
func (r *MessageRepository) Save(msg *models.ChatMessage) error {
	return r.db.Create(msg).Error
}

// Recent returns the latest messages for a phone number, oldest first
func (r *MessageRepository) Recent(phone string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 15
	}

	var messages []models.ChatMessage
	err := r.db.Where("phone = ?", phone).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// SearchByKeyword returns messages for a phone containing a keyword,
// oldest first
func (r *MessageRepository) SearchByKeyword(phone, keyword string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 10
	}

	var messages []models.ChatMessage
	err := r.db.Where("phone = ? AND content ILIKE ?", phone, "%"+keyword+"%").
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
