package models

// Chat message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one stored message of a customer conversation, used for
// context replay and the message-history tool
type ChatMessage struct {
	BaseModel
	Phone    string `gorm:"index;not null" json:"phone"`
	Role     string `gorm:"not null" json:"role"` // user, assistant
	Content  string `gorm:"type:text" json:"content"`
	MediaURL string `json:"media_url,omitempty"`
}
