package models

import "time"

// User represents a staff user of the admin panel
type User struct {
	BaseModel
	Email       string     `gorm:"uniqueIndex;not null" json:"email" validate:"required,email"`
	Password    string     `gorm:"not null" json:"-"`
	Name        string     `json:"name"`
	Role        string     `gorm:"default:'attendant'" json:"role"` // admin, attendant
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
}
