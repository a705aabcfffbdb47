package models

import "github.com/google/uuid"

// Category represents a product category. Fractional categories are sold by
// weight and carry a minimum billable weight.
type Category struct {
	BaseModel
	Name           string `gorm:"uniqueIndex;not null" json:"name" validate:"required"`
	Description    string `json:"description"`
	Fractional     bool   `gorm:"default:false" json:"fractional"`
	MinWeightGrams int    `gorm:"default:0" json:"min_weight_grams"`
	AllowUnitSale  bool   `gorm:"default:false" json:"allow_unit_sale"` // hortifrúti: 200g or 1 unit
	SortOrder      int    `gorm:"default:0" json:"sort_order"`
}

// Product represents an entry of the store catalog / EAN knowledge base.
// EAN codes are internal and must never reach the customer.
type Product struct {
	BaseModel
	CategoryID    *uuid.UUID `gorm:"type:uuid;constraint:OnDelete:SET NULL" json:"category_id"`
	Name          string     `gorm:"not null" json:"name" validate:"required"`
	Description   string     `json:"description"`
	EAN           string     `gorm:"uniqueIndex;not null" json:"ean" validate:"required,numeric"`
	Brand         string     `json:"brand"`
	Tags          string     `json:"tags"`
	PriceCents    int64      `gorm:"default:0" json:"price_cents"`        // unit price, or per-kg for fractional goods
	PricePerKg    bool       `gorm:"default:false" json:"price_per_kg"`   // true for weighed goods
	StockQuantity int        `gorm:"default:0" json:"stock_quantity"`     // never shown to customers
	IsActive      bool       `gorm:"default:true" json:"is_active"`
	EmbeddingHash string     `gorm:"type:varchar(64)" json:"embedding_hash"` // avoids re-embedding unchanged products

	// Relations
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// VocabularyEntry maps a regional/colloquial term to the canonical catalog
// search term used for product lookup
type VocabularyEntry struct {
	BaseModel
	Regional  string `gorm:"uniqueIndex;not null" json:"regional" validate:"required"`
	Canonical string `gorm:"not null" json:"canonical" validate:"required"`
}
