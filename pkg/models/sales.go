package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer represents a customer identified by phone number
type Customer struct {
	BaseModel
	Phone    string `gorm:"uniqueIndex;not null" json:"phone" validate:"required,numeric"` // digits only
	Name     string `json:"name"`
	Address  string `json:"address"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}

// Order session statuses
const (
	SessionUnset      = "unset"
	SessionInProgress = "in_progress"
	SessionSubmitted  = "submitted"
)

// Payment methods accepted by the store
const (
	PaymentPix  = "pix"
	PaymentCard = "cartao"
	PaymentCash = "dinheiro"
)

// OrderSession tracks the lifecycle of one customer's in-progress order,
// keyed by phone number
type OrderSession struct {
	BaseModel
	Phone         string      `gorm:"uniqueIndex;not null" json:"phone"`
	Status        string      `gorm:"default:'in_progress'" json:"status"`
	Items         []OrderItem `gorm:"foreignKey:SessionID" json:"items,omitempty"`
	SubmittedAt   *time.Time  `json:"submitted_at"`
	PaymentMethod string      `json:"payment_method"`
	Address       string      `json:"address"`
	Pickup        bool        `gorm:"default:false" json:"pickup"`
}

// Order represents an order submitted to the staff dashboard
type Order struct {
	BaseModel
	CustomerID    *uuid.UUID  `gorm:"type:uuid;constraint:OnDelete:SET NULL" json:"customer_id"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `gorm:"index;not null" json:"customer_phone"`
	Status        string      `gorm:"default:'pending'" json:"status"`
	TotalCents    int64       `gorm:"default:0" json:"total_cents"`
	PaymentMethod string      `json:"payment_method"`
	Address       string      `json:"address"`
	Pickup        bool        `gorm:"default:false" json:"pickup"`
	ReceiptURL    string      `json:"receipt_url"` // re-hosted payment receipt image, if any
	SubmittedAt   *time.Time  `json:"submitted_at"`
	Items         []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// OrderItem is one line of an order or of an in-progress session. Weighed
// goods fold the computed weight into the name ("Presunto Sadia 300g") and
// always carry quantity 1.
type OrderItem struct {
	BaseModel
	OrderID        *uuid.UUID `gorm:"type:uuid;index;constraint:OnDelete:CASCADE" json:"order_id"`
	SessionID      *uuid.UUID `gorm:"type:uuid;index;constraint:OnDelete:CASCADE" json:"session_id"`
	ProductEAN     string     `json:"product_ean"` // internal, redacted from customer-facing output
	ProductName    string     `gorm:"not null" json:"product_name"`
	Quantity       int        `gorm:"not null" json:"quantity" validate:"min=1"`
	UnitPriceCents int64      `gorm:"not null" json:"unit_price_cents"`
}

// TotalCents returns quantity x unit price for the line
func (i OrderItem) TotalCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}

// SumItemsCents returns the order total for a set of lines
func SumItemsCents(items []OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.TotalCents()
	}
	return total
}

// DashboardOrder is the JSON payload sent to the staff dashboard
type DashboardOrder struct {
	CustomerName  string          `json:"nome_cliente"`
	Phone         string          `json:"telefone"`
	Items         []DashboardItem `json:"itens"`
	Total         float64         `json:"total"`
	PaymentMethod string          `json:"forma_pagamento"`
	Address       string          `json:"endereco"`
	ReceiptURL    string          `json:"comprovante,omitempty"`
}

// DashboardItem is one order line on the dashboard payload
type DashboardItem struct {
	ProductName string  `json:"nome_produto"`
	Quantity    int     `json:"quantidade"`
	UnitPrice   float64 `json:"preco_unitario"`
}

// ToDashboardOrder converts a persisted order into the dashboard wire shape
func (o *Order) ToDashboardOrder() DashboardOrder {
	items := make([]DashboardItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = DashboardItem{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   float64(it.UnitPriceCents) / 100,
		}
	}
	address := o.Address
	if o.Pickup {
		address = "retirada na loja"
	}
	return DashboardOrder{
		CustomerName:  o.CustomerName,
		Phone:         o.CustomerPhone,
		Items:         items,
		Total:         float64(o.TotalCents) / 100,
		PaymentMethod: o.PaymentMethod,
		Address:       address,
		ReceiptURL:    o.ReceiptURL,
	}
}
