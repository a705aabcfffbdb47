package repo

import (
	"iamercado/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository handles order data access
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create creates a new order with its items
func (r *OrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// Update updates an order with its items
func (r *OrderRepository) Update(order *models.Order) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(order).Error
}

// GetByID gets an order by ID
func (r *OrderRepository) GetByID(id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Preload("Customer").Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetLatestByPhone gets the most recently submitted order for a phone number
func (r *OrderRepository) GetLatestByPhone(phone string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").
		Where("customer_phone = ?", phone).
		Order("submitted_at DESC NULLS LAST").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns paginated orders, newest first
func (r *OrderRepository) List(page, perPage int) (*models.PaginationResult[models.Order], error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int64
	if err := r.db.Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var orders []models.Order
	err := r.db.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return &models.PaginationResult[models.Order]{
		Data:       orders,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}
