package repo

import (
	"errors"

	"iamercado/pkg/models"

	"gorm.io/gorm"
)

// CustomerRepository handles customer data access
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// GetOrCreateByPhone returns the customer for a phone number, creating the
// record on first contact
func (r *CustomerRepository) GetOrCreateByPhone(phone string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Where("phone = ?", phone).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		customer = models.Customer{Phone: phone, IsActive: true}
		if err := r.db.Create(&customer).Error; err != nil {
			return nil, err
		}
		return &customer, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// Update updates a customer
func (r *CustomerRepository) Update(customer *models.Customer) error {
	return r.db.Save(customer).Error
}

// UpdateProfile sets name and/or address for a customer
func (r *CustomerRepository) UpdateProfile(phone, name, address string) error {
	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if address != "" {
		updates["address"] = address
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Customer{}).Where("phone = ?", phone).Updates(updates).Error
}
