package repo

import (
	"strings"

	"iamercado/pkg/models"

	"gorm.io/gorm"
)

// ProductRepository handles catalog/EAN knowledge base data access
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByEAN gets a product by EAN code
func (r *ProductRepository) GetByEAN(ean string) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("Category").Where("ean = ?", ean).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Search runs a full-text search over the catalog, active products only
func (r *ProductRepository) Search(query string, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 10
	}

	var products []models.Product
	terms := strings.Join(strings.Fields(strings.TrimSpace(query)), " & ")
	if terms == "" {
		err := r.db.Preload("Category").Where("is_active = ?", true).
			Order("name").Limit(limit).Find(&products).Error
		return products, err
	}

	err := r.db.Preload("Category").
		Where("is_active = ? AND to_tsvector('portuguese', name || ' ' || coalesce(brand,'') || ' ' || coalesce(tags,'')) @@ to_tsquery('portuguese', ?)", true, terms).
		Limit(limit).Find(&products).Error
	if err != nil || len(products) > 0 {
		return products, err
	}

	// Fallback: plain ILIKE for partial words the FTS parser drops
	err = r.db.Preload("Category").
		Where("is_active = ? AND name ILIKE ?", true, "%"+strings.TrimSpace(query)+"%").
		Limit(limit).Find(&products).Error
	return products, err
}

// ListActive returns every active product, for embedding sync
func (r *ProductRepository) ListActive() ([]models.Product, error) {
	var products []models.Product
	err := r.db.Preload("Category").Where("is_active = ?", true).Find(&products).Error
	return products, err
}

// Upsert creates or updates a product by EAN
func (r *ProductRepository) Upsert(product *models.Product) error {
	var existing models.Product
	err := r.db.Where("ean = ?", product.EAN).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.Create(product).Error
	}
	if err != nil {
		return err
	}
	product.ID = existing.ID
	return r.db.Save(product).Error
}

// VocabularyRepository handles regional vocabulary entries
type VocabularyRepository struct {
	db *gorm.DB
}

// NewVocabularyRepository creates a new vocabulary repository
func NewVocabularyRepository(db *gorm.DB) *VocabularyRepository {
	return &VocabularyRepository{db: db}
}

// List returns all stored vocabulary entries
func (r *VocabularyRepository) List() ([]models.VocabularyEntry, error) {
	var entries []models.VocabularyEntry
	err := r.db.Order("regional").Find(&entries).Error
	return entries, err
}

// AsMap returns stored entries as regional -> canonical
func (r *VocabularyRepository) AsMap() (map[string]string, error) {
	entries, err := r.List()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Regional] = e.Canonical
	}
	return out, nil
}

// Upsert creates or replaces an entry for a regional term
func (r *VocabularyRepository) Upsert(entry *models.VocabularyEntry) error {
	var existing models.VocabularyEntry
	err := r.db.Where("regional = ?", entry.Regional).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.Create(entry).Error
	}
	if err != nil {
		return err
	}
	entry.ID = existing.ID
	return r.db.Save(entry).Error
}

// Delete removes an entry by regional term
func (r *VocabularyRepository) Delete(regional string) error {
	return r.db.Where("regional = ?", regional).Delete(&models.VocabularyEntry{}).Error
}
