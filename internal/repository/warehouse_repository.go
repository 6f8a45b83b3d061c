package repository

import (
	"context"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"gorm.io/gorm"
)

// WarehouseRepository handles database operations for stock locations
type WarehouseRepository struct {
	db *gorm.DB
}

// NewWarehouseRepository creates a new WarehouseRepository
func NewWarehouseRepository(db *gorm.DB) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

// Create inserts a new warehouse
func (r *WarehouseRepository) Create(ctx context.Context, warehouse *domain.Warehouse) error {
	return r.db.WithContext(ctx).Create(warehouse).Error
}

// GetByID retrieves a warehouse by id
func (r *WarehouseRepository) GetByID(ctx context.Context, id int64) (*domain.Warehouse, error) {
	var warehouse domain.Warehouse
	err := r.db.WithContext(ctx).First(&warehouse, id).Error
	if err != nil {
		return nil, err
	}
	return &warehouse, nil
}

// ListActive returns all active warehouses
func (r *WarehouseRepository) ListActive(ctx context.Context) ([]domain.Warehouse, error) {
	var warehouses []domain.Warehouse
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&warehouses).Error
	return warehouses, err
}

// List returns all warehouses
func (r *WarehouseRepository) List(ctx context.Context) ([]domain.Warehouse, error) {
	var warehouses []domain.Warehouse
	err := r.db.WithContext(ctx).Order("name ASC").Find(&warehouses).Error
	return warehouses, err
}
