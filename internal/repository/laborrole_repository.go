package repository

import (
	"context"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"gorm.io/gorm"
)

// LaborRoleRepository handles database operations for labor roles
type LaborRoleRepository struct {
	db *gorm.DB
}

// NewLaborRoleRepository creates a new LaborRoleRepository
func NewLaborRoleRepository(db *gorm.DB) *LaborRoleRepository {
	return &LaborRoleRepository{db: db}
}

// Create inserts a new labor role
func (r *LaborRoleRepository) Create(ctx context.Context, role *domain.LaborRole) error {
	return r.db.WithContext(ctx).Create(role).Error
}

// GetByID retrieves a labor role by id
func (r *LaborRoleRepository) GetByID(ctx context.Context, id int64) (*domain.LaborRole, error) {
	var role domain.LaborRole
	err := r.db.WithContext(ctx).First(&role, id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// GetByName retrieves a labor role by name (case-insensitive)
func (r *LaborRoleRepository) GetByName(ctx context.Context, name string) (*domain.LaborRole, error) {
	var role domain.LaborRole
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// ListActive returns all active labor roles
func (r *LaborRoleRepository) ListActive(ctx context.Context) ([]domain.LaborRole, error) {
	var roles []domain.LaborRole
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&roles).Error
	return roles, err
}
