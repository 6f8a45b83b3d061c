package repository

import (
	"context"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"gorm.io/gorm"
)

// PartUsageRepository handles database operations for part consumptions
type PartUsageRepository struct {
	db *gorm.DB
}

// NewPartUsageRepository creates a new PartUsageRepository
func NewPartUsageRepository(db *gorm.DB) *PartUsageRepository {
	return &PartUsageRepository{db: db}
}

// Create inserts a new part usage
func (r *PartUsageRepository) Create(ctx context.Context, usage *domain.PartUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

// CreateTx inserts a part usage inside an existing transaction, so the
// usage row and its FIFO stock movement commit or roll back together.
func (r *PartUsageRepository) CreateTx(tx *gorm.DB, usage *domain.PartUsage) error {
	return tx.Create(usage).Error
}

// GetByID retrieves a part usage by id
func (r *PartUsageRepository) GetByID(ctx context.Context, id int64) (*domain.PartUsage, error) {
	var usage domain.PartUsage
	err := r.db.WithContext(ctx).Preload("CatalogItem").First(&usage, id).Error
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

// Update persists changes to a part usage
func (r *PartUsageRepository) Update(ctx context.Context, usage *domain.PartUsage) error {
	return r.db.WithContext(ctx).Save(usage).Error
}

// ListForWorkOrder returns all part usages on a work order
func (r *PartUsageRepository) ListForWorkOrder(ctx context.Context, workOrderID int64) ([]domain.PartUsage, error) {
	var usages []domain.PartUsage
	err := r.db.WithContext(ctx).
		Preload("CatalogItem").
		Where("work_order_id = ?", workOrderID).
		Order("created_at ASC, id ASC").
		Find(&usages).Error
	return usages, err
}

// ListUnbilled returns part usages that no invoice line references yet.
// clientID 0 means all clients.
func (r *PartUsageRepository) ListUnbilled(ctx context.Context, clientID int64) ([]domain.PartUsage, error) {
	subquery := r.db.
		Model(&domain.InvoiceLine{}).
		Select("source_id").
		Where("source_type = ? AND source_id IS NOT NULL", domain.SourcePartUsage)

	query := r.db.WithContext(ctx).
		Preload("CatalogItem").
		Preload("WorkOrder").
		Joins("JOIN work_orders ON work_orders.id = part_usages.work_order_id")
	if clientID != 0 {
		query = query.Where("work_orders.client_id = ?", clientID)
	}

	var usages []domain.PartUsage
	err := query.
		Where("part_usages.id NOT IN (?)", subquery).
		Order("part_usages.created_at ASC, part_usages.id ASC").
		Find(&usages).Error
	return usages, err
}

// ListBetween returns part usages created in a time window
func (r *PartUsageRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.PartUsage, error) {
	var usages []domain.PartUsage
	err := r.db.WithContext(ctx).
		Preload("CatalogItem").
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC, id ASC").
		Find(&usages).Error
	return usages, err
}
