package repository

import (
	"context"
	"errors"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"gorm.io/gorm"
)

// WorkOrderRepository handles database operations for work orders
type WorkOrderRepository struct {
	db *gorm.DB
}

// NewWorkOrderRepository creates a new WorkOrderRepository
func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

// Create inserts a new work order
func (r *WorkOrderRepository) Create(ctx context.Context, order *domain.WorkOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID retrieves a work order by id
func (r *WorkOrderRepository) GetByID(ctx context.Context, id int64) (*domain.WorkOrder, error) {
	var order domain.WorkOrder
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindActiveForClient returns the most recently opened work order for a
// client that is still open or in progress. Used by the quick scanner
// flows to attach work without an explicit order id.
func (r *WorkOrderRepository) FindActiveForClient(ctx context.Context, clientID int64) (*domain.WorkOrder, error) {
	var order domain.WorkOrder
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND status IN ?", clientID,
			[]domain.WorkOrderStatus{domain.WorkOrderOpen, domain.WorkOrderInProgress}).
		Order("opened_at DESC, id DESC").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListForClient returns all work orders for a client, newest first
func (r *WorkOrderRepository) ListForClient(ctx context.Context, clientID int64) ([]domain.WorkOrder, error) {
	var orders []domain.WorkOrder
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("opened_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

// Update persists changes to a work order
func (r *WorkOrderRepository) Update(ctx context.Context, order *domain.WorkOrder) error {
	return r.db.WithContext(ctx).Save(order).Error
}
