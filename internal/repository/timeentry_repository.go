package repository

import (
	"context"
	"errors"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"gorm.io/gorm"
)

// TimeEntryRepository handles database operations for labor time entries
type TimeEntryRepository struct {
	db *gorm.DB
}

// NewTimeEntryRepository creates a new TimeEntryRepository
func NewTimeEntryRepository(db *gorm.DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

// Create inserts a new time entry
func (r *TimeEntryRepository) Create(ctx context.Context, entry *domain.TimeEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// GetByID retrieves a time entry by id
func (r *TimeEntryRepository) GetByID(ctx context.Context, id int64) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	err := r.db.WithContext(ctx).Preload("LaborRole").First(&entry, id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Update persists changes to a time entry
func (r *TimeEntryRepository) Update(ctx context.Context, entry *domain.TimeEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// FindRunning returns the open session (no end time) for a worker on a
// work order, or nil when none is running.
func (r *TimeEntryRepository) FindRunning(ctx context.Context, workOrderID int64, userID string) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	q := r.db.WithContext(ctx).
		Where("work_order_id = ? AND ended_at IS NULL", workOrderID)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	err := q.Order("started_at DESC, id DESC").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListForWorkOrder returns all time entries on a work order
func (r *TimeEntryRepository) ListForWorkOrder(ctx context.Context, workOrderID int64) ([]domain.TimeEntry, error) {
	var entries []domain.TimeEntry
	err := r.db.WithContext(ctx).
		Preload("LaborRole").
		Where("work_order_id = ?", workOrderID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

// ListUnbilled returns finished billable time entries that no invoice
// line references yet. clientID 0 means all clients.
func (r *TimeEntryRepository) ListUnbilled(ctx context.Context, clientID int64) ([]domain.TimeEntry, error) {
	subquery := r.db.
		Model(&domain.InvoiceLine{}).
		Select("source_id").
		Where("source_type = ? AND source_id IS NOT NULL", domain.SourceTimeEntry)

	query := r.db.WithContext(ctx).
		Preload("LaborRole").
		Preload("WorkOrder").
		Joins("JOIN work_orders ON work_orders.id = time_entries.work_order_id")
	if clientID != 0 {
		query = query.Where("work_orders.client_id = ?", clientID)
	}

	var entries []domain.TimeEntry
	err := query.
		Where("time_entries.billable = ?", true).
		Where("time_entries.ended_at IS NOT NULL").
		Where("time_entries.id NOT IN (?)", subquery).
		Order("time_entries.created_at ASC, time_entries.id ASC").
		Find(&entries).Error
	return entries, err
}

// ListBetween returns finished entries created in a time window
func (r *TimeEntryRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.TimeEntry, error) {
	var entries []domain.TimeEntry
	err := r.db.WithContext(ctx).
		Preload("LaborRole").
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("ended_at IS NOT NULL OR minutes > 0").
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
