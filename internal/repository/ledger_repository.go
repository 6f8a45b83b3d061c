package repository

import (
	"context"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"gorm.io/gorm"
)

// LedgerRepository handles database operations for the stock movement
// ledger. The ledger is append only: there are no update or delete
// methods, deliberately.
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append inserts a ledger entry
func (r *LedgerRepository) Append(ctx context.Context, entry *domain.StockLedger) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// AppendTx inserts a ledger entry inside an existing transaction
func (r *LedgerRepository) AppendTx(tx *gorm.DB, entry *domain.StockLedger) error {
	return tx.Create(entry).Error
}

// ListForItem returns movement history for an item, newest first
func (r *LedgerRepository) ListForItem(ctx context.Context, catalogItemID int64, limit int) ([]domain.StockLedger, error) {
	q := r.db.WithContext(ctx).
		Where("catalog_item_id = ?", catalogItemID).
		Order("moved_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []domain.StockLedger
	err := q.Find(&entries).Error
	return entries, err
}

// ExistsForItem reports whether an item has any movement history. Used to
// freeze the SKU once stock has moved.
func (r *LedgerRepository) ExistsForItem(ctx context.Context, catalogItemID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.StockLedger{}).
		Where("catalog_item_id = ?", catalogItemID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// ListIssuesBetween returns ISSUE entries in a time window, for cost
// reporting
func (r *LedgerRepository) ListIssuesBetween(ctx context.Context, from, to time.Time) ([]domain.StockLedger, error) {
	var entries []domain.StockLedger
	err := r.db.WithContext(ctx).
		Where("reason = ? AND moved_at >= ? AND moved_at < ?", domain.ReasonIssue, from, to).
		Order("moved_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
