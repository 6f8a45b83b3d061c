package repository

import (
	"context"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LotRepository handles database operations for inventory lots. Issuance
// consumption order is received_at ASC with id ASC as the tiebreaker, so
// the oldest cost layers deplete first.
type LotRepository struct {
	db *gorm.DB
}

// NewLotRepository creates a new LotRepository
func NewLotRepository(db *gorm.DB) *LotRepository {
	return &LotRepository{db: db}
}

// Create inserts a new lot
func (r *LotRepository) Create(ctx context.Context, lot *domain.InventoryLot) error {
	return r.db.WithContext(ctx).Create(lot).Error
}

// CreateTx inserts a new lot inside an existing transaction
func (r *LotRepository) CreateTx(tx *gorm.DB, lot *domain.InventoryLot) error {
	return tx.Create(lot).Error
}

// GetByID retrieves a lot by id
func (r *LotRepository) GetByID(ctx context.Context, id int64) (*domain.InventoryLot, error) {
	var lot domain.InventoryLot
	err := r.db.WithContext(ctx).First(&lot, id).Error
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// GetByIDTx retrieves a lot inside a transaction, optionally row-locked
func (r *LotRepository) GetByIDTx(tx *gorm.DB, id int64, lock bool) (*domain.InventoryLot, error) {
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var lot domain.InventoryLot
	if err := q.First(&lot, id).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

// ListForIssue returns lots with stock on hand for an item at a warehouse
// in FIFO consumption order. When lock is true, lots are read FOR UPDATE so
// concurrent issuers serialize on the same cost layers.
func (r *LotRepository) ListForIssue(tx *gorm.DB, catalogItemID, warehouseID int64, lock bool) ([]domain.InventoryLot, error) {
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var lots []domain.InventoryLot
	err := q.
		Where("catalog_item_id = ? AND warehouse_id = ? AND qty_on_hand > 0", catalogItemID, warehouseID).
		Order("received_at ASC, id ASC").
		Find(&lots).Error
	return lots, err
}

// UpdateQtyTx writes a lot's new on-hand quantity inside a transaction
func (r *LotRepository) UpdateQtyTx(tx *gorm.DB, lot *domain.InventoryLot) error {
	return tx.Model(lot).Update("qty_on_hand", lot.QtyOnHand).Error
}

// ListForItem returns all lots for an item, newest first
func (r *LotRepository) ListForItem(ctx context.Context, catalogItemID int64) ([]domain.InventoryLot, error) {
	var lots []domain.InventoryLot
	err := r.db.WithContext(ctx).
		Where("catalog_item_id = ?", catalogItemID).
		Order("received_at DESC, id DESC").
		Find(&lots).Error
	return lots, err
}

// StockLevels aggregates on-hand quantity per item and warehouse. The
// weighted average cost is computed by the service layer from the lots so
// decimal math stays out of the database.
func (r *LotRepository) ListWithStock(ctx context.Context, warehouseID *int64) ([]domain.InventoryLot, error) {
	q := r.db.WithContext(ctx).Where("qty_on_hand > 0")
	if warehouseID != nil {
		q = q.Where("warehouse_id = ?", *warehouseID)
	}
	var lots []domain.InventoryLot
	err := q.Order("catalog_item_id ASC, received_at ASC, id ASC").Find(&lots).Error
	return lots, err
}
