package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/database"
	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/money"
	"github.com/harborview-tech/fieldops-api/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StockService owns all stock movement: receipts into new cost lots,
// quantity adjustments, and FIFO issuance against the oldest lots.
// Every movement appends to the stock ledger in the same transaction.
type StockService struct {
	db         *gorm.DB
	lots       *repository.LotRepository
	ledger     *repository.LedgerRepository
	warehouses *repository.WarehouseRepository
	catalog    *CatalogService
	logger     *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(
	db *gorm.DB,
	lots *repository.LotRepository,
	ledger *repository.LedgerRepository,
	warehouses *repository.WarehouseRepository,
	catalog *CatalogService,
	logger *zap.Logger,
) *StockService {
	return &StockService{
		db:         db,
		lots:       lots,
		ledger:     ledger,
		warehouses: warehouses,
		catalog:    catalog,
		logger:     logger,
	}
}

// IssueResult describes one FIFO issuance: the ledger entries written per
// consumed lot and the totals across them.
type IssueResult struct {
	LedgerEntries []domain.StockLedger
	TotalQty      decimal.Decimal
	TotalCost     decimal.Decimal
}

// AverageCost is the quantity-weighted average unit cost of the issuance,
// rounded to 4 decimal places. Zero quantity yields zero.
func (r *IssueResult) AverageCost() decimal.Decimal {
	if r.TotalQty.IsZero() {
		return decimal.Zero
	}
	return money.Round4(r.TotalCost.Div(r.TotalQty))
}

// Receive books received goods into a brand-new lot carrying its own unit
// cost. Receipts never merge into existing lots; each delivery is its own
// cost layer.
func (s *StockService) Receive(ctx context.Context, req *domain.ReceiveStockRequest) (*domain.InventoryLot, error) {
	qty := money.Round4(req.Qty)
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: receipt quantity must be positive", ErrInvalidQuantity)
	}
	unitCost := money.Round4(req.UnitCost)
	if unitCost.IsNegative() {
		return nil, fmt.Errorf("%w: unit cost cannot be negative", ErrInvalidInput)
	}

	resolution, err := s.catalog.ResolveCode(ctx, req.Code, req.CreatedBy)
	if err != nil {
		return nil, err
	}
	item := resolution.Item

	warehouse, err := s.ResolveWarehouse(ctx, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	receivedAt := time.Now().UTC()
	if req.ReceivedAt != nil {
		receivedAt = req.ReceivedAt.UTC()
	}

	refType := domain.RefPurchaseOrder
	if req.Reference == "" {
		refType = domain.RefInit
	}

	lot := &domain.InventoryLot{
		CatalogItemID: item.ID,
		WarehouseID:   warehouse.ID,
		QtyOnHand:     qty,
		UnitCost:      unitCost,
		ReceivedAt:    receivedAt,
		Supplier:      req.Supplier,
		LotCode:       req.LotCode,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lots.CreateTx(tx, lot); err != nil {
			return fmt.Errorf("failed to create lot: %w", err)
		}

		entry := &domain.StockLedger{
			CatalogItemID:  item.ID,
			WarehouseID:    warehouse.ID,
			InventoryLotID: &lot.ID,
			QtyDelta:       qty,
			UnitCostAtMove: unitCost,
			Reason:         domain.ReasonReceipt,
			ReferenceType:  refType,
			ReferenceID:    req.Reference,
			MovedAt:        receivedAt,
			CreatedBy:      req.CreatedBy,
		}
		if err := s.ledger.AppendTx(tx, entry); err != nil {
			return fmt.Errorf("failed to append receipt ledger entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock received",
		zap.Int64("catalog_item_id", item.ID),
		zap.Int64("warehouse_id", warehouse.ID),
		zap.Int64("lot_id", lot.ID),
		zap.String("qty", qty.String()),
		zap.String("unit_cost", unitCost.String()),
	)

	return lot, nil
}

// Adjust corrects the on-hand quantity of one lot. The delta may be
// negative but may not drive the lot below zero. The ledger entry carries
// the lot's own unit cost.
func (s *StockService) Adjust(ctx context.Context, req *domain.AdjustStockRequest) (*domain.InventoryLot, error) {
	delta := money.Round4(req.QtyDelta)
	if delta.IsZero() {
		return nil, fmt.Errorf("%w: adjustment delta cannot be zero", ErrInvalidQuantity)
	}

	var lot *domain.InventoryLot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		lot, err = s.lots.GetByIDTx(tx, req.LotID, database.SupportsRowLocking(s.db))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: lot %d", ErrNotFound, req.LotID)
			}
			return err
		}

		newQty := lot.QtyOnHand.Add(delta)
		if newQty.IsNegative() {
			return fmt.Errorf("%w: adjustment would drive lot %d to %s",
				ErrInvalidQuantity, lot.ID, newQty.String())
		}

		lot.QtyOnHand = newQty
		if err := s.lots.UpdateQtyTx(tx, lot); err != nil {
			return fmt.Errorf("failed to update lot quantity: %w", err)
		}

		entry := &domain.StockLedger{
			CatalogItemID:  lot.CatalogItemID,
			WarehouseID:    lot.WarehouseID,
			InventoryLotID: &lot.ID,
			QtyDelta:       delta,
			UnitCostAtMove: lot.UnitCost,
			Reason:         domain.ReasonAdjust,
			ReferenceType:  domain.RefInit,
			ReferenceID:    req.Reference,
			MovedAt:        time.Now().UTC(),
			CreatedBy:      req.CreatedBy,
		}
		if err := s.ledger.AppendTx(tx, entry); err != nil {
			return fmt.Errorf("failed to append adjustment ledger entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock adjusted",
		zap.Int64("lot_id", lot.ID),
		zap.String("delta", delta.String()),
		zap.String("qty_on_hand", lot.QtyOnHand.String()),
	)

	return lot, nil
}

// Issue consumes stock FIFO outside a work order context, in its own
// transaction.
func (s *StockService) Issue(ctx context.Context, req *domain.IssueStockRequest) (*IssueResult, error) {
	resolution, err := s.catalog.ResolveCode(ctx, req.Code, req.CreatedBy)
	if err != nil {
		return nil, err
	}

	warehouse, err := s.ResolveWarehouse(ctx, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	var result *IssueResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.IssueTx(tx, resolution.Item.ID, warehouse.ID, req.Qty,
			domain.RefInit, req.Reference, req.CreatedBy, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IssueTx walks the item's lots at a warehouse oldest first, taking from
// each until the requested quantity is covered. Each consumed lot yields
// one negative ledger entry at that lot's unit cost. If the lots cannot
// cover the quantity the whole transaction fails with ErrInsufficientStock
// and nothing moves.
//
// Callers embed this in their own transaction so the business record
// (part usage, manual issue) and the stock movement commit atomically.
func (s *StockService) IssueTx(tx *gorm.DB, catalogItemID, warehouseID int64, qty decimal.Decimal,
	refType domain.StockReferenceType, refID, createdBy string, movedAt time.Time) (*IssueResult, error) {

	remaining := money.Round4(qty)
	if remaining.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: issue quantity must be positive", ErrInvalidQuantity)
	}

	lots, err := s.lots.ListForIssue(tx, catalogItemID, warehouseID, database.SupportsRowLocking(s.db))
	if err != nil {
		return nil, fmt.Errorf("failed to load lots for issue: %w", err)
	}

	result := &IssueResult{
		TotalQty:  decimal.Zero,
		TotalCost: decimal.Zero,
	}

	for i := range lots {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		lot := &lots[i]

		take := decimal.Min(lot.QtyOnHand, remaining)
		if take.LessThanOrEqual(decimal.Zero) {
			continue
		}

		lot.QtyOnHand = lot.QtyOnHand.Sub(take)
		if err := s.lots.UpdateQtyTx(tx, lot); err != nil {
			return nil, fmt.Errorf("failed to deplete lot %d: %w", lot.ID, err)
		}

		entry := domain.StockLedger{
			CatalogItemID:  catalogItemID,
			WarehouseID:    warehouseID,
			InventoryLotID: &lot.ID,
			QtyDelta:       take.Neg(),
			UnitCostAtMove: lot.UnitCost,
			Reason:         domain.ReasonIssue,
			ReferenceType:  refType,
			ReferenceID:    refID,
			MovedAt:        movedAt,
			CreatedBy:      createdBy,
		}
		if err := s.ledger.AppendTx(tx, &entry); err != nil {
			return nil, fmt.Errorf("failed to append issue ledger entry: %w", err)
		}

		result.LedgerEntries = append(result.LedgerEntries, entry)
		result.TotalQty = result.TotalQty.Add(take)
		result.TotalCost = result.TotalCost.Add(take.Mul(lot.UnitCost))
		remaining = remaining.Sub(take)
	}

	if remaining.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: short %s of item %d at warehouse %d",
			ErrInsufficientStock, remaining.String(), catalogItemID, warehouseID)
	}

	return result, nil
}

// StockLevels aggregates on-hand quantity and weighted average cost per
// item and warehouse.
func (s *StockService) StockLevels(ctx context.Context, warehouseID *int64) ([]domain.StockLevel, error) {
	lots, err := s.lots.ListWithStock(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock lots: %w", err)
	}

	type key struct {
		item      int64
		warehouse int64
	}
	totals := map[key]*domain.StockLevel{}
	costs := map[key]decimal.Decimal{}
	var order []key

	for _, lot := range lots {
		k := key{lot.CatalogItemID, lot.WarehouseID}
		level, ok := totals[k]
		if !ok {
			level = &domain.StockLevel{
				CatalogItemID: lot.CatalogItemID,
				WarehouseID:   lot.WarehouseID,
				QtyOnHand:     decimal.Zero,
			}
			totals[k] = level
			costs[k] = decimal.Zero
			order = append(order, k)
		}
		level.QtyOnHand = level.QtyOnHand.Add(lot.QtyOnHand)
		costs[k] = costs[k].Add(lot.QtyOnHand.Mul(lot.UnitCost))
	}

	levels := make([]domain.StockLevel, 0, len(order))
	for _, k := range order {
		level := totals[k]
		if !level.QtyOnHand.IsZero() {
			level.AvgUnitCost = money.Round4(costs[k].Div(level.QtyOnHand))
		}
		item, err := s.catalog.GetItem(ctx, level.CatalogItemID)
		if err == nil {
			level.SKU = item.SKU
			level.Name = item.Name
		}
		levels = append(levels, *level)
	}

	return levels, nil
}

// LedgerForItem returns recent movement history for an item
func (s *StockService) LedgerForItem(ctx context.Context, catalogItemID int64, limit int) ([]domain.StockLedger, error) {
	return s.ledger.ListForItem(ctx, catalogItemID, limit)
}

// ResolveWarehouse validates an explicit warehouse id, or falls back to
// the single active warehouse when exactly one exists.
func (s *StockService) ResolveWarehouse(ctx context.Context, id *int64) (*domain.Warehouse, error) {
	if id != nil {
		warehouse, err := s.warehouses.GetByID(ctx, *id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: warehouse %d", ErrNotFound, *id)
			}
			return nil, err
		}
		return warehouse, nil
	}

	active, err := s.warehouses.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(active) != 1 {
		return nil, ErrNoWarehouse
	}
	return &active[0], nil
}
