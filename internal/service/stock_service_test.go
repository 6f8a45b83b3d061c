package service

import (
	"context"
	"testing"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newStockService(t *testing.T) (*StockService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	log := testLogger()
	catalogService := NewCatalogService(repository.NewCatalogRepository(db), repository.NewLedgerRepository(db), log)
	stock := NewStockService(
		db,
		repository.NewLotRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewWarehouseRepository(db),
		catalogService,
		log,
	)
	return stock, db
}

func TestReceiveCreatesLotAndLedger(t *testing.T) {
	stock, db := newStockService(t)
	ctx := context.Background()
	warehouse := seedWarehouse(t, db, "Main")
	item := seedCatalogItem(t, db, "WID-100", "Widget", decPtr("9.99"), decPtr("4.00"))

	lot, err := stock.Receive(ctx, &domain.ReceiveStockRequest{
		Code:      "WID-100",
		Qty:       dec("10"),
		UnitCost:  dec("4.25"),
		Supplier:  "Acme Supply",
		Reference: "PO-1001",
	})
	require.NoError(t, err)
	assert.Equal(t, item.ID, lot.CatalogItemID)
	assert.Equal(t, warehouse.ID, lot.WarehouseID)
	assert.True(t, lot.QtyOnHand.Equal(dec("10")))
	assert.True(t, lot.UnitCost.Equal(dec("4.25")))

	var entries []domain.StockLedger
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ReasonReceipt, entries[0].Reason)
	assert.Equal(t, domain.RefPurchaseOrder, entries[0].ReferenceType)
	assert.True(t, entries[0].QtyDelta.Equal(dec("10")))
}

func TestReceiveRejectsBadQuantities(t *testing.T) {
	stock, db := newStockService(t)
	ctx := context.Background()
	seedWarehouse(t, db, "Main")
	seedCatalogItem(t, db, "WID-100", "Widget", nil, nil)

	_, err := stock.Receive(ctx, &domain.ReceiveStockRequest{Code: "WID-100", Qty: dec("0"), UnitCost: dec("1")})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = stock.Receive(ctx, &domain.ReceiveStockRequest{Code: "WID-100", Qty: dec("1"), UnitCost: dec("-1")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIssueConsumesOldestLotsFirst(t *testing.T) {
	stock, db := newStockService(t)
	ctx := context.Background()
	warehouse := seedWarehouse(t, db, "Main")
	item := seedCatalogItem(t, db, "WID-100", "Widget", nil, nil)

	now := time.Now().UTC()
	oldLot := seedLot(t, db, item.ID, warehouse.ID, "5", "2.0000", now.Add(-48*time.Hour))
	newLot := seedLot(t, db, item.ID, warehouse.ID, "5", "3.0000", now.Add(-1*time.Hour))

	result, err := stock.Issue(ctx, &domain.IssueStockRequest{Code: "WID-100", Qty: dec("7")})
	require.NoError(t, err)

	require.Len(t, result.LedgerEntries, 2)
	assert.Equal(t, oldLot.ID, *result.LedgerEntries[0].InventoryLotID)
	assert.True(t, result.LedgerEntries[0].QtyDelta.Equal(dec("-5")))
	assert.True(t, result.LedgerEntries[0].UnitCostAtMove.Equal(dec("2.0000")))
	assert.Equal(t, newLot.ID, *result.LedgerEntries[1].InventoryLotID)
	assert.True(t, result.LedgerEntries[1].QtyDelta.Equal(dec("-2")))
	assert.True(t, result.LedgerEntries[1].UnitCostAtMove.Equal(dec("3.0000")))

	// 5*2 + 2*3 = 16 across 7 units
	assert.True(t, result.TotalCost.Equal(dec("16")))
	assert.True(t, result.AverageCost().Equal(dec("2.2857")))

	var lots []domain.InventoryLot
	require.NoError(t, db.Order("id").Find(&lots).Error)
	assert.True(t, lots[0].QtyOnHand.IsZero())
	assert.True(t, lots[1].QtyOnHand.Equal(dec("3")))
}

func TestLedgerMatchesLotsAcrossSequence(t *testing.T) {
	stock, db := newStockService(t)
	ctx := context.Background()
	seedWarehouse(t, db, "Main")
	seedCatalogItem(t, db, "WID-100", "Widget", nil, nil)

	// After every receipt and issuance the ledger deltas must sum to the
	// quantity sitting on the lots.
	checkBalance := func(step string) {
		t.Helper()
		var ledgerSum, lotSum struct{ Total decimal.Decimal }
		require.NoError(t, db.Model(&domain.StockLedger{}).
			Select("COALESCE(SUM(qty_delta), 0) AS total").Scan(&ledgerSum).Error)
		require.NoError(t, db.Model(&domain.InventoryLot{}).
			Select("COALESCE(SUM(qty_on_hand), 0) AS total").Scan(&lotSum).Error)
		assert.True(t, ledgerSum.Total.Equal(lotSum.Total),
			"%s: ledger sum %s != lot sum %s", step, ledgerSum.Total, lotSum.Total)
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"receive 10", func() error {
			_, err := stock.Receive(ctx, &domain.ReceiveStockRequest{Code: "WID-100", Qty: dec("10"), UnitCost: dec("2.00")})
			return err
		}},
		{"issue 4", func() error {
			_, err := stock.Issue(ctx, &domain.IssueStockRequest{Code: "WID-100", Qty: dec("4")})
			return err
		}},
		{"receive 5", func() error {
			_, err := stock.Receive(ctx, &domain.ReceiveStockRequest{Code: "WID-100", Qty: dec("5"), UnitCost: dec("3.00")})
			return err
		}},
		{"issue 8 across lots", func() error {
			_, err := stock.Issue(ctx, &domain.IssueStockRequest{Code: "WID-100", Qty: dec("8")})
			return err
		}},
		{"issue 3 drains stock", func() error {
			_, err := stock.Issue(ctx, &domain.IssueStockRequest{Code: "WID-100", Qty: dec("3")})
			return err
		}},
	}
	for _, step := range steps {
		require.NoError(t, step.run(), step.name)
		checkBalance(step.name)
	}

	// A failed issuance must not move either sum
	_, err := stock.Issue(ctx, &domain.IssueStockRequest{Code: "WID-100", Qty: dec("1")})
	require.ErrorIs(t, err, ErrInsufficientStock)
	checkBalance("failed issue")
}

func TestIssueTieBreaksOnLotID(t *testing.T) {
	stock, db := newStockService(t)
	ctx := context.Background()
	warehouse := seedWarehouse(t, db, "Main")
	item := seedCatalogItem(t, db, "WID-100", "Widget", nil, nil)

	receivedAt := time.Now().UTC().Add(-24 * time.Hour)
	first := seedLot(t, db, item.ID, warehouse.ID, "2", "1.0000", receivedAt)
	seedLot(t, db, item.ID, warehouse.ID, "2", "5.0000", receivedAt)

	result, err := stock.Issue(ctx, &domain.IssueStockRequest{Code: "WID-100", Qty: dec("1")})
	require.NoError(t, err)
	require.Len(t, result.LedgerEntries, 1)
	assert.Equal(t, first.ID, *result.LedgerEntries[0].InventoryLotID)
}

func TestIssueInsufficientStockRollsBack(t *testing.T) {
	stock, db := newStockService(t)
	ctx := context.Background()
	warehouse := seedWarehouse(t, db, "Main")
	item := seedCatalogItem(t, db, "WID-100", "Widget", nil, nil)
	seedLot(t, db, item.ID, warehouse.ID, "3", "2.0000", time.Now().UTC())

	_, err := stock.Issue(ctx, &domain.IssueStockRequest{Code: "WID-100", Qty: dec("5")})
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "short 2")

	// Nothing moved
	var lot domain.InventoryLot
	require.NoError(t, db.First(&lot).Error)
	assert.True(t, lot.QtyOnHand.Equal(dec("3")))

	var count int64
	require.NoError(t, db.Model(&domain.StockLedger{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAdjustRejectsNegativeResult(t *testing.T) {
	stock, db := newStockService(t)
	ctx := context.Background()
	warehouse := seedWarehouse(t, db, "Main")
	item := seedCatalogItem(t, db, "WID-100", "Widget", nil, nil)
	lot := seedLot(t, db, item.ID, warehouse.ID, "2", "3.5000", time.Now().UTC())

	_, err := stock.Adjust(ctx, &domain.AdjustStockRequest{LotID: lot.ID, QtyDelta: dec("-3")})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	adjusted, err := stock.Adjust(ctx, &domain.AdjustStockRequest{LotID: lot.ID, QtyDelta: dec("-1")})
	require.NoError(t, err)
	assert.True(t, adjusted.QtyOnHand.Equal(dec("1")))

	var entry domain.StockLedger
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, domain.ReasonAdjust, entry.Reason)
	assert.True(t, entry.QtyDelta.Equal(dec("-1")))
	assert.True(t, entry.UnitCostAtMove.Equal(dec("3.5000")))
}

func TestAdjustUnknownLot(t *testing.T) {
	stock, _ := newStockService(t)
	_, err := stock.Adjust(context.Background(), &domain.AdjustStockRequest{LotID: 99, QtyDelta: dec("1")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStockLevelsWeightedAverage(t *testing.T) {
	stock, db := newStockService(t)
	ctx := context.Background()
	warehouse := seedWarehouse(t, db, "Main")
	item := seedCatalogItem(t, db, "WID-100", "Widget", nil, nil)
	now := time.Now().UTC()
	seedLot(t, db, item.ID, warehouse.ID, "10", "2.0000", now.Add(-2*time.Hour))
	seedLot(t, db, item.ID, warehouse.ID, "5", "4.0000", now)

	levels, err := stock.StockLevels(ctx, nil)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, "WID-100", levels[0].SKU)
	assert.True(t, levels[0].QtyOnHand.Equal(dec("15")))
	// (10*2 + 5*4) / 15 = 2.6667
	assert.True(t, levels[0].AvgUnitCost.Equal(dec("2.6667")))
}

func TestResolveWarehouseDefaulting(t *testing.T) {
	stock, db := newStockService(t)
	ctx := context.Background()

	_, err := stock.ResolveWarehouse(ctx, nil)
	assert.ErrorIs(t, err, ErrNoWarehouse)

	main := seedWarehouse(t, db, "Main")
	resolved, err := stock.ResolveWarehouse(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, main.ID, resolved.ID)

	seedWarehouse(t, db, "Annex")
	_, err = stock.ResolveWarehouse(ctx, nil)
	assert.ErrorIs(t, err, ErrNoWarehouse)

	resolved, err = stock.ResolveWarehouse(ctx, &main.ID)
	require.NoError(t, err)
	assert.Equal(t, main.ID, resolved.ID)

	missing := int64(404)
	_, err = stock.ResolveWarehouse(ctx, &missing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReceiveAutoProvisionsUnknownCode(t *testing.T) {
	stock, db := newStockService(t)
	ctx := context.Background()
	seedWarehouse(t, db, "Main")

	lot, err := stock.Receive(ctx, &domain.ReceiveStockRequest{
		Code:     "012345678905",
		Qty:      dec("4"),
		UnitCost: dec("1.50"),
	})
	require.NoError(t, err)

	var item domain.CatalogItem
	require.NoError(t, db.First(&item, lot.CatalogItemID).Error)
	assert.Equal(t, "012345678905", item.SKU)
	assert.Equal(t, "012345678905", item.Name)
	assert.Nil(t, item.DefaultSellPrice)
}
