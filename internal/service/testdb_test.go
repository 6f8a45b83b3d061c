package service

import (
	"testing"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/database"
	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory sqlite database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	// A pooled second connection would see its own empty :memory: database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func seedClient(t *testing.T, db *gorm.DB, name string) *domain.Client {
	t.Helper()
	client := &domain.Client{Name: name}
	require.NoError(t, db.Create(client).Error)
	return client
}

func seedWarehouse(t *testing.T, db *gorm.DB, name string) *domain.Warehouse {
	t.Helper()
	warehouse := &domain.Warehouse{Name: name, IsActive: true}
	require.NoError(t, db.Create(warehouse).Error)
	return warehouse
}

func seedCatalogItem(t *testing.T, db *gorm.DB, sku, name string, sellPrice, cost *decimal.Decimal) *domain.CatalogItem {
	t.Helper()
	item := &domain.CatalogItem{
		SKU:              sku,
		Name:             name,
		Unit:             domain.UnitEach,
		DefaultSellPrice: sellPrice,
		DefaultCost:      cost,
		IsActive:         true,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func seedLaborRole(t *testing.T, db *gorm.DB, name string, billRate, costRate *decimal.Decimal) *domain.LaborRole {
	t.Helper()
	role := &domain.LaborRole{Name: name, BillRate: billRate, CostRate: costRate, IsActive: true}
	require.NoError(t, db.Create(role).Error)
	return role
}

func seedWorkOrder(t *testing.T, db *gorm.DB, clientID int64) *domain.WorkOrder {
	t.Helper()
	order := &domain.WorkOrder{
		ClientID:     clientID,
		Title:        "Test job",
		Status:       domain.WorkOrderOpen,
		BillingState: domain.BillingOpen,
		OpenedAt:     time.Now().UTC(),
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func seedLot(t *testing.T, db *gorm.DB, itemID, warehouseID int64, qty, unitCost string, receivedAt time.Time) *domain.InventoryLot {
	t.Helper()
	lot := &domain.InventoryLot{
		CatalogItemID: itemID,
		WarehouseID:   warehouseID,
		QtyOnHand:     dec(qty),
		UnitCost:      dec(unitCost),
		ReceivedAt:    receivedAt,
	}
	require.NoError(t, db.Create(lot).Error)
	return lot
}
