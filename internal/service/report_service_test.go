package service

import (
	"context"
	"testing"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newReportService(t *testing.T, db *gorm.DB) *ReportService {
	t.Helper()
	return NewReportService(
		repository.NewTimeEntryRepository(db),
		repository.NewPartUsageRepository(db),
		repository.NewInvoiceRepository(db),
		repository.NewLedgerRepository(db),
		testLogger(),
	)
}

func TestDailyRollupAggregatesOneDay(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(t, db)
	ctx := context.Background()

	client := seedClient(t, db, "Acme Repair")
	role := seedLaborRole(t, db, "Technician", decPtr("100.00"), decPtr("40.00"))
	warehouse := seedWarehouse(t, db, "Main")
	item := seedCatalogItem(t, db, "FAN-80", "80mm case fan", decPtr("12.99"), decPtr("4.00"))
	order := seedWorkOrder(t, db, client.ID)

	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	worked := day.Add(10 * time.Hour)

	require.NoError(t, db.Create(&domain.TimeEntry{
		WorkOrderID: order.ID,
		LaborRoleID: role.ID,
		StartedAt:   timePtr(worked.Add(-90 * time.Minute)),
		EndedAt:     &worked,
		Minutes:     90,
		Billable:    true,
		CreatedAt:   worked,
	}).Error)
	// Non-billable labor stays out of revenue
	require.NoError(t, db.Create(&domain.TimeEntry{
		WorkOrderID: order.ID,
		LaborRoleID: role.ID,
		EndedAt:     &worked,
		Minutes:     30,
		Billable:    false,
		CreatedAt:   worked,
	}).Error)

	require.NoError(t, db.Create(&domain.PartUsage{
		WorkOrderID:   order.ID,
		CatalogItemID: item.ID,
		WarehouseID:   warehouse.ID,
		Qty:           dec("2"),
		CreatedAt:     worked,
	}).Error)
	require.NoError(t, db.Create(&domain.StockLedger{
		CatalogItemID:  item.ID,
		WarehouseID:    warehouse.ID,
		QtyDelta:       dec("-2"),
		UnitCostAtMove: dec("4.2500"),
		Reason:         domain.ReasonIssue,
		ReferenceType:  domain.RefWorkEntry,
		MovedAt:        worked,
	}).Error)

	require.NoError(t, db.Create(&domain.Invoice{
		BaseModel: domain.BaseModel{CreatedAt: worked},
		ClientID:  client.ID,
		Status:    domain.InvoicePaid,
		Subtotal:  dec("200.00"),
		Total:     dec("200.00"),
	}).Error)

	resp, err := svc.DailyRollup(ctx, day, day)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-20", resp.From)
	assert.Equal(t, "2026-08-20", resp.To)
	require.Len(t, resp.Days, 1)

	row := resp.Days[0]
	assert.Equal(t, "2026-08-20", row.Date)
	assert.Equal(t, 90, row.LaborMinutes)
	assert.True(t, row.LaborRevenue.Equal(dec("150.00")))
	assert.True(t, row.PartsRevenue.Equal(dec("25.98")))
	assert.True(t, row.PartsCost.Equal(dec("8.50")))
	assert.True(t, row.InvoicedRevenue.Equal(dec("200.00")))
	assert.True(t, row.PaidRevenue.Equal(dec("200.00")))
}

func TestDailyRollupSplitsDaysAndSkipsEmptyOnes(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(t, db)
	ctx := context.Background()

	client := seedClient(t, db, "Acme Repair")
	role := seedLaborRole(t, db, "Technician", decPtr("60.00"), nil)
	order := seedWorkOrder(t, db, client.ID)

	first := time.Date(2026, 8, 18, 9, 0, 0, 0, time.UTC)
	third := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{first, third} {
		at := at
		require.NoError(t, db.Create(&domain.TimeEntry{
			WorkOrderID: order.ID,
			LaborRoleID: role.ID,
			EndedAt:     &at,
			Minutes:     60,
			Billable:    true,
			CreatedAt:   at,
		}).Error)
	}

	resp, err := svc.DailyRollup(ctx, first, third)
	require.NoError(t, err)
	require.Len(t, resp.Days, 2)
	assert.Equal(t, "2026-08-18", resp.Days[0].Date)
	assert.Equal(t, "2026-08-20", resp.Days[1].Date)
	assert.True(t, resp.Days[0].LaborRevenue.Equal(dec("60.00")))
}

func TestDailyRollupRejectsInvertedRange(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(t, db)
	from := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	_, err := svc.DailyRollup(context.Background(), from, from.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
