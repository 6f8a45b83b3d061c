package service

import (
	"context"
	"testing"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/clientrates"
	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newWorkService(t *testing.T, db *gorm.DB, rates *clientrates.Table) *WorkService {
	t.Helper()
	log := testLogger()
	catalogService := NewCatalogService(repository.NewCatalogRepository(db), repository.NewLedgerRepository(db), log)
	stockService := NewStockService(
		db,
		repository.NewLotRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewWarehouseRepository(db),
		catalogService,
		log,
	)
	return NewWorkService(
		db,
		repository.NewWorkOrderRepository(db),
		repository.NewTimeEntryRepository(db),
		repository.NewPartUsageRepository(db),
		repository.NewLaborRoleRepository(db),
		repository.NewClientRepository(db),
		stockService,
		catalogService,
		rates,
		log,
	)
}

func TestCreateWorkOrderValidatesProjectOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := newWorkService(t, db, nil)
	ctx := context.Background()
	owner := seedClient(t, db, "Acme Repair")
	other := seedClient(t, db, "Harbor Dental")

	project := &domain.Project{ClientID: other.ID, Name: "Office move", Status: domain.ProjectStatusActive}
	require.NoError(t, db.Create(project).Error)

	_, err := svc.CreateWorkOrder(ctx, &domain.WorkOrderCreateRequest{
		ClientID:  owner.ID,
		ProjectID: &project.ID,
		Title:     "Cabling",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	order, err := svc.CreateWorkOrder(ctx, &domain.WorkOrderCreateRequest{
		ClientID:  other.ID,
		ProjectID: &project.ID,
		Title:     "  Cabling  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Cabling", order.Title)
	assert.Equal(t, domain.WorkOrderOpen, order.Status)
	assert.Equal(t, domain.BillingOpen, order.BillingState)
}

func TestStartAndStopTime(t *testing.T) {
	db := newTestDB(t)
	svc := newWorkService(t, db, nil)
	ctx := context.Background()
	client := seedClient(t, db, "Acme Repair")
	seedLaborRole(t, db, "Technician", decPtr("100.00"), decPtr("40.00"))
	order := seedWorkOrder(t, db, client.ID)

	entry, err := svc.StartTime(ctx, order.ID, &domain.TimeStartRequest{LaborRole: "Technician", UserID: "tech-1"})
	require.NoError(t, err)
	require.NotNil(t, entry.StartedAt)
	assert.Nil(t, entry.EndedAt)
	assert.True(t, entry.Billable)

	// Starting the order moves it to in progress
	refreshed, err := svc.GetWorkOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkOrderInProgress, refreshed.Status)

	_, err = svc.StartTime(ctx, order.ID, &domain.TimeStartRequest{LaborRole: "Technician", UserID: "tech-1"})
	assert.ErrorIs(t, err, ErrTimerAlreadyRunning)

	stopped, err := svc.StopTime(ctx, order.ID, &domain.TimeStopRequest{UserID: "tech-1", Notes: "replaced fan"})
	require.NoError(t, err)
	require.NotNil(t, stopped.EndedAt)
	// Sub-minute sessions still bill one minute
	assert.Equal(t, 1, stopped.Minutes)
	assert.Equal(t, "replaced fan", stopped.Notes)

	_, err = svc.StopTime(ctx, order.ID, &domain.TimeStopRequest{UserID: "tech-1"})
	assert.ErrorIs(t, err, ErrNoRunningTimer)
}

func TestStopTimeRoundsElapsedMinutes(t *testing.T) {
	db := newTestDB(t)
	svc := newWorkService(t, db, nil)
	ctx := context.Background()
	client := seedClient(t, db, "Acme Repair")
	role := seedLaborRole(t, db, "Technician", decPtr("100.00"), nil)
	order := seedWorkOrder(t, db, client.ID)

	started := time.Now().UTC().Add(-47 * time.Minute)
	entry := &domain.TimeEntry{
		WorkOrderID: order.ID,
		LaborRoleID: role.ID,
		StartedAt:   &started,
		Billable:    true,
	}
	require.NoError(t, db.Create(entry).Error)

	stopped, err := svc.StopTime(ctx, order.ID, &domain.TimeStopRequest{})
	require.NoError(t, err)
	assert.Equal(t, 47, stopped.Minutes)
}

func TestStartTimeOnClosedOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newWorkService(t, db, nil)
	ctx := context.Background()
	client := seedClient(t, db, "Acme Repair")
	seedLaborRole(t, db, "Technician", nil, nil)
	order := seedWorkOrder(t, db, client.ID)

	_, err := svc.CloseWorkOrder(ctx, order.ID, false)
	require.NoError(t, err)

	_, err = svc.StartTime(ctx, order.ID, &domain.TimeStartRequest{LaborRole: "Technician"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCloseWorkOrderBlocksOnRunningTimer(t *testing.T) {
	db := newTestDB(t)
	svc := newWorkService(t, db, nil)
	ctx := context.Background()
	client := seedClient(t, db, "Acme Repair")
	seedLaborRole(t, db, "Technician", nil, nil)
	order := seedWorkOrder(t, db, client.ID)

	_, err := svc.StartTime(ctx, order.ID, &domain.TimeStartRequest{LaborRole: "Technician"})
	require.NoError(t, err)

	_, err = svc.CloseWorkOrder(ctx, order.ID, false)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.StopTime(ctx, order.ID, &domain.TimeStopRequest{})
	require.NoError(t, err)

	closed, err := svc.CloseWorkOrder(ctx, order.ID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkOrderClosed, closed.Status)
	assert.NotNil(t, closed.ClosedAt)

	_, err = svc.CloseWorkOrder(ctx, order.ID, true)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestAdvanceBillingStateForwardOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newWorkService(t, db, nil)
	ctx := context.Background()
	client := seedClient(t, db, "Acme Repair")
	order := seedWorkOrder(t, db, client.ID)

	advanced, err := svc.AdvanceBillingState(ctx, order.ID, domain.BillingReadyToBill)
	require.NoError(t, err)
	assert.Equal(t, domain.BillingReadyToBill, advanced.BillingState)

	_, err = svc.AdvanceBillingState(ctx, order.ID, domain.BillingAwaitingApproval)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestIssuePartStampsResolvedCost(t *testing.T) {
	db := newTestDB(t)
	svc := newWorkService(t, db, nil)
	ctx := context.Background()
	client := seedClient(t, db, "Acme Repair")
	warehouse := seedWarehouse(t, db, "Main")
	item := seedCatalogItem(t, db, "FAN-80", "80mm case fan", decPtr("12.99"), decPtr("4.00"))
	order := seedWorkOrder(t, db, client.ID)

	now := time.Now().UTC()
	seedLot(t, db, item.ID, warehouse.ID, "2", "3.0000", now.Add(-time.Hour))
	seedLot(t, db, item.ID, warehouse.ID, "2", "5.0000", now)

	usage, err := svc.IssuePart(ctx, order.ID, &domain.PartIssueRequest{Code: "FAN-80", Qty: dec("3")})
	require.NoError(t, err)
	assert.Equal(t, item.ID, usage.CatalogItemID)
	assert.Equal(t, warehouse.ID, usage.WarehouseID)
	// 2 at 3.00 and 1 at 5.00 averages to 3.6667
	require.NotNil(t, usage.UnitCostResolved)
	assert.True(t, usage.UnitCostResolved.Equal(dec("3.6667")))

	var lots []domain.InventoryLot
	require.NoError(t, db.Order("id").Find(&lots).Error)
	assert.True(t, lots[0].QtyOnHand.IsZero())
	assert.True(t, lots[1].QtyOnHand.Equal(dec("1")))
}

func TestIssuePartShortStockRollsBackUsage(t *testing.T) {
	db := newTestDB(t)
	svc := newWorkService(t, db, nil)
	ctx := context.Background()
	client := seedClient(t, db, "Acme Repair")
	warehouse := seedWarehouse(t, db, "Main")
	item := seedCatalogItem(t, db, "FAN-80", "80mm case fan", nil, nil)
	order := seedWorkOrder(t, db, client.ID)
	seedLot(t, db, item.ID, warehouse.ID, "1", "3.0000", time.Now().UTC())

	_, err := svc.IssuePart(ctx, order.ID, &domain.PartIssueRequest{Code: "FAN-80", Qty: dec("2")})
	require.ErrorIs(t, err, ErrInsufficientStock)

	var count int64
	require.NoError(t, db.Model(&domain.PartUsage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestQuickIssueFindsOrCreatesEverything(t *testing.T) {
	db := newTestDB(t)
	rates := clientrates.NewFromEntries(map[string]clientrates.Entry{
		"acme": {Name: "Acme Repair", SupportRate: dec("80")},
	})
	svc := newWorkService(t, db, rates)
	ctx := context.Background()
	warehouse := seedWarehouse(t, db, "Main")
	item := seedCatalogItem(t, db, "FAN-80", "80mm case fan", decPtr("12.99"), nil)
	seedLot(t, db, item.ID, warehouse.ID, "5", "3.0000", time.Now().UTC())

	// Unknown client key resolves through the rate table and is created
	usage, err := svc.QuickIssue(ctx, &domain.QuickIssueRequest{
		ClientName: "acme",
		Code:       "FAN-80",
		Qty:        dec("1"),
	})
	require.NoError(t, err)

	var client domain.Client
	require.NoError(t, db.Where("name = ?", "Acme Repair").First(&client).Error)

	order, err := svc.GetWorkOrder(ctx, usage.WorkOrderID)
	require.NoError(t, err)
	assert.Equal(t, client.ID, order.ClientID)
	assert.Equal(t, "Service work for Acme Repair", order.Title)

	// A second quick issue reuses the same active order
	again, err := svc.QuickIssue(ctx, &domain.QuickIssueRequest{
		ClientName: "Acme Repair",
		Code:       "FAN-80",
		Qty:        dec("1"),
	})
	require.NoError(t, err)
	assert.Equal(t, order.ID, again.WorkOrderID)
}

func TestQuickStartTime(t *testing.T) {
	db := newTestDB(t)
	svc := newWorkService(t, db, nil)
	ctx := context.Background()
	client := seedClient(t, db, "Acme Repair")
	seedLaborRole(t, db, "Technician", decPtr("100.00"), nil)

	entry, err := svc.QuickStartTime(ctx, &domain.QuickTimeStartRequest{
		ClientID:  &client.ID,
		LaborRole: "Technician",
		UserID:    "tech-1",
	})
	require.NoError(t, err)

	order, err := svc.GetWorkOrder(ctx, entry.WorkOrderID)
	require.NoError(t, err)
	assert.Equal(t, client.ID, order.ClientID)
}
