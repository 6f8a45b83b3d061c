package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/clientrates"
	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/legacy"
	"github.com/harborview-tech/fieldops-api/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeTicketStore is an in-memory TicketStore for billing tests
type fakeTicketStore struct {
	tickets map[int64]*legacy.Ticket
	sent    map[int64]string
	listErr error
}

func newFakeTicketStore(tickets ...*legacy.Ticket) *fakeTicketStore {
	store := &fakeTicketStore{tickets: map[int64]*legacy.Ticket{}, sent: map[int64]string{}}
	for _, t := range tickets {
		store.tickets[t.ID] = t
	}
	return store
}

func (f *fakeTicketStore) ListUnsent(ctx context.Context) ([]legacy.Ticket, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []legacy.Ticket
	for _, t := range f.tickets {
		if !t.Sent {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTicketStore) GetByID(ctx context.Context, id int64) (*legacy.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTicketStore) MarkSent(ctx context.Context, id int64, invoiceNumber string) error {
	t, ok := f.tickets[id]
	if !ok {
		return fmt.Errorf("ticket %d not found", id)
	}
	t.Sent = true
	if t.InvoiceNumber == "" {
		t.InvoiceNumber = invoiceNumber
	}
	f.sent[id] = invoiceNumber
	return nil
}

func newBillingService(t *testing.T, db *gorm.DB, tickets legacy.TicketStore, rates *clientrates.Table) *BillingService {
	t.Helper()
	return NewBillingService(
		db,
		repository.NewInvoiceRepository(db),
		repository.NewTimeEntryRepository(db),
		repository.NewPartUsageRepository(db),
		repository.NewWorkOrderRepository(db),
		repository.NewClientRepository(db),
		repository.NewLaborRoleRepository(db),
		repository.NewCatalogRepository(db),
		tickets,
		rates,
		testLogger(),
	)
}

func seedTimeEntry(t *testing.T, db *gorm.DB, workOrderID, roleID int64, minutes int, billOverride *decimal.Decimal) *domain.TimeEntry {
	t.Helper()
	now := time.Now().UTC()
	started := now.Add(-time.Duration(minutes) * time.Minute)
	entry := &domain.TimeEntry{
		WorkOrderID:      workOrderID,
		LaborRoleID:      roleID,
		StartedAt:        &started,
		EndedAt:          &now,
		Minutes:          minutes,
		BillRateOverride: billOverride,
		Billable:         true,
	}
	require.NoError(t, db.Create(entry).Error)
	return entry
}

func TestGetUnbilledPricesTime(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Acme Repair")
	role := seedLaborRole(t, db, "Technician", decPtr("100.00"), decPtr("40.00"))
	order := seedWorkOrder(t, db, client.ID)
	seedTimeEntry(t, db, order.ID, role.ID, 90, decPtr("45.555"))

	svc := newBillingService(t, db, nil, nil)
	resp, err := svc.GetUnbilled(context.Background(), client.ID)
	require.NoError(t, err)

	require.Len(t, resp.Time, 1)
	item := resp.Time[0]
	assert.Equal(t, domain.SourceTimeEntry, item.SourceType)
	assert.Equal(t, 90, item.Minutes)
	assert.True(t, item.Hours.Equal(dec("1.5")))
	// The sub-cent override survives to the amount boundary
	assert.True(t, item.BillRate.Equal(dec("45.555")))
	assert.True(t, item.Amount.Equal(dec("68.33")))
	assert.False(t, item.Legacy)
	assert.True(t, resp.Total.Equal(dec("68.33")))
}

func TestGetUnbilledSkipsRunningTimers(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Acme Repair")
	role := seedLaborRole(t, db, "Technician", decPtr("100.00"), nil)
	order := seedWorkOrder(t, db, client.ID)

	// Still on the clock: minutes accrued but no end stamp yet
	started := time.Now().UTC().Add(-45 * time.Minute)
	require.NoError(t, db.Create(&domain.TimeEntry{
		WorkOrderID: order.ID,
		LaborRoleID: role.ID,
		StartedAt:   &started,
		Minutes:     45,
		Billable:    true,
	}).Error)

	svc := newBillingService(t, db, nil, nil)
	resp, err := svc.GetUnbilled(context.Background(), client.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Time)
}

func TestGetUnbilledUnknownClient(t *testing.T) {
	db := newTestDB(t)
	svc := newBillingService(t, db, nil, nil)
	_, err := svc.GetUnbilled(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUnbilledMergesLegacyTickets(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Acme Repair")

	rates := clientrates.NewFromEntries(map[string]clientrates.Entry{
		"acme": {Name: "Acme Repair", SupportRate: dec("80")},
	})
	store := newFakeTicketStore(
		&legacy.Ticket{
			ID:            7,
			EntryType:     legacy.EntryTypeTime,
			ClientKey:     "acme",
			ClientName:    "ACME",
			Note:          "Quarterly maintenance",
			Minutes:       120,
			InvoicedTotal: dec("150.00"),
			CreatedAt:     time.Now().UTC(),
		},
		&legacy.Ticket{
			ID:                  8,
			EntryType:           legacy.EntryTypeHardware,
			ClientKey:           "acme",
			ClientName:          "ACME",
			Note:                "Replaced edge router",
			Minutes:             30,
			HardwareDescription: "Edge Router",
			HardwareSalesPrice:  dec("75.00"),
			HardwareQuantity:    dec("1"),
			InvoicedTotal:       dec("75.00"),
			CreatedAt:           time.Now().UTC(),
		},
	)

	svc := newBillingService(t, db, store, rates)
	resp, err := svc.GetUnbilled(context.Background(), client.ID)
	require.NoError(t, err)

	// The hardware ticket carries minutes too but bills only as a part
	require.Len(t, resp.Time, 1)
	labor := resp.Time[0]
	assert.Equal(t, int64(-7), labor.SourceID)
	assert.True(t, labor.Legacy)
	require.NotNil(t, labor.TicketID)
	assert.Equal(t, int64(7), *labor.TicketID)
	// Rate table entry wins over the ticket's own invoiced total
	assert.True(t, labor.BillRate.Equal(dec("80.00")))
	assert.True(t, labor.Amount.Equal(dec("160.00")))

	require.Len(t, resp.Parts, 1)
	hardware := resp.Parts[0]
	assert.Equal(t, int64(-8), hardware.SourceID)
	assert.True(t, hardware.Legacy)
	assert.Equal(t, "Edge Router", hardware.Description)
	assert.True(t, hardware.Qty.Equal(dec("1")))
	assert.True(t, hardware.UnitPrice.Equal(dec("75.00")))
	assert.True(t, hardware.Amount.Equal(dec("75.00")))

	assert.True(t, resp.Total.Equal(dec("235.00")))
}

func TestGetUnbilledPricesHardwareBySaleColumns(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Acme Repair")

	store := newFakeTicketStore(
		&legacy.Ticket{
			ID:                  20,
			EntryType:           legacy.EntryTypeHardware,
			ClientName:          "Acme Repair",
			HardwareDescription: "Patch cables",
			HardwareSalesPrice:  dec("12.50"),
			HardwareQuantity:    dec("3"),
			CreatedAt:           time.Now().UTC(),
		},
		// Sale columns empty; the ticket's own total is the charge
		&legacy.Ticket{
			ID:            21,
			EntryType:     legacy.EntryTypeHardware,
			ClientName:    "Acme Repair",
			Note:          "Misc hardware",
			InvoicedTotal: dec("42.00"),
			CreatedAt:     time.Now().UTC(),
		},
	)

	svc := newBillingService(t, db, store, nil)
	resp, err := svc.GetUnbilled(context.Background(), client.ID)
	require.NoError(t, err)

	assert.Empty(t, resp.Time)
	require.Len(t, resp.Parts, 2)

	byID := map[int64]domain.UnbilledPartItem{}
	for _, item := range resp.Parts {
		byID[item.SourceID] = item
	}

	priced := byID[-20]
	assert.True(t, priced.Qty.Equal(dec("3")))
	assert.True(t, priced.UnitPrice.Equal(dec("12.50")))
	assert.True(t, priced.Amount.Equal(dec("37.50")))

	fallback := byID[-21]
	assert.Equal(t, "Misc hardware", fallback.Description)
	assert.True(t, fallback.Qty.Equal(dec("1")))
	assert.True(t, fallback.Amount.Equal(dec("42.00")))
}

func TestGetUnbilledDerivesLegacyRate(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Harbor Dental")

	// No rate table entry; the ticket matches on its raw client name and
	// the rate falls back to invoiced total over hours.
	store := newFakeTicketStore(&legacy.Ticket{
		ID:            12,
		EntryType:     legacy.EntryTypeTime,
		ClientKey:     "harbordental",
		ClientName:    "harbor dental",
		Note:          "Printer repair",
		Minutes:       120,
		InvoicedTotal: dec("150.00"),
		CreatedAt:     time.Now().UTC(),
	})

	svc := newBillingService(t, db, store, nil)
	resp, err := svc.GetUnbilled(context.Background(), client.ID)
	require.NoError(t, err)

	require.Len(t, resp.Time, 1)
	assert.True(t, resp.Time[0].BillRate.Equal(dec("75.00")))
	assert.True(t, resp.Time[0].Amount.Equal(dec("150.00")))
	assert.Empty(t, resp.Parts)
}

func TestGetUnbilledUnfilteredSurfacesUnmatchedLegacy(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Harbor Dental")
	role := seedLaborRole(t, db, "Technician", decPtr("100.00"), decPtr("40.00"))
	order := seedWorkOrder(t, db, client.ID)
	entry := seedTimeEntry(t, db, order.ID, role.ID, 60, nil)

	// One ticket matches a known client by rate-table name, one belongs
	// to a client the normalized model has never seen.
	rates := clientrates.NewFromEntries(map[string]clientrates.Entry{
		"harbor": {Name: "Harbor Dental", SupportRate: dec("90")},
		"acme":   {Name: "Acme Repair", SupportRate: dec("80")},
	})
	store := newFakeTicketStore(
		&legacy.Ticket{ID: 3, EntryType: legacy.EntryTypeTime, ClientKey: "harbor", ClientName: "HARBOR", Note: "Router swap", Minutes: 30, CreatedAt: time.Now().UTC()},
		&legacy.Ticket{ID: 4, EntryType: legacy.EntryTypeTime, ClientKey: "acme", ClientName: "Acme", Note: "Server tune-up", Minutes: 60, CreatedAt: time.Now().UTC()},
	)

	svc := newBillingService(t, db, store, rates)
	resp, err := svc.GetUnbilled(context.Background(), 0)
	require.NoError(t, err)

	assert.Nil(t, resp.ClientID)
	require.Len(t, resp.Time, 3)

	bySource := map[int64]domain.UnbilledTimeItem{}
	for _, item := range resp.Time {
		bySource[item.SourceID] = item
	}

	require.NotNil(t, bySource[entry.ID].ClientID)
	assert.Equal(t, client.ID, *bySource[entry.ID].ClientID)

	matched := bySource[-3]
	require.NotNil(t, matched.ClientID)
	assert.Equal(t, client.ID, *matched.ClientID)

	unmatched := bySource[-4]
	assert.True(t, unmatched.Legacy)
	assert.Nil(t, unmatched.ClientID)
	assert.True(t, unmatched.BillRate.Equal(dec("80.00")))
}

func TestGetUnbilledToleratesLegacyOutage(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Acme Repair")
	store := newFakeTicketStore()
	store.listErr = fmt.Errorf("connection reset")

	svc := newBillingService(t, db, store, nil)
	resp, err := svc.GetUnbilled(context.Background(), client.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Time)
}

func TestCreateInvoiceStampsTimeEntry(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Acme Repair")
	role := seedLaborRole(t, db, "Technician", decPtr("100.00"), decPtr("40.00"))
	order := seedWorkOrder(t, db, client.ID)
	entry := seedTimeEntry(t, db, order.ID, role.ID, 60, nil)

	svc := newBillingService(t, db, nil, nil)
	invoice, err := svc.CreateInvoice(context.Background(), &domain.InvoiceCreateRequest{
		ClientID: client.ID,
		Lines: []domain.InvoiceLineCreate{{
			LineType:    domain.LineLabor,
			Description: "Bench work",
			Qty:         dec("1"),
			UnitPrice:   dec("100.00"),
			SourceType:  domain.SourceTimeEntry,
			SourceID:    &entry.ID,
		}},
		CreatedBy: "office",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceDraft, invoice.Status)
	assert.True(t, invoice.Subtotal.Equal(dec("100.00")))
	assert.True(t, invoice.Total.Equal(dec("100.00")))

	var stamped domain.TimeEntry
	require.NoError(t, db.First(&stamped, entry.ID).Error)
	require.NotNil(t, stamped.SnapBillRate)
	assert.True(t, stamped.SnapBillRate.Equal(dec("100.00")))
	require.NotNil(t, stamped.SnapCostRate)
	assert.True(t, stamped.SnapCostRate.Equal(dec("40.00")))
	assert.NotNil(t, stamped.ApprovedAt)
	assert.Equal(t, "office", stamped.ApprovedBy)

	require.Len(t, invoice.Lines, 1)
	assert.NotEmpty(t, invoice.Lines[0].SourceSnapshot)
}

func TestCreateInvoiceDoubleBillGuard(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Acme Repair")
	role := seedLaborRole(t, db, "Technician", decPtr("100.00"), nil)
	order := seedWorkOrder(t, db, client.ID)
	entry := seedTimeEntry(t, db, order.ID, role.ID, 60, nil)

	svc := newBillingService(t, db, nil, nil)
	line := domain.InvoiceLineCreate{
		LineType:    domain.LineLabor,
		Description: "Bench work",
		Qty:         dec("1"),
		UnitPrice:   dec("100.00"),
		SourceType:  domain.SourceTimeEntry,
		SourceID:    &entry.ID,
	}
	req := &domain.InvoiceCreateRequest{ClientID: client.ID, Lines: []domain.InvoiceLineCreate{line}}

	_, err := svc.CreateInvoice(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.CreateInvoice(context.Background(), req)
	require.ErrorIs(t, err, ErrAlreadyInvoiced)

	var count int64
	require.NoError(t, db.Model(&domain.Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// The billed entry disappears from unbilled
	resp, err := svc.GetUnbilled(context.Background(), client.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Time)
}

func TestCreateInvoiceMarksLegacyTicketSent(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Acme Repair")
	store := newFakeTicketStore(&legacy.Ticket{
		ID:            7,
		EntryType:     legacy.EntryTypeTime,
		ClientKey:     "acme",
		ClientName:    "Acme Repair",
		Note:          "Quarterly maintenance",
		Minutes:       120,
		InvoicedTotal: dec("150.00"),
		CreatedAt:     time.Now().UTC(),
	})

	svc := newBillingService(t, db, store, nil)
	sourceID := int64(-7)
	invoice, err := svc.CreateInvoice(context.Background(), &domain.InvoiceCreateRequest{
		ClientID: client.ID,
		Lines: []domain.InvoiceLineCreate{{
			LineType:    domain.LineLabor,
			Description: "Quarterly maintenance",
			Qty:         dec("2"),
			UnitPrice:   dec("75.00"),
			SourceType:  domain.SourceTimeEntry,
			SourceID:    &sourceID,
		}},
	})
	require.NoError(t, err)
	assert.True(t, invoice.Total.Equal(dec("150.00")))

	number, ok := store.sent[7]
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("INV-%d", invoice.ID), number)
	assert.NotEmpty(t, invoice.Lines[0].SourceSnapshot)

	// The ticket no longer surfaces as unbilled
	resp, err := svc.GetUnbilled(context.Background(), client.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Time)

	// And it cannot be billed a second time even if re-requested
	_, err = svc.CreateInvoice(context.Background(), &domain.InvoiceCreateRequest{
		ClientID: client.ID,
		Lines: []domain.InvoiceLineCreate{{
			LineType:    domain.LineLabor,
			Description: "Quarterly maintenance",
			Qty:         dec("2"),
			UnitPrice:   dec("75.00"),
			SourceType:  domain.SourceTimeEntry,
			SourceID:    &sourceID,
		}},
	})
	assert.ErrorIs(t, err, ErrAlreadyInvoiced)
}

func TestCreateInvoiceLegacyLineWithoutStore(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Acme Repair")

	svc := newBillingService(t, db, nil, nil)
	sourceID := int64(-7)
	_, err := svc.CreateInvoice(context.Background(), &domain.InvoiceCreateRequest{
		ClientID: client.ID,
		Lines: []domain.InvoiceLineCreate{{
			LineType:    domain.LineLabor,
			Description: "Quarterly maintenance",
			Qty:         dec("2"),
			UnitPrice:   dec("75.00"),
			SourceType:  domain.SourceTimeEntry,
			SourceID:    &sourceID,
		}},
	})
	assert.ErrorIs(t, err, ErrLegacyUnavailable)
}

func TestCreateInvoiceFlatTaskDoubleBillGuard(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Acme Repair")
	item := &domain.CatalogItem{SKU: "SVC-TUNEUP", Name: "PC tune-up", Unit: domain.UnitFlat, DefaultSellPrice: decPtr("89.00"), IsActive: true}
	require.NoError(t, db.Create(item).Error)
	task := &domain.FlatTask{CatalogItemID: item.ID}
	require.NoError(t, db.Create(task).Error)

	svc := newBillingService(t, db, nil, nil)
	line := domain.InvoiceLineCreate{
		LineType:    domain.LineFlat,
		Description: "PC tune-up",
		Qty:         dec("1"),
		UnitPrice:   dec("89.00"),
		SourceType:  domain.SourceFlatTask,
		SourceID:    &task.ID,
	}

	_, err := svc.CreateInvoice(context.Background(), &domain.InvoiceCreateRequest{ClientID: client.ID, Lines: []domain.InvoiceLineCreate{line}})
	require.NoError(t, err)

	// A flat task on invoice A cannot be attached to invoice B
	_, err = svc.CreateInvoice(context.Background(), &domain.InvoiceCreateRequest{ClientID: client.ID, Lines: []domain.InvoiceLineCreate{line}})
	require.ErrorIs(t, err, ErrAlreadyInvoiced)

	var count int64
	require.NoError(t, db.Model(&domain.Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateInvoiceAppliesTax(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Acme Repair")

	svc := newBillingService(t, db, nil, nil)
	invoice, err := svc.CreateInvoice(context.Background(), &domain.InvoiceCreateRequest{
		ClientID: client.ID,
		Lines: []domain.InvoiceLineCreate{{
			LineType:    domain.LinePart,
			Description: "Shop supplies",
			Qty:         dec("3"),
			UnitPrice:   dec("4.999"),
			SourceType:  domain.SourcePartUsage,
		}},
		Tax: decPtr("1.255"),
	})
	require.NoError(t, err)
	// Unit price rounds to 5.00 before extension
	assert.True(t, invoice.Subtotal.Equal(dec("15.00")))
	assert.True(t, invoice.Tax.Equal(dec("1.26")))
	assert.True(t, invoice.Total.Equal(dec("16.26")))
}

func TestFinalizeInvoiceForwardOnly(t *testing.T) {
	db := newTestDB(t)
	client := seedClient(t, db, "Acme Repair")

	svc := newBillingService(t, db, nil, nil)
	invoice, err := svc.CreateInvoice(context.Background(), &domain.InvoiceCreateRequest{
		ClientID: client.ID,
		Lines: []domain.InvoiceLineCreate{{
			LineType:    domain.LineLabor,
			Description: "Bench work",
			Qty:         dec("1"),
			UnitPrice:   dec("100.00"),
			SourceType:  domain.SourceTimeEntry,
		}},
	})
	require.NoError(t, err)

	sent, err := svc.FinalizeInvoice(context.Background(), invoice.ID, domain.InvoiceSent)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceSent, sent.Status)

	_, err = svc.FinalizeInvoice(context.Background(), invoice.ID, domain.InvoiceDraft)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	paid, err := svc.FinalizeInvoice(context.Background(), invoice.ID, domain.InvoicePaid)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePaid, paid.Status)

	_, err = svc.FinalizeInvoice(context.Background(), invoice.ID, domain.InvoiceSent)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestNormalizeInvoiceStatus(t *testing.T) {
	status, err := NormalizeInvoiceStatus(" Sent ")
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceSent, status)

	_, err = NormalizeInvoiceStatus("void")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
