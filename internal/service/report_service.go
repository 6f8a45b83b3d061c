package service

import (
	"context"
	"fmt"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/money"
	"github.com/harborview-tech/fieldops-api/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReportService builds revenue and cost rollups from the operational
// tables. All aggregation happens here in decimal math; the database only
// returns the raw rows of the range.
type ReportService struct {
	timeEntries *repository.TimeEntryRepository
	partUsages  *repository.PartUsageRepository
	invoices    *repository.InvoiceRepository
	ledger      *repository.LedgerRepository
	logger      *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	timeEntries *repository.TimeEntryRepository,
	partUsages *repository.PartUsageRepository,
	invoices *repository.InvoiceRepository,
	ledger *repository.LedgerRepository,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		timeEntries: timeEntries,
		partUsages:  partUsages,
		invoices:    invoices,
		ledger:      ledger,
		logger:      logger,
	}
}

const rollupDateFormat = "2006-01-02"

// DailyRollup aggregates one row per day over the inclusive date range:
// labor and parts revenue as worked, parts cost from issue ledger rows,
// and invoiced/paid revenue from invoices by status. Dates are UTC days.
func (s *ReportService) DailyRollup(ctx context.Context, from, to time.Time) (*domain.DailyRollupResponse, error) {
	from = from.UTC().Truncate(24 * time.Hour)
	to = to.UTC().Truncate(24 * time.Hour)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end before start", ErrInvalidInput)
	}
	rangeEnd := to.Add(24 * time.Hour)

	rows := map[string]*domain.DailyRollupRow{}
	day := func(t time.Time) *domain.DailyRollupRow {
		key := t.UTC().Format(rollupDateFormat)
		row, ok := rows[key]
		if !ok {
			row = &domain.DailyRollupRow{
				Date:            key,
				LaborRevenue:    decimal.Zero,
				PartsRevenue:    decimal.Zero,
				PartsCost:       decimal.Zero,
				InvoicedRevenue: decimal.Zero,
				PaidRevenue:     decimal.Zero,
			}
			rows[key] = row
		}
		return row
	}

	entries, err := s.timeEntries.ListBetween(ctx, from, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load time entries: %w", err)
	}
	for _, entry := range entries {
		if !entry.Billable {
			continue
		}
		rates := ResolveLaborRates(entry.LaborRole, entry.BillRateOverride, entry.CostRateOverride)
		row := day(timeSortKey(&entry))
		row.LaborMinutes += entry.Minutes
		row.LaborRevenue = row.LaborRevenue.Add(LaborAmount(entry.Minutes, rates.BillRate))
	}

	usages, err := s.partUsages.ListBetween(ctx, from, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load part usages: %w", err)
	}
	for _, usage := range usages {
		price := ResolvePartPrice(usage.CatalogItem, usage.SellPriceOverride)
		row := day(usage.CreatedAt)
		row.PartsRevenue = row.PartsRevenue.Add(PartAmount(usage.Qty, price))
	}

	// COGS comes from the ledger, not the usage rows: each ISSUE entry
	// carries the qty and unit cost of the lot it drew down.
	issues, err := s.ledger.ListIssuesBetween(ctx, from, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load issue ledger: %w", err)
	}
	for _, entry := range issues {
		cost := entry.QtyDelta.Neg().Mul(entry.UnitCostAtMove)
		row := day(entry.MovedAt)
		row.PartsCost = row.PartsCost.Add(cost)
	}

	invoices, err := s.invoices.ListByStatusBetween(ctx,
		[]domain.InvoiceStatus{domain.InvoiceSent, domain.InvoicePaid}, from, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	for _, invoice := range invoices {
		row := day(invoice.CreatedAt)
		row.InvoicedRevenue = row.InvoicedRevenue.Add(invoice.Total)
		if invoice.Status == domain.InvoicePaid {
			row.PaidRevenue = row.PaidRevenue.Add(invoice.Total)
		}
	}

	resp := &domain.DailyRollupResponse{
		From: from.Format(rollupDateFormat),
		To:   to.Format(rollupDateFormat),
		Days: []domain.DailyRollupRow{},
	}
	for d := from; d.Before(rangeEnd); d = d.Add(24 * time.Hour) {
		key := d.Format(rollupDateFormat)
		row, ok := rows[key]
		if !ok {
			continue
		}
		row.LaborRevenue = money.Round2(row.LaborRevenue)
		row.PartsRevenue = money.Round2(row.PartsRevenue)
		row.PartsCost = money.Round2(row.PartsCost)
		row.InvoicedRevenue = money.Round2(row.InvoicedRevenue)
		row.PaidRevenue = money.Round2(row.PaidRevenue)
		resp.Days = append(resp.Days, *row)
	}
	return resp, nil
}
