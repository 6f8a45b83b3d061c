package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/clientrates"
	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/legacy"
	"github.com/harborview-tech/fieldops-api/internal/money"
	"github.com/harborview-tech/fieldops-api/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BillingService aggregates unbilled work across the normalized model and
// the legacy flat-ticket store, and turns selections of it into invoices.
// Legacy tickets surface with negated source ids so both worlds share one
// invoice line shape without colliding.
type BillingService struct {
	db          *gorm.DB
	invoices    *repository.InvoiceRepository
	timeEntries *repository.TimeEntryRepository
	partUsages  *repository.PartUsageRepository
	workOrders  *repository.WorkOrderRepository
	clients     *repository.ClientRepository
	roles       *repository.LaborRoleRepository
	catalog     *repository.CatalogRepository
	tickets     legacy.TicketStore
	rates       *clientrates.Table
	logger      *zap.Logger
}

// NewBillingService creates a new BillingService. tickets may be nil when
// the legacy store is not configured; legacy items then simply never
// surface.
func NewBillingService(
	db *gorm.DB,
	invoices *repository.InvoiceRepository,
	timeEntries *repository.TimeEntryRepository,
	partUsages *repository.PartUsageRepository,
	workOrders *repository.WorkOrderRepository,
	clients *repository.ClientRepository,
	roles *repository.LaborRoleRepository,
	catalog *repository.CatalogRepository,
	tickets legacy.TicketStore,
	rates *clientrates.Table,
	logger *zap.Logger,
) *BillingService {
	if rates == nil {
		rates = clientrates.Empty()
	}
	return &BillingService{
		db:          db,
		invoices:    invoices,
		timeEntries: timeEntries,
		partUsages:  partUsages,
		workOrders:  workOrders,
		clients:     clients,
		roles:       roles,
		catalog:     catalog,
		tickets:     tickets,
		rates:       rates,
		logger:      logger,
	}
}

// GetUnbilled returns everything billable that no invoice references
// yet: finished billable time, consumed parts, the flat-fee offerings,
// and unsent legacy tickets matched to clients by name. clientID 0
// returns the cross-client view; legacy tickets whose name matches no
// client then surface with a nil client id rather than disappearing.
func (s *BillingService) GetUnbilled(ctx context.Context, clientID int64) (*domain.UnbilledResponse, error) {
	var client *domain.Client
	if clientID != 0 {
		c, err := s.clients.GetByID(ctx, clientID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: client %d", ErrNotFound, clientID)
			}
			return nil, err
		}
		client = c
	}

	resp := &domain.UnbilledResponse{
		Time:  []domain.UnbilledTimeItem{},
		Parts: []domain.UnbilledPartItem{},
		Flat:  []domain.UnbilledFlatItem{},
		Total: decimal.Zero,
	}
	if client != nil {
		resp.ClientID = &client.ID
	}

	entries, err := s.timeEntries.ListUnbilled(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unbilled time: %w", err)
	}
	timeSort := map[int64]time.Time{}
	for _, entry := range entries {
		rates := ResolveLaborRates(entry.LaborRole, entry.BillRateOverride, entry.CostRateOverride)
		amount := LaborAmount(entry.Minutes, rates.BillRate)

		description := entry.Notes
		if description == "" && entry.LaborRole != nil {
			description = entry.LaborRole.Name
		}

		item := domain.UnbilledTimeItem{
			SourceType:  domain.SourceTimeEntry,
			SourceID:    entry.ID,
			WorkOrderID: entry.WorkOrderID,
			Description: description,
			Minutes:     entry.Minutes,
			Hours:       money.MinutesToHours(entry.Minutes),
			BillRate:    rates.BillRate,
			Amount:      amount,
		}
		if entry.WorkOrder != nil {
			item.ClientID = &entry.WorkOrder.ClientID
		}
		resp.Time = append(resp.Time, item)
		timeSort[entry.ID] = timeSortKey(&entry)
		resp.Total = resp.Total.Add(amount)
	}

	usages, err := s.partUsages.ListUnbilled(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unbilled parts: %w", err)
	}
	partSort := map[int64]time.Time{}
	for _, usage := range usages {
		price := ResolvePartPrice(usage.CatalogItem, usage.SellPriceOverride)
		amount := PartAmount(usage.Qty, price)

		item := domain.UnbilledPartItem{
			SourceType:  domain.SourcePartUsage,
			SourceID:    usage.ID,
			WorkOrderID: usage.WorkOrderID,
			Qty:         money.Round4(usage.Qty),
			UnitPrice:   price,
			Amount:      amount,
		}
		if usage.WorkOrder != nil {
			item.ClientID = &usage.WorkOrder.ClientID
		}
		if usage.CatalogItem != nil {
			item.Description = usage.CatalogItem.Name
			item.SKU = usage.CatalogItem.SKU
		}
		resp.Parts = append(resp.Parts, item)
		partSort[usage.ID] = usage.CreatedAt
		resp.Total = resp.Total.Add(amount)
	}

	// Flat-fee offerings are always on the menu; their backing item's
	// default sell price is the charge.
	flatTasks, err := s.catalog.ListActiveFlatTasks(ctx)
	if err != nil {
		return nil, err
	}
	for _, task := range flatTasks {
		item, err := s.catalog.GetByID(ctx, task.CatalogItemID)
		if err != nil {
			continue
		}
		amount := decimal.Zero
		if item.DefaultSellPrice != nil {
			amount = money.Round2(*item.DefaultSellPrice)
		}
		resp.Flat = append(resp.Flat, domain.UnbilledFlatItem{
			SourceType:  domain.SourceFlatTask,
			SourceID:    task.ID,
			Description: item.Name,
			Amount:      amount,
		})
	}

	if err := s.mergeLegacy(ctx, client, resp, timeSort, partSort); err != nil {
		return nil, err
	}

	sort.SliceStable(resp.Time, func(i, j int) bool {
		return timeSort[resp.Time[i].SourceID].After(timeSort[resp.Time[j].SourceID])
	})
	sort.SliceStable(resp.Parts, func(i, j int) bool {
		return partSort[resp.Parts[i].SourceID].After(partSort[resp.Parts[j].SourceID])
	})

	resp.Total = money.Round2(resp.Total)
	return resp, nil
}

func timeSortKey(entry *domain.TimeEntry) time.Time {
	if entry.EndedAt != nil {
		return *entry.EndedAt
	}
	if entry.StartedAt != nil {
		return *entry.StartedAt
	}
	return entry.CreatedAt
}

// mergeLegacy folds unsent legacy tickets into the time and parts lists,
// split by entry type: time tickets become time items priced from the
// client rate table (or derived from the ticket's own total), hardware
// tickets become part items priced from the hardware sale. Source ids are
// the negated ticket id. With a client, only that client's tickets are
// kept; without one, every ticket is kept and its client id resolved by
// name, nil when nothing matches.
func (s *BillingService) mergeLegacy(ctx context.Context, client *domain.Client, resp *domain.UnbilledResponse,
	timeSort, partSort map[int64]time.Time) error {

	if s.tickets == nil {
		return nil
	}

	unsent, err := s.tickets.ListUnsent(ctx)
	if err != nil {
		s.logger.Warn("Failed to list legacy tickets, continuing without them", zap.Error(err))
		return nil
	}

	var byName map[string]int64
	if client == nil {
		all, err := s.clients.List(ctx)
		if err != nil {
			return err
		}
		byName = make(map[string]int64, len(all))
		for _, c := range all {
			byName[clientrates.KeyForName(c.Name)] = c.ID
		}
	}

	for _, ticket := range unsent {
		var itemClientID *int64
		if client != nil {
			if !s.ticketBelongsTo(&ticket, client) {
				continue
			}
			itemClientID = &client.ID
		} else {
			itemClientID = s.legacyClientID(byName, &ticket)
		}

		// Skip tickets already picked up on an invoice line
		billed, err := s.legacyAlreadyInvoiced(ctx, ticket.ID)
		if err != nil {
			return err
		}
		if billed {
			continue
		}

		ticketID := ticket.ID
		sourceID := -ticket.ID

		switch ticket.EntryType {
		case legacy.EntryTypeTime:
			rate := s.legacyBillRate(&ticket)
			amount := LaborAmount(ticket.Minutes, rate)
			resp.Time = append(resp.Time, domain.UnbilledTimeItem{
				SourceType:  domain.SourceTimeEntry,
				SourceID:    sourceID,
				ClientID:    itemClientID,
				Description: ticket.Note,
				Minutes:     ticket.Minutes,
				Hours:       money.MinutesToHours(ticket.Minutes),
				BillRate:    rate,
				Amount:      amount,
				Legacy:      true,
				TicketID:    &ticketID,
			})
			timeSort[sourceID] = ticket.CreatedAt
			resp.Total = resp.Total.Add(amount)

		case legacy.EntryTypeHardware:
			qty, price, amount := legacyHardwareCharge(&ticket)
			description := ticket.HardwareDescription
			if description == "" {
				description = ticket.Note
			}
			resp.Parts = append(resp.Parts, domain.UnbilledPartItem{
				SourceType:  domain.SourcePartUsage,
				SourceID:    sourceID,
				ClientID:    itemClientID,
				Description: description,
				Qty:         qty,
				UnitPrice:   price,
				Amount:      amount,
				Legacy:      true,
				TicketID:    &ticketID,
			})
			partSort[sourceID] = ticket.CreatedAt
			resp.Total = resp.Total.Add(amount)
		}
	}

	return nil
}

// legacyHardwareCharge prices a hardware ticket: sales price times
// quantity, falling back to the ticket's own invoiced total when the sale
// columns are empty.
func legacyHardwareCharge(ticket *legacy.Ticket) (qty, price, amount decimal.Decimal) {
	qty = money.Round4(ticket.HardwareQuantity)
	if qty.LessThanOrEqual(decimal.Zero) {
		qty = decimal.NewFromInt(1)
	}
	price = money.Round2(ticket.HardwareSalesPrice)
	amount = money.Round2(qty.Mul(price))
	if amount.IsZero() && ticket.InvoicedTotal.GreaterThan(decimal.Zero) {
		qty = decimal.NewFromInt(1)
		price = money.Round2(ticket.InvoicedTotal)
		amount = price
	}
	return qty, price, amount
}

// legacyClientID resolves a ticket to a known client id by name, first
// through the rate-table display name for the ticket's key, then the raw
// ticket client name. Nil when no client matches.
func (s *BillingService) legacyClientID(byName map[string]int64, ticket *legacy.Ticket) *int64 {
	if entry, ok := s.rates.Lookup(ticket.ClientKey); ok {
		if id, ok := byName[clientrates.KeyForName(entry.Name)]; ok {
			return &id
		}
	}
	if id, ok := byName[clientrates.KeyForName(ticket.ClientName)]; ok {
		return &id
	}
	return nil
}

// ticketBelongsTo matches a legacy ticket to a client by name: either the
// rate-table entry for the ticket's client key carries the client's name,
// or the ticket's raw client name matches directly. Comparison is
// case-insensitive.
func (s *BillingService) ticketBelongsTo(ticket *legacy.Ticket, client *domain.Client) bool {
	want := clientrates.KeyForName(client.Name)
	if entry, ok := s.rates.Lookup(ticket.ClientKey); ok {
		if clientrates.KeyForName(entry.Name) == want {
			return true
		}
	}
	return clientrates.KeyForName(ticket.ClientName) == want
}

// legacyBillRate prices legacy labor: the negotiated rate from the client
// rate table when present, otherwise the rate implied by the ticket's own
// invoiced total, otherwise zero.
func (s *BillingService) legacyBillRate(ticket *legacy.Ticket) decimal.Decimal {
	if entry, ok := s.rates.Lookup(ticket.ClientKey); ok {
		return money.Round4(entry.SupportRate)
	}
	if ticket.Minutes > 0 && ticket.InvoicedTotal.GreaterThan(decimal.Zero) {
		hours := money.MinutesToHours(ticket.Minutes)
		if !hours.IsZero() {
			return money.Round2(ticket.InvoicedTotal.Div(hours))
		}
	}
	return decimal.Zero
}

func (s *BillingService) legacyAlreadyInvoiced(ctx context.Context, ticketID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.InvoiceLine{}).
		Where("source_id = ?", -ticketID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// CreateInvoice creates a draft invoice from the selected sources in one
// transaction. Any line whose source is already on an invoice aborts the
// whole request. Billed sources are stamped with the rates, costs and
// prices in force at this moment so later catalog edits cannot change a
// finalized amount. Legacy tickets are marked sent after the transaction
// commits.
func (s *BillingService) CreateInvoice(ctx context.Context, req *domain.InvoiceCreateRequest) (*domain.Invoice, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: invoice needs at least one line", ErrInvalidInput)
	}

	if _, err := s.clients.GetByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: client %d", ErrNotFound, req.ClientID)
		}
		return nil, err
	}

	now := time.Now().UTC()
	invoice := &domain.Invoice{
		ClientID:  req.ClientID,
		Status:    domain.InvoiceDraft,
		Terms:     req.Terms,
		Notes:     req.Notes,
		CreatedBy: req.CreatedBy,
	}

	var sentTickets []int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subtotal := decimal.Zero
		lines := make([]domain.InvoiceLine, 0, len(req.Lines))

		for i := range req.Lines {
			lineReq := &req.Lines[i]
			if !lineReq.SourceType.IsValid() {
				return fmt.Errorf("%w: unknown source type '%s'", ErrInvalidInput, lineReq.SourceType)
			}

			line := domain.InvoiceLine{
				LineType:       lineReq.LineType,
				Description:    lineReq.Description,
				Qty:            money.Round4(lineReq.Qty),
				UnitPrice:      money.Round2(lineReq.UnitPrice),
				SourceType:     lineReq.SourceType,
				SourceID:       lineReq.SourceID,
				SourceSnapshot: lineReq.SourceSnapshot,
			}
			line.LineTotal = money.Round2(line.Qty.Mul(line.UnitPrice))

			if lineReq.SourceID != nil {
				sourceID := *lineReq.SourceID
				if sourceID < 0 {
					ticketID, err := s.stampLegacyLine(ctx, tx, &line, sourceID)
					if err != nil {
						return err
					}
					sentTickets = append(sentTickets, ticketID)
				} else {
					if err := s.stampSourceLine(ctx, tx, &line, lineReq, now, req.CreatedBy); err != nil {
						return err
					}
				}
			}

			subtotal = subtotal.Add(line.LineTotal)
			lines = append(lines, line)
		}

		invoice.Lines = lines
		invoice.Subtotal = money.Round2(subtotal)
		invoice.Tax = money.Round2(money.FromPtr(req.Tax))
		invoice.Total = money.Round2(invoice.Subtotal.Add(invoice.Tax))

		if err := s.invoices.CreateTx(tx, invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The legacy store sits in another database; marking tickets sent
	// happens after commit, and a failure here is logged, not unwound.
	// A still-unsent ticket reappears as unbilled but the invoice line
	// guard stops it from billing twice.
	invoiceNumber := fmt.Sprintf("INV-%d", invoice.ID)
	for _, ticketID := range sentTickets {
		if err := s.tickets.MarkSent(ctx, ticketID, invoiceNumber); err != nil {
			s.logger.Error("Failed to mark legacy ticket sent",
				zap.Int64("ticket_id", ticketID),
				zap.Int64("invoice_id", invoice.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Invoice created",
		zap.Int64("invoice_id", invoice.ID),
		zap.Int64("client_id", invoice.ClientID),
		zap.Int("lines", len(invoice.Lines)),
		zap.String("total", invoice.Total.String()),
	)

	return invoice, nil
}

// stampLegacyLine validates a negative-id line against the legacy store
// and the double-bill guard, and fills its snapshot from the ticket.
// Returns the positive ticket id for post-commit marking.
func (s *BillingService) stampLegacyLine(ctx context.Context, tx *gorm.DB, line *domain.InvoiceLine, sourceID int64) (int64, error) {
	if s.tickets == nil {
		return 0, ErrLegacyUnavailable
	}
	ticketID := -sourceID

	billed, err := s.invoices.SourceInvoicedTx(tx, line.SourceType, sourceID)
	if err != nil {
		return 0, err
	}
	if billed {
		return 0, fmt.Errorf("%w: legacy ticket %d", ErrAlreadyInvoiced, ticketID)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return 0, fmt.Errorf("failed to load legacy ticket %d: %w", ticketID, err)
	}
	if ticket == nil {
		return 0, fmt.Errorf("%w: legacy ticket %d", ErrNotFound, ticketID)
	}

	if line.SourceSnapshot == "" {
		snapshot := map[string]interface{}{
			"legacy":        true,
			"ticketId":      ticket.ID,
			"entryType":     ticket.EntryType,
			"clientKey":     ticket.ClientKey,
			"clientName":    ticket.ClientName,
			"note":          ticket.Note,
			"minutes":       ticket.Minutes,
			"invoicedTotal": ticket.InvoicedTotal.String(),
		}
		if ticket.EntryType == legacy.EntryTypeHardware {
			snapshot["hardwareDescription"] = ticket.HardwareDescription
			snapshot["hardwareSalesPrice"] = ticket.HardwareSalesPrice.String()
			snapshot["hardwareQuantity"] = ticket.HardwareQuantity.String()
		}
		line.SourceSnapshot = marshalSnapshot(snapshot)
	}

	return ticketID, nil
}

// stampSourceLine guards and snapshots a normalized source. Every source
// type passes the double-bill guard. Time entries get their resolved
// rates, approval stamp and write-off frozen; part usages their cost and
// price; flat tasks have no mutable record to stamp.
func (s *BillingService) stampSourceLine(ctx context.Context, tx *gorm.DB, line *domain.InvoiceLine,
	lineReq *domain.InvoiceLineCreate, now time.Time, createdBy string) error {

	sourceID := *line.SourceID

	switch line.SourceType {
	case domain.SourceTimeEntry:
		billed, err := s.invoices.SourceInvoicedTx(tx, line.SourceType, sourceID)
		if err != nil {
			return err
		}
		if billed {
			return fmt.Errorf("%w: time entry %d", ErrAlreadyInvoiced, sourceID)
		}

		var entry domain.TimeEntry
		if err := tx.Preload("LaborRole").First(&entry, sourceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: time entry %d", ErrNotFound, sourceID)
			}
			return err
		}

		rates := ResolveLaborRates(entry.LaborRole, entry.BillRateOverride, entry.CostRateOverride)
		entry.SnapBillRate = money.Ptr(rates.BillRate)
		entry.SnapCostRate = money.Ptr(rates.CostRate)
		entry.WriteOffAmount = money.Round2(money.FromPtr(lineReq.WriteOffAmount))
		entry.ApprovedAt = &now
		entry.ApprovedBy = createdBy
		if err := tx.Save(&entry).Error; err != nil {
			return fmt.Errorf("failed to stamp time entry %d: %w", sourceID, err)
		}

		if line.SourceSnapshot == "" {
			line.SourceSnapshot = marshalSnapshot(map[string]interface{}{
				"timeEntryId": entry.ID,
				"workOrderId": entry.WorkOrderID,
				"minutes":     entry.Minutes,
				"billRate":    rates.BillRate.String(),
				"costRate":    rates.CostRate.String(),
				"writeOff":    entry.WriteOffAmount.String(),
			})
		}

	case domain.SourcePartUsage:
		billed, err := s.invoices.SourceInvoicedTx(tx, line.SourceType, sourceID)
		if err != nil {
			return err
		}
		if billed {
			return fmt.Errorf("%w: part usage %d", ErrAlreadyInvoiced, sourceID)
		}

		var usage domain.PartUsage
		if err := tx.Preload("CatalogItem").First(&usage, sourceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: part usage %d", ErrNotFound, sourceID)
			}
			return err
		}

		price := ResolvePartPrice(usage.CatalogItem, usage.SellPriceOverride)
		cost := decimal.Zero
		if usage.UnitCostResolved != nil {
			cost = *usage.UnitCostResolved
		} else if usage.CatalogItem != nil && usage.CatalogItem.DefaultCost != nil {
			cost = *usage.CatalogItem.DefaultCost
		}
		usage.SnapUnitPrice = money.Ptr(price)
		usage.SnapUnitCost = money.Ptr(money.Round4(cost))
		usage.WriteOffAmount = money.Round2(money.FromPtr(lineReq.WriteOffAmount))
		if err := tx.Save(&usage).Error; err != nil {
			return fmt.Errorf("failed to stamp part usage %d: %w", sourceID, err)
		}

		if line.SourceSnapshot == "" {
			snapshot := map[string]interface{}{
				"partUsageId": usage.ID,
				"workOrderId": usage.WorkOrderID,
				"qty":         usage.Qty.String(),
				"unitPrice":   price.String(),
				"unitCost":    usage.SnapUnitCost.String(),
				"writeOff":    usage.WriteOffAmount.String(),
			}
			if usage.CatalogItem != nil {
				snapshot["sku"] = usage.CatalogItem.SKU
			}
			line.SourceSnapshot = marshalSnapshot(snapshot)
		}

	case domain.SourceFlatTask:
		billed, err := s.invoices.SourceInvoicedTx(tx, line.SourceType, sourceID)
		if err != nil {
			return err
		}
		if billed {
			return fmt.Errorf("%w: flat task %d", ErrAlreadyInvoiced, sourceID)
		}

		var task domain.FlatTask
		if err := tx.First(&task, sourceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: flat task %d", ErrNotFound, sourceID)
			}
			return err
		}
		if line.SourceSnapshot == "" {
			line.SourceSnapshot = marshalSnapshot(map[string]interface{}{
				"flatTaskId":    task.ID,
				"catalogItemId": task.CatalogItemID,
			})
		}
	}

	return nil
}

func marshalSnapshot(v map[string]interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

// GetInvoice retrieves an invoice with its lines
func (s *BillingService) GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %d", ErrNotFound, id)
		}
		return nil, err
	}
	return invoice, nil
}

// ListInvoices returns all invoices for a client
func (s *BillingService) ListInvoices(ctx context.Context, clientID int64) ([]domain.Invoice, error) {
	return s.invoices.ListForClient(ctx, clientID)
}

// FinalizeInvoice advances an invoice's status. Only forward moves are
// allowed: draft to sent, draft to paid, sent to paid. There is no way
// back from sent or paid.
func (s *BillingService) FinalizeInvoice(ctx context.Context, id int64, target domain.InvoiceStatus) (*domain.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	if !invoice.Status.CanAdvanceTo(target) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, invoice.Status, target)
	}

	if err := s.invoices.UpdateStatus(ctx, id, target); err != nil {
		return nil, err
	}

	s.logger.Info("Invoice finalized",
		zap.Int64("invoice_id", id),
		zap.String("from", string(invoice.Status)),
		zap.String("to", string(target)),
	)

	invoice.Status = target
	return invoice, nil
}

// NormalizeInvoiceStatus parses a requested status string
func NormalizeInvoiceStatus(raw string) (domain.InvoiceStatus, error) {
	switch domain.InvoiceStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.InvoiceDraft:
		return domain.InvoiceDraft, nil
	case domain.InvoiceSent:
		return domain.InvoiceSent, nil
	case domain.InvoicePaid:
		return domain.InvoicePaid, nil
	default:
		return "", fmt.Errorf("%w: unknown status '%s'", ErrInvalidInput, raw)
	}
}
