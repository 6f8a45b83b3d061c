package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/clientrates"
	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/money"
	"github.com/harborview-tech/fieldops-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WorkService runs the field side of a job: work orders, labor timers and
// part consumption. The quick flows serve handheld scanners, where the
// operator identifies a client and a barcode and everything else is
// resolved server-side.
type WorkService struct {
	db          *gorm.DB
	workOrders  *repository.WorkOrderRepository
	timeEntries *repository.TimeEntryRepository
	partUsages  *repository.PartUsageRepository
	laborRoles  *repository.LaborRoleRepository
	clients     *repository.ClientRepository
	stock       *StockService
	catalog     *CatalogService
	rates       *clientrates.Table
	logger      *zap.Logger
}

// NewWorkService creates a new WorkService
func NewWorkService(
	db *gorm.DB,
	workOrders *repository.WorkOrderRepository,
	timeEntries *repository.TimeEntryRepository,
	partUsages *repository.PartUsageRepository,
	laborRoles *repository.LaborRoleRepository,
	clients *repository.ClientRepository,
	stock *StockService,
	catalog *CatalogService,
	rates *clientrates.Table,
	logger *zap.Logger,
) *WorkService {
	if rates == nil {
		rates = clientrates.Empty()
	}
	return &WorkService{
		db:          db,
		workOrders:  workOrders,
		timeEntries: timeEntries,
		partUsages:  partUsages,
		laborRoles:  laborRoles,
		clients:     clients,
		stock:       stock,
		catalog:     catalog,
		rates:       rates,
		logger:      logger,
	}
}

// CreateWorkOrder opens a new work order for a client
func (s *WorkService) CreateWorkOrder(ctx context.Context, req *domain.WorkOrderCreateRequest) (*domain.WorkOrder, error) {
	if _, err := s.clients.GetByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: client %d", ErrNotFound, req.ClientID)
		}
		return nil, err
	}

	if req.ProjectID != nil {
		project, err := s.clients.GetProject(ctx, *req.ProjectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: project %d", ErrNotFound, *req.ProjectID)
			}
			return nil, err
		}
		if project.ClientID != req.ClientID {
			return nil, fmt.Errorf("%w: project %d belongs to another client", ErrInvalidInput, *req.ProjectID)
		}
	}

	order := &domain.WorkOrder{
		ClientID:     req.ClientID,
		ProjectID:    req.ProjectID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Status:       domain.WorkOrderOpen,
		BillingState: domain.BillingOpen,
		OpenedAt:     time.Now().UTC(),
	}
	if err := s.workOrders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create work order: %w", err)
	}

	s.logger.Info("Work order created",
		zap.Int64("work_order_id", order.ID),
		zap.Int64("client_id", order.ClientID),
	)
	return order, nil
}

// GetWorkOrder retrieves a work order by id
func (s *WorkService) GetWorkOrder(ctx context.Context, id int64) (*domain.WorkOrder, error) {
	order, err := s.workOrders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: work order %d", ErrNotFound, id)
		}
		return nil, err
	}
	return order, nil
}

// ListWorkOrders returns all work orders for a client
func (s *WorkService) ListWorkOrders(ctx context.Context, clientID int64) ([]domain.WorkOrder, error) {
	return s.workOrders.ListForClient(ctx, clientID)
}

// CloseWorkOrder moves a work order to closed or cancelled. A running
// timer blocks closing.
func (s *WorkService) CloseWorkOrder(ctx context.Context, id int64, cancelled bool) (*domain.WorkOrder, error) {
	order, err := s.GetWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.WorkOrderClosed || order.Status == domain.WorkOrderCancelled {
		return nil, fmt.Errorf("%w: work order %d already %s", ErrInvalidStatusTransition, id, order.Status)
	}

	running, err := s.timeEntries.FindRunning(ctx, id, "")
	if err != nil {
		return nil, err
	}
	if running != nil {
		return nil, fmt.Errorf("%w: stop the running timer before closing", ErrConflict)
	}

	now := time.Now().UTC()
	order.Status = domain.WorkOrderClosed
	if cancelled {
		order.Status = domain.WorkOrderCancelled
	}
	order.ClosedAt = &now
	if err := s.workOrders.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// AdvanceBillingState moves a work order's billing state forward
func (s *WorkService) AdvanceBillingState(ctx context.Context, id int64, target domain.WorkOrderBillingState) (*domain.WorkOrder, error) {
	order, err := s.GetWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.BillingState.CanAdvanceTo(target) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, order.BillingState, target)
	}
	order.BillingState = target
	if err := s.workOrders.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// StartTime opens a labor session on a work order. A worker can only run
// one timer per order at a time.
func (s *WorkService) StartTime(ctx context.Context, workOrderID int64, req *domain.TimeStartRequest) (*domain.TimeEntry, error) {
	order, err := s.GetWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.WorkOrderClosed || order.Status == domain.WorkOrderCancelled {
		return nil, fmt.Errorf("%w: work order %d is %s", ErrConflict, workOrderID, order.Status)
	}

	role, err := s.resolveLaborRole(ctx, req.LaborRole)
	if err != nil {
		return nil, err
	}

	running, err := s.timeEntries.FindRunning(ctx, workOrderID, req.UserID)
	if err != nil {
		return nil, err
	}
	if running != nil {
		return nil, fmt.Errorf("%w: entry %d started at %s", ErrTimerAlreadyRunning, running.ID, running.StartedAt.Format(time.RFC3339))
	}

	now := time.Now().UTC()
	entry := &domain.TimeEntry{
		WorkOrderID: workOrderID,
		LaborRoleID: role.ID,
		UserID:      req.UserID,
		StartedAt:   &now,
		Billable:    true,
		Notes:       req.Notes,
		CreatedBy:   req.UserID,
	}
	if err := s.timeEntries.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to start time entry: %w", err)
	}

	if order.Status == domain.WorkOrderOpen {
		order.Status = domain.WorkOrderInProgress
		if err := s.workOrders.Update(ctx, order); err != nil {
			s.logger.Warn("Failed to mark work order in progress", zap.Int64("work_order_id", workOrderID), zap.Error(err))
		}
	}

	entry.LaborRole = role
	return entry, nil
}

// StopTime closes the running session on a work order and computes its
// duration. Anything under a minute bills as one minute.
func (s *WorkService) StopTime(ctx context.Context, workOrderID int64, req *domain.TimeStopRequest) (*domain.TimeEntry, error) {
	if _, err := s.GetWorkOrder(ctx, workOrderID); err != nil {
		return nil, err
	}

	entry, err := s.timeEntries.FindRunning(ctx, workOrderID, req.UserID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: work order %d", ErrNoRunningTimer, workOrderID)
	}

	now := time.Now().UTC()
	entry.EndedAt = &now
	minutes := 1
	if entry.StartedAt != nil {
		elapsed := now.Sub(*entry.StartedAt).Minutes()
		minutes = int(math.Round(elapsed))
		if minutes < 1 {
			minutes = 1
		}
	}
	entry.Minutes = minutes
	if req.Notes != "" {
		if entry.Notes != "" {
			entry.Notes = entry.Notes + "\n" + req.Notes
		} else {
			entry.Notes = req.Notes
		}
	}

	if err := s.timeEntries.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to stop time entry: %w", err)
	}

	s.logger.Info("Time entry stopped",
		zap.Int64("time_entry_id", entry.ID),
		zap.Int64("work_order_id", workOrderID),
		zap.Int("minutes", entry.Minutes),
	)
	return entry, nil
}

// IssuePart consumes a part against a work order: the code resolves (or
// provisions) a catalog item, stock leaves the warehouse oldest lot first,
// and the usage records the issue's average unit cost.
func (s *WorkService) IssuePart(ctx context.Context, workOrderID int64, req *domain.PartIssueRequest) (*domain.PartUsage, error) {
	order, err := s.GetWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.WorkOrderClosed || order.Status == domain.WorkOrderCancelled {
		return nil, fmt.Errorf("%w: work order %d is %s", ErrConflict, workOrderID, order.Status)
	}

	qty := money.Round4(req.Qty)
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: issue quantity must be positive", ErrInvalidQuantity)
	}

	resolution, err := s.catalog.ResolveCode(ctx, req.Code, req.CreatedBy)
	if err != nil {
		return nil, err
	}
	warehouse, err := s.stock.ResolveWarehouse(ctx, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	scanned := true
	if req.BarcodeScanned != nil {
		scanned = *req.BarcodeScanned
	}

	usage := &domain.PartUsage{
		WorkOrderID:       workOrderID,
		CatalogItemID:     resolution.Item.ID,
		WarehouseID:       warehouse.ID,
		Qty:               qty,
		SellPriceOverride: req.SellPriceOverride,
		BarcodeScanned:    scanned,
		Notes:             req.Notes,
		CreatedBy:         req.CreatedBy,
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.partUsages.CreateTx(tx, usage); err != nil {
			return fmt.Errorf("failed to create part usage: %w", err)
		}
		result, err := s.stock.IssueTx(tx, resolution.Item.ID, warehouse.ID, qty,
			domain.RefWorkEntry, fmt.Sprintf("part_usage:%d", usage.ID), req.CreatedBy, now)
		if err != nil {
			return err
		}
		usage.UnitCostResolved = money.Ptr(result.AverageCost())
		return tx.Model(usage).Update("unit_cost_resolved", usage.UnitCostResolved).Error
	})
	if err != nil {
		return nil, err
	}

	usage.CatalogItem = resolution.Item
	s.logger.Info("Part issued",
		zap.Int64("work_order_id", workOrderID),
		zap.String("sku", resolution.Item.SKU),
		zap.String("qty", qty.String()),
		zap.Bool("provisioned", resolution.Provisioned),
	)
	return usage, nil
}

// QuickIssue is the scanner flow: resolve the client, find or create its
// active work order, then issue the part against it.
func (s *WorkService) QuickIssue(ctx context.Context, req *domain.QuickIssueRequest) (*domain.PartUsage, error) {
	client, err := s.resolveClient(ctx, req.ClientID, req.ClientName)
	if err != nil {
		return nil, err
	}
	order, err := s.FindOrCreateActiveOrder(ctx, client.ID)
	if err != nil {
		return nil, err
	}
	return s.IssuePart(ctx, order.ID, &domain.PartIssueRequest{
		Code:              req.Code,
		Qty:               req.Qty,
		WarehouseID:       req.WarehouseID,
		SellPriceOverride: req.SellPriceOverride,
		Notes:             req.Notes,
		CreatedBy:         req.CreatedBy,
	})
}

// QuickStartTime starts labor against a client's active work order,
// creating one when none is open.
func (s *WorkService) QuickStartTime(ctx context.Context, req *domain.QuickTimeStartRequest) (*domain.TimeEntry, error) {
	client, err := s.resolveClient(ctx, req.ClientID, req.ClientName)
	if err != nil {
		return nil, err
	}
	order, err := s.FindOrCreateActiveOrder(ctx, client.ID)
	if err != nil {
		return nil, err
	}
	return s.StartTime(ctx, order.ID, &domain.TimeStartRequest{
		LaborRole: req.LaborRole,
		UserID:    req.UserID,
		Notes:     req.Notes,
	})
}

// FindOrCreateActiveOrder returns the client's most recent open or
// in-progress work order, opening a fresh one when none exists.
func (s *WorkService) FindOrCreateActiveOrder(ctx context.Context, clientID int64) (*domain.WorkOrder, error) {
	order, err := s.workOrders.FindActiveForClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if order != nil {
		return order, nil
	}

	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.CreateWorkOrder(ctx, &domain.WorkOrderCreateRequest{
		ClientID: clientID,
		Title:    fmt.Sprintf("Service work for %s", client.Name),
	})
}

// resolveClient finds the client by id when given, otherwise by name: a
// client-rate table key maps to its display name first, then the raw name
// is matched case-insensitively, and an unknown name creates the client.
func (s *WorkService) resolveClient(ctx context.Context, id *int64, name string) (*domain.Client, error) {
	if id != nil {
		client, err := s.clients.GetByID(ctx, *id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: client %d", ErrNotFound, *id)
			}
			return nil, err
		}
		return client, nil
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: client id or name required", ErrInvalidInput)
	}
	if entry, ok := s.rates.Lookup(name); ok && entry.Name != "" {
		name = entry.Name
	}

	client, err := s.clients.GetByName(ctx, name)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	client = &domain.Client{Name: name}
	if err := s.clients.Create(ctx, client); err != nil {
		// Lost a create race; the row is there now
		existing, lookupErr := s.clients.GetByName(ctx, name)
		if lookupErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create client '%s': %w", name, err)
	}

	s.logger.Info("Client auto-created from quick flow", zap.Int64("client_id", client.ID), zap.String("name", name))
	return client, nil
}

// resolveLaborRole matches by name, case-insensitive
func (s *WorkService) resolveLaborRole(ctx context.Context, name string) (*domain.LaborRole, error) {
	role, err := s.laborRoles.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: labor role '%s'", ErrNotFound, name)
		}
		return nil, err
	}
	return role, nil
}

// TimeEntriesForOrder lists all labor on a work order
func (s *WorkService) TimeEntriesForOrder(ctx context.Context, workOrderID int64) ([]domain.TimeEntry, error) {
	return s.timeEntries.ListForWorkOrder(ctx, workOrderID)
}

// PartUsagesForOrder lists all parts consumed on a work order
func (s *WorkService) PartUsagesForOrder(ctx context.Context, workOrderID int64) ([]domain.PartUsage, error) {
	return s.partUsages.ListForWorkOrder(ctx, workOrderID)
}
