package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/money"
	"github.com/harborview-tech/fieldops-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogService manages catalog items, scan-code aliases and flat-fee
// tasks. Code resolution is the entry point for every barcode flow.
type CatalogService struct {
	catalog *repository.CatalogRepository
	ledger  *repository.LedgerRepository
	logger  *zap.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(catalog *repository.CatalogRepository, ledger *repository.LedgerRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, ledger: ledger, logger: logger}
}

// ResolveCode resolves a scanned code to a catalog item. Resolution order:
// exact SKU match, then alias match, then auto-provision a placeholder
// item whose SKU is the scanned code so receiving never blocks at the
// dock. Auto-provisioned items carry no sell price and are flagged in the
// result so the office can price them later.
func (s *CatalogService) ResolveCode(ctx context.Context, code, createdBy string) (*domain.CodeResolution, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: empty code", ErrInvalidInput)
	}

	item, err := s.catalog.GetBySKU(ctx, code)
	if err == nil {
		return &domain.CodeResolution{Item: item, MatchedBy: "sku"}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	item, err = s.catalog.GetByAlias(ctx, code)
	if err == nil {
		return &domain.CodeResolution{Item: item, MatchedBy: "alias"}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return s.provisionPlaceholder(ctx, code, createdBy)
}

// provisionPlaceholder creates a placeholder item for an unknown code,
// with an alias binding the code so identity is established on first
// scan. Two scanners racing on the same code both land on the one row:
// the unique constraint rejects the loser, which then re-resolves.
func (s *CatalogService) provisionPlaceholder(ctx context.Context, code, createdBy string) (*domain.CodeResolution, error) {
	item := &domain.CatalogItem{
		SKU:      code,
		Name:     code,
		Unit:     domain.UnitEach,
		IsActive: true,
	}
	alias := &domain.SkuAlias{
		Alias:     code,
		Kind:      domain.AliasKindUPC,
		CreatedBy: createdBy,
	}

	if err := s.catalog.CreateWithAlias(ctx, item, alias); err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.catalog.GetBySKU(ctx, code)
			if lookupErr == nil {
				return &domain.CodeResolution{Item: existing, MatchedBy: "sku"}, nil
			}
			existing, lookupErr = s.catalog.GetByAlias(ctx, code)
			if lookupErr == nil {
				return &domain.CodeResolution{Item: existing, MatchedBy: "alias"}, nil
			}
			return nil, lookupErr
		}
		return nil, fmt.Errorf("failed to provision item for code '%s': %w", code, err)
	}

	s.logger.Info("Auto-provisioned catalog item for unknown code",
		zap.String("code", code),
		zap.Int64("catalog_item_id", item.ID),
		zap.String("created_by", createdBy),
	)

	return &domain.CodeResolution{Item: item, MatchedBy: "provisioned", Provisioned: true}, nil
}

// CreateItem creates a catalog item from a request
func (s *CatalogService) CreateItem(ctx context.Context, req *domain.CatalogItemCreateRequest) (*domain.CatalogItem, error) {
	unit := req.Unit
	if unit == "" {
		unit = domain.UnitEach
	}
	if !unit.IsValid() {
		return nil, fmt.Errorf("%w: unknown unit '%s'", ErrInvalidInput, unit)
	}

	item := &domain.CatalogItem{
		SKU:         strings.TrimSpace(req.SKU),
		Name:        req.Name,
		Description: req.Description,
		Unit:        unit,
		TaxCategory: req.TaxCategory,
		IsActive:    true,
	}
	if req.DefaultSellPrice != nil {
		item.DefaultSellPrice = money.Ptr(money.Round2(*req.DefaultSellPrice))
	}
	if req.DefaultCost != nil {
		item.DefaultCost = money.Ptr(money.Round2(*req.DefaultCost))
	}

	if err := s.catalog.Create(ctx, item); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: sku '%s' already exists", ErrConflict, item.SKU)
		}
		return nil, err
	}
	return item, nil
}

// GetItem retrieves a catalog item by id
func (s *CatalogService) GetItem(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	item, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: catalog item %d", ErrNotFound, id)
		}
		return nil, err
	}
	return item, nil
}

// ListItems returns catalog items
func (s *CatalogService) ListItems(ctx context.Context, activeOnly bool) ([]domain.CatalogItem, error) {
	return s.catalog.List(ctx, activeOnly)
}

// UpdateItem applies a partial update. The SKU is frozen once the item has
// any stock movement history; everything else stays editable.
func (s *CatalogService) UpdateItem(ctx context.Context, id int64, req *domain.CatalogItemUpdateRequest) (*domain.CatalogItem, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SKU != nil && strings.TrimSpace(*req.SKU) != item.SKU {
		moved, err := s.ledger.ExistsForItem(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		if moved {
			return nil, ErrSKUFrozen
		}
		item.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Unit != nil {
		if !req.Unit.IsValid() {
			return nil, fmt.Errorf("%w: unknown unit '%s'", ErrInvalidInput, *req.Unit)
		}
		item.Unit = *req.Unit
	}
	if req.DefaultSellPrice != nil {
		item.DefaultSellPrice = money.Ptr(money.Round2(*req.DefaultSellPrice))
	}
	if req.DefaultCost != nil {
		item.DefaultCost = money.Ptr(money.Round2(*req.DefaultCost))
	}
	if req.TaxCategory != nil {
		item.TaxCategory = *req.TaxCategory
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := s.catalog.Update(ctx, item); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: sku '%s' already exists", ErrConflict, item.SKU)
		}
		return nil, err
	}
	return item, nil
}

// CreateAlias attaches a scan code to a catalog item. A code already
// mapped to a different item is a conflict; re-adding the same mapping is
// idempotent.
func (s *CatalogService) CreateAlias(ctx context.Context, catalogItemID int64, req *domain.AliasCreateRequest) (*domain.SkuAlias, error) {
	if _, err := s.GetItem(ctx, catalogItemID); err != nil {
		return nil, err
	}

	alias := strings.TrimSpace(req.Alias)
	if alias == "" {
		return nil, fmt.Errorf("%w: empty alias", ErrInvalidInput)
	}

	kind := req.Kind
	if kind == "" {
		kind = domain.AliasKindUPC
	}

	existing, err := s.catalog.GetAlias(ctx, alias)
	if err == nil {
		if existing.CatalogItemID == catalogItemID {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: '%s' maps to item %d", ErrAliasConflict, alias, existing.CatalogItemID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rec := &domain.SkuAlias{
		CatalogItemID: catalogItemID,
		Alias:         alias,
		Kind:          kind,
		CreatedBy:     req.CreatedBy,
	}
	if err := s.catalog.CreateAlias(ctx, rec); err != nil {
		if isUniqueViolation(err) {
			// Lost a race with another writer on the same code
			return nil, fmt.Errorf("%w: '%s'", ErrAliasConflict, alias)
		}
		return nil, err
	}
	return rec, nil
}

// ListAliases returns all scan codes attached to an item
func (s *CatalogService) ListAliases(ctx context.Context, catalogItemID int64) ([]domain.SkuAlias, error) {
	if _, err := s.GetItem(ctx, catalogItemID); err != nil {
		return nil, err
	}
	return s.catalog.ListAliases(ctx, catalogItemID)
}

// DeleteAlias removes one scan code from an item
func (s *CatalogService) DeleteAlias(ctx context.Context, catalogItemID int64, alias string) error {
	err := s.catalog.DeleteAlias(ctx, catalogItemID, strings.TrimSpace(alias))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: alias '%s' on item %d", ErrNotFound, alias, catalogItemID)
	}
	return err
}

// ListFlatTasks returns flat-fee tasks backed by active items
func (s *CatalogService) ListFlatTasks(ctx context.Context) ([]domain.FlatTask, error) {
	return s.catalog.ListActiveFlatTasks(ctx)
}

// GetFlatTask retrieves one flat-fee task
func (s *CatalogService) GetFlatTask(ctx context.Context, id int64) (*domain.FlatTask, error) {
	task, err := s.catalog.GetFlatTask(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: flat task %d", ErrNotFound, id)
		}
		return nil, err
	}
	return task, nil
}

// isUniqueViolation detects unique constraint failures across postgres
// and the sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
