package repository

import (
	"context"
	"fmt"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"gorm.io/gorm"
)

// CatalogRepository handles database operations for catalog items, their
// scan-code aliases and flat-fee task metadata.
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Create inserts a new catalog item
func (r *CatalogRepository) Create(ctx context.Context, item *domain.CatalogItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// CreateWithAlias inserts a catalog item together with an alias bound to
// it, in one transaction so a racing scanner never sees the item without
// its alias.
func (r *CatalogRepository) CreateWithAlias(ctx context.Context, item *domain.CatalogItem, alias *domain.SkuAlias) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		alias.CatalogItemID = item.ID
		return tx.Create(alias).Error
	})
}

// GetByID retrieves a catalog item by id
func (r *CatalogRepository) GetByID(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetBySKU retrieves a catalog item by its exact SKU
func (r *CatalogRepository) GetBySKU(ctx context.Context, sku string) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByAlias retrieves the catalog item an alias points at
func (r *CatalogRepository) GetByAlias(ctx context.Context, alias string) (*domain.CatalogItem, error) {
	var rec domain.SkuAlias
	err := r.db.WithContext(ctx).Where("alias = ?", alias).First(&rec).Error
	if err != nil {
		return nil, err
	}

	var item domain.CatalogItem
	if err := r.db.WithContext(ctx).First(&item, rec.CatalogItemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns catalog items, optionally filtered to active only
func (r *CatalogRepository) List(ctx context.Context, activeOnly bool) ([]domain.CatalogItem, error) {
	var items []domain.CatalogItem
	q := r.db.WithContext(ctx).Order("sku ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&items).Error
	return items, err
}

// Update persists changes to a catalog item
func (r *CatalogRepository) Update(ctx context.Context, item *domain.CatalogItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// CreateAlias inserts a new scan-code alias. The unique index on the alias
// column rejects a code already mapped elsewhere.
func (r *CatalogRepository) CreateAlias(ctx context.Context, alias *domain.SkuAlias) error {
	return r.db.WithContext(ctx).Create(alias).Error
}

// GetAlias retrieves an alias record by code
func (r *CatalogRepository) GetAlias(ctx context.Context, alias string) (*domain.SkuAlias, error) {
	var rec domain.SkuAlias
	err := r.db.WithContext(ctx).Where("alias = ?", alias).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListAliases returns all aliases for a catalog item
func (r *CatalogRepository) ListAliases(ctx context.Context, catalogItemID int64) ([]domain.SkuAlias, error) {
	var aliases []domain.SkuAlias
	err := r.db.WithContext(ctx).
		Where("catalog_item_id = ?", catalogItemID).
		Order("alias ASC").
		Find(&aliases).Error
	return aliases, err
}

// DeleteAlias removes one alias from a catalog item
func (r *CatalogRepository) DeleteAlias(ctx context.Context, catalogItemID int64, alias string) error {
	result := r.db.WithContext(ctx).
		Where("catalog_item_id = ? AND alias = ?", catalogItemID, alias).
		Delete(&domain.SkuAlias{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListActiveFlatTasks returns flat-fee tasks whose backing item is active
func (r *CatalogRepository) ListActiveFlatTasks(ctx context.Context) ([]domain.FlatTask, error) {
	var tasks []domain.FlatTask
	err := r.db.WithContext(ctx).
		Joins("JOIN catalog_items ON catalog_items.id = flat_tasks.catalog_item_id").
		Where("catalog_items.is_active = ? AND catalog_items.unit = ?", true, domain.UnitFlat).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list flat tasks: %w", err)
	}
	return tasks, nil
}

// GetFlatTask retrieves one flat-fee task by id
func (r *CatalogRepository) GetFlatTask(ctx context.Context, id int64) (*domain.FlatTask, error) {
	var task domain.FlatTask
	err := r.db.WithContext(ctx).First(&task, id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateFlatTask inserts flat-fee metadata for a catalog item
func (r *CatalogRepository) CreateFlatTask(ctx context.Context, task *domain.FlatTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}
