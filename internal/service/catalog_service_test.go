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

func newCatalogService(t *testing.T) (*CatalogService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewCatalogService(repository.NewCatalogRepository(db), repository.NewLedgerRepository(db), testLogger())
	return svc, db
}

func TestResolveCodeMatchesSKU(t *testing.T) {
	svc, db := newCatalogService(t)
	item := seedCatalogItem(t, db, "CBL-50", "Cat6 cable 50ft", decPtr("29.99"), decPtr("11.00"))

	res, err := svc.ResolveCode(context.Background(), "CBL-50", "")
	require.NoError(t, err)
	assert.Equal(t, "sku", res.MatchedBy)
	assert.False(t, res.Provisioned)
	assert.Equal(t, item.ID, res.Item.ID)
}

func TestResolveCodeMatchesAlias(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()
	item := seedCatalogItem(t, db, "CBL-50", "Cat6 cable 50ft", nil, nil)

	_, err := svc.CreateAlias(ctx, item.ID, &domain.AliasCreateRequest{Alias: "012345678905"})
	require.NoError(t, err)

	res, err := svc.ResolveCode(ctx, "012345678905", "")
	require.NoError(t, err)
	assert.Equal(t, "alias", res.MatchedBy)
	assert.Equal(t, item.ID, res.Item.ID)
}

func TestResolveCodeProvisionsPlaceholder(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	res, err := svc.ResolveCode(ctx, "829735001234", "scanner-3")
	require.NoError(t, err)
	assert.Equal(t, "provisioned", res.MatchedBy)
	assert.True(t, res.Provisioned)
	assert.Equal(t, "829735001234", res.Item.SKU)
	assert.Equal(t, "829735001234", res.Item.Name)
	assert.Nil(t, res.Item.DefaultSellPrice)

	var alias domain.SkuAlias
	require.NoError(t, db.Where("alias = ?", "829735001234").First(&alias).Error)
	assert.Equal(t, res.Item.ID, alias.CatalogItemID)
	assert.Equal(t, "scanner-3", alias.CreatedBy)

	// Second scan of the same code lands on the row created above
	again, err := svc.ResolveCode(ctx, "829735001234", "scanner-4")
	require.NoError(t, err)
	assert.Equal(t, "sku", again.MatchedBy)
	assert.Equal(t, res.Item.ID, again.Item.ID)
}

func TestResolveCodeRejectsEmpty(t *testing.T) {
	svc, _ := newCatalogService(t)
	_, err := svc.ResolveCode(context.Background(), "   ", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateItemDuplicateSKU(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()
	seedCatalogItem(t, db, "CBL-50", "Cat6 cable 50ft", nil, nil)

	_, err := svc.CreateItem(ctx, &domain.CatalogItemCreateRequest{SKU: "CBL-50", Name: "Duplicate"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateItemRoundsPrices(t *testing.T) {
	svc, _ := newCatalogService(t)

	item, err := svc.CreateItem(context.Background(), &domain.CatalogItemCreateRequest{
		SKU:              "FAN-80",
		Name:             "80mm case fan",
		DefaultSellPrice: decPtr("12.995"),
		DefaultCost:      decPtr("4.004"),
	})
	require.NoError(t, err)
	assert.True(t, item.DefaultSellPrice.Equal(dec("13.00")))
	assert.True(t, item.DefaultCost.Equal(dec("4.00")))
	assert.Equal(t, domain.UnitEach, item.Unit)
}

func TestUpdateItemFreezesSKUAfterMovement(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()
	warehouse := seedWarehouse(t, db, "Main")
	item := seedCatalogItem(t, db, "FAN-80", "80mm case fan", nil, nil)

	newSKU := "FAN-80B"
	updated, err := svc.UpdateItem(ctx, item.ID, &domain.CatalogItemUpdateRequest{SKU: &newSKU})
	require.NoError(t, err)
	assert.Equal(t, "FAN-80B", updated.SKU)

	entry := &domain.StockLedger{
		CatalogItemID:  item.ID,
		WarehouseID:    warehouse.ID,
		QtyDelta:       dec("5"),
		UnitCostAtMove: dec("1.00"),
		Reason:         domain.ReasonReceipt,
		ReferenceType:  domain.RefInit,
		MovedAt:        time.Now().UTC(),
	}
	require.NoError(t, db.Create(entry).Error)

	backSKU := "FAN-80"
	_, err = svc.UpdateItem(ctx, item.ID, &domain.CatalogItemUpdateRequest{SKU: &backSKU})
	assert.ErrorIs(t, err, ErrSKUFrozen)

	// Everything else stays editable
	name := "80mm case fan, black"
	updated, err = svc.UpdateItem(ctx, item.ID, &domain.CatalogItemUpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
}

func TestCreateAliasIdempotentAndConflicting(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()
	first := seedCatalogItem(t, db, "CBL-50", "Cat6 cable 50ft", nil, nil)
	second := seedCatalogItem(t, db, "CBL-100", "Cat6 cable 100ft", nil, nil)

	alias, err := svc.CreateAlias(ctx, first.ID, &domain.AliasCreateRequest{Alias: "012345678905"})
	require.NoError(t, err)
	assert.Equal(t, domain.AliasKindUPC, alias.Kind)

	again, err := svc.CreateAlias(ctx, first.ID, &domain.AliasCreateRequest{Alias: "012345678905"})
	require.NoError(t, err)
	assert.Equal(t, alias.ID, again.ID)

	_, err = svc.CreateAlias(ctx, second.ID, &domain.AliasCreateRequest{Alias: "012345678905"})
	assert.ErrorIs(t, err, ErrAliasConflict)
}

func TestDeleteAlias(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()
	item := seedCatalogItem(t, db, "CBL-50", "Cat6 cable 50ft", nil, nil)

	_, err := svc.CreateAlias(ctx, item.ID, &domain.AliasCreateRequest{Alias: "012345678905"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAlias(ctx, item.ID, "012345678905"))
	assert.ErrorIs(t, svc.DeleteAlias(ctx, item.ID, "012345678905"), ErrNotFound)
}

func TestListFlatTasksSkipsInactiveItems(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	active := &domain.CatalogItem{SKU: "SVC-TUNEUP", Name: "PC tune-up", Unit: domain.UnitFlat, DefaultSellPrice: decPtr("89.00"), IsActive: true}
	require.NoError(t, db.Create(active).Error)
	retired := &domain.CatalogItem{SKU: "SVC-OLD", Name: "Retired service", Unit: domain.UnitFlat, DefaultSellPrice: decPtr("50.00"), IsActive: false}
	require.NoError(t, db.Create(retired).Error)

	require.NoError(t, db.Create(&domain.FlatTask{CatalogItemID: active.ID}).Error)
	require.NoError(t, db.Create(&domain.FlatTask{CatalogItemID: retired.ID}).Error)

	tasks, err := svc.ListFlatTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, active.ID, tasks[0].CatalogItemID)
}
