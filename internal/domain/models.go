package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Base model with common fields. Primary keys are plain auto-increment
// integers; the legacy billing merge reserves the negative id space, so
// normalized records always carry positive ids.
type BaseModel struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// UnitOfMeasure is the selling/stocking unit of a catalog item
type UnitOfMeasure string

const (
	UnitEach UnitOfMeasure = "ea"
	UnitHour UnitOfMeasure = "hour"
	UnitFoot UnitOfMeasure = "ft"
	UnitFlat UnitOfMeasure = "flat"
)

// IsValid checks if the UnitOfMeasure is a valid enum value
func (u UnitOfMeasure) IsValid() bool {
	switch u {
	case UnitEach, UnitHour, UnitFoot, UnitFlat:
		return true
	}
	return false
}

// AliasKind classifies where a scanned code came from
type AliasKind string

const (
	AliasKindUPC       AliasKind = "UPC"
	AliasKindEAN       AliasKind = "EAN"
	AliasKindMPN       AliasKind = "MPN"
	AliasKindVendorSKU AliasKind = "VendorSKU"
)

// CatalogItem represents a sellable or stockable thing
type CatalogItem struct {
	BaseModel
	SKU              string           `gorm:"type:varchar(64);not null;uniqueIndex:uq_catalog_items_sku" json:"sku"`
	Name             string           `gorm:"type:varchar(255);not null" json:"name"`
	Description      string           `gorm:"type:text" json:"description,omitempty"`
	Unit             UnitOfMeasure    `gorm:"type:varchar(16);not null;default:'ea'" json:"unit"`
	DefaultSellPrice *decimal.Decimal `gorm:"type:decimal(12,2);column:default_sell_price" json:"defaultSellPrice,omitempty"`
	DefaultCost      *decimal.Decimal `gorm:"type:decimal(12,2);column:default_cost" json:"defaultCost,omitempty"`
	TaxCategory      string           `gorm:"type:varchar(64);column:tax_category" json:"taxCategory,omitempty"`
	IsActive         bool             `gorm:"not null;column:is_active" json:"isActive"`
	Aliases          []SkuAlias       `gorm:"foreignKey:CatalogItemID;constraint:OnDelete:CASCADE" json:"-"`
	FlatTasks        []FlatTask       `gorm:"foreignKey:CatalogItemID;constraint:OnDelete:CASCADE" json:"-"`
	Lots             []InventoryLot   `gorm:"foreignKey:CatalogItemID;constraint:OnDelete:CASCADE" json:"-"`
}

// SkuAlias maps one scanned code (UPC/EAN/MPN/vendor code) to exactly one
// catalog item. The alias string is globally unique.
type SkuAlias struct {
	ID            int64        `gorm:"primaryKey" json:"id"`
	CatalogItemID int64        `gorm:"not null;index;column:catalog_item_id" json:"catalogItemId"`
	CatalogItem   *CatalogItem `gorm:"foreignKey:CatalogItemID" json:"-"`
	Alias         string       `gorm:"type:varchar(128);not null;uniqueIndex:uq_sku_aliases_alias" json:"alias"`
	Kind          AliasKind    `gorm:"type:varchar(32);not null;default:'UPC'" json:"kind"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	CreatedBy     string       `gorm:"type:varchar(64);column:created_by" json:"createdBy,omitempty"`
}

// FlatTask carries metadata for a flat-fee service offering backed by a
// unit=flat catalog item.
type FlatTask struct {
	BaseModel
	CatalogItemID     int64  `gorm:"not null;index;column:catalog_item_id" json:"catalogItemId"`
	DefaultMinutes    *int   `gorm:"column:default_minutes" json:"defaultMinutes,omitempty"`
	IncludedPartsJSON string `gorm:"type:text;column:included_parts_json" json:"includedPartsJson,omitempty"`
}

// LaborRole is a named role with default bill and cost rates
type LaborRole struct {
	BaseModel
	Name     string           `gorm:"type:varchar(128);not null;uniqueIndex:uq_labor_roles_name" json:"name"`
	BillRate *decimal.Decimal `gorm:"type:decimal(12,4);column:bill_rate" json:"billRate,omitempty"`
	CostRate *decimal.Decimal `gorm:"type:decimal(12,4);column:cost_rate" json:"costRate,omitempty"`
	IsActive bool             `gorm:"not null;column:is_active" json:"isActive"`
}

// Warehouse is a named stock location
type Warehouse struct {
	BaseModel
	Name     string `gorm:"type:varchar(128);not null;uniqueIndex:uq_warehouses_name" json:"name"`
	IsActive bool   `gorm:"not null;column:is_active" json:"isActive"`
}

// InventoryLot is one received batch of a catalog item at a warehouse,
// carrying its own unit cost. Quantity on hand never goes below zero.
type InventoryLot struct {
	BaseModel
	CatalogItemID int64           `gorm:"not null;index:ix_lots_item_warehouse;column:catalog_item_id" json:"catalogItemId"`
	WarehouseID   int64           `gorm:"not null;index:ix_lots_item_warehouse;column:warehouse_id" json:"warehouseId"`
	QtyOnHand     decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0;column:qty_on_hand" json:"qtyOnHand"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(14,4);not null;column:unit_cost" json:"unitCost"`
	ReceivedAt    time.Time       `gorm:"not null;index;column:received_at" json:"receivedAt"`
	Supplier      string          `gorm:"type:varchar(128)" json:"supplier,omitempty"`
	LotCode       string          `gorm:"type:varchar(128);column:lot_code" json:"lotCode,omitempty"`
}

// StockReason explains why stock moved
type StockReason string

const (
	ReasonReceipt StockReason = "RECEIPT"
	ReasonAdjust  StockReason = "ADJUST"
	ReasonIssue   StockReason = "ISSUE"
	ReasonReturn  StockReason = "RETURN"
)

// StockReferenceType names the business event behind a stock movement
type StockReferenceType string

const (
	RefWorkEntry     StockReferenceType = "WorkEntry"
	RefPurchaseOrder StockReferenceType = "PO"
	RefInit          StockReferenceType = "Init"
)

// StockLedger is the append-only movement log and the source of truth for
// quantity and cost history. Rows are never updated or deleted; the lot
// link is nullable because lots may later be removed.
type StockLedger struct {
	ID             int64              `gorm:"primaryKey" json:"id"`
	CatalogItemID  int64              `gorm:"not null;index;column:catalog_item_id" json:"catalogItemId"`
	WarehouseID    int64              `gorm:"not null;index;column:warehouse_id" json:"warehouseId"`
	InventoryLotID *int64             `gorm:"index;column:inventory_lot_id" json:"inventoryLotId,omitempty"`
	QtyDelta       decimal.Decimal    `gorm:"type:decimal(14,4);not null;column:qty_delta" json:"qtyDelta"`
	UnitCostAtMove decimal.Decimal    `gorm:"type:decimal(14,4);not null;column:unit_cost_at_move" json:"unitCostAtMove"`
	Reason         StockReason        `gorm:"type:varchar(16);not null" json:"reason"`
	ReferenceType  StockReferenceType `gorm:"type:varchar(32);not null;column:reference_type" json:"referenceType"`
	ReferenceID    string             `gorm:"type:varchar(64);column:reference_id" json:"referenceId,omitempty"`
	MovedAt        time.Time          `gorm:"not null;index;column:moved_at" json:"movedAt"`
	CreatedAt      time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	CreatedBy      string             `gorm:"type:varchar(64);column:created_by" json:"createdBy,omitempty"`
}

// Client is a billable customer
type Client struct {
	BaseModel
	Name         string      `gorm:"type:varchar(255);not null;uniqueIndex:uq_clients_name" json:"name"`
	BillingEmail string      `gorm:"type:varchar(255);column:billing_email" json:"billingEmail,omitempty"`
	Phone        string      `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Address      string      `gorm:"type:text" json:"address,omitempty"`
	Projects     []Project   `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"-"`
	WorkOrders   []WorkOrder `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"-"`
	Invoices     []Invoice   `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"-"`
}

// ProjectStatus represents the lifecycle of a project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// Project groups work orders under a client
type Project struct {
	BaseModel
	ClientID    int64         `gorm:"not null;index;column:client_id" json:"clientId"`
	Name        string        `gorm:"type:varchar(255);not null;index" json:"name"`
	Status      ProjectStatus `gorm:"type:varchar(32);not null;default:'active'" json:"status"`
	Description string        `gorm:"type:text" json:"description,omitempty"`
}

// WorkOrderStatus is the execution lifecycle of a work order
type WorkOrderStatus string

const (
	WorkOrderOpen       WorkOrderStatus = "open"
	WorkOrderInProgress WorkOrderStatus = "in_progress"
	WorkOrderClosed     WorkOrderStatus = "closed"
	WorkOrderCancelled  WorkOrderStatus = "cancelled"
)

// WorkOrderBillingState is tracked independently of execution status
type WorkOrderBillingState string

const (
	BillingOpen             WorkOrderBillingState = "open"
	BillingAwaitingApproval WorkOrderBillingState = "awaiting_approval"
	BillingReadyToBill      WorkOrderBillingState = "ready_to_bill"
	BillingInvoiced         WorkOrderBillingState = "invoiced"
	BillingClosed           WorkOrderBillingState = "closed"
)

// billingStateRank orders billing states for forward-only transitions
var billingStateRank = map[WorkOrderBillingState]int{
	BillingOpen:             0,
	BillingAwaitingApproval: 1,
	BillingReadyToBill:      2,
	BillingInvoiced:         3,
	BillingClosed:           4,
}

// CanAdvanceTo reports whether s may move forward to target
func (s WorkOrderBillingState) CanAdvanceTo(target WorkOrderBillingState) bool {
	from, ok := billingStateRank[s]
	if !ok {
		return false
	}
	to, ok := billingStateRank[target]
	if !ok {
		return false
	}
	return to > from
}

// WorkOrder is one unit of field work for a client, optionally under a project
type WorkOrder struct {
	BaseModel
	ClientID     int64                 `gorm:"not null;index;column:client_id" json:"clientId"`
	ProjectID    *int64                `gorm:"index;column:project_id" json:"projectId,omitempty"`
	Project      *Project              `gorm:"foreignKey:ProjectID;constraint:OnDelete:SET NULL" json:"-"`
	Title        string                `gorm:"type:varchar(255);not null" json:"title"`
	Description  string                `gorm:"type:text" json:"description,omitempty"`
	Status       WorkOrderStatus       `gorm:"type:varchar(32);not null;default:'open';index" json:"status"`
	BillingState WorkOrderBillingState `gorm:"type:varchar(32);not null;default:'open';column:billing_state" json:"billingState"`
	OpenedAt     time.Time             `gorm:"not null;column:opened_at" json:"openedAt"`
	ClosedAt     *time.Time            `gorm:"column:closed_at" json:"closedAt,omitempty"`
	TimeEntries  []TimeEntry           `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE" json:"-"`
	PartUsages   []PartUsage           `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE" json:"-"`
}

// TimeEntry is one labor session against a work order. Snap rates and the
// write-off amount are stamped at invoicing time and frozen thereafter.
type TimeEntry struct {
	ID               int64            `gorm:"primaryKey" json:"id"`
	WorkOrderID      int64            `gorm:"not null;index;column:work_order_id" json:"workOrderId"`
	WorkOrder        *WorkOrder       `gorm:"foreignKey:WorkOrderID" json:"-"`
	LaborRoleID      int64            `gorm:"not null;index;column:labor_role_id" json:"laborRoleId"`
	LaborRole        *LaborRole       `gorm:"foreignKey:LaborRoleID;constraint:OnDelete:RESTRICT" json:"-"`
	UserID           string           `gorm:"type:varchar(64);column:user_id" json:"userId,omitempty"`
	StartedAt        *time.Time       `gorm:"column:started_at" json:"startedAt,omitempty"`
	EndedAt          *time.Time       `gorm:"index;column:ended_at" json:"endedAt,omitempty"`
	Minutes          int              `gorm:"not null;default:0" json:"minutes"`
	BillRateOverride *decimal.Decimal `gorm:"type:decimal(12,4);column:bill_rate_override" json:"billRateOverride,omitempty"`
	CostRateOverride *decimal.Decimal `gorm:"type:decimal(12,4);column:cost_rate_override" json:"costRateOverride,omitempty"`
	Billable         bool             `gorm:"not null" json:"billable"`
	SnapBillRate     *decimal.Decimal `gorm:"type:decimal(12,4);column:snap_bill_rate" json:"snapBillRate,omitempty"`
	SnapCostRate     *decimal.Decimal `gorm:"type:decimal(12,4);column:snap_cost_rate" json:"snapCostRate,omitempty"`
	WriteOffAmount   decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0;column:write_off_amount" json:"writeOffAmount"`
	Notes            string           `gorm:"type:text" json:"notes,omitempty"`
	ApprovedAt       *time.Time       `gorm:"column:approved_at" json:"approvedAt,omitempty"`
	ApprovedBy       string           `gorm:"type:varchar(64);column:approved_by" json:"approvedBy,omitempty"`
	CreatedAt        time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	CreatedBy        string           `gorm:"type:varchar(64);column:created_by" json:"createdBy,omitempty"`
}

// PartUsage is one consumption of a catalog item against a work order from
// a warehouse. UnitCostResolved is stamped by the FIFO engine at issuance.
type PartUsage struct {
	ID                int64            `gorm:"primaryKey" json:"id"`
	WorkOrderID       int64            `gorm:"not null;index;column:work_order_id" json:"workOrderId"`
	WorkOrder         *WorkOrder       `gorm:"foreignKey:WorkOrderID" json:"-"`
	CatalogItemID     int64            `gorm:"not null;index;column:catalog_item_id" json:"catalogItemId"`
	CatalogItem       *CatalogItem     `gorm:"foreignKey:CatalogItemID;constraint:OnDelete:RESTRICT" json:"-"`
	WarehouseID       int64            `gorm:"not null;index;column:warehouse_id" json:"warehouseId"`
	Qty               decimal.Decimal  `gorm:"type:decimal(14,4);not null" json:"qty"`
	SellPriceOverride *decimal.Decimal `gorm:"type:decimal(12,2);column:sell_price_override" json:"sellPriceOverride,omitempty"`
	UnitCostResolved  *decimal.Decimal `gorm:"type:decimal(14,4);column:unit_cost_resolved" json:"unitCostResolved,omitempty"`
	SnapUnitCost      *decimal.Decimal `gorm:"type:decimal(14,4);column:snap_unit_cost" json:"snapUnitCost,omitempty"`
	SnapUnitPrice     *decimal.Decimal `gorm:"type:decimal(12,2);column:snap_unit_price" json:"snapUnitPrice,omitempty"`
	WriteOffAmount    decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0;column:write_off_amount" json:"writeOffAmount"`
	BarcodeScanned    bool             `gorm:"not null;column:barcode_scanned" json:"barcodeScanned"`
	Notes             string           `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt         time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"createdAt"`
	CreatedBy         string           `gorm:"type:varchar(64);column:created_by" json:"createdBy,omitempty"`
}

/// InvoiceStatus moves forward only: draft -> sent -> paid
type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "draft"
	InvoiceSent  InvoiceStatus = "sent"
	InvoicePaid  InvoiceStatus = "paid"
)

var invoiceStatusRank = map[InvoiceStatus]int{
	InvoiceDraft: 0,
	InvoiceSent:  1,
	InvoicePaid:  2,
}

// CanAdvanceTo reports whether s may move forward to target. There is no
// downgrade path.
func (s InvoiceStatus) CanAdvanceTo(target InvoiceStatus) bool {
	from, ok := invoiceStatusRank[s]
	if !ok {
		return false
	}
	to, ok := invoiceStatusRank[target]
	if !ok {
		return false
	}
	return to > from
}

// InvoiceLineType classifies an invoice line
type InvoiceLineType string

const (
	LineLabor InvoiceLineType = "labor"
	LinePart  InvoiceLineType = "part"
	LineFlat  InvoiceLineType = "flat"
)

// InvoiceSourceType discriminates the record an invoice line bills
type InvoiceSourceType string

const (
	SourceTimeEntry InvoiceSourceType = "time_entry"
	SourcePartUsage InvoiceSourceType = "part_usage"
	SourceFlatTask  InvoiceSourceType = "flat_task"
)

// IsValid checks if the InvoiceSourceType is a valid enum value
func (s InvoiceSourceType) IsValid() bool {
	switch s {
	case SourceTimeEntry, SourcePartUsage, SourceFlatTask:
		return true
	}
	return false
}

// Invoice aggregates lines billed to one client with snapshotted amounts
type Invoice struct {
	BaseModel
	ClientID  int64           `gorm:"not null;index;column:client_id" json:"clientId"`
	Status    InvoiceStatus   `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	Tax       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	Terms     string          `gorm:"type:text" json:"terms,omitempty"`
	Notes     string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy string          `gorm:"type:varchar(64);column:created_by" json:"createdBy,omitempty"`
	Lines     []InvoiceLine   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
}

// InvoiceLine references exactly one source record via (source_type,
// source_id). A given source appears on at most one invoice line ever;
// negative source ids address legacy tickets. Validity of the id for its
// type is enforced at write time, not by a foreign key.
type InvoiceLine struct {
	ID             int64             `gorm:"primaryKey" json:"id"`
	InvoiceID      int64             `gorm:"not null;index;column:invoice_id" json:"invoiceId"`
	LineType       InvoiceLineType   `gorm:"type:varchar(16);not null;column:line_type" json:"lineType"`
	Description    string            `gorm:"type:text;not null" json:"description"`
	Qty            decimal.Decimal   `gorm:"type:decimal(14,4);not null;default:1" json:"qty"`
	UnitPrice      decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0;column:unit_price" json:"unitPrice"`
	LineTotal      decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0;column:line_total" json:"lineTotal"`
	SourceType     InvoiceSourceType `gorm:"type:varchar(32);not null;index:ix_invoice_lines_source;column:source_type" json:"sourceType"`
	SourceID       *int64            `gorm:"index:ix_invoice_lines_source;column:source_id" json:"sourceId,omitempty"`
	SourceSnapshot string            `gorm:"type:text;column:source_snapshot" json:"sourceSnapshot,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
}
