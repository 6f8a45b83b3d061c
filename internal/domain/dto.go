package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// --- catalog ---

// CatalogItemCreateRequest creates a new catalog item
type CatalogItemCreateRequest struct {
	SKU              string           `json:"sku" validate:"required,max=64"`
	Name             string           `json:"name" validate:"required,max=255"`
	Description      string           `json:"description,omitempty"`
	Unit             UnitOfMeasure    `json:"unit" validate:"omitempty,oneof=ea hour ft flat"`
	DefaultSellPrice *decimal.Decimal `json:"defaultSellPrice,omitempty"`
	DefaultCost      *decimal.Decimal `json:"defaultCost,omitempty"`
	TaxCategory      string           `json:"taxCategory,omitempty" validate:"omitempty,max=64"`
}

// CatalogItemUpdateRequest updates mutable fields of a catalog item. The
// SKU may only change while the item has no stock movement history.
type CatalogItemUpdateRequest struct {
	SKU              *string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	Name             *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Description      *string          `json:"description,omitempty"`
	Unit             *UnitOfMeasure   `json:"unit,omitempty" validate:"omitempty,oneof=ea hour ft flat"`
	DefaultSellPrice *decimal.Decimal `json:"defaultSellPrice,omitempty"`
	DefaultCost      *decimal.Decimal `json:"defaultCost,omitempty"`
	TaxCategory      *string          `json:"taxCategory,omitempty" validate:"omitempty,max=64"`
	IsActive         *bool            `json:"isActive,omitempty"`
}

// AliasCreateRequest attaches a scan code to a catalog item
type AliasCreateRequest struct {
	Alias     string    `json:"alias" validate:"required,max=128"`
	Kind      AliasKind `json:"kind" validate:"omitempty,oneof=UPC EAN MPN VendorSKU"`
	CreatedBy string    `json:"createdBy,omitempty" validate:"omitempty,max=64"`
}

// CodeResolution is the outcome of resolving a scanned code
type CodeResolution struct {
	Item        *CatalogItem `json:"item"`
	MatchedBy   string       `json:"matchedBy"` // "sku", "alias" or "provisioned"
	Provisioned bool         `json:"provisioned"`
}

// --- inventory ---

// ReceiveStockRequest books received goods into a new lot
type ReceiveStockRequest struct {
	Code        string          `json:"code" validate:"required,max=128"`
	WarehouseID *int64          `json:"warehouseId,omitempty"`
	Qty         decimal.Decimal `json:"qty" validate:"required"`
	UnitCost    decimal.Decimal `json:"unitCost" validate:"required"`
	ReceivedAt  *time.Time      `json:"receivedAt,omitempty"`
	Supplier    string          `json:"supplier,omitempty" validate:"omitempty,max=128"`
	LotCode     string          `json:"lotCode,omitempty" validate:"omitempty,max=128"`
	Reference   string          `json:"reference,omitempty" validate:"omitempty,max=64"`
	CreatedBy   string          `json:"createdBy,omitempty" validate:"omitempty,max=64"`
}

// AdjustStockRequest corrects on-hand quantity of one lot
type AdjustStockRequest struct {
	LotID     int64           `json:"lotId" validate:"required"`
	QtyDelta  decimal.Decimal `json:"qtyDelta" validate:"required"`
	Reference string          `json:"reference,omitempty" validate:"omitempty,max=64"`
	Notes     string          `json:"notes,omitempty"`
	CreatedBy string          `json:"createdBy,omitempty" validate:"omitempty,max=64"`
}

// IssueStockRequest consumes stock FIFO without a work order context
type IssueStockRequest struct {
	Code        string          `json:"code" validate:"required,max=128"`
	WarehouseID *int64          `json:"warehouseId,omitempty"`
	Qty         decimal.Decimal `json:"qty" validate:"required"`
	Reference   string          `json:"reference,omitempty" validate:"omitempty,max=64"`
	CreatedBy   string          `json:"createdBy,omitempty" validate:"omitempty,max=64"`
}

// StockLevel is the aggregated on-hand position of an item at a warehouse
type StockLevel struct {
	CatalogItemID int64           `json:"catalogItemId"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	WarehouseID   int64           `json:"warehouseId"`
	QtyOnHand     decimal.Decimal `json:"qtyOnHand"`
	AvgUnitCost   decimal.Decimal `json:"avgUnitCost"`
}

// --- work execution ---

// WorkOrderCreateRequest opens a work order for a client
type WorkOrderCreateRequest struct {
	ClientID    int64  `json:"clientId" validate:"required"`
	ProjectID   *int64 `json:"projectId,omitempty"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description,omitempty"`
}

// TimeStartRequest starts a running labor session
type TimeStartRequest struct {
	LaborRole string `json:"laborRole" validate:"required,max=128"`
	UserID    string `json:"userId,omitempty" validate:"omitempty,max=64"`
	Notes     string `json:"notes,omitempty"`
}

// TimeStopRequest closes the running session for a worker
type TimeStopRequest struct {
	UserID string `json:"userId,omitempty" validate:"omitempty,max=64"`
	Notes  string `json:"notes,omitempty"`
}

// PartIssueRequest consumes a part against a work order, FIFO from stock
type PartIssueRequest struct {
	Code              string           `json:"code" validate:"required,max=128"`
	Qty               decimal.Decimal  `json:"qty" validate:"required"`
	WarehouseID       *int64           `json:"warehouseId,omitempty"`
	SellPriceOverride *decimal.Decimal `json:"sellPriceOverride,omitempty"`
	BarcodeScanned    *bool            `json:"barcodeScanned,omitempty"`
	Notes             string           `json:"notes,omitempty"`
	CreatedBy         string           `json:"createdBy,omitempty" validate:"omitempty,max=64"`
}

// QuickIssueRequest is the handheld-scanner flow: resolve the client by id
// or name, find or create an active work order, then issue the part.
type QuickIssueRequest struct {
	ClientID          *int64           `json:"clientId,omitempty"`
	ClientName        string           `json:"clientName,omitempty" validate:"omitempty,max=255"`
	Code              string           `json:"code" validate:"required,max=128"`
	Qty               decimal.Decimal  `json:"qty" validate:"required"`
	WarehouseID       *int64           `json:"warehouseId,omitempty"`
	SellPriceOverride *decimal.Decimal `json:"sellPriceOverride,omitempty"`
	Notes             string           `json:"notes,omitempty"`
	CreatedBy         string           `json:"createdBy,omitempty" validate:"omitempty,max=64"`
}

// QuickTimeStartRequest starts labor against a client's active work order,
// creating one when none is open.
type QuickTimeStartRequest struct {
	ClientID   *int64 `json:"clientId,omitempty"`
	ClientName string `json:"clientName,omitempty" validate:"omitempty,max=255"`
	LaborRole  string `json:"laborRole" validate:"required,max=128"`
	UserID     string `json:"userId,omitempty" validate:"omitempty,max=64"`
	Notes      string `json:"notes,omitempty"`
}

// BillingStateRequest advances a work order's billing state
type BillingStateRequest struct {
	BillingState WorkOrderBillingState `json:"billingState" validate:"required,oneof=open awaiting_approval ready_to_bill invoiced closed"`
}

// --- billing ---

// UnbilledTimeItem is one uninvoiced labor entry, priced but not billed
type UnbilledTimeItem struct {
	SourceType  InvoiceSourceType `json:"sourceType"`
	SourceID    int64             `json:"sourceId"`
	ClientID    *int64            `json:"clientId"`
	WorkOrderID int64             `json:"workOrderId,omitempty"`
	Description string            `json:"description"`
	Minutes     int               `json:"minutes"`
	Hours       decimal.Decimal   `json:"hours"`
	BillRate    decimal.Decimal   `json:"billRate"`
	Amount      decimal.Decimal   `json:"amount"`
	Legacy      bool              `json:"legacy"`
	TicketID    *int64            `json:"ticketId,omitempty"`
}

// UnbilledPartItem is one uninvoiced part consumption
type UnbilledPartItem struct {
	SourceType  InvoiceSourceType `json:"sourceType"`
	SourceID    int64             `json:"sourceId"`
	ClientID    *int64            `json:"clientId"`
	WorkOrderID int64             `json:"workOrderId,omitempty"`
	Description string            `json:"description"`
	SKU         string            `json:"sku,omitempty"`
	Qty         decimal.Decimal   `json:"qty"`
	UnitPrice   decimal.Decimal   `json:"unitPrice"`
	Amount      decimal.Decimal   `json:"amount"`
	Legacy      bool              `json:"legacy"`
	TicketID    *int64            `json:"ticketId,omitempty"`
}

// UnbilledFlatItem is one uninvoiced flat-fee charge
type UnbilledFlatItem struct {
	SourceType  InvoiceSourceType `json:"sourceType"`
	SourceID    int64             `json:"sourceId"`
	Description string            `json:"description"`
	Amount      decimal.Decimal   `json:"amount"`
	Legacy      bool              `json:"legacy"`
	TicketID    *int64            `json:"ticketId,omitempty"`
}

// UnbilledResponse is everything billable but not yet invoiced, for one
// client or for all of them. ClientID is nil on the unfiltered view.
type UnbilledResponse struct {
	ClientID *int64             `json:"clientId"`
	Time     []UnbilledTimeItem `json:"time"`
	Parts    []UnbilledPartItem `json:"parts"`
	Flat     []UnbilledFlatItem `json:"flat"`
	Total    decimal.Decimal    `json:"total"`
}

// InvoiceLineCreate is one line of a draft invoice request
type InvoiceLineCreate struct {
	LineType       InvoiceLineType   `json:"lineType" validate:"required,oneof=labor part flat"`
	Description    string            `json:"description" validate:"required"`
	Qty            decimal.Decimal   `json:"qty" validate:"required"`
	UnitPrice      decimal.Decimal   `json:"unitPrice"`
	SourceType     InvoiceSourceType `json:"sourceType" validate:"required,oneof=time_entry part_usage flat_task"`
	SourceID       *int64            `json:"sourceId,omitempty"`
	SourceSnapshot string            `json:"sourceSnapshot,omitempty"`
	WriteOffAmount *decimal.Decimal  `json:"writeOffAmount,omitempty"`
}

// InvoiceCreateRequest creates a draft invoice from selected sources
type InvoiceCreateRequest struct {
	ClientID  int64               `json:"clientId" validate:"required"`
	Lines     []InvoiceLineCreate `json:"lines" validate:"required,min=1,dive"`
	Tax       *decimal.Decimal    `json:"tax,omitempty"`
	Terms     string              `json:"terms,omitempty"`
	Notes     string              `json:"notes,omitempty"`
	CreatedBy string              `json:"createdBy,omitempty" validate:"omitempty,max=64"`
}

// InvoiceFinalizeRequest advances invoice status, forward only
type InvoiceFinalizeRequest struct {
	Status InvoiceStatus `json:"status" validate:"required,oneof=sent paid"`
}

// --- reports ---

// DailyRollupRow is one day's revenue and cost aggregation
type DailyRollupRow struct {
	Date            string          `json:"date"`
	LaborMinutes    int             `json:"laborMinutes"`
	LaborRevenue    decimal.Decimal `json:"laborRevenue"`
	PartsRevenue    decimal.Decimal `json:"partsRevenue"`
	PartsCost       decimal.Decimal `json:"partsCost"`
	InvoicedRevenue decimal.Decimal `json:"invoicedRevenue"`
	PaidRevenue     decimal.Decimal `json:"paidRevenue"`
}

// DailyRollupResponse covers an inclusive date range
type DailyRollupResponse struct {
	From string           `json:"from"`
	To   string           `json:"to"`
	Days []DailyRollupRow `json:"days"`
}

// --- clients, projects, roles, warehouses ---

// ClientCreateRequest creates a client
type ClientCreateRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	BillingEmail string `json:"billingEmail,omitempty" validate:"omitempty,email,max=255"`
	Phone        string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address      string `json:"address,omitempty"`
}

// ClientUpdateRequest updates a client
type ClientUpdateRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,max=255"`
	BillingEmail *string `json:"billingEmail,omitempty" validate:"omitempty,email,max=255"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address      *string `json:"address,omitempty"`
}

// ProjectCreateRequest creates a project under a client
type ProjectCreateRequest struct {
	ClientID    int64  `json:"clientId" validate:"required"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description,omitempty"`
}

// LaborRoleCreateRequest creates a labor role with default rates
type LaborRoleCreateRequest struct {
	Name     string           `json:"name" validate:"required,max=128"`
	BillRate *decimal.Decimal `json:"billRate,omitempty"`
	CostRate *decimal.Decimal `json:"costRate,omitempty"`
}

// WarehouseCreateRequest creates a stock location
type WarehouseCreateRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}
