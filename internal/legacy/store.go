// Package legacy provides connectivity to the flat-ticket database the
// business billed from before the normalized model existed. Unsent tickets
// surface alongside normalized unbilled work, and invoicing marks them
// sent so they are never billed twice.
package legacy

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Ticket entry types. A ticket records either a block of labor or a
// hardware sale, never both.
const (
	EntryTypeTime     = "time"
	EntryTypeHardware = "hardware"
)

// Ticket is one flat ticket from the legacy system. The entry type decides
// how it bills: time tickets carry minutes, hardware tickets a sales price
// and quantity. sent=false means it has not yet appeared on any invoice.
type Ticket struct {
	ID                  int64
	EntryType           string
	ClientName          string
	ClientKey           string
	Note                string
	Minutes             int
	InvoicedTotal       decimal.Decimal
	HardwareDescription string
	HardwareSalesPrice  decimal.Decimal
	HardwareQuantity    decimal.Decimal
	Sent                bool
	InvoiceNumber       string
	CreatedAt           time.Time
}

// TicketStore is the read/mark interface the billing layer depends on.
// The production implementation is Client; tests substitute a fake.
type TicketStore interface {
	// ListUnsent returns all tickets not yet marked sent, oldest first
	ListUnsent(ctx context.Context) ([]Ticket, error)
	// GetByID returns one ticket, or nil when it does not exist
	GetByID(ctx context.Context, id int64) (*Ticket, error)
	// MarkSent flags a ticket as billed. The invoice number is recorded
	// only when the ticket does not already carry one.
	MarkSent(ctx context.Context, id int64, invoiceNumber string) error
}
