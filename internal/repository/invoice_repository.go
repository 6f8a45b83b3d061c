package repository

import (
	"context"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"gorm.io/gorm"
)

// InvoiceRepository handles database operations for invoices and their
// lines.
type InvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// CreateTx inserts an invoice together with its lines inside a transaction
func (r *InvoiceRepository) CreateTx(tx *gorm.DB, invoice *domain.Invoice) error {
	return tx.Create(invoice).Error
}

// GetByID retrieves an invoice with its lines
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := r.db.WithContext(ctx).Preload("Lines").First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ListForClient returns all invoices for a client, newest first
func (r *InvoiceRepository) ListForClient(ctx context.Context, clientID int64) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC, id DESC").
		Find(&invoices).Error
	return invoices, err
}

// SourceInvoicedTx reports whether any invoice line already references
// the given source. Run inside the invoice-creation transaction this is
// the double-billing guard.
func (r *InvoiceRepository) SourceInvoicedTx(tx *gorm.DB, sourceType domain.InvoiceSourceType, sourceID int64) (bool, error) {
	var count int64
	err := tx.Model(&domain.InvoiceLine{}).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// UpdateStatus writes a new invoice status
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id int64, status domain.InvoiceStatus) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByStatusBetween returns invoices in a status created in a window
func (r *InvoiceRepository) ListByStatusBetween(ctx context.Context, statuses []domain.InvoiceStatus, from, to time.Time) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := r.db.WithContext(ctx).
		Where("status IN ? AND created_at >= ? AND created_at < ?", statuses, from, to).
		Order("created_at ASC, id ASC").
		Find(&invoices).Error
	return invoices, err
}
