package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/service"
	"go.uber.org/zap"
)

// BillingHandler serves the unbilled aggregation and invoices
type BillingHandler struct {
	billing *service.BillingService
	logger  *zap.Logger
}

func NewBillingHandler(billing *service.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{billing: billing, logger: logger}
}

// Unbilled godoc
// @Summary Unbilled work
// @Description Everything billable that no invoice references yet: time, parts, flat-fee offerings and unsent legacy tickets. Without clientId the view spans all clients, and legacy tickets matching no client carry a null clientId.
// @Tags Billing
// @Produce json
// @Param clientId query int false "Client ID"
// @Success 200 {object} domain.UnbilledResponse
// @Failure 404 {object} domain.APIError
// @Router /billing/unbilled [get]
func (h *BillingHandler) Unbilled(w http.ResponseWriter, r *http.Request) {
	var clientID int64
	if raw := r.URL.Query().Get("clientId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "clientId must be a positive integer")
			return
		}
		clientID = parsed
	}

	resp, err := h.billing.GetUnbilled(r.Context(), clientID)
	if err != nil {
		h.logger.Error("failed to aggregate unbilled work", zap.Int64("client_id", clientID), zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// CreateInvoice godoc
// @Summary Create a draft invoice
// @Description Creates a draft invoice from selected sources in one transaction. A source already on an invoice aborts the whole request.
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body domain.InvoiceCreateRequest true "Invoice"
// @Success 201 {object} domain.Invoice
// @Failure 409 {object} domain.APIError
// @Router /invoices [post]
func (h *BillingHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req domain.InvoiceCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	invoice, err := h.billing.CreateInvoice(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, invoice)
}

// GetInvoice returns one invoice with its lines
func (h *BillingHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	invoice, err := h.billing.GetInvoice(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, invoice)
}

// ListInvoices returns a client's invoices
func (h *BillingHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	clientID, err := strconv.ParseInt(r.URL.Query().Get("clientId"), 10, 64)
	if err != nil || clientID <= 0 {
		respondWithError(w, http.StatusBadRequest, "clientId query parameter required")
		return
	}

	invoices, err := h.billing.ListInvoices(r.Context(), clientID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, invoices)
}

// Finalize godoc
// @Summary Advance invoice status
// @Description Forward moves only: draft to sent, draft to paid, sent to paid.
// @Tags Billing
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Param request body domain.InvoiceFinalizeRequest true "Target status"
// @Success 200 {object} domain.Invoice
// @Failure 422 {object} domain.APIError
// @Router /invoices/{id}/finalize [post]
func (h *BillingHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.InvoiceFinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	invoice, err := h.billing.FinalizeInvoice(r.Context(), id, req.Status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, invoice)
}
