package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/service"
	"go.uber.org/zap"
)

// InventoryHandler serves warehouse stock: receipts, adjustments, issues,
// on-hand levels and the movement ledger
type InventoryHandler struct {
	stock  *service.StockService
	logger *zap.Logger
}

func NewInventoryHandler(stock *service.StockService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{stock: stock, logger: logger}
}

// Receive godoc
// @Summary Receive stock
// @Description Books a new cost lot for a catalog item, resolving the code and auto-provisioning unknown ones.
// @Tags Inventory
// @Accept json
// @Produce json
// @Param request body domain.ReceiveStockRequest true "Receipt"
// @Success 201 {object} domain.InventoryLot
// @Failure 400 {object} domain.APIError
// @Router /inventory/receive [post]
func (h *InventoryHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req domain.ReceiveStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	lot, err := h.stock.Receive(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, lot)
}

// Adjust godoc
// @Summary Adjust a lot
// @Description Applies a signed quantity correction to one lot. A delta that would drive the lot negative is rejected.
// @Tags Inventory
// @Accept json
// @Produce json
// @Param request body domain.AdjustStockRequest true "Adjustment"
// @Success 200 {object} domain.InventoryLot
// @Failure 400 {object} domain.APIError
// @Router /inventory/adjust [post]
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req domain.AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	lot, err := h.stock.Adjust(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lot)
}

// Issue godoc
// @Summary Issue stock
// @Description Draws down stock oldest lot first without a work order, for shrinkage and internal use.
// @Tags Inventory
// @Accept json
// @Produce json
// @Param request body domain.IssueStockRequest true "Issue"
// @Success 200 {object} service.IssueResult
// @Failure 422 {object} domain.APIError
// @Router /inventory/issue [post]
func (h *InventoryHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req domain.IssueStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.stock.Issue(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Levels godoc
// @Summary On-hand stock levels
// @Tags Inventory
// @Produce json
// @Param warehouseId query int false "Filter by warehouse"
// @Success 200 {array} domain.StockLevel
// @Router /inventory/levels [get]
func (h *InventoryHandler) Levels(w http.ResponseWriter, r *http.Request) {
	var warehouseID *int64
	if raw := r.URL.Query().Get("warehouseId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondWithError(w, http.StatusBadRequest, "invalid warehouseId")
			return
		}
		warehouseID = &id
	}

	levels, err := h.stock.StockLevels(r.Context(), warehouseID)
	if err != nil {
		h.logger.Error("failed to compute stock levels", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, levels)
}

// Ledger returns the most recent movements for one catalog item
func (h *InventoryHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 100
	}

	entries, err := h.stock.LedgerForItem(r.Context(), id, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
