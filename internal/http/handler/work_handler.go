package handler

import (
	"encoding/json"
	"net/http"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/service"
	"go.uber.org/zap"
)

// WorkHandler serves work orders, labor timers, part consumption and the
// handheld-scanner quick flows
type WorkHandler struct {
	work   *service.WorkService
	logger *zap.Logger
}

func NewWorkHandler(work *service.WorkService, logger *zap.Logger) *WorkHandler {
	return &WorkHandler{work: work, logger: logger}
}

// Create godoc
// @Summary Open a work order
// @Tags Work
// @Accept json
// @Produce json
// @Param request body domain.WorkOrderCreateRequest true "Work order"
// @Success 201 {object} domain.WorkOrder
// @Router /work-orders [post]
func (h *WorkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.WorkOrderCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	order, err := h.work.CreateWorkOrder(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// GetByID returns one work order
func (h *WorkHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.work.GetWorkOrder(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// Close closes or cancels a work order
func (h *WorkHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	cancelled := r.URL.Query().Get("cancel") == "true"
	order, err := h.work.CloseWorkOrder(r.Context(), id, cancelled)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// AdvanceBillingState moves a work order's billing state forward
func (h *WorkHandler) AdvanceBillingState(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.BillingStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	order, err := h.work.AdvanceBillingState(r.Context(), id, req.BillingState)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// StartTime godoc
// @Summary Start a labor timer
// @Tags Work
// @Accept json
// @Produce json
// @Param id path int true "Work order ID"
// @Param request body domain.TimeStartRequest true "Timer"
// @Success 201 {object} domain.TimeEntry
// @Failure 409 {object} domain.APIError
// @Router /work-orders/{id}/time/start [post]
func (h *WorkHandler) StartTime(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.TimeStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	entry, err := h.work.StartTime(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// StopTime godoc
// @Summary Stop the running labor timer
// @Tags Work
// @Accept json
// @Produce json
// @Param id path int true "Work order ID"
// @Param request body domain.TimeStopRequest true "Stop"
// @Success 200 {object} domain.TimeEntry
// @Failure 409 {object} domain.APIError
// @Router /work-orders/{id}/time/stop [post]
func (h *WorkHandler) StopTime(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.TimeStopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.work.StopTime(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// IssuePart godoc
// @Summary Issue a part to a work order
// @Description Resolves the code, consumes stock oldest lot first and records the usage with its resolved cost.
// @Tags Work
// @Accept json
// @Produce json
// @Param id path int true "Work order ID"
// @Param request body domain.PartIssueRequest true "Part"
// @Success 201 {object} domain.PartUsage
// @Failure 422 {object} domain.APIError
// @Router /work-orders/{id}/parts [post]
func (h *WorkHandler) IssuePart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.PartIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	usage, err := h.work.IssuePart(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, usage)
}

// ListTime returns all labor on a work order
func (h *WorkHandler) ListTime(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.work.TimeEntriesForOrder(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// ListParts returns all parts consumed on a work order
func (h *WorkHandler) ListParts(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	usages, err := h.work.PartUsagesForOrder(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, usages)
}

// ListForClient returns a client's work orders
func (h *WorkHandler) ListForClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.work.ListWorkOrders(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// QuickIssue godoc
// @Summary Scanner quick issue
// @Description One call from a handheld scanner: resolve the client, find or create its active work order, issue the part.
// @Tags Quick
// @Accept json
// @Produce json
// @Param request body domain.QuickIssueRequest true "Quick issue"
// @Success 201 {object} domain.PartUsage
// @Router /quick/issue [post]
func (h *WorkHandler) QuickIssue(w http.ResponseWriter, r *http.Request) {
	var req domain.QuickIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	usage, err := h.work.QuickIssue(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, usage)
}

// QuickStartTime starts labor against a client's active work order
func (h *WorkHandler) QuickStartTime(w http.ResponseWriter, r *http.Request) {
	var req domain.QuickTimeStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	entry, err := h.work.QuickStartTime(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}
