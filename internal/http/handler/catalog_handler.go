package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/service"
	"go.uber.org/zap"
)

// CatalogHandler serves catalog items, their barcode aliases and flat tasks
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *zap.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// List godoc
// @Summary List catalog items
// @Tags Catalog
// @Produce json
// @Param active query bool false "Only active items"
// @Success 200 {array} domain.CatalogItem
// @Router /catalog/items [get]
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	items, err := h.catalog.ListItems(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("failed to list catalog items", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// Create godoc
// @Summary Create a catalog item
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body domain.CatalogItemCreateRequest true "Item"
// @Success 201 {object} domain.CatalogItem
// @Failure 409 {object} domain.APIError
// @Router /catalog/items [post]
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CatalogItemCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	item, err := h.catalog.CreateItem(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// GetByID returns one catalog item
func (h *CatalogHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.catalog.GetItem(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// Update godoc
// @Summary Update a catalog item
// @Description Partial update. The SKU can only change while the item has no stock movement history.
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param request body domain.CatalogItemUpdateRequest true "Fields to update"
// @Success 200 {object} domain.CatalogItem
// @Failure 409 {object} domain.APIError
// @Router /catalog/items/{id} [put]
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.CatalogItemUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	item, err := h.catalog.UpdateItem(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// Resolve godoc
// @Summary Resolve a scanned code
// @Description Resolves a SKU or barcode alias to a catalog item, auto-provisioning a placeholder for unknown codes.
// @Tags Catalog
// @Produce json
// @Param code path string true "SKU or barcode"
// @Success 200 {object} domain.CodeResolution
// @Router /catalog/resolve/{code} [get]
func (h *CatalogHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	resolution, err := h.catalog.ResolveCode(r.Context(), code, r.URL.Query().Get("createdBy"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resolution)
}

// ListAliases returns an item's barcode aliases
func (h *CatalogHandler) ListAliases(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	aliases, err := h.catalog.ListAliases(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, aliases)
}

// CreateAlias attaches a barcode alias to an item
func (h *CatalogHandler) CreateAlias(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.AliasCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	alias, err := h.catalog.CreateAlias(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, alias)
}

// DeleteAlias detaches a barcode alias from an item
func (h *CatalogHandler) DeleteAlias(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	alias := chi.URLParam(r, "alias")
	if err := h.catalog.DeleteAlias(r.Context(), id, alias); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// ListFlatTasks returns the flat-fee task menu
func (h *CatalogHandler) ListFlatTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.catalog.ListFlatTasks(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}
