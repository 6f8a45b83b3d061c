package handler

import (
	"encoding/json"
	"net/http"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/service"
	"go.uber.org/zap"
)

// ClientHandler serves clients, projects, labor roles and warehouses
type ClientHandler struct {
	directory *service.DirectoryService
	logger    *zap.Logger
}

func NewClientHandler(directory *service.DirectoryService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{directory: directory, logger: logger}
}

// List godoc
// @Summary List clients
// @Tags Clients
// @Produce json
// @Success 200 {array} domain.Client
// @Router /clients [get]
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.directory.ListClients(r.Context())
	if err != nil {
		h.logger.Error("failed to list clients", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, clients)
}

// Create godoc
// @Summary Create a client
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body domain.ClientCreateRequest true "Client"
// @Success 201 {object} domain.Client
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /clients [post]
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.ClientCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	client, err := h.directory.CreateClient(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, client)
}

// GetByID godoc
// @Summary Get a client
// @Tags Clients
// @Produce json
// @Param id path int true "Client ID"
// @Success 200 {object} domain.Client
// @Failure 404 {object} domain.APIError
// @Router /clients/{id} [get]
func (h *ClientHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.directory.GetClient(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// Update godoc
// @Summary Update a client
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path int true "Client ID"
// @Param request body domain.ClientUpdateRequest true "Fields to update"
// @Success 200 {object} domain.Client
// @Router /clients/{id} [put]
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.ClientUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	client, err := h.directory.UpdateClient(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// ListProjects returns the client's projects
func (h *ClientHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	projects, err := h.directory.ListProjects(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

// CreateProject creates a project under a client
func (h *ClientHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req domain.ProjectCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	project, err := h.directory.CreateProject(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, project)
}

// ListLaborRoles returns all active labor roles
func (h *ClientHandler) ListLaborRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.directory.ListLaborRoles(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, roles)
}

// CreateLaborRole creates a labor role
func (h *ClientHandler) CreateLaborRole(w http.ResponseWriter, r *http.Request) {
	var req domain.LaborRoleCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	role, err := h.directory.CreateLaborRole(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, role)
}

// ListWarehouses returns all warehouses
func (h *ClientHandler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.directory.ListWarehouses(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, warehouses)
}

// CreateWarehouse creates a stock location
func (h *ClientHandler) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req domain.WarehouseCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	warehouse, err := h.directory.CreateWarehouse(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, warehouse)
}
