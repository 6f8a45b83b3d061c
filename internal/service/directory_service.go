package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/money"
	"github.com/harborview-tech/fieldops-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DirectoryService covers the reference data everything else hangs off:
// clients, their projects, labor roles and warehouses.
type DirectoryService struct {
	clients    *repository.ClientRepository
	laborRoles *repository.LaborRoleRepository
	warehouses *repository.WarehouseRepository
	logger     *zap.Logger
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(
	clients *repository.ClientRepository,
	laborRoles *repository.LaborRoleRepository,
	warehouses *repository.WarehouseRepository,
	logger *zap.Logger,
) *DirectoryService {
	return &DirectoryService{
		clients:    clients,
		laborRoles: laborRoles,
		warehouses: warehouses,
		logger:     logger,
	}
}

// CreateClient creates a client. Names are unique.
func (s *DirectoryService) CreateClient(ctx context.Context, req *domain.ClientCreateRequest) (*domain.Client, error) {
	client := &domain.Client{
		Name:         strings.TrimSpace(req.Name),
		BillingEmail: req.BillingEmail,
		Phone:        req.Phone,
		Address:      req.Address,
	}
	if client.Name == "" {
		return nil, fmt.Errorf("%w: client name required", ErrInvalidInput)
	}
	if err := s.clients.Create(ctx, client); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: client '%s' already exists", ErrConflict, client.Name)
		}
		return nil, err
	}
	return client, nil
}

// GetClient retrieves a client by id
func (s *DirectoryService) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: client %d", ErrNotFound, id)
		}
		return nil, err
	}
	return client, nil
}

// ListClients returns all clients ordered by name
func (s *DirectoryService) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.clients.List(ctx)
}

// UpdateClient applies a partial update to a client
func (s *DirectoryService) UpdateClient(ctx context.Context, id int64, req *domain.ClientUpdateRequest) (*domain.Client, error) {
	client, err := s.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: client name required", ErrInvalidInput)
		}
		client.Name = name
	}
	if req.BillingEmail != nil {
		client.BillingEmail = *req.BillingEmail
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.Address != nil {
		client.Address = *req.Address
	}
	if err := s.clients.Update(ctx, client); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: client '%s' already exists", ErrConflict, client.Name)
		}
		return nil, err
	}
	return client, nil
}

// CreateProject creates a project under a client
func (s *DirectoryService) CreateProject(ctx context.Context, req *domain.ProjectCreateRequest) (*domain.Project, error) {
	if _, err := s.GetClient(ctx, req.ClientID); err != nil {
		return nil, err
	}
	project := &domain.Project{
		ClientID:    req.ClientID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      domain.ProjectStatusActive,
	}
	if err := s.clients.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// ListProjects returns a client's projects
func (s *DirectoryService) ListProjects(ctx context.Context, clientID int64) ([]domain.Project, error) {
	return s.clients.ListProjects(ctx, clientID)
}

// CreateLaborRole creates a labor role with default rates
func (s *DirectoryService) CreateLaborRole(ctx context.Context, req *domain.LaborRoleCreateRequest) (*domain.LaborRole, error) {
	role := &domain.LaborRole{
		Name:     strings.TrimSpace(req.Name),
		IsActive: true,
	}
	if req.BillRate != nil {
		role.BillRate = money.Ptr(money.Round4(*req.BillRate))
	}
	if req.CostRate != nil {
		role.CostRate = money.Ptr(money.Round4(*req.CostRate))
	}
	if err := s.laborRoles.Create(ctx, role); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: labor role '%s' already exists", ErrConflict, role.Name)
		}
		return nil, err
	}
	return role, nil
}

// ListLaborRoles returns all active labor roles
func (s *DirectoryService) ListLaborRoles(ctx context.Context) ([]domain.LaborRole, error) {
	return s.laborRoles.ListActive(ctx)
}

// CreateWarehouse creates a stock location
func (s *DirectoryService) CreateWarehouse(ctx context.Context, req *domain.WarehouseCreateRequest) (*domain.Warehouse, error) {
	warehouse := &domain.Warehouse{
		Name:     strings.TrimSpace(req.Name),
		IsActive: true,
	}
	if err := s.warehouses.Create(ctx, warehouse); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: warehouse '%s' already exists", ErrConflict, warehouse.Name)
		}
		return nil, err
	}
	return warehouse, nil
}

// ListWarehouses returns all warehouses
func (s *DirectoryService) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	return s.warehouses.List(ctx)
}
