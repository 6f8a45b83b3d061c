package repository

import (
	"context"

	"github.com/harborview-tech/fieldops-api/internal/domain"
	"gorm.io/gorm"
)

// ClientRepository handles database operations for clients and their
// projects.
type ClientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// Create inserts a new client
func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

// GetByID retrieves a client by id
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).First(&client, id).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// GetByName retrieves a client by exact name (case-insensitive)
func (r *ClientRepository) GetByName(ctx context.Context, name string) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// List returns all clients ordered by name
func (r *ClientRepository) List(ctx context.Context) ([]domain.Client, error) {
	var clients []domain.Client
	err := r.db.WithContext(ctx).Order("name ASC").Find(&clients).Error
	return clients, err
}

// Update persists changes to a client
func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

// CreateProject inserts a new project
func (r *ClientRepository) CreateProject(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// GetProject retrieves a project by id
func (r *ClientRepository) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects returns all projects for a client
func (r *ClientRepository) ListProjects(ctx context.Context, clientID int64) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("name ASC").
		Find(&projects).Error
	return projects, err
}
