package persistence

import (
	"context"
	"errors"

	"github.com/clientdesk/backend/internal/domain/partner"
	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/clientdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormClientRepository implements ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// Save creates or updates a client
func (r *GormClientRepository) Save(ctx context.Context, client *partner.Client) error {
	model := models.ClientModelFromDomain(client)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByIDForOrg finds a client by ID for a specific organization
func (r *GormClientRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*partner.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForOrg finds all clients for an organization with filtering
func (r *GormClientRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]*partner.Client, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ClientModel{}).
		Where("org_id = ?", orgID)
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		if normalized := partner.NormalizeTaxID(filter.Search); normalized != "" {
			query = query.Where("LOWER(name) LIKE LOWER(?) OR tax_id = ?", searchPattern, normalized)
		} else {
			query = query.Where("LOWER(name) LIKE LOWER(?)", searchPattern)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, ClientSortFields, "name")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	var clientModels []models.ClientModel
	if err := query.Find(&clientModels).Error; err != nil {
		return nil, 0, err
	}
	clients := make([]*partner.Client, len(clientModels))
	for i := range clientModels {
		clients[i] = clientModels[i].ToDomain()
	}
	return clients, total, nil
}

// FindByTaxID finds a client by exact CPF/CNPJ match (digits only)
func (r *GormClientRepository) FindByTaxID(ctx context.Context, orgID uuid.UUID, taxID string) (*partner.Client, error) {
	normalized := partner.NormalizeTaxID(taxID)
	if normalized == "" {
		return nil, nil
	}

	var model models.ClientModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND tax_id = ?", orgID, normalized).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SearchByName finds the best case-insensitive partial name match.
// Shorter names rank first so the tightest match wins.
func (r *GormClientRepository) SearchByName(ctx context.Context, orgID uuid.UUID, name string) (*partner.Client, error) {
	var model models.ClientModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND LOWER(name) LIKE LOWER(?)", orgID, "%"+name+"%").
		Order("LENGTH(name) ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdatePaymentStatus persists only the derived payment status
func (r *GormClientRepository) UpdatePaymentStatus(ctx context.Context, orgID, clientID uuid.UUID, status partner.ClientPaymentStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.ClientModel{}).
		Where("org_id = ? AND id = ?", orgID, clientID).
		Update("payment_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormClientRepository implements ClientRepository
var _ partner.ClientRepository = (*GormClientRepository)(nil)
