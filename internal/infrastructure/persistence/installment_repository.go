package persistence

import (
	"context"
	"errors"

	"github.com/clientdesk/backend/internal/domain/billing"
	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/clientdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInstallmentRepository implements InstallmentRepository using GORM
type GormInstallmentRepository struct {
	db *gorm.DB
}

// NewGormInstallmentRepository creates a new GormInstallmentRepository
func NewGormInstallmentRepository(db *gorm.DB) *GormInstallmentRepository {
	return &GormInstallmentRepository{db: db}
}

// CreateBatch persists a generated schedule atomically
func (r *GormInstallmentRepository) CreateBatch(ctx context.Context, installments []*billing.Installment) error {
	if len(installments) == 0 {
		return nil
	}
	installmentModels := make([]models.InstallmentModel, len(installments))
	for i, inst := range installments {
		installmentModels[i].FromDomain(inst)
	}
	return r.db.WithContext(ctx).Create(&installmentModels).Error
}

// Save persists an updated installment
func (r *GormInstallmentRepository) Save(ctx context.Context, installment *billing.Installment) error {
	model := models.InstallmentModelFromDomain(installment)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByIDForOrg finds an installment by ID for a specific organization
func (r *GormInstallmentRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*billing.Installment, error) {
	var model models.InstallmentModel
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

// FindByClient finds a client's installments ordered by number
func (r *GormInstallmentRepository) FindByClient(ctx context.Context, orgID, clientID uuid.UUID) ([]*billing.Installment, error) {
	var installmentModels []models.InstallmentModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND client_id = ?", orgID, clientID).
		Order("number ASC").
		Find(&installmentModels).Error; err != nil {
		return nil, err
	}
	installments := make([]*billing.Installment, len(installmentModels))
	for i := range installmentModels {
		installments[i] = installmentModels[i].ToDomain()
	}
	return installments, nil
}

// ExistsForClient reports whether the client already has a schedule
func (r *GormInstallmentRepository) ExistsForClient(ctx context.Context, orgID, clientID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InstallmentModel{}).
		Where("org_id = ? AND client_id = ?", orgID, clientID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormInstallmentRepository implements InstallmentRepository
var _ billing.InstallmentRepository = (*GormInstallmentRepository)(nil)
