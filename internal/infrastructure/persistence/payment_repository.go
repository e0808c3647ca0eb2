package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/clientdesk/backend/internal/domain/billing"
	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/clientdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create persists a new payment record
func (r *GormPaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByIDForOrg finds a payment by ID for a specific organization
func (r *GormPaymentRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
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

// FindByInvoice finds payments recorded against an invoice
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, orgID, invoiceID uuid.UUID) ([]*billing.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND invoice_id = ?", orgID, invoiceID).
		Order("paid_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]*billing.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = paymentModels[i].ToDomain()
	}
	return payments, nil
}

// FindRecentPaid finds a PAID payment for the invoice with the same amount
// recorded at or after since. Used as the idempotency probe for
// double-submitted payment requests.
func (r *GormPaymentRepository) FindRecentPaid(ctx context.Context, orgID, invoiceID uuid.UUID, amount decimal.Decimal, since time.Time) (*billing.Payment, error) {
	var model models.PaymentModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND invoice_id = ? AND status = ?", orgID, invoiceID, billing.PaymentStatusPaid).
		Where("amount = ? AND created_at >= ?", amount, since).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// CountPaidForInvoice counts PAID payments against an invoice
func (r *GormPaymentRepository) CountPaidForInvoice(ctx context.Context, orgID, invoiceID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("org_id = ? AND invoice_id = ? AND status = ?", orgID, invoiceID, billing.PaymentStatusPaid).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumPaidForPeriod sums PAID payment amounts recorded in the period
func (r *GormPaymentRepository) SumPaidForPeriod(ctx context.Context, orgID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("org_id = ? AND status = ? AND paid_at >= ? AND paid_at < ?", orgID, billing.PaymentStatusPaid, from, to).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
