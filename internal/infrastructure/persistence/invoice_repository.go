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

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking on the version column
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// FindByIDForOrg finds an invoice by ID for a specific organization
func (r *GormInvoiceRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByNumber finds an invoice by its business number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, orgID uuid.UUID, number string) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND number = ?", orgID, number).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAllForOrg finds all invoices for an organization with filtering
func (r *GormInvoiceRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter billing.InvoiceFilter) ([]*billing.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("org_id = ?", orgID)
	query = r.applyFilterWithoutPagination(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	var invoiceModels []models.InvoiceModel
	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainInvoices(invoiceModels, total)
}

// FindExistingForClientPeriod finds the non-void invoice already covering
// a client's billing period, if any
func (r *GormInvoiceRepository) FindExistingForClientPeriod(ctx context.Context, orgID, clientID uuid.UUID, periodStart, periodEnd time.Time) (*billing.Invoice, error) {
	var model models.InvoiceModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND client_id = ? AND status <> ? AND deleted_at IS NULL", orgID, clientID, billing.InvoiceStatusVoid).
		Where("issue_date >= ? AND issue_date < ?", periodStart, periodEnd).
		Order("issue_date ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindOpenByClient finds OPEN/OVERDUE invoices for a client ordered by due date
func (r *GormInvoiceRepository) FindOpenByClient(ctx context.Context, orgID, clientID uuid.UUID) ([]*billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND client_id = ? AND status IN ? AND deleted_at IS NULL", orgID, clientID, outstandingStatuses()).
		Order("due_date ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices, _, err := toDomainInvoices(invoiceModels, 0)
	return invoices, err
}

// FindMatchingOpenInvoice finds the earliest-due OPEN/OVERDUE invoice for a
// client whose total is within tolerance of the given amount
func (r *GormInvoiceRepository) FindMatchingOpenInvoice(ctx context.Context, orgID, clientID uuid.UUID, amount, tolerance decimal.Decimal) (*billing.Invoice, error) {
	var model models.InvoiceModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND client_id = ? AND status IN ? AND deleted_at IS NULL", orgID, clientID, outstandingStatuses()).
		Where("total BETWEEN ? AND ?", amount.Sub(tolerance), amount.Add(tolerance)).
		Order("due_date ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain()
}

// CountOutstandingForClient counts OPEN/OVERDUE invoices for a client
func (r *GormInvoiceRepository) CountOutstandingForClient(ctx context.Context, orgID, clientID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("org_id = ? AND client_id = ? AND status IN ? AND deleted_at IS NULL", orgID, clientID, outstandingStatuses()).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindDueInPeriod finds outstanding invoices due within the period
func (r *GormInvoiceRepository) FindDueInPeriod(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]*billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND status IN ? AND deleted_at IS NULL", orgID, outstandingStatuses()).
		Where("due_date >= ? AND due_date <= ?", from, to).
		Order("due_date ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices, _, err := toDomainInvoices(invoiceModels, 0)
	return invoices, err
}

// FindOpenPastDue finds OPEN invoices whose due date is before now
func (r *GormInvoiceRepository) FindOpenPastDue(ctx context.Context, orgID uuid.UUID, now time.Time) ([]*billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND status = ? AND due_date < ? AND deleted_at IS NULL", orgID, billing.InvoiceStatusOpen, now).
		Order("due_date ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices, _, err := toDomainInvoices(invoiceModels, 0)
	return invoices, err
}

// FindPaidWithoutPayment finds PAID invoices that have no PAID payment row
func (r *GormInvoiceRepository) FindPaidWithoutPayment(ctx context.Context, orgID uuid.UUID) ([]*billing.Invoice, error) {
	paidPayments := r.db.Model(&models.PaymentModel{}).
		Select("invoice_id").
		Where("org_id = ? AND status = ?", orgID, billing.PaymentStatusPaid)

	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND status = ? AND deleted_at IS NULL", orgID, billing.InvoiceStatusPaid).
		Where("id NOT IN (?)", paidPayments).
		Order("paid_at ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices, _, err := toDomainInvoices(invoiceModels, 0)
	return invoices, err
}

// FindWithMultipleLedgerEntries finds invoices linked by more than one ledger entry
func (r *GormInvoiceRepository) FindWithMultipleLedgerEntries(ctx context.Context, orgID uuid.UUID) ([]*billing.Invoice, error) {
	multiLinked := r.db.Model(&models.LedgerEntryModel{}).
		Select("invoice_id").
		Where("org_id = ? AND invoice_id IS NOT NULL", orgID).
		Group("invoice_id").
		Having("COUNT(*) > 1")

	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id IN (?)", orgID, multiLinked).
		Order("created_at ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices, _, err := toDomainInvoices(invoiceModels, 0)
	return invoices, err
}

// NextSequenceForPeriod returns the next invoice sequence number within a month.
// Void and deleted invoices still count so their numbers are never reused.
func (r *GormInvoiceRepository) NextSequenceForPeriod(ctx context.Context, orgID uuid.UUID, periodStart, periodEnd time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("org_id = ? AND issue_date >= ? AND issue_date < ?", orgID, periodStart, periodEnd).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count + 1, nil
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter billing.InvoiceFilter) *gorm.DB {
	if !filter.IncludeDeleted {
		query = query.Where("deleted_at IS NULL")
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	return query
}

func outstandingStatuses() []billing.InvoiceStatus {
	return []billing.InvoiceStatus{billing.InvoiceStatusOpen, billing.InvoiceStatusOverdue}
}

func toDomainInvoices(invoiceModels []models.InvoiceModel, total int64) ([]*billing.Invoice, int64, error) {
	invoices := make([]*billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoice, err := invoiceModels[i].ToDomain()
		if err != nil {
			return nil, 0, err
		}
		invoices[i] = invoice
	}
	return invoices, total, nil
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
