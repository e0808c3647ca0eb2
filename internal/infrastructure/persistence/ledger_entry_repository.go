package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/clientdesk/backend/internal/domain/finance"
	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/clientdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLedgerEntryRepository implements LedgerEntryRepository using GORM
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// Create persists a new ledger entry
func (r *GormLedgerEntryRepository) Create(ctx context.Context, entry *finance.LedgerEntry) error {
	model := models.LedgerEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// Save persists an updated ledger entry
func (r *GormLedgerEntryRepository) Save(ctx context.Context, entry *finance.LedgerEntry) error {
	model := models.LedgerEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByIDForOrg finds a ledger entry by ID for a specific organization
func (r *GormLedgerEntryRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*finance.LedgerEntry, error) {
	var model models.LedgerEntryModel
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

// FindAllForOrg finds all ledger entries for an organization with filtering
func (r *GormLedgerEntryRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter finance.LedgerEntryFilter) ([]*finance.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("org_id = ?", orgID)
	query = r.applyFilterWithoutPagination(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, LedgerEntrySortFields, "date")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	var entryModels []models.LedgerEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, 0, err
	}
	entries := make([]*finance.LedgerEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, total, nil
}

// FindIncomeDuplicate probes for an existing income entry with the same
// date, amount and client. Dates are compared by calendar day.
func (r *GormLedgerEntryRepository) FindIncomeDuplicate(ctx context.Context, orgID uuid.UUID, date time.Time, amount decimal.Decimal, clientID *uuid.UUID) (*finance.LedgerEntry, error) {
	dayStart, dayEnd := dayBounds(date)
	query := r.db.WithContext(ctx).
		Where("org_id = ? AND type = ? AND amount = ?", orgID, finance.EntryTypeIncome, amount).
		Where("date >= ? AND date < ?", dayStart, dayEnd)
	if clientID != nil {
		query = query.Where("client_id = ?", *clientID)
	} else {
		query = query.Where("client_id IS NULL")
	}

	var model models.LedgerEntryModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindExpenseDuplicate probes for an existing expense entry with the same
// date, amount and description prefix
func (r *GormLedgerEntryRepository) FindExpenseDuplicate(ctx context.Context, orgID uuid.UUID, date time.Time, amount decimal.Decimal, descriptionPrefix string) (*finance.LedgerEntry, error) {
	dayStart, dayEnd := dayBounds(date)
	var model models.LedgerEntryModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND type = ? AND amount = ?", orgID, finance.EntryTypeExpense, amount).
		Where("date >= ? AND date < ?", dayStart, dayEnd).
		Where("description LIKE ? ESCAPE '\\'", escapeLike(descriptionPrefix)+"%").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindUnlinkedIncome finds income entries with no invoice reference
func (r *GormLedgerEntryRepository) FindUnlinkedIncome(ctx context.Context, orgID uuid.UUID) ([]*finance.LedgerEntry, error) {
	var entryModels []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND type = ? AND invoice_id IS NULL", orgID, finance.EntryTypeIncome).
		Order("date ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]*finance.LedgerEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

// CountByInvoice counts ledger entries linked to an invoice
func (r *GormLedgerEntryRepository) CountByInvoice(ctx context.Context, orgID, invoiceID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("org_id = ? AND invoice_id = ?", orgID, invoiceID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumByTypeForPeriod sums entry amounts of a direction within a period
func (r *GormLedgerEntryRepository) SumByTypeForPeriod(ctx context.Context, orgID uuid.UUID, entryType finance.EntryType, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("org_id = ? AND type = ? AND date >= ? AND date < ?", orgID, entryType, from, to).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormLedgerEntryRepository) applyFilterWithoutPagination(query *gorm.DB, filter finance.LedgerEntryFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("description LIKE ? OR category LIKE ?", searchPattern, searchPattern)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}
	return query
}

// escapeLike neutralizes LIKE wildcards so a description prefix only
// matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func dayBounds(date time.Time) (time.Time, time.Time) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return dayStart, dayStart.AddDate(0, 0, 1)
}

// Ensure GormLedgerEntryRepository implements LedgerEntryRepository
var _ finance.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)
