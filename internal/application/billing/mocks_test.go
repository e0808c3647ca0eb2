package billing

import (
	"context"
	"time"

	"github.com/clientdesk/backend/internal/domain/billing"
	"github.com/clientdesk/backend/internal/domain/finance"
	"github.com/clientdesk/backend/internal/domain/partner"
	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockInvoiceRepository is a mock implementation of billing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, orgID uuid.UUID, number string) (*billing.Invoice, error) {
	args := m.Called(ctx, orgID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter billing.InvoiceFilter) ([]*billing.Invoice, int64, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).([]*billing.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) FindExistingForClientPeriod(ctx context.Context, orgID, clientID uuid.UUID, periodStart, periodEnd time.Time) (*billing.Invoice, error) {
	args := m.Called(ctx, orgID, clientID, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOpenByClient(ctx context.Context, orgID, clientID uuid.UUID) ([]*billing.Invoice, error) {
	args := m.Called(ctx, orgID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindMatchingOpenInvoice(ctx context.Context, orgID, clientID uuid.UUID, amount, tolerance decimal.Decimal) (*billing.Invoice, error) {
	args := m.Called(ctx, orgID, clientID, amount, tolerance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountOutstandingForClient(ctx context.Context, orgID, clientID uuid.UUID) (int64, error) {
	args := m.Called(ctx, orgID, clientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) FindDueInPeriod(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]*billing.Invoice, error) {
	args := m.Called(ctx, orgID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOpenPastDue(ctx context.Context, orgID uuid.UUID, now time.Time) ([]*billing.Invoice, error) {
	args := m.Called(ctx, orgID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindPaidWithoutPayment(ctx context.Context, orgID uuid.UUID) ([]*billing.Invoice, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindWithMultipleLedgerEntries(ctx context.Context, orgID uuid.UUID) ([]*billing.Invoice, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) NextSequenceForPeriod(ctx context.Context, orgID uuid.UUID, periodStart, periodEnd time.Time) (int64, error) {
	args := m.Called(ctx, orgID, periodStart, periodEnd)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentRepository is a mock implementation of billing.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByInvoice(ctx context.Context, orgID, invoiceID uuid.UUID) ([]*billing.Payment, error) {
	args := m.Called(ctx, orgID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindRecentPaid(ctx context.Context, orgID, invoiceID uuid.UUID, amount decimal.Decimal, since time.Time) (*billing.Payment, error) {
	args := m.Called(ctx, orgID, invoiceID, amount, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CountPaidForInvoice(ctx context.Context, orgID, invoiceID uuid.UUID) (int64, error) {
	args := m.Called(ctx, orgID, invoiceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) SumPaidForPeriod(ctx context.Context, orgID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, orgID, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockInstallmentRepository is a mock implementation of billing.InstallmentRepository
type MockInstallmentRepository struct {
	mock.Mock
}

func (m *MockInstallmentRepository) CreateBatch(ctx context.Context, installments []*billing.Installment) error {
	args := m.Called(ctx, installments)
	return args.Error(0)
}

func (m *MockInstallmentRepository) Save(ctx context.Context, installment *billing.Installment) error {
	args := m.Called(ctx, installment)
	return args.Error(0)
}

func (m *MockInstallmentRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*billing.Installment, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) FindByClient(ctx context.Context, orgID, clientID uuid.UUID) ([]*billing.Installment, error) {
	args := m.Called(ctx, orgID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) ExistsForClient(ctx context.Context, orgID, clientID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orgID, clientID)
	return args.Bool(0), args.Error(1)
}

// MockLedgerEntryRepository is a mock implementation of finance.LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Create(ctx context.Context, entry *finance.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) Save(ctx context.Context, entry *finance.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*finance.LedgerEntry, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter finance.LedgerEntryFilter) ([]*finance.LedgerEntry, int64, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).([]*finance.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerEntryRepository) FindIncomeDuplicate(ctx context.Context, orgID uuid.UUID, date time.Time, amount decimal.Decimal, clientID *uuid.UUID) (*finance.LedgerEntry, error) {
	args := m.Called(ctx, orgID, date, amount, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) FindExpenseDuplicate(ctx context.Context, orgID uuid.UUID, date time.Time, amount decimal.Decimal, descriptionPrefix string) (*finance.LedgerEntry, error) {
	args := m.Called(ctx, orgID, date, amount, descriptionPrefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) FindUnlinkedIncome(ctx context.Context, orgID uuid.UUID) ([]*finance.LedgerEntry, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*finance.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) CountByInvoice(ctx context.Context, orgID, invoiceID uuid.UUID) (int64, error) {
	args := m.Called(ctx, orgID, invoiceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerEntryRepository) SumByTypeForPeriod(ctx context.Context, orgID uuid.UUID, entryType finance.EntryType, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, orgID, entryType, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockClientRepository is a mock implementation of partner.ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Save(ctx context.Context, client *partner.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*partner.Client, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Client), args.Error(1)
}

func (m *MockClientRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]*partner.Client, int64, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).([]*partner.Client), args.Get(1).(int64), args.Error(2)
}

func (m *MockClientRepository) FindByTaxID(ctx context.Context, orgID uuid.UUID, taxID string) (*partner.Client, error) {
	args := m.Called(ctx, orgID, taxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Client), args.Error(1)
}

func (m *MockClientRepository) SearchByName(ctx context.Context, orgID uuid.UUID, name string) (*partner.Client, error) {
	args := m.Called(ctx, orgID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Client), args.Error(1)
}

func (m *MockClientRepository) UpdatePaymentStatus(ctx context.Context, orgID, clientID uuid.UUID, status partner.ClientPaymentStatus) error {
	args := m.Called(ctx, orgID, clientID, status)
	return args.Error(0)
}
