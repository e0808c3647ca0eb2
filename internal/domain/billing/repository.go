package billing

import (
	"context"
	"time"

	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	ClientID       *uuid.UUID
	Status         *InvoiceStatus
	DueFrom        *time.Time
	DueTo          *time.Time
	IncludeDeleted bool
}

// InvoiceRepository defines persistence for the invoice aggregate
type InvoiceRepository interface {
	// Save persists a new or updated invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock persists with optimistic concurrency on the version column
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// FindByIDForOrg retrieves an invoice scoped to an organization
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*Invoice, error)

	// FindByNumber retrieves an invoice by its business number
	FindByNumber(ctx context.Context, orgID uuid.UUID, number string) (*Invoice, error)

	// FindAllForOrg lists invoices for an organization
	FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter InvoiceFilter) ([]*Invoice, int64, error)

	// FindExistingForClientPeriod returns the non-void invoice already
	// covering a client's billing period, if any
	FindExistingForClientPeriod(ctx context.Context, orgID, clientID uuid.UUID, periodStart, periodEnd time.Time) (*Invoice, error)

	// FindOpenByClient lists OPEN/OVERDUE invoices for a client ordered by due date ascending
	FindOpenByClient(ctx context.Context, orgID, clientID uuid.UUID) ([]*Invoice, error)

	// FindMatchingOpenInvoice finds the earliest-due OPEN/OVERDUE invoice
	// for a client whose total is within tolerance of the given amount
	FindMatchingOpenInvoice(ctx context.Context, orgID, clientID uuid.UUID, amount, tolerance decimal.Decimal) (*Invoice, error)

	// CountOutstandingForClient counts OPEN/OVERDUE invoices for a client
	CountOutstandingForClient(ctx context.Context, orgID, clientID uuid.UUID) (int64, error)

	// FindDueInPeriod lists outstanding invoices due within the period
	FindDueInPeriod(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]*Invoice, error)

	// FindOpenPastDue lists OPEN invoices whose due date is before now (for the overdue sweep)
	FindOpenPastDue(ctx context.Context, orgID uuid.UUID, now time.Time) ([]*Invoice, error)

	// FindPaidWithoutPayment lists PAID invoices that have no PAID payment row
	FindPaidWithoutPayment(ctx context.Context, orgID uuid.UUID) ([]*Invoice, error)

	// FindWithMultipleLedgerEntries lists invoices linked by more than one ledger entry
	FindWithMultipleLedgerEntries(ctx context.Context, orgID uuid.UUID) ([]*Invoice, error)

	// NextSequenceForPeriod returns the next invoice sequence number for
	// auto-generated invoice numbers within a month
	NextSequenceForPeriod(ctx context.Context, orgID uuid.UUID, periodStart, periodEnd time.Time) (int64, error)
}

// PaymentRepository defines persistence for payment records
type PaymentRepository interface {
	// Create persists a new payment record
	Create(ctx context.Context, payment *Payment) error

	// FindByIDForOrg retrieves a payment scoped to an organization
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*Payment, error)

	// FindByInvoice lists payments recorded against an invoice
	FindByInvoice(ctx context.Context, orgID, invoiceID uuid.UUID) ([]*Payment, error)

	// FindRecentPaid returns a PAID payment for the invoice with the same
	// amount recorded at or after since, if one exists. Used as the
	// idempotency probe for double-submitted payment requests.
	FindRecentPaid(ctx context.Context, orgID, invoiceID uuid.UUID, amount decimal.Decimal, since time.Time) (*Payment, error)

	// CountPaidForInvoice counts PAID payments against an invoice
	CountPaidForInvoice(ctx context.Context, orgID, invoiceID uuid.UUID) (int64, error)

	// SumPaidForPeriod sums PAID payment amounts recorded in the period
	SumPaidForPeriod(ctx context.Context, orgID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}

// InstallmentRepository defines persistence for installment schedules
type InstallmentRepository interface {
	// CreateBatch persists a generated schedule atomically
	CreateBatch(ctx context.Context, installments []*Installment) error

	// Save persists an updated installment
	Save(ctx context.Context, installment *Installment) error

	// FindByIDForOrg retrieves an installment scoped to an organization
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*Installment, error)

	// FindByClient lists a client's installments ordered by number
	FindByClient(ctx context.Context, orgID, clientID uuid.UUID) ([]*Installment, error)

	// ExistsForClient reports whether the client already has a schedule
	ExistsForClient(ctx context.Context, orgID, clientID uuid.UUID) (bool, error)
}

// DefaultInvoiceFilter returns an invoice filter with default paging
func DefaultInvoiceFilter() InvoiceFilter {
	return InvoiceFilter{Filter: shared.DefaultFilter()}
}
