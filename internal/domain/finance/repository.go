package finance

import (
	"context"
	"time"

	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryFilter defines filtering options for ledger queries
type LedgerEntryFilter struct {
	shared.Filter
	Type      *EntryType  // Filter by direction
	Category  *string     // Filter by category
	ClientID  *uuid.UUID  // Filter by client
	InvoiceID *uuid.UUID  // Filter by linked invoice
	FromDate  *time.Time  // Filter by entry date range start
	ToDate    *time.Time  // Filter by entry date range end
}

// LedgerEntryRepository defines persistence for ledger entries
type LedgerEntryRepository interface {
	// Create persists a new ledger entry
	Create(ctx context.Context, entry *LedgerEntry) error

	// Save persists an updated ledger entry
	Save(ctx context.Context, entry *LedgerEntry) error

	// FindByIDForOrg retrieves an entry scoped to an organization
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*LedgerEntry, error)

	// FindAllForOrg lists entries for an organization
	FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter LedgerEntryFilter) ([]*LedgerEntry, int64, error)

	// FindIncomeDuplicate probes for an existing income entry with the
	// same date, amount and client (client may be nil for unidentified
	// payers). Used by the statement importer to skip re-imports.
	FindIncomeDuplicate(ctx context.Context, orgID uuid.UUID, date time.Time, amount decimal.Decimal, clientID *uuid.UUID) (*LedgerEntry, error)

	// FindExpenseDuplicate probes for an existing expense entry with the
	// same date, amount and description prefix (first 50 characters)
	FindExpenseDuplicate(ctx context.Context, orgID uuid.UUID, date time.Time, amount decimal.Decimal, descriptionPrefix string) (*LedgerEntry, error)

	// FindUnlinkedIncome lists income entries with no invoice reference
	FindUnlinkedIncome(ctx context.Context, orgID uuid.UUID) ([]*LedgerEntry, error)

	// CountByInvoice counts ledger entries linked to an invoice
	CountByInvoice(ctx context.Context, orgID, invoiceID uuid.UUID) (int64, error)

	// SumByTypeForPeriod sums entry amounts of a direction within a period
	SumByTypeForPeriod(ctx context.Context, orgID uuid.UUID, entryType EntryType, from, to time.Time) (decimal.Decimal, error)
}
