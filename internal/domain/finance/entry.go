package finance

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType is the direction of a ledger entry
type EntryType string

const (
	EntryTypeIncome  EntryType = "income"
	EntryTypeExpense EntryType = "expense"
)

// IsValid checks if the entry type is valid
func (t EntryType) IsValid() bool {
	return t == EntryTypeIncome || t == EntryTypeExpense
}

// String returns the string representation of EntryType
func (t EntryType) String() string {
	return string(t)
}

// Metadata is a free-form JSONB payload attached to a ledger entry.
// Importers use it to carry provenance (source, original description,
// needs_review) without widening the table.
type Metadata map[string]interface{}

// Value implements driver.Valuer for JSONB storage
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB retrieval
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Metadata", value)
	}

	if len(bytes) == 0 {
		*m = Metadata{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// Well-known metadata keys
const (
	MetaSource              = "source"
	MetaPaymentID           = "payment_id"
	MetaNeedsReview         = "needs_review"
	MetaOriginalDescription = "original_description"
	MetaStatementIdentifier = "statement_identifier"
)

// LedgerEntry is a single income or expense record in the finance
// ledger. Income entries produced through the payment path carry the
// invoice link; standalone entries (imports, manual expenses) may not.
type LedgerEntry struct {
	shared.OrgAggregateRoot
	Type        EntryType            `json:"type"`
	Amount      decimal.Decimal      `json:"amount"` // Always positive; Type carries direction
	Currency    valueobject.Currency `json:"currency"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Date        time.Time            `json:"date"`
	ClientID    *uuid.UUID           `json:"client_id,omitempty"`
	InvoiceID   *uuid.UUID           `json:"invoice_id,omitempty"`
	Metadata    Metadata             `json:"metadata"`
}

// NewLedgerEntry creates a new ledger entry
func NewLedgerEntry(
	orgID uuid.UUID,
	entryType EntryType,
	amount valueobject.Money,
	description string,
	category string,
	date time.Time,
) (*LedgerEntry, error) {
	if !entryType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTRY_TYPE", fmt.Sprintf("Unknown entry type %q", entryType))
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Entry amount must be positive")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Entry description cannot be empty")
	}
	if date.IsZero() {
		date = time.Now()
	}

	return &LedgerEntry{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Type:             entryType,
		Amount:           amount.Amount(),
		Currency:         amount.Currency(),
		Description:      description,
		Category:         category,
		Date:             date,
		Metadata:         Metadata{},
	}, nil
}

// AmountMoney returns the entry amount as Money
func (e *LedgerEntry) AmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(e.Amount, e.Currency)
	return m
}

// IsIncome returns true for income entries
func (e *LedgerEntry) IsIncome() bool {
	return e.Type == EntryTypeIncome
}

// IsLinked returns true when the entry references an invoice
func (e *LedgerEntry) IsLinked() bool {
	return e.InvoiceID != nil
}

// LinkClient attaches the client reference
func (e *LedgerEntry) LinkClient(clientID uuid.UUID) {
	if clientID == uuid.Nil {
		return
	}
	e.ClientID = &clientID
}

// LinkInvoice attaches the invoice reference. Only income entries
// settle invoices; relinking an already linked entry is refused so
// reconciliation history stays traceable.
func (e *LedgerEntry) LinkInvoice(invoiceID uuid.UUID) error {
	if e.Type != EntryTypeIncome {
		return shared.NewDomainError("INVALID_STATE", "Only income entries can link to an invoice")
	}
	if e.InvoiceID != nil && *e.InvoiceID != invoiceID {
		return shared.NewDomainError("INVALID_STATE", "Entry is already linked to another invoice")
	}
	e.InvoiceID = &invoiceID
	return nil
}

// SetMeta stores a metadata value
func (e *LedgerEntry) SetMeta(key string, value interface{}) {
	if e.Metadata == nil {
		e.Metadata = Metadata{}
	}
	e.Metadata[key] = value
}

// MarkNeedsReview flags the entry for manual review
func (e *LedgerEntry) MarkNeedsReview() {
	e.SetMeta(MetaNeedsReview, true)
}

// NeedsReview reports whether the entry is flagged for review
func (e *LedgerEntry) NeedsReview() bool {
	v, ok := e.Metadata[MetaNeedsReview]
	if !ok {
		return false
	}
	flag, ok := v.(bool)
	return ok && flag
}
