package billing

import (
	"fmt"
	"time"

	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "DRAFT"   // Created, not yet sent
	InvoiceStatusOpen    InvoiceStatus = "OPEN"    // Awaiting payment
	InvoiceStatusPaid    InvoiceStatus = "PAID"    // Fully settled
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE" // Open past its due date
	InvoiceStatusVoid    InvoiceStatus = "VOID"    // Cancelled
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusOpen, InvoiceStatusPaid,
		InvoiceStatusOverdue, InvoiceStatusVoid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusVoid
}

// IsOutstanding returns true if the invoice still awaits payment
func (s InvoiceStatus) IsOutstanding() bool {
	return s == InvoiceStatusOpen || s == InvoiceStatusOverdue
}

// InvoiceItem is a line item on an invoice
type InvoiceItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Total returns quantity * unit price for the line
func (i InvoiceItem) Total() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Invoice is the billing aggregate root. The monetary invariant
// total = subtotal - discount + tax holds at construction, on every
// value update and on restoration from storage.
type Invoice struct {
	shared.OrgAggregateRoot
	Number      string               `json:"number"`
	ClientID    uuid.UUID            `json:"client_id"`
	Status      InvoiceStatus        `json:"status"`
	Currency    valueobject.Currency `json:"currency"`
	Subtotal    decimal.Decimal      `json:"subtotal"`
	Discount    decimal.Decimal      `json:"discount"`
	Tax         decimal.Decimal      `json:"tax"`
	Total       decimal.Decimal      `json:"total"`
	IssueDate   time.Time            `json:"issue_date"`
	DueDate     time.Time            `json:"due_date"`
	Description string               `json:"description"`
	PaidAt      *time.Time           `json:"paid_at"`
	CancelledAt *time.Time           `json:"cancelled_at"`
	DeletedAt   *time.Time           `json:"deleted_at"`
}

// ComputeInvoiceTotal derives subtotal and total from line items,
// applying discount and tax: total = sum(items) - discount + tax.
// Fails when the discount exceeds the items' sum.
func ComputeInvoiceTotal(items []InvoiceItem, discount, tax valueobject.Money) (subtotal, total valueobject.Money, err error) {
	currency := discount.Currency()
	sum := valueobject.Zero(currency)
	for _, item := range items {
		if item.Quantity.IsNegative() || item.UnitPrice.IsNegative() {
			return valueobject.Money{}, valueobject.Money{}, shared.NewDomainError("INVALID_ITEM", "Item quantity and unit price cannot be negative")
		}
		line, lineErr := valueobject.NewMoney(item.Total(), currency)
		if lineErr != nil {
			return valueobject.Money{}, valueobject.Money{}, lineErr
		}
		sum, err = sum.Add(line)
		if err != nil {
			return valueobject.Money{}, valueobject.Money{}, err
		}
	}

	afterDiscount, err := sum.Subtract(discount)
	if err != nil {
		return valueobject.Money{}, valueobject.Money{}, shared.NewDomainError("INVALID_DISCOUNT", fmt.Sprintf("Discount exceeds invoice subtotal: %v", err))
	}
	total, err = afterDiscount.Add(tax)
	if err != nil {
		return valueobject.Money{}, valueobject.Money{}, err
	}
	return sum, total, nil
}

// NewInvoice creates a new invoice in DRAFT status
func NewInvoice(
	orgID uuid.UUID,
	number string,
	clientID uuid.UUID,
	subtotal valueobject.Money,
	discount valueobject.Money,
	tax valueobject.Money,
	issueDate time.Time,
	dueDate time.Time,
	description string,
) (*Invoice, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(number) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if dueDate.Before(issueDate) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before issue date")
	}

	total, err := computeTotal(subtotal, discount, tax)
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Number:           number,
		ClientID:         clientID,
		Status:           InvoiceStatusDraft,
		Currency:         subtotal.Currency(),
		Subtotal:         subtotal.Amount(),
		Discount:         discount.Amount(),
		Tax:              tax.Amount(),
		Total:            total.Amount(),
		IssueDate:        issueDate,
		DueDate:          dueDate,
		Description:      description,
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// RestoreInvoice rebuilds an invoice from persisted state, re-checking
// the monetary invariant. Corrupt rows surface as errors instead of
// silently flowing through payment paths.
func RestoreInvoice(
	root shared.OrgAggregateRoot,
	number string,
	clientID uuid.UUID,
	status InvoiceStatus,
	currency valueobject.Currency,
	subtotal, discount, tax, total decimal.Decimal,
	issueDate, dueDate time.Time,
	description string,
	paidAt, cancelledAt, deletedAt *time.Time,
) (*Invoice, error) {
	if !status.IsValid() {
		return nil, shared.NewDomainError("CORRUPT_INVOICE", fmt.Sprintf("Invoice %s has unknown status %q", number, status))
	}
	expected := subtotal.Sub(discount).Add(tax)
	if !expected.Equal(total) {
		return nil, shared.NewDomainError("CORRUPT_INVOICE",
			fmt.Sprintf("Invoice %s violates total invariant: %s - %s + %s != %s",
				number, subtotal.String(), discount.String(), tax.String(), total.String()))
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	return &Invoice{
		OrgAggregateRoot: root,
		Number:           number,
		ClientID:         clientID,
		Status:           status,
		Currency:         currency,
		Subtotal:         subtotal,
		Discount:         discount,
		Tax:              tax,
		Total:            total,
		IssueDate:        issueDate,
		DueDate:          dueDate,
		Description:      description,
		PaidAt:           paidAt,
		CancelledAt:      cancelledAt,
		DeletedAt:        deletedAt,
	}, nil
}

func computeTotal(subtotal, discount, tax valueobject.Money) (valueobject.Money, error) {
	afterDiscount, err := subtotal.Subtract(discount)
	if err != nil {
		return valueobject.Money{}, shared.NewDomainError("INVALID_DISCOUNT", fmt.Sprintf("Discount exceeds invoice subtotal: %v", err))
	}
	total, err := afterDiscount.Add(tax)
	if err != nil {
		return valueobject.Money{}, err
	}
	return total, nil
}

// TotalMoney returns the invoice total as Money
func (inv *Invoice) TotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(inv.Total, inv.Currency)
	return m
}

// IsDeleted returns true if the invoice has been soft deleted
func (inv *Invoice) IsDeleted() bool {
	return inv.DeletedAt != nil
}

// CanBeEdited returns true when values may still change
func (inv *Invoice) CanBeEdited() bool {
	return !inv.IsDeleted() && !inv.Status.IsTerminal()
}

// CanBePaid returns true when a payment may be recorded
func (inv *Invoice) CanBePaid() bool {
	return !inv.IsDeleted() && inv.Status != InvoiceStatusPaid && inv.Status != InvoiceStatusVoid
}

// CanBeCancelled returns true when the invoice may be voided
func (inv *Invoice) CanBeCancelled() bool {
	return !inv.IsDeleted() && inv.Status != InvoiceStatusPaid && inv.Status != InvoiceStatusVoid
}

// Open transitions the invoice to OPEN (awaiting payment)
func (inv *Invoice) Open() error {
	if inv.IsDeleted() {
		return shared.NewDomainError("INVALID_STATE", "Cannot open a deleted invoice")
	}
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot open invoice in %s status", inv.Status))
	}
	if inv.Status == InvoiceStatusOpen || inv.Status == InvoiceStatusOverdue {
		return nil
	}

	inv.Status = InvoiceStatusOpen
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceOpenedEvent(inv))

	return nil
}

// MarkAsPaid settles the invoice
func (inv *Invoice) MarkAsPaid(paidAt time.Time) error {
	if !inv.CanBePaid() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pay invoice in %s status", inv.Status))
	}

	inv.Status = InvoiceStatusPaid
	inv.PaidAt = &paidAt
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoicePaidEvent(inv))

	return nil
}

// Cancel voids the invoice
func (inv *Invoice) Cancel() error {
	if !inv.CanBeCancelled() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel invoice in %s status", inv.Status))
	}

	now := time.Now()
	inv.Status = InvoiceStatusVoid
	inv.CancelledAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv))

	return nil
}

// UpdateValues changes the monetary values, recomputing the total
func (inv *Invoice) UpdateValues(subtotal, discount, tax valueobject.Money) error {
	if !inv.CanBeEdited() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot update invoice in %s status", inv.Status))
	}

	total, err := computeTotal(subtotal, discount, tax)
	if err != nil {
		return err
	}

	inv.Currency = subtotal.Currency()
	inv.Subtotal = subtotal.Amount()
	inv.Discount = discount.Amount()
	inv.Tax = tax.Amount()
	inv.Total = total.Amount()
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// CheckAndUpdateOverdue flips OPEN invoices past their due date to
// OVERDUE. Idempotent; returns true when a transition happened.
func (inv *Invoice) CheckAndUpdateOverdue(now time.Time) bool {
	if inv.Status != InvoiceStatusOpen || inv.IsDeleted() {
		return false
	}
	if !now.After(inv.DueDate) {
		return false
	}

	inv.Status = InvoiceStatusOverdue
	inv.UpdatedAt = now
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceOverdueEvent(inv))

	return true
}

// SoftDelete hides the invoice. Paid invoices are immutable history
// and cannot be deleted.
func (inv *Invoice) SoftDelete() error {
	if inv.Status == InvoiceStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete a paid invoice")
	}
	if inv.IsDeleted() {
		return nil
	}

	now := time.Now()
	inv.DeletedAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()

	return nil
}
