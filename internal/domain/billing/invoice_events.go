package billing

import (
	"time"

	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceCreatedEvent is raised when a new invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientID      uuid.UUID       `json:"client_id"`
	Total         decimal.Decimal `json:"total"`
	DueDate       time.Time       `json:"due_date"`
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string {
	return "InvoiceCreated"
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceCreated", "Invoice", inv.ID, inv.OrgID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.Number,
		ClientID:        inv.ClientID,
		Total:           inv.Total,
		DueDate:         inv.DueDate,
	}
}

// InvoiceOpenedEvent is raised when an invoice becomes payable
type InvoiceOpenedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	ClientID      uuid.UUID `json:"client_id"`
}

// EventType returns the event type name
func (e *InvoiceOpenedEvent) EventType() string {
	return "InvoiceOpened"
}

// NewInvoiceOpenedEvent creates a new InvoiceOpenedEvent
func NewInvoiceOpenedEvent(inv *Invoice) *InvoiceOpenedEvent {
	return &InvoiceOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceOpened", "Invoice", inv.ID, inv.OrgID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.Number,
		ClientID:        inv.ClientID,
	}
}

// InvoicePaidEvent is raised when an invoice is settled
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientID      uuid.UUID       `json:"client_id"`
	Total         decimal.Decimal `json:"total"`
	PaidAt        time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *InvoicePaidEvent) EventType() string {
	return "InvoicePaid"
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	paidAt := time.Now()
	if inv.PaidAt != nil {
		paidAt = *inv.PaidAt
	}
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePaid", "Invoice", inv.ID, inv.OrgID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.Number,
		ClientID:        inv.ClientID,
		Total:           inv.Total,
		PaidAt:          paidAt,
	}
}

// InvoiceCancelledEvent is raised when an invoice is voided
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	ClientID      uuid.UUID `json:"client_id"`
}

// EventType returns the event type name
func (e *InvoiceCancelledEvent) EventType() string {
	return "InvoiceCancelled"
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceCancelled", "Invoice", inv.ID, inv.OrgID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.Number,
		ClientID:        inv.ClientID,
	}
}

// InvoiceOverdueEvent is raised when an open invoice passes its due date
type InvoiceOverdueEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	ClientID      uuid.UUID `json:"client_id"`
	DueDate       time.Time `json:"due_date"`
}

// EventType returns the event type name
func (e *InvoiceOverdueEvent) EventType() string {
	return "InvoiceOverdue"
}

// NewInvoiceOverdueEvent creates a new InvoiceOverdueEvent
func NewInvoiceOverdueEvent(inv *Invoice) *InvoiceOverdueEvent {
	return &InvoiceOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceOverdue", "Invoice", inv.ID, inv.OrgID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.Number,
		ClientID:        inv.ClientID,
		DueDate:         inv.DueDate,
	}
}
