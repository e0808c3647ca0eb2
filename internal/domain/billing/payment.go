package billing

import (
	"time"

	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the state of a payment record
type PaymentStatus string

const (
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusPending, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodPix          PaymentMethod = "PIX"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodBoleto       PaymentMethod = "BOLETO"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodPix, PaymentMethodBankTransfer, PaymentMethodCreditCard,
		PaymentMethodBoleto, PaymentMethodCash, PaymentMethodOther:
		return true
	}
	return false
}

// Payment records a settlement against an invoice. Payment rows are
// append-only; refunds are recorded as status changes, never deletions.
type Payment struct {
	shared.OrgAggregateRoot
	InvoiceID uuid.UUID            `json:"invoice_id"`
	ClientID  uuid.UUID            `json:"client_id"`
	Amount    decimal.Decimal      `json:"amount"`
	Currency  valueobject.Currency `json:"currency"`
	Method    PaymentMethod        `json:"method"`
	Status    PaymentStatus        `json:"status"`
	Provider  string               `json:"provider"`
	PaidAt    time.Time            `json:"paid_at"`
}

// NewPayment creates a new PAID payment record
func NewPayment(
	orgID uuid.UUID,
	invoiceID uuid.UUID,
	clientID uuid.UUID,
	amount valueobject.Money,
	method PaymentMethod,
	provider string,
	paidAt time.Time,
) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	return &Payment{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		InvoiceID:        invoiceID,
		ClientID:         clientID,
		Amount:           amount.Amount(),
		Currency:         amount.Currency(),
		Method:           method,
		Status:           PaymentStatusPaid,
		Provider:         provider,
		PaidAt:           paidAt,
	}, nil
}

// AmountMoney returns the payment amount as Money
func (p *Payment) AmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(p.Amount, p.Currency)
	return m
}

// MarkRefunded flags a paid payment as refunded
func (p *Payment) MarkRefunded() error {
	if p.Status != PaymentStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Only paid payments can be refunded")
	}
	p.Status = PaymentStatusRefunded
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}
