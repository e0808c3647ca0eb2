package models

import (
	"time"

	"github.com/clientdesk/backend/internal/domain/billing"
	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	OrgAggregateModel
	Number      string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_org_number,priority:2"`
	ClientID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	Status      billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Currency    valueobject.Currency  `gorm:"type:varchar(3);not null;default:'BRL'"`
	Subtotal    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Discount    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Tax         decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Total       decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	IssueDate   time.Time             `gorm:"not null;index"`
	DueDate     time.Time             `gorm:"not null;index"`
	Description string                `gorm:"type:text"`
	PaidAt      *time.Time
	CancelledAt *time.Time
	DeletedAt   *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice. Restoration
// re-checks the monetary invariant, so corrupt rows surface as errors.
func (m *InvoiceModel) ToDomain() (*billing.Invoice, error) {
	var root shared.OrgAggregateRoot
	m.PopulateOrgAggregateRoot(&root)
	return billing.RestoreInvoice(
		root,
		m.Number,
		m.ClientID,
		m.Status,
		m.Currency,
		m.Subtotal, m.Discount, m.Tax, m.Total,
		m.IssueDate, m.DueDate,
		m.Description,
		m.PaidAt, m.CancelledAt, m.DeletedAt,
	)
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainOrgAggregateRoot(inv.OrgAggregateRoot)
	m.Number = inv.Number
	m.ClientID = inv.ClientID
	m.Status = inv.Status
	m.Currency = inv.Currency
	m.Subtotal = inv.Subtotal
	m.Discount = inv.Discount
	m.Tax = inv.Tax
	m.Total = inv.Total
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.Description = inv.Description
	m.PaidAt = inv.PaidAt
	m.CancelledAt = inv.CancelledAt
	m.DeletedAt = inv.DeletedAt
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// PaymentModel is the persistence model for payment records.
type PaymentModel struct {
	OrgAggregateModel
	InvoiceID uuid.UUID             `gorm:"type:uuid;not null;index"`
	ClientID  uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Currency  valueobject.Currency  `gorm:"type:varchar(3);not null;default:'BRL'"`
	Method    billing.PaymentMethod `gorm:"type:varchar(20);not null"`
	Status    billing.PaymentStatus `gorm:"type:varchar(20);not null;default:'PAID';index"`
	Provider  string                `gorm:"type:varchar(50)"`
	PaidAt    time.Time             `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		InvoiceID: m.InvoiceID,
		ClientID:  m.ClientID,
		Amount:    m.Amount,
		Currency:  m.Currency,
		Method:    m.Method,
		Status:    m.Status,
		Provider:  m.Provider,
		PaidAt:    m.PaidAt,
	}
	m.PopulateOrgAggregateRoot(&p.OrgAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainOrgAggregateRoot(p.OrgAggregateRoot)
	m.InvoiceID = p.InvoiceID
	m.ClientID = p.ClientID
	m.Amount = p.Amount
	m.Currency = p.Currency
	m.Method = p.Method
	m.Status = p.Status
	m.Provider = p.Provider
	m.PaidAt = p.PaidAt
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// InstallmentModel is the persistence model for contract installments.
type InstallmentModel struct {
	OrgAggregateModel
	ClientID uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_installment_client_number,priority:1"`
	Number   int                       `gorm:"not null;uniqueIndex:idx_installment_client_number,priority:2"`
	Amount   decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	Currency valueobject.Currency      `gorm:"type:varchar(3);not null;default:'BRL'"`
	DueDate  time.Time                 `gorm:"not null;index"`
	Status   billing.InstallmentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaidAt   *time.Time
}

// TableName returns the table name for GORM
func (InstallmentModel) TableName() string {
	return "installments"
}

// ToDomain converts the persistence model to a domain Installment.
func (m *InstallmentModel) ToDomain() *billing.Installment {
	inst := &billing.Installment{
		ClientID: m.ClientID,
		Number:   m.Number,
		Amount:   m.Amount,
		Currency: m.Currency,
		DueDate:  m.DueDate,
		Status:   m.Status,
		PaidAt:   m.PaidAt,
	}
	m.PopulateOrgAggregateRoot(&inst.OrgAggregateRoot)
	return inst
}

// FromDomain populates the persistence model from a domain Installment.
func (m *InstallmentModel) FromDomain(inst *billing.Installment) {
	m.FromDomainOrgAggregateRoot(inst.OrgAggregateRoot)
	m.ClientID = inst.ClientID
	m.Number = inst.Number
	m.Amount = inst.Amount
	m.Currency = inst.Currency
	m.DueDate = inst.DueDate
	m.Status = inst.Status
	m.PaidAt = inst.PaidAt
}

// InstallmentModelFromDomain creates a new persistence model from a domain Installment.
func InstallmentModelFromDomain(inst *billing.Installment) *InstallmentModel {
	m := &InstallmentModel{}
	m.FromDomain(inst)
	return m
}
