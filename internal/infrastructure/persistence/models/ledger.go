package models

import (
	"time"

	"github.com/clientdesk/backend/internal/domain/finance"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryModel is the persistence model for ledger entries.
type LedgerEntryModel struct {
	OrgAggregateModel
	Type        finance.EntryType    `gorm:"type:varchar(10);not null;index"`
	Amount      decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency    valueobject.Currency `gorm:"type:varchar(3);not null;default:'BRL'"`
	Description string               `gorm:"type:text;not null"`
	Category    string               `gorm:"type:varchar(100);index"`
	Date        time.Time            `gorm:"not null;index"`
	ClientID    *uuid.UUID           `gorm:"type:uuid;index"`
	InvoiceID   *uuid.UUID           `gorm:"type:uuid;index"`
	Metadata    finance.Metadata     `gorm:"type:jsonb;default:'{}'"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry.
func (m *LedgerEntryModel) ToDomain() *finance.LedgerEntry {
	e := &finance.LedgerEntry{
		Type:        m.Type,
		Amount:      m.Amount,
		Currency:    m.Currency,
		Description: m.Description,
		Category:    m.Category,
		Date:        m.Date,
		ClientID:    m.ClientID,
		InvoiceID:   m.InvoiceID,
		Metadata:    m.Metadata,
	}
	if e.Metadata == nil {
		e.Metadata = finance.Metadata{}
	}
	m.PopulateOrgAggregateRoot(&e.OrgAggregateRoot)
	return e
}

// FromDomain populates the persistence model from a domain LedgerEntry.
func (m *LedgerEntryModel) FromDomain(e *finance.LedgerEntry) {
	m.FromDomainOrgAggregateRoot(e.OrgAggregateRoot)
	m.Type = e.Type
	m.Amount = e.Amount
	m.Currency = e.Currency
	m.Description = e.Description
	m.Category = e.Category
	m.Date = e.Date
	m.ClientID = e.ClientID
	m.InvoiceID = e.InvoiceID
	m.Metadata = e.Metadata
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry.
func LedgerEntryModelFromDomain(e *finance.LedgerEntry) *LedgerEntryModel {
	m := &LedgerEntryModel{}
	m.FromDomain(e)
	return m
}
