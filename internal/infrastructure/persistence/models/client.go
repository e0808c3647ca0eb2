package models

import (
	"time"

	"github.com/clientdesk/backend/internal/domain/partner"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ClientModel is the persistence model for the Client aggregate root.
type ClientModel struct {
	OrgAggregateModel
	Name             string                      `gorm:"type:varchar(200);not null;index"`
	Email            string                      `gorm:"type:varchar(200)"`
	TaxID            string                      `gorm:"type:varchar(14);index"`
	ContractValue    decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	Currency         valueobject.Currency        `gorm:"type:varchar(3);not null;default:'BRL'"`
	IsInstallment    bool                        `gorm:"not null;default:false"`
	InstallmentCount int                         `gorm:"not null;default:0"`
	PaymentDay       int                         `gorm:"not null;default:5"`
	PaymentStatus    partner.ClientPaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ContractStart    *time.Time
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client.
func (m *ClientModel) ToDomain() *partner.Client {
	c := &partner.Client{
		Name:             m.Name,
		Email:            m.Email,
		TaxID:            m.TaxID,
		ContractValue:    m.ContractValue,
		Currency:         m.Currency,
		IsInstallment:    m.IsInstallment,
		InstallmentCount: m.InstallmentCount,
		PaymentDay:       m.PaymentDay,
		PaymentStatus:    m.PaymentStatus,
		ContractStart:    m.ContractStart,
	}
	m.PopulateOrgAggregateRoot(&c.OrgAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Client.
func (m *ClientModel) FromDomain(c *partner.Client) {
	m.FromDomainOrgAggregateRoot(c.OrgAggregateRoot)
	m.Name = c.Name
	m.Email = c.Email
	m.TaxID = c.TaxID
	m.ContractValue = c.ContractValue
	m.Currency = c.Currency
	m.IsInstallment = c.IsInstallment
	m.InstallmentCount = c.InstallmentCount
	m.PaymentDay = c.PaymentDay
	m.PaymentStatus = c.PaymentStatus
	m.ContractStart = c.ContractStart
}

// ClientModelFromDomain creates a new persistence model from a domain Client.
func ClientModelFromDomain(c *partner.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}
