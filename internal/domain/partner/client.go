package partner

import (
	"strings"
	"time"

	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientPaymentStatus is the derived billing standing of a client
type ClientPaymentStatus string

const (
	ClientPaymentStatusPending   ClientPaymentStatus = "PENDING"   // Has outstanding invoices
	ClientPaymentStatusConfirmed ClientPaymentStatus = "CONFIRMED" // No outstanding invoices
)

// IsValid checks if the status is a valid ClientPaymentStatus
func (s ClientPaymentStatus) IsValid() bool {
	return s == ClientPaymentStatusPending || s == ClientPaymentStatusConfirmed
}

// Client is an org-scoped billable client with its contract terms
type Client struct {
	shared.OrgAggregateRoot
	Name             string               `json:"name"`
	Email            string               `json:"email"`
	TaxID            string               `json:"tax_id"` // CPF or CNPJ, digits only
	ContractValue    decimal.Decimal      `json:"contract_value"`
	Currency         valueobject.Currency `json:"currency"`
	IsInstallment    bool                 `json:"is_installment"`
	InstallmentCount int                  `json:"installment_count"`
	PaymentDay       int                  `json:"payment_day"`
	PaymentStatus    ClientPaymentStatus  `json:"payment_status"`
	ContractStart    *time.Time           `json:"contract_start,omitempty"`
}

// NormalizeTaxID strips formatting from a CPF/CNPJ, keeping digits only
func NormalizeTaxID(taxID string) string {
	var b strings.Builder
	for _, r := range taxID {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NewClient creates a new client
func NewClient(orgID uuid.UUID, name, email, taxID string, contractValue valueobject.Money) (*Client, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CLIENT_NAME", "Client name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_CLIENT_NAME", "Client name cannot exceed 200 characters")
	}

	normalized := NormalizeTaxID(taxID)
	if normalized != "" && len(normalized) != 11 && len(normalized) != 14 {
		return nil, shared.NewDomainError("INVALID_TAX_ID", "Tax ID must be a CPF (11 digits) or CNPJ (14 digits)")
	}

	return &Client{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Name:             name,
		Email:            email,
		TaxID:            normalized,
		ContractValue:    contractValue.Amount(),
		Currency:         contractValue.Currency(),
		PaymentDay:       5,
		PaymentStatus:    ClientPaymentStatusPending,
	}, nil
}

// ContractValueMoney returns the contract value as Money
func (c *Client) ContractValueMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(c.ContractValue, c.Currency)
	return m
}

// ConfigureInstallments enables installment billing for the contract
func (c *Client) ConfigureInstallments(count, paymentDay int) error {
	if count <= 0 {
		return shared.NewDomainError("INVALID_INSTALLMENT_COUNT", "Installment count must be positive")
	}
	if paymentDay < 1 || paymentDay > 31 {
		return shared.NewDomainError("INVALID_PAYMENT_DAY", "Payment day must be between 1 and 31")
	}

	c.IsInstallment = true
	c.InstallmentCount = count
	c.PaymentDay = paymentDay
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// SetPaymentStatus updates the derived billing standing
func (c *Client) SetPaymentStatus(status ClientPaymentStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_STATUS", "Unknown client payment status")
	}
	if c.PaymentStatus == status {
		return nil
	}

	c.PaymentStatus = status
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}
