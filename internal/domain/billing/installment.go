package billing

import (
	"fmt"
	"time"

	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentStatus represents the state of a contract installment
type InstallmentStatus string

const (
	InstallmentStatusPending   InstallmentStatus = "PENDING"
	InstallmentStatusConfirmed InstallmentStatus = "CONFIRMED"
	InstallmentStatusLate      InstallmentStatus = "LATE"
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case InstallmentStatusPending, InstallmentStatusConfirmed, InstallmentStatusLate:
		return true
	}
	return false
}

// Installment is one expected payment of a client contract
type Installment struct {
	shared.OrgAggregateRoot
	ClientID uuid.UUID            `json:"client_id"`
	Number   int                  `json:"number"` // 1-based position in the schedule
	Amount   decimal.Decimal      `json:"amount"`
	Currency valueobject.Currency `json:"currency"`
	DueDate  time.Time            `json:"due_date"`
	Status   InstallmentStatus    `json:"status"`
	PaidAt   *time.Time           `json:"paid_at"`
}

// ScheduleParams drives installment schedule generation
type ScheduleParams struct {
	Count            int
	ContractValue    *valueobject.Money // Split across installments when no per-installment value is given
	InstallmentValue *valueobject.Money // Fixed value for every installment
	ContractStart    time.Time
	PaymentDay       int   // Day of month each installment falls due
	OverrideDays     []int // Optional explicit day per installment, len == Count
}

// NewInstallmentSchedule generates the full schedule for a contract.
// Due dates land on PaymentDay of consecutive months starting from the
// month of ContractStart; days beyond a month's length clamp to its
// last day. When only the contract value is known it is split with the
// rounding remainder on the final installment.
func NewInstallmentSchedule(orgID, clientID uuid.UUID, params ScheduleParams) ([]*Installment, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if params.Count <= 0 {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT_COUNT", "Installment count must be positive")
	}
	if params.ContractStart.IsZero() {
		return nil, shared.NewDomainError("INVALID_CONTRACT_START", "Contract start date is required")
	}
	if len(params.OverrideDays) > 0 && len(params.OverrideDays) != params.Count {
		return nil, shared.NewDomainError("INVALID_OVERRIDE_DAYS",
			fmt.Sprintf("Override days must match installment count: got %d, want %d", len(params.OverrideDays), params.Count))
	}

	amounts, err := scheduleAmounts(params)
	if err != nil {
		return nil, err
	}

	installments := make([]*Installment, 0, params.Count)
	for i := 0; i < params.Count; i++ {
		day := params.PaymentDay
		if len(params.OverrideDays) > 0 {
			day = params.OverrideDays[i]
		}
		if day < 1 {
			return nil, shared.NewDomainError("INVALID_PAYMENT_DAY", "Payment day must be at least 1")
		}

		dueDate := monthlyDueDate(params.ContractStart, i, day)

		installments = append(installments, &Installment{
			OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
			ClientID:         clientID,
			Number:           i + 1,
			Amount:           amounts[i].Amount(),
			Currency:         amounts[i].Currency(),
			DueDate:          dueDate,
			Status:           InstallmentStatusPending,
		})
	}

	return installments, nil
}

func scheduleAmounts(params ScheduleParams) ([]valueobject.Money, error) {
	if params.InstallmentValue != nil {
		if !params.InstallmentValue.IsPositive() {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Installment value must be positive")
		}
		amounts := make([]valueobject.Money, params.Count)
		for i := range amounts {
			amounts[i] = *params.InstallmentValue
		}
		return amounts, nil
	}

	if params.ContractValue == nil || !params.ContractValue.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Either installment value or a positive contract value is required")
	}
	return params.ContractValue.Split(params.Count)
}

// monthlyDueDate places the due date on the given day of the month
// offset months after start, clamping to the month's last day.
func monthlyDueDate(start time.Time, offset, day int) time.Time {
	year, month, _ := start.Date()
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, start.Location())
	target := firstOfMonth.AddDate(0, offset, 0)

	lastDay := target.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, start.Location())
}

// AmountMoney returns the installment amount as Money
func (i *Installment) AmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(i.Amount, i.Currency)
	return m
}

// Confirm marks the installment as received
func (i *Installment) Confirm(paidAt time.Time) error {
	if i.Status == InstallmentStatusConfirmed {
		return shared.NewDomainError("INVALID_STATE", "Installment is already confirmed")
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	i.Status = InstallmentStatusConfirmed
	i.PaidAt = &paidAt
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// CheckAndMarkLate flips pending installments past their due date to
// LATE. Idempotent; returns true when a transition happened.
func (i *Installment) CheckAndMarkLate(now time.Time) bool {
	if i.Status != InstallmentStatusPending {
		return false
	}
	if !now.After(i.DueDate) {
		return false
	}

	i.Status = InstallmentStatusLate
	i.UpdatedAt = now
	i.IncrementVersion()

	return true
}

// ScheduleTotal sums the amounts of a generated schedule
func ScheduleTotal(installments []*Installment) (valueobject.Money, error) {
	if len(installments) == 0 {
		return valueobject.ZeroBRL(), nil
	}
	total := valueobject.Zero(installments[0].Currency)
	for _, inst := range installments {
		var err error
		total, err = total.Add(inst.AmountMoney())
		if err != nil {
			return valueobject.Money{}, err
		}
	}
	return total, nil
}
