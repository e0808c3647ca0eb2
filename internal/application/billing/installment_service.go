package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/clientdesk/backend/internal/domain/billing"
	"github.com/clientdesk/backend/internal/domain/partner"
	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InstallmentService generates and maintains installment schedules
type InstallmentService struct {
	installmentRepo billing.InstallmentRepository
	clientRepo      partner.ClientRepository
	logger          *zap.Logger
	now             func() time.Time
}

// NewInstallmentService creates a new InstallmentService
func NewInstallmentService(
	installmentRepo billing.InstallmentRepository,
	clientRepo partner.ClientRepository,
	logger *zap.Logger,
) *InstallmentService {
	return &InstallmentService{
		installmentRepo: installmentRepo,
		clientRepo:      clientRepo,
		logger:          logger,
		now:             time.Now,
	}
}

// GenerateScheduleRequest carries optional overrides for generation
type GenerateScheduleRequest struct {
	OrgID            uuid.UUID
	ClientID         uuid.UUID
	InstallmentValue *valueobject.Money // Overrides splitting the contract value
	OverrideDays     []int              // Explicit due day per installment
	ContractStart    *time.Time         // Defaults to the client's contract start, then today
}

// GenerateSchedule creates the installment schedule from a client's
// contract terms. Generation is guarded: a client that already has a
// schedule gets a conflict instead of duplicate rows.
func (s *InstallmentService) GenerateSchedule(ctx context.Context, req GenerateScheduleRequest) ([]*billing.Installment, error) {
	client, err := s.clientRepo.FindByIDForOrg(ctx, req.OrgID, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("find client: %w", err)
	}

	if !client.IsInstallment || client.InstallmentCount <= 0 {
		return nil, shared.NewDomainError("INVALID_STATE", "Client contract is not configured for installments")
	}

	exists, err := s.installmentRepo.ExistsForClient(ctx, req.OrgID, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("check existing schedule: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Client already has an installment schedule")
	}

	contractStart := s.now()
	if client.ContractStart != nil {
		contractStart = *client.ContractStart
	}
	if req.ContractStart != nil {
		contractStart = *req.ContractStart
	}

	contractValue := client.ContractValueMoney()
	params := billing.ScheduleParams{
		Count:            client.InstallmentCount,
		ContractValue:    &contractValue,
		InstallmentValue: req.InstallmentValue,
		ContractStart:    contractStart,
		PaymentDay:       client.PaymentDay,
		OverrideDays:     req.OverrideDays,
	}

	installments, err := billing.NewInstallmentSchedule(req.OrgID, req.ClientID, params)
	if err != nil {
		return nil, err
	}

	if err := s.installmentRepo.CreateBatch(ctx, installments); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}

	s.logger.Info("installment schedule generated",
		zap.String("client_id", req.ClientID.String()),
		zap.Int("count", len(installments)),
	)

	return installments, nil
}

// ListForClient returns a client's schedule, lazily marking overdue
// pending installments as LATE
func (s *InstallmentService) ListForClient(ctx context.Context, orgID, clientID uuid.UUID) ([]*billing.Installment, error) {
	installments, err := s.installmentRepo.FindByClient(ctx, orgID, clientID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, inst := range installments {
		if !inst.CheckAndMarkLate(now) {
			continue
		}
		if err := s.installmentRepo.Save(ctx, inst); err != nil {
			s.logger.Warn("late transition not persisted",
				zap.String("installment_id", inst.ID.String()),
				zap.Error(err),
			)
		}
	}

	return installments, nil
}

// ConfirmInstallment marks an installment as received
func (s *InstallmentService) ConfirmInstallment(ctx context.Context, orgID, id uuid.UUID, paidAt time.Time) (*billing.Installment, error) {
	installment, err := s.installmentRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := installment.Confirm(paidAt); err != nil {
		return nil, err
	}
	if err := s.installmentRepo.Save(ctx, installment); err != nil {
		return nil, fmt.Errorf("save installment: %w", err)
	}
	return installment, nil
}
