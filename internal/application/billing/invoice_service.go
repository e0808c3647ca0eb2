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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService handles the invoice lifecycle outside of payment
// confirmation, which belongs to the PaymentOrchestrator.
type InvoiceService struct {
	invoiceRepo  billing.InvoiceRepository
	clientRepo   partner.ClientRepository
	orchestrator *PaymentOrchestrator
	logger       *zap.Logger
	now          func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	clientRepo partner.ClientRepository,
	orchestrator *PaymentOrchestrator,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		clientRepo:   clientRepo,
		orchestrator: orchestrator,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateInvoiceRequest carries the data for a new invoice
type CreateInvoiceRequest struct {
	OrgID       uuid.UUID
	ClientID    uuid.UUID
	Number      string // Optional; auto-generated per month when empty
	Currency    valueobject.Currency
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	Tax         decimal.Decimal
	Items       []billing.InvoiceItem // Optional; derives subtotal when present
	IssueDate   time.Time
	DueDate     time.Time
	Description string
	Open        bool // Issue immediately instead of leaving in DRAFT
}

// CreateInvoice creates an invoice for a client's billing period.
// One non-void invoice per client per month: a second create for the
// same month returns a conflict carrying the existing invoice number.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*billing.Invoice, error) {
	if req.ClientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if _, err := s.clientRepo.FindByIDForOrg(ctx, req.OrgID, req.ClientID); err != nil {
		return nil, fmt.Errorf("find client: %w", err)
	}

	issueDate := req.IssueDate
	if issueDate.IsZero() {
		issueDate = s.now()
	}

	periodStart, periodEnd := monthBounds(issueDate)
	existing, err := s.invoiceRepo.FindExistingForClientPeriod(ctx, req.OrgID, req.ClientID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("check billing period: %w", err)
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("Invoice %s already covers this client's billing period", existing.Number))
	}

	currency := req.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	discount, err := valueobject.NewMoney(req.Discount, currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf("Invalid discount: %v", err))
	}
	tax, err := valueobject.NewMoney(req.Tax, currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf("Invalid tax: %v", err))
	}

	var subtotal valueobject.Money
	if len(req.Items) > 0 {
		subtotal, _, err = billing.ComputeInvoiceTotal(req.Items, discount, tax)
		if err != nil {
			return nil, err
		}
	} else {
		subtotal, err = valueobject.NewMoney(req.Subtotal, currency)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf("Invalid subtotal: %v", err))
		}
	}

	number := req.Number
	if number == "" {
		number, err = s.generateNumber(ctx, req.OrgID, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}
	}

	dueDate := req.DueDate
	if dueDate.IsZero() {
		dueDate = issueDate.AddDate(0, 0, 10)
	}

	invoice, err := billing.NewInvoice(req.OrgID, number, req.ClientID, subtotal, discount, tax, issueDate, dueDate, req.Description)
	if err != nil {
		return nil, err
	}

	if req.Open {
		if err := invoice.Open(); err != nil {
			return nil, err
		}
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, fmt.Errorf("save invoice: %w", err)
	}

	s.logger.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.String("client_id", req.ClientID.String()),
		zap.String("total", invoice.Total.String()),
	)

	return invoice, nil
}

// generateNumber builds an INV-YYYYMM-NNNNN business number from the
// per-month sequence
func (s *InvoiceService) generateNumber(ctx context.Context, orgID uuid.UUID, periodStart, periodEnd time.Time) (string, error) {
	seq, err := s.invoiceRepo.NextSequenceForPeriod(ctx, orgID, periodStart, periodEnd)
	if err != nil {
		return "", fmt.Errorf("next invoice sequence: %w", err)
	}
	return fmt.Sprintf("INV-%s-%05d", periodStart.Format("200601"), seq), nil
}

// GetInvoice fetches an invoice, lazily flipping it to OVERDUE when it
// is read past its due date
func (s *InvoiceService) GetInvoice(ctx context.Context, orgID, id uuid.UUID) (*billing.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if invoice.CheckAndUpdateOverdue(s.now()) {
		if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
			// Another reader may have flipped it first; the returned
			// state is still correct.
			s.logger.Debug("overdue transition not persisted",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err),
			)
		}
	}

	return invoice, nil
}

// ListInvoices lists an organization's invoices
func (s *InvoiceService) ListInvoices(ctx context.Context, orgID uuid.UUID, filter billing.InvoiceFilter) ([]*billing.Invoice, int64, error) {
	return s.invoiceRepo.FindAllForOrg(ctx, orgID, filter)
}

// OpenInvoice issues a draft invoice
func (s *InvoiceService) OpenInvoice(ctx context.Context, orgID, id uuid.UUID) (*billing.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := invoice.Open(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, fmt.Errorf("save invoice: %w", err)
	}

	s.refreshClientStatus(ctx, orgID, invoice.ClientID)
	return invoice, nil
}

// PayInvoice confirms a payment through the orchestrator
func (s *InvoiceService) PayInvoice(ctx context.Context, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	return s.orchestrator.RecordInvoicePayment(ctx, req)
}

// CancelInvoice voids an invoice and refreshes the client's standing
func (s *InvoiceService) CancelInvoice(ctx context.Context, orgID, id uuid.UUID) (*billing.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := invoice.Cancel(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, fmt.Errorf("save invoice: %w", err)
	}

	s.refreshClientStatus(ctx, orgID, invoice.ClientID)
	return invoice, nil
}

// UpdateInvoiceValues changes an editable invoice's monetary values
func (s *InvoiceService) UpdateInvoiceValues(ctx context.Context, orgID, id uuid.UUID, subtotal, discount, tax decimal.Decimal) (*billing.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	sub, err := valueobject.NewMoney(subtotal, invoice.Currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf("Invalid subtotal: %v", err))
	}
	disc, err := valueobject.NewMoney(discount, invoice.Currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf("Invalid discount: %v", err))
	}
	tx, err := valueobject.NewMoney(tax, invoice.Currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf("Invalid tax: %v", err))
	}

	if err := invoice.UpdateValues(sub, disc, tx); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, fmt.Errorf("save invoice: %w", err)
	}
	return invoice, nil
}

// DeleteInvoice soft deletes an invoice (paid invoices refuse)
func (s *InvoiceService) DeleteInvoice(ctx context.Context, orgID, id uuid.UUID) error {
	invoice, err := s.invoiceRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return err
	}
	if err := invoice.SoftDelete(); err != nil {
		return err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return fmt.Errorf("save invoice: %w", err)
	}

	s.refreshClientStatus(ctx, orgID, invoice.ClientID)
	return nil
}

// MarkOverdueSweep flips every OPEN invoice past its due date to
// OVERDUE and returns how many transitioned. Meant to be hit by an
// external scheduler.
func (s *InvoiceService) MarkOverdueSweep(ctx context.Context, orgID uuid.UUID) (int, error) {
	now := s.now()
	invoices, err := s.invoiceRepo.FindOpenPastDue(ctx, orgID, now)
	if err != nil {
		return 0, fmt.Errorf("find overdue candidates: %w", err)
	}

	transitioned := 0
	for _, invoice := range invoices {
		if !invoice.CheckAndUpdateOverdue(now) {
			continue
		}
		if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
			s.logger.Warn("overdue sweep failed to persist transition",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err),
			)
			continue
		}
		transitioned++
	}

	if transitioned > 0 {
		s.logger.Info("overdue sweep completed",
			zap.Int("transitioned", transitioned),
			zap.Int("candidates", len(invoices)),
		)
	}

	return transitioned, nil
}

// refreshClientStatus recomputes the client standing, logging failures
func (s *InvoiceService) refreshClientStatus(ctx context.Context, orgID, clientID uuid.UUID) {
	if s.orchestrator == nil {
		return
	}
	if err := s.orchestrator.RefreshClientPaymentStatus(ctx, orgID, clientID); err != nil {
		s.logger.Warn("client payment status refresh failed",
			zap.String("client_id", clientID.String()),
			zap.Error(err),
		)
	}
}

// monthBounds returns the inclusive start and exclusive end of the
// month containing t, in t's location
func monthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}
