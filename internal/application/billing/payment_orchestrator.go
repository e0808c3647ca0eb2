package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/clientdesk/backend/internal/domain/billing"
	"github.com/clientdesk/backend/internal/domain/finance"
	"github.com/clientdesk/backend/internal/domain/partner"
	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultDuplicateWindow is how far back the orchestrator looks for
	// an identical payment before treating a request as a double submit
	DefaultDuplicateWindow = 2 * time.Minute

	// DefaultPaymentCategory is the ledger category for invoice payments
	DefaultPaymentCategory = "Mensalidade"

	// DefaultPaymentDescription is the ledger description for invoice payments
	DefaultPaymentDescription = "Pagamento fatura"
)

// PaymentOrchestrator coordinates the single write path for confirming
// a payment: invoice status, payment record and income ledger entry
// change together in one transaction. Everything that happens after
// the commit (client status recompute, ledger archive, events) is
// best-effort and only logged.
type PaymentOrchestrator struct {
	scope           TransactionScope
	invoiceRepo     billing.InvoiceRepository
	paymentRepo     billing.PaymentRepository
	clientRepo      partner.ClientRepository
	archive         LedgerArchive
	events          shared.EventPublisher
	logger          *zap.Logger
	now             func() time.Time
	duplicateWindow time.Duration
}

// PaymentOrchestratorOption customizes orchestrator construction
type PaymentOrchestratorOption func(*PaymentOrchestrator)

// WithLedgerArchive wires the best-effort ledger archive fan-out
func WithLedgerArchive(archive LedgerArchive) PaymentOrchestratorOption {
	return func(o *PaymentOrchestrator) { o.archive = archive }
}

// WithEventPublisher wires domain event publishing after commit
func WithEventPublisher(events shared.EventPublisher) PaymentOrchestratorOption {
	return func(o *PaymentOrchestrator) { o.events = events }
}

// WithClock overrides the time source (used by tests)
func WithClock(now func() time.Time) PaymentOrchestratorOption {
	return func(o *PaymentOrchestrator) { o.now = now }
}

// WithDuplicateWindow overrides the idempotency lookback window
func WithDuplicateWindow(window time.Duration) PaymentOrchestratorOption {
	return func(o *PaymentOrchestrator) { o.duplicateWindow = window }
}

// NewPaymentOrchestrator creates a new PaymentOrchestrator
func NewPaymentOrchestrator(
	scope TransactionScope,
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	clientRepo partner.ClientRepository,
	logger *zap.Logger,
	opts ...PaymentOrchestratorOption,
) *PaymentOrchestrator {
	o := &PaymentOrchestrator{
		scope:           scope,
		invoiceRepo:     invoiceRepo,
		paymentRepo:     paymentRepo,
		clientRepo:      clientRepo,
		logger:          logger,
		now:             time.Now,
		duplicateWindow: DefaultDuplicateWindow,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RecordPaymentRequest carries everything needed to confirm a payment
type RecordPaymentRequest struct {
	OrgID       uuid.UUID
	InvoiceID   uuid.UUID
	Amount      valueobject.Money
	Method      billing.PaymentMethod
	Provider    string
	PaidAt      time.Time
	Category    string           // Ledger category; defaults to "Mensalidade"
	Description string           // Ledger description; defaults to "Pagamento fatura"
	Metadata    finance.Metadata // Extra ledger metadata (e.g. import provenance)
}

// RecordPaymentResult is the outcome of a payment confirmation
type RecordPaymentResult struct {
	Invoice   *billing.Invoice
	Payment   *billing.Payment
	Entry     *finance.LedgerEntry
	Duplicate bool // True when the request was absorbed by the idempotency window
}

// RecordInvoicePayment confirms a payment against an invoice.
//
// A request that matches a PAID payment for the same invoice and amount
// within the duplicate window is treated as a double submit and returns
// the current invoice unchanged. Otherwise the invoice transition, the
// payment row and the income ledger entry are written atomically.
func (o *PaymentOrchestrator) RecordInvoicePayment(ctx context.Context, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	if req.OrgID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORG", "Organization ID cannot be empty")
	}
	if req.InvoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if req.Method == "" {
		req.Method = billing.PaymentMethodOther
	}
	if !req.Method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}

	now := o.now()
	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}

	invoice, err := o.invoiceRepo.FindByIDForOrg(ctx, req.OrgID, req.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("find invoice: %w", err)
	}

	if existing, err := o.paymentRepo.FindRecentPaid(ctx, req.OrgID, req.InvoiceID, req.Amount.Amount(), now.Add(-o.duplicateWindow)); err != nil {
		o.logger.Warn("idempotency probe failed, proceeding with payment",
			zap.String("invoice_id", req.InvoiceID.String()),
			zap.Error(err),
		)
	} else if existing != nil {
		o.logger.Info("duplicate payment request absorbed",
			zap.String("invoice_id", req.InvoiceID.String()),
			zap.String("payment_id", existing.ID.String()),
			zap.String("amount", req.Amount.String()),
		)
		return &RecordPaymentResult{Invoice: invoice, Payment: existing, Duplicate: true}, nil
	}

	if !invoice.CanBePaid() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pay invoice in %s status", invoice.Status))
	}

	result := &RecordPaymentResult{}

	err = o.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Re-fetch inside the transaction so the status transition is
		// checked against current state, not the pre-check snapshot.
		inv, err := repos.Invoices().FindByIDForOrg(ctx, req.OrgID, req.InvoiceID)
		if err != nil {
			return fmt.Errorf("find invoice in transaction: %w", err)
		}

		if err := inv.MarkAsPaid(paidAt); err != nil {
			return err
		}
		if err := repos.Invoices().SaveWithLock(ctx, inv); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}

		payment, err := billing.NewPayment(req.OrgID, inv.ID, inv.ClientID, req.Amount, req.Method, req.Provider, paidAt)
		if err != nil {
			return err
		}
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		category := req.Category
		if category == "" {
			category = DefaultPaymentCategory
		}
		description := req.Description
		if description == "" {
			description = DefaultPaymentDescription
		}

		entry, err := finance.NewLedgerEntry(req.OrgID, finance.EntryTypeIncome, req.Amount, description, category, paidAt)
		if err != nil {
			return err
		}
		entry.LinkClient(inv.ClientID)
		if err := entry.LinkInvoice(inv.ID); err != nil {
			return err
		}
		entry.SetMeta(finance.MetaPaymentID, payment.ID.String())
		for k, v := range req.Metadata {
			entry.SetMeta(k, v)
		}
		if err := repos.Ledger().Create(ctx, entry); err != nil {
			return fmt.Errorf("create ledger entry: %w", err)
		}

		result.Invoice = inv
		result.Payment = payment
		result.Entry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.afterCommit(ctx, result)

	return result, nil
}

// afterCommit runs the best-effort side effects of a confirmed payment
func (o *PaymentOrchestrator) afterCommit(ctx context.Context, result *RecordPaymentResult) {
	inv := result.Invoice

	if o.events != nil {
		if err := o.events.Publish(ctx, inv.GetDomainEvents()...); err != nil {
			o.logger.Warn("failed to publish payment events",
				zap.String("invoice_id", inv.ID.String()),
				zap.Error(err),
			)
		}
		inv.ClearDomainEvents()
	}

	if o.archive != nil && result.Entry != nil {
		if err := o.archive.Store(ctx, result.Entry); err != nil {
			o.logger.Warn("ledger archive write failed",
				zap.String("entry_id", result.Entry.ID.String()),
				zap.Error(err),
			)
		}
	}

	if err := o.RefreshClientPaymentStatus(ctx, inv.OrgID, inv.ClientID); err != nil {
		o.logger.Warn("client payment status refresh failed",
			zap.String("client_id", inv.ClientID.String()),
			zap.Error(err),
		)
	}
}

// RefreshClientPaymentStatus recomputes a client's billing standing:
// CONFIRMED when the client has no OPEN or OVERDUE invoices, PENDING
// otherwise.
func (o *PaymentOrchestrator) RefreshClientPaymentStatus(ctx context.Context, orgID, clientID uuid.UUID) error {
	outstanding, err := o.invoiceRepo.CountOutstandingForClient(ctx, orgID, clientID)
	if err != nil {
		return fmt.Errorf("count outstanding invoices: %w", err)
	}

	status := partner.ClientPaymentStatusConfirmed
	if outstanding > 0 {
		status = partner.ClientPaymentStatusPending
	}

	if err := o.clientRepo.UpdatePaymentStatus(ctx, orgID, clientID, status); err != nil {
		return fmt.Errorf("update client payment status: %w", err)
	}

	o.logger.Debug("client payment status refreshed",
		zap.String("client_id", clientID.String()),
		zap.String("status", string(status)),
		zap.Int64("outstanding_invoices", outstanding),
	)

	return nil
}
