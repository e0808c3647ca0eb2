package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	appbilling "github.com/clientdesk/backend/internal/application/billing"
	"github.com/clientdesk/backend/internal/domain/billing"
	"github.com/clientdesk/backend/internal/domain/finance"
	"github.com/clientdesk/backend/internal/domain/partner"
	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AmountTolerance is the maximum difference accepted when matching a
// received amount against an open invoice total.
var AmountTolerance = decimal.NewFromFloat(0.01)

// LedgerService records manual ledger entries and answers summary
// queries over the ledger. Income entries linked to a client are
// funneled through the PaymentRecorder so the invoice, payment and
// ledger rows stay consistent.
type LedgerService struct {
	ledgerRepo  finance.LedgerEntryRepository
	invoiceRepo billing.InvoiceRepository
	clientRepo  partner.ClientRepository
	recorder    PaymentRecorder
	invoices    InvoiceCreator
	categorizer *finance.Categorizer
	logger      *zap.Logger
	now         func() time.Time
}

func NewLedgerService(
	ledgerRepo finance.LedgerEntryRepository,
	invoiceRepo billing.InvoiceRepository,
	clientRepo partner.ClientRepository,
	recorder PaymentRecorder,
	invoices InvoiceCreator,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		ledgerRepo:  ledgerRepo,
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		recorder:    recorder,
		invoices:    invoices,
		categorizer: finance.NewCategorizer(),
		logger:      logger,
		now:         time.Now,
	}
}

// CreateEntryRequest describes a manual ledger entry.
type CreateEntryRequest struct {
	OrgID       uuid.UUID
	Type        finance.EntryType
	Amount      decimal.Decimal
	Currency    valueobject.Currency
	Description string
	Category    string
	Date        *time.Time
	ClientID    *uuid.UUID
}

// CreateEntry records a manual ledger entry.
//
// Expenses are categorized from their description and stored directly.
// Income without a client is stored directly as well. Income tied to a
// client settles a matching open invoice through the payment recorder;
// when no invoice matches, one is created and paid so every confirmed
// income is backed by an invoice.
func (s *LedgerService) CreateEntry(ctx context.Context, req CreateEntryRequest) (*finance.LedgerEntry, error) {
	currency := req.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	amount, err := valueobject.NewMoney(req.Amount, currency)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "entry amount must be positive")
	}

	date := s.now()
	if req.Date != nil {
		date = *req.Date
	}

	if req.Type == finance.EntryTypeIncome && req.ClientID != nil {
		return s.createClientIncome(ctx, req, amount, date)
	}

	category := req.Category
	if req.Type == finance.EntryTypeExpense {
		category = s.categorizer.Categorize(req.Description, req.Category)
	}

	entry, err := finance.NewLedgerEntry(req.OrgID, req.Type, amount, req.Description, category, date)
	if err != nil {
		return nil, err
	}
	entry.SetMeta(finance.MetaSource, "manual")
	if req.ClientID != nil {
		entry.LinkClient(*req.ClientID)
	}

	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}
	return entry, nil
}

// createClientIncome settles an open invoice for the client, creating
// one first when nothing matches the received amount.
func (s *LedgerService) createClientIncome(ctx context.Context, req CreateEntryRequest, amount valueobject.Money, date time.Time) (*finance.LedgerEntry, error) {
	client, err := s.clientRepo.FindByIDForOrg(ctx, req.OrgID, *req.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, shared.ErrNotFound
	}

	invoice, err := s.invoiceRepo.FindMatchingOpenInvoice(ctx, req.OrgID, client.ID, amount.Amount(), AmountTolerance)
	if err != nil {
		return nil, fmt.Errorf("match open invoice: %w", err)
	}
	if invoice == nil {
		invoice, err = s.invoices.CreateInvoice(ctx, appbilling.CreateInvoiceRequest{
			OrgID:       req.OrgID,
			ClientID:    client.ID,
			Subtotal:    amount.Amount(),
			Currency:    amount.Currency(),
			IssueDate:   date,
			Description: req.Description,
			Open:        true,
		})
		if err != nil {
			// A same-period invoice with a different amount blocks
			// creation. Record the income unlinked and flag it.
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) && domainErr.Code == "ALREADY_EXISTS" {
				return s.createUnmatchedIncome(ctx, req, amount, date, client.ID)
			}
			return nil, err
		}
	}

	result, err := s.recorder.RecordInvoicePayment(ctx, appbilling.RecordPaymentRequest{
		OrgID:       req.OrgID,
		InvoiceID:   invoice.ID,
		Amount:      amount,
		Method:      billing.PaymentMethodOther,
		PaidAt:      date,
		Category:    req.Category,
		Description: req.Description,
		Metadata:    finance.Metadata{finance.MetaSource: "manual"},
	})
	if err != nil {
		return nil, err
	}
	return result.Entry, nil
}

func (s *LedgerService) createUnmatchedIncome(ctx context.Context, req CreateEntryRequest, amount valueobject.Money, date time.Time, clientID uuid.UUID) (*finance.LedgerEntry, error) {
	entry, err := finance.NewLedgerEntry(req.OrgID, finance.EntryTypeIncome, amount, req.Description, req.Category, date)
	if err != nil {
		return nil, err
	}
	entry.SetMeta(finance.MetaSource, "manual")
	entry.MarkNeedsReview()
	entry.LinkClient(clientID)
	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}
	s.logger.Warn("income recorded without an invoice match",
		zap.String("org_id", req.OrgID.String()),
		zap.String("client_id", clientID.String()),
		zap.String("amount", amount.String()))
	return entry, nil
}

// GetEntry loads a single ledger entry.
func (s *LedgerService) GetEntry(ctx context.Context, orgID, entryID uuid.UUID) (*finance.LedgerEntry, error) {
	entry, err := s.ledgerRepo.FindByIDForOrg(ctx, orgID, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, shared.ErrNotFound
	}
	return entry, nil
}

// ListEntries returns a page of ledger entries for the org.
func (s *LedgerService) ListEntries(ctx context.Context, orgID uuid.UUID, filter finance.LedgerEntryFilter) (*shared.Paginated[*finance.LedgerEntry], error) {
	entries, total, err := s.ledgerRepo.FindAllForOrg(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(entries, total, filter.Page, filter.PageSize)
	return &page, nil
}

// MonthlySummary aggregates income and expenses for the month that
// contains ref.
type MonthlySummary struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

func (s *LedgerService) MonthlySummary(ctx context.Context, orgID uuid.UUID, ref time.Time) (*MonthlySummary, error) {
	from, to := monthBounds(ref)

	income, err := s.ledgerRepo.SumByTypeForPeriod(ctx, orgID, finance.EntryTypeIncome, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum income: %w", err)
	}
	expenses, err := s.ledgerRepo.SumByTypeForPeriod(ctx, orgID, finance.EntryTypeExpense, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum expenses: %w", err)
	}

	return &MonthlySummary{
		Month:    ref.Format("2006-01"),
		Income:   income,
		Expenses: expenses,
		Net:      income.Sub(expenses),
	}, nil
}

// CashProjection estimates the month outcome: income received so far
// plus invoices still due, minus expenses booked so far.
type CashProjection struct {
	Month        string          `json:"month"`
	Received     decimal.Decimal `json:"received"`
	Expected     decimal.Decimal `json:"expected"`
	Expenses     decimal.Decimal `json:"expenses"`
	ProjectedNet decimal.Decimal `json:"projected_net"`
}

func (s *LedgerService) CashProjection(ctx context.Context, orgID uuid.UUID, ref time.Time) (*CashProjection, error) {
	summary, err := s.MonthlySummary(ctx, orgID, ref)
	if err != nil {
		return nil, err
	}

	from, to := monthBounds(ref)
	due, err := s.invoiceRepo.FindDueInPeriod(ctx, orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("find due invoices: %w", err)
	}

	expected := decimal.Zero
	for _, inv := range due {
		if inv.Status.IsOutstanding() {
			expected = expected.Add(inv.Total)
		}
	}

	return &CashProjection{
		Month:        summary.Month,
		Received:     summary.Income,
		Expected:     expected,
		Expenses:     summary.Expenses,
		ProjectedNet: summary.Income.Add(expected).Sub(summary.Expenses),
	}, nil
}

func monthBounds(ref time.Time) (time.Time, time.Time) {
	from := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}
