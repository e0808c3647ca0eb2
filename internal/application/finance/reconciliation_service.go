package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clientdesk/backend/internal/domain/billing"
	"github.com/clientdesk/backend/internal/domain/finance"
	"github.com/clientdesk/backend/internal/domain/notification"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SummaryCacheTTL bounds how stale a cached reconciliation summary may be
const SummaryCacheTTL = 5 * time.Minute

// Issue types emitted by the auditor
const (
	IssuePaidWithoutPayment = "PAID_WITHOUT_PAYMENT"
	IssueUnlinkedIncome     = "UNLINKED_INCOME"
	IssueMultipleEntries    = "MULTIPLE_LEDGER_ENTRIES"
)

// ReconciliationIssue is a single anomaly found by the auditor
type ReconciliationIssue struct {
	Type      string     `json:"type"`
	Priority  string     `json:"priority"`
	Message   string     `json:"message"`
	InvoiceID *uuid.UUID `json:"invoice_id,omitempty"`
	EntryID   *uuid.UUID `json:"entry_id,omitempty"`
	ClientID  *uuid.UUID `json:"client_id,omitempty"`
}

// ReconciliationReport is the outcome of one audit run
type ReconciliationReport struct {
	RanAt  time.Time             `json:"ran_at"`
	Issues []ReconciliationIssue `json:"issues"`
}

// CountByType tallies the report's issues of one type
func (r *ReconciliationReport) CountByType(issueType string) int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Type == issueType {
			count++
		}
	}
	return count
}

// ReconciliationSummary compares what payments say was received against
// what the ledger recorded for the current month.
type ReconciliationSummary struct {
	Month                    string          `json:"month"`
	PaymentsTotal            decimal.Decimal `json:"payments_total"`
	LedgerIncome             decimal.Decimal `json:"ledger_income"`
	Delta                    decimal.Decimal `json:"delta"`
	OpenIssues               int             `json:"open_issues"`
	InvoicesPaidWithoutLinks int             `json:"invoicesPaidWithoutLinks"`
	IncomeWithoutInvoiceID   int             `json:"financesIncomeWithoutInvoiceId"`
	GeneratedAt              time.Time       `json:"generated_at"`
}

// ReconciliationService audits the invoice ledger for drift between
// the three payment rows and raises notifications for what it finds.
type ReconciliationService struct {
	invoiceRepo      billing.InvoiceRepository
	paymentRepo      billing.PaymentRepository
	ledgerRepo       finance.LedgerEntryRepository
	notificationRepo notification.Repository
	cache            SummaryCache
	logger           *zap.Logger
	now              func() time.Time
}

func NewReconciliationService(
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	ledgerRepo finance.LedgerEntryRepository,
	notificationRepo notification.Repository,
	cache SummaryCache,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		invoiceRepo:      invoiceRepo,
		paymentRepo:      paymentRepo,
		ledgerRepo:       ledgerRepo,
		notificationRepo: notificationRepo,
		cache:            cache,
		logger:           logger,
		now:              time.Now,
	}
}

// RunAudit executes the three consistency checks. With notify set, each
// issue also lands as a notification ranked by severity.
func (s *ReconciliationService) RunAudit(ctx context.Context, orgID uuid.UUID, notify bool) (*ReconciliationReport, error) {
	report := &ReconciliationReport{RanAt: s.now(), Issues: []ReconciliationIssue{}}

	paidWithout, err := s.invoiceRepo.FindPaidWithoutPayment(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("find paid invoices without payment: %w", err)
	}
	for _, inv := range paidWithout {
		invID := inv.ID
		clientID := inv.ClientID
		report.Issues = append(report.Issues, ReconciliationIssue{
			Type:      IssuePaidWithoutPayment,
			Priority:  string(notification.PriorityHigh),
			Message:   fmt.Sprintf("Invoice %s is PAID but has no payment record", inv.Number),
			InvoiceID: &invID,
			ClientID:  &clientID,
		})
	}

	unlinked, err := s.ledgerRepo.FindUnlinkedIncome(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("find unlinked income: %w", err)
	}
	for _, entry := range unlinked {
		entryID := entry.ID
		report.Issues = append(report.Issues, ReconciliationIssue{
			Type:     IssueUnlinkedIncome,
			Priority: string(notification.PriorityMedium),
			Message:  fmt.Sprintf("Income of %s on %s is not linked to any invoice", entry.AmountMoney().String(), entry.Date.Format("2006-01-02")),
			EntryID:  &entryID,
			ClientID: entry.ClientID,
		})
	}

	multiple, err := s.invoiceRepo.FindWithMultipleLedgerEntries(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("find invoices with multiple entries: %w", err)
	}
	for _, inv := range multiple {
		invID := inv.ID
		clientID := inv.ClientID
		report.Issues = append(report.Issues, ReconciliationIssue{
			Type:      IssueMultipleEntries,
			Priority:  string(notification.PriorityLow),
			Message:   fmt.Sprintf("Invoice %s has more than one ledger entry", inv.Number),
			InvoiceID: &invID,
			ClientID:  &clientID,
		})
	}

	if notify {
		s.notifyIssues(ctx, orgID, report.Issues)
	}

	// Counts may have changed; cached summaries are now stale
	if err := s.cache.Delete(ctx, summaryCacheKey(orgID)); err != nil {
		s.logger.Warn("summary cache invalidation failed",
			zap.String("org_id", orgID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("reconciliation audit finished",
		zap.String("org_id", orgID.String()),
		zap.Int("issues", len(report.Issues)),
		zap.Bool("notified", notify),
	)

	return report, nil
}

// notifyIssues records one notification per issue, best effort
func (s *ReconciliationService) notifyIssues(ctx context.Context, orgID uuid.UUID, issues []ReconciliationIssue) {
	for _, issue := range issues {
		n, err := notification.NewNotification(orgID, issue.Type, "Reconciliation issue", issue.Message, notification.Priority(issue.Priority))
		if err != nil {
			s.logger.Warn("could not build notification", zap.Error(err))
			continue
		}
		if issue.ClientID != nil {
			n.WithClient(*issue.ClientID)
		}
		if issue.InvoiceID != nil {
			n.WithLink(fmt.Sprintf("/invoices/%s", issue.InvoiceID))
		}
		if err := s.notificationRepo.Create(ctx, n); err != nil {
			s.logger.Warn("could not persist notification",
				zap.String("type", issue.Type),
				zap.Error(err),
			)
		}
	}
}

// Summary reports the current month's payments-versus-ledger delta,
// served from cache when a fresh run exists.
func (s *ReconciliationService) Summary(ctx context.Context, orgID uuid.UUID) (*ReconciliationSummary, error) {
	key := summaryCacheKey(orgID)
	if payload, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("summary cache read failed", zap.Error(err))
	} else if ok {
		var cached ReconciliationSummary
		if err := json.Unmarshal(payload, &cached); err == nil {
			return &cached, nil
		}
		s.logger.Warn("discarding undecodable cached summary", zap.String("key", key))
	}

	summary, err := s.buildSummary(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(summary); err == nil {
		if err := s.cache.Set(ctx, key, payload, SummaryCacheTTL); err != nil {
			s.logger.Warn("summary cache write failed", zap.Error(err))
		}
	}

	return summary, nil
}

func (s *ReconciliationService) buildSummary(ctx context.Context, orgID uuid.UUID) (*ReconciliationSummary, error) {
	now := s.now()
	from, to := monthBounds(now)

	payments, err := s.paymentRepo.SumPaidForPeriod(ctx, orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum payments: %w", err)
	}
	income, err := s.ledgerRepo.SumByTypeForPeriod(ctx, orgID, finance.EntryTypeIncome, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum ledger income: %w", err)
	}

	report, err := s.RunAudit(ctx, orgID, false)
	if err != nil {
		return nil, err
	}

	return &ReconciliationSummary{
		Month:                    now.Format("2006-01"),
		PaymentsTotal:            payments,
		LedgerIncome:             income,
		Delta:                    payments.Sub(income),
		OpenIssues:               len(report.Issues),
		InvoicesPaidWithoutLinks: report.CountByType(IssuePaidWithoutPayment),
		IncomeWithoutInvoiceID:   report.CountByType(IssueUnlinkedIncome),
		GeneratedAt:              now,
	}, nil
}

func summaryCacheKey(orgID uuid.UUID) string {
	return fmt.Sprintf("reconciliation:summary:%s", orgID)
}
