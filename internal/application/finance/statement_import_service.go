package finance

import (
	"context"
	"fmt"
	"io"

	appbilling "github.com/clientdesk/backend/internal/application/billing"
	"github.com/clientdesk/backend/internal/domain/billing"
	"github.com/clientdesk/backend/internal/domain/finance"
	"github.com/clientdesk/backend/internal/domain/partner"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImportCategory marks ledger entries produced by the statement importer
const ImportCategory = "Pix - CSV Import"

// ImportCounters breaks down what happened to one direction of movements
type ImportCounters struct {
	Reconciled int `json:"reconciled"`
	Imported   int `json:"imported"`
	Skipped    int `json:"skipped"`
}

// ImportSummary is the outcome of one statement import run
type ImportSummary struct {
	TotalLines int            `json:"total_lines"`
	Incomes    ImportCounters `json:"incomes"`
	Expenses   ImportCounters `json:"expenses"`
	Errors     []ParseError   `json:"errors,omitempty"`
}

// StatementImportService turns bank statement CSVs into ledger entries.
//
// Each line is classified by sign: money in becomes income, money out
// becomes an expense. Incomes are matched to clients by CPF/CNPJ from
// the description (name search as fallback) and settled against the
// client's open invoices through the PaymentRecorder. Every movement is
// deduplicated before being written, so re-importing the same file is
// harmless.
type StatementImportService struct {
	ledgerRepo  finance.LedgerEntryRepository
	invoiceRepo billing.InvoiceRepository
	clientRepo  partner.ClientRepository
	recorder    PaymentRecorder
	categorizer *finance.Categorizer
	logger      *zap.Logger
}

func NewStatementImportService(
	ledgerRepo finance.LedgerEntryRepository,
	invoiceRepo billing.InvoiceRepository,
	clientRepo partner.ClientRepository,
	recorder PaymentRecorder,
	logger *zap.Logger,
) *StatementImportService {
	return &StatementImportService{
		ledgerRepo:  ledgerRepo,
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		recorder:    recorder,
		categorizer: finance.NewCategorizer(),
		logger:      logger,
	}
}

// Import processes a statement CSV. Line-level problems are collected
// into the summary; only infrastructure failures abort the run.
func (s *StatementImportService) Import(ctx context.Context, orgID uuid.UUID, r io.Reader) (*ImportSummary, error) {
	lines, parseErrs, err := ParseStatement(r)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{
		TotalLines: len(lines) + len(parseErrs),
		Errors:     parseErrs,
	}

	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		// In-file duplicates collapse before any repository probe
		identity := line.Identity()
		if _, dup := seen[identity]; dup {
			s.countSkip(summary, line)
			continue
		}
		seen[identity] = struct{}{}

		if line.Amount.IsNegative() {
			if err := s.importExpense(ctx, orgID, line, summary); err != nil {
				return nil, err
			}
			continue
		}
		if err := s.importIncome(ctx, orgID, line, summary); err != nil {
			return nil, err
		}
	}

	s.logger.Info("statement import finished",
		zap.String("org_id", orgID.String()),
		zap.Int("total_lines", summary.TotalLines),
		zap.Int("incomes_reconciled", summary.Incomes.Reconciled),
		zap.Int("incomes_imported", summary.Incomes.Imported),
		zap.Int("expenses_imported", summary.Expenses.Imported),
		zap.Int("parse_errors", len(summary.Errors)),
	)

	return summary, nil
}

func (s *StatementImportService) countSkip(summary *ImportSummary, line StatementLine) {
	if line.Amount.IsNegative() {
		summary.Expenses.Skipped++
	} else {
		summary.Incomes.Skipped++
	}
}

// importExpense books a money-out movement as a categorized expense
func (s *StatementImportService) importExpense(ctx context.Context, orgID uuid.UUID, line StatementLine, summary *ImportSummary) error {
	amount, err := valueobject.NewMoneyBRL(line.Amount.Abs())
	if err != nil {
		summary.Errors = append(summary.Errors, ParseError{LineNumber: line.LineNumber, Message: err.Error()})
		return nil
	}

	existing, err := s.ledgerRepo.FindExpenseDuplicate(ctx, orgID, line.Date, amount.Amount(), truncate(line.Description, 50))
	if err != nil {
		return fmt.Errorf("probe expense duplicate: %w", err)
	}
	if existing != nil {
		summary.Expenses.Skipped++
		return nil
	}

	category := s.categorizer.Categorize(line.Description, "")
	entry, err := finance.NewLedgerEntry(orgID, finance.EntryTypeExpense, amount, line.Description, category, line.Date)
	if err != nil {
		summary.Errors = append(summary.Errors, ParseError{LineNumber: line.LineNumber, Message: err.Error()})
		return nil
	}
	s.stampImport(entry, line)

	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("create expense entry: %w", err)
	}
	summary.Expenses.Imported++
	return nil
}

// importIncome books a money-in movement. When the payer resolves to a
// client with a matching open invoice the payment path settles it;
// otherwise the income lands as a standalone entry, flagged for review
// only when nobody could be identified.
func (s *StatementImportService) importIncome(ctx context.Context, orgID uuid.UUID, line StatementLine, summary *ImportSummary) error {
	amount, err := valueobject.NewMoneyBRL(line.Amount)
	if err != nil {
		summary.Errors = append(summary.Errors, ParseError{LineNumber: line.LineNumber, Message: err.Error()})
		return nil
	}

	client, err := s.resolveClient(ctx, orgID, line.Description)
	if err != nil {
		return err
	}

	var clientID *uuid.UUID
	if client != nil {
		clientID = &client.ID
	}
	existing, err := s.ledgerRepo.FindIncomeDuplicate(ctx, orgID, line.Date, amount.Amount(), clientID)
	if err != nil {
		return fmt.Errorf("probe income duplicate: %w", err)
	}
	if existing != nil {
		summary.Incomes.Skipped++
		return nil
	}

	if client != nil {
		invoice, err := s.invoiceRepo.FindMatchingOpenInvoice(ctx, orgID, client.ID, amount.Amount(), AmountTolerance)
		if err != nil {
			return fmt.Errorf("match open invoice: %w", err)
		}
		if invoice != nil {
			_, err := s.recorder.RecordInvoicePayment(ctx, appbilling.RecordPaymentRequest{
				OrgID:       orgID,
				InvoiceID:   invoice.ID,
				Amount:      amount,
				Method:      billing.PaymentMethodPix,
				PaidAt:      line.Date,
				Category:    ImportCategory,
				Description: fmt.Sprintf("Pagamento fatura %s", invoice.Number),
				Metadata: finance.Metadata{
					finance.MetaSource:              "csv_import",
					finance.MetaOriginalDescription: line.Description,
					finance.MetaStatementIdentifier: line.Identifier,
				},
			})
			if err != nil {
				return fmt.Errorf("settle invoice %s: %w", invoice.Number, err)
			}
			summary.Incomes.Reconciled++
			return nil
		}
	}

	entry, err := finance.NewLedgerEntry(orgID, finance.EntryTypeIncome, amount, line.Description, ImportCategory, line.Date)
	if err != nil {
		summary.Errors = append(summary.Errors, ParseError{LineNumber: line.LineNumber, Message: err.Error()})
		return nil
	}
	s.stampImport(entry, line)
	if client != nil {
		entry.LinkClient(client.ID)
	} else {
		entry.MarkNeedsReview()
	}

	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("create income entry: %w", err)
	}
	summary.Incomes.Imported++
	return nil
}

// resolveClient identifies the paying client from the movement
// description. CPF/CNPJ is authoritative; the payer name heuristic is
// only a fallback.
func (s *StatementImportService) resolveClient(ctx context.Context, orgID uuid.UUID, description string) (*partner.Client, error) {
	if taxID := ExtractTaxID(description); taxID != "" {
		client, err := s.clientRepo.FindByTaxID(ctx, orgID, taxID)
		if err != nil {
			return nil, fmt.Errorf("find client by tax id: %w", err)
		}
		if client != nil {
			return client, nil
		}
	}

	name := ExtractPayerName(description)
	if len(name) < 3 {
		return nil, nil
	}
	client, err := s.clientRepo.SearchByName(ctx, orgID, name)
	if err != nil {
		return nil, fmt.Errorf("search client by name: %w", err)
	}
	return client, nil
}

func (s *StatementImportService) stampImport(entry *finance.LedgerEntry, line StatementLine) {
	entry.SetMeta(finance.MetaSource, "csv_import")
	entry.SetMeta(finance.MetaOriginalDescription, line.Description)
	if line.Identifier != "" {
		entry.SetMeta(finance.MetaStatementIdentifier, line.Identifier)
	}
}

// truncate shortens s to at most max characters without splitting a
// multi-byte rune, so accented descriptions stay valid UTF-8.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
