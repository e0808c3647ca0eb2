package finance

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	appbilling "github.com/clientdesk/backend/internal/application/billing"
	"github.com/clientdesk/backend/internal/domain/billing"
	"github.com/clientdesk/backend/internal/domain/finance"
	"github.com/clientdesk/backend/internal/domain/partner"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testMoney(t *testing.T, amount float64) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyBRLFromFloat(amount)
	require.NoError(t, err)
	return m
}

func testClient(t *testing.T, orgID uuid.UUID) *partner.Client {
	t.Helper()
	client, err := partner.NewClient(orgID, "Acme Ltda", "billing@acme.com.br", "12.345.678/0001-95", testMoney(t, 6000))
	require.NoError(t, err)
	return client
}

func testOpenInvoice(t *testing.T, orgID, clientID uuid.UUID, total float64) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(orgID, "INV-202603-00001", clientID,
		testMoney(t, total), valueobject.ZeroBRL(), valueobject.ZeroBRL(),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	require.NoError(t, inv.Open())
	return inv
}

type importerFixture struct {
	ledgerRepo  *MockLedgerEntryRepository
	invoiceRepo *MockInvoiceRepository
	clientRepo  *MockClientRepository
	recorder    *MockPaymentRecorder
	svc         *StatementImportService
}

func newImporterFixture() *importerFixture {
	f := &importerFixture{
		ledgerRepo:  new(MockLedgerEntryRepository),
		invoiceRepo: new(MockInvoiceRepository),
		clientRepo:  new(MockClientRepository),
		recorder:    new(MockPaymentRecorder),
	}
	f.svc = NewStatementImportService(f.ledgerRepo, f.invoiceRepo, f.clientRepo, f.recorder, zap.NewNop())
	return f
}

func TestStatementImportExpenses(t *testing.T) {
	orgID := uuid.New()

	t.Run("money out becomes a categorized expense", func(t *testing.T) {
		f := newImporterFixture()

		f.ledgerRepo.On("FindExpenseDuplicate", mock.Anything, orgID, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

		var created *finance.LedgerEntry
		f.ledgerRepo.On("Create", mock.Anything, mock.AnythingOfType("*finance.LedgerEntry")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*finance.LedgerEntry) }).
			Return(nil)

		csv := `02/03/2026,"-250,00",mov-1,Pagamento AWS servidor mensal`
		summary, err := f.svc.Import(context.Background(), orgID, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Expenses.Imported)
		assert.Equal(t, 0, summary.Incomes.Imported)

		require.NotNil(t, created)
		assert.Equal(t, finance.EntryTypeExpense, created.Type)
		assert.True(t, created.Amount.Equal(testMoney(t, 250).Amount()), "amount stored positive")
		assert.Equal(t, "Infraestrutura", created.Category)
		assert.Equal(t, "csv_import", created.Metadata[finance.MetaSource])
		assert.Equal(t, "mov-1", created.Metadata[finance.MetaStatementIdentifier])
	})

	t.Run("already imported expense is skipped", func(t *testing.T) {
		f := newImporterFixture()

		existing, err := finance.NewLedgerEntry(orgID, finance.EntryTypeExpense, testMoney(t, 250), "Pagamento AWS servidor mensal", "Infraestrutura", time.Now())
		require.NoError(t, err)
		f.ledgerRepo.On("FindExpenseDuplicate", mock.Anything, orgID, mock.Anything, mock.Anything, mock.Anything).Return(existing, nil)

		csv := `02/03/2026,"-250,00",mov-1,Pagamento AWS servidor mensal`
		summary, err := f.svc.Import(context.Background(), orgID, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Expenses.Skipped)
		f.ledgerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("accented descriptions keep valid UTF-8 through the duplicate probe", func(t *testing.T) {
		f := newImporterFixture()

		var probedPrefix string
		f.ledgerRepo.On("FindExpenseDuplicate", mock.Anything, orgID, mock.Anything, mock.Anything, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { probedPrefix = args.Get(4).(string) }).
			Return(nil, nil)
		f.ledgerRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		desc := strings.Repeat("A", 49) + "é manutenção predial"
		csv := `02/03/2026,"-180,00",mov-7,` + desc
		_, err := f.svc.Import(context.Background(), orgID, strings.NewReader(csv))
		require.NoError(t, err)

		assert.True(t, utf8.ValidString(probedPrefix))
		assert.Equal(t, strings.Repeat("A", 49)+"é", probedPrefix)
	})
}

func TestStatementImportIncomes(t *testing.T) {
	orgID := uuid.New()

	t.Run("income matching a client invoice is reconciled", func(t *testing.T) {
		f := newImporterFixture()
		client := testClient(t, orgID)
		invoice := testOpenInvoice(t, orgID, client.ID, 600)

		f.clientRepo.On("FindByTaxID", mock.Anything, orgID, "12345678000195").Return(client, nil)
		f.ledgerRepo.On("FindIncomeDuplicate", mock.Anything, orgID, mock.Anything, mock.Anything, &client.ID).Return(nil, nil)
		f.invoiceRepo.On("FindMatchingOpenInvoice", mock.Anything, orgID, client.ID, mock.Anything, mock.Anything).Return(invoice, nil)
		f.recorder.On("RecordInvoicePayment", mock.Anything, mock.MatchedBy(func(req appbilling.RecordPaymentRequest) bool {
			return req.InvoiceID == invoice.ID &&
				req.Method == billing.PaymentMethodPix &&
				req.Category == ImportCategory &&
				req.Metadata[finance.MetaSource] == "csv_import"
		})).Return(&appbilling.RecordPaymentResult{Invoice: invoice}, nil)

		csv := `02/03/2026,"600,00",mov-9,PIX RECEBIDO Acme Ltda 12.345.678/0001-95`
		summary, err := f.svc.Import(context.Background(), orgID, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Incomes.Reconciled)
		assert.Equal(t, 0, summary.Incomes.Imported)
		f.ledgerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.recorder.AssertExpectations(t)
	})

	t.Run("income from an unknown payer lands flagged for review", func(t *testing.T) {
		f := newImporterFixture()

		f.clientRepo.On("SearchByName", mock.Anything, orgID, "Maria Silva").Return(nil, nil)
		f.ledgerRepo.On("FindIncomeDuplicate", mock.Anything, orgID, mock.Anything, mock.Anything, (*uuid.UUID)(nil)).Return(nil, nil)

		var created *finance.LedgerEntry
		f.ledgerRepo.On("Create", mock.Anything, mock.AnythingOfType("*finance.LedgerEntry")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*finance.LedgerEntry) }).
			Return(nil)

		csv := `02/03/2026,"300,00",mov-3,PIX RECEBIDO Maria Silva`
		summary, err := f.svc.Import(context.Background(), orgID, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Incomes.Imported)
		require.NotNil(t, created)
		assert.Equal(t, finance.EntryTypeIncome, created.Type)
		assert.True(t, created.NeedsReview())
		assert.Nil(t, created.InvoiceID)
		f.recorder.AssertNotCalled(t, "RecordInvoicePayment", mock.Anything, mock.Anything)
	})

	t.Run("income matched to a client without an open invoice stays linked, not flagged", func(t *testing.T) {
		f := newImporterFixture()
		client := testClient(t, orgID)

		f.clientRepo.On("FindByTaxID", mock.Anything, orgID, "12345678000195").Return(client, nil)
		f.ledgerRepo.On("FindIncomeDuplicate", mock.Anything, orgID, mock.Anything, mock.Anything, &client.ID).Return(nil, nil)
		f.invoiceRepo.On("FindMatchingOpenInvoice", mock.Anything, orgID, client.ID, mock.Anything, mock.Anything).Return(nil, nil)

		var created *finance.LedgerEntry
		f.ledgerRepo.On("Create", mock.Anything, mock.AnythingOfType("*finance.LedgerEntry")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*finance.LedgerEntry) }).
			Return(nil)

		csv := `02/03/2026,"600,00",mov-4,PIX RECEBIDO Acme Ltda 12.345.678/0001-95`
		summary, err := f.svc.Import(context.Background(), orgID, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Incomes.Imported)
		require.NotNil(t, created)
		require.NotNil(t, created.ClientID)
		assert.Equal(t, client.ID, *created.ClientID)
		assert.False(t, created.NeedsReview(), "identified payer needs no review")
	})

	t.Run("re-importing the same file skips everything", func(t *testing.T) {
		f := newImporterFixture()
		client := testClient(t, orgID)

		existing, err := finance.NewLedgerEntry(orgID, finance.EntryTypeIncome, testMoney(t, 600), "PIX", ImportCategory, time.Now())
		require.NoError(t, err)

		f.clientRepo.On("FindByTaxID", mock.Anything, orgID, "12345678000195").Return(client, nil)
		f.ledgerRepo.On("FindIncomeDuplicate", mock.Anything, orgID, mock.Anything, mock.Anything, &client.ID).Return(existing, nil)

		csv := `02/03/2026,"600,00",mov-9,PIX RECEBIDO Acme Ltda 12.345.678/0001-95`
		summary, err := f.svc.Import(context.Background(), orgID, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Incomes.Skipped)
		f.recorder.AssertNotCalled(t, "RecordInvoicePayment", mock.Anything, mock.Anything)
		f.ledgerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate lines inside one file collapse", func(t *testing.T) {
		f := newImporterFixture()

		f.clientRepo.On("SearchByName", mock.Anything, orgID, mock.Anything).Return(nil, nil)
		f.ledgerRepo.On("FindIncomeDuplicate", mock.Anything, orgID, mock.Anything, mock.Anything, (*uuid.UUID)(nil)).Return(nil, nil)
		f.ledgerRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		csv := strings.Join([]string{
			`02/03/2026,"300,00",mov-3,PIX RECEBIDO Maria Silva`,
			`02/03/2026,"300,00",mov-3,PIX RECEBIDO Maria Silva`,
		}, "\n")
		summary, err := f.svc.Import(context.Background(), orgID, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Incomes.Imported)
		assert.Equal(t, 1, summary.Incomes.Skipped)
		f.ledgerRepo.AssertNumberOfCalls(t, "Create", 1)
	})
}
