package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reconciliationIssueResponse struct {
	Type      string  `json:"type"`
	Priority  string  `json:"priority"`
	Message   string  `json:"message"`
	InvoiceID *string `json:"invoice_id,omitempty"`
	EntryID   *string `json:"entry_id,omitempty"`
	ClientID  *string `json:"client_id,omitempty"`
}

type reconciliationReportResponse struct {
	RanAt  time.Time                     `json:"ran_at"`
	Issues []reconciliationIssueResponse `json:"issues"`
}

type reconciliationSummaryResponse struct {
	Month         string          `json:"month"`
	PaymentsTotal decimal.Decimal `json:"payments_total"`
	LedgerIncome  decimal.Decimal `json:"ledger_income"`
	Delta         decimal.Decimal `json:"delta"`
	OpenIssues    int             `json:"open_issues"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

func TestReconciliationHandlerRunAudit(t *testing.T) {
	stack := newBillingStack(t)
	orgID := uuid.New()

	t.Run("clean books report no issues", func(t *testing.T) {
		w := stack.request(t, orgID, http.MethodPost, "/api/v1/finance/reconcile", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var report reconciliationReportResponse
		decodeResponse(t, w, &report)
		assert.False(t, report.RanAt.IsZero())
		assert.Empty(t, report.Issues)
	})

	t.Run("flags income not linked to any invoice", func(t *testing.T) {
		w := stack.request(t, orgID, http.MethodPost, "/api/v1/finance", gin.H{
			"type":        "income",
			"amount":      "320.00",
			"description": "Deposito avulso",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w = stack.request(t, orgID, http.MethodPost, "/api/v1/finance/reconcile", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var report reconciliationReportResponse
		decodeResponse(t, w, &report)
		require.Len(t, report.Issues, 1)
		assert.Equal(t, "UNLINKED_INCOME", report.Issues[0].Type)
		assert.NotNil(t, report.Issues[0].EntryID)
	})

	t.Run("notify persists one notification per issue", func(t *testing.T) {
		w := stack.request(t, orgID, http.MethodPost, "/api/v1/finance/reconcile?notify=true", nil)
		require.Equal(t, http.StatusOK, w.Code)

		notifications, total, err := stack.notificationRepo.FindAllForOrg(
			context.Background(), orgID, shared.Filter{Page: 1, PageSize: 10},
		)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, notifications, 1)
		assert.Equal(t, "UNLINKED_INCOME", notifications[0].Type)
	})

	t.Run("issues stay inside their organization", func(t *testing.T) {
		w := stack.request(t, uuid.New(), http.MethodPost, "/api/v1/finance/reconcile", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var report reconciliationReportResponse
		decodeResponse(t, w, &report)
		assert.Empty(t, report.Issues)
	})
}

func TestReconciliationHandlerDetails(t *testing.T) {
	stack := newBillingStack(t)
	orgID := uuid.New()

	w := stack.request(t, orgID, http.MethodPost, "/api/v1/finance", gin.H{
		"type":        "income",
		"amount":      "100.00",
		"description": "Sem vinculo",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = stack.request(t, orgID, http.MethodGet, "/api/v1/reconciliation/details", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var report reconciliationReportResponse
	decodeResponse(t, w, &report)
	require.Len(t, report.Issues, 1)

	// Details never notifies
	_, total, err := stack.notificationRepo.FindAllForOrg(
		context.Background(), orgID, shared.Filter{Page: 1, PageSize: 10},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestReconciliationHandlerSummary(t *testing.T) {
	stack := newBillingStack(t)
	orgID := uuid.New()
	client := stack.seedClient(t, orgID, "Beatriz Nunes", "52998224725")

	w := stack.request(t, orgID, http.MethodPost, "/api/v1/billing/invoices", gin.H{
		"client_id": client.ID.String(),
		"subtotal":  "600.00",
		"open":      true,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var inv InvoiceResponse
	decodeResponse(t, w, &inv)

	w = stack.request(t, orgID, http.MethodPost, "/api/v1/billing/invoices/"+inv.ID+"/pay", gin.H{
		"amount": "600.00",
		"method": "PIX",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = stack.request(t, orgID, http.MethodGet, "/api/v1/reconciliation/summary", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var summary reconciliationSummaryResponse
	decodeResponse(t, w, &summary)
	assert.Equal(t, time.Now().Format("2006-01"), summary.Month)
	assert.True(t, summary.PaymentsTotal.Equal(decimal.RequireFromString("600.00")),
		"payments total = %s", summary.PaymentsTotal)
	assert.True(t, summary.LedgerIncome.Equal(decimal.RequireFromString("600.00")),
		"ledger income = %s", summary.LedgerIncome)
	assert.True(t, summary.Delta.IsZero(), "delta = %s", summary.Delta)
	assert.Zero(t, summary.OpenIssues)

	t.Run("repeat reads come from cache", func(t *testing.T) {
		w := stack.request(t, orgID, http.MethodPost, "/api/v1/finance", gin.H{
			"type":        "income",
			"amount":      "50.00",
			"description": "Novo deposito",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w = stack.request(t, orgID, http.MethodGet, "/api/v1/reconciliation/summary", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var cached reconciliationSummaryResponse
		decodeResponse(t, w, &cached)
		assert.True(t, cached.GeneratedAt.Equal(summary.GeneratedAt))
		assert.True(t, cached.LedgerIncome.Equal(summary.LedgerIncome))
	})
}
