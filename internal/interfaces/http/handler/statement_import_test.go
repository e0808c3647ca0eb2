package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type importCountersResponse struct {
	Reconciled int `json:"reconciled"`
	Imported   int `json:"imported"`
	Skipped    int `json:"skipped"`
}

type importSummaryResponse struct {
	TotalLines int                      `json:"total_lines"`
	Incomes    importCountersResponse   `json:"incomes"`
	Expenses   importCountersResponse   `json:"expenses"`
	Errors     []map[string]interface{} `json:"errors"`
}

func TestStatementImportHandler(t *testing.T) {
	stack := newBillingStack(t)
	orgID := uuid.New()
	client := stack.seedClient(t, orgID, "Joao Silva", "52998224725")

	w := stack.request(t, orgID, http.MethodPost, "/api/v1/billing/invoices", gin.H{
		"client_id": client.ID.String(),
		"subtotal":  "600.00",
		"open":      true,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var inv InvoiceResponse
	decodeResponse(t, w, &inv)

	csv := "data,valor,identificador,descricao\n" +
		"07/03/2026,600.00,PIX001,Pix recebido Joao Silva 529.982.247-25\n" +
		"07/03/2026,\"R$ -250,00\",PIX002,Aluguel escritorio\n" +
		"08/03/2026,100.00,PIX003,Deposito avulso\n" +
		"notadate,100.00,PIX004,Linha quebrada\n" +
		"08/03/2026,100.00,PIX003,Deposito avulso\n"

	t.Run("imports a statement and reports the breakdown", func(t *testing.T) {
		w := stack.upload(t, orgID, "/api/v1/billing/import-csv", "extrato.csv", csv)

		require.Equal(t, http.StatusOK, w.Code)

		var summary importSummaryResponse
		decodeResponse(t, w, &summary)
		assert.Equal(t, 5, summary.TotalLines)
		assert.Equal(t, 1, summary.Incomes.Reconciled)
		assert.Equal(t, 1, summary.Incomes.Imported)
		assert.Equal(t, 1, summary.Incomes.Skipped)
		assert.Equal(t, 1, summary.Expenses.Imported)
		require.Len(t, summary.Errors, 1)
		assert.EqualValues(t, 5, summary.Errors[0]["line"])
	})

	t.Run("the matched invoice is settled", func(t *testing.T) {
		w := stack.request(t, orgID, http.MethodGet, "/api/v1/billing/invoices/"+inv.ID, nil)

		require.Equal(t, http.StatusOK, w.Code)
		var settled InvoiceResponse
		decodeResponse(t, w, &settled)
		assert.Equal(t, "PAID", settled.Status)
	})

	t.Run("re-importing the same file writes nothing new", func(t *testing.T) {
		w := stack.upload(t, orgID, "/api/v1/billing/import-csv", "extrato.csv", csv)

		require.Equal(t, http.StatusOK, w.Code)

		var summary importSummaryResponse
		decodeResponse(t, w, &summary)
		assert.Zero(t, summary.Incomes.Imported)
		assert.Zero(t, summary.Expenses.Imported)

		list := stack.request(t, orgID, http.MethodGet, "/api/v1/finance?page_size=100", nil)
		require.Equal(t, http.StatusOK, list.Code)
		var items []LedgerEntryResponse
		resp := decodeResponse(t, list, &items)
		assert.Equal(t, int64(3), resp.Meta.Total)
	})

	t.Run("rejects requests without a file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/import-csv", nil)
		req.Header.Set("X-Org-ID", orgID.String())
		w := httptest.NewRecorder()
		stack.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
