package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	billingapp "github.com/clientdesk/backend/internal/application/billing"
	financeapp "github.com/clientdesk/backend/internal/application/finance"
	"github.com/clientdesk/backend/internal/domain/partner"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/clientdesk/backend/internal/infrastructure/cache"
	"github.com/clientdesk/backend/internal/infrastructure/persistence"
	"github.com/clientdesk/backend/internal/infrastructure/persistence/models"
	"github.com/clientdesk/backend/internal/interfaces/http/dto"
	"github.com/clientdesk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// billingStack wires the full application over an in-memory database so
// handler tests exercise real binding, routing and service behavior.
type billingStack struct {
	engine           *gin.Engine
	db               *gorm.DB
	clientRepo       *persistence.GormClientRepository
	invoiceRepo      *persistence.GormInvoiceRepository
	ledgerRepo       *persistence.GormLedgerEntryRepository
	notificationRepo *persistence.GormNotificationRepository
	summaryCache     *cache.InMemorySummaryCache
}

func newBillingStack(t *testing.T) *billingStack {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.ClientModel{},
		&models.InvoiceModel{},
		&models.PaymentModel{},
		&models.InstallmentModel{},
		&models.LedgerEntryModel{},
		&models.NotificationModel{},
	))

	log := zap.NewNop()

	clientRepo := persistence.NewGormClientRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	ledgerRepo := persistence.NewGormLedgerEntryRepository(db)
	installmentRepo := persistence.NewGormInstallmentRepository(db)
	notificationRepo := persistence.NewGormNotificationRepository(db)
	txScope := persistence.NewGormBillingTransactionScope(db)

	summaryCache := cache.NewInMemorySummaryCache()
	t.Cleanup(summaryCache.Stop)

	orchestrator := billingapp.NewPaymentOrchestrator(txScope, invoiceRepo, paymentRepo, clientRepo, log)
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, clientRepo, orchestrator, log)
	installmentService := billingapp.NewInstallmentService(installmentRepo, clientRepo, log)
	ledgerService := financeapp.NewLedgerService(ledgerRepo, invoiceRepo, clientRepo, orchestrator, invoiceService, log)
	reconciliationService := financeapp.NewReconciliationService(
		invoiceRepo, paymentRepo, ledgerRepo, notificationRepo, summaryCache, log,
	)
	statementImportService := financeapp.NewStatementImportService(
		ledgerRepo, invoiceRepo, clientRepo, orchestrator, log,
	)

	invoiceHandler := NewInvoiceHandler(invoiceService)
	installmentHandler := NewInstallmentHandler(installmentService)
	ledgerHandler := NewLedgerHandler(ledgerService)
	reconciliationHandler := NewReconciliationHandler(reconciliationService)
	statementImportHandler := NewStatementImportHandler(statementImportService)

	engine := gin.New()
	api := engine.Group("/api/v1")
	api.Use(middleware.OrgMiddleware())

	billing := api.Group("/billing")
	billing.POST("/invoices", invoiceHandler.CreateInvoice)
	billing.GET("/invoices", invoiceHandler.ListInvoices)
	billing.GET("/invoices/:id", invoiceHandler.GetInvoice)
	billing.POST("/invoices/:id/open", invoiceHandler.OpenInvoice)
	billing.POST("/invoices/:id/pay", invoiceHandler.PayInvoice)
	billing.POST("/invoices/:id/cancel", invoiceHandler.CancelInvoice)
	billing.PUT("/invoices/:id/values", invoiceHandler.UpdateInvoiceValues)
	billing.DELETE("/invoices/:id", invoiceHandler.DeleteInvoice)
	billing.POST("/clients/:id/installments", installmentHandler.GenerateSchedule)
	billing.GET("/clients/:id/installments", installmentHandler.ListForClient)
	billing.POST("/installments/:id/confirm", installmentHandler.ConfirmInstallment)
	billing.POST("/import-csv", statementImportHandler.ImportCSV)

	finance := api.Group("/finance")
	finance.POST("", ledgerHandler.CreateEntry)
	finance.GET("", ledgerHandler.ListEntries)
	finance.GET("/summary", ledgerHandler.MonthlySummary)
	finance.GET("/projection", ledgerHandler.CashProjection)
	finance.POST("/reconcile", reconciliationHandler.RunAudit)
	finance.GET("/:id", ledgerHandler.GetEntry)

	reconciliation := api.Group("/reconciliation")
	reconciliation.GET("/summary", reconciliationHandler.Summary)
	reconciliation.GET("/details", reconciliationHandler.Details)

	return &billingStack{
		engine:           engine,
		db:               db,
		clientRepo:       clientRepo,
		invoiceRepo:      invoiceRepo,
		ledgerRepo:       ledgerRepo,
		notificationRepo: notificationRepo,
		summaryCache:     summaryCache,
	}
}

// seedClient persists a client with a 600.00 BRL contract
func (s *billingStack) seedClient(t *testing.T, orgID uuid.UUID, name, taxID string) *partner.Client {
	t.Helper()
	value, err := valueobject.NewMoneyFromString("600.00", valueobject.BRL)
	require.NoError(t, err)
	client, err := partner.NewClient(orgID, name, "", taxID, value)
	require.NoError(t, err)
	require.NoError(t, s.clientRepo.Save(context.Background(), client))
	return client
}

func (s *billingStack) request(t *testing.T, orgID uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if orgID != uuid.Nil {
		req.Header.Set(middleware.OrgHeaderKey, orgID.String())
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *billingStack) upload(t *testing.T, orgID uuid.UUID, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.OrgHeaderKey, orgID.String())
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// decodeResponse unmarshals the envelope and returns the data payload
// re-marshaled into out
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if out != nil && resp.Data != nil {
		payload, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(payload, out))
	}
	return resp
}
