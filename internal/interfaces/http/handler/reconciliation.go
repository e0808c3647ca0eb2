package handler

import (
	"strconv"

	financeapp "github.com/clientdesk/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// ReconciliationHandler handles reconciliation audit API endpoints
type ReconciliationHandler struct {
	BaseHandler
	service *financeapp.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(service *financeapp.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		service: service,
	}
}

// RunAudit godoc
//
//	@Summary		Run a reconciliation audit
//	@Description	Checks invoices, payments and ledger entries against each other. With notify=true each issue also creates a notification.
//	@Tags			reconciliation
//	@Produce		json
//	@Param			notify	query		bool	false	"Create notifications for issues"	default(false)
//	@Success		200		{object}	APIResponse[financeapp.ReconciliationReport]
//	@Failure		500		{object}	ErrorResponse
//	@Router			/finance/reconcile [post]
func (h *ReconciliationHandler) RunAudit(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	notify, _ := strconv.ParseBool(c.DefaultQuery("notify", "false"))

	report, err := h.service.RunAudit(c.Request.Context(), orgID, notify)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// Summary godoc
//
//	@Summary		Reconciliation summary
//	@Description	Compares payments received against ledger income for the current month. The result is cached briefly.
//	@Tags			reconciliation
//	@Produce		json
//	@Success		200	{object}	APIResponse[financeapp.ReconciliationSummary]
//	@Failure		500	{object}	ErrorResponse
//	@Router			/reconciliation/summary [get]
func (h *ReconciliationHandler) Summary(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// Details godoc
//
//	@Summary		Reconciliation details
//	@Description	Runs the audit without side effects and returns the full issue list
//	@Tags			reconciliation
//	@Produce		json
//	@Success		200	{object}	APIResponse[financeapp.ReconciliationReport]
//	@Failure		500	{object}	ErrorResponse
//	@Router			/reconciliation/details [get]
func (h *ReconciliationHandler) Details(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	report, err := h.service.RunAudit(c.Request.Context(), orgID, false)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}
