package handler

import (
	financeapp "github.com/clientdesk/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// StatementImportHandler handles bank statement CSV import endpoints
type StatementImportHandler struct {
	BaseHandler
	service *financeapp.StatementImportService
}

// NewStatementImportHandler creates a new StatementImportHandler
func NewStatementImportHandler(service *financeapp.StatementImportService) *StatementImportHandler {
	return &StatementImportHandler{
		service: service,
	}
}

// ImportCSV godoc
//
//	@Summary		Import a bank statement CSV
//	@Description	Imports a Pix bank statement. Incomes are matched to clients and settled against open invoices, expenses are recorded directly. Malformed lines are reported in the summary, not fatal, so the response is 200 even with line errors.
//	@Tags			billing
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Statement CSV (date,amount,identifier,description)"
//	@Success		200		{object}	APIResponse[financeapp.ImportSummary]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/billing/import-csv [post]
func (h *StatementImportHandler) ImportCSV(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Missing statement file")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read statement file")
		return
	}
	defer file.Close()

	summary, err := h.service.Import(c.Request.Context(), orgID, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}
