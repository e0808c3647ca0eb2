package handler

import (
	"time"

	financeapp "github.com/clientdesk/backend/internal/application/finance"
	"github.com/clientdesk/backend/internal/domain/finance"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles cash ledger API endpoints
type LedgerHandler struct {
	BaseHandler
	service *financeapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(service *financeapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		service: service,
	}
}

// ===================== Request/Response DTOs =====================

// LedgerEntryResponse represents a ledger entry in API responses
//
//	@Description	Ledger entry response
type LedgerEntryResponse struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id"`
	Type        string    `json:"type" example:"income"`
	Amount      string    `json:"amount" example:"600.00"`
	Currency    string    `json:"currency" example:"BRL"`
	Description string    `json:"description" example:"Pagamento fatura INV-202603-00001"`
	Category    string    `json:"category" example:"Mensalidade"`
	Date        time.Time `json:"date"`
	ClientID    *string   `json:"client_id,omitempty"`
	InvoiceID   *string   `json:"invoice_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toLedgerEntryResponse(entry *finance.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:          entry.ID.String(),
		OrgID:       entry.OrgID.String(),
		Type:        string(entry.Type),
		Amount:      entry.Amount.StringFixed(2),
		Currency:    string(entry.Currency),
		Description: entry.Description,
		Category:    entry.Category,
		Date:        entry.Date,
		CreatedAt:   entry.CreatedAt,
		UpdatedAt:   entry.UpdatedAt,
	}
	if entry.ClientID != nil {
		clientID := entry.ClientID.String()
		resp.ClientID = &clientID
	}
	if entry.InvoiceID != nil {
		invoiceID := entry.InvoiceID.String()
		resp.InvoiceID = &invoiceID
	}
	return resp
}

func toLedgerEntryResponses(entries []*finance.LedgerEntry) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = toLedgerEntryResponse(entry)
	}
	return responses
}

// CreateLedgerEntryRequest represents a manual ledger entry.
// Monetary values are decimal strings to avoid float rounding.
//
//	@Description	Create ledger entry request
type CreateLedgerEntryRequest struct {
	Type        string     `json:"type" binding:"required,oneof=income expense"`
	Amount      string     `json:"amount" binding:"required" example:"250.00"`
	Currency    string     `json:"currency" example:"BRL"`
	Description string     `json:"description" binding:"required" example:"Aluguel sala"`
	Category    string     `json:"category" example:"Despesas fixas"`
	Date        *time.Time `json:"date,omitempty"`
	ClientID    string     `json:"client_id" binding:"omitempty,uuid"`
}

// LedgerListFilter represents filter parameters for ledger entry lists
//
//	@Description	Ledger list filter
type LedgerListFilter struct {
	Type      string `form:"type" binding:"omitempty,oneof=income expense"`
	Category  string `form:"category"`
	ClientID  string `form:"client_id" binding:"omitempty,uuid"`
	InvoiceID string `form:"invoice_id" binding:"omitempty,uuid"`
	FromDate  string `form:"from_date"`
	ToDate    string `form:"to_date"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string `form:"order_by"`
	OrderDir  string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ===================== Handlers =====================

// CreateEntry godoc
//
//	@Summary		Create a ledger entry
//	@Description	Records a manual income or expense movement in the cash ledger
//	@Tags			finance
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateLedgerEntryRequest	true	"Entry data"
//	@Success		201		{object}	APIResponse[LedgerEntryResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/finance [post]
func (h *LedgerHandler) CreateEntry(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	var req CreateLedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.BadRequest(c, "Invalid amount")
		return
	}

	createReq := financeapp.CreateEntryRequest{
		OrgID:       orgID,
		Type:        finance.EntryType(req.Type),
		Amount:      amount,
		Currency:    valueobject.Currency(req.Currency),
		Description: req.Description,
		Category:    req.Category,
		Date:        req.Date,
	}
	if req.ClientID != "" {
		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			h.BadRequest(c, "Invalid client ID")
			return
		}
		createReq.ClientID = &clientID
	}

	entry, err := h.service.CreateEntry(c.Request.Context(), createReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toLedgerEntryResponse(entry))
}

// ListEntries godoc
//
//	@Summary		List ledger entries
//	@Description	Get a paginated list of ledger entries
//	@Tags			finance
//	@Produce		json
//	@Param			type		query		string	false	"Entry direction"	Enums(income, expense)
//	@Param			category	query		string	false	"Filter by category"
//	@Param			client_id	query		string	false	"Filter by client"
//	@Param			from_date	query		string	false	"Date range start (YYYY-MM-DD)"
//	@Param			to_date		query		string	false	"Date range end (YYYY-MM-DD)"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Success		200			{object}	APIResponse[[]LedgerEntryResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/finance [get]
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	var filter LedgerListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := finance.LedgerEntryFilter{}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir

	if filter.Type != "" {
		entryType := finance.EntryType(filter.Type)
		domainFilter.Type = &entryType
	}
	if filter.Category != "" {
		category := filter.Category
		domainFilter.Category = &category
	}
	if filter.ClientID != "" {
		clientID, err := uuid.Parse(filter.ClientID)
		if err != nil {
			h.BadRequest(c, "Invalid client ID")
			return
		}
		domainFilter.ClientID = &clientID
	}
	if filter.InvoiceID != "" {
		invoiceID, err := uuid.Parse(filter.InvoiceID)
		if err != nil {
			h.BadRequest(c, "Invalid invoice ID")
			return
		}
		domainFilter.InvoiceID = &invoiceID
	}
	if filter.FromDate != "" {
		from, err := time.Parse("2006-01-02", filter.FromDate)
		if err != nil {
			h.BadRequest(c, "Invalid from_date")
			return
		}
		domainFilter.FromDate = &from
	}
	if filter.ToDate != "" {
		to, err := time.Parse("2006-01-02", filter.ToDate)
		if err != nil {
			h.BadRequest(c, "Invalid to_date")
			return
		}
		domainFilter.ToDate = &to
	}

	result, err := h.service.ListEntries(c.Request.Context(), orgID, domainFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toLedgerEntryResponses(result.Items), result.Total, result.Page, result.PageSize)
}

// GetEntry godoc
//
//	@Summary		Get a ledger entry
//	@Description	Get a ledger entry by ID
//	@Tags			finance
//	@Produce		json
//	@Param			id	path		string	true	"Entry ID"
//	@Success		200	{object}	APIResponse[LedgerEntryResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Router			/finance/{id} [get]
func (h *LedgerHandler) GetEntry(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid entry ID")
		return
	}

	entry, err := h.service.GetEntry(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toLedgerEntryResponse(entry))
}

// parseMonth parses an optional ?month=YYYY-MM query, defaulting to now
func parseMonth(c *gin.Context) (time.Time, bool) {
	raw := c.Query("month")
	if raw == "" {
		return time.Now(), true
	}
	ref, err := time.Parse("2006-01", raw)
	if err != nil {
		return time.Time{}, false
	}
	return ref, true
}

// MonthlySummary godoc
//
//	@Summary		Monthly cash summary
//	@Description	Income, expenses and net for one month of ledger activity
//	@Tags			finance
//	@Produce		json
//	@Param			month	query		string	false	"Reference month (YYYY-MM), defaults to current"
//	@Success		200		{object}	APIResponse[financeapp.MonthlySummary]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/finance/summary [get]
func (h *LedgerHandler) MonthlySummary(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	ref, ok := parseMonth(c)
	if !ok {
		h.BadRequest(c, "Invalid month, expected YYYY-MM")
		return
	}

	summary, err := h.service.MonthlySummary(c.Request.Context(), orgID, ref)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// CashProjection godoc
//
//	@Summary		Cash projection
//	@Description	Received plus still-expected invoice income against expenses for one month
//	@Tags			finance
//	@Produce		json
//	@Param			month	query		string	false	"Reference month (YYYY-MM), defaults to current"
//	@Success		200		{object}	APIResponse[financeapp.CashProjection]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/finance/projection [get]
func (h *LedgerHandler) CashProjection(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	ref, ok := parseMonth(c)
	if !ok {
		h.BadRequest(c, "Invalid month, expected YYYY-MM")
		return
	}

	projection, err := h.service.CashProjection(c.Request.Context(), orgID, ref)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, projection)
}
