package handler

import (
	"time"

	billingapp "github.com/clientdesk/backend/internal/application/billing"
	"github.com/clientdesk/backend/internal/domain/billing"
	"github.com/clientdesk/backend/internal/domain/finance"
	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceHandler handles invoice lifecycle API endpoints
type InvoiceHandler struct {
	BaseHandler
	service *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(service *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		service: service,
	}
}

// ===================== Request/Response DTOs =====================

// InvoiceResponse represents an invoice in API responses
//
//	@Description	Invoice response
type InvoiceResponse struct {
	ID          string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	OrgID       string     `json:"org_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Number      string     `json:"number" example:"INV-202603-00001"`
	ClientID    string     `json:"client_id"`
	Status      string     `json:"status" example:"OPEN"`
	Currency    string     `json:"currency" example:"BRL"`
	Subtotal    string     `json:"subtotal" example:"1500.00"`
	Discount    string     `json:"discount" example:"0.00"`
	Tax         string     `json:"tax" example:"0.00"`
	Total       string     `json:"total" example:"1500.00"`
	IssueDate   time.Time  `json:"issue_date"`
	DueDate     time.Time  `json:"due_date"`
	Description string     `json:"description,omitempty" example:"Mensalidade março"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Version     int        `json:"version" example:"1"`
}

func toInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:          inv.ID.String(),
		OrgID:       inv.OrgID.String(),
		Number:      inv.Number,
		ClientID:    inv.ClientID.String(),
		Status:      string(inv.Status),
		Currency:    string(inv.Currency),
		Subtotal:    inv.Subtotal.StringFixed(2),
		Discount:    inv.Discount.StringFixed(2),
		Tax:         inv.Tax.StringFixed(2),
		Total:       inv.Total.StringFixed(2),
		IssueDate:   inv.IssueDate,
		DueDate:     inv.DueDate,
		Description: inv.Description,
		PaidAt:      inv.PaidAt,
		CancelledAt: inv.CancelledAt,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
		Version:     inv.Version,
	}
}

func toInvoiceResponses(invoices []*billing.Invoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		responses[i] = toInvoiceResponse(inv)
	}
	return responses
}

// InvoiceItemRequest represents one invoice line item
//
//	@Description	Invoice line item
type InvoiceItemRequest struct {
	Description string `json:"description" binding:"required" example:"Consultoria mensal"`
	Quantity    string `json:"quantity" binding:"required" example:"1"`
	UnitPrice   string `json:"unit_price" binding:"required" example:"1500.00"`
}

// CreateInvoiceRequest represents a request to create an invoice.
// Monetary values are decimal strings to avoid float rounding.
//
//	@Description	Create invoice request
type CreateInvoiceRequest struct {
	ClientID    string               `json:"client_id" binding:"required,uuid"`
	Number      string               `json:"number" example:"INV-202603-00001"`
	Currency    string               `json:"currency" example:"BRL"`
	Subtotal    string               `json:"subtotal" example:"1500.00"`
	Discount    string               `json:"discount" example:"0.00"`
	Tax         string               `json:"tax" example:"0.00"`
	Items       []InvoiceItemRequest `json:"items,omitempty"`
	IssueDate   *time.Time           `json:"issue_date,omitempty"`
	DueDate     *time.Time           `json:"due_date,omitempty"`
	Description string               `json:"description" example:"Mensalidade março"`
	Open        bool                 `json:"open" example:"true"`
}

// UpdateInvoiceValuesRequest represents a request to change a draft invoice's values
//
//	@Description	Update invoice values request
type UpdateInvoiceValuesRequest struct {
	Subtotal string `json:"subtotal" binding:"required" example:"1800.00"`
	Discount string `json:"discount" example:"0.00"`
	Tax      string `json:"tax" example:"0.00"`
}

// PayInvoiceRequest represents a payment confirmation for an invoice
//
//	@Description	Pay invoice request
type PayInvoiceRequest struct {
	Amount   string     `json:"amount" binding:"required" example:"1500.00"`
	Method   string     `json:"method" binding:"required" example:"PIX"`
	Provider string     `json:"provider" example:"efi"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`
	Category string     `json:"category" example:"Mensalidade"`
}

// PayInvoiceResponse represents the outcome of a payment confirmation
//
//	@Description	Pay invoice response
type PayInvoiceResponse struct {
	Invoice   InvoiceResponse `json:"invoice"`
	PaymentID string          `json:"payment_id,omitempty"`
	EntryID   string          `json:"entry_id,omitempty"`
	Duplicate bool            `json:"duplicate" example:"false"`
}

// InvoiceListFilter represents filter parameters for invoice list
//
//	@Description	Invoice list filter
type InvoiceListFilter struct {
	ClientID       string `form:"client_id" binding:"omitempty,uuid"`
	Status         string `form:"status" binding:"omitempty,oneof=DRAFT OPEN PAID OVERDUE VOID"`
	DueFrom        string `form:"due_from"`
	DueTo          string `form:"due_to"`
	IncludeDeleted bool   `form:"include_deleted"`
	Page           int    `form:"page,omitempty" binding:"omitempty,min=1" example:"1"`
	PageSize       int    `form:"page_size,omitempty" binding:"omitempty,min=1,max=100" json:"page_size" example:"20"`
	OrderBy        string `form:"order_by"`
	OrderDir       string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// parseAmount parses a decimal string, treating empty as zero
func parseAmount(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

// ===================== Handlers =====================

// CreateInvoice godoc
//
//	@Summary		Create an invoice
//	@Description	Creates an invoice for a client's billing period. Only one non-void invoice per client per month.
//	@Tags			billing
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateInvoiceRequest	true	"Invoice data"
//	@Success		201		{object}	APIResponse[InvoiceResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/billing/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	subtotal, err := parseAmount(req.Subtotal)
	if err != nil {
		h.BadRequest(c, "Invalid subtotal")
		return
	}
	discount, err := parseAmount(req.Discount)
	if err != nil {
		h.BadRequest(c, "Invalid discount")
		return
	}
	tax, err := parseAmount(req.Tax)
	if err != nil {
		h.BadRequest(c, "Invalid tax")
		return
	}

	items := make([]billing.InvoiceItem, 0, len(req.Items))
	for _, item := range req.Items {
		quantity, err := parseAmount(item.Quantity)
		if err != nil {
			h.BadRequest(c, "Invalid item quantity")
			return
		}
		unitPrice, err := parseAmount(item.UnitPrice)
		if err != nil {
			h.BadRequest(c, "Invalid item unit price")
			return
		}
		items = append(items, billing.InvoiceItem{
			Description: item.Description,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
		})
	}

	createReq := billingapp.CreateInvoiceRequest{
		OrgID:       orgID,
		ClientID:    clientID,
		Number:      req.Number,
		Currency:    valueobject.Currency(req.Currency),
		Subtotal:    subtotal,
		Discount:    discount,
		Tax:         tax,
		Items:       items,
		Description: req.Description,
		Open:        req.Open,
	}
	if req.IssueDate != nil {
		createReq.IssueDate = *req.IssueDate
	}
	if req.DueDate != nil {
		createReq.DueDate = *req.DueDate
	}

	invoice, err := h.service.CreateInvoice(c.Request.Context(), createReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toInvoiceResponse(invoice))
}

// ListInvoices godoc
//
//	@Summary		List invoices
//	@Description	Get a paginated list of invoices
//	@Tags			billing
//	@Produce		json
//	@Param			client_id	query		string	false	"Filter by client"
//	@Param			status		query		string	false	"Filter by status"	Enums(DRAFT, OPEN, PAID, OVERDUE, VOID)
//	@Param			due_from	query		string	false	"Due date range start (YYYY-MM-DD)"
//	@Param			due_to		query		string	false	"Due date range end (YYYY-MM-DD)"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Success		200			{object}	APIResponse[[]InvoiceResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/billing/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	var filter InvoiceListFilter
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

	domainFilter := billing.InvoiceFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		},
		IncludeDeleted: filter.IncludeDeleted,
	}
	if filter.ClientID != "" {
		clientID, err := uuid.Parse(filter.ClientID)
		if err != nil {
			h.BadRequest(c, "Invalid client ID")
			return
		}
		domainFilter.ClientID = &clientID
	}
	if filter.Status != "" {
		status := billing.InvoiceStatus(filter.Status)
		domainFilter.Status = &status
	}
	if filter.DueFrom != "" {
		from, err := time.Parse("2006-01-02", filter.DueFrom)
		if err != nil {
			h.BadRequest(c, "Invalid due_from date")
			return
		}
		domainFilter.DueFrom = &from
	}
	if filter.DueTo != "" {
		to, err := time.Parse("2006-01-02", filter.DueTo)
		if err != nil {
			h.BadRequest(c, "Invalid due_to date")
			return
		}
		domainFilter.DueTo = &to
	}

	invoices, total, err := h.service.ListInvoices(c.Request.Context(), orgID, domainFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toInvoiceResponses(invoices), total, filter.Page, filter.PageSize)
}

// GetInvoice godoc
//
//	@Summary		Get an invoice
//	@Description	Get an invoice by ID. Reading past the due date flips OPEN invoices to OVERDUE.
//	@Tags			billing
//	@Produce		json
//	@Param			id	path		string	true	"Invoice ID"
//	@Success		200	{object}	APIResponse[InvoiceResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Router			/billing/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.service.GetInvoice(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(invoice))
}

// OpenInvoice godoc
//
//	@Summary		Open an invoice
//	@Description	Issues a DRAFT invoice, making it payable
//	@Tags			billing
//	@Produce		json
//	@Param			id	path		string	true	"Invoice ID"
//	@Success		200	{object}	APIResponse[InvoiceResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/billing/invoices/{id}/open [post]
func (h *InvoiceHandler) OpenInvoice(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.service.OpenInvoice(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(invoice))
}

// PayInvoice godoc
//
//	@Summary		Pay an invoice
//	@Description	Confirms a payment: invoice status, payment row and ledger entry are written atomically. Double submits within the duplicate window are absorbed.
//	@Tags			billing
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Invoice ID"
//	@Param			request	body		PayInvoiceRequest	true	"Payment data"
//	@Success		200		{object}	APIResponse[PayInvoiceResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/billing/invoices/{id}/pay [post]
func (h *InvoiceHandler) PayInvoice(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req PayInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	amount, err := valueobject.NewMoneyFromString(req.Amount, valueobject.DefaultCurrency)
	if err != nil {
		h.BadRequest(c, "Invalid amount")
		return
	}

	paidAt := time.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	result, err := h.service.PayInvoice(c.Request.Context(), billingapp.RecordPaymentRequest{
		OrgID:     orgID,
		InvoiceID: id,
		Amount:    amount,
		Method:    billing.PaymentMethod(req.Method),
		Provider:  req.Provider,
		PaidAt:    paidAt,
		Category:  req.Category,
		Metadata:  finance.Metadata{},
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := PayInvoiceResponse{
		Invoice:   toInvoiceResponse(result.Invoice),
		Duplicate: result.Duplicate,
	}
	if result.Payment != nil {
		resp.PaymentID = result.Payment.ID.String()
	}
	if result.Entry != nil {
		resp.EntryID = result.Entry.ID.String()
	}

	h.Success(c, resp)
}

// CancelInvoice godoc
//
//	@Summary		Cancel an invoice
//	@Description	Voids an invoice that has not been paid
//	@Tags			billing
//	@Produce		json
//	@Param			id	path		string	true	"Invoice ID"
//	@Success		200	{object}	APIResponse[InvoiceResponse]
//	@Failure		422	{object}	ErrorResponse
//	@Router			/billing/invoices/{id}/cancel [post]
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.service.CancelInvoice(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(invoice))
}

// UpdateInvoiceValues godoc
//
//	@Summary		Update invoice values
//	@Description	Replaces subtotal, discount and tax on an editable invoice
//	@Tags			billing
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Invoice ID"
//	@Param			request	body		UpdateInvoiceValuesRequest	true	"New values"
//	@Success		200		{object}	APIResponse[InvoiceResponse]
//	@Failure		422		{object}	ErrorResponse
//	@Router			/billing/invoices/{id}/values [put]
func (h *InvoiceHandler) UpdateInvoiceValues(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req UpdateInvoiceValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	subtotal, err := parseAmount(req.Subtotal)
	if err != nil {
		h.BadRequest(c, "Invalid subtotal")
		return
	}
	discount, err := parseAmount(req.Discount)
	if err != nil {
		h.BadRequest(c, "Invalid discount")
		return
	}
	tax, err := parseAmount(req.Tax)
	if err != nil {
		h.BadRequest(c, "Invalid tax")
		return
	}

	invoice, err := h.service.UpdateInvoiceValues(c.Request.Context(), orgID, id, subtotal, discount, tax)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(invoice))
}

// DeleteInvoice godoc
//
//	@Summary		Delete an invoice
//	@Description	Soft-deletes an invoice. PAID invoices cannot be deleted.
//	@Tags			billing
//	@Produce		json
//	@Param			id	path	string	true	"Invoice ID"
//	@Success		204
//	@Failure		422	{object}	ErrorResponse
//	@Router			/billing/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	if err := h.service.DeleteInvoice(c.Request.Context(), orgID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
