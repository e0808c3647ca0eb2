package handler

import (
	"time"

	billingapp "github.com/clientdesk/backend/internal/application/billing"
	"github.com/clientdesk/backend/internal/domain/billing"
	"github.com/clientdesk/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InstallmentHandler handles installment schedule API endpoints
type InstallmentHandler struct {
	BaseHandler
	service *billingapp.InstallmentService
}

// NewInstallmentHandler creates a new InstallmentHandler
func NewInstallmentHandler(service *billingapp.InstallmentService) *InstallmentHandler {
	return &InstallmentHandler{
		service: service,
	}
}

// ===================== Request/Response DTOs =====================

// InstallmentResponse represents an installment in API responses
//
//	@Description	Installment response
type InstallmentResponse struct {
	ID        string     `json:"id"`
	OrgID     string     `json:"org_id"`
	ClientID  string     `json:"client_id"`
	Number    int        `json:"number" example:"1"`
	Amount    string     `json:"amount" example:"600.00"`
	Currency  string     `json:"currency" example:"BRL"`
	DueDate   time.Time  `json:"due_date"`
	Status    string     `json:"status" example:"PENDING"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toInstallmentResponse(inst *billing.Installment) InstallmentResponse {
	return InstallmentResponse{
		ID:        inst.ID.String(),
		OrgID:     inst.OrgID.String(),
		ClientID:  inst.ClientID.String(),
		Number:    inst.Number,
		Amount:    inst.Amount.StringFixed(2),
		Currency:  string(inst.Currency),
		DueDate:   inst.DueDate,
		Status:    string(inst.Status),
		PaidAt:    inst.PaidAt,
		CreatedAt: inst.CreatedAt,
		UpdatedAt: inst.UpdatedAt,
	}
}

func toInstallmentResponses(installments []*billing.Installment) []InstallmentResponse {
	responses := make([]InstallmentResponse, len(installments))
	for i, inst := range installments {
		responses[i] = toInstallmentResponse(inst)
	}
	return responses
}

// GenerateScheduleRequest represents a request to generate a client's installment schedule
//
//	@Description	Generate installment schedule request
type GenerateScheduleRequest struct {
	InstallmentValue string     `json:"installment_value" example:"600.00"`
	OverrideDays     []int      `json:"override_days,omitempty"`
	ContractStart    *time.Time `json:"contract_start,omitempty"`
}

// ConfirmInstallmentRequest represents a payment confirmation for an installment
//
//	@Description	Confirm installment request
type ConfirmInstallmentRequest struct {
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

// ===================== Handlers =====================

// GenerateSchedule godoc
//
//	@Summary		Generate an installment schedule
//	@Description	Creates the installment schedule from the client's contract terms. A client that already has a schedule gets a conflict.
//	@Tags			billing
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Client ID"
//	@Param			request	body		GenerateScheduleRequest	false	"Schedule overrides"
//	@Success		201		{object}	APIResponse[[]InstallmentResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/billing/clients/{id}/installments [post]
func (h *InstallmentHandler) GenerateSchedule(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	var req GenerateScheduleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	genReq := billingapp.GenerateScheduleRequest{
		OrgID:         orgID,
		ClientID:      clientID,
		OverrideDays:  req.OverrideDays,
		ContractStart: req.ContractStart,
	}
	if req.InstallmentValue != "" {
		value, err := valueobject.NewMoneyFromString(req.InstallmentValue, valueobject.DefaultCurrency)
		if err != nil {
			h.BadRequest(c, "Invalid installment value")
			return
		}
		genReq.InstallmentValue = &value
	}

	installments, err := h.service.GenerateSchedule(c.Request.Context(), genReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toInstallmentResponses(installments))
}

// ListForClient godoc
//
//	@Summary		List a client's installments
//	@Description	Get the full installment schedule for a client, ordered by number
//	@Tags			billing
//	@Produce		json
//	@Param			id	path		string	true	"Client ID"
//	@Success		200	{object}	APIResponse[[]InstallmentResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Router			/billing/clients/{id}/installments [get]
func (h *InstallmentHandler) ListForClient(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	installments, err := h.service.ListForClient(c.Request.Context(), orgID, clientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInstallmentResponses(installments))
}

// ConfirmInstallment godoc
//
//	@Summary		Confirm an installment payment
//	@Description	Marks a pending installment as paid
//	@Tags			billing
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Installment ID"
//	@Param			request	body		ConfirmInstallmentRequest	false	"Payment timestamp"
//	@Success		200		{object}	APIResponse[InstallmentResponse]
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/billing/installments/{id}/confirm [post]
func (h *InstallmentHandler) ConfirmInstallment(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid installment ID")
		return
	}

	var req ConfirmInstallmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	paidAt := time.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	installment, err := h.service.ConfirmInstallment(c.Request.Context(), orgID, id, paidAt)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInstallmentResponse(installment))
}
