package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/services"
)

// DepositHandler handles card deposit requests.
type DepositHandler struct {
	depositService services.DepositServicer
	auditService   services.AuditServicer
}

// NewDepositHandler creates a new DepositHandler.
func NewDepositHandler(depositService services.DepositServicer, auditService services.AuditServicer) *DepositHandler {
	return &DepositHandler{depositService: depositService, auditService: auditService}
}

// CreatePaymentIntentRequest represents the request payload for starting a card deposit
type CreatePaymentIntentRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// PaymentIntentResponse represents the provider-side intent handed back to the client
type PaymentIntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// ConfirmDepositRequest represents the request payload for settling a card deposit
type ConfirmDepositRequest struct {
	Amount          int64  `json:"amount" binding:"required,gt=0"`
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

// CreatePaymentIntent starts a card deposit
// @Summary     Create a payment intent
// @Description Create a card payment intent for a wallet deposit; the wallet is credited only after confirmation
// @Tags        deposits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePaymentIntentRequest true "Deposit amount in minor units"
// @Success     200 {object} PaymentIntentResponse "Intent created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Gateway error"
// @Router      /create-payment-intent [post]
func (h *DepositHandler) CreatePaymentIntent(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	intent, err := h.depositService.CreateCardIntent(c.Request.Context(), userID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_secret":     intent.ClientSecret,
		"payment_intent_id": intent.ID,
	})
}

// ConfirmDeposit settles a card deposit
// @Summary     Confirm a card deposit
// @Description Verify a completed payment intent with the provider and credit the wallet exactly once
// @Tags        deposits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ConfirmDepositRequest true "Deposit confirmation"
// @Success     200 {object} TransactionResponse "Deposit posted"
// @Failure     400 {object} ErrorResponse "Invalid input or payment not completed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Payment already credited"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /deposit [post]
func (h *DepositHandler) ConfirmDeposit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ConfirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transaction, wallet, err := h.depositService.ConfirmCardDeposit(c.Request.Context(), userID, req.Amount, req.PaymentIntentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CONFIRM_CARD_DEPOSIT", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"amount": transaction.Amount, "payment_intent_id": req.PaymentIntentID})

	c.JSON(http.StatusOK, gin.H{
		"message":     "Deposit successful",
		"transaction": transaction,
		"wallet":      wallet,
	})
}
