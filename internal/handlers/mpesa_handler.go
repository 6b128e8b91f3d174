package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetwise/internal/config"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/logger"
	"budgetwise/internal/payments/mpesa"
	"budgetwise/internal/services"
)

// MpesaHandler handles mobile-money deposit requests and provider callbacks.
type MpesaHandler struct {
	depositService services.DepositServicer
	auditService   services.AuditServicer
	cfg            config.MpesaConfig
}

// NewMpesaHandler creates a new MpesaHandler.
func NewMpesaHandler(depositService services.DepositServicer, auditService services.AuditServicer, cfg config.MpesaConfig) *MpesaHandler {
	return &MpesaHandler{depositService: depositService, auditService: auditService, cfg: cfg}
}

// STKPushRequest represents the request payload for initiating a push
type STKPushRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,msisdn"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"max=100"`
}

// STKPushResponse represents the provider acknowledgement returned to the client
type STKPushResponse struct {
	MerchantRequestID string `json:"merchant_request_id"`
	CheckoutRequestID string `json:"checkout_request_id"`
	CustomerMessage   string `json:"customer_message"`
}

// ConfirmMpesaDepositRequest represents the request payload for the unverified confirmation path
type ConfirmMpesaDepositRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,msisdn"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"max=500"`
}

// STKPush initiates a mobile-money deposit
// @Summary     Initiate an STK push
// @Description Prompt the user's phone to approve a wallet deposit; the wallet is credited when the provider callback arrives
// @Tags        mpesa
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body STKPushRequest true "Push details"
// @Success     200 {object} STKPushResponse "Push initiated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Gateway error"
// @Router      /mpesa/stk-push [post]
func (h *MpesaHandler) STKPush(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req STKPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp, err := h.depositService.InitiateSTKPush(c.Request.Context(), userID, req.PhoneNumber, req.Amount, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "INITIATE_STK_PUSH", "deposit", 0, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount, "checkout_request_id": resp.CheckoutRequestID})

	c.JSON(http.StatusOK, gin.H{
		"merchant_request_id": resp.MerchantRequestID,
		"checkout_request_id": resp.CheckoutRequestID,
		"customer_message":    resp.CustomerMessage,
	})
}

// Callback receives the provider's asynchronous push result. The provider is
// always acknowledged with 200 regardless of processing outcome; anything else
// triggers provider-side retries against work that may already be done.
// @Summary     M-Pesa result callback
// @Description Provider-facing endpoint receiving STK push results
// @Tags        mpesa
// @Accept      json
// @Produce     json
// @Param       secret path string true "Callback secret"
// @Success     200 {object} MessageResponse "Acknowledged"
// @Router      /mpesa/callback/{secret} [post]
func (h *MpesaHandler) Callback(c *gin.Context) {
	ack := func() {
		c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
	}

	var env mpesa.CallbackEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		logger.Get().Warnw("mpesa callback with unreadable body", "error", err.Error(), "ip", c.ClientIP())
		ack()
		return
	}

	if !mpesa.ValidateCallback(h.cfg.CallbackSecret, c.Param("secret"), &env) {
		logger.Get().Warnw("mpesa callback rejected",
			"checkout_request_id", env.CheckoutRequestID(),
			"ip", c.ClientIP(),
		)
		ack()
		return
	}

	if err := h.depositService.HandleCallback(&env); err != nil {
		logger.Get().Errorw("mpesa callback processing failed",
			"checkout_request_id", env.CheckoutRequestID(),
			"error", err.Error(),
		)
	}
	ack()
}

// TransactionStatus polls the provider for a push outcome
// @Summary     Query STK push status
// @Description Ask the provider whether a previously initiated push has settled
// @Tags        mpesa
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       checkoutRequestId path string true "Checkout request ID"
// @Success     200 {object} mpesa.StatusResponse "Provider status"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Gateway error"
// @Router      /mpesa/transaction/{checkoutRequestId} [get]
func (h *MpesaHandler) TransactionStatus(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	checkoutRequestID := c.Param("checkoutRequestId")
	if checkoutRequestID == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "checkoutRequestId is required"))
		return
	}

	status, err := h.depositService.QuerySTKStatus(c.Request.Context(), checkoutRequestID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// ConfirmDeposit posts a mobile-money deposit without provider verification
// @Summary     Confirm an M-Pesa deposit
// @Description Credit the wallet for a deposit reported by the client; demo path without provider verification
// @Tags        mpesa
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ConfirmMpesaDepositRequest true "Deposit details"
// @Success     200 {object} TransactionResponse "Deposit posted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /mpesa/confirm-deposit [post]
func (h *MpesaHandler) ConfirmDeposit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ConfirmMpesaDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transaction, wallet, err := h.depositService.ConfirmMpesaDeposit(userID, req.PhoneNumber, req.Amount, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CONFIRM_MPESA_DEPOSIT", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount})

	c.JSON(http.StatusOK, gin.H{
		"message":     "Deposit successful",
		"transaction": transaction,
		"wallet":      wallet,
	})
}
