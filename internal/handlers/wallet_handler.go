package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetwise/internal/services"
)

// WalletHandler handles wallet-related requests.
type WalletHandler struct {
	walletService services.WalletServicer
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService services.WalletServicer) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// WalletResponse represents a wallet in the response
type WalletResponse struct {
	ID       uint   `json:"id"`
	UserID   uint   `json:"user_id"`
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

// GetWallet returns the authenticated user's wallet
// @Summary     Get wallet
// @Description Get the authenticated user's wallet with its current balance
// @Tags        wallet
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} WalletResponse "Wallet details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /wallet [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallet, err := h.walletService.GetWalletByUser(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, wallet)
}
