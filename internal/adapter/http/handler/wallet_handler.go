package handler

import (
	"wallet-settlement/internal/adapter/http/dto"
	"wallet-settlement/internal/adapter/http/middleware"
	"wallet-settlement/internal/core/ports"
	"wallet-settlement/pkg/apperror"
	"wallet-settlement/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet-related endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
	currency  string
}

// NewWalletHandler creates a new WalletHandler. Balances are reported in
// the settlement currency.
func NewWalletHandler(walletSvc ports.WalletService, currency string) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc, currency: currency}
}

// GetMine handles GET /api/v1/wallets/me.
func (h *WalletHandler) GetMine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.walletSvc.Balance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WalletBalanceResponse{
		UserID:    wallet.UserID,
		Balance:   wallet.Balance.String(),
		Currency:  h.currency,
		UpdatedAt: wallet.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}
