package handler

import (
	"github.com/labstack/echo/v4"

	"bengkelink/internal/adapter/api/middleware"
	"bengkelink/internal/usecase"
	"bengkelink/pkg/response"
)

type WalletHandler struct {
	walletUseCase *usecase.WalletUseCase
}

func NewWalletHandler(walletUseCase *usecase.WalletUseCase) *WalletHandler {
	return &WalletHandler{
		walletUseCase: walletUseCase,
	}
}

// GetWallet returns the caller's stored balance. Live balance updates reach
// the client through their wallet room; this is the poll fallback.
func (h *WalletHandler) GetWallet(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	wallet, err := h.walletUseCase.GetBalance(c.Request().Context(), principal.UserID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, wallet)
}
