package router

import (
	"github.com/labstack/echo/v4"

	"bengkelink/internal/adapter/api/handler"
	"bengkelink/internal/adapter/api/middleware"
)

func SetupWalletRouter(e *echo.Echo, walletHandler *handler.WalletHandler, authMiddleware *middleware.AuthMiddleware) {
	wallet := e.Group("/v1/wallet")
	wallet.Use(authMiddleware.Authenticate)

	wallet.GET("", walletHandler.GetWallet)
}
