package usecase

import (
	"context"

	"bengkelink/internal/domain/entity"
	"bengkelink/internal/domain/repository"
	ws "bengkelink/internal/infrastructure/websocket"
)

// WalletUseCase adjusts balances and mirrors every adjustment into the
// owner's private wallet room. The stored row is the source of truth; the
// live event is a hint to refresh, never the balance itself.
type WalletUseCase struct {
	walletRepo   repository.WalletRepository
	notification *NotificationUseCase
	wsManager    *ws.Manager
}

func NewWalletUseCase(
	walletRepo repository.WalletRepository,
	notification *NotificationUseCase,
	wsManager *ws.Manager,
) *WalletUseCase {
	return &WalletUseCase{
		walletRepo:   walletRepo,
		notification: notification,
		wsManager:    wsManager,
	}
}

func (uc *WalletUseCase) GetBalance(ctx context.Context, userID string) (*entity.Wallet, error) {
	return uc.walletRepo.GetByUserID(ctx, userID)
}

// ApplyTransaction credits (or, with a negative amount, debits) the wallet
// atomically, then fans the new balance out live and durably.
func (uc *WalletUseCase) ApplyTransaction(ctx context.Context, userID string, amount float64) (*entity.Wallet, error) {
	wallet, err := uc.walletRepo.IncrementBalance(ctx, userID, amount)
	if err != nil {
		return nil, err
	}

	uc.wsManager.Publish(ws.WalletRoom(userID), ws.EventWalletBalance, wallet)
	uc.notification.NotifyWalletTransaction(ctx, userID, amount)
	return wallet, nil
}
