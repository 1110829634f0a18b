package repository

import (
	"context"

	"bengkelink/internal/domain/entity"
)

type WalletRepository interface {
	GetByUserID(ctx context.Context, userID string) (*entity.Wallet, error)
	// IncrementBalance atomically adjusts the balance by amount (negative
	// for debits) and returns the updated wallet. The ledger owning the
	// balance calls this; the core merely observes and re-broadcasts.
	IncrementBalance(ctx context.Context, userID string, amount float64) (*entity.Wallet, error)
}
