package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"bengkelink/internal/domain/entity"
	"bengkelink/internal/domain/repository"
	"bengkelink/pkg/errors"
)

const walletCollection = "wallets"

type firestoreWalletRepository struct {
	client *firestore.Client
}

func NewFirestoreWalletRepository(client *firestore.Client) repository.WalletRepository {
	return &firestoreWalletRepository{
		client: client,
	}
}

func (r *firestoreWalletRepository) GetByUserID(ctx context.Context, userID string) (*entity.Wallet, error) {
	iter := r.client.Collection(walletCollection).
		Where("userId", "==", userID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Wallet", err)
	}
	if err != nil {
		return nil, errors.Internal("Failed to get wallet", err)
	}

	var wallet entity.Wallet
	if err := doc.DataTo(&wallet); err != nil {
		return nil, errors.Internal("Failed to parse wallet data", err)
	}
	return &wallet, nil
}

// IncrementBalance is a read-modify-write transaction so concurrent ledger
// postings against the same wallet serialize.
func (r *firestoreWalletRepository) IncrementBalance(ctx context.Context, userID string, amount float64) (*entity.Wallet, error) {
	wallet, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	docRef := r.client.Collection(walletCollection).Doc(wallet.ID)
	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return errors.Internal("Failed to get wallet", err)
		}

		var w entity.Wallet
		if err := doc.DataTo(&w); err != nil {
			return errors.Internal("Failed to parse wallet data", err)
		}

		w.Balance += amount
		if w.Balance < 0 {
			return errors.Conflict("Insufficient balance", nil)
		}

		now := time.Now()
		w.LastTxnAt = now
		w.UpdatedAt = now
		return tx.Set(docRef, &w)
	})
	if err != nil {
		return nil, err
	}

	return r.GetByUserID(ctx, userID)
}
