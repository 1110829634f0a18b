package entity

import "time"

// Wallet balance is owned by the external ledger; this core only observes
// the value and re-broadcasts changes into the owner's wallet room.
type Wallet struct {
	ID        string    `json:"id" firestore:"id"`
	UserID    string    `json:"user_id" firestore:"userId"`
	Balance   float64   `json:"balance" firestore:"balance"`
	Currency  string    `json:"currency" firestore:"currency"`
	LastTxnAt time.Time `json:"last_txn_at" firestore:"lastTxnAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}
