package entity

import "time"

// Notification categories; each has a convenience wrapper on the
// notification usecase but all flow through the same create-then-emit path.
const (
	NotificationTypeOrder    = "order_update"
	NotificationTypeWallet   = "wallet_transaction"
	NotificationTypeDelivery = "delivery_update"
	NotificationTypeBooking  = "booking_update"
	NotificationTypeChat     = "chat_message"
)

type Notification struct {
	ID        string    `json:"id" firestore:"id"`
	UserID    string    `json:"user_id" firestore:"userId"`
	Title     string    `json:"title" firestore:"title"`
	Message   string    `json:"message" firestore:"message"`
	Type      string    `json:"type" firestore:"type"`
	IsRead    bool      `json:"is_read" firestore:"isRead"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
