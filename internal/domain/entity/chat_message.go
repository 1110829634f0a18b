package entity

import "time"

// ChatMessage is one message in an order-scoped conversation. Rows are
// append-only; isRead is the only field that ever changes after creation,
// flipped when any participant other than the sender marks the room read.
type ChatMessage struct {
	ID        string    `json:"id" firestore:"id"`
	OrderID   string    `json:"order_id" firestore:"orderId"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Message   string    `json:"message" firestore:"message"`
	ImageURL  string    `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	IsRead    bool      `json:"is_read" firestore:"isRead"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
