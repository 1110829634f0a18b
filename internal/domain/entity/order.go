package entity

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusCreated        OrderStatus = "created"
	OrderStatusAssignedRunner OrderStatus = "assigned_runner"
	OrderStatusPickedUp       OrderStatus = "picked_up"
	OrderStatusDelivering     OrderStatus = "delivering"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// orderRank gives each non-cancelled status its position in the monotonic
// progression created -> assigned_runner -> picked_up -> delivering -> delivered.
var orderRank = map[OrderStatus]int{
	OrderStatusCreated:        0,
	OrderStatusAssignedRunner: 1,
	OrderStatusPickedUp:       2,
	OrderStatusDelivering:     3,
	OrderStatusDelivered:      4,
}

// Order links a supplier, a workshop and (once assigned) a delivery runner
// around one parts-delivery transaction.
type Order struct {
	ID              string      `json:"id" firestore:"id"`
	SupplierID      string      `json:"supplier_id" firestore:"supplierId"`
	WorkshopID      string      `json:"workshop_id" firestore:"workshopId"`
	RunnerID        string      `json:"runner_id,omitempty" firestore:"runnerId,omitempty"`
	Status          OrderStatus `json:"status" firestore:"status"`
	ItemCount       int         `json:"item_count" firestore:"itemCount"`
	TotalAmount     float64     `json:"total_amount" firestore:"totalAmount"`
	DeliveryFee     float64     `json:"delivery_fee" firestore:"deliveryFee"`
	DeliveryAddress string      `json:"delivery_address" firestore:"deliveryAddress"`
	PickupLat       float64     `json:"pickup_lat" firestore:"pickupLat"`
	PickupLng       float64     `json:"pickup_lng" firestore:"pickupLng"`
	DropLat         float64     `json:"drop_lat" firestore:"dropLat"`
	DropLng         float64     `json:"drop_lng" firestore:"dropLng"`
	CreatedAt       time.Time   `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time   `json:"updated_at" firestore:"updatedAt"`
}

// CanTransition enforces the monotonic status progression with the
// cancelled escape from any non-delivered state. Steps may only advance by
// exactly one position; skipping and regressing are both conflicts.
func (o *Order) CanTransition(next OrderStatus) error {
	if o.Status == OrderStatusCancelled || o.Status == OrderStatusDelivered {
		return fmt.Errorf("order %s is already %s", o.ID, o.Status)
	}
	if next == OrderStatusCancelled {
		return nil
	}

	cur, ok := orderRank[o.Status]
	if !ok {
		return fmt.Errorf("order %s has unknown status %s", o.ID, o.Status)
	}
	want, ok := orderRank[next]
	if !ok {
		return fmt.Errorf("unknown order status %s", next)
	}
	if want != cur+1 {
		return fmt.Errorf("order %s cannot move from %s to %s", o.ID, o.Status, next)
	}
	return nil
}

func IsValidOrderStatus(s string) bool {
	if OrderStatus(s) == OrderStatusCancelled {
		return true
	}
	_, ok := orderRank[OrderStatus(s)]
	return ok
}
