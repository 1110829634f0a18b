package entity

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending          BookingStatus = "pending"
	BookingStatusApproved         BookingStatus = "approved"
	BookingStatusWorkshopProposed BookingStatus = "workshop_proposed"
	BookingStatusCompleted        BookingStatus = "completed"
	BookingStatusRejected         BookingStatus = "rejected"
	BookingStatusCancelled        BookingStatus = "cancelled"
)

// Booking is a customer's request for workshop service. proposedDate and
// proposalReason are only meaningful while status is workshop_proposed.
type Booking struct {
	ID             string        `json:"id" firestore:"id"`
	CustomerID     string        `json:"customer_id" firestore:"customerId"`
	WorkshopID     string        `json:"workshop_id" firestore:"workshopId"`
	VehiclePlate   string        `json:"vehicle_plate" firestore:"vehiclePlate"`
	VehicleModel   string        `json:"vehicle_model" firestore:"vehicleModel"`
	ServiceType    string        `json:"service_type" firestore:"serviceType"`
	Description    string        `json:"description,omitempty" firestore:"description,omitempty"`
	PreferredDate  time.Time     `json:"preferred_date" firestore:"preferredDate"`
	ProposedDate   *time.Time    `json:"proposed_date,omitempty" firestore:"proposedDate,omitempty"`
	ProposalReason string        `json:"proposal_reason,omitempty" firestore:"proposalReason,omitempty"`
	EstimatedCost  float64       `json:"estimated_cost,omitempty" firestore:"estimatedCost,omitempty"`
	Status         BookingStatus `json:"status" firestore:"status"`
	CreatedAt      time.Time     `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time     `json:"updated_at" firestore:"updatedAt"`
}

// bookingTransitions is the full negotiation state machine. pending is the
// unique initial state; completed, rejected and cancelled are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:          {BookingStatusApproved, BookingStatusRejected, BookingStatusWorkshopProposed, BookingStatusCancelled},
	BookingStatusWorkshopProposed: {BookingStatusApproved, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusApproved:         {BookingStatusCompleted, BookingStatusCancelled},
}

func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusCompleted, BookingStatusRejected, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether moving from the booking's current status to
// next is allowed by the negotiation protocol.
func (b *Booking) CanTransition(next BookingStatus) error {
	for _, allowed := range bookingTransitions[b.Status] {
		if allowed == next {
			return nil
		}
	}
	return fmt.Errorf("booking %s cannot move from %s to %s", b.ID, b.Status, next)
}

func IsValidBookingStatus(s string) bool {
	switch BookingStatus(s) {
	case BookingStatusPending, BookingStatusApproved, BookingStatusWorkshopProposed,
		BookingStatusCompleted, BookingStatusRejected, BookingStatusCancelled:
		return true
	}
	return false
}
