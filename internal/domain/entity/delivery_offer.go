package entity

import (
	"fmt"
	"time"
)

type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
	OfferStatusExpired  OfferStatus = "expired"
)

// DeliveryOffer invites exactly one runner to accept exactly one order.
// For a given order at most one offer may ever hold status accepted, and
// offers are immutable once terminal.
type DeliveryOffer struct {
	ID         string      `json:"id" firestore:"id"`
	OrderID    string      `json:"order_id" firestore:"orderId"`
	RunnerID   string      `json:"runner_id" firestore:"runnerId"`
	Status     OfferStatus `json:"status" firestore:"status"`
	DistanceKm float64     `json:"distance_km" firestore:"distanceKm"`
	EtaMinutes int         `json:"eta_minutes" firestore:"etaMinutes"`
	ExpiresAt  time.Time   `json:"expires_at" firestore:"expiresAt"`
	CreatedAt  time.Time   `json:"created_at" firestore:"createdAt"`
	UpdatedAt  time.Time   `json:"updated_at" firestore:"updatedAt"`
}

func (s OfferStatus) IsTerminal() bool {
	return s != OfferStatusPending
}

// Expired reports whether the offer's TTL has elapsed at now. Expiry is
// always checked against the clock, never against the sweep having run.
func (o *DeliveryOffer) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// AcceptableBy checks the per-offer preconditions for an accept by runnerID
// at now. The sibling-offer check happens inside the repository transaction;
// this guard covers everything decidable from the offer row alone.
func (o *DeliveryOffer) AcceptableBy(runnerID string, now time.Time) error {
	if o.RunnerID != runnerID {
		return fmt.Errorf("offer %s does not belong to runner %s", o.ID, runnerID)
	}
	if o.Status != OfferStatusPending {
		return fmt.Errorf("offer %s is already %s", o.ID, o.Status)
	}
	if o.Expired(now) {
		return fmt.Errorf("offer %s expired at %s", o.ID, o.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}
