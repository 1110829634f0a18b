package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bengkelink/internal/domain/entity"
	"bengkelink/internal/domain/repository"
	"bengkelink/pkg/errors"
)

const offerCollection = "delivery_offers"

type firestoreDeliveryOfferRepository struct {
	client *firestore.Client
}

func NewFirestoreDeliveryOfferRepository(client *firestore.Client) repository.DeliveryOfferRepository {
	return &firestoreDeliveryOfferRepository{
		client: client,
	}
}

func (r *firestoreDeliveryOfferRepository) Create(ctx context.Context, offer *entity.DeliveryOffer) error {
	if offer.ID == "" {
		offer.ID = uuid.New().String()
	}

	now := time.Now()
	offer.CreatedAt = now
	offer.UpdatedAt = now
	if offer.Status == "" {
		offer.Status = entity.OfferStatusPending
	}

	_, err := r.client.Collection(offerCollection).Doc(offer.ID).Set(ctx, offer)
	if err != nil {
		return errors.Internal("Failed to create delivery offer", err)
	}
	return nil
}

func (r *firestoreDeliveryOfferRepository) GetByID(ctx context.Context, id string) (*entity.DeliveryOffer, error) {
	doc, err := r.client.Collection(offerCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Delivery offer", err)
		}
		return nil, errors.Internal("Failed to get delivery offer", err)
	}
	return offerFromDoc(doc)
}

func (r *firestoreDeliveryOfferRepository) ListByOrder(ctx context.Context, orderID string) ([]*entity.DeliveryOffer, error) {
	iter := r.client.Collection(offerCollection).
		Where("orderId", "==", orderID).
		Documents(ctx)
	defer iter.Stop()

	return collectOffers(iter)
}

func (r *firestoreDeliveryOfferRepository) ListPendingByRunner(ctx context.Context, runnerID string, now time.Time) ([]*entity.DeliveryOffer, error) {
	iter := r.client.Collection(offerCollection).
		Where("runnerId", "==", runnerID).
		Where("status", "==", entity.OfferStatusPending).
		Documents(ctx)
	defer iter.Stop()

	offers, err := collectOffers(iter)
	if err != nil {
		return nil, err
	}

	// Lazy expiry: a past-due offer is not shown even before the sweep runs.
	live := offers[:0]
	for _, offer := range offers {
		if !offer.Expired(now) {
			live = append(live, offer)
		}
	}
	return live, nil
}

// AcceptPending implements the at-most-one-winner contract as one Firestore
// transaction: every read (offer, siblings, order) happens before any write,
// so two racing accepts serialize and exactly one commits.
func (r *firestoreDeliveryOfferRepository) AcceptPending(ctx context.Context, offerID, runnerID string, now time.Time) (*entity.DeliveryOffer, []*entity.DeliveryOffer, error) {
	var accepted *entity.DeliveryOffer
	var losers []*entity.DeliveryOffer

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		losers = nil
		offerRef := r.client.Collection(offerCollection).Doc(offerID)
		doc, err := tx.Get(offerRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Delivery offer", err)
			}
			return errors.Internal("Failed to get delivery offer", err)
		}

		var offer entity.DeliveryOffer
		if err := doc.DataTo(&offer); err != nil {
			return errors.Internal("Failed to parse delivery offer", err)
		}

		// Repeat accept by the winner is idempotent, not an error.
		if offer.Status == entity.OfferStatusAccepted && offer.RunnerID == runnerID {
			accepted = &offer
			return nil
		}

		if offer.RunnerID != runnerID {
			return errors.Forbidden("Offer belongs to another runner", nil)
		}
		if err := offer.AcceptableBy(runnerID, now); err != nil {
			return errors.Conflict("Offer is no longer available", err)
		}

		siblingIter := tx.Documents(r.client.Collection(offerCollection).
			Where("orderId", "==", offer.OrderID))
		var pendingSiblings []*firestore.DocumentRef
		for {
			sibDoc, err := siblingIter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return errors.Internal("Failed to read sibling offers", err)
			}
			if sibDoc.Ref.ID == offer.ID {
				continue
			}

			var sibling entity.DeliveryOffer
			if err := sibDoc.DataTo(&sibling); err != nil {
				return errors.Internal("Failed to parse sibling offer", err)
			}
			if sibling.Status == entity.OfferStatusAccepted {
				return errors.Conflict("Offer is no longer available", nil)
			}
			if sibling.Status == entity.OfferStatusPending {
				pendingSiblings = append(pendingSiblings, sibDoc.Ref)
				sibling.Status = entity.OfferStatusRejected
				sibling.UpdatedAt = now
				losers = append(losers, &sibling)
			}
		}

		orderRef := r.client.Collection(orderCollection).Doc(offer.OrderID)
		orderDoc, err := tx.Get(orderRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Order", err)
			}
			return errors.Internal("Failed to get order", err)
		}
		var order entity.Order
		if err := orderDoc.DataTo(&order); err != nil {
			return errors.Internal("Failed to parse order data", err)
		}
		if order.Status != entity.OrderStatusCreated {
			return errors.Conflict("Order already has a runner", nil)
		}

		// Writes: winner, implicit sibling rejections, runner assignment.
		offer.Status = entity.OfferStatusAccepted
		offer.UpdatedAt = now
		if err := tx.Set(offerRef, &offer); err != nil {
			return errors.Internal("Failed to accept offer", err)
		}
		for _, ref := range pendingSiblings {
			if err := tx.Update(ref, []firestore.Update{
				{Path: "status", Value: entity.OfferStatusRejected},
				{Path: "updatedAt", Value: now},
			}); err != nil {
				return errors.Internal("Failed to reject sibling offer", err)
			}
		}
		if err := tx.Update(orderRef, []firestore.Update{
			{Path: "runnerId", Value: runnerID},
			{Path: "status", Value: entity.OrderStatusAssignedRunner},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return errors.Internal("Failed to assign runner to order", err)
		}

		accepted = &offer
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return accepted, losers, nil
}

func (r *firestoreDeliveryOfferRepository) RejectPending(ctx context.Context, offerID, runnerID string, now time.Time) (*entity.DeliveryOffer, error) {
	var rejected *entity.DeliveryOffer

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		offerRef := r.client.Collection(offerCollection).Doc(offerID)
		doc, err := tx.Get(offerRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Delivery offer", err)
			}
			return errors.Internal("Failed to get delivery offer", err)
		}

		var offer entity.DeliveryOffer
		if err := doc.DataTo(&offer); err != nil {
			return errors.Internal("Failed to parse delivery offer", err)
		}

		if offer.RunnerID != runnerID {
			return errors.Forbidden("Offer belongs to another runner", nil)
		}
		if offer.Status == entity.OfferStatusRejected {
			rejected = &offer
			return nil
		}
		if offer.Status != entity.OfferStatusPending {
			return errors.Conflict("Offer is already resolved", nil)
		}

		offer.Status = entity.OfferStatusRejected
		offer.UpdatedAt = now
		if err := tx.Set(offerRef, &offer); err != nil {
			return errors.Internal("Failed to reject offer", err)
		}
		rejected = &offer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

func (r *firestoreDeliveryOfferRepository) ExpirePending(ctx context.Context, now time.Time) ([]*entity.DeliveryOffer, error) {
	iter := r.client.Collection(offerCollection).
		Where("status", "==", entity.OfferStatusPending).
		Where("expiresAt", "<=", now).
		Documents(ctx)
	defer iter.Stop()

	stale, err := collectOffers(iter)
	if err != nil {
		return nil, err
	}

	for _, offer := range stale {
		_, err := r.client.Collection(offerCollection).Doc(offer.ID).Update(ctx, []firestore.Update{
			{Path: "status", Value: entity.OfferStatusExpired},
			{Path: "updatedAt", Value: now},
		})
		if err != nil {
			return nil, errors.Internal("Failed to expire offer", err)
		}
		offer.Status = entity.OfferStatusExpired
		offer.UpdatedAt = now
	}
	return stale, nil
}

func offerFromDoc(doc *firestore.DocumentSnapshot) (*entity.DeliveryOffer, error) {
	var offer entity.DeliveryOffer
	if err := doc.DataTo(&offer); err != nil {
		return nil, errors.Internal("Failed to parse delivery offer", err)
	}
	return &offer, nil
}

func collectOffers(iter *firestore.DocumentIterator) ([]*entity.DeliveryOffer, error) {
	var offers []*entity.DeliveryOffer
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list delivery offers", err)
		}

		offer, err := offerFromDoc(doc)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, nil
}
