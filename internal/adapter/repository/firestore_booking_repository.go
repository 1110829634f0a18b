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

const bookingCollection = "bookings"

type firestoreBookingRepository struct {
	client *firestore.Client
}

func NewFirestoreBookingRepository(client *firestore.Client) repository.BookingRepository {
	return &firestoreBookingRepository{
		client: client,
	}
}

func (r *firestoreBookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}

	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	_, err := r.client.Collection(bookingCollection).Doc(booking.ID).Set(ctx, booking)
	if err != nil {
		return errors.Internal("Failed to create booking", err)
	}
	return nil
}

func (r *firestoreBookingRepository) GetByID(ctx context.Context, id string) (*entity.Booking, error) {
	doc, err := r.client.Collection(bookingCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Booking", err)
		}
		return nil, errors.Internal("Failed to get booking", err)
	}

	var booking entity.Booking
	if err := doc.DataTo(&booking); err != nil {
		return nil, errors.Internal("Failed to parse booking data", err)
	}
	return &booking, nil
}

func (r *firestoreBookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]*entity.Booking, error) {
	return r.list(ctx, "customerId", customerID)
}

func (r *firestoreBookingRepository) ListByWorkshop(ctx context.Context, workshopID string) ([]*entity.Booking, error) {
	return r.list(ctx, "workshopId", workshopID)
}

func (r *firestoreBookingRepository) list(ctx context.Context, field, value string) ([]*entity.Booking, error) {
	iter := r.client.Collection(bookingCollection).
		Where(field, "==", value).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var bookings []*entity.Booking
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list bookings", err)
		}

		var booking entity.Booking
		if err := doc.DataTo(&booking); err != nil {
			return nil, errors.Internal("Failed to parse booking data", err)
		}
		bookings = append(bookings, &booking)
	}
	return bookings, nil
}

// UpdateGuarded re-reads the booking inside a transaction and only writes
// if the status is still what the caller saw. Lost races surface as
// Conflict with no partial update.
func (r *firestoreBookingRepository) UpdateGuarded(ctx context.Context, id string, expect entity.BookingStatus, updates map[string]interface{}) (*entity.Booking, error) {
	docRef := r.client.Collection(bookingCollection).Doc(id)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Booking", err)
			}
			return errors.Internal("Failed to get booking", err)
		}

		var booking entity.Booking
		if err := doc.DataTo(&booking); err != nil {
			return errors.Internal("Failed to parse booking data", err)
		}

		if booking.Status != expect {
			return errors.Conflict("Booking was already resolved", nil)
		}

		fsUpdates := make([]firestore.Update, 0, len(updates)+1)
		for path, value := range updates {
			fsUpdates = append(fsUpdates, firestore.Update{Path: path, Value: value})
		}
		fsUpdates = append(fsUpdates, firestore.Update{Path: "updatedAt", Value: time.Now()})

		return tx.Update(docRef, fsUpdates)
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}
