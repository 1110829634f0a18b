package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bengkelink/internal/domain/entity"
	"bengkelink/internal/domain/repository"
	"bengkelink/pkg/errors"
)

const userCollection = "users"

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection(userCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	return &user, nil
}

func (r *firestoreUserRepository) ListAvailableRunners(ctx context.Context) ([]*entity.User, error) {
	iter := r.client.Collection(userCollection).
		Where("role", "==", entity.RoleRunner).
		Where("available", "==", true).
		Documents(ctx)
	defer iter.Stop()

	var runners []*entity.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list runners", err)
		}

		var user entity.User
		if err := doc.DataTo(&user); err != nil {
			return nil, errors.Internal("Failed to parse user data", err)
		}
		runners = append(runners, &user)
	}
	return runners, nil
}

func (r *firestoreUserRepository) ListWorkshopStaff(ctx context.Context, workshopID string) ([]*entity.User, error) {
	return r.listStaff(ctx, "workshopId", workshopID)
}

func (r *firestoreUserRepository) ListSupplierStaff(ctx context.Context, supplierID string) ([]*entity.User, error) {
	return r.listStaff(ctx, "supplierId", supplierID)
}

func (r *firestoreUserRepository) listStaff(ctx context.Context, field, businessID string) ([]*entity.User, error) {
	if businessID == "" {
		return nil, nil
	}

	iter := r.client.Collection(userCollection).
		Where(field, "==", businessID).
		Documents(ctx)
	defer iter.Stop()

	var staff []*entity.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list staff", err)
		}

		var user entity.User
		if err := doc.DataTo(&user); err != nil {
			return nil, errors.Internal("Failed to parse user data", err)
		}
		staff = append(staff, &user)
	}
	return staff, nil
}

func (r *firestoreUserRepository) SetRunnerAvailability(ctx context.Context, runnerID string, available bool) error {
	_, err := r.client.Collection(userCollection).Doc(runnerID).Update(ctx, []firestore.Update{
		{Path: "available", Value: available},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Runner", err)
		}
		return errors.Internal("Failed to update runner availability", err)
	}
	return nil
}
