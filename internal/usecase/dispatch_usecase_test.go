package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bengkelink/internal/domain/entity"
	ws "bengkelink/internal/infrastructure/websocket"
	"bengkelink/pkg/errors"
)

type dispatchFixture struct {
	users    *fakeUserRepo
	orders   *fakeOrderRepo
	offers   *fakeOfferRepo
	notifs   *fakeNotificationRepo
	manager  *ws.Manager
	dispatch *DispatchUseCase
}

func newDispatchFixture(t *testing.T, fanout int, escalation EscalationPolicy, users ...*entity.User) *dispatchFixture {
	t.Helper()
	manager := newTestManager(t)
	userRepo := newFakeUserRepo(users...)
	orderRepo := newFakeOrderRepo(&entity.Order{
		ID:         "order-1",
		SupplierID: "supplier-1",
		WorkshopID: "workshop-1",
		Status:     entity.OrderStatusCreated,
		PickupLat:  -6.2000,
		PickupLng:  106.8000,
	})
	offerRepo := newFakeOfferRepo(orderRepo)
	notifRepo := &fakeNotificationRepo{}
	notification := NewNotificationUseCase(notifRepo, manager)

	dispatch := NewDispatchUseCase(offerRepo, orderRepo, userRepo, notification, manager,
		5*time.Minute, fanout, escalation)
	return &dispatchFixture{
		users:    userRepo,
		orders:   orderRepo,
		offers:   offerRepo,
		notifs:   notifRepo,
		manager:  manager,
		dispatch: dispatch,
	}
}

func runner(id string, lat, lng float64) *entity.User {
	return &entity.User{ID: id, Role: entity.RoleRunner, Available: true, Lat: lat, Lng: lng}
}

func TestCreateOffersFansOutToNearestRunners(t *testing.T) {
	fx := newDispatchFixture(t, 2, NoEscalation{},
		runner("runner-far", -6.4000, 106.8000),
		runner("runner-near", -6.2010, 106.8000),
		runner("runner-mid", -6.2500, 106.8000),
	)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	fx.dispatch.now = func() time.Time { return now }

	offers, err := fx.dispatch.Dispatch(context.Background(), "order-1")
	require.NoError(t, err)
	require.Len(t, offers, 2)

	assert.Equal(t, "runner-near", offers[0].RunnerID)
	assert.Equal(t, "runner-mid", offers[1].RunnerID)
	for _, offer := range offers {
		assert.Equal(t, entity.OfferStatusPending, offer.Status)
		assert.Equal(t, now.Add(5*time.Minute), offer.ExpiresAt)
		assert.Greater(t, offer.EtaMinutes, 0)
	}

	// One durable notification per offered runner.
	unread, err := fx.notifs.CountUnread(context.Background(), "runner-near")
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestCreateOffersSkipsRunnersWithLiveOffer(t *testing.T) {
	fx := newDispatchFixture(t, 0, NoEscalation{},
		runner("runner-a", -6.2010, 106.8000),
		runner("runner-b", -6.2500, 106.8000),
	)

	first, err := fx.dispatch.CreateOffers(context.Background(), "order-1", 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "runner-a", first[0].RunnerID)

	// Re-dispatch must not double-offer runner-a while their offer is live.
	second, err := fx.dispatch.CreateOffers(context.Background(), "order-1", 0)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "runner-b", second[0].RunnerID)
}

func TestCreateOffersRefusesResolvedOrder(t *testing.T) {
	fx := newDispatchFixture(t, 3, NoEscalation{}, runner("runner-a", -6.2, 106.8))

	_, err := fx.orders.UpdateStatusGuarded(context.Background(), "order-1",
		entity.OrderStatusCreated, entity.OrderStatusCancelled)
	require.NoError(t, err)

	_, err = fx.dispatch.Dispatch(context.Background(), "order-1")
	assert.True(t, errors.IsConflict(err))
}

func TestAcceptOfferExactlyOneWinner(t *testing.T) {
	fx := newDispatchFixture(t, 3, NoEscalation{},
		runner("runner-a", -6.2010, 106.8000),
		runner("runner-b", -6.2020, 106.8000),
		runner("runner-c", -6.2030, 106.8000),
	)

	offers, err := fx.dispatch.Dispatch(context.Background(), "order-1")
	require.NoError(t, err)
	require.Len(t, offers, 3)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  []string
		rejected int
	)
	for _, offer := range offers {
		wg.Add(1)
		go func(offerID, runnerID string) {
			defer wg.Done()
			_, err := fx.dispatch.AcceptOffer(context.Background(), offerID, runnerID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, runnerID)
			} else if errors.IsConflict(err) {
				rejected++
			}
		}(offer.ID, offer.RunnerID)
	}
	wg.Wait()

	require.Len(t, winners, 1, "exactly one accept may succeed")
	assert.Equal(t, 2, rejected)

	order, err := fx.orders.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusAssignedRunner, order.Status)
	assert.Equal(t, winners[0], order.RunnerID)

	// The winner is busy now; the losers' offers are rejected.
	winner, err := fx.users.GetByID(context.Background(), winners[0])
	require.NoError(t, err)
	assert.False(t, winner.Available)

	remaining, err := fx.offers.ListByOrder(context.Background(), "order-1")
	require.NoError(t, err)
	accepted := 0
	for _, offer := range remaining {
		if offer.Status == entity.OfferStatusAccepted {
			accepted++
		} else {
			assert.Equal(t, entity.OfferStatusRejected, offer.Status)
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestAcceptOfferPushesRejectionToLosingRunners(t *testing.T) {
	fx := newDispatchFixture(t, 2, NoEscalation{},
		runner("runner-a", -6.2010, 106.8000),
		runner("runner-b", -6.2500, 106.8000),
	)

	offers, err := fx.dispatch.Dispatch(context.Background(), "order-1")
	require.NoError(t, err)
	require.Len(t, offers, 2)

	// Attached after dispatch, so the channel only sees the resolution.
	loserCh := attachClient(t, fx.manager,
		ws.Principal{UserID: "runner-b", Role: entity.RoleRunner},
		ws.NotificationRoom("runner-b"))

	_, err = fx.dispatch.AcceptOffer(context.Background(), offers[0].ID, "runner-a")
	require.NoError(t, err)

	event := recvEvent(t, loserCh)
	assert.Equal(t, ws.EventDeliveryOffer, event.Type)
	data, ok := event.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "runner-b", data["runner_id"])
	assert.Equal(t, string(entity.OfferStatusRejected), data["status"])
}

func TestAcceptOfferWinnerIdempotent(t *testing.T) {
	fx := newDispatchFixture(t, 1, NoEscalation{}, runner("runner-a", -6.2010, 106.8000))

	offers, err := fx.dispatch.Dispatch(context.Background(), "order-1")
	require.NoError(t, err)
	require.Len(t, offers, 1)

	first, err := fx.dispatch.AcceptOffer(context.Background(), offers[0].ID, "runner-a")
	require.NoError(t, err)

	again, err := fx.dispatch.AcceptOffer(context.Background(), offers[0].ID, "runner-a")
	require.NoError(t, err, "a repeat accept by the winner is not an error")
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, entity.OfferStatusAccepted, again.Status)
}

func TestAcceptOfferRefusesOtherRunner(t *testing.T) {
	fx := newDispatchFixture(t, 1, NoEscalation{},
		runner("runner-a", -6.2010, 106.8000),
	)

	offers, err := fx.dispatch.Dispatch(context.Background(), "order-1")
	require.NoError(t, err)

	_, err = fx.dispatch.AcceptOffer(context.Background(), offers[0].ID, "runner-b")
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestAcceptOfferRefusesExpired(t *testing.T) {
	fx := newDispatchFixture(t, 1, NoEscalation{}, runner("runner-a", -6.2010, 106.8000))

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	fx.dispatch.now = func() time.Time { return created }

	offers, err := fx.dispatch.Dispatch(context.Background(), "order-1")
	require.NoError(t, err)

	// Accept arrives after the TTL; the sweep has not run, the clock decides.
	fx.dispatch.now = func() time.Time { return created.Add(5*time.Minute + time.Second) }
	_, err = fx.dispatch.AcceptOffer(context.Background(), offers[0].ID, "runner-a")
	assert.True(t, errors.IsConflict(err))
}

func TestRejectOfferEscalatesToNextNearest(t *testing.T) {
	fx := newDispatchFixture(t, 1, NextNearestEscalation{},
		runner("runner-near", -6.2010, 106.8000),
		runner("runner-mid", -6.2500, 106.8000),
	)

	offers, err := fx.dispatch.Dispatch(context.Background(), "order-1")
	require.NoError(t, err)
	require.Len(t, offers, 1)
	require.Equal(t, "runner-near", offers[0].RunnerID)

	rejected, err := fx.dispatch.RejectOffer(context.Background(), offers[0].ID, "runner-near")
	require.NoError(t, err)
	assert.Equal(t, entity.OfferStatusRejected, rejected.Status)

	all, err := fx.offers.ListByOrder(context.Background(), "order-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, offer := range all {
		if offer.ID != rejected.ID {
			assert.Equal(t, "runner-mid", offer.RunnerID)
			assert.Equal(t, entity.OfferStatusPending, offer.Status)
		}
	}
}

func TestRejectOfferWithoutEscalation(t *testing.T) {
	fx := newDispatchFixture(t, 1, NoEscalation{},
		runner("runner-near", -6.2010, 106.8000),
		runner("runner-mid", -6.2500, 106.8000),
	)

	offers, err := fx.dispatch.Dispatch(context.Background(), "order-1")
	require.NoError(t, err)

	_, err = fx.dispatch.RejectOffer(context.Background(), offers[0].ID, "runner-near")
	require.NoError(t, err)

	all, err := fx.offers.ListByOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestExpireStaleOffers(t *testing.T) {
	fx := newDispatchFixture(t, 2, NoEscalation{},
		runner("runner-a", -6.2010, 106.8000),
		runner("runner-b", -6.2500, 106.8000),
	)

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	fx.dispatch.now = func() time.Time { return created }

	_, err := fx.dispatch.Dispatch(context.Background(), "order-1")
	require.NoError(t, err)

	// Nothing is stale yet.
	count, err := fx.dispatch.ExpireStaleOffers(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	fx.dispatch.now = func() time.Time { return created.Add(6 * time.Minute) }
	count, err = fx.dispatch.ExpireStaleOffers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	pending, err := fx.dispatch.PendingOffers(context.Background(), "runner-a")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPendingOffersFiltersExpiredBeforeSweep(t *testing.T) {
	fx := newDispatchFixture(t, 1, NoEscalation{}, runner("runner-a", -6.2010, 106.8000))

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	fx.dispatch.now = func() time.Time { return created }

	_, err := fx.dispatch.Dispatch(context.Background(), "order-1")
	require.NoError(t, err)

	pending, err := fx.dispatch.PendingOffers(context.Background(), "runner-a")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	// Past the TTL the poll hides the offer even though no sweep ran.
	fx.dispatch.now = func() time.Time { return created.Add(10 * time.Minute) }
	pending, err = fx.dispatch.PendingOffers(context.Background(), "runner-a")
	require.NoError(t, err)
	assert.Empty(t, pending)
}
