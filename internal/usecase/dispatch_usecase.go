package usecase

import (
	"context"
	"fmt"
	"time"

	"bengkelink/internal/domain/entity"
	"bengkelink/internal/domain/repository"
	ws "bengkelink/internal/infrastructure/websocket"
	"bengkelink/pkg/errors"
	"bengkelink/pkg/geo"
	"bengkelink/pkg/logger"
)

// EscalationPolicy decides what happens after a runner declines an offer.
// It is a hook, not a fixed algorithm: deployments that prefer batched
// re-dispatch plug in their own implementation.
type EscalationPolicy interface {
	ShouldEscalate(order *entity.Order, rejected *entity.DeliveryOffer) bool
}

// NextNearestEscalation immediately offers the order to the next-nearest
// candidate after every decline.
type NextNearestEscalation struct{}

func (NextNearestEscalation) ShouldEscalate(*entity.Order, *entity.DeliveryOffer) bool { return true }

// NoEscalation leaves re-dispatch to the periodic sweep or manual action.
type NoEscalation struct{}

func (NoEscalation) ShouldEscalate(*entity.Order, *entity.DeliveryOffer) bool { return false }

// DispatchUseCase converts new orders into delivery offers and guarantees
// that exactly one runner wins each order.
type DispatchUseCase struct {
	offerRepo    repository.DeliveryOfferRepository
	orderRepo    repository.OrderRepository
	userRepo     repository.UserRepository
	notification *NotificationUseCase
	wsManager    *ws.Manager

	ttl        time.Duration
	fanout     int
	escalation EscalationPolicy

	now func() time.Time
}

func NewDispatchUseCase(
	offerRepo repository.DeliveryOfferRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	notification *NotificationUseCase,
	wsManager *ws.Manager,
	ttl time.Duration,
	fanout int,
	escalation EscalationPolicy,
) *DispatchUseCase {
	if escalation == nil {
		escalation = NextNearestEscalation{}
	}
	return &DispatchUseCase{
		offerRepo:    offerRepo,
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		notification: notification,
		wsManager:    wsManager,
		ttl:          ttl,
		fanout:       fanout,
		escalation:   escalation,
		now:          time.Now,
	}
}

// Dispatch runs the configured fan-out for a freshly created order.
func (uc *DispatchUseCase) Dispatch(ctx context.Context, orderID string) ([]*entity.DeliveryOffer, error) {
	return uc.CreateOffers(ctx, orderID, uc.fanout)
}

// CreateOffers fans pending offers out to the nearest available runners
// that have no live offer for this order yet. Offers race: nothing
// serializes their creation, only their acceptance.
func (uc *DispatchUseCase) CreateOffers(ctx context.Context, orderID string, width int) ([]*entity.DeliveryOffer, error) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.OrderStatusCreated {
		return nil, errors.Conflict("Order no longer accepts offers", nil)
	}

	existing, err := uc.offerRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	offered := make(map[string]bool)
	for _, offer := range existing {
		// Expired offers free their runner for a fresh offer.
		if offer.Status != entity.OfferStatusExpired {
			offered[offer.RunnerID] = true
		}
	}

	runners, err := uc.userRepo.ListAvailableRunners(ctx)
	if err != nil {
		return nil, err
	}

	pickup := geo.Point{Lat: order.PickupLat, Lng: order.PickupLng}
	candidates := make([]geo.Candidate, 0, len(runners))
	for _, runner := range runners {
		if offered[runner.ID] {
			continue
		}
		candidates = append(candidates, geo.Candidate{
			ID:       runner.ID,
			Location: geo.Point{Lat: runner.Lat, Lng: runner.Lng},
		})
	}

	ranked := geo.SortByDistance(pickup, candidates)
	if width <= 0 || width > len(ranked) {
		width = len(ranked)
	}

	now := uc.now()
	var offers []*entity.DeliveryOffer
	for _, candidate := range ranked[:width] {
		distance := geo.Distance(pickup, candidate.Location)
		offer := &entity.DeliveryOffer{
			OrderID:    orderID,
			RunnerID:   candidate.ID,
			Status:     entity.OfferStatusPending,
			DistanceKm: distance,
			EtaMinutes: geo.ETA(distance),
			ExpiresAt:  now.Add(uc.ttl),
		}
		if err := uc.offerRepo.Create(ctx, offer); err != nil {
			return offers, err
		}
		offers = append(offers, offer)

		// Live push into the runner's private room plus a durable record
		// for runners who are offline right now.
		uc.wsManager.Publish(ws.NotificationRoom(candidate.ID), ws.EventDeliveryOffer, offer)
		uc.notification.NotifyDeliveryUpdate(ctx, candidate.ID,
			fmt.Sprintf("New delivery offer for order %s, about %d minutes away", orderID, offer.EtaMinutes))
	}

	logger.Info("dispatched %d offers for order %s", len(offers), orderID)
	return offers, nil
}

// AcceptOffer resolves the race for an order. The repository call is the
// atomic read-modify-write; everything after it is fan-out. Losing runners
// get a Conflict their client renders as "offer no longer available".
func (uc *DispatchUseCase) AcceptOffer(ctx context.Context, offerID, runnerID string) (*entity.DeliveryOffer, error) {
	offer, losers, err := uc.offerRepo.AcceptPending(ctx, offerID, runnerID, uc.now())
	if err != nil {
		return nil, err
	}

	if err := uc.userRepo.SetRunnerAvailability(ctx, runnerID, false); err != nil {
		logger.Warn("failed to mark runner %s unavailable: %v", runnerID, err)
	}

	// Losing runners learn immediately instead of on their next poll.
	for _, loser := range losers {
		uc.wsManager.Publish(ws.NotificationRoom(loser.RunnerID), ws.EventDeliveryOffer, loser)
	}

	order, err := uc.orderRepo.GetByID(ctx, offer.OrderID)
	if err == nil {
		uc.wsManager.Publish(ws.WorkshopRoom(order.WorkshopID), ws.EventOrderUpdate, order)
		uc.wsManager.Publish(ws.SupplierRoom(order.SupplierID), ws.EventOrderUpdate, order)
	}

	logger.Info("runner %s won order %s via offer %s", runnerID, offer.OrderID, offerID)
	return offer, nil
}

// RejectOffer records a runner's decline and, policy permitting, escalates
// to the next-nearest candidate. Sibling offers are untouched.
func (uc *DispatchUseCase) RejectOffer(ctx context.Context, offerID, runnerID string) (*entity.DeliveryOffer, error) {
	offer, err := uc.offerRepo.RejectPending(ctx, offerID, runnerID, uc.now())
	if err != nil {
		return nil, err
	}

	order, err := uc.orderRepo.GetByID(ctx, offer.OrderID)
	if err != nil {
		return offer, nil
	}
	if order.Status == entity.OrderStatusCreated && uc.escalation.ShouldEscalate(order, offer) {
		if _, err := uc.CreateOffers(ctx, order.ID, 1); err != nil {
			logger.Warn("escalation after reject of offer %s failed: %v", offerID, err)
		}
	}
	return offer, nil
}

// PendingOffers is the runner's poll surface.
func (uc *DispatchUseCase) PendingOffers(ctx context.Context, runnerID string) ([]*entity.DeliveryOffer, error) {
	return uc.offerRepo.ListPendingByRunner(ctx, runnerID, uc.now())
}

// ExpireStaleOffers sweeps past-due pending offers. Acceptance never
// depends on this having run: AcceptPending checks the clock itself.
func (uc *DispatchUseCase) ExpireStaleOffers(ctx context.Context) (int, error) {
	stale, err := uc.offerRepo.ExpirePending(ctx, uc.now())
	if err != nil {
		return 0, err
	}
	for _, offer := range stale {
		uc.wsManager.Publish(ws.NotificationRoom(offer.RunnerID), ws.EventDeliveryOffer, offer)
	}
	if len(stale) > 0 {
		logger.Info("expired %d stale offers", len(stale))
	}
	return len(stale), nil
}

// StartExpirySweep runs the sweep on a fixed period until ctx is cancelled.
func (uc *DispatchUseCase) StartExpirySweep(ctx context.Context, period time.Duration) {
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := uc.ExpireStaleOffers(ctx); err != nil {
					logger.Error("offer expiry sweep failed: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
