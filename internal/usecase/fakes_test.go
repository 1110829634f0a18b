package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"bengkelink/internal/domain/entity"
	ws "bengkelink/internal/infrastructure/websocket"
	"bengkelink/pkg/errors"
)

// In-memory repository fakes. They reproduce the guarded-update semantics of
// the Firestore adapters (compare-and-swap under a mutex) so the usecases can
// be exercised concurrently without an emulator.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) ListAvailableRunners(context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.User
	for _, u := range r.users {
		if u.Role == entity.RoleRunner && u.Available {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListWorkshopStaff(_ context.Context, workshopID string) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.User
	for _, u := range r.users {
		if u.WorkshopID == workshopID && workshopID != "" {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListSupplierStaff(_ context.Context, supplierID string) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.User
	for _, u := range r.users {
		if u.SupplierID == supplierID && supplierID != "" {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SetRunnerAvailability(_ context.Context, runnerID string, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[runnerID]
	if !ok {
		return errors.NotFound("User", nil)
	}
	u.Available = available
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	seq    int
	orders map[string]*entity.Order
}

func newFakeOrderRepo(orders ...*entity.Order) *fakeOrderRepo {
	repo := &fakeOrderRepo{orders: make(map[string]*entity.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (r *fakeOrderRepo) Create(_ context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if order.ID == "" {
		order.ID = fmt.Sprintf("order-%d", r.seq)
	}
	order.CreatedAt = time.Now()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, errors.NotFound("Order", nil)
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) listWhere(keep func(*entity.Order) bool) []*entity.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Order
	for _, o := range r.orders {
		if keep(o) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out
}

func (r *fakeOrderRepo) ListByWorkshop(_ context.Context, id string) ([]*entity.Order, error) {
	return r.listWhere(func(o *entity.Order) bool { return o.WorkshopID == id }), nil
}

func (r *fakeOrderRepo) ListBySupplier(_ context.Context, id string) ([]*entity.Order, error) {
	return r.listWhere(func(o *entity.Order) bool { return o.SupplierID == id }), nil
}

func (r *fakeOrderRepo) ListByRunner(_ context.Context, id string) ([]*entity.Order, error) {
	return r.listWhere(func(o *entity.Order) bool { return o.RunnerID == id }), nil
}

func (r *fakeOrderRepo) UpdateStatusGuarded(_ context.Context, id string, expect, next entity.OrderStatus) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, errors.NotFound("Order", nil)
	}
	if o.Status != expect {
		return nil, errors.Conflict("Order was already resolved", nil)
	}
	o.Status = next
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*entity.Booking
}

func newFakeBookingRepo(bookings ...*entity.Booking) *fakeBookingRepo {
	repo := &fakeBookingRepo{bookings: make(map[string]*entity.Booking)}
	for _, b := range bookings {
		repo.bookings[b.ID] = b
	}
	return repo
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if booking.ID == "" {
		booking.ID = fmt.Sprintf("booking-%d", r.seq)
	}
	booking.CreatedAt = time.Now()
	cp := *booking
	r.bookings[booking.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id string) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, errors.NotFound("Booking", nil)
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) ListByCustomer(_ context.Context, id string) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.bookings {
		if b.CustomerID == id {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListByWorkshop(_ context.Context, id string) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.bookings {
		if b.WorkshopID == id {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) UpdateGuarded(_ context.Context, id string, expect entity.BookingStatus, updates map[string]interface{}) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, errors.NotFound("Booking", nil)
	}
	if b.Status != expect {
		return nil, errors.Conflict("Booking was already resolved", nil)
	}
	for field, value := range updates {
		switch field {
		case "status":
			b.Status = value.(entity.BookingStatus)
		case "preferredDate":
			b.PreferredDate = value.(time.Time)
		case "proposedDate":
			d := value.(time.Time)
			b.ProposedDate = &d
		case "proposalReason":
			b.ProposalReason = value.(string)
		}
	}
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

// fakeOfferRepo mirrors the transactional semantics of the Firestore
// adapter: AcceptPending is one critical section covering the offer, its
// siblings and the order row.
type fakeOfferRepo struct {
	mu     sync.Mutex
	seq    int
	offers map[string]*entity.DeliveryOffer
	orders *fakeOrderRepo
}

func newFakeOfferRepo(orders *fakeOrderRepo) *fakeOfferRepo {
	return &fakeOfferRepo{
		offers: make(map[string]*entity.DeliveryOffer),
		orders: orders,
	}
}

func (r *fakeOfferRepo) Create(_ context.Context, offer *entity.DeliveryOffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if offer.ID == "" {
		offer.ID = fmt.Sprintf("offer-%d", r.seq)
	}
	offer.CreatedAt = time.Now()
	cp := *offer
	r.offers[offer.ID] = &cp
	return nil
}

func (r *fakeOfferRepo) GetByID(_ context.Context, id string) (*entity.DeliveryOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok {
		return nil, errors.NotFound("Delivery offer", nil)
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOfferRepo) ListByOrder(_ context.Context, orderID string) ([]*entity.DeliveryOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.DeliveryOffer
	for _, o := range r.offers {
		if o.OrderID == orderID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeOfferRepo) ListPendingByRunner(_ context.Context, runnerID string, now time.Time) ([]*entity.DeliveryOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.DeliveryOffer
	for _, o := range r.offers {
		if o.RunnerID == runnerID && o.Status == entity.OfferStatusPending && !o.Expired(now) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeOfferRepo) AcceptPending(_ context.Context, offerID, runnerID string, now time.Time) (*entity.DeliveryOffer, []*entity.DeliveryOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, ok := r.offers[offerID]
	if !ok {
		return nil, nil, errors.NotFound("Delivery offer", nil)
	}
	if offer.Status == entity.OfferStatusAccepted && offer.RunnerID == runnerID {
		cp := *offer
		return &cp, nil, nil
	}
	if offer.RunnerID != runnerID {
		return nil, nil, errors.Forbidden("Offer belongs to another runner", nil)
	}
	if err := offer.AcceptableBy(runnerID, now); err != nil {
		return nil, nil, errors.Conflict(err.Error(), err)
	}
	for _, sibling := range r.offers {
		if sibling.OrderID == offer.OrderID && sibling.Status == entity.OfferStatusAccepted {
			return nil, nil, errors.Conflict("Order was already taken", nil)
		}
	}

	r.orders.mu.Lock()
	order, ok := r.orders.orders[offer.OrderID]
	if !ok || order.Status != entity.OrderStatusCreated {
		r.orders.mu.Unlock()
		return nil, nil, errors.Conflict("Order no longer accepts offers", nil)
	}
	order.RunnerID = runnerID
	order.Status = entity.OrderStatusAssignedRunner
	r.orders.mu.Unlock()

	offer.Status = entity.OfferStatusAccepted
	offer.UpdatedAt = now
	var losers []*entity.DeliveryOffer
	for _, sibling := range r.offers {
		if sibling.OrderID == offer.OrderID && sibling.ID != offer.ID && sibling.Status == entity.OfferStatusPending {
			sibling.Status = entity.OfferStatusRejected
			sibling.UpdatedAt = now
			scp := *sibling
			losers = append(losers, &scp)
		}
	}

	cp := *offer
	return &cp, losers, nil
}

func (r *fakeOfferRepo) RejectPending(_ context.Context, offerID, runnerID string, now time.Time) (*entity.DeliveryOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	offer, ok := r.offers[offerID]
	if !ok {
		return nil, errors.NotFound("Delivery offer", nil)
	}
	if offer.RunnerID != runnerID {
		return nil, errors.Forbidden("Offer belongs to another runner", nil)
	}
	if offer.Status == entity.OfferStatusRejected {
		cp := *offer
		return &cp, nil
	}
	if offer.Status != entity.OfferStatusPending {
		return nil, errors.Conflict("Offer is already resolved", nil)
	}
	offer.Status = entity.OfferStatusRejected
	offer.UpdatedAt = now
	cp := *offer
	return &cp, nil
}

func (r *fakeOfferRepo) ExpirePending(_ context.Context, now time.Time) ([]*entity.DeliveryOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []*entity.DeliveryOffer
	for _, o := range r.offers {
		if o.Status == entity.OfferStatusPending && o.Expired(now) {
			o.Status = entity.OfferStatusExpired
			cp := *o
			expired = append(expired, &cp)
		}
	}
	return expired, nil
}

type fakeNotificationRepo struct {
	mu   sync.Mutex
	seq  int
	rows []*entity.Notification

	failCreate bool
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.Internal("Failed to create notification", nil)
	}
	r.seq++
	n.ID = fmt.Sprintf("notification-%d", r.seq)
	n.CreatedAt = time.Now()
	cp := *n
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var mine []*entity.Notification
	for _, n := range r.rows {
		if n.UserID == userID {
			cp := *n
			mine = append(mine, &cp)
		}
	}
	total := int64(len(mine))
	if offset >= len(mine) {
		return nil, total, nil
	}
	mine = mine[offset:]
	if limit > 0 && limit < len(mine) {
		mine = mine[:limit]
	}
	return mine, total, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.rows {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.rows {
		if n.ID == id {
			if n.UserID != userID {
				return errors.Forbidden("Notification belongs to another user", nil)
			}
			n.IsRead = true
			return nil
		}
	}
	return errors.NotFound("Notification", nil)
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.rows {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) Delete(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.rows {
		if n.ID == id {
			if n.UserID != userID {
				return errors.Forbidden("Notification belongs to another user", nil)
			}
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return errors.NotFound("Notification", nil)
}

type fakeChatRepo struct {
	mu   sync.Mutex
	seq  int
	rows []*entity.ChatMessage
}

func (r *fakeChatRepo) Create(_ context.Context, m *entity.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	m.ID = fmt.Sprintf("message-%d", r.seq)
	m.CreatedAt = time.Now()
	cp := *m
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *fakeChatRepo) ListByOrder(_ context.Context, orderID string, limit, offset int) ([]*entity.ChatMessage, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var mine []*entity.ChatMessage
	for _, m := range r.rows {
		if m.OrderID == orderID {
			cp := *m
			mine = append(mine, &cp)
		}
	}
	total := int64(len(mine))
	if offset >= len(mine) {
		return nil, total, nil
	}
	mine = mine[offset:]
	if limit > 0 && limit < len(mine) {
		mine = mine[:limit]
	}
	return mine, total, nil
}

func (r *fakeChatRepo) MarkRead(_ context.Context, orderID, readerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.OrderID == orderID && m.SenderID != readerID {
			m.IsRead = true
		}
	}
	return nil
}

type fakeWalletRepo struct {
	mu      sync.Mutex
	wallets map[string]*entity.Wallet
}

func newFakeWalletRepo(wallets ...*entity.Wallet) *fakeWalletRepo {
	repo := &fakeWalletRepo{wallets: make(map[string]*entity.Wallet)}
	for _, w := range wallets {
		repo.wallets[w.UserID] = w
	}
	return repo
}

func (r *fakeWalletRepo) GetByUserID(_ context.Context, userID string) (*entity.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[userID]
	if !ok {
		return nil, errors.NotFound("Wallet", nil)
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWalletRepo) IncrementBalance(_ context.Context, userID string, amount float64) (*entity.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[userID]
	if !ok {
		return nil, errors.NotFound("Wallet", nil)
	}
	if w.Balance+amount < 0 {
		return nil, errors.Conflict("Insufficient balance", nil)
	}
	w.Balance += amount
	w.LastTxnAt = time.Now()
	cp := *w
	return &cp, nil
}

// allowAllAuthorizer lets tests attach clients to arbitrary rooms; the
// authorization predicates themselves are tested separately.
type allowAllAuthorizer struct{}

func (allowAllAuthorizer) CanJoin(context.Context, ws.Room, ws.Principal) error    { return nil }
func (allowAllAuthorizer) CanPublish(context.Context, ws.Room, ws.Principal) error { return nil }

func newTestManager(t *testing.T) *ws.Manager {
	t.Helper()
	m := ws.NewManager(allowAllAuthorizer{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m.Start(ctx)
	return m
}

// attachClient registers a buffered connection-less client and joins it to
// the given rooms, returning its receive channel.
func attachClient(t *testing.T, m *ws.Manager, principal ws.Principal, rooms ...ws.Room) chan []byte {
	t.Helper()
	client := &ws.Client{Principal: principal, Send: make(chan []byte, 32)}
	m.Register <- client
	for _, room := range rooms {
		if err := m.JoinRoom(context.Background(), client, room); err != nil {
			t.Fatalf("join %s: %v", room.Name(), err)
		}
	}
	return client.Send
}

// recvEvent waits for one event on the channel and decodes its envelope.
func recvEvent(t *testing.T, ch chan []byte) ws.Event {
	t.Helper()
	select {
	case payload := <-ch:
		var event ws.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return ws.Event{}
	}
}

func noEvent(t *testing.T, ch chan []byte) {
	t.Helper()
	select {
	case payload := <-ch:
		t.Fatalf("unexpected event: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}
