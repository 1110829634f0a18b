package websocket

import "context"

// Principal is the authenticated identity attached to a connection.
type Principal struct {
	UserID     string
	Name       string
	Role       string
	WorkshopID string
	SupplierID string
}

// RoomAuthorizer is the single authorization gate for the event fabric.
// One predicate per room kind lives behind this interface instead of being
// re-implemented in every event handler. CanPublish is consulted on every
// send, not just at join time, because room membership can outlive a
// revoked authorization.
type RoomAuthorizer interface {
	CanJoin(ctx context.Context, room Room, principal Principal) error
	CanPublish(ctx context.Context, room Room, principal Principal) error
}
