package websocket

import (
	"fmt"
	"strings"
)

// RoomKind discriminates the authorization rule applied to a room.
type RoomKind string

const (
	RoomKindOrder        RoomKind = "order"
	RoomKindWorkshop     RoomKind = "workshop"
	RoomKindSupplier     RoomKind = "supplier"
	RoomKindNotification RoomKind = "notification"
	RoomKindWallet       RoomKind = "wallet"
)

// Room is a named broadcast scope. The zero value is invalid; use the
// constructors so names stay canonical.
type Room struct {
	Kind RoomKind
	ID   string
}

func OrderRoom(orderID string) Room       { return Room{Kind: RoomKindOrder, ID: orderID} }
func WorkshopRoom(workshopID string) Room { return Room{Kind: RoomKindWorkshop, ID: workshopID} }
func SupplierRoom(supplierID string) Room { return Room{Kind: RoomKindSupplier, ID: supplierID} }
func NotificationRoom(userID string) Room { return Room{Kind: RoomKindNotification, ID: userID} }
func WalletRoom(userID string) Room       { return Room{Kind: RoomKindWallet, ID: userID} }

// Name is the wire-level room identifier, e.g. "order:abc123".
func (r Room) Name() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// ParseRoom inverts Name. Unknown kinds are rejected.
func ParseRoom(name string) (Room, error) {
	parts := strings.SplitN(name, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return Room{}, fmt.Errorf("malformed room name %q", name)
	}

	kind := RoomKind(parts[0])
	switch kind {
	case RoomKindOrder, RoomKindWorkshop, RoomKindSupplier, RoomKindNotification, RoomKindWallet:
		return Room{Kind: kind, ID: parts[1]}, nil
	}
	return Room{}, fmt.Errorf("unknown room kind %q", parts[0])
}
