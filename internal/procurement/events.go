package procurement

import (
	"context"
	"time"
)

// Event names broadcast on lifecycle changes.
const (
	EventOrderCreated  = "po.created"
	EventOrderSent     = "po.sent"
	EventOrderPartial  = "po.partial"
	EventOrderReceived = "po.received"
	EventOrderSplit    = "po.split"
	EventReturnCreated = "return.created"
	EventLineInstalled = "line.installed"
)

// Event is the notification payload pushed to interested parties.
type Event struct {
	Name            string    `json:"name"`
	ShopID          int64     `json:"shop_id"`
	RONumber        string    `json:"ro_number,omitempty"`
	PurchaseOrderID int64     `json:"purchase_order_id,omitempty"`
	PONumber        string    `json:"po_number,omitempty"`
	PartLineID      int64     `json:"part_line_id,omitempty"`
	ReturnOrderID   int64     `json:"return_order_id,omitempty"`
	VendorID        int64     `json:"vendor_id,omitempty"`
	Quantity        float64   `json:"quantity,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BroadcastPort delivers lifecycle events to subscribers. Delivery is
// fire-and-forget: a failed broadcast never rolls back the transition
// that produced it.
type BroadcastPort interface {
	Broadcast(ctx context.Context, evt Event)
}

// NopBroadcaster drops every event.
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(context.Context, Event) {}
