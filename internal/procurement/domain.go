// Package procurement owns the part purchasing lifecycle: grouping
// estimate part lines by vendor, purchase order numbering, receiving with
// variance handling, and split and return sub-flows.
package procurement

import (
	"errors"
	"time"
)

// Purchase order lifecycle statuses.
type OrderStatus string

const (
	OrderStatusDraft        OrderStatus = "draft"
	OrderStatusSent         OrderStatus = "sent"
	OrderStatusAcknowledged OrderStatus = "acknowledged"
	OrderStatusPartial      OrderStatus = "partial"
	OrderStatusReceived     OrderStatus = "received"
	OrderStatusSplit        OrderStatus = "split"
	OrderStatusClosed       OrderStatus = "closed"
	OrderStatusCancelled    OrderStatus = "cancelled"
)

// Part line lifecycle statuses.
type LineStatus string

const (
	LineStatusNeeded      LineStatus = "needed"
	LineStatusOrdered     LineStatus = "ordered"
	LineStatusBackordered LineStatus = "backordered"
	LineStatusPartial     LineStatus = "partial"
	LineStatusReceived    LineStatus = "received"
	LineStatusDamaged     LineStatus = "damaged"
	LineStatusWrongPart   LineStatus = "wrong_part"
	LineStatusInstalled   LineStatus = "installed"
)

// Condition reported on a delivery.
type Condition string

const (
	ConditionGood      Condition = "good"
	ConditionDamaged   Condition = "damaged"
	ConditionWrongPart Condition = "wrong_part"
)

// Return order reasons.
type ReturnReason string

const (
	ReturnOverDelivery ReturnReason = "over_delivery"
	ReturnDamaged      ReturnReason = "damaged"
	ReturnWrongPart    ReturnReason = "wrong_part"
)

// Return order statuses.
type ReturnStatus string

const (
	ReturnStatusPending   ReturnStatus = "pending"
	ReturnStatusShipped   ReturnStatus = "shipped"
	ReturnStatusCredited  ReturnStatus = "credited"
	ReturnStatusCancelled ReturnStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:        {OrderStatusSent, OrderStatusSplit, OrderStatusCancelled},
	OrderStatusSent:         {OrderStatusAcknowledged, OrderStatusPartial, OrderStatusReceived, OrderStatusCancelled},
	OrderStatusAcknowledged: {OrderStatusPartial, OrderStatusReceived, OrderStatusCancelled},
	OrderStatusPartial:      {OrderStatusReceived, OrderStatusClosed, OrderStatusCancelled},
	OrderStatusReceived:     {OrderStatusPartial, OrderStatusClosed},
	OrderStatusSplit:        {},
	OrderStatusClosed:       {},
	OrderStatusCancelled:    {},
}

var lineTransitions = map[LineStatus][]LineStatus{
	LineStatusNeeded:      {LineStatusOrdered},
	LineStatusOrdered:     {LineStatusBackordered, LineStatusPartial, LineStatusReceived, LineStatusDamaged, LineStatusWrongPart},
	LineStatusBackordered: {LineStatusPartial, LineStatusReceived, LineStatusDamaged, LineStatusWrongPart},
	LineStatusPartial:     {LineStatusBackordered, LineStatusReceived, LineStatusDamaged, LineStatusWrongPart},
	LineStatusReceived:    {LineStatusPartial, LineStatusDamaged, LineStatusWrongPart, LineStatusInstalled},
	LineStatusDamaged:     {LineStatusPartial, LineStatusReceived},
	LineStatusWrongPart:   {LineStatusPartial, LineStatusReceived},
	LineStatusInstalled:   {},
}

// CanTransition reports whether the order status change is legal. A
// same-status update is always allowed; receiving is idempotent.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if s == to {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanTransition reports whether the line status change is legal.
func (s LineStatus) CanTransition(to LineStatus) bool {
	if s == to {
		return true
	}
	for _, allowed := range lineTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Receivable reports whether deliveries may still be posted against an
// order in this status.
func (s OrderStatus) Receivable() bool {
	switch s {
	case OrderStatusDraft, OrderStatusSent, OrderStatusAcknowledged, OrderStatusPartial, OrderStatusReceived:
		return true
	}
	return false
}

// PartLine is one purchasable part from a validated estimate.
type PartLine struct {
	ID               int64
	ShopID           int64
	RONumber         string
	EstimateLineRef  string
	PartNumber       string
	OEMNumber        string
	Description      string
	Quantity         float64
	UnitPrice        float64
	VendorID         int64
	PurchaseOrderID  int64
	Status           LineStatus
	ReceivedQuantity float64
	Condition        Condition
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PurchaseOrder groups part lines sourced from one vendor. Subtotal is
// the undiscounted sum of line costs; the vendor discount agreement is
// tracked separately as EstimatedMargin.
type PurchaseOrder struct {
	ID              int64
	ShopID          int64
	Number          string
	RONumber        string
	VendorID        int64
	Status          OrderStatus
	ParentOrderID   int64
	Subtotal        float64
	Tax             float64
	Total           float64
	EstimatedMargin float64
	ExpectedAt      time.Time
	Note            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ReturnOrder sends parts back to a vendor. RefID is deterministic so a
// replayed receipt never files the same return twice.
type ReturnOrder struct {
	ID              int64
	ShopID          int64
	RefID           string
	PurchaseOrderID int64
	PartLineID      int64
	VendorID        int64
	Reason          ReturnReason
	Quantity        float64
	Status          ReturnStatus
	CreatedAt       time.Time
}

// Domain errors.
var (
	ErrNotFound     = errors.New("procurement: not found")
	ErrInvalidState = errors.New("procurement: invalid state transition")
	ErrValidation   = errors.New("procurement: invalid input")
	ErrDuplicate    = errors.New("procurement: duplicate number")
)
