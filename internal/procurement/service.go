package procurement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Farhaan96/CollisionOS-sub000/internal/shared"
	"github.com/Farhaan96/CollisionOS-sub000/internal/vendor"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPO(ctx context.Context, id int64) (PurchaseOrder, []PartLine, error)
	GetLine(ctx context.Context, id int64) (PartLine, error)
	ListOrdersByRO(ctx context.Context, shopID int64, roNumber string) ([]PurchaseOrder, error)
	ListReturnsForOrder(ctx context.Context, poID int64) ([]ReturnOrder, error)
}

// VendorPort exposes the vendor lookups the service needs for numbering
// and pricing.
type VendorPort interface {
	Get(ctx context.Context, shopID, id int64) (*vendor.Vendor, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the purchasing lifecycle.
type Service struct {
	logger    *slog.Logger
	repo      RepositoryPort
	vendors   VendorPort
	audit     AuditPort
	broadcast BroadcastPort
	validator *validator.Validate
	taxRate   float64
	now       func() time.Time
}

// NewService constructs the procurement service.
func NewService(logger *slog.Logger, repo RepositoryPort, vendors VendorPort, audit AuditPort, broadcast BroadcastPort, taxRate float64) *Service {
	if broadcast == nil {
		broadcast = NopBroadcaster{}
	}
	return &Service{
		logger:    logger,
		repo:      repo,
		vendors:   vendors,
		audit:     audit,
		broadcast: broadcast,
		validator: validator.New(),
		taxRate:   taxRate,
		now:       time.Now,
	}
}

// CreateOrdersInput carries resolved part lines for one repair order.
// Lines without a vendor are persisted but left out of order creation.
type CreateOrdersInput struct {
	ShopID     int64  `validate:"required,gt=0"`
	RONumber   string `validate:"required,max=32"`
	ActorID    int64
	ExpectedAt time.Time
	Lines      []PartLine `validate:"required,min=1"`
}

// CreateOrdersResult reports the orders written and the lines that still
// need manual vendor assignment.
type CreateOrdersResult struct {
	Orders     []PurchaseOrder
	Unassigned []PartLine
}

// CreateOrders partitions lines by vendor and writes one draft purchase
// order per vendor group. Numbering, pricing and line assignment happen
// in a single transaction.
func (s *Service) CreateOrders(ctx context.Context, input CreateOrdersInput) (CreateOrdersResult, error) {
	if err := s.validator.Struct(input); err != nil {
		return CreateOrdersResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	grouping := GroupByVendor(input.Lines)
	now := s.now()
	var result CreateOrdersResult
	var events []Event

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, group := range grouping.Groups {
			v, err := s.vendors.Get(ctx, input.ShopID, group.VendorID)
			if err != nil {
				return fmt.Errorf("vendor %d: %w", group.VendorID, err)
			}

			po := PurchaseOrder{
				ShopID:     input.ShopID,
				RONumber:   input.RONumber,
				VendorID:   group.VendorID,
				Status:     OrderStatusDraft,
				ExpectedAt: input.ExpectedAt,
			}
			po.Subtotal, po.Tax, po.Total, po.EstimatedMargin = s.price(group.Lines, v.DiscountPct)

			po.ID, po.Number, err = s.insertNumbered(ctx, tx, po, v.Name, now)
			if err != nil {
				return err
			}

			for _, line := range group.Lines {
				if !line.Status.CanTransition(LineStatusOrdered) {
					return fmt.Errorf("%w: line %d is %s", ErrInvalidState, line.ID, line.Status)
				}
				if line.ID == 0 {
					line.ShopID = input.ShopID
					line.RONumber = input.RONumber
					line.VendorID = group.VendorID
					line.PurchaseOrderID = po.ID
					line.Status = LineStatusOrdered
					if line.ID, err = tx.CreatePartLine(ctx, line); err != nil {
						return err
					}
				} else if err := tx.AssignLine(ctx, line.ID, group.VendorID, po.ID, LineStatusOrdered); err != nil {
					return err
				}
			}
			result.Orders = append(result.Orders, po)
			events = append(events, Event{
				Name: EventOrderCreated, ShopID: input.ShopID, RONumber: input.RONumber,
				PurchaseOrderID: po.ID, PONumber: po.Number, VendorID: po.VendorID, OccurredAt: now,
			})
		}

		for _, line := range grouping.Unassigned {
			if line.ID == 0 {
				line.ShopID = input.ShopID
				line.RONumber = input.RONumber
				line.Status = LineStatusNeeded
				var err error
				if line.ID, err = tx.CreatePartLine(ctx, line); err != nil {
					return err
				}
			}
			result.Unassigned = append(result.Unassigned, line)
		}
		return nil
	})
	if err != nil {
		return CreateOrdersResult{}, err
	}

	s.publish(ctx, events)
	s.recordAudit(ctx, input.ActorID, "po.create", "purchase_order", input.RONumber, map[string]any{
		"orders": len(result.Orders), "unassigned": len(result.Unassigned),
	})
	return result, nil
}

// insertNumbered allocates the per-vendor monthly sequence and inserts
// the order. A duplicate number, possible only when a sequence row was
// repaired by hand, is retried once with a fresh allocation.
func (s *Service) insertNumbered(ctx context.Context, tx TxRepository, po PurchaseOrder, vendorName string, now time.Time) (int64, string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		seq, err := tx.NextPOSequence(ctx, po.VendorID, YearMonth(now))
		if err != nil {
			return 0, "", err
		}
		po.Number = FormatPONumber(po.RONumber, now, vendorName, seq)
		id, err := tx.CreatePO(ctx, po)
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return 0, "", err
		}
		return id, po.Number, nil
	}
	return 0, "", fmt.Errorf("%w: po number %s", ErrDuplicate, po.Number)
}

// price totals a line group at list cost. The vendor discount never
// reduces the subtotal; it is reported as the estimated margin.
func (s *Service) price(lines []PartLine, discountPct float64) (subtotal, tax, total, margin float64) {
	for _, line := range lines {
		subtotal += line.Quantity * line.UnitPrice
	}
	subtotal = round2(subtotal)
	tax = round2(subtotal * s.taxRate)
	total = round2(subtotal + tax)
	margin = round2(subtotal * discountPct / 100)
	return subtotal, tax, total, margin
}

// Send transitions a draft order to sent.
func (s *Service) Send(ctx context.Context, poID, actorID int64) error {
	return s.transition(ctx, poID, actorID, OrderStatusSent, EventOrderSent)
}

// Acknowledge marks a sent order as acknowledged by the vendor.
func (s *Service) Acknowledge(ctx context.Context, poID, actorID int64) error {
	return s.transition(ctx, poID, actorID, OrderStatusAcknowledged, "")
}

// Cancel cancels an order that has not completed receiving.
func (s *Service) Cancel(ctx context.Context, poID, actorID int64) error {
	return s.transition(ctx, poID, actorID, OrderStatusCancelled, "")
}

// Close closes a fully processed order.
func (s *Service) Close(ctx context.Context, poID, actorID int64) error {
	return s.transition(ctx, poID, actorID, OrderStatusClosed, "")
}

func (s *Service) transition(ctx context.Context, poID, actorID int64, target OrderStatus, eventName string) error {
	var evt *Event
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPOForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if po.Status == target {
			return nil
		}
		if !po.Status.CanTransition(target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidState, po.Status, target)
		}
		if err := tx.UpdatePOStatus(ctx, poID, target); err != nil {
			return err
		}
		if eventName != "" {
			evt = &Event{Name: eventName, ShopID: po.ShopID, RONumber: po.RONumber, PurchaseOrderID: po.ID, PONumber: po.Number, VendorID: po.VendorID, OccurredAt: s.now()}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if evt != nil {
		s.publish(ctx, []Event{*evt})
	}
	s.recordAudit(ctx, actorID, "po."+string(target), "purchase_order", strconv.FormatInt(poID, 10), nil)
	return nil
}

// ReceiveItem reports the absolute received quantity for one line.
// Re-posting the same receipt is a no-op.
type ReceiveItem struct {
	PartLineID       int64     `validate:"required,gt=0"`
	ReceivedQuantity float64   `validate:"gte=0"`
	Condition        Condition `validate:"required,oneof=good damaged wrong_part"`
}

// ReceiveInput posts a delivery against an order.
type ReceiveInput struct {
	POID    int64 `validate:"required,gt=0"`
	ActorID int64
	Items   []ReceiveItem `validate:"required,min=1,dive"`
}

// LineReceipt is the per-line outcome of a receipt posting. Err is set
// when the item was rejected; the rest of the batch is unaffected.
type LineReceipt struct {
	PartLineID    int64
	Status        LineStatus
	ReturnOrderID int64
	Err           error
}

// ReceiveResult reports line outcomes, the recomputed order status and
// any return orders filed by variance handling.
type ReceiveResult struct {
	OrderStatus OrderStatus
	Lines       []LineReceipt
	Returns     []ReturnOrder
}

// Receive applies a delivery to an order under a row lock: each line gets
// its variance outcome, over-deliveries and bad conditions file return
// orders, and the order status is recomputed from all its lines.
func (s *Service) Receive(ctx context.Context, input ReceiveInput) (ReceiveResult, error) {
	if err := s.validator.Struct(input); err != nil {
		return ReceiveResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var result ReceiveResult
	var events []Event
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPOForUpdate(ctx, input.POID)
		if err != nil {
			return err
		}
		if !po.Status.Receivable() {
			return fmt.Errorf("%w: cannot receive against %s order", ErrInvalidState, po.Status)
		}
		lines, err := tx.ListOrderLines(ctx, input.POID)
		if err != nil {
			return err
		}
		byID := make(map[int64]*PartLine, len(lines))
		for i := range lines {
			byID[lines[i].ID] = &lines[i]
		}

		now := s.now()
		for _, item := range input.Items {
			line, ok := byID[item.PartLineID]
			if !ok {
				result.Lines = append(result.Lines, LineReceipt{
					PartLineID: item.PartLineID,
					Err:        fmt.Errorf("%w: line %d does not belong to order %d", ErrValidation, item.PartLineID, input.POID),
				})
				continue
			}

			target, spec := receiptOutcome(*line, item.ReceivedQuantity, item.Condition)
			if !line.Status.CanTransition(target) {
				result.Lines = append(result.Lines, LineReceipt{
					PartLineID: line.ID,
					Status:     line.Status,
					Err:        fmt.Errorf("%w: line %d %s -> %s", ErrInvalidState, line.ID, line.Status, target),
				})
				continue
			}
			if err := tx.UpdateLineReceipt(ctx, line.ID, target, item.ReceivedQuantity, item.Condition); err != nil {
				return err
			}
			line.Status = target
			line.ReceivedQuantity = item.ReceivedQuantity
			line.Condition = item.Condition

			receipt := LineReceipt{PartLineID: line.ID, Status: target}
			if spec != nil {
				ro := ReturnOrder{
					ShopID:          po.ShopID,
					RefID:           returnRef(po.ID, line.ID, spec.reason),
					PurchaseOrderID: po.ID,
					PartLineID:      line.ID,
					VendorID:        po.VendorID,
					Reason:          spec.reason,
					Quantity:        spec.quantity,
					Status:          ReturnStatusPending,
				}
				var created bool
				if ro.ID, created, err = tx.CreateReturnOrder(ctx, ro); err != nil {
					return err
				}
				receipt.ReturnOrderID = ro.ID
				if created {
					result.Returns = append(result.Returns, ro)
					events = append(events, Event{
						Name: EventReturnCreated, ShopID: po.ShopID, RONumber: po.RONumber,
						PurchaseOrderID: po.ID, PartLineID: line.ID, ReturnOrderID: ro.ID,
						VendorID: po.VendorID, Quantity: ro.Quantity, OccurredAt: now,
					})
				}
			}
			result.Lines = append(result.Lines, receipt)
		}

		result.OrderStatus = aggregateStatus(po.Status, lines)
		if result.OrderStatus != po.Status {
			if !po.Status.CanTransition(result.OrderStatus) {
				result.OrderStatus = po.Status
			} else {
				if err := tx.UpdatePOStatus(ctx, po.ID, result.OrderStatus); err != nil {
					return err
				}
				name := EventOrderPartial
				if result.OrderStatus == OrderStatusReceived {
					name = EventOrderReceived
				}
				events = append(events, Event{
					Name: name, ShopID: po.ShopID, RONumber: po.RONumber,
					PurchaseOrderID: po.ID, PONumber: po.Number, VendorID: po.VendorID, OccurredAt: now,
				})
			}
		}
		return nil
	})
	if err != nil {
		return ReceiveResult{}, err
	}

	s.publish(ctx, events)
	s.recordAudit(ctx, input.ActorID, "po.receive", "purchase_order", strconv.FormatInt(input.POID, 10), map[string]any{
		"items": len(input.Items), "returns": len(result.Returns), "status": result.OrderStatus,
	})
	return result, nil
}

type returnSpec struct {
	reason   ReturnReason
	quantity float64
}

// receiptOutcome applies the variance decision table to one line.
func receiptOutcome(line PartLine, qty float64, cond Condition) (LineStatus, *returnSpec) {
	switch cond {
	case ConditionDamaged:
		return LineStatusDamaged, &returnSpec{reason: ReturnDamaged, quantity: returnQty(qty, line.Quantity)}
	case ConditionWrongPart:
		return LineStatusWrongPart, &returnSpec{reason: ReturnWrongPart, quantity: returnQty(qty, line.Quantity)}
	}
	switch {
	case qty < line.Quantity:
		return LineStatusPartial, nil
	case qty == line.Quantity:
		return LineStatusReceived, nil
	default:
		return LineStatusReceived, &returnSpec{reason: ReturnOverDelivery, quantity: qty - line.Quantity}
	}
}

func returnQty(received, ordered float64) float64 {
	if received > 0 {
		return received
	}
	return ordered
}

// returnRef derives the stable dedup key for a return: one return per
// order, line and reason, however many times the receipt is replayed.
func returnRef(poID, lineID int64, reason ReturnReason) string {
	return uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("return:%d:%d:%s", poID, lineID, reason))).String()
}

// aggregateStatus recomputes the order status from its lines.
func aggregateStatus(current OrderStatus, lines []PartLine) OrderStatus {
	if len(lines) == 0 {
		return current
	}
	complete := true
	progress := false
	for _, line := range lines {
		switch line.Status {
		case LineStatusReceived, LineStatusInstalled:
			progress = true
		case LineStatusPartial, LineStatusDamaged, LineStatusWrongPart:
			progress = true
			complete = false
		default:
			complete = false
			if line.ReceivedQuantity > 0 {
				progress = true
			}
		}
	}
	switch {
	case complete:
		return OrderStatusReceived
	case progress:
		return OrderStatusPartial
	default:
		return current
	}
}

// SplitGroup names the lines for one child order. VendorID re-sources
// the group's lines to a different vendor; zero keeps the parent's.
// ExpectedAt overrides the child's delivery date when set.
type SplitGroup struct {
	LineIDs    []int64 `validate:"required,min=1"`
	VendorID   int64   `validate:"gte=0"`
	ExpectedAt time.Time
}

// SplitInput partitions a draft order's lines into child orders. Every
// line must land on exactly one child.
type SplitInput struct {
	POID    int64 `validate:"required,gt=0"`
	ActorID int64
	Groups  []SplitGroup `validate:"required,min=2,dive"`
}

// Split turns a draft order into child orders along the given line
// groups. The parent keeps its totals and becomes terminal; child
// subtotals always add up to the parent subtotal exactly.
func (s *Service) Split(ctx context.Context, input SplitInput) ([]PurchaseOrder, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var children []PurchaseOrder
	var events []Event
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPOForUpdate(ctx, input.POID)
		if err != nil {
			return err
		}
		if po.Status != OrderStatusDraft {
			return fmt.Errorf("%w: only draft orders can be split, got %s", ErrInvalidState, po.Status)
		}
		lines, err := tx.ListOrderLines(ctx, input.POID)
		if err != nil {
			return err
		}
		byID := make(map[int64]PartLine, len(lines))
		for _, line := range lines {
			byID[line.ID] = line
		}
		claimed := make(map[int64]bool, len(lines))
		for _, group := range input.Groups {
			for _, lineID := range group.LineIDs {
				if _, ok := byID[lineID]; !ok {
					return fmt.Errorf("%w: line %d does not belong to order %d", ErrValidation, lineID, input.POID)
				}
				if claimed[lineID] {
					return fmt.Errorf("%w: line %d assigned to more than one child", ErrValidation, lineID)
				}
				claimed[lineID] = true
			}
		}
		if len(claimed) != len(lines) {
			return fmt.Errorf("%w: split must cover every line of the order", ErrValidation)
		}

		vendorsByID := make(map[int64]*vendor.Vendor)
		lookup := func(id int64) (*vendor.Vendor, error) {
			if v, ok := vendorsByID[id]; ok {
				return v, nil
			}
			v, err := s.vendors.Get(ctx, po.ShopID, id)
			if err != nil {
				return nil, fmt.Errorf("vendor %d: %w", id, err)
			}
			vendorsByID[id] = v
			return v, nil
		}

		now := s.now()
		var subtotalSoFar, taxSoFar float64
		for i, group := range input.Groups {
			vendorID := group.VendorID
			if vendorID == 0 {
				vendorID = po.VendorID
			}
			v, err := lookup(vendorID)
			if err != nil {
				return err
			}

			child := PurchaseOrder{
				ShopID:        po.ShopID,
				RONumber:      po.RONumber,
				VendorID:      vendorID,
				Status:        OrderStatusDraft,
				ParentOrderID: po.ID,
				ExpectedAt:    po.ExpectedAt,
			}
			if !group.ExpectedAt.IsZero() {
				child.ExpectedAt = group.ExpectedAt
			}
			groupLines := make([]PartLine, 0, len(group.LineIDs))
			for _, lineID := range group.LineIDs {
				groupLines = append(groupLines, byID[lineID])
			}
			child.Subtotal, child.Tax, child.Total, child.EstimatedMargin = s.price(groupLines, v.DiscountPct)
			if i == len(input.Groups)-1 {
				// The last child absorbs rounding drift so the
				// children always sum to the parent exactly.
				child.Subtotal = round2(po.Subtotal - subtotalSoFar)
				child.Tax = round2(po.Tax - taxSoFar)
				child.Total = round2(child.Subtotal + child.Tax)
				child.EstimatedMargin = round2(child.Subtotal * v.DiscountPct / 100)
			}
			subtotalSoFar = round2(subtotalSoFar + child.Subtotal)
			taxSoFar = round2(taxSoFar + child.Tax)

			if child.ID, child.Number, err = s.insertNumbered(ctx, tx, child, v.Name, now); err != nil {
				return err
			}
			for _, lineID := range group.LineIDs {
				if vendorID != po.VendorID {
					line := byID[lineID]
					if err := tx.AssignLine(ctx, lineID, vendorID, child.ID, line.Status); err != nil {
						return err
					}
				} else if err := tx.MoveLine(ctx, lineID, child.ID); err != nil {
					return err
				}
			}
			children = append(children, child)
			events = append(events, Event{
				Name: EventOrderCreated, ShopID: po.ShopID, RONumber: po.RONumber,
				PurchaseOrderID: child.ID, PONumber: child.Number, VendorID: vendorID, OccurredAt: now,
			})
		}

		if err := tx.UpdatePOStatus(ctx, po.ID, OrderStatusSplit); err != nil {
			return err
		}
		events = append(events, Event{
			Name: EventOrderSplit, ShopID: po.ShopID, RONumber: po.RONumber,
			PurchaseOrderID: po.ID, PONumber: po.Number, VendorID: po.VendorID, OccurredAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	s.recordAudit(ctx, input.ActorID, "po.split", "purchase_order", strconv.FormatInt(input.POID, 10), map[string]any{
		"children": len(children),
	})
	return children, nil
}

// InstallLine marks a received line as installed on the vehicle.
func (s *Service) InstallLine(ctx context.Context, lineID, actorID int64) error {
	var evt Event
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		line, err := tx.GetLineForUpdate(ctx, lineID)
		if err != nil {
			return err
		}
		if line.Status != LineStatusReceived {
			return fmt.Errorf("%w: only received lines can be installed, got %s", ErrInvalidState, line.Status)
		}
		if err := tx.UpdateLineStatus(ctx, lineID, LineStatusInstalled); err != nil {
			return err
		}
		evt = Event{Name: EventLineInstalled, ShopID: line.ShopID, RONumber: line.RONumber, PartLineID: line.ID, PurchaseOrderID: line.PurchaseOrderID, OccurredAt: s.now()}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, []Event{evt})
	s.recordAudit(ctx, actorID, "line.install", "part_line", strconv.FormatInt(lineID, 10), nil)
	return nil
}

// AssignVendor manually assigns a vendor to a line waiting in the
// unassigned bucket.
func (s *Service) AssignVendor(ctx context.Context, lineID, vendorID, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		line, err := tx.GetLineForUpdate(ctx, lineID)
		if err != nil {
			return err
		}
		if line.Status != LineStatusNeeded || line.PurchaseOrderID != 0 {
			return fmt.Errorf("%w: line %d already ordered", ErrInvalidState, lineID)
		}
		if _, err := s.vendors.Get(ctx, line.ShopID, vendorID); err != nil {
			return fmt.Errorf("vendor %d: %w", vendorID, err)
		}
		return tx.AssignLine(ctx, lineID, vendorID, 0, LineStatusNeeded)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "line.assign_vendor", "part_line", strconv.FormatInt(lineID, 10), map[string]any{"vendor_id": vendorID})
	return nil
}

// OverrideStatus force-sets an order status, bypassing the transition
// table. Admin repair tool; every use is audited with its reason.
func (s *Service) OverrideStatus(ctx context.Context, poID int64, target OrderStatus, actorID int64, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: override requires a reason", ErrValidation)
	}
	if _, ok := orderTransitions[target]; !ok {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, target)
	}
	var previous OrderStatus
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPOForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if po.Status == OrderStatusSplit {
			return fmt.Errorf("%w: split orders cannot be overridden", ErrInvalidState)
		}
		previous = po.Status
		return tx.UpdatePOStatus(ctx, poID, target)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "po.override_status", "purchase_order", strconv.FormatInt(poID, 10), map[string]any{
		"from": previous, "to": target, "reason": reason,
	})
	return nil
}

func (s *Service) publish(ctx context.Context, events []Event) {
	for _, evt := range events {
		s.broadcast.Broadcast(ctx, evt)
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entity, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{ActorID: actorID, Action: action, Entity: entity, EntityID: entityID, Meta: meta, At: s.now()}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
