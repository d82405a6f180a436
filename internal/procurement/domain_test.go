package procurement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderTransitions(t *testing.T) {
	require.True(t, OrderStatusDraft.CanTransition(OrderStatusSent))
	require.True(t, OrderStatusDraft.CanTransition(OrderStatusSplit))
	require.True(t, OrderStatusReceived.CanTransition(OrderStatusPartial))
	require.True(t, OrderStatusPartial.CanTransition(OrderStatusPartial))

	require.False(t, OrderStatusDraft.CanTransition(OrderStatusReceived))
	require.False(t, OrderStatusSplit.CanTransition(OrderStatusSent))
	require.False(t, OrderStatusClosed.CanTransition(OrderStatusDraft))
	require.False(t, OrderStatusCancelled.CanTransition(OrderStatusSent))
}

func TestLineTransitions(t *testing.T) {
	require.True(t, LineStatusNeeded.CanTransition(LineStatusOrdered))
	require.True(t, LineStatusOrdered.CanTransition(LineStatusBackordered))
	require.True(t, LineStatusReceived.CanTransition(LineStatusInstalled))
	require.True(t, LineStatusReceived.CanTransition(LineStatusDamaged))

	require.False(t, LineStatusNeeded.CanTransition(LineStatusReceived))
	require.False(t, LineStatusInstalled.CanTransition(LineStatusReceived))
}

func TestReceivable(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusDraft, OrderStatusSent, OrderStatusAcknowledged, OrderStatusPartial, OrderStatusReceived} {
		require.True(t, status.Receivable(), "status %s", status)
	}
	for _, status := range []OrderStatus{OrderStatusSplit, OrderStatusClosed, OrderStatusCancelled} {
		require.False(t, status.Receivable(), "status %s", status)
	}
}

func TestReceiptOutcomeTable(t *testing.T) {
	line := PartLine{Quantity: 2}

	// Nothing delivered is still a short delivery.
	status, spec := receiptOutcome(line, 0, ConditionGood)
	require.Equal(t, LineStatusPartial, status)
	require.Nil(t, spec)

	status, spec = receiptOutcome(line, 1, ConditionGood)
	require.Equal(t, LineStatusPartial, status)
	require.Nil(t, spec)

	status, spec = receiptOutcome(line, 2, ConditionGood)
	require.Equal(t, LineStatusReceived, status)
	require.Nil(t, spec)

	status, spec = receiptOutcome(line, 5, ConditionGood)
	require.Equal(t, LineStatusReceived, status)
	require.NotNil(t, spec)
	require.Equal(t, ReturnOverDelivery, spec.reason)
	require.Equal(t, 3.0, spec.quantity)

	status, spec = receiptOutcome(line, 0, ConditionDamaged)
	require.Equal(t, LineStatusDamaged, status)
	require.Equal(t, 2.0, spec.quantity)

	status, spec = receiptOutcome(line, 1, ConditionWrongPart)
	require.Equal(t, LineStatusWrongPart, status)
	require.Equal(t, ReturnWrongPart, spec.reason)
	require.Equal(t, 1.0, spec.quantity)
}

func TestReturnRefIsStable(t *testing.T) {
	require.Equal(t, returnRef(10, 20, ReturnDamaged), returnRef(10, 20, ReturnDamaged))
	require.NotEqual(t, returnRef(10, 20, ReturnDamaged), returnRef(10, 20, ReturnOverDelivery))
	require.NotEqual(t, returnRef(10, 20, ReturnDamaged), returnRef(10, 21, ReturnDamaged))
}
