package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderPending, OrderShipped, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderDelivered, false},
		{OrderShipped, OrderDelivered, true},
		{OrderShipped, OrderCancelled, false},
		{OrderShipped, OrderPending, false},
		{OrderDelivered, OrderCancelled, false},
		{OrderDelivered, OrderShipped, false},
		{OrderCancelled, OrderPending, false},
		{OrderCancelled, OrderShipped, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, OrderDelivered.Terminal())
	assert.True(t, OrderCancelled.Terminal())
	assert.False(t, OrderPending.Terminal())
	assert.False(t, OrderShipped.Terminal())
	assert.Empty(t, NextStatuses(OrderDelivered))
	assert.Equal(t, []OrderStatus{OrderDelivered}, NextStatuses(OrderShipped))
}

func TestCancelUnavailableOnceFinished(t *testing.T) {
	for _, s := range []OrderStatus{OrderDelivered, OrderCancelled, OrderShipped} {
		assert.False(t, Order{OrderStatus: s}.CanCancel(), string(s))
	}
	assert.True(t, Order{OrderStatus: OrderPending, PaymentStatus: PaymentPaid}.CanCancel())
}

func TestCanPay(t *testing.T) {
	assert.True(t, Order{OrderStatus: OrderPending, PaymentStatus: PaymentUnpaid}.CanPay())
	assert.False(t, Order{OrderStatus: OrderPending, PaymentStatus: PaymentPaid}.CanPay())
	assert.False(t, Order{OrderStatus: OrderShipped, PaymentStatus: PaymentUnpaid}.CanPay())
	assert.False(t, Order{OrderStatus: OrderCancelled, PaymentStatus: PaymentUnpaid}.CanPay())
}
