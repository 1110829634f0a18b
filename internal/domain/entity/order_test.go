package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderMonotonicProgression(t *testing.T) {
	o := &Order{ID: "o1", Status: OrderStatusCreated}

	steps := []OrderStatus{
		OrderStatusAssignedRunner, OrderStatusPickedUp,
		OrderStatusDelivering, OrderStatusDelivered,
	}
	for _, next := range steps {
		assert.NoError(t, o.CanTransition(next))
		o.Status = next
	}
}

func TestOrderNoSkippingOrRegressing(t *testing.T) {
	o := &Order{ID: "o1", Status: OrderStatusCreated}
	assert.Error(t, o.CanTransition(OrderStatusPickedUp))
	assert.Error(t, o.CanTransition(OrderStatusDelivered))

	o.Status = OrderStatusDelivering
	assert.Error(t, o.CanTransition(OrderStatusPickedUp))
	assert.Error(t, o.CanTransition(OrderStatusCreated))
}

func TestOrderCancelEscape(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusCreated, OrderStatusAssignedRunner, OrderStatusPickedUp, OrderStatusDelivering} {
		o := &Order{ID: "o1", Status: s}
		assert.NoError(t, o.CanTransition(OrderStatusCancelled), "cancel from %s", s)
	}

	delivered := &Order{ID: "o1", Status: OrderStatusDelivered}
	assert.Error(t, delivered.CanTransition(OrderStatusCancelled))

	cancelled := &Order{ID: "o1", Status: OrderStatusCancelled}
	assert.Error(t, cancelled.CanTransition(OrderStatusCreated))
	assert.Error(t, cancelled.CanTransition(OrderStatusCancelled))
}
