package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	created int
	updated int
	deleted int
	paid    int
}

func (h *recordingHandler) HandleSubscriptionCreated(ctx context.Context, sub *SubscriptionObject) error {
	h.created++
	return nil
}

func (h *recordingHandler) HandleSubscriptionUpdated(ctx context.Context, sub *SubscriptionObject) error {
	h.updated++
	return nil
}

func (h *recordingHandler) HandleSubscriptionDeleted(ctx context.Context, sub *SubscriptionObject) error {
	h.deleted++
	return nil
}

func (h *recordingHandler) HandleInvoicePaid(ctx context.Context, inv *Invoice) error {
	h.paid++
	return nil
}

func TestDispatcherRouting(t *testing.T) {
	handler := &recordingHandler{}
	d := NewDispatcher(handler)
	ctx := context.Background()

	events := []*Event{
		{Type: EventInvoicePaymentSucceeded, Invoice: &Invoice{ID: "in_1"}},
		{Type: EventSubscriptionCreated, Subscription: &SubscriptionObject{ID: "sub_1"}},
		{Type: EventSubscriptionUpdated, Subscription: &SubscriptionObject{ID: "sub_1"}},
		{Type: EventSubscriptionDeleted, Subscription: &SubscriptionObject{ID: "sub_1"}},
	}
	for _, ev := range events {
		require.NoError(t, d.Dispatch(ctx, ev))
	}

	assert.Equal(t, 1, handler.paid)
	assert.Equal(t, 1, handler.created)
	assert.Equal(t, 1, handler.updated)
	assert.Equal(t, 1, handler.deleted)
}

func TestDispatcherUnknownType(t *testing.T) {
	handler := &recordingHandler{}
	d := NewDispatcher(handler)

	err := d.Dispatch(context.Background(), &Event{Type: "charge.refunded"})
	assert.NoError(t, err)
	assert.Zero(t, handler.paid+handler.created+handler.updated+handler.deleted)
}

func TestDispatcherMissingPayload(t *testing.T) {
	handler := &recordingHandler{}
	d := NewDispatcher(handler)

	err := d.Dispatch(context.Background(), &Event{Type: EventInvoicePaymentSucceeded})
	assert.Error(t, err)

	err = d.Dispatch(context.Background(), nil)
	assert.Error(t, err)
}
