package payments

import (
	"context"
	"errors"
	"log"
)

// EventHandler receives decoded webhook events, one method per known type.
type EventHandler interface {
	HandleSubscriptionCreated(ctx context.Context, sub *SubscriptionObject) error
	HandleSubscriptionUpdated(ctx context.Context, sub *SubscriptionObject) error
	HandleSubscriptionDeleted(ctx context.Context, sub *SubscriptionObject) error
	HandleInvoicePaid(ctx context.Context, inv *Invoice) error
}

// Dispatcher routes a decoded event to exactly one handler method. Unknown
// event types are logged and dropped.
type Dispatcher struct {
	handler EventHandler
}

func NewDispatcher(handler EventHandler) *Dispatcher {
	return &Dispatcher{handler: handler}
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev *Event) error {
	if ev == nil {
		return errors.New("nil event")
	}

	switch ev.Type {
	case EventInvoicePaymentSucceeded:
		if ev.Invoice == nil {
			return errors.New("invoice event missing payload")
		}
		return d.handler.HandleInvoicePaid(ctx, ev.Invoice)
	case EventSubscriptionCreated:
		if ev.Subscription == nil {
			return errors.New("subscription event missing payload")
		}
		return d.handler.HandleSubscriptionCreated(ctx, ev.Subscription)
	case EventSubscriptionUpdated:
		if ev.Subscription == nil {
			return errors.New("subscription event missing payload")
		}
		return d.handler.HandleSubscriptionUpdated(ctx, ev.Subscription)
	case EventSubscriptionDeleted:
		if ev.Subscription == nil {
			return errors.New("subscription event missing payload")
		}
		return d.handler.HandleSubscriptionDeleted(ctx, ev.Subscription)
	default:
		log.Printf("ignoring unhandled gateway event type %q (id=%s)", ev.Type, ev.ID)
		return nil
	}
}
