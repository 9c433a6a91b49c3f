package payments

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Gateway event types handled by the dispatcher. Anything else is ignored.
const (
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	EventSubscriptionCreated     = "customer.subscription.created"
	EventSubscriptionUpdated     = "customer.subscription.updated"
	EventSubscriptionDeleted     = "customer.subscription.deleted"
)

// Gateway subscription statuses as delivered in webhook payloads.
const (
	GatewayStatusActive   = "active"
	GatewayStatusTrialing = "trialing"
	GatewayStatusPastDue  = "past_due"
	GatewayStatusPaused   = "paused"
	GatewayStatusCanceled = "canceled"
)

// Metadata carries the storefront references we attach to gateway objects at
// checkout time. The gateway round-trips all values as strings.
type Metadata struct {
	UserID           string `json:"user_id"`
	ProductID        string `json:"product_id"`
	ShipmentQuantity string `json:"shipment_quantity"`
	AddressID        string `json:"address_id"`
}

// UserIDValue returns the user reference, or 0 when absent/malformed.
func (m Metadata) UserIDValue() uint {
	return parseUintField(m.UserID)
}

// ProductIDValue returns the product reference, or 0 when absent/malformed.
func (m Metadata) ProductIDValue() uint {
	return parseUintField(m.ProductID)
}

// AddressIDValue returns the address reference, or 0 when absent/malformed.
func (m Metadata) AddressIDValue() uint {
	return parseUintField(m.AddressID)
}

// QuantityValue returns the shipment quantity, defaulting to 1.
func (m Metadata) QuantityValue() int {
	n, err := strconv.Atoi(strings.TrimSpace(m.ShipmentQuantity))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func parseUintField(raw string) uint {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0
	}
	return uint(n)
}

// SubscriptionObject is the data.object payload of the three
// customer.subscription.* event types.
type SubscriptionObject struct {
	ID                 string   `json:"id"`
	Customer           string   `json:"customer"`
	Status             string   `json:"status"`
	CurrentPeriodStart int64    `json:"current_period_start"`
	CurrentPeriodEnd   int64    `json:"current_period_end"`
	Metadata           Metadata `json:"metadata"`
}

// Invoice is the data.object payload of invoice.payment_succeeded. The
// Subscription field is empty for one-off invoices.
type Invoice struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	AmountPaid   int64  `json:"amount_paid"`
}

// CheckoutSession is the gateway checkout session object, returned by both
// session creation and the fallback session fetch.
type CheckoutSession struct {
	ID            string   `json:"id"`
	URL           string   `json:"url"`
	Mode          string   `json:"mode"`
	PaymentStatus string   `json:"payment_status"`
	Customer      string   `json:"customer"`
	Subscription  string   `json:"subscription"`
	AmountTotal   int64    `json:"amount_total"`
	Metadata      Metadata `json:"metadata"`
}

// Event is the decoded webhook envelope. Exactly one payload variant is set
// for the known event types; unknown types carry only the raw object.
type Event struct {
	ID   string
	Type string

	Subscription *SubscriptionObject
	Invoice      *Invoice
	Raw          json.RawMessage
}

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a raw webhook body into a typed Event.
func ParseEvent(payload []byte) (*Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	if strings.TrimSpace(env.Type) == "" {
		return nil, errors.New("webhook event missing type")
	}

	ev := &Event{
		ID:   strings.TrimSpace(env.ID),
		Type: env.Type,
		Raw:  env.Data.Object,
	}

	switch env.Type {
	case EventInvoicePaymentSucceeded:
		var inv Invoice
		if err := json.Unmarshal(env.Data.Object, &inv); err != nil {
			return nil, err
		}
		ev.Invoice = &inv
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub SubscriptionObject
		if err := json.Unmarshal(env.Data.Object, &sub); err != nil {
			return nil, err
		}
		ev.Subscription = &sub
	}

	return ev, nil
}
