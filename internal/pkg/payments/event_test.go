package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent_Invoice(t *testing.T) {
	raw := []byte(`{
		"id": "evt_inv",
		"type": "invoice.payment_succeeded",
		"data": {"object": {
			"id": "in_123",
			"customer": "cus_9",
			"subscription": "sub_42",
			"amount_paid": 3000
		}}
	}`)

	ev, err := ParseEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "evt_inv", ev.ID)
	assert.Equal(t, EventInvoicePaymentSucceeded, ev.Type)
	require.NotNil(t, ev.Invoice)
	assert.Nil(t, ev.Subscription)
	assert.Equal(t, "in_123", ev.Invoice.ID)
	assert.Equal(t, "sub_42", ev.Invoice.Subscription)
	assert.Equal(t, int64(3000), ev.Invoice.AmountPaid)
}

func TestParseEvent_Subscription(t *testing.T) {
	raw := []byte(`{
		"id": "evt_sub",
		"type": "customer.subscription.created",
		"data": {"object": {
			"id": "sub_42",
			"customer": "cus_9",
			"status": "active",
			"current_period_start": 1700000000,
			"current_period_end": 1702592000,
			"metadata": {"user_id": "7", "product_id": "3", "shipment_quantity": "2"}
		}}
	}`)

	ev, err := ParseEvent(raw)
	require.NoError(t, err)
	require.NotNil(t, ev.Subscription)
	assert.Nil(t, ev.Invoice)
	assert.Equal(t, "sub_42", ev.Subscription.ID)
	assert.Equal(t, uint(7), ev.Subscription.Metadata.UserIDValue())
	assert.Equal(t, uint(3), ev.Subscription.Metadata.ProductIDValue())
	assert.Equal(t, 2, ev.Subscription.Metadata.QuantityValue())
}

func TestParseEvent_UnknownType(t *testing.T) {
	raw := []byte(`{"id": "evt_x", "type": "charge.refunded", "data": {"object": {"id": "ch_1"}}}`)

	ev, err := ParseEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "charge.refunded", ev.Type)
	assert.Nil(t, ev.Invoice)
	assert.Nil(t, ev.Subscription)
	assert.NotEmpty(t, ev.Raw)
}

func TestParseEvent_MissingType(t *testing.T) {
	_, err := ParseEvent([]byte(`{"id": "evt_x", "data": {"object": {}}}`))
	assert.Error(t, err)
}

func TestParseEvent_InvalidJSON(t *testing.T) {
	_, err := ParseEvent([]byte(`{not json`))
	assert.Error(t, err)
}

func TestMetadataDefaults(t *testing.T) {
	var m Metadata
	assert.Equal(t, uint(0), m.UserIDValue())
	assert.Equal(t, uint(0), m.ProductIDValue())
	assert.Equal(t, uint(0), m.AddressIDValue())
	assert.Equal(t, 1, m.QuantityValue())

	m = Metadata{ShipmentQuantity: "0"}
	assert.Equal(t, 1, m.QuantityValue())

	m = Metadata{ShipmentQuantity: "3", UserID: " 42 "}
	assert.Equal(t, 3, m.QuantityValue())
	assert.Equal(t, uint(42), m.UserIDValue())
}
