package payments

import "time"

// NewSubscription is the normalized creation input shared by the webhook
// path and the fallback path. Both must produce identical rows.
type NewSubscription struct {
	UserID                uint
	ProductID             uint
	GatewaySubscriptionID string
	GatewayCustomerID     string
	ShipmentQuantity      int
	CurrentPeriodStart    *time.Time
	CurrentPeriodEnd      *time.Time
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	GatewayEventID string
	EventType      string
	PayloadJSON    string
	SignatureValid bool
}

// CheckoutItem is one cart line in a checkout request.
type CheckoutItem struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gt=0"`
}

// CheckoutInput describes a checkout session to create at the gateway.
type CheckoutInput struct {
	Items      []CheckoutItem `json:"items" validate:"required,min=1,dive"`
	AddressID  uint           `json:"address_id"`
	SuccessURL string         `json:"success_url"`
	CancelURL  string         `json:"cancel_url"`
}
