package models

import "time"

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPastDue   = "past_due"
	SubscriptionStatusPaused    = "paused"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription mirrors a gateway subscription for a user/product pair. A row
// only exists once the gateway has confirmed creation; there is no local
// pending state. Rows are never hard-deleted, cancellation is a status write.
type Subscription struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	UserID                uint       `gorm:"not null;index" json:"user_id"`
	ProductID             uint       `gorm:"not null;index" json:"product_id"`
	GatewaySubscriptionID string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"gateway_subscription_id"`
	GatewayCustomerID     string     `gorm:"type:varchar(191);index" json:"gateway_customer_id"`
	Status                string     `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	ShipmentQuantity      int        `gorm:"not null;default:1" json:"shipment_quantity"`
	CurrentPeriodStart    *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd      *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	NextBillingDate       *time.Time `gorm:"type:timestamp;default:null" json:"next_billing_date,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
