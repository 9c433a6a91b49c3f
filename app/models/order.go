package models

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusFailed    = "failed"
	OrderStatusCancelled = "cancelled"
)

// Order represents a single charge, either from a one-time checkout or from
// one billing cycle of a subscription. Gateway ids are pointers so that the
// unique indexes tolerate rows created by the other path (MySQL allows any
// number of NULLs in a unique index).
type Order struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	TotalAmount      float64    `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status           string     `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	ShippingAddress  string     `gorm:"type:text" json:"shipping_address"`
	GatewaySessionID *string    `gorm:"type:varchar(191);default:null;uniqueIndex" json:"gateway_session_id,omitempty"`
	GatewayInvoiceID *string    `gorm:"type:varchar(191);default:null;uniqueIndex" json:"gateway_invoice_id,omitempty"`
	SubscriptionID   *uint      `gorm:"default:null;index" json:"subscription_id,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	ShippedAt        *time.Time `gorm:"type:timestamp;default:null" json:"shipped_at,omitempty"`
}
