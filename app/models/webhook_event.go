package models

import "time"

// WebhookEvent stores gateway webhook payloads with deduplication metadata
// for idempotent processing under at-least-once delivery.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	GatewayEventID  string     `gorm:"type:varchar(191);not null;default:'';uniqueIndex" json:"gateway_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	SignatureValid  bool       `gorm:"default:false;index" json:"signature_valid"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
