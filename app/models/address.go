package models

import "time"

// Address belongs to a user and is resolved by the fallback reconciler when
// a checkout session carries an address_id in its metadata.
type Address struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Line1      string    `gorm:"type:varchar(255);not null" json:"line1"`
	Line2      string    `gorm:"type:varchar(255)" json:"line2"`
	City       string    `gorm:"type:varchar(100);not null" json:"city"`
	PostalCode string    `gorm:"type:varchar(20);not null" json:"postal_code"`
	Country    string    `gorm:"type:varchar(2);not null" json:"country"`
	IsDefault  bool      `gorm:"default:false" json:"is_default"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
