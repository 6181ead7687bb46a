package domain

import "time"

// Favorite is a business a user saved for later.
type Favorite struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	UserID     int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_favorites_user_business"`
	BusinessID int64     `json:"business_id" gorm:"not null;uniqueIndex:idx_favorites_user_business;index"`
	CreatedAt  time.Time `json:"created_at"`

	Business *Business `json:"business,omitempty" gorm:"foreignKey:BusinessID"`
}
