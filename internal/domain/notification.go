package domain

import "time"

type NotificationType string

const (
	NotifBookingCreated   NotificationType = "booking_created"
	NotifBookingCompleted NotificationType = "booking_completed"
	NotifBookingCancelled NotificationType = "booking_cancelled"
	NotifNewRating        NotificationType = "new_rating"
	NotifBusinessApproved NotificationType = "business_approved"
)

// Notification is an inbox entry. Recipients are addressed by email since
// guest customers have no password yet but still receive updates.
type Notification struct {
	ID             int64            `json:"id" gorm:"primaryKey"`
	RecipientEmail string           `json:"-" gorm:"type:varchar(255);not null;index:idx_notifications_recipient"`
	Type           NotificationType `json:"type" gorm:"type:varchar(40);not null"`
	Title          string           `json:"title" gorm:"type:varchar(255);not null"`
	Message        string           `json:"message,omitempty" gorm:"type:text"`
	Data           map[string]any   `json:"data,omitempty" gorm:"serializer:json;type:text"`
	IsRead         bool             `json:"is_read" gorm:"not null;default:false"`
	ReadAt         *time.Time       `json:"read_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}
