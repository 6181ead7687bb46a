package domain

import "time"

type BookingStatus string

const (
	BookingIncompleted BookingStatus = "incompleted"
	BookingCompleted   BookingStatus = "completed"
	BookingCancelled   BookingStatus = "cancelled"
)

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

type Booking struct {
	ID         int64         `json:"id" gorm:"primaryKey"`
	BusinessID int64         `json:"business_id" gorm:"not null;index"`
	UserID     int64         `json:"user_id" gorm:"not null;index"`
	UserEmail  string        `json:"user_email" gorm:"type:varchar(255);not null;index"`
	CategoryID int64         `json:"category_id" gorm:"not null"`
	Date       string        `json:"date" gorm:"type:varchar(10);not null"`
	Time       string        `json:"time" gorm:"type:varchar(8);not null"`
	Location   string        `json:"location" gorm:"type:text;not null"`
	Status     BookingStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	Rating     int           `json:"rating" gorm:"not null"`
	Review     string        `json:"review" gorm:"type:text;not null"`
	CaptureID  string        `json:"capture_id" gorm:"type:varchar(128);not null;uniqueIndex:idx_bookings_capture_id"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	Business *Business `json:"business,omitempty" gorm:"foreignKey:BusinessID"`
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}
