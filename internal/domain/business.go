package domain

import "time"

type AdminStatus string

const (
	AdminApproved    AdminStatus = "approved"
	AdminNotApproved AdminStatus = "not approved"
)

type BusinessStatus string

const (
	BusinessActive   BusinessStatus = "active"
	BusinessInactive BusinessStatus = "inactive"
)

type Business struct {
	ID             int64          `json:"id" gorm:"primaryKey"`
	Name           string         `json:"name" gorm:"type:varchar(255);not null"`
	About          string         `json:"about" gorm:"type:text"`
	Address        string         `json:"address" gorm:"type:text"`
	ContactPerson  string         `json:"contact_person" gorm:"type:varchar(255)"`
	Email          string         `json:"email" gorm:"type:varchar(255);not null;index"`
	Phone          string         `json:"phone,omitempty" gorm:"type:varchar(20)"`
	CategoryID     int64          `json:"category_id" gorm:"not null;index"`
	Price          float64        `json:"price" gorm:"not null"`
	Images         []string       `json:"images" gorm:"serializer:json;type:text"`
	BookingsCount  int64          `json:"bookings_count" gorm:"column:bookings_count;not null;default:0"`
	AdminStatus    AdminStatus    `json:"admin_status" gorm:"type:varchar(20);not null"`
	BusinessStatus BusinessStatus `json:"business_status" gorm:"type:varchar(20);not null"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// Listed reports whether customers can discover the business.
func (b *Business) Listed() bool {
	return b.AdminStatus == AdminApproved && b.BusinessStatus == BusinessActive
}

// RatingSummary is derived from bookings with a non-zero rating.
type RatingSummary struct {
	BusinessID    int64   `json:"business_id"`
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int64   `json:"total_ratings"`
}

type BusinessWithRating struct {
	Business
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int64   `json:"total_ratings"`
}
