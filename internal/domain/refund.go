package domain

import "time"

type RefundStatus string

const (
	RefundPending    RefundStatus = "pending"
	RefundProcessing RefundStatus = "processing"
	RefundFailed     RefundStatus = "failed"
	// RefundUnknown: the provider never answered, so the refund may exist.
	RefundUnknown RefundStatus = "unknown"
	// RefundIssued: the provider refunded, the booking is not cancelled yet.
	RefundIssued  RefundStatus = "issued"
	RefundSettled RefundStatus = "settled"
)

type Refund struct {
	ID               int64        `json:"id" gorm:"primaryKey"`
	BookingID        int64        `json:"booking_id" gorm:"not null;uniqueIndex"`
	CaptureID        string       `json:"capture_id" gorm:"type:varchar(128);not null"`
	IdempotencyKey   string       `json:"idempotency_key" gorm:"type:varchar(64);not null;uniqueIndex"`
	ProviderRefundID string       `json:"provider_refund_id,omitempty" gorm:"type:varchar(128)"`
	Amount           int64        `json:"amount"`
	Status           RefundStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	LastError        string       `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}
