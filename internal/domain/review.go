package domain

// Review is a read model over rated bookings that carry review text.
type Review struct {
	BookingID    int64  `json:"booking_id"`
	BusinessID   int64  `json:"business_id"`
	BusinessName string `json:"business_name"`
	CustomerName string `json:"customer_name"`
	Rating       int    `json:"rating"`
	Review       string `json:"review"`
	Date         string `json:"date"`
}
