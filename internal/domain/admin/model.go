package admin

type Counts struct {
	Customers           int64 `json:"customers"`
	Taskers             int64 `json:"taskers"`
	Businesses          int64 `json:"businesses"`
	PendingBusinesses   int64 `json:"pending_businesses"`
	Bookings            int64 `json:"bookings"`
	CompletedBookings   int64 `json:"completed_bookings"`
	CancelledBookings   int64 `json:"cancelled_bookings"`
	IncompletedBookings int64 `json:"incompleted_bookings"`
}

type MonthStat struct {
	Month    string  `json:"month"`
	Bookings int64   `json:"bookings"`
	Revenue  float64 `json:"revenue"`
}

type Stats struct {
	Counts
	Revenue float64     `json:"revenue"`
	Monthly []MonthStat `json:"monthly"`
}
