package booking

import (
	"strconv"
	"strings"

	"taskhub/internal/domain"
)

// IDValue accepts an id sent either as a JSON number or as a numeric
// string. Anything else is kept verbatim and fails Int64.
type IDValue string

func (v *IDValue) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	*v = IDValue(strings.TrimSpace(raw))
	return nil
}

func (v IDValue) Int64() (int64, error) {
	return strconv.ParseInt(string(v), 10, 64)
}

// CreateRequest is the body of POST /bookings. Every field is a pointer so
// that absent and null fields can be told apart from zero values.
type CreateRequest struct {
	BusinessID *IDValue        `json:"business_id"`
	UserEmail  *string         `json:"user_email"`
	CategoryID *IDValue        `json:"category_id"`
	Date       *string         `json:"date"`
	Time       *string         `json:"time"`
	Location   *domain.Address `json:"location"`
	Status     *string         `json:"status"`
	CaptureID  *string         `json:"capture_id"`
}

type RateRequest struct {
	Rating *int   `json:"rating"`
	Review string `json:"review"`
}

// Draft is a validated booking ready to be stored.
type Draft struct {
	BusinessID int64
	CategoryID int64
	UserEmail  string
	Date       string
	Time       string
	Location   domain.Address
	CaptureID  string
}

type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type Occupancy struct {
	BusinessID int64    `json:"business_id"`
	Date       string   `json:"date"`
	Times      []string `json:"times"`
}

type Availability struct {
	BusinessID int64  `json:"business_id"`
	Date       string `json:"date"`
	Slots      []Slot `json:"slots"`
}

// Tab selects the dashboard split of a booking list.
type Tab string

const (
	TabAll       Tab = ""
	TabHistory   Tab = "history"
	TabCompleted Tab = "completed"
	TabCancelled Tab = "cancelled"
)

func ParseTab(s string) (Tab, bool) {
	switch t := Tab(strings.ToLower(strings.TrimSpace(s))); t {
	case TabAll, TabHistory, TabCompleted, TabCancelled:
		return t, true
	case "all":
		return TabAll, true
	}
	return "", false
}

// Status is the booking status the tab filters on; empty means no filter.
func (t Tab) Status() domain.BookingStatus {
	switch t {
	case TabHistory:
		return domain.BookingIncompleted
	case TabCompleted:
		return domain.BookingCompleted
	case TabCancelled:
		return domain.BookingCancelled
	}
	return ""
}
