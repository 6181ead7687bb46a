package booking

import "errors"

var (
	ErrNotFound          = errors.New("booking not found")
	ErrBusinessNotFound  = errors.New("business not found")
	ErrSlotTaken         = errors.New("slot already booked")
	ErrCaptureInUse      = errors.New("payment has already been used for a booking")
	ErrChargeMismatch    = errors.New("payment does not match this booking")
	ErrInvalidTransition = errors.New("booking is already completed or cancelled")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrNotRateable       = errors.New("only completed bookings can be rated")
	ErrAlreadyRated      = errors.New("booking has already been rated")

	errDuplicate = errors.New("duplicate booking")
)
