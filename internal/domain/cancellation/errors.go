package cancellation

import "errors"

var (
	ErrLateCancellation = errors.New("late cancellation not allowed")
	ErrRefundNotFound   = errors.New("refund not found")
	ErrRefundBusy       = errors.New("cancellation already in progress")
)
