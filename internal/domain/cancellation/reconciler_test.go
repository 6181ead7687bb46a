package cancellation

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/events"
	"taskhub/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReconciler_SettlesIssuedRefunds(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, "2025-03-10", "10:00 AM")
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	broken := brokenCancel{Repository: f.bookings, err: errors.New("connection reset")}
	_, err := f.engine(broken).Cancel(context.Background(), f.request(b))
	require.Error(t, err)

	rec := NewReconciler(f.bookings, f.refunds, f.gw, f.pub, f.log)
	rep, err := rec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Checked: 1, Settled: 1}, rep)

	assert.Equal(t, domain.BookingCancelled, f.status(t, b.ID))
	stored, err := f.refunds.GetByBookingID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundSettled, stored.Status)
	f.pub.AssertCalled(t, "Publish", mock.Anything, ofType(events.BookingCancelled))
	assert.Equal(t, 1, f.gw.Calls("refund"))

	rep, err = rec.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.Checked)
}

func TestReconciler_KeepsIssuedWhenStoreStillFails(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, "2025-03-10", "10:00 AM")
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	broken := brokenCancel{Repository: f.bookings, err: errors.New("connection reset")}
	_, err := f.engine(broken).Cancel(context.Background(), f.request(b))
	require.Error(t, err)

	rep, err := NewReconciler(broken, f.refunds, f.gw, f.pub, f.log).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Checked: 1, Failed: 1}, rep)

	stored, err := f.refunds.GetByBookingID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundIssued, stored.Status)
}

func TestReconciler_ReleasesStaleClaims(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, "2025-03-10", "10:00 AM")
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	rec, err := f.refunds.GetOrCreate(context.Background(), b.ID, b.CaptureID)
	require.NoError(t, err)
	won, err := f.refunds.Claim(context.Background(), rec.ID)
	require.NoError(t, err)
	require.True(t, won)

	// The claim holder died; whether it reached the provider is unknown.
	released, err := f.refunds.ReleaseStale(context.Background(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, released)
	stored, err := f.refunds.GetByBookingID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundUnknown, stored.Status)

	rep, err := NewReconciler(f.bookings, f.refunds, f.gw, f.pub, f.log).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Resolved: 1, Checked: 1, Settled: 1}, rep)
	assert.Equal(t, domain.BookingCancelled, f.status(t, b.ID))
}

func TestReconciler_ResolvesLostRefundResponse(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, "2025-03-10", "10:00 AM")
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	lossy := &lostResponse{MemoryGateway: f.gw, n: 1}
	_, err := NewEngine(f.bookings, f.refunds, lossy, f.pub, f.policy(), f.log).Cancel(context.Background(), f.request(b))
	require.Error(t, err)
	assert.Equal(t, domain.BookingIncompleted, f.status(t, b.ID))

	rep, err := NewReconciler(f.bookings, f.refunds, f.gw, f.pub, f.log).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Resolved: 1, Checked: 1, Settled: 1}, rep)

	assert.Equal(t, domain.BookingCancelled, f.status(t, b.ID))
	stored, err := f.refunds.GetByBookingID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundSettled, stored.Status)
	assert.NotEmpty(t, stored.ProviderRefundID)
	// One payout: the second call found the first refund by key.
	assert.Equal(t, 2, f.gw.Calls("refund"))
	f.pub.AssertCalled(t, "Publish", mock.Anything, ofType(events.BookingCancelled))
}

func TestReconciler_KeepsUnknownWhileProviderDown(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, "2025-03-10", "10:00 AM")
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	down := &payment.ProviderError{Op: "refund", Message: "timeout", Kind: payment.ErrUnavailable}
	f.gw.FailRefunds(down)
	_, err := f.engine(nil).Cancel(context.Background(), f.request(b))
	require.Error(t, err)

	r := NewReconciler(f.bookings, f.refunds, f.gw, f.pub, f.log)
	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Failed: 1}, rep)
	stored, err := f.refunds.GetByBookingID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundUnknown, stored.Status)

	// A definite rejection ends the wait; the customer may retry the cancel.
	f.gw.FailRefunds(&payment.ProviderError{Op: "refund", Message: "charge is disputed", Kind: payment.ErrDeclined})
	rep, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Failed: 1}, rep)
	stored, err = f.refunds.GetByBookingID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundFailed, stored.Status)
	assert.Equal(t, domain.BookingIncompleted, f.status(t, b.ID))
}

func TestReconciler_LoopSettlesInBackground(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, "2025-03-10", "10:00 AM")
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	broken := brokenCancel{Repository: f.bookings, err: errors.New("connection reset")}
	_, err := f.engine(broken).Cancel(context.Background(), f.request(b))
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewReconciler(f.bookings, f.refunds, f.gw, f.pub, f.log).Loop(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return f.status(t, b.ID) == domain.BookingCancelled }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
