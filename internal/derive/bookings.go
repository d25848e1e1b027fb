package derive

import (
	"slices"
	"time"

	"home-services-api/internal/model"
)

func isUpcomingBooking(b model.Booking, now time.Time) bool {
	open := b.Status == model.BookingPending || b.Status == model.BookingConfirmed
	return open && !b.ScheduledDate.Before(now)
}

// UpcomingBookings returns pending or confirmed bookings at or after now,
// soonest first.
func UpcomingBookings(list []model.Booking, now time.Time) []model.Booking {
	out := make([]model.Booking, 0, len(list))
	for _, b := range list {
		if isUpcomingBooking(b, now) {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(x, y model.Booking) int {
		return x.ScheduledDate.Compare(y.ScheduledDate)
	})
	return out
}

// PastBookings is the complement of UpcomingBookings, most recent first.
func PastBookings(list []model.Booking, now time.Time) []model.Booking {
	out := make([]model.Booking, 0, len(list))
	for _, b := range list {
		if !isUpcomingBooking(b, now) {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(x, y model.Booking) int {
		return y.ScheduledDate.Compare(x.ScheduledDate)
	})
	return out
}

func BookingsByStatus(list []model.Booking, status model.BookingStatus) []model.Booking {
	out := make([]model.Booking, 0, len(list))
	for _, b := range list {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out
}

// CancelBooking marks b cancelled. Completed and already cancelled bookings
// cannot be cancelled.
func CancelBooking(b *model.Booking) error {
	if b.Status == model.BookingCompleted || b.Status == model.BookingCancelled {
		return ErrInvalidTransition
	}
	b.Status = model.BookingCancelled
	return nil
}
