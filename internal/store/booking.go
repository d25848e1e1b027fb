package store

import (
	"context"

	"home-services-api/internal/model"
)

const bookingColumns = `id, user_id, COALESCE(property_id, ''), service_id, service_name,
	scheduled_date, time_slot, status, price, notes, created_at`

func scanBooking(row interface{ Scan(...any) error }, b *model.Booking) error {
	return row.Scan(&b.ID, &b.UserID, &b.PropertyID, &b.ServiceID, &b.ServiceName,
		&b.ScheduledDate, &b.TimeSlot, &b.Status, &b.Price, &b.Notes, &b.CreatedAt)
}

func (s *Store) CreateBooking(ctx context.Context, b *model.Booking) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO bookings (id, user_id, property_id, service_id, service_name,
		                       scheduled_date, time_slot, status, price, notes)
		 VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9,$10)
		 RETURNING created_at`,
		b.ID, b.UserID, b.PropertyID, b.ServiceID, b.ServiceName,
		b.ScheduledDate, b.TimeSlot, b.Status, b.Price, b.Notes,
	).Scan(&b.CreatedAt)
	return translate(err)
}

func (s *Store) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	b := &model.Booking{}
	if err := scanBooking(s.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id), b); err != nil {
		return nil, translate(err)
	}
	return b, nil
}

func (s *Store) ListBookings(ctx context.Context, userID string) ([]model.Booking, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY scheduled_date`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) UpdateBookingStatus(ctx context.Context, id string, from, to model.BookingStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE bookings SET status=$1 WHERE id=$2 AND status=$3`, to, id, from)
	return s.transitioned(ctx, "bookings", id, tag, err)
}
