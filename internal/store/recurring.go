package store

import (
	"context"

	"home-services-api/internal/model"
)

const recurringColumns = `id, user_id, COALESCE(property_id, ''), service_id, service_name,
	frequency, status, price, auto_renew, start_date, next_service_date, created_at`

func scanRecurring(row interface{ Scan(...any) error }, r *model.RecurringService) error {
	return row.Scan(&r.ID, &r.UserID, &r.PropertyID, &r.ServiceID, &r.ServiceName,
		&r.Frequency, &r.Status, &r.Price, &r.AutoRenew, &r.StartDate, &r.NextServiceDate, &r.CreatedAt)
}

func (s *Store) CreateRecurringService(ctx context.Context, r *model.RecurringService) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO recurring_services (id, user_id, property_id, service_id, service_name,
		                                 frequency, status, price, auto_renew, start_date, next_service_date)
		 VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9,$10,$11)
		 RETURNING created_at`,
		r.ID, r.UserID, r.PropertyID, r.ServiceID, r.ServiceName,
		r.Frequency, r.Status, r.Price, r.AutoRenew, r.StartDate, r.NextServiceDate,
	).Scan(&r.CreatedAt)
	return translate(err)
}

func (s *Store) GetRecurringService(ctx context.Context, id string) (*model.RecurringService, error) {
	r := &model.RecurringService{}
	if err := scanRecurring(s.pool.QueryRow(ctx,
		`SELECT `+recurringColumns+` FROM recurring_services WHERE id = $1`, id), r); err != nil {
		return nil, translate(err)
	}
	return r, nil
}

func (s *Store) ListRecurringServices(ctx context.Context, userID string) ([]model.RecurringService, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recurringColumns+` FROM recurring_services
		 WHERE user_id = $1 ORDER BY next_service_date`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RecurringService
	for rows.Next() {
		var r model.RecurringService
		if err := scanRecurring(rows, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateRecurringStatus only touches status; next_service_date is left alone.
func (s *Store) UpdateRecurringStatus(ctx context.Context, id string, from, to model.RecurringStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE recurring_services SET status=$1 WHERE id=$2 AND status=$3`, to, id, from)
	return s.transitioned(ctx, "recurring_services", id, tag, err)
}
