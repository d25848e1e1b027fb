package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"home-services-api/internal/model"
)

const appointmentColumns = `id, property_id, owner_id, COALESCE(technician_id, ''), technician_name,
	scheduled_date, completed_date, status, type, notes, photo_uris, created_at, updated_at`

func scanAppointment(row interface{ Scan(...any) error }, a *model.Appointment) error {
	return row.Scan(&a.ID, &a.PropertyID, &a.OwnerID, &a.TechnicianID, &a.TechnicianName,
		&a.ScheduledDate, &a.CompletedDate, &a.Status, &a.Type, &a.Notes, &a.PhotoURIs,
		&a.CreatedAt, &a.UpdatedAt)
}

// CreateAppointment inserts the visit and its tasks in one transaction.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if a.PhotoURIs == nil {
		a.PhotoURIs = []string{}
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO hudson_visits (id, property_id, owner_id, technician_id, technician_name,
		                            scheduled_date, status, type, notes, photo_uris)
		 VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8,$9,$10)
		 RETURNING created_at, updated_at`,
		a.ID, a.PropertyID, a.OwnerID, a.TechnicianID, a.TechnicianName,
		a.ScheduledDate, a.Status, a.Type, a.Notes, a.PhotoURIs,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return translate(err)
	}

	for _, t := range a.Tasks {
		_, err = tx.Exec(ctx,
			`INSERT INTO maintenance_tasks (id, appointment_id, title, description, completed)
			 VALUES ($1,$2,$3,$4,$5)`,
			t.ID, a.ID, t.Title, t.Description, t.Completed,
		)
		if err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, translate(err))
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM hudson_visits WHERE id = $1`, id), a)
	if err != nil {
		return nil, translate(err)
	}

	tasks, err := s.tasksFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	a.Tasks = tasks[id]
	return a, nil
}

func (s *Store) ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error) {
	var (
		where []string
		args  []any
	)
	add := func(col, v string) {
		if v == "" {
			return
		}
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("owner_id", f.OwnerID)
	add("technician_id", f.TechnicianID)
	add("property_id", f.PropertyID)

	q := `SELECT ` + appointmentColumns + ` FROM hudson_visits`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY scheduled_date`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	var idList []string
	for rows.Next() {
		var a model.Appointment
		if err := scanAppointment(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
		idList = append(idList, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	tasks, err := s.tasksFor(ctx, idList)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Tasks = tasks[out[i].ID]
	}
	return out, nil
}

// tasksFor loads the tasks of several visits with one query, keyed by visit.
func (s *Store) tasksFor(ctx context.Context, appointmentIDs []string) (map[string][]model.MaintenanceTask, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, appointment_id, title, description, completed, completed_at
		 FROM maintenance_tasks WHERE appointment_id = ANY($1)
		 ORDER BY created_at, id`, appointmentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]model.MaintenanceTask)
	for rows.Next() {
		var t model.MaintenanceTask
		if err := rows.Scan(&t.ID, &t.AppointmentID, &t.Title, &t.Description, &t.Completed, &t.CompletedAt); err != nil {
			return nil, err
		}
		out[t.AppointmentID] = append(out[t.AppointmentID], t)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAppointmentStatus(ctx context.Context, id string, from, to model.AppointmentStatus, completedAt *time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE hudson_visits
		 SET status=$1, completed_date=COALESCE($2, completed_date), updated_at=NOW()
		 WHERE id=$3 AND status=$4`, to, completedAt, id, from,
	)
	return s.transitioned(ctx, "hudson_visits", id, tag, err)
}

func (s *Store) SetTaskCompleted(ctx context.Context, appointmentID, taskID string, completed bool) error {
	return affected(s.pool.Exec(ctx,
		`UPDATE maintenance_tasks
		 SET completed=$1, completed_at=CASE WHEN $1 THEN NOW() ELSE NULL END
		 WHERE id=$2 AND appointment_id=$3`, completed, taskID, appointmentID,
	))
}
