package store

import (
	"context"

	"home-services-api/internal/model"
)

const documentColumns = `id, user_id, COALESCE(property_id, ''), title, category, file_uri, image_uri,
	tags, important, notes, expiration_date, reminder_date, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }, d *model.Document) error {
	return row.Scan(&d.ID, &d.UserID, &d.PropertyID, &d.Title, &d.Category, &d.FileURI, &d.ImageURI,
		&d.Tags, &d.Important, &d.Notes, &d.ExpirationDate, &d.ReminderDate, &d.CreatedAt, &d.UpdatedAt)
}

// SaveDocument inserts d or overwrites every field of the existing row.
func (s *Store) SaveDocument(ctx context.Context, d *model.Document) error {
	if d.Tags == nil {
		d.Tags = []string{}
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO documents (id, user_id, property_id, title, category, file_uri, image_uri,
		                        tags, important, notes, expiration_date, reminder_date)
		 VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 ON CONFLICT (id) DO UPDATE SET
		   property_id=EXCLUDED.property_id, title=EXCLUDED.title, category=EXCLUDED.category,
		   file_uri=EXCLUDED.file_uri, image_uri=EXCLUDED.image_uri, tags=EXCLUDED.tags,
		   important=EXCLUDED.important, notes=EXCLUDED.notes,
		   expiration_date=EXCLUDED.expiration_date, reminder_date=EXCLUDED.reminder_date,
		   updated_at=NOW()
		 RETURNING created_at, updated_at`,
		d.ID, d.UserID, d.PropertyID, d.Title, d.Category, d.FileURI, d.ImageURI,
		d.Tags, d.Important, d.Notes, d.ExpirationDate, d.ReminderDate,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return translate(err)
}

func (s *Store) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	d := &model.Document{}
	if err := scanDocument(s.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id), d); err != nil {
		return nil, translate(err)
	}
	return d, nil
}

func (s *Store) ListDocuments(ctx context.Context, userID string) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Document
	for rows.Next() {
		var d model.Document
		if err := scanDocument(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	return affected(s.pool.Exec(ctx, `DELETE FROM documents WHERE id=$1`, id))
}
