package store

import (
	"context"

	"home-services-api/internal/model"
)

func (s *Store) CreateProperty(ctx context.Context, p *model.Property) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO properties (id, owner_id, name, address) VALUES ($1,$2,$3,$4) RETURNING created_at`,
		p.ID, p.OwnerID, p.Name, p.Address,
	).Scan(&p.CreatedAt)
	return translate(err)
}

func (s *Store) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	p := &model.Property{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, name, address, created_at FROM properties WHERE id = $1`, id,
	).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Address, &p.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// ListProperties returns every property when ownerID is empty.
func (s *Store) ListProperties(ctx context.Context, ownerID string) ([]model.Property, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, name, address, created_at FROM properties
		 WHERE $1 = '' OR owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Property
	for rows.Next() {
		var p model.Property
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Address, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
