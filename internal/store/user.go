package store

import (
	"context"

	"home-services-api/internal/model"
)

const userColumns = `id, email, password_hash, name, phone, role, assigned_properties, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	return row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role,
		&u.AssignedProperties, &u.CreatedAt, &u.UpdatedAt)
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.AssignedProperties == nil {
		u.AssignedProperties = []string{}
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO profiles (id, email, password_hash, name, phone, role, assigned_properties)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING created_at, updated_at`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Phone, u.Role, u.AssignedProperties,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return translate(err)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM profiles WHERE lower(email) = lower($1)`, email), u)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	u := &model.User{}
	err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM profiles WHERE id = $1`, id), u)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM profiles ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUser overwrites the mutable profile fields. An empty PasswordHash
// keeps the stored one.
func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	if u.AssignedProperties == nil {
		u.AssignedProperties = []string{}
	}
	return affected(s.pool.Exec(ctx,
		`UPDATE profiles
		 SET name=$1, phone=$2, role=$3, assigned_properties=$4,
		     password_hash=COALESCE(NULLIF($5, ''), password_hash), updated_at=NOW()
		 WHERE id=$6`,
		u.Name, u.Phone, u.Role, u.AssignedProperties, u.PasswordHash, u.ID,
	))
}

func (s *Store) UpdateUserRole(ctx context.Context, id string, role model.Role) error {
	return affected(s.pool.Exec(ctx,
		`UPDATE profiles SET role=$1, updated_at=NOW() WHERE id=$2`, role, id))
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return affected(s.pool.Exec(ctx, `DELETE FROM profiles WHERE id=$1`, id))
}
