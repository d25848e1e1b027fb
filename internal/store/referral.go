package store

import (
	"context"
	"time"

	"home-services-api/internal/model"
)

func (s *Store) CreateReferralCard(ctx context.Context, c *model.ReferralCard) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO referral_cards (id, user_id, code, shares_remaining) VALUES ($1,$2,$3,$4)
		 RETURNING created_at`,
		c.ID, c.UserID, c.Code, c.SharesRemaining,
	).Scan(&c.CreatedAt)
	return translate(err)
}

func (s *Store) ReferralCardByUser(ctx context.Context, userID string) (*model.ReferralCard, error) {
	c := &model.ReferralCard{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, code, shares_remaining, times_shared, last_shared_at, created_at
		 FROM referral_cards WHERE user_id = $1`, userID,
	).Scan(&c.ID, &c.UserID, &c.Code, &c.SharesRemaining, &c.TimesShared, &c.LastSharedAt, &c.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (s *Store) RecordShare(ctx context.Context, id string, at time.Time) error {
	err := affected(s.pool.Exec(ctx,
		`UPDATE referral_cards
		 SET shares_remaining = shares_remaining - 1, times_shared = times_shared + 1, last_shared_at = $1
		 WHERE id = $2 AND shares_remaining > 0`, at, id,
	))
	if err == ErrNotFound {
		return ErrNoShares
	}
	return err
}
