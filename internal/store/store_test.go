package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"home-services-api/internal/model"
	"home-services-api/internal/store"
)

// repositories returns every backend available in this environment. Postgres
// joins only when DATABASE_URL is set.
func repositories(t *testing.T) map[string]store.Repository {
	t.Helper()
	repos := map[string]store.Repository{"memory": store.NewMemory()}

	_ = godotenv.Load("../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return repos
	}
	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migration, err := os.ReadFile("../../db/migrations/001_init.sql")
	require.NoError(t, err)
	_, err = pool.Exec(context.Background(), string(migration))
	require.NoError(t, err)

	repos["postgres"] = store.New(pool)
	return repos
}

func each(t *testing.T, fn func(t *testing.T, repo store.Repository)) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) { fn(t, repo) })
	}
}

func newUser(role model.Role) *model.User {
	id := uuid.New().String()
	return &model.User{
		ID:           id,
		Name:         "User " + id[:8],
		Email:        fmt.Sprintf("test-%s@test.com", id[:8]),
		PasswordHash: "hash",
		Role:         role,
	}
}

func TestUsers(t *testing.T) {
	each(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		u := newUser(model.RoleHomeowner)
		require.NoError(t, repo.CreateUser(ctx, u))
		assert.False(t, u.CreatedAt.IsZero())

		dup := newUser(model.RoleTech)
		dup.Email = u.Email
		assert.ErrorIs(t, repo.CreateUser(ctx, dup), store.ErrDuplicate)

		got, err := repo.UserByEmail(ctx, u.Email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)

		got.Name = "Renamed"
		got.Phone = "555-0100"
		got.AssignedProperties = []string{"p1", "p2"}
		got.PasswordHash = ""
		require.NoError(t, repo.UpdateUser(ctx, got))

		again, err := repo.UserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", again.Name)
		assert.Equal(t, []string{"p1", "p2"}, again.AssignedProperties)
		assert.Equal(t, "hash", again.PasswordHash, "empty hash keeps the stored one")

		require.NoError(t, repo.UpdateUserRole(ctx, u.ID, model.RoleAdmin))
		again, err = repo.UserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RoleAdmin, again.Role)

		all, err := repo.ListUsers(ctx)
		require.NoError(t, err)
		found := false
		for _, x := range all {
			found = found || x.ID == u.ID
		}
		assert.True(t, found)

		require.NoError(t, repo.DeleteUser(ctx, u.ID))
		_, err = repo.UserByID(ctx, u.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteUser(ctx, u.ID), store.ErrNotFound)
		assert.ErrorIs(t, repo.UpdateUserRole(ctx, u.ID, model.RoleTech), store.ErrNotFound)
	})
}

func TestRefreshTokenRotation(t *testing.T) {
	each(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		u := newUser(model.RoleHomeowner)
		require.NoError(t, repo.CreateUser(ctx, u))

		hash := uuid.New().String()
		id, err := repo.CreateRefreshToken(ctx, u.ID, hash, time.Now().Add(time.Hour))
		require.NoError(t, err)

		rt, err := repo.GetRefreshTokenByHash(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, id, rt.ID)
		assert.False(t, rt.Revoked)
		assert.False(t, rt.Expired(time.Now()))
		assert.True(t, rt.Expired(rt.ExpiresAt))

		newID, newHash := uuid.New().String(), uuid.New().String()
		require.NoError(t, repo.RotateRefreshToken(ctx, id, newID, u.ID, newHash, time.Now().Add(time.Hour)))
		assert.ErrorIs(t, repo.RotateRefreshToken(ctx, id, uuid.New().String(), u.ID, uuid.New().String(), time.Now()),
			store.ErrNotFound, "a spent token cannot rotate twice")

		rt, err = repo.GetRefreshTokenByHash(ctx, hash)
		require.NoError(t, err)
		assert.True(t, rt.Revoked)
		assert.True(t, rt.Rotated())

		require.NoError(t, repo.RevokeAllRefreshTokens(ctx, u.ID))
		rt, err = repo.GetRefreshTokenByHash(ctx, newHash)
		require.NoError(t, err)
		assert.True(t, rt.Revoked)
		assert.False(t, rt.Rotated(), "revoked without a successor")

		_, err = repo.GetRefreshTokenByHash(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestAppointments(t *testing.T) {
	each(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		owner, tech, prop := uuid.New().String(), uuid.New().String(), uuid.New().String()
		when := time.Now().Add(48 * time.Hour).Truncate(time.Second)

		a := &model.Appointment{
			ID: uuid.New().String(), PropertyID: prop, OwnerID: owner, TechnicianID: tech,
			TechnicianName: "Sam", ScheduledDate: when, Status: model.AppointmentScheduled,
			Type: model.MonthlyMaintenance, PhotoURIs: []string{"file://1.jpg"},
			Tasks: []model.MaintenanceTask{
				{ID: uuid.New().String(), Title: "Replace HVAC filter"},
				{ID: uuid.New().String(), Title: "Test smoke detectors"},
			},
		}
		require.NoError(t, repo.CreateAppointment(ctx, a))

		got, err := repo.GetAppointment(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, tech, got.TechnicianID)
		assert.True(t, when.Equal(got.ScheduledDate))
		require.Len(t, got.Tasks, 2)
		assert.Equal(t, []string{"file://1.jpg"}, got.PhotoURIs)

		byOwner, err := repo.ListAppointments(ctx, store.AppointmentFilter{OwnerID: owner})
		require.NoError(t, err)
		require.Len(t, byOwner, 1)
		assert.Len(t, byOwner[0].Tasks, 2)

		byTech, err := repo.ListAppointments(ctx, store.AppointmentFilter{TechnicianID: tech, PropertyID: prop})
		require.NoError(t, err)
		assert.Len(t, byTech, 1)

		none, err := repo.ListAppointments(ctx, store.AppointmentFilter{OwnerID: uuid.New().String()})
		require.NoError(t, err)
		assert.Empty(t, none)

		require.NoError(t, repo.SetTaskCompleted(ctx, a.ID, a.Tasks[0].ID, true))
		assert.ErrorIs(t, repo.SetTaskCompleted(ctx, a.ID, "missing", true), store.ErrNotFound)

		done := time.Now().Truncate(time.Second)
		require.NoError(t, repo.UpdateAppointmentStatus(ctx, a.ID, model.AppointmentScheduled, model.AppointmentInProgress, nil))
		require.NoError(t, repo.UpdateAppointmentStatus(ctx, a.ID, model.AppointmentInProgress, model.AppointmentCompleted, &done))
		// a writer that read "scheduled" earlier must not overwrite completed
		assert.ErrorIs(t, repo.UpdateAppointmentStatus(ctx, a.ID, model.AppointmentScheduled, model.AppointmentCancelled, nil), store.ErrStale)
		got, err = repo.GetAppointment(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentCompleted, got.Status)
		require.NotNil(t, got.CompletedDate)
		assert.True(t, done.Equal(*got.CompletedDate))

		completed := 0
		for _, task := range got.Tasks {
			if task.Completed {
				completed++
				assert.NotNil(t, task.CompletedAt)
			}
		}
		assert.Equal(t, 1, completed)

		assert.ErrorIs(t, repo.UpdateAppointmentStatus(ctx, "missing", model.AppointmentScheduled, model.AppointmentCancelled, nil), store.ErrNotFound)
		_, err = repo.GetAppointment(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestBookingsAndRecurring(t *testing.T) {
	each(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		user := uuid.New().String()

		b := &model.Booking{
			ID: uuid.New().String(), UserID: user, ServiceID: "gutter", ServiceName: "Gutter cleaning",
			ScheduledDate: time.Now().Add(24 * time.Hour), Status: model.BookingConfirmed, Price: 149.5,
		}
		require.NoError(t, repo.CreateBooking(ctx, b))
		require.NoError(t, repo.UpdateBookingStatus(ctx, b.ID, model.BookingConfirmed, model.BookingCancelled))
		assert.ErrorIs(t, repo.UpdateBookingStatus(ctx, b.ID, model.BookingConfirmed, model.BookingCompleted), store.ErrStale)
		assert.ErrorIs(t, repo.UpdateBookingStatus(ctx, "missing", model.BookingPending, model.BookingCancelled), store.ErrNotFound)
		got, err := repo.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, model.BookingCancelled, got.Status)
		assert.InDelta(t, 149.5, got.Price, 1e-9)

		list, err := repo.ListBookings(ctx, user)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		next := time.Now().AddDate(0, 1, 0).Truncate(time.Second)
		r := &model.RecurringService{
			ID: uuid.New().String(), UserID: user, ServiceID: "pest", ServiceName: "Pest control",
			Frequency: model.Quarterly, Status: model.RecurringActive, Price: 90, AutoRenew: true,
			StartDate: time.Now().Truncate(time.Second), NextServiceDate: next,
		}
		require.NoError(t, repo.CreateRecurringService(ctx, r))
		require.NoError(t, repo.UpdateRecurringStatus(ctx, r.ID, model.RecurringActive, model.RecurringPaused))
		gotR, err := repo.GetRecurringService(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RecurringPaused, gotR.Status)
		assert.True(t, next.Equal(gotR.NextServiceDate))

		services, err := repo.ListRecurringServices(ctx, user)
		require.NoError(t, err)
		assert.Len(t, services, 1)
		assert.ErrorIs(t, repo.UpdateRecurringStatus(ctx, "missing", model.RecurringActive, model.RecurringPaused), store.ErrNotFound)

		require.NoError(t, repo.UpdateRecurringStatus(ctx, r.ID, model.RecurringPaused, model.RecurringCancelled))
		assert.ErrorIs(t, repo.UpdateRecurringStatus(ctx, r.ID, model.RecurringActive, model.RecurringPaused), store.ErrStale)
		gotR, err = repo.GetRecurringService(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RecurringCancelled, gotR.Status)
	})
}

func TestDocuments(t *testing.T) {
	each(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		user := uuid.New().String()
		exp := time.Now().Add(10 * 24 * time.Hour).Truncate(time.Second)

		d := &model.Document{
			ID: uuid.New().String(), UserID: user, Title: "Water heater warranty",
			Category: model.CategoryWarranty, Tags: []string{"plumbing"}, ExpirationDate: &exp,
		}
		require.NoError(t, repo.SaveDocument(ctx, d))
		created := d.CreatedAt

		d.Title = "Water heater warranty (extended)"
		d.Tags = nil
		d.ExpirationDate = nil
		d.Important = true
		require.NoError(t, repo.SaveDocument(ctx, d))

		got, err := repo.GetDocument(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, "Water heater warranty (extended)", got.Title)
		assert.Empty(t, got.Tags)
		assert.Nil(t, got.ExpirationDate, "save overwrites every field")
		assert.True(t, got.Important)
		assert.True(t, created.Equal(got.CreatedAt))

		list, err := repo.ListDocuments(ctx, user)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, repo.DeleteDocument(ctx, d.ID))
		assert.ErrorIs(t, repo.DeleteDocument(ctx, d.ID), store.ErrNotFound)
	})
}

func TestPropertiesAndReferrals(t *testing.T) {
	each(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		owner := uuid.New().String()

		p := &model.Property{ID: uuid.New().String(), OwnerID: owner, Name: "Lake house", Address: "1 Shore Rd"}
		require.NoError(t, repo.CreateProperty(ctx, p))
		props, err := repo.ListProperties(ctx, owner)
		require.NoError(t, err)
		require.Len(t, props, 1)
		assert.Equal(t, "Lake house", props[0].Name)

		c := &model.ReferralCard{ID: uuid.New().String(), UserID: owner, Code: "REF-" + owner[:8], SharesRemaining: 1}
		require.NoError(t, repo.CreateReferralCard(ctx, c))
		require.NoError(t, repo.RecordShare(ctx, c.ID, time.Now()))
		assert.ErrorIs(t, repo.RecordShare(ctx, c.ID, time.Now()), store.ErrNoShares)

		got, err := repo.ReferralCardByUser(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 0, got.SharesRemaining)
		assert.Equal(t, 1, got.TimesShared)
		assert.NotNil(t, got.LastSharedAt)
	})
}

func TestConcurrentShares(t *testing.T) {
	each(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		owner := uuid.New().String()
		c := &model.ReferralCard{ID: uuid.New().String(), UserID: owner, Code: "REF-" + owner[:8], SharesRemaining: 3}
		require.NoError(t, repo.CreateReferralCard(ctx, c))

		const n = 10
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- repo.RecordShare(ctx, c.ID, time.Now())
			}()
		}
		wg.Wait()
		close(errs)

		ok, spent := 0, 0
		for err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, store.ErrNoShares):
				spent++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 3, ok)
		assert.Equal(t, n-3, spent)
	})
}
