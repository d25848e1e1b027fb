package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"home-services-api/internal/model"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	// ErrNoShares is returned when a referral card has nothing left to share.
	ErrNoShares = errors.New("no shares remaining")
	// ErrStale is returned by conditional status writes when the record no
	// longer has the status the caller read.
	ErrStale = errors.New("status changed concurrently")
)

// AppointmentFilter narrows ListAppointments. Empty fields match anything.
type AppointmentFilter struct {
	OwnerID      string
	TechnicianID string
	PropertyID   string
}

type Users interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	UpdateUserRole(ctx context.Context, id string, role model.Role) error
	DeleteUser(ctx context.Context, id string) error
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

type Properties interface {
	CreateProperty(ctx context.Context, p *model.Property) error
	GetProperty(ctx context.Context, id string) (*model.Property, error)
	ListProperties(ctx context.Context, ownerID string) ([]model.Property, error)
}

// Status updates are compare-and-set: they apply only while the record still
// has status from, and fail with ErrStale otherwise.

type Appointments interface {
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, from, to model.AppointmentStatus, completedAt *time.Time) error
	SetTaskCompleted(ctx context.Context, appointmentID, taskID string, completed bool) error
}

type Bookings interface {
	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	ListBookings(ctx context.Context, userID string) ([]model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, from, to model.BookingStatus) error
}

type RecurringServices interface {
	CreateRecurringService(ctx context.Context, s *model.RecurringService) error
	GetRecurringService(ctx context.Context, id string) (*model.RecurringService, error)
	ListRecurringServices(ctx context.Context, userID string) ([]model.RecurringService, error)
	UpdateRecurringStatus(ctx context.Context, id string, from, to model.RecurringStatus) error
}

type Documents interface {
	SaveDocument(ctx context.Context, d *model.Document) error
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	ListDocuments(ctx context.Context, userID string) ([]model.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

type Referrals interface {
	CreateReferralCard(ctx context.Context, c *model.ReferralCard) error
	ReferralCardByUser(ctx context.Context, userID string) (*model.ReferralCard, error)
	// RecordShare persists one share. It fails with ErrNoShares if another
	// writer spent the last share first.
	RecordShare(ctx context.Context, id string, at time.Time) error
}

// Repository is everything the handlers read and write.
type Repository interface {
	Users
	RefreshTokens
	Properties
	Appointments
	Bookings
	RecurringServices
	Documents
	Referrals
}

// Store is the Postgres-backed Repository.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var (
	_ Repository = (*Store)(nil)
	_ Repository = (*Memory)(nil)
)

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// affected turns a zero-row update into ErrNotFound.
func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// transitioned resolves a conditional status update. Zero rows means either
// the record is gone or its status moved on.
func (s *Store) transitioned(ctx context.Context, table, id string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return translate(err)
	}
	if exists {
		return ErrStale
	}
	return ErrNotFound
}
