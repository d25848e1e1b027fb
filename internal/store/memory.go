package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"home-services-api/internal/model"
)

// Memory is a process-local Repository for development and tests. Users are
// keyed by lower-cased email. Nothing survives a restart.
type Memory struct {
	mu sync.RWMutex

	users        map[string]*model.User // by email
	tokens       map[string]*RefreshToken
	properties   map[string]*model.Property
	appointments map[string]*model.Appointment
	bookings     map[string]*model.Booking
	recurring    map[string]*model.RecurringService
	documents    map[string]*model.Document
	referrals    map[string]*model.ReferralCard

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:        make(map[string]*model.User),
		tokens:       make(map[string]*RefreshToken),
		properties:   make(map[string]*model.Property),
		appointments: make(map[string]*model.Appointment),
		bookings:     make(map[string]*model.Booking),
		recurring:    make(map[string]*model.RecurringService),
		documents:    make(map[string]*model.Document),
		referrals:    make(map[string]*model.ReferralCard),
		now:          time.Now,
	}
}

func emailKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func cloneUser(u *model.User) *model.User {
	c := *u
	c.AssignedProperties = slices.Clone(u.AssignedProperties)
	return &c
}

func cloneAppointment(a *model.Appointment) *model.Appointment {
	c := *a
	c.PhotoURIs = slices.Clone(a.PhotoURIs)
	c.Tasks = slices.Clone(a.Tasks)
	return &c
}

func cloneDocument(d *model.Document) *model.Document {
	c := *d
	c.Tags = slices.Clone(d.Tags)
	return &c
}

// users

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := emailKey(u.Email)
	if _, ok := m.users[k]; ok {
		return ErrDuplicate
	}
	for _, existing := range m.users {
		if existing.ID == u.ID {
			return ErrDuplicate
		}
	}
	u.CreatedAt = m.now()
	u.UpdatedAt = u.CreatedAt
	m.users[k] = cloneUser(u)
	return nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[emailKey(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) userByID(id string) *model.User {
	for _, u := range m.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (m *Memory) UserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u := m.userByID(id)
	if u == nil {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) ListUsers(_ context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *cloneUser(u))
	}
	slices.SortFunc(out, func(a, b model.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Email, b.Email)
	})
	return out, nil
}

func (m *Memory) UpdateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.userByID(u.ID)
	if cur == nil {
		return ErrNotFound
	}
	cur.Name = u.Name
	cur.Phone = u.Phone
	cur.Role = u.Role
	cur.AssignedProperties = slices.Clone(u.AssignedProperties)
	if u.PasswordHash != "" {
		cur.PasswordHash = u.PasswordHash
	}
	cur.UpdatedAt = m.now()
	return nil
}

func (m *Memory) UpdateUserRole(_ context.Context, id string, role model.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.userByID(id)
	if cur == nil {
		return ErrNotFound
	}
	cur.Role = role
	cur.UpdatedAt = m.now()
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.userByID(id)
	if cur == nil {
		return ErrNotFound
	}
	delete(m.users, emailKey(cur.Email))
	return nil
}

// refresh tokens

func (m *Memory) CreateRefreshToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.tokens[id] = &RefreshToken{ID: id, UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: m.now()}
	return id, nil
}

func (m *Memory) GetRefreshTokenByHash(_ context.Context, tokenHash string) (*RefreshToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rt := range m.tokens {
		if rt.TokenHash == tokenHash {
			c := *rt
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) RotateRefreshToken(_ context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.tokens[oldID]
	if !ok || old.Revoked {
		return ErrNotFound
	}
	old.Revoked = true
	old.ReplacedBy = &newID
	m.tokens[newID] = &RefreshToken{ID: newID, UserID: userID, TokenHash: newHash, ExpiresAt: newExpiry, CreatedAt: m.now()}
	return nil
}

func (m *Memory) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.tokens {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}

// properties

func (m *Memory) CreateProperty(_ context.Context, p *model.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.properties[p.ID]; ok {
		return ErrDuplicate
	}
	p.CreatedAt = m.now()
	c := *p
	m.properties[p.ID] = &c
	return nil
}

func (m *Memory) GetProperty(_ context.Context, id string) (*model.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.properties[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *Memory) ListProperties(_ context.Context, ownerID string) ([]model.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Property
	for _, p := range m.properties {
		if ownerID == "" || p.OwnerID == ownerID {
			out = append(out, *p)
		}
	}
	slices.SortFunc(out, func(a, b model.Property) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

// appointments

func (m *Memory) CreateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[a.ID]; ok {
		return ErrDuplicate
	}
	a.CreatedAt = m.now()
	a.UpdatedAt = a.CreatedAt
	for i := range a.Tasks {
		a.Tasks[i].AppointmentID = a.ID
	}
	m.appointments[a.ID] = cloneAppointment(a)
	return nil
}

func (m *Memory) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAppointment(a), nil
}

func (m *Memory) ListAppointments(_ context.Context, f AppointmentFilter) ([]model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Appointment
	for _, a := range m.appointments {
		if f.OwnerID != "" && a.OwnerID != f.OwnerID {
			continue
		}
		if f.TechnicianID != "" && a.TechnicianID != f.TechnicianID {
			continue
		}
		if f.PropertyID != "" && a.PropertyID != f.PropertyID {
			continue
		}
		out = append(out, *cloneAppointment(a))
	}
	slices.SortFunc(out, func(a, b model.Appointment) int { return a.ScheduledDate.Compare(b.ScheduledDate) })
	return out, nil
}

func (m *Memory) UpdateAppointmentStatus(_ context.Context, id string, from, to model.AppointmentStatus, completedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return ErrNotFound
	}
	if a.Status != from {
		return ErrStale
	}
	a.Status = to
	if completedAt != nil {
		t := *completedAt
		a.CompletedDate = &t
	}
	a.UpdatedAt = m.now()
	return nil
}

func (m *Memory) SetTaskCompleted(_ context.Context, appointmentID, taskID string, completed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[appointmentID]
	if !ok {
		return ErrNotFound
	}
	for i := range a.Tasks {
		if a.Tasks[i].ID != taskID {
			continue
		}
		a.Tasks[i].Completed = completed
		a.Tasks[i].CompletedAt = nil
		if completed {
			t := m.now()
			a.Tasks[i].CompletedAt = &t
		}
		return nil
	}
	return ErrNotFound
}

// bookings

func (m *Memory) CreateBooking(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; ok {
		return ErrDuplicate
	}
	b.CreatedAt = m.now()
	c := *b
	m.bookings[b.ID] = &c
	return nil
}

func (m *Memory) GetBooking(_ context.Context, id string) (*model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *b
	return &c, nil
}

func (m *Memory) ListBookings(_ context.Context, userID string) ([]model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	slices.SortFunc(out, func(a, b model.Booking) int { return a.ScheduledDate.Compare(b.ScheduledDate) })
	return out, nil
}

func (m *Memory) UpdateBookingStatus(_ context.Context, id string, from, to model.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return ErrNotFound
	}
	if b.Status != from {
		return ErrStale
	}
	b.Status = to
	return nil
}

// recurring services

func (m *Memory) CreateRecurringService(_ context.Context, r *model.RecurringService) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recurring[r.ID]; ok {
		return ErrDuplicate
	}
	r.CreatedAt = m.now()
	c := *r
	m.recurring[r.ID] = &c
	return nil
}

func (m *Memory) GetRecurringService(_ context.Context, id string) (*model.RecurringService, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recurring[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *r
	return &c, nil
}

func (m *Memory) ListRecurringServices(_ context.Context, userID string) ([]model.RecurringService, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.RecurringService
	for _, r := range m.recurring {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	slices.SortFunc(out, func(a, b model.RecurringService) int { return a.NextServiceDate.Compare(b.NextServiceDate) })
	return out, nil
}

func (m *Memory) UpdateRecurringStatus(_ context.Context, id string, from, to model.RecurringStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recurring[id]
	if !ok {
		return ErrNotFound
	}
	if r.Status != from {
		return ErrStale
	}
	r.Status = to
	return nil
}

// documents

func (m *Memory) SaveDocument(_ context.Context, d *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if cur, ok := m.documents[d.ID]; ok {
		d.CreatedAt = cur.CreatedAt
	} else {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	m.documents[d.ID] = cloneDocument(d)
	return nil
}

func (m *Memory) GetDocument(_ context.Context, id string) (*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(d), nil
}

func (m *Memory) ListDocuments(_ context.Context, userID string) ([]model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Document
	for _, d := range m.documents {
		if d.UserID == userID {
			out = append(out, *cloneDocument(d))
		}
	}
	slices.SortFunc(out, func(a, b model.Document) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *Memory) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return ErrNotFound
	}
	delete(m.documents, id)
	return nil
}

// referrals

func (m *Memory) CreateReferralCard(_ context.Context, c *model.ReferralCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.referrals {
		if existing.UserID == c.UserID || existing.Code == c.Code {
			return ErrDuplicate
		}
	}
	c.CreatedAt = m.now()
	cp := *c
	m.referrals[c.ID] = &cp
	return nil
}

func (m *Memory) ReferralCardByUser(_ context.Context, userID string) (*model.ReferralCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.referrals {
		if c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) RecordShare(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.referrals[id]
	if !ok {
		return ErrNotFound
	}
	if c.SharesRemaining <= 0 {
		return ErrNoShares
	}
	c.SharesRemaining--
	c.TimesShared++
	t := at
	c.LastSharedAt = &t
	return nil
}
