package handler

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"home-services-api/internal/auth"
	"home-services-api/internal/derive"
	"home-services-api/internal/metrics"
	"home-services-api/internal/middleware"
	"home-services-api/internal/model"
	"home-services-api/internal/rpc"
	"home-services-api/internal/store"
)

// Handler serves the auth, user and home services over one repository.
type Handler struct {
	store   store.Repository
	secret  string
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	now     func() time.Time

	accessTTL      time.Duration
	refreshTTL     time.Duration
	expiringWindow time.Duration
}

var (
	_ rpc.AuthServiceServer = (*Handler)(nil)
	_ rpc.UserServiceServer = (*Handler)(nil)
	_ rpc.HomeServiceServer = (*Handler)(nil)
)

type Option func(*Handler)

func WithLogger(log logrus.FieldLogger) Option { return func(h *Handler) { h.log = log } }

func WithMetrics(m *metrics.Metrics) Option { return func(h *Handler) { h.metrics = m } }

// WithClock replaces time.Now; tests pin it.
func WithClock(now func() time.Time) Option { return func(h *Handler) { h.now = now } }

func WithTokenTTL(access, refresh time.Duration) Option {
	return func(h *Handler) {
		h.accessTTL = access
		h.refreshTTL = refresh
	}
}

func WithExpiringWindow(d time.Duration) Option { return func(h *Handler) { h.expiringWindow = d } }

func New(st store.Repository, secret string, opts ...Option) *Handler {
	h := &Handler{
		store:          st,
		secret:         secret,
		log:            logrus.StandardLogger(),
		now:            time.Now,
		accessTTL:      auth.DefaultAccessTTL,
		refreshTTL:     7 * 24 * time.Hour,
		expiringWindow: derive.DefaultExpiringWindow,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

var errNotFound = status.Error(codes.NotFound, "not found")

func caller(ctx context.Context) (string, model.Role, error) {
	uid, role, ok := middleware.Caller(ctx)
	if !ok {
		return "", "", status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return uid, role, nil
}

// invalidArg carries a google.rpc.BadRequest naming the offending field.
func invalidArg(field, desc string) error {
	st := status.New(codes.InvalidArgument, field+": "+desc)
	br := &errdetails.BadRequest{
		FieldViolations: []*errdetails.BadRequest_FieldViolation{{Field: field, Description: desc}},
	}
	if withDetails, err := st.WithDetails(br); err == nil {
		return withDetails.Err()
	}
	return st.Err()
}

// storeErr maps repository errors onto status codes. Anything unexpected is
// logged and surfaces as Internal.
func (h *Handler) storeErr(log logrus.FieldLogger, op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errNotFound
	case errors.Is(err, store.ErrDuplicate):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, store.ErrStale):
		log.WithError(err).Info(op + " lost a race")
		return transitionErr(err)
	}
	log.WithError(err).Error(op + " failed")
	return status.Error(codes.Internal, "internal error")
}

func transitionErr(err error) error {
	return status.Error(codes.FailedPrecondition, err.Error())
}
