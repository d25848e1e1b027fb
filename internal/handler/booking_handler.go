package handler

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"home-services-api/internal/derive"
	"home-services-api/internal/model"
	"home-services-api/internal/rpc"
)

func (h *Handler) ListBookings(ctx context.Context, _ *rpc.ListBookingsRequest) (*rpc.ListBookingsResponse, error) {
	uid, _, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	list, err := h.store.ListBookings(ctx, uid)
	if err != nil {
		return nil, h.storeErr(h.log.WithField("user_id", uid), "list bookings", err)
	}
	if list == nil {
		list = []model.Booking{}
	}
	now := h.now()
	return &rpc.ListBookingsResponse{
		Bookings: list,
		Upcoming: derive.UpcomingBookings(list, now),
		Past:     derive.PastBookings(list, now),
	}, nil
}

func (h *Handler) CreateBooking(ctx context.Context, req *rpc.CreateBookingRequest) (*rpc.BookingResponse, error) {
	uid, role, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case req.ServiceID == "":
		return nil, invalidArg("serviceId", "required")
	case strings.TrimSpace(req.ServiceName) == "":
		return nil, invalidArg("serviceName", "required")
	case req.ScheduledDate.IsZero():
		return nil, invalidArg("scheduledDate", "required")
	case req.Price < 0:
		return nil, invalidArg("price", "must not be negative")
	}
	if req.PropertyID != "" {
		if _, err := h.ownedProperty(ctx, req.PropertyID, uid, role); err != nil {
			return nil, err
		}
	}

	b := &model.Booking{
		ID:            uuid.New().String(),
		UserID:        uid,
		PropertyID:    req.PropertyID,
		ServiceID:     req.ServiceID,
		ServiceName:   strings.TrimSpace(req.ServiceName),
		ScheduledDate: req.ScheduledDate,
		TimeSlot:      req.TimeSlot,
		Status:        model.BookingPending,
		Price:         req.Price,
		Notes:         req.Notes,
	}
	log := h.log.WithFields(logrus.Fields{"booking_id": b.ID, "user_id": uid})
	if err := h.store.CreateBooking(ctx, b); err != nil {
		return nil, h.storeErr(log, "create booking", err)
	}
	log.WithField("service_id", b.ServiceID).Info("booking created")

	return h.reloadBooking(ctx, log, b.ID)
}

func (h *Handler) CancelBooking(ctx context.Context, req *rpc.CancelBookingRequest) (*rpc.BookingResponse, error) {
	uid, role, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, invalidArg("id", "required")
	}

	log := h.log.WithFields(logrus.Fields{"booking_id": req.ID, "user_id": uid})
	b, err := h.store.GetBooking(ctx, req.ID)
	if err != nil {
		return nil, h.storeErr(log, "load booking", err)
	}
	if role != model.RoleAdmin && b.UserID != uid {
		return nil, errNotFound
	}
	from := b.Status
	if err := derive.CancelBooking(b); err != nil {
		return nil, transitionErr(err)
	}
	if err := h.store.UpdateBookingStatus(ctx, b.ID, from, b.Status); err != nil {
		return nil, h.storeErr(log, "cancel booking", err)
	}
	log.Info("booking cancelled")

	return h.reloadBooking(ctx, log, b.ID)
}

func (h *Handler) reloadBooking(ctx context.Context, log logrus.FieldLogger, id string) (*rpc.BookingResponse, error) {
	fresh, err := h.store.GetBooking(ctx, id)
	if err != nil {
		return nil, h.storeErr(log, "reload booking", err)
	}
	return &rpc.BookingResponse{Booking: fresh}, nil
}
