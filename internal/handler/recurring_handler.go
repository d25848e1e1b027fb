package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"home-services-api/internal/derive"
	"home-services-api/internal/model"
	"home-services-api/internal/rpc"
)

const defaultDueWindow = 30 * 24 * time.Hour

// maxWindowDays bounds look-ahead windows so the day count fits a Duration.
const maxWindowDays = 3650

func (h *Handler) ListRecurringServices(ctx context.Context, req *rpc.ListRecurringServicesRequest) (*rpc.ListRecurringServicesResponse, error) {
	uid, _, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.DueWithinDays < 0 || req.DueWithinDays > maxWindowDays {
		return nil, invalidArg("dueWithinDays", fmt.Sprintf("must be between 0 and %d", maxWindowDays))
	}
	window := defaultDueWindow
	if req.DueWithinDays > 0 {
		window = time.Duration(req.DueWithinDays) * 24 * time.Hour
	}

	list, err := h.store.ListRecurringServices(ctx, uid)
	if err != nil {
		return nil, h.storeErr(h.log.WithField("user_id", uid), "list recurring services", err)
	}
	if list == nil {
		list = []model.RecurringService{}
	}
	return &rpc.ListRecurringServicesResponse{
		Services:     list,
		Active:       derive.ActiveServices(list),
		Paused:       derive.PausedServices(list),
		Due:          derive.ServicesDueWithin(list, h.now(), window),
		MonthlySpend: derive.MonthlySpend(list),
	}, nil
}

func (h *Handler) CreateRecurringService(ctx context.Context, req *rpc.CreateRecurringServiceRequest) (*rpc.RecurringServiceResponse, error) {
	uid, role, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case req.ServiceID == "":
		return nil, invalidArg("serviceId", "required")
	case strings.TrimSpace(req.ServiceName) == "":
		return nil, invalidArg("serviceName", "required")
	case req.Frequency.Months() == 0:
		return nil, invalidArg("frequency", "must be monthly, quarterly, bi_annual or annual")
	case req.Price < 0:
		return nil, invalidArg("price", "must not be negative")
	}
	if req.PropertyID != "" {
		if _, err := h.ownedProperty(ctx, req.PropertyID, uid, role); err != nil {
			return nil, err
		}
	}

	now := h.now()
	start := req.StartDate
	if start.IsZero() {
		start = now
	}
	s := &model.RecurringService{
		ID:              uuid.New().String(),
		UserID:          uid,
		PropertyID:      req.PropertyID,
		ServiceID:       req.ServiceID,
		ServiceName:     strings.TrimSpace(req.ServiceName),
		Frequency:       req.Frequency,
		Status:          model.RecurringActive,
		Price:           req.Price,
		AutoRenew:       req.AutoRenew,
		StartDate:       start,
		NextServiceDate: derive.FirstServiceDate(start, req.Frequency, now),
	}
	log := h.log.WithFields(logrus.Fields{"recurring_id": s.ID, "user_id": uid})
	if err := h.store.CreateRecurringService(ctx, s); err != nil {
		return nil, h.storeErr(log, "create recurring service", err)
	}
	log.WithField("frequency", s.Frequency).Info("recurring service created")

	return h.reloadRecurring(ctx, log, s.ID)
}

func (h *Handler) PauseRecurringService(ctx context.Context, req *rpc.RecurringServiceRequest) (*rpc.RecurringServiceResponse, error) {
	return h.transitionRecurring(ctx, req.ID, "paused", derive.PauseService)
}

func (h *Handler) ResumeRecurringService(ctx context.Context, req *rpc.RecurringServiceRequest) (*rpc.RecurringServiceResponse, error) {
	return h.transitionRecurring(ctx, req.ID, "resumed", derive.ResumeService)
}

func (h *Handler) CancelRecurringService(ctx context.Context, req *rpc.RecurringServiceRequest) (*rpc.RecurringServiceResponse, error) {
	return h.transitionRecurring(ctx, req.ID, "cancelled", derive.CancelService)
}

// transitionRecurring loads the caller's subscription, applies step and
// persists the new status only. A concurrent transition in between surfaces
// as FailedPrecondition.
func (h *Handler) transitionRecurring(ctx context.Context, id, verb string, step func(*model.RecurringService) error) (*rpc.RecurringServiceResponse, error) {
	uid, role, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalidArg("id", "required")
	}

	log := h.log.WithFields(logrus.Fields{"recurring_id": id, "user_id": uid})
	s, err := h.store.GetRecurringService(ctx, id)
	if err != nil {
		return nil, h.storeErr(log, "load recurring service", err)
	}
	if role != model.RoleAdmin && s.UserID != uid {
		return nil, errNotFound
	}
	from := s.Status
	if err := step(s); err != nil {
		return nil, transitionErr(err)
	}
	// the write only lands if nobody moved the status since the read
	if err := h.store.UpdateRecurringStatus(ctx, s.ID, from, s.Status); err != nil {
		return nil, h.storeErr(log, "update recurring status", err)
	}
	log.Info("recurring service " + verb)

	return h.reloadRecurring(ctx, log, s.ID)
}

func (h *Handler) reloadRecurring(ctx context.Context, log logrus.FieldLogger, id string) (*rpc.RecurringServiceResponse, error) {
	fresh, err := h.store.GetRecurringService(ctx, id)
	if err != nil {
		return nil, h.storeErr(log, "reload recurring service", err)
	}
	return &rpc.RecurringServiceResponse{Service: fresh}, nil
}
