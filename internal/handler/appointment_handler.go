package handler

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"home-services-api/internal/derive"
	"home-services-api/internal/model"
	"home-services-api/internal/rpc"
	"home-services-api/internal/store"
)

// canSee reports whether the caller may read a.
func canSee(a *model.Appointment, uid string, role model.Role) bool {
	switch role {
	case model.RoleAdmin:
		return true
	case model.RoleTech:
		return a.TechnicianID == uid
	default:
		return a.OwnerID == uid
	}
}

func appointmentResponse(a *model.Appointment) *rpc.AppointmentResponse {
	done, total := derive.TaskProgress(*a)
	return &rpc.AppointmentResponse{Appointment: a, TasksDone: done, TasksTotal: total}
}

func (h *Handler) ListAppointments(ctx context.Context, req *rpc.ListAppointmentsRequest) (*rpc.ListAppointmentsResponse, error) {
	uid, role, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	f := store.AppointmentFilter{PropertyID: req.PropertyID}
	switch role {
	case model.RoleAdmin:
	case model.RoleTech:
		f.TechnicianID = uid
	default:
		f.OwnerID = uid
	}

	list, err := h.store.ListAppointments(ctx, f)
	if err != nil {
		return nil, h.storeErr(h.log.WithField("user_id", uid), "list appointments", err)
	}
	if list == nil {
		list = []model.Appointment{}
	}

	now := h.now()
	resp := &rpc.ListAppointmentsResponse{
		Appointments: list,
		Upcoming:     derive.UpcomingAppointments(list, now),
		Past:         derive.PastAppointments(list, now),
	}
	if next, ok := derive.NextAppointment(list, now); ok {
		resp.Next = &next
	}
	return resp, nil
}

func (h *Handler) GetAppointment(ctx context.Context, req *rpc.GetAppointmentRequest) (*rpc.AppointmentResponse, error) {
	uid, role, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, invalidArg("id", "required")
	}
	a, err := h.visibleAppointment(ctx, req.ID, uid, role)
	if err != nil {
		return nil, err
	}
	return appointmentResponse(a), nil
}

// visibleAppointment loads an appointment, answering NotFound when the caller
// may not see it.
func (h *Handler) visibleAppointment(ctx context.Context, id, uid string, role model.Role) (*model.Appointment, error) {
	a, err := h.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, h.storeErr(h.log.WithField("appointment_id", id), "load appointment", err)
	}
	// ownership: 404 not 403 to hide existence
	if !canSee(a, uid, role) {
		return nil, errNotFound
	}
	return a, nil
}

func (h *Handler) CreateAppointment(ctx context.Context, req *rpc.CreateAppointmentRequest) (*rpc.AppointmentResponse, error) {
	uid, role, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if role == model.RoleTech {
		return nil, status.Error(codes.PermissionDenied, "technicians cannot schedule visits")
	}

	if req.PropertyID == "" {
		return nil, invalidArg("propertyId", "required")
	}
	if req.ScheduledDate.IsZero() {
		return nil, invalidArg("scheduledDate", "required")
	}
	if !req.Type.Valid() {
		return nil, invalidArg("type", "must be monthly_maintenance or snapshot_inspection")
	}
	for _, t := range req.Tasks {
		if strings.TrimSpace(t.Title) == "" {
			return nil, invalidArg("tasks.title", "required")
		}
	}

	prop, err := h.ownedProperty(ctx, req.PropertyID, uid, role)
	if err != nil {
		return nil, err
	}

	a := &model.Appointment{
		ID:             uuid.New().String(),
		PropertyID:     prop.ID,
		OwnerID:        prop.OwnerID,
		TechnicianID:   req.TechnicianID,
		TechnicianName: req.TechnicianName,
		ScheduledDate:  req.ScheduledDate,
		Status:         model.AppointmentScheduled,
		Type:           req.Type,
		Notes:          req.Notes,
		PhotoURIs:      req.PhotoURIs,
	}
	for _, t := range req.Tasks {
		a.Tasks = append(a.Tasks, model.MaintenanceTask{
			ID:          uuid.New().String(),
			Title:       strings.TrimSpace(t.Title),
			Description: t.Description,
		})
	}

	log := h.log.WithFields(logrus.Fields{"appointment_id": a.ID, "property_id": a.PropertyID, "user_id": uid})
	if err := h.store.CreateAppointment(ctx, a); err != nil {
		return nil, h.storeErr(log, "create appointment", err)
	}
	log.WithField("tasks", len(a.Tasks)).Info("appointment created")

	return h.reloadAppointment(ctx, log, a.ID)
}

func (h *Handler) reloadAppointment(ctx context.Context, log logrus.FieldLogger, id string) (*rpc.AppointmentResponse, error) {
	fresh, err := h.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, h.storeErr(log, "reload appointment", err)
	}
	return appointmentResponse(fresh), nil
}

// UpdateAppointmentStatus moves a visit along scheduled -> in_progress ->
// completed, or cancels it. Homeowners may only cancel.
func (h *Handler) UpdateAppointmentStatus(ctx context.Context, req *rpc.UpdateAppointmentStatusRequest) (*rpc.AppointmentResponse, error) {
	uid, role, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, invalidArg("id", "required")
	}

	a, err := h.visibleAppointment(ctx, req.ID, uid, role)
	if err != nil {
		return nil, err
	}
	if role == model.RoleHomeowner && req.Status != model.AppointmentCancelled {
		return nil, status.Error(codes.PermissionDenied, "homeowners may only cancel")
	}
	if !derive.CanTransition(a.Status, req.Status) {
		return nil, transitionErr(derive.ErrInvalidTransition)
	}

	completedAt := a.CompletedDate
	if req.Status == model.AppointmentCompleted {
		now := h.now()
		completedAt = &now
	}

	log := h.log.WithFields(logrus.Fields{"appointment_id": a.ID, "from": a.Status, "to": req.Status, "user_id": uid})
	if err := h.store.UpdateAppointmentStatus(ctx, a.ID, a.Status, req.Status, completedAt); err != nil {
		return nil, h.storeErr(log, "update appointment status", err)
	}
	log.Info("appointment status updated")

	return h.reloadAppointment(ctx, log, a.ID)
}

// SetTaskCompleted ticks a checklist item. Only the assigned technician or an
// admin may, and only while the visit is open.
func (h *Handler) SetTaskCompleted(ctx context.Context, req *rpc.SetTaskCompletedRequest) (*rpc.AppointmentResponse, error) {
	uid, role, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.AppointmentID == "" {
		return nil, invalidArg("appointmentId", "required")
	}
	if req.TaskID == "" {
		return nil, invalidArg("taskId", "required")
	}

	a, err := h.visibleAppointment(ctx, req.AppointmentID, uid, role)
	if err != nil {
		return nil, err
	}
	if role == model.RoleHomeowner {
		return nil, status.Error(codes.PermissionDenied, "only the technician can update tasks")
	}
	if a.Status == model.AppointmentCompleted || a.Status == model.AppointmentCancelled {
		return nil, status.Error(codes.FailedPrecondition, "appointment is closed")
	}

	log := h.log.WithFields(logrus.Fields{"appointment_id": a.ID, "task_id": req.TaskID, "user_id": uid})
	if err := h.store.SetTaskCompleted(ctx, a.ID, req.TaskID, req.Completed); err != nil {
		return nil, h.storeErr(log, "set task completed", err)
	}
	log.WithField("completed", req.Completed).Info("task updated")

	return h.reloadAppointment(ctx, log, a.ID)
}
