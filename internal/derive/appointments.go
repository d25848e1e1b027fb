// Package derive computes the filtered and sorted views the clients show
// (upcoming visits, expiring documents, due services) from already-fetched
// records. Every function is pure: inputs are never modified and results are
// recomputed on each call.
package derive

import (
	"errors"
	"slices"
	"time"

	"home-services-api/internal/model"
)

var ErrInvalidTransition = errors.New("invalid status transition")

func isUpcoming(a model.Appointment, now time.Time) bool {
	return a.Status == model.AppointmentScheduled && !a.ScheduledDate.Before(now)
}

// UpcomingAppointments returns scheduled visits at or after now, soonest first.
func UpcomingAppointments(list []model.Appointment, now time.Time) []model.Appointment {
	out := make([]model.Appointment, 0, len(list))
	for _, a := range list {
		if isUpcoming(a, now) {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(x, y model.Appointment) int {
		return x.ScheduledDate.Compare(y.ScheduledDate)
	})
	return out
}

// PastAppointments returns everything UpcomingAppointments leaves out, most
// recent first.
func PastAppointments(list []model.Appointment, now time.Time) []model.Appointment {
	out := make([]model.Appointment, 0, len(list))
	for _, a := range list {
		if !isUpcoming(a, now) {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(x, y model.Appointment) int {
		return y.ScheduledDate.Compare(x.ScheduledDate)
	})
	return out
}

func AppointmentsByStatus(list []model.Appointment, status model.AppointmentStatus) []model.Appointment {
	out := make([]model.Appointment, 0, len(list))
	for _, a := range list {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out
}

func AppointmentsForProperty(list []model.Appointment, propertyID string) []model.Appointment {
	out := make([]model.Appointment, 0, len(list))
	for _, a := range list {
		if a.PropertyID == propertyID {
			out = append(out, a)
		}
	}
	return out
}

// NextAppointment is the first upcoming visit, if any.
func NextAppointment(list []model.Appointment, now time.Time) (model.Appointment, bool) {
	up := UpcomingAppointments(list, now)
	if len(up) == 0 {
		return model.Appointment{}, false
	}
	return up[0], true
}

// TaskProgress counts completed maintenance tasks on a visit.
func TaskProgress(a model.Appointment) (done, total int) {
	for _, t := range a.Tasks {
		if t.Completed {
			done++
		}
	}
	return done, len(a.Tasks)
}

var appointmentTransitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentScheduled:  {model.AppointmentInProgress, model.AppointmentCancelled},
	model.AppointmentInProgress: {model.AppointmentCompleted, model.AppointmentCancelled},
}

// CanTransition reports whether a visit may move from one status to another.
// Completed and cancelled visits are final.
func CanTransition(from, to model.AppointmentStatus) bool {
	return slices.Contains(appointmentTransitions[from], to)
}
