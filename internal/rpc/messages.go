package rpc

import (
	"time"

	"home-services-api/internal/model"
)

// auth

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// AuthResponse is returned by Login and Signup.
type AuthResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	User         *model.User `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct{}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// users

// SyncUserRequest upserts a profile by email. Password is only applied when set.
type SyncUserRequest struct {
	User     model.User `json:"user"`
	Password string     `json:"password,omitempty"`
}

type ListUsersRequest struct{}

type ListUsersResponse struct {
	Users []model.User `json:"users"`
}

type DeleteUserRequest struct {
	UserID string `json:"userId"`
}

type UpdateUserRoleRequest struct {
	UserID string     `json:"userId"`
	Role   model.Role `json:"role"`
}

// properties

type ListPropertiesRequest struct{}

type ListPropertiesResponse struct {
	Properties []model.Property `json:"properties"`
}

type CreatePropertyRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type PropertyResponse struct {
	Property *model.Property `json:"property"`
}

// appointments

type ListAppointmentsRequest struct {
	PropertyID string `json:"propertyId,omitempty"`
}

type ListAppointmentsResponse struct {
	Appointments []model.Appointment `json:"appointments"`
	Upcoming     []model.Appointment `json:"upcoming"`
	Past         []model.Appointment `json:"past"`
	Next         *model.Appointment  `json:"next,omitempty"`
}

type GetAppointmentRequest struct {
	ID string `json:"id"`
}

type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type CreateAppointmentRequest struct {
	PropertyID     string                `json:"propertyId"`
	OwnerID        string                `json:"ownerId,omitempty"`
	TechnicianID   string                `json:"technicianId,omitempty"`
	TechnicianName string                `json:"technicianName,omitempty"`
	ScheduledDate  time.Time             `json:"scheduledDate"`
	Type           model.AppointmentType `json:"type"`
	Notes          string                `json:"notes,omitempty"`
	PhotoURIs      []string              `json:"photoUris,omitempty"`
	Tasks          []TaskInput           `json:"tasks,omitempty"`
}

type UpdateAppointmentStatusRequest struct {
	ID     string                  `json:"id"`
	Status model.AppointmentStatus `json:"status"`
}

type SetTaskCompletedRequest struct {
	AppointmentID string `json:"appointmentId"`
	TaskID        string `json:"taskId"`
	Completed     bool   `json:"completed"`
}

type AppointmentResponse struct {
	Appointment *model.Appointment `json:"appointment"`
	TasksDone   int                `json:"tasksDone"`
	TasksTotal  int                `json:"tasksTotal"`
}

// bookings

type ListBookingsRequest struct{}

type ListBookingsResponse struct {
	Bookings []model.Booking `json:"bookings"`
	Upcoming []model.Booking `json:"upcoming"`
	Past     []model.Booking `json:"past"`
}

type CreateBookingRequest struct {
	PropertyID    string    `json:"propertyId,omitempty"`
	ServiceID     string    `json:"serviceId"`
	ServiceName   string    `json:"serviceName"`
	ScheduledDate time.Time `json:"scheduledDate"`
	TimeSlot      string    `json:"timeSlot,omitempty"`
	Price         float64   `json:"price"`
	Notes         string    `json:"notes,omitempty"`
}

type CancelBookingRequest struct {
	ID string `json:"id"`
}

type BookingResponse struct {
	Booking *model.Booking `json:"booking"`
}

// recurring services

type ListRecurringServicesRequest struct {
	// DueWithinDays sizes the Due list; zero means 30 days.
	DueWithinDays int `json:"dueWithinDays,omitempty"`
}

type ListRecurringServicesResponse struct {
	Services     []model.RecurringService `json:"services"`
	Active       []model.RecurringService `json:"active"`
	Paused       []model.RecurringService `json:"paused"`
	Due          []model.RecurringService `json:"due"`
	MonthlySpend float64                  `json:"monthlySpend"`
}

type CreateRecurringServiceRequest struct {
	PropertyID  string          `json:"propertyId,omitempty"`
	ServiceID   string          `json:"serviceId"`
	ServiceName string          `json:"serviceName"`
	Frequency   model.Frequency `json:"frequency"`
	Price       float64         `json:"price"`
	AutoRenew   bool            `json:"autoRenew"`
	StartDate   time.Time       `json:"startDate"`
}

// RecurringServiceRequest names the subscription for Pause, Resume and Cancel.
type RecurringServiceRequest struct {
	ID string `json:"id"`
}

type RecurringServiceResponse struct {
	Service *model.RecurringService `json:"service"`
}

// documents

type ListDocumentsRequest struct {
	Category      model.DocumentCategory `json:"category,omitempty"`
	Query         string                 `json:"query,omitempty"`
	ImportantOnly bool                   `json:"importantOnly,omitempty"`
}

type ListDocumentsResponse struct {
	Documents      []model.Document               `json:"documents"`
	CategoryCounts map[model.DocumentCategory]int `json:"categoryCounts"`
}

type ExpiringDocumentsRequest struct {
	WithinDays int `json:"withinDays,omitempty"`
}

type ExpiringDocumentsResponse struct {
	Expiring     []model.Document `json:"expiring"`
	Expired      []model.Document `json:"expired"`
	RemindersDue []model.Document `json:"remindersDue"`
}

type GetDocumentRequest struct {
	ID string `json:"id"`
}

// SaveDocumentRequest creates the document when ID is empty and overwrites it
// otherwise.
type SaveDocumentRequest struct {
	Document model.Document `json:"document"`
}

type DeleteDocumentRequest struct {
	ID string `json:"id"`
}

type DocumentResponse struct {
	Document *model.Document `json:"document"`
}

// referrals

type GetReferralCardRequest struct{}

type ShareReferralCardRequest struct{}

type ReferralCardResponse struct {
	Card *model.ReferralCard `json:"card"`
}

type ShareReferralCardResponse struct {
	Shared bool                `json:"shared"`
	Card   *model.ReferralCard `json:"card"`
}
