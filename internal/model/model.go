package model

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleTech      Role = "tech"
	RoleHomeowner Role = "homeowner"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTech, RoleHomeowner:
		return true
	}
	return false
}

type User struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Role               Role      `json:"role"`
	AssignedProperties []string  `json:"assignedProperties,omitempty"`
	PasswordHash       string    `json:"-"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type Property struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

type AppointmentStatus string

const (
	AppointmentScheduled  AppointmentStatus = "scheduled"
	AppointmentInProgress AppointmentStatus = "in_progress"
	AppointmentCompleted  AppointmentStatus = "completed"
	AppointmentCancelled  AppointmentStatus = "cancelled"
)

type AppointmentType string

const (
	MonthlyMaintenance AppointmentType = "monthly_maintenance"
	SnapshotInspection AppointmentType = "snapshot_inspection"
)

func (t AppointmentType) Valid() bool {
	return t == MonthlyMaintenance || t == SnapshotInspection
}

// Appointment is a technician visit to a property (hudson_visits).
type Appointment struct {
	ID             string            `json:"id"`
	PropertyID     string            `json:"propertyId"`
	OwnerID        string            `json:"ownerId"`
	TechnicianID   string            `json:"technicianId,omitempty"`
	TechnicianName string            `json:"technicianName,omitempty"`
	ScheduledDate  time.Time         `json:"scheduledDate"`
	CompletedDate  *time.Time        `json:"completedDate,omitempty"`
	Status         AppointmentStatus `json:"status"`
	Type           AppointmentType   `json:"type"`
	Notes          string            `json:"notes,omitempty"`
	PhotoURIs      []string          `json:"photoUris,omitempty"`
	Tasks          []MaintenanceTask `json:"tasks,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

type MaintenanceTask struct {
	ID            string     `json:"id"`
	AppointmentID string     `json:"appointmentId"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}
