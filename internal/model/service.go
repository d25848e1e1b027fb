package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	PropertyID    string        `json:"propertyId,omitempty"`
	ServiceID     string        `json:"serviceId"`
	ServiceName   string        `json:"serviceName"`
	ScheduledDate time.Time     `json:"scheduledDate"`
	TimeSlot      string        `json:"timeSlot,omitempty"`
	Status        BookingStatus `json:"status"`
	Price         float64       `json:"price"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type Frequency string

const (
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	BiAnnual  Frequency = "bi_annual"
	Annual    Frequency = "annual"
)

// Months is the length of one service interval; zero for unknown values.
func (f Frequency) Months() int {
	switch f {
	case Monthly:
		return 1
	case Quarterly:
		return 3
	case BiAnnual:
		return 6
	case Annual:
		return 12
	}
	return 0
}

type RecurringStatus string

const (
	RecurringActive    RecurringStatus = "active"
	RecurringPaused    RecurringStatus = "paused"
	RecurringCancelled RecurringStatus = "cancelled"
)

type RecurringService struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	PropertyID      string          `json:"propertyId,omitempty"`
	ServiceID       string          `json:"serviceId"`
	ServiceName     string          `json:"serviceName"`
	Frequency       Frequency       `json:"frequency"`
	Status          RecurringStatus `json:"status"`
	Price           float64         `json:"price"`
	AutoRenew       bool            `json:"autoRenew"`
	StartDate       time.Time       `json:"startDate"`
	NextServiceDate time.Time       `json:"nextServiceDate"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type ReferralCard struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Code            string     `json:"code"`
	SharesRemaining int        `json:"sharesRemaining"`
	TimesShared     int        `json:"timesShared"`
	LastSharedAt    *time.Time `json:"lastSharedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}
