package model

import "time"

type EventStatus string

const (
	StatusActive    EventStatus = "active"
	StatusCompleted EventStatus = "completed"
)

func (s EventStatus) IsValid() bool {
	return s == StatusActive || s == StatusCompleted
}

// AdjustmentReasonManual marks a balance adjustment entered by an admin.
const AdjustmentReasonManual = "manual"

// PrivacySettings controls which contact details a volunteer shares on the
// public roster.
type PrivacySettings struct {
	ShowPhone  bool
	ShowSocial bool
}

// Volunteer represents a volunteer and their banked hours
type Volunteer struct {
	ID        string
	Name      string
	Email     string
	Avatar    string
	Hours     float64
	Phone     string
	Twitter   string
	Facebook  string
	Instagram string
	IsAdmin   bool
	Privacy   PrivacySettings
	// CurrentClockEventID points at the open clock event. Empty string means
	// the volunteer is not clocked in.
	CurrentClockEventID string
}

// ClockEvent represents one work session. EndTime and HoursAccumulated are
// nil while the session is open.
type ClockEvent struct {
	ID               string
	VolunteerID      string
	StartTime        time.Time
	EndTime          *time.Time
	Status           EventStatus
	HoursAccumulated *float64
}

// Elapsed returns the session length, using EndTime for completed sessions
// and the current time for open ones.
func (e *ClockEvent) Elapsed() time.Duration {
	if e.EndTime != nil {
		return e.EndTime.Sub(e.StartTime)
	}
	return time.Since(e.StartTime)
}

// Transaction represents a store redemption receipt
type Transaction struct {
	ID            string    `json:"id"`
	VolunteerID   string    `json:"volunteerId"`
	ItemID        string    `json:"itemId"`
	HoursDeducted float64   `json:"hoursDeducted"`
	Date          time.Time `json:"date"`
}

// Adjustment represents a manual change to a volunteer's balance
type Adjustment struct {
	ID          string    `json:"id"`
	VolunteerID string    `json:"volunteerId"`
	Hours       float64   `json:"hours"`
	Reason      string    `json:"reason"`
	Date        time.Time `json:"date"`
}

// StoreItem represents a reward purchasable with banked hours
type StoreItem struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Cost float64 `json:"cost"`
}
