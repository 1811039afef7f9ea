package domain

import "time"

// SystemSettings is the runtime-mutable configuration edited by administrators.
// Requests only ever see a read-only snapshot of it.
type SystemSettings struct {
	LibraryName string `json:"libraryName" bson:"library_name"`
	// SessionTimeoutMinutes is nil when no administrator has set a timeout.
	SessionTimeoutMinutes *float64  `json:"sessionTimeoutMinutes,omitempty" bson:"session_timeout_minutes,omitempty"`
	MaintenanceMode       bool      `json:"maintenanceMode" bson:"maintenance_mode"`
	LoanPeriodDays        int       `json:"loanPeriodDays" bson:"loan_period_days"`
	MaxBorrowLimit        int       `json:"maxBorrowLimit" bson:"max_borrow_limit"`
	FinePerDay            float64   `json:"finePerDay" bson:"fine_per_day"`
	UpdatedAt             time.Time `json:"updatedAt" bson:"updated_at"`
}

// DefaultSettings is used when the settings collection is still empty.
func DefaultSettings() *SystemSettings {
	return &SystemSettings{
		LibraryName:    "OLMS Library",
		LoanPeriodDays: 7,
		MaxBorrowLimit: 3,
		FinePerDay:     5,
	}
}
