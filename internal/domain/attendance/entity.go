package attendance

import "time"

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	// StatusAbsent is an unexcused absence; it is the only status that costs salary.
	StatusAbsent Status = "absent"
	StatusLeave  Status = "leave"
)

type Record struct {
	ID          string
	EmployeeID  string
	Date        time.Time
	Status      Status
	LateMinutes int
	CreatedAt   time.Time
}

// Summary is the per-period attendance signal. A period without records yields the zero value.
type Summary struct {
	AbsenceDays     int
	LatenessMinutes int
}
