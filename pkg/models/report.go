package models

// ReportStatus is the verdict of a CoverageReport
type ReportStatus string

const (
	StatusApproved    ReportStatus = "approved"
	StatusNeedsReview ReportStatus = "needs-review"
)

// Slot statuses used by AvailabilityCheck
const (
	SlotFilled   = "filled"
	SlotUnfilled = "unfilled"
	SlotMismatch = "mismatch"
)

// Staffing statuses used by StaffingCheck
const (
	StaffingMet          = "met"
	StaffingUnderstaffed = "understaffed"
)

// AvailabilityCheck is the outcome of one declared availability window
type AvailabilityCheck struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Window     Window `json:"window"`
	Status     string `json:"status"`
	ShiftCode  string `json:"shift_code,omitempty"`
}

// StaffingCheck compares required and assigned headcount for one group
type StaffingCheck struct {
	StoreID  string `json:"store_id"`
	Date     string `json:"date"`
	Station  string `json:"station"`
	Required int    `json:"required"`
	Assigned int    `json:"assigned"`
	Status   string `json:"status"`
}

// CoverageReport is the final verdict on a run
type CoverageReport struct {
	Status               ReportStatus        `json:"status"`
	CoveragePercent      float64             `json:"coverage_percent"`
	FilledSlots          int                 `json:"filled_slots"`
	TotalSlots           int                 `json:"total_slots"`
	MismatchSlots        int                 `json:"mismatch_slots"`
	ViolationCount       int                 `json:"violation_count"`
	CriticalCount        int                 `json:"critical_count"`
	FairnessScore        float64             `json:"fairness_score"`
	TotalHours           float64             `json:"total_hours"`
	PenaltyWeightedHours string              `json:"penalty_weighted_hours"`
	Summary              string              `json:"summary"`
	Recommendations      []string            `json:"recommendations"`
	Understaffed         []StaffingCheck     `json:"understaffed"`
	Staffing             []StaffingCheck     `json:"staffing"`
	Availability         []AvailabilityCheck `json:"availability"`
}
