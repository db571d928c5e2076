package models

import "sort"

// ViolationKind names the rule a violation breaches
type ViolationKind string

const (
	KindAvailability    ViolationKind = "availability"
	KindShiftLength     ViolationKind = "shift-length"
	KindRestPeriod      ViolationKind = "rest-period"
	KindManagerCoverage ViolationKind = "manager-coverage"
	KindStationCoverage ViolationKind = "station-coverage"
)

// Severity ranks a violation
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Violation is a single rule breach found in a schedule
type Violation struct {
	Kind           ViolationKind `json:"kind"`
	Severity       Severity      `json:"severity"`
	EmployeeID     string        `json:"employee_id,omitempty"`
	Date           string        `json:"date,omitempty"`
	ShiftCode      string        `json:"shift_code,omitempty"`
	StoreID        string        `json:"store_id,omitempty"`
	Station        string        `json:"station,omitempty"`
	Message        string        `json:"message"`
	Recommendation string        `json:"recommendation"`
}

// IsCritical reports whether the violation blocks approval
func (v Violation) IsCritical() bool {
	return v.Severity == SeverityCritical
}

// CountCritical returns the number of critical violations
func CountCritical(violations []Violation) int {
	n := 0
	for _, v := range violations {
		if v.IsCritical() {
			n++
		}
	}
	return n
}

// CountByKind tallies violations per kind
func CountByKind(violations []Violation) map[ViolationKind]int {
	out := make(map[ViolationKind]int)
	for _, v := range violations {
		out[v.Kind]++
	}
	return out
}

// SortViolations orders violations by severity, date, kind, store, station,
// employee and message
func SortViolations(violations []Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.Severity != b.Severity {
			return a.Severity.rank() < b.Severity.rank()
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.StoreID != b.StoreID {
			return a.StoreID < b.StoreID
		}
		if a.Station != b.Station {
			return a.Station < b.Station
		}
		if a.EmployeeID != b.EmployeeID {
			return a.EmployeeID < b.EmployeeID
		}
		return a.Message < b.Message
	})
}
