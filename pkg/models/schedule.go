package models

import (
	"fmt"
	"sort"
)

// ShiftAssignment places one employee on one shift code at a store station
type ShiftAssignment struct {
	EmployeeID   string         `json:"employee_id"`
	EmployeeName string         `json:"employee_name"`
	Employment   EmploymentType `json:"employment_type"`
	Date         string         `json:"date"`
	ShiftCode    string         `json:"shift_code"`
	Start        string         `json:"start"`
	End          string         `json:"end"`
	Station      string         `json:"station"`
	StoreID      string         `json:"store_id"`
	Hours        float64        `json:"hours"`
	Manager      bool           `json:"manager"`
}

// ScheduleSummary holds the counters of a Schedule
type ScheduleSummary struct {
	TotalShifts        int     `json:"total_shifts"`
	TotalHours         float64 `json:"total_hours"`
	EmployeesScheduled int     `json:"employees_scheduled"`
}

// Schedule is the set of assignments over a planning horizon, unique per
// (employee, date)
type Schedule struct {
	StartDate   string            `json:"start_date"`
	HorizonDays int               `json:"horizon_days"`
	Iteration   int               `json:"iteration"`
	Assignments []ShiftAssignment `json:"assignments"`
	Summary     ScheduleSummary   `json:"summary"`

	index map[string]int
}

// NewSchedule creates an empty schedule for the horizon
func NewSchedule(startDate string, days, iteration int) *Schedule {
	return &Schedule{
		StartDate:   startDate,
		HorizonDays: days,
		Iteration:   iteration,
		Assignments: []ShiftAssignment{},
		index:       make(map[string]int),
	}
}

func assignmentKey(employeeID, date string) string {
	return employeeID + "|" + date
}

// Add appends an assignment, rejecting a second one for the same employee and date
func (s *Schedule) Add(a ShiftAssignment) error {
	if s.index == nil {
		s.reindex()
	}
	key := assignmentKey(a.EmployeeID, a.Date)
	if _, exists := s.index[key]; exists {
		return fmt.Errorf("employee %s already assigned on %s", a.EmployeeID, a.Date)
	}
	s.index[key] = len(s.Assignments)
	s.Assignments = append(s.Assignments, a)
	return nil
}

// Lookup returns the assignment of an employee on a date, if any
func (s *Schedule) Lookup(employeeID, date string) (ShiftAssignment, bool) {
	if s.index == nil {
		s.reindex()
	}
	i, ok := s.index[assignmentKey(employeeID, date)]
	if !ok {
		return ShiftAssignment{}, false
	}
	return s.Assignments[i], true
}

func (s *Schedule) reindex() {
	s.index = make(map[string]int, len(s.Assignments))
	for i, a := range s.Assignments {
		s.index[assignmentKey(a.EmployeeID, a.Date)] = i
	}
}

// Finalize orders assignments by date, store, station and employee and
// recomputes the summary counters
func (s *Schedule) Finalize() {
	sort.SliceStable(s.Assignments, func(i, j int) bool {
		a, b := s.Assignments[i], s.Assignments[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StoreID != b.StoreID {
			return a.StoreID < b.StoreID
		}
		if a.Station != b.Station {
			return a.Station < b.Station
		}
		return a.EmployeeID < b.EmployeeID
	})
	s.reindex()

	employees := make(map[string]bool)
	var hours float64
	for _, a := range s.Assignments {
		employees[a.EmployeeID] = true
		hours += a.Hours
	}
	s.Summary = ScheduleSummary{
		TotalShifts:        len(s.Assignments),
		TotalHours:         hours,
		EmployeesScheduled: len(employees),
	}
}

// ByEmployee groups assignments per employee, each group ordered by date
func (s *Schedule) ByEmployee() map[string][]ShiftAssignment {
	out := make(map[string][]ShiftAssignment)
	for _, a := range s.Assignments {
		out[a.EmployeeID] = append(out[a.EmployeeID], a)
	}
	for id := range out {
		group := out[id]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Date < group[j].Date })
	}
	return out
}

// HoursByEmployee sums assigned hours per employee
func (s *Schedule) HoursByEmployee() map[string]float64 {
	out := make(map[string]float64)
	for _, a := range s.Assignments {
		out[a.EmployeeID] += a.Hours
	}
	return out
}

// GroupKey identifies a (store, date, station) staffing group
type GroupKey struct {
	StoreID string `json:"store_id"`
	Date    string `json:"date"`
	Station string `json:"station"`
}

// ByGroup groups assignments per (store, date, station)
func (s *Schedule) ByGroup() map[GroupKey][]ShiftAssignment {
	out := make(map[GroupKey][]ShiftAssignment)
	for _, a := range s.Assignments {
		k := GroupKey{StoreID: a.StoreID, Date: a.Date, Station: a.Station}
		out[k] = append(out[k], a)
	}
	return out
}
