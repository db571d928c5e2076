package models

import (
	"sort"
)

// EmploymentType classifies an employee's contract
type EmploymentType string

const (
	FullTime EmploymentType = "full-time"
	PartTime EmploymentType = "part-time"
	Casual   EmploymentType = "casual"
)

// Window is a span of clock time on a given date. A window may name a shift
// code instead of explicit times; Dataset.Resolve fills in Start and End.
type Window struct {
	Start     string `json:"start,omitempty" yaml:"start,omitempty"`
	End       string `json:"end,omitempty" yaml:"end,omitempty"`
	ShiftCode string `json:"shift_code,omitempty" yaml:"shift_code,omitempty"`
}

// Employee represents a person available for shifts. Availability is keyed by
// date (YYYY-MM-DD); a missing or empty entry means unavailable that day.
type Employee struct {
	ID             string              `json:"id" yaml:"id"`
	Name           string              `json:"name" yaml:"name"`
	EmploymentType EmploymentType      `json:"employment_type" yaml:"employment_type"`
	Stations       []string            `json:"stations" yaml:"stations"`
	Availability   map[string][]Window `json:"availability" yaml:"availability"`
	Manager        bool                `json:"manager" yaml:"manager"`
}

// CanWork reports whether the employee is eligible for the station
func (e *Employee) CanWork(station string) bool {
	for _, s := range e.Stations {
		if s == station {
			return true
		}
	}
	return false
}

// StoreRequirement holds the staffing needs of one store. Headcount applies to
// every day of the horizon unless DailyHeadcount overrides it for a date.
type StoreRequirement struct {
	StoreID           string                    `json:"store_id" yaml:"store_id"`
	Name              string                    `json:"name,omitempty" yaml:"name,omitempty"`
	TrafficWeight     float64                   `json:"traffic_weight" yaml:"traffic_weight"`
	Headcount         map[string]int            `json:"headcount" yaml:"headcount"`
	DailyHeadcount    map[string]map[string]int `json:"daily_headcount,omitempty" yaml:"daily_headcount,omitempty"`
	ExclusiveStations []string                  `json:"exclusive_stations,omitempty" yaml:"exclusive_stations,omitempty"`
}

// RequiredFor returns the headcount needed at a station on a date
func (r *StoreRequirement) RequiredFor(date, station string) int {
	if day, ok := r.DailyHeadcount[date]; ok {
		if n, ok := day[station]; ok {
			return n
		}
	}
	return r.Headcount[station]
}

// StationsFor lists, in sorted order, the stations with a positive headcount on date
func (r *StoreRequirement) StationsFor(date string) []string {
	seen := make(map[string]bool)
	for st := range r.Headcount {
		seen[st] = true
	}
	for st := range r.DailyHeadcount[date] {
		seen[st] = true
	}
	var out []string
	for st := range seen {
		if r.RequiredFor(date, st) > 0 {
			out = append(out, st)
		}
	}
	sort.Strings(out)
	return out
}

// Weight returns the traffic weight, treating non-positive weights as 1
func (r *StoreRequirement) Weight() float64 {
	if r.TrafficWeight <= 0 {
		return 1
	}
	return r.TrafficWeight
}

// ShiftCode is a catalog entry mapping a code to clock times. Hours is the paid
// duration; when zero the span between Start and End is used.
type ShiftCode struct {
	Code  string  `json:"code" yaml:"code"`
	Name  string  `json:"name,omitempty" yaml:"name,omitempty"`
	Start string  `json:"start" yaml:"start"`
	End   string  `json:"end" yaml:"end"`
	Hours float64 `json:"hours,omitempty" yaml:"hours,omitempty"`
}

// Duration returns the paid hours of the shift
func (c ShiftCode) Duration() float64 {
	if c.Hours > 0 {
		return c.Hours
	}
	start, end, err := SpanMinutes(c.Start, c.End)
	if err != nil {
		return 0
	}
	return float64(end-start) / 60
}

// TimeLabel formats the shift as "HH:MM - HH:MM"
func (c ShiftCode) TimeLabel() string {
	return c.Start + " - " + c.End
}
