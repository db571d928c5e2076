package models

import "sort"

// BlacklistEntry is an (employee, date, shift code) triple known to cause a
// critical violation
type BlacklistEntry struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	ShiftCode  string `json:"shift_code"`
}

// RefinementMemory accumulates what earlier iterations learned. Entries are
// only ever added.
type RefinementMemory struct {
	blacklist   map[BlacklistEntry]struct{}
	restDates   map[string]struct{}
	preferences map[string][]string
}

// NewRefinementMemory returns an empty memory
func NewRefinementMemory() *RefinementMemory {
	return &RefinementMemory{
		blacklist:   make(map[BlacklistEntry]struct{}),
		restDates:   make(map[string]struct{}),
		preferences: make(map[string][]string),
	}
}

// IsBlacklisted reports whether the triple is excluded from generation
func (m *RefinementMemory) IsBlacklisted(employeeID, date, shiftCode string) bool {
	if m == nil {
		return false
	}
	_, ok := m.blacklist[BlacklistEntry{EmployeeID: employeeID, Date: date, ShiftCode: shiftCode}]
	return ok
}

// HadRestViolation reports whether a rest-period violation was seen on date
func (m *RefinementMemory) HadRestViolation(date string) bool {
	if m == nil {
		return false
	}
	_, ok := m.restDates[date]
	return ok
}

// PreferredCodes returns the shift codes recorded as preferable for an employee
func (m *RefinementMemory) PreferredCodes(employeeID string) []string {
	if m == nil {
		return nil
	}
	return m.preferences[employeeID]
}

// AddBlacklist records a triple, returning false if it was already present
func (m *RefinementMemory) AddBlacklist(employeeID, date, shiftCode string) bool {
	e := BlacklistEntry{EmployeeID: employeeID, Date: date, ShiftCode: shiftCode}
	if _, ok := m.blacklist[e]; ok {
		return false
	}
	m.blacklist[e] = struct{}{}
	return true
}

// AddRestViolation records a date with a rest-period violation
func (m *RefinementMemory) AddRestViolation(date string) {
	m.restDates[date] = struct{}{}
}

// AddPreference records a preferred shift code for an employee, keeping
// insertion order and ignoring duplicates
func (m *RefinementMemory) AddPreference(employeeID, shiftCode string) {
	for _, c := range m.preferences[employeeID] {
		if c == shiftCode {
			return
		}
	}
	m.preferences[employeeID] = append(m.preferences[employeeID], shiftCode)
}

// BlacklistSize returns the number of blacklisted triples
func (m *RefinementMemory) BlacklistSize() int {
	if m == nil {
		return 0
	}
	return len(m.blacklist)
}

// Blacklist returns the blacklisted triples in sorted order
func (m *RefinementMemory) Blacklist() []BlacklistEntry {
	out := make([]BlacklistEntry, 0, m.BlacklistSize())
	if m == nil {
		return out
	}
	for e := range m.blacklist {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].ShiftCode < out[j].ShiftCode
	})
	return out
}

// RestViolationDates returns the recorded dates in sorted order
func (m *RefinementMemory) RestViolationDates() []string {
	out := []string{}
	if m == nil {
		return out
	}
	for d := range m.restDates {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
