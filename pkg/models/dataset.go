package models

import "fmt"

// DefaultHorizonDays is used when a dataset does not set its horizon
const DefaultHorizonDays = 14

// Dataset is everything a refinement run needs. Constraints may be nil, in
// which case the caller's default constraint set applies.
type Dataset struct {
	Name        string             `json:"name,omitempty" yaml:"name,omitempty"`
	StartDate   string             `json:"start_date" yaml:"start_date"`
	HorizonDays int                `json:"horizon_days,omitempty" yaml:"horizon_days,omitempty"`
	Employees   []Employee         `json:"employees" yaml:"employees"`
	Stores      []StoreRequirement `json:"stores" yaml:"stores"`
	ShiftCodes  []ShiftCode        `json:"shift_codes" yaml:"shift_codes"`
	Constraints *ConstraintSet     `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// Days returns the horizon length, falling back to DefaultHorizonDays
func (d *Dataset) Days() int {
	if d.HorizonDays <= 0 {
		return DefaultHorizonDays
	}
	return d.HorizonDays
}

// Dates lists the dates of the planning horizon
func (d *Dataset) Dates() ([]string, error) {
	return HorizonDates(d.StartDate, d.Days())
}

// Catalog indexes the shift codes by code
func (d *Dataset) Catalog() map[string]ShiftCode {
	out := make(map[string]ShiftCode, len(d.ShiftCodes))
	for _, c := range d.ShiftCodes {
		out[c.Code] = c
	}
	return out
}

// EmployeeIndex indexes employees by ID
func (d *Dataset) EmployeeIndex() map[string]*Employee {
	out := make(map[string]*Employee, len(d.Employees))
	for i := range d.Employees {
		out[d.Employees[i].ID] = &d.Employees[i]
	}
	return out
}

// StoreIndex indexes store requirements by ID
func (d *Dataset) StoreIndex() map[string]*StoreRequirement {
	out := make(map[string]*StoreRequirement, len(d.Stores))
	for i := range d.Stores {
		out[d.Stores[i].StoreID] = &d.Stores[i]
	}
	return out
}

// Resolve fills in the clock times of availability windows that only name a
// shift code. A code missing from the catalog is a ConfigError.
func (d *Dataset) Resolve() error {
	catalog := d.Catalog()
	for i := range d.Employees {
		emp := &d.Employees[i]
		for date, windows := range emp.Availability {
			for j := range windows {
				w := &windows[j]
				field := fmt.Sprintf("employees[%s].availability[%s]", emp.ID, date)
				if w.ShiftCode != "" {
					code, ok := catalog[w.ShiftCode]
					if !ok {
						return configErrorf(field, "unknown shift code %q", w.ShiftCode)
					}
					if w.Start == "" && w.End == "" {
						w.Start, w.End = code.Start, code.End
					}
				}
				if _, _, err := SpanMinutes(w.Start, w.End); err != nil {
					return configErrorf(field, "%v", err)
				}
			}
		}
	}
	return nil
}
