// Package dataset decodes and checks the employee, store and shift code
// records a refinement run consumes.
package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arnavshah/roster-refiner/pkg/models"
)

// LoadFile loads a Dataset from a JSON or YAML file.
func LoadFile(path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	ds, err := Decode(f, ext)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if ds.Name == "" {
		ds.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return ds, nil
}

// Decode reads a Dataset in the given format ("json", "yaml" or "yml").
func Decode(r io.Reader, format string) (*models.Dataset, error) {
	var ds models.Dataset
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&ds); err != nil {
			return nil, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&ds); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return &ds, nil
}

// Stats summarises a dataset for the validation endpoint
type Stats struct {
	EmployeeCount  int `json:"employee_count"`
	ManagerCount   int `json:"manager_count"`
	StoreCount     int `json:"store_count"`
	ShiftCodeCount int `json:"shift_code_count"`
	HorizonDays    int `json:"horizon_days"`
	SlotCount      int `json:"availability_slot_count"`
}

// Summarise counts the records of a dataset
func Summarise(ds *models.Dataset) Stats {
	st := Stats{
		EmployeeCount:  len(ds.Employees),
		StoreCount:     len(ds.Stores),
		ShiftCodeCount: len(ds.ShiftCodes),
		HorizonDays:    ds.Days(),
	}
	for _, e := range ds.Employees {
		if e.Manager {
			st.ManagerCount++
		}
		for _, w := range e.Availability {
			st.SlotCount += len(w)
		}
	}
	return st
}

// Validate checks the dataset's structure and resolves shift-code
// availability windows. Every failure is a *models.ConfigError. Employees
// without availability and zero headcounts are allowed.
func Validate(ds *models.Dataset) error {
	if ds == nil {
		return &models.ConfigError{Field: "dataset", Reason: "missing"}
	}
	if _, err := models.ParseDate(ds.StartDate); err != nil {
		return &models.ConfigError{Field: "start_date", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", ds.StartDate)}
	}
	if ds.HorizonDays < 0 {
		return &models.ConfigError{Field: "horizon_days", Reason: "cannot be negative"}
	}
	if err := validateCatalog(ds.ShiftCodes); err != nil {
		return err
	}
	if err := validateEmployees(ds.Employees); err != nil {
		return err
	}
	if err := validateStores(ds.Stores); err != nil {
		return err
	}
	if ds.Constraints != nil {
		ds.Constraints.SetDefaults()
		if err := ds.Constraints.Validate(); err != nil {
			return err
		}
	}
	return ds.Resolve()
}

func validateCatalog(codes []models.ShiftCode) error {
	if len(codes) == 0 {
		return &models.ConfigError{Field: "shift_codes", Reason: "at least one shift code is required"}
	}
	seen := make(map[string]bool)
	for _, c := range codes {
		if c.Code == "" {
			return &models.ConfigError{Field: "shift_codes", Reason: "shift code without a code"}
		}
		if seen[c.Code] {
			return &models.ConfigError{Field: "shift_codes", Reason: "duplicate shift code " + c.Code}
		}
		seen[c.Code] = true
		if _, _, err := models.SpanMinutes(c.Start, c.End); err != nil {
			return &models.ConfigError{Field: "shift_codes[" + c.Code + "]", Reason: err.Error()}
		}
		if c.Hours < 0 {
			return &models.ConfigError{Field: "shift_codes[" + c.Code + "]", Reason: "hours cannot be negative"}
		}
	}
	return nil
}

func validateEmployees(employees []models.Employee) error {
	seen := make(map[string]bool)
	for _, e := range employees {
		if e.ID == "" {
			return &models.ConfigError{Field: "employees", Reason: "employee without an id"}
		}
		if seen[e.ID] {
			return &models.ConfigError{Field: "employees", Reason: "duplicate employee ID: " + e.ID}
		}
		seen[e.ID] = true
		switch e.EmploymentType {
		case "", models.FullTime, models.PartTime, models.Casual:
		default:
			return &models.ConfigError{Field: "employees[" + e.ID + "].employment_type", Reason: fmt.Sprintf("unknown type %q", e.EmploymentType)}
		}
		for date := range e.Availability {
			if _, err := models.ParseDate(date); err != nil {
				return &models.ConfigError{Field: "employees[" + e.ID + "].availability", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", date)}
			}
		}
	}
	return nil
}

func validateStores(stores []models.StoreRequirement) error {
	seen := make(map[string]bool)
	owners := make(map[string]string)
	for _, s := range stores {
		if s.StoreID == "" {
			return &models.ConfigError{Field: "stores", Reason: "store without a store_id"}
		}
		if seen[s.StoreID] {
			return &models.ConfigError{Field: "stores", Reason: "duplicate store ID: " + s.StoreID}
		}
		seen[s.StoreID] = true
		if s.TrafficWeight < 0 {
			return &models.ConfigError{Field: "stores[" + s.StoreID + "].traffic_weight", Reason: "cannot be negative"}
		}
		for station, n := range s.Headcount {
			if n < 0 {
				return &models.ConfigError{Field: "stores[" + s.StoreID + "].headcount", Reason: "negative headcount for " + station}
			}
		}
		for date, day := range s.DailyHeadcount {
			if _, err := models.ParseDate(date); err != nil {
				return &models.ConfigError{Field: "stores[" + s.StoreID + "].daily_headcount", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", date)}
			}
			for station, n := range day {
				if n < 0 {
					return &models.ConfigError{Field: "stores[" + s.StoreID + "].daily_headcount", Reason: "negative headcount for " + station}
				}
			}
		}
		for _, station := range s.ExclusiveStations {
			if other, ok := owners[station]; ok && other != s.StoreID {
				return &models.ConfigError{Field: "stores", Reason: fmt.Sprintf("station %s is exclusive to both %s and %s", station, other, s.StoreID)}
			}
			owners[station] = s.StoreID
		}
	}
	for _, s := range stores {
		for _, station := range requiredStations(s) {
			if owner, ok := owners[station]; ok && owner != s.StoreID {
				return &models.ConfigError{Field: "stores[" + s.StoreID + "]", Reason: fmt.Sprintf("requires station %s, which is exclusive to %s", station, owner)}
			}
		}
	}
	return nil
}

func requiredStations(s models.StoreRequirement) []string {
	var out []string
	for station, n := range s.Headcount {
		if n > 0 {
			out = append(out, station)
		}
	}
	for _, day := range s.DailyHeadcount {
		for station, n := range day {
			if n > 0 {
				out = append(out, station)
			}
		}
	}
	sort.Strings(out)
	return out
}
