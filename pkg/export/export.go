// Package export writes finished rosters and coverage reports to CSV, XLSX
// and JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/arnavshah/roster-refiner/pkg/models"
)

// Header is the column layout shared by the CSV and XLSX rosters
var Header = []string{
	"Date", "Day", "Employee ID", "Employee Name", "Hours", "Shift Code",
	"Shift Time", "Employment Type", "Status", "Station", "Store", "Manager",
}

// Row is one roster line
type Row struct {
	Date         string
	Day          string
	EmployeeID   string
	EmployeeName string
	Hours        float64
	ShiftCode    string
	ShiftTime    string
	Employment   string
	Status       string
	Station      string
	Store        string
	Manager      bool
}

// Strings renders the row in Header order
func (r Row) Strings() []string {
	manager := "No"
	if r.Manager {
		manager = "Yes"
	}
	return []string{
		r.Date, r.Day, r.EmployeeID, r.EmployeeName, fmt.Sprintf("%.2f", r.Hours), r.ShiftCode,
		r.ShiftTime, r.Employment, r.Status, r.Station, r.Store, manager,
	}
}

// Rows flattens a schedule in its finalized order. The dataset is optional and
// only supplies store names.
func Rows(s *models.Schedule, ds *models.Dataset) []Row {
	if s == nil {
		return nil
	}
	stores := map[string]*models.StoreRequirement{}
	if ds != nil {
		stores = ds.StoreIndex()
	}
	rows := make([]Row, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		r := Row{
			Date:         a.Date,
			EmployeeID:   a.EmployeeID,
			EmployeeName: a.EmployeeName,
			Hours:        a.Hours,
			ShiftCode:    a.ShiftCode,
			ShiftTime:    models.ShiftCode{Start: a.Start, End: a.End}.TimeLabel(),
			Employment:   string(a.Employment),
			Status:       "Scheduled",
			Station:      a.Station,
			Store:        a.StoreID,
			Manager:      a.Manager,
		}
		if r.EmployeeName == "" {
			r.EmployeeName = a.EmployeeID
		}
		if d, err := models.ParseDate(a.Date); err == nil {
			r.Day = d.Weekday().String()
			if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
				r.Status = "Weekend"
			}
		}
		if st, ok := stores[a.StoreID]; ok && st.Name != "" {
			r.Store = st.Name
		}
		rows = append(rows, r)
	}
	return rows
}

// WriteCSV writes the roster as CSV with a header line
func WriteCSV(w io.Writer, s *models.Schedule, ds *models.Dataset) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, r := range Rows(s, ds) {
		if err := writer.Write(r.Strings()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteReportJSON writes an indented coverage report
func WriteReportJSON(w io.Writer, report *models.CoverageReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
