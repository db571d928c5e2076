package export

import (
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/arnavshah/roster-refiner/pkg/models"
)

const (
	RosterSheet = "Roster"
	HoursSheet  = "Hours"
)

// WriteXLSX writes a workbook with the roster and a per-employee hours sheet
func WriteXLSX(w io.Writer, s *models.Schedule, ds *models.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RosterSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeHeader(f, RosterSheet, Header, bold); err != nil {
		return err
	}
	for i, r := range Rows(s, ds) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		manager := "No"
		if r.Manager {
			manager = "Yes"
		}
		values := []interface{}{
			r.Date, r.Day, r.EmployeeID, r.EmployeeName, r.Hours, r.ShiftCode,
			r.ShiftTime, r.Employment, r.Status, r.Station, r.Store, manager,
		}
		if err := f.SetSheetRow(RosterSheet, cell, &values); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(RosterSheet, "A", "L", 16); err != nil {
		return err
	}

	if _, err := f.NewSheet(HoursSheet); err != nil {
		return err
	}
	if err := writeHeader(f, HoursSheet, []string{"Employee ID", "Employee Name", "Shifts", "Hours"}, bold); err != nil {
		return err
	}
	for i, t := range employeeTotals(s) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{t.id, t.name, t.shifts, t.hours}
		if err := f.SetSheetRow(HoursSheet, cell, &values); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

type employeeTotal struct {
	id     string
	name   string
	shifts int
	hours  float64
}

func employeeTotals(s *models.Schedule) []employeeTotal {
	if s == nil {
		return nil
	}
	var out []employeeTotal
	for id, group := range s.ByEmployee() {
		t := employeeTotal{id: id, name: group[0].EmployeeName, shifts: len(group)}
		for _, a := range group {
			t.hours += a.Hours
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
