package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/arnavshah/roster-refiner/pkg/models"
)

func testSchedule(t *testing.T) (*models.Schedule, *models.Dataset) {
	t.Helper()
	ds := &models.Dataset{
		StartDate:   "2024-03-08",
		HorizonDays: 2,
		Stores:      []models.StoreRequirement{{StoreID: "n1", Name: "North"}},
	}
	s := models.NewSchedule("2024-03-08", 2, 1)
	require.NoError(t, s.Add(models.ShiftAssignment{
		EmployeeID: "E2", EmployeeName: "Bo", Employment: models.PartTime, Date: "2024-03-09",
		ShiftCode: "LATE", Start: "14:00", End: "22:00", Station: "floor", StoreID: "n1", Hours: 8,
	}))
	require.NoError(t, s.Add(models.ShiftAssignment{
		EmployeeID: "E1", EmployeeName: "Ana", Employment: models.FullTime, Date: "2024-03-08",
		ShiftCode: "EARLY", Start: "06:00", End: "14:00", Station: "floor", StoreID: "n1", Hours: 7.5, Manager: true,
	}))
	require.NoError(t, s.Add(models.ShiftAssignment{
		EmployeeID: "E1", EmployeeName: "Ana", Employment: models.FullTime, Date: "2024-03-09",
		ShiftCode: "EARLY", Start: "06:00", End: "14:00", Station: "floor", StoreID: "s9", Hours: 7.5, Manager: true,
	}))
	s.Finalize()
	return s, ds
}

func TestWriteCSV(t *testing.T) {
	s, ds := testSchedule(t)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s, ds))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{
		"2024-03-08", "Friday", "E1", "Ana", "7.50", "EARLY", "06:00 - 14:00",
		"full-time", "Scheduled", "floor", "North", "Yes",
	}, records[1])

	var sawWeekend bool
	for _, r := range records[2:] {
		assert.Equal(t, "Saturday", r[1])
		assert.Equal(t, "Weekend", r[8])
		sawWeekend = true
	}
	assert.True(t, sawWeekend)
	// unknown stores keep their ID
	assert.Contains(t, []string{records[2][10], records[3][10]}, "s9")
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, nil))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestWriteXLSX(t *testing.T) {
	s, ds := testSchedule(t)
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, s, ds))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(RosterSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "Ana", rows[1][3])
	assert.Equal(t, "7.5", rows[1][4])

	hours, err := f.GetRows(HoursSheet)
	require.NoError(t, err)
	require.Len(t, hours, 3)
	assert.Equal(t, []string{"E1", "Ana", "2", "15"}, hours[1])
	assert.Equal(t, []string{"E2", "Bo", "1", "8"}, hours[2])
}

func TestWriteReportJSON(t *testing.T) {
	report := &models.CoverageReport{Status: models.StatusApproved, CoveragePercent: 87.5, PenaltyWeightedHours: "12.00"}
	var buf bytes.Buffer
	require.NoError(t, WriteReportJSON(&buf, report))

	var decoded models.CoverageReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.Status, decoded.Status)
	assert.Equal(t, 87.5, decoded.CoveragePercent)
	assert.Contains(t, buf.String(), "\n  ")
}
