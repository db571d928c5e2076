package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/roster-refiner/pkg/models"
)

func fixture() *models.Dataset {
	return &models.Dataset{
		StartDate:   "2024-01-01",
		HorizonDays: 2,
		ShiftCodes: []models.ShiftCode{
			{Code: "EARLY", Start: "06:00", End: "14:00"},
			{Code: "LATE", Start: "14:00", End: "22:00"},
			{Code: "SHORT", Start: "14:00", End: "16:00", Hours: 2.5},
			{Code: "LONG", Start: "06:00", End: "20:00", Hours: 14.5},
		},
		Employees: []models.Employee{
			{ID: "e1", Manager: true, Stations: []string{"floor"}, Availability: map[string][]models.Window{
				"2024-01-01": {{Start: "14:00", End: "22:00"}},
				"2024-01-02": {{Start: "06:00", End: "22:00"}},
			}},
			{ID: "e2", Stations: []string{"floor"}, Availability: map[string][]models.Window{
				"2024-01-01": {{Start: "06:00", End: "14:00"}},
			}},
		},
		Stores: []models.StoreRequirement{
			{StoreID: "s1", Headcount: map[string]int{"floor": 1}},
		},
	}
}

func assignment(emp, date, code, start, end string, hours float64, manager bool) models.ShiftAssignment {
	return models.ShiftAssignment{
		EmployeeID: emp, Date: date, ShiftCode: code, Start: start, End: end,
		Station: "floor", StoreID: "s1", Hours: hours, Manager: manager,
	}
}

func build(t *testing.T, assignments ...models.ShiftAssignment) *models.Schedule {
	t.Helper()
	s := models.NewSchedule("2024-01-01", 2, 1)
	for _, a := range assignments {
		require.NoError(t, s.Add(a))
	}
	s.Finalize()
	return s
}

func TestValidateCleanSchedule(t *testing.T) {
	v := New(fixture(), models.DefaultConstraints())
	sched := build(t,
		assignment("e1", "2024-01-01", "LATE", "14:00", "22:00", 8, true),
		assignment("e1", "2024-01-02", "LATE", "14:00", "22:00", 8, true),
	)
	violations, err := v.Validate(sched)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestValidateAvailabilityRecommendsAlternative(t *testing.T) {
	v := New(fixture(), models.DefaultConstraints())
	sched := build(t,
		assignment("e1", "2024-01-01", "EARLY", "06:00", "14:00", 8, true),
		assignment("e1", "2024-01-02", "LATE", "14:00", "22:00", 8, true),
	)
	violations, err := v.Validate(sched)
	require.NoError(t, err)
	require.Len(t, violations, 1)

	got := violations[0]
	assert.Equal(t, models.KindAvailability, got.Kind)
	assert.Equal(t, models.SeverityCritical, got.Severity)
	assert.Equal(t, "e1", got.EmployeeID)
	assert.Equal(t, "EARLY", got.ShiftCode)
	assert.Equal(t, "Reassign to shift code LATE, which fits the declared availability", got.Recommendation)
}

func TestValidateAvailabilityUnavailableDay(t *testing.T) {
	v := New(fixture(), models.DefaultConstraints())
	sched := build(t,
		assignment("e1", "2024-01-01", "LATE", "14:00", "22:00", 8, true),
		assignment("e2", "2024-01-02", "EARLY", "06:00", "14:00", 8, false),
		assignment("e1", "2024-01-02", "LATE", "14:00", "22:00", 8, true),
	)
	violations, err := v.Validate(sched)
	require.NoError(t, err)

	byKind := models.CountByKind(violations)
	assert.Equal(t, 1, byKind[models.KindAvailability])
	for _, vi := range violations {
		if vi.Kind == models.KindAvailability {
			assert.Contains(t, vi.Recommendation, "no declared availability")
		}
	}
}

func TestValidateShiftLengthSeverity(t *testing.T) {
	cons := models.DefaultConstraints()
	cons.MaxShiftHours = 13
	v := New(fixture(), cons)
	sched := build(t,
		assignment("e1", "2024-01-01", "SHORT", "14:00", "16:00", 2.5, true),
		assignment("e1", "2024-01-02", "LONG", "06:00", "20:00", 14.5, true),
	)
	violations, err := v.Validate(sched)
	require.NoError(t, err)

	var lengths []models.Violation
	for _, vi := range violations {
		if vi.Kind == models.KindShiftLength {
			lengths = append(lengths, vi)
		}
	}
	require.Len(t, lengths, 2)
	// sorted critical first
	assert.Equal(t, models.SeverityCritical, lengths[0].Severity)
	assert.Equal(t, "2024-01-02", lengths[0].Date)
	assert.Equal(t, models.SeverityWarning, lengths[1].Severity)
	assert.Equal(t, "2024-01-01", lengths[1].Date)
}

func TestValidateRestPeriod(t *testing.T) {
	v := New(fixture(), models.DefaultConstraints())
	sched := build(t,
		assignment("e1", "2024-01-01", "LATE", "14:00", "22:00", 8, true),
		assignment("e1", "2024-01-02", "EARLY", "06:00", "14:00", 8, true),
	)
	violations, err := v.Validate(sched)
	require.NoError(t, err)
	require.Len(t, violations, 1)

	got := violations[0]
	assert.Equal(t, models.KindRestPeriod, got.Kind)
	assert.Equal(t, models.SeverityCritical, got.Severity)
	assert.Equal(t, "2024-01-02", got.Date)
	assert.Equal(t, "EARLY", got.ShiftCode)
	assert.Contains(t, got.Message, "only 8.0 hours rest")
	assert.Contains(t, got.Recommendation, "following-day shift")
}

func TestValidateManagerAndStationCoverage(t *testing.T) {
	ds := fixture()
	ds.Stores[0].Headcount["floor"] = 3
	v := New(ds, models.DefaultConstraints())
	sched := build(t,
		assignment("e2", "2024-01-01", "EARLY", "06:00", "14:00", 8, false),
	)
	violations, err := v.Validate(sched)
	require.NoError(t, err)

	byKind := models.CountByKind(violations)
	assert.Equal(t, 1, byKind[models.KindManagerCoverage])
	assert.Equal(t, 2, byKind[models.KindStationCoverage])

	for _, vi := range violations {
		if vi.Kind != models.KindStationCoverage {
			continue
		}
		switch vi.Date {
		case "2024-01-01":
			// 2 of 3 short
			assert.Equal(t, models.SeverityCritical, vi.Severity)
		case "2024-01-02":
			assert.Equal(t, models.SeverityCritical, vi.Severity)
			assert.Contains(t, vi.Recommendation, "Add 3 staff")
		}
	}
}

func TestValidateStationWarningWhenHalfOrLessShort(t *testing.T) {
	ds := fixture()
	ds.HorizonDays = 1
	ds.Stores[0].Headcount["floor"] = 2
	v := New(ds, models.DefaultConstraints())
	s := models.NewSchedule("2024-01-01", 1, 1)
	require.NoError(t, s.Add(assignment("e1", "2024-01-01", "LATE", "14:00", "22:00", 8, true)))
	s.Finalize()

	violations, err := v.Validate(s)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, models.KindStationCoverage, violations[0].Kind)
	assert.Equal(t, models.SeverityWarning, violations[0].Severity)
}

func TestValidateIsPure(t *testing.T) {
	ds := fixture()
	ds.Stores[0].Headcount["floor"] = 2
	v := New(ds, models.DefaultConstraints())
	sched := build(t,
		assignment("e1", "2024-01-01", "LATE", "14:00", "22:00", 8, true),
		assignment("e1", "2024-01-02", "EARLY", "06:00", "14:00", 8, true),
		assignment("e2", "2024-01-01", "EARLY", "06:00", "14:00", 8, false),
	)
	first, err := v.Validate(sched)
	require.NoError(t, err)
	second, err := v.Validate(sched)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestValidateUnknownEmployee(t *testing.T) {
	v := New(fixture(), models.DefaultConstraints())
	sched := build(t, assignment("ghost", "2024-01-01", "LATE", "14:00", "22:00", 8, true))
	_, err := v.Validate(sched)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}

func TestValidateRejectsScheduleOutsideCatalog(t *testing.T) {
	cases := []struct {
		name   string
		sched  *models.Schedule
		reason string
	}{
		{
			name:   "unknown code",
			sched:  build(t, assignment("e1", "2024-01-01", "GHOST", "14:00", "22:00", 8, true)),
			reason: `unknown shift code "GHOST"`,
		},
		{
			name:   "times differ from catalog",
			sched:  build(t, assignment("e1", "2024-01-01", "LATE", "15:00", "22:00", 8, true)),
			reason: "catalog says 14:00-22:00",
		},
		{
			name:   "hours differ from catalog",
			sched:  build(t, assignment("e1", "2024-01-01", "LATE", "14:00", "22:00", 6, true)),
			reason: "catalog says 8.00h",
		},
		{
			name: "employee booked twice on a date",
			sched: &models.Schedule{
				StartDate:   "2024-01-01",
				HorizonDays: 2,
				Iteration:   1,
				Assignments: []models.ShiftAssignment{
					assignment("e1", "2024-01-02", "EARLY", "06:00", "14:00", 8, true),
					assignment("e1", "2024-01-02", "LATE", "14:00", "22:00", 8, true),
				},
			},
			reason: "e1 is assigned more than once on 2024-01-02",
		},
	}

	v := New(fixture(), models.DefaultConstraints())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			violations, err := v.Validate(tc.sched)
			require.Error(t, err)
			assert.Nil(t, violations)
			assert.ErrorIs(t, err, models.ErrInvalidConfig)

			var cfgErr *models.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "schedule", cfgErr.Field)
			assert.Contains(t, cfgErr.Reason, tc.reason)
		})
	}
}
