// Package validator checks a schedule against the constraint set and the
// employee and store data. Validation never depends on refinement memory, so
// the same inputs always produce the same violations.
package validator

import (
	"fmt"
	"math"
	"sort"

	"github.com/arnavshah/roster-refiner/pkg/models"
)

// Validator runs the five schedule checks
type Validator struct {
	Dataset     *models.Dataset
	Constraints models.ConstraintSet

	employees map[string]*models.Employee
	catalog   []models.ShiftCode
	codes     map[string]models.ShiftCode
}

// New creates a Validator for a dataset and constraint set
func New(ds *models.Dataset, constraints models.ConstraintSet) *Validator {
	return &Validator{
		Dataset:     ds,
		Constraints: constraints,
		employees:   ds.EmployeeIndex(),
		catalog:     ds.ShiftCodes,
		codes:       ds.Catalog(),
	}
}

// Validate returns every violation found in the schedule, sorted by severity
// then date. A schedule that names unknown shift codes, disagrees with the
// catalog, or books an employee twice on a date is rejected with a
// *models.ConfigError before any check runs.
func (v *Validator) Validate(schedule *models.Schedule) ([]models.Violation, error) {
	if schedule == nil {
		return nil, fmt.Errorf("nil schedule")
	}
	if err := v.checkStructure(schedule); err != nil {
		return nil, err
	}
	violations := []models.Violation{}

	checks := []func(*models.Schedule) ([]models.Violation, error){
		v.checkAvailability,
		v.checkShiftLength,
		v.checkRest,
		v.checkManagers,
		v.checkStations,
	}
	for _, check := range checks {
		found, err := check(schedule)
		if err != nil {
			return nil, err
		}
		violations = append(violations, found...)
	}
	models.SortViolations(violations)
	return violations, nil
}

// hoursTolerance absorbs float noise in client-supplied hours
const hoursTolerance = 0.01

// checkStructure resolves every assignment against the catalog. The checks
// below trust Start, End and Hours, so they must match the code they claim.
func (v *Validator) checkStructure(schedule *models.Schedule) error {
	seen := make(map[string]bool, len(schedule.Assignments))
	for _, a := range schedule.Assignments {
		code, ok := v.codes[a.ShiftCode]
		if !ok {
			return &models.ConfigError{Field: "schedule", Reason: fmt.Sprintf("unknown shift code %q for %s on %s", a.ShiftCode, a.EmployeeID, a.Date)}
		}
		if a.Start != code.Start || a.End != code.End {
			return &models.ConfigError{Field: "schedule", Reason: fmt.Sprintf("shift code %s for %s on %s is %s-%s, catalog says %s-%s",
				a.ShiftCode, a.EmployeeID, a.Date, a.Start, a.End, code.Start, code.End)}
		}
		if math.Abs(a.Hours-code.Duration()) > hoursTolerance {
			return &models.ConfigError{Field: "schedule", Reason: fmt.Sprintf("shift code %s for %s on %s has %.2fh, catalog says %.2fh",
				a.ShiftCode, a.EmployeeID, a.Date, a.Hours, code.Duration())}
		}
		key := a.EmployeeID + "|" + a.Date
		if seen[key] {
			return &models.ConfigError{Field: "schedule", Reason: fmt.Sprintf("%s is assigned more than once on %s", a.EmployeeID, a.Date)}
		}
		seen[key] = true
	}
	return nil
}

func (v *Validator) checkAvailability(schedule *models.Schedule) ([]models.Violation, error) {
	var out []models.Violation
	for _, a := range schedule.Assignments {
		emp, ok := v.employees[a.EmployeeID]
		if !ok {
			return nil, &models.ConfigError{Field: "schedule", Reason: fmt.Sprintf("unknown employee %q", a.EmployeeID)}
		}
		windows := emp.Availability[a.Date]
		covered := false
		for _, w := range windows {
			if w.Contains(a.Start, a.End) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}

		msg := fmt.Sprintf("%s is not available for shift code %s (%s-%s) on %s", a.EmployeeID, a.ShiftCode, a.Start, a.End, a.Date)
		rec := fmt.Sprintf("Remove %s from %s; no declared availability that day", a.EmployeeID, a.Date)
		if len(windows) > 0 {
			if alt, ok := v.alternative(windows, a.ShiftCode); ok {
				rec = fmt.Sprintf("Reassign to shift code %s, which fits the declared availability", alt)
			} else {
				rec = fmt.Sprintf("Remove %s from %s; no shift code fits the declared availability", a.EmployeeID, a.Date)
			}
		}
		out = append(out, models.Violation{
			Kind:           models.KindAvailability,
			Severity:       models.SeverityCritical,
			EmployeeID:     a.EmployeeID,
			Date:           a.Date,
			ShiftCode:      a.ShiftCode,
			StoreID:        a.StoreID,
			Station:        a.Station,
			Message:        msg,
			Recommendation: rec,
		})
	}
	return out, nil
}

// alternative returns the first catalog code, other than current, that fits
// one of the windows and the shift length bounds
func (v *Validator) alternative(windows []models.Window, current string) (string, bool) {
	for _, c := range v.catalog {
		if c.Code == current {
			continue
		}
		h := c.Duration()
		if h < v.Constraints.MinShiftHours || h > v.Constraints.MaxShiftHours {
			continue
		}
		for _, w := range windows {
			if w.Contains(c.Start, c.End) {
				return c.Code, true
			}
		}
	}
	return "", false
}

func (v *Validator) checkShiftLength(schedule *models.Schedule) ([]models.Violation, error) {
	var out []models.Violation
	lo, hi := v.Constraints.MinShiftHours, v.Constraints.MaxShiftHours
	for _, a := range schedule.Assignments {
		var by float64
		var msg, rec string
		switch {
		case a.Hours < lo:
			by = lo - a.Hours
			msg = fmt.Sprintf("%s works %.1fh on %s, below the %.1fh minimum", a.EmployeeID, a.Hours, a.Date, lo)
			rec = fmt.Sprintf("Extend the shift to at least %.1fh or reassign to a longer shift code", lo)
		case a.Hours > hi:
			by = a.Hours - hi
			msg = fmt.Sprintf("%s works %.1fh on %s, above the %.1fh maximum", a.EmployeeID, a.Hours, a.Date, hi)
			rec = fmt.Sprintf("Shorten the shift to at most %.1fh or reassign to a shorter shift code", hi)
		default:
			continue
		}
		sev := models.SeverityWarning
		if by > 1 {
			sev = models.SeverityCritical
		}
		out = append(out, models.Violation{
			Kind:           models.KindShiftLength,
			Severity:       sev,
			EmployeeID:     a.EmployeeID,
			Date:           a.Date,
			ShiftCode:      a.ShiftCode,
			StoreID:        a.StoreID,
			Station:        a.Station,
			Message:        msg,
			Recommendation: rec,
		})
	}
	return out, nil
}

// checkRest flags the later assignment of each consecutive pair whose gap is
// below the full minimum rest requirement
func (v *Validator) checkRest(schedule *models.Schedule) ([]models.Violation, error) {
	var out []models.Violation
	need := v.Constraints.MinRestHours
	byEmp := schedule.ByEmployee()
	ids := make([]string, 0, len(byEmp))
	for id := range byEmp {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		list := byEmp[id]
		for i := 1; i < len(list); i++ {
			prev, next := list[i-1], list[i]
			_, prevEnd, err := models.Bounds(prev.Date, prev.Start, prev.End)
			if err != nil {
				return nil, fmt.Errorf("assignment %s on %s: %w", prev.EmployeeID, prev.Date, err)
			}
			nextStart, _, err := models.Bounds(next.Date, next.Start, next.End)
			if err != nil {
				return nil, fmt.Errorf("assignment %s on %s: %w", next.EmployeeID, next.Date, err)
			}
			gap := models.RestHours(prevEnd, nextStart)
			if gap >= need {
				continue
			}
			out = append(out, models.Violation{
				Kind:       models.KindRestPeriod,
				Severity:   models.SeverityCritical,
				EmployeeID: next.EmployeeID,
				Date:       next.Date,
				ShiftCode:  next.ShiftCode,
				StoreID:    next.StoreID,
				Station:    next.Station,
				Message: fmt.Sprintf("%s has only %.1f hours rest between %s (%s) and %s (%s); %.1fh required",
					next.EmployeeID, gap, prev.Date, prev.ShiftCode, next.Date, next.ShiftCode, need),
				Recommendation: fmt.Sprintf("Extend rest by reassigning the following-day shift on %s to a later start", next.Date),
			})
		}
	}
	return out, nil
}

func (v *Validator) checkManagers(schedule *models.Schedule) ([]models.Violation, error) {
	var out []models.Violation
	for key, list := range schedule.ByGroup() {
		covered := false
		for _, a := range list {
			if a.Manager {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		out = append(out, models.Violation{
			Kind:           models.KindManagerCoverage,
			Severity:       models.SeverityCritical,
			Date:           key.Date,
			StoreID:        key.StoreID,
			Station:        key.Station,
			Message:        fmt.Sprintf("No manager on duty at %s %s on %s", key.StoreID, key.Station, key.Date),
			Recommendation: fmt.Sprintf("Assign a manager-eligible employee to %s at %s on %s", key.Station, key.StoreID, key.Date),
		})
	}
	return out, nil
}

func (v *Validator) checkStations(schedule *models.Schedule) ([]models.Violation, error) {
	var out []models.Violation
	dates, err := models.HorizonDates(schedule.StartDate, schedule.HorizonDays)
	if err != nil {
		return nil, err
	}
	groups := schedule.ByGroup()
	for i := range v.Dataset.Stores {
		st := &v.Dataset.Stores[i]
		for _, date := range dates {
			for _, station := range st.StationsFor(date) {
				required := st.RequiredFor(date, station)
				assigned := len(groups[models.GroupKey{StoreID: st.StoreID, Date: date, Station: station}])
				if assigned >= required {
					continue
				}
				short := required - assigned
				sev := models.SeverityWarning
				if float64(short) > 0.5*float64(required) {
					sev = models.SeverityCritical
				}
				out = append(out, models.Violation{
					Kind:     models.KindStationCoverage,
					Severity: sev,
					Date:     date,
					StoreID:  st.StoreID,
					Station:  station,
					Message: fmt.Sprintf("%s %s on %s has %d of %d required staff (%d%% short)",
						st.StoreID, station, date, assigned, required, int(math.Round(100*float64(short)/float64(required)))),
					Recommendation: fmt.Sprintf("Add %d staff eligible for %s at %s on %s", short, station, st.StoreID, date),
				})
			}
		}
	}
	return out, nil
}
