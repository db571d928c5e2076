package coverage

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/arnavshah/roster-refiner/pkg/models"
)

// DefaultMinCoverage is the coverage percentage required for approval
const DefaultMinCoverage = 80.0

// Reporter builds the final CoverageReport of a run
type Reporter struct {
	Dataset     *models.Dataset
	Constraints models.ConstraintSet
	MinCoverage float64
}

// NewReporter creates a Reporter. A non-positive minCoverage falls back to
// the constraint set's coverage target, then DefaultMinCoverage.
func NewReporter(ds *models.Dataset, constraints models.ConstraintSet, minCoverage float64) *Reporter {
	if minCoverage <= 0 {
		minCoverage = constraints.CoverageTarget
	}
	if minCoverage <= 0 {
		minCoverage = DefaultMinCoverage
	}
	return &Reporter{Dataset: ds, Constraints: constraints, MinCoverage: minCoverage}
}

// Estimate returns only the coverage percentage. The controller uses it for
// progress events and the early-stop check.
func (r *Reporter) Estimate(schedule *models.Schedule) float64 {
	checks := r.availability(schedule)
	filled, total, _ := tally(checks)
	return percent(filled, total)
}

// Report computes slot coverage, staffing adequacy, the status verdict and
// recommendations. It does not modify its inputs.
func (r *Reporter) Report(schedule *models.Schedule, violations []models.Violation) *models.CoverageReport {
	checks := r.availability(schedule)
	filled, total, mismatch := tally(checks)
	coverage := percent(filled, total)

	staffing, understaffed := r.staffing(schedule)
	critical := models.CountCritical(violations)

	status := models.StatusNeedsReview
	if len(violations) == 0 && coverage >= r.MinCoverage {
		status = models.StatusApproved
	}

	rep := &models.CoverageReport{
		Status:               status,
		CoveragePercent:      coverage,
		FilledSlots:          filled,
		TotalSlots:           total,
		MismatchSlots:        mismatch,
		ViolationCount:       len(violations),
		CriticalCount:        critical,
		FairnessScore:        r.fairness(schedule),
		TotalHours:           schedule.Summary.TotalHours,
		PenaltyWeightedHours: r.penaltyHours(schedule).StringFixed(2),
		Recommendations:      recommendations(understaffed, violations),
		Understaffed:         understaffed,
		Staffing:             staffing,
		Availability:         checks,
	}
	rep.Summary = fmt.Sprintf(
		"%d shifts (%.1f hours) across %d employees over %d days. Coverage %.2f%% (%d of %d availability slots). %d violations, %d critical, %d understaffed groups. Status: %s.",
		schedule.Summary.TotalShifts, schedule.Summary.TotalHours, schedule.Summary.EmployeesScheduled,
		schedule.HorizonDays, coverage, filled, total, len(violations), critical, len(understaffed), status,
	)
	return rep
}

// availability classifies every declared window in the horizon. A window is
// filled when the employee's assignment that day sits inside it; when the
// assignment fits none of the day's windows, each of them is a mismatch.
func (r *Reporter) availability(schedule *models.Schedule) []models.AvailabilityCheck {
	dates, err := models.HorizonDates(schedule.StartDate, schedule.HorizonDays)
	if err != nil {
		return []models.AvailabilityCheck{}
	}
	checks := []models.AvailabilityCheck{}
	for _, emp := range r.Dataset.Employees {
		for _, date := range dates {
			windows := emp.Availability[date]
			if len(windows) == 0 {
				continue
			}
			a, assigned := schedule.Lookup(emp.ID, date)
			used := -1
			if assigned {
				for i, w := range windows {
					if w.Contains(a.Start, a.End) {
						used = i
						break
					}
				}
			}
			for i, w := range windows {
				c := models.AvailabilityCheck{EmployeeID: emp.ID, Date: date, Window: w, Status: models.SlotUnfilled}
				switch {
				case i == used:
					c.Status = models.SlotFilled
					c.ShiftCode = a.ShiftCode
				case assigned && used < 0:
					c.Status = models.SlotMismatch
					c.ShiftCode = a.ShiftCode
				}
				checks = append(checks, c)
			}
		}
	}
	return checks
}

func tally(checks []models.AvailabilityCheck) (filled, total, mismatch int) {
	for _, c := range checks {
		total++
		switch c.Status {
		case models.SlotFilled:
			filled++
		case models.SlotMismatch:
			mismatch++
		}
	}
	return filled, total, mismatch
}

// percent rounds to two decimals and is 0 when there are no slots
func percent(filled, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(filled)/float64(total)*10000) / 100
}

func (r *Reporter) staffing(schedule *models.Schedule) ([]models.StaffingCheck, []models.StaffingCheck) {
	all := []models.StaffingCheck{}
	under := []models.StaffingCheck{}
	dates, err := models.HorizonDates(schedule.StartDate, schedule.HorizonDays)
	if err != nil {
		return all, under
	}
	groups := schedule.ByGroup()
	for _, date := range dates {
		for i := range r.Dataset.Stores {
			st := &r.Dataset.Stores[i]
			for _, station := range st.StationsFor(date) {
				c := models.StaffingCheck{
					StoreID:  st.StoreID,
					Date:     date,
					Station:  station,
					Required: st.RequiredFor(date, station),
					Assigned: len(groups[models.GroupKey{StoreID: st.StoreID, Date: date, Station: station}]),
					Status:   models.StaffingMet,
				}
				if c.Assigned < c.Required {
					c.Status = models.StaffingUnderstaffed
					under = append(under, c)
				}
				all = append(all, c)
			}
		}
	}
	return all, under
}

// recommendations lists understaffing suggestions first, then each
// violation's own recommendation, dropping exact repeats
func recommendations(understaffed []models.StaffingCheck, violations []models.Violation) []string {
	out := []string{}
	seen := make(map[string]bool)
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, u := range understaffed {
		add(fmt.Sprintf("%s %s on %s is short %d of %d staff: hire or cross-train for %s, or ask existing staff to expand availability",
			u.StoreID, u.Station, u.Date, u.Required-u.Assigned, u.Required, u.Station))
	}
	for _, v := range violations {
		add(v.Recommendation)
	}
	return out
}

// fairness returns a percentage (0-100) representing how evenly hours are
// spread across employees with any availability. 100% is perfectly fair.
func (r *Reporter) fairness(schedule *models.Schedule) float64 {
	hours := schedule.HoursByEmployee()
	var xs []float64
	for _, emp := range r.Dataset.Employees {
		if len(emp.Availability) == 0 {
			continue
		}
		xs = append(xs, hours[emp.ID])
	}
	if len(xs) == 0 {
		return 100
	}
	mean, std := stat.PopMeanStdDev(xs, nil)
	if mean == 0 {
		return 100
	}
	score := (1 - std/mean) * 100
	if score < 0 {
		return 0
	}
	return math.Round(score*100) / 100
}

// penaltyHours weights each assignment's hours by the day's penalty multiplier
func (r *Reporter) penaltyHours(schedule *models.Schedule) decimal.Decimal {
	total := decimal.Zero
	for _, a := range schedule.Assignments {
		rate := decimal.NewFromFloat(r.Constraints.Multiplier(a.Date))
		total = total.Add(decimal.NewFromFloat(a.Hours).Mul(rate))
	}
	return total
}
