package models

import "time"

// WeeklyCaps limits hours per ISO week by employment type; zero disables a cap
type WeeklyCaps struct {
	FullTime float64 `json:"full_time" yaml:"full_time"`
	PartTime float64 `json:"part_time" yaml:"part_time"`
	Casual   float64 `json:"casual" yaml:"casual"`
}

// For returns the cap that applies to an employment type
func (w WeeklyCaps) For(t EmploymentType) float64 {
	switch t {
	case FullTime:
		return w.FullTime
	case PartTime:
		return w.PartTime
	case Casual:
		return w.Casual
	}
	return 0
}

// PenaltyRates are pay multipliers for weekend and public holiday work
type PenaltyRates struct {
	Saturday      float64 `json:"saturday" yaml:"saturday"`
	Sunday        float64 `json:"sunday" yaml:"sunday"`
	PublicHoliday float64 `json:"public_holiday" yaml:"public_holiday"`
}

// ConstraintSet is the frozen rule bundle consumed by the generator,
// validator and reporter
type ConstraintSet struct {
	MinShiftHours  float64      `json:"min_shift_hours" yaml:"min_shift_hours"`
	MaxShiftHours  float64      `json:"max_shift_hours" yaml:"max_shift_hours"`
	MinRestHours   float64      `json:"min_rest_hours" yaml:"min_rest_hours"`
	MaxDailyHours  float64      `json:"max_daily_hours" yaml:"max_daily_hours"`
	WeeklyCaps     WeeklyCaps   `json:"weekly_caps" yaml:"weekly_caps"`
	CoverageTarget float64      `json:"coverage_target" yaml:"coverage_target"`
	Penalties      PenaltyRates `json:"penalties" yaml:"penalties"`
	PublicHolidays []string     `json:"public_holidays" yaml:"public_holidays"`
}

// DefaultConstraints returns the standard retail award rules
func DefaultConstraints() ConstraintSet {
	return ConstraintSet{
		MinShiftHours:  3,
		MaxShiftHours:  12,
		MinRestHours:   10,
		MaxDailyHours:  12,
		WeeklyCaps:     WeeklyCaps{FullTime: 38, PartTime: 30, Casual: 40},
		CoverageTarget: 80,
		Penalties:      PenaltyRates{Saturday: 1.25, Sunday: 1.5, PublicHoliday: 2.25},
		PublicHolidays: []string{},
	}
}

// SetDefaults fills unset fields from DefaultConstraints. Weekly caps are
// only filled when none is set, so a single zero cap stays disabled.
func (c *ConstraintSet) SetDefaults() {
	d := DefaultConstraints()
	if c.MinShiftHours == 0 {
		c.MinShiftHours = d.MinShiftHours
	}
	if c.MaxShiftHours == 0 {
		c.MaxShiftHours = d.MaxShiftHours
	}
	if c.MinRestHours == 0 {
		c.MinRestHours = d.MinRestHours
	}
	if c.MaxDailyHours == 0 {
		c.MaxDailyHours = d.MaxDailyHours
	}
	if c.WeeklyCaps == (WeeklyCaps{}) {
		c.WeeklyCaps = d.WeeklyCaps
	}
	if c.CoverageTarget == 0 {
		c.CoverageTarget = d.CoverageTarget
	}
	if c.Penalties == (PenaltyRates{}) {
		c.Penalties = d.Penalties
	}
	if c.PublicHolidays == nil {
		c.PublicHolidays = []string{}
	}
}

// Validate checks the constraint set for internal consistency
func (c ConstraintSet) Validate() error {
	if c.MinShiftHours <= 0 {
		return configErrorf("constraints.min_shift_hours", "must be positive, got %g", c.MinShiftHours)
	}
	if c.MaxShiftHours < c.MinShiftHours {
		return configErrorf("constraints.max_shift_hours", "%g is below min_shift_hours %g", c.MaxShiftHours, c.MinShiftHours)
	}
	if c.MaxShiftHours > 24 {
		return configErrorf("constraints.max_shift_hours", "cannot exceed 24, got %g", c.MaxShiftHours)
	}
	if c.MinRestHours < 0 {
		return configErrorf("constraints.min_rest_hours", "cannot be negative, got %g", c.MinRestHours)
	}
	if c.MaxDailyHours < 0 {
		return configErrorf("constraints.max_daily_hours", "cannot be negative, got %g", c.MaxDailyHours)
	}
	if c.WeeklyCaps.FullTime < 0 || c.WeeklyCaps.PartTime < 0 || c.WeeklyCaps.Casual < 0 {
		return configErrorf("constraints.weekly_caps", "caps cannot be negative")
	}
	if c.CoverageTarget < 0 || c.CoverageTarget > 100 {
		return configErrorf("constraints.coverage_target", "must be within [0, 100], got %g", c.CoverageTarget)
	}
	if c.Penalties.Saturday < 0 || c.Penalties.Sunday < 0 || c.Penalties.PublicHoliday < 0 {
		return configErrorf("constraints.penalties", "multipliers cannot be negative")
	}
	for _, d := range c.PublicHolidays {
		if _, err := ParseDate(d); err != nil {
			return configErrorf("constraints.public_holidays", "%q is not a YYYY-MM-DD date", d)
		}
	}
	return nil
}

// IsPublicHoliday reports whether date is listed as a public holiday
func (c ConstraintSet) IsPublicHoliday(date string) bool {
	for _, d := range c.PublicHolidays {
		if d == date {
			return true
		}
	}
	return false
}

// Multiplier returns the penalty multiplier for work on date. Public holidays
// take precedence over weekends; ordinary days and unset rates yield 1.
func (c ConstraintSet) Multiplier(date string) float64 {
	rate := 0.0
	if c.IsPublicHoliday(date) {
		rate = c.Penalties.PublicHoliday
	} else if d, err := ParseDate(date); err == nil {
		switch d.Weekday() {
		case time.Saturday:
			rate = c.Penalties.Saturday
		case time.Sunday:
			rate = c.Penalties.Sunday
		}
	}
	if rate <= 0 {
		return 1
	}
	return rate
}
