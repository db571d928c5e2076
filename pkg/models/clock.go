package models

import (
	"fmt"
	"time"
)

// DateLayout is the layout of every date key in the data model
const DateLayout = "2006-01-02"

const minutesPerDay = 24 * 60

// ParseClock converts "HH:MM" into minutes after midnight
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// SpanMinutes returns start and end offsets in minutes from midnight of the
// start day. An end at or before the start crosses midnight.
func SpanMinutes(start, end string) (int, int, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, 0, err
	}
	if e <= s {
		e += minutesPerDay
	}
	return s, e, nil
}

// Contains reports whether the window fully covers [start, end) on the same date
func (w Window) Contains(start, end string) bool {
	ws, we, err := SpanMinutes(w.Start, w.End)
	if err != nil {
		return false
	}
	ss, se, err := SpanMinutes(start, end)
	if err != nil {
		return false
	}
	return ws <= ss && se <= we
}

// ParseDate parses a YYYY-MM-DD date in UTC
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// HorizonDates lists the consecutive dates of a planning horizon
func HorizonDates(start string, days int) ([]string, error) {
	d, err := ParseDate(start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	out := make([]string, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, d.AddDate(0, 0, i).Format(DateLayout))
	}
	return out, nil
}

// Bounds returns the absolute start and end instants of a shift worked on date
func Bounds(date, start, end string) (time.Time, time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	s, e, err := SpanMinutes(start, end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return d.Add(time.Duration(s) * time.Minute), d.Add(time.Duration(e) * time.Minute), nil
}

// RestHours returns the gap in hours between the end of one shift and the
// start of the next. The result is negative when the shifts overlap.
func RestHours(prevEnd, nextStart time.Time) float64 {
	return nextStart.Sub(prevEnd).Hours()
}

// Overlap checks if two time ranges overlap
func Overlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ISOWeek returns a "YYYY-Www" key for the week containing date
func ISOWeek(date string) string {
	d, err := ParseDate(date)
	if err != nil {
		return ""
	}
	y, w := d.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}
