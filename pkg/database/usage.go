package database

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailyUsage represents the daily_usage table
type DailyUsage struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Date            string `gorm:"uniqueIndex;not null" json:"date"`
	RunCount        int    `gorm:"default:0" json:"run_count"`
	TotalIterations int    `gorm:"default:0" json:"total_iterations"`
	TotalShifts     int    `gorm:"default:0" json:"total_shifts"`
	TotalViolations int    `gorm:"default:0" json:"total_violations"`
}

// UsageTotals sums a usage history
type UsageTotals struct {
	Runs       int64 `json:"runs"`
	Iterations int64 `json:"iterations"`
	Shifts     int64 `json:"shifts"`
	Violations int64 `json:"violations"`
}

// RecordUsage adds one run to the counters of date with a single upsert
func (s *Store) RecordUsage(ctx context.Context, date string, iterations, shifts, violations int) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"run_count":        gorm.Expr("run_count + ?", 1),
			"total_iterations": gorm.Expr("total_iterations + ?", iterations),
			"total_shifts":     gorm.Expr("total_shifts + ?", shifts),
			"total_violations": gorm.Expr("total_violations + ?", violations),
		}),
	}).Create(&DailyUsage{
		Date:            date,
		RunCount:        1,
		TotalIterations: iterations,
		TotalShifts:     shifts,
		TotalViolations: violations,
	}).Error
}

// UsageHistory returns the latest days of usage, newest first, with totals
func (s *Store) UsageHistory(ctx context.Context, days int) ([]DailyUsage, UsageTotals, error) {
	if days <= 0 {
		days = 30
	}
	var usage []DailyUsage
	if err := s.DB.WithContext(ctx).Order("date desc").Limit(days).Find(&usage).Error; err != nil {
		return nil, UsageTotals{}, err
	}
	var totals UsageTotals
	for _, u := range usage {
		totals.Runs += int64(u.RunCount)
		totals.Iterations += int64(u.TotalIterations)
		totals.Shifts += int64(u.TotalShifts)
		totals.Violations += int64(u.TotalViolations)
	}
	return usage, totals, nil
}
