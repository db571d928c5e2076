package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/arnavshah/roster-refiner/pkg/models"
	"github.com/arnavshah/roster-refiner/pkg/refinement"
)

// ErrRunNotFound is returned by GetRun for an unknown run ID
var ErrRunNotFound = errors.New("run not found")

// RunRecord represents the runs table
type RunRecord struct {
	ID                   string             `gorm:"primaryKey;size:36" json:"id"`
	DatasetName          string             `gorm:"index" json:"dataset_name"`
	State                string             `gorm:"not null" json:"state"`
	Reason               string             `json:"reason"`
	Iterations           int                `json:"iterations"`
	Status               string             `json:"status"`
	CoveragePercent      float64            `json:"coverage_percent"`
	ViolationCount       int                `json:"violation_count"`
	CriticalCount        int                `json:"critical_count"`
	FairnessScore        float64            `json:"fairness_score"`
	TotalShifts          int                `json:"total_shifts"`
	TotalHours           float64            `json:"total_hours"`
	PenaltyWeightedHours string             `json:"penalty_weighted_hours"`
	ElapsedMs            int64              `json:"elapsed_ms"`
	ResultJSON           string             `gorm:"type:text" json:"-"`
	DatasetJSON          string             `gorm:"type:text" json:"-"`
	CreatedAt            time.Time          `json:"created_at"`
	Assignments          []AssignmentRecord `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"assignments,omitempty"`
	Violations           []ViolationRecord  `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"violations,omitempty"`
}

// AssignmentRecord represents the run_assignments table
type AssignmentRecord struct {
	ID         uint    `gorm:"primaryKey" json:"-"`
	RunID      string  `gorm:"index;size:36;not null" json:"-"`
	Date       string  `gorm:"index" json:"date"`
	EmployeeID string  `gorm:"index" json:"employee_id"`
	Name       string  `json:"employee_name"`
	ShiftCode  string  `json:"shift_code"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
	StoreID    string  `json:"store_id"`
	Station    string  `json:"station"`
	Hours      float64 `json:"hours"`
	Manager    bool    `json:"manager"`
}

func (AssignmentRecord) TableName() string { return "run_assignments" }

// ViolationRecord represents the run_violations table
type ViolationRecord struct {
	ID             uint   `gorm:"primaryKey" json:"-"`
	RunID          string `gorm:"index;size:36;not null" json:"-"`
	Kind           string `gorm:"index" json:"kind"`
	Severity       string `json:"severity"`
	EmployeeID     string `json:"employee_id,omitempty"`
	Date           string `json:"date"`
	ShiftCode      string `json:"shift_code,omitempty"`
	StoreID        string `json:"store_id,omitempty"`
	Station        string `json:"station,omitempty"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`
}

func (ViolationRecord) TableName() string { return "run_violations" }

// Result decodes the stored run result
func (r *RunRecord) Result() (*refinement.Result, error) {
	var res refinement.Result
	if err := json.Unmarshal([]byte(r.ResultJSON), &res); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", r.ID, err)
	}
	return &res, nil
}

// Dataset decodes the dataset the run was generated from
func (r *RunRecord) Dataset() (*models.Dataset, error) {
	var ds models.Dataset
	if err := json.Unmarshal([]byte(r.DatasetJSON), &ds); err != nil {
		return nil, fmt.Errorf("decode dataset of run %s: %w", r.ID, err)
	}
	return &ds, nil
}

// SaveRun stores a finished run with its final assignments and violations
func (s *Store) SaveRun(ctx context.Context, ds *models.Dataset, res *refinement.Result) error {
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return err
	}
	datasetJSON, err := json.Marshal(ds)
	if err != nil {
		return err
	}
	rec := RunRecord{
		ID:          res.RunID,
		DatasetName: ds.Name,
		State:       string(res.State),
		Reason:      string(res.Reason),
		Iterations:  res.Iterations,
		ElapsedMs:   res.ElapsedTime.Milliseconds(),
		ResultJSON:  string(resultJSON),
		DatasetJSON: string(datasetJSON),
	}
	if r := res.Report; r != nil {
		rec.Status = string(r.Status)
		rec.CoveragePercent = r.CoveragePercent
		rec.ViolationCount = r.ViolationCount
		rec.CriticalCount = r.CriticalCount
		rec.FairnessScore = r.FairnessScore
		rec.TotalHours = r.TotalHours
		rec.PenaltyWeightedHours = r.PenaltyWeightedHours
	}
	if res.Schedule != nil {
		rec.TotalShifts = res.Schedule.Summary.TotalShifts
		for _, a := range res.Schedule.Assignments {
			rec.Assignments = append(rec.Assignments, AssignmentRecord{
				Date:       a.Date,
				EmployeeID: a.EmployeeID,
				Name:       a.EmployeeName,
				ShiftCode:  a.ShiftCode,
				Start:      a.Start,
				End:        a.End,
				StoreID:    a.StoreID,
				Station:    a.Station,
				Hours:      a.Hours,
				Manager:    a.Manager,
			})
		}
	}
	for _, v := range res.Violations {
		rec.Violations = append(rec.Violations, ViolationRecord{
			Kind:           string(v.Kind),
			Severity:       string(v.Severity),
			EmployeeID:     v.EmployeeID,
			Date:           v.Date,
			ShiftCode:      v.ShiftCode,
			StoreID:        v.StoreID,
			Station:        v.Station,
			Message:        v.Message,
			Recommendation: v.Recommendation,
		})
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rec).Error
	})
}

// GetRun loads a run with its assignments and violations
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	var rec RunRecord
	err := s.DB.WithContext(ctx).
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("date, store_id, station, employee_id") }).
		Preload("Violations", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ?", id).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRuns returns the most recent runs without their stored payloads
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 30
	}
	var runs []RunRecord
	err := s.DB.WithContext(ctx).
		Omit("result_json", "dataset_json").
		Order("created_at desc").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}
