package scheduler

import (
	"reflect"
	"sync"
	"testing"

	"github.com/arnavshah/roster-refiner/pkg/models"
)

var testCatalog = []models.ShiftCode{
	{Code: "EARLY", Start: "06:00", End: "14:00"},
	{Code: "DAY", Start: "09:00", End: "17:00"},
	{Code: "LATE", Start: "14:00", End: "22:00"},
}

func allDays(start string, days int, w models.Window) map[string][]models.Window {
	dates, _ := models.HorizonDates(start, days)
	out := make(map[string][]models.Window, len(dates))
	for _, d := range dates {
		out[d] = []models.Window{w}
	}
	return out
}

func newDataset(days int, employees []models.Employee, stores []models.StoreRequirement) *models.Dataset {
	return &models.Dataset{
		StartDate:   "2024-01-01",
		HorizonDays: days,
		Employees:   employees,
		Stores:      stores,
		ShiftCodes:  testCatalog,
	}
}

func TestRestThreshold(t *testing.T) {
	want := map[int]float64{1: 7, 2: 8, 3: 8.5, 4: 9, 5: 9.5, 6: 10, 7: 10, 12: 10}
	for it, exp := range want {
		if got := RestThreshold(it, 10); got != exp {
			t.Errorf("Expected threshold %.1f for iteration %d, got %.1f", exp, it, got)
		}
	}
	if got := RestThreshold(2, 6); got != 6 {
		t.Errorf("Expected threshold capped at 6, got %.1f", got)
	}
}

func TestGenerate_NoDoubleBooking(t *testing.T) {
	wide := models.Window{Start: "06:00", End: "22:00"}
	var employees []models.Employee
	for i, id := range []string{"e1", "e2", "e3", "e4", "e5", "e6"} {
		employees = append(employees, models.Employee{
			ID:             id,
			Name:           id,
			EmploymentType: models.Casual,
			Stations:       []string{"floor", "checkout"},
			Availability:   allDays("2024-01-01", 7, wide),
			Manager:        i%3 == 0,
		})
	}
	stores := []models.StoreRequirement{
		{StoreID: "s1", TrafficWeight: 2, Headcount: map[string]int{"floor": 2, "checkout": 1}},
		{StoreID: "s2", TrafficWeight: 1, Headcount: map[string]int{"floor": 1, "checkout": 1}},
	}
	ds := newDataset(7, employees, stores)
	s := NewScheduler(ds, models.DefaultConstraints())

	for it := 1; it <= 7; it++ {
		sched, _, err := s.Generate(nil, it)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		seen := make(map[string]bool)
		for _, a := range sched.Assignments {
			key := a.EmployeeID + a.Date
			if seen[key] {
				t.Fatalf("Employee %s double booked on %s", a.EmployeeID, a.Date)
			}
			seen[key] = true
		}
		for id, list := range sched.ByEmployee() {
			for i := 1; i < len(list); i++ {
				_, prevEnd, _ := models.Bounds(list[i-1].Date, list[i-1].Start, list[i-1].End)
				nextStart, _, _ := models.Bounds(list[i].Date, list[i].Start, list[i].End)
				if gap := models.RestHours(prevEnd, nextStart); gap < RestThreshold(it, 10) {
					t.Errorf("Iteration %d: employee %s rests only %.1fh", it, id, gap)
				}
			}
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	wide := models.Window{Start: "06:00", End: "22:00"}
	employees := []models.Employee{
		{ID: "e1", Stations: []string{"floor"}, Availability: allDays("2024-01-01", 3, wide), Manager: true},
		{ID: "e2", Stations: []string{"floor"}, Availability: allDays("2024-01-01", 3, wide)},
		{ID: "e3", Stations: []string{"floor"}, Availability: allDays("2024-01-01", 3, wide)},
		{ID: "e4", Stations: []string{"floor"}, Availability: allDays("2024-01-01", 3, wide)},
	}
	stores := []models.StoreRequirement{{StoreID: "s1", Headcount: map[string]int{"floor": 2}}}
	ds := newDataset(3, employees, stores)

	a, _, err := NewScheduler(ds, models.DefaultConstraints()).Generate(nil, 2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, _, err := NewScheduler(ds, models.DefaultConstraints()).Generate(nil, 2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !reflect.DeepEqual(a.Assignments, b.Assignments) {
		t.Errorf("Expected identical schedules for the same iteration")
	}
	if a.Summary.TotalShifts != 6 {
		t.Errorf("Expected 6 shifts, got %d", a.Summary.TotalShifts)
	}
}

func TestGenerate_ProgressiveRest(t *testing.T) {
	employees := []models.Employee{{
		ID:       "e1",
		Stations: []string{"floor"},
		Manager:  true,
		Availability: map[string][]models.Window{
			"2024-01-01": {{Start: "14:00", End: "22:00"}},
			"2024-01-02": {{Start: "06:00", End: "14:00"}},
		},
	}}
	stores := []models.StoreRequirement{{StoreID: "s1", Headcount: map[string]int{"floor": 1}}}
	ds := newDataset(2, employees, stores)
	s := NewScheduler(ds, models.DefaultConstraints())

	early, _, err := s.Generate(nil, 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if early.Summary.TotalShifts != 2 {
		t.Errorf("Expected 8h gap to pass the 7h threshold, got %d shifts", early.Summary.TotalShifts)
	}

	late, unfilled, err := s.Generate(nil, 6)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if late.Summary.TotalShifts != 1 {
		t.Errorf("Expected the 10h threshold to drop the second shift, got %d shifts", late.Summary.TotalShifts)
	}
	if len(unfilled) != 1 || unfilled[0].Date != "2024-01-02" {
		t.Errorf("Expected one unfilled slot on 2024-01-02, got %+v", unfilled)
	}

	mem := models.NewRefinementMemory()
	mem.AddRestViolation("2024-01-02")
	strict, _, err := s.Generate(mem, 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strict.Summary.TotalShifts != 1 {
		t.Errorf("Expected remembered rest date to use the full requirement, got %d shifts", strict.Summary.TotalShifts)
	}
}

func TestGenerate_SkipsBlacklisted(t *testing.T) {
	employees := []models.Employee{{
		ID:           "e1",
		Stations:     []string{"floor"},
		Manager:      true,
		Availability: allDays("2024-01-01", 1, models.Window{Start: "09:00", End: "17:00"}),
	}}
	stores := []models.StoreRequirement{{StoreID: "s1", Headcount: map[string]int{"floor": 1}}}
	s := NewScheduler(newDataset(1, employees, stores), models.DefaultConstraints())

	mem := models.NewRefinementMemory()
	mem.AddBlacklist("e1", "2024-01-01", "DAY")

	sched, unfilled, err := s.Generate(mem, 2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(sched.Assignments) != 0 {
		t.Errorf("Expected no assignment, got %d", len(sched.Assignments))
	}
	if len(unfilled) != 1 {
		t.Fatalf("Expected 1 unfilled slot, got %d", len(unfilled))
	}
	if got := unfilled[0].Reasons[0]; got != "1 employees only fit blacklisted shifts" {
		t.Errorf("Unexpected reason %q", got)
	}
}

func TestGenerate_PrefersRememberedCode(t *testing.T) {
	employees := []models.Employee{{
		ID:           "e1",
		Stations:     []string{"floor"},
		Manager:      true,
		Availability: allDays("2024-01-01", 1, models.Window{Start: "06:00", End: "22:00"}),
	}}
	stores := []models.StoreRequirement{{StoreID: "s1", Headcount: map[string]int{"floor": 1}}}
	s := NewScheduler(newDataset(1, employees, stores), models.DefaultConstraints())

	plain, _, err := s.Generate(nil, 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if plain.Assignments[0].ShiftCode != "EARLY" {
		t.Errorf("Expected catalog order to pick EARLY, got %s", plain.Assignments[0].ShiftCode)
	}

	mem := models.NewRefinementMemory()
	mem.AddPreference("e1", "LATE")
	preferred, _, err := s.Generate(mem, 2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if preferred.Assignments[0].ShiftCode != "LATE" {
		t.Errorf("Expected remembered preference LATE, got %s", preferred.Assignments[0].ShiftCode)
	}
}

func TestGenerate_ReservesManager(t *testing.T) {
	wide := models.Window{Start: "06:00", End: "22:00"}
	employees := []models.Employee{
		{ID: "e1", Stations: []string{"floor"}, Availability: allDays("2024-01-01", 1, wide)},
		{ID: "e2", Stations: []string{"floor"}, Availability: allDays("2024-01-01", 1, wide)},
		{ID: "e3", Stations: []string{"floor"}, Availability: allDays("2024-01-01", 1, wide), Manager: true},
	}
	stores := []models.StoreRequirement{{StoreID: "s1", Headcount: map[string]int{"floor": 2}}}
	s := NewScheduler(newDataset(1, employees, stores), models.DefaultConstraints())

	for it := 1; it <= 5; it++ {
		sched, _, err := s.Generate(nil, it)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		managers := 0
		for _, a := range sched.Assignments {
			if a.Manager {
				managers++
			}
		}
		if managers != 1 {
			t.Errorf("Iteration %d: expected exactly 1 manager, got %d", it, managers)
		}
	}
}

func TestGenerate_WeeklyCap(t *testing.T) {
	employees := []models.Employee{{
		ID:             "e1",
		EmploymentType: models.PartTime,
		Stations:       []string{"floor"},
		Manager:        true,
		Availability:   allDays("2024-01-01", 7, models.Window{Start: "09:00", End: "17:00"}),
	}}
	stores := []models.StoreRequirement{{StoreID: "s1", Headcount: map[string]int{"floor": 1}}}
	s := NewScheduler(newDataset(7, employees, stores), models.DefaultConstraints())

	sched, _, err := s.Generate(nil, 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if sched.Summary.TotalShifts != 3 {
		t.Errorf("Expected the 30h part-time cap to allow 3 shifts, got %d", sched.Summary.TotalShifts)
	}
	if sched.Summary.TotalHours != 24 {
		t.Errorf("Expected 24 hours, got %f", sched.Summary.TotalHours)
	}
}

func TestGenerate_TrafficWeight(t *testing.T) {
	employees := []models.Employee{{
		ID:           "e1",
		Stations:     []string{"floor"},
		Availability: allDays("2024-01-01", 1, models.Window{Start: "09:00", End: "17:00"}),
	}}
	stores := []models.StoreRequirement{
		{StoreID: "quiet", TrafficWeight: 0.5, Headcount: map[string]int{"floor": 1}},
		{StoreID: "busy", TrafficWeight: 3, Headcount: map[string]int{"floor": 1}},
	}
	s := NewScheduler(newDataset(1, employees, stores), models.DefaultConstraints())

	sched, _, err := s.Generate(nil, 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(sched.Assignments) != 1 || sched.Assignments[0].StoreID != "busy" {
		t.Errorf("Expected the only employee at the busy store, got %+v", sched.Assignments)
	}
}

func TestGenerate_ExclusiveStation(t *testing.T) {
	employees := []models.Employee{{
		ID:           "e1",
		Stations:     []string{"bakery"},
		Manager:      true,
		Availability: allDays("2024-01-01", 1, models.Window{Start: "06:00", End: "14:00"}),
	}}
	stores := []models.StoreRequirement{
		{StoreID: "s1", TrafficWeight: 5, Headcount: map[string]int{"bakery": 1}},
		{StoreID: "s2", Headcount: map[string]int{"bakery": 1}, ExclusiveStations: []string{"bakery"}},
	}
	s := NewScheduler(newDataset(1, employees, stores), models.DefaultConstraints())

	sched, _, err := s.Generate(nil, 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(sched.Assignments) != 1 || sched.Assignments[0].StoreID != "s2" {
		t.Errorf("Expected bakery staffed only at s2, got %+v", sched.Assignments)
	}
}

func TestGenerate_InvalidIteration(t *testing.T) {
	s := NewScheduler(newDataset(1, nil, nil), models.DefaultConstraints())
	if _, _, err := s.Generate(nil, 0); err == nil {
		t.Errorf("Expected error for iteration 0")
	}
}

func TestGenerate_ConcurrentCallsShareScheduler(t *testing.T) {
	employees := []models.Employee{{
		ID:           "e1",
		Stations:     []string{"floor"},
		Manager:      true,
		Availability: allDays("2024-01-01", 1, models.Window{Start: "09:00", End: "17:00"}),
	}}
	stores := []models.StoreRequirement{{StoreID: "s1", Headcount: map[string]int{"floor": 2}}}
	s := NewScheduler(newDataset(1, employees, stores), models.DefaultConstraints())

	const workers = 8
	results := make([][]UnfilledSlot, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i], errs[i] = s.Generate(nil, i+1)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("Generate failed: %v", errs[i])
		}
		if len(results[i]) != 1 || results[i][0].Station != "floor" {
			t.Errorf("Call %d: expected its own single unfilled floor slot, got %+v", i, results[i])
		}
	}
}
