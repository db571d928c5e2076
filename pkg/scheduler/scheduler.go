package scheduler

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/arnavshah/roster-refiner/pkg/logger"
	"github.com/arnavshah/roster-refiner/pkg/models"
)

// DefaultBaseSeed is added to the iteration index to seed each generation
const DefaultBaseSeed int64 = 42

// Memory is the read-only view of refinement memory the generator consults
type Memory interface {
	IsBlacklisted(employeeID, date, shiftCode string) bool
	HadRestViolation(date string) bool
	PreferredCodes(employeeID string) []string
}

// UnfilledSlot records why a (store, date, station) slot stayed empty
type UnfilledSlot struct {
	StoreID string   `json:"store_id"`
	Date    string   `json:"date"`
	Station string   `json:"station"`
	Reasons []string `json:"reasons"`
}

// Scheduler generates candidate schedules from a dataset
type Scheduler struct {
	Dataset     *models.Dataset
	Constraints models.ConstraintSet
	BaseSeed    int64

	log     logger.Logger
	catalog []models.ShiftCode
	owners  map[string]string
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithLogger sets the logger used for skipped-candidate diagnostics
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) { s.log = logger.OrNop(l) }
}

// WithBaseSeed overrides DefaultBaseSeed
func WithBaseSeed(seed int64) Option {
	return func(s *Scheduler) { s.BaseSeed = seed }
}

// NewScheduler creates a new scheduler instance
func NewScheduler(ds *models.Dataset, constraints models.ConstraintSet, opts ...Option) *Scheduler {
	s := &Scheduler{
		Dataset:     ds,
		Constraints: constraints,
		BaseSeed:    DefaultBaseSeed,
		log:         logger.NopLogger{},
		catalog:     ds.ShiftCodes,
		owners:      make(map[string]string),
	}
	for _, st := range ds.Stores {
		for _, station := range st.ExclusiveStations {
			s.owners[station] = st.StoreID
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RestThreshold returns the minimum rest the generator enforces on an
// iteration. Early iterations are lenient; iteration 6 onwards uses the full
// requirement. No step ever exceeds the full requirement.
func RestThreshold(iteration int, fullRequirement float64) float64 {
	var step float64
	switch {
	case iteration <= 1:
		step = 7
	case iteration == 2:
		step = 8
	case iteration == 3:
		step = 8.5
	case iteration == 4:
		step = 9
	case iteration == 5:
		step = 9.5
	default:
		return fullRequirement
	}
	if step > fullRequirement {
		return fullRequirement
	}
	return step
}

type group struct {
	store    *models.StoreRequirement
	station  string
	required int
	filled   int
	dead     bool
	reasons  []string
}

func (g *group) remaining() int {
	return g.required - g.filled
}

// priority biases filling toward busier stores: the share of the group still
// open, scaled by the store's traffic weight
func (g *group) priority() float64 {
	return g.store.Weight() * float64(g.remaining()) / float64(g.required)
}

type candidate struct {
	emp  *models.Employee
	code models.ShiftCode
}

type skipCounts struct {
	booked      int
	unavailable int
	weeklyCap   int
	blacklisted int
	rest        int
	noCode      int
}

// run holds the state of one Generate call
type run struct {
	s         *Scheduler
	memory    Memory
	iteration int
	threshold float64
	schedule  *models.Schedule
	order     []*models.Employee
	hours     map[string]float64
	weekly    map[string]map[string]float64
	byEmp     map[string][]models.ShiftAssignment
	unfilled  []UnfilledSlot
}

// Generate builds the schedule for a 1-based iteration. Memory may be nil on
// the first iteration. Slots nobody can fill are left empty and returned
// alongside the schedule. Generate does not mutate the Scheduler, so one
// instance may serve concurrent calls.
func (s *Scheduler) Generate(memory Memory, iteration int) (*models.Schedule, []UnfilledSlot, error) {
	if iteration < 1 {
		return nil, nil, fmt.Errorf("iteration must be 1-based, got %d", iteration)
	}
	if len(s.catalog) == 0 {
		return nil, nil, errors.New("shift code catalog is empty")
	}
	dates, err := s.Dataset.Dates()
	if err != nil {
		return nil, nil, err
	}
	if memory == nil {
		memory = models.NewRefinementMemory()
	}

	r := &run{
		s:         s,
		memory:    memory,
		iteration: iteration,
		threshold: RestThreshold(iteration, s.Constraints.MinRestHours),
		schedule:  models.NewSchedule(s.Dataset.StartDate, s.Dataset.Days(), iteration),
		hours:     make(map[string]float64),
		weekly:    make(map[string]map[string]float64),
		byEmp:     make(map[string][]models.ShiftAssignment),
	}
	for i := range s.Dataset.Employees {
		r.order = append(r.order, &s.Dataset.Employees[i])
	}
	rng := rand.New(rand.NewSource(s.BaseSeed + int64(iteration)))
	rng.Shuffle(len(r.order), func(i, j int) {
		r.order[i], r.order[j] = r.order[j], r.order[i]
	})

	for _, date := range dates {
		if err := r.fillDay(date); err != nil {
			return nil, nil, err
		}
	}
	r.schedule.Finalize()

	s.log.Debugw("schedule generated", map[string]any{
		"iteration":  iteration,
		"threshold":  r.threshold,
		"assigned":   r.schedule.Summary.TotalShifts,
		"unfilled":   len(r.unfilled),
		"hours":      r.schedule.Summary.TotalHours,
		"blacklist":  blacklistSize(memory),
		"employees":  len(r.order),
		"horizon":    len(dates),
		"start_date": s.Dataset.StartDate,
	})
	return r.schedule, r.unfilled, nil
}

func blacklistSize(m Memory) int {
	if sized, ok := m.(interface{ BlacklistSize() int }); ok {
		return sized.BlacklistSize()
	}
	return -1
}

// fillDay reserves one manager per group first, then fills the remaining
// headcount one slot at a time in traffic-weighted order
func (r *run) fillDay(date string) error {
	var groups []*group
	for i := range r.s.Dataset.Stores {
		st := &r.s.Dataset.Stores[i]
		for _, station := range st.StationsFor(date) {
			if owner, ok := r.s.owners[station]; ok && owner != st.StoreID {
				continue
			}
			groups = append(groups, &group{store: st, station: station, required: st.RequiredFor(date, station)})
		}
	}
	if len(groups) == 0 {
		return nil
	}

	byWeight := append([]*group(nil), groups...)
	sort.SliceStable(byWeight, func(i, j int) bool {
		return byWeight[i].store.Weight() > byWeight[j].store.Weight()
	})
	for _, g := range byWeight {
		c, _ := r.pick(date, g, true)
		if c != nil {
			if err := r.assign(date, g, c); err != nil {
				return err
			}
		}
	}

	for {
		var next *group
		for _, g := range groups {
			if g.dead || g.remaining() <= 0 {
				continue
			}
			if next == nil || g.priority() > next.priority() {
				next = g
			}
		}
		if next == nil {
			break
		}
		c, counts := r.pick(date, next, false)
		if c == nil {
			next.dead = true
			next.reasons = counts.reasons()
			continue
		}
		if err := r.assign(date, next, c); err != nil {
			return err
		}
	}

	for _, g := range groups {
		if g.remaining() > 0 {
			reasons := g.reasons
			if len(reasons) == 0 {
				reasons = []string{"no eligible employees for this station"}
			}
			r.unfilled = append(r.unfilled, UnfilledSlot{
				StoreID: g.store.StoreID,
				Date:    date,
				Station: g.station,
				Reasons: reasons,
			})
		}
	}
	return nil
}

// pick walks employees in shuffled order and returns the eligible candidate
// with the fewest assigned hours. In the manager phase only managers qualify;
// otherwise non-managers are preferred over managers.
func (r *run) pick(date string, g *group, managersOnly bool) (*candidate, skipCounts) {
	var counts skipCounts
	var best, bestManager *candidate

	for _, emp := range r.order {
		if !emp.CanWork(g.station) {
			continue
		}
		if managersOnly && !emp.Manager {
			continue
		}
		code, ok := r.feasibleCode(emp, date, &counts)
		if !ok {
			continue
		}
		c := &candidate{emp: emp, code: code}
		if emp.Manager && !managersOnly {
			if bestManager == nil || r.hours[emp.ID] < r.hours[bestManager.emp.ID] {
				bestManager = c
			}
			continue
		}
		if best == nil || r.hours[emp.ID] < r.hours[best.emp.ID] {
			best = c
		}
	}
	if best == nil {
		best = bestManager
	}
	return best, counts
}

// feasibleCode returns the first shift code the employee can take on date,
// trying remembered preferences before catalog order
func (r *run) feasibleCode(emp *models.Employee, date string, counts *skipCounts) (models.ShiftCode, bool) {
	if _, booked := r.schedule.Lookup(emp.ID, date); booked {
		counts.booked++
		return models.ShiftCode{}, false
	}
	windows := emp.Availability[date]
	if len(windows) == 0 {
		counts.unavailable++
		return models.ShiftCode{}, false
	}

	week := models.ISOWeek(date)
	limit := r.s.Constraints.WeeklyCaps.For(emp.EmploymentType)

	var capped, blacklisted, rest bool
	for _, code := range r.codesFor(emp.ID) {
		hours := code.Duration()
		if !r.lengthAllowed(hours) || !fits(windows, code) {
			continue
		}
		if limit > 0 && r.weekly[emp.ID][week]+hours > limit {
			capped = true
			continue
		}
		if r.memory.IsBlacklisted(emp.ID, date, code.Code) {
			blacklisted = true
			continue
		}
		if !r.restAllows(emp.ID, date, code) {
			rest = true
			r.s.log.Debugf("skip %s on %s code %s: rest below %.1fh", emp.ID, date, code.Code, r.threshold)
			continue
		}
		return code, true
	}

	switch {
	case rest:
		counts.rest++
	case blacklisted:
		counts.blacklisted++
	case capped:
		counts.weeklyCap++
	default:
		counts.noCode++
	}
	return models.ShiftCode{}, false
}

func (r *run) codesFor(employeeID string) []models.ShiftCode {
	preferred := r.memory.PreferredCodes(employeeID)
	if len(preferred) == 0 {
		return r.s.catalog
	}
	out := make([]models.ShiftCode, 0, len(r.s.catalog))
	used := make(map[string]bool)
	for _, p := range preferred {
		for _, c := range r.s.catalog {
			if c.Code == p && !used[p] {
				out = append(out, c)
				used[p] = true
			}
		}
	}
	for _, c := range r.s.catalog {
		if !used[c.Code] {
			out = append(out, c)
		}
	}
	return out
}

func (r *run) lengthAllowed(hours float64) bool {
	c := r.s.Constraints
	if hours < c.MinShiftHours || hours > c.MaxShiftHours {
		return false
	}
	return c.MaxDailyHours <= 0 || hours <= c.MaxDailyHours
}

func fits(windows []models.Window, code models.ShiftCode) bool {
	for _, w := range windows {
		if w.Contains(code.Start, code.End) {
			return true
		}
	}
	return false
}

// restAllows checks the gap between the candidate shift and every shift the
// employee already holds. Pairs ending on a date with a remembered rest
// violation use the full requirement instead of the progressive threshold.
func (r *run) restAllows(employeeID, date string, code models.ShiftCode) bool {
	start, end, err := models.Bounds(date, code.Start, code.End)
	if err != nil {
		return false
	}
	for _, a := range r.byEmp[employeeID] {
		aStart, aEnd, err := models.Bounds(a.Date, a.Start, a.End)
		if err != nil {
			return false
		}
		if models.Overlap(aStart, aEnd, start, end) {
			return false
		}
		gap, later := models.RestHours(aEnd, start), date
		if aStart.After(start) {
			gap, later = models.RestHours(end, aStart), a.Date
		}
		need := r.threshold
		if r.memory.HadRestViolation(later) {
			need = r.s.Constraints.MinRestHours
		}
		if gap < need {
			return false
		}
	}
	return true
}

func (r *run) assign(date string, g *group, c *candidate) error {
	a := models.ShiftAssignment{
		EmployeeID:   c.emp.ID,
		EmployeeName: c.emp.Name,
		Employment:   c.emp.EmploymentType,
		Date:         date,
		ShiftCode:    c.code.Code,
		Start:        c.code.Start,
		End:          c.code.End,
		Station:      g.station,
		StoreID:      g.store.StoreID,
		Hours:        c.code.Duration(),
		Manager:      c.emp.Manager,
	}
	if err := r.schedule.Add(a); err != nil {
		return err
	}
	g.filled++
	r.hours[c.emp.ID] += a.Hours
	week := models.ISOWeek(date)
	if r.weekly[c.emp.ID] == nil {
		r.weekly[c.emp.ID] = make(map[string]float64)
	}
	r.weekly[c.emp.ID][week] += a.Hours
	r.byEmp[c.emp.ID] = append(r.byEmp[c.emp.ID], a)
	return nil
}

func (c skipCounts) reasons() []string {
	var reasons []string
	if c.booked > 0 {
		reasons = append(reasons, fmt.Sprintf("%d employees were already booked that day", c.booked))
	}
	if c.unavailable > 0 {
		reasons = append(reasons, fmt.Sprintf("%d employees were unavailable", c.unavailable))
	}
	if c.weeklyCap > 0 {
		reasons = append(reasons, fmt.Sprintf("%d employees were at their weekly hour cap", c.weeklyCap))
	}
	if c.blacklisted > 0 {
		reasons = append(reasons, fmt.Sprintf("%d employees only fit blacklisted shifts", c.blacklisted))
	}
	if c.rest > 0 {
		reasons = append(reasons, fmt.Sprintf("%d employees lacked the minimum rest", c.rest))
	}
	if c.noCode > 0 {
		reasons = append(reasons, fmt.Sprintf("%d employees had no shift code fitting their availability", c.noCode))
	}
	return reasons
}
