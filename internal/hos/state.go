package hos

import "github.com/draymaster/trip-planner/internal/config"

// State tracks the running HOS counters for one driver across a trip.
// All durations are hours. It is created once per trip, seeded with the
// on-duty hours already used in the current 8-day cycle, and mutated in
// place by the planner.
type State struct {
	DrivingHours    float64 // driving since last 10hr rest
	WindowHours     float64 // on-duty time since last 10hr rest (14hr window)
	HoursSinceBreak float64 // driving since last 30min+ off-duty interval
	CycleHours      float64 // on-duty time in the trailing 8-day cycle
	OnDuty          bool

	rules config.HOSRules
}

// NewState creates a ledger seeded with the cycle hours already consumed
func NewState(currentCycleUsed float64, rules config.HOSRules) *State {
	return &State{
		CycleHours: currentCycleUsed,
		rules:      rules,
	}
}

// RemainingDrivingNow returns the hours of driving left before any limit
// is hit, clamped at zero.
func (s *State) RemainingDrivingNow() float64 {
	byDriving := s.rules.MaxDrivingHours - s.DrivingHours
	byWindow := s.rules.MaxWindowHours - s.WindowHours
	byBreak := s.rules.BreakAfterHours - s.HoursSinceBreak
	byCycle := s.rules.MaxCycleHours - s.CycleHours
	return max0(min4(byDriving, byWindow, byBreak, byCycle))
}

// RemainingBeforeBreak returns driving hours left before the 30-min break is due
func (s *State) RemainingBeforeBreak() float64 {
	return max0(s.rules.BreakAfterHours - s.HoursSinceBreak)
}

// RemainingDriving returns hours left under the 11-hour driving limit
func (s *State) RemainingDriving() float64 {
	return max0(s.rules.MaxDrivingHours - s.DrivingHours)
}

// RemainingWindow returns hours left in the 14-hour on-duty window
func (s *State) RemainingWindow() float64 {
	return max0(s.rules.MaxWindowHours - s.WindowHours)
}

// RemainingCycle returns on-duty hours left in the 70-hour cycle
func (s *State) RemainingCycle() float64 {
	return max0(s.rules.MaxCycleHours - s.CycleHours)
}

// NeedsBreak reports whether the 8-hour driving trigger has been reached
func (s *State) NeedsBreak() bool {
	return s.HoursSinceBreak >= s.rules.BreakAfterHours
}

// NeedsRest reports whether the driving or window limit requires a 10-hour rest
func (s *State) NeedsRest() bool {
	return s.DrivingHours >= s.rules.MaxDrivingHours ||
		s.WindowHours >= s.rules.MaxWindowHours
}

// NeedsCycleReset reports whether the 70-hour cycle is exhausted
func (s *State) NeedsCycleReset() bool {
	return s.CycleHours >= s.rules.MaxCycleHours
}

// AddDriving accrues driving time against every counter
func (s *State) AddDriving(hours float64) {
	s.DrivingHours += hours
	s.WindowHours += hours
	s.HoursSinceBreak += hours
	s.CycleHours += hours
	s.OnDuty = true
}

// AddOnDuty accrues on-duty-not-driving time. It consumes the window and
// the cycle but not the driving or break counters.
func (s *State) AddOnDuty(hours float64) {
	s.WindowHours += hours
	s.CycleHours += hours
	s.OnDuty = true
}

// TakeBreak records a 30-minute-or-longer off-duty interval
func (s *State) TakeBreak() {
	s.HoursSinceBreak = 0
}

// TakeRest records a 10-hour off-duty reset
func (s *State) TakeRest() {
	s.DrivingHours = 0
	s.WindowHours = 0
	s.HoursSinceBreak = 0
	s.OnDuty = false
}

// TakeCycleRestart records a 34-hour restart, which also zeros the cycle
func (s *State) TakeCycleRestart() {
	s.TakeRest()
	s.CycleHours = 0
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func min4(a, b, c, d float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	if d < m {
		m = d
	}
	return m
}
