package hos

import (
	"math"
	"time"

	"github.com/draymaster/trip-planner/internal/config"
	"github.com/draymaster/trip-planner/internal/domain"
)

// Reason strings are part of the wire contract; consumers match on them.
const (
	ReasonDriving      = "Driving"
	ReasonBreak        = "Required 30-minute break (8hr driving limit)"
	ReasonRest         = "Required 10-hour rest"
	ReasonRestDriving  = "Required 10-hour rest (driving/window limit)"
	ReasonCycleRestart = "Required 34-hour restart (70hr cycle limit)"
	ReasonFuel         = "Fuel stop"
	ReasonFuelBreak    = "Fuel stop + 30-minute break"
	ReasonPickup       = "Pickup - Loading"
	ReasonDropoff      = "Dropoff - Unloading"
)

// Planner produces an HOS-compliant segment timeline for a trip. It is
// deterministic and synchronous: given the same legs, cycle hours, and
// start time it always emits the same segments.
type Planner struct {
	rules config.BusinessRules
}

// NewPlanner creates a planner with the given rule set
func NewPlanner(rules config.BusinessRules) *Planner {
	return &Planner{rules: rules}
}

// PlanTrip walks the ordered route legs and emits a contiguous segment
// timeline: driving interleaved with required breaks, rests, and fuel
// stops, plus the 1-hour pickup and dropoff dock segments. A zero start
// time means "now", truncated to the minute.
func (p *Planner) PlanTrip(legs []domain.RouteLeg, currentCycleUsed float64, startTime time.Time) []domain.Segment {
	if startTime.IsZero() {
		startTime = time.Now().UTC().Truncate(time.Minute)
	}

	state := NewState(currentCycleUsed, p.rules.HOS)
	var segments []domain.Segment
	currentTime := startTime

	for _, leg := range legs {
		driveSegs := p.planDriving(state, currentTime, leg.Start, leg.End, leg.DistanceMiles)
		segments = append(segments, driveSegs...)
		if len(driveSegs) > 0 {
			currentTime = driveSegs[len(driveSegs)-1].EndTime
		}

		// On-duty dock work does not require a 30-minute break first,
		// but a driver out of driving, window or cycle hours must rest
		// before it.
		if rest := p.restBeforeDock(state, currentTime, leg.End); rest != nil {
			segments = append(segments, *rest)
			currentTime = rest.EndTime
		}

		var dock domain.Segment
		switch leg.LegType {
		case domain.LegTypeDriveToDropoff:
			dock = domain.Segment{
				Kind:          domain.SegmentDropoff,
				DutyStatus:    domain.DutyStatusOnDuty,
				StartTime:     currentTime,
				EndTime:       addHours(currentTime, p.rules.Stops.DropoffDurationHours),
				StartLocation: leg.End,
				EndLocation:   leg.End,
				Reason:        ReasonDropoff,
			}
			state.AddOnDuty(p.rules.Stops.DropoffDurationHours)
		default:
			dock = domain.Segment{
				Kind:          domain.SegmentPickup,
				DutyStatus:    domain.DutyStatusOnDuty,
				StartTime:     currentTime,
				EndTime:       addHours(currentTime, p.rules.Stops.PickupDurationHours),
				StartLocation: leg.End,
				EndLocation:   leg.End,
				Reason:        ReasonPickup,
			}
			state.AddOnDuty(p.rules.Stops.PickupDurationHours)
		}
		segments = append(segments, dock)
		currentTime = dock.EndTime
	}

	return segments
}

// restBeforeDock returns the rest segment the ledger demands before
// on-duty dock work, or nil when the driver may work immediately. The
// 34-hour restart supersedes the 10-hour rest when the cycle is also out.
func (p *Planner) restBeforeDock(state *State, t time.Time, loc domain.Coordinate) *domain.Segment {
	switch {
	case state.NeedsCycleReset():
		seg := p.offDutySegment(domain.SegmentRest, t, loc, p.rules.HOS.CycleRestartHours, ReasonCycleRestart)
		state.TakeCycleRestart()
		return &seg
	case state.NeedsRest():
		seg := p.offDutySegment(domain.SegmentRest, t, loc, p.rules.HOS.RestDurationHours, ReasonRest)
		state.TakeRest()
		return &seg
	}
	return nil
}

// planDriving emits the drive/break/rest/fuel chain that moves the driver
// from startLoc to endLoc without leaving any HOS limit exceeded.
func (p *Planner) planDriving(state *State, startTime time.Time, startLoc, endLoc domain.Coordinate, totalMiles float64) []domain.Segment {
	var segments []domain.Segment
	milesRemaining := totalMiles
	milesSinceFuel := 0.0
	currentTime := startTime
	speed := p.rules.HOS.AvgSpeedMPH

	for milesRemaining > 0.1 {
		driveLimit := state.RemainingDrivingNow()

		if driveLimit <= 0 {
			loc := Interpolate(startLoc, endLoc, fractionDone(milesRemaining, totalMiles))

			var interruption domain.Segment
			switch {
			case state.NeedsCycleReset():
				interruption = p.offDutySegment(domain.SegmentRest, currentTime, loc, p.rules.HOS.CycleRestartHours, ReasonCycleRestart)
				state.TakeCycleRestart()
			case state.NeedsBreak() && !state.NeedsRest():
				interruption = p.offDutySegment(domain.SegmentBreak, currentTime, loc, p.rules.HOS.BreakDurationHours, ReasonBreak)
				state.TakeBreak()
			default:
				interruption = p.offDutySegment(domain.SegmentRest, currentTime, loc, p.rules.HOS.RestDurationHours, ReasonRestDriving)
				state.TakeRest()
			}
			segments = append(segments, interruption)
			currentTime = interruption.EndTime
			continue
		}

		milesCanDrive := driveLimit * speed
		milesThisSegment := math.Min(milesRemaining, milesCanDrive)

		milesToFuel := p.rules.Fuel.IntervalMiles - milesSinceFuel
		if milesToFuel <= 0 {
			milesToFuel = p.rules.Fuel.IntervalMiles
		}
		needFuel := milesThisSegment >= milesToFuel && milesRemaining > milesToFuel
		if needFuel {
			milesThisSegment = milesToFuel
		}

		hoursThisSegment := milesThisSegment / speed

		// Carve the segment at the 30-minute break trigger when the
		// break would fall mid-segment.
		hoursToBreak := state.RemainingBeforeBreak()
		if hoursThisSegment > hoursToBreak && hoursToBreak > 0 {
			milesBeforeBreak := hoursToBreak * speed
			if milesBeforeBreak > 0.1 {
				drive := p.driveSegment(currentTime, startLoc, endLoc, milesRemaining, totalMiles, milesBeforeBreak, hoursToBreak)
				segments = append(segments, drive)
				state.AddDriving(hoursToBreak)
				milesRemaining -= milesBeforeBreak
				milesSinceFuel += milesBeforeBreak
				currentTime = drive.EndTime
			}

			loc := Interpolate(startLoc, endLoc, fractionDone(milesRemaining, totalMiles))

			var pause domain.Segment
			if needFuel && math.Abs(milesSinceFuel-p.rules.Fuel.IntervalMiles) < p.rules.Fuel.CombineWindowMiles {
				// The break lands close enough to the due fuel stop to
				// serve both at once.
				pause = p.offDutySegment(domain.SegmentFuel, currentTime, loc, p.rules.HOS.BreakDurationHours, ReasonFuelBreak)
				milesSinceFuel = 0
			} else {
				pause = p.offDutySegment(domain.SegmentBreak, currentTime, loc, p.rules.HOS.BreakDurationHours, ReasonBreak)
			}
			segments = append(segments, pause)
			state.TakeBreak()
			currentTime = pause.EndTime
			continue
		}

		drive := p.driveSegment(currentTime, startLoc, endLoc, milesRemaining, totalMiles, milesThisSegment, hoursThisSegment)
		segments = append(segments, drive)
		state.AddDriving(hoursThisSegment)
		milesRemaining -= milesThisSegment
		milesSinceFuel += milesThisSegment
		currentTime = drive.EndTime

		if needFuel && milesRemaining > 0.1 {
			fuel := domain.Segment{
				Kind:          domain.SegmentFuel,
				DutyStatus:    domain.DutyStatusOnDuty,
				StartTime:     currentTime,
				EndTime:       addHours(currentTime, p.rules.Fuel.StopDurationHours),
				StartLocation: drive.EndLocation,
				EndLocation:   drive.EndLocation,
				Reason:        ReasonFuel,
			}
			segments = append(segments, fuel)
			state.AddOnDuty(p.rules.Fuel.StopDurationHours)
			milesSinceFuel = 0
			currentTime = fuel.EndTime
		}
	}

	return segments
}

// driveSegment builds one drive segment positioned along the leg by the
// fraction of total distance covered before and after it.
func (p *Planner) driveSegment(start time.Time, startLoc, endLoc domain.Coordinate, milesRemaining, totalMiles, miles, hours float64) domain.Segment {
	fracStart := fractionDone(milesRemaining, totalMiles)
	fracEnd := 1.0
	if totalMiles > 0 {
		fracEnd = 1 - (milesRemaining-miles)/totalMiles
	}
	return domain.Segment{
		Kind:          domain.SegmentDrive,
		DutyStatus:    domain.DutyStatusDriving,
		StartTime:     start,
		EndTime:       addHours(start, hours),
		StartLocation: Interpolate(startLoc, endLoc, fracStart),
		EndLocation:   Interpolate(startLoc, endLoc, fracEnd),
		DistanceMiles: miles,
		Reason:        ReasonDriving,
	}
}

func (p *Planner) offDutySegment(kind domain.SegmentKind, start time.Time, loc domain.Coordinate, hours float64, reason string) domain.Segment {
	return domain.Segment{
		Kind:          kind,
		DutyStatus:    domain.DutyStatusOffDuty,
		StartTime:     start,
		EndTime:       addHours(start, hours),
		StartLocation: loc,
		EndLocation:   loc,
		Reason:        reason,
	}
}

func fractionDone(milesRemaining, totalMiles float64) float64 {
	if totalMiles <= 0 {
		return 0
	}
	return 1 - milesRemaining/totalMiles
}

func addHours(t time.Time, hours float64) time.Time {
	return t.Add(time.Duration(hours * float64(time.Hour)))
}
