package hos

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/draymaster/trip-planner/internal/config"
	"github.com/draymaster/trip-planner/internal/domain"
)

var (
	chicago = domain.Coordinate{Lat: 41.8781, Lng: -87.6298, Name: "Chicago, IL"}
	stLouis = domain.Coordinate{Lat: 38.627, Lng: -90.1994, Name: "St. Louis, MO"}
	dallas  = domain.Coordinate{Lat: 32.7767, Lng: -96.797, Name: "Dallas, TX"}
)

func testStart() time.Time {
	return time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)
}

func planLeg(t *testing.T, miles, cycleUsed float64) []domain.Segment {
	t.Helper()
	p := NewPlanner(config.DefaultBusinessRules())
	legs := []domain.RouteLeg{{
		Start:         chicago,
		End:           stLouis,
		DistanceMiles: miles,
		LegType:       domain.LegTypeDriveToDropoff,
	}}
	return p.PlanTrip(legs, cycleUsed, testStart())
}

// checkTimeline asserts contiguity and monotonic time over the whole plan
func checkTimeline(t *testing.T, segments []domain.Segment) {
	t.Helper()
	for i := range segments {
		if !segments[i].StartTime.Before(segments[i].EndTime) {
			t.Errorf("segment %d: start %v not before end %v", i, segments[i].StartTime, segments[i].EndTime)
		}
		if i > 0 && !segments[i].StartTime.Equal(segments[i-1].EndTime) {
			t.Errorf("segment %d: start %v != previous end %v", i, segments[i].StartTime, segments[i-1].EndTime)
		}
	}
}

// checkLedgerCompliance replays the timeline through a fresh ledger and
// asserts no limit is exceeded right after any drive segment.
func checkLedgerCompliance(t *testing.T, segments []domain.Segment, cycleUsed float64) {
	t.Helper()
	rules := config.DefaultBusinessRules()
	state := NewState(cycleUsed, rules.HOS)

	for i := range segments {
		seg := &segments[i]
		hours := seg.DurationHours()
		switch seg.DutyStatus {
		case domain.DutyStatusDriving:
			state.AddDriving(hours)
			if state.DrivingHours > rules.HOS.MaxDrivingHours+1e-6 {
				t.Errorf("segment %d: driving hours %v exceed limit", i, state.DrivingHours)
			}
			if state.WindowHours > rules.HOS.MaxWindowHours+1e-6 {
				t.Errorf("segment %d: window hours %v exceed limit", i, state.WindowHours)
			}
			if state.HoursSinceBreak > rules.HOS.BreakAfterHours+1e-6 {
				t.Errorf("segment %d: hours since break %v exceed limit", i, state.HoursSinceBreak)
			}
			if state.CycleHours > rules.HOS.MaxCycleHours+1e-6 {
				t.Errorf("segment %d: cycle hours %v exceed limit", i, state.CycleHours)
			}
		case domain.DutyStatusOnDuty:
			state.AddOnDuty(hours)
		case domain.DutyStatusOffDuty, domain.DutyStatusSleeper:
			switch {
			case hours >= rules.HOS.CycleRestartHours:
				state.TakeCycleRestart()
			case hours >= rules.HOS.RestDurationHours:
				state.TakeRest()
			case hours >= rules.HOS.BreakDurationHours:
				state.TakeBreak()
			}
		}
	}
}

func driveMiles(segments []domain.Segment) float64 {
	total := 0.0
	for i := range segments {
		if segments[i].Kind == domain.SegmentDrive {
			total += segments[i].DistanceMiles
		}
	}
	return total
}

func kinds(segments []domain.Segment) []domain.SegmentKind {
	out := make([]domain.SegmentKind, len(segments))
	for i := range segments {
		out[i] = segments[i].Kind
	}
	return out
}

func TestShortTripNoInterruptions(t *testing.T) {
	p := NewPlanner(config.DefaultBusinessRules())
	legs := []domain.RouteLeg{
		{Start: chicago, End: stLouis, DistanceMiles: 200, LegType: domain.LegTypeDriveToPickup},
		{Start: stLouis, End: dallas, DistanceMiles: 200, LegType: domain.LegTypeDriveToDropoff},
	}
	segments := p.PlanTrip(legs, 0, testStart())

	checkTimeline(t, segments)
	checkLedgerCompliance(t, segments, 0)

	got := kinds(segments)
	want := []domain.SegmentKind{domain.SegmentDrive, domain.SegmentPickup, domain.SegmentDrive, domain.SegmentDropoff}
	if len(got) != len(want) {
		t.Fatalf("segment kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("segment kinds = %v, want %v", got, want)
		}
	}

	// 200 miles at 55 mph
	wantHours := 200.0 / 55.0
	if h := segments[0].DurationHours(); math.Abs(h-wantHours) > 0.001 {
		t.Errorf("first drive duration = %v, want %v", h, wantHours)
	}
	if segments[1].Reason != ReasonPickup {
		t.Errorf("pickup reason = %q, want %q", segments[1].Reason, ReasonPickup)
	}
	if segments[3].Reason != ReasonDropoff {
		t.Errorf("dropoff reason = %q, want %q", segments[3].Reason, ReasonDropoff)
	}
}

func TestBreakInsertedAfterEightHours(t *testing.T) {
	segments := planLeg(t, 500, 0)

	checkTimeline(t, segments)
	checkLedgerCompliance(t, segments, 0)

	if math.Abs(driveMiles(segments)-500) > 0.5 {
		t.Errorf("total drive miles = %v, want 500", driveMiles(segments))
	}

	var breakSeg *domain.Segment
	milesBefore := 0.0
	for i := range segments {
		if segments[i].Kind == domain.SegmentBreak {
			breakSeg = &segments[i]
			break
		}
		if segments[i].Kind == domain.SegmentDrive {
			milesBefore += segments[i].DistanceMiles
		}
	}
	if breakSeg == nil {
		t.Fatal("no break segment in a 500-mile leg")
	}
	if !strings.Contains(breakSeg.Reason, "30-minute break") {
		t.Errorf("break reason = %q", breakSeg.Reason)
	}
	if breakSeg.DutyStatus != domain.DutyStatusOffDuty {
		t.Errorf("break duty status = %q, want off_duty", breakSeg.DutyStatus)
	}
	// Break is due after exactly 8 hours of driving: 440 miles at 55 mph
	if math.Abs(milesBefore-440) > 1 {
		t.Errorf("miles before break = %v, want 440", milesBefore)
	}
	if h := breakSeg.DurationHours(); math.Abs(h-0.5) > 0.001 {
		t.Errorf("break duration = %v, want 0.5", h)
	}
}

func TestRestInsertedAtDrivingLimit(t *testing.T) {
	segments := planLeg(t, 700, 0)

	checkTimeline(t, segments)
	checkLedgerCompliance(t, segments, 0)

	if math.Abs(driveMiles(segments)-700) > 0.5 {
		t.Errorf("total drive miles = %v, want 700", driveMiles(segments))
	}

	sawBreak := false
	var restSeg *domain.Segment
	milesBefore := 0.0
	for i := range segments {
		switch segments[i].Kind {
		case domain.SegmentBreak:
			sawBreak = true
		case domain.SegmentRest:
			restSeg = &segments[i]
		case domain.SegmentDrive:
			if restSeg == nil {
				milesBefore += segments[i].DistanceMiles
			}
		}
	}
	if restSeg == nil {
		t.Fatal("no rest segment in a 700-mile leg")
	}
	if !sawBreak {
		t.Error("expected a 30-minute break before the rest")
	}
	if restSeg.Reason != ReasonRestDriving {
		t.Errorf("rest reason = %q, want %q", restSeg.Reason, ReasonRestDriving)
	}
	if h := restSeg.DurationHours(); math.Abs(h-10) > 0.001 {
		t.Errorf("rest duration = %v, want 10", h)
	}
	// Rest is due once 11 driving hours accrue: 605 miles at 55 mph
	if math.Abs(milesBefore-605) > 1 {
		t.Errorf("miles before rest = %v, want 605", milesBefore)
	}
}

func TestFuelCadence(t *testing.T) {
	segments := planLeg(t, 2300, 0)

	checkTimeline(t, segments)
	checkLedgerCompliance(t, segments, 0)

	if math.Abs(driveMiles(segments)-2300) > 0.5 {
		t.Errorf("total drive miles = %v, want 2300", driveMiles(segments))
	}

	var fuelAt []float64
	miles := 0.0
	for i := range segments {
		if segments[i].Kind == domain.SegmentDrive {
			miles += segments[i].DistanceMiles
		}
		if segments[i].Kind == domain.SegmentFuel {
			fuelAt = append(fuelAt, miles)
		}
	}
	if len(fuelAt) < 2 {
		t.Fatalf("fuel stops = %d, want at least 2", len(fuelAt))
	}
	if math.Abs(fuelAt[0]-1000) > 100 {
		t.Errorf("first fuel stop at %v miles, want ~1000", fuelAt[0])
	}
	if math.Abs(fuelAt[1]-2000) > 100 {
		t.Errorf("second fuel stop at %v miles, want ~2000", fuelAt[1])
	}

	// No drive chain may exceed the fuel interval plus the combine window
	sinceFuel := 0.0
	for i := range segments {
		switch segments[i].Kind {
		case domain.SegmentDrive:
			sinceFuel += segments[i].DistanceMiles
			if sinceFuel > 1100 {
				t.Fatalf("drove %v miles without a fuel stop", sinceFuel)
			}
		case domain.SegmentFuel:
			sinceFuel = 0
		}
	}
}

func TestCycleExhaustionTriggersRestart(t *testing.T) {
	segments := planLeg(t, 200, 69)

	checkTimeline(t, segments)
	checkLedgerCompliance(t, segments, 69)

	var restart *domain.Segment
	for i := range segments {
		if segments[i].Kind == domain.SegmentRest && segments[i].DurationHours() > 30 {
			restart = &segments[i]
			break
		}
	}
	if restart == nil {
		t.Fatal("no 34-hour restart in plan with 69 cycle hours used")
	}
	if !strings.Contains(restart.Reason, "70hr cycle") {
		t.Errorf("restart reason = %q", restart.Reason)
	}
	if h := restart.DurationHours(); math.Abs(h-34) > 0.001 {
		t.Errorf("restart duration = %v, want 34", h)
	}
	if math.Abs(driveMiles(segments)-200) > 0.5 {
		t.Errorf("total drive miles = %v, want 200", driveMiles(segments))
	}
}

func TestZeroDistanceLegEmitsOnlyDockWork(t *testing.T) {
	p := NewPlanner(config.DefaultBusinessRules())
	legs := []domain.RouteLeg{{
		Start:         chicago,
		End:           chicago,
		DistanceMiles: 0,
		LegType:       domain.LegTypeDriveToPickup,
	}}
	segments := p.PlanTrip(legs, 0, testStart())

	if len(segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(segments))
	}
	if segments[0].Kind != domain.SegmentPickup {
		t.Errorf("kind = %q, want pickup", segments[0].Kind)
	}
	if !segments[0].StartTime.Equal(testStart()) {
		t.Errorf("pickup starts %v, want %v", segments[0].StartTime, testStart())
	}
}

func TestRestBeforeDockWork(t *testing.T) {
	// 605 miles exhausts the 11-hour driving limit exactly at the dock, so
	// a 10-hour rest must precede the dropoff.
	segments := planLeg(t, 605, 0)

	checkTimeline(t, segments)

	last := segments[len(segments)-1]
	if last.Kind != domain.SegmentDropoff {
		t.Fatalf("last segment = %q, want dropoff", last.Kind)
	}
	beforeDock := segments[len(segments)-2]
	if beforeDock.Kind != domain.SegmentRest {
		t.Fatalf("segment before dropoff = %q, want rest", beforeDock.Kind)
	}
	if beforeDock.Reason != ReasonRest {
		t.Errorf("pre-dock rest reason = %q, want %q", beforeDock.Reason, ReasonRest)
	}
}

func TestInterruptionLocationsAlongLeg(t *testing.T) {
	segments := planLeg(t, 500, 0)

	for i := range segments {
		seg := &segments[i]
		if seg.Kind == domain.SegmentDrive {
			continue
		}
		if seg.StartLocation != seg.EndLocation {
			t.Errorf("segment %d (%s): stop locations differ", i, seg.Kind)
		}
		if seg.DistanceMiles != 0 {
			t.Errorf("segment %d (%s): distance = %v, want 0", i, seg.Kind, seg.DistanceMiles)
		}
	}

	// The break at 440 miles sits 88% of the way along the leg
	for i := range segments {
		if segments[i].Kind == domain.SegmentBreak {
			wantLat := chicago.Lat + (stLouis.Lat-chicago.Lat)*0.88
			if math.Abs(segments[i].StartLocation.Lat-wantLat) > 0.01 {
				t.Errorf("break latitude = %v, want ~%v", segments[i].StartLocation.Lat, wantLat)
			}
		}
	}
}

func TestDefaultStartTimeIsMinuteAligned(t *testing.T) {
	p := NewPlanner(config.DefaultBusinessRules())
	legs := []domain.RouteLeg{{
		Start:         chicago,
		End:           stLouis,
		DistanceMiles: 50,
		LegType:       domain.LegTypeDriveToDropoff,
	}}
	segments := p.PlanTrip(legs, 0, time.Time{})

	if len(segments) == 0 {
		t.Fatal("no segments planned")
	}
	start := segments[0].StartTime
	if start.Second() != 0 || start.Nanosecond() != 0 {
		t.Errorf("default start %v is not minute-aligned", start)
	}
}
