package config

// BusinessRules contains the regulatory and operational rules the planner
// enforces. FMCSA property-carrying driver limits, 70hr/8day cycle.
type BusinessRules struct {
	HOS   HOSRules
	Fuel  FuelRules
	Stops StopRules
}

// HOSRules contains the federal Hours-of-Service limits
type HOSRules struct {
	MaxDrivingHours    float64 // 11-hour driving limit after 10hr off duty
	MaxWindowHours     float64 // 14-hour on-duty window
	BreakAfterHours    float64 // driving hours that trigger the 30-min break
	BreakDurationHours float64 // duration of the required break
	RestDurationHours  float64 // 10-hour off-duty reset
	CycleRestartHours  float64 // 34-hour restart to reset the cycle
	MaxCycleHours      float64 // 70-hour/8-day on-duty cycle
	AvgSpeedMPH        float64 // planning speed for distance/time conversion
}

// FuelRules contains fuel stop planning configuration. CombineWindowMiles
// is how close (in miles) to a due fuel stop a required break must land
// for the two to be served as one stop.
type FuelRules struct {
	IntervalMiles      float64 // fuel stop every N miles
	StopDurationHours  float64
	CombineWindowMiles float64
}

// StopRules contains dock time configuration
type StopRules struct {
	PickupDurationHours  float64
	DropoffDurationHours float64
}

// DefaultBusinessRules returns the standard rule set for property-carrying
// drivers with no adverse-condition or short-haul exceptions.
func DefaultBusinessRules() BusinessRules {
	return BusinessRules{
		HOS: HOSRules{
			MaxDrivingHours:    11.0,
			MaxWindowHours:     14.0,
			BreakAfterHours:    8.0,
			BreakDurationHours: 0.5,
			RestDurationHours:  10.0,
			CycleRestartHours:  34.0,
			MaxCycleHours:      70.0,
			AvgSpeedMPH:        55.0,
		},
		Fuel: FuelRules{
			IntervalMiles:      1000.0,
			StopDurationHours:  0.5,
			CombineWindowMiles: 100.0,
		},
		Stops: StopRules{
			PickupDurationHours:  1.0,
			DropoffDurationHours: 1.0,
		},
	}
}
