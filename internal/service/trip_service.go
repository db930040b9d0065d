package service

import (
	"context"
	"strings"
	"time"

	"github.com/draymaster/trip-planner/internal/config"
	"github.com/draymaster/trip-planner/internal/domain"
	"github.com/draymaster/trip-planner/internal/eld"
	apperrors "github.com/draymaster/trip-planner/internal/errors"
	"github.com/draymaster/trip-planner/internal/hos"
	"github.com/draymaster/trip-planner/internal/kafka"
	"github.com/draymaster/trip-planner/internal/logger"
)

const maxLocationLength = 500

// Geocoder resolves addresses and serves autocomplete suggestions
type Geocoder interface {
	Geocode(ctx context.Context, query string) (domain.Coordinate, error)
	Autocomplete(ctx context.Context, query string, limit int) ([]domain.Coordinate, error)
}

// Router fetches driving routes between coordinate pairs
type Router interface {
	GetRoute(ctx context.Context, start, end domain.Coordinate) (*domain.Route, error)
}

// TripService plans HOS-compliant trips and generates ELD logs
type TripService struct {
	geocoder Geocoder
	router   Router
	planner  *hos.Planner
	rules    config.BusinessRules
	producer *kafka.Producer
	logger   *logger.Logger
}

// NewTripService creates a trip planning service. The producer may be nil
// when eventing is disabled.
func NewTripService(
	geocoder Geocoder,
	router Router,
	rules config.BusinessRules,
	producer *kafka.Producer,
	log *logger.Logger,
) *TripService {
	return &TripService{
		geocoder: geocoder,
		router:   router,
		planner:  hos.NewPlanner(rules),
		rules:    rules,
		producer: producer,
		logger:   log,
	}
}

// PlanTripInput contains the trip planning request
type PlanTripInput struct {
	CurrentLocation       string
	PickupLocation        string
	DropoffLocation       string
	CurrentCycleUsed      float64
	CurrentLocationCoords *domain.Coordinate
	PickupLocationCoords  *domain.Coordinate
	DropoffLocationCoords *domain.Coordinate
	StartTime             time.Time
}

// Validate checks the request fields before any external call is made
func (in *PlanTripInput) Validate() error {
	if strings.TrimSpace(in.CurrentLocation) == "" && in.CurrentLocationCoords == nil {
		return apperrors.ValidationError("current_location is required", "current_location", in.CurrentLocation)
	}
	if strings.TrimSpace(in.PickupLocation) == "" && in.PickupLocationCoords == nil {
		return apperrors.ValidationError("pickup_location is required", "pickup_location", in.PickupLocation)
	}
	if strings.TrimSpace(in.DropoffLocation) == "" && in.DropoffLocationCoords == nil {
		return apperrors.ValidationError("dropoff_location is required", "dropoff_location", in.DropoffLocation)
	}
	for field, value := range map[string]string{
		"current_location": in.CurrentLocation,
		"pickup_location":  in.PickupLocation,
		"dropoff_location": in.DropoffLocation,
	} {
		if len(value) > maxLocationLength {
			return apperrors.ValidationError("location exceeds maximum length", field, len(value))
		}
	}
	if in.CurrentCycleUsed < 0 || in.CurrentCycleUsed > 70 {
		return apperrors.ValidationError("current_cycle_used must be between 0 and 70", "current_cycle_used", in.CurrentCycleUsed)
	}
	return nil
}

// PlanTrip resolves the three endpoints, routes the two legs, plans the
// HOS-compliant segment timeline, and projects it onto daily ELD logs.
func (s *TripService) PlanTrip(ctx context.Context, input PlanTripInput) (*domain.TripPlan, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	currentLoc, err := s.resolveLocation(ctx, input.CurrentLocation, input.CurrentLocationCoords)
	if err != nil {
		return nil, err
	}
	pickupLoc, err := s.resolveLocation(ctx, input.PickupLocation, input.PickupLocationCoords)
	if err != nil {
		return nil, err
	}
	dropoffLoc, err := s.resolveLocation(ctx, input.DropoffLocation, input.DropoffLocationCoords)
	if err != nil {
		return nil, err
	}

	routeToPickup, err := s.router.GetRoute(ctx, currentLoc, pickupLoc)
	if err != nil {
		return nil, apperrors.ExternalServiceError("routing", err)
	}
	routeToDropoff, err := s.router.GetRoute(ctx, pickupLoc, dropoffLoc)
	if err != nil {
		return nil, apperrors.ExternalServiceError("routing", err)
	}

	legs := []domain.RouteLeg{
		{
			Start:         currentLoc,
			End:           pickupLoc,
			DistanceMiles: routeToPickup.DistanceMiles,
			DurationHours: routeToPickup.DurationHours,
			LegType:       domain.LegTypeDriveToPickup,
		},
		{
			Start:         pickupLoc,
			End:           dropoffLoc,
			DistanceMiles: routeToDropoff.DistanceMiles,
			DurationHours: routeToDropoff.DurationHours,
			LegType:       domain.LegTypeDriveToDropoff,
		},
	}

	segments := s.planner.PlanTrip(legs, input.CurrentCycleUsed, input.StartTime)
	eldLogs := eld.GenerateLogs(segments, nil)

	plan := s.assemblePlan(currentLoc, pickupLoc, dropoffLoc, routeToPickup, routeToDropoff, segments, eldLogs)

	s.logger.Infow("Trip planned",
		"total_miles", plan.TripSummary.TotalMiles,
		"driving_hours", plan.TripSummary.TotalDrivingHours,
		"stops", plan.TripSummary.NumberOfStops,
		"days", plan.TripSummary.NumberOfDays,
	)

	s.publishTripPlanned(ctx, plan)

	return plan, nil
}

// Autocomplete returns location suggestions for a partial query. Short
// queries and backend failures both yield an empty list.
func (s *TripService) Autocomplete(ctx context.Context, query string) []domain.Coordinate {
	query = strings.TrimSpace(query)
	if len(query) < 3 {
		return []domain.Coordinate{}
	}
	results, err := s.geocoder.Autocomplete(ctx, query, 5)
	if err != nil {
		s.logger.Warnw("Autocomplete failed", "query", query, "error", err)
		return []domain.Coordinate{}
	}
	if results == nil {
		results = []domain.Coordinate{}
	}
	return results
}

// resolveLocation prefers caller-supplied coordinates over geocoding
func (s *TripService) resolveLocation(ctx context.Context, address string, coords *domain.Coordinate) (domain.Coordinate, error) {
	if coords != nil {
		loc := *coords
		if loc.Name == "" {
			loc.Name = address
		}
		return loc, nil
	}
	loc, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return domain.Coordinate{}, err
	}
	if loc.Name == "" {
		loc.Name = address
	}
	return loc, nil
}

func (s *TripService) assemblePlan(
	currentLoc, pickupLoc, dropoffLoc domain.Coordinate,
	routeToPickup, routeToDropoff *domain.Route,
	segments []domain.Segment,
	eldLogs []domain.DailyLog,
) *domain.TripPlan {
	var stops []domain.Stop
	totalMiles := 0.0
	totalDrivingHours := 0.0

	for i := range segments {
		seg := &segments[i]
		if seg.Kind == domain.SegmentDrive {
			totalMiles += seg.DistanceMiles
			totalDrivingHours += seg.DurationHours()
			continue
		}
		if seg.Kind.IsStop() {
			stops = append(stops, domain.Stop{
				Type:          seg.Kind,
				Location:      seg.StartLocation,
				StartTime:     seg.StartTime.Format(time.RFC3339),
				EndTime:       seg.EndTime.Format(time.RFC3339),
				DurationHours: domain.Round(seg.DurationHours(), 2),
				Reason:        seg.Reason,
			})
		}
	}

	summary := domain.TripSummary{
		TotalMiles:        domain.Round(totalMiles, 1),
		TotalDrivingHours: domain.Round(totalDrivingHours, 2),
		NumberOfStops:     len(stops),
		NumberOfDays:      len(eldLogs),
	}
	if len(segments) > 0 {
		first, last := segments[0], segments[len(segments)-1]
		summary.TotalTripHours = domain.Round(last.EndTime.Sub(first.StartTime).Hours(), 2)
		summary.StartTime = first.StartTime.Format(time.RFC3339)
		summary.EndTime = last.EndTime.Format(time.RFC3339)
	}

	if stops == nil {
		stops = []domain.Stop{}
	}
	if segments == nil {
		segments = []domain.Segment{}
	}
	if eldLogs == nil {
		eldLogs = []domain.DailyLog{}
	}

	return &domain.TripPlan{
		TripSummary: summary,
		Locations: domain.TripLocations{
			Current: currentLoc,
			Pickup:  pickupLoc,
			Dropoff: dropoffLoc,
		},
		RouteGeometry: domain.RouteGeometry{
			ToPickup:  routeToPickup.Geometry,
			ToDropoff: routeToDropoff.Geometry,
		},
		Segments: segments,
		Stops:    stops,
		EldLogs:  eldLogs,
	}
}

// publishTripPlanned emits a best-effort trip.planned event
func (s *TripService) publishTripPlanned(ctx context.Context, plan *domain.TripPlan) {
	if s.producer == nil {
		return
	}
	event := kafka.NewEvent(kafka.Topics.TripPlanned, "trip-planner", map[string]interface{}{
		"total_miles":         plan.TripSummary.TotalMiles,
		"total_driving_hours": plan.TripSummary.TotalDrivingHours,
		"total_trip_hours":    plan.TripSummary.TotalTripHours,
		"number_of_stops":     plan.TripSummary.NumberOfStops,
		"number_of_days":      plan.TripSummary.NumberOfDays,
		"pickup":              plan.Locations.Pickup.Name,
		"dropoff":             plan.Locations.Dropoff.Name,
	})
	if err := s.producer.Publish(ctx, kafka.Topics.TripPlanned, event); err != nil {
		s.logger.Warnw("Failed to publish trip planned event", "error", err)
	}
}
