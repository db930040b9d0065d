// Package route integrates with external geocoding and road-routing
// services. Routing tries OSRM first, then OpenRouteService when an API
// key is configured, and falls back to straight-line estimation so trip
// planning always gets a usable leg.
package route

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/draymaster/trip-planner/internal/config"
	"github.com/draymaster/trip-planner/internal/domain"
	"github.com/draymaster/trip-planner/internal/logger"
)

const (
	metersPerMile = 1609.344
	earthRadiusMi = 3959.0

	// Road distance is roughly 1.3x the straight line
	roadCircuityFactor = 1.3
	fallbackSpeedMPH   = 55.0
	fallbackGeomSteps  = 50
)

// Router fetches driving routes between coordinate pairs
type Router struct {
	cfg        config.RoutingConfig
	httpClient *http.Client
	log        *logger.Logger
}

// NewRouter creates a routing client
func NewRouter(cfg config.RoutingConfig, log *logger.Logger) *Router {
	return &Router{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		log:        log,
	}
}

// GetRoute returns the driving route between two points. It never fails:
// when both routing providers are unavailable it estimates from the
// haversine distance.
func (r *Router) GetRoute(ctx context.Context, start, end domain.Coordinate) (*domain.Route, error) {
	route, err := r.getRouteOSRM(ctx, start, end)
	if err == nil {
		return route, nil
	}
	r.log.Warnw("OSRM routing failed", "error", err)

	if r.cfg.ORSAPIKey != "" {
		route, err = r.getRouteORS(ctx, start, end)
		if err == nil {
			return route, nil
		}
		r.log.Warnw("ORS routing failed", "error", err)
	}

	return r.getRouteFallback(start, end), nil
}

// --- OSRM (free, no API key) ---

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

func (r *Router) getRouteOSRM(ctx context.Context, start, end domain.Coordinate) (*domain.Route, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=simplified&geometries=geojson",
		r.cfg.OSRMBaseURL, start.Lng, start.Lat, end.Lng, end.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osrm: HTTP %d", resp.StatusCode)
	}

	var data osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("osrm: decode: %w", err)
	}
	if data.Code != "Ok" || len(data.Routes) == 0 {
		return nil, fmt.Errorf("osrm: no route returned")
	}

	best := data.Routes[0]
	return &domain.Route{
		DistanceMiles: domain.Round(best.Distance/metersPerMile, 1),
		DurationHours: domain.Round(best.Duration/3600, 2),
		Geometry:      best.Geometry.Coordinates,
	}, nil
}

// --- OpenRouteService (driving-hgv profile, API key required) ---

type orsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type orsResponse struct {
	Features []struct {
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

func (r *Router) getRouteORS(ctx context.Context, start, end domain.Coordinate) (*domain.Route, error) {
	body, err := json.Marshal(orsRequest{
		Coordinates: [][]float64{
			{start.Lng, start.Lat},
			{end.Lng, end.Lat},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.cfg.ORSBaseURL+"/v2/directions/driving-hgv/geojson", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", r.cfg.ORSAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ors: HTTP %d", resp.StatusCode)
	}

	var data orsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("ors: decode: %w", err)
	}
	if len(data.Features) == 0 {
		return nil, fmt.Errorf("ors: no route returned")
	}

	feat := data.Features[0]
	return &domain.Route{
		DistanceMiles: domain.Round(feat.Properties.Summary.Distance/metersPerMile, 1),
		DurationHours: domain.Round(feat.Properties.Summary.Duration/3600, 2),
		Geometry:      feat.Geometry.Coordinates,
	}, nil
}

// getRouteFallback estimates the route from the great-circle distance with
// a synthetic straight-line polyline.
func (r *Router) getRouteFallback(start, end domain.Coordinate) *domain.Route {
	roadMiles := HaversineMiles(start.Lat, start.Lng, end.Lat, end.Lng) * roadCircuityFactor

	geometry := make([][]float64, 0, fallbackGeomSteps+1)
	for i := 0; i <= fallbackGeomSteps; i++ {
		frac := float64(i) / fallbackGeomSteps
		lat := start.Lat + (end.Lat-start.Lat)*frac
		lng := start.Lng + (end.Lng-start.Lng)*frac
		geometry = append(geometry, []float64{lng, lat})
	}

	return &domain.Route{
		DistanceMiles: domain.Round(roadMiles, 1),
		DurationHours: domain.Round(roadMiles/fallbackSpeedMPH, 2),
		Geometry:      geometry,
	}
}

// HaversineMiles returns the great-circle distance between two points
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusMi * 2 * math.Asin(math.Sqrt(a))
}
