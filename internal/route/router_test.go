package route

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/draymaster/trip-planner/internal/config"
	"github.com/draymaster/trip-planner/internal/domain"
	"github.com/draymaster/trip-planner/internal/logger"
)

var (
	losAngeles = domain.Coordinate{Lat: 34.0522, Lng: -118.2437, Name: "Los Angeles, CA"}
	sanDiego   = domain.Coordinate{Lat: 32.7157, Lng: -117.1611, Name: "San Diego, CA"}
)

func testRoutingConfig(osrmURL, orsURL, orsKey string) config.RoutingConfig {
	return config.RoutingConfig{
		OSRMBaseURL:    osrmURL,
		ORSBaseURL:     orsURL,
		ORSAPIKey:      orsKey,
		UserAgent:      "test",
		RequestTimeout: 2 * time.Second,
	}
}

func TestGetRouteOSRM(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": "Ok",
			"routes": [{
				"distance": 193121.28,
				"duration": 7200,
				"geometry": {"coordinates": [[-118.2437, 34.0522], [-117.1611, 32.7157]]}
			}]
		}`))
	}))
	defer server.Close()

	r := NewRouter(testRoutingConfig(server.URL, "", ""), logger.Default())
	route, err := r.GetRoute(context.Background(), losAngeles, sanDiego)
	if err != nil {
		t.Fatalf("GetRoute: %v", err)
	}

	// 193121.28 meters = 120.0 miles
	if route.DistanceMiles != 120.0 {
		t.Errorf("distance = %v, want 120.0", route.DistanceMiles)
	}
	if route.DurationHours != 2.0 {
		t.Errorf("duration = %v, want 2.0", route.DurationHours)
	}
	if len(route.Geometry) != 2 {
		t.Errorf("geometry points = %d, want 2", len(route.Geometry))
	}
}

func TestGetRouteFallsBackToORS(t *testing.T) {
	osrm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer osrm.Close()

	var gotAuth string
	ors := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"features": [{
				"properties": {"summary": {"distance": 193121.28, "duration": 7920}},
				"geometry": {"coordinates": [[-118.2437, 34.0522], [-117.1611, 32.7157]]}
			}]
		}`))
	}))
	defer ors.Close()

	r := NewRouter(testRoutingConfig(osrm.URL, ors.URL, "test-key"), logger.Default())
	route, err := r.GetRoute(context.Background(), losAngeles, sanDiego)
	if err != nil {
		t.Fatalf("GetRoute: %v", err)
	}

	if gotAuth != "test-key" {
		t.Errorf("ORS Authorization header = %q, want test-key", gotAuth)
	}
	if route.DistanceMiles != 120.0 {
		t.Errorf("distance = %v, want 120.0", route.DistanceMiles)
	}
	if route.DurationHours != 2.2 {
		t.Errorf("duration = %v, want 2.2", route.DurationHours)
	}
}

func TestGetRouteFallsBackToEstimate(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	r := NewRouter(testRoutingConfig(failing.URL, failing.URL, "key"), logger.Default())
	route, err := r.GetRoute(context.Background(), losAngeles, sanDiego)
	if err != nil {
		t.Fatalf("GetRoute: %v", err)
	}

	// Straight line LA-SD is ~112 miles; road estimate is 1.3x that
	if route.DistanceMiles < 130 || route.DistanceMiles > 160 {
		t.Errorf("fallback distance = %v, want roughly 145", route.DistanceMiles)
	}
	wantHours := route.DistanceMiles / 55
	if math.Abs(route.DurationHours-wantHours) > 0.01 {
		t.Errorf("fallback duration = %v, want %v", route.DurationHours, wantHours)
	}
	if len(route.Geometry) != 51 {
		t.Errorf("fallback geometry points = %d, want 51", len(route.Geometry))
	}
}

func TestGetRouteRejectsOSRMErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code": "NoRoute", "routes": []}`))
	}))
	defer server.Close()

	// No ORS key, so the estimate fallback answers
	r := NewRouter(testRoutingConfig(server.URL, "", ""), logger.Default())
	route, err := r.GetRoute(context.Background(), losAngeles, sanDiego)
	if err != nil {
		t.Fatalf("GetRoute: %v", err)
	}
	if len(route.Geometry) != 51 {
		t.Errorf("expected fallback geometry, got %d points", len(route.Geometry))
	}
}

func TestHaversineMiles(t *testing.T) {
	tests := []struct {
		name             string
		lat1, lon1       float64
		lat2, lon2       float64
		wantMin, wantMax float64
	}{
		{
			name: "LA to San Diego",
			lat1: 34.0522, lon1: -118.2437,
			lat2: 32.7157, lon2: -117.1611,
			wantMin: 110, wantMax: 125,
		},
		{
			name: "same point",
			lat1: 34.0522, lon1: -118.2437,
			lat2: 34.0522, lon2: -118.2437,
			wantMin: 0, wantMax: 0.01,
		},
		{
			name: "Chicago to St. Louis",
			lat1: 41.8781, lon1: -87.6298,
			lat2: 38.627, lon2: -90.1994,
			wantMin: 250, wantMax: 270,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineMiles(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("HaversineMiles() = %v, want between %v and %v", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}
