package route

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/draymaster/trip-planner/internal/config"
	"github.com/draymaster/trip-planner/internal/domain"
	apperrors "github.com/draymaster/trip-planner/internal/errors"
	"github.com/draymaster/trip-planner/internal/logger"
)

// Geocoder resolves free-text addresses to coordinates using Nominatim.
// Results are cached in Redis when a client is provided; a nil client
// disables caching.
type Geocoder struct {
	cfg        config.RoutingConfig
	httpClient *http.Client
	cache      *redis.Client
	log        *logger.Logger
}

// NewGeocoder creates a Nominatim geocoding client
func NewGeocoder(cfg config.RoutingConfig, cache *redis.Client, log *logger.Logger) *Geocoder {
	return &Geocoder{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		cache:      cache,
		log:        log,
	}
}

// nominatimResult is one entry of a Nominatim search response
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves a query to its best US match
func (g *Geocoder) Geocode(ctx context.Context, query string) (domain.Coordinate, error) {
	results, err := g.search(ctx, query, 1)
	if err != nil {
		return domain.Coordinate{}, apperrors.GeocodingError(query, err)
	}
	if len(results) == 0 {
		return domain.Coordinate{}, apperrors.GeocodingError(query, nil)
	}
	return results[0], nil
}

// Autocomplete returns up to limit suggestions for a partial query
func (g *Geocoder) Autocomplete(ctx context.Context, query string, limit int) ([]domain.Coordinate, error) {
	return g.search(ctx, query, limit)
}

func (g *Geocoder) search(ctx context.Context, query string, limit int) ([]domain.Coordinate, error) {
	cacheKey := fmt.Sprintf("geocode:%d:%s", limit, query)
	if cached, ok := g.cacheGet(ctx, cacheKey); ok {
		return cached, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("countrycodes", "us")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.cfg.NominatimBaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.ExternalServiceError("nominatim", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ExternalServiceError("nominatim",
			fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, apperrors.ExternalServiceError("nominatim", fmt.Errorf("decode: %w", err))
	}

	coords := make([]domain.Coordinate, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lng, lngErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lngErr != nil {
			continue
		}
		coords = append(coords, domain.Coordinate{Lat: lat, Lng: lng, Name: r.DisplayName})
	}

	g.cacheSet(ctx, cacheKey, coords)
	return coords, nil
}

func (g *Geocoder) cacheGet(ctx context.Context, key string) ([]domain.Coordinate, bool) {
	if g.cache == nil {
		return nil, false
	}
	data, err := g.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			g.log.Warnw("Geocode cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var coords []domain.Coordinate
	if err := json.Unmarshal(data, &coords); err != nil {
		return nil, false
	}
	return coords, true
}

func (g *Geocoder) cacheSet(ctx context.Context, key string, coords []domain.Coordinate) {
	if g.cache == nil {
		return
	}
	data, err := json.Marshal(coords)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, data, g.cfg.GeocodeCacheTTL).Err(); err != nil {
		g.log.Warnw("Geocode cache write failed", "key", key, "error", err)
	}
}
