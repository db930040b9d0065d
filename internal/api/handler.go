package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/draymaster/trip-planner/internal/domain"
	apperrors "github.com/draymaster/trip-planner/internal/errors"
	"github.com/draymaster/trip-planner/internal/logger"
	"github.com/draymaster/trip-planner/internal/service"
)

// TripPlanner is the service surface the HTTP layer depends on
type TripPlanner interface {
	PlanTrip(ctx context.Context, input service.PlanTripInput) (*domain.TripPlan, error)
	Autocomplete(ctx context.Context, query string) []domain.Coordinate
}

// Handler serves the trip planning HTTP API
type Handler struct {
	svc TripPlanner
	log *logger.Logger
}

// NewHandler creates an API handler
func NewHandler(svc TripPlanner, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register attaches the API routes to the mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/plan/", h.PlanTrip)
	mux.HandleFunc("/autocomplete/", h.Autocomplete)
	mux.HandleFunc("/health", h.Health)
}

// planTripRequest is the POST /plan/ request body
type planTripRequest struct {
	CurrentLocation       string             `json:"current_location"`
	PickupLocation        string             `json:"pickup_location"`
	DropoffLocation       string             `json:"dropoff_location"`
	CurrentCycleUsed      float64            `json:"current_cycle_used"`
	CurrentLocationCoords *domain.Coordinate `json:"current_location_coords,omitempty"`
	PickupLocationCoords  *domain.Coordinate `json:"pickup_location_coords,omitempty"`
	DropoffLocationCoords *domain.Coordinate `json:"dropoff_location_coords,omitempty"`
}

// PlanTrip handles POST /plan/
func (h *Handler) PlanTrip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req planTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan, err := h.svc.PlanTrip(r.Context(), service.PlanTripInput{
		CurrentLocation:       req.CurrentLocation,
		PickupLocation:        req.PickupLocation,
		DropoffLocation:       req.DropoffLocation,
		CurrentCycleUsed:      req.CurrentCycleUsed,
		CurrentLocationCoords: req.CurrentLocationCoords,
		PickupLocationCoords:  req.PickupLocationCoords,
		DropoffLocationCoords: req.DropoffLocationCoords,
	})
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

// Autocomplete handles GET /autocomplete/?q=
func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	results := h.svc.Autocomplete(r.Context(), r.URL.Query().Get("q"))
	h.writeJSON(w, http.StatusOK, results)
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeAppError maps application error codes onto HTTP statuses
func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case "VALIDATION_ERROR", "GEOCODING_FAILED":
			status = http.StatusBadRequest
		case "NOT_FOUND":
			status = http.StatusNotFound
		}
		h.writeJSON(w, status, map[string]interface{}{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}
	h.log.Errorw("Trip planning failed", "error", err)
	h.writeError(w, http.StatusInternalServerError, "trip planning failed: "+err.Error())
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Errorw("Failed to encode response", "error", err)
	}
}
