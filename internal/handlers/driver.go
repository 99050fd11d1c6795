package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/pikup-intake/internal/middleware"
	"github.com/ukydev/pikup-intake/internal/models"
	"github.com/ukydev/pikup-intake/internal/response"
)

// DriverService is the driver-facing part of the directory.
type DriverService interface {
	Login(ctx context.Context, email, password string) (*models.DriverLoginResponse, error)
	Profile(ctx context.Context, email string) (*models.Driver, error)
	Moves(ctx context.Context, email string) ([]models.SubmissionRecord, error)
}

// DriverProfileResponse is returned by the profile endpoint
type DriverProfileResponse struct {
	Status string        `json:"status"`
	Driver models.Driver `json:"driver"`
}

// DriverMovesResponse is returned by the moves endpoint
type DriverMovesResponse struct {
	Status string                    `json:"status"`
	Count  int                       `json:"count"`
	Moves  []models.SubmissionRecord `json:"moves"`
}

// DriverHandler handles driver login and self-service requests
type DriverHandler struct {
	drivers DriverService
	log     logrus.FieldLogger
}

// NewDriverHandler creates a new driver handler
func NewDriverHandler(drivers DriverService, log logrus.FieldLogger) *DriverHandler {
	return &DriverHandler{drivers: drivers, log: log}
}

// Login handles driver login
func (h *DriverHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.DriverLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	resp, err := h.drivers.Login(r.Context(), loginReq.Email, loginReq.Password)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, resp)
}

// GetProfile returns the authenticated driver's record
func (h *DriverHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetDriverFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Driver context not found")
		return
	}

	driver, err := h.drivers.Profile(r.Context(), claims.Email)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, DriverProfileResponse{Status: "success", Driver: *driver})
}

// GetMoves returns the submissions assigned to the authenticated driver
func (h *DriverHandler) GetMoves(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetDriverFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Driver context not found")
		return
	}

	moves, err := h.drivers.Moves(r.Context(), claims.Email)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if moves == nil {
		moves = []models.SubmissionRecord{}
	}
	response.WriteJSON(w, http.StatusOK, DriverMovesResponse{Status: "success", Count: len(moves), Moves: moves})
}
