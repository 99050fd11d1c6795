package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/pikup-intake/internal/models"
	"github.com/ukydev/pikup-intake/internal/response"
)

// DriverAdmin is the admin-facing part of the directory.
type DriverAdmin interface {
	List(ctx context.Context) ([]models.Driver, error)
	Add(ctx context.Context, req models.AddDriverRequest) (*models.Driver, error)
	Update(ctx context.Context, email string, patch models.DriverPatch) (*models.Driver, error)
	Delete(ctx context.Context, email string) error
}

// DriverListResponse is returned when listing drivers
type DriverListResponse struct {
	Status  string          `json:"status"`
	Count   int             `json:"count"`
	Drivers []models.Driver `json:"drivers"`
}

// DriverResponse is returned after a driver is created or changed
type DriverResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Driver  models.Driver `json:"driver"`
}

// AdminHandler handles driver administration
type AdminHandler struct {
	drivers DriverAdmin
	log     logrus.FieldLogger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(drivers DriverAdmin, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{drivers: drivers, log: log}
}

// ListDrivers returns every driver
func (h *AdminHandler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	list, err := h.drivers.List(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if list == nil {
		list = []models.Driver{}
	}
	response.WriteJSON(w, http.StatusOK, DriverListResponse{Status: "success", Count: len(list), Drivers: list})
}

// AddDriver creates a driver
func (h *AdminHandler) AddDriver(w http.ResponseWriter, r *http.Request) {
	var req models.AddDriverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	driver, err := h.drivers.Add(r.Context(), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, DriverResponse{Status: "success", Message: "Driver added", Driver: *driver})
}

// UpdateDriver merges the request body into the driver at {email}
func (h *AdminHandler) UpdateDriver(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	var patch models.DriverPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	driver, err := h.drivers.Update(r.Context(), email, patch)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, DriverResponse{Status: "success", Message: "Driver updated", Driver: *driver})
}

// DeleteDriver removes the driver at {email}
func (h *AdminHandler) DeleteDriver(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	if err := h.drivers.Delete(r.Context(), email); err != nil {
		writeError(w, h.log, err)
		return
	}
	response.Success(w, http.StatusOK, "Driver deleted")
}

func emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil || email == "" {
		response.Error(w, http.StatusBadRequest, "Invalid driver email")
		return "", false
	}
	return email, true
}
