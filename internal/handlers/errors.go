package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/pikup-intake/internal/auth"
	"github.com/ukydev/pikup-intake/internal/drivers"
	"github.com/ukydev/pikup-intake/internal/intake"
	"github.com/ukydev/pikup-intake/internal/response"
	"github.com/ukydev/pikup-intake/internal/validation"
)

// writeError maps a service error onto a status code and error body.
// Unclassified errors are logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var verr *validation.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error(w, http.StatusBadRequest, "Invalid request", verr.Details...)
	case errors.Is(err, intake.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrMissingCredentials):
		response.Error(w, http.StatusUnauthorized, "Email and password are required")
	case errors.Is(err, auth.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, drivers.ErrDuplicateEmail):
		response.Error(w, http.StatusBadRequest, "A driver with this email already exists")
	case errors.Is(err, drivers.ErrDriverNotFound):
		response.Error(w, http.StatusNotFound, "Driver not found")
	case errors.Is(err, intake.ErrPersistence):
		response.Error(w, http.StatusInternalServerError, "Failed to record submission")
	default:
		log.WithError(err).Error("Request failed")
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
