// Package handlers defines HTTP-layer error codes used across all API
// endpoints.
//
// This file centralizes symbolic error code constants that are mapped to
// HTTP responses (via the `fail()` helper in this package), plus the mapping
// from service-layer sentinel errors to HTTP results. The codes give clients
// a stable, machine-readable error taxonomy that supplements human-readable
// messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless noted.
//   - Generic codes (bad_request, unauthorized, conflict, ...) mirror common
//     HTTP status semantics.
//   - Handlers select the most specific matching code and pass it to
//     `fail()` with the corresponding HTTP status and message.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrosage/go-plant-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInvalidStatus    = "invalid_status"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// failService translates a service-layer error into the standard envelope.
// Unmapped errors fall through to a 500 with the internal_error code, which
// fail() will log with request context.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPlantNotFound),
		errors.Is(err, services.ErrSymptomNotFound),
		errors.Is(err, services.ErrDiseaseNotFound),
		errors.Is(err, services.ErrDiagnosisNotFound),
		errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrDuplicateName),
		errors.Is(err, services.ErrDuplicateUsername):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrEmptySymptoms),
		errors.Is(err, services.ErrEmptyName),
		errors.Is(err, services.ErrInvalidRole):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	case errors.Is(err, services.ErrAccessDenied):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
