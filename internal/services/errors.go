// Package services defines the business logic for users, the reference
// catalog, and the diagnosis workflow. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Reference-data errors.
var (
	// ErrPlantNotFound indicates that the referenced plant does not exist.
	ErrPlantNotFound = errors.New("plant not found")

	// ErrSymptomNotFound indicates that a referenced symptom does not exist.
	ErrSymptomNotFound = errors.New("symptom not found")

	// ErrDiseaseNotFound indicates that the referenced disease does not exist.
	ErrDiseaseNotFound = errors.New("disease not found")

	// ErrDuplicateName is returned when creating a catalog entry whose unique
	// name is already taken.
	ErrDuplicateName = errors.New("name already exists")

	// ErrEmptyName is returned when a catalog entry is created or renamed
	// with a blank name.
	ErrEmptyName = errors.New("name is required")
)

// Diagnosis workflow errors.
var (
	// ErrDiagnosisNotFound indicates that the requested diagnosis does not
	// exist.
	ErrDiagnosisNotFound = errors.New("diagnosis not found")

	// ErrEmptySymptoms is returned when a diagnosis submission carries no
	// observed symptoms.
	ErrEmptySymptoms = errors.New("at least one symptom is required")

	// ErrInvalidStatus is returned when an expert validation names a status
	// outside the allowed set (validated, rejected, needs_more_info).
	ErrInvalidStatus = errors.New("invalid validation status")

	// ErrAccessDenied is returned when the caller's role or ownership does
	// not permit the requested operation.
	ErrAccessDenied = errors.New("access denied")
)

// User and authentication errors.
var (
	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUsername is returned when registering a username that is
	// already taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidCredentials is returned when a login attempt fails. It covers
	// both unknown usernames and wrong passwords so the response does not
	// reveal which one was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidRole is returned when a registration names a role outside
	// the allowed set.
	ErrInvalidRole = errors.New("invalid role")
)
