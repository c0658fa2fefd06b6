package application

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a store rejects a record that is already present.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrClubDirectoryUnavailable is returned when the club list cannot be read; the run is aborted.
	ErrClubDirectoryUnavailable = errors.New("application: club directory unavailable")
	// ErrRunInProgress is returned when a scheduler run is requested while another is executing.
	ErrRunInProgress = errors.New("application: run already in progress")
	// ErrInvalidClubDefinition is returned when a club's weekday or pattern cannot be interpreted.
	ErrInvalidClubDefinition = errors.New("application: invalid club definition")
	// ErrInvalidToken is returned when a trigger token does not match the configured hash.
	ErrInvalidToken = errors.New("application: invalid trigger token")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
