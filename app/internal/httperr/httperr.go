// Package httperr defines the request error taxonomy shared by all
// handlers: stable machine-readable codes mapped to HTTP statuses.
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error is a request-scoped failure with a stable code.
type Error struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// Validation reports malformed or out-of-range input.
func Validation(msg string) *Error {
	return &Error{Code: "validation_error", Message: msg, Status: http.StatusBadRequest}
}

// Unauthorized reports that no caller identity could be resolved.
func Unauthorized(msg string) *Error {
	return &Error{Code: "unauthorized", Message: msg, Status: http.StatusUnauthorized}
}

// NotFound reports a missing resource. It is also used for agents owned
// by another tenant, deliberately indistinguishable from "does not
// exist" so cross-tenant existence never leaks.
func NotFound(msg string) *Error {
	return &Error{Code: "not_found", Message: msg, Status: http.StatusNotFound}
}

// MissingParameter reports an absent required query parameter.
func MissingParameter(name string) *Error {
	return &Error{Code: "missing_parameter", Message: "required parameter " + name + " is missing", Status: http.StatusBadRequest}
}

// Store reports an unexpected storage failure.
func Store(err error) *Error {
	return &Error{Code: "store_error", Message: err.Error(), Status: http.StatusInternalServerError}
}

// Write sends err to the client as a JSON envelope. Errors outside the
// taxonomy become opaque 500s.
func Write(w http.ResponseWriter, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Code: "internal_error", Message: "internal server error", Status: http.StatusInternalServerError}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e)
}
