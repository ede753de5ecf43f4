// Package api writes the {data, message, success} response envelope of the
// development backend.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Envelope wraps every response body
type Envelope struct {
	Data    any            `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
	Success bool           `json:"success"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// StatusError is an error that knows its HTTP status and API code
type StatusError interface {
	error
	HTTPStatus() int
	ErrorCode() string
}

// JSON writes data in a success envelope
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Data: data, Success: true})
}

// OK writes data with status 200
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes data with status 201
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Error writes a failure envelope
func Error(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Envelope{Message: message, Code: code, Success: false})
}

// BadRequest writes a 400 failure
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, "BAD_REQUEST", message)
}

// Unauthorized writes a 401 failure
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// Forbidden writes a 403 failure
func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, "FORBIDDEN", message)
}

// NotFound writes a 404 failure
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, "NOT_FOUND", message)
}

// FromError writes err, using its status and code when it has them
func FromError(w http.ResponseWriter, err error) {
	var se StatusError
	if errors.As(err, &se) {
		Error(w, se.HTTPStatus(), se.ErrorCode(), se.Error())
		return
	}
	log.WithError(err).Error("Unhandled API error")
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// Decode reads a JSON request body into v
func Decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.WithError(err).Warn("Failed to write response")
	}
}
