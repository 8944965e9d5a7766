// Package http provides HTTP server and handler implementations.
//
// This file implements the builder for the JSON envelope every API response
// shares: {"success": bool, "message"?: string, <entity keys>}.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
)

// JSONResponseBuilder provides a fluent API for building enveloped JSON
// responses.
type JSONResponseBuilder struct {
	statusCode int
	success    bool
	message    string
	fields     map[string]any
	headers    map[string]string
}

// NewJSONResponse creates a successful response builder with 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		success:    true,
		fields:     make(map[string]any),
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Fail marks the envelope as unsuccessful.
func (b *JSONResponseBuilder) Fail() *JSONResponseBuilder {
	b.success = false
	return b
}

func (b *JSONResponseBuilder) Message(msg string) *JSONResponseBuilder {
	b.message = msg
	return b
}

// Field adds an entity key next to success and message. The reserved keys
// cannot be overwritten.
func (b *JSONResponseBuilder) Field(key string, value any) *JSONResponseBuilder {
	if key == "success" || key == "message" {
		return b
	}
	b.fields[key] = value
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	body := make(map[string]any, len(b.fields)+2)
	for k, v := range b.fields {
		body[k] = v
	}
	body["success"] = b.success
	if b.message != "" {
		body["message"] = b.message
	}

	payload, err := json.Marshal(body)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		payload = []byte(`{"success":false,"message":"Internal server error"}`)
		b.statusCode = http.StatusInternalServerError
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
}

// ErrorResponse creates an unsuccessful envelope carrying message.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Fail().
		Message(message)
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "Internal server error")
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ServiceError builds the envelope for err. Storage and unclassified errors
// become a generic 500.
func ServiceError(err error) *JSONResponseBuilder {
	return ErrorResponse(statusFor(err), core.PublicMessage(err))
}
