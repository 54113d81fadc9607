// Package http exposes the gym backend over JSON REST, plus the chatbot
// text endpoint and its websocket channel.
//
// This file holds the fluent builder every handler uses to write responses,
// so status codes, headers and error bodies stay consistent.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// ResponseBuilder accumulates a response and writes it in one go.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       []byte
	value      any
	hasValue   bool
}

// NewResponse starts a 200 response with no body.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets v as the body, encoded when the response is written.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.headers["Content-Type"] = "application/json; charset=utf-8"
	b.value = v
	b.hasValue = true
	return b
}

// Text sets a plain-text body.
func (b *ResponseBuilder) Text(s string) *ResponseBuilder {
	b.headers["Content-Type"] = "text/plain; charset=utf-8"
	b.body = []byte(s)
	return b
}

// Attachment sets a downloadable body.
func (b *ResponseBuilder) Attachment(filename, contentType string, data []byte) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.headers["Content-Disposition"] = `attachment; filename="` + filename + `"`
	b.body = data
	return b
}

// Message is shorthand for the {"message": ...} bodies of write endpoints.
// extra holds key/value pairs merged into the object.
func (b *ResponseBuilder) Message(msg string, extra ...any) *ResponseBuilder {
	body := map[string]any{"message": msg}
	for i := 0; i+1 < len(extra); i += 2 {
		if key, ok := extra[i].(string); ok {
			body[key] = extra[i+1]
		}
	}
	return b.JSON(body)
}

// Write sends the built response.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	body := b.body
	if b.hasValue {
		encoded, err := json.Marshal(b.value)
		if err != nil {
			slog.Error("Failed to encode response", "error", err)
			b.statusCode = http.StatusInternalServerError
			encoded = []byte(`{"error":"Internal server error"}`)
		}
		body = append(encoded, '\n')
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if len(body) > 0 {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	}
	w.WriteHeader(b.statusCode)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorBody struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

// ErrorResponse creates a JSON {"error": message} response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// ValidationError creates the 400 response listing every rejected field.
func ValidationError(details []FieldError) *ResponseBuilder {
	return NewResponse().
		Status(http.StatusBadRequest).
		JSON(errorBody{Error: "Validation failed", Details: details})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnauthorizedError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func ConflictError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// TextError creates a plain-text error, as the chatbot widget expects.
func TextError(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).Text(message)
}
