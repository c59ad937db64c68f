package utils

import (
	"encoding/json"
	"net/http"
)

// Result codes carried in ActionResult.Code
const (
	CodeValidation   = "validation"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeRateLimited  = "rate_limit_exceeded"
	CodeInternal     = "internal_error"
)

// ActionResult is the envelope returned by every API endpoint.
// Errors maps request field names to user-facing messages.
type ActionResult struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Code    string            `json:"code,omitempty"`
}

type failure struct {
	code           string
	defaultMessage string
}

// failures maps an HTTP status to its result code. Statuses not listed are
// reported as internal errors.
var failures = map[int]failure{
	http.StatusBadRequest:          {CodeValidation, ""},
	http.StatusUnauthorized:        {CodeUnauthorized, "Authentication required"},
	http.StatusForbidden:           {CodeForbidden, "Access forbidden"},
	http.StatusNotFound:            {CodeNotFound, "Resource not found"},
	http.StatusConflict:            {CodeConflict, ""},
	http.StatusTooManyRequests:     {CodeRateLimited, "Too many requests. Please try again later."},
	http.StatusInternalServerError: {CodeInternal, "An unexpected error occurred."},
}

// WriteJSON encodes data with the given status. A nil data writes no body.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

func WriteOK(w http.ResponseWriter, message string, data interface{}) error {
	return WriteJSON(w, http.StatusOK, ActionResult{Success: true, Message: message, Data: data})
}

func WriteCreated(w http.ResponseWriter, message string, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, ActionResult{Success: true, Message: message, Data: data})
}

// WriteError writes a failed action result. The code is derived from status and
// an empty message is replaced by the status default.
func WriteError(w http.ResponseWriter, status int, message string, fields map[string]string) error {
	f, ok := failures[status]
	if !ok {
		f.code = CodeInternal
	}
	if message == "" {
		message = f.defaultMessage
	}
	return WriteJSON(w, status, ActionResult{Message: message, Errors: fields, Code: f.code})
}

func WriteBadRequest(w http.ResponseWriter, message string, fields map[string]string) error {
	return WriteError(w, http.StatusBadRequest, message, fields)
}

func WriteUnauthorized(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusUnauthorized, message, nil)
}

func WriteForbidden(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusForbidden, message, nil)
}

func WriteNotFound(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusNotFound, message, nil)
}

func WriteConflict(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusConflict, message, nil)
}

func WriteTooManyRequests(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusTooManyRequests, message, nil)
}

func WriteInternalServerError(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusInternalServerError, message, nil)
}

// DecodeJSON decodes a request body into dst, rejecting unknown fields
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
