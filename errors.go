package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strings"

	"gorm.io/gorm"
)

var (
	errUnauthorized = errors.New("authentication credentials were not provided or are invalid")
	errForbidden    = errors.New("you do not have permission to perform this action")
	errNotFound     = errors.New("not found")
)

const nonFieldErrors = "non_field_errors"

// fieldErrors maps a JSON field name to its validation messages.
type fieldErrors map[string][]string

func (fe fieldErrors) add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// ValidationError rejects a whole write and reports every failing field.
type ValidationError struct {
	Fields fieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: fieldErrors{field: {msg}}}
}

// UpstreamError is a failed call to an external collaborator made after the
// local write already committed.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string { return e.Message + ": " + e.Err.Error() }
func (e *UpstreamError) Unwrap() error { return e.Err }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	var uerr *UpstreamError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Fields)
	case errors.Is(err, errUnauthorized):
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": errUnauthorized.Error()})
	case errors.Is(err, errForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": errForbidden.Error()})
	case errors.Is(err, errNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	case errors.As(err, &uerr):
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   uerr.Message,
			"details": uerr.Err.Error(),
		})
	default:
		log.Printf("Internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal server error."})
	}
}
