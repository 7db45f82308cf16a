// Package httputil provides utility functions for HTTP servers.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
)

const (
	base10    = 10
	int64Size = 64
)

// ErrEmptyID is returned when an ID is required but missing.
var ErrEmptyID = errors.New("empty id")

// IDFromString parses an int64 ID from the given string.
func IDFromString(s string) (int64, error) {
	if s == "" {
		return 0, ErrEmptyID
	}
	id, err := strconv.ParseInt(s, base10, int64Size)
	if err != nil {
		return 0, fmt.Errorf("error parsing %q: %w", s, err)
	}

	return id, nil
}

// ParseIDFromPath parses an int64 ID from the named path value.
// It returns the parsed ID and true if the parsing was successful.
// It writes a 400 response and returns false if the path value is missing or cannot be parsed.
func ParseIDFromPath(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (int64, bool) {
	id, err := IDFromString(r.PathValue(name))
	if err != nil {
		msg := "error parsing " + name
		logger.DebugContext(r.Context(), msg, slog.Any("err", err))
		http.Error(w, msg, http.StatusBadRequest)

		return 0, false
	}

	return id, true
}

// IsJSON reports whether the request body is declared as JSON.
func IsJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))

	return err == nil && mediaType == "application/json"
}

// EncodeJSON encodes v to JSON, sets status, and writes it to w.
func EncodeJSON[T any](w http.ResponseWriter, statusCode int, v T) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}

	return nil
}

// DecodeJSON decodes JSON from r.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return v, fmt.Errorf("failed to decode json: %w", err)
	}

	return v, nil
}

// WriteText writes msg as a plain text response with the given status.
func WriteText(w http.ResponseWriter, statusCode int, msg string) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	return nil
}
