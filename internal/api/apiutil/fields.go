package apiutil

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseTimeField parses an RFC 3339 instant and normalizes it to UTC.
func ParseTimeField(raw string, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, FieldError{Field: field, Reason: "is required"}
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, FieldError{Field: field, Reason: "must be an RFC 3339 timestamp"}
	}
	return parsed.UTC(), nil
}

// ParseDateField parses a YYYY-MM-DD day as midnight UTC.
func ParseDateField(raw string, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, FieldError{Field: field, Reason: "is required"}
	}
	parsed, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, FieldError{Field: field, Reason: fmt.Sprintf("must be a date in %s form", dateLayout)}
	}
	return parsed, nil
}

// PathID returns the named path value or a FieldError when it is blank.
func PathID(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(r.PathValue(name))
	if value == "" {
		return "", FieldError{Field: name, Reason: "is required"}
	}
	return value, nil
}
