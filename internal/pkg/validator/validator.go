package validator

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
)

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

// Add records a rejected field.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// Err returns v as an error, or nil when nothing was rejected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// ToMap keys messages by field; a later message for the same field wins.
func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string, len(v))
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Canonical textual UUID, any version.
var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[1-8][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func IsValidUUID(uuid string) bool {
	return uuidRegex.MatchString(strings.ToLower(uuid))
}

// ParseDate accepts request dates in YYYY-MM-DD form only.
func ParseDate(s string) (time.Time, bool) {
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	return date, err == nil
}

// HasExtension reports whether filename ends in one of allowed (".xlsx" style), ignoring case.
func HasExtension(filename string, allowed []string) bool {
	return slices.Contains(allowed, strings.ToLower(filepath.Ext(filename)))
}
