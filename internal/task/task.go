// Package task defines the core task model and field validation for the
// taskman task tracker.
package task

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxTitleLength is the maximum number of characters allowed in a title.
const maxTitleLength = 500

// Task represents a single task in the tracker.
// Description is nil when the task was created without one.
type Task struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
}

// HasDescription reports whether the task carries a description.
func (t Task) HasDescription() bool {
	return t.Description != nil
}

// DescriptionOr returns the description, or fallback when none is set.
func (t Task) DescriptionOr(fallback string) string {
	if t.Description == nil {
		return fallback
	}
	return *t.Description
}

// ValidateTitle checks that a title meets all constraints.
// The title is not trimmed; it is stored exactly as given.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if n := utf8.RuneCountInString(title); n > maxTitleLength {
		return &ValidationError{
			Field:  "title",
			Reason: fmt.Sprintf("exceeds maximum length of %d characters (got %d)", maxTitleLength, n),
		}
	}
	if strings.ContainsAny(title, "\n\r") {
		return &ValidationError{Field: "title", Reason: "must not contain newlines"}
	}
	return nil
}

// ValidateID checks that an id is a positive integer as assigned by storage.
func ValidateID(id int64) error {
	if id <= 0 {
		return &ValidationError{Field: "id", Reason: fmt.Sprintf("must be a positive integer, got %d", id)}
	}
	return nil
}

// StringPtr returns a pointer to s. Convenience for optional descriptions.
func StringPtr(s string) *string {
	return &s
}
