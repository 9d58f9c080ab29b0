package errs

import (
	"errors"
	"fmt"
)

const (
	NotFound      = "not_found"
	DuplicateName = "duplicate_name"
	Empty         = "empty"
	InvalidPath   = "invalid_path"
	InvalidState  = "invalid_state"
	TypeMismatch  = "type_mismatch"
	Unavailable   = "bus_unavailable"
)

// Sentinels for errors.Is checks; matching is by category only.
var (
	ErrNotFound      = &Error{Category: NotFound}
	ErrDuplicateName = &Error{Category: DuplicateName}
	ErrEmpty         = &Error{Category: Empty}
	ErrInvalidPath   = &Error{Category: InvalidPath}
	ErrInvalidState  = &Error{Category: InvalidState}
	ErrTypeMismatch  = &Error{Category: TypeMismatch}
	ErrUnavailable   = &Error{Category: Unavailable}
)

// Error represents a stable, categorized menu fixture failure.
type Error struct {
	Category string
	Detail   string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return e.Category
	}

	return fmt.Sprintf("%s: %s", e.Category, e.Detail)
}

// Is reports whether target carries the same category.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || e == nil || other == nil {
		return false
	}

	return e.Category == other.Category
}

// New creates a categorized error.
func New(category string, detail string) error {
	return &Error{Category: category, Detail: detail}
}

// Newf creates a categorized error with a formatted detail.
func Newf(category string, format string, args ...any) error {
	return &Error{Category: category, Detail: fmt.Sprintf(format, args...)}
}

// CategoryOf returns the stable category for an error, or "" when the error is
// not categorized.
func CategoryOf(err error) string {
	if err == nil {
		return ""
	}

	var categorized *Error
	if errors.As(err, &categorized) {
		return categorized.Category
	}

	return ""
}

// DetailOf returns the human readable part of a categorized error.
func DetailOf(err error) string {
	var categorized *Error
	if errors.As(err, &categorized) {
		if categorized.Detail != "" {
			return categorized.Detail
		}
		return categorized.Category
	}
	if err == nil {
		return ""
	}

	return err.Error()
}
