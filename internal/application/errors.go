package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when no signed-in user is available for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrSessionExpired is returned when the stored session token has expired.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrConflict is returned when a requested range overlaps an existing booking.
	ErrConflict = errors.New("application: booking conflict")
	// ErrClosedDay is returned when the listing does not operate on the requested date.
	ErrClosedDay = errors.New("application: listing closed on date")
	// ErrSubmissionFailed wraps any collaborator failure while submitting a booking.
	ErrSubmissionFailed = errors.New("application: submission failed")
	// ErrUpstream wraps collaborator failures while reading calendars or bookings.
	ErrUpstream = errors.New("application: marketplace unavailable")
	// ErrEmptyCart is returned when checkout is attempted with no items.
	ErrEmptyCart = errors.New("application: cart is empty")
	// ErrCheckoutDisabled is returned when no payment gateway is configured.
	ErrCheckoutDisabled = errors.New("application: checkout disabled")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message per field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

func newValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

func upstream(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}

func submissionFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
}
