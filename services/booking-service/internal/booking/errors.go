package booking

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrSlotConflict      = errors.New("slot already taken")
	ErrNotFound          = errors.New("appointment not found")
	ErrInvalidTransition = errors.New("appointment is not pending")
	ErrCalendarSync      = errors.New("calendar sync failed")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// ValidationError names the offending request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// CalendarSyncError is returned by Confirm when the appointment was confirmed
// but the remote event could not be created.
type CalendarSyncError struct {
	AppointmentID string
	Err           error
}

func (e *CalendarSyncError) Error() string {
	return fmt.Sprintf("appointment %s confirmed, calendar sync failed: %v", e.AppointmentID, e.Err)
}

func (e *CalendarSyncError) Is(target error) bool { return target == ErrCalendarSync }

func (e *CalendarSyncError) Unwrap() error { return e.Err }

// storeError keeps domain errors reported by the store and classifies
// everything else as ErrStoreUnavailable.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSlotConflict) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
