package visit

import (
	"errors"
	"fmt"
)

// Sentinel kinds for everything the engine can refuse. Callers branch with
// errors.Is; the HTTP layer maps each kind to a stable envelope code.
var (
	ErrPastDate              = errors.New("visit date has already passed")
	ErrOutOfWindow           = errors.New("visit date is beyond the booking window")
	ErrClosedDay             = errors.New("campus is closed on that weekday")
	ErrDuplicateBooking      = errors.New("an open visit already exists for that date")
	ErrIllegalTransition     = errors.New("transition not allowed from current status")
	ErrOutsideOperatingHours = errors.New("outside operating hours")
	ErrWrongDate             = errors.New("visit is not scheduled for today")
	ErrCodeExhausted         = errors.New("visit code generation attempts exhausted")
	ErrCodeTaken             = errors.New("visit code already taken")
	ErrNotFound              = errors.New("visit not found")
)

// ValidationError reports a malformed or junk field in a booking request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalidField(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
