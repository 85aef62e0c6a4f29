package visit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BookingRequest is what the booking UI submits. VisitDate is the raw form
// value; the controller owns parsing it.
type BookingRequest struct {
	OwnerRef   string `json:"-"`
	Purpose    string `json:"purpose"`
	Department string `json:"department"`
	VisitDate  string `json:"visitDate"`
}

// WalkInRequest registers a visitor who showed up without a booking. The
// visit date is always today and check-in happens immediately.
type WalkInRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Purpose    string `json:"purpose"`
	Department string `json:"department"`
}

// Admission validates booking requests and mints the Visit. The two lookup
// funcs are pre-checks only; the store's unique constraints are what make
// them race-free (Repository.Insert maps constraint violations back to the
// same error kinds).
type Admission struct {
	Settings    Settings
	CodeExists  func(ctx context.Context, code string) (bool, error)
	HasOpenVisit func(ctx context.Context, ownerRef string, date time.Time) (bool, error)
}

const minContentLength = 3

// Obvious filler that used to end up in the purpose/department fields.
var junkContent = map[string]bool{
	"test":    true,
	"testing": true,
	"asdf":    true,
	"asdfg":   true,
	"qwerty":  true,
	"abc":     true,
	"xyz":     true,
	"none":    true,
	"n/a":     true,
	"na":      true,
	"xxx":     true,
}

// Admit runs the booking checks in order, short-circuiting on the first
// failure, and returns an Upcoming Visit ready for Repository.Insert.
// Nothing is persisted here.
func (a Admission) Admit(ctx context.Context, req BookingRequest, now time.Time) (Visit, error) {
	if err := a.validateContent(req); err != nil {
		return Visit{}, err
	}

	visitDate, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.VisitDate), now.Location())
	if err != nil {
		return Visit{}, invalidField("visitDate", "must be a valid date (YYYY-MM-DD)")
	}

	if dateBefore(visitDate, now) {
		return Visit{}, ErrPastDate
	}
	latest := now.AddDate(0, 0, a.Settings.WindowDays)
	if dateBefore(latest, visitDate) {
		return Visit{}, ErrOutOfWindow
	}
	if a.Settings.ClosedWeekdays[visitDate.Weekday()] {
		return Visit{}, ErrClosedDay
	}

	taken, err := a.HasOpenVisit(ctx, req.OwnerRef, visitDate)
	if err != nil {
		return Visit{}, err
	}
	if taken {
		return Visit{}, ErrDuplicateBooking
	}

	code, err := GenerateCode(ctx, req.Purpose, a.CodeExists)
	if err != nil {
		return Visit{}, err
	}

	return Visit{
		ID:         uuid.NewString(),
		Code:       code,
		OwnerRef:   req.OwnerRef,
		Purpose:    strings.TrimSpace(req.Purpose),
		Department: strings.TrimSpace(req.Department),
		VisitDate:  visitDate,
		Status:     StatusUpcoming,
		CreatedAt:  now,
	}, nil
}

// AdmitWalkIn skips the date checks (the date is now) but keeps the content
// checks and adds the operating-hours gate, then returns a Visit already
// checked in. One open visit per owner per day still applies via the store
// constraint on insert.
func (a Admission) AdmitWalkIn(ctx context.Context, req WalkInRequest, now time.Time) (Visit, error) {
	required := []struct{ field, value string }{
		{"firstName", req.FirstName},
		{"lastName", req.LastName},
		{"email", req.Email},
		{"phone", req.Phone},
		{"purpose", req.Purpose},
		{"department", req.Department},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return Visit{}, invalidField(f.field, "is required")
		}
	}
	if err := checkContent("purpose", req.Purpose); err != nil {
		return Visit{}, err
	}
	if err := checkContent("department", req.Department); err != nil {
		return Visit{}, err
	}

	if !a.Settings.OpenWindow.Contains(TimeOfDayOf(now)) {
		return Visit{}, ErrOutsideOperatingHours
	}

	taken, err := a.HasOpenVisit(ctx, req.Email, now)
	if err != nil {
		return Visit{}, err
	}
	if taken {
		return Visit{}, ErrDuplicateBooking
	}

	code, err := GenerateCode(ctx, req.Purpose, a.CodeExists)
	if err != nil {
		return Visit{}, err
	}

	start := TimeOfDayOf(now)
	return Visit{
		ID:         uuid.NewString(),
		Code:       code,
		OwnerRef:   strings.TrimSpace(req.Email),
		Purpose:    strings.TrimSpace(req.Purpose),
		Department: strings.TrimSpace(req.Department),
		VisitDate:  time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		StartTime:  &start,
		Status:     StatusActive,
		CreatedAt:  now,
	}, nil
}

func (a Admission) validateContent(req BookingRequest) error {
	if strings.TrimSpace(req.Purpose) == "" {
		return invalidField("purpose", "is required")
	}
	if strings.TrimSpace(req.Department) == "" {
		return invalidField("department", "is required")
	}
	if strings.TrimSpace(req.VisitDate) == "" {
		return invalidField("visitDate", "is required")
	}
	if err := checkContent("purpose", req.Purpose); err != nil {
		return err
	}
	return checkContent("department", req.Department)
}

func checkContent(field, value string) error {
	v := strings.ToLower(strings.TrimSpace(value))
	if len(v) < minContentLength {
		return invalidField(field, "is too short")
	}
	if junkContent[v] {
		return invalidField(field, "looks like placeholder text")
	}
	return nil
}
