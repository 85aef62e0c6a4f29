package visit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testSettings() Settings {
	return Settings{
		WindowDays:     7,
		ClosedWeekdays: map[time.Weekday]bool{time.Sunday: true},
		OpenWindow:     OpenWindow{From: NewTimeOfDay(7, 30, 0), Until: NewTimeOfDay(21, 0, 0)},
		Cutoff:         NewTimeOfDay(21, 0, 0),
		Location:       time.UTC,
	}
}

func testAdmission(hasOpen bool) Admission {
	return Admission{
		Settings:   testSettings(),
		CodeExists: neverExists,
		HasOpenVisit: func(ctx context.Context, ownerRef string, date time.Time) (bool, error) {
			return hasOpen, nil
		},
	}
}

// Tuesday morning.
var bookingNow = time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC)

func bookingReq(visitDate string) BookingRequest {
	return BookingRequest{
		OwnerRef:   "ana@example.com",
		Purpose:    "Meeting",
		Department: "Registrar",
		VisitDate:  visitDate,
	}
}

func TestAdmit_Success(t *testing.T) {
	v, err := testAdmission(false).Admit(context.Background(), bookingReq("2025-03-05"), bookingNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != StatusUpcoming {
		t.Fatalf("expected Upcoming, got %s", v.Status)
	}
	if !codePattern.MatchString(v.Code) {
		t.Fatalf("bad code %q", v.Code)
	}
	if v.Code[:8] != "CIT-MEE-" {
		t.Fatalf("expected CIT-MEE- prefix, got %q", v.Code)
	}
	if v.ID == "" {
		t.Fatalf("missing id")
	}
	if v.StartTime != nil || v.EndTime != nil {
		t.Fatalf("schedule times must be unset at booking")
	}
}

func TestAdmit_ValidationFailures(t *testing.T) {
	adm := testAdmission(false)

	tests := []struct {
		name string
		req  BookingRequest
	}{
		{"missing purpose", BookingRequest{OwnerRef: "a@b.c", Department: "Registrar", VisitDate: "2025-03-05"}},
		{"missing department", BookingRequest{OwnerRef: "a@b.c", Purpose: "Meeting", VisitDate: "2025-03-05"}},
		{"missing date", BookingRequest{OwnerRef: "a@b.c", Purpose: "Meeting", Department: "Registrar"}},
		{"junk purpose", BookingRequest{OwnerRef: "a@b.c", Purpose: "asdf", Department: "Registrar", VisitDate: "2025-03-05"}},
		{"too short", BookingRequest{OwnerRef: "a@b.c", Purpose: "ab", Department: "Registrar", VisitDate: "2025-03-05"}},
		{"unparseable date", bookingReq("03/05/2025")},
	}
	for _, tc := range tests {
		_, err := adm.Admit(context.Background(), tc.req, bookingNow)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
	}
}

func TestAdmit_DateRules(t *testing.T) {
	adm := testAdmission(false)

	if _, err := adm.Admit(context.Background(), bookingReq("2025-03-03"), bookingNow); !errors.Is(err, ErrPastDate) {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}

	// Exactly at the window edge is accepted; one past it is not.
	if _, err := adm.Admit(context.Background(), bookingReq("2025-03-11"), bookingNow); err != nil {
		t.Fatalf("today+7 should be accepted, got %v", err)
	}
	if _, err := adm.Admit(context.Background(), bookingReq("2025-03-12"), bookingNow); !errors.Is(err, ErrOutOfWindow) {
		t.Fatalf("expected ErrOutOfWindow, got %v", err)
	}

	// 2025-03-09 is a Sunday.
	if _, err := adm.Admit(context.Background(), bookingReq("2025-03-09"), bookingNow); !errors.Is(err, ErrClosedDay) {
		t.Fatalf("expected ErrClosedDay, got %v", err)
	}

	// Booking for today is allowed.
	if _, err := adm.Admit(context.Background(), bookingReq("2025-03-04"), bookingNow); err != nil {
		t.Fatalf("same-day booking should be accepted, got %v", err)
	}
}

func TestAdmit_DuplicateBooking(t *testing.T) {
	_, err := testAdmission(true).Admit(context.Background(), bookingReq("2025-03-05"), bookingNow)
	if !errors.Is(err, ErrDuplicateBooking) {
		t.Fatalf("expected ErrDuplicateBooking, got %v", err)
	}
}

func TestAdmitWalkIn(t *testing.T) {
	adm := testAdmission(false)
	req := WalkInRequest{
		FirstName:  "Ana",
		LastName:   "Reyes",
		Email:      "ana@example.com",
		Phone:      "09171234567",
		Purpose:    "Campus Tour",
		Department: "Admissions",
	}

	v, err := adm.AdmitWalkIn(context.Background(), req, bookingNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != StatusActive {
		t.Fatalf("walk-ins check in immediately, got %s", v.Status)
	}
	if v.StartTime == nil || *v.StartTime != NewTimeOfDay(10, 0, 0) {
		t.Fatalf("expected start time 10:00:00, got %v", v.StartTime)
	}
	if !sameDate(v.VisitDate, bookingNow) {
		t.Fatalf("walk-in visit date must be today")
	}
	if v.Code[:8] != "CIT-TOU-" {
		t.Fatalf("expected CIT-TOU- prefix, got %q", v.Code)
	}

	// Outside operating hours the front desk is closed.
	night := time.Date(2025, time.March, 4, 22, 0, 0, 0, time.UTC)
	if _, err := adm.AdmitWalkIn(context.Background(), req, night); !errors.Is(err, ErrOutsideOperatingHours) {
		t.Fatalf("expected ErrOutsideOperatingHours, got %v", err)
	}

	req.Phone = ""
	var verr *ValidationError
	if _, err := adm.AdmitWalkIn(context.Background(), req, bookingNow); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for missing phone, got %v", err)
	}
}
