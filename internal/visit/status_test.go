package visit

import (
	"testing"
	"time"
)

var cutoff9pm = NewTimeOfDay(21, 0, 0)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func tod(hh, mm int) *TimeOfDay {
	t := NewTimeOfDay(hh, mm, 0)
	return &t
}

func TestNextStatus_TerminalStatusesNeverChange(t *testing.T) {
	times := []time.Time{
		at(2025, time.March, 4, 6, 0),
		at(2025, time.March, 4, 21, 30),
		at(2025, time.March, 20, 12, 0),
	}
	for _, cur := range []Status{StatusCompleted, StatusExpired} {
		for _, now := range times {
			res := NextStatus(cur, now, date(2025, time.March, 4), tod(10, 0), nil, cutoff9pm)
			if res.Status != cur {
				t.Fatalf("terminal %s changed to %s at %s", cur, res.Status, now)
			}
			if res.Changed {
				t.Fatalf("terminal %s reported as changed", cur)
			}
		}
	}
}

func TestNextStatus_ActiveNeverDemotesToUpcoming(t *testing.T) {
	// Checked in at 10:00 but evaluated at 08:00 the same day: a raw
	// window comparison would call this Upcoming again.
	res := NextStatus(StatusActive, at(2025, time.March, 4, 8, 0), date(2025, time.March, 4), tod(10, 0), nil, cutoff9pm)
	if res.Status != StatusActive {
		t.Fatalf("expected Active to stick, got %s", res.Status)
	}
	if res.Changed {
		t.Fatalf("unexpected change")
	}
}

func TestNextStatus_CutoffExpiresUpcomingNoShow(t *testing.T) {
	res := NextStatus(StatusUpcoming, at(2025, time.March, 4, 21, 5), date(2025, time.March, 4), nil, nil, cutoff9pm)
	if res.Status != StatusExpired {
		t.Fatalf("expected Expired, got %s", res.Status)
	}
	if res.StartTime == nil || *res.StartTime != cutoff9pm {
		t.Fatalf("expected start time backfilled to cutoff, got %v", res.StartTime)
	}
	if res.EndTime == nil || *res.EndTime != cutoff9pm {
		t.Fatalf("expected end time backfilled to cutoff, got %v", res.EndTime)
	}
	if !res.Changed {
		t.Fatalf("expected change")
	}
}

func TestNextStatus_CutoffCompletesActive(t *testing.T) {
	// Active since 10:00, no check-out, swept at 21:05 with a 21:00 cutoff.
	res := NextStatus(StatusActive, at(2025, time.March, 4, 21, 5), date(2025, time.March, 4), tod(10, 0), nil, cutoff9pm)
	if res.Status != StatusCompleted {
		t.Fatalf("expected Completed, got %s", res.Status)
	}
	if res.EndTime == nil || *res.EndTime != cutoff9pm {
		t.Fatalf("expected end time %s, got %v", cutoff9pm, res.EndTime)
	}
	if res.StartTime == nil || *res.StartTime != NewTimeOfDay(10, 0, 0) {
		t.Fatalf("start time should be untouched, got %v", res.StartTime)
	}
}

func TestNextStatus_PastDateFinalizesLikeCutoff(t *testing.T) {
	now := at(2025, time.March, 6, 9, 0)
	past := date(2025, time.March, 4)

	res := NextStatus(StatusUpcoming, now, past, nil, nil, cutoff9pm)
	if res.Status != StatusExpired {
		t.Fatalf("expected Expired for past Upcoming, got %s", res.Status)
	}

	res = NextStatus(StatusActive, now, past, tod(10, 0), nil, cutoff9pm)
	if res.Status != StatusCompleted {
		t.Fatalf("expected Completed for past Active, got %s", res.Status)
	}
	if res.EndTime == nil || *res.EndTime != cutoff9pm {
		t.Fatalf("expected end time %s, got %v", cutoff9pm, res.EndTime)
	}
}

func TestNextStatus_ScheduledWindow(t *testing.T) {
	today := date(2025, time.March, 4)

	tests := []struct {
		name  string
		now   time.Time
		start *TimeOfDay
		end   *TimeOfDay
		want  Status
	}{
		{"before start stays upcoming", at(2025, time.March, 4, 7, 0), tod(8, 0), nil, StatusUpcoming},
		{"inside window activates", at(2025, time.March, 4, 9, 0), tod(8, 0), nil, StatusActive},
		{"past explicit end expires", at(2025, time.March, 4, 11, 0), tod(8, 0), tod(10, 0), StatusExpired},
		{"no scheduled start stays upcoming", at(2025, time.March, 4, 9, 0), nil, nil, StatusUpcoming},
	}
	for _, tc := range tests {
		res := NextStatus(StatusUpcoming, tc.now, today, tc.start, tc.end, cutoff9pm)
		if res.Status != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, res.Status)
		}
	}
}

func TestNextStatus_FutureDateUnchanged(t *testing.T) {
	res := NextStatus(StatusUpcoming, at(2025, time.March, 4, 9, 0), date(2025, time.March, 10), tod(8, 0), nil, cutoff9pm)
	if res.Status != StatusUpcoming || res.Changed {
		t.Fatalf("future visit should be untouched, got %s changed=%v", res.Status, res.Changed)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("07:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != NewTimeOfDay(7, 30, 0) {
		t.Fatalf("expected 07:30:00, got %s", got)
	}

	got, err = ParseTimeOfDay("21:00:15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "21:00:15" {
		t.Fatalf("expected 21:00:15, got %s", got)
	}

	if _, err := ParseTimeOfDay("9 o'clock"); err == nil {
		t.Fatalf("expected error")
	}
}
