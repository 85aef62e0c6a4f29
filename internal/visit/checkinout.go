package visit

import "time"

// CheckIn moves an Upcoming visit to Active at the front desk. The staff
// member must be working the visit's own day, inside operating hours.
// Returns the updated copy; persistence and logging stay with the caller.
func CheckIn(v Visit, now time.Time, open OpenWindow) (Visit, error) {
	if v.Status != StatusUpcoming {
		return v, ErrIllegalTransition
	}
	if !open.Contains(TimeOfDayOf(now)) {
		return v, ErrOutsideOperatingHours
	}
	if !sameDate(v.VisitDate, now) {
		return v, ErrWrongDate
	}

	start := TimeOfDayOf(now)
	v.StartTime = &start
	v.Status = StatusActive
	return v, nil
}

// CheckOut completes an Active visit.
func CheckOut(v Visit, now time.Time) (Visit, error) {
	if v.Status != StatusActive {
		return v, ErrIllegalTransition
	}

	end := TimeOfDayOf(now)
	v.EndTime = &end
	v.Status = StatusCompleted
	return v, nil
}
