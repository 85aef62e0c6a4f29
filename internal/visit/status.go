package visit

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusUpcoming  Status = "Upcoming"
	StatusActive    Status = "Active"
	StatusCompleted Status = "Completed"
	StatusExpired   Status = "Expired"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusUpcoming, StatusActive, StatusCompleted, StatusExpired:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusUpcoming:  {StatusActive: true, StatusExpired: true},
	StatusActive:    {StatusCompleted: true},
	StatusCompleted: {},
	StatusExpired:   {},
}

func CanTransition(from, to Status) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// Resolution is the outcome of running a visit through NextStatus: the
// status the visit should hold right now, plus any schedule times the
// cutoff assigns when it force-finalizes a record.
type Resolution struct {
	Status    Status
	StartTime *TimeOfDay
	EndTime   *TimeOfDay
	Changed   bool
}

// NextStatus is the single authority on lifecycle transitions. Every write
// path (check-in, check-out, sweep) and every display read that needs
// "right now" accuracy derives status through it; nothing else in the
// system compares visit times inline.
//
// Precedence:
//  1. terminal statuses never change;
//  2. Active never demotes to Upcoming, it can only complete;
//  3. on the visit's own day, at or past the daily cutoff, Active becomes
//     Completed and Upcoming expires as a no-show, back-filling schedule
//     times with the cutoff;
//  4. a visit dated before today finalizes the same way;
//  5. otherwise, an Upcoming visit with a scheduled start on today's date
//     activates inside its window and expires once the window has passed.
func NextStatus(cur Status, now time.Time, visitDate time.Time, start, end *TimeOfDay, cutoff TimeOfDay) Resolution {
	res := Resolution{Status: cur, StartTime: start, EndTime: end}
	if cur.IsTerminal() {
		return res
	}

	nowClock := TimeOfDayOf(now)
	isToday := sameDate(visitDate, now)
	isPast := dateBefore(visitDate, now)

	if isPast || (isToday && nowClock >= cutoff) {
		switch cur {
		case StatusActive:
			res.Status = StatusCompleted
			if end == nil || *end < cutoff {
				res.EndTime = timeOfDayPtr(cutoff)
			}
		case StatusUpcoming:
			res.Status = StatusExpired
			if start == nil {
				res.StartTime = timeOfDayPtr(cutoff)
			}
			if end == nil {
				res.EndTime = timeOfDayPtr(cutoff)
			}
		}
		res.Changed = resolutionChanged(cur, start, end, res)
		return res
	}

	if cur == StatusActive {
		// Sticky: only an explicit check-out or the cutoff completes it.
		return res
	}

	if cur == StatusUpcoming && isToday && start != nil {
		windowEnd := endOfDay
		if end != nil {
			windowEnd = *end
		}
		switch {
		case nowClock >= *start && nowClock <= windowEnd:
			res.Status = StatusActive
		case nowClock > windowEnd:
			res.Status = StatusExpired
		}
		res.Changed = res.Status != cur
	}

	return res
}

func resolutionChanged(cur Status, start, end *TimeOfDay, res Resolution) bool {
	if res.Status != cur {
		return true
	}
	return !timeOfDayEqual(start, res.StartTime) || !timeOfDayEqual(end, res.EndTime)
}

func timeOfDayPtr(t TimeOfDay) *TimeOfDay { return &t }

func timeOfDayEqual(a, b *TimeOfDay) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
