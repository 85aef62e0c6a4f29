package visit

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// TimeOfDay is a wall-clock time with second precision and no date,
// stored as seconds since midnight. It maps to a Postgres TIME column.
type TimeOfDay int

const endOfDay TimeOfDay = 24*3600 - 1

func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// ParseTimeOfDay accepts "15:04" or "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimeOfDay(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day: %q", s)
}

func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute(), t.Second())
}

func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return (int(t) % 3600) / 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("invalid time of day: %s", b)
	}
	parsed, err := ParseTimeOfDay(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) pg() pgtype.Time {
	return pgtype.Time{Microseconds: int64(t) * 1e6, Valid: true}
}

func pgTimeOf(t *TimeOfDay) pgtype.Time {
	if t == nil {
		return pgtype.Time{}
	}
	return t.pg()
}

func timeOfDayFromPg(t pgtype.Time) *TimeOfDay {
	if !t.Valid {
		return nil
	}
	v := TimeOfDay(t.Microseconds / 1e6)
	return &v
}
