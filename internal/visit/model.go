package visit

import (
	"fmt"
	"time"

	"campuspass/pkg/config"
)

// Visit is the one entity this engine owns. Status is its only mutable
// field; StartTime/EndTime become authoritative once check-in/out or the
// cutoff sets them.
type Visit struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	OwnerRef   string     `json:"ownerRef"`
	Purpose    string     `json:"purpose"`
	Department string     `json:"department"`
	VisitDate  time.Time  `json:"visitDate"`
	StartTime  *TimeOfDay `json:"startTime,omitempty"`
	EndTime    *TimeOfDay `json:"endTime,omitempty"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// OpenWindow is the daily span during which staff may check visitors in.
type OpenWindow struct {
	From  TimeOfDay
	Until TimeOfDay
}

func (w OpenWindow) Contains(t TimeOfDay) bool {
	return t >= w.From && t <= w.Until
}

// Settings gathers the engine's operational parameters in their parsed
// form. Built once at boot from config.EngineConfig.
type Settings struct {
	WindowDays     int
	ClosedWeekdays map[time.Weekday]bool
	OpenWindow     OpenWindow
	Cutoff         TimeOfDay
	Location       *time.Location
}

func NewSettings(cfg config.EngineConfig) (Settings, error) {
	openFrom, err := ParseTimeOfDay(cfg.OpenFrom)
	if err != nil {
		return Settings{}, fmt.Errorf("OPEN_FROM: %w", err)
	}
	openUntil, err := ParseTimeOfDay(cfg.OpenUntil)
	if err != nil {
		return Settings{}, fmt.Errorf("OPEN_UNTIL: %w", err)
	}
	cutoff, err := ParseTimeOfDay(cfg.DailyCutoff)
	if err != nil {
		return Settings{}, fmt.Errorf("DAILY_CUTOFF: %w", err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Settings{}, fmt.Errorf("TIMEZONE: %w", err)
	}

	closed := make(map[time.Weekday]bool, len(cfg.ClosedWeekdays))
	for _, name := range cfg.ClosedWeekdays {
		wd, err := parseWeekday(name)
		if err != nil {
			return Settings{}, fmt.Errorf("CLOSED_WEEKDAYS: %w", err)
		}
		closed[wd] = true
	}

	return Settings{
		WindowDays:     cfg.BookingWindowDays,
		ClosedWeekdays: closed,
		OpenWindow:     OpenWindow{From: openFrom, Until: openUntil},
		Cutoff:         cutoff,
		Location:       loc,
	}, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if wd.String() == name {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday: %q", name)
}
