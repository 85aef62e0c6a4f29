package sweeper

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"campuspass/internal/visit"
)

type memStore struct {
	visits map[string]*visit.Visit
}

func (m *memStore) OpenVisitIDs(ctx context.Context, onOrBefore time.Time) ([]string, error) {
	var out []string
	for id, v := range m.visits {
		if !v.Status.IsTerminal() && !v.VisitDate.After(onOrBefore) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memStore) ApplyCutoff(ctx context.Context, id string, now time.Time, cutoff visit.TimeOfDay) (*visit.Change, error) {
	v := m.visits[id]
	res := visit.NextStatus(v.Status, now, v.VisitDate, v.StartTime, v.EndTime, cutoff)
	if !res.Changed {
		return nil, nil
	}
	from := v.Status
	v.Status = res.Status
	v.StartTime = res.StartTime
	v.EndTime = res.EndTime
	return &visit.Change{Visit: *v, From: from}, nil
}

func TestSweep_FinalizesPastCutoff(t *testing.T) {
	today := time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)
	checkedIn := visit.NewTimeOfDay(10, 0, 0)

	store := &memStore{visits: map[string]*visit.Visit{
		"noshow": {ID: "noshow", Code: "CIT-MEE-AAAAA", VisitDate: today, Status: visit.StatusUpcoming},
		"stale":  {ID: "stale", Code: "CIT-TOU-BBBBB", VisitDate: today, Status: visit.StatusActive, StartTime: &checkedIn},
		"done":   {ID: "done", Code: "CIT-ENR-CCCCC", VisitDate: today, Status: visit.StatusCompleted},
	}}

	cutoff := visit.NewTimeOfDay(21, 0, 0)
	s := &Sweeper{
		Visits: store,
		Cutoff: cutoff,
		Log:    zap.NewNop(),
		Now: func() time.Time {
			return time.Date(2025, time.March, 4, 21, 5, 0, 0, time.UTC)
		},
	}

	n, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 finalized, got %d", n)
	}

	if got := store.visits["noshow"]; got.Status != visit.StatusExpired {
		t.Fatalf("no-show should be Expired, got %s", got.Status)
	} else if got.StartTime == nil || *got.StartTime != cutoff || got.EndTime == nil || *got.EndTime != cutoff {
		t.Fatalf("no-show schedule should be backfilled to cutoff")
	}

	if got := store.visits["stale"]; got.Status != visit.StatusCompleted {
		t.Fatalf("stale active should be Completed, got %s", got.Status)
	} else if got.EndTime == nil || *got.EndTime != cutoff {
		t.Fatalf("stale active end time should be the cutoff, got %v", got.EndTime)
	}
}

func TestSweep_Idempotent(t *testing.T) {
	today := time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)
	store := &memStore{visits: map[string]*visit.Visit{
		"noshow": {ID: "noshow", Code: "CIT-MEE-AAAAA", VisitDate: today, Status: visit.StatusUpcoming},
	}}

	s := &Sweeper{
		Visits: store,
		Cutoff: visit.NewTimeOfDay(21, 0, 0),
		Log:    zap.NewNop(),
		Now: func() time.Time {
			return time.Date(2025, time.March, 4, 21, 5, 0, 0, time.UTC)
		},
	}

	if n, _ := s.Sweep(context.Background()); n != 1 {
		t.Fatalf("first sweep should finalize 1, got %d", n)
	}
	if n, _ := s.Sweep(context.Background()); n != 0 {
		t.Fatalf("second sweep must be a no-op, got %d", n)
	}
}

func TestSweep_LeavesTodayBeforeCutoffAlone(t *testing.T) {
	today := time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)
	store := &memStore{visits: map[string]*visit.Visit{
		"early": {ID: "early", Code: "CIT-MEE-DDDDD", VisitDate: today, Status: visit.StatusUpcoming},
	}}

	s := &Sweeper{
		Visits: store,
		Cutoff: visit.NewTimeOfDay(21, 0, 0),
		Log:    zap.NewNop(),
		Now: func() time.Time {
			return time.Date(2025, time.March, 4, 14, 0, 0, 0, time.UTC)
		},
	}

	if n, _ := s.Sweep(context.Background()); n != 0 {
		t.Fatalf("pre-cutoff sweep should change nothing, got %d", n)
	}
	if store.visits["early"].Status != visit.StatusUpcoming {
		t.Fatalf("status should remain Upcoming")
	}
}
