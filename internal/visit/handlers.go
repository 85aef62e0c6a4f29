package visit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campuspass/internal/api"
	"campuspass/internal/audit"
	"campuspass/pkg/db"
)

type Handlers struct {
	DB       *pgxpool.Pool
	Visits   *Repository
	Settings Settings

	// Now is injectable for tests; defaults to wall clock in the
	// configured location.
	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().In(h.Settings.Location)
}

func (h Handlers) admission() Admission {
	return Admission{
		Settings:     h.Settings,
		CodeExists:   h.Visits.CodeExists,
		HasOpenVisit: h.Visits.HasOpenVisit,
	}
}

// Book handles POST /v1/visits. The insert races against concurrent
// bookings on both unique constraints; a code collision loops back into
// admission for a fresh code, a duplicate booking is surfaced as-is.
func (h Handlers) Book(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	req.OwnerRef = id.Ref

	now := h.now()
	adm := h.admission()

	for attempt := 0; attempt < codeMaxAttempts; attempt++ {
		v, err := adm.Admit(r.Context(), req, now)
		if err != nil {
			writeVisitError(w, err)
			return
		}

		err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
			if err := Insert(r.Context(), tx, v); err != nil {
				return err
			}
			desc := fmt.Sprintf("Booked a visit for %s in %s for purpose '%s'. Visit code: %s",
				v.VisitDate.Format("2006-01-02"), v.Department, v.Purpose, v.Code)
			return audit.Insert(r.Context(), tx, actorLabel(id), "Visit Booking", desc, "Visitor")
		})
		if errors.Is(err, ErrCodeTaken) {
			continue
		}
		if err != nil {
			writeVisitError(w, err)
			return
		}

		api.WriteJSON(w, http.StatusCreated, map[string]any{"visit": v})
		return
	}

	writeVisitError(w, ErrCodeExhausted)
}

// List handles GET /v1/visits: the caller's own visits. With ?fresh=1 each
// status is re-derived through NextStatus so dashboards never show a value
// the sweeper hasn't converged yet; nothing is persisted on this path.
func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	visits, err := h.Visits.ListByOwner(r.Context(), id.Ref)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if r.URL.Query().Get("fresh") == "1" {
		visits = h.refreshed(visits)
	}
	if visits == nil {
		visits = []Visit{}
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"items": visits})
}

// Get handles GET /v1/visits/{code}. Visitors only see their own visits;
// staff see any.
func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	code := chi.URLParam(r, "code")
	v, err := h.Visits.GetByCode(r.Context(), code)
	if err != nil {
		writeVisitError(w, err)
		return
	}
	if id.Role != api.RoleStaff && v.OwnerRef != id.Ref {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "visit not found")
		return
	}

	if r.URL.Query().Get("fresh") == "1" {
		fresh := h.refreshed([]Visit{*v})
		v = &fresh[0]
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"visit": v})
}

// CheckIn handles POST /v1/visits/{code}/check-in (staff only).
func (h Handlers) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Visitor Check-In", func(v Visit, now time.Time) (Visit, error) {
		return CheckIn(v, now, h.Settings.OpenWindow)
	})
}

// CheckOut handles POST /v1/visits/{code}/check-out (staff only).
func (h Handlers) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Visitor Check-Out", CheckOut)
}

func (h Handlers) transition(w http.ResponseWriter, r *http.Request, action string, apply func(Visit, time.Time) (Visit, error)) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	code := chi.URLParam(r, "code")
	if code == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing code")
		return
	}

	now := h.now()
	var updated Visit
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		v, err := GetByCodeForUpdate(r.Context(), tx, code)
		if err != nil {
			return err
		}

		next, err := apply(*v, now)
		if err != nil {
			return err
		}
		if err := UpdateStatus(r.Context(), tx, next.ID, next.Status, next.StartTime, next.EndTime); err != nil {
			return err
		}
		updated = next

		desc := fmt.Sprintf("%s: visit %s for %s at %s is now %s.",
			action, next.Code, next.Purpose, next.Department, next.Status)
		return audit.Insert(r.Context(), tx, actorLabel(id), action, desc, "Staff")
	})
	if err != nil {
		writeVisitError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"visit": updated})
}

// WalkIn handles POST /v1/walk-ins (staff only): book and check in an
// unannounced visitor in one transaction.
func (h Handlers) WalkIn(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var req WalkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	now := h.now()
	adm := h.admission()

	for attempt := 0; attempt < codeMaxAttempts; attempt++ {
		v, err := adm.AdmitWalkIn(r.Context(), req, now)
		if err != nil {
			writeVisitError(w, err)
			return
		}

		err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
			if err := Insert(r.Context(), tx, v); err != nil {
				return err
			}
			desc := fmt.Sprintf("Registered walk-in visitor %s %s (%s) for %s at %s. Visit code: %s",
				req.FirstName, req.LastName, req.Email, v.Purpose, v.Department, v.Code)
			return audit.Insert(r.Context(), tx, actorLabel(id), "Walk-In Registration", desc, "Staff")
		})
		if errors.Is(err, ErrCodeTaken) {
			continue
		}
		if err != nil {
			writeVisitError(w, err)
			return
		}

		api.WriteJSON(w, http.StatusCreated, map[string]any{"visit": v})
		return
	}

	writeVisitError(w, ErrCodeExhausted)
}

// Records handles GET /v1/records?date=&q= (staff only): every visit on a
// calendar date with free-text search, defaulting to today.
func (h Handlers) Records(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, now.Location())
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid date")
			return
		}
		date = parsed
	}

	visits, err := h.Visits.ListForDate(r.Context(), date, r.URL.Query().Get("q"))
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if r.URL.Query().Get("fresh") == "1" {
		visits = h.refreshed(visits)
	}
	if visits == nil {
		visits = []Visit{}
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"date":  date.Format("2006-01-02"),
		"items": visits,
	})
}

// refreshed maps stored rows through NextStatus for display accuracy
// without waiting for the sweeper to converge them.
func (h Handlers) refreshed(visits []Visit) []Visit {
	now := h.now()
	out := make([]Visit, len(visits))
	for i, v := range visits {
		res := NextStatus(v.Status, now, v.VisitDate, v.StartTime, v.EndTime, h.Settings.Cutoff)
		v.Status = res.Status
		v.StartTime = res.StartTime
		v.EndTime = res.EndTime
		out[i] = v
	}
	return out
}

func actorLabel(id *api.Identity) string {
	if id.Name != "" {
		return fmt.Sprintf("%s (%s)", id.Name, id.Ref)
	}
	return id.Ref
}

func writeVisitError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", verr.Error())
	case errors.Is(err, ErrPastDate):
		api.WriteError(w, http.StatusBadRequest, "PAST_DATE", err.Error())
	case errors.Is(err, ErrOutOfWindow):
		api.WriteError(w, http.StatusBadRequest, "OUT_OF_WINDOW", err.Error())
	case errors.Is(err, ErrClosedDay):
		api.WriteError(w, http.StatusBadRequest, "CLOSED_DAY", err.Error())
	case errors.Is(err, ErrDuplicateBooking):
		api.WriteError(w, http.StatusConflict, "DUPLICATE_BOOKING", err.Error())
	case errors.Is(err, ErrIllegalTransition):
		api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", err.Error())
	case errors.Is(err, ErrOutsideOperatingHours):
		api.WriteError(w, http.StatusConflict, "OUTSIDE_OPERATING_HOURS", err.Error())
	case errors.Is(err, ErrWrongDate):
		api.WriteError(w, http.StatusConflict, "WRONG_DATE", err.Error())
	case errors.Is(err, ErrCodeExhausted):
		api.WriteError(w, http.StatusServiceUnavailable, "CODE_EXHAUSTED", err.Error())
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "visit not found")
	default:
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
