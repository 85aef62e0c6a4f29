package visit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"campuspass/internal/audit"
	"campuspass/pkg/db"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const visitColumns = `id, code, owner_ref, purpose, department, visit_date, start_time, end_time, status, created_at`

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	var start, end pgtype.Time
	if err := row.Scan(
		&v.ID, &v.Code, &v.OwnerRef, &v.Purpose, &v.Department,
		&v.VisitDate, &start, &end, &v.Status, &v.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	v.StartTime = timeOfDayFromPg(start)
	v.EndTime = timeOfDayFromPg(end)
	return &v, nil
}

// Insert persists a freshly admitted visit. Uniqueness lives in the store:
// a violation of the code constraint surfaces as ErrCodeTaken so the caller
// can loop back into GenerateCode, and a violation of the open-visit-per-
// owner-per-day index surfaces as ErrDuplicateBooking.
func Insert(ctx context.Context, tx pgx.Tx, v Visit) error {
	const q = `
INSERT INTO visits (id, code, owner_ref, purpose, department, visit_date, start_time, end_time, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
	_, err := tx.Exec(ctx, q,
		v.ID, v.Code, v.OwnerRef, v.Purpose, v.Department,
		v.VisitDate, pgTimeOf(v.StartTime), pgTimeOf(v.EndTime), string(v.Status), v.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "code") {
				return ErrCodeTaken
			}
			return ErrDuplicateBooking
		}
		return err
	}
	return nil
}

func (r *Repository) GetByCode(ctx context.Context, code string) (*Visit, error) {
	q := `SELECT ` + visitColumns + ` FROM visits WHERE code = $1`
	return scanVisit(r.db.QueryRow(ctx, q, code))
}

func GetByCodeForUpdate(ctx context.Context, tx pgx.Tx, code string) (*Visit, error) {
	q := `SELECT ` + visitColumns + ` FROM visits WHERE code = $1 FOR UPDATE`
	return scanVisit(tx.QueryRow(ctx, q, code))
}

func GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*Visit, error) {
	q := `SELECT ` + visitColumns + ` FROM visits WHERE id = $1 FOR UPDATE`
	return scanVisit(tx.QueryRow(ctx, q, id))
}

// UpdateStatus writes the status and schedule times together; they always
// change as one unit (check-in sets start, check-out/cutoff set end).
func UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status, start, end *TimeOfDay) error {
	const q = `
UPDATE visits
SET status = $1, start_time = $2, end_time = $3, updated_at = NOW()
WHERE id = $4
`
	_, err := tx.Exec(ctx, q, string(status), pgTimeOf(start), pgTimeOf(end), id)
	return err
}

func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM visits WHERE code = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, q, code).Scan(&exists)
	return exists, err
}

func (r *Repository) HasOpenVisit(ctx context.Context, ownerRef string, date time.Time) (bool, error) {
	const q = `
SELECT EXISTS (
	SELECT 1 FROM visits
	WHERE owner_ref = $1 AND visit_date = $2 AND status IN ('Upcoming', 'Active')
)
`
	var exists bool
	err := r.db.QueryRow(ctx, q, ownerRef, date).Scan(&exists)
	return exists, err
}

func (r *Repository) ListByOwner(ctx context.Context, ownerRef string) ([]Visit, error) {
	q := `SELECT ` + visitColumns + ` FROM visits WHERE owner_ref = $1 ORDER BY visit_date DESC, start_time, code`
	return r.list(ctx, q, ownerRef)
}

// ListForDate backs the staff day view: every visit on a calendar date, any
// status, optionally filtered by a search term over code, purpose,
// department and owner.
func (r *Repository) ListForDate(ctx context.Context, date time.Time, search string) ([]Visit, error) {
	q := `SELECT ` + visitColumns + ` FROM visits WHERE visit_date = $1`
	args := []any{date}
	if s := strings.TrimSpace(search); s != "" {
		q += ` AND (code ILIKE $2 OR purpose ILIKE $2 OR department ILIKE $2 OR owner_ref ILIKE $2)`
		args = append(args, "%"+s+"%")
	}
	q += ` ORDER BY start_time, code`
	return r.list(ctx, q, args...)
}

// OpenVisitIDs returns every non-terminal visit dated on or before the
// given day; the sweeper walks these one transaction at a time.
func (r *Repository) OpenVisitIDs(ctx context.Context, onOrBefore time.Time) ([]string, error) {
	const q = `
SELECT id FROM visits
WHERE status IN ('Upcoming', 'Active') AND visit_date <= $1
ORDER BY visit_date, code
`
	rows, err := r.db.Query(ctx, q, onOrBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Change reports a sweep finalization: the visit as persisted and the
// status it held before.
type Change struct {
	Visit Visit
	From  Status
}

// ApplyCutoff re-derives one visit's status under a row lock and persists
// the result if it moved. Safe to run concurrently with check-in/out: the
// lock serializes writers and NextStatus is a no-op on anything already
// finalized, so redundant sweeps change nothing.
func (r *Repository) ApplyCutoff(ctx context.Context, id string, now time.Time, cutoff TimeOfDay) (*Change, error) {
	var change *Change
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		v, err := GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		res := NextStatus(v.Status, now, v.VisitDate, v.StartTime, v.EndTime, cutoff)
		if !res.Changed {
			return nil
		}
		if err := UpdateStatus(ctx, tx, v.ID, res.Status, res.StartTime, res.EndTime); err != nil {
			return err
		}

		from := v.Status
		v.Status = res.Status
		v.StartTime = res.StartTime
		v.EndTime = res.EndTime
		change = &Change{Visit: *v, From: from}

		desc := fmt.Sprintf("Automatically marked visit %s as %s at the daily cutoff.", v.Code, v.Status)
		return audit.Insert(ctx, tx, "CampusPass Scheduler", "Visit Finalized", desc, "System")
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]Visit, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Visit
	for rows.Next() {
		var v Visit
		var start, end pgtype.Time
		if err := rows.Scan(
			&v.ID, &v.Code, &v.OwnerRef, &v.Purpose, &v.Department,
			&v.VisitDate, &start, &end, &v.Status, &v.CreatedAt,
		); err != nil {
			return nil, err
		}
		v.StartTime = timeOfDayFromPg(start)
		v.EndTime = timeOfDayFromPg(end)
		out = append(out, v)
	}
	return out, rows.Err()
}
