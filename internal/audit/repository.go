package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry mirrors a system_logs row. The hosting application's reports UI
// reads this table; the engine only appends to it.
type Entry struct {
	ID          int64     `json:"id"`
	Actor       string    `json:"actor"`
	ActionType  string    `json:"actionType"`
	Description string    `json:"description"`
	ActorRole   string    `json:"actorRole"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Insert appends a log row inside the caller's transaction so the log and
// the state change it describes commit together.
func Insert(ctx context.Context, tx pgx.Tx, actor, actionType, description, actorRole string) error {
	const q = `
INSERT INTO system_logs (actor, action_type, description, actor_role)
VALUES ($1, $2, $3, $4)
`
	_, err := tx.Exec(ctx, q, actor, actionType, description, actorRole)
	return err
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	const q = `
SELECT log_id, actor, action_type, description, actor_role, created_at
FROM system_logs
ORDER BY created_at DESC
LIMIT $1
`
	rows, err := r.db.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Actor, &e.ActionType, &e.Description, &e.ActorRole, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
