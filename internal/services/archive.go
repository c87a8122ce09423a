package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/aawaaz/grievance-portal/internal/toast"
)

// DB is the subset of pgxpool.Pool the archive uses
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const archiveSchema = `
	CREATE TABLE IF NOT EXISTS toast_archive (
		id          UUID PRIMARY KEY,
		message     TEXT NOT NULL,
		icon        TEXT NOT NULL,
		source      TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)
`

// Archive is a toast.Notifier decorator that stores every toast it passes
// on in Postgres. Storage failures are logged and never reach the caller.
type Archive struct {
	next    toast.Notifier
	db      DB
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewArchive wraps next so that each shown toast is also archived
func NewArchive(next toast.Notifier, db DB, logger *zap.SugaredLogger) *Archive {
	return &Archive{next: next, db: db, timeout: 3 * time.Second, logger: logger}
}

// EnsureSchema creates the archive table if missing
func (a *Archive) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.Exec(ctx, archiveSchema); err != nil {
		return fmt.Errorf("create toast_archive: %w", err)
	}
	return nil
}

// Show forwards t and records it
func (a *Archive) Show(t toast.Toast) {
	if a.next != nil {
		a.next.Show(t)
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	query := `
		INSERT INTO toast_archive (id, message, icon, source, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := a.db.Exec(ctx, query,
		t.ID, t.Message, t.Icon, t.Source,
		t.Duration.Milliseconds(), t.CreatedAt,
	)
	if err != nil {
		a.logger.Errorw("Failed to archive toast", "id", t.ID, "source", t.Source, "error", err)
		return
	}
	a.logger.Debugw("Toast archived", "id", t.ID, "source", t.Source)
}

// Count returns the number of archived toasts
func (a *Archive) Count(ctx context.Context) (int64, error) {
	var count int64
	err := a.db.QueryRow(ctx, "SELECT COUNT(*) FROM toast_archive").Scan(&count)
	return count, err
}

// Ping checks the database, used by the readiness probe
func (a *Archive) Ping(ctx context.Context) error {
	return a.db.Ping(ctx)
}
