package store

import (
	"context"
	"database/sql"
	"fmt"
)

// execer is the subset of *sql.Conn (and, for callers that already hold a
// transaction, *sql.Tx) migrations need. database/sql's Tx type cannot be
// started with a custom BEGIN mode, so RunMigrations drives the
// transaction manually over a single *sql.Conn with literal "BEGIN
// EXCLUSIVE" / "COMMIT" / "ROLLBACK" statements and hands migrations that
// same connection.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Migration is one named, idempotent schema step, following the host
// repo's internal/storage/sqlite/migrations.go shape (Migration{Name,
// Func}, ordered list, single-transaction runner).
type Migration struct {
	Name string
	Func func(ctx context.Context, ex execer) error
}

var migrationsList = []Migration{
	{Name: "001_base_schema", Func: migrateBaseSchema},
	{Name: "002_legacy_summary_rewrite", Func: migrateLegacySummaryRewrite},
}

// RunMigrations runs every migration whose index exceeds the stored
// schema_version inside one BEGIN EXCLUSIVE transaction, matching the host
// repo's cross-process-safe migration discipline: PRAGMA foreign_keys is
// disabled outside the transaction before migrating (SQLite forbids
// toggling it inside one) and restored after, regardless of outcome.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=OFF"); err != nil {
		return fmt.Errorf("disable foreign keys for migration: %w", err)
	}
	defer func() { _, _ = db.ExecContext(ctx, "PRAGMA foreign_keys=ON") }()

	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN EXCLUSIVE"); err != nil {
		return fmt.Errorf("begin exclusive: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(ctx, "ROLLBACK")
		}
	}()

	if _, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	version := 0
	row := conn.QueryRowContext(ctx, "SELECT version FROM schema_version WHERE id = 1")
	if err := row.Scan(&version); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read schema_version: %w", err)
	}

	for i, m := range migrationsList {
		idx := i + 1
		if idx <= version {
			continue
		}
		if err := m.Func(ctx, conn); err != nil {
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
	}

	newVersion := len(migrationsList)
	if _, err := conn.ExecContext(ctx, `
		INSERT INTO schema_version (id, version) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET version = excluded.version
	`, newVersion); err != nil {
		return fmt.Errorf("stamp schema_version: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit migration transaction: %w", err)
	}
	committed = true
	return nil
}

func migrateBaseSchema(ctx context.Context, ex execer) error {
	_, err := ex.ExecContext(ctx, baseSchema)
	return err
}

// migrateLegacySummaryRewrite performs the S7 scenario: a legacy
// session_summaries shape {investigated, notes} becomes {completed,
// preferences}, carrying values over with COALESCE(new, legacy). Guarded
// by an existence check (idempotent, not error-sniffing) so it is a no-op
// on a schema created fresh by migrateBaseSchema.
func migrateLegacySummaryRewrite(ctx context.Context, ex execer) error {
	hasLegacy, err := columnExists(ctx, ex, "session_summaries", "investigated")
	if err != nil {
		return err
	}
	if !hasLegacy {
		return nil
	}

	hasCompleted, err := columnExists(ctx, ex, "session_summaries", "completed")
	if err != nil {
		return err
	}
	if !hasCompleted {
		if _, err := ex.ExecContext(ctx, `ALTER TABLE session_summaries ADD COLUMN completed TEXT`); err != nil {
			return err
		}
	}

	hasPreferences, err := columnExists(ctx, ex, "session_summaries", "preferences")
	if err != nil {
		return err
	}
	if !hasPreferences {
		if _, err := ex.ExecContext(ctx, `ALTER TABLE session_summaries ADD COLUMN preferences TEXT`); err != nil {
			return err
		}
	}

	if _, err := ex.ExecContext(ctx, `
		UPDATE session_summaries
		SET completed   = COALESCE(completed, investigated),
		    preferences = COALESCE(preferences, notes)
	`); err != nil {
		return err
	}

	if _, err := ex.ExecContext(ctx, `ALTER TABLE session_summaries DROP COLUMN investigated`); err != nil {
		return err
	}
	hasNotes, err := columnExists(ctx, ex, "session_summaries", "notes")
	if err != nil {
		return err
	}
	if hasNotes {
		if _, err := ex.ExecContext(ctx, `ALTER TABLE session_summaries DROP COLUMN notes`); err != nil {
			return err
		}
	}

	return nil
}

// columnExists checks PRAGMA table_info rather than sniffing an ALTER
// TABLE error, the same idiom the host repo's migrations use for
// idempotent column additions.
func columnExists(ctx context.Context, ex execer, table, column string) (bool, error) {
	rows, err := ex.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
