// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/gnssview/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ThemeKey is the settings key holding the UI theme.
const ThemeKey = "theme"

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for the snapshot log and settings.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY,
			fetch_id TEXT NOT NULL,
			fetched_at TEXT NOT NULL,
			api_url TEXT NOT NULL,
			dataset TEXT NOT NULL,
			model TEXT NOT NULL,
			rmse REAL NOT NULL,
			mae REAL NOT NULL,
			shapiro_p REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_dataset_model ON snapshots(dataset, model, fetched_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SnapshotsFromDocument flattens a fetched document into one snapshot per
// dataset and model, in document order.
func SnapshotsFromDocument(fetchID string, fetchedAt time.Time, apiURL string, doc model.MetricsDocument) []model.Snapshot {
	var out []model.Snapshot
	for _, dataset := range doc.Datasets() {
		ds, _ := doc.Dataset(dataset)
		for _, id := range ds.Keys() {
			mm, _ := ds.Lookup(id)
			out = append(out, model.Snapshot{
				FetchID:   fetchID,
				FetchedAt: fetchedAt,
				APIURL:    apiURL,
				Dataset:   dataset,
				Model:     id,
				Metrics:   mm,
			})
		}
	}
	return out
}

// InsertSnapshots appends snapshots in a single transaction.
func (s *Store) InsertSnapshots(ctx context.Context, snaps []model.Snapshot) (err error) {
	if len(snaps) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshots (fetch_id, fetched_at, api_url, dataset, model, rmse, mae, shapiro_p)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, snap := range snaps {
		if _, err = stmt.ExecContext(ctx,
			snap.FetchID,
			snap.FetchedAt.UTC().Format(timeLayout),
			snap.APIURL,
			snap.Dataset,
			snap.Model,
			snap.Metrics.RMSE,
			snap.Metrics.MAE,
			snap.Metrics.ShapiroP,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSnapshots returns the most recent snapshots for a dataset and model in
// chronological order. last <= 0 returns all of them.
func (s *Store) ListSnapshots(ctx context.Context, dataset, modelID string, last int) ([]model.Snapshot, error) {
	limit := last
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT fetch_id, fetched_at, api_url, dataset, model, rmse, mae, shapiro_p FROM (
		SELECT id, fetch_id, fetched_at, api_url, dataset, model, rmse, mae, shapiro_p
		FROM snapshots
		WHERE dataset = ? AND model = ?
		ORDER BY fetched_at DESC, id DESC
		LIMIT ?
	) ORDER BY fetched_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, dataset, modelID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var fetchedAt string
		if err := rows.Scan(&snap.FetchID, &fetchedAt, &snap.APIURL, &snap.Dataset, &snap.Model,
			&snap.Metrics.RMSE, &snap.Metrics.MAE, &snap.Metrics.ShapiroP); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, fetchedAt)
		if err != nil {
			return nil, err
		}
		snap.FetchedAt = parsed
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetSetting returns a stored setting. ok is false when the key is unset.
func (s *Store) GetSetting(ctx context.Context, key string) (value string, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// SetSetting stores a setting, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
