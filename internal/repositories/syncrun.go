package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ChristopherJMiller/nutune/internal/models"
	"github.com/ChristopherJMiller/nutune/internal/shared"
)

// SyncRunRepository implements [models.Repository] for [models.SyncRun]
// persistence, the per-device sync history behind `nutune status`.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new [SyncRunRepository] with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts a new sync run into the database with generated ID and sequence
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	run.SetSequence(sequence)

	id := shared.GenerateID()
	run.SetID(id)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sync_runs (id, sequence, device_id, started_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, run.DeviceID(), run.StartedAt(), run.CreatedAt(), run.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	return nil
}

const syncRunColumns = `id, sequence, device_id, started_at, finished_at,
		albums_synced, playlists_synced, tracks_downloaded, bytes_downloaded,
		albums_deleted, playlists_deleted, error, created_at, updated_at, deleted_at`

func scanSyncRun(scan func(dest ...any) error) (*models.SyncRun, error) {
	var (
		id               string
		sequence         int
		deviceID         string
		startedAt        time.Time
		finishedAt       sql.NullTime
		albumsSynced     int
		playlistsSynced  int
		tracksDownloaded int
		bytesDownloaded  int64
		albumsDeleted    int
		playlistsDeleted int
		errMessage       sql.NullString
		createdAt        time.Time
		updatedAt        time.Time
		deletedAt        sql.NullTime
	)

	if err := scan(&id, &sequence, &deviceID, &startedAt, &finishedAt,
		&albumsSynced, &playlistsSynced, &tracksDownloaded, &bytesDownloaded,
		&albumsDeleted, &playlistsDeleted, &errMessage, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	run := models.NewSyncRun(sequence, deviceID)
	run.SetID(id)
	run.SetStartedAt(startedAt)
	run.SetCounters(albumsSynced, playlistsSynced, tracksDownloaded, bytesDownloaded, albumsDeleted, playlistsDeleted)
	run.SetErrMessage(errMessage.String)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if finishedAt.Valid {
		run.SetFinishedAt(&finishedAt.Time)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}
	return run, nil
}

// Get retrieves a sync run by ID, excluding soft-deleted runs
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := `
		SELECT ` + syncRunColumns + `
		FROM sync_runs
		WHERE id = ? AND deleted_at IS NULL
	`

	row := r.db.QueryRow(query, id)
	run, err := scanSyncRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sync run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sync run: %w", err)
	}
	return run, nil
}

// Update writes the completion state of an existing sync run
func (r *SyncRunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE sync_runs
		SET finished_at = ?, albums_synced = ?, playlists_synced = ?, tracks_downloaded = ?,
			bytes_downloaded = ?, albums_deleted = ?, playlists_deleted = ?, error = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	var finishedAt any
	if ts := run.FinishedAt(); ts != nil {
		finishedAt = *ts
	}

	result, err := r.db.Exec(query,
		finishedAt, run.AlbumsSynced(), run.PlaylistsSynced(), run.TracksDownloaded(),
		run.BytesDownloaded(), run.AlbumsDeleted(), run.PlaylistsDeleted(), run.ErrMessage(),
		now, run.ID())
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found or already deleted: %s", run.ID())
	}

	return nil
}

// Delete soft-deletes a sync run by ID
func (r *SyncRunRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE sync_runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves sync runs matching the given criteria, newest first,
// excluding soft-deleted runs
func (r *SyncRunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	query := `
		SELECT ` + syncRunColumns + `
		FROM sync_runs
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if deviceID, ok := criteria["device_id"].(string); ok && deviceID != "" {
		query += " AND device_id = ?"
		args = append(args, deviceID)
	}

	query += " ORDER BY started_at DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}
