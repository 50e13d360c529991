package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ChristopherJMiller/nutune/internal/models"
)

// DeviceRepository implements [models.Repository] for [models.Device]
// persistence. Device IDs are the stable hardware hashes from the
// device package, not generated UUIDs, so a replugged stick maps back
// to the same row.
type DeviceRepository struct {
	db *sql.DB
}

// NewDeviceRepository creates a new [DeviceRepository] with the given database connection
func NewDeviceRepository(db *sql.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create inserts a new device into the database with a generated sequence
func (r *DeviceRepository) Create(device *models.Device) error {
	sequence, err := NextSequence(r.db, "devices")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	device.SetSequence(sequence)

	if err := device.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO devices (id, sequence, label, fs_type, size_bytes, friendly_name, first_seen, last_seen, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		device.ID(), sequence, device.Label(), device.FSType(), device.SizeBytes(),
		device.FriendlyName(), device.FirstSeen(), device.LastSeen(),
		device.CreatedAt(), device.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert device: %w", err)
	}

	return nil
}

func scanDevice(scan func(dest ...any) error) (*models.Device, error) {
	var (
		id           string
		sequence     int
		label        sql.NullString
		fsType       string
		sizeBytes    int64
		friendlyName sql.NullString
		firstSeen    time.Time
		lastSeen     time.Time
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	if err := scan(&id, &sequence, &label, &fsType, &sizeBytes, &friendlyName, &firstSeen, &lastSeen, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	device := models.NewDevice(sequence, id, label.String, fsType, sizeBytes)
	device.SetFriendlyName(friendlyName.String)
	device.SetFirstSeen(firstSeen)
	device.SetLastSeen(lastSeen)
	device.SetCreatedAt(createdAt)
	device.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		device.SetDeletedAt(&deletedAt.Time)
	}
	return device, nil
}

const deviceColumns = "id, sequence, label, fs_type, size_bytes, friendly_name, first_seen, last_seen, created_at, updated_at, deleted_at"

// Get retrieves a device by ID, excluding soft-deleted devices
func (r *DeviceRepository) Get(id string) (*models.Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE id = ? AND deleted_at IS NULL
	`

	row := r.db.QueryRow(query, id)
	device, err := scanDevice(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("device not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query device: %w", err)
	}
	return device, nil
}

// Update modifies an existing device in the database
func (r *DeviceRepository) Update(device *models.Device) error {
	if err := device.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	device.SetUpdatedAt(now)

	query := `
		UPDATE devices
		SET label = ?, fs_type = ?, size_bytes = ?, friendly_name = ?, last_seen = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		device.Label(), device.FSType(), device.SizeBytes(), device.FriendlyName(),
		device.LastSeen(), now, device.ID())
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("device not found or already deleted: %s", device.ID())
	}

	return nil
}

// Delete soft-deletes a device by ID
func (r *DeviceRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE devices
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("device not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all devices matching the given criteria, excluding soft-deleted devices
func (r *DeviceRepository) List(criteria map[string]any) ([]*models.Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if label, ok := criteria["label"].(string); ok && label != "" {
		query += " AND label = ?"
		args = append(args, label)
	}

	query += " ORDER BY last_seen DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		device, err := scanDevice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return devices, nil
}

// Touch records a sighting of a device: created on first sight,
// last_seen bumped on every later one. Returns the registered device.
func (r *DeviceRepository) Touch(id, label, fsType string, sizeBytes int64) (*models.Device, error) {
	existing, err := r.Get(id)
	if err != nil {
		device := models.NewDevice(0, id, label, fsType, sizeBytes)
		if err := r.Create(device); err != nil {
			return nil, err
		}
		return device, nil
	}

	existing.SetLastSeen(time.Now())
	if err := r.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}
