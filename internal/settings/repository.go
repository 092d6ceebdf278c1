package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository defines persistence for canonical device settings. The
// abstraction allows SQLite in production and mocks in tests.
type Repository interface {
	// Get retrieves the persisted settings for a device.
	// Returns ErrNotFound if the device has never been saved.
	Get(ctx context.Context, deviceID string) (*DeviceSettings, error)

	// Save upserts the complete settings snapshot for a device.
	Save(ctx context.Context, s *DeviceSettings) error

	// List retrieves all persisted device settings.
	List(ctx context.Context) ([]DeviceSettings, error)
}

// SQLiteRepository implements Repository using SQLite. Field maps are
// stored as a single JSON document per device.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed settings repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get retrieves the persisted settings for a device.
func (r *SQLiteRepository) Get(ctx context.Context, deviceID string) (*DeviceSettings, error) {
	query := `
		SELECT device_id, fields, updated_at
		FROM device_settings
		WHERE device_id = ?`

	var (
		s          DeviceSettings
		fieldsJSON string
		updatedAt  string
	)
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(&s.DeviceID, &fieldsJSON, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying settings for %s: %w", deviceID, err)
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &s.Fields); err != nil {
		return nil, fmt.Errorf("unmarshalling settings fields for %s: %w", deviceID, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		s.UpdatedAt = t
	}

	return &s, nil
}

// Save upserts the complete settings snapshot for a device.
func (r *SQLiteRepository) Save(ctx context.Context, s *DeviceSettings) error {
	if s == nil || s.DeviceID == "" {
		return ErrEmptyDeviceID
	}

	fieldsJSON, err := json.Marshal(s.Fields)
	if err != nil {
		return fmt.Errorf("marshalling settings fields: %w", err)
	}

	query := `
		INSERT INTO device_settings (device_id, fields, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			fields = excluded.fields,
			updated_at = excluded.updated_at`

	updatedAt := s.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	if _, err := r.db.ExecContext(ctx, query, s.DeviceID, string(fieldsJSON),
		updatedAt.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("saving settings for %s: %w", s.DeviceID, err)
	}
	return nil
}

// List retrieves all persisted device settings.
func (r *SQLiteRepository) List(ctx context.Context) ([]DeviceSettings, error) {
	query := `
		SELECT device_id, fields, updated_at
		FROM device_settings
		ORDER BY device_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	defer rows.Close()

	var all []DeviceSettings
	for rows.Next() {
		var (
			s          DeviceSettings
			fieldsJSON string
			updatedAt  string
		)
		if err := rows.Scan(&s.DeviceID, &fieldsJSON, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning settings row: %w", err)
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &s.Fields); err != nil {
			return nil, fmt.Errorf("unmarshalling settings fields for %s: %w", s.DeviceID, err)
		}
		if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			s.UpdatedAt = t
		}
		all = append(all, s)
	}
	return all, rows.Err()
}
