package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Repository defines storage for the device registry.
type Repository interface {
	Create(ctx context.Context, d *Device) error
	Get(ctx context.Context, codename string) (*Device, error)
	List(ctx context.Context) ([]Device, error)
	UpdateDescription(ctx context.Context, codename, description string) error
	Delete(ctx context.Context, codename string) error

	AddVersion(ctx context.Context, v *FirmwareVersion) error
	DeleteVersion(ctx context.Context, codename, version string) error
	Versions(ctx context.Context, codename string) ([]FirmwareVersion, error)
	VersionCount(ctx context.Context, codename string) (int, error)
	LatestVersion(ctx context.Context, codename string) (*FirmwareVersion, error)
}

// SQLiteRepository stores the device registry in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new device registry repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create registers a new device.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO devices (codename, location, type, device_id, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Codename, d.Location, d.Type, d.DeviceID, nullableString(d.Description),
		d.CreatedAt.Format(time.RFC3339), d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, d.Codename)
		}
		return fmt.Errorf("inserting device %s: %w", d.Codename, err)
	}
	return nil
}

// Get returns the device with the given codename.
func (r *SQLiteRepository) Get(ctx context.Context, codename string) (*Device, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT codename, location, type, device_id, description, created_at, updated_at
		 FROM devices WHERE codename = ?`, codename)

	d, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, codename)
	}
	if err != nil {
		return nil, fmt.Errorf("querying device %s: %w", codename, err)
	}
	return d, nil
}

// List returns all registered devices ordered by codename.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT codename, location, type, device_id, description, created_at, updated_at
		 FROM devices ORDER BY codename`)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	devices := []Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// UpdateDescription changes a device's description.
func (r *SQLiteRepository) UpdateDescription(ctx context.Context, codename, description string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE devices SET description = ?, updated_at = ? WHERE codename = ?`,
		nullableString(description), time.Now().UTC().Format(time.RFC3339), codename)
	if err != nil {
		return fmt.Errorf("updating device %s: %w", codename, err)
	}
	return requireRow(result, codename)
}

// Delete removes a device and, via foreign key cascade, its published
// firmware versions.
func (r *SQLiteRepository) Delete(ctx context.Context, codename string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE codename = ?`, codename)
	if err != nil {
		return fmt.Errorf("deleting device %s: %w", codename, err)
	}
	return requireRow(result, codename)
}

// AddVersion publishes a firmware version for a device. The generated
// row id is written back to v.
func (r *SQLiteRepository) AddVersion(ctx context.Context, v *FirmwareVersion) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO firmware_versions (device_codename, version, url, created_at)
		 VALUES (?, ?, ?, ?)`,
		v.DeviceCodename, v.Version, v.URL, v.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s %s", ErrVersionExists, v.DeviceCodename, v.Version)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, v.DeviceCodename)
		}
		return fmt.Errorf("inserting firmware version: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading firmware version id: %w", err)
	}
	v.ID = id
	return nil
}

// DeleteVersion removes one published firmware version, leaving the
// device and its other versions in place.
func (r *SQLiteRepository) DeleteVersion(ctx context.Context, codename, version string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM firmware_versions WHERE device_codename = ? AND version = ?`,
		codename, version)
	if err != nil {
		return fmt.Errorf("deleting firmware version %s of %s: %w", version, codename, err)
	}
	return requireRow(result, codename+" "+version)
}

// Versions returns a device's published firmware versions, newest
// first.
func (r *SQLiteRepository) Versions(ctx context.Context, codename string) ([]FirmwareVersion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_codename, version, url, created_at
		 FROM firmware_versions WHERE device_codename = ? ORDER BY created_at DESC, id DESC`, codename)
	if err != nil {
		return nil, fmt.Errorf("querying firmware versions for %s: %w", codename, err)
	}
	defer rows.Close()

	versions := []FirmwareVersion{}
	for rows.Next() {
		var v FirmwareVersion
		var createdAt string
		if err := rows.Scan(&v.ID, &v.DeviceCodename, &v.Version, &v.URL, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning firmware version: %w", err)
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing firmware version timestamp %q: %w", createdAt, err)
		}
		v.CreatedAt = t
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating firmware versions: %w", err)
	}
	return versions, nil
}

// VersionCount returns how many firmware versions a device has
// published.
func (r *SQLiteRepository) VersionCount(ctx context.Context, codename string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM firmware_versions WHERE device_codename = ?`, codename).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting firmware versions for %s: %w", codename, err)
	}
	return count, nil
}

// LatestVersion returns the most recently published firmware version.
func (r *SQLiteRepository) LatestVersion(ctx context.Context, codename string) (*FirmwareVersion, error) {
	versions, err := r.Versions(ctx, codename)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: no firmware versions for %s", ErrNotFound, codename)
	}
	return &versions[0], nil
}

func scanDevice(s interface{ Scan(...any) error }) (*Device, error) {
	var d Device
	var description sql.NullString
	var createdAt, updatedAt string

	if err := s.Scan(&d.Codename, &d.Location, &d.Type, &d.DeviceID,
		&description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.Description = description.String

	var err error
	if d.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing device timestamp %q: %w", createdAt, err)
	}
	if d.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing device timestamp %q: %w", updatedAt, err)
	}
	return &d, nil
}

func requireRow(result sql.Result, codename string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, codename)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

// nullableString returns nil for empty strings, or the string
// otherwise. Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
