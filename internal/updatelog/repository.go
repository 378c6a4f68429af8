package updatelog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Filter controls which update logs to return.
type Filter struct {
	DeviceCodename  string // optional: filter by device codename
	FirmwareVersion string // optional: filter by firmware version
	FlashStatus     string // optional: filter by flash status
	Page            int    // 1-based page number, default 1
	PageSize        int    // default 10, max 100
}

// ListResult contains one page of update logs.
type ListResult struct {
	Records  []Record `json:"records"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

// FilterOptions are the distinct values present in the stored history,
// used to populate the dashboard's filter dropdowns.
type FilterOptions struct {
	DeviceCodenames  []string `json:"device_codenames"`
	FirmwareVersions []string `json:"firmware_versions"`
	FlashStatuses    []string `json:"flash_statuses"`
}

// Repository defines durable storage for reconciled update logs.
type Repository interface {
	Upsert(ctx context.Context, rec *Record) error
	Get(ctx context.Context, sessionID string) (*Record, error)
	List(ctx context.Context, filter Filter) (*ListResult, error)
	All(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, sessionID string) error
	Count(ctx context.Context) (int, error)
	FilterOptions(ctx context.Context) (*FilterOptions, error)
}

// SQLiteRepository stores update logs in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new update-log repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const recordColumns = `session_id, device_codename, device_mac, device_location, device_type, device_id,
	firmware_version, firmware_size_kb, download_started_at, bytes_written, download_duration_sec,
	download_speed_kbps, download_completed_at, flash_completed_at, flash_status, created_at`

// Upsert writes the record, replacing any existing row with the same
// session id. When the record carries a real session id, any synthetic
// "local-" row for the same update attempt is removed in the same
// transaction, so a record that learned its session id does not leave
// a duplicate behind.
func (r *SQLiteRepository) Upsert(ctx context.Context, rec *Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if !rec.IsLocal() && rec.DownloadStartedAt != "" {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM update_logs
			 WHERE session_id != ? AND session_id LIKE 'local-%'
			   AND device_codename = ? AND firmware_version = ? AND download_started_at = ?`,
			rec.SessionID, rec.DeviceCodename, rec.FirmwareVersion, rec.DownloadStartedAt,
		)
		if err != nil {
			return fmt.Errorf("removing superseded local row: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO update_logs (`+recordColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
			device_codename = excluded.device_codename,
			device_mac = excluded.device_mac,
			device_location = excluded.device_location,
			device_type = excluded.device_type,
			device_id = excluded.device_id,
			firmware_version = excluded.firmware_version,
			firmware_size_kb = excluded.firmware_size_kb,
			download_started_at = excluded.download_started_at,
			bytes_written = excluded.bytes_written,
			download_duration_sec = excluded.download_duration_sec,
			download_speed_kbps = excluded.download_speed_kbps,
			download_completed_at = excluded.download_completed_at,
			flash_completed_at = excluded.flash_completed_at,
			flash_status = excluded.flash_status`,
		rec.SessionID, rec.DeviceCodename, nullableString(rec.DeviceMAC),
		rec.DeviceLocation, rec.DeviceType, rec.DeviceID,
		rec.FirmwareVersion, rec.FirmwareSizeKB, nullableString(rec.DownloadStartedAt),
		rec.BytesWritten, rec.DownloadDurationSec, rec.DownloadSpeedKBps,
		nullableString(rec.DownloadCompletedAt), nullableString(rec.FlashCompletedAt),
		rec.FlashStatus, rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting update log %s: %w", rec.SessionID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// Get returns the update log with the given session id.
func (r *SQLiteRepository) Get(ctx context.Context, sessionID string) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM update_logs WHERE session_id = ?`, sessionID)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying update log %s: %w", sessionID, err)
	}
	return rec, nil
}

// List returns update logs matching the filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 10
	}
	if filter.PageSize > 100 { //nolint:mnd // max page size for history queries
		filter.PageSize = 100
	}

	var conditions []string
	var args []any

	if filter.DeviceCodename != "" {
		conditions = append(conditions, "device_codename = ?")
		args = append(args, filter.DeviceCodename)
	}
	if filter.FirmwareVersion != "" {
		conditions = append(conditions, "firmware_version = ?")
		args = append(args, filter.FirmwareVersion)
	}
	if filter.FlashStatus != "" {
		conditions = append(conditions, "flash_status = ?")
		args = append(args, filter.FlashStatus)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM update_logs %s", where) //nolint:gosec // WHERE built from parameterised conditions, not user input
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting update logs: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT "+recordColumns+" FROM update_logs %s ORDER BY created_at DESC, session_id LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	records, err := r.queryRecords(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Records:  records,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// All returns every stored record, newest first. Used to seed the
// reconciler at startup.
func (r *SQLiteRepository) All(ctx context.Context) ([]Record, error) {
	return r.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM update_logs ORDER BY created_at DESC, session_id`)
}

// Delete removes the update log with the given session id.
func (r *SQLiteRepository) Delete(ctx context.Context, sessionID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM update_logs WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("deleting update log %s: %w", sessionID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return nil
}

// Count returns the number of stored update attempts.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM update_logs`).Scan(&total); err != nil {
		return 0, fmt.Errorf("counting update logs: %w", err)
	}
	return total, nil
}

// FilterOptions returns the distinct codenames, firmware versions and
// flash statuses present in the history.
func (r *SQLiteRepository) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	opts := &FilterOptions{
		DeviceCodenames:  []string{},
		FirmwareVersions: []string{},
		FlashStatuses:    []string{},
	}

	queries := []struct {
		query string
		dest  *[]string
	}{
		{`SELECT DISTINCT device_codename FROM update_logs WHERE device_codename != '' ORDER BY device_codename`, &opts.DeviceCodenames},
		{`SELECT DISTINCT firmware_version FROM update_logs WHERE firmware_version != '' ORDER BY firmware_version`, &opts.FirmwareVersions},
		{`SELECT DISTINCT flash_status FROM update_logs ORDER BY flash_status`, &opts.FlashStatuses},
	}

	for _, q := range queries {
		rows, err := r.db.QueryContext(ctx, q.query)
		if err != nil {
			return nil, fmt.Errorf("querying filter options: %w", err)
		}
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning filter option: %w", err)
			}
			*q.dest = append(*q.dest, v)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterating filter options: %w", err)
		}
		rows.Close()
	}

	return opts, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var rec Record
	var mac, startedAt, downloadedAt, flashedAt sql.NullString
	var createdAt string

	err := s.Scan(&rec.SessionID, &rec.DeviceCodename, &mac,
		&rec.DeviceLocation, &rec.DeviceType, &rec.DeviceID,
		&rec.FirmwareVersion, &rec.FirmwareSizeKB, &startedAt,
		&rec.BytesWritten, &rec.DownloadDurationSec, &rec.DownloadSpeedKBps,
		&downloadedAt, &flashedAt, &rec.FlashStatus, &createdAt)
	if err != nil {
		return nil, err
	}

	rec.DeviceMAC = mac.String
	rec.DownloadStartedAt = startedAt.String
	rec.DownloadCompletedAt = downloadedAt.String
	rec.FlashCompletedAt = flashedAt.String

	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing update log timestamp %q: %w", createdAt, err)
	}
	rec.CreatedAt = t

	return &rec, nil
}

func (r *SQLiteRepository) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying update logs: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning update log: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating update logs: %w", err)
	}

	return records, nil
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
