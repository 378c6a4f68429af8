package updatelog

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the
// update_logs schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}

	// Matches the update_logs migration.
	schema := `
		CREATE TABLE update_logs (
			session_id TEXT PRIMARY KEY,
			device_codename TEXT NOT NULL,
			device_mac TEXT,
			device_location TEXT NOT NULL DEFAULT '',
			device_type TEXT NOT NULL DEFAULT '',
			device_id TEXT NOT NULL DEFAULT '',
			firmware_version TEXT NOT NULL DEFAULT '',
			firmware_size_kb REAL NOT NULL DEFAULT 0,
			download_started_at TEXT,
			bytes_written INTEGER NOT NULL DEFAULT 0,
			download_duration_sec REAL NOT NULL DEFAULT 0,
			download_speed_kbps REAL NOT NULL DEFAULT 0,
			download_completed_at TEXT,
			flash_completed_at TEXT,
			flash_status TEXT NOT NULL DEFAULT 'in progress',
			created_at TEXT NOT NULL
		);`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func testRecord(sessionID, codename, version string) *Record {
	return &Record{
		SessionID:       sessionID,
		DeviceCodename:  codename,
		FirmwareVersion: version,
		FlashStatus:     StatusInProgress,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}
}

func TestUpsertAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	rec := testRecord("Ab3Kf12345", "greenhouse-a_sensor_node-1", "2.1.0")
	rec.DeviceMAC = "AA:BB:CC:DD:EE:FF"
	rec.DownloadStartedAt = "2026-08-30T10:00:00Z"

	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, "Ab3Kf12345")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.DeviceCodename != rec.DeviceCodename || got.DeviceMAC != rec.DeviceMAC {
		t.Errorf("Get() = %+v, want stored record", got)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
}

func TestUpsertUpdatesExistingRow(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	rec := testRecord("Ab3Kf12345", "greenhouse-a_sensor_node-1", "2.1.0")
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	rec.FlashStatus = StatusSuccess
	rec.FlashCompletedAt = "2026-08-30T10:01:00Z"
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, "Ab3Kf12345")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.FlashStatus != StatusSuccess || got.FlashCompletedAt != "2026-08-30T10:01:00Z" {
		t.Errorf("row not updated: %+v", got)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d after upsert of same session, want 1", count)
	}
}

func TestUpsertSupersedesLocalRow(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	local := testRecord("local-a1b2c3d4e5f6", "greenhouse-a_sensor_node-1", "2.1.0")
	local.DownloadStartedAt = "2026-08-30T10:00:00Z"
	if err := repo.Upsert(ctx, local); err != nil {
		t.Fatalf("Upsert(local) error = %v", err)
	}

	// Same attempt, now carrying its real session id.
	real := testRecord("Ab3Kf12345", "greenhouse-a_sensor_node-1", "2.1.0")
	real.DownloadStartedAt = "2026-08-30T10:00:00Z"
	real.FlashStatus = StatusSuccess
	if err := repo.Upsert(ctx, real); err != nil {
		t.Fatalf("Upsert(real) error = %v", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, local row should have been superseded", count)
	}

	if _, err := repo.Get(ctx, "local-a1b2c3d4e5f6"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(local) error = %v, want ErrNotFound", err)
	}
}

func TestGetNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestListFilterAndPagination(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	seed := []struct {
		session  string
		codename string
		version  string
		status   string
	}{
		{"Aaaaa11111", "greenhouse-a_sensor_node-1", "2.1.0", StatusSuccess},
		{"Bbbbb22222", "greenhouse-a_sensor_node-1", "2.0.0", StatusFailed},
		{"Ccccc33333", "lab_actuator_pump-2", "1.0.0", StatusSuccess},
	}
	for i, s := range seed {
		rec := testRecord(s.session, s.codename, s.version)
		rec.FlashStatus = s.status
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert(%s) error = %v", s.session, err)
		}
	}

	result, err := repo.List(ctx, Filter{DeviceCodename: "greenhouse-a_sensor_node-1"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 2 || len(result.Records) != 2 {
		t.Fatalf("List(codename) total = %d records = %d, want 2/2", result.Total, len(result.Records))
	}
	// Newest first.
	if result.Records[0].SessionID != "Bbbbb22222" {
		t.Errorf("first record = %s, want newest Bbbbb22222", result.Records[0].SessionID)
	}

	result, err = repo.List(ctx, Filter{FlashStatus: StatusSuccess, Page: 2, PageSize: 1})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 2 || len(result.Records) != 1 {
		t.Fatalf("paginated total = %d records = %d, want 2/1", result.Total, len(result.Records))
	}
	if result.Page != 2 || result.PageSize != 1 {
		t.Errorf("page = %d size = %d, want 2/1", result.Page, result.PageSize)
	}
}

func TestDelete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, testRecord("Ab3Kf12345", "lab_actuator_pump-2", "1.0.0")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := repo.Delete(ctx, "Ab3Kf12345"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "Ab3Kf12345"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() of missing row error = %v, want ErrNotFound", err)
	}
}

func TestFilterOptions(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	records := []*Record{
		testRecord("Aaaaa11111", "greenhouse-a_sensor_node-1", "2.1.0"),
		testRecord("Bbbbb22222", "greenhouse-a_sensor_node-1", "2.0.0"),
		testRecord("Ccccc33333", "lab_actuator_pump-2", "1.0.0"),
	}
	records[2].FlashStatus = StatusSuccess
	for _, rec := range records {
		if err := repo.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	opts, err := repo.FilterOptions(ctx)
	if err != nil {
		t.Fatalf("FilterOptions() error = %v", err)
	}
	if len(opts.DeviceCodenames) != 2 {
		t.Errorf("DeviceCodenames = %v, want 2 distinct", opts.DeviceCodenames)
	}
	if len(opts.FirmwareVersions) != 3 {
		t.Errorf("FirmwareVersions = %v, want 3 distinct", opts.FirmwareVersions)
	}
	if len(opts.FlashStatuses) != 2 {
		t.Errorf("FlashStatuses = %v, want 2 distinct", opts.FlashStatuses)
	}
}

func TestAllNewestFirst(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	old := testRecord("Aaaaa11111", "lab_actuator_pump-2", "1.0.0")
	old.CreatedAt = time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	recent := testRecord("Bbbbb22222", "lab_actuator_pump-2", "1.1.0")
	recent.CreatedAt = time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	for _, rec := range []*Record{old, recent} {
		if err := repo.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 2 || all[0].SessionID != "Bbbbb22222" {
		t.Errorf("All() order = %v, want newest first", all)
	}
}
