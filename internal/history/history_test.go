package history_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/faultwatch/internal/errors"
	"codeberg.org/mutker/faultwatch/internal/history"
	"codeberg.org/mutker/faultwatch/internal/logger"
	"codeberg.org/mutker/faultwatch/internal/telemetry"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) history.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := history.DefaultConfig()
	cfg.Enabled = true
	cfg.DBPath = filepath.Join(dir, "data", "history.db")
	cfg.BackupDir = filepath.Join(dir, "backups")
	cfg.BatchTimeout = 0
	return cfg
}

func entry(id string, at time.Time, label string) *history.Entry {
	return &history.Entry{
		ID:        id,
		Timestamp: at,
		Reading: telemetry.Reading{
			Voltage:     230.5,
			Current:     0,
			Power:       1500,
			Energy:      0,
			Frequency:   50,
			PowerFactor: 0.95,
			Temperature: 45.2,
		},
		Defaulted: []string{"current", "energy"},
		SourceOK:  true,
		Label:     label,
		Cause:     "cause of " + label,
	}
}

func TestRecordAndRecent(t *testing.T) {
	cfg := testConfig(t)
	rec, err := history.NewService(cfg, logger.Nop())
	require.NoError(t, err)
	defer rec.Close()

	base := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()
	require.NoError(t, rec.Record(ctx, entry("a", base, "Normal")))
	require.NoError(t, rec.Record(ctx, entry("b", base.Add(30*time.Second), "Overload")))

	stale := entry("c", base.Add(time.Minute), "Overload")
	stale.Stale = true
	stale.SourceOK = false
	stale.InferenceError = "Fault inference failed"
	require.NoError(t, rec.Record(ctx, stale))

	entries, err := rec.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "c", entries[0].ID)
	assert.True(t, entries[0].Stale)
	assert.False(t, entries[0].SourceOK)
	assert.Equal(t, "Fault inference failed", entries[0].InferenceError)
	assert.True(t, base.Add(time.Minute).Equal(entries[0].Timestamp))

	assert.Equal(t, "b", entries[1].ID)
	assert.Equal(t, "Overload", entries[1].Label)
	assert.Equal(t, "cause of Overload", entries[1].Cause)
	assert.Equal(t, []string{"current", "energy"}, entries[1].Defaulted)
	assert.Equal(t, 230.5, entries[1].Reading.Voltage)
	assert.Equal(t, 45.2, entries[1].Reading.Temperature)
}

func TestCloseFlushesBuffer(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 100

	rec, err := history.NewService(cfg, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, rec.Record(context.Background(), entry("a", time.Now(), "Normal")))
	require.NoError(t, rec.Close())

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM cycles").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 1

	rec, err := history.NewService(cfg, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, rec.Record(context.Background(), entry("a", time.Now(), "Normal")))
	require.NoError(t, rec.Close())

	rec, err = history.NewService(cfg, logger.Nop())
	require.NoError(t, err)
	defer rec.Close()

	entries, err := rec.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].ID)
}

func TestBufferBoundedWhileFlushFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 1

	rec, err := history.NewService(cfg, logger.Nop())
	require.NoError(t, err)
	defer rec.Close()

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("ALTER TABLE cycles RENAME TO cycles_offline")
	require.NoError(t, err)

	ctx := context.Background()
	base := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		id := fmt.Sprintf("c%02d", i)
		assert.Error(t, rec.Record(ctx, entry(id, base.Add(time.Duration(i)*time.Second), "Normal")))
	}

	_, err = db.Exec("ALTER TABLE cycles_offline RENAME TO cycles")
	require.NoError(t, err)

	entries, err := rec.Recent(ctx, 100)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	assert.Equal(t, "c14", entries[0].ID)
	assert.Equal(t, "c05", entries[9].ID)
}

func TestMigrationBacksUpOldSchema(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755))

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE schema_versions (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
		INSERT INTO schema_versions (version, applied_at) VALUES (99, datetime('now'));
		CREATE TABLE cycles (id TEXT PRIMARY KEY);`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	rec, err := history.NewService(cfg, logger.Nop())
	require.NoError(t, err)
	defer rec.Close()

	backups, err := filepath.Glob(filepath.Join(cfg.BackupDir, "history_v99_*.db"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	require.NoError(t, rec.Record(context.Background(), entry("a", time.Now(), "Normal")))
	entries, err := rec.Recent(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSchemaVersion(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "schema.db"))
	require.NoError(t, err)
	defer db.Close()

	version, err := history.GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	require.NoError(t, history.InitSchema(db, logger.Nop()))

	version, err = history.GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, history.SchemaVersion, version)

	exists, err := history.TableExists(db, "cycles")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDisabledUsesNoop(t *testing.T) {
	rec, err := history.NewService(history.DefaultConfig(), logger.Nop())
	require.NoError(t, err)

	require.NoError(t, rec.Record(context.Background(), entry("a", time.Now(), "Normal")))
	entries, err := rec.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, rec.Close())
}

func TestRecordRejectsInvalidEntry(t *testing.T) {
	rec, err := history.NewService(testConfig(t), logger.Nop())
	require.NoError(t, err)
	defer rec.Close()

	err = rec.Record(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, history.ErrInvalidEntry))

	err = rec.Record(context.Background(), &history.Entry{})
	assert.True(t, errors.HasCode(err, history.ErrInvalidEntry))
}

func TestRecordCanceledContext(t *testing.T) {
	rec, err := history.NewService(testConfig(t), logger.Nop())
	require.NoError(t, err)
	defer rec.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = rec.Record(ctx, entry("a", time.Now(), "Normal"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, history.ErrOperationTimeout))
}

func TestConfigValidate(t *testing.T) {
	cfg := history.DefaultConfig()
	assert.NoError(t, cfg.Validate(), "disabled config is always valid")

	cfg.Enabled = true
	assert.NoError(t, cfg.Validate())

	cfg.DBPath = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, history.ErrInvalidDBPath))

	cfg = history.DefaultConfig()
	cfg.Enabled = true
	cfg.BatchSize = -1
	assert.Error(t, cfg.Validate())

	cfg = history.DefaultConfig()
	cfg.Enabled = true
	cfg.BackupDir = ""
	assert.Error(t, cfg.Validate())
}
