package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techbook/internal/config"
	"techbook/internal/models"
	"techbook/internal/store"
)

func newService(t *testing.T, cfg config.BackupConfig) (*BackupService, *store.SQLite) {
	t.Helper()
	logger := zerolog.Nop()
	db, err := store.NewSQLite(filepath.Join(t.TempDir(), "techbook.db"), time.UTC, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBackupService(db, cfg, time.UTC, &logger), db
}

func TestPerformBackup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	svc, db := newService(t, config.BackupConfig{Enabled: true, Schedule: "@daily", Path: dir, RetentionDays: 7})
	svc.now = func() time.Time { return time.Date(2025, 1, 30, 3, 0, 0, 0, time.UTC) }

	id, err := db.Create(context.Background(), &models.Booking{
		TechnicianName: "Mike Johnson",
		Profession:     models.Plumber,
		StartTime:      time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	path, err := svc.PerformBackup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backup_20250130_030000.db"), path)

	logger := zerolog.Nop()
	copyDB, err := store.NewSQLite(path, time.UTC, &logger)
	require.NoError(t, err)
	defer copyDB.Close()
	got, err := copyDB.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Mike Johnson", got.TechnicianName)
}

func TestCleanupOldBackups(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newService(t, config.BackupConfig{Path: dir, RetentionDays: 7})
	now := time.Now()
	svc.now = func() time.Time { return now }

	write := func(name string, age time.Duration) {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
		require.NoError(t, os.Chtimes(p, now.Add(-age), now.Add(-age)))
	}
	write("backup_old.db", 10*24*time.Hour)
	write("backup_new.db", 24*time.Hour)
	write("notes.txt", 30*24*time.Hour)

	assert.Equal(t, 1, svc.CleanupOldBackups())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"backup_new.db", "notes.txt"}, names)
}

func TestStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, _ := newService(t, config.BackupConfig{Enabled: false})
	assert.NoError(t, svc.Start(ctx))

	svc, _ = newService(t, config.BackupConfig{Enabled: true, Schedule: "not a schedule", Path: t.TempDir()})
	assert.Error(t, svc.Start(ctx))

	svc, _ = newService(t, config.BackupConfig{Enabled: true, Schedule: "@every 1h", Path: t.TempDir()})
	require.NoError(t, svc.Start(ctx))
	assert.Len(t, svc.cron.Entries(), 1)
}
