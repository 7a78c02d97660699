// Package database schedules copies of the sqlite booking database.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"techbook/internal/config"
)

// Snapshotter writes a consistent copy of the database to path.
type Snapshotter interface {
	Snapshot(ctx context.Context, path string) error
}

type BackupService struct {
	db     Snapshotter
	config config.BackupConfig
	logger *zerolog.Logger
	now    func() time.Time
	cron   *cron.Cron
}

func NewBackupService(db Snapshotter, cfg config.BackupConfig, loc *time.Location, logger *zerolog.Logger) *BackupService {
	if loc == nil {
		loc = time.UTC
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &BackupService{
		db:     db,
		config: cfg,
		logger: logger,
		now:    time.Now,
		cron:   cron.New(cron.WithParser(parser), cron.WithLocation(loc)),
	}
}

// Start registers the schedule and runs until ctx is done.
func (s *BackupService) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info().Msg("backup service is disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if _, err := s.PerformBackup(ctx); err != nil {
			s.logger.Error().Err(err).Msg("scheduled backup failed")
			return
		}
		s.CleanupOldBackups()
	})
	if err != nil {
		return fmt.Errorf("parse backup schedule %q: %w", s.config.Schedule, err)
	}

	s.logger.Info().Str("schedule", s.config.Schedule).Str("path", s.config.Path).Msg("backup service started")
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
	return nil
}

// PerformBackup writes a timestamped snapshot and returns its path.
func (s *BackupService) PerformBackup(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.config.Path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("backup_%s.db", s.now().Format("20060102_150405"))
	path := filepath.Join(s.config.Path, name)

	s.logger.Info().Str("path", path).Msg("performing database backup")
	if err := s.db.Snapshot(ctx, path); err != nil {
		return "", fmt.Errorf("snapshot database: %w", err)
	}
	s.logger.Info().Str("path", path).Msg("backup completed")
	return path, nil
}

// CleanupOldBackups removes backup files older than the retention period.
func (s *BackupService) CleanupOldBackups() int {
	if s.config.RetentionDays <= 0 {
		return 0
	}

	files, err := os.ReadDir(s.config.Path)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read backup directory for cleanup")
		return 0
	}

	cutoff := s.now().Add(-s.config.Retention())
	removed := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasPrefix(file.Name(), "backup_") {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", file.Name()).Msg("deleting old backup")
			if err := os.Remove(filepath.Join(s.config.Path, file.Name())); err == nil {
				removed++
			}
		}
	}
	return removed
}
