package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"

	"techbook/internal/apperr"
	"techbook/internal/models"
)

// SQLite stores bookings in a sqlite database file.
type SQLite struct {
	db     *sql.DB
	path   string
	loc    *time.Location
	logger *zerolog.Logger
}

// NewSQLite opens the database at path and runs migrations. Times are
// returned in loc.
func NewSQLite(path string, loc *time.Location, logger *zerolog.Logger) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &SQLite{db: db, path: path, loc: loc, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			customer_name TEXT NOT NULL,
			technician_name TEXT NOT NULL,
			technician_key TEXT NOT NULL,
			profession TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			start_unix INTEGER NOT NULL,
			end_unix INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_technician ON bookings(technician_key, start_unix, end_unix)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// Path returns the database file location.
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) PingContext(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Create(ctx context.Context, b *models.Booking) (string, error) {
	prepare(b, time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (id, customer_name, technician_name, technician_key, profession,
			start_time, end_time, start_unix, end_unix, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.CustomerName, b.TechnicianName, models.NormalizeName(b.TechnicianName), string(b.Profession),
		b.StartTime.Format(time.RFC3339Nano), b.EndTime.Format(time.RFC3339Nano),
		b.StartTime.Unix(), b.EndTime.Unix(), string(b.Status), b.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert booking: %w", err)
	}
	return b.ID, nil
}

const selectBooking = `SELECT id, customer_name, technician_name, profession, start_time, end_time, status, created_at FROM bookings`

func (s *SQLite) Get(ctx context.Context, id string) (*models.Booking, error) {
	row := s.db.QueryRowContext(ctx, selectBooking+` WHERE id = ?`, id)
	b, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (s *SQLite) ListActive(ctx context.Context) ([]models.Booking, error) {
	rows, err := s.db.QueryContext(ctx, selectBooking+` WHERE status = ? ORDER BY seq`, string(models.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// FindOverlap uses the technician index. The unix columns hold whole
// seconds, which is the precision every start time is resolved to.
func (s *SQLite) FindOverlap(ctx context.Context, technician string, iv models.Interval) (*models.Booking, error) {
	row := s.db.QueryRowContext(ctx, selectBooking+`
		WHERE technician_key = ? AND status = ? AND start_unix < ? AND end_unix > ?
		ORDER BY seq LIMIT 1`,
		models.NormalizeName(technician), string(models.StatusActive), iv.End.Unix(), iv.Start.Unix())
	b, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find overlapping booking: %w", err)
	}
	return b, nil
}

func (s *SQLite) Cancel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND status = ?`,
		string(models.StatusCancelled), id, string(models.StatusActive))
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLite) scan(row scanner) (*models.Booking, error) {
	var (
		b                     models.Booking
		profession, status    string
		start, end, createdAt string
	)
	if err := row.Scan(&b.ID, &b.CustomerName, &b.TechnicianName, &profession, &start, &end, &status, &createdAt); err != nil {
		return nil, err
	}
	b.Profession = models.Profession(profession)
	b.Status = models.BookingStatus(status)

	var err error
	if b.StartTime, err = s.parseTime(start); err != nil {
		return nil, err
	}
	if b.EndTime, err = s.parseTime(end); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = s.parseTime(createdAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *SQLite) parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", v, err)
	}
	return t.In(s.loc), nil
}

// Snapshot writes a consistent copy of the database to path.
func (s *SQLite) Snapshot(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return fmt.Errorf("vacuum into %s: %w", path, err)
	}
	return nil
}
