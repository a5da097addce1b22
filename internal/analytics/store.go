// Package analytics records privacy-conscious visit counts: hashed visitor
// addresses and how often each page section becomes the active one.
package analytics

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Visitor struct {
	ID        int       `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

type SectionStat struct {
	SectionID   string    `json:"section_id"`
	Entries     int64     `json:"entries"`
	LastEntered time.Time `json:"last_entered"`
}

type Stats struct {
	TotalVisitors    int64         `json:"total_visitors"`
	UniqueVisitors   int64         `json:"unique_visitors"`
	VisitorsToday    int64         `json:"visitors_today"`
	VisitorsThisWeek int64         `json:"visitors_this_week"`
	SectionEntries   int64         `json:"section_entries"`
	TopSections      []SectionStat `json:"top_sections"`
	RecentVisitors   []Visitor     `json:"recent_visitors"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the sqlite database at path and applies
// pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("analytics: open: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("analytics: migrations source: %w", err)
	}
	defer src.Close()

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("analytics: migrations driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("analytics: migrate: %w", err)
	}
	// m.Close would close db as well; the store keeps using it.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("analytics: migrate up: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RecordVisit(ctx context.Context, hashedIP, userAgent, path string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, hashedIP, userAgent, path, s.now())
	return err
}

// RecordSectionEntry counts one transition into section id.
func (s *Store) RecordSectionEntry(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO section_views (section_id, entries, last_entered)
		VALUES (?, 1, ?)
		ON CONFLICT(section_id) DO UPDATE SET
			entries = entries + 1,
			last_entered = excluded.last_entered
	`, id, s.now())
	return err
}

// Cleanup removes visitor rows older than retention.
func (s *Store) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE timestamp < ?`, s.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{today}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{now.AddDate(0, 0, -7)}},
		{&stats.SectionEntries, `SELECT COALESCE(SUM(entries), 0) FROM section_views`, nil},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("analytics: stats: %w", err)
		}
	}

	var err error
	if stats.TopSections, err = s.Sections(ctx); err != nil {
		return nil, err
	}
	if stats.RecentVisitors, err = s.Visitors(ctx, 50); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) Sections(ctx context.Context) ([]SectionStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT section_id, entries, last_entered
		FROM section_views
		ORDER BY entries DESC, section_id
	`)
	if err != nil {
		return nil, fmt.Errorf("analytics: sections: %w", err)
	}
	defer rows.Close()

	var out []SectionStat
	for rows.Next() {
		var st SectionStat
		if err := rows.Scan(&st.SectionID, &st.Entries, &st.LastEntered); err != nil {
			return nil, fmt.Errorf("analytics: sections: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) Visitors(ctx context.Context, limit int) ([]Visitor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("analytics: visitors: %w", err)
	}
	defer rows.Close()

	var out []Visitor
	for rows.Next() {
		var v Visitor
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Timestamp); err != nil {
			return nil, fmt.Errorf("analytics: visitors: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
