// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists finished reports in a SQLite database with a
// full-text index, so past runs can be listed, searched, and re-read. It
// stores documents only; reference ID assignments live and die with a
// single assembly run and are never persisted.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	_ "github.com/mattn/go-sqlite3"
)

const (
	indexDir = "index"
	dbFile   = "reports.db"
)

// Report is one archived report run.
type Report struct {
	ID        string    `json:"id" yaml:"id"`
	Topic     string    `json:"topic" yaml:"topic"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Chapters  int       `json:"chapters" yaml:"chapters"`
	RefCount  int       `json:"ref_count" yaml:"ref_count"`
	Document  string    `json:"document,omitempty" yaml:"document,omitempty"`
}

// Store manages the report archive SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the archive database at archiveDir/index/reports.db,
// creating the schema if needed.
func NewStore(archiveDir string, maxResults int) (*Store, error) {
	dbDir := filepath.Join(archiveDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			created_at TEXT NOT NULL,
			chapters INTEGER NOT NULL,
			ref_count INTEGER NOT NULL,
			document TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='reports_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE reports_fts USING fts5(topic, document, content=reports, content_rowid=rowid)`,
			`CREATE TRIGGER reports_ai AFTER INSERT ON reports BEGIN
				INSERT INTO reports_fts(rowid, topic, document) VALUES (new.rowid, new.topic, new.document);
			END`,
			`CREATE TRIGGER reports_ad AFTER DELETE ON reports BEGIN
				INSERT INTO reports_fts(reports_fts, rowid, topic, document) VALUES('delete', old.rowid, old.topic, old.document);
			END`,
			`CREATE TRIGGER reports_au AFTER UPDATE ON reports BEGIN
				INSERT INTO reports_fts(reports_fts, rowid, topic, document) VALUES('delete', old.rowid, old.topic, old.document);
				INSERT INTO reports_fts(rowid, topic, document) VALUES (new.rowid, new.topic, new.document);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Save stores a finished report. A zero CreatedAt is stamped with the
// current time; an empty ID gets a slug derived from topic and timestamp.
// Save returns the stored report's ID.
func (s *Store) Save(ctx context.Context, r Report) (string, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.ID == "" {
		r.ID = Slug(r.Topic) + "-" + r.CreatedAt.Format("20060102-150405")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, topic, created_at, chapters, ref_count, document)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Topic, r.CreatedAt.UTC().Format(time.RFC3339), r.Chapters, r.RefCount, r.Document)
	if err != nil {
		return "", fmt.Errorf("inserting report %s: %w", r.ID, err)
	}
	return r.ID, nil
}

// List returns archived reports in reverse chronological order, without
// document bodies.
func (s *Store) List(ctx context.Context) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, created_at, chapters, ref_count
		 FROM reports ORDER BY created_at DESC LIMIT ?`, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()
	return scanReports(rows, false)
}

// Search runs an FTS5 query over topics and documents and returns matching
// reports ranked by relevance, without document bodies.
func (s *Store) Search(ctx context.Context, query string) ([]Report, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is empty")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.topic, r.created_at, r.chapters, r.ref_count
		 FROM reports_fts
		 JOIN reports r ON r.rowid = reports_fts.rowid
		 WHERE reports_fts MATCH ?
		 ORDER BY reports_fts.rank LIMIT ?`, query, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching reports: %w", err)
	}
	defer rows.Close()
	return scanReports(rows, false)
}

// Get returns one archived report including its document body.
func (s *Store) Get(ctx context.Context, id string) (*Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, topic, created_at, chapters, ref_count, document
		 FROM reports WHERE id = ?`, id)

	var (
		r       Report
		created string
	)
	err := row.Scan(&r.ID, &r.Topic, &created, &r.Chapters, &r.RefCount, &r.Document)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", id, err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &r, nil
}

// scanReports reads report rows; withDocument controls whether the document
// column is expected in the row set.
func scanReports(rows *sql.Rows, withDocument bool) ([]Report, error) {
	var reports []Report
	for rows.Next() {
		var (
			r       Report
			created string
		)
		if withDocument {
			if err := rows.Scan(&r.ID, &r.Topic, &created, &r.Chapters, &r.RefCount, &r.Document); err != nil {
				return nil, fmt.Errorf("scanning report row: %w", err)
			}
		} else {
			if err := rows.Scan(&r.ID, &r.Topic, &created, &r.Chapters, &r.RefCount); err != nil {
				return nil, fmt.Errorf("scanning report row: %w", err)
			}
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// Slug converts a topic to a filesystem- and ID-safe slug. Letters and
// digits (any script) are kept, runs of anything else collapse to one
// hyphen.
func Slug(topic string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.TrimSpace(topic) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "report"
	}
	return slug
}
