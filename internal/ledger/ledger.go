// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a local SQLite record of import runs and the
// notebooks, sections, and pages each run created.
//
// The ledger is write-mostly history for the user. Imports never read it to
// skip or resume work.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/enex2onenote/pkg/types"
)

// Run status values.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

const defaultListLimit = 20

// timeLayout keeps every stored timestamp the same width so text order is
// time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded import.
type Run struct {
	ID         string
	Export     string
	ExportPath string
	Notebook   string
	NotebookID string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Pages      int
	Error      string
}

// Page is one page created by a run.
type Page struct {
	Title       string
	SectionID   string
	PageID      string
	WebURL      string
	Attachments int
	CreatedAt   time.Time
}

// Ledger manages the ledger database.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the ledger database at cfg.Path, creating parent
// directories and the schema as needed.
func Open(cfg types.LedgerConfig) (*Ledger, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("ledger path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l := &Ledger{db: db, now: time.Now}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			export TEXT NOT NULL,
			export_path TEXT,
			notebook TEXT,
			notebook_id TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			status TEXT NOT NULL,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			title TEXT NOT NULL,
			section_id TEXT,
			page_id TEXT,
			web_url TEXT,
			attachments INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_run_id ON pages(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// StartRun records a new running import and returns its ID.
func (l *Ledger) StartRun(ctx context.Context, export, exportPath string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, export, export_path, started_at, status) VALUES (?, ?, ?, ?, ?)`,
		id, export, exportPath, formatTime(l.now()), StatusRunning)
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	return id, nil
}

// SetNotebook records the notebook a run created.
func (l *Ledger) SetNotebook(ctx context.Context, runID, name, notebookID string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET notebook = ?, notebook_id = ? WHERE id = ?`,
		name, notebookID, runID)
	if err != nil {
		return fmt.Errorf("recording notebook: %w", err)
	}
	return nil
}

// RecordPage records a page a run created.
func (l *Ledger) RecordPage(ctx context.Context, runID string, p Page) error {
	created := p.CreatedAt
	if created.IsZero() {
		created = l.now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO pages (run_id, title, section_id, page_id, web_url, attachments, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, p.Title, p.SectionID, p.PageID, p.WebURL, p.Attachments, formatTime(created))
	if err != nil {
		return fmt.Errorf("recording page %q: %w", p.Title, err)
	}
	return nil
}

// FinishRun marks a run succeeded, or failed with runErr's message.
func (l *Ledger) FinishRun(ctx context.Context, runID string, runErr error) error {
	status, msg := StatusSucceeded, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, error = ? WHERE id = ?`,
		formatTime(l.now()), status, msg, runID)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

// Runs returns up to limit runs, newest first, with their page counts.
// A limit of 0 or less uses the default of 20.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT r.id, r.export, COALESCE(r.export_path, ''), COALESCE(r.notebook, ''),
		       COALESCE(r.notebook_id, ''), r.started_at, COALESCE(r.finished_at, ''),
		       r.status, COALESCE(r.error, ''),
		       (SELECT count(*) FROM pages p WHERE p.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at DESC, r.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Export, &r.ExportPath, &r.Notebook, &r.NotebookID,
			&started, &finished, &r.Status, &r.Error, &r.Pages); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Pages returns the pages recorded for a run in creation order.
func (l *Ledger) Pages(ctx context.Context, runID string) ([]Page, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT title, COALESCE(section_id, ''), COALESCE(page_id, ''), COALESCE(web_url, ''),
		       attachments, created_at
		FROM pages WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var p Page
		var created string
		if err := rows.Scan(&p.Title, &p.SectionID, &p.PageID, &p.WebURL, &p.Attachments, &created); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		p.CreatedAt = parseTime(created)
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Nop records nothing. It stands in for a Ledger when no path is configured.
type Nop struct{}

func (Nop) StartRun(context.Context, string, string) (string, error) { return "", nil }

func (Nop) SetNotebook(context.Context, string, string, string) error { return nil }

func (Nop) RecordPage(context.Context, string, Page) error { return nil }

func (Nop) FinishRun(context.Context, string, error) error { return nil }
