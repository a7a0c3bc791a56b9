package pii

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Audit operations
const (
	OperationDetect         = "detect"
	OperationScore          = "score"
	OperationPseudonymize   = "pseudonymize"
	OperationDepseudonymize = "depseudonymize"
)

// Supported audit drivers
const (
	AuditDriverSQLite   = "sqlite"
	AuditDriverPostgres = "postgres"
	AuditDriverMemory   = "memory"
)

// DefaultMaxAuditEntries is the default number of audit events retained
const DefaultMaxAuditEntries = 5000

// AuditEvent is the metadata recorded for one service call. It never carries
// original text, matched values or pseudonyms.
type AuditEvent struct {
	ID           int64     `json:"id"`
	Operation    string    `json:"operation"`
	SessionID    string    `json:"session_id,omitempty"`
	FirmID       string    `json:"firm_id,omitempty"`
	EntityCount  int       `json:"entity_count"`
	EntityTypes  []string  `json:"entity_types"`
	Score        int       `json:"score"`
	Level        string    `json:"level,omitempty"`
	Contributors []string  `json:"contributors"`
	Failures     int       `json:"failures"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditDB stores audit events
type AuditDB interface {
	// InsertEvent records an event; CreatedAt is set when zero
	InsertEvent(ctx context.Context, event AuditEvent) error

	// ListEvents returns events newest first
	ListEvents(ctx context.Context, limit, offset int) ([]AuditEvent, error)

	// CountEvents returns the total number of stored events
	CountEvents(ctx context.Context) (int, error)

	// ClearEvents removes all events
	ClearEvents(ctx context.Context) error

	// Close closes the database connection
	Close() error
}

// DatabaseConfig holds audit database configuration
type DatabaseConfig struct {
	Driver     string
	Path       string // SQLite database file
	MaxEntries int

	// PostgreSQL
	Host         string
	Port         int
	Database     string
	Username     string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// NewAuditDB opens the audit database selected by config.Driver. An empty
// driver selects the in-memory store.
func NewAuditDB(ctx context.Context, config DatabaseConfig) (AuditDB, error) {
	switch strings.ToLower(config.Driver) {
	case AuditDriverSQLite:
		return NewSQLiteAuditDB(ctx, config)
	case AuditDriverPostgres:
		return NewPostgresAuditDB(ctx, config)
	case AuditDriverMemory, "":
		return NewInMemoryAuditDB(config.MaxEntries), nil
	default:
		return nil, fmt.Errorf("unsupported audit driver %q", config.Driver)
	}
}

func maxEntries(n int) int {
	if n <= 0 {
		return DefaultMaxAuditEntries
	}
	return n
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeList(data string) ([]string, error) {
	values := []string{}
	if data == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, err
	}
	return values, nil
}

// SQLiteAuditDB implements AuditDB for SQLite
type SQLiteAuditDB struct {
	db         *sql.DB
	maxEntries int
}

// NewSQLiteAuditDB opens (and creates if needed) a SQLite audit database
func NewSQLiteAuditDB(ctx context.Context, config DatabaseConfig) (*SQLiteAuditDB, error) {
	dbPath := config.Path
	if dbPath == "" {
		dbPath = "irongate.db"
	}

	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// SQLite works best with a single writer connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createSQLiteTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteAuditDB{db: db, maxEntries: maxEntries(config.MaxEntries)}, nil
}

func createSQLiteTables(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS audit_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			operation TEXT NOT NULL,
			session_id TEXT NOT NULL DEFAULT '',
			firm_id TEXT NOT NULL DEFAULT '',
			entity_count INTEGER NOT NULL DEFAULT 0,
			entity_types TEXT NOT NULL DEFAULT '[]',
			score INTEGER NOT NULL DEFAULT 0,
			level TEXT NOT NULL DEFAULT '',
			contributors TEXT NOT NULL DEFAULT '[]',
			failures INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_created_at ON audit_events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_operation ON audit_events(operation)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_session_id ON audit_events(session_id)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute: %s: %w", query, err)
		}
	}
	return nil
}

// InsertEvent records an event and trims the table to the retention limit
func (s *SQLiteAuditDB) InsertEvent(ctx context.Context, event AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	types, err := encodeList(event.EntityTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal entity types: %w", err)
	}
	contributors, err := encodeList(event.Contributors)
	if err != nil {
		return fmt.Errorf("failed to marshal contributors: %w", err)
	}

	query := `
	INSERT INTO audit_events (operation, session_id, firm_id, entity_count, entity_types, score, level, contributors, failures, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		event.Operation, event.SessionID, event.FirmID, event.EntityCount, types,
		event.Score, event.Level, contributors, event.Failures,
		event.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	trim := `DELETE FROM audit_events WHERE id NOT IN (SELECT id FROM audit_events ORDER BY id DESC LIMIT ?)`
	if _, err := s.db.ExecContext(ctx, trim, s.maxEntries); err != nil {
		return fmt.Errorf("failed to trim audit events: %w", err)
	}
	return nil
}

// ListEvents retrieves events newest first
func (s *SQLiteAuditDB) ListEvents(ctx context.Context, limit, offset int) ([]AuditEvent, error) {
	query := `
	SELECT id, operation, session_id, firm_id, entity_count, entity_types, score, level, contributors, failures, created_at
	FROM audit_events
	ORDER BY id DESC
	LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	events := []AuditEvent{}
	for rows.Next() {
		var event AuditEvent
		var types, contributors, createdAt string
		if err := rows.Scan(&event.ID, &event.Operation, &event.SessionID, &event.FirmID,
			&event.EntityCount, &types, &event.Score, &event.Level, &contributors,
			&event.Failures, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}

		if event.EntityTypes, err = decodeList(types); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entity types: %w", err)
		}
		if event.Contributors, err = decodeList(contributors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal contributors: %w", err)
		}
		event.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}
	return events, nil
}

// CountEvents returns the total number of audit events
func (s *SQLiteAuditDB) CountEvents(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return count, nil
}

// ClearEvents removes all audit events
func (s *SQLiteAuditDB) ClearEvents(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM audit_events`); err != nil {
		return fmt.Errorf("failed to clear audit events: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteAuditDB) Close() error {
	return s.db.Close()
}
