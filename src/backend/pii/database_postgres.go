package pii

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresAuditDB implements AuditDB for PostgreSQL
type PostgresAuditDB struct {
	db         *sql.DB
	maxEntries int
}

// NewPostgresAuditDB connects to PostgreSQL and creates the audit table if needed
func NewPostgresAuditDB(ctx context.Context, config DatabaseConfig) (*PostgresAuditDB, error) {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := config.Port
	if port == 0 {
		port = 5432
	}

	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, port, config.Username, config.Password, config.Database, sslMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.MaxLifetime > 0 {
		db.SetConnMaxLifetime(config.MaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createPostgresTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &PostgresAuditDB{db: db, maxEntries: maxEntries(config.MaxEntries)}, nil
}

func createPostgresTables(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_events (
		id BIGSERIAL PRIMARY KEY,
		operation VARCHAR(32) NOT NULL,
		session_id VARCHAR(64) NOT NULL DEFAULT '',
		firm_id VARCHAR(128) NOT NULL DEFAULT '',
		entity_count INTEGER NOT NULL DEFAULT 0,
		entity_types TEXT NOT NULL DEFAULT '[]',
		score INTEGER NOT NULL DEFAULT 0,
		level VARCHAR(16) NOT NULL DEFAULT '',
		contributors TEXT NOT NULL DEFAULT '[]',
		failures INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_audit_events_created_at ON audit_events(created_at);
	CREATE INDEX IF NOT EXISTS idx_audit_events_operation ON audit_events(operation);
	CREATE INDEX IF NOT EXISTS idx_audit_events_session_id ON audit_events(session_id);
	`

	_, err := db.ExecContext(ctx, query)
	return err
}

// InsertEvent records an event and trims the table to the retention limit
func (p *PostgresAuditDB) InsertEvent(ctx context.Context, event AuditEvent) error {
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
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = p.db.ExecContext(ctx, query,
		event.Operation, event.SessionID, event.FirmID, event.EntityCount, types,
		event.Score, event.Level, contributors, event.Failures, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	trim := `
	DELETE FROM audit_events
	WHERE id < (SELECT MIN(id) FROM (SELECT id FROM audit_events ORDER BY id DESC LIMIT $1) newest)
	`
	if _, err := p.db.ExecContext(ctx, trim, p.maxEntries); err != nil {
		return fmt.Errorf("failed to trim audit events: %w", err)
	}
	return nil
}

// ListEvents retrieves events newest first
func (p *PostgresAuditDB) ListEvents(ctx context.Context, limit, offset int) ([]AuditEvent, error) {
	query := `
	SELECT id, operation, session_id, firm_id, entity_count, entity_types, score, level, contributors, failures, created_at
	FROM audit_events
	ORDER BY id DESC
	LIMIT $1 OFFSET $2
	`

	rows, err := p.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	events := []AuditEvent{}
	for rows.Next() {
		var event AuditEvent
		var types, contributors string
		if err := rows.Scan(&event.ID, &event.Operation, &event.SessionID, &event.FirmID,
			&event.EntityCount, &types, &event.Score, &event.Level, &contributors,
			&event.Failures, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		if event.EntityTypes, err = decodeList(types); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entity types: %w", err)
		}
		if event.Contributors, err = decodeList(contributors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal contributors: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}
	return events, nil
}

// CountEvents returns the total number of audit events
func (p *PostgresAuditDB) CountEvents(ctx context.Context) (int, error) {
	var count int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return count, nil
}

// ClearEvents removes all audit events
func (p *PostgresAuditDB) ClearEvents(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM audit_events`)
	return err
}

// Close closes the database connection
func (p *PostgresAuditDB) Close() error {
	return p.db.Close()
}
