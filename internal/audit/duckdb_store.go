// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DuckDBStore keeps the audit trail in the catalog database.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates the audit_events table on db if needed.
func NewDuckDBStore(ctx context.Context, db *sql.DB) (*DuckDBStore, error) {
	s := &DuckDBStore{db: db}
	if err := s.createTable(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DuckDBStore) createTable(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS audit_events (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			type TEXT NOT NULL,
			outcome TEXT NOT NULL,
			actor_name TEXT NOT NULL,
			actor_role TEXT,
			action TEXT NOT NULL,
			execution_id TEXT,
			handler_id TEXT,
			category TEXT,
			description TEXT NOT NULL,
			source_ip TEXT,
			request_id TEXT,
			correlation_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_actor ON audit_events(actor_name)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_execution ON audit_events(execution_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create audit table: %w", err)
		}
	}
	return nil
}

// Save implements Store.
func (s *DuckDBStore) Save(ctx context.Context, event *Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, timestamp, type, outcome, actor_name, actor_role,
			action, execution_id, handler_id, category, description,
			source_ip, request_id, correlation_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp.UTC(), string(event.Type), string(event.Outcome),
		event.Actor.Name, nullable(event.Actor.Role),
		event.Action, nullable(event.ExecutionID), nullable(event.HandlerID),
		nullable(event.Category), event.Description,
		nullable(event.SourceIP), nullable(event.RequestID), nullable(event.CorrelationID),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}
	return nil
}

// Query implements Store.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	var conditions []string
	var args []any

	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		conditions = append(conditions, "type IN ("+strings.Join(placeholders, ",")+")")
	}
	if filter.Actor != "" {
		conditions = append(conditions, "actor_name = ?")
		args = append(args, filter.Actor)
	}
	if filter.ExecutionID != "" {
		conditions = append(conditions, "execution_id = ?")
		args = append(args, filter.ExecutionID)
	}
	if filter.Since != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.Since.UTC())
	}

	query := `SELECT id, timestamp, type, outcome, actor_name, actor_role,
		action, execution_id, handler_id, category, description,
		source_ip, request_id, correlation_id
		FROM audit_events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var typ, outcome string
		var role, execID, handlerID, category, sourceIP, requestID, correlationID sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &typ, &outcome, &e.Actor.Name, &role,
			&e.Action, &execID, &handlerID, &category, &e.Description,
			&sourceIP, &requestID, &correlationID); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.Type = EventType(typ)
		e.Outcome = Outcome(outcome)
		e.Actor.Role = role.String
		e.ExecutionID = execID.String
		e.HandlerID = handlerID.String
		e.Category = category.String
		e.SourceIP = sourceIP.String
		e.RequestID = requestID.String
		e.CorrelationID = correlationID.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

// Delete implements Store.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_events WHERE timestamp < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit events: %w", err)
	}
	return res.RowsAffected()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
